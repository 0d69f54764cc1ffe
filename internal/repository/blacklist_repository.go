package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"

	"tradekeys/internal/models"
)

// Ошибки репозитория черного списка
var (
	ErrBlacklistEntryNotFound = errors.New("blacklist entry not found")
	ErrBlacklistEntryExists   = errors.New("symbol already in blacklist")
)

// pgUniqueViolation - SQLSTATE нарушения UNIQUE
const pgUniqueViolation = "23505"

// BlacklistRepository - работа с таблицей symbol_blacklist
type BlacklistRepository struct {
	db *sql.DB
}

// NewBlacklistRepository создает новый экземпляр репозитория
func NewBlacklistRepository(db *sql.DB) *BlacklistRepository {
	return &BlacklistRepository{db: db}
}

// Create добавляет символ в черный список. Пустая биржа - запрет везде.
func (r *BlacklistRepository) Create(ctx context.Context, entry *models.BlacklistEntry) error {
	query := `
		INSERT INTO symbol_blacklist (exchange, symbol, reason, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	entry.Exchange = strings.ToLower(entry.Exchange)
	entry.Symbol = strings.ToUpper(entry.Symbol)
	entry.CreatedAt = time.Now().UTC()

	err := r.db.QueryRowContext(ctx, query,
		entry.Exchange,
		entry.Symbol,
		entry.Reason,
		entry.CreatedAt,
	).Scan(&entry.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrBlacklistEntryExists
		}
		return err
	}

	return nil
}

// Exists проверяет запрет символа на бирже: своей записью или глобальной
func (r *BlacklistRepository) Exists(ctx context.Context, exchange, symbol string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM symbol_blacklist
			WHERE symbol = $1 AND (exchange = $2 OR exchange = '')
		)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, strings.ToUpper(symbol), strings.ToLower(exchange)).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}

// GetAll возвращает весь черный список, новые записи первыми
func (r *BlacklistRepository) GetAll(ctx context.Context) ([]*models.BlacklistEntry, error) {
	query := `
		SELECT id, exchange, symbol, reason, created_at
		FROM symbol_blacklist
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.BlacklistEntry
	for rows.Next() {
		entry := &models.BlacklistEntry{}
		err := rows.Scan(
			&entry.ID,
			&entry.Exchange,
			&entry.Symbol,
			&entry.Reason,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// Delete удаляет запись (exchange, symbol); пустая биржа - глобальная запись
func (r *BlacklistRepository) Delete(ctx context.Context, exchange, symbol string) error {
	query := `DELETE FROM symbol_blacklist WHERE exchange = $1 AND symbol = $2`

	result, err := r.db.ExecContext(ctx, query, strings.ToLower(exchange), strings.ToUpper(symbol))
	if err != nil {
		return err
	}
	return expectAffected(result, ErrBlacklistEntryNotFound)
}

// isUniqueViolation проверяет, является ли ошибка нарушением UNIQUE constraint
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}
	return err != nil && strings.Contains(err.Error(), "duplicate key")
}
