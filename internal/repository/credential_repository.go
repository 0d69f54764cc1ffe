// Package repository - доступ к PostgreSQL через database/sql и lib/pq.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"tradekeys/internal/models"
)

// ErrCredentialNotFound - у пользователя нет активного ключа для биржи
var ErrCredentialNotFound = errors.New("credential not found")

const credentialColumns = `id, user_id, exchange, api_key, secret_key, passphrase, environment,
		is_active, validation_status, last_error, last_validated_at, created_at, updated_at`

// CredentialRepository - работа с таблицей user_api_keys.
// Значения ключей приходят и уходят в зашифрованном виде.
type CredentialRepository struct {
	db *sql.DB
}

// NewCredentialRepository создает новый экземпляр репозитория
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Upsert записывает единственную активную строку для (user_id, exchange).
// Существующая активная строка перезаписывается одним оператором.
func (r *CredentialRepository) Upsert(ctx context.Context, c *models.Credential) (int64, error) {
	query := `
		INSERT INTO user_api_keys (user_id, exchange, api_key, secret_key, passphrase, environment,
			is_active, validation_status, last_error, last_validated_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7, $8, $9, $10, $10)
		ON CONFLICT (user_id, exchange) WHERE is_active
		DO UPDATE SET
			api_key = EXCLUDED.api_key,
			secret_key = EXCLUDED.secret_key,
			passphrase = EXCLUDED.passphrase,
			environment = EXCLUDED.environment,
			validation_status = EXCLUDED.validation_status,
			last_error = EXCLUDED.last_error,
			last_validated_at = EXCLUDED.last_validated_at,
			updated_at = EXCLUDED.updated_at
		RETURNING id`

	now := time.Now().UTC()

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		c.UserID,
		c.Exchange,
		c.APIKey,
		c.SecretKey,
		c.Passphrase,
		c.Environment,
		c.ValidationStatus,
		c.LastError,
		nullTime(c.LastValidatedAt),
		now,
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	c.ID = id
	c.IsActive = true
	c.UpdatedAt = now
	return id, nil
}

// GetActive возвращает активный ключ пользователя для биржи
func (r *CredentialRepository) GetActive(ctx context.Context, userID int64, exchange string) (*models.Credential, error) {
	query := `
		SELECT ` + credentialColumns + `
		FROM user_api_keys
		WHERE user_id = $1 AND exchange = $2 AND is_active
		ORDER BY updated_at DESC
		LIMIT 1`

	c, err := scanCredential(r.db.QueryRowContext(ctx, query, userID, exchange))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCredentialNotFound
		}
		return nil, err
	}
	return c, nil
}

// UpdateValidation сохраняет результат проверки ключа на бирже
func (r *CredentialRepository) UpdateValidation(ctx context.Context, id int64, status, lastError string, validatedAt time.Time) error {
	query := `
		UPDATE user_api_keys
		SET validation_status = $1, last_error = $2, last_validated_at = $3, updated_at = $4
		WHERE id = $5`

	result, err := r.db.ExecContext(ctx, query, status, lastError, validatedAt, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectAffected(result, ErrCredentialNotFound)
}

// Deactivate снимает флаг is_active; строка остается в истории
func (r *CredentialRepository) Deactivate(ctx context.Context, userID int64, exchange string) error {
	query := `
		UPDATE user_api_keys
		SET is_active = FALSE, updated_at = $1
		WHERE user_id = $2 AND exchange = $3 AND is_active`

	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), userID, exchange)
	if err != nil {
		return err
	}
	return expectAffected(result, ErrCredentialNotFound)
}

// ListByUser возвращает все ключи пользователя, включая неактивные
func (r *CredentialRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Credential, error) {
	query := `
		SELECT ` + credentialColumns + `
		FROM user_api_keys
		WHERE user_id = $1
		ORDER BY exchange, is_active DESC, updated_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*models.Credential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

// CountByStatus - число активных ключей по бирже и статусу проверки
func (r *CredentialRepository) CountByStatus(ctx context.Context) ([]models.StatusCount, error) {
	query := `
		SELECT exchange, validation_status, COUNT(*)
		FROM user_api_keys
		WHERE is_active
		GROUP BY exchange, validation_status
		ORDER BY exchange, validation_status`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []models.StatusCount
	for rows.Next() {
		var sc models.StatusCount
		if err := rows.Scan(&sc.Exchange, &sc.Status, &sc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, sc)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}

// rowScanner - общий интерфейс *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCredential(row rowScanner) (*models.Credential, error) {
	c := &models.Credential{}
	var validatedAt sql.NullTime

	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.Exchange,
		&c.APIKey,
		&c.SecretKey,
		&c.Passphrase,
		&c.Environment,
		&c.IsActive,
		&c.ValidationStatus,
		&c.LastError,
		&validatedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if validatedAt.Valid {
		t := validatedAt.Time
		c.LastValidatedAt = &t
	}
	return c, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// expectAffected возвращает notFound, если запрос не затронул ни одной строки
func expectAffected(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
