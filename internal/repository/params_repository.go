package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"tradekeys/internal/models"
)

// ErrParamsNotFound - у пользователя нет сохраненных параметров
var ErrParamsNotFound = errors.New("trading parameters not found")

const paramsColumns = `user_id, alavancagem, valor_minimo_trade, valor_maximo_trade, percentual_saldo,
		take_profit_multiplier, stop_loss_multiplier, max_operacoes_diarias, max_posicoes_simultaneas,
		limite_perda_diaria, max_drawdown_pct, exchanges_ativas, trading_ativo, updated_at`

// TradingParamsRepository - работа с таблицей user_trading_params
type TradingParamsRepository struct {
	db *sql.DB
}

// NewTradingParamsRepository создает новый экземпляр репозитория
func NewTradingParamsRepository(db *sql.DB) *TradingParamsRepository {
	return &TradingParamsRepository{db: db}
}

// Get возвращает параметры пользователя или ErrParamsNotFound
func (r *TradingParamsRepository) Get(ctx context.Context, userID int64) (*models.TradingParameters, error) {
	query := `
		SELECT ` + paramsColumns + `
		FROM user_trading_params
		WHERE user_id = $1`

	p := &models.TradingParameters{}
	var exchanges pq.StringArray
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID,
		&p.Alavancagem,
		&p.ValorMinimoTrade,
		&p.ValorMaximoTrade,
		&p.PercentualSaldo,
		&p.TakeProfitMultiplier,
		&p.StopLossMultiplier,
		&p.MaxOperacoesDiarias,
		&p.MaxPosicoesSimultaneas,
		&p.LimitePerdaDiaria,
		&p.MaxDrawdownPct,
		&exchanges,
		&p.TradingAtivo,
		&p.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParamsNotFound
		}
		return nil, err
	}

	p.ExchangesAtivas = []string(exchanges)
	if p.ExchangesAtivas == nil {
		p.ExchangesAtivas = []string{}
	}
	return p, nil
}

// Upsert сохраняет параметры целиком одним оператором
func (r *TradingParamsRepository) Upsert(ctx context.Context, p *models.TradingParameters) error {
	query := `
		INSERT INTO user_trading_params (` + paramsColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (user_id) DO UPDATE SET
			alavancagem = EXCLUDED.alavancagem,
			valor_minimo_trade = EXCLUDED.valor_minimo_trade,
			valor_maximo_trade = EXCLUDED.valor_maximo_trade,
			percentual_saldo = EXCLUDED.percentual_saldo,
			take_profit_multiplier = EXCLUDED.take_profit_multiplier,
			stop_loss_multiplier = EXCLUDED.stop_loss_multiplier,
			max_operacoes_diarias = EXCLUDED.max_operacoes_diarias,
			max_posicoes_simultaneas = EXCLUDED.max_posicoes_simultaneas,
			limite_perda_diaria = EXCLUDED.limite_perda_diaria,
			max_drawdown_pct = EXCLUDED.max_drawdown_pct,
			exchanges_ativas = EXCLUDED.exchanges_ativas,
			trading_ativo = EXCLUDED.trading_ativo,
			updated_at = EXCLUDED.updated_at`

	p.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query, paramsArgs(p)...)
	return err
}

// EnableExchange создает строку с параметрами p или, если она уже есть,
// добавляет exchange в exchanges_ativas. Одним оператором, без блокировок.
// Возвращает true, если строка создана или изменена.
func (r *TradingParamsRepository) EnableExchange(ctx context.Context, p *models.TradingParameters, exchange string) (bool, error) {
	query := `
		INSERT INTO user_trading_params (` + paramsColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (user_id) DO UPDATE SET
			exchanges_ativas = array_append(user_trading_params.exchanges_ativas, $15::text),
			updated_at = EXCLUDED.updated_at
		WHERE NOT ($15::text = ANY(user_trading_params.exchanges_ativas))`

	p.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx, query, append(paramsArgs(p), exchange)...)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

func paramsArgs(p *models.TradingParameters) []interface{} {
	exchanges := p.ExchangesAtivas
	if exchanges == nil {
		exchanges = []string{}
	}
	return []interface{}{
		p.UserID,
		p.Alavancagem,
		p.ValorMinimoTrade,
		p.ValorMaximoTrade,
		p.PercentualSaldo,
		p.TakeProfitMultiplier,
		p.StopLossMultiplier,
		p.MaxOperacoesDiarias,
		p.MaxPosicoesSimultaneas,
		p.LimitePerdaDiaria,
		p.MaxDrawdownPct,
		pq.Array(exchanges),
		p.TradingAtivo,
		p.UpdatedAt,
	}
}
