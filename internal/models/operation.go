package models

import "time"

// Источник баланса, на котором построены лимиты
const (
	BalanceSourceLive           = "live"
	BalanceSourceAssumedDefault = "assumed_default"
	BalanceSourceUnavailable    = "unavailable"
)

// OperationLimits - лимиты одной операции для исполнителя
type OperationLimits struct {
	ValorMinimoTrade       float64 `json:"valor_minimo_trade"`
	ValorMaximoTrade       float64 `json:"valor_maximo_trade"`
	ValorPorOperacao       float64 `json:"valor_por_operacao"`
	Alavancagem            int     `json:"alavancagem"`
	TakeProfitMultiplier   float64 `json:"take_profit_multiplier"`
	StopLossMultiplier     float64 `json:"stop_loss_multiplier"`
	MaxPosicoesSimultaneas int     `json:"max_posicoes_simultaneas"`
	MaxOperacoesDiarias    int     `json:"max_operacoes_diarias"`
	BalanceUSD             float64 `json:"balance_usd"`
	BalanceAware           bool    `json:"balance_aware"`

	// Viavel=false: баланс слишком мал для настроенного минимума,
	// минимум опущен до потолка безопасности
	Viavel bool `json:"viavel"`
}

// Provenance - откуда взялись данные пакета операции
type Provenance struct {
	CredentialSource  string `json:"credential_source"`
	BalanceSource     string `json:"balance_source"`
	UsedDefaultParams bool   `json:"used_default_params"`
	BalanceError      string `json:"balance_error,omitempty"`
}

// OperationBundle - все, что нужно исполнителю для одной операции
type OperationBundle struct {
	UserID     int64               `json:"user_id"`
	Exchange   string              `json:"exchange"`
	Symbol     string              `json:"symbol"`
	Credential *ResolvedCredential `json:"credential"`
	Limits     OperationLimits     `json:"limits"`
	Provenance Provenance          `json:"provenance"`
	PreparedAt time.Time           `json:"prepared_at"`
}
