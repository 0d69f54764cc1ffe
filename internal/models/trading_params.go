package models

import "time"

// Значения параметров по умолчанию
const (
	DefaultAlavancagem            = 5
	DefaultPercentualSaldo        = 30.0
	DefaultValorMinimoTrade       = 10.0
	DefaultValorMaximoTrade       = 5000.0
	DefaultTakeProfitMultiplier   = 2.0
	DefaultStopLossMultiplier     = 3.0
	DefaultMaxOperacoesDiarias    = 20
	DefaultMaxPosicoesSimultaneas = 2
	DefaultLimitePerdaDiaria      = 500.0
	DefaultMaxDrawdownPct         = 20.0
)

// TradingParameters - торговые параметры пользователя (одна строка на пользователя)
type TradingParameters struct {
	UserID                 int64     `json:"user_id" db:"user_id"`
	Alavancagem            int       `json:"alavancagem" db:"alavancagem"`
	PercentualSaldo        float64   `json:"percentual_saldo" db:"percentual_saldo"`
	ValorMinimoTrade       float64   `json:"valor_minimo_trade" db:"valor_minimo_trade"`
	ValorMaximoTrade       float64   `json:"valor_maximo_trade" db:"valor_maximo_trade"`
	TakeProfitMultiplier   float64   `json:"take_profit_multiplier" db:"take_profit_multiplier"`
	StopLossMultiplier     float64   `json:"stop_loss_multiplier" db:"stop_loss_multiplier"`
	MaxOperacoesDiarias    int       `json:"max_operacoes_diarias" db:"max_operacoes_diarias"`
	MaxPosicoesSimultaneas int       `json:"max_posicoes_simultaneas" db:"max_posicoes_simultaneas"`
	LimitePerdaDiaria      float64   `json:"limite_perda_diaria" db:"limite_perda_diaria"`
	MaxDrawdownPct         float64   `json:"max_drawdown_pct" db:"max_drawdown_pct"`
	ExchangesAtivas        []string  `json:"exchanges_ativas" db:"exchanges_ativas"`
	TradingAtivo           bool      `json:"trading_ativo" db:"trading_ativo"`
	UpdatedAt              time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultTradingParameters возвращает параметры по умолчанию для пользователя
func DefaultTradingParameters(userID int64) *TradingParameters {
	return &TradingParameters{
		UserID:                 userID,
		Alavancagem:            DefaultAlavancagem,
		PercentualSaldo:        DefaultPercentualSaldo,
		ValorMinimoTrade:       DefaultValorMinimoTrade,
		ValorMaximoTrade:       DefaultValorMaximoTrade,
		TakeProfitMultiplier:   DefaultTakeProfitMultiplier,
		StopLossMultiplier:     DefaultStopLossMultiplier,
		MaxOperacoesDiarias:    DefaultMaxOperacoesDiarias,
		MaxPosicoesSimultaneas: DefaultMaxPosicoesSimultaneas,
		LimitePerdaDiaria:      DefaultLimitePerdaDiaria,
		MaxDrawdownPct:         DefaultMaxDrawdownPct,
		ExchangesAtivas:        []string{},
		TradingAtivo:           true,
	}
}

// HasExchange - биржа включена пользователем
func (p *TradingParameters) HasExchange(exchange string) bool {
	for _, e := range p.ExchangesAtivas {
		if e == exchange {
			return true
		}
	}
	return false
}

// Clone возвращает глубокую копию
func (p *TradingParameters) Clone() *TradingParameters {
	c := *p
	c.ExchangesAtivas = append([]string{}, p.ExchangesAtivas...)
	return &c
}

// TradingParamsUpdate - частичное обновление; nil-поля не меняются
type TradingParamsUpdate struct {
	Alavancagem            *int      `json:"alavancagem,omitempty"`
	PercentualSaldo        *float64  `json:"percentual_saldo,omitempty"`
	ValorMinimoTrade       *float64  `json:"valor_minimo_trade,omitempty"`
	ValorMaximoTrade       *float64  `json:"valor_maximo_trade,omitempty"`
	TakeProfitMultiplier   *float64  `json:"take_profit_multiplier,omitempty"`
	StopLossMultiplier     *float64  `json:"stop_loss_multiplier,omitempty"`
	MaxOperacoesDiarias    *int      `json:"max_operacoes_diarias,omitempty"`
	MaxPosicoesSimultaneas *int      `json:"max_posicoes_simultaneas,omitempty"`
	LimitePerdaDiaria      *float64  `json:"limite_perda_diaria,omitempty"`
	MaxDrawdownPct         *float64  `json:"max_drawdown_pct,omitempty"`
	ExchangesAtivas        *[]string `json:"exchanges_ativas,omitempty"`
	TradingAtivo           *bool     `json:"trading_ativo,omitempty"`
}

// ApplyTo накладывает заданные поля на копию params
func (u TradingParamsUpdate) ApplyTo(params *TradingParameters) *TradingParameters {
	out := params.Clone()
	if u.Alavancagem != nil {
		out.Alavancagem = *u.Alavancagem
	}
	if u.PercentualSaldo != nil {
		out.PercentualSaldo = *u.PercentualSaldo
	}
	if u.ValorMinimoTrade != nil {
		out.ValorMinimoTrade = *u.ValorMinimoTrade
	}
	if u.ValorMaximoTrade != nil {
		out.ValorMaximoTrade = *u.ValorMaximoTrade
	}
	if u.TakeProfitMultiplier != nil {
		out.TakeProfitMultiplier = *u.TakeProfitMultiplier
	}
	if u.StopLossMultiplier != nil {
		out.StopLossMultiplier = *u.StopLossMultiplier
	}
	if u.MaxOperacoesDiarias != nil {
		out.MaxOperacoesDiarias = *u.MaxOperacoesDiarias
	}
	if u.MaxPosicoesSimultaneas != nil {
		out.MaxPosicoesSimultaneas = *u.MaxPosicoesSimultaneas
	}
	if u.LimitePerdaDiaria != nil {
		out.LimitePerdaDiaria = *u.LimitePerdaDiaria
	}
	if u.MaxDrawdownPct != nil {
		out.MaxDrawdownPct = *u.MaxDrawdownPct
	}
	if u.ExchangesAtivas != nil {
		out.ExchangesAtivas = append([]string{}, (*u.ExchangesAtivas)...)
	}
	if u.TradingAtivo != nil {
		out.TradingAtivo = *u.TradingAtivo
	}
	return out
}
