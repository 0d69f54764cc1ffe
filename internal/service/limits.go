package service

import (
	"tradekeys/internal/models"
	"tradekeys/pkg/utils"
)

const (
	// minTradeBalanceFraction - нижняя граница суммы сделки от баланса
	minTradeBalanceFraction = 0.01

	// maxTradeBalanceFraction - потолок безопасности: не больше половины баланса
	maxTradeBalanceFraction = 0.5
)

// ComputeLimits рассчитывает лимиты операции.
//
// С балансом (отрицательный считается нулем):
//
//	por_operacao = balance * pct / 100
//	min = max(balance * 1%, params.min)
//	max = min(por_operacao, balance * 50%, params.max)
//
// Суммы округляются вниз до центов. Минимум больше максимума опускается
// до максимума с Viavel=false, поэтому всегда min <= max <= balance * 0.5.
// Без баланса - статические params.min/max и por_operacao = params.min.
func ComputeLimits(params models.TradingParameters, balanceUSD *float64) models.OperationLimits {
	limits := models.OperationLimits{
		Alavancagem:            params.Alavancagem,
		TakeProfitMultiplier:   params.TakeProfitMultiplier,
		StopLossMultiplier:     params.StopLossMultiplier,
		MaxPosicoesSimultaneas: params.MaxPosicoesSimultaneas,
		MaxOperacoesDiarias:    params.MaxOperacoesDiarias,
	}

	if balanceUSD == nil {
		limits.ValorMinimoTrade = params.ValorMinimoTrade
		limits.ValorMaximoTrade = params.ValorMaximoTrade
		limits.ValorPorOperacao = params.ValorMinimoTrade
		limits.Viavel = params.ValorMinimoTrade <= params.ValorMaximoTrade
		return limits
	}

	balance := utils.NonNegative(*balanceUSD)
	porOperacao := utils.RoundDownCents(balance * params.PercentualSaldo / 100)
	half := balance * maxTradeBalanceFraction

	maxTrade := utils.RoundDownCents(utils.MinOf(porOperacao, half, params.ValorMaximoTrade))
	// округление в центах может дать float чуть выше границы
	maxTrade = utils.Min(maxTrade, utils.Min(half, params.ValorMaximoTrade))
	minTrade := utils.RoundDownCents(utils.Max(balance*minTradeBalanceFraction, params.ValorMinimoTrade))

	limits.Viavel = minTrade <= maxTrade
	minTrade = utils.Clamp(minTrade, 0, maxTrade)

	limits.BalanceUSD = balance
	limits.BalanceAware = true
	limits.ValorPorOperacao = porOperacao
	limits.ValorMinimoTrade = minTrade
	limits.ValorMaximoTrade = maxTrade
	return limits
}
