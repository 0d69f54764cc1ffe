package service

import (
	"context"
	"errors"

	"tradekeys/internal/models"
	"tradekeys/internal/repository"
	"tradekeys/pkg/utils"
)

// Допустимые диапазоны параметров
const (
	minAlavancagem            = 1
	maxAlavancagem            = 10
	minPercentualSaldo        = 10.0
	maxPercentualSaldo        = 50.0
	minMaxPosicoesSimultaneas = 1
	maxMaxPosicoesSimultaneas = 2
	minLimitePerdaDiaria      = 10.0
	maxLimitePerdaDiaria      = 10000.0
	minMaxDrawdownPct         = 5.0
	maxMaxDrawdownPct         = 50.0
)

// ParamsService - торговые параметры пользователя
type ParamsService struct {
	repo     TradingParamsRepositoryInterface
	registry ExchangeRegistry
}

// NewParamsService создает новый экземпляр ParamsService.
// registry используется для проверки exchanges_ativas; nil отключает проверку.
func NewParamsService(repo TradingParamsRepositoryInterface, registry ExchangeRegistry) *ParamsService {
	return &ParamsService{repo: repo, registry: registry}
}

// GetOrDefault возвращает сохраненные параметры или значения по умолчанию.
// Второй результат - true, если использованы значения по умолчанию.
func (s *ParamsService) GetOrDefault(ctx context.Context, userID int64) (*models.TradingParameters, bool, error) {
	p, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrParamsNotFound) {
			return s.defaults(userID), true, nil
		}
		return nil, false, err
	}
	return p, false, nil
}

// defaults - параметры по умолчанию; включены все зарегистрированные биржи
func (s *ParamsService) defaults(userID int64) *models.TradingParameters {
	p := models.DefaultTradingParameters(userID)
	if s.registry != nil {
		p.ExchangesAtivas = s.registry.Names()
	}
	return p
}

// MergeAndValidate накладывает обновление на текущие параметры, проверяет результат
// и сохраняет его. При любом нарушении возвращается *ValidationError со всеми
// нарушениями, в БД ничего не пишется.
func (s *ParamsService) MergeAndValidate(ctx context.Context, userID int64, update models.TradingParamsUpdate) (*models.TradingParameters, error) {
	if err := utils.ValidateUserID(userID); err != nil {
		return nil, err
	}

	current, _, err := s.GetOrDefault(ctx, userID)
	if err != nil {
		return nil, err
	}

	merged := update.ApplyTo(current)
	merged.ExchangesAtivas = normalizeExchanges(merged.ExchangesAtivas)

	if err := s.Validate(merged); err != nil {
		return nil, err
	}

	if err := s.repo.Upsert(ctx, merged); err != nil {
		return nil, err
	}

	utils.L().WithComponent("params").WithUserID(userID).Info("trading parameters updated",
		utils.Float64("percentual_saldo", merged.PercentualSaldo),
		utils.Int("alavancagem", merged.Alavancagem),
		utils.Strings("exchanges_ativas", merged.ExchangesAtivas),
	)
	return merged, nil
}

// EnsureDefaults включает биржу в exchanges_ativas пользователя.
// Если строки еще нет, создаются параметры по умолчанию вместе с этой биржей;
// остальные поля существующей строки не меняются.
func (s *ParamsService) EnsureDefaults(ctx context.Context, userID int64, exchangeName string) error {
	exchangeName = utils.NormalizeExchange(exchangeName)
	if exchangeName == "" {
		return utils.ErrInvalidExchange
	}

	p := s.defaults(userID)
	if !p.HasExchange(exchangeName) {
		p.ExchangesAtivas = append(p.ExchangesAtivas, exchangeName)
	}

	changed, err := s.repo.EnableExchange(ctx, p, exchangeName)
	if err != nil {
		return err
	}
	if changed {
		utils.L().WithComponent("params").WithUserID(userID).Info("exchange enabled in trading parameters", utils.Exchange(exchangeName))
	}
	return nil
}

// Validate собирает все нарушения диапазонов
func (s *ParamsService) Validate(p *models.TradingParameters) error {
	verr := &ValidationError{}

	if !utils.InRange(p.PercentualSaldo, minPercentualSaldo, maxPercentualSaldo) {
		verr.add("percentual_saldo", "must be between %.0f and %.0f, got %g", minPercentualSaldo, maxPercentualSaldo, p.PercentualSaldo)
	}
	if p.Alavancagem < minAlavancagem || p.Alavancagem > maxAlavancagem {
		verr.add("alavancagem", "must be between %d and %d, got %d", minAlavancagem, maxAlavancagem, p.Alavancagem)
	}
	if p.MaxPosicoesSimultaneas < minMaxPosicoesSimultaneas || p.MaxPosicoesSimultaneas > maxMaxPosicoesSimultaneas {
		verr.add("max_posicoes_simultaneas", "must be between %d and %d, got %d", minMaxPosicoesSimultaneas, maxMaxPosicoesSimultaneas, p.MaxPosicoesSimultaneas)
	}
	if !utils.InRange(p.LimitePerdaDiaria, minLimitePerdaDiaria, maxLimitePerdaDiaria) {
		verr.add("limite_perda_diaria", "must be between %.0f and %.0f, got %g", minLimitePerdaDiaria, maxLimitePerdaDiaria, p.LimitePerdaDiaria)
	}
	if !utils.InRange(p.MaxDrawdownPct, minMaxDrawdownPct, maxMaxDrawdownPct) {
		verr.add("max_drawdown_pct", "must be between %.0f and %.0f, got %g", minMaxDrawdownPct, maxMaxDrawdownPct, p.MaxDrawdownPct)
	}
	if p.ValorMinimoTrade <= 0 {
		verr.add("valor_minimo_trade", "must be positive, got %g", p.ValorMinimoTrade)
	}
	if p.ValorMaximoTrade < p.ValorMinimoTrade {
		verr.add("valor_maximo_trade", "must be >= valor_minimo_trade (%g), got %g", p.ValorMinimoTrade, p.ValorMaximoTrade)
	}
	if p.TakeProfitMultiplier <= 0 {
		verr.add("take_profit_multiplier", "must be positive, got %g", p.TakeProfitMultiplier)
	}
	if p.StopLossMultiplier <= 0 {
		verr.add("stop_loss_multiplier", "must be positive, got %g", p.StopLossMultiplier)
	}
	if p.MaxOperacoesDiarias < 1 {
		verr.add("max_operacoes_diarias", "must be at least 1, got %d", p.MaxOperacoesDiarias)
	}
	if s.registry != nil {
		for _, ex := range p.ExchangesAtivas {
			if !s.registry.Has(ex) {
				verr.add("exchanges_ativas", "unsupported exchange %q", ex)
			}
		}
	}

	return verr.errOrNil()
}

// normalizeExchanges - нижний регистр, без пустых и повторов, порядок сохраняется
func normalizeExchanges(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, e := range in {
		e = utils.NormalizeExchange(e)
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}
