package service

import (
	"context"
	"fmt"

	"tradekeys/internal/models"
	"tradekeys/pkg/utils"
)

// OperationPolicy решает, разрешена ли операция пользователю до любых запросов к бирже
type OperationPolicy struct {
	registry  ExchangeRegistry
	blacklist BlacklistRepositoryInterface
	allowed   map[string]bool // пусто - разрешен любой символ
}

// NewOperationPolicy создает политику. allowedSymbols - белый список (ALLOWED_SYMBOLS).
// blacklist может быть nil.
func NewOperationPolicy(registry ExchangeRegistry, blacklist BlacklistRepositoryInterface, allowedSymbols []string) *OperationPolicy {
	allowed := make(map[string]bool, len(allowedSymbols))
	for _, s := range allowedSymbols {
		if s = utils.NormalizeSymbol(s); s != "" {
			allowed[s] = true
		}
	}
	return &OperationPolicy{registry: registry, blacklist: blacklist, allowed: allowed}
}

// Check собирает все причины запрета в *NotPermittedError.
// Ошибка чтения черного списка возвращается как есть.
func (p *OperationPolicy) Check(ctx context.Context, params *models.TradingParameters, exchangeName, symbol string) error {
	exchangeName = utils.NormalizeExchange(exchangeName)
	var reasons []string

	if !p.registry.Has(exchangeName) {
		reasons = append(reasons, fmt.Sprintf("exchange %q is not supported", exchangeName))
	}
	if !params.HasExchange(exchangeName) {
		reasons = append(reasons, fmt.Sprintf("exchange %q is not enabled for the user", exchangeName))
	}
	if !params.TradingAtivo {
		reasons = append(reasons, "trading is disabled for the user")
	}

	normalized := utils.NormalizeSymbol(symbol)
	if err := utils.ValidateSymbol(symbol); err != nil {
		reasons = append(reasons, err.Error())
	} else {
		if len(p.allowed) > 0 && !p.allowed[normalized] {
			reasons = append(reasons, fmt.Sprintf("symbol %s is not in the allowed list", normalized))
		}
		if p.blacklist != nil {
			blocked, err := p.blacklist.Exists(ctx, exchangeName, normalized)
			if err != nil {
				return fmt.Errorf("check blacklist: %w", err)
			}
			if blocked {
				reasons = append(reasons, fmt.Sprintf("symbol %s is blacklisted", normalized))
			}
		}
	}

	if len(reasons) == 0 {
		return nil
	}
	return &NotPermittedError{Exchange: exchangeName, Symbol: normalized, Reasons: reasons}
}
