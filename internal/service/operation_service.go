package service

import (
	"context"
	"errors"
	"time"

	"tradekeys/internal/exchange"
	"tradekeys/internal/models"
	"tradekeys/pkg/utils"
)

// PrepareRequest - запрос на подготовку операции
type PrepareRequest struct {
	UserID        int64  `json:"-"`
	Exchange      string `json:"exchange"`
	Symbol        string `json:"symbol"`
	PreferTestnet bool   `json:"prefer_testnet"`
}

// OperationService собирает пакет операции: ключи, лимиты и их происхождение
type OperationService struct {
	params   ParamsProvider
	policy   Policy
	resolver Resolver
	registry ExchangeRegistry

	// fallbackBalance > 0 подставляется, когда баланс недоступен
	fallbackBalance float64
	now             func() time.Time
}

// NewOperationService создает новый экземпляр OperationService
func NewOperationService(params ParamsProvider, policy Policy, resolver Resolver, registry ExchangeRegistry, fallbackBalance float64) *OperationService {
	return &OperationService{
		params:          params,
		policy:          policy,
		resolver:        resolver,
		registry:        registry,
		fallbackBalance: fallbackBalance,
		now:             time.Now,
	}
}

// Prepare готовит пакет операции.
//
// Порядок: параметры -> политика -> ключи -> баланс -> лимиты.
// Запрет политикой (*NotPermittedError) и отсутствие ключей
// (ErrNoCredentialsAvailable) завершают подготовку. Сбой чтения баланса
// не возвращается: лимиты считаются от FALLBACK_ASSUMED_BALANCE или
// статически, причина попадает в Provenance.BalanceError.
func (s *OperationService) Prepare(ctx context.Context, req PrepareRequest) (*models.OperationBundle, error) {
	if err := utils.ValidateUserID(req.UserID); err != nil {
		return nil, err
	}
	exchangeName := utils.NormalizeExchange(req.Exchange)
	symbol := utils.NormalizeSymbol(req.Symbol)

	log := utils.L().WithComponent("operations").WithUserID(req.UserID).WithExchange(exchangeName).WithSymbol(symbol)

	params, usedDefaults, err := s.params.GetOrDefault(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.policy.Check(ctx, params, exchangeName, req.Symbol); err != nil {
		if errors.Is(err, ErrOperationNotPermitted) {
			OperationsRejectedTotal.WithLabelValues(exchangeName).Inc()
			log.Info("operation rejected by policy", utils.Err(err))
		}
		return nil, err
	}

	cred, err := s.resolver.Resolve(ctx, req.UserID, exchangeName, req.PreferTestnet)
	if err != nil {
		return nil, err
	}

	bundle := &models.OperationBundle{
		UserID:     req.UserID,
		Exchange:   exchangeName,
		Symbol:     symbol,
		Credential: cred,
		Provenance: models.Provenance{
			CredentialSource:  cred.Source,
			UsedDefaultParams: usedDefaults,
		},
		PreparedAt: s.now().UTC(),
	}

	balance, balanceErr := s.fetchBalance(ctx, exchangeName, cred)
	switch {
	case balanceErr == nil:
		bundle.Provenance.BalanceSource = models.BalanceSourceLive
		bundle.Limits = ComputeLimits(*params, &balance)

	case s.fallbackBalance > 0:
		assumed := s.fallbackBalance
		bundle.Provenance.BalanceSource = models.BalanceSourceAssumedDefault
		bundle.Provenance.BalanceError = balanceErr.Error()
		bundle.Limits = ComputeLimits(*params, &assumed)
		log.Warn("balance unavailable, using assumed balance",
			utils.Err(balanceErr),
			utils.BalanceUSD(assumed),
			utils.CredentialSource(cred.Source),
		)

	default:
		bundle.Provenance.BalanceSource = models.BalanceSourceUnavailable
		bundle.Provenance.BalanceError = balanceErr.Error()
		bundle.Limits = ComputeLimits(*params, nil)
		log.Warn("balance unavailable, using static limits",
			utils.Err(balanceErr),
			utils.CredentialSource(cred.Source),
		)
	}

	OperationsPreparedTotal.WithLabelValues(exchangeName, bundle.Provenance.BalanceSource).Inc()
	log.Info("operation prepared",
		utils.CredentialSource(cred.Source),
		utils.BalanceSource(bundle.Provenance.BalanceSource),
		utils.BalanceUSD(bundle.Limits.BalanceUSD),
		utils.Float64("valor_maximo_trade", bundle.Limits.ValorMaximoTrade),
		utils.Bool("viavel", bundle.Limits.Viavel),
	)
	return bundle, nil
}

// fetchBalance читает доступный баланс в USD-стейблкоинах
func (s *OperationService) fetchBalance(ctx context.Context, exchangeName string, cred *models.ResolvedCredential) (float64, error) {
	client, err := s.registry.Get(exchangeName)
	if err != nil {
		return 0, err
	}

	snap, err := client.FetchBalance(ctx, exchange.Credentials{
		APIKey:     cred.APIKey,
		Secret:     cred.Secret,
		Passphrase: cred.Passphrase,
		Testnet:    cred.Testnet,
	})
	if err != nil {
		return 0, err
	}
	return snap.StableUSD(), nil
}
