package service

import (
	"context"
	"errors"
	"fmt"

	"tradekeys/internal/models"
	"tradekeys/internal/repository"
	"tradekeys/pkg/utils"
)

// CredentialResolver выбирает ключи для операции по цепочке:
// ключ пользователя -> операторский mainnet -> операторский testnet.
type CredentialResolver struct {
	store CredentialSource
	pool  *SystemCredentialPool
}

// NewCredentialResolver создает резолвер; pool может быть пустым
func NewCredentialResolver(store CredentialSource, pool *SystemCredentialPool) *CredentialResolver {
	return &CredentialResolver{store: store, pool: pool}
}

// Resolve возвращает ключи и их источник.
//
// preferTestnet=true пропускает операторский mainnet; при отсутствии testnet
// возвращается ErrNoCredentialsAvailable, на mainnet запрос не переключается.
// Ошибка хранилища, кроме отсутствия ключа, возвращается как есть.
func (r *CredentialResolver) Resolve(ctx context.Context, userID int64, exchangeName string, preferTestnet bool) (*models.ResolvedCredential, error) {
	exchangeName = utils.NormalizeExchange(exchangeName)
	log := utils.L().WithComponent("resolver").WithUserID(userID).WithExchange(exchangeName)

	c, err := r.store.GetActive(ctx, userID, exchangeName)
	switch {
	case err == nil:
		return r.resolved(log, exchangeName, &models.ResolvedCredential{
			APIKey:     c.APIKey,
			Secret:     c.SecretKey,
			Passphrase: c.Passphrase,
			Testnet:    c.IsTestnet(),
			Source:     models.SourceUser,
		}), nil
	case !errors.Is(err, repository.ErrCredentialNotFound):
		return nil, err
	}

	if !preferTestnet {
		if sc, ok := r.pool.Mainnet(exchangeName); ok {
			return r.resolved(log, exchangeName, systemResolved(sc, false, models.SourceSystemMainnet)), nil
		}
	}
	if sc, ok := r.pool.Testnet(exchangeName); ok {
		return r.resolved(log, exchangeName, systemResolved(sc, true, models.SourceSystemTestnet)), nil
	}

	log.Warn("no credentials available", utils.Bool("prefer_testnet", preferTestnet))
	return nil, fmt.Errorf("%w: user %d on %s", ErrNoCredentialsAvailable, userID, exchangeName)
}

func (r *CredentialResolver) resolved(log *utils.Logger, exchangeName string, rc *models.ResolvedCredential) *models.ResolvedCredential {
	CredentialResolutionsTotal.WithLabelValues(exchangeName, rc.Source).Inc()
	log.Info("credentials resolved", utils.CredentialSource(rc.Source), utils.Bool("testnet", rc.Testnet))
	return rc
}

func systemResolved(sc *SystemCredential, testnet bool, source string) *models.ResolvedCredential {
	return &models.ResolvedCredential{
		APIKey:     sc.APIKey,
		Secret:     sc.Secret,
		Passphrase: sc.Passphrase,
		Testnet:    testnet,
		Source:     source,
	}
}
