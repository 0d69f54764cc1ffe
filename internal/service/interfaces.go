package service

import (
	"context"
	"time"

	"tradekeys/internal/exchange"
	"tradekeys/internal/models"
)

// CredentialRepositoryInterface определяет интерфейс репозитория ключей
type CredentialRepositoryInterface interface {
	Upsert(ctx context.Context, c *models.Credential) (int64, error)
	GetActive(ctx context.Context, userID int64, exchange string) (*models.Credential, error)
	UpdateValidation(ctx context.Context, id int64, status, lastError string, validatedAt time.Time) error
	Deactivate(ctx context.Context, userID int64, exchange string) error
	ListByUser(ctx context.Context, userID int64) ([]*models.Credential, error)
	CountByStatus(ctx context.Context) ([]models.StatusCount, error)
}

// TradingParamsRepositoryInterface определяет интерфейс репозитория параметров
type TradingParamsRepositoryInterface interface {
	Get(ctx context.Context, userID int64) (*models.TradingParameters, error)
	Upsert(ctx context.Context, p *models.TradingParameters) error
	EnableExchange(ctx context.Context, p *models.TradingParameters, exchange string) (bool, error)
}

// BlacklistRepositoryInterface определяет интерфейс репозитория черного списка
type BlacklistRepositoryInterface interface {
	Create(ctx context.Context, entry *models.BlacklistEntry) error
	Exists(ctx context.Context, exchange, symbol string) (bool, error)
	GetAll(ctx context.Context) ([]*models.BlacklistEntry, error)
	Delete(ctx context.Context, exchange, symbol string) error
}

// ExchangeRegistry - реестр клиентов бирж (exchange.Registry)
type ExchangeRegistry interface {
	Get(name string) (exchange.Client, error)
	Has(name string) bool
	Names() []string
}

// SecretCodec шифрует значения ключей перед записью в БД (crypto.Codec)
type SecretCodec interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
	EncryptOptional(plaintext string) (string, error)
	DecryptOptional(ciphertext string) (string, error)
}

// ParamsProvider - чтение и создание параметров пользователя (ParamsService)
type ParamsProvider interface {
	GetOrDefault(ctx context.Context, userID int64) (*models.TradingParameters, bool, error)
	EnsureDefaults(ctx context.Context, userID int64, exchange string) error
}

// CredentialSource - активный ключ пользователя в открытом виде (CredentialService)
type CredentialSource interface {
	GetActive(ctx context.Context, userID int64, exchange string) (*models.Credential, error)
}

// Resolver выбирает ключи для операции (CredentialResolver)
type Resolver interface {
	Resolve(ctx context.Context, userID int64, exchange string, preferTestnet bool) (*models.ResolvedCredential, error)
}

// Policy проверяет, разрешена ли операция (OperationPolicy)
type Policy interface {
	Check(ctx context.Context, params *models.TradingParameters, exchange, symbol string) error
}
