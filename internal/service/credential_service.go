package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tradekeys/internal/exchange"
	"tradekeys/internal/models"
	"tradekeys/pkg/utils"
)

// UpsertCredentialInput - ключи в открытом виде для записи
type UpsertCredentialInput struct {
	UserID           int64
	Exchange         string
	APIKey           string
	Secret           string
	Passphrase       string
	Environment      string // mainnet (по умолчанию) или testnet
	ValidationStatus string // pending по умолчанию
	LastError        string
	ValidatedAt      *time.Time
}

// SubmitCredentialInput - ключи, присланные пользователем
type SubmitCredentialInput struct {
	UserID     int64  `json:"-"`
	Exchange   string `json:"-"`
	APIKey     string `json:"api_key"`
	Secret     string `json:"secret"`
	Passphrase string `json:"passphrase,omitempty"`
	Testnet    bool   `json:"testnet"`
}

// SubmitResult - итог проверки и сохранения ключей
type SubmitResult struct {
	CredentialID int64                   `json:"credential_id"`
	Exchange     string                  `json:"exchange"`
	Status       string                  `json:"validation_status"`
	ErrorKind    exchange.ErrorKind      `json:"error_kind,omitempty"`
	Error        string                  `json:"error,omitempty"`
	Permissions  []string                `json:"permissions,omitempty"`
	Balances     *models.BalanceSnapshot `json:"balances,omitempty"`
	ValidatedAt  time.Time               `json:"validated_at"`
}

// CredentialService хранит ключи пользователей зашифрованными и проверяет их на биржах.
type CredentialService struct {
	repo     CredentialRepositoryInterface
	codec    SecretCodec
	registry ExchangeRegistry
	params   ParamsProvider
	now      func() time.Time
}

// NewCredentialService создает новый экземпляр CredentialService.
// params может быть nil: тогда Submit не создает параметры по умолчанию.
func NewCredentialService(repo CredentialRepositoryInterface, codec SecretCodec, registry ExchangeRegistry, params ParamsProvider) *CredentialService {
	return &CredentialService{
		repo:     repo,
		codec:    codec,
		registry: registry,
		params:   params,
		now:      time.Now,
	}
}

// Upsert шифрует ключи и записывает единственную активную строку (user, exchange)
func (s *CredentialService) Upsert(ctx context.Context, in UpsertCredentialInput) (int64, error) {
	if err := utils.ValidateUserID(in.UserID); err != nil {
		return 0, err
	}
	exchangeName := utils.NormalizeExchange(in.Exchange)
	if err := utils.ValidateExchange(exchangeName); err != nil {
		return 0, err
	}

	env := in.Environment
	if env == "" {
		env = models.EnvironmentMainnet
	}
	status := in.ValidationStatus
	if status == "" {
		status = models.ValidationPending
	}

	apiKey, err := s.codec.Encrypt(in.APIKey)
	if err != nil {
		return 0, fmt.Errorf("encrypt api key: %w", err)
	}
	secret, err := s.codec.Encrypt(in.Secret)
	if err != nil {
		return 0, fmt.Errorf("encrypt secret: %w", err)
	}
	passphrase, err := s.codec.EncryptOptional(in.Passphrase)
	if err != nil {
		return 0, fmt.Errorf("encrypt passphrase: %w", err)
	}

	return s.repo.Upsert(ctx, &models.Credential{
		UserID:           in.UserID,
		Exchange:         exchangeName,
		APIKey:           apiKey,
		SecretKey:        secret,
		Passphrase:       passphrase,
		Environment:      env,
		ValidationStatus: status,
		LastError:        in.LastError,
		LastValidatedAt:  in.ValidatedAt,
	})
}

// GetActive возвращает активный ключ с расшифрованными значениями.
// repository.ErrCredentialNotFound, если ключа нет.
func (s *CredentialService) GetActive(ctx context.Context, userID int64, exchangeName string) (*models.Credential, error) {
	c, err := s.repo.GetActive(ctx, userID, utils.NormalizeExchange(exchangeName))
	if err != nil {
		return nil, err
	}

	if c.APIKey, err = s.codec.Decrypt(c.APIKey); err != nil {
		return nil, fmt.Errorf("decrypt credential %d: %w", c.ID, err)
	}
	if c.SecretKey, err = s.codec.Decrypt(c.SecretKey); err != nil {
		return nil, fmt.Errorf("decrypt credential %d: %w", c.ID, err)
	}
	if c.Passphrase, err = s.codec.DecryptOptional(c.Passphrase); err != nil {
		return nil, fmt.Errorf("decrypt credential %d: %w", c.ID, err)
	}
	return c, nil
}

// Submit проверяет ключи на бирже и сохраняет их.
//
// Отказ биржи (неверный ключ, подпись, права) сохраняется со статусом error.
// Таймаут, отмена и прочие сбои ничего не записывают и возвращаются вызывающему.
func (s *CredentialService) Submit(ctx context.Context, in SubmitCredentialInput) (*SubmitResult, error) {
	in.Exchange = utils.NormalizeExchange(in.Exchange)
	if err := s.validateSubmit(in); err != nil {
		return nil, err
	}

	client, err := s.registry.Get(in.Exchange)
	if err != nil {
		return nil, err
	}

	log := utils.L().WithComponent("credentials").WithUserID(in.UserID).WithExchange(in.Exchange)

	creds := exchange.Credentials{
		APIKey:     strings.TrimSpace(in.APIKey),
		Secret:     strings.TrimSpace(in.Secret),
		Passphrase: in.Passphrase,
		Testnet:    in.Testnet,
	}
	result, err := s.validate(ctx, client, creds)
	if err != nil {
		log.Warn("credential validation failed, nothing stored", utils.Err(err))
		return nil, err
	}

	env := models.EnvironmentMainnet
	if in.Testnet {
		env = models.EnvironmentTestnet
	}

	id, err := s.Upsert(ctx, UpsertCredentialInput{
		UserID:           in.UserID,
		Exchange:         in.Exchange,
		APIKey:           creds.APIKey,
		Secret:           creds.Secret,
		Passphrase:       creds.Passphrase,
		Environment:      env,
		ValidationStatus: result.Status,
		LastError:        result.Error,
		ValidatedAt:      &result.ValidatedAt,
	})
	if err != nil {
		return nil, err
	}
	result.CredentialID = id

	if s.params != nil {
		if err := s.params.EnsureDefaults(ctx, in.UserID, in.Exchange); err != nil {
			return nil, fmt.Errorf("ensure default params: %w", err)
		}
	}

	log.Info("credential stored",
		utils.Int64("credential_id", id),
		utils.String("validation_status", result.Status),
		utils.Environment(env),
	)
	return result, nil
}

// Revalidate повторно проверяет активный ключ и обновляет его статус
func (s *CredentialService) Revalidate(ctx context.Context, userID int64, exchangeName string) (*SubmitResult, error) {
	exchangeName = utils.NormalizeExchange(exchangeName)

	client, err := s.registry.Get(exchangeName)
	if err != nil {
		return nil, err
	}

	c, err := s.GetActive(ctx, userID, exchangeName)
	if err != nil {
		return nil, err
	}

	result, err := s.validate(ctx, client, exchange.Credentials{
		APIKey:     c.APIKey,
		Secret:     c.SecretKey,
		Passphrase: c.Passphrase,
		Testnet:    c.IsTestnet(),
	})
	if err != nil {
		return nil, err
	}
	result.CredentialID = c.ID

	if err := s.repo.UpdateValidation(ctx, c.ID, result.Status, result.Error, result.ValidatedAt); err != nil {
		return nil, err
	}

	utils.L().WithComponent("credentials").WithUserID(userID).WithExchange(exchangeName).
		Info("credential revalidated", utils.String("validation_status", result.Status))
	return result, nil
}

// Deactivate выключает активный ключ; строка сохраняется
func (s *CredentialService) Deactivate(ctx context.Context, userID int64, exchangeName string) error {
	return s.repo.Deactivate(ctx, userID, utils.NormalizeExchange(exchangeName))
}

// ListForUser возвращает ключи пользователя без секретов, с маской API ключа
func (s *CredentialService) ListForUser(ctx context.Context, userID int64) ([]models.CredentialView, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]models.CredentialView, 0, len(list))
	for _, c := range list {
		// маска строится по открытому ключу; нечитаемый ключ остается без маски
		apiKey, err := s.codec.Decrypt(c.APIKey)
		if err != nil {
			apiKey = ""
		}
		c.APIKey = apiKey
		views = append(views, c.View())
	}
	return views, nil
}

// StatusCounts - число активных ключей по бирже и статусу
func (s *CredentialService) StatusCounts(ctx context.Context) ([]models.StatusCount, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	if counts == nil {
		counts = []models.StatusCount{}
	}
	return counts, nil
}

// validate вызывает биржу. Отказ в ключах становится статусом error, остальные ошибки возвращаются.
func (s *CredentialService) validate(ctx context.Context, client exchange.Client, creds exchange.Credentials) (*SubmitResult, error) {
	res, err := client.ValidateCredentials(ctx, creds)
	result := &SubmitResult{Exchange: client.Name(), ValidatedAt: s.now().UTC()}

	switch {
	case err == nil:
		result.Status = models.ValidationValidated
		result.Permissions = res.Permissions
		result.Balances = res.Balances
		CredentialValidationsTotal.WithLabelValues(client.Name(), models.ValidationValidated).Inc()
		return result, nil

	case exchange.IsCredentialRejection(err):
		result.Status = models.ValidationError
		result.ErrorKind = exchange.KindOf(err)
		result.Error = err.Error()
		CredentialValidationsTotal.WithLabelValues(client.Name(), string(result.ErrorKind)).Inc()
		return result, nil

	default:
		kind := exchange.KindOf(err)
		if kind == "" {
			kind = exchange.KindUnknown
		}
		CredentialValidationsTotal.WithLabelValues(client.Name(), string(kind)).Inc()
		return nil, err
	}
}

func (s *CredentialService) validateSubmit(in SubmitCredentialInput) error {
	verr := &ValidationError{}

	if err := utils.ValidateUserID(in.UserID); err != nil {
		verr.add("user_id", "%v", err)
	}
	if !s.registry.Has(in.Exchange) {
		verr.add("exchange", "unsupported exchange %q", in.Exchange)
	}
	if err := utils.ValidateAPIKey(strings.TrimSpace(in.APIKey)); err != nil {
		verr.add("api_key", "%v", err)
	}
	if err := utils.ValidateAPISecret(strings.TrimSpace(in.Secret)); err != nil {
		verr.add("secret", "%v", err)
	}
	if err := utils.ValidateAPIPassphrase(in.Passphrase); err != nil {
		verr.add("passphrase", "%v", err)
	}
	if in.Exchange == exchange.NameOKX && in.Passphrase == "" {
		verr.add("passphrase", "passphrase is required for %s", in.Exchange)
	}

	return verr.errOrNil()
}

