package handlers

import (
	"context"

	"tradekeys/internal/models"
	"tradekeys/internal/service"
)

// CredentialServiceInterface - операции с ключами пользователей
type CredentialServiceInterface interface {
	Submit(ctx context.Context, in service.SubmitCredentialInput) (*service.SubmitResult, error)
	Revalidate(ctx context.Context, userID int64, exchange string) (*service.SubmitResult, error)
	Deactivate(ctx context.Context, userID int64, exchange string) error
	ListForUser(ctx context.Context, userID int64) ([]models.CredentialView, error)
	StatusCounts(ctx context.Context) ([]models.StatusCount, error)
}

// ParamsServiceInterface - торговые параметры пользователя
type ParamsServiceInterface interface {
	GetOrDefault(ctx context.Context, userID int64) (*models.TradingParameters, bool, error)
	MergeAndValidate(ctx context.Context, userID int64, update models.TradingParamsUpdate) (*models.TradingParameters, error)
}

// OperationServiceInterface - подготовка операции
type OperationServiceInterface interface {
	Prepare(ctx context.Context, req service.PrepareRequest) (*models.OperationBundle, error)
}

// BlacklistServiceInterface - черный список символов
type BlacklistServiceInterface interface {
	Add(ctx context.Context, exchange, symbol, reason string) (*models.BlacklistEntry, error)
	List(ctx context.Context) ([]*models.BlacklistEntry, error)
	Remove(ctx context.Context, exchange, symbol string) error
}

var (
	_ CredentialServiceInterface = (*service.CredentialService)(nil)
	_ ParamsServiceInterface     = (*service.ParamsService)(nil)
	_ OperationServiceInterface  = (*service.OperationService)(nil)
	_ BlacklistServiceInterface  = (*service.BlacklistService)(nil)
)
