package handlers

import (
	"context"
	"errors"
	"sync"
	"time"

	"tradekeys/internal/models"
	"tradekeys/internal/service"
)

// ErrMockDatabase - ошибка БД для тестов
var ErrMockDatabase = errors.New("mock database error")

// ============ Mock Credential Service ============

// MockCredentialService мок для CredentialServiceInterface
type MockCredentialService struct {
	mu sync.Mutex

	submitResult *service.SubmitResult
	submitErr    error
	submitted    []service.SubmitCredentialInput

	revalidateErr error
	deactivateErr error
	listErr       error

	views       []models.CredentialView
	counts      []models.StatusCount
	deactivated []string
}

func (m *MockCredentialService) Submit(ctx context.Context, in service.SubmitCredentialInput) (*service.SubmitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitted = append(m.submitted, in)
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	if m.submitResult != nil {
		return m.submitResult, nil
	}
	return &service.SubmitResult{
		CredentialID: 1,
		Exchange:     in.Exchange,
		Status:       models.ValidationValidated,
		ValidatedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}, nil
}

func (m *MockCredentialService) Revalidate(ctx context.Context, userID int64, exchange string) (*service.SubmitResult, error) {
	if m.revalidateErr != nil {
		return nil, m.revalidateErr
	}
	return &service.SubmitResult{CredentialID: 7, Exchange: exchange, Status: models.ValidationValidated}, nil
}

func (m *MockCredentialService) Deactivate(ctx context.Context, userID int64, exchange string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deactivateErr != nil {
		return m.deactivateErr
	}
	m.deactivated = append(m.deactivated, exchange)
	return nil
}

func (m *MockCredentialService) ListForUser(ctx context.Context, userID int64) ([]models.CredentialView, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.views, nil
}

func (m *MockCredentialService) StatusCounts(ctx context.Context) ([]models.StatusCount, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.counts, nil
}

// ============ Mock Params Service ============

// MockParamsService мок для ParamsServiceInterface
type MockParamsService struct {
	stored    map[int64]*models.TradingParameters
	getErr    error
	updateErr error
	updates   []models.TradingParamsUpdate
}

func NewMockParamsService() *MockParamsService {
	return &MockParamsService{stored: make(map[int64]*models.TradingParameters)}
}

func (m *MockParamsService) GetOrDefault(ctx context.Context, userID int64) (*models.TradingParameters, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	if p, ok := m.stored[userID]; ok {
		return p, false, nil
	}
	return models.DefaultTradingParameters(userID), true, nil
}

func (m *MockParamsService) MergeAndValidate(ctx context.Context, userID int64, update models.TradingParamsUpdate) (*models.TradingParameters, error) {
	m.updates = append(m.updates, update)
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	current, _, _ := m.GetOrDefault(ctx, userID)
	merged := update.ApplyTo(current)
	m.stored[userID] = merged
	return merged, nil
}

// ============ Mock Operation Service ============

// MockOperationService мок для OperationServiceInterface
type MockOperationService struct {
	err      error
	requests []service.PrepareRequest
}

func (m *MockOperationService) Prepare(ctx context.Context, req service.PrepareRequest) (*models.OperationBundle, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return &models.OperationBundle{
		UserID:   req.UserID,
		Exchange: req.Exchange,
		Symbol:   req.Symbol,
		Credential: &models.ResolvedCredential{
			APIKey: "user-key",
			Secret: "user-secret",
			Source: models.SourceUser,
		},
		Limits: models.OperationLimits{
			ValorMinimoTrade: 10,
			ValorMaximoTrade: 300,
			ValorPorOperacao: 300,
			BalanceUSD:       1000,
			BalanceAware:     true,
			Viavel:           true,
		},
		Provenance: models.Provenance{
			CredentialSource: models.SourceUser,
			BalanceSource:    models.BalanceSourceLive,
		},
	}, nil
}

// ============ Mock Blacklist Service ============

// MockBlacklistService мок для BlacklistServiceInterface
type MockBlacklistService struct {
	entries   map[string]*models.BlacklistEntry
	addErr    error
	getErr    error
	removeErr error
	nextID    int64
	mu        sync.RWMutex
}

// NewMockBlacklistService создает новый мок сервиса черного списка
func NewMockBlacklistService() *MockBlacklistService {
	return &MockBlacklistService{
		entries: make(map[string]*models.BlacklistEntry),
		nextID:  1,
	}
}

func blacklistKey(exchange, symbol string) string {
	return exchange + "/" + symbol
}

func (m *MockBlacklistService) Add(ctx context.Context, exchange, symbol, reason string) (*models.BlacklistEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.addErr != nil {
		return nil, m.addErr
	}
	key := blacklistKey(exchange, symbol)
	if _, exists := m.entries[key]; exists {
		return nil, service.ErrAlreadyBlacklisted
	}

	entry := &models.BlacklistEntry{
		ID:        m.nextID,
		Exchange:  exchange,
		Symbol:    symbol,
		Reason:    reason,
		CreatedAt: time.Now(),
	}
	m.entries[key] = entry
	m.nextID++
	return entry, nil
}

func (m *MockBlacklistService) List(ctx context.Context) ([]*models.BlacklistEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	out := make([]*models.BlacklistEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	return out, nil
}

func (m *MockBlacklistService) Remove(ctx context.Context, exchange, symbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.removeErr != nil {
		return m.removeErr
	}
	key := blacklistKey(exchange, symbol)
	if _, exists := m.entries[key]; !exists {
		return service.ErrNotBlacklisted
	}
	delete(m.entries, key)
	return nil
}

// AddEntry добавляет запись напрямую (для подготовки теста)
func (m *MockBlacklistService) AddEntry(exchange, symbol, reason string) {
	_, _ = m.Add(context.Background(), exchange, symbol, reason)
}
