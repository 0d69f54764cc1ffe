package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"tradekeys/internal/exchange"
	"tradekeys/internal/models"
	"tradekeys/internal/repository"
	"tradekeys/pkg/crypto"
)

// ============ Mock CredentialRepository ============

type MockCredentialRepository struct {
	mu        sync.Mutex
	rows      []*models.Credential
	nextID    int64
	upsertErr error
	getErr    error
	updateErr error
	upserts   int
	updates   int
}

func NewMockCredentialRepository() *MockCredentialRepository {
	return &MockCredentialRepository{nextID: 1}
}

func (m *MockCredentialRepository) active(userID int64, ex string) *models.Credential {
	for _, r := range m.rows {
		if r.UserID == userID && r.Exchange == ex && r.IsActive {
			return r
		}
	}
	return nil
}

func (m *MockCredentialRepository) Upsert(ctx context.Context, c *models.Credential) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return 0, m.upsertErr
	}
	m.upserts++

	now := time.Now()
	if row := m.active(c.UserID, c.Exchange); row != nil {
		id, created := row.ID, row.CreatedAt
		*row = *c
		row.ID, row.CreatedAt, row.IsActive, row.UpdatedAt = id, created, true, now
		return id, nil
	}

	row := *c
	row.ID = m.nextID
	m.nextID++
	row.IsActive = true
	row.CreatedAt, row.UpdatedAt = now, now
	m.rows = append(m.rows, &row)
	return row.ID, nil
}

func (m *MockCredentialRepository) GetActive(ctx context.Context, userID int64, ex string) (*models.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	row := m.active(userID, ex)
	if row == nil {
		return nil, repository.ErrCredentialNotFound
	}
	cp := *row
	return &cp, nil
}

func (m *MockCredentialRepository) UpdateValidation(ctx context.Context, id int64, status, lastError string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	for _, r := range m.rows {
		if r.ID == id {
			m.updates++
			r.ValidationStatus, r.LastError = status, lastError
			r.LastValidatedAt = &at
			return nil
		}
	}
	return repository.ErrCredentialNotFound
}

func (m *MockCredentialRepository) Deactivate(ctx context.Context, userID int64, ex string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.active(userID, ex)
	if row == nil {
		return repository.ErrCredentialNotFound
	}
	row.IsActive = false
	return nil
}

func (m *MockCredentialRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	var out []*models.Credential
	for _, r := range m.rows {
		if r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockCredentialRepository) CountByStatus(ctx context.Context) ([]models.StatusCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[[2]string]int{}
	for _, r := range m.rows {
		if r.IsActive {
			counts[[2]string{r.Exchange, r.ValidationStatus}]++
		}
	}
	var out []models.StatusCount
	for k, n := range counts {
		out = append(out, models.StatusCount{Exchange: k[0], Status: k[1], Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Exchange+out[i].Status < out[j].Exchange+out[j].Status })
	return out, nil
}

// ============ Mock TradingParamsRepository ============

type MockParamsRepository struct {
	mu        sync.Mutex
	params    map[int64]*models.TradingParameters
	getErr    error
	upsertErr error
	upserts   int
	creates   int
	enabled   int
}

func NewMockParamsRepository() *MockParamsRepository {
	return &MockParamsRepository{params: make(map[int64]*models.TradingParameters)}
}

func (m *MockParamsRepository) Get(ctx context.Context, userID int64) (*models.TradingParameters, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.params[userID]
	if !ok {
		return nil, repository.ErrParamsNotFound
	}
	return p.Clone(), nil
}

func (m *MockParamsRepository) Upsert(ctx context.Context, p *models.TradingParameters) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserts++
	m.params[p.UserID] = p.Clone()
	return nil
}

func (m *MockParamsRepository) EnableExchange(ctx context.Context, p *models.TradingParameters, exchange string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return false, m.upsertErr
	}
	stored, ok := m.params[p.UserID]
	if !ok {
		m.creates++
		m.params[p.UserID] = p.Clone()
		return true, nil
	}
	if stored.HasExchange(exchange) {
		return false, nil
	}
	stored.ExchangesAtivas = append(stored.ExchangesAtivas, exchange)
	m.enabled++
	return true, nil
}

// ============ Mock BlacklistRepository ============

type MockBlacklistRepository struct {
	mu        sync.Mutex
	entries   map[string]*models.BlacklistEntry // ключ: exchange|symbol
	nextID    int64
	existsErr error
}

func NewMockBlacklistRepository() *MockBlacklistRepository {
	return &MockBlacklistRepository{entries: make(map[string]*models.BlacklistEntry), nextID: 1}
}

func blacklistKey(ex, symbol string) string { return ex + "|" + symbol }

func (m *MockBlacklistRepository) Create(ctx context.Context, e *models.BlacklistEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := blacklistKey(e.Exchange, e.Symbol)
	if _, ok := m.entries[key]; ok {
		return repository.ErrBlacklistEntryExists
	}
	e.ID = m.nextID
	m.nextID++
	e.CreatedAt = time.Now()
	m.entries[key] = e
	return nil
}

func (m *MockBlacklistRepository) Exists(ctx context.Context, ex, symbol string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, own := m.entries[blacklistKey(ex, symbol)]
	_, global := m.entries[blacklistKey("", symbol)]
	return own || global, nil
}

func (m *MockBlacklistRepository) GetAll(ctx context.Context) ([]*models.BlacklistEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.BlacklistEntry
	for _, e := range m.entries {
		out = append(out, e)
	}
	return out, nil
}

func (m *MockBlacklistRepository) Delete(ctx context.Context, ex, symbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := blacklistKey(ex, symbol)
	if _, ok := m.entries[key]; !ok {
		return repository.ErrBlacklistEntryNotFound
	}
	delete(m.entries, key)
	return nil
}

// ============ Mock exchange.Client ============

type MockExchangeClient struct {
	mu          sync.Mutex
	name        string
	validateErr error
	permissions []string
	balance     *models.BalanceSnapshot
	fetchErr    error
	calls       []exchange.Credentials
}

func NewMockExchangeClient(name string, stableUSD float64) *MockExchangeClient {
	snap := models.NewBalanceSnapshot(name, false)
	snap.Add("USDT", models.NewAssetBalance(stableUSD, stableUSD))
	return &MockExchangeClient{
		name:        name,
		permissions: []string{exchange.PermissionRead, exchange.PermissionTrade},
		balance:     snap,
	}
}

func (m *MockExchangeClient) Name() string { return m.name }

func (m *MockExchangeClient) ValidateCredentials(ctx context.Context, creds exchange.Credentials) (*exchange.ValidationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, creds)
	if m.validateErr != nil {
		return nil, m.validateErr
	}
	return &exchange.ValidationResult{Valid: true, Permissions: m.permissions, Balances: m.balance}, nil
}

func (m *MockExchangeClient) FetchBalance(ctx context.Context, creds exchange.Credentials) (*models.BalanceSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, creds)
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.balance, nil
}

func (m *MockExchangeClient) Calls() []exchange.Credentials {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]exchange.Credentials(nil), m.calls...)
}

// ============ Хелперы ============

// newTestRegistry регистрирует клиентов в настоящем exchange.Registry
func newTestRegistry(t *testing.T, clients ...exchange.Client) *exchange.Registry {
	t.Helper()
	r := exchange.NewRegistry()
	for _, c := range clients {
		if err := r.Register(c); err != nil {
			t.Fatalf("register %s: %v", c.Name(), err)
		}
	}
	return r
}

func newTestCodec(t *testing.T) *crypto.Codec {
	t.Helper()
	codec, err := crypto.NewCodec([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return codec
}

// rejection - отказ биржи в ключах заданной категории
func rejection(ex string, kind exchange.ErrorKind) error {
	return &exchange.ExchangeError{Exchange: ex, Kind: kind, Message: fmt.Sprintf("%s rejected", ex)}
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int { return &v }
