package service

import (
	"context"
	"errors"
	"testing"

	"tradekeys/internal/models"
)

func newPool() *SystemCredentialPool {
	return NewSystemCredentialPool(map[string]SystemCredentialSet{
		"bybit": {
			Mainnet: &SystemCredential{APIKey: "sys-main-key", Secret: "sys-main-secret"},
			Testnet: &SystemCredential{APIKey: "sys-test-key", Secret: "sys-test-secret"},
		},
		"OKX": {
			Testnet: &SystemCredential{APIKey: "okx-test-key", Secret: "okx-test-secret", Passphrase: "okx-pass"},
		},
	})
}

func TestCredentialResolver_Resolve(t *testing.T) {
	tests := []struct {
		name          string
		userKey       bool
		exchange      string
		preferTestnet bool
		wantSource    string
		wantKey       string
		wantTestnet   bool
		wantErr       error
	}{
		{"ключ пользователя", true, "bybit", false, models.SourceUser, testAPIKey, false, nil},
		{"ключ пользователя при preferTestnet", true, "bybit", true, models.SourceUser, testAPIKey, false, nil},
		{"системный mainnet", false, "bybit", false, models.SourceSystemMainnet, "sys-main-key", false, nil},
		{"системный testnet по запросу", false, "bybit", true, models.SourceSystemTestnet, "sys-test-key", true, nil},
		{"нет mainnet - testnet", false, "okx", false, models.SourceSystemTestnet, "okx-test-key", true, nil},
		{"ничего нет", false, "binance", false, "", "", false, ErrNoCredentialsAvailable},
		{"ничего нет при preferTestnet", false, "binance", true, "", "", false, ErrNoCredentialsAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCredentialFixture(t)
			if tt.userKey {
				if _, err := f.service.Upsert(context.Background(), UpsertCredentialInput{UserID: 2, Exchange: tt.exchange, APIKey: testAPIKey, Secret: testSecret}); err != nil {
					t.Fatalf("Upsert: %v", err)
				}
			}

			r := NewCredentialResolver(f.service, newPool())
			got, err := r.Resolve(context.Background(), 2, tt.exchange, tt.preferTestnet)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Source != tt.wantSource || got.APIKey != tt.wantKey || got.Testnet != tt.wantTestnet {
				t.Errorf("resolved = %+v", got)
			}
		})
	}
}

// preferTestnet без testnet ключа не переключается на mainnet
func TestCredentialResolver_PreferTestnetNeverFallsBackToMainnet(t *testing.T) {
	f := newCredentialFixture(t)
	pool := NewSystemCredentialPool(map[string]SystemCredentialSet{
		"binance": {Mainnet: &SystemCredential{APIKey: "main", Secret: "main-secret"}},
	})

	_, err := NewCredentialResolver(f.service, pool).Resolve(context.Background(), 2, "binance", true)
	if !errors.Is(err, ErrNoCredentialsAvailable) {
		t.Fatalf("got %v, want ErrNoCredentialsAvailable", err)
	}
}

func TestCredentialResolver_StorageError(t *testing.T) {
	f := newCredentialFixture(t)
	storageErr := errors.New("connection refused")
	f.repo.getErr = storageErr

	_, err := NewCredentialResolver(f.service, newPool()).Resolve(context.Background(), 2, "bybit", false)
	if !errors.Is(err, storageErr) {
		t.Fatalf("storage error must be returned as is, got %v", err)
	}
}

func TestSystemCredentialPool(t *testing.T) {
	input := map[string]SystemCredentialSet{
		"Bybit":   {Mainnet: &SystemCredential{APIKey: "k", Secret: "s"}},
		"binance": {Mainnet: &SystemCredential{APIKey: "k"}}, // без секрета - не настроен
	}
	pool := NewSystemCredentialPool(input)

	// изменение входа после создания не влияет на пул
	input["Bybit"].Mainnet.APIKey = "changed"

	c, ok := pool.Mainnet("bybit")
	if !ok || c.APIKey != "k" {
		t.Errorf("Mainnet(bybit) = %+v, %v", c, ok)
	}
	c.APIKey = "mutated"
	if again, _ := pool.Mainnet("bybit"); again.APIKey != "k" {
		t.Error("returned credential must be a copy")
	}

	if _, ok := pool.Testnet("bybit"); ok {
		t.Error("testnet not configured")
	}
	if names := pool.Exchanges(); len(names) != 1 || names[0] != "bybit" {
		t.Errorf("Exchanges() = %v", names)
	}

	var empty *SystemCredentialPool
	if _, ok := empty.Mainnet("bybit"); ok {
		t.Error("nil pool has no credentials")
	}
}
