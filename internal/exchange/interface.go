// Package exchange проверяет API ключи и читает балансы на биржах.
package exchange

import (
	"context"

	jsoniter "github.com/json-iterator/go"

	"tradekeys/internal/models"
)

// json - кодек ответов бирж, совместимый с encoding/json
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Имена поддерживаемых бирж
const (
	NameBinance = "binance"
	NameBybit   = "bybit"
	NameOKX     = "okx"
)

// Права ключа в нормализованном виде
const (
	PermissionRead     = "read"
	PermissionTrade    = "trade"
	PermissionWithdraw = "withdraw"
	PermissionDeposit  = "deposit"
)

// Client - клиент одной биржи.
//
// Реализации не хранят ключи: они передаются в каждый вызов, поэтому
// один экземпляр обслуживает всех пользователей конкурентно.
// Запросы не повторяются автоматически.
type Client interface {
	// Name возвращает имя биржи (binance, bybit, okx)
	Name() string

	// ValidateCredentials проверяет ключи подписанным запросом.
	// Ключ без права торговли возвращает ErrInsufficientPermissions.
	ValidateCredentials(ctx context.Context, creds Credentials) (*ValidationResult, error)

	// FetchBalance возвращает балансы аккаунта
	FetchBalance(ctx context.Context, creds Credentials) (*models.BalanceSnapshot, error)
}

// Credentials - ключи для одного запроса
type Credentials struct {
	APIKey     string
	Secret     string
	Passphrase string // OKX
	Testnet    bool
}

// ValidationResult - результат успешной проверки ключей
type ValidationResult struct {
	Valid       bool                    `json:"valid"`
	Permissions []string                `json:"permissions"`
	Balances    *models.BalanceSnapshot `json:"balances,omitempty"`
	AccountInfo map[string]string       `json:"account_info,omitempty"`
}

// HasPermission проверяет наличие права
func (r *ValidationResult) HasPermission(p string) bool {
	for _, have := range r.Permissions {
		if have == p {
			return true
		}
	}
	return false
}
