package models

import "time"

// Окружение биржи
const (
	EnvironmentMainnet = "mainnet"
	EnvironmentTestnet = "testnet"
)

// Статусы проверки ключей
const (
	ValidationPending   = "pending"
	ValidationValidated = "validated"
	ValidationError     = "error"
)

// Credential - API ключи пользователя для одной биржи.
//
// В БД APIKey, SecretKey и Passphrase хранятся зашифрованными; после
// CredentialService.GetActive они содержат открытый текст только в памяти.
type Credential struct {
	ID               int64      `json:"id" db:"id"`
	UserID           int64      `json:"user_id" db:"user_id"`
	Exchange         string     `json:"exchange" db:"exchange"`
	APIKey           string     `json:"-" db:"api_key"`
	SecretKey        string     `json:"-" db:"secret_key"`
	Passphrase       string     `json:"-" db:"passphrase"` // OKX
	Environment      string     `json:"environment" db:"environment"`
	IsActive         bool       `json:"is_active" db:"is_active"`
	ValidationStatus string     `json:"validation_status" db:"validation_status"`
	LastError        string     `json:"last_error,omitempty" db:"last_error"`
	LastValidatedAt  *time.Time `json:"last_validated_at,omitempty" db:"last_validated_at"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// IsTestnet - ключ от тестовой сети
func (c *Credential) IsTestnet() bool {
	return c.Environment == EnvironmentTestnet
}

// CredentialView - представление ключа для ответа API, без секретов
type CredentialView struct {
	Credential
	APIKeyMasked string `json:"api_key_masked"`
}

// View возвращает копию без секретов; от API ключа остается маска
func (c Credential) View() CredentialView {
	masked := MaskKey(c.APIKey)
	c.APIKey = ""
	c.SecretKey = ""
	c.Passphrase = ""
	return CredentialView{Credential: c, APIKeyMasked: masked}
}

// MaskKey оставляет первые и последние 4 символа
func MaskKey(key string) string {
	if len(key) <= 8 {
		if key == "" {
			return ""
		}
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}

// Источник ключей для операции
const (
	SourceUser          = "USER"
	SourceSystemMainnet = "SYSTEM_MAINNET"
	SourceSystemTestnet = "SYSTEM_TESTNET"
)

// ResolvedCredential - ключи, выбранные для операции, с указанием источника
type ResolvedCredential struct {
	APIKey     string `json:"-"`
	Secret     string `json:"-"`
	Passphrase string `json:"-"`
	Testnet    bool   `json:"testnet"`
	Source     string `json:"source"`
}

// StatusCount - количество ключей в статусе проверки
type StatusCount struct {
	Exchange string `json:"exchange" db:"exchange"`
	Status   string `json:"status" db:"validation_status"`
	Count    int    `json:"count" db:"count"`
}
