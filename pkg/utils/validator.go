package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Ошибки валидации входных данных
var (
	ErrInvalidSymbol     = errors.New("invalid symbol format")
	ErrInvalidExchange   = errors.New("invalid exchange name")
	ErrInvalidUserID     = errors.New("user id must be positive")
	ErrInvalidAPIKey     = errors.New("invalid api key")
	ErrInvalidAPISecret  = errors.New("invalid api secret")
	ErrInvalidPassphrase = errors.New("invalid api passphrase")
)

const (
	minCredentialLength = 16
	maxCredentialLength = 256
	maxPassphraseLength = 64
)

var (
	symbolRegex   = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_/\-]{1,29}$`)
	exchangeRegex = regexp.MustCompile(`^[a-z][a-z0-9]{1,19}$`)
	apiKeyRegex   = regexp.MustCompile(`^[A-Za-z0-9_\-]+$`)

	symbolSeparators = strings.NewReplacer("-", "", "_", "", "/", "")

	// quoteCurrencies - котируемые валюты в порядке проверки (длинные раньше коротких)
	quoteCurrencies = []string{"FDUSD", "USDT", "USDC", "BUSD", "USD", "BTC", "ETH"}
)

// ValidateSymbol проверяет формат торгового символа (BTCUSDT, BTC-USDT, btc/usdt)
func ValidateSymbol(symbol string) error {
	if !symbolRegex.MatchString(symbol) {
		return fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	return nil
}

// NormalizeSymbol приводит символ к виду BTCUSDT
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(symbolSeparators.Replace(strings.TrimSpace(symbol)))
}

// IsValidSymbol - булев вариант ValidateSymbol
func IsValidSymbol(symbol string) bool {
	return ValidateSymbol(symbol) == nil
}

// ExtractQuoteCurrency возвращает котируемую валюту нормализованного символа
// или пустую строку, если она не распознана.
func ExtractQuoteCurrency(symbol string) string {
	s := NormalizeSymbol(symbol)
	for _, q := range quoteCurrencies {
		if len(s) > len(q) && strings.HasSuffix(s, q) {
			return q
		}
	}
	return ""
}

// ValidateExchange проверяет формат имени биржи (не ее поддержку - это решает реестр клиентов)
func ValidateExchange(exchange string) error {
	if !exchangeRegex.MatchString(NormalizeExchange(exchange)) {
		return fmt.Errorf("%w: %q", ErrInvalidExchange, exchange)
	}
	return nil
}

// NormalizeExchange приводит имя биржи к нижнему регистру
func NormalizeExchange(exchange string) string {
	return strings.ToLower(strings.TrimSpace(exchange))
}

// ValidateUserID проверяет идентификатор пользователя
func ValidateUserID(id int64) error {
	if id <= 0 {
		return ErrInvalidUserID
	}
	return nil
}

// ValidateAPIKey - базовая проверка API ключа (длина и алфавит)
func ValidateAPIKey(key string) error {
	if len(key) < minCredentialLength || len(key) > maxCredentialLength || !apiKeyRegex.MatchString(key) {
		return ErrInvalidAPIKey
	}
	return nil
}

// ValidateAPISecret - проверка длины секрета, алфавит не ограничен
func ValidateAPISecret(secret string) error {
	if len(secret) < minCredentialLength || len(secret) > maxCredentialLength {
		return ErrInvalidAPISecret
	}
	return nil
}

// ValidateAPIPassphrase - passphrase необязателен, но ограничен по длине
func ValidateAPIPassphrase(passphrase string) error {
	if len(passphrase) > maxPassphraseLength {
		return ErrInvalidPassphrase
	}
	return nil
}
