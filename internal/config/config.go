package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"tradekeys/pkg/crypto"
)

// SystemCredentialExchanges - биржи, для которых читаются операторские ключи
var SystemCredentialExchanges = []string{"binance", "bybit", "okx"}

// passphraseExchanges - биржи, требующие passphrase
var passphraseExchanges = map[string]bool{"okx": true}

// Config содержит всю конфигурацию приложения
type Config struct {
	Server            ServerConfig
	Database          DatabaseConfig
	Security          SecurityConfig
	Exchange          ExchangeConfig
	Trading           TradingConfig
	Logging           LoggingConfig
	SystemCredentials map[string]SystemCredentialConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	CORSAllowedOrigins []string
}

// DatabaseConfig - настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// SecurityConfig - мастер-ключ шифрования и bcrypt-хеш административного токена
type SecurityConfig struct {
	EncryptionKey  string
	AdminTokenHash string
}

// ExchangeConfig - параметры запросов к биржам
type ExchangeConfig struct {
	RequestTimeout time.Duration // таймаут одного запроса, 1-15s
	RateLimit      float64       // запросов в секунду на биржу
	RateBurst      int
}

// TradingConfig - политика подготовки операций
type TradingConfig struct {
	AllowedSymbols []string // пусто = любой символ

	// FallbackAssumedBalance - баланс в USD, если биржа не вернула баланс.
	// 0 отключает подстановку: лимиты считаются статически.
	FallbackAssumedBalance float64
}

// LoggingConfig - настройки логирования
type LoggingConfig struct {
	Level       string
	Format      string
	Output      string
	Development bool
}

// APICredential - пара ключей из окружения
type APICredential struct {
	APIKey     string
	Secret     string
	Passphrase string
}

// SystemCredentialConfig - операторские ключи одной биржи
type SystemCredentialConfig struct {
	Mainnet *APICredential
	Testnet *APICredential
}

const (
	minRequestTimeout = 1 * time.Second
	maxRequestTimeout = 15 * time.Second
)

// Load читает .env (если есть) и переменные окружения.
// Значения из окружения имеют приоритет над .env.
func Load() (*Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),

			CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "tradekeys"),
			User:            getEnv("DB_USER", "tradekeys"),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			AutoMigrate:     getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Security: SecurityConfig{
			EncryptionKey:  getEnv("ENCRYPTION_KEY", ""),
			AdminTokenHash: getEnv("ADMIN_TOKEN_HASH", ""),
		},
		Exchange: ExchangeConfig{
			RequestTimeout: getEnvAsDuration("EXCHANGE_REQUEST_TIMEOUT", 10*time.Second),
			RateLimit:      getEnvAsFloat("EXCHANGE_RATE_LIMIT", 10),
			RateBurst:      getEnvAsInt("EXCHANGE_RATE_BURST", 20),
		},
		Trading: TradingConfig{
			AllowedSymbols:         getEnvAsList("ALLOWED_SYMBOLS", strings.ToUpper),
			FallbackAssumedBalance: getEnvAsFloat("FALLBACK_ASSUMED_BALANCE", 0),
		},
		Logging: LoggingConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Format:      getEnv("LOG_FORMAT", "json"),
			Output:      getEnv("LOG_OUTPUT", ""),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
		SystemCredentials: loadSystemCredentials(),
	}

	if err := cfg.validateSecurity(); err != nil {
		return nil, err
	}
	if err := cfg.validateRanges(); err != nil {
		return nil, err
	}
	if err := cfg.validateSystemCredentials(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadSystemCredentials читает <EXCHANGE>_SYSTEM_* и <EXCHANGE>_TESTNET_*
func loadSystemCredentials() map[string]SystemCredentialConfig {
	out := make(map[string]SystemCredentialConfig)
	for _, exchange := range SystemCredentialExchanges {
		prefix := strings.ToUpper(exchange)
		set := SystemCredentialConfig{
			Mainnet: readCredential(prefix + "_SYSTEM"),
			Testnet: readCredential(prefix + "_TESTNET"),
		}
		if set.Mainnet != nil || set.Testnet != nil {
			out[exchange] = set
		}
	}
	return out
}

func readCredential(prefix string) *APICredential {
	c := APICredential{
		APIKey:     getEnv(prefix+"_API_KEY", ""),
		Secret:     getEnv(prefix+"_SECRET", ""),
		Passphrase: getEnv(prefix+"_PASSPHRASE", ""),
	}
	if c.APIKey == "" && c.Secret == "" {
		return nil
	}
	return &c
}

// validateSecurity проверяет параметры безопасности
func (c *Config) validateSecurity() error {
	// ENCRYPTION_KEY обязателен: встроенного ключа нет
	if c.Security.EncryptionKey == "" {
		return fmt.Errorf("ENCRYPTION_KEY is required for encrypting API keys")
	}
	if _, err := crypto.ParseMasterKey(c.Security.EncryptionKey); err != nil {
		return fmt.Errorf("ENCRYPTION_KEY: %w", err)
	}

	if c.Security.AdminTokenHash == "" {
		return fmt.Errorf("ADMIN_TOKEN_HASH is required for API authentication")
	}
	if _, err := crypto.GetHashCost(c.Security.AdminTokenHash); err != nil {
		return fmt.Errorf("ADMIN_TOKEN_HASH must be a bcrypt hash: %w", err)
	}

	return nil
}

// validateRanges проверяет числовые диапазоны параметров
func (c *Config) validateRanges() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("DB_PORT must be between 1 and 65535, got %d", c.Database.Port)
	}
	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be positive, got %d", c.Database.MaxOpenConns)
	}

	if c.Exchange.RequestTimeout < minRequestTimeout || c.Exchange.RequestTimeout > maxRequestTimeout {
		return fmt.Errorf("EXCHANGE_REQUEST_TIMEOUT must be between %v and %v, got %v",
			minRequestTimeout, maxRequestTimeout, c.Exchange.RequestTimeout)
	}
	if c.Exchange.RateLimit <= 0 {
		return fmt.Errorf("EXCHANGE_RATE_LIMIT must be positive, got %v", c.Exchange.RateLimit)
	}
	if c.Exchange.RateBurst < 1 {
		return fmt.Errorf("EXCHANGE_RATE_BURST must be at least 1, got %d", c.Exchange.RateBurst)
	}

	if c.Trading.FallbackAssumedBalance < 0 {
		return fmt.Errorf("FALLBACK_ASSUMED_BALANCE cannot be negative, got %v", c.Trading.FallbackAssumedBalance)
	}

	return nil
}

// validateSystemCredentials: ключ без секрета - ошибка конфигурации, а не "нет ключа"
func (c *Config) validateSystemCredentials() error {
	for exchange, set := range c.SystemCredentials {
		for env, cred := range map[string]*APICredential{"SYSTEM": set.Mainnet, "TESTNET": set.Testnet} {
			if cred == nil {
				continue
			}
			prefix := strings.ToUpper(exchange) + "_" + env
			if cred.APIKey == "" || cred.Secret == "" {
				return fmt.Errorf("%s_API_KEY and %s_SECRET must be set together", prefix, prefix)
			}
			if passphraseExchanges[exchange] && cred.Passphrase == "" {
				return fmt.Errorf("%s_PASSPHRASE is required for %s", prefix, exchange)
			}
		}
	}
	return nil
}

// DSN возвращает строку подключения к базе данных
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// DSNWithoutPassword возвращает строку подключения без пароля (для логирования)
func (d DatabaseConfig) DSNWithoutPassword() string {
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Name, d.SSLMode)
}

// Addr - адрес для http.Server
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Вспомогательные функции для чтения переменных окружения

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList разбирает список через запятую, пустые элементы отбрасываются
func getEnvAsList(key string, transform func(string) string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if transform != nil {
			part = transform(part)
		}
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
