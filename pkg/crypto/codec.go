package crypto

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	// codecVersion - префикс формата хранимых секретов
	codecVersion = "v1:"

	// MinMasterKeyLength - минимальная длина мастер-ключа из конфигурации
	MinMasterKeyLength = 32

	// hkdfInfo - контекст вывода ключа; смена значения делает старые секреты нечитаемыми
	hkdfInfo = "tradekeys/user-api-keys/aes-256-gcm/v1"
)

// ErrMasterKeyTooShort - мастер-ключ короче MinMasterKeyLength
var ErrMasterKeyTooShort = errors.New("master key must be at least 32 bytes")

// Codec шифрует и расшифровывает секреты бирж.
//
// Ключ данных выводится из мастер-ключа процесса через HKDF-SHA256,
// поэтому мастер-ключ никогда не используется напрямую как ключ AES.
// Codec неизменяем после создания и безопасен для конкурентного использования.
type Codec struct {
	key []byte
}

// NewCodec создает Codec из мастер-ключа (ENCRYPTION_KEY).
func NewCodec(masterKey []byte) (*Codec, error) {
	if len(masterKey) < MinMasterKeyLength {
		return nil, ErrMasterKeyTooShort
	}

	key := make([]byte, KeySize)
	kdf := hkdf.New(sha256.New, masterKey, nil, []byte(hkdfInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, err
	}

	return &Codec{key: key}, nil
}

// ParseMasterKey принимает ключ в base64 или как сырую строку.
// Base64 используется, только если декодированное значение достаточной длины.
func ParseMasterKey(value string) ([]byte, error) {
	value = strings.TrimSpace(value)
	if decoded, err := base64.StdEncoding.DecodeString(value); err == nil && len(decoded) >= MinMasterKeyLength {
		return decoded, nil
	}
	if len(value) < MinMasterKeyLength {
		return nil, ErrMasterKeyTooShort
	}
	return []byte(value), nil
}

// Encrypt шифрует plaintext. Формат результата: v1:base64(nonce||ciphertext||tag)
func (c *Codec) Encrypt(plaintext string) (string, error) {
	sealed, err := Encrypt(plaintext, c.key)
	if err != nil {
		return "", err
	}
	return codecVersion + sealed, nil
}

// Decrypt расшифровывает значение, созданное Encrypt
func (c *Codec) Decrypt(ciphertext string) (string, error) {
	if !strings.HasPrefix(ciphertext, codecVersion) {
		return "", ErrInvalidCiphertext
	}
	return Decrypt(strings.TrimPrefix(ciphertext, codecVersion), c.key)
}

// EncryptOptional шифрует значение, пустая строка остается пустой (passphrase не у всех бирж)
func (c *Codec) EncryptOptional(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	return c.Encrypt(plaintext)
}

// DecryptOptional - пара к EncryptOptional
func (c *Codec) DecryptOptional(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	return c.Decrypt(ciphertext)
}
