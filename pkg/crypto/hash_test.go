package crypto

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashToken(t *testing.T) {
	hash, err := HashTokenWithCost("admin-token", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashTokenWithCost failed: %v", err)
	}
	if hash == "admin-token" || !strings.HasPrefix(hash, "$2") {
		t.Errorf("unexpected hash format: %q", hash)
	}

	if err := VerifyToken("admin-token", hash); err != nil {
		t.Errorf("VerifyToken with correct token: %v", err)
	}
	if err := VerifyToken("other-token", hash); !errors.Is(err, ErrTokenMismatch) {
		t.Errorf("VerifyToken with wrong token: got %v, want %v", err, ErrTokenMismatch)
	}
}

func TestHashTokenErrors(t *testing.T) {
	if _, err := HashToken(""); !errors.Is(err, ErrEmptyToken) {
		t.Errorf("empty token: got %v", err)
	}
	if _, err := HashToken(strings.Repeat("x", MaxTokenLength+1)); !errors.Is(err, ErrTokenTooLong) {
		t.Errorf("long token: got %v", err)
	}
}

func TestHashTokenCostClamped(t *testing.T) {
	hash, err := HashTokenWithCost("token", 0)
	if err != nil {
		t.Fatalf("HashTokenWithCost failed: %v", err)
	}
	cost, err := GetHashCost(hash)
	if err != nil {
		t.Fatalf("GetHashCost failed: %v", err)
	}
	if cost != bcrypt.MinCost {
		t.Errorf("got cost %d, want %d", cost, bcrypt.MinCost)
	}
}

func TestVerifyTokenInvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		hash    string
		wantErr error
	}{
		{"пустой токен", "", "$2a$04$abc", ErrEmptyToken},
		{"пустой хеш", "token", "", ErrInvalidHash},
		{"не bcrypt", "token", "plain-text", ErrInvalidHash},
		{"обрезанный bcrypt", "token", "$2a$04$short", ErrInvalidHash},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := VerifyToken(tt.token, tt.hash); !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetHashCostInvalid(t *testing.T) {
	if _, err := GetHashCost(""); !errors.Is(err, ErrInvalidHash) {
		t.Errorf("got %v", err)
	}
	if _, err := GetHashCost("invalid"); !errors.Is(err, ErrInvalidHash) {
		t.Errorf("got %v", err)
	}
}
