package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"
	"sync"

	"tradekeys/pkg/crypto"
	"tradekeys/pkg/utils"
)

// AdminAuth проверяет заголовок Authorization: Bearer <token>
// против bcrypt-хеша ADMIN_TOKEN_HASH.
//
// bcrypt дорог, поэтому SHA-256 последнего принятого токена запоминается
// и повторные запросы с ним сравниваются за постоянное время без bcrypt.
type AdminAuth struct {
	tokenHash string

	mu       sync.RWMutex
	verified []byte
}

// NewAdminAuth создает проверку токена по bcrypt-хешу
func NewAdminAuth(tokenHash string) *AdminAuth {
	return &AdminAuth{tokenHash: tokenHash}
}

// Middleware возвращает 401 без токена или с неверным токеном
func (a *AdminAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			w.Header().Set("WWW-Authenticate", `Bearer realm="tradekeys"`)
			writeError(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
			return
		}

		if !a.verify(token) {
			utils.L().WithComponent("auth").Warn("rejected admin token",
				utils.String("remote_addr", r.RemoteAddr),
				utils.RequestID(RequestIDFromContext(r.Context())),
			)
			w.Header().Set("WWW-Authenticate", `Bearer realm="tradekeys", error="invalid_token"`)
			writeError(w, http.StatusUnauthorized, "Unauthorized", "invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *AdminAuth) verify(token string) bool {
	digest := sha256.Sum256([]byte(token))

	a.mu.RLock()
	cached := a.verified
	a.mu.RUnlock()
	if cached != nil && subtle.ConstantTimeCompare(cached, digest[:]) == 1 {
		return true
	}

	if err := crypto.VerifyToken(token, a.tokenHash); err != nil {
		return false
	}

	a.mu.Lock()
	a.verified = digest[:]
	a.mu.Unlock()
	return true
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
