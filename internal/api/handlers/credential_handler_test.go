package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"tradekeys/internal/exchange"
	"tradekeys/internal/models"
	"tradekeys/internal/repository"
	"tradekeys/internal/service"
)

func newRequest(method, target string, body string, vars map[string]string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp
}

// ============ CredentialHandler Tests ============

func TestCredentialHandler_SubmitCredential(t *testing.T) {
	t.Run("validated key returns 201", func(t *testing.T) {
		mockSvc := &MockCredentialService{}
		handler := NewCredentialHandler(mockSvc)

		req := newRequest(http.MethodPost, "/api/v1/users/2/credentials/ByBit",
			`{"api_key":"AbCdEfGh12345678","secret":"s3cr3t-s3cr3t-s3cr3t","testnet":true}`,
			map[string]string{"userID": "2", "exchange": "ByBit"})
		w := httptest.NewRecorder()

		handler.SubmitCredential(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
		}
		if len(mockSvc.submitted) != 1 {
			t.Fatalf("expected 1 submit, got %d", len(mockSvc.submitted))
		}
		in := mockSvc.submitted[0]
		if in.UserID != 2 || in.Exchange != "bybit" || !in.Testnet {
			t.Errorf("unexpected input: %+v", in)
		}

		var result service.SubmitResult
		if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if result.Status != models.ValidationValidated {
			t.Errorf("expected status validated, got %s", result.Status)
		}
	})

	t.Run("rejected key returns 200 with error kind", func(t *testing.T) {
		mockSvc := &MockCredentialService{submitResult: &service.SubmitResult{
			CredentialID: 5,
			Exchange:     "bybit",
			Status:       models.ValidationError,
			ErrorKind:    exchange.KindInvalidSignature,
			Error:        "bybit: InvalidSignature (code 10004)",
		}}
		handler := NewCredentialHandler(mockSvc)

		req := newRequest(http.MethodPost, "/api/v1/users/2/credentials/bybit",
			`{"api_key":"AbCdEfGh12345678","secret":"wrong-secret-value"}`,
			map[string]string{"userID": "2", "exchange": "bybit"})
		w := httptest.NewRecorder()

		handler.SubmitCredential(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
		}
		if !strings.Contains(w.Body.String(), `"error_kind":"InvalidSignature"`) {
			t.Errorf("response should contain error kind, got %s", w.Body.String())
		}
	})

	t.Run("secrets never echoed back", func(t *testing.T) {
		mockSvc := &MockCredentialService{}
		handler := NewCredentialHandler(mockSvc)

		req := newRequest(http.MethodPost, "/api/v1/users/2/credentials/okx",
			`{"api_key":"AbCdEfGh12345678","secret":"very-secret-value","passphrase":"okx-pass"}`,
			map[string]string{"userID": "2", "exchange": "okx"})
		w := httptest.NewRecorder()

		handler.SubmitCredential(w, req)

		body := w.Body.String()
		for _, secret := range []string{"very-secret-value", "okx-pass"} {
			if strings.Contains(body, secret) {
				t.Errorf("response leaks %q: %s", secret, body)
			}
		}
	})

	tests := []struct {
		name       string
		userID     string
		body       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "некорректный user id",
			userID:     "abc",
			body:       `{"api_key":"k","secret":"s"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeBadRequest,
		},
		{
			name:       "битый JSON",
			userID:     "2",
			body:       `{"api_key":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeBadRequest,
		},
		{
			name:       "неизвестное поле",
			userID:     "2",
			body:       `{"api_key":"k","secret":"s","secret_key":"x"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeBadRequest,
		},
		{
			name:   "локальная валидация",
			userID: "2",
			body:   `{"api_key":"k","secret":"s"}`,
			err: &service.ValidationError{Violations: []service.FieldViolation{
				{Field: "api_key", Message: "invalid api key"},
			}},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   CodeValidation,
		},
		{
			name:       "таймаут биржи",
			userID:     "2",
			body:       `{"api_key":"k","secret":"s"}`,
			err:        &exchange.ExchangeError{Exchange: "bybit", Kind: exchange.KindNetworkTimeout},
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   string(exchange.KindNetworkTimeout),
		},
		{
			name:       "некорректный ответ биржи",
			userID:     "2",
			body:       `{"api_key":"k","secret":"s"}`,
			err:        fmt.Errorf("validate: %w", &exchange.ExchangeError{Exchange: "bybit", Kind: exchange.KindMalformedResponse}),
			wantStatus: http.StatusBadGateway,
			wantCode:   string(exchange.KindMalformedResponse),
		},
		{
			name:       "биржа не поддерживается",
			userID:     "2",
			body:       `{"api_key":"k","secret":"s"}`,
			err:        fmt.Errorf("%w: kraken", exchange.ErrUnsupportedExchange),
			wantStatus: http.StatusNotFound,
			wantCode:   CodeUnsupportedExchange,
		},
		{
			name:       "ошибка БД",
			userID:     "2",
			body:       `{"api_key":"k","secret":"s"}`,
			err:        ErrMockDatabase,
			wantStatus: http.StatusInternalServerError,
			wantCode:   CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := &MockCredentialService{submitErr: tt.err}
			handler := NewCredentialHandler(mockSvc)

			req := newRequest(http.MethodPost, "/api/v1/users/"+tt.userID+"/credentials/bybit", tt.body,
				map[string]string{"userID": tt.userID, "exchange": "bybit"})
			w := httptest.NewRecorder()

			handler.SubmitCredential(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			resp := decodeError(t, w)
			if resp.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, resp.Code)
			}
			if tt.wantStatus == http.StatusInternalServerError && strings.Contains(resp.Error, ErrMockDatabase.Error()) {
				t.Errorf("internal error text leaked: %s", resp.Error)
			}
		})
	}
}

func TestCredentialHandler_GetCredentials(t *testing.T) {
	t.Run("returns masked list", func(t *testing.T) {
		c := models.Credential{ID: 1, UserID: 2, Exchange: "bybit", APIKey: "AbCdEfGh12345678", SecretKey: "secret"}
		mockSvc := &MockCredentialService{views: []models.CredentialView{c.View()}}
		handler := NewCredentialHandler(mockSvc)

		req := newRequest(http.MethodGet, "/api/v1/users/2/credentials", "", map[string]string{"userID": "2"})
		w := httptest.NewRecorder()

		handler.GetCredentials(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
		}
		var resp CredentialListResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Total != 1 || resp.Credentials[0].APIKeyMasked != "AbCd****5678" {
			t.Errorf("unexpected response: %+v", resp)
		}
	})

	t.Run("empty list is not null", func(t *testing.T) {
		handler := NewCredentialHandler(&MockCredentialService{})

		req := newRequest(http.MethodGet, "/api/v1/users/2/credentials", "", map[string]string{"userID": "2"})
		w := httptest.NewRecorder()

		handler.GetCredentials(w, req)

		if !strings.Contains(w.Body.String(), `"credentials":[]`) {
			t.Errorf("expected empty array, got %s", w.Body.String())
		}
	})

	t.Run("returns 500 on service error", func(t *testing.T) {
		handler := NewCredentialHandler(&MockCredentialService{listErr: ErrMockDatabase})

		req := newRequest(http.MethodGet, "/api/v1/users/2/credentials", "", map[string]string{"userID": "2"})
		w := httptest.NewRecorder()

		handler.GetCredentials(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
	})
}

func TestCredentialHandler_RevalidateCredential(t *testing.T) {
	t.Run("returns result", func(t *testing.T) {
		handler := NewCredentialHandler(&MockCredentialService{})

		req := newRequest(http.MethodPost, "/api/v1/users/2/credentials/okx/revalidate", "",
			map[string]string{"userID": "2", "exchange": "okx"})
		w := httptest.NewRecorder()

		handler.RevalidateCredential(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
		}
	})

	t.Run("returns 404 without active key", func(t *testing.T) {
		handler := NewCredentialHandler(&MockCredentialService{revalidateErr: repository.ErrCredentialNotFound})

		req := newRequest(http.MethodPost, "/api/v1/users/2/credentials/okx/revalidate", "",
			map[string]string{"userID": "2", "exchange": "okx"})
		w := httptest.NewRecorder()

		handler.RevalidateCredential(w, req)

		if w.Code != http.StatusNotFound {
			t.Fatalf("expected status %d, got %d", http.StatusNotFound, w.Code)
		}
		if resp := decodeError(t, w); resp.Code != CodeCredentialNotFound {
			t.Errorf("expected code %s, got %s", CodeCredentialNotFound, resp.Code)
		}
	})
}

func TestCredentialHandler_DeactivateCredential(t *testing.T) {
	t.Run("deactivates key", func(t *testing.T) {
		mockSvc := &MockCredentialService{}
		handler := NewCredentialHandler(mockSvc)

		req := newRequest(http.MethodDelete, "/api/v1/users/2/credentials/OKX", "",
			map[string]string{"userID": "2", "exchange": "OKX"})
		w := httptest.NewRecorder()

		handler.DeactivateCredential(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
		}
		if len(mockSvc.deactivated) != 1 || mockSvc.deactivated[0] != "okx" {
			t.Errorf("expected okx deactivated, got %v", mockSvc.deactivated)
		}
	})

	t.Run("returns 404 when missing", func(t *testing.T) {
		handler := NewCredentialHandler(&MockCredentialService{
			deactivateErr: fmt.Errorf("deactivate: %w", repository.ErrCredentialNotFound),
		})

		req := newRequest(http.MethodDelete, "/api/v1/users/2/credentials/okx", "",
			map[string]string{"userID": "2", "exchange": "okx"})
		w := httptest.NewRecorder()

		handler.DeactivateCredential(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
		}
	})
}

func TestCredentialHandler_GetStatusCounts(t *testing.T) {
	mockSvc := &MockCredentialService{counts: []models.StatusCount{
		{Exchange: "bybit", Status: models.ValidationValidated, Count: 3},
	}}
	handler := NewCredentialHandler(mockSvc)

	req := newRequest(http.MethodGet, "/api/v1/credentials/status", "", nil)
	w := httptest.NewRecorder()

	handler.GetStatusCounts(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var counts []models.StatusCount
	if err := json.NewDecoder(w.Body).Decode(&counts); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(counts) != 1 || counts[0].Count != 3 {
		t.Errorf("unexpected counts: %+v", counts)
	}
}
