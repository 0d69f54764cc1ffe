package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"tradekeys/internal/models"
	"tradekeys/internal/service"
)

// CredentialListResponse - ключи пользователя без секретов
type CredentialListResponse struct {
	Credentials []models.CredentialView `json:"credentials"`
	Total       int                     `json:"total"`
}

// CredentialHandler отвечает за API ключи пользователей
//
// Endpoints:
// - POST /api/v1/users/{userID}/credentials/{exchange} - проверить и сохранить ключи
// - GET /api/v1/users/{userID}/credentials - список ключей (маскированных)
// - POST /api/v1/users/{userID}/credentials/{exchange}/revalidate - повторная проверка
// - DELETE /api/v1/users/{userID}/credentials/{exchange} - деактивация
// - GET /api/v1/credentials/status - сводка по статусам проверки
type CredentialHandler struct {
	credentialService CredentialServiceInterface
}

// NewCredentialHandler создает новый CredentialHandler
func NewCredentialHandler(credentialService CredentialServiceInterface) *CredentialHandler {
	return &CredentialHandler{
		credentialService: credentialService,
	}
}

// SubmitCredential проверяет ключи на бирже и сохраняет их зашифрованными
// POST /api/v1/users/{userID}/credentials/{exchange}
//
// Тело запроса:
//
//	{
//	  "api_key": "your-api-key",
//	  "secret": "your-secret",
//	  "passphrase": "optional-passphrase", // для OKX
//	  "testnet": false
//	}
//
// Ответы:
// - 201 Created: ключи прошли проверку
// - 200 OK: биржа отклонила ключи, сохранены со статусом error (причина в error_kind)
// - 400 Bad Request: некорректное тело
// - 422 Unprocessable Entity: ключи не прошли локальную проверку
// - 502/504: биржа недоступна, ничего не сохранено
func (h *CredentialHandler) SubmitCredential(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	var req service.SubmitCredentialInput
	if !decodeBody(w, r, &req, true) {
		return
	}
	req.UserID = userID
	req.Exchange = strings.ToLower(mux.Vars(r)["exchange"])

	result, err := h.credentialService.Submit(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	status := http.StatusCreated
	if result.Status != models.ValidationValidated {
		status = http.StatusOK
	}
	respondWithJSON(w, status, result)
}

// GetCredentials возвращает ключи пользователя
// GET /api/v1/users/{userID}/credentials
func (h *CredentialHandler) GetCredentials(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	views, err := h.credentialService.ListForUser(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	if views == nil {
		views = []models.CredentialView{}
	}

	respondWithJSON(w, http.StatusOK, CredentialListResponse{
		Credentials: views,
		Total:       len(views),
	})
}

// RevalidateCredential повторно проверяет активный ключ
// POST /api/v1/users/{userID}/credentials/{exchange}/revalidate
func (h *CredentialHandler) RevalidateCredential(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	result, err := h.credentialService.Revalidate(r.Context(), userID, mux.Vars(r)["exchange"])
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// DeactivateCredential выключает активный ключ
// DELETE /api/v1/users/{userID}/credentials/{exchange}
//
// Ответы:
// - 200 OK: ключ деактивирован
// - 404 Not Found: активного ключа нет
func (h *CredentialHandler) DeactivateCredential(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}
	exchangeName := strings.ToLower(mux.Vars(r)["exchange"])

	if err := h.credentialService.Deactivate(r.Context(), userID, exchangeName); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, SuccessResponse{
		Message: "credential deactivated",
		Data:    map[string]interface{}{"user_id": userID, "exchange": exchangeName},
	})
}

// GetStatusCounts - число активных ключей по бирже и статусу
// GET /api/v1/credentials/status
func (h *CredentialHandler) GetStatusCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.credentialService.StatusCounts(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	if counts == nil {
		counts = []models.StatusCount{}
	}
	respondWithJSON(w, http.StatusOK, counts)
}
