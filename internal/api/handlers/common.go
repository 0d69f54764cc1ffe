// Package handlers содержит HTTP handlers административного API.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"

	"tradekeys/internal/exchange"
	"tradekeys/internal/repository"
	"tradekeys/internal/service"
	"tradekeys/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MaxRequestBodySize ограничение размера тела запроса (1 MB)
const MaxRequestBodySize = 1 << 20

// Коды ошибок API, которых нет среди категорий ошибок бирж
const (
	CodeBadRequest          = "BadRequest"
	CodeValidation          = "ValidationError"
	CodeNotPermitted        = "OperationNotPermitted"
	CodeNoCredentials       = "NoCredentialsAvailable"
	CodeCredentialNotFound  = "CredentialNotFound"
	CodeUnsupportedExchange = "UnsupportedExchange"
	CodeAlreadyBlacklisted  = "AlreadyBlacklisted"
	CodeNotBlacklisted      = "NotBlacklisted"
	CodeInternal            = "InternalError"
)

// ErrorResponse стандартный формат ответа об ошибке для всех API endpoints
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse стандартный формат успешного ответа
type SuccessResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// respondWithJSON отправляет JSON ответ
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to marshal response","code":"InternalError"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondWithError отправляет JSON ответ с ошибкой
func respondWithError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	respondWithJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

// respondWithServiceError переводит ошибку сервиса в HTTP код.
// Текст внутренних ошибок клиенту не отдается, только в лог.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr   *service.ValidationError
		denied *service.NotPermittedError
		exErr  *exchange.ExchangeError
	)

	switch {
	case errors.As(err, &verr):
		respondWithError(w, http.StatusUnprocessableEntity, CodeValidation, "validation failed", verr.Violations)
	case errors.As(err, &denied):
		respondWithError(w, http.StatusForbidden, CodeNotPermitted, "operation not permitted", denied.Reasons)
	case errors.Is(err, service.ErrNoCredentialsAvailable):
		respondWithError(w, http.StatusConflict, CodeNoCredentials, err.Error(), nil)
	case errors.Is(err, service.ErrAlreadyBlacklisted):
		respondWithError(w, http.StatusConflict, CodeAlreadyBlacklisted, err.Error(), nil)
	case errors.Is(err, repository.ErrCredentialNotFound):
		respondWithError(w, http.StatusNotFound, CodeCredentialNotFound, "credential not found", nil)
	case errors.Is(err, service.ErrNotBlacklisted):
		respondWithError(w, http.StatusNotFound, CodeNotBlacklisted, err.Error(), nil)
	case errors.Is(err, exchange.ErrUnsupportedExchange):
		respondWithError(w, http.StatusNotFound, CodeUnsupportedExchange, err.Error(), nil)
	case isInputError(err):
		respondWithError(w, http.StatusBadRequest, CodeBadRequest, err.Error(), nil)
	case errors.As(err, &exErr):
		status := http.StatusBadGateway
		if exErr.Kind == exchange.KindNetworkTimeout {
			status = http.StatusGatewayTimeout
		}
		respondWithError(w, status, string(exErr.Kind), exErr.Error(), nil)
	default:
		utils.L().WithComponent("api").Error("request failed",
			utils.String("method", r.Method),
			utils.String("path", r.URL.Path),
			utils.Err(err),
		)
		respondWithError(w, http.StatusInternalServerError, CodeInternal, "internal server error", nil)
	}
}

// isInputError - ошибки проверки входных значений из pkg/utils
func isInputError(err error) bool {
	return errors.Is(err, utils.ErrInvalidUserID) ||
		errors.Is(err, utils.ErrInvalidSymbol) ||
		errors.Is(err, utils.ErrInvalidExchange)
}

// decodeBody декодирует JSON тело с ограничением размера.
// strict=true отклоняет неизвестные поля.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}, strict bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	dec := json.NewDecoder(r.Body)
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body", err.Error())
		return false
	}
	return true
}

// pathUserID читает {userID} из пути
func pathUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := mux.Vars(r)["userID"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusBadRequest, CodeBadRequest, "invalid user id", raw)
		return 0, false
	}
	return id, true
}
