package handlers

import (
	"net/http"

	"tradekeys/internal/models"
)

// ParamsResponse - параметры с признаком "значения по умолчанию"
type ParamsResponse struct {
	Params    *models.TradingParameters `json:"params"`
	IsDefault bool                      `json:"is_default"`
}

// ParamsHandler - торговые параметры пользователя
//
// Endpoints:
// - GET /api/v1/users/{userID}/params
// - PATCH /api/v1/users/{userID}/params
type ParamsHandler struct {
	paramsService ParamsServiceInterface
}

// NewParamsHandler создает новый ParamsHandler
func NewParamsHandler(paramsService ParamsServiceInterface) *ParamsHandler {
	return &ParamsHandler{paramsService: paramsService}
}

// GetParams возвращает сохраненные параметры или значения по умолчанию
// GET /api/v1/users/{userID}/params
func (h *ParamsHandler) GetParams(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	params, isDefault, err := h.paramsService.GetOrDefault(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, ParamsResponse{Params: params, IsDefault: isDefault})
}

// UpdateParams частично обновляет параметры
// PATCH /api/v1/users/{userID}/params
//
// Тело - любое подмножество полей параметров. Неизвестные поля отклоняются (400).
// При нарушении ограничений возвращается 422 со всеми нарушениями, ничего не сохраняется.
func (h *ParamsHandler) UpdateParams(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	var update models.TradingParamsUpdate
	if !decodeBody(w, r, &update, true) {
		return
	}

	params, err := h.paramsService.MergeAndValidate(r.Context(), userID, update)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, ParamsResponse{Params: params})
}
