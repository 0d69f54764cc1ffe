package handlers

import (
	"net/http"

	"tradekeys/internal/service"
)

// OperationHandler готовит пакеты операций для исполнителя
type OperationHandler struct {
	operationService OperationServiceInterface
}

// NewOperationHandler создает новый OperationHandler
func NewOperationHandler(operationService OperationServiceInterface) *OperationHandler {
	return &OperationHandler{operationService: operationService}
}

// PrepareOperation собирает ключи и лимиты для одной операции
// POST /api/v1/users/{userID}/operations/prepare
//
// Тело запроса:
//
//	{"exchange": "bybit", "symbol": "BTCUSDT", "prefer_testnet": false}
//
// Ответы:
// - 200 OK: пакет операции (секреты в ответ не попадают)
// - 403 Forbidden: операция запрещена, details - все причины
// - 409 Conflict: нет ни ключа пользователя, ни системного ключа
func (h *OperationHandler) PrepareOperation(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	var req service.PrepareRequest
	if !decodeBody(w, r, &req, true) {
		return
	}
	req.UserID = userID

	bundle, err := h.operationService.Prepare(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, bundle)
}
