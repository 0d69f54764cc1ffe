package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"tradekeys/internal/models"
)

// AddToBlacklistRequest - тело запроса на добавление символа.
// Пустой exchange - запрет на всех биржах.
type AddToBlacklistRequest struct {
	Exchange string `json:"exchange"`
	Symbol   string `json:"symbol"`
	Reason   string `json:"reason"`
}

type blacklistResponse struct {
	Entries []*models.BlacklistEntry `json:"entries"`
	Total   int                      `json:"total"`
}

// BlacklistHandler отвечает за управление черным списком торговых пар
//
// Endpoints:
// - GET /api/v1/blacklist
// - POST /api/v1/blacklist
// - DELETE /api/v1/blacklist/{symbol}?exchange=bybit
type BlacklistHandler struct {
	blacklistService BlacklistServiceInterface
}

// NewBlacklistHandler создает новый BlacklistHandler
func NewBlacklistHandler(blacklistService BlacklistServiceInterface) *BlacklistHandler {
	return &BlacklistHandler{blacklistService: blacklistService}
}

// GetBlacklist возвращает весь черный список
// GET /api/v1/blacklist
func (h *BlacklistHandler) GetBlacklist(w http.ResponseWriter, r *http.Request) {
	entries, err := h.blacklistService.List(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	if entries == nil {
		entries = []*models.BlacklistEntry{}
	}

	respondWithJSON(w, http.StatusOK, blacklistResponse{Entries: entries, Total: len(entries)})
}

// AddToBlacklist добавляет символ в черный список
// POST /api/v1/blacklist
//
// Ответы:
// - 201 Created
// - 409 Conflict: запись уже есть
// - 422 Unprocessable Entity: неверный символ или биржа
func (h *BlacklistHandler) AddToBlacklist(w http.ResponseWriter, r *http.Request) {
	var req AddToBlacklistRequest
	if !decodeBody(w, r, &req, false) {
		return
	}

	entry, err := h.blacklistService.Add(r.Context(), req.Exchange, req.Symbol, req.Reason)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, entry)
}

// RemoveFromBlacklist удаляет символ из черного списка
// DELETE /api/v1/blacklist/{symbol}?exchange=
func (h *BlacklistHandler) RemoveFromBlacklist(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	exchangeName := r.URL.Query().Get("exchange")

	if err := h.blacklistService.Remove(r.Context(), exchangeName, symbol); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, SuccessResponse{Message: "symbol removed from blacklist"})
}
