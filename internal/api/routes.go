// Package api собирает HTTP маршруты административного API.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tradekeys/internal/api/handlers"
	"tradekeys/internal/api/middleware"
)

// Dependencies содержит все зависимости для API handlers
type Dependencies struct {
	CredentialService handlers.CredentialServiceInterface
	ParamsService     handlers.ParamsServiceInterface
	OperationService  handlers.OperationServiceInterface
	BlacklistService  handlers.BlacklistServiceInterface

	// AdminTokenHash - bcrypt-хеш административного токена (ADMIN_TOKEN_HASH)
	AdminTokenHash string
	AllowedOrigins []string

	// Health проверяет зависимости (БД) для /health; nil - всегда OK
	Health func(r *http.Request) error
}

// SetupRoutes настраивает все HTTP маршруты приложения
//
// Структура маршрутов:
//
// /api/v1/ (Bearer токен)
//
//	├── /users/{userID}/
//	│   ├── /credentials/
//	│   │   ├── GET / - ключи пользователя (маскированные)
//	│   │   ├── POST /{exchange} - проверить и сохранить ключи
//	│   │   ├── DELETE /{exchange} - деактивировать ключ
//	│   │   └── POST /{exchange}/revalidate - повторная проверка
//	│   ├── /params/
//	│   │   ├── GET / - параметры (или значения по умолчанию)
//	│   │   └── PATCH / - частичное обновление
//	│   └── POST /operations/prepare - пакет операции
//	├── GET /credentials/status - сводка по статусам проверки
//	└── /blacklist/
//	    ├── GET / - получить черный список
//	    ├── POST / - добавить в черный список
//	    └── DELETE /{symbol}?exchange= - удалить из черного списка
//
// /health, /metrics - без аутентификации
//
// Middleware применяется в следующем порядке:
// 1. Recovery, RequestID, Logging, Metrics, CORS (для всех маршрутов)
// 2. AdminAuth (только /api/v1)
func SetupRoutes(deps *Dependencies) *mux.Router {
	if deps == nil {
		deps = &Dependencies{}
	}

	router := mux.NewRouter()

	// Глобальные middleware (применяются ко всем маршрутам)
	router.Use(middleware.Recovery)
	router.Use(middleware.RequestID)
	router.Use(middleware.Logging)
	router.Use(middleware.Metrics)
	router.Use(middleware.CORS(deps.AllowedOrigins))

	// preflight отвечает CORS до проверки токена и методов маршрутов
	router.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	router.HandleFunc("/health", healthHandler(deps.Health)).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.NewAdminAuth(deps.AdminTokenHash).Middleware)

	// Credential routes
	if deps.CredentialService != nil {
		h := handlers.NewCredentialHandler(deps.CredentialService)
		api.HandleFunc("/users/{userID}/credentials", h.GetCredentials).Methods(http.MethodGet)
		api.HandleFunc("/users/{userID}/credentials/{exchange}", h.SubmitCredential).Methods(http.MethodPost)
		api.HandleFunc("/users/{userID}/credentials/{exchange}", h.DeactivateCredential).Methods(http.MethodDelete)
		api.HandleFunc("/users/{userID}/credentials/{exchange}/revalidate", h.RevalidateCredential).Methods(http.MethodPost)
		api.HandleFunc("/credentials/status", h.GetStatusCounts).Methods(http.MethodGet)
	}

	// Params routes
	if deps.ParamsService != nil {
		h := handlers.NewParamsHandler(deps.ParamsService)
		api.HandleFunc("/users/{userID}/params", h.GetParams).Methods(http.MethodGet)
		api.HandleFunc("/users/{userID}/params", h.UpdateParams).Methods(http.MethodPatch)
	}

	// Operation routes
	if deps.OperationService != nil {
		h := handlers.NewOperationHandler(deps.OperationService)
		api.HandleFunc("/users/{userID}/operations/prepare", h.PrepareOperation).Methods(http.MethodPost)
	}

	// Blacklist routes
	if deps.BlacklistService != nil {
		h := handlers.NewBlacklistHandler(deps.BlacklistService)
		api.HandleFunc("/blacklist", h.GetBlacklist).Methods(http.MethodGet)
		api.HandleFunc("/blacklist", h.AddToBlacklist).Methods(http.MethodPost)
		api.HandleFunc("/blacklist/{symbol}", h.RemoveFromBlacklist).Methods(http.MethodDelete)
	}

	return router
}

func healthHandler(check func(r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("UNAVAILABLE"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}
