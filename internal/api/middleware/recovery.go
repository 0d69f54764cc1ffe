package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"tradekeys/pkg/utils"
)

// Recovery - middleware для восстановления после паники в handlers
//
// Логирует значение panic и stack trace, клиенту отдает 500 в общем
// формате ошибок без подробностей. http.ErrAbortHandler пробрасывается дальше.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			utils.L().WithComponent("http").Error("panic in handler",
				utils.String("panic", fmt.Sprint(rec)),
				utils.String("method", r.Method),
				utils.String("path", r.URL.Path),
				utils.RequestID(RequestIDFromContext(r.Context())),
				utils.String("stack", string(debug.Stack())),
			)

			writeError(w, http.StatusInternalServerError, "InternalError", "internal server error")
		}()

		next.ServeHTTP(w, r)
	})
}
