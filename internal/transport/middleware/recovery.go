package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/heartmarshall/coral-backend/pkg/ctxutil"
)

const internalErrorBody = `{"error":"internal server error","code":"INTERNAL"}`

// Recovery turns a handler panic into a JSON 500 in the same shape as every
// other API error, logging the panic value with its stack. http.ErrAbortHandler
// is re-raised so net/http can abort the response as intended.
func Recovery(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				ctx := r.Context()
				logger.ErrorContext(ctx, "panic recovered",
					slog.Any("error", rec),
					slog.String("stack", string(debug.Stack())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("request_id", ctxutil.RequestIDFromCtx(ctx)),
					slog.String("client_ip", ctxutil.ClientIPFromCtx(ctx)),
				)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(internalErrorBody)) //nolint:errcheck
			}()
			next.ServeHTTP(w, r)
		})
	}
}
