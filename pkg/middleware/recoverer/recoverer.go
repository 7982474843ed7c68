// Package recoverer turns handler panics into a logged 500 JSON response.
package recoverer

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/vadimbarashkov/shortlink/pkg/response"
)

func New(logger *slog.Logger) func(http.Handler) http.Handler {
	const op = "middleware.recoverer.New"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}

				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				logger.ErrorContext(r.Context(), "panic recovered",
					slog.String("op", op),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Any("err", rvr),
					slog.String("stack", string(debug.Stack())),
				)

				if r.Header.Get("Connection") != "Upgrade" {
					response.Render(w, r, response.ServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
