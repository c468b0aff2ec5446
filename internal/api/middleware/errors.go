package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/snookercounter/internal/api/apierr"
	"github.com/mcoot/snookercounter/internal/middleware"
)

// Recovery creates panic recovery middleware that answers with a JSON error
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, func(w http.ResponseWriter, _ *http.Request, _ any) {
		apierr.WriteError(w, apierr.NewInternalError())
	})
}

// NotFound answers unknown API routes in the same envelope as other errors
func NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewNotFoundError())
	})
}

// MethodNotAllowed answers known routes called with the wrong method
func MethodNotAllowed() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apierr.WriteError(w, apierr.NewMethodNotAllowedError(r.Method))
	})
}
