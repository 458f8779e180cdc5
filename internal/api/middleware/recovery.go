package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/mindgym/internal/api/apierr"
	"github.com/mcoot/mindgym/internal/middleware"
)

// Recovery creates panic recovery middleware for the API
// A panic before the response starts becomes a JSON INTERNAL_ERROR
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, writeInternalError)
}

func writeInternalError(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}
