package middleware

import (
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/booktrack/booktrack-go/internal/apperr"
)

type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// writeJSONError writes e as an error envelope with the status of its kind.
func writeJSONError(w http.ResponseWriter, e *apperr.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Kind.Status())
	if err := json.NewEncoder(w).Encode(errorBody{Success: false, Message: e.Message}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
