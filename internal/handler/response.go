package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/booktrack/booktrack-go/internal/apperr"
	"github.com/booktrack/booktrack-go/internal/middleware"
	"github.com/booktrack/booktrack-go/internal/repository"
	"github.com/booktrack/booktrack-go/internal/service"
)

const maxBodyBytes = 1 << 20 // 1MB

const (
	msgInvalidBody  = "Invalid request body"
	msgBodyTooLarge = "Request body too large"
)

// envelope is the uniform response wrapper.
type envelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    any      `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
	// Error carries the cause of internal errors outside production.
	Error string `json:"error,omitempty"`
}

// listEnvelope is the paged list response.
type listEnvelope struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
	Total   int  `json:"total"`
	Page    int  `json:"page"`
	Pages   int  `json:"pages"`
	Limit   int  `json:"limit"`
	Data    any  `json:"data"`
}

// countEnvelope is a collection response with its length.
type countEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Count   int    `json:"count"`
	Data    any    `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func ok(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

// errBodyTooLarge marks a request body rejected by http.MaxBytesReader.
var errBodyTooLarge = errors.New("request body too large")

// decodeJSON reads a size-limited JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "http: request body too large") {
			return errBodyTooLarge
		}
		if errors.Is(err, io.EOF) {
			return apperr.Validation(msgInvalidBody)
		}
		e := apperr.Validation(msgInvalidBody)
		e.Err = err
		return e
	}
	return nil
}

// errorWriter renders errors as envelopes. Outside production internal
// errors include their cause.
type errorWriter struct {
	dev bool
}

func (ew errorWriter) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errBodyTooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, envelope{Success: false, Message: msgBodyTooLarge})
		return
	}

	ae := resolve(err)
	status := ae.Kind.Status()
	body := envelope{Success: false, Message: ae.Message, Errors: ae.Fields}

	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
			"request_id", middleware.RequestIDFromContext(r.Context()),
		)
		if ew.dev && ae.Err != nil {
			body.Error = ae.Err.Error()
		}
	}

	writeJSON(w, status, body)
}

// resolve maps store errors that escaped the services, then falls back to apperr.From.
func resolve(err error) *apperr.Error {
	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Kind != apperr.KindInternal {
		return ae
	}

	switch {
	case errors.Is(err, repository.ErrInvalidID):
		return apperr.Validation(service.MsgInvalidID)
	case errors.Is(err, repository.ErrDuplicateEmail):
		return apperr.Validation("email already exists")
	case errors.Is(err, repository.ErrConstraint):
		return apperr.Validation(service.MsgValidationFailed)
	case errors.Is(err, repository.ErrBookNotFound):
		return apperr.NotFound(service.MsgBookNotFound)
	}

	return apperr.From(err)
}
