package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/booktrack/booktrack-go/internal/apperr"
)

type contextKey string

const userIDKey contextKey = "userID"

// MsgNoToken is returned when a protected route is called without a bearer token.
const MsgNoToken = "Not authorized to access this route. Please log in."

// TokenVerifier resolves a session token to the id of its user.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

// JWTAuth returns middleware that requires a valid Bearer token and stores
// the caller's user id in the request context.
func JWTAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			token = strings.TrimSpace(token)
			if !found || token == "" {
				writeJSONError(w, apperr.Unauthorized(MsgNoToken))
				return
			}

			userID, err := verifier.VerifyToken(r.Context(), token)
			if err != nil {
				ae := apperr.From(err)
				if ae.Kind == apperr.KindInternal {
					slog.Error("token verification failed", "error", err, "request_id", RequestIDFromContext(r.Context()))
				}
				writeJSONError(w, ae)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// WithUserID returns a copy of ctx carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext extracts the authenticated user ID from the request context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}
