package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/booktrack/booktrack-go/internal/apperr"
	"github.com/booktrack/booktrack-go/internal/ratelimit"
)

// MsgTooManyRequests is returned once a client exhausts its budget.
const MsgTooManyRequests = "Too many requests, please try again later"

// RateLimit returns middleware that limits requests per client IP address.
// Limiter failures let the request through.
func RateLimit(limiter ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			d, err := limiter.Allow(r.Context(), ip)
			if err != nil {
				slog.Warn("rate limiter unavailable, allowing request",
					"error", err, "remote_ip", ip, "request_id", RequestIDFromContext(r.Context()))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("RateLimit-Remaining", strconv.Itoa(d.Remaining))

			if !d.Allowed {
				secs := int(math.Ceil(d.RetryAfter.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
				writeJSONError(w, apperr.RateLimited(MsgTooManyRequests))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
