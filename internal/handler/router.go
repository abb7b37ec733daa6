package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/booktrack/booktrack-go/internal/middleware"
	"github.com/booktrack/booktrack-go/internal/ratelimit"
)

// Version is reported by the service banner.
const Version = "1.0.0"

// RouterConfig wires the HTTP surface.
type RouterConfig struct {
	Auth        *AuthHandler
	Books       *BookHandler
	Verifier    middleware.TokenVerifier
	Limiter     ratelimit.Limiter
	CORSOrigins []string
	// TrustProxy takes the client address from X-Real-IP / X-Forwarded-For.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxy bool
}

// NewRouter builds the chi router serving the API.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	if cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader, "Retry-After"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, envelope{Success: false, Message: "Route not found - " + r.URL.RequestURI()})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, envelope{Success: false, Message: "Method not allowed - " + r.Method + " " + r.URL.Path})
	})

	r.Get("/", handleBanner)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		if cfg.Limiter != nil {
			r.Use(middleware.RateLimit(cfg.Limiter))
		}
		auth := middleware.JWTAuth(cfg.Verifier)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", cfg.Auth.HandleSignup)
			r.Post("/login", cfg.Auth.HandleLogin)

			r.Group(func(r chi.Router) {
				r.Use(auth)
				r.Get("/me", cfg.Auth.HandleMe)
				r.Put("/me", cfg.Auth.HandleUpdateMe)
				r.Post("/logout", cfg.Auth.HandleLogout)
			})
		})

		r.Route("/books", func(r chi.Router) {
			r.Use(auth)

			// Fixed paths are registered ahead of /{id}.
			r.Get("/dashboard/stats", cfg.Books.HandleDashboard)
			r.Get("/tags", cfg.Books.HandleTags)
			r.Get("/stats/status", cfg.Books.HandleStatusCounts)
			r.Post("/bulk", cfg.Books.HandleBulkCreate)

			r.Get("/", cfg.Books.HandleList)
			r.Post("/", cfg.Books.HandleCreate)
			r.Get("/{id}", cfg.Books.HandleGet)
			r.Put("/{id}", cfg.Books.HandleUpdate)
			r.Delete("/{id}", cfg.Books.HandleDelete)
		})
	})

	return r
}

type banner struct {
	Message   string `json:"message"`
	Version   string `json:"version"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func handleBanner(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, banner{
		Message:   "Personal Book Manager API",
		Version:   Version,
		Status:    "active",
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}
