package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/booktrack/booktrack-go/internal/cache"
	"github.com/booktrack/booktrack-go/internal/config"
	"github.com/booktrack/booktrack-go/internal/crypto"
	"github.com/booktrack/booktrack-go/internal/handler"
	"github.com/booktrack/booktrack-go/internal/ratelimit"
	"github.com/booktrack/booktrack-go/internal/repository"
	"github.com/booktrack/booktrack-go/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg)

	if err := run(cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.Config) {
	level, _ := cfg.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

func run(cfg config.Config) error {
	ctx := context.Background()

	if err := repository.Migrate(cfg.DBDriver, cfg.DatabaseURL); err != nil {
		return err
	}

	db, err := repository.NewDB(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	limiter, closer, err := newLimiter(ctx, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	hasher, err := crypto.NewPasswordHasher(crypto.DefaultHashParams())
	if err != nil {
		return err
	}

	authService := service.NewAuthService(repository.NewUserRepository(db), hasher, cfg.JWTSecret, cfg.JWTExpiry())
	bookService := service.NewBookService(repository.NewBookRepository(db))

	dev := !cfg.IsProduction()
	router := handler.NewRouter(handler.RouterConfig{
		Auth:        handler.NewAuthHandler(authService, dev),
		Books:       handler.NewBookHandler(bookService, dev),
		Verifier:    authService,
		Limiter:     limiter,
		CORSOrigins: cfg.CORSOrigins,
		TrustProxy:  cfg.TrustProxy,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env, "db", cfg.DBDriver, "rate_limiter", cfg.RateLimitBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	slog.Info("server stopped")
	return nil
}

// newLimiter builds the configured rate limiter and whatever must be closed with it.
func newLimiter(ctx context.Context, cfg config.Config) (ratelimit.Limiter, io.Closer, error) {
	if cfg.RateLimitBackend == config.LimiterRedis {
		rdb, err := cache.NewClient(ctx, cache.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		return ratelimit.NewRedis(rdb, cfg.RateLimitMax, cfg.RateLimitWindow), rdb, nil
	}

	m := ratelimit.NewMemory(cfg.RateLimitMax, cfg.RateLimitWindow)
	return m, m, nil
}
