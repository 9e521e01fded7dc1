// Package server is the reference remote authority: it accepts violation
// uploads, serves the per-user and global lists and records offline logins.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/fieldkeeper/internal/crypto"
	"github.com/iudanet/fieldkeeper/internal/server/handlers"
	"github.com/iudanet/fieldkeeper/internal/server/jwt"
	"github.com/iudanet/fieldkeeper/internal/server/middleware"
	"github.com/iudanet/fieldkeeper/internal/server/storage"
)

// Config настраивает сервер
type Config struct {
	Addr            string
	JWTSecret       []byte
	Version         string
	HashParams      crypto.Params
	TokenTTL        time.Duration
	RateWindow      time.Duration
	ShutdownTimeout time.Duration
	MaxImageSize    int64
	RateLimit       int
}

// DefaultConfig возвращает настройки по умолчанию; JWTSecret нужно задать
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		Version:         "dev",
		HashParams:      crypto.DefaultParams(),
		TokenTTL:        24 * time.Hour,
		RateLimit:       120,
		RateWindow:      time.Minute,
		ShutdownTimeout: 10 * time.Second,
		MaxImageSize:    handlers.DefaultMaxImageSize,
	}
}

// Store объединяет хранилища, нужные серверу
type Store interface {
	storage.UserStorage
	storage.ReportStorage
	storage.LoginStorage
	handlers.Pinger
}

// Server связывает handlers, middleware и http.Server
type Server struct {
	logger  *slog.Logger
	limiter *middleware.RateLimiter
	handler http.Handler
	cfg     Config
}

// New creates a server. Call Close to release the rate limiter.
func New(cfg Config, store Store, logger *slog.Logger) (*Server, error) {
	if len(cfg.JWTSecret) == 0 {
		return nil, errors.New("jwt secret is required")
	}

	tokens := jwt.NewService(jwt.Config{Secret: cfg.JWTSecret, AccessTokenTTL: cfg.TokenTTL})
	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow, logger)

	authHandler := handlers.NewAuthHandler(logger, store, tokens, cfg.HashParams)
	violationHandler := handlers.NewViolationHandler(logger, store, cfg.MaxImageSize)
	loginHandler := handlers.NewLoginSyncHandler(logger, store)
	healthHandler := handlers.NewHealthHandler(logger, store, cfg.Version)

	auth := middleware.AuthMiddleware(logger, tokens)
	public := func(h http.HandlerFunc) http.Handler {
		return limiter.Middleware(h)
	}
	protected := func(h http.HandlerFunc) http.Handler {
		return auth(limiter.Middleware(h))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", healthHandler.Health)
	mux.Handle("POST /api/auth/register", public(authHandler.Register))
	mux.Handle("POST /api/auth/login", public(authHandler.Login))
	mux.Handle("POST /api/violations", protected(violationHandler.Create))
	mux.Handle("GET /api/violations/me", protected(violationHandler.ListMine))
	mux.Handle("GET /api/violations/all", public(violationHandler.ListAll))
	mux.Handle("DELETE /api/violations/{id}", protected(violationHandler.Delete))
	mux.Handle("GET /api/violations/{id}/image", public(violationHandler.Image))
	mux.Handle("POST /api/sync/logins", protected(loginHandler.SyncLogins))

	handler := middleware.RecoveryMiddleware(logger)(
		middleware.LoggingMiddleware(logger, "/api/health")(mux),
	)

	return &Server{
		cfg:     cfg,
		logger:  logger,
		limiter: limiter,
		handler: handler,
	}, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves HTTP on cfg.Addr until ctx is canceled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening", "addr", s.cfg.Addr, "version", s.cfg.Version)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// Close stops background goroutines
func (s *Server) Close() {
	s.limiter.Stop()
}
