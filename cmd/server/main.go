package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iudanet/fieldkeeper/internal/server"
	"github.com/iudanet/fieldkeeper/internal/server/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	defaults := server.DefaultConfig()

	// Parse flags
	showVersion := flag.Bool("version", false, "Show version information")
	addr := flag.String("addr", envOrDefault("FIELDKEEPER_ADDR", defaults.Addr), "HTTP listen address")
	dbPath := flag.String("db", envOrDefault("FIELDKEEPER_DB", "fieldkeeper-server.db"), "Path to server database")
	tokenTTL := flag.Duration("token-ttl", defaults.TokenTTL, "Access token lifetime")
	rateLimit := flag.Int("rate-limit", defaults.RateLimit, "Requests per client within the rate window")
	rateWindow := flag.Duration("rate-window", defaults.RateWindow, "Rate limit window")
	maxImage := flag.Int64("max-image", defaults.MaxImageSize, "Maximum uploaded image size in bytes")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	cfg := defaults
	cfg.Addr = *addr
	cfg.TokenTTL = *tokenTTL
	cfg.RateLimit = *rateLimit
	cfg.RateWindow = *rateWindow
	cfg.MaxImageSize = *maxImage
	cfg.Version = Version
	cfg.JWTSecret = []byte(os.Getenv("FIELDKEEPER_JWT_SECRET"))
	if len(cfg.JWTSecret) == 0 {
		// токены перестанут проходить проверку после перезапуска
		logger.Warn("FIELDKEEPER_JWT_SECRET is not set, using a random secret")
		cfg.JWTSecret = []byte(rand.Text())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *dbPath, logger); err != nil {
		logger.Error("Server stopped with error", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg server.Config, dbPath string, logger *slog.Logger) error {
	store, err := sqlite.New(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	srv, err := server.New(cfg, store, logger)
	if err != nil {
		return err
	}
	defer srv.Close()

	return srv.Run(ctx)
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func printVersion() {
	fmt.Printf("FieldKeeper Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
