package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iudanet/fieldkeeper/internal/client/api"
	"github.com/iudanet/fieldkeeper/internal/client/auth"
	"github.com/iudanet/fieldkeeper/internal/client/cli"
	"github.com/iudanet/fieldkeeper/internal/client/data"
	"github.com/iudanet/fieldkeeper/internal/client/iocli"
	"github.com/iudanet/fieldkeeper/internal/client/storage/boltdb"
	"github.com/iudanet/fieldkeeper/internal/client/storage/sqlite"
	"github.com/iudanet/fieldkeeper/internal/client/sync"
	"github.com/iudanet/fieldkeeper/internal/crypto"
	"github.com/iudanet/fieldkeeper/internal/imagecodec"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Глобальные флаги
	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", envOrDefault("FIELDKEEPER_SERVER", "http://localhost:8080/api"), "Server API URL")
	dbPath := flag.String("db", "fieldkeeper.db", "Path to local violations database")
	kvPath := flag.String("kv", "fieldkeeper-kv.db", "Path to session and sync state database")
	scratchDir := flag.String("scratch", os.TempDir(), "Directory for temporary upload files")
	interval := flag.Duration("interval", time.Minute, "Background sync interval for the watch command")
	logLevel := flag.String("log-level", "warn", "Log level (debug, info, warn, error)")

	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	stdio := iocli.NewStdio()

	// Получаем команду
	args := flag.Args()
	if len(args) == 0 {
		cli.PrintUsage(stdio)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(*logLevel),
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := 0
	if err := run(ctx, stdio, logger, config{
		serverURL:  *serverURL,
		dbPath:     *dbPath,
		kvPath:     *kvPath,
		scratchDir: *scratchDir,
		interval:   *interval,
	}, args[0], args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		code = 1
	}

	stop()
	os.Exit(code)
}

type config struct {
	serverURL  string
	dbPath     string
	kvPath     string
	scratchDir string
	interval   time.Duration
}

func run(ctx context.Context, stdio iocli.IO, logger *slog.Logger, cfg config, command string, args []string) error {
	// Открываем SQLite с записями
	violations, err := sqlite.New(ctx, cfg.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := violations.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	// Открываем BoltDB со служебным состоянием
	kv, err := boltdb.New(ctx, cfg.kvPath)
	if err != nil {
		return fmt.Errorf("failed to open state database: %w", err)
	}
	defer func() {
		if err := kv.Close(); err != nil {
			logger.Error("failed to close state database", "error", err)
		}
	}()

	codec := imagecodec.New(imagecodec.DefaultOptions())
	apiClient := api.NewClient(cfg.serverURL)

	vault := auth.NewVault(kv, crypto.DefaultParams())
	authService := auth.NewService(apiClient, vault, kv, kv, logger)

	reconciler := sync.NewReconciler(apiClient, kv, logger, sync.ReconcilerConfig{})
	engine := sync.NewEngine(sync.Deps{
		API:        apiClient,
		Violations: violations,
		RemoteView: kv,
		Metadata:   kv,
		Logins:     kv,
		Reconciler: reconciler,
		Codec:      codec,
		Tokens:     authService,
		Logger:     logger,
	}, sync.Config{ScratchDir: cfg.scratchDir, Interval: cfg.interval})
	runner := sync.NewRunner(engine, cfg.interval, logger)

	dataService := data.NewService(data.Deps{
		Violations: violations,
		RemoteView: kv,
		Codec:      codec,
		Uploader:   engine,
		Deletions:  reconciler,
		Sessions:   authService,
		Logger:     logger,
		Trigger:    runner.Trigger,
		ServerURL:  cfg.serverURL,
	})

	app := cli.New(stdio, authService, dataService, engine).WithRunner(runner)
	return app.Run(ctx, command, args)
}

func parseLogLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelWarn
	}
	return level
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func printVersion() {
	fmt.Printf("FieldKeeper Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
