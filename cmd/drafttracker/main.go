package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/jensholdgaard/draft-tracker/internal/api"
	"github.com/jensholdgaard/draft-tracker/internal/config"
	"github.com/jensholdgaard/draft-tracker/internal/draft"
	"github.com/jensholdgaard/draft-tracker/internal/health"
	"github.com/jensholdgaard/draft-tracker/internal/refdata"
	"github.com/jensholdgaard/draft-tracker/internal/store"
	"github.com/jensholdgaard/draft-tracker/internal/telemetry"

	// Register store drivers so they are available via store.Open.
	_ "github.com/jensholdgaard/draft-tracker/internal/store/file"
	_ "github.com/jensholdgaard/draft-tracker/internal/store/postgres"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := run(*configPath); err != nil {
		slog.Error("fatal error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(configPath string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration; a missing file means defaults (file driver,
	// ./data) so the tracker works out of the box on draft night.
	cfg, err := config.Load(configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading config: %w", err)
		}
		slog.Info("no config file, using defaults", slog.String("path", configPath))
		cfg = config.Default()
	}

	// Setup telemetry.
	tp, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		slog.Warn("telemetry setup failed, continuing without OTEL export", slog.Any("error", err))
		tp = telemetry.NewNopProvider()
	}
	defer func() {
		if shutdownErr := tp.Shutdown(context.Background()); shutdownErr != nil {
			slog.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	logger := tp.Logger
	clk := clockwork.NewRealClock()

	// Reference data: read-only catalogs from the data directory.
	catalog, err := refdata.Load(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("loading reference data: %w", err)
	}
	logger.InfoContext(ctx, "reference data loaded",
		slog.Int("players", len(catalog.PlayerIDs())),
		slog.Int("owners", len(catalog.OwnerIDs())),
	)

	// Open the store using the configured driver (file or postgres).
	repos, err := store.Open(ctx, cfg.Storage, clk)
	if err != nil {
		return fmt.Errorf("opening store (driver=%s): %w", cfg.Storage.Driver, err)
	}
	defer repos.Closer.Close()

	logger.InfoContext(ctx, "store opened", slog.String("driver", cfg.Storage.Driver))

	machine := draft.NewMachine(repos.States, repos.Actions, catalog, logger, tp.TracerProvider)

	hub := api.NewHub(logger)
	go hub.Run(ctx)
	machine.OnCommit(hub.Notify)

	healthHandler := health.NewHandler(clk,
		health.Checker{
			Name:  "store",
			Check: repos.Ping,
		},
	)

	apiHandler := api.NewHandler(machine, catalog, repos.Actions, hub, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.Routes(apiHandler, healthHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.InfoContext(ctx, "starting server",
			slog.Int("port", cfg.Server.Port),
			slog.String("version", version),
		)
		if listenErr := httpServer.ListenAndServe(); listenErr != nil && listenErr != http.ErrServerClosed {
			logger.ErrorContext(ctx, "server error", slog.Any("error", listenErr))
			cancel()
		}
	}()

	healthHandler.SetReady(true)
	logger.InfoContext(ctx, "draft tracker is running")

	// Wait for shutdown signal.
	<-ctx.Done()
	logger.Info("shutting down...")

	healthHandler.SetReady(false)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", slog.Any("error", err))
	}

	logger.Info("shutdown complete")
	return nil
}
