package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcoot/snookercounter/internal/api"
	"github.com/mcoot/snookercounter/internal/config"
	"github.com/mcoot/snookercounter/internal/factory"
	"github.com/mcoot/snookercounter/internal/logger"
)

// How often revoked sessions and idle feed hubs are swept
const housekeepingInterval = 5 * time.Minute

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"), ".env")
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	slog.SetDefault(log)

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := factory.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error("failed to release storage", slog.String("error", err.Error()))
		}
	}()

	router := api.NewRouter(api.RouterConfig{
		Logger:          log,
		AuthService:     app.AuthService,
		MatchController: app.MatchController,
		HubManager:      app.HubManager,
		Metrics:         app.Metrics,
		Clock:           app.Clock,
		StorageType:     app.StorageType,
	})

	server := api.NewServer(router, api.ServerConfigFrom(cfg.HTTP), log)

	go housekeeping(ctx, app)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	log.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", app.StorageType),
		slog.String("foul_policy", cfg.Match.FoulPolicy),
	)

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			log.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	log.Info("server stopped")
}

func housekeeping(ctx context.Context, app *factory.App) {
	ticker := time.NewTicker(housekeepingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			app.AuthService.CleanExpiredSessions()
			app.HubManager.CleanupEmptyHubs()
		case <-ctx.Done():
			return
		}
	}
}
