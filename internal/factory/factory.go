package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/snookercounter/internal/config"
	"github.com/mcoot/snookercounter/internal/dependencies/clock"
	"github.com/mcoot/snookercounter/internal/dependencies/random"
	"github.com/mcoot/snookercounter/internal/feed"
	"github.com/mcoot/snookercounter/internal/metrics"
	"github.com/mcoot/snookercounter/internal/model"
	"github.com/mcoot/snookercounter/internal/services/auth"
	"github.com/mcoot/snookercounter/internal/services/match"
	"github.com/mcoot/snookercounter/internal/storage"
	"github.com/mcoot/snookercounter/internal/storage/memory"
	"github.com/mcoot/snookercounter/internal/storage/postgres"
	redisstorage "github.com/mcoot/snookercounter/internal/storage/redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage     storage.Storage
	StorageType string

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	AuthService     *auth.Service
	MatchController *match.Controller
	HubManager      *feed.HubManager
	Metrics         *metrics.Metrics

	Logger *slog.Logger

	closers []io.Closer
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	// Use no-op logger if not provided
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var (
		store   storage.Storage
		closers []io.Closer
	)
	switch cfg.Storage.Type {
	case config.StorageMemory, "":
		store = memory.New()
	case config.StorageRedis:
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.Storage.RedisURL
		redisStore, err := redisstorage.New(redisCfg)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		store = redisStore
		closers = append(closers, redisStore)
	case config.StoragePostgres:
		pgCfg := postgres.DefaultConfig()
		pgCfg.URL = cfg.Storage.DatabaseURL
		pgStore, err := postgres.New(ctx, pgCfg)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		store = pgStore
		closers = append(closers, pgStore)
	default:
		return nil, fmt.Errorf("invalid storage type %q", cfg.Storage.Type)
	}

	authCfg := auth.Config{
		SessionDuration: cfg.Auth.SessionDuration,
		Secret:          cfg.Auth.JWTSecret,
	}
	matchCfg := match.Config{
		DefaultFoulPolicy: model.FoulPolicy(cfg.Match.FoulPolicy),
	}

	app := newWithDependencies(store, clock.New(), random.New(), authCfg, matchCfg, logger)
	app.StorageType = cfg.Storage.Type
	if app.StorageType == "" {
		app.StorageType = config.StorageMemory
	}
	app.closers = closers
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	authCfg auth.Config,
	matchCfg match.Config,
	logger *slog.Logger,
) *App {
	m := metrics.New()
	hubManager := feed.NewHubManager(logger)
	authService := auth.New(store, clk, authCfg)
	matchController := match.NewController(store, hubManager, m, clk, rnd, logger, matchCfg)

	return &App{
		Storage:         store,
		StorageType:     config.StorageMemory,
		Clock:           clk,
		Random:          rnd,
		AuthService:     authService,
		MatchController: matchController,
		HubManager:      hubManager,
		Metrics:         m,
		Logger:          logger,
	}
}

// Close shuts down live feeds and releases storage connections
func (a *App) Close() error {
	a.HubManager.Close()

	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
