package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/snookercounter/internal/api/handler"
	"github.com/mcoot/snookercounter/internal/api/middleware"
	"github.com/mcoot/snookercounter/internal/api/response"
	"github.com/mcoot/snookercounter/internal/dependencies/clock"
	"github.com/mcoot/snookercounter/internal/feed"
	"github.com/mcoot/snookercounter/internal/metrics"
	basemw "github.com/mcoot/snookercounter/internal/middleware"
	"github.com/mcoot/snookercounter/internal/services/auth"
	"github.com/mcoot/snookercounter/internal/services/match"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger          *slog.Logger
	AuthService     *auth.Service
	MatchController *match.Controller
	HubManager      *feed.HubManager
	Metrics         *metrics.Metrics
	Clock           clock.Clock
	StorageType     string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = middleware.NotFound()
	r.MethodNotAllowedHandler = middleware.MethodNotAllowed()

	// Create handlers
	playerHandler := handler.NewPlayerHandler(cfg.AuthService)
	matchHandler := handler.NewMatchHandler(cfg.MatchController)
	eventsHandler := handler.NewEventsHandler(cfg.MatchController, cfg.HubManager, cfg.Metrics, cfg.Clock, cfg.Logger)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)
	loggingMiddleware := basemw.Logging(cfg.Logger)
	metricsMiddleware := basemw.Metrics(cfg.Metrics)

	health := healthHandler(cfg.StorageType)
	r.Handle("/metrics", cfg.Metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/health", health).Methods(http.MethodGet)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)
	api.Use(metricsMiddleware)

	// Player routes (no auth required for creating players/logging in)
	api.HandleFunc("/players/guest", playerHandler.CreateGuest).Methods(http.MethodPost)
	api.HandleFunc("/players/register", playerHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/players/login", playerHandler.Login).Methods(http.MethodPost)

	// Protected player routes
	playerProtected := api.PathPrefix("/players").Subrouter()
	playerProtected.Use(authMiddleware)
	playerProtected.HandleFunc("/me", playerHandler.GetMe).Methods(http.MethodGet)
	playerProtected.HandleFunc("/logout", playerHandler.Logout).Methods(http.MethodPost)

	// Match routes (all require auth)
	matches := api.PathPrefix("/matches").Subrouter()
	matches.Use(authMiddleware)
	matches.HandleFunc("", matchHandler.Create).Methods(http.MethodPost)
	matches.HandleFunc("", matchHandler.List).Methods(http.MethodGet)
	matches.HandleFunc("/by-number/{number:[0-9]+}", matchHandler.GetByNumber).Methods(http.MethodGet)
	matches.HandleFunc("/{id}", matchHandler.Get).Methods(http.MethodGet)
	matches.HandleFunc("/{id}", matchHandler.Delete).Methods(http.MethodDelete)
	matches.HandleFunc("/{id}/history", matchHandler.History).Methods(http.MethodGet)

	// Scoring
	matches.HandleFunc("/{id}/pot", matchHandler.Pot).Methods(http.MethodPost)
	matches.HandleFunc("/{id}/foul", matchHandler.Foul).Methods(http.MethodPost)
	matches.HandleFunc("/{id}/end-turn", matchHandler.EndTurn).Methods(http.MethodPost)

	// Roster
	matches.HandleFunc("/{id}/players", matchHandler.AddPlayer).Methods(http.MethodPost)
	matches.HandleFunc("/{id}/players/{player_id}", matchHandler.RenamePlayer).Methods(http.MethodPatch)
	matches.HandleFunc("/{id}/players/{player_id}", matchHandler.RemovePlayer).Methods(http.MethodDelete)

	// Frames
	matches.HandleFunc("/{id}/reset-frame", matchHandler.ResetFrame).Methods(http.MethodPost)
	matches.HandleFunc("/{id}/next-frame", matchHandler.NextFrame).Methods(http.MethodPost)
	matches.HandleFunc("/{id}/reset", matchHandler.Reset).Methods(http.MethodPost)

	// Live feed
	matches.HandleFunc("/{id}/events", eventsHandler.SSE).Methods(http.MethodGet)
	matches.HandleFunc("/{id}/ws", eventsHandler.WebSocket).Methods(http.MethodGet)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", health).Methods(http.MethodGet)

	return r
}

func healthHandler(storageType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, response.Health{Status: "ok", Storage: storageType})
	}
}
