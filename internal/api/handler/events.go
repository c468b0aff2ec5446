package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/snookercounter/internal/api/apierr"
	"github.com/mcoot/snookercounter/internal/api/middleware"
	"github.com/mcoot/snookercounter/internal/dependencies/clock"
	"github.com/mcoot/snookercounter/internal/feed"
	"github.com/mcoot/snookercounter/internal/services/match"
)

// StreamRecorder tracks open live feed connections
type StreamRecorder interface {
	StreamOpened(transport string)
	StreamClosed(transport string)
}

// EventsHandler serves the live feed of a match
type EventsHandler struct {
	controller *match.Controller
	hubs       *feed.HubManager
	streams    StreamRecorder
	clock      clock.Clock
	logger     *slog.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(controller *match.Controller, hubs *feed.HubManager, streams StreamRecorder, clock clock.Clock, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		controller: controller,
		hubs:       hubs,
		streams:    streams,
		clock:      clock,
		logger:     logger,
	}
}

// SSE handles GET /api/v1/matches/{id}/events
func (h *EventsHandler) SSE(w http.ResponseWriter, r *http.Request) {
	hub, initial, ok := h.subscribe(w, r)
	if !ok {
		return
	}

	h.streams.StreamOpened(feed.TransportSSE)
	defer h.streams.StreamClosed(feed.TransportSSE)

	feed.ServeSSE(w, r, hub, middleware.MustGetUser(r.Context()).ID, initial)
}

// WebSocket handles GET /api/v1/matches/{id}/ws
func (h *EventsHandler) WebSocket(w http.ResponseWriter, r *http.Request) {
	hub, initial, ok := h.subscribe(w, r)
	if !ok {
		return
	}

	h.streams.StreamOpened(feed.TransportWebSocket)
	defer h.streams.StreamClosed(feed.TransportWebSocket)

	if err := feed.ServeWS(w, r, hub, middleware.MustGetUser(r.Context()).ID, initial); err != nil {
		h.logger.Debug("websocket feed ended",
			slog.String("match_id", string(matchID(r))),
			slog.String("error", err.Error()),
		)
	}
}

// subscribe checks access to the match and prepares its hub and the snapshot
// the subscriber starts from
func (h *EventsHandler) subscribe(w http.ResponseWriter, r *http.Request) (*feed.Hub, feed.Message, bool) {
	user := middleware.MustGetUser(r.Context())

	m, err := h.controller.GetMatch(r.Context(), user.ID, matchID(r))
	if err != nil {
		apierr.WriteError(w, err)
		return nil, feed.Message{}, false
	}

	initial, err := feed.SnapshotMessage(m, h.clock.Now())
	if err != nil {
		apierr.WriteError(w, err)
		return nil, feed.Message{}, false
	}

	return h.hubs.GetOrCreateHub(m.ID), initial, true
}
