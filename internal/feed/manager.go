package feed

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/snookercounter/internal/model"
)

// HubManager owns the hubs of all matches and publishes events to them
type HubManager struct {
	hubs   map[model.MatchID]*Hub
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewHubManager creates a new HubManager
func NewHubManager(logger *slog.Logger) *HubManager {
	return &HubManager{
		hubs:   make(map[model.MatchID]*Hub),
		logger: logger.With(slog.String("component", "feed")),
	}
}

// GetOrCreateHub returns the hub for a match, creating one if it doesn't exist
func (m *HubManager) GetOrCreateHub(matchID model.MatchID) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[matchID]; ok {
		return hub
	}

	hub := NewHub(matchID, m.logger)
	m.hubs[matchID] = hub
	go hub.Run()
	return hub
}

// GetHub returns the hub for a match, or nil if nobody is subscribed
func (m *HubManager) GetHub(matchID model.MatchID) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[matchID]
}

// RemoveHub removes and closes a hub
func (m *HubManager) RemoveHub(matchID model.MatchID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[matchID]; ok {
		hub.Close()
		delete(m.hubs, matchID)
		m.logger.Info("feed hub removed", slog.String("match_id", string(matchID)))
	}
}

// CleanupEmptyHubs removes hubs with no clients
func (m *HubManager) CleanupEmptyHubs() {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, hub := range m.hubs {
		if hub.ClientCount() == 0 {
			hub.Close()
			delete(m.hubs, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("feed empty hubs cleaned up", slog.Int("removed", removed))
	}
}

// Close shuts down every hub
func (m *HubManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, hub := range m.hubs {
		hub.Close()
		delete(m.hubs, id)
	}
}

// Publish sends an event to the match's subscribers, if it has any.
// A deleted match also loses its hub once the event has gone out.
func (m *HubManager) Publish(event model.Event) {
	hub := m.GetHub(event.MatchID)
	if hub == nil {
		return
	}

	message, err := encode(event)
	if err != nil {
		m.logger.Error("feed failed to encode event",
			slog.String("match_id", string(event.MatchID)),
			slog.String("event", string(event.Type)),
			slog.Any("error", err))
		return
	}

	if !message.final {
		hub.Broadcast(message)
		return
	}

	// The hub shuts itself down once the last event is delivered
	m.forget(event.MatchID, hub)
	if !hub.Broadcast(message) {
		hub.Close()
	}
}

// SnapshotMessage encodes the current state of a match for a new subscriber
func SnapshotMessage(match *model.Match, at time.Time) (Message, error) {
	return encode(model.Event{
		Type:      model.EventSnapshot,
		Timestamp: at,
		MatchID:   match.ID,
		Match:     match,
	})
}

func encode(event model.Event) (Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return Message{}, err
	}
	return Message{
		Event: string(event.Type),
		Data:  data,
		final: event.Type == model.EventMatchDeleted,
	}, nil
}

// forget drops a hub from the map without closing it
func (m *HubManager) forget(matchID model.MatchID, hub *Hub) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hubs[matchID] == hub {
		delete(m.hubs, matchID)
	}
}
