package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	// Match lifecycle events
	EventMatchCreated EventType = "match_created"
	EventMatchDeleted EventType = "match_deleted"

	// Scoring events
	EventPointsScored EventType = "points_scored"
	EventFoul         EventType = "foul"
	EventTurnEnded    EventType = "turn_ended"

	// Roster events
	EventPlayerAdded   EventType = "player_added"
	EventPlayerRemoved EventType = "player_removed"
	EventPlayerRenamed EventType = "player_renamed"

	// Frame events
	EventFrameReset    EventType = "frame_reset"
	EventFrameAdvanced EventType = "frame_advanced"
	EventMatchReset    EventType = "match_reset"

	// EventSnapshot is sent only to a new feed subscriber
	EventSnapshot EventType = "snapshot"
)

// Event is published to live feed subscribers after every successful mutation
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	MatchID   MatchID   `json:"match_id"`
	PlayerID  PlayerID  `json:"player_id,omitempty"` // The player who acted or is affected
	Payload   any       `json:"payload,omitempty"`   // Type-specific data
	Match     *Match    `json:"match,omitempty"`     // Snapshot after the change
}

// PointsPayload contains data for points scored events
type PointsPayload struct {
	Points       int `json:"points"`
	CurrentBreak int `json:"current_break"`
}

// FoulPayload contains data for foul events
type FoulPayload struct {
	Penalty  int              `json:"penalty"`
	Credited map[PlayerID]int `json:"credited"`
}

// TurnEndedPayload contains data for turn ended events
type TurnEndedPayload struct {
	NextPlayerID PlayerID `json:"next_player_id"`
}

// PlayerRenamedPayload contains data for player renamed events
type PlayerRenamedPayload struct {
	OldName string `json:"old_name"`
	NewName string `json:"new_name"`
}

// FrameAdvancedPayload contains data for frame advanced events
type FrameAdvancedPayload struct {
	Summary FrameSummary `json:"summary"`
}
