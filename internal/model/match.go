package model

import "time"

// MatchID uniquely identifies a match
type MatchID string

// FoulPolicy decides how a foul penalty is credited to the offender's opponents
type FoulPolicy string

const (
	FoulPolicyFullToEach FoulPolicy = "each"  // Every opponent receives the full penalty
	FoulPolicySplit      FoulPolicy = "split" // Opponents share the penalty
)

// DefaultFoulPolicy matches the usual scoreboard convention
const DefaultFoulPolicy = FoulPolicyFullToEach

// Valid reports whether p is a known policy
func (p FoulPolicy) Valid() bool {
	return p == FoulPolicyFullToEach || p == FoulPolicySplit
}

// Match is the aggregate root for one scoring session: a roster, a turn pointer
// and the frame counter
type Match struct {
	ID      MatchID `json:"id"`
	Number  int     `json:"number"`
	OwnerID UserID  `json:"owner_id"`

	// Rotation order is roster order
	Players            []Player `json:"players"`
	CurrentPlayerIndex int      `json:"current_player_index"`
	FrameNumber        int      `json:"frame_number"`

	FoulPolicy    FoulPolicy `json:"foul_policy"`
	NextPlayerSeq int        `json:"next_player_seq"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CurrentPlayer returns the player holding the turn, or nil for an empty roster
func (m *Match) CurrentPlayer() *Player {
	if m.CurrentPlayerIndex < 0 || m.CurrentPlayerIndex >= len(m.Players) {
		return nil
	}
	return &m.Players[m.CurrentPlayerIndex]
}

// PlayerIndex returns the roster index of the player, or -1
func (m *Match) PlayerIndex(id PlayerID) int {
	for i := range m.Players {
		if m.Players[i].ID == id {
			return i
		}
	}
	return -1
}

// GetPlayer returns the player with the given id, or nil if not found
func (m *Match) GetPlayer(id PlayerID) *Player {
	if i := m.PlayerIndex(id); i >= 0 {
		return &m.Players[i]
	}
	return nil
}

// Clone returns a deep copy of the match
func (m *Match) Clone() *Match {
	c := *m
	if m.Players != nil {
		c.Players = make([]Player, len(m.Players))
		copy(c.Players, m.Players)
	}
	return &c
}

// PlayerResult is one player's line in a frame summary
type PlayerResult struct {
	PlayerID     PlayerID `json:"player_id"`
	Name         string   `json:"name"`
	Score        int      `json:"score"`
	HighestBreak int      `json:"highest_break"`
}

// FrameSummary is a record of a frame at the moment it was advanced
type FrameSummary struct {
	MatchID     MatchID        `json:"match_id"`
	FrameNumber int            `json:"frame_number"`
	Results     []PlayerResult `json:"results"`
	Leader      PlayerID       `json:"leader,omitempty"` // Empty if tied
	CompletedAt time.Time      `json:"completed_at"`
}
