package response

import (
	"time"

	"github.com/mcoot/snookercounter/internal/model"
	"github.com/mcoot/snookercounter/internal/services/auth"
)

// User represents an account in API responses
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsGuest     bool   `json:"is_guest"`
}

// UserFromModel converts a model.User to a response User
func UserFromModel(u *model.User) User {
	return User{
		ID:          string(u.ID),
		DisplayName: u.DisplayName,
		IsGuest:     u.IsGuest,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	User         User      `json:"user"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		User:         UserFromModel(&s.User),
		SessionToken: s.Token,
		ExpiresAt:    s.ExpiresAt,
	}
}

// Player represents a contestant on the scoreboard
type Player struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Score        int    `json:"score"`
	CurrentBreak int    `json:"current_break"`
	HighestBreak int    `json:"highest_break"`
	AtTable      bool   `json:"at_table"`
}

// Match represents a match scoreboard
type Match struct {
	ID              string    `json:"id"`
	Number          int       `json:"number"`
	FrameNumber     int       `json:"frame_number"`
	FoulPolicy      string    `json:"foul_policy"`
	CurrentPlayerID string    `json:"current_player_id"`
	Players         []Player  `json:"players"`
	Version         int64     `json:"version"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// MatchFromModel converts a model.Match to a response Match
func MatchFromModel(m *model.Match) Match {
	players := make([]Player, len(m.Players))
	for i, p := range m.Players {
		players[i] = Player{
			ID:           string(p.ID),
			Name:         p.Name,
			Score:        p.Score,
			CurrentBreak: p.CurrentBreak,
			HighestBreak: p.HighestBreak,
			AtTable:      i == m.CurrentPlayerIndex,
		}
	}

	var current string
	if p := m.CurrentPlayer(); p != nil {
		current = string(p.ID)
	}

	return Match{
		ID:              string(m.ID),
		Number:          m.Number,
		FrameNumber:     m.FrameNumber,
		FoulPolicy:      string(m.FoulPolicy),
		CurrentPlayerID: current,
		Players:         players,
		Version:         m.Version,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// MatchList is the response for listing matches
type MatchList struct {
	Matches []Match `json:"matches"`
}

// MatchListFromModels converts a slice of matches
func MatchListFromModels(matches []*model.Match) MatchList {
	list := MatchList{Matches: make([]Match, len(matches))}
	for i, m := range matches {
		list.Matches[i] = MatchFromModel(m)
	}
	return list
}

// FrameResult is one player's line in a completed frame
type FrameResult struct {
	PlayerID     string `json:"player_id"`
	Name         string `json:"name"`
	Score        int    `json:"score"`
	HighestBreak int    `json:"highest_break"`
}

// Frame is a completed frame
type Frame struct {
	FrameNumber int           `json:"frame_number"`
	Results     []FrameResult `json:"results"`
	Winner      *string       `json:"winner"`
	CompletedAt time.Time     `json:"completed_at"`
}

// FrameHistory is the response for a match's completed frames
type FrameHistory struct {
	MatchID string  `json:"match_id"`
	Frames  []Frame `json:"frames"`
}

// FrameHistoryFromModels converts frame summaries, oldest first
func FrameHistoryFromModels(matchID model.MatchID, summaries []*model.FrameSummary) FrameHistory {
	history := FrameHistory{MatchID: string(matchID), Frames: make([]Frame, len(summaries))}
	for i, s := range summaries {
		frame := Frame{
			FrameNumber: s.FrameNumber,
			Results:     make([]FrameResult, len(s.Results)),
			CompletedAt: s.CompletedAt,
		}
		for j, r := range s.Results {
			frame.Results[j] = FrameResult{
				PlayerID:     string(r.PlayerID),
				Name:         r.Name,
				Score:        r.Score,
				HighestBreak: r.HighestBreak,
			}
		}
		if s.Leader != "" {
			winner := string(s.Leader)
			frame.Winner = &winner
		}
		history.Frames[i] = frame
	}
	return history
}
