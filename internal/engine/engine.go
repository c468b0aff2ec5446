// Package engine implements the snooker turn and scoring state machine.
//
// The engine is a set of pure functions over *model.Match. It performs no I/O
// and no locking: callers that share a match between goroutines must serialise
// access themselves (see services/match). Every operation validates the match
// and its arguments before touching any field, so a rejected call leaves the
// match exactly as it was.
package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/mcoot/snookercounter/internal/model"
)

// NewMatch builds a match at frame 1 with the turn on the first player.
// Player ids are minted in roster order.
func NewMatch(names []string, policy model.FoulPolicy) (*model.Match, error) {
	if len(names) == 0 {
		return nil, model.ErrEmptyRoster
	}
	if policy == "" {
		policy = model.DefaultFoulPolicy
	}
	if !policy.Valid() {
		return nil, model.ErrUnknownFoulPolicy
	}

	trimmed := make([]string, len(names))
	for i, name := range names {
		trimmed[i] = strings.TrimSpace(name)
		if trimmed[i] == "" {
			return nil, model.ErrBlankName
		}
	}

	m := &model.Match{
		Players:     make([]model.Player, 0, len(names)),
		FrameNumber: 1,
		FoulPolicy:  policy,
	}
	for _, name := range trimmed {
		m.Players = append(m.Players, model.Player{ID: mintPlayerID(m), Name: name})
	}
	return m, nil
}

// Validate checks that a loaded match satisfies the data model invariants
func Validate(m *model.Match) error {
	if m == nil {
		return fmt.Errorf("%w: nil match", model.ErrCorruptMatch)
	}
	if len(m.Players) == 0 {
		return fmt.Errorf("%w: empty roster", model.ErrCorruptMatch)
	}
	if m.CurrentPlayerIndex < 0 || m.CurrentPlayerIndex >= len(m.Players) {
		return fmt.Errorf("%w: turn index %d out of range", model.ErrCorruptMatch, m.CurrentPlayerIndex)
	}
	if m.FrameNumber < 1 {
		return fmt.Errorf("%w: frame number %d", model.ErrCorruptMatch, m.FrameNumber)
	}
	if !m.FoulPolicy.Valid() {
		return fmt.Errorf("%w: foul policy %q", model.ErrCorruptMatch, m.FoulPolicy)
	}

	seen := make(map[model.PlayerID]bool, len(m.Players))
	for _, p := range m.Players {
		if seen[p.ID] {
			return fmt.Errorf("%w: duplicate player id %s", model.ErrCorruptMatch, p.ID)
		}
		seen[p.ID] = true
		if p.Score < 0 || p.CurrentBreak < 0 || p.HighestBreak < 0 {
			return fmt.Errorf("%w: negative score for player %s", model.ErrCorruptMatch, p.ID)
		}
	}
	return nil
}

// CurrentPlayer returns the player whose turn it is
func CurrentPlayer(m *model.Match) (*model.Player, error) {
	if err := Validate(m); err != nil {
		return nil, err
	}
	return m.CurrentPlayer(), nil
}

// ApplyPoints credits a legal pot to the current player's score and break
func ApplyPoints(m *model.Match, points int) error {
	if err := Validate(m); err != nil {
		return err
	}
	if points <= 0 {
		return model.ErrNonPositivePoints
	}

	p := m.CurrentPlayer()
	if !canAdd(p.Score, points) || !canAdd(p.CurrentBreak, points) {
		return model.ErrScoreOverflow
	}
	p.Score += points
	p.CurrentBreak += points
	p.HighestBreak = max(p.HighestBreak, p.CurrentBreak)
	return nil
}

// ApplyFoul ends the current player's break and credits the penalty magnitude
// to the other players according to the match's foul policy. The offender's
// score is left alone and the turn does not move. It returns the points
// credited to each opponent.
func ApplyFoul(m *model.Match, penalty int) (map[model.PlayerID]int, error) {
	if err := Validate(m); err != nil {
		return nil, err
	}
	magnitude := -penalty
	if magnitude < model.MinFoulPenalty || magnitude > model.MaxFoulPenalty {
		return nil, model.ErrInvalidPenalty
	}

	credits := distributePenalty(m, magnitude)
	for _, p := range m.Players {
		if !canAdd(p.Score, credits[p.ID]) {
			return nil, model.ErrScoreOverflow
		}
	}

	m.CurrentPlayer().CurrentBreak = 0
	for i := range m.Players {
		m.Players[i].Score += credits[m.Players[i].ID]
	}
	return credits, nil
}

// distributePenalty works out each opponent's share of a foul penalty.
// Opponents are visited in rotation order starting after the offender, which
// is also the order split remainders are handed out in.
func distributePenalty(m *model.Match, magnitude int) map[model.PlayerID]int {
	n := len(m.Players)
	credits := make(map[model.PlayerID]int, n-1)
	opponents := n - 1
	if opponents == 0 {
		return credits
	}

	share, remainder := magnitude, 0
	if m.FoulPolicy == model.FoulPolicySplit {
		share, remainder = magnitude/opponents, magnitude%opponents
	}

	for step := 1; step < n; step++ {
		p := m.Players[(m.CurrentPlayerIndex+step)%n]
		credit := share
		if remainder > 0 {
			credit++
			remainder--
		}
		if credit > 0 {
			credits[p.ID] = credit
		}
	}
	return credits
}

// canAdd reports whether n+points stays within int. Both are non-negative.
func canAdd(n, points int) bool {
	return points <= math.MaxInt-n
}

// EndTurn closes the current player's break and passes the turn on
func EndTurn(m *model.Match) error {
	if err := Validate(m); err != nil {
		return err
	}
	m.CurrentPlayer().CurrentBreak = 0
	m.CurrentPlayerIndex = (m.CurrentPlayerIndex + 1) % len(m.Players)
	return nil
}

// ResetFrame zeroes every player's score and breaks and gives the turn to the
// first player in the roster, whoever started the previous frame
func ResetFrame(m *model.Match) error {
	if err := Validate(m); err != nil {
		return err
	}
	resetScores(m)
	return nil
}

// AdvanceFrame resets the frame and moves on to the next frame number
func AdvanceFrame(m *model.Match) error {
	if err := Validate(m); err != nil {
		return err
	}
	resetScores(m)
	m.FrameNumber++
	return nil
}

// ResetMatch resets the frame and starts counting frames from 1 again.
// The roster is kept.
func ResetMatch(m *model.Match) error {
	if err := Validate(m); err != nil {
		return err
	}
	resetScores(m)
	m.FrameNumber = 1
	return nil
}

func resetScores(m *model.Match) {
	for i := range m.Players {
		m.Players[i].Score = 0
		m.Players[i].CurrentBreak = 0
		m.Players[i].HighestBreak = 0
	}
	m.CurrentPlayerIndex = 0
}
