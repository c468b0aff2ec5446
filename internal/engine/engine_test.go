package engine

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/snookercounter/internal/model"
)

func newMatch(t *testing.T, policy model.FoulPolicy, names ...string) *model.Match {
	t.Helper()
	m, err := NewMatch(names, policy)
	require.NoError(t, err)
	return m
}

func scores(m *model.Match) []int {
	out := make([]int, len(m.Players))
	for i, p := range m.Players {
		out[i] = p.Score
	}
	return out
}

// NewMatch tests

func TestNewMatch(t *testing.T) {
	m := newMatch(t, "", "Ronnie", " Judd ")

	assert.Equal(t, 1, m.FrameNumber)
	assert.Equal(t, 0, m.CurrentPlayerIndex)
	assert.Equal(t, model.DefaultFoulPolicy, m.FoulPolicy)
	require.Len(t, m.Players, 2)
	assert.Equal(t, model.PlayerID("p1"), m.Players[0].ID)
	assert.Equal(t, model.PlayerID("p2"), m.Players[1].ID)
	assert.Equal(t, "Judd", m.Players[1].Name)
	assert.Equal(t, 2, m.NextPlayerSeq)
}

func TestNewMatchSinglePlayer(t *testing.T) {
	m := newMatch(t, model.FoulPolicySplit, "Solo")
	assert.Len(t, m.Players, 1)
	assert.NoError(t, Validate(m))
}

func TestNewMatchErrors(t *testing.T) {
	tests := []struct {
		name   string
		names  []string
		policy model.FoulPolicy
		err    error
		kind   error
	}{
		{"empty roster", nil, "", model.ErrEmptyRoster, model.ErrInvariantViolation},
		{"blank name", []string{"A", "  "}, "", model.ErrBlankName, model.ErrInvalidArgument},
		{"unknown policy", []string{"A"}, "winner-takes-all", model.ErrUnknownFoulPolicy, model.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMatch(tt.names, tt.policy)
			assert.Nil(t, m)
			assert.ErrorIs(t, err, tt.err)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

// ApplyPoints tests

func TestApplyPointsAccumulatesScoreAndBreak(t *testing.T) {
	m := newMatch(t, "", "A", "B")

	for _, pts := range []int{1, 7, 1, 7} {
		require.NoError(t, ApplyPoints(m, pts))
	}

	a := m.Players[0]
	assert.Equal(t, 16, a.Score)
	assert.Equal(t, 16, a.CurrentBreak)
	assert.Equal(t, 16, a.HighestBreak)
	assert.Equal(t, 0, m.CurrentPlayerIndex)
	assert.Equal(t, 0, m.Players[1].Score)
}

func TestApplyPointsRejectsNonPositive(t *testing.T) {
	for _, pts := range []int{0, -1, -7} {
		m := newMatch(t, "", "A", "B")
		before := m.Clone()

		err := ApplyPoints(m, pts)
		assert.ErrorIs(t, err, model.ErrNonPositivePoints)
		assert.ErrorIs(t, err, model.ErrInvalidArgument)
		assert.Equal(t, before, m)
	}
}

func TestApplyPointsRejectsOverflow(t *testing.T) {
	m := newMatch(t, "", "A", "B")
	require.NoError(t, ApplyPoints(m, math.MaxInt))
	before := m.Clone()

	err := ApplyPoints(m, 1)
	assert.ErrorIs(t, err, model.ErrScoreOverflow)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
	assert.Equal(t, before, m)

	// The match stays usable
	require.NoError(t, EndTurn(m))
	require.NoError(t, ResetFrame(m))
	assert.Equal(t, []int{0, 0}, scores(m))
}

func TestApplyFoulRejectsOverflowingCredit(t *testing.T) {
	m := newMatch(t, "", "A", "B")
	require.NoError(t, ApplyPoints(m, math.MaxInt-3))
	require.NoError(t, EndTurn(m))
	require.NoError(t, ApplyPoints(m, 6))
	before := m.Clone()

	_, err := ApplyFoul(m, -4)
	assert.ErrorIs(t, err, model.ErrScoreOverflow)
	assert.Equal(t, before, m)

	// Exactly enough room is fine
	m.Players[0].Score = math.MaxInt - 4
	_, err = ApplyFoul(m, -4)
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, m.Players[0].Score)
	assert.Zero(t, m.Players[1].CurrentBreak)
}

func TestHighestBreakNeverDecreases(t *testing.T) {
	m := newMatch(t, "", "A", "B")

	// A: break of 12, then B: 3, then A: break of 5
	require.NoError(t, ApplyPoints(m, 5))
	require.NoError(t, ApplyPoints(m, 7))
	require.NoError(t, EndTurn(m))
	require.NoError(t, ApplyPoints(m, 3))
	require.NoError(t, EndTurn(m))
	require.NoError(t, ApplyPoints(m, 5))

	a := m.Players[0]
	assert.Equal(t, 17, a.Score)
	assert.Equal(t, 5, a.CurrentBreak)
	assert.Equal(t, 12, a.HighestBreak)
	assert.Equal(t, 3, m.Players[1].HighestBreak)
}

func TestScoreEqualsSumOfPoints(t *testing.T) {
	m := newMatch(t, "", "A", "B", "C")
	sums := make([]int, 3)
	highest := make([]int, 3)

	seq := []int{1, 5, 1, 6, 0, 1, 7, 0, 2, 3, 4, 5, 6, 7, 0, 0, 1}
	for _, pts := range seq {
		if pts == 0 {
			require.NoError(t, EndTurn(m))
			continue
		}
		idx := m.CurrentPlayerIndex
		require.NoError(t, ApplyPoints(m, pts))
		sums[idx] += pts
		highest[idx] = max(highest[idx], m.Players[idx].CurrentBreak)
	}

	for i, p := range m.Players {
		assert.Equal(t, sums[i], p.Score, "player %s", p.ID)
		assert.Equal(t, highest[i], p.HighestBreak, "player %s", p.ID)
	}
}

// ApplyFoul tests

func TestFoulScenarioTwoPlayers(t *testing.T) {
	m := newMatch(t, model.FoulPolicyFullToEach, "P1", "P2")

	require.NoError(t, ApplyPoints(m, 7))
	p1 := m.Players[0]
	assert.Equal(t, 7, p1.Score)
	assert.Equal(t, 7, p1.CurrentBreak)
	assert.Equal(t, 7, p1.HighestBreak)

	require.NoError(t, EndTurn(m))
	assert.Equal(t, 0, m.Players[0].CurrentBreak)
	assert.Equal(t, 1, m.CurrentPlayerIndex)

	credits, err := ApplyFoul(m, -4)
	require.NoError(t, err)
	assert.Equal(t, map[model.PlayerID]int{"p1": 4}, credits)

	assert.Equal(t, 11, m.Players[0].Score)
	assert.Equal(t, 0, m.Players[1].Score)
	assert.Equal(t, 0, m.Players[1].CurrentBreak)
	assert.Equal(t, 1, m.CurrentPlayerIndex, "a foul does not rotate the turn")
}

func TestFoulEndsBreakButKeepsOffenderScore(t *testing.T) {
	m := newMatch(t, "", "A", "B")
	require.NoError(t, ApplyPoints(m, 10))

	_, err := ApplyFoul(m, -7)
	require.NoError(t, err)

	a := m.Players[0]
	assert.Equal(t, 10, a.Score)
	assert.Equal(t, 0, a.CurrentBreak)
	assert.Equal(t, 10, a.HighestBreak)
	assert.Equal(t, 7, m.Players[1].Score)
}

func TestFoulOnZeroScoreNeverGoesNegative(t *testing.T) {
	m := newMatch(t, "", "A", "B")

	for range 5 {
		_, err := ApplyFoul(m, -7)
		require.NoError(t, err)
	}

	assert.Equal(t, []int{0, 35}, scores(m))
}

func TestFoulLeavesOpponentBreaksAlone(t *testing.T) {
	m := newMatch(t, "", "A", "B")
	require.NoError(t, ApplyPoints(m, 9))
	require.NoError(t, EndTurn(m))

	_, err := ApplyFoul(m, -5)
	require.NoError(t, err)

	a := m.Players[0]
	assert.Equal(t, 14, a.Score)
	assert.Equal(t, 0, a.CurrentBreak)
	assert.Equal(t, 9, a.HighestBreak, "penalty points are not part of a break")
}

func TestFoulPolicies(t *testing.T) {
	tests := []struct {
		name    string
		policy  model.FoulPolicy
		players int
		turn    int
		penalty int
		want    []int
	}{
		{"each, two players", model.FoulPolicyFullToEach, 2, 0, -4, []int{0, 4}},
		{"each, three players", model.FoulPolicyFullToEach, 3, 0, -4, []int{0, 4, 4}},
		{"each, four players", model.FoulPolicyFullToEach, 4, 2, -7, []int{7, 7, 0, 7}},
		{"split, two players", model.FoulPolicySplit, 2, 1, -6, []int{6, 0}},
		{"split, even", model.FoulPolicySplit, 3, 0, -6, []int{0, 3, 3}},
		{"split, remainder to next in rotation", model.FoulPolicySplit, 3, 0, -5, []int{0, 3, 2}},
		{"split, remainder wraps", model.FoulPolicySplit, 3, 2, -5, []int{3, 2, 0}},
		{"split, more opponents than points", model.FoulPolicySplit, 6, 1, -4, []int{0, 0, 1, 1, 1, 1}},
		{"split, remainder wraps past end", model.FoulPolicySplit, 4, 2, -4, []int{1, 1, 0, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			names := make([]string, tt.players)
			for i := range names {
				names[i] = string(rune('A' + i))
			}
			m := newMatch(t, tt.policy, names...)
			m.CurrentPlayerIndex = tt.turn

			credits, err := ApplyFoul(m, tt.penalty)
			require.NoError(t, err)
			assert.Equal(t, tt.want, scores(m))

			total := 0
			for _, c := range credits {
				total += c
			}
			if tt.policy == model.FoulPolicySplit {
				assert.Equal(t, -tt.penalty, total)
			} else {
				assert.Equal(t, -tt.penalty*(tt.players-1), total)
			}
			assert.Equal(t, tt.turn, m.CurrentPlayerIndex)
		})
	}
}

func TestFoulSinglePlayerCreditsNobody(t *testing.T) {
	m := newMatch(t, "", "Solo")
	require.NoError(t, ApplyPoints(m, 3))

	credits, err := ApplyFoul(m, -4)
	require.NoError(t, err)
	assert.Empty(t, credits)
	assert.Equal(t, 3, m.Players[0].Score)
	assert.Equal(t, 0, m.Players[0].CurrentBreak)
}

func TestFoulRejectsMalformedPenalty(t *testing.T) {
	for _, penalty := range []int{0, 4, -3, -8, -100} {
		m := newMatch(t, "", "A", "B")
		require.NoError(t, ApplyPoints(m, 5))
		before := m.Clone()

		_, err := ApplyFoul(m, penalty)
		assert.ErrorIs(t, err, model.ErrInvalidPenalty, "penalty %d", penalty)
		assert.ErrorIs(t, err, model.ErrInvalidArgument)
		assert.Equal(t, before, m, "rejected foul must not mutate the match")
	}
}

// EndTurn tests

func TestEndTurnRotatesAndWraps(t *testing.T) {
	m := newMatch(t, "", "A", "B", "C")

	expected := []int{1, 2, 0, 1}
	for _, want := range expected {
		require.NoError(t, EndTurn(m))
		assert.Equal(t, want, m.CurrentPlayerIndex)
	}
}

func TestEndTurnNeverChangesScores(t *testing.T) {
	m := newMatch(t, "", "A", "B")
	require.NoError(t, ApplyPoints(m, 8))
	require.NoError(t, EndTurn(m))
	require.NoError(t, ApplyPoints(m, 2))

	before := m.Clone()
	require.NoError(t, EndTurn(m))

	for i := range m.Players {
		assert.Equal(t, before.Players[i].Score, m.Players[i].Score)
		assert.Equal(t, before.Players[i].HighestBreak, m.Players[i].HighestBreak)
	}
	assert.Equal(t, 0, m.Players[1].CurrentBreak)
	assert.Equal(t, 0, m.CurrentPlayerIndex)
}

func TestEndTurnSinglePlayer(t *testing.T) {
	m := newMatch(t, "", "Solo")
	require.NoError(t, ApplyPoints(m, 4))
	require.NoError(t, EndTurn(m))

	assert.Equal(t, 0, m.CurrentPlayerIndex)
	assert.Equal(t, 0, m.Players[0].CurrentBreak)
	assert.Equal(t, 4, m.Players[0].Score)
}

// Frame tests

func playSomeFrame(t *testing.T, m *model.Match) {
	t.Helper()
	require.NoError(t, ApplyPoints(m, 8))
	require.NoError(t, EndTurn(m))
	require.NoError(t, ApplyPoints(m, 4))
	_, err := ApplyFoul(m, -6)
	require.NoError(t, err)
}

func assertZeroed(t *testing.T, m *model.Match) {
	t.Helper()
	for _, p := range m.Players {
		assert.Zero(t, p.Score, "player %s", p.ID)
		assert.Zero(t, p.CurrentBreak, "player %s", p.ID)
		assert.Zero(t, p.HighestBreak, "player %s", p.ID)
	}
	assert.Equal(t, 0, m.CurrentPlayerIndex)
}

func TestResetFrame(t *testing.T) {
	m := newMatch(t, "", "A", "B", "C")
	playSomeFrame(t, m)
	require.NoError(t, AdvanceFrame(m))
	playSomeFrame(t, m)

	require.NoError(t, ResetFrame(m))
	assertZeroed(t, m)
	assert.Equal(t, 2, m.FrameNumber)
	assert.Len(t, m.Players, 3)
}

func TestAdvanceFrame(t *testing.T) {
	m := newMatch(t, "", "A", "B")
	playSomeFrame(t, m)

	require.NoError(t, AdvanceFrame(m))
	assertZeroed(t, m)
	assert.Equal(t, 2, m.FrameNumber)

	require.NoError(t, AdvanceFrame(m))
	assert.Equal(t, 3, m.FrameNumber)
}

func TestAdvanceFrameMatchesResetFrame(t *testing.T) {
	a := newMatch(t, "", "A", "B", "C")
	playSomeFrame(t, a)
	b := a.Clone()

	require.NoError(t, ResetFrame(a))
	require.NoError(t, AdvanceFrame(b))

	b.FrameNumber--
	assert.Equal(t, a, b)
}

func TestResetMatch(t *testing.T) {
	m := newMatch(t, "", "A", "B")
	playSomeFrame(t, m)
	require.NoError(t, AdvanceFrame(m))
	require.NoError(t, AdvanceFrame(m))
	playSomeFrame(t, m)

	require.NoError(t, ResetMatch(m))
	assertZeroed(t, m)
	assert.Equal(t, 1, m.FrameNumber)
	assert.Len(t, m.Players, 2)
}

// Validate tests

func TestValidateRejectsCorruptSnapshots(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *model.Match)
	}{
		{"empty roster", func(m *model.Match) { m.Players = nil }},
		{"turn index too large", func(m *model.Match) { m.CurrentPlayerIndex = 2 }},
		{"negative turn index", func(m *model.Match) { m.CurrentPlayerIndex = -1 }},
		{"frame zero", func(m *model.Match) { m.FrameNumber = 0 }},
		{"negative score", func(m *model.Match) { m.Players[1].Score = -4 }},
		{"negative break", func(m *model.Match) { m.Players[0].HighestBreak = -1 }},
		{"duplicate ids", func(m *model.Match) { m.Players[1].ID = m.Players[0].ID }},
		{"unknown policy", func(m *model.Match) { m.FoulPolicy = "nope" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMatch(t, "", "A", "B")
			tt.mutate(m)
			before := m.Clone()

			assert.ErrorIs(t, Validate(m), model.ErrPreconditionFailed)
			assert.ErrorIs(t, ApplyPoints(m, 1), model.ErrPreconditionFailed)
			_, err := ApplyFoul(m, -4)
			assert.ErrorIs(t, err, model.ErrPreconditionFailed)
			assert.ErrorIs(t, EndTurn(m), model.ErrPreconditionFailed)
			assert.ErrorIs(t, ResetFrame(m), model.ErrPreconditionFailed)
			_, err = AddPlayer(m, "C")
			assert.ErrorIs(t, err, model.ErrPreconditionFailed)

			assert.Equal(t, before, m, "precondition failures must not repair or mutate")
		})
	}
}

func TestValidateNil(t *testing.T) {
	assert.ErrorIs(t, Validate(nil), model.ErrPreconditionFailed)
}

// Invariants under a long mixed sequence

func TestNoNegativeScoresAfterMixedSequence(t *testing.T) {
	for _, policy := range []model.FoulPolicy{model.FoulPolicyFullToEach, model.FoulPolicySplit} {
		m := newMatch(t, policy, "A", "B", "C")

		for i := range 60 {
			switch i % 5 {
			case 0, 1:
				require.NoError(t, ApplyPoints(m, i%7+1))
			case 2:
				_, err := ApplyFoul(m, -(4 + i%4))
				require.NoError(t, err)
			case 3:
				require.NoError(t, EndTurn(m))
			case 4:
				if i%20 == 4 {
					require.NoError(t, AdvanceFrame(m))
				}
			}
			require.NoError(t, Validate(m))
			for _, p := range m.Players {
				assert.GreaterOrEqual(t, p.Score, 0)
				assert.GreaterOrEqual(t, p.HighestBreak, p.CurrentBreak)
			}
		}
	}
}

// Snapshot round trip

func TestSnapshotRoundTrip(t *testing.T) {
	m := newMatch(t, model.FoulPolicySplit, "A", "B", "C")
	playSomeFrame(t, m)
	require.NoError(t, EndTurn(m))
	_, err := AddPlayer(m, "D")
	require.NoError(t, err)
	require.NoError(t, RemovePlayer(m, "p2"))
	m.ID = "match-1"
	m.Number = 4821
	m.OwnerID = "u_1"

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var loaded model.Match
	require.NoError(t, json.Unmarshal(data, &loaded))

	assert.Equal(t, *m, loaded)
	require.NoError(t, Validate(&loaded))

	// The reloaded match keeps minting fresh ids
	p, err := AddPlayer(&loaded, "E")
	require.NoError(t, err)
	assert.Equal(t, model.PlayerID("p5"), p.ID)
}
