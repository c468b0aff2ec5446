// Package match runs engine operations against stored matches.
//
// Every mutation follows the same path: lock the match, load it, check the
// caller owns it, apply one engine operation, bump the version, save, then
// publish the resulting event. A rejected engine call leaves storage untouched.
package match

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/snookercounter/internal/dependencies/clock"
	"github.com/mcoot/snookercounter/internal/dependencies/random"
	"github.com/mcoot/snookercounter/internal/engine"
	"github.com/mcoot/snookercounter/internal/model"
	"github.com/mcoot/snookercounter/internal/storage"
)

const (
	minMatchNumber = 1000
	maxMatchNumber = 9999

	maxNumberAttempts = 20
)

// ErrNoMatchNumber is returned when no free match number could be found
var ErrNoMatchNumber = errors.New("could not allocate a match number")

// Publisher receives events after successful mutations
type Publisher interface {
	Publish(event model.Event)
}

// Recorder counts successful mutations
type Recorder interface {
	MatchEvent(t model.EventType)
}

// Config holds controller settings
type Config struct {
	// DefaultFoulPolicy applies when CreateMatch is called without a policy
	DefaultFoulPolicy model.FoulPolicy
}

// Controller manages matches on behalf of their owners
type Controller struct {
	storage   storage.Storage
	publisher Publisher
	recorder  Recorder
	clock     clock.Clock
	random    random.Random
	logger    *slog.Logger
	cfg       Config
	locks     *matchLocks
}

// NewController creates a new match Controller
func NewController(
	storage storage.Storage,
	publisher Publisher,
	recorder Recorder,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
	cfg Config,
) *Controller {
	if cfg.DefaultFoulPolicy == "" {
		cfg.DefaultFoulPolicy = model.DefaultFoulPolicy
	}
	return &Controller{
		storage:   storage,
		publisher: publisher,
		recorder:  recorder,
		clock:     clock,
		random:    random,
		logger:    logger,
		cfg:       cfg,
		locks:     newMatchLocks(),
	}
}

// CreateMatch starts a new match owned by ownerID with the given roster
func (c *Controller) CreateMatch(ctx context.Context, ownerID model.UserID, names []string, policy model.FoulPolicy) (*model.Match, error) {
	if policy == "" {
		policy = c.cfg.DefaultFoulPolicy
	}

	match, err := engine.NewMatch(names, policy)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	match.ID = model.MatchID(uuid.NewString())
	match.OwnerID = ownerID
	match.Version = 1
	match.CreatedAt = now
	match.UpdatedAt = now

	if err := c.saveNewMatch(ctx, match); err != nil {
		c.logger.Error("failed to save match",
			slog.String("match_id", string(match.ID)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	c.emit(model.EventMatchCreated, match, "", nil)

	c.logger.Info("match created",
		slog.String("match_id", string(match.ID)),
		slog.Int("number", match.Number),
		slog.String("owner_id", string(ownerID)),
		slog.Int("player_count", len(match.Players)),
		slog.String("foul_policy", string(match.FoulPolicy)),
	)

	return match, nil
}

// saveNewMatch gives the match an unused four digit number and saves it.
// Storage refuses a number another match took since it was checked, in
// which case a fresh number is drawn.
func (c *Controller) saveNewMatch(ctx context.Context, match *model.Match) error {
	for range maxNumberAttempts {
		number := random.IntRange(c.random, minMatchNumber, maxMatchNumber)
		exists, err := c.storage.MatchNumberExists(ctx, number)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		match.Number = number
		err = c.storage.SaveMatch(ctx, match)
		if errors.Is(err, model.ErrMatchNumberTaken) {
			c.logger.Debug("match number taken concurrently", slog.Int("number", number))
			continue
		}
		return err
	}
	return ErrNoMatchNumber
}

// GetMatch returns a match owned by userID
func (c *Controller) GetMatch(ctx context.Context, userID model.UserID, matchID model.MatchID) (*model.Match, error) {
	return c.load(ctx, userID, matchID)
}

// GetMatchByNumber looks a match up by its four digit number
func (c *Controller) GetMatchByNumber(ctx context.Context, userID model.UserID, number int) (*model.Match, error) {
	match, err := c.storage.GetMatchByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if match.OwnerID != userID {
		return nil, model.ErrNotMatchOwner
	}
	return match, nil
}

// ListMatches returns the user's matches, newest first
func (c *Controller) ListMatches(ctx context.Context, userID model.UserID) ([]*model.Match, error) {
	return c.storage.ListMatchesForOwner(ctx, userID)
}

// DeleteMatch removes a match and its frame history. Live feed subscribers
// receive a final match_deleted event.
func (c *Controller) DeleteMatch(ctx context.Context, userID model.UserID, matchID model.MatchID) error {
	unlock := c.locks.Lock(matchID)
	defer unlock()

	match, err := c.load(ctx, userID, matchID)
	if err != nil {
		return err
	}

	if err := c.storage.DeleteMatch(ctx, matchID); err != nil {
		c.logger.Error("failed to delete match",
			slog.String("match_id", string(matchID)),
			slog.String("error", err.Error()),
		)
		return err
	}

	match.UpdatedAt = c.clock.Now()
	c.emit(model.EventMatchDeleted, match, "", nil)

	c.logger.Info("match deleted",
		slog.String("match_id", string(matchID)),
		slog.Int("number", match.Number),
	)
	return nil
}

// Pot credits points to the player at the table
func (c *Controller) Pot(ctx context.Context, userID model.UserID, matchID model.MatchID, points int) (*model.Match, error) {
	return c.mutate(ctx, userID, matchID, model.EventPointsScored, func(m *model.Match) (model.PlayerID, any, error) {
		if err := engine.ApplyPoints(m, points); err != nil {
			return "", nil, err
		}
		p := m.CurrentPlayer()
		return p.ID, model.PointsPayload{Points: points, CurrentBreak: p.CurrentBreak}, nil
	})
}

// PotBall credits the value of a named ball
func (c *Controller) PotBall(ctx context.Context, userID model.UserID, matchID model.MatchID, ball string) (*model.Match, error) {
	points, err := model.BallValue(ball)
	if err != nil {
		return nil, err
	}
	return c.Pot(ctx, userID, matchID, points)
}

// Foul applies a negative penalty committed by the player at the table
func (c *Controller) Foul(ctx context.Context, userID model.UserID, matchID model.MatchID, penalty int) (*model.Match, error) {
	return c.mutate(ctx, userID, matchID, model.EventFoul, func(m *model.Match) (model.PlayerID, any, error) {
		offender := m.CurrentPlayer()
		credited, err := engine.ApplyFoul(m, penalty)
		if err != nil {
			return "", nil, err
		}
		return offender.ID, model.FoulPayload{Penalty: penalty, Credited: credited}, nil
	})
}

// EndTurn passes the table to the next player
func (c *Controller) EndTurn(ctx context.Context, userID model.UserID, matchID model.MatchID) (*model.Match, error) {
	return c.mutate(ctx, userID, matchID, model.EventTurnEnded, func(m *model.Match) (model.PlayerID, any, error) {
		previous := m.CurrentPlayer()
		if previous == nil {
			return "", nil, model.ErrCorruptMatch
		}
		endedBy := previous.ID
		if err := engine.EndTurn(m); err != nil {
			return "", nil, err
		}
		return endedBy, model.TurnEndedPayload{NextPlayerID: m.CurrentPlayer().ID}, nil
	})
}

// AddPlayer appends a player to the rotation
func (c *Controller) AddPlayer(ctx context.Context, userID model.UserID, matchID model.MatchID, name string) (*model.Match, error) {
	return c.mutate(ctx, userID, matchID, model.EventPlayerAdded, func(m *model.Match) (model.PlayerID, any, error) {
		p, err := engine.AddPlayer(m, name)
		if err != nil {
			return "", nil, err
		}
		return p.ID, nil, nil
	})
}

// RemovePlayer drops a player from the rotation
func (c *Controller) RemovePlayer(ctx context.Context, userID model.UserID, matchID model.MatchID, playerID model.PlayerID) (*model.Match, error) {
	return c.mutate(ctx, userID, matchID, model.EventPlayerRemoved, func(m *model.Match) (model.PlayerID, any, error) {
		return playerID, nil, engine.RemovePlayer(m, playerID)
	})
}

// RenamePlayer changes a player's display name
func (c *Controller) RenamePlayer(ctx context.Context, userID model.UserID, matchID model.MatchID, playerID model.PlayerID, name string) (*model.Match, error) {
	return c.mutate(ctx, userID, matchID, model.EventPlayerRenamed, func(m *model.Match) (model.PlayerID, any, error) {
		var oldName string
		if p := m.GetPlayer(playerID); p != nil {
			oldName = p.Name
		}
		if err := engine.RenamePlayer(m, playerID, name); err != nil {
			return "", nil, err
		}
		return playerID, model.PlayerRenamedPayload{OldName: oldName, NewName: m.GetPlayer(playerID).Name}, nil
	})
}

// ResetFrame clears the scores of the frame in progress
func (c *Controller) ResetFrame(ctx context.Context, userID model.UserID, matchID model.MatchID) (*model.Match, error) {
	return c.mutate(ctx, userID, matchID, model.EventFrameReset, func(m *model.Match) (model.PlayerID, any, error) {
		return "", nil, engine.ResetFrame(m)
	})
}

// AdvanceFrame records the finished frame in the match history and starts the
// next one
func (c *Controller) AdvanceFrame(ctx context.Context, userID model.UserID, matchID model.MatchID) (*model.Match, error) {
	var summary *model.FrameSummary
	advance := func(m *model.Match) (model.PlayerID, any, error) {
		summary = summarise(m, c.clock.Now())
		if err := engine.AdvanceFrame(m); err != nil {
			return "", nil, err
		}
		return summary.Leader, model.FrameAdvancedPayload{Summary: *summary}, nil
	}
	// History is only written for a frame whose advance was saved
	record := func(ctx context.Context) error {
		return c.storage.AppendFrameSummary(ctx, summary)
	}
	return c.mutateThen(ctx, userID, matchID, model.EventFrameAdvanced, advance, record)
}

// ResetMatch clears scores and restarts frame counting; the roster is kept
func (c *Controller) ResetMatch(ctx context.Context, userID model.UserID, matchID model.MatchID) (*model.Match, error) {
	return c.mutate(ctx, userID, matchID, model.EventMatchReset, func(m *model.Match) (model.PlayerID, any, error) {
		return "", nil, engine.ResetMatch(m)
	})
}

// FrameHistory returns the summaries of completed frames, oldest first
func (c *Controller) FrameHistory(ctx context.Context, userID model.UserID, matchID model.MatchID) ([]*model.FrameSummary, error) {
	if _, err := c.load(ctx, userID, matchID); err != nil {
		return nil, err
	}
	return c.storage.GetFrameSummaries(ctx, matchID)
}

// load fetches a match and checks ownership
func (c *Controller) load(ctx context.Context, userID model.UserID, matchID model.MatchID) (*model.Match, error) {
	match, err := c.storage.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.OwnerID != userID {
		return nil, model.ErrNotMatchOwner
	}
	return match, nil
}

// mutation applies one engine operation to a loaded match. It returns the
// player the event concerns and the event payload.
type mutation func(m *model.Match) (model.PlayerID, any, error)

func (c *Controller) mutate(ctx context.Context, userID model.UserID, matchID model.MatchID, eventType model.EventType, apply mutation) (*model.Match, error) {
	return c.mutateThen(ctx, userID, matchID, eventType, apply, nil)
}

// mutateThen is mutate with a follow-up write that runs, still under the
// match lock, once the new snapshot is saved. A failed follow-up is logged;
// the saved match is still returned.
func (c *Controller) mutateThen(ctx context.Context, userID model.UserID, matchID model.MatchID, eventType model.EventType, apply mutation, afterSave func(context.Context) error) (*model.Match, error) {
	unlock := c.locks.Lock(matchID)
	defer unlock()

	match, err := c.load(ctx, userID, matchID)
	if err != nil {
		return nil, err
	}

	playerID, payload, err := apply(match)
	if err != nil {
		c.logger.Debug("match operation rejected",
			slog.String("match_id", string(matchID)),
			slog.String("event", string(eventType)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	match.Version++
	match.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveMatch(ctx, match); err != nil {
		c.logger.Error("failed to save match",
			slog.String("match_id", string(matchID)),
			slog.String("event", string(eventType)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	if afterSave != nil {
		if err := afterSave(ctx); err != nil {
			c.logger.Error("failed to record after match update",
				slog.String("match_id", string(matchID)),
				slog.String("event", string(eventType)),
				slog.String("error", err.Error()),
			)
		}
	}

	c.emit(eventType, match, playerID, payload)

	c.logger.Info("match updated",
		slog.String("match_id", string(matchID)),
		slog.String("event", string(eventType)),
		slog.String("player_id", string(playerID)),
		slog.Int64("version", match.Version),
	)

	return match, nil
}

func (c *Controller) emit(eventType model.EventType, match *model.Match, playerID model.PlayerID, payload any) {
	if c.publisher != nil {
		c.publisher.Publish(model.Event{
			Type:      eventType,
			Timestamp: match.UpdatedAt,
			MatchID:   match.ID,
			PlayerID:  playerID,
			Payload:   payload,
			Match:     match.Clone(),
		})
	}
	if c.recorder != nil {
		c.recorder.MatchEvent(eventType)
	}
}

// summarise captures the frame in progress, highest score first. Leader is
// left empty when the top score is shared.
func summarise(m *model.Match, at time.Time) *model.FrameSummary {
	results := make([]model.PlayerResult, len(m.Players))
	for i, p := range m.Players {
		results[i] = model.PlayerResult{
			PlayerID:     p.ID,
			Name:         p.Name,
			Score:        p.Score,
			HighestBreak: p.HighestBreak,
		}
	}
	slices.SortStableFunc(results, func(a, b model.PlayerResult) int {
		return b.Score - a.Score
	})

	summary := &model.FrameSummary{
		MatchID:     m.ID,
		FrameNumber: m.FrameNumber,
		Results:     results,
		CompletedAt: at,
	}
	if len(results) == 1 || (len(results) > 1 && results[0].Score > results[1].Score) {
		summary.Leader = results[0].PlayerID
	}
	return summary
}
