package redis

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/snookercounter/internal/model"
	"github.com/mcoot/snookercounter/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	// Apply TTL only for guest users
	var ttl time.Duration
	if user.IsGuest {
		ttl = s.cfg.GuestUserTTL
	}
	return s.client.Set(ctx, userKey(user.ID), data, ttl).Err()
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	var user model.User
	if err := s.getJSON(ctx, userKey(id), &user, model.ErrUserNotFound); err != nil {
		return nil, err
	}
	return &user, nil
}

// Registered user operations

func (s *Storage) SaveRegisteredUser(ctx context.Context, ru *model.RegisteredUser) error {
	data, err := json.Marshal(ru)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, registeredUserKey(ru.UserID), data, 0) // No TTL
	pipe.Set(ctx, usernameIndexKey(ru.Username), string(ru.UserID), 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetRegisteredUser(ctx context.Context, userID model.UserID) (*model.RegisteredUser, error) {
	var ru model.RegisteredUser
	if err := s.getJSON(ctx, registeredUserKey(userID), &ru, model.ErrUserNotFound); err != nil {
		return nil, err
	}
	return &ru, nil
}

func (s *Storage) GetRegisteredUserByUsername(ctx context.Context, username string) (*model.RegisteredUser, error) {
	// Look up user ID from username index
	userID, err := s.client.Get(ctx, usernameIndexKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}

	return s.GetRegisteredUser(ctx, model.UserID(userID))
}

// Match operations

// SaveMatch stores the snapshot and its indexes. It returns
// model.ErrMatchNumberTaken if another match holds the number.
func (s *Storage) SaveMatch(ctx context.Context, match *model.Match) error {
	data, err := json.Marshal(match)
	if err != nil {
		return err
	}

	// Claim the number with SETNX so a concurrent creator cannot overwrite it
	numberKey := matchNumberIndexKey(match.Number)
	claimed, err := s.client.SetNX(ctx, numberKey, string(match.ID), s.cfg.MatchTTL).Result()
	if err != nil {
		return err
	}
	if !claimed {
		holder, err := s.client.Get(ctx, numberKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if holder != string(match.ID) {
			return model.ErrMatchNumberTaken
		}
	}

	ownerKey := ownerMatchesIndexKey(match.OwnerID)

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, matchKey(match.ID), data, s.cfg.MatchTTL)
	if s.cfg.MatchTTL > 0 {
		pipe.Expire(ctx, numberKey, s.cfg.MatchTTL)
	}
	pipe.SAdd(ctx, ownerKey, string(match.ID))
	if s.cfg.MatchTTL > 0 {
		pipe.Expire(ctx, ownerKey, s.cfg.MatchTTL) // Keep index TTL in sync
		pipe.Expire(ctx, historyKey(match.ID), s.cfg.MatchTTL)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetMatch(ctx context.Context, id model.MatchID) (*model.Match, error) {
	var match model.Match
	if err := s.getJSON(ctx, matchKey(id), &match, model.ErrMatchNotFound); err != nil {
		return nil, err
	}
	return &match, nil
}

func (s *Storage) DeleteMatch(ctx context.Context, id model.MatchID) error {
	match, err := s.GetMatch(ctx, id)
	if errors.Is(err, model.ErrMatchNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	// Delete the snapshot, its history and index entries in one pipeline
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, matchKey(id), historyKey(id), matchNumberIndexKey(match.Number))
	pipe.SRem(ctx, ownerMatchesIndexKey(match.OwnerID), string(id))
	_, err = pipe.Exec(ctx)
	return err
}

// ListMatchesForOwner returns the owner's matches, most recently created first.
// Index entries whose snapshot has expired are skipped.
func (s *Storage) ListMatchesForOwner(ctx context.Context, ownerID model.UserID) ([]*model.Match, error) {
	ids, err := s.client.SMembers(ctx, ownerMatchesIndexKey(ownerID)).Result()
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return []*model.Match{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = matchKey(model.MatchID(id))
	}

	// Fetch all matches in one round trip using MGET
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	matches := make([]*model.Match, 0, len(values))
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue // Match may have expired
		}
		var match model.Match
		if err := json.Unmarshal([]byte(str), &match); err != nil {
			continue // Skip invalid data
		}
		matches = append(matches, &match)
	}

	slices.SortFunc(matches, func(a, b *model.Match) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return matches, nil
}

func (s *Storage) MatchNumberExists(ctx context.Context, number int) (bool, error) {
	exists, err := s.client.Exists(ctx, matchNumberIndexKey(number)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

func (s *Storage) GetMatchByNumber(ctx context.Context, number int) (*model.Match, error) {
	id, err := s.client.Get(ctx, matchNumberIndexKey(number)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrMatchNotFound
		}
		return nil, err
	}
	return s.GetMatch(ctx, model.MatchID(id))
}

// Frame history operations

func (s *Storage) AppendFrameSummary(ctx context.Context, summary *model.FrameSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	key := historyKey(summary.MatchID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	if s.cfg.MatchTTL > 0 {
		pipe.Expire(ctx, key, s.cfg.MatchTTL)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetFrameSummaries(ctx context.Context, matchID model.MatchID) ([]*model.FrameSummary, error) {
	values, err := s.client.LRange(ctx, historyKey(matchID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	summaries := make([]*model.FrameSummary, 0, len(values))
	for _, val := range values {
		var summary model.FrameSummary
		if err := json.Unmarshal([]byte(val), &summary); err != nil {
			return nil, err
		}
		summaries = append(summaries, &summary)
	}
	return summaries, nil
}

// getJSON loads a JSON value, mapping a missing key to notFound
func (s *Storage) getJSON(ctx context.Context, key string, v any, notFound error) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return notFound
		}
		return err
	}
	return json.Unmarshal(data, v)
}
