package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/mcoot/snookercounter/internal/model"
	"github.com/mcoot/snookercounter/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Values are copied on the way in and out so callers never share state with
// the store.
type Storage struct {
	mu sync.RWMutex

	users           map[model.UserID]*model.User
	registeredUsers map[model.UserID]*model.RegisteredUser
	usernameIndex   map[string]model.UserID
	matches         map[model.MatchID]*model.Match
	numberIndex     map[int]model.MatchID
	history         map[model.MatchID][]*model.FrameSummary
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		users:           make(map[model.UserID]*model.User),
		registeredUsers: make(map[model.UserID]*model.RegisteredUser),
		usernameIndex:   make(map[string]model.UserID),
		matches:         make(map[model.MatchID]*model.Match),
		numberIndex:     make(map[int]model.MatchID),
		history:         make(map[model.MatchID][]*model.FrameSummary),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := *user
	s.users[user.ID] = &u
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	u := *user
	return &u, nil
}

// Registered user operations

func (s *Storage) SaveRegisteredUser(ctx context.Context, ru *model.RegisteredUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := *ru
	s.registeredUsers[ru.UserID] = &r
	s.usernameIndex[ru.Username] = ru.UserID
	return nil
}

func (s *Storage) GetRegisteredUser(ctx context.Context, userID model.UserID) (*model.RegisteredUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ru, ok := s.registeredUsers[userID]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	r := *ru
	return &r, nil
}

func (s *Storage) GetRegisteredUserByUsername(ctx context.Context, username string) (*model.RegisteredUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.usernameIndex[username]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	ru, ok := s.registeredUsers[userID]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	r := *ru
	return &r, nil
}

// Match operations

// SaveMatch stores a snapshot. A match may not take a number that another
// match holds.
func (s *Storage) SaveMatch(ctx context.Context, match *model.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if holder, ok := s.numberIndex[match.Number]; ok && holder != match.ID {
		return model.ErrMatchNumberTaken
	}
	s.matches[match.ID] = match.Clone()
	s.numberIndex[match.Number] = match.ID
	return nil
}

func (s *Storage) GetMatch(ctx context.Context, id model.MatchID) (*model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	match, ok := s.matches[id]
	if !ok {
		return nil, model.ErrMatchNotFound
	}
	return match.Clone(), nil
}

func (s *Storage) DeleteMatch(ctx context.Context, id model.MatchID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if match, ok := s.matches[id]; ok {
		delete(s.numberIndex, match.Number)
	}
	delete(s.matches, id)
	delete(s.history, id)
	return nil
}

// ListMatchesForOwner returns the owner's matches, most recently created first
func (s *Storage) ListMatchesForOwner(ctx context.Context, ownerID model.UserID) ([]*model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matches []*model.Match
	for _, match := range s.matches {
		if match.OwnerID == ownerID {
			matches = append(matches, match.Clone())
		}
	}
	slices.SortFunc(matches, func(a, b *model.Match) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return matches, nil
}

func (s *Storage) MatchNumberExists(ctx context.Context, number int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.numberIndex[number]
	return ok, nil
}

func (s *Storage) GetMatchByNumber(ctx context.Context, number int) (*model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.numberIndex[number]
	if !ok {
		return nil, model.ErrMatchNotFound
	}
	match, ok := s.matches[id]
	if !ok {
		return nil, model.ErrMatchNotFound
	}
	return match.Clone(), nil
}

// Frame history operations

func (s *Storage) AppendFrameSummary(ctx context.Context, summary *model.FrameSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fs := *summary
	fs.Results = slices.Clone(summary.Results)
	s.history[summary.MatchID] = append(s.history[summary.MatchID], &fs)
	return nil
}

func (s *Storage) GetFrameSummaries(ctx context.Context, matchID model.MatchID) ([]*model.FrameSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summaries := make([]*model.FrameSummary, 0, len(s.history[matchID]))
	for _, summary := range s.history[matchID] {
		fs := *summary
		fs.Results = slices.Clone(summary.Results)
		summaries = append(summaries, &fs)
	}
	return summaries, nil
}
