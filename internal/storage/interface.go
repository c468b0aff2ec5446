package storage

import (
	"context"

	"github.com/mcoot/snookercounter/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// User operations
	SaveUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id model.UserID) (*model.User, error)

	// Registered user operations
	SaveRegisteredUser(ctx context.Context, ru *model.RegisteredUser) error
	GetRegisteredUser(ctx context.Context, userID model.UserID) (*model.RegisteredUser, error)
	GetRegisteredUserByUsername(ctx context.Context, username string) (*model.RegisteredUser, error)

	// Match operations
	SaveMatch(ctx context.Context, match *model.Match) error
	GetMatch(ctx context.Context, id model.MatchID) (*model.Match, error)
	DeleteMatch(ctx context.Context, id model.MatchID) error
	ListMatchesForOwner(ctx context.Context, ownerID model.UserID) ([]*model.Match, error)
	MatchNumberExists(ctx context.Context, number int) (bool, error)
	GetMatchByNumber(ctx context.Context, number int) (*model.Match, error)

	// Frame history operations
	AppendFrameSummary(ctx context.Context, summary *model.FrameSummary) error
	GetFrameSummaries(ctx context.Context, matchID model.MatchID) ([]*model.FrameSummary, error)
}
