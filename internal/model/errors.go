package model

import (
	"errors"
	"fmt"
)

// Error kinds. Every engine error wraps exactly one of these so callers can
// classify failures with errors.Is.
var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvariantViolation = errors.New("invariant violation")
	ErrPreconditionFailed = errors.New("precondition failed")
)

// Engine errors
var (
	ErrNonPositivePoints = fmt.Errorf("%w: points must be positive", ErrInvalidArgument)
	ErrInvalidPenalty    = fmt.Errorf("%w: foul penalty must be between -%d and -%d", ErrInvalidArgument, MaxFoulPenalty, MinFoulPenalty)
	ErrBlankName         = fmt.Errorf("%w: name must not be blank", ErrInvalidArgument)
	ErrUnknownFoulPolicy = fmt.Errorf("%w: unknown foul policy", ErrInvalidArgument)
	ErrUnknownBall       = fmt.Errorf("%w: unknown ball", ErrInvalidArgument)
	ErrScoreOverflow     = fmt.Errorf("%w: points would overflow the score", ErrInvalidArgument)

	ErrEmptyRoster    = fmt.Errorf("%w: a match needs at least one player", ErrInvariantViolation)
	ErrLastPlayer     = fmt.Errorf("%w: cannot remove the last player", ErrInvariantViolation)
	ErrPlayerNotFound = fmt.Errorf("%w: player not found", ErrInvariantViolation)

	ErrCorruptMatch = fmt.Errorf("%w: match state is inconsistent", ErrPreconditionFailed)
)

// Collaborator errors
var (
	// User errors
	ErrUserNotFound = errors.New("user not found")

	// Match errors
	ErrMatchNotFound = errors.New("match not found")
	ErrNotMatchOwner = errors.New("user does not own this match")

	// ErrMatchNumberTaken is returned by storage when a new match claims a
	// number another match already holds
	ErrMatchNumberTaken = errors.New("match number already taken")
)
