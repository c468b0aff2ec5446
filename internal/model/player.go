package model

import "time"

// PlayerID identifies a contestant within a single match
type PlayerID string

// Player is one contestant in the current frame
type Player struct {
	ID           PlayerID `json:"id"`
	Name         string   `json:"name"`
	Score        int      `json:"score"`
	CurrentBreak int      `json:"current_break"`
	HighestBreak int      `json:"highest_break"`
}

// UserID uniquely identifies an account across the system
type UserID string

// User is the account that creates and scores matches
type User struct {
	ID          UserID    `json:"id"`
	DisplayName string    `json:"display_name"`
	IsGuest     bool      `json:"is_guest"` // true for unregistered users
	CreatedAt   time.Time `json:"created_at"`
}

// RegisteredUser extends User with authentication data
// Stored separately for security (password never in memory with session)
type RegisteredUser struct {
	UserID       UserID    `json:"user_id"`
	Username     string    `json:"username"` // login username (immutable)
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
