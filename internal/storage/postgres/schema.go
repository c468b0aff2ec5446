package postgres

import "context"

const (
	uniqueViolation       = "23505"
	matchNumberConstraint = "matches_number_key"
)

// schema is applied on startup. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id           TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		is_guest     BOOLEAN NOT NULL DEFAULT FALSE,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS registered_users (
		user_id       TEXT PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS matches (
		id         TEXT PRIMARY KEY,
		number     INTEGER NOT NULL UNIQUE,
		owner_id   TEXT NOT NULL,
		snapshot   JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS matches_owner_idx ON matches (owner_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS frame_summaries (
		id           BIGSERIAL PRIMARY KEY,
		match_id     TEXT NOT NULL,
		frame_number INTEGER NOT NULL,
		summary      JSONB NOT NULL,
		completed_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS frame_summaries_match_idx ON frame_summaries (match_id, id)`,
}

// Migrate creates the tables the storage needs
func (s *Storage) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
