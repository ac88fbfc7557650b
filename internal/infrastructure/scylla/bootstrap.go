package scylla

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// The canonical users table owns all account state; the two lookup tables
// are derived indices whose only authority is uniqueness enforcement.
var tableDDL = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id UUID PRIMARY KEY,
		username TEXT,
		email TEXT,
		hashed_password TEXT,
		first_name TEXT,
		last_name TEXT,
		is_active BOOLEAN,
		email_verified BOOLEAN,
		last_login_at TIMESTAMP,
		created_at TIMESTAMP,
		updated_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS users_by_username (
		username TEXT PRIMARY KEY,
		user_id UUID
	)`,
	`CREATE TABLE IF NOT EXISTS users_by_email (
		email TEXT PRIMARY KEY,
		user_id UUID
	)`,
}

// Bootstrap creates the account tables if they don't already exist. Safe to
// call on every startup. A failure here is fatal to startup, not to
// requests.
func Bootstrap(ctx context.Context, s *Session, log *zap.Logger) error {
	for _, ddl := range tableDDL {
		if err := s.Query(ctx, ddl).Exec(); err != nil {
			return fmt.Errorf("bootstrap table: %w", err)
		}
	}
	log.Info("scylla schema ready")
	return nil
}
