// Package postgres holds the document store, which lives in a
// Postgres-compatible database (CockroachDB in deployment) rather than the
// wide-column store: document access is single-key and transactional, so it
// needs none of the lookup-table machinery the account store is built on.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config are the connection parameters for the document database.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (c Config) dsn(db string) string {
	cred := c.User
	if c.Password != "" {
		cred = fmt.Sprintf("%s:%s", c.User, c.Password)
	}
	return fmt.Sprintf("postgres://%s@%s:%s/%s?sslmode=%s", cred, c.Host, c.Port, db, c.SSLMode)
}

// Connect ensures the application database exists and returns a pool bound
// to it. Database creation goes through defaultdb, matching the CockroachDB
// deployment topology.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	admin, err := pgxpool.New(ctx, cfg.dsn("defaultdb"))
	if err != nil {
		return nil, fmt.Errorf("unable to create admin connection pool: %w", err)
	}
	_, err = admin.Exec(ctx, fmt.Sprintf(`CREATE DATABASE IF NOT EXISTS %q`, cfg.DBName))
	admin.Close()
	if err != nil {
		return nil, fmt.Errorf("unable to create database %s: %w", cfg.DBName, err)
	}

	pool, err := pgxpool.New(ctx, cfg.dsn(cfg.DBName))
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	return pool, nil
}
