package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPostgresPool configures and returns a PostgreSQL connection pool.
func NewPostgresPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	if url == "" {
		return nil, fmt.Errorf("database url is required")
	}

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}

// Execer runs a statement without returning rows.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS landmarks (
		name        TEXT PRIMARY KEY,
		latitude    DOUBLE PRECISION NOT NULL,
		longitude   DOUBLE PRECISION NOT NULL,
		description TEXT NOT NULL,
		image       TEXT,
		position    INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS gallery_images (
		id           UUID PRIMARY KEY,
		caption      TEXT NOT NULL DEFAULT '',
		source_url   TEXT NOT NULL,
		content_type TEXT NOT NULL,
		size_bytes   BIGINT NOT NULL,
		status       TEXT NOT NULL,
		submitted_at TIMESTAMPTZ NOT NULL,
		approved_at  TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS gallery_images_status_idx ON gallery_images (status, submitted_at)`,
	`CREATE TABLE IF NOT EXISTS visitor_accounts (
		id            UUID PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		password_hash BYTEA NOT NULL,
		birthday      DATE NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL
	)`,
}

// EnsureSchema creates the tables used by the service when they are missing.
func EnsureSchema(ctx context.Context, db Execer) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
