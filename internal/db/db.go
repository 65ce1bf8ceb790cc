package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Options struct {
	MaxOpenConns int
	MaxIdleConns int
}

func Connect(ctx context.Context, dsn string, opts Options) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = 10
	}
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = 5
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrations is the ordered, idempotent schema. The unique constraints on
// user_badges and on the normalized friend request pair are what make award
// and request creation safe under concurrent callers.
var Migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		auth0_sub TEXT NOT NULL UNIQUE,
		coins BIGINT NOT NULL DEFAULT 0,
		display_name TEXT,
		bio TEXT,
		profile_background TEXT,
		picture_url VARCHAR(512),
		showcased_badges VARCHAR(200),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	`CREATE TABLE IF NOT EXISTS owned_items (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		item_id TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, item_id)
		)`,
	`CREATE TABLE IF NOT EXISTS badges (
		id SERIAL PRIMARY KEY,
		code VARCHAR(64) NOT NULL UNIQUE,
		name VARCHAR(100) NOT NULL,
		description VARCHAR(255)
		)`,
	`CREATE TABLE IF NOT EXISTS user_badges (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		badge_id INT NOT NULL REFERENCES badges(id),
		earned_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, badge_id)
		)`,
	`CREATE TABLE IF NOT EXISTS friend_requests (
		id BIGSERIAL PRIMARY KEY,
		requester_id BIGINT NOT NULL REFERENCES users(id),
		receiver_id BIGINT NOT NULL REFERENCES users(id),
		status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','accepted')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		responded_at TIMESTAMPTZ,
		CHECK (requester_id <> receiver_id),
		CHECK ((status = 'accepted') = (responded_at IS NOT NULL))
		)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_friend_requests_pair
		ON friend_requests (LEAST(requester_id, receiver_id), GREATEST(requester_id, receiver_id))`,
	`CREATE INDEX IF NOT EXISTS ix_friend_requests_requester_id ON friend_requests (requester_id)`,
	`CREATE INDEX IF NOT EXISTS ix_friend_requests_receiver_id ON friend_requests (receiver_id)`,
}

func RunMigrations(ctx context.Context, db *sqlx.DB) error {
	for _, q := range Migrations {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	return nil
}
