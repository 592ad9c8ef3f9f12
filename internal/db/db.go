package db

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect opens the Postgres pool and runs migrations.
func Connect(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

func runMigrations(ctx context.Context, db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            group_id TEXT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS groups (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            bio TEXT NOT NULL DEFAULT '',
            photo_url TEXT NOT NULL DEFAULT '',
            admin_user_id TEXT NOT NULL REFERENCES users(id),
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE UNIQUE INDEX IF NOT EXISTS groups_admin_user_idx ON groups(admin_user_id);`,
		`CREATE TABLE IF NOT EXISTS likes (
            id TEXT PRIMARY KEY,
            from_group_id TEXT NOT NULL REFERENCES groups(id),
            to_group_id TEXT NOT NULL REFERENCES groups(id),
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            UNIQUE(from_group_id, to_group_id),
            CHECK (from_group_id <> to_group_id)
        );`,
		`CREATE INDEX IF NOT EXISTS likes_to_group_idx ON likes(to_group_id);`,
		`CREATE TABLE IF NOT EXISTS matches (
            id TEXT PRIMARY KEY,
            pair_key TEXT NOT NULL UNIQUE,
            group_a TEXT NOT NULL REFERENCES groups(id),
            group_b TEXT NOT NULL REFERENCES groups(id),
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            CHECK (group_a < group_b)
        );`,
		`CREATE INDEX IF NOT EXISTS matches_group_a_idx ON matches(group_a);`,
		`CREATE INDEX IF NOT EXISTS matches_group_b_idx ON matches(group_b);`,
		`CREATE TABLE IF NOT EXISTS messages (
            id TEXT PRIMARY KEY,
            seq BIGSERIAL NOT NULL,
            match_id TEXT NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
            author_group_id TEXT NOT NULL REFERENCES groups(id),
            text TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS messages_match_created_idx ON messages(match_id, created_at, seq);`,
	}

	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return err
		}
	}
	log.Println("database migrations applied")
	return nil
}
