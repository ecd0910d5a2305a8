// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ManuGH/vidfolio/internal/persistence/sqlite"
)

// sqliteMigrations are applied in order; user_version tracks progress.
var sqliteMigrations = []string{
	`CREATE TABLE video_categories (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		slug        TEXT NOT NULL UNIQUE,
		description TEXT,
		banner_url  TEXT
	);
	CREATE TABLE videos (
		id            TEXT PRIMARY KEY,
		title         TEXT NOT NULL,
		description   TEXT,
		thumbnail_url TEXT,
		video_url     TEXT NOT NULL,
		duration      TEXT,
		views         INTEGER NOT NULL DEFAULT 0 CHECK (views >= 0),
		category_id   TEXT REFERENCES video_categories(id) ON DELETE SET NULL,
		client        TEXT,
		upload_date   TEXT
	);
	CREATE INDEX idx_videos_category ON videos(category_id);
	CREATE INDEX idx_videos_upload ON videos(upload_date DESC);`,
	`ALTER TABLE videos ADD COLUMN renditions TEXT;`,
}

// sqliteTimeLayout keeps a fixed width so text ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// NewSQLiteStore opens (creating if needed) the catalog database at path.
func NewSQLiteStore(ctx context.Context, path string) (*SQLStore, error) {
	db, err := sqlite.Open(ctx, path, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}
	if err := sqlite.Migrate(ctx, db, sqliteMigrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate catalog: %w", err)
	}
	return &SQLStore{db: db, d: sqliteDialect()}, nil
}

func sqliteDialect() dialect {
	return dialect{
		name: "sqlite",
		bind: func(q string) string { return q },
		timeArg: func(t time.Time) any {
			return t.UTC().Format(sqliteTimeLayout)
		},
		increment: func(ctx context.Context, db *sql.DB, id string) error {
			return incrementByUpdate(ctx, db, "UPDATE videos SET views = views + 1 WHERE id = ?", id)
		},
	}
}
