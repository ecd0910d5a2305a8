// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
)

// postgresSchema is idempotent and mirrors the hosted data store, including the
// increment function its RPC endpoint exposes.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS video_categories (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	slug        TEXT NOT NULL UNIQUE,
	description TEXT,
	banner_url  TEXT
);
CREATE TABLE IF NOT EXISTS videos (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	description   TEXT,
	thumbnail_url TEXT,
	video_url     TEXT NOT NULL,
	duration      TEXT,
	views         BIGINT NOT NULL DEFAULT 0 CHECK (views >= 0),
	category_id   TEXT REFERENCES video_categories(id) ON DELETE SET NULL,
	client        TEXT,
	upload_date   TIMESTAMPTZ,
	renditions    JSONB
);
CREATE INDEX IF NOT EXISTS idx_videos_category ON videos(category_id);
CREATE INDEX IF NOT EXISTS idx_videos_upload ON videos(upload_date DESC);
CREATE OR REPLACE FUNCTION increment_video_views(video_id TEXT) RETURNS VOID AS $$
	UPDATE videos SET views = views + 1 WHERE id = video_id;
$$ LANGUAGE sql;
`

// undefinedFunction is the SQLSTATE returned when increment_video_views is missing.
const undefinedFunction = "42883"

// NewPostgresStore connects to dsn and ensures the schema exists.
func NewPostgresStore(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure postgres schema: %w", err)
	}
	return &SQLStore{db: db, d: postgresDialect()}, nil
}

func postgresDialect() dialect {
	return dialect{
		name:    "postgres",
		bind:    rebindDollar,
		timeArg: func(t time.Time) any { return t.UTC() },
		increment: func(ctx context.Context, db *sql.DB, id string) error {
			// the function mirrors the hosted RPC and silently ignores unknown ids
			_, err := db.ExecContext(ctx, "SELECT increment_video_views($1)", id)
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && string(pqErr.Code) == undefinedFunction {
				return incrementByUpdate(ctx, db, "UPDATE videos SET views = views + 1 WHERE id = $1", id)
			}
			if err != nil {
				return fmt.Errorf("increment views %s: %w", id, err)
			}
			return nil
		},
	}
}

// rebindDollar rewrites ? placeholders to $1..$n.
func rebindDollar(q string) string {
	var b strings.Builder
	b.Grow(len(q) + 16)
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}
