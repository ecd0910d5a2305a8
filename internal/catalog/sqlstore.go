// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// dialect captures the differences between the SQL backends.
type dialect struct {
	name string
	// bind rewrites "?" placeholders for the driver.
	bind func(query string) string
	// timeArg converts an upload date to a driver argument.
	timeArg func(t time.Time) any
	// increment adds one view; it reports whether a row was touched when known.
	increment func(ctx context.Context, db *sql.DB, id string) error
}

// SQLStore implements Store over database/sql.
type SQLStore struct {
	db *sql.DB
	d  dialect
}

const videoColumns = `
	v.id, v.title, v.description, v.thumbnail_url, v.video_url, v.duration, v.views,
	v.category_id, v.client, v.upload_date, v.renditions,
	c.id, c.name, c.slug, c.description, c.banner_url
FROM videos v
LEFT JOIN video_categories c ON c.id = v.category_id`

const newestFirst = ` ORDER BY v.upload_date IS NULL, v.upload_date DESC, v.id`

// Backend names the SQL dialect for metrics labels.
func (s *SQLStore) Backend() string { return s.d.name }

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// DB exposes the handle for maintenance tasks.
func (s *SQLStore) DB() *sql.DB { return s.db }

// Ping implements Store.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ListVideos implements Store.
func (s *SQLStore) ListVideos(ctx context.Context) ([]Video, error) {
	return s.queryVideos(ctx, "SELECT"+videoColumns+newestFirst)
}

// ListVideosByCategoryID implements Store.
func (s *SQLStore) ListVideosByCategoryID(ctx context.Context, categoryID string) ([]Video, error) {
	if categoryID == "" {
		return nil, ErrInvalidID
	}
	return s.queryVideos(ctx, "SELECT"+videoColumns+" WHERE v.category_id = ?"+newestFirst, categoryID)
}

// GetVideo implements Store.
func (s *SQLStore) GetVideo(ctx context.Context, id string) (*Video, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	row := s.db.QueryRowContext(ctx, s.d.bind("SELECT"+videoColumns+" WHERE v.id = ?"), id)
	v, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get video %s: %w", id, err)
	}
	return v, nil
}

// ListCategories implements Store.
func (s *SQLStore) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, slug, description, banner_url FROM video_categories ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

// GetCategoryBySlug implements Store.
func (s *SQLStore) GetCategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	if slug == "" {
		return nil, ErrInvalidID
	}
	row := s.db.QueryRowContext(ctx, s.d.bind("SELECT id, name, slug, description, banner_url FROM video_categories WHERE slug = ?"), slug)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get category %s: %w", slug, err)
	}
	return c, nil
}

// IncrementViews implements Store.
func (s *SQLStore) IncrementViews(ctx context.Context, videoID string) error {
	if videoID == "" {
		return ErrInvalidID
	}
	return s.d.increment(ctx, s.db, videoID)
}

func incrementByUpdate(ctx context.Context, db *sql.DB, query, id string) error {
	res, err := db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("increment views %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertCategory inserts or replaces a category by id.
func (s *SQLStore) UpsertCategory(ctx context.Context, c Category) error {
	_, err := s.db.ExecContext(ctx, s.d.bind(`
	INSERT INTO video_categories (id, name, slug, description, banner_url)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		name = excluded.name,
		slug = excluded.slug,
		description = excluded.description,
		banner_url = excluded.banner_url`),
		c.ID, c.Name, c.Slug, nullString(c.Description), nullString(c.BannerURL))
	if err != nil {
		return fmt.Errorf("upsert category %s: %w", c.Slug, err)
	}
	return nil
}

// UpsertVideo inserts or replaces a video by id. Existing view counts are kept
// unless the new value is higher.
func (s *SQLStore) UpsertVideo(ctx context.Context, v Video) error {
	var renditions any
	if len(v.Renditions) > 0 {
		raw, err := json.Marshal(v.Renditions)
		if err != nil {
			return fmt.Errorf("encode renditions: %w", err)
		}
		renditions = string(raw)
	}
	var upload any
	if !v.UploadDate.IsZero() {
		upload = s.d.timeArg(v.UploadDate)
	}
	_, err := s.db.ExecContext(ctx, s.d.bind(`
	INSERT INTO videos (id, title, description, thumbnail_url, video_url, duration, views,
		category_id, client, upload_date, renditions)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		title = excluded.title,
		description = excluded.description,
		thumbnail_url = excluded.thumbnail_url,
		video_url = excluded.video_url,
		duration = excluded.duration,
		views = CASE WHEN excluded.views > videos.views THEN excluded.views ELSE videos.views END,
		category_id = excluded.category_id,
		client = excluded.client,
		upload_date = excluded.upload_date,
		renditions = excluded.renditions`),
		v.ID, v.Title, nullString(v.Description), nullString(v.ThumbnailURL), v.VideoURL,
		nullString(v.Duration), v.Views, nullString(v.CategoryID), nullString(v.Client), upload, renditions)
	if err != nil {
		return fmt.Errorf("upsert video %s: %w", v.ID, err)
	}
	return nil
}

func (s *SQLStore) queryVideos(ctx context.Context, query string, args ...any) ([]Video, error) {
	rows, err := s.db.QueryContext(ctx, s.d.bind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []Video{}
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVideo(row scanner) (*Video, error) {
	var (
		v                                 Video
		description, thumb, duration      sql.NullString
		categoryID, client                sql.NullString
		views                             sql.NullInt64
		upload                            timeColumn
		renditions                        renditionsColumn
		cID, cName, cSlug, cDesc, cBanner sql.NullString
	)
	err := row.Scan(
		&v.ID, &v.Title, &description, &thumb, &v.VideoURL, &duration, &views,
		&categoryID, &client, &upload, &renditions,
		&cID, &cName, &cSlug, &cDesc, &cBanner,
	)
	if err != nil {
		return nil, err
	}
	v.Description = description.String
	v.ThumbnailURL = thumb.String
	v.Duration = duration.String
	v.Views = views.Int64
	v.CategoryID = categoryID.String
	v.Client = client.String
	v.UploadDate = upload.Time
	v.Renditions = renditions.m
	if cID.Valid {
		v.Category = &Category{
			ID:          cID.String,
			Name:        cName.String,
			Slug:        cSlug.String,
			Description: cDesc.String,
			BannerURL:   cBanner.String,
		}
	}
	return &v, nil
}

func scanCategory(row scanner) (*Category, error) {
	var (
		c            Category
		desc, banner sql.NullString
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &desc, &banner); err != nil {
		return nil, err
	}
	c.Description = desc.String
	c.BannerURL = banner.String
	return &c, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// timeColumn scans timestamps stored natively or as text.
type timeColumn struct {
	Time time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *timeColumn) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (t *timeColumn) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unparseable timestamp %q", s)
}

// renditionsColumn scans a JSON object of quality label to URL.
type renditionsColumn struct {
	m map[string]string
}

func (r *renditionsColumn) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		r.m = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported renditions type %T", src)
	}
	if len(raw) == 0 {
		r.m = nil
		return nil
	}
	return json.Unmarshal(raw, &r.m)
}
