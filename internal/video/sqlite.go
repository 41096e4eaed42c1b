package video

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver
)

// Compile-time check that SQLiteRepository implements Repository.
var _ Repository = (*SQLiteRepository)(nil)

// defaultTimeout bounds the initial connection check.
const defaultTimeout = 5 * time.Second

const schema = `
CREATE TABLE IF NOT EXISTS videos (
	id            TEXT PRIMARY KEY,
	owner_id      TEXT NOT NULL,
	title         TEXT NOT NULL DEFAULT '',
	description   TEXT NOT NULL DEFAULT '',
	video_key     TEXT NOT NULL DEFAULT '',
	thumbnail_key TEXT NOT NULL DEFAULT '',
	created_at    INTEGER NOT NULL,
	updated_at    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_videos_owner ON videos(owner_id, created_at);
`

// SQLiteRepository implements Repository on a SQLite database file.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (or creates) the database at dbPath and
// initializes the schema.
func NewSQLiteRepository(ctx context.Context, dbPath string) (*SQLiteRepository, error) {
	// busy_timeout helps prevent "database is locked" errors under concurrent uploads
	connStr := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Close closes the underlying database.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Create inserts a new video row.
func (r *SQLiteRepository) Create(ctx context.Context, v *Video) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO videos (id, owner_id, title, description, video_key, thumbnail_key, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.OwnerID, v.Title, v.Description, v.VideoKey, v.ThumbnailKey,
		v.CreatedAt.UnixNano(), v.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert video %s: %w", v.ID, err)
	}
	return nil
}

// FindByID retrieves a video by its ID.
func (r *SQLiteRepository) FindByID(ctx context.Context, id string) (*Video, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, title, description, video_key, thumbnail_key, created_at, updated_at
		FROM videos WHERE id = ?`, id)

	v, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVideoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select video %s: %w", id, err)
	}
	return v, nil
}

// ListByOwner returns the owner's videos, newest first.
func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string) ([]*Video, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, title, description, video_key, thumbnail_key, created_at, updated_at
		FROM videos WHERE owner_id = ? ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]*Video, 0)
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return result, nil
}

// Update overwrites the mutable columns of an existing video.
func (r *SQLiteRepository) Update(ctx context.Context, v *Video) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE videos
		SET title = ?, description = ?, video_key = ?, thumbnail_key = ?, updated_at = ?
		WHERE id = ?`,
		v.Title, v.Description, v.VideoKey, v.ThumbnailKey, time.Now().UTC().UnixNano(), v.ID,
	)
	if err != nil {
		return fmt.Errorf("update video %s: %w", v.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update video %s: %w", v.ID, err)
	}
	if n == 0 {
		return ErrVideoNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVideo(s scanner) (*Video, error) {
	var (
		v                    Video
		createdAt, updatedAt int64
	)
	if err := s.Scan(&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.VideoKey, &v.ThumbnailKey, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	v.CreatedAt = time.Unix(0, createdAt).UTC()
	v.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &v, nil
}
