package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/milk9111/pinboard/viewport"
)

const metaViewportKey = "viewport"

type viewportRow struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// SaveViewport persists the camera so the next session resumes where
// this one left off.
func (s *Store) SaveViewport(ctx context.Context, v viewport.Viewport) error {
	raw, err := json.Marshal(viewportRow{X: v.Position.X, Y: v.Position.Y, Zoom: v.Zoom})
	if err != nil {
		return fmt.Errorf("store: save viewport: %w", err)
	}
	return s.SetMeta(ctx, metaViewportKey, string(raw))
}

// LoadViewport restores the persisted camera. The second return is
// false when no viewport has been saved yet.
func (s *Store) LoadViewport(ctx context.Context) (viewport.Viewport, bool, error) {
	raw, err := s.GetMeta(ctx, metaViewportKey)
	if errors.Is(err, ErrNotFound) {
		return viewport.Viewport{}, false, nil
	}
	if err != nil {
		return viewport.Viewport{}, false, err
	}
	var row viewportRow
	if err := json.Unmarshal([]byte(raw), &row); err != nil {
		return viewport.Viewport{}, false, fmt.Errorf("store: load viewport: %w", err)
	}
	v := viewport.Viewport{Zoom: row.Zoom}
	v.Position.X = row.X
	v.Position.Y = row.Y
	return v, true, nil
}

// SetMeta writes one key/value pair.
func (s *Store) SetMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meta (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		return fmt.Errorf("store: set meta %s: %w", key, err)
	}
	return nil
}

// GetMeta reads one key, returning ErrNotFound for missing keys.
func (s *Store) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("store: get meta %s: %w", key, err)
	}
	return value, nil
}

// PutBlob stores raw image bytes under key.
func (s *Store) PutBlob(ctx context.Context, key string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blobs (key, data) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data`,
		key, data)
	if err != nil {
		return fmt.Errorf("store: put blob %s: %w", key, err)
	}
	return nil
}

// GetBlob reads raw image bytes, returning ErrNotFound for missing keys.
func (s *Store) GetBlob(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM blobs WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get blob %s: %w", key, err)
	}
	return data, nil
}
