// Package store persists boards to SQLite: card rows with indexed
// bounds columns for region queries, connector edges, image blobs, and
// a small metadata table for session state.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/milk9111/pinboard/ecs/component"
	"github.com/milk9111/pinboard/geom"
)

// ErrNotFound reports a missing row.
var ErrNotFound = errors.New("store: not found")

// Card is one persisted card row.
type Card struct {
	ID       uuid.UUID
	Kind     component.CardKind
	Title    string
	Body     string
	Color    uint32
	ImageKey string
	Revision uint64
	Bounds   geom.Rect
	Z        int
	Priority float64
	Pinned   bool
}

// Connector is one persisted edge row.
type Connector struct {
	ID   uuid.UUID
	From uuid.UUID
	To   uuid.UUID
}

// Store wraps the SQLite handle. Safe for concurrent use; the streaming
// fetcher reads from a worker goroutine while autosave writes from the
// game loop.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens or creates the database at path and runs migrations.
// ":memory:" opens an in-process database, handy for tests.
func Open(path string, log zerolog.Logger) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if path == ":memory:" {
		// Every pool connection would otherwise get its own database.
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, log: log}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrate %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cards (
		id TEXT PRIMARY KEY,
		kind INTEGER NOT NULL DEFAULT 0,
		title TEXT NOT NULL DEFAULT '',
		body TEXT NOT NULL DEFAULT '',
		color INTEGER NOT NULL DEFAULT 0,
		image_key TEXT NOT NULL DEFAULT '',
		revision INTEGER NOT NULL DEFAULT 0,
		min_x REAL NOT NULL,
		min_y REAL NOT NULL,
		max_x REAL NOT NULL,
		max_y REAL NOT NULL,
		z INTEGER NOT NULL DEFAULT 0,
		priority REAL NOT NULL DEFAULT 0,
		pinned INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS connectors (
		id TEXT PRIMARY KEY,
		from_id TEXT NOT NULL,
		to_id TEXT NOT NULL,
		FOREIGN KEY (from_id) REFERENCES cards(id) ON DELETE CASCADE,
		FOREIGN KEY (to_id) REFERENCES cards(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS blobs (
		key TEXT PRIMARY KEY,
		data BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_cards_bounds ON cards(min_x, max_x, min_y, max_y);
	CREATE INDEX IF NOT EXISTS idx_connectors_from ON connectors(from_id);
	CREATE INDEX IF NOT EXISTS idx_connectors_to ON connectors(to_id);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_connectors_pair ON connectors(from_id, to_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

const cardColumns = `id, kind, title, body, color, image_key, revision,
	min_x, min_y, max_x, max_y, z, priority, pinned`

func scanCard(rows interface{ Scan(...any) error }) (Card, error) {
	var (
		c      Card
		id     string
		pinned int
	)
	err := rows.Scan(&id, &c.Kind, &c.Title, &c.Body, &c.Color, &c.ImageKey, &c.Revision,
		&c.Bounds.MinX, &c.Bounds.MinY, &c.Bounds.MaxX, &c.Bounds.MaxY,
		&c.Z, &c.Priority, &pinned)
	if err != nil {
		return Card{}, err
	}
	c.ID, err = uuid.Parse(id)
	if err != nil {
		return Card{}, fmt.Errorf("store: card id %q: %w", id, err)
	}
	c.Pinned = pinned != 0
	return c, nil
}

// FetchRegion returns every card whose bounds intersect r, touching
// edges included.
func (s *Store) FetchRegion(ctx context.Context, r geom.Rect) ([]Card, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+cardColumns+` FROM cards
		WHERE min_x <= ? AND max_x >= ? AND min_y <= ? AND max_y >= ?`,
		r.MaxX, r.MinX, r.MaxY, r.MinY)
	if err != nil {
		return nil, fmt.Errorf("store: fetch region: %w", err)
	}
	defer rows.Close()

	var out []Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("store: fetch region: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: fetch region: %w", err)
	}
	s.log.Debug().Int("cards", len(out)).Dur("took", time.Since(start)).Msg("region fetch")
	return out, nil
}

// AllCards returns every card row, for export and the generator CLI.
func (s *Store) AllCards(ctx context.Context) ([]Card, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+cardColumns+` FROM cards`)
	if err != nil {
		return nil, fmt.Errorf("store: all cards: %w", err)
	}
	defer rows.Close()

	var out []Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("store: all cards: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: all cards: %w", err)
	}
	return out, nil
}

// GetCard returns one card by id.
func (s *Store) GetCard(ctx context.Context, id uuid.UUID) (Card, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE id = ?`, id.String())
	c, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Card{}, ErrNotFound
	}
	if err != nil {
		return Card{}, fmt.Errorf("store: get card %s: %w", id, err)
	}
	return c, nil
}

// UpsertCard writes one card row.
func (s *Store) UpsertCard(ctx context.Context, c Card) error {
	return s.upsert(ctx, s.db, c)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) upsert(ctx context.Context, ex execer, c Card) error {
	pinned := 0
	if c.Pinned {
		pinned = 1
	}
	_, err := ex.ExecContext(ctx, `
		INSERT INTO cards (`+cardColumns+`, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			title = excluded.title,
			body = excluded.body,
			color = excluded.color,
			image_key = excluded.image_key,
			revision = excluded.revision,
			min_x = excluded.min_x,
			min_y = excluded.min_y,
			max_x = excluded.max_x,
			max_y = excluded.max_y,
			z = excluded.z,
			priority = excluded.priority,
			pinned = excluded.pinned,
			updated_at = CURRENT_TIMESTAMP`,
		c.ID.String(), c.Kind, c.Title, c.Body, c.Color, c.ImageKey, c.Revision,
		c.Bounds.MinX, c.Bounds.MinY, c.Bounds.MaxX, c.Bounds.MaxY,
		c.Z, c.Priority, pinned)
	if err != nil {
		return fmt.Errorf("store: upsert card %s: %w", c.ID, err)
	}
	return nil
}

// UpsertCards writes a batch of card rows in one transaction.
func (s *Store) UpsertCards(ctx context.Context, cards []Card) error {
	if len(cards) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: upsert batch: %w", err)
	}
	for _, c := range cards {
		if err := s.upsert(ctx, tx, c); err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: upsert batch: %w", err)
	}
	s.log.Debug().Int("cards", len(cards)).Msg("flushed card batch")
	return nil
}

// DeleteCard removes one card row and its connectors.
func (s *Store) DeleteCard(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("store: delete card %s: %w", id, err)
	}
	_, err = s.db.ExecContext(ctx,
		`DELETE FROM connectors WHERE from_id = ? OR to_id = ?`, id.String(), id.String())
	if err != nil {
		return fmt.Errorf("store: delete card %s connectors: %w", id, err)
	}
	return nil
}

// CountCards returns the number of persisted cards.
func (s *Store) CountCards(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count cards: %w", err)
	}
	return n, nil
}

// UpsertConnector writes one edge row. Edges never change endpoints, so
// writing an id or a from/to pair that already exists is a no-op.
func (s *Store) UpsertConnector(ctx context.Context, c Connector) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO connectors (id, from_id, to_id) VALUES (?, ?, ?)`,
		c.ID.String(), c.From.String(), c.To.String())
	if err != nil {
		return fmt.Errorf("store: upsert connector %s: %w", c.ID, err)
	}
	return nil
}

// Connectors returns every edge row.
func (s *Store) Connectors(ctx context.Context) ([]Connector, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, from_id, to_id FROM connectors`)
	if err != nil {
		return nil, fmt.Errorf("store: connectors: %w", err)
	}
	defer rows.Close()

	var out []Connector
	for rows.Next() {
		var id, from, to string
		if err := rows.Scan(&id, &from, &to); err != nil {
			return nil, fmt.Errorf("store: connectors: %w", err)
		}
		c := Connector{}
		if c.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("store: connector id %q: %w", id, err)
		}
		if c.From, err = uuid.Parse(from); err != nil {
			return nil, fmt.Errorf("store: connector from %q: %w", from, err)
		}
		if c.To, err = uuid.Parse(to); err != nil {
			return nil, fmt.Errorf("store: connector to %q: %w", to, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
