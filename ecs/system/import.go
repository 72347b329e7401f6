package system

import (
	"bytes"
	"context"
	"image"
	"os"
	"path/filepath"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	"github.com/rs/zerolog"

	"github.com/milk9111/pinboard/board"
	"github.com/milk9111/pinboard/ecs"
	"github.com/milk9111/pinboard/ecs/component"
	"github.com/milk9111/pinboard/geom"
	"github.com/milk9111/pinboard/store"
	"github.com/milk9111/pinboard/viewport"
)

const (
	importCardW     = 260.0
	importCascade   = 28.0
	defaultCardTint = 0xfff4b8ff
)

// ImportSystem turns files dropped into the watched directory into
// cards near the middle of the current view. Text and markdown become
// note cards, images become image cards backed by a blob row, .tengo
// sources become live code cards, and .url shortcuts become link cards.
type ImportSystem struct {
	board   *board.Board
	db      *store.Store
	state   *viewport.State
	watcher *store.Watcher
	log     zerolog.Logger

	n int // cascade offset so stacked imports stay visible
}

func NewImportSystem(b *board.Board, db *store.Store, state *viewport.State, watcher *store.Watcher, log zerolog.Logger) *ImportSystem {
	return &ImportSystem{board: b, db: db, state: state, watcher: watcher, log: log}
}

func (s *ImportSystem) Update(_ *ecs.World) {
	if s == nil || s.watcher == nil {
		return
	}
	for {
		select {
		case path := <-s.watcher.Events:
			s.Ingest(path)
		case err := <-s.watcher.Errors:
			s.log.Warn().Err(err).Msg("import watcher error")
		default:
			return
		}
	}
}

// Ingest reads one file and spawns its card. Failures log and skip the
// file; the watcher keeps running.
func (s *ImportSystem) Ingest(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("import read failed")
		return
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var seed board.Seed
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg":
		seed, err = s.imageSeed(path, name, data)
	case ".tengo":
		seed = board.Seed{Kind: component.CardCode, Title: name, Body: string(data)}
	case ".url":
		seed = board.Seed{Kind: component.CardLink, Title: name, Body: shortcutURL(data), Color: defaultCardTint}
	default:
		seed = board.Seed{Kind: component.CardNote, Title: name, Body: string(data), Color: defaultCardTint}
	}
	if err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("import rejected")
		return
	}

	if !seed.Bounds.Valid() {
		seed.Bounds = s.placement(importCardW, importCardW*0.62)
	}
	e, err := s.board.Spawn(seed)
	if err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("import spawn failed")
		return
	}
	s.board.MarkDirty(e)
	s.log.Info().Str("path", path).Str("kind", seed.Kind.String()).Msg("imported card")
}

func (s *ImportSystem) imageSeed(path, name string, data []byte) (board.Seed, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return board.Seed{}, err
	}

	key := filepath.Base(path)
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := s.db.PutBlob(ctx, key, data); err != nil {
		return board.Seed{}, err
	}

	h := importCardW * 0.62
	if cfg.Width > 0 {
		h = geom.Clamp(importCardW*float64(cfg.Height)/float64(cfg.Width), 80, 420)
	}
	return board.Seed{
		Kind:     component.CardImage,
		Title:    name,
		Color:    0xffffffff,
		ImageKey: key,
		Bounds:   s.placement(importCardW, h+32),
	}, nil
}

// placement picks a spot near the view center, stepping diagonally per
// import so a batch fans out instead of stacking.
func (s *ImportSystem) placement(w, h float64) geom.Rect {
	screenW, screenH := s.state.ScreenSize()
	center := viewport.ScreenToWorld(geom.Vec{X: screenW / 2, Y: screenH / 2}, s.state.Viewport())
	off := float64(s.n%8) * importCascade
	s.n++
	return geom.Rect{
		MinX: center.X - w/2 + off,
		MinY: center.Y - h/2 + off,
		MaxX: center.X + w/2 + off,
		MaxY: center.Y + h/2 + off,
	}
}

// shortcutURL pulls the target out of a .url internet shortcut, falling
// back to the first non-empty line.
func shortcutURL(data []byte) string {
	fallback := ""
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(line, "URL="); ok {
			return rest
		}
		if fallback == "" && !strings.HasPrefix(line, "[") {
			fallback = line
		}
	}
	return fallback
}
