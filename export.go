package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"github.com/rs/zerolog"

	"github.com/milk9111/pinboard/board"
	"github.com/milk9111/pinboard/config"
	"github.com/milk9111/pinboard/ecs"
	"github.com/milk9111/pinboard/ecs/component"
	"github.com/milk9111/pinboard/export"
	"github.com/milk9111/pinboard/geom"
	"github.com/milk9111/pinboard/render"
	"github.com/milk9111/pinboard/script"
	"github.com/milk9111/pinboard/store"
	"github.com/milk9111/pinboard/viewport"
)

// exportHeadless renders every card in the store to a PNG without
// opening a window. Code cards evaluate first so the image shows their
// output instead of a blank result box.
func exportHeadless(db *store.Store, cfg config.Config, path string, log zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cards, err := db.AllCards(ctx)
	if err != nil {
		return err
	}
	if len(cards) == 0 {
		return fmt.Errorf("nothing to export")
	}

	b := board.New(log)
	for _, c := range cards {
		if _, err := b.Spawn(cardSeed(c)); err != nil {
			return err
		}
	}
	edges, err := db.Connectors(ctx)
	if err != nil {
		return err
	}
	for _, edge := range edges {
		if _, err := b.Connect(edge.From, edge.To); err != nil {
			log.Warn().Err(err).Msg("export: skipping connector")
		}
	}

	evalCodeCards(b, script.NewEvaluator(cfg.Script.Timeout()))

	region, _ := b.ContentBounds()
	return writeBoardPNG(b, render.NewMemoizer(), db, region, path, log)
}

// writeBoardPNG rasterizes the region: connector lines under card
// display lists, everything at full detail.
func writeBoardPNG(b *board.Board, memo *render.Memoizer, db *store.Store, region geom.Rect, path string, log zerolog.Logger) error {
	cards := b.CardsIn(region)
	ents := make([]viewport.Entity, 0, len(cards))
	for _, e := range cards {
		ents = append(ents, viewport.Entity{ID: uint64(e)})
	}
	snaps := b.Snapshots(ents, viewport.TierHigh)
	lists := make([]render.DisplayList, 0, len(snaps))
	for _, s := range snaps {
		lists = append(lists, *memo.Render(s))
	}

	opts := export.Options{
		Padding: 40,
		Images: func(key string) (image.Image, bool) {
			data, err := db.GetBlob(context.Background(), key)
			if err != nil {
				return nil, false
			}
			img, _, err := image.Decode(bytes.NewReader(data))
			if err != nil {
				return nil, false
			}
			return img, true
		},
	}
	if err := export.SavePNG(path, lists, connectorLines(b), region, opts); err != nil {
		return err
	}
	log.Info().Str("path", path).Int("cards", len(lists)).Msg("exported board")
	return nil
}

// connectorLines projects every edge with both endpoints mounted into
// world-space segments.
func connectorLines(b *board.Board) []export.Line {
	w := b.World()
	var lines []export.Line
	ecs.ForEach(w, component.ConnectorComponent.Kind(), func(_ ecs.Entity, conn *component.Connector) {
		from, ok := b.EntityByID(conn.From)
		if !ok {
			return
		}
		to, ok := b.EntityByID(conn.To)
		if !ok {
			return
		}
		fp, ok := ecs.Get(w, from, component.PlacementComponent.Kind())
		if !ok {
			return
		}
		tp, ok := ecs.Get(w, to, component.PlacementComponent.Kind())
		if !ok {
			return
		}
		lines = append(lines, export.Line{
			From:  fp.Bounds.Center(),
			To:    tp.Bounds.Center(),
			Color: 0x8a857890,
			Width: 2,
		})
	})
	return lines
}

func cardSeed(c store.Card) board.Seed {
	return board.Seed{
		ID:       c.ID,
		Kind:     c.Kind,
		Title:    c.Title,
		Body:     c.Body,
		Color:    c.Color,
		ImageKey: c.ImageKey,
		Revision: c.Revision,
		Bounds:   c.Bounds,
		Z:        c.Z,
		Priority: c.Priority,
		Pinned:   c.Pinned,
	}
}

// evalCodeCards runs every code card synchronously, attaching results
// in place.
func evalCodeCards(b *board.Board, eval *script.Evaluator) {
	w := b.World()
	ecs.ForEach(w, component.CardComponent.Kind(), func(e ecs.Entity, card *component.Card) {
		if card.Kind != component.CardCode {
			return
		}
		out, err := eval.Eval(context.Background(), card.Body)
		res := component.ScriptResult{Output: out, RunRevision: card.Revision}
		if err != nil {
			res.Err = err.Error()
		}
		if existing, ok := ecs.Get(w, e, component.ScriptResultComponent.Kind()); ok {
			*existing = res
			return
		}
		_ = ecs.Add(w, e, component.ScriptResultComponent.Kind(), &res)
	})
}
