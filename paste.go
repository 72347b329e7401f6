package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/png"
	"strings"
	"time"

	"golang.design/x/clipboard"

	"github.com/milk9111/pinboard/board"
	"github.com/milk9111/pinboard/ecs/component"
	"github.com/milk9111/pinboard/geom"
)

// initClipboard readies the system clipboard. Paste quietly disables
// itself on platforms where init fails, such as headless X sessions.
func (g *Game) initClipboard() {
	if err := clipboard.Init(); err != nil {
		g.log.Warn().Err(err).Msg("clipboard unavailable")
		return
	}
	g.clipboardOK = true
}

// pasteClipboard turns the clipboard into a card at the view center:
// images become image cards, bare URLs link cards, and any other text a
// note.
func (g *Game) pasteClipboard() {
	if !g.clipboardOK {
		return
	}
	if data := clipboard.Read(clipboard.FmtImage); len(data) > 0 {
		g.pasteImage(data)
		return
	}
	if data := clipboard.Read(clipboard.FmtText); len(data) > 0 {
		g.pasteText(string(data))
	}
}

func (g *Game) pasteText(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	seed := board.Seed{Kind: component.CardNote, Body: text, Color: 0xfff4b8ff}
	if isBareURL(text) {
		seed.Kind = component.CardLink
		seed.Color = 0xdbe7f4ff
	}
	g.spawnSeed(seed, 260, 160)
}

func (g *Game) pasteImage(data []byte) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		g.log.Warn().Err(err).Msg("paste: undecodable image")
		return
	}

	key := fmt.Sprintf("paste-%d.png", time.Now().UnixNano())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := g.db.PutBlob(ctx, key, data); err != nil {
		g.log.Warn().Err(err).Msg("paste: store image")
		return
	}

	w := 260.0
	h := geom.Clamp(w*float64(cfg.Height)/float64(cfg.Width), 80, 420)
	g.spawnSeed(board.Seed{
		Kind:     component.CardImage,
		Title:    "pasted image",
		Color:    0xffffffff,
		ImageKey: key,
	}, w, h+32)
}

// isBareURL reports whether text is a single http(s) URL with nothing
// around it.
func isBareURL(text string) bool {
	if !strings.HasPrefix(text, "http://") && !strings.HasPrefix(text, "https://") {
		return false
	}
	return !strings.ContainsAny(text, " \t\n")
}
