package main

import (
	"context"
	"flag"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog"

	"github.com/milk9111/pinboard/boards"
	"github.com/milk9111/pinboard/config"
	"github.com/milk9111/pinboard/store"
)

func main() {
	configPath := flag.String("config", "pinboard.yaml", "config file path")
	dbPath := flag.String("db", "", "database path (overrides config)")
	boardFile := flag.String("board", "", "board YAML used to seed an empty database")
	exportPath := flag.String("export", "", "render the whole board to a PNG and exit")
	showHUD := flag.Bool("hud", false, "start with the debug overlay visible")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	log := newLogger(cfg.Log)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if *dbPath != "" {
		cfg.Store.Path = *dbPath
	}

	db, err := store.Open(cfg.Store.Path, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}
	defer db.Close()

	if err := seedIfEmpty(db, *boardFile, log); err != nil {
		log.Fatal().Err(err).Msg("seed board")
	}

	if *exportPath != "" {
		if err := exportHeadless(db, cfg, *exportPath, log); err != nil {
			log.Fatal().Err(err).Msg("export board")
		}
		return
	}

	game, err := NewGame(cfg, db, log)
	if err != nil {
		log.Fatal().Err(err).Msg("start")
	}
	game.hud = *showHUD

	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetWindowTitle(cfg.Window.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	err = ebiten.RunGame(game)
	game.Shutdown()
	if err != nil {
		log.Fatal().Err(err).Msg("run")
	}
}

// seedIfEmpty loads a board document into a fresh database so first
// launch opens onto something explorable. A database that already has
// cards is left alone.
func seedIfEmpty(db *store.Store, boardFile string, log zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	n, err := db.CountCards(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var f *boards.File
	if boardFile != "" {
		f, err = boards.Load(boardFile)
	} else {
		f, err = boards.Starter()
	}
	if err != nil {
		return err
	}

	cards, edges, err := f.Rows()
	if err != nil {
		return err
	}
	if err := db.UpsertCards(ctx, cards); err != nil {
		return err
	}
	for _, edge := range edges {
		if err := db.UpsertConnector(ctx, edge); err != nil {
			return err
		}
	}
	log.Info().Str("board", f.Name).Int("cards", len(cards)).Int("connectors", len(edges)).Msg("seeded board")
	return nil
}
