package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/rs/zerolog"

	"github.com/milk9111/pinboard/board"
	"github.com/milk9111/pinboard/config"
	"github.com/milk9111/pinboard/diag"
	"github.com/milk9111/pinboard/ecs"
	"github.com/milk9111/pinboard/ecs/component"
	"github.com/milk9111/pinboard/ecs/system"
	"github.com/milk9111/pinboard/geom"
	"github.com/milk9111/pinboard/render"
	"github.com/milk9111/pinboard/script"
	"github.com/milk9111/pinboard/store"
	"github.com/milk9111/pinboard/viewport"
)

// Game wires the board, the store, and the systems into the ebiten
// loop. Everything runs on the game goroutine; the systems own their
// worker goroutines internally.
type Game struct {
	cfg config.Config
	log zerolog.Logger

	db    *store.Store
	board *board.Board
	state *viewport.State
	nav   *viewport.Navigator
	perf  *viewport.PerfMonitor
	memo  *render.Memoizer

	scheduler *ecs.Scheduler
	culling   *system.CullingSystem
	streaming *system.StreamingSystem
	autosave  *system.AutosaveSystem

	watcher *store.Watcher
	server  *diag.Server
	metrics *diag.Metrics

	ui          *toolbar
	hud         bool
	clipboardOK bool
	lastFrame   time.Time
}

func NewGame(cfg config.Config, db *store.Store, log zerolog.Logger) (*Game, error) {
	b := board.New(log)
	state := viewport.NewState(cfg.Zoom)
	state.SetScreenSize(float64(cfg.Window.Width), float64(cfg.Window.Height))
	nav := viewport.NewNavigator(state, cfg.Navigation.Build())
	memo := render.NewMemoizer()
	perf := viewport.NewPerfMonitor(0, 0)
	metrics := diag.NewMetrics()

	g := &Game{
		cfg:     cfg,
		log:     log,
		db:      db,
		board:   b,
		state:   state,
		nav:     nav,
		perf:    perf,
		memo:    memo,
		metrics: metrics,
	}

	if cfg.Diag.Enabled {
		g.server = diag.NewServer(cfg.Diag.Addr, log, metrics)
		g.server.Start()
	}
	if cfg.Import.Enabled {
		if err := os.MkdirAll(cfg.Import.Dir, 0o755); err != nil {
			log.Warn().Err(err).Str("dir", cfg.Import.Dir).Msg("import watcher disabled")
		} else if w, err := store.NewWatcher(cfg.Import.Dir); err != nil {
			log.Warn().Err(err).Str("dir", cfg.Import.Dir).Msg("import watcher disabled")
		} else {
			g.watcher = w
		}
	}

	navSys := system.NewNavigationSystem(state, nav, b)
	dragSys := system.NewDragSystem(state, b, memo, navSys, log)
	cullSys := system.NewCullingSystem(b, state, viewport.NewCuller(cfg.Culling), perf, metrics)
	streamSys := system.NewStreamingSystem(b, db, cfg.Stream.SettleDelay(), system.DefaultPrefetchMargin, log, metrics)
	scriptSys := system.NewScriptSystem(b, script.NewEvaluator(cfg.Script.Timeout()), log, metrics)
	autoSys := system.NewAutosaveSystem(b, db, state, cfg.AutosaveInterval(), log, metrics)
	importSys := system.NewImportSystem(b, db, state, g.watcher, log)
	renderSys := system.NewRenderSystem(b, cullSys, memo, db, log)

	g.scheduler = ecs.NewScheduler(navSys, dragSys, cullSys, streamSys, scriptSys, autoSys, importSys, renderSys)
	g.culling = cullSys
	g.streaming = streamSys
	g.autosave = autoSys

	memo.BindDragEnd(func(uuid.UUID, geom.Rect) { autoSys.FlushSoon() })
	memo.BindHover(func(cardID uint64) { b.SetHover(ecs.Entity(cardID)) })
	state.Subscribe(func(viewport.Viewport) { streamSys.Notify(state.VisibleBounds()) })

	g.restoreViewport()
	streamSys.Notify(state.VisibleBounds())

	g.ui = newToolbar(g)
	g.initClipboard()
	g.lastFrame = time.Now()
	return g, nil
}

// restoreViewport reopens the board where the last session left it.
func (g *Game) restoreViewport() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	vp, ok, err := g.db.LoadViewport(ctx)
	if err != nil {
		g.log.Warn().Err(err).Msg("restore viewport")
		return
	}
	if !ok {
		return
	}
	g.state.SetZoom(vp.Zoom, geom.Vec{})
	g.state.SetPosition(vp.Position)
}

func (g *Game) Update() error {
	now := time.Now()
	frame := now.Sub(g.lastFrame)
	g.lastFrame = now

	g.ui.Update()
	g.hotkeys()

	g.scheduler.Update(g.board.World())

	g.perf.Sample(frame)
	g.metrics.ObserveFrame(frame)
	g.publishStats(frame)
	g.ui.Refresh(g)
	return nil
}

func (g *Game) hotkeys() {
	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		g.hud = !g.hud
	}
	ctrl := ebiten.IsKeyPressed(ebiten.KeyControl) || ebiten.IsKeyPressed(ebiten.KeyMeta)
	if !ctrl {
		return
	}
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyV):
		g.pasteClipboard()
	case inpututil.IsKeyJustPressed(ebiten.KeyN):
		g.spawnNote()
	case inpututil.IsKeyJustPressed(ebiten.KeyE):
		g.exportVisible()
	case inpututil.IsKeyJustPressed(ebiten.KeyB):
		g.exportAll()
	}
}

func (g *Game) publishStats(frame time.Duration) {
	if g.server == nil {
		return
	}
	res := g.culling.Result()
	hits, misses := g.memo.Stats()
	g.server.Publish(diag.Stats{
		FPS:           ebiten.ActualFPS(),
		FrameTimeMS:   float64(frame) / float64(time.Millisecond),
		Cards:         res.TotalEntities,
		VisibleCards:  res.VisibleEntities,
		Zoom:          g.state.Viewport().Zoom,
		NavState:      g.nav.Mode().String(),
		LevelOfDetail: g.culling.Tier().String(),
		Truncated:     res.Truncated > 0,
		MemoHits:      hits,
		MemoMisses:    misses,
	})
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.scheduler.Draw(g.board.World(), screen, g.state.Viewport())
	g.ui.Draw(screen)
	if g.hud {
		g.drawHUD(screen)
	}
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	g.state.SetScreenSize(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}

// goHome recenters on the content, or resets the camera on an empty
// board.
func (g *Game) goHome() {
	if bounds, ok := g.board.ContentBounds(); ok {
		g.nav.PanTo(bounds.Center())
		return
	}
	g.nav.StopAllAnimations()
	g.state.Reset()
}

// spawnNote drops a fresh note card at the view center.
func (g *Game) spawnNote() {
	g.spawnSeed(board.Seed{Kind: component.CardNote, Title: "Note", Color: 0xfff4b8ff}, 260, 160)
}

// spawnSeed centers seed in the view, selects it, and queues the save.
func (g *Game) spawnSeed(seed board.Seed, w, h float64) {
	sw, sh := g.state.ScreenSize()
	center := viewport.ScreenToWorld(geom.Vec{X: sw / 2, Y: sh / 2}, g.state.Viewport())
	seed.Bounds = geom.NewRect(center.X-w/2, center.Y-h/2, center.X+w/2, center.Y+h/2)
	e, err := g.board.Spawn(seed)
	if err != nil {
		g.log.Warn().Err(err).Msg("spawn card")
		return
	}
	g.board.Select(e)
	g.board.MarkDirty(e)
	g.autosave.FlushSoon()
}

// exportVisible saves the current view to a timestamped PNG.
func (g *Game) exportVisible() {
	g.exportRegion(g.state.VisibleBounds())
}

// exportAll saves every card on the board to a timestamped PNG.
func (g *Game) exportAll() {
	region, ok := g.board.ContentBounds()
	if !ok {
		g.log.Warn().Msg("export: board is empty")
		return
	}
	g.exportRegion(region)
}

func (g *Game) exportRegion(region geom.Rect) {
	path := fmt.Sprintf("pinboard-%s.png", time.Now().Format("20060102-150405"))
	if err := writeBoardPNG(g.board, g.memo, g.db, region, path, g.log); err != nil {
		g.log.Error().Err(err).Msg("export failed")
	}
}

// Shutdown flushes pending work and stops the background pieces. Runs
// after the window closes.
func (g *Game) Shutdown() {
	g.autosave.Flush(g.board.World())
	g.streaming.Close()
	if g.watcher != nil {
		g.watcher.Close()
	}
	if g.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := g.server.Shutdown(ctx); err != nil {
			g.log.Warn().Err(err).Msg("diagnostics shutdown")
		}
	}
	g.log.Info().Msg("shut down")
}
