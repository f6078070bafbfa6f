package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/shoal/camera"
	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/game"
	"github.com/pthm-cable/shoal/geom"
	"github.com/pthm-cable/shoal/renderer"
	"github.com/pthm-cable/shoal/sanctuary"
	"github.com/pthm-cable/shoal/ui"
	"github.com/pthm-cable/shoal/webhook"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output telemetry windows via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config, then time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per frame (higher = faster)")
	perf := flag.Bool("perf", false, "Collect per-phase tick timings")
	hook := flag.Bool("webhook", false, "Serve the HTTP stimulus bridge (overrides config)")
	hookAddr := flag.String("webhook-addr", "", "Listen address for the HTTP bridge (empty = config)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *hook {
		cfg.Webhook.Enabled = true
	}
	if *hookAddr != "" {
		cfg.Webhook.Addr = *hookAddr
	}

	opts := game.Options{
		Seed:      *seed,
		OutputDir: *outputDir,
		LogStats:  *logStats,
		Perf:      *perf || !*headless,
	}
	g, err := game.New(cfg, opts)
	if err != nil {
		slog.Error("failed to start simulation", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := g.Close(); err != nil {
			slog.Error("closing telemetry output", "error", err)
		}
	}()

	if cfg.Webhook.Enabled {
		srv := webhook.NewServer(cfg.Webhook, g)
		srv.Start()
		defer func() {
			if err := srv.Stop(); err != nil {
				slog.Warn("webhook shutdown", "error", err)
			}
		}()
	}

	steps := max(*stepsPerUpdate, 1)
	if *headless {
		runHeadless(g, cfg, *maxTicks, steps)
		return
	}
	runWindow(g, cfg, *maxTicks, steps)
}

// runHeadless steps the simulation without graphics. With the webhook
// enabled it runs in real time so external stimuli land at a sane rate;
// otherwise it runs as fast as it can.
func runHeadless(g *game.Game, cfg *config.Config, maxTicks, steps int) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting headless simulation",
		"max_ticks", maxTicks,
		"steps_per_update", steps,
		"tick_rate", cfg.Sim.TickRate,
		"realtime", cfg.Webhook.Enabled,
	)

	var tick <-chan time.Time
	if cfg.Webhook.Enabled {
		ticker := time.NewTicker(cfg.Derived.Tick)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if tick != nil {
			select {
			case <-ctx.Done():
				slog.Info("interrupted", "tick", g.Tick())
				return
			case <-tick:
			}
		} else if ctx.Err() != nil {
			slog.Info("interrupted", "tick", g.Tick())
			return
		}

		for i := 0; i < steps; i++ {
			g.Update(cfg.Derived.TickDT)
		}

		if maxTicks > 0 && int(g.Tick()) >= maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick())
			return
		}
	}
}

// viewer holds the window-mode state that lives across frames.
type viewer struct {
	g   *game.Game
	cfg *config.Config

	cam       *camera.Camera
	tank      *renderer.TankRenderer
	hud       *ui.HUD
	panel     *ui.ControlPanel
	overlays  *ui.OverlayRegistry
	inspector *ui.Inspector
	perfPanel *ui.PerfPanel

	paused    bool
	steps     int
	acc       float64
	cursorOn  bool
	lastMouse rl.Vector2

	dragging  bool
	dragStart rl.Vector2
}

func runWindow(g *game.Game, cfg *config.Config, maxTicks, steps int) {
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Shoal")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	var species []string
	if f := g.Flock(); f != nil {
		species = f.Registry().Names()
	}

	sw, sh := float32(cfg.Screen.Width), float32(cfg.Screen.Height)
	v := &viewer{
		g:         g,
		cfg:       cfg,
		cam:       camera.New(sw, sh, g.Bounds()),
		tank:      renderer.NewTankRenderer(cfg.Pellets.Lifetime, cfg.Sanctuary.RepulsionMargin),
		hud:       ui.NewHUD(),
		panel:     ui.NewControlPanel(int32(sw)-230, 10, 220, species),
		overlays:  ui.NewOverlayRegistry(),
		inspector: ui.NewInspector(10, 120, 240),
		perfPanel: ui.NewPerfPanel(10, 120),
		steps:     steps,
	}

	for !rl.WindowShouldClose() {
		v.handleInput()
		v.step(float64(rl.GetFrameTime()))
		v.draw()
		g.RecordFrame()

		if maxTicks > 0 && int(g.Tick()) >= maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick())
			break
		}
	}
}

// step advances the simulation by whole ticks, carrying the remainder to
// the next frame.
func (v *viewer) step(frameDT float64) {
	if v.paused {
		v.acc = 0
		return
	}
	dt := v.cfg.Derived.TickDT
	v.acc += min(frameDT, 0.25) * float64(v.steps)
	for v.acc >= dt {
		v.g.Update(dt)
		v.acc -= dt
	}
}

func (v *viewer) enqueue(cmd game.Command) {
	if err := v.g.Enqueue(cmd); err != nil {
		slog.Warn("stimulus rejected", "error", err)
	}
}

func (v *viewer) handleInput() {
	if rl.IsWindowResized() {
		w, h := float32(rl.GetScreenWidth()), float32(rl.GetScreenHeight())
		v.cam.Resize(w, h)
		v.panel = ui.NewControlPanel(int32(w)-230, 10, 220, v.speciesNames())
	}

	// Keyboard
	switch {
	case rl.IsKeyPressed(rl.KeySpace):
		v.paused = !v.paused
	case rl.IsKeyPressed(rl.KeyF):
		v.enqueue(game.FeedCreature{})
	case rl.IsKeyPressed(rl.KeyR):
		v.enqueue(game.Rest{})
	case rl.IsKeyPressed(rl.KeyS):
		v.enqueue(game.ToggleSanctuary{})
	case rl.IsKeyPressed(rl.KeyX):
		v.enqueue(game.ClearZones{})
	case rl.IsKeyPressed(rl.KeyBackspace):
		v.enqueue(game.ClearPellets{})
	case rl.IsKeyPressed(rl.KeyTab):
		v.panel.Toggle()
	case rl.IsKeyPressed(rl.KeyHome):
		v.cam.Reset()
	case rl.IsKeyPressed(rl.KeyEqual):
		v.steps = min(v.steps*2, 64)
	case rl.IsKeyPressed(rl.KeyMinus):
		v.steps = max(v.steps/2, 1)
	}
	if key := rl.GetKeyPressed(); key != 0 {
		v.overlays.HandleKeyPress(key)
	}

	// Camera
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		v.cam.ZoomBy(1 + 0.1*wheel)
	}
	if rl.IsMouseButtonDown(rl.MouseButtonMiddle) {
		d := rl.GetMouseDelta()
		v.cam.Pan(-d.X, -d.Y)
	}

	mouse := rl.GetMousePosition()
	overPanel := v.panel.Contains(mouse.X, mouse.Y)
	inWorld := v.cam.InWorld(mouse.X, mouse.Y) && !overPanel
	wx, wy := v.cam.ScreenToWorld(mouse.X, mouse.Y)

	// The pointer is a stimulus for the creature
	switch {
	case inWorld && (!v.cursorOn || mouse != v.lastMouse):
		v.enqueue(game.SetCursor{X: float64(wx), Y: float64(wy)})
		v.cursorOn = true
	case !inWorld && v.cursorOn:
		v.enqueue(game.ClearCursor{})
		v.cursorOn = false
	}
	v.lastMouse = mouse

	if inWorld && rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		v.enqueue(game.FeedAt{X: float64(wx), Y: float64(wy)})
	}

	// Right-drag draws a sanctuary zone
	if inWorld && rl.IsMouseButtonPressed(rl.MouseButtonRight) {
		v.dragging = true
		v.dragStart = mouse
	}
	if v.dragging && rl.IsMouseButtonReleased(rl.MouseButtonRight) {
		v.dragging = false
		if r, ok := v.dragRect(mouse); ok {
			v.enqueue(game.AddZone{Zone: sanctuary.Record{X: r.X, Y: r.Y, W: r.W, H: r.H}})
		}
	}
}

// dragRect converts the right-drag from dragStart to end into a world
// rectangle. Tiny drags are ignored.
func (v *viewer) dragRect(end rl.Vector2) (geom.Rect, bool) {
	x0, y0 := v.cam.ScreenToWorld(v.dragStart.X, v.dragStart.Y)
	x1, y1 := v.cam.ScreenToWorld(end.X, end.Y)
	r := geom.Rect{
		X: float64(min(x0, x1)),
		Y: float64(min(y0, y1)),
		W: float64(absf(x1 - x0)),
		H: float64(absf(y1 - y0)),
	}
	if r.W < 4 || r.H < 4 {
		return geom.Rect{}, false
	}
	return r, true
}

func (v *viewer) speciesNames() []string {
	if f := v.g.Flock(); f != nil {
		return f.Registry().Names()
	}
	return nil
}

func (v *viewer) draw() {
	f := v.g.Frame()
	if f != nil && f.Bounds != v.cam.World {
		v.cam.SetWorld(f.Bounds)
	}

	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 10, G: 12, B: 16, A: 255})

	v.tank.Draw(v.cam, f, v.overlays.Layers())

	if v.dragging {
		end := rl.GetMousePosition()
		rect := rl.Rectangle{
			X:      min(v.dragStart.X, end.X),
			Y:      min(v.dragStart.Y, end.Y),
			Width:  absf(end.X - v.dragStart.X),
			Height: absf(end.Y - v.dragStart.Y),
		}
		rl.DrawRectangleLinesEx(rect, 1, rl.Color{R: 90, G: 200, B: 140, A: 200})
	}

	v.hud.Draw(ui.HUDData{
		Title:  "Shoal",
		Frame:  f,
		FPS:    rl.GetFPS(),
		Paused: v.paused,
		Speed:  v.steps,
	})

	if f != nil && v.overlays.IsEnabled(ui.OverlayInspector) {
		v.inspector.Draw(f.Creature)
	}
	if stats, ok := v.g.PerfStats(); ok && v.overlays.IsEnabled(ui.OverlayPerf) {
		v.perfPanel.Draw(stats)
	}

	v.panel.Sync(f)
	for _, cmd := range v.panel.Draw(v.overlays) {
		v.enqueue(cmd)
	}

	v.hud.DrawControls(int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight()),
		"Click: feed | Right-drag: zone | F: feed creature | R: rest | S: sanctuary | X: clear zones | Backspace: clear food | Space: pause | +/-: speed | Tab: panel")

	rl.EndDrawing()
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
