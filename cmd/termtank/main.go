// Command termtank runs the simulation in a terminal.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/game"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config, then time-based)")
	mute := flag.Bool("mute", false, "Disable the pellet chime")
	logPath := flag.String("log", "", "Write JSON logs to this file (default: discard)")
	flag.Parse()

	if err := run(*configPath, *seed, *mute, *logPath); err != nil {
		fmt.Fprintln(os.Stderr, "termtank:", err)
		os.Exit(1)
	}
}

func run(configPath string, seed int64, mute bool, logPath string) error {
	// The terminal is the display, so logs go to a file or nowhere
	logOut, err := openLog(logPath)
	if err != nil {
		return err
	}
	defer logOut.Close()
	slog.SetDefault(slog.New(slog.NewJSONHandler(logOut, nil)))

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	g, err := game.New(cfg, game.Options{Seed: seed})
	if err != nil {
		return err
	}
	defer g.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	screen.EnableMouse()
	screen.HideCursor()

	ch := newChime(cfg.Telemetry.ChimeOnEat && !mute)
	defer ch.close()

	t := &terminal{g: g, screen: screen}
	cols, rows := screen.Size()
	t.view = newTankView(cols, rows, g.Bounds())
	if f := g.Flock(); f != nil {
		t.species = f.Registry().Names()
	}

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	ticker := time.NewTicker(cfg.Derived.Tick)
	defer ticker.Stop()

	for {
		select {
		case ev := <-events:
			if !t.handle(ev) {
				return nil
			}
		case <-ticker.C:
			if !t.paused {
				g.Update(cfg.Derived.TickDT)
			}
			f := g.Frame()
			ch.notice(f.PelletsEaten)
			t.view.draw(screen, f, statusLine(f, t.paused))
		}
	}
}

func openLog(path string) (*os.File, error) {
	if path == "" {
		return os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

// terminal turns tcell input into game commands.
type terminal struct {
	g       *game.Game
	screen  tcell.Screen
	view    *tankView
	species []string
	paused  bool
	buttons tcell.ButtonMask // held at the previous mouse event
}

func (t *terminal) enqueue(cmd game.Command) {
	if err := t.g.Enqueue(cmd); err != nil {
		slog.Warn("stimulus rejected", "error", err)
	}
}

// handle processes one event. It returns false to quit.
func (t *terminal) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() == tcell.KeyRune {
			return t.handleRune(ev.Rune())
		}

	case *tcell.EventMouse:
		x, y := ev.Position()
		pressed := ev.Buttons() &^ t.buttons
		t.buttons = ev.Buttons()
		wx, wy, ok := t.view.world(x, y)
		if !ok {
			t.enqueue(game.ClearCursor{})
			return true
		}
		t.enqueue(game.SetCursor{X: wx, Y: wy})
		if pressed&tcell.Button1 != 0 {
			t.enqueue(game.FeedAt{X: wx, Y: wy})
		}

	case *tcell.EventResize:
		cols, rows := ev.Size()
		t.view.resize(cols, rows, t.g.Bounds())
		t.screen.Sync()
	}
	return true
}

func (t *terminal) handleRune(r rune) bool {
	switch r {
	case 'q':
		return false
	case ' ':
		t.paused = !t.paused
	case 'f':
		t.enqueue(game.FeedCreature{})
	case 'r':
		t.enqueue(game.Rest{})
	case 's':
		t.enqueue(game.ToggleSanctuary{})
	case 'x':
		t.enqueue(game.ClearZones{})
	case 'c':
		t.enqueue(game.ClearPellets{})
	case '+', '=':
		if f := t.g.Frame(); f != nil {
			t.enqueue(game.SetCount{N: len(f.School) + 1})
		}
	case '-':
		if f := t.g.Frame(); f != nil {
			t.enqueue(game.SetCount{N: len(f.School) - 1})
		}
	default:
		if i := int(r - '1'); i >= 0 && i < len(t.species) && i < 9 {
			t.enqueue(game.SetSpecies{Tag: t.species[i]})
		}
	}
	return true
}
