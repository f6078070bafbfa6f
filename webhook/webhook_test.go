package webhook

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/cloudwego/hertz/pkg/route/param"

	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/game"
)

const tickDT = 1.0 / 30

func newTestHandler(t *testing.T, mutate func(*config.Config)) Handler {
	t.Helper()
	cfg := config.Default()
	cfg.World.Width, cfg.World.Height = 800, 600
	cfg.Telemetry.OutputDir = ""
	if mutate != nil {
		mutate(cfg)
	}
	g, err := game.New(cfg, game.Options{Seed: 7})
	if err != nil {
		t.Fatalf("game.New: %v", err)
	}
	t.Cleanup(func() { g.Close() })
	return Handler{Game: g}
}

func call(h func(context.Context, *app.RequestContext), body string, params ...param.Param) *app.RequestContext {
	ctx := &app.RequestContext{}
	if body != "" {
		ctx.Request.SetBody([]byte(body))
		ctx.Request.Header.Set("Content-Type", "application/json")
	}
	ctx.Params = append(ctx.Params, params...)
	h(context.Background(), ctx)
	return ctx
}

func errorCode(t *testing.T, ctx *app.RequestContext) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(ctx.Response.Body(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error.Code
}

func TestStateReturnsFrame(t *testing.T) {
	h := newTestHandler(t, nil)
	h.Game.Update(tickDT)

	ctx := call(h.state, "")
	if ctx.Response.StatusCode() != consts.StatusOK {
		t.Fatalf("status = %d", ctx.Response.StatusCode())
	}
	var f struct {
		Tick     int64 `json:"tick"`
		Creature struct {
			State string `json:"state"`
		} `json:"creature"`
		School []json.RawMessage `json:"school"`
	}
	if err := json.Unmarshal(ctx.Response.Body(), &f); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if f.Tick != 1 {
		t.Errorf("tick = %d, want 1", f.Tick)
	}
	if f.Creature.State == "" {
		t.Error("creature state missing")
	}
	if len(f.School) != h.Game.Flock().Len() {
		t.Errorf("school has %d fish, flock has %d", len(f.School), h.Game.Flock().Len())
	}
}

func TestEvents(t *testing.T) {
	testCases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"feed", `{"kind":"feed","count":2}`, consts.StatusAccepted, ""},
		{"rest", `{"kind":"rest"}`, consts.StatusAccepted, ""},
		{"clear zones", `{"kind":"clear_zones"}`, consts.StatusAccepted, ""},
		{"clear pellets", `{"kind":"clear_pellets"}`, consts.StatusAccepted, ""},
		{"unknown kind", `{"kind":"dance"}`, consts.StatusBadRequest, "unknown_event"},
		{"empty body", ``, consts.StatusBadRequest, "unknown_event"},
		{"bad json", `{"kind":`, consts.StatusBadRequest, "invalid_json"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandler(t, nil)
			ctx := call(h.event, tc.body)
			if got := ctx.Response.StatusCode(); got != tc.status {
				t.Fatalf("status = %d, want %d", got, tc.status)
			}
			if tc.code != "" {
				if got := errorCode(t, ctx); got != tc.code {
					t.Errorf("code = %q, want %q", got, tc.code)
				}
			}
		})
	}
}

func TestFeedEventDropsPellets(t *testing.T) {
	h := newTestHandler(t, nil)
	call(h.event, `{"kind":"feed","count":2}`)
	h.Game.Update(tickDT)

	if n := len(h.Game.Frame().Pellets); n != 2 {
		t.Errorf("pellets = %d, want 2", n)
	}
}

func TestClearPellets(t *testing.T) {
	h := newTestHandler(t, nil)
	call(h.event, `{"kind":"feed","count":3}`)
	h.Game.Update(tickDT)
	if n := len(h.Game.Frame().Pellets); n != 3 {
		t.Fatalf("pellets = %d, want 3", n)
	}

	ctx := call(h.clearPellets, "")
	if ctx.Response.StatusCode() != consts.StatusAccepted {
		t.Fatalf("status = %d", ctx.Response.StatusCode())
	}
	h.Game.Update(tickDT)
	if n := len(h.Game.Frame().Pellets); n != 0 {
		t.Errorf("pellets after clear = %d, want 0", n)
	}
}

func TestRestEventRestsCreature(t *testing.T) {
	h := newTestHandler(t, nil)
	call(h.event, `{"kind":"rest"}`)
	h.Game.Update(tickDT)

	if got := h.Game.Frame().Creature.State.String(); got != "RESTING" {
		t.Errorf("state = %s, want RESTING", got)
	}
}

func TestFeedAtPoint(t *testing.T) {
	h := newTestHandler(t, nil)
	ctx := call(h.feed, `{"x":100,"y":50,"count":1}`)
	if ctx.Response.StatusCode() != consts.StatusAccepted {
		t.Fatalf("status = %d", ctx.Response.StatusCode())
	}
	h.Game.Update(tickDT)

	pellets := h.Game.Frame().Pellets
	if len(pellets) != 1 {
		t.Fatalf("pellets = %d, want 1", len(pellets))
	}
	if pellets[0].Y < 50 || pellets[0].Y > 55 {
		t.Errorf("pellet y = %f, want near 50", pellets[0].Y)
	}
}

func TestZones(t *testing.T) {
	h := newTestHandler(t, nil)

	ctx := call(h.addZone, `{"x":10,"y":10,"w":50,"h":50,"label":"cave"}`)
	if ctx.Response.StatusCode() != consts.StatusAccepted {
		t.Fatalf("add status = %d", ctx.Response.StatusCode())
	}
	h.Game.Update(tickDT)
	if zones := h.Game.Frame().Zones; len(zones) != 1 || zones[0].Label != "cave" {
		t.Fatalf("zones = %+v", zones)
	}

	ctx = call(h.removeZone, "", param.Param{Key: "index", Value: "3"})
	if ctx.Response.StatusCode() != consts.StatusNotFound {
		t.Errorf("out of range remove status = %d", ctx.Response.StatusCode())
	}
	ctx = call(h.removeZone, "", param.Param{Key: "index", Value: "abc"})
	if ctx.Response.StatusCode() != consts.StatusBadRequest {
		t.Errorf("bad index status = %d", ctx.Response.StatusCode())
	}

	ctx = call(h.removeZone, "", param.Param{Key: "index", Value: "0"})
	if ctx.Response.StatusCode() != consts.StatusAccepted {
		t.Fatalf("remove status = %d", ctx.Response.StatusCode())
	}
	h.Game.Update(tickDT)
	if n := len(h.Game.Frame().Zones); n != 0 {
		t.Errorf("zones after remove = %d", n)
	}
}

func TestAddZoneRejectsEmpty(t *testing.T) {
	h := newTestHandler(t, nil)
	ctx := call(h.addZone, `{"x":10,"y":10,"w":0,"h":50}`)
	if ctx.Response.StatusCode() != consts.StatusBadRequest {
		t.Fatalf("status = %d", ctx.Response.StatusCode())
	}
	if got := errorCode(t, ctx); got != "empty_zone" {
		t.Errorf("code = %q", got)
	}
}

func TestSanctuaryEndpoints(t *testing.T) {
	h := newTestHandler(t, nil)

	call(h.toggleSanctuary, "")
	h.Game.Update(tickDT)
	if !h.Game.Frame().SanctuaryEnabled {
		t.Fatal("toggle did not enable the sanctuary")
	}

	call(h.setSanctuary, `{"enabled":false}`)
	h.Game.Update(tickDT)
	if h.Game.Frame().SanctuaryEnabled {
		t.Error("set did not disable the sanctuary")
	}
}

func TestSchoolEndpoints(t *testing.T) {
	h := newTestHandler(t, nil)

	call(h.species, `{"species":"discus"}`)
	call(h.count, `{"count":40}`)
	call(h.speed, `{"scale":1.5}`)
	h.Game.Update(tickDT)

	f := h.Game.Frame()
	if f.Species != "discus" {
		t.Errorf("species = %q", f.Species)
	}
	if len(f.School) != 12 {
		t.Errorf("school size = %d, want clamped 12", len(f.School))
	}
	if f.SpeedScale != 1.5 {
		t.Errorf("speed scale = %f", f.SpeedScale)
	}

	ctx := call(h.species, `{"species":"shark"}`)
	if got := errorCode(t, ctx); got != "unknown_species" {
		t.Errorf("unknown species code = %q", got)
	}
}

func TestSchoolDisabled(t *testing.T) {
	h := newTestHandler(t, func(c *config.Config) { c.School.Enabled = false })

	ctx := call(h.count, `{"count":3}`)
	if ctx.Response.StatusCode() != consts.StatusConflict {
		t.Fatalf("status = %d", ctx.Response.StatusCode())
	}
	if got := errorCode(t, ctx); got != "school_disabled" {
		t.Errorf("code = %q", got)
	}
}

func TestBoundsRejectsEmpty(t *testing.T) {
	h := newTestHandler(t, nil)
	ctx := call(h.bounds, `{"x":0,"y":0,"w":-5,"h":100}`)
	if got := errorCode(t, ctx); got != "empty_rect" {
		t.Errorf("code = %q", got)
	}

	ctx = call(h.bounds, `{"x":0,"y":0,"w":400,"h":300}`)
	if ctx.Response.StatusCode() != consts.StatusAccepted {
		t.Fatalf("status = %d", ctx.Response.StatusCode())
	}
	h.Game.Update(tickDT)
	if b := h.Game.Frame().Bounds; b.W != 400 || b.H != 300 {
		t.Errorf("bounds = %+v", b)
	}
}

func TestCORSPreflight(t *testing.T) {
	ctx := &app.RequestContext{}
	ctx.Request.Header.SetMethod(consts.MethodOptions)

	corsMiddleware()(context.Background(), ctx)

	if ctx.Response.StatusCode() != consts.StatusNoContent {
		t.Errorf("status = %d", ctx.Response.StatusCode())
	}
	if got := string(ctx.Response.Header.Peek("Access-Control-Allow-Origin")); got != "*" {
		t.Errorf("allow origin = %q", got)
	}
}
