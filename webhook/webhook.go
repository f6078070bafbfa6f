// Package webhook exposes the simulation to chat bots and other external
// clients over HTTP. Requests become game commands; they are applied at the
// next tick boundary, so mutating endpoints answer 202 Accepted.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/pthm-cable/shoal/game"
	"github.com/pthm-cable/shoal/geom"
	"github.com/pthm-cable/shoal/sanctuary"
	"github.com/pthm-cable/shoal/school"
)

// Event kinds accepted by POST /api/events.
const (
	EventFeed         = "feed"
	EventRest         = "rest"
	EventClearZones   = "clear_zones"
	EventClearPellets = "clear_pellets"
)

// ErrUnknownEvent is returned for an unsupported event kind.
var ErrUnknownEvent = errors.New("webhook: unknown event kind")

// Handler serves the stimulus and snapshot endpoints for one game.
type Handler struct {
	Game *game.Game
}

func (h Handler) RegisterRoutes(s *server.Hertz) {
	s.Use(corsMiddleware())

	api := s.Group("/api")
	api.GET("/state", h.state)
	api.POST("/events", h.event)
	api.POST("/feed", h.feed)
	api.POST("/rest", h.rest)
	api.POST("/bounds", h.bounds)
	api.POST("/cursor", h.cursor)
	api.DELETE("/cursor", h.clearCursor)
	api.POST("/pellets/clear", h.clearPellets)

	zones := api.Group("/zones")
	zones.POST("", h.addZone)
	zones.POST("/clear", h.clearZones)
	zones.DELETE("/:index", h.removeZone)

	api.POST("/sanctuary/toggle", h.toggleSanctuary)
	api.POST("/sanctuary", h.setSanctuary)

	sch := api.Group("/school")
	sch.POST("/species", h.species)
	sch.POST("/count", h.count)
	sch.POST("/speed", h.speed)
}

type eventRequest struct {
	Kind  string `json:"kind"`
	Count int    `json:"count"`
}

type feedRequest struct {
	X     *float64 `json:"x"`
	Y     *float64 `json:"y"`
	Count int      `json:"count"`
}

type pointRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type sanctuaryRequest struct {
	Enabled bool `json:"enabled"`
}

type speciesRequest struct {
	Species string `json:"species"`
}

type countRequest struct {
	Count int `json:"count"`
}

type speedRequest struct {
	Scale float64 `json:"scale"`
}

type acceptedResponse struct {
	Accepted bool  `json:"accepted"`
	Tick     int64 `json:"tick"`
}

func (h Handler) state(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, h.Game.Frame())
}

func (h Handler) event(c context.Context, ctx *app.RequestContext) {
	var req eventRequest
	if err := decodeJSON(ctx, &req); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	cmd, err := eventCommand(req)
	if err != nil {
		writeError(ctx, err)
		return
	}
	h.enqueue(ctx, cmd)
}

// eventCommand maps a chat event onto the matching stimulus.
func eventCommand(req eventRequest) (game.Command, error) {
	switch req.Kind {
	case EventFeed:
		return game.FeedCreature{Count: req.Count}, nil
	case EventRest:
		return game.Rest{}, nil
	case EventClearZones:
		return game.ClearZones{}, nil
	case EventClearPellets:
		return game.ClearPellets{}, nil
	default:
		return nil, ErrUnknownEvent
	}
}

func (h Handler) feed(c context.Context, ctx *app.RequestContext) {
	var req feedRequest
	if err := decodeJSON(ctx, &req); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	if req.X == nil || req.Y == nil {
		h.enqueue(ctx, game.FeedCreature{Count: req.Count})
		return
	}
	h.enqueue(ctx, game.FeedAt{X: *req.X, Y: *req.Y, Count: req.Count})
}

func (h Handler) rest(c context.Context, ctx *app.RequestContext) {
	h.enqueue(ctx, game.Rest{})
}

func (h Handler) bounds(c context.Context, ctx *app.RequestContext) {
	var r geom.Rect
	if err := decodeJSON(ctx, &r); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	h.enqueue(ctx, game.SetBounds{Rect: r})
}

func (h Handler) cursor(c context.Context, ctx *app.RequestContext) {
	var req pointRequest
	if err := decodeJSON(ctx, &req); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	h.enqueue(ctx, game.SetCursor{X: req.X, Y: req.Y})
}

func (h Handler) clearCursor(c context.Context, ctx *app.RequestContext) {
	h.enqueue(ctx, game.ClearCursor{})
}

func (h Handler) addZone(c context.Context, ctx *app.RequestContext) {
	var rec sanctuary.Record
	if err := decodeJSON(ctx, &rec); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	h.enqueue(ctx, game.AddZone{Zone: rec})
}

func (h Handler) removeZone(c context.Context, ctx *app.RequestContext) {
	idx, err := strconv.Atoi(ctx.Param("index"))
	if err != nil || idx < 0 {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_index", "zone index must be a non-negative integer")
		return
	}
	if f := h.Game.Frame(); f != nil && idx >= len(f.Zones) {
		writeErrorBody(ctx, consts.StatusNotFound, "zone_not_found", sanctuary.ErrZoneIndex.Error())
		return
	}
	h.enqueue(ctx, game.RemoveZone{Index: idx})
}

func (h Handler) clearPellets(c context.Context, ctx *app.RequestContext) {
	h.enqueue(ctx, game.ClearPellets{})
}

func (h Handler) clearZones(c context.Context, ctx *app.RequestContext) {
	h.enqueue(ctx, game.ClearZones{})
}

func (h Handler) toggleSanctuary(c context.Context, ctx *app.RequestContext) {
	h.enqueue(ctx, game.ToggleSanctuary{})
}

func (h Handler) setSanctuary(c context.Context, ctx *app.RequestContext) {
	var req sanctuaryRequest
	if err := decodeJSON(ctx, &req); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	h.enqueue(ctx, game.SetSanctuaryEnabled{Enabled: req.Enabled})
}

func (h Handler) species(c context.Context, ctx *app.RequestContext) {
	var req speciesRequest
	if err := decodeJSON(ctx, &req); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	h.enqueue(ctx, game.SetSpecies{Tag: req.Species})
}

func (h Handler) count(c context.Context, ctx *app.RequestContext) {
	var req countRequest
	if err := decodeJSON(ctx, &req); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	h.enqueue(ctx, game.SetCount{N: req.Count})
}

func (h Handler) speed(c context.Context, ctx *app.RequestContext) {
	var req speedRequest
	if err := decodeJSON(ctx, &req); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	h.enqueue(ctx, game.SetSpeedScale{Scale: req.Scale})
}

func (h Handler) enqueue(ctx *app.RequestContext, cmd game.Command) {
	if err := h.Game.Enqueue(cmd); err != nil {
		writeError(ctx, err)
		return
	}
	var tick int64
	if f := h.Game.Frame(); f != nil {
		tick = f.Tick
	}
	ctx.JSON(consts.StatusAccepted, acceptedResponse{Accepted: true, Tick: tick})
}

func decodeJSON(ctx *app.RequestContext, out any) error {
	body := ctx.Request.Body()
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func writeError(ctx *app.RequestContext, err error) {
	switch {
	case errors.Is(err, ErrUnknownEvent):
		writeErrorBody(ctx, consts.StatusBadRequest, "unknown_event", err.Error())
	case errors.Is(err, sanctuary.ErrEmptyZone):
		writeErrorBody(ctx, consts.StatusBadRequest, "empty_zone", err.Error())
	case errors.Is(err, geom.ErrEmptyRect):
		writeErrorBody(ctx, consts.StatusBadRequest, "empty_rect", err.Error())
	case errors.Is(err, school.ErrUnknownSpecies):
		writeErrorBody(ctx, consts.StatusBadRequest, "unknown_species", err.Error())
	case errors.Is(err, game.ErrNoSchool):
		writeErrorBody(ctx, consts.StatusConflict, "school_disabled", err.Error())
	default:
		writeErrorBody(ctx, consts.StatusInternalServerError, "internal_error", err.Error())
	}
}

func writeErrorBody(ctx *app.RequestContext, status int, code, message string) {
	ctx.JSON(status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
