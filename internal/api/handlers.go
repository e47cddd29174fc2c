package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/annel0/mmo-worldgen/internal/biome"
	"github.com/annel0/mmo-worldgen/internal/entity"
	"github.com/annel0/mmo-worldgen/internal/vec"
	"github.com/annel0/mmo-worldgen/internal/world"
)

// ZoneResponse describes a zone.
type ZoneResponse struct {
	ID        string     `json:"id"`
	Z         int        `json:"z"`
	Rect      world.Rect `json:"rect"`
	Elevation int        `json:"elevation"`
	Moisture  int        `json:"moisture"`
	Biome     string     `json:"biome"`
	Color     string     `json:"color"`
	Selection string     `json:"cell_selection"`
}

func zoneResponse(z *world.Zone) ZoneResponse {
	return ZoneResponse{
		ID:        z.ID,
		Z:         z.Z,
		Rect:      z.Rect,
		Elevation: z.Elevation,
		Moisture:  z.Moisture,
		Biome:     z.Biome.Name,
		Color:     z.Biome.HexColor(),
		Selection: z.Biome.CellSelection,
	}
}

// RoomResponse describes a room and its zone.
type RoomResponse struct {
	Room world.Room   `json:"room"`
	Zone ZoneResponse `json:"zone"`
}

// TerrainResponse is the noise sample at a point.
type TerrainResponse struct {
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Elevation int    `json:"elevation"`
	Moisture  int    `json:"moisture"`
	Biome     string `json:"biome"`
}

// PutEntityRequest places a new entity.
type PutEntityRequest struct {
	Name string `json:"name" binding:"required"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Z    int    `json:"z"`
}

// MoveRequest names the direction to walk.
type MoveRequest struct {
	Direction string `json:"direction" binding:"required"`
}

func respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, GenericResponse{Success: status < 400, Message: message, Data: data})
}

func badRequest(c *gin.Context, message string) {
	respond(c, http.StatusBadRequest, message, nil)
}

// fail maps domain errors to HTTP statuses.
func (rs *RestServer) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, entity.ErrCannotGo):
		respond(c, http.StatusConflict, entity.ErrCannotGo.Error(), nil)
	case errors.Is(err, world.ErrNoSuchRoom):
		respond(c, http.StatusNotFound, "no room there", nil)
	case errors.Is(err, entity.ErrUnknownEntity):
		respond(c, http.StatusNotFound, "entity not found", nil)
	case errors.Is(err, context.DeadlineExceeded):
		respond(c, http.StatusGatewayTimeout, "generation timed out", nil)
	case errors.Is(err, context.Canceled):
		respond(c, http.StatusServiceUnavailable, "request cancelled", nil)
	default:
		rs.log.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		respond(c, http.StatusInternalServerError, "internal error", nil)
	}
}

func queryInt(c *gin.Context, name string, def int, required bool) (int, bool) {
	raw, ok := c.GetQuery(name)
	if !ok {
		if required {
			badRequest(c, "missing query parameter "+name)
			return 0, false
		}
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, "query parameter "+name+" must be an integer")
		return 0, false
	}
	return v, true
}

func pathCoord(c *gin.Context) (vec.Vec3, bool) {
	var out [3]int
	for i, name := range []string{"x", "y", "z"} {
		v, err := strconv.Atoi(c.Param(name))
		if err != nil {
			badRequest(c, "path parameter "+name+" must be an integer")
			return vec.Vec3{}, false
		}
		out[i] = v
	}
	return vec.Vec3{X: out[0], Y: out[1], Z: out[2]}, true
}

// handleGetZone returns the zone covering ?x&y&z. With create=true a missing zone is generated.
func (rs *RestServer) handleGetZone(c *gin.Context) {
	x, ok := queryInt(c, "x", 0, true)
	if !ok {
		return
	}
	y, ok := queryInt(c, "y", 0, true)
	if !ok {
		return
	}
	z, ok := queryInt(c, "z", 0, false)
	if !ok {
		return
	}
	at := vec.Vec3{X: x, Y: y, Z: z}

	var (
		zone *world.Zone
		err  error
	)
	if c.Query("create") == "true" {
		zone, err = rs.cfg.World.ZoneAt(c.Request.Context(), at)
	} else {
		zone, err = rs.cfg.World.PeekZone(c.Request.Context(), at)
	}
	if err != nil {
		rs.fail(c, err)
		return
	}
	if zone == nil {
		respond(c, http.StatusNotFound, "no zone generated there yet", nil)
		return
	}
	respond(c, http.StatusOK, "ok", zoneResponse(zone))
}

func (rs *RestServer) handleTerrain(c *gin.Context) {
	if rs.cfg.Terrain == nil {
		respond(c, http.StatusNotImplemented, "terrain sampling is disabled", nil)
		return
	}
	x, ok := queryInt(c, "x", 0, true)
	if !ok {
		return
	}
	y, ok := queryInt(c, "y", 0, true)
	if !ok {
		return
	}

	e, m := rs.cfg.Terrain.Sample(x, y)
	name := biome.Ocean
	if rs.cfg.Grid != nil {
		if b, err := rs.cfg.Grid.Lookup(e, m); err == nil {
			name = b.Name
		}
	}
	respond(c, http.StatusOK, "ok", TerrainResponse{X: x, Y: y, Elevation: e, Moisture: m, Biome: name})
}

func (rs *RestServer) handleEnsureRoom(c *gin.Context) {
	at, ok := pathCoord(c)
	if !ok {
		return
	}
	room, zone, err := rs.cfg.World.EnsureRoom(c.Request.Context(), at)
	if err != nil {
		rs.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "ok", RoomResponse{Room: *room, Zone: zoneResponse(zone)})
}

func (rs *RestServer) handleOccupants(c *gin.Context) {
	at, ok := pathCoord(c)
	if !ok {
		return
	}
	occupants, err := rs.cfg.Movement.Occupants(c.Request.Context(), at)
	if err != nil {
		rs.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "ok", occupants)
}

func (rs *RestServer) handlePutEntity(c *gin.Context) {
	var req PutEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	p, err := rs.cfg.Movement.Put(c.Request.Context(), req.Name, vec.Vec3{X: req.X, Y: req.Y, Z: req.Z})
	if err != nil {
		rs.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "entity placed", placementResponse(p))
}

func (rs *RestServer) handleGetEntity(c *gin.Context) {
	e, err := rs.cfg.Movement.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		rs.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "ok", e)
}

func (rs *RestServer) handleRemoveEntity(c *gin.Context) {
	if err := rs.cfg.Movement.Remove(c.Request.Context(), c.Param("id")); err != nil {
		rs.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "entity removed", nil)
}

func (rs *RestServer) handleMoveEntity(c *gin.Context) {
	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	if _, err := vec.DirectionByName(req.Direction); err != nil {
		badRequest(c, err.Error())
		return
	}

	p, err := rs.cfg.Movement.Move(c.Request.Context(), c.Param("id"), req.Direction)
	if err != nil {
		rs.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "ok", placementResponse(p))
}

// PlacementResponse is where an entity ended up.
type PlacementResponse struct {
	Entity entity.Entity `json:"entity"`
	Room   world.Room    `json:"room"`
	Zone   ZoneResponse  `json:"zone"`
}

func placementResponse(p *entity.Placement) PlacementResponse {
	return PlacementResponse{Entity: p.Entity, Room: *p.Room, Zone: zoneResponse(p.Zone)}
}

func (rs *RestServer) handleListWebhooks(c *gin.Context) {
	respond(c, http.StatusOK, "ok", rs.cfg.Webhooks.List())
}

func (rs *RestServer) handleCreateWebhook(c *gin.Context) {
	var req Webhook
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	respond(c, http.StatusCreated, "webhook created", rs.cfg.Webhooks.Add(req))
}

func (rs *RestServer) handleGetWebhook(c *gin.Context) {
	w, ok := rs.cfg.Webhooks.Get(c.Param("id"))
	if !ok {
		respond(c, http.StatusNotFound, "webhook not found", nil)
		return
	}
	respond(c, http.StatusOK, "ok", w)
}

func (rs *RestServer) handleDeleteWebhook(c *gin.Context) {
	if !rs.cfg.Webhooks.Delete(c.Param("id")) {
		respond(c, http.StatusNotFound, "webhook not found", nil)
		return
	}
	respond(c, http.StatusOK, "webhook deleted", nil)
}

func (rs *RestServer) handleWebhookEventTypes(c *gin.Context) {
	respond(c, http.StatusOK, "ok", EventTypes())
}
