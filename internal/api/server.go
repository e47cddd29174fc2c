// Package api exposes the world over a REST interface.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/mmo-worldgen/internal/biome"
	"github.com/annel0/mmo-worldgen/internal/entity"
	"github.com/annel0/mmo-worldgen/internal/logging"
	"github.com/annel0/mmo-worldgen/internal/middleware"
	"github.com/annel0/mmo-worldgen/internal/noise"
	"github.com/annel0/mmo-worldgen/internal/vec"
	"github.com/annel0/mmo-worldgen/internal/world"
)

// WorldService is the part of *world.Generator the API uses.
type WorldService interface {
	PeekZone(ctx context.Context, c vec.Vec3) (*world.Zone, error)
	ZoneAt(ctx context.Context, c vec.Vec3) (*world.Zone, error)
	EnsureRoom(ctx context.Context, c vec.Vec3) (*world.Room, *world.Zone, error)
}

// Config wires the REST server.
type Config struct {
	Port     int
	World    WorldService
	Terrain  *noise.Field
	Grid     *biome.Grid
	Movement *entity.MovementService
	Webhooks *WebhookManager // optional

	// Registerer receives HTTP metrics, Gatherer is served on /metrics.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer

	Logger  *logging.Logger
	Tracing bool
}

// RestServer serves the world API.
type RestServer struct {
	router     *gin.Engine
	httpServer *http.Server
	cfg        Config
	metrics    *ServerMetrics
	log        *logging.Logger
}

// GenericResponse is the envelope of every API response.
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// NewRestServer builds the router.
func NewRestServer(cfg Config) *RestServer {
	if cfg.Port == 0 {
		cfg.Port = 8088
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.GetAPILogger()
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	if cfg.Tracing {
		router.Use(otelgin.Middleware("worldgen_api"))
	}
	router.Use(middleware.NewRequestLogger(cfg.Logger).Handler())

	promMw := middleware.NewPrometheusMiddleware("worldgen_api", cfg.Registerer)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, cfg.Gatherer)

	rs := &RestServer{
		router:  router,
		cfg:     cfg,
		metrics: NewServerMetrics(),
		log:     cfg.Logger,
	}
	rs.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	rs.setupRoutes()
	return rs
}

func (rs *RestServer) setupRoutes() {
	rs.router.GET("/health", rs.handleHealth)

	api := rs.router.Group("/api")

	w := api.Group("/world")
	{
		w.GET("/zones", rs.handleGetZone)
		w.GET("/terrain", rs.handleTerrain)
		w.PUT("/rooms/:x/:y/:z", rs.handleEnsureRoom)
		w.GET("/rooms/:x/:y/:z/occupants", rs.handleOccupants)
	}

	e := api.Group("/entities")
	{
		e.POST("", rs.handlePutEntity)
		e.GET("/:id", rs.handleGetEntity)
		e.DELETE("/:id", rs.handleRemoveEntity)
		e.POST("/:id/move", rs.handleMoveEntity)
	}

	if rs.cfg.Webhooks != nil {
		h := api.Group("/webhooks")
		h.GET("", rs.handleListWebhooks)
		h.POST("", rs.handleCreateWebhook)
		h.GET("/events", rs.handleWebhookEventTypes)
		h.GET("/:id", rs.handleGetWebhook)
		h.DELETE("/:id", rs.handleDeleteWebhook)
	}
}

// Handler exposes the router, mainly for tests.
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// Start blocks serving HTTP until Stop is called.
func (rs *RestServer) Start() error {
	rs.log.Info("REST API listening on %s", rs.httpServer.Addr)
	if err := rs.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down gracefully.
func (rs *RestServer) Stop(ctx context.Context) error {
	return rs.httpServer.Shutdown(ctx)
}

func (rs *RestServer) handleHealth(c *gin.Context) {
	cpuPercent, err := rs.metrics.GetCPUUsage()
	if err != nil {
		rs.log.Debug("cpu usage: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"time":        time.Now().Unix(),
		"uptime":      rs.metrics.GetUptime(),
		"memory_mb":   rs.metrics.GetMemoryUsage(),
		"cpu_percent": cpuPercent,
		"runtime":     rs.metrics.GetDetailedMemoryStats(),
	})
}
