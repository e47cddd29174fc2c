package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/annel0/mmo-worldgen/internal/api"
	"github.com/annel0/mmo-worldgen/internal/app"
	"github.com/annel0/mmo-worldgen/internal/config"
	"github.com/annel0/mmo-worldgen/internal/eventbus"
	"github.com/annel0/mmo-worldgen/internal/logging"
	"github.com/annel0/mmo-worldgen/internal/observability"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (defaults to $WORLD_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("init logging: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()

	if err := applyLogLevels(cfg.Logging); err != nil {
		logging.Warn("logging levels: %v", err)
	}

	logging.Info("Starting world service (storage=%s, eventbus=%s)", cfg.Storage.Driver, cfg.EventBus.Driver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := observability.Noop
	if cfg.Telemetry.Enabled {
		if shutdownTracing, err = observability.InitTelemetry(ctx, cfg.Telemetry.ServiceName); err != nil {
			logging.Warn("tracing disabled: %v", err)
			shutdownTracing = observability.Noop
		}
	}

	a, err := app.New(ctx, cfg, prometheus.DefaultRegisterer)
	if err != nil {
		logging.Error("start world service: %v", err)
		os.Exit(1)
	}
	defer a.Close()

	if _, err := eventbus.StartLoggingListener(ctx, a.Bus); err != nil {
		logging.Warn("event logging listener: %v", err)
	}
	busMetrics := eventbus.NewMetricsExporter(a.Bus, prometheus.DefaultRegisterer)
	busMetrics.Start()
	defer busMetrics.Stop()

	hooks := api.NewWebhookManager(logging.GetAPILogger())
	defer hooks.Stop()
	if _, err := hooks.Attach(ctx, a.Bus); err != nil {
		logging.Warn("webhooks will not receive events: %v", err)
	}

	rest := api.NewRestServer(api.Config{
		Port:       cfg.Server.GetRESTPort(),
		World:      a.Generator,
		Terrain:    a.Field,
		Grid:       a.Grid,
		Movement:   a.Movement,
		Webhooks:   hooks,
		Registerer: prometheus.DefaultRegisterer,
		Gatherer:   prometheus.DefaultGatherer,
		Tracing:    cfg.Telemetry.Enabled,
	})

	errCh := make(chan error, 2)
	go func() { errCh <- rest.Start() }()

	metricsSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.GetMetricsPort()),
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logging.Info("Prometheus metrics on %s/metrics", metricsSrv.Addr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logging.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logging.Error("server stopped: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := rest.Stop(shutdownCtx); err != nil {
		logging.Warn("REST shutdown: %v", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logging.Warn("metrics shutdown: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logging.Warn("tracing shutdown: %v", err)
	}
	logging.Info("World service stopped")
}

func applyLogLevels(cfg config.LoggingConfig) error {
	console, err := logging.ParseLevel(cfg.ConsoleLevel)
	if err != nil {
		return err
	}
	file, err := logging.ParseLevel(cfg.FileLevel)
	if err != nil {
		return err
	}
	logging.GetLoggerManager().SetDefaultLevels(console, file)
	return nil
}
