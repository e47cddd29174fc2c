package world

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder receives generation outcomes and warnings.
type Recorder interface {
	ZoneCreated(biomeName string, area int)
	Warning(kind string)
	RoomsCarved(strategy string, rooms int, took time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ZoneCreated(string, int)                {}
func (nopRecorder) Warning(string)                         {}
func (nopRecorder) RoomsCarved(string, int, time.Duration) {}

// NopRecorder discards everything.
func NopRecorder() Recorder { return nopRecorder{} }

// PrometheusRecorder exports generation metrics.
type PrometheusRecorder struct {
	zones     *prometheus.CounterVec
	zoneArea  prometheus.Histogram
	warnings  *prometheus.CounterVec
	rooms     *prometheus.CounterVec
	carveTime prometheus.Histogram
}

// NewPrometheusRecorder creates the collectors and registers them with reg.
// A nil reg uses the default registerer.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &PrometheusRecorder{
		zones: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "worldgen",
			Name:      "zones_created_total",
			Help:      "Zones created, by biome.",
		}, []string{"biome"}),
		zoneArea: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "worldgen",
			Name:      "zone_area_cells",
			Help:      "Area of newly created zones.",
			Buckets:   []float64{1, 16, 64, 100, 144, 196, 256, 400, 625},
		}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "worldgen",
			Name:      "warnings_total",
			Help:      "Recoverable generation conditions, by kind.",
		}, []string{"kind"}),
		rooms: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "worldgen",
			Name:      "rooms_carved_total",
			Help:      "Rooms carved, by cell selection strategy.",
		}, []string{"strategy"}),
		carveTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "worldgen",
			Name:      "carve_duration_seconds",
			Help:      "Time spent carving a zone maze.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
	reg.MustRegister(r.zones, r.zoneArea, r.warnings, r.rooms, r.carveTime)
	return r
}

func (r *PrometheusRecorder) ZoneCreated(biomeName string, area int) {
	r.zones.WithLabelValues(biomeName).Inc()
	r.zoneArea.Observe(float64(area))
}

func (r *PrometheusRecorder) Warning(kind string) {
	r.warnings.WithLabelValues(kind).Inc()
}

func (r *PrometheusRecorder) RoomsCarved(strategy string, rooms int, took time.Duration) {
	r.rooms.WithLabelValues(strategy).Add(float64(rooms))
	r.carveTime.Observe(took.Seconds())
}
