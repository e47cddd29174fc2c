package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/mmo-worldgen/internal/logging"
)

func newRouter(t *testing.T, reg *prometheus.Registry, buf *bytes.Buffer) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(NewRequestLogger(logging.NewWriterLogger("http", buf, logging.INFO)).Handler())

	prom := NewPrometheusMiddleware("test", reg)
	r.Use(prom.Handler())
	prom.RegisterMetricsEndpoint(r, reg)

	r.GET("/rooms/:id", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"id": c.Param("id")}) })
	r.GET("/fail", func(c *gin.Context) { c.JSON(http.StatusInternalServerError, gin.H{"error": "boom"}) })
	return r
}

func serve(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestPrometheusMiddleware_RecordsRouteTemplate(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := newRouter(t, reg, &bytes.Buffer{})

	serve(r, "/rooms/1")
	serve(r, "/rooms/2")
	serve(r, "/fail")
	serve(r, "/nowhere")

	count, err := testutil.GatherAndCount(reg, "test_http_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 3, count, "rooms, fail and unmatched series")

	families, err := reg.Gather()
	require.NoError(t, err)
	paths := map[string]bool{}
	for _, mf := range families {
		if mf.GetName() != "test_http_request_errors_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "path" {
					paths[l.GetValue()] = true
				}
			}
		}
	}
	assert.Equal(t, map[string]bool{"/fail": true, "unmatched": true}, paths)
}

func TestPrometheusMiddleware_InflightReturnsToZero(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := newRouter(t, reg, &bytes.Buffer{})

	serve(r, "/rooms/1")

	assert.Equal(t, 0.0, testutil.ToFloat64(gaugeFrom(t, reg)))
}

func gaugeFrom(t *testing.T, reg *prometheus.Registry) prometheus.Collector {
	t.Helper()
	g := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "test", Name: "http_requests_inflight", Help: "HTTP requests currently being served."})
	err := reg.Register(g)
	var already prometheus.AlreadyRegisteredError
	require.ErrorAs(t, err, &already)
	return already.ExistingCollector
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := newRouter(t, reg, &bytes.Buffer{})

	serve(r, "/rooms/1")
	w := serve(r, "/metrics")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, w.Body.String(), `test_http_request_duration_seconds_count{method="GET",path="/rooms/:id",status="200"} 1`)
}

func TestRequestLogger_TraceID(t *testing.T) {
	var buf bytes.Buffer
	r := newRouter(t, prometheus.NewRegistry(), &buf)

	w := serve(r, "/rooms/7")
	traceID := w.Header().Get("X-Trace-ID")

	require.NotEmpty(t, traceID)
	assert.Contains(t, buf.String(), "GET /rooms/:id 200")
	assert.Contains(t, buf.String(), "trace="+traceID)

	other := serve(r, "/rooms/7").Header().Get("X-Trace-ID")
	assert.NotEqual(t, traceID, other)
}
