package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/annel0/mmo-worldgen/internal/logging"
)

// RequestLogger tags every HTTP request with a trace ID and logs it.
type RequestLogger struct {
	log *logging.Logger
}

// NewRequestLogger logs to l; nil uses the package-level logger.
func NewRequestLogger(l *logging.Logger) *RequestLogger { return &RequestLogger{log: l} }

func (rl *RequestLogger) logf(format string, args ...interface{}) {
	if rl.log != nil {
		rl.log.Info(format, args...)
		return
	}
	logging.Info(format, args...)
}

func (rl *RequestLogger) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Reuse the OpenTelemetry trace ID when a span is already open.
		span := trace.SpanFromContext(c.Request.Context())
		var traceID string
		if span.SpanContext().IsValid() {
			traceID = span.SpanContext().TraceID().String()
		} else {
			traceID = uuid.NewString()
		}
		c.Set("trace_id", traceID)
		c.Header("X-Trace-ID", traceID)

		start := time.Now()
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		rl.logf("[HTTP] %s %s %d %s ip=%s trace=%s", method, path, c.Writer.Status(), time.Since(start), c.ClientIP(), traceID)
	}
}
