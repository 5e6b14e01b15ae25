package middleware

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/msgboard/msgboard/engine/infra/monitoring/metrics"
	"github.com/msgboard/msgboard/pkg/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const unmatchedPath = "unmatched"

var (
	httpRequestsTotal    metric.Int64Counter
	httpRequestDuration  metric.Float64Histogram
	httpRequestsInFlight metric.Int64UpDownCounter
	initOnce             sync.Once
	initMutex            sync.Mutex
)

func initMetrics(ctx context.Context, meter metric.Meter) {
	if meter == nil {
		return
	}
	log := logger.FromContext(ctx)
	initOnce.Do(func() {
		var err error
		httpRequestsTotal, err = meter.Int64Counter(
			metrics.MetricName("http_requests_total"),
			metric.WithDescription("Total HTTP requests"),
		)
		if err != nil {
			log.Error("Failed to create http requests total counter", "error", err)
		}
		httpRequestDuration, err = meter.Float64Histogram(
			metrics.MetricName("http_request_duration_seconds"),
			metric.WithDescription("HTTP request latency"),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(metrics.HTTPDurationBuckets...),
		)
		if err != nil {
			log.Error("Failed to create http request duration histogram", "error", err)
		}
		httpRequestsInFlight, err = meter.Int64UpDownCounter(
			metrics.MetricName("http_requests_in_flight"),
			metric.WithDescription("Currently active HTTP requests"),
		)
		if err != nil {
			log.Error("Failed to create http requests in flight counter", "error", err)
		}
	})
}

// ResetMetricsForTesting resets the metrics initialization state.
func ResetMetricsForTesting() {
	initMutex.Lock()
	defer initMutex.Unlock()
	httpRequestsTotal = nil
	httpRequestDuration = nil
	httpRequestsInFlight = nil
	initOnce = sync.Once{}
}

// HTTPMetrics returns a Gin middleware that counts and times requests by
// route template, method and status.
func HTTPMetrics(ctx context.Context, meter metric.Meter) gin.HandlerFunc {
	initMetrics(ctx, meter)
	log := logger.FromContext(ctx)
	return func(c *gin.Context) {
		if httpRequestsTotal == nil || httpRequestDuration == nil || httpRequestsInFlight == nil {
			c.Next()
			return
		}
		defer func() {
			if r := recover(); r != nil {
				log.Error("Panic in HTTP metrics middleware", "panic", r)
			}
		}()
		start := time.Now()
		reqCtx := c.Request.Context()
		httpRequestsInFlight.Add(reqCtx, 1)
		defer httpRequestsInFlight.Add(reqCtx, -1)
		c.Next()
		recordMetrics(c, start)
	}
}

func recordMetrics(c *gin.Context, start time.Time) {
	duration := time.Since(start).Seconds()
	// Route templates keep label cardinality bounded.
	path := c.FullPath()
	if path == "" {
		path = unmatchedPath
	}
	attrs := metric.WithAttributes(
		attribute.String("method", c.Request.Method),
		attribute.String("path", path),
		attribute.String("status_code", strconv.Itoa(c.Writer.Status())),
	)
	httpRequestsTotal.Add(c.Request.Context(), 1, attrs)
	httpRequestDuration.Record(c.Request.Context(), duration, attrs)
}
