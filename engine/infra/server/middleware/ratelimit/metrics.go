package ratelimit

import (
	"context"
	"sync"

	"github.com/msgboard/msgboard/engine/infra/monitoring/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	rateLimitBlocksTotal metric.Int64Counter
	metricsOnce          sync.Once
)

// InitMetrics registers the blocked-requests counter once per process.
func InitMetrics(meter metric.Meter) error {
	var err error
	metricsOnce.Do(func() {
		rateLimitBlocksTotal, err = meter.Int64Counter(
			metrics.MetricName("rate_limit_blocks_total"),
			metric.WithDescription("Total number of requests blocked by rate limiting"),
			metric.WithUnit("1"),
		)
	})
	return err
}

// IncrementBlockedRequests counts one rejected request.
func IncrementBlockedRequests(ctx context.Context, route string, limiterName string) {
	if rateLimitBlocksTotal != nil {
		rateLimitBlocksTotal.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("route", route),
				attribute.String("limiter", limiterName),
			),
		)
	}
}
