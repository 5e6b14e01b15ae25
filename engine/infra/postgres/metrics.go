package postgres

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	monitoringmetrics "github.com/msgboard/msgboard/engine/infra/monitoring/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	defaultPoolLabel             = "default"
	postgresMeterName            = "msgboard.postgres"
	maxWaitSamplesPerObservation = 128
)

var (
	postgresMetricsOnce            sync.Once
	postgresMetricsErr             error
	postgresConnectionsOpen        metric.Int64ObservableGauge
	postgresConnectionsInUse       metric.Int64ObservableGauge
	postgresConnectionsIdle        metric.Int64ObservableGauge
	postgresMaxConfiguredConns     metric.Int64ObservableGauge
	postgresConnectionWaitDuration metric.Float64Histogram
	postgresPools                  sync.Map
)

// poolMetrics tracks one pool for the shared gauge callback and wait histogram.
// Pools are labelled by alias so primary and standby show up side by side.
type poolMetrics struct {
	label                 string
	pool                  atomic.Pointer[pgxpool.Pool]
	mu                    sync.Mutex
	lastEmptyAcquireCount int64
	lastEmptyAcquireWait  time.Duration
}

func configurePostgresMetrics(cfg *Config, poolCfg *pgxpool.Config) (*poolMetrics, error) {
	if err := ensurePostgresMetrics(); err != nil {
		return nil, fmt.Errorf("postgres: init metrics: %w", err)
	}
	tracker := &poolMetrics{label: poolLabel(cfg)}
	prevPrepare := poolCfg.PrepareConn
	poolCfg.PrepareConn = func(ctx context.Context, conn *pgx.Conn) (bool, error) {
		if prevPrepare != nil {
			ok, err := prevPrepare(ctx, conn)
			if !ok || err != nil {
				return ok, err
			}
		}
		tracker.recordWait(ctx)
		return true, nil
	}
	return tracker, nil
}

func ensurePostgresMetrics() error {
	postgresMetricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter(postgresMeterName)
		if err := initPostgresInstruments(meter); err != nil {
			postgresMetricsErr = err
			return
		}
		postgresMetricsErr = registerPostgresCallback(meter)
	})
	return postgresMetricsErr
}

func initPostgresInstruments(meter metric.Meter) error {
	gauges := []struct {
		dst  *metric.Int64ObservableGauge
		name string
		desc string
	}{
		{&postgresConnectionsOpen, "connections_open", "Number of open Postgres connections"},
		{&postgresConnectionsInUse, "connections_in_use", "Number of Postgres connections currently in use"},
		{&postgresConnectionsIdle, "connections_idle", "Number of idle Postgres connections"},
		{&postgresMaxConfiguredConns, "max_open_connections", "Configured Postgres connection pool size"},
	}
	for _, g := range gauges {
		gauge, err := meter.Int64ObservableGauge(
			monitoringmetrics.MetricNameWithSubsystem("postgres", g.name),
			metric.WithDescription(g.desc),
		)
		if err != nil {
			return err
		}
		*g.dst = gauge
	}
	var err error
	postgresConnectionWaitDuration, err = meter.Float64Histogram(
		monitoringmetrics.MetricNameWithSubsystem("postgres", "connection_wait_duration_seconds"),
		metric.WithDescription("Time spent waiting for a connection from the pool"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(monitoringmetrics.PoolWaitBuckets...),
	)
	return err
}

func registerPostgresCallback(meter metric.Meter) error {
	_, err := meter.RegisterCallback(
		func(_ context.Context, observer metric.Observer) error {
			postgresPools.Range(func(_, value any) bool {
				tracker, ok := value.(*poolMetrics)
				if !ok {
					return true
				}
				pool := tracker.pool.Load()
				if pool == nil {
					return true
				}
				stats := pool.Stat()
				attrs := metric.WithAttributes(attribute.String("pool", tracker.label))
				observer.ObserveInt64(postgresConnectionsOpen, int64(stats.TotalConns()), attrs)
				observer.ObserveInt64(postgresConnectionsInUse, int64(stats.AcquiredConns()), attrs)
				observer.ObserveInt64(postgresConnectionsIdle, int64(stats.IdleConns()), attrs)
				observer.ObserveInt64(postgresMaxConfiguredConns, int64(stats.MaxConns()), attrs)
				return true
			})
			return nil
		},
		postgresConnectionsOpen,
		postgresConnectionsInUse,
		postgresConnectionsIdle,
		postgresMaxConfiguredConns,
	)
	return err
}

func (p *poolMetrics) attach(pool *pgxpool.Pool) {
	if p == nil || pool == nil {
		return
	}
	p.pool.Store(pool)
	stats := pool.Stat()
	p.mu.Lock()
	p.lastEmptyAcquireCount = stats.EmptyAcquireCount()
	p.lastEmptyAcquireWait = stats.EmptyAcquireWaitTime()
	p.mu.Unlock()
	postgresPools.Store(p, p)
}

func (p *poolMetrics) unregister() {
	if p == nil {
		return
	}
	postgresPools.Delete(p)
	p.pool.Store(nil)
}

// recordWait converts the pool's cumulative empty-acquire counters into
// histogram samples of the average wait since the previous observation.
func (p *poolMetrics) recordWait(ctx context.Context) {
	if p == nil || postgresConnectionWaitDuration == nil {
		return
	}
	pool := p.pool.Load()
	if pool == nil {
		return
	}
	stats := pool.Stat()
	p.mu.Lock()
	defer p.mu.Unlock()
	deltaCount := stats.EmptyAcquireCount() - p.lastEmptyAcquireCount
	deltaWait := stats.EmptyAcquireWaitTime() - p.lastEmptyAcquireWait
	p.lastEmptyAcquireCount = stats.EmptyAcquireCount()
	p.lastEmptyAcquireWait = stats.EmptyAcquireWaitTime()
	if deltaCount <= 0 || deltaWait <= 0 {
		return
	}
	average := deltaWait.Seconds() / float64(deltaCount)
	attrs := metric.WithAttributes(attribute.String("pool", p.label))
	samples := min(deltaCount, maxWaitSamplesPerObservation)
	for i := int64(0); i < samples; i++ {
		postgresConnectionWaitDuration.Record(ctx, average, attrs)
	}
}

func poolLabel(cfg *Config) string {
	if cfg == nil || cfg.Alias == "" {
		return defaultPoolLabel
	}
	return cfg.Alias
}
