package monitoring

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/msgboard/msgboard/engine/infra/monitoring/middleware"
	"github.com/msgboard/msgboard/pkg/logger"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "msgboard"

// Service exposes OpenTelemetry instruments through a Prometheus registry
// private to the process, so tests can build several side by side.
type Service struct {
	config   *Config
	meter    metric.Meter
	provider *sdkmetric.MeterProvider
	registry *prom.Registry
}

// NewMonitoringService validates cfg and, when enabled, wires an OTel meter
// provider to a Prometheus exporter. A disabled config yields a no-op meter.
func NewMonitoringService(ctx context.Context, cfg *Config) (*Service, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx)
	if !cfg.Enabled {
		log.Debug("Monitoring disabled, using no-op meter")
		return &Service{config: cfg, meter: noop.NewMeterProvider().Meter(meterName)}, nil
	}
	registry := prom.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Prometheus exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	s := &Service{
		config:   cfg,
		meter:    provider.Meter(meterName),
		provider: provider,
		registry: registry,
	}
	InitSystemMetrics(ctx, s.meter)
	log.Info("Monitoring service initialized", "path", cfg.Path)
	return s, nil
}

// IsInitialized reports whether metrics are actually exported.
func (s *Service) IsInitialized() bool {
	return s.provider != nil
}

// Meter returns the meter for custom instrumentation.
func (s *Service) Meter() metric.Meter {
	return s.meter
}

// Path is where ExporterHandler should be mounted.
func (s *Service) Path() string {
	return s.config.Path
}

// GinMiddleware records HTTP request metrics, or passes through when
// monitoring is off.
func (s *Service) GinMiddleware(ctx context.Context) gin.HandlerFunc {
	if !s.IsInitialized() {
		return func(c *gin.Context) { c.Next() }
	}
	return middleware.HTTPMetrics(ctx, s.meter)
}

// ExporterHandler serves the Prometheus exposition format.
func (s *Service) ExporterHandler() http.Handler {
	if !s.IsInitialized() {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "Monitoring service not initialized", http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// SetAsGlobal installs the provider as the global OTel meter provider.
func (s *Service) SetAsGlobal() {
	if s.provider != nil {
		otel.SetMeterProvider(s.provider)
	}
}

// Shutdown flushes and stops the meter provider.
func (s *Service) Shutdown(ctx context.Context) error {
	if s.provider == nil {
		return nil
	}
	return s.provider.Shutdown(ctx)
}
