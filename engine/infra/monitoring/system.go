package monitoring

import (
	"context"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/msgboard/msgboard/engine/infra/monitoring/metrics"
	"github.com/msgboard/msgboard/pkg/logger"
	"github.com/msgboard/msgboard/pkg/version"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const unknown = "unknown"

var (
	buildInfo          metric.Float64Gauge
	uptimeGauge        metric.Float64ObservableGauge
	uptimeRegistration metric.Registration
	startTime          time.Time
	systemInitOnce     sync.Once
	systemResetMutex   sync.Mutex
)

func initSystemMetrics(ctx context.Context, meter metric.Meter) {
	log := logger.FromContext(ctx)
	systemInitOnce.Do(func() {
		var err error
		buildInfo, err = meter.Float64Gauge(
			metrics.MetricName("build_info"),
			metric.WithDescription("Build information (value=1)"),
		)
		if err != nil {
			log.Error("Failed to create build info gauge", "error", err)
		}
		uptimeGauge, err = meter.Float64ObservableGauge(
			metrics.MetricName("uptime_seconds"),
			metric.WithDescription("Service uptime in seconds"),
		)
		if err != nil {
			log.Error("Failed to create uptime gauge", "error", err)
			return
		}
		startTime = time.Now()
		uptimeRegistration, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
			o.ObserveFloat64(uptimeGauge, time.Since(startTime).Seconds())
			return nil
		}, uptimeGauge)
		if err != nil {
			log.Error("Failed to register uptime callback", "error", err)
		}
	})
}

// getBuildInfo prefers ldflags-injected values and falls back to the
// module build info.
func getBuildInfo() (ver, commit, goVersion string) {
	ver = version.Version
	commit = version.CommitHash
	if info, ok := debug.ReadBuildInfo(); ok {
		if ver == unknown && info.Main.Version != "" && info.Main.Version != "(devel)" {
			ver = info.Main.Version
		}
		if commit == unknown {
			for _, setting := range info.Settings {
				if setting.Key == "vcs.revision" {
					commit = setting.Value
					break
				}
			}
		}
	}
	return ver, commit, runtime.Version()
}

func recordBuildInfo(ctx context.Context) {
	if buildInfo == nil {
		return
	}
	ver, commit, goVersion := getBuildInfo()
	buildInfo.Record(ctx, 1,
		metric.WithAttributes(
			attribute.String("version", ver),
			attribute.String("commit_hash", commit),
			attribute.String("go_version", goVersion),
		),
	)
	logger.FromContext(ctx).Debug("System metrics initialized",
		"version", ver,
		"commit", commit,
		"go_version", goVersion,
	)
}

// InitSystemMetrics registers the build info and uptime gauges once per process.
func InitSystemMetrics(ctx context.Context, meter metric.Meter) {
	initSystemMetrics(ctx, meter)
	recordBuildInfo(ctx)
}

func resetSystemMetrics() {
	if uptimeRegistration != nil {
		_ = uptimeRegistration.Unregister()
		uptimeRegistration = nil
	}
	buildInfo = nil
	uptimeGauge = nil
	startTime = time.Time{}
	systemInitOnce = sync.Once{}
}

// ResetSystemMetricsForTesting resets the system metrics initialization state.
func ResetSystemMetricsForTesting() {
	systemResetMutex.Lock()
	defer systemResetMutex.Unlock()
	resetSystemMetrics()
}
