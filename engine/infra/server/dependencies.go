package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/msgboard/msgboard/engine/dbrouter"
	"github.com/msgboard/msgboard/engine/infra/monitoring"
	"github.com/msgboard/msgboard/engine/infra/server/appstate"
	"github.com/msgboard/msgboard/engine/infra/store"
	"github.com/msgboard/msgboard/pkg/config"
	"github.com/msgboard/msgboard/pkg/logger"
	"github.com/redis/go-redis/v9"
)

func (s *Server) setupDependencies() (*appstate.State, []func(), error) {
	var cleanups []func()
	setupStart := time.Now()
	cfg := config.FromContext(s.ctx)
	cleanups = append(cleanups, s.setupMonitoring(cfg))
	cluster, storeCleanup, err := s.setupStore(cfg)
	if err != nil {
		return nil, cleanups, err
	}
	cleanups = append(cleanups, storeCleanup)
	cleanups = append(cleanups, s.setupRedis(cfg))
	state, err := appstate.NewState(cfg, cluster)
	if err != nil {
		return nil, cleanups, fmt.Errorf("failed to create app state: %w", err)
	}
	s.emitStartupSummary(time.Since(setupStart))
	return state, cleanups, nil
}

func (s *Server) setupMonitoring(cfg *config.Config) func() {
	log := logger.FromContext(s.ctx)
	monitoringStart := time.Now()
	monitoringCtx, monitoringCancel := context.WithTimeout(s.ctx, monitoringInitTimeout)
	defer monitoringCancel()
	monitoringConfig := monitoring.FromAppConfig(&cfg.Monitoring)
	monitoringService, err := monitoring.NewMonitoringService(monitoringCtx, monitoringConfig)
	monitoringDuration := time.Since(monitoringStart)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn("Monitoring initialization timed out, continuing without monitoring",
				"duration", monitoringDuration)
		} else {
			log.Error("Failed to initialize monitoring service", "error", err,
				"duration", monitoringDuration)
		}
		s.monitoring = nil
		return func() {}
	}
	s.monitoring = monitoringService
	if !monitoringService.IsInitialized() {
		log.Info("Monitoring is disabled in the configuration", "duration", monitoringDuration)
		return func() {}
	}
	monitoringService.SetAsGlobal()
	log.Info("Monitoring service initialized successfully",
		"path", monitoringService.Path(),
		"duration", monitoringDuration)
	return func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), monitoringShutdownTimeout)
		defer cancel()
		if err := monitoringService.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown monitoring service", "error", err)
		}
	}
}

func (s *Server) setupStore(cfg *config.Config) (*store.Cluster, func(), error) {
	log := logger.FromContext(s.ctx)
	start := time.Now()
	var chainOpts []dbrouter.ChainOption
	if s.monitoring != nil && s.monitoring.IsInitialized() {
		chainOpts = append(chainOpts, dbrouter.WithMeter(s.monitoring.Meter()))
	}
	chain, err := store.NewRouter(&cfg.Database, chainOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build database router: %w", err)
	}
	cluster, err := store.OpenCluster(s.ctx, &cfg.Database, chain)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), dbShutdownTimeout)
		defer cancel()
		if err := cluster.Close(ctx); err != nil {
			log.Error("Failed to close databases", "error", err)
		}
	}
	if cfg.Database.AutoMigrate {
		report, err := cluster.Migrate(s.ctx)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
		log.Info("Migrations applied", "applied", report.Applied, "skipped", report.Skipped)
	}
	s.cluster = cluster
	s.storeDriverLabel = cfg.Database.Driver
	log.Info("Database cluster ready",
		"driver", cfg.Database.Driver,
		"aliases", cluster.Aliases(),
		"default_alias", cfg.Database.DefaultAlias,
		"routers", cfg.Database.Routers,
		"duration", time.Since(start))
	return cluster, cleanup, nil
}

// setupRedis connects the rate limiter store. An unreachable Redis falls
// back to the in-process store.
func (s *Server) setupRedis(cfg *config.Config) func() {
	if cfg.RateLimit.RedisAddr == "" || !rateLimitEnabled(cfg) {
		return func() {}
	}
	log := logger.FromContext(s.ctx)
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RateLimit.RedisAddr,
		Password: cfg.RateLimit.RedisPassword.Value(),
		DB:       cfg.RateLimit.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(s.ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis unreachable, rate limiting falls back to memory",
			"addr", cfg.RateLimit.RedisAddr, "error", err)
		_ = client.Close()
		return func() {}
	}
	s.redisClient = client
	return func() {
		if err := client.Close(); err != nil {
			log.Error("Failed to close redis client", "error", err)
		}
	}
}

func (s *Server) emitStartupSummary(total time.Duration) {
	logger.FromContext(s.ctx).Info("Server dependencies setup completed",
		"total_duration", total,
		"store_driver", s.storeDriverLabel,
		"redis", s.redisClient != nil,
	)
}

func (s *Server) cleanup(cleanupFuncs []func()) {
	log := logger.FromContext(s.ctx)
	for i := len(cleanupFuncs) - 1; i >= 0; i-- {
		idx := len(cleanupFuncs) - 1 - i
		log.Debug("Running cleanup function", "index", idx, "total", len(cleanupFuncs))
		s.runCleanup(cleanupFuncs[i], idx)
	}
}

func (s *Server) runCleanup(fn func(), index int) {
	defer func() {
		if r := recover(); r != nil {
			logger.FromContext(s.ctx).Error("Cleanup function panicked", "index", index, "panic", r)
		}
	}()
	fn()
}
