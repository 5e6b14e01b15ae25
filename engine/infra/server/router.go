package server

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/msgboard/msgboard/engine/infra/server/appstate"
	"github.com/msgboard/msgboard/engine/infra/server/middleware/ratelimit"
	"github.com/msgboard/msgboard/engine/infra/server/routes"
	"github.com/msgboard/msgboard/pkg/config"
	"github.com/msgboard/msgboard/pkg/logger"
	"github.com/msgboard/msgboard/pkg/version"
)

func convertRateLimitConfig(cfg *config.Config) *ratelimit.Config {
	excluded := []string{
		routes.HealthVersioned(),
		routes.Liveness(),
		routes.Readiness(),
	}
	if cfg.Monitoring.Path != "" {
		excluded = append(excluded, cfg.Monitoring.Path)
	}
	return &ratelimit.Config{
		GlobalRate: ratelimit.RateConfig{
			Limit:  cfg.RateLimit.GlobalRate.Limit,
			Period: cfg.RateLimit.GlobalRate.Period,
		},
		PostRate: ratelimit.RateConfig{
			Limit:  cfg.RateLimit.PostRate.Limit,
			Period: cfg.RateLimit.PostRate.Period,
		},
		Prefix:        cfg.RateLimit.Prefix,
		MaxRetry:      cfg.RateLimit.MaxRetry,
		ExcludedPaths: excluded,
	}
}

func rateLimitEnabled(cfg *config.Config) bool {
	return cfg.RateLimit.GlobalRate.Limit > 0 || cfg.RateLimit.PostRate.Limit > 0
}

func (s *Server) buildRateLimiter(cfg *config.Config) *ratelimit.Manager {
	if !rateLimitEnabled(cfg) {
		return nil
	}
	log := logger.FromContext(s.ctx)
	rateLimitConfig := convertRateLimitConfig(cfg)
	var manager *ratelimit.Manager
	var err error
	if s.monitoring != nil && s.monitoring.IsInitialized() {
		manager, err = ratelimit.NewManagerWithMetrics(s.ctx, rateLimitConfig, s.redisClient, s.monitoring.Meter())
	} else {
		manager, err = ratelimit.NewManager(s.ctx, rateLimitConfig, s.redisClient)
	}
	if err != nil {
		log.Error("Failed to initialize rate limiting", "error", err)
		return nil
	}
	s.rateLimitDriverLabel = manager.Driver()
	log.Info("rate limiter initialized",
		"driver", manager.Driver(),
		"global_limit", cfg.RateLimit.GlobalRate.Limit,
		"global_period", cfg.RateLimit.GlobalRate.Period,
		"post_limit", cfg.RateLimit.PostRate.Limit,
		"post_period", cfg.RateLimit.PostRate.Period)
	return manager
}

func (s *Server) buildRouter(state *appstate.State) {
	r := gin.New()
	r.Use(gin.Recovery())
	cfg := config.FromContext(s.ctx)
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(s.ctx))
	if s.monitoring != nil && s.monitoring.IsInitialized() {
		r.Use(s.monitoring.GinMiddleware(s.ctx))
	}
	if cfg.Server.CORSEnabled {
		r.Use(CORSMiddleware(cfg.Server.CORS))
	}
	var postGuard []gin.HandlerFunc
	if limiter := s.buildRateLimiter(cfg); limiter != nil {
		r.Use(limiter.Middleware())
		postGuard = append(postGuard, limiter.PostMiddleware())
	}
	r.Use(appstate.StateMiddleware(state))
	if s.monitoring != nil && s.monitoring.IsInitialized() {
		r.GET(s.monitoring.Path(), gin.WrapH(s.monitoring.ExporterHandler()))
	}
	RegisterRoutes(s.ctx, r, state, postGuard...)
	s.router = r
}

func (s *Server) logStartupBanner() {
	log := logger.FromContext(s.ctx)
	host := friendlyHost(s.serverConfig.Host)
	httpURL := fmt.Sprintf("http://%s:%d", host, s.serverConfig.Port)
	lines := []string{
		fmt.Sprintf("Message Board %s", version.Get().Version),
		fmt.Sprintf("  Board         > %s/", httpURL),
		fmt.Sprintf("  Archive       > %s%s", httpURL, routes.Archive()),
		fmt.Sprintf("  API           > %s%s", httpURL, routes.Base()),
		fmt.Sprintf("  Health        > %s%s", httpURL, routes.HealthVersioned()),
		fmt.Sprintf("  Readyz        > %s%s", httpURL, routes.Readiness()),
	}
	if s.monitoring != nil && s.monitoring.IsInitialized() {
		lines = append(lines, fmt.Sprintf("  Metrics       > %s%s", httpURL, s.monitoring.Path()))
	}
	log.Info("\n" + strings.Join(lines, "\n"))
}

func friendlyHost(h string) string {
	if h == hostAny || h == "::" || h == "" {
		return hostLoopback
	}
	return h
}
