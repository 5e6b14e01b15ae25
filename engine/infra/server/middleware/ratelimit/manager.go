package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/msgboard/msgboard/engine/infra/server/router"
	"github.com/msgboard/msgboard/pkg/logger"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.opentelemetry.io/otel/metric"
)

const (
	limiterGlobal = "global"
	limiterPost   = "post"
	memoryCleanup = time.Minute
)

// Manager builds rate limiting middleware backed by Redis when a client is
// given and by an in-process store otherwise.
type Manager struct {
	config *Config
	global *limiter.Limiter
	post   *limiter.Limiter
	driver string
	log    logger.Logger
}

// NewManager creates limiters for every enabled rate in cfg.
func NewManager(ctx context.Context, cfg *Config, client *redis.Client) (*Manager, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rate limit config: %w", err)
	}
	m := &Manager{config: cfg, driver: "memory", log: logger.FromContext(ctx)}
	if client != nil {
		m.driver = "redis"
	}
	var err error
	if cfg.GlobalRate.Enabled() {
		if m.global, err = m.newLimiter(client, limiterGlobal, cfg.GlobalRate); err != nil {
			return nil, err
		}
	}
	if cfg.PostRate.Enabled() {
		if m.post, err = m.newLimiter(client, limiterPost, cfg.PostRate); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// NewManagerWithMetrics is NewManager plus a blocked-requests counter on meter.
func NewManagerWithMetrics(
	ctx context.Context,
	cfg *Config,
	client *redis.Client,
	meter metric.Meter,
) (*Manager, error) {
	if meter != nil {
		if err := InitMetrics(meter); err != nil {
			logger.FromContext(ctx).Warn("Failed to initialize rate limit metrics", "error", err)
		}
	}
	return NewManager(ctx, cfg, client)
}

func (m *Manager) newLimiter(client *redis.Client, name string, rate RateConfig) (*limiter.Limiter, error) {
	opts := limiter.StoreOptions{
		Prefix:          m.config.Prefix + name,
		MaxRetry:        m.config.MaxRetry,
		CleanUpInterval: memoryCleanup,
	}
	var store limiter.Store
	if client != nil {
		var err error
		store, err = sredis.NewStoreWithOptions(client, opts)
		if err != nil {
			return nil, fmt.Errorf("create redis rate limit store: %w", err)
		}
	} else {
		store = memory.NewStoreWithOptions(opts)
	}
	return limiter.New(store, rate.ToLimiterRate()), nil
}

// Driver names the backing store.
func (m *Manager) Driver() string {
	return m.driver
}

// Middleware enforces the global rate on every non-excluded path.
func (m *Manager) Middleware() gin.HandlerFunc {
	return m.middleware(m.global, limiterGlobal)
}

// PostMiddleware enforces the submission rate; attach it to write routes.
func (m *Manager) PostMiddleware() gin.HandlerFunc {
	return m.middleware(m.post, limiterPost)
}

func (m *Manager) middleware(l *limiter.Limiter, name string) gin.HandlerFunc {
	if l == nil {
		return func(c *gin.Context) { c.Next() }
	}
	limited := mgin.NewMiddleware(l,
		mgin.WithKeyGetter(func(c *gin.Context) string {
			return c.ClientIP()
		}),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			route := c.FullPath()
			if route == "" {
				route = c.Request.URL.Path
			}
			IncrementBlockedRequests(c.Request.Context(), route, name)
			router.RespondWithError(c, http.StatusTooManyRequests,
				router.NewRequestError(http.StatusTooManyRequests, "rate limit exceeded", nil))
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			// Fail open: a broken store must not take the board down.
			m.log.Error("Rate limiter store failed", "limiter", name, "error", err)
			c.Next()
		}),
	)
	return func(c *gin.Context) {
		if m.excluded(c.Request.URL.Path) {
			c.Next()
			return
		}
		if m.config.DisableHeaders {
			m.enforceWithoutHeaders(c, l, name)
			return
		}
		limited(c)
	}
}

func (m *Manager) enforceWithoutHeaders(c *gin.Context, l *limiter.Limiter, name string) {
	ctx, err := l.Get(c.Request.Context(), c.ClientIP())
	if err != nil {
		m.log.Error("Rate limiter store failed", "limiter", name, "error", err)
		c.Next()
		return
	}
	if ctx.Reached {
		IncrementBlockedRequests(c.Request.Context(), c.FullPath(), name)
		router.RespondWithError(c, http.StatusTooManyRequests,
			router.NewRequestError(http.StatusTooManyRequests, "rate limit exceeded", nil))
		c.Abort()
		return
	}
	c.Next()
}

func (m *Manager) excluded(path string) bool {
	for _, excluded := range m.config.ExcludedPaths {
		if path == excluded || strings.HasPrefix(path, strings.TrimSuffix(excluded, "/")+"/") {
			return true
		}
	}
	return false
}
