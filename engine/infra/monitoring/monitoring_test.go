package monitoring

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/msgboard/msgboard/engine/infra/monitoring/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnabledService(t *testing.T) *Service {
	t.Helper()
	ResetSystemMetricsForTesting()
	service, err := NewMonitoringService(context.Background(), &Config{Enabled: true, Path: "/metrics"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = service.Shutdown(context.Background()) })
	return service
}

func scrape(t *testing.T, service *Service) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	service.ExporterHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	return w
}

func TestNewMonitoringService(t *testing.T) {
	t.Run("Should build a disabled no-op service from a nil config", func(t *testing.T) {
		service, err := NewMonitoringService(context.Background(), nil)
		require.NoError(t, err)
		assert.False(t, service.IsInitialized())
		assert.Equal(t, "/metrics", service.Path())
		assert.NotNil(t, service.Meter())
		assert.NoError(t, service.Shutdown(context.Background()))
	})

	t.Run("Should reject a path under the API", func(t *testing.T) {
		_, err := NewMonitoringService(context.Background(), &Config{Enabled: true, Path: "/api/v0/metrics"})
		assert.ErrorContains(t, err, "cannot be under /api/")
	})

	t.Run("Should export through Prometheus when enabled", func(t *testing.T) {
		service := newEnabledService(t)
		assert.True(t, service.IsInitialized())
		w := scrape(t, service)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "msgboard_uptime_seconds")
	})
}

func TestService_ExporterHandler(t *testing.T) {
	t.Run("Should return 503 when monitoring is off", func(t *testing.T) {
		service, err := NewMonitoringService(context.Background(), &Config{Path: "/metrics"})
		require.NoError(t, err)
		w := scrape(t, service)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "Monitoring service not initialized")
	})

	t.Run("Should report board requests recorded by the middleware", func(t *testing.T) {
		middleware.ResetMetricsForTesting()
		t.Cleanup(middleware.ResetMetricsForTesting)
		service := newEnabledService(t)
		gin.SetMode(gin.TestMode)
		r := gin.New()
		r.Use(service.GinMiddleware(context.Background()))
		r.GET("/archive", func(c *gin.Context) { c.String(http.StatusOK, "archive") })
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/archive?page=2", http.NoBody))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, scrape(t, service).Body.String(), `path="/archive"`)
	})
}
