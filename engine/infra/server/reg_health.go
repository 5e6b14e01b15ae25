package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/msgboard/msgboard/engine/infra/server/appstate"
	"github.com/msgboard/msgboard/engine/infra/server/routes"
	"github.com/msgboard/msgboard/engine/infra/store"
	"github.com/msgboard/msgboard/pkg/logger"
)

func registerHealthRoutes(r *gin.Engine, state *appstate.State, version string) {
	r.GET(routes.Liveness(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET(routes.Readiness(), createReadinessHandler(state))
	r.GET(routes.HealthVersioned(), CreateHealthHandler(state, version))
}

func createReadinessHandler(state *appstate.State) gin.HandlerFunc {
	return func(c *gin.Context) {
		ready, databases := gatherDatabaseStatus(c, state)
		status := statusReady
		if !ready {
			status = statusNotReady
		}
		c.JSON(determineHealthStatusCode(ready), gin.H{
			"status":    status,
			"databases": databases,
		})
	}
}

// Health endpoint
//
//	@Summary      Get server health
//	@Description  Returns overall service health and the reachability of every database alias
//	@Tags         health
//	@Produce      json
//	@Success      200 {object} map[string]interface{} "Service is healthy"
//	@Failure      503 {object} map[string]interface{} "Service is not ready"
//	@Router       /api/v0/health [get]
func CreateHealthHandler(state *appstate.State, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ready, databases := gatherDatabaseStatus(c, state)
		healthStatus := "healthy"
		if !ready {
			healthStatus = "degraded"
		}
		c.JSON(determineHealthStatusCode(ready), gin.H{
			"data": gin.H{
				"status":    healthStatus,
				"version":   version,
				"ready":     ready,
				"databases": databases,
			},
			"message": "Success",
		})
	}
}

func gatherDatabaseStatus(c *gin.Context, state *appstate.State) (bool, []store.AliasHealth) {
	ctx := c.Request.Context()
	databases := state.Cluster.Health(ctx)
	ready := true
	for _, db := range databases {
		if !db.Healthy {
			ready = false
			logger.FromContext(ctx).Warn("Readiness probe failed", "alias", db.Alias, "error", db.Error)
		}
	}
	return ready, databases
}

func determineHealthStatusCode(ready bool) int {
	if !ready {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}
