package msgrouter

import (
	"github.com/gin-gonic/gin"
	"github.com/msgboard/msgboard/engine/infra/server/router"
)

// getRouting describes the database routing chain
//
//	@Summary	Describe database routing
//	@Tags		routing
//	@Produce	json
//	@Success	200	{object}	router.Response{data=store.Routing}
//	@Router		/routing [get]
func getRouting(c *gin.Context) {
	appState := router.GetAppState(c)
	if appState == nil {
		return
	}
	router.RespondOK(c, "routing described", appState.Cluster.Describe(c.Request.Context()))
}
