package server

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/msgboard/msgboard/engine/infra/server/appstate"
	"github.com/msgboard/msgboard/engine/infra/server/routes"
	msgrouter "github.com/msgboard/msgboard/engine/message/router"
	"github.com/msgboard/msgboard/pkg/logger"
	"github.com/msgboard/msgboard/pkg/version"
)

// RegisterRoutes mounts the board, the JSON API and the health probes.
// postGuard runs before handlers that store messages.
func RegisterRoutes(ctx context.Context, r *gin.Engine, state *appstate.State, postGuard ...gin.HandlerFunc) {
	apiBase := r.Group(routes.Base())
	msgrouter.Register(r, apiBase, postGuard...)
	registerHealthRoutes(r, state, version.Get().Version)
	logger.FromContext(ctx).Info("Completed route registration",
		"api_base", routes.Base(),
		"databases", state.Cluster.Aliases(),
	)
}
