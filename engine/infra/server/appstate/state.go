package appstate

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/msgboard/msgboard/engine/infra/store"
	"github.com/msgboard/msgboard/engine/message"
	"github.com/msgboard/msgboard/pkg/config"
)

type contextKey string

const (
	stateKey contextKey = "app_state"
)

// State holds the dependencies shared by every request handler.
type State struct {
	Config   *config.Config
	Cluster  *store.Cluster
	Messages *message.Service
}

func NewState(cfg *config.Config, cluster *store.Cluster) (*State, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cluster == nil {
		return nil, fmt.Errorf("database cluster is required")
	}
	return &State{
		Config:  cfg,
		Cluster: cluster,
		Messages: message.NewService(cluster, &message.Config{
			MaxLength: cfg.Board.MaxLength,
			PageSize:  cfg.Board.PageSize,
		}),
	}, nil
}

func WithState(ctx context.Context, state *State) context.Context {
	return context.WithValue(ctx, stateKey, state)
}

func GetState(ctx context.Context) (*State, error) {
	state, ok := ctx.Value(stateKey).(*State)
	if !ok || state == nil {
		return nil, fmt.Errorf("app state not found in context")
	}
	return state, nil
}

func StateMiddleware(state *State) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := WithState(c.Request.Context(), state)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
