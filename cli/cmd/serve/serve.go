package serve

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/msgboard/msgboard/cli/cmd"
	"github.com/msgboard/msgboard/engine/infra/server"
	"github.com/msgboard/msgboard/pkg/config"
	"github.com/msgboard/msgboard/pkg/logger"
	"github.com/spf13/cobra"
)

const productionEnvironment = "production"

// NewServeCommand creates the serve command for the board web server
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start", "server"},
		Short:   "Start the message board web server",
		Args:    cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(cobraCmd, cmd.ExecutorOptions{}, handleServe, args)
		},
	}
}

func handleServe(ctx context.Context, _ *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
	cfg := executor.Config()
	if cfg.Runtime.Environment == productionEnvironment {
		gin.SetMode(gin.ReleaseMode)
	}
	logProductionWarnings(ctx, cfg)
	srv, err := server.NewServer(ctx)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Run()
}

func logProductionWarnings(ctx context.Context, cfg *config.Config) {
	if cfg.Runtime.Environment != productionEnvironment {
		return
	}
	log := logger.FromContext(ctx)
	if cfg.Database.Driver == config.DriverSQLite {
		log.Warn("SQLite in production; both aliases share local files")
	}
	if cfg.Server.CORSEnabled && len(cfg.Server.CORS.AllowedOrigins) == 0 {
		log.Warn("CORS enabled for every origin in production")
	}
	if cfg.RateLimit.PostRate.Limit == 0 {
		log.Warn("Posting is not rate limited in production")
	}
}
