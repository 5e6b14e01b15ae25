package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/msgboard/msgboard/cli/cmd"
	configcmd "github.com/msgboard/msgboard/cli/cmd/config"
	"github.com/msgboard/msgboard/cli/cmd/messages"
	"github.com/msgboard/msgboard/cli/cmd/migrate"
	"github.com/msgboard/msgboard/cli/cmd/serve"
	"github.com/msgboard/msgboard/cli/helpers"
	"github.com/msgboard/msgboard/pkg/config"
	"github.com/msgboard/msgboard/pkg/logger"
	"github.com/msgboard/msgboard/pkg/version"
	"github.com/spf13/cobra"
)

// RootCmd builds the msgboard command tree.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "msgboard",
		Short: "A small message board backed by a primary and a standby database",
		Long: `msgboard serves a public message board. Writes go to the primary
database and reads are served by the standby; routing is decided by a
chain of database routers.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cobraCmd *cobra.Command, _ []string) error {
			return SetupGlobalConfig(cobraCmd)
		},
		PersistentPostRunE: func(cobraCmd *cobra.Command, _ []string) error {
			ctx := cobraCmd.Context()
			return config.ManagerFromContext(ctx).Close(ctx)
		},
	}
	helpers.AddGlobalFlags(root)
	root.AddCommand(
		serve.NewServeCommand(),
		migrate.NewMigrateCommand(),
		messages.NewMessagesCommand(),
		configcmd.NewConfigCommand(),
		versionCmd(),
	)
	return root
}

// SetupGlobalConfig loads the env file and the layered configuration
// (defaults, environment, YAML file, CLI flags) and stores the manager and
// a logger in the command context.
func SetupGlobalConfig(cobraCmd *cobra.Command) error {
	if err := helpers.LoadEnvironmentFile(cobraCmd); err != nil {
		return fmt.Errorf("failed to load environment file: %w", err)
	}
	ctx := cobraCmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cliFlags, err := helpers.ExtractCLIFlags(cobraCmd)
	if err != nil {
		return fmt.Errorf("failed to extract CLI flags: %w", err)
	}
	var sources []config.Source
	configFile, err := cobraCmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config file: %w", err)
	}
	if configFile != "" {
		sources = append(sources, config.NewYAMLProvider(configFile))
	}
	if len(cliFlags) > 0 {
		sources = append(sources, config.NewCLIProvider(cliFlags))
	}
	manager := config.NewManager(config.NewService())
	cfg, err := manager.Load(ctx, sources...)
	if err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}
	logLevel, logJSON, logSource, err := logger.GetLoggerConfig(cobraCmd)
	if err != nil {
		return err
	}
	if logLevel == "" {
		logLevel = cfg.Runtime.LogLevel
	}
	log := logger.SetupLoggerWithOutput(cobraCmd.ErrOrStderr(), logLevel, logJSON, logSource)
	ctx = logger.ContextWithLogger(ctx, log)
	ctx = config.ContextWithManager(ctx, manager)
	cobraCmd.SetContext(ctx)
	log.Debug("configuration loaded", "config_file", configFile, "sources", len(sources))
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(cobraCmd, cmd.ExecutorOptions{}, handleVersion, args)
		},
	}
}

func handleVersion(_ context.Context, _ *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
	info := version.Get()
	return executor.Output().Write(info, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, info.String())
		return err
	})
}
