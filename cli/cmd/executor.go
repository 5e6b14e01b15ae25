package cmd

import (
	"context"
	"fmt"

	"github.com/msgboard/msgboard/cli/helpers"
	"github.com/msgboard/msgboard/engine/infra/store"
	"github.com/msgboard/msgboard/engine/message"
	"github.com/msgboard/msgboard/pkg/config"
	"github.com/msgboard/msgboard/pkg/logger"
	"github.com/spf13/cobra"
)

// CommandExecutor handles common setup and execution patterns for CLI commands.
// It loads the active configuration, resolves the output format and, when
// asked, opens the database cluster behind the message service.
type CommandExecutor struct {
	cfg    *config.Config
	output *helpers.OutputWriter

	// Populated only when ExecutorOptions.RequireStore is set
	cluster  *store.Cluster
	messages *message.Service
}

// HandlerFunc defines the signature for command handlers.
type HandlerFunc func(ctx context.Context, cmd *cobra.Command, executor *CommandExecutor, args []string) error

// ExecutorOptions allows customization of the command executor
type ExecutorOptions struct {
	RequireStore bool
}

// NewCommandExecutor creates a new command executor with all necessary setup.
func NewCommandExecutor(cmd *cobra.Command, opts ExecutorOptions) (*CommandExecutor, error) {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	format, err := helpers.ParseOutputFormat(cfg.CLI.Format)
	if err != nil {
		return nil, err
	}
	executor := &CommandExecutor{
		cfg:    cfg,
		output: helpers.NewOutputWriter(cmd.OutOrStdout(), format),
	}
	if opts.RequireStore {
		if err := executor.openStore(ctx); err != nil {
			return nil, err
		}
	}
	return executor, nil
}

func (e *CommandExecutor) openStore(ctx context.Context) error {
	log := logger.FromContext(ctx)
	chain, err := store.NewRouter(&e.cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to build database router: %w", err)
	}
	cluster, err := store.OpenCluster(ctx, &e.cfg.Database, chain)
	if err != nil {
		return fmt.Errorf("failed to open databases: %w", err)
	}
	if e.cfg.Database.AutoMigrate {
		if _, err := cluster.Migrate(ctx); err != nil {
			_ = cluster.Close(ctx)
			return fmt.Errorf("failed to migrate databases: %w", err)
		}
	}
	log.Debug("database cluster ready", "aliases", cluster.Aliases())
	e.cluster = cluster
	e.messages = message.NewService(cluster, &message.Config{
		MaxLength: e.cfg.Board.MaxLength,
		PageSize:  e.cfg.Board.PageSize,
	})
	return nil
}

// Config returns the configuration the command runs with.
func (e *CommandExecutor) Config() *config.Config {
	return e.cfg
}

// Output returns the writer honoring --format.
func (e *CommandExecutor) Output() *helpers.OutputWriter {
	return e.output
}

// Cluster returns the opened cluster, or nil without RequireStore.
func (e *CommandExecutor) Cluster() *store.Cluster {
	return e.cluster
}

// Messages returns the message service, or nil without RequireStore.
func (e *CommandExecutor) Messages() *message.Service {
	return e.messages
}

// Close releases the database cluster if one was opened.
func (e *CommandExecutor) Close(ctx context.Context) {
	if e.cluster == nil {
		return
	}
	if err := e.cluster.Close(ctx); err != nil {
		logger.FromContext(ctx).Warn("failed to close databases", "error", err)
	}
}

// ExecuteCommand is a convenience function that combines executor creation and execution.
func ExecuteCommand(cmd *cobra.Command, opts ExecutorOptions, handler HandlerFunc, args []string) error {
	executor, err := NewCommandExecutor(cmd, opts)
	if err != nil {
		return HandleCommonErrors(cmd.Context(), err)
	}
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	defer executor.Close(context.WithoutCancel(ctx))
	return HandleCommonErrors(ctx, handler(ctx, cmd, executor, args))
}

// HandleCommonErrors provides consistent error handling across all commands.
func HandleCommonErrors(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	logger.FromContext(ctx).Debug("command failed", "error", err)
	return helpers.Categorize(err)
}
