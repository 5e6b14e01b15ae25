package migrate

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/msgboard/msgboard/cli/cmd"
	"github.com/msgboard/msgboard/engine/infra/store"
	"github.com/spf13/cobra"
)

// planOutput is the dry-run report.
type planOutput struct {
	Steps []store.MigrationStep `json:"steps"`
	Files []string              `json:"files"`
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the message schema to every alias the router allows",
		Long: `Apply the message schema to every configured database alias whose
migrations are allowed by the router chain. With --dry-run, print the plan
and the migration files without connecting to any database.`,
		Args: cobra.NoArgs,
		RunE: executeMigrateCommand,
	}
	command.Flags().Bool("dry-run", false, "Print the migration plan without connecting")
	return command
}

func executeMigrateCommand(cobraCmd *cobra.Command, args []string) error {
	dryRun, err := cobraCmd.Flags().GetBool("dry-run")
	if err != nil {
		return fmt.Errorf("failed to get dry-run flag: %w", err)
	}
	if dryRun {
		return cmd.ExecuteCommand(cobraCmd, cmd.ExecutorOptions{}, handlePlan, args)
	}
	opts := cmd.ExecutorOptions{RequireStore: true}
	return cmd.ExecuteCommand(cobraCmd, opts, handleMigrate, args)
}

func handlePlan(ctx context.Context, _ *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
	dbCfg := &executor.Config().Database
	chain, err := store.NewRouter(dbCfg)
	if err != nil {
		return fmt.Errorf("failed to build database router: %w", err)
	}
	files, err := store.MigrationFiles(dbCfg.Driver)
	if err != nil {
		return err
	}
	plan := planOutput{Steps: store.PlanFor(ctx, dbCfg, chain), Files: files}
	return executor.Output().Write(plan, func(w io.Writer) error {
		rows := make([][]string, 0, len(plan.Steps))
		for _, step := range plan.Steps {
			rows = append(rows, []string{step.Alias, step.Driver, strconv.FormatBool(step.Allowed)})
		}
		if err := executor.Output().Table([]string{"ALIAS", "DRIVER", "MIGRATE"}, rows); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "Files: %s\n", strings.Join(plan.Files, ", "))
		return err
	})
}

// handleMigrate runs after the executor opened the cluster. With
// database.auto_migrate on, the executor has already applied the plan and
// Migrate reruns as a no-op that still yields the report.
func handleMigrate(ctx context.Context, _ *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
	report, err := executor.Cluster().Migrate(ctx)
	if err != nil {
		return err
	}
	return executor.Output().Write(report, func(w io.Writer) error {
		if _, err := fmt.Fprintf(w, "Applied: %s\n", joinOrNone(report.Applied)); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "Skipped: %s\n", joinOrNone(report.Skipped))
		return err
	})
}

func joinOrNone(aliases []string) string {
	if len(aliases) == 0 {
		return "none"
	}
	return strings.Join(aliases, ", ")
}
