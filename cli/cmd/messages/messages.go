package messages

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/msgboard/msgboard/cli/cmd"
	"github.com/msgboard/msgboard/engine/message"
	"github.com/msgboard/msgboard/pkg/logger"
	"github.com/spf13/cobra"
)

const timeLayout = "Jan. 2, 2006, 15:04 MST"

// NewMessagesCommand creates the messages command group.
func NewMessagesCommand() *cobra.Command {
	command := &cobra.Command{
		Use:     "messages",
		Aliases: []string{"msg"},
		Short:   "Post and read board messages",
	}
	command.AddCommand(
		newPostCommand(),
		newLatestCommand(),
		newListCommand(),
	)
	return command
}

func newPostCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "post <text>",
		Short: "Post a message to the board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(cobraCmd, cmd.ExecutorOptions{RequireStore: true}, handlePost, args)
		},
	}
}

func newLatestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "latest",
		Short: "Show the most recent message",
		Args:  cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(cobraCmd, cmd.ExecutorOptions{RequireStore: true}, handleLatest, args)
		},
	}
}

func newListCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "list",
		Short: "List one archive page, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(cobraCmd, cmd.ExecutorOptions{RequireStore: true}, handleList, args)
		},
	}
	command.Flags().String("page", "1", "Archive page number; invalid values fall back like the web archive")
	return command
}

func handlePost(ctx context.Context, _ *cobra.Command, executor *cmd.CommandExecutor, args []string) error {
	msg, err := executor.Messages().Post(ctx, args[0])
	if err != nil {
		return err
	}
	logger.FromContext(ctx).Debug("message posted", "id", msg.ID)
	return executor.Output().Write(msg, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Posted message %d at %s\n", msg.ID, msg.CreatedAt.Format(timeLayout))
		return err
	})
}

func handleLatest(ctx context.Context, _ *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
	msg, err := executor.Messages().Latest(ctx)
	if err != nil {
		return err
	}
	return executor.Output().Write(msg, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%s\n%s\n", msg.Text, msg.CreatedAt.Format(timeLayout))
		return err
	})
}

func handleList(ctx context.Context, cobraCmd *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
	rawPage, err := cobraCmd.Flags().GetString("page")
	if err != nil {
		return fmt.Errorf("failed to get page flag: %w", err)
	}
	page, err := executor.Messages().Archive(ctx, rawPage)
	if err != nil {
		return err
	}
	return executor.Output().Write(page, func(w io.Writer) error {
		return writePage(w, executor, page)
	})
}

func writePage(w io.Writer, executor *cmd.CommandExecutor, page *message.Page) error {
	if len(page.Messages) == 0 {
		_, err := fmt.Fprintln(w, "There are no messages to display.")
		return err
	}
	rows := make([][]string, 0, len(page.Messages))
	for _, msg := range page.Messages {
		rows = append(rows, []string{
			strconv.FormatInt(msg.ID, 10),
			msg.CreatedAt.Format(timeLayout),
			msg.Text,
		})
	}
	if err := executor.Output().Table([]string{"ID", "POSTED", "TEXT"}, rows); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Page %d of %d.\n", page.Number, page.TotalPages)
	return err
}
