package config

import (
	"context"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/msgboard/msgboard/cli/cmd"
	"github.com/msgboard/msgboard/pkg/config"
	"github.com/spf13/cobra"
)

const (
	notSet   = "(not set)"
	redacted = "[REDACTED]"
)

// Entry is one resolved configuration key.
type Entry struct {
	Key    string            `json:"key"`
	Value  string            `json:"value"`
	Source config.SourceType `json:"source,omitempty"`
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "config",
		Short: "Configuration management and diagnostics",
	}
	command.AddCommand(
		newShowCommand(),
		newValidateCommand(),
		newEnvCommand(),
	)
	return command
}

func newShowCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration values",
		Args:  cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(cobraCmd, cmd.ExecutorOptions{}, handleShow, args)
		},
	}
	command.Flags().Bool("sources", false, "Show where each value came from")
	return command
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(cobraCmd, cmd.ExecutorOptions{}, handleValidate, args)
		},
	}
}

func newEnvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "List the environment variables mapped onto configuration keys",
		Args:  cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(cobraCmd, cmd.ExecutorOptions{}, handleEnv, args)
		},
	}
}

func handleShow(ctx context.Context, cobraCmd *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
	showSources, err := cobraCmd.Flags().GetBool("sources")
	if err != nil {
		return fmt.Errorf("failed to get sources flag: %w", err)
	}
	entries := Flatten(executor.Config())
	if showSources {
		svc := config.ManagerFromContext(ctx).Service
		for i := range entries {
			entries[i].Source = svc.GetSource(entries[i].Key)
		}
	}
	return executor.Output().Write(entries, func(_ io.Writer) error {
		header := []string{"KEY", "VALUE"}
		if showSources {
			header = append(header, "SOURCE")
		}
		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			row := []string{e.Key, e.Value}
			if showSources {
				row = append(row, string(e.Source))
			}
			rows = append(rows, row)
		}
		return executor.Output().Table(header, rows)
	})
}

func handleValidate(ctx context.Context, _ *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
	if err := config.ManagerFromContext(ctx).Service.Validate(executor.Config()); err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}
	result := map[string]any{"valid": true}
	return executor.Output().Write(result, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, "Configuration is valid")
		return err
	})
}

func handleEnv(_ context.Context, _ *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
	mappings := config.GenerateEnvMappings()
	entries := make([]Entry, 0, len(mappings))
	for _, m := range mappings {
		value := os.Getenv(m.EnvVar)
		switch {
		case value == "":
			value = notSet
		case config.IsSensitiveConfigPath(m.ConfigPath):
			value = redacted
		}
		entries = append(entries, Entry{Key: m.EnvVar + "=" + m.ConfigPath, Value: value})
	}
	return executor.Output().Write(entries, func(_ io.Writer) error {
		rows := make([][]string, 0, len(mappings))
		for i, m := range mappings {
			rows = append(rows, []string{m.EnvVar, m.ConfigPath, entries[i].Value})
		}
		return executor.Output().Table([]string{"ENVIRONMENT VARIABLE", "CONFIG PATH", "CURRENT VALUE"}, rows)
	})
}

// Flatten lists every configuration leaf by its koanf path, sorted by key.
// Sensitive values are redacted.
func Flatten(cfg *config.Config) []Entry {
	var entries []Entry
	collect(reflect.ValueOf(cfg).Elem(), "", &entries)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}

func collect(val reflect.Value, prefix string, out *[]Entry) {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		tag := field.Tag.Get("koanf")
		if !field.IsExported() || tag == "" || tag == "-" {
			continue
		}
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}
		fieldVal := val.Field(i)
		if fieldVal.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			collect(fieldVal, key, out)
			continue
		}
		*out = append(*out, Entry{Key: key, Value: formatValue(fieldVal)})
	}
}

func formatValue(v reflect.Value) string {
	switch value := v.Interface().(type) {
	case config.SensitiveString:
		return value.String()
	case []string:
		return strings.Join(value, ",")
	case time.Duration:
		return value.String()
	default:
		return fmt.Sprint(value)
	}
}
