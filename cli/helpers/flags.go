package helpers

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/joho/godotenv"
	"github.com/msgboard/msgboard/pkg/config/definition"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// AddGlobalFlags registers the persistent flags shared by every command:
// config and env file locations, logging, and every registry field that
// declares a CLI flag.
func AddGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("config", "msgboard.yaml", "Path to the YAML configuration file")
	flags.String("env-file", ".env", "Path to the environment variables file")
	flags.String("log-level", "", "Log level: debug|info|warn|error (defaults to runtime.log_level)")
	flags.Bool("log-json", false, "Emit logs as JSON")
	flags.Bool("log-source", false, "Include source locations in logs")
	for _, field := range definition.CreateRegistry().FlagFields() {
		addRegistryFlag(flags, &field)
	}
}

func addRegistryFlag(flags *pflag.FlagSet, field *definition.FieldDef) {
	switch field.Type {
	case reflect.TypeOf(0):
		def, _ := field.Default.(int)
		flags.IntP(field.CLIFlag, field.Shorthand, def, field.Help)
	case reflect.TypeOf(int64(0)):
		def, _ := field.Default.(int64)
		flags.Int64P(field.CLIFlag, field.Shorthand, def, field.Help)
	case reflect.TypeOf(true):
		def, _ := field.Default.(bool)
		flags.BoolP(field.CLIFlag, field.Shorthand, def, field.Help)
	case reflect.TypeOf(time.Duration(0)):
		def, _ := field.Default.(time.Duration)
		flags.DurationP(field.CLIFlag, field.Shorthand, def, field.Help)
	case reflect.TypeOf([]string{}):
		def, _ := field.Default.([]string)
		flags.StringSliceP(field.CLIFlag, field.Shorthand, def, field.Help)
	default:
		def, _ := field.Default.(string)
		flags.StringP(field.CLIFlag, field.Shorthand, def, field.Help)
	}
}

// ExtractCLIFlags returns the registry flags the user explicitly set, keyed
// by flag name.
func ExtractCLIFlags(cmd *cobra.Command) (map[string]any, error) {
	out := make(map[string]any)
	for _, field := range definition.CreateRegistry().FlagFields() {
		flag := cmd.Flags().Lookup(field.CLIFlag)
		if flag == nil || !flag.Changed {
			continue
		}
		value, err := flagValue(cmd.Flags(), field.CLIFlag, field.Type)
		if err != nil {
			return nil, fmt.Errorf("failed to read flag %s: %w", field.CLIFlag, err)
		}
		out[field.CLIFlag] = value
	}
	return out, nil
}

func flagValue(flags *pflag.FlagSet, name string, typ reflect.Type) (any, error) {
	switch typ {
	case reflect.TypeOf(0):
		return flags.GetInt(name)
	case reflect.TypeOf(int64(0)):
		return flags.GetInt64(name)
	case reflect.TypeOf(true):
		return flags.GetBool(name)
	case reflect.TypeOf(time.Duration(0)):
		return flags.GetDuration(name)
	case reflect.TypeOf([]string{}):
		return flags.GetStringSlice(name)
	default:
		return flags.GetString(name)
	}
}

// LoadEnvironmentFile loads the --env-file into the process environment.
// A missing file is not an error; variables already set are kept.
func LoadEnvironmentFile(cmd *cobra.Command) error {
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return fmt.Errorf("failed to get env-file flag: %w", err)
	}
	if envFile == "" {
		return nil
	}
	absPath, err := filepath.Abs(envFile)
	if err != nil {
		return fmt.Errorf("failed to resolve env file path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to stat env file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("env file path '%s' is not a regular file", envFile)
	}
	if err := godotenv.Load(absPath); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", absPath, err)
	}
	return nil
}
