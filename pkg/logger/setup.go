package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// SetupLogger builds a logger from CLI-style settings and installs it as the
// default.
func SetupLogger(logLevel string, logJSON, logSource bool) Logger {
	return SetupLoggerWithOutput(os.Stdout, logLevel, logJSON, logSource)
}

// SetupLoggerWithOutput is SetupLogger writing to out. CLI commands log to
// stderr so their stdout stays parseable.
func SetupLoggerWithOutput(out io.Writer, logLevel string, logJSON, logSource bool) Logger {
	level := LogLevel(strings.ToLower(strings.TrimSpace(logLevel)))
	switch level {
	case DebugLevel, InfoLevel, WarnLevel, ErrorLevel, DisabledLevel:
	default:
		level = InfoLevel
	}
	l := NewLogger(&Config{
		Level:      level,
		Output:     out,
		JSON:       logJSON,
		AddSource:  logSource,
		TimeFormat: "15:04:05",
	})
	SetDefault(l)
	return l
}

func GetLoggerConfig(cmd *cobra.Command) (string, bool, bool, error) {
	logLevel, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return "", false, false, fmt.Errorf("failed to get log-level flag: %w", err)
	}

	logJSON, err := cmd.Flags().GetBool("log-json")
	if err != nil {
		return "", false, false, fmt.Errorf("failed to get log-json flag: %w", err)
	}

	logSource, err := cmd.Flags().GetBool("log-source")
	if err != nil {
		return "", false, false, fmt.Errorf("failed to get log-source flag: %w", err)
	}

	return logLevel, logJSON, logSource, nil
}
