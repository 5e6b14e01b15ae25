package helpers

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
)

// OutputFormat represents different output formats
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
)

// ParseOutputFormat returns the format named by s, or an error for unknown values.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputFormatText, "":
		return OutputFormatText, nil
	case OutputFormatJSON:
		return OutputFormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", s)
	}
}

// OutputWriter handles different output formats
type OutputWriter struct {
	writer io.Writer
	format OutputFormat
}

// NewOutputWriter creates a new output writer
func NewOutputWriter(writer io.Writer, format OutputFormat) *OutputWriter {
	return &OutputWriter{writer: writer, format: format}
}

// Write renders data as indented JSON, or through text otherwise.
func (ow *OutputWriter) Write(data any, text func(w io.Writer) error) error {
	if ow.format == OutputFormatJSON {
		encoder := json.NewEncoder(ow.writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	}
	return text(ow.writer)
}

// Table writes tab-aligned rows.
func (ow *OutputWriter) Table(header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(ow.writer, 0, 0, 2, ' ', 0)
	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, cell)
		}
		fmt.Fprintln(tw)
	}
	writeRow(header)
	for _, row := range rows {
		writeRow(row)
	}
	return tw.Flush()
}
