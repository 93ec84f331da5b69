package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	// FormatText is human-readable text output
	FormatText OutputFormat = "text"
	// FormatJSON is structured JSON output
	FormatJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output-format value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text or json)", s)
}

// Formatter writes command results in one output format.
type Formatter interface {
	// PrintSuccess prints a one-line confirmation.
	PrintSuccess(message string) error
	// PrintTable prints rows under headers. Empty tables print the empty
	// message in text mode and an empty list in JSON mode.
	PrintTable(headers []string, rows [][]string, empty string) error
	// PrintJSON prints v as indented JSON in either format.
	PrintJSON(v any) error
}

// TextFormatter implements Formatter for human-readable text output
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new TextFormatter writing to the given writer
func NewTextFormatter(w io.Writer) *TextFormatter {
	if w == nil {
		w = os.Stdout
	}
	return &TextFormatter{writer: w}
}

func (f *TextFormatter) PrintSuccess(message string) error {
	_, err := fmt.Fprintf(f.writer, "✓ %s\n", message)
	return err
}

// PrintTable prints aligned columns with uppercase headers.
func (f *TextFormatter) PrintTable(headers []string, rows [][]string, empty string) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(f.writer, empty)
		return err
	}

	tw := tabwriter.NewWriter(f.writer, 0, 0, 2, ' ', 0)
	upper := make([]string, len(headers))
	rule := make([]string, len(headers))
	for i, h := range headers {
		upper[i] = strings.ToUpper(h)
		rule[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(upper, "\t"))
	fmt.Fprintln(tw, strings.Join(rule, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func (f *TextFormatter) PrintJSON(v any) error {
	return writeJSON(f.writer, v)
}

// JSONFormatter implements Formatter for structured JSON output
type JSONFormatter struct {
	writer io.Writer
}

// NewJSONFormatter creates a new JSONFormatter writing to the given writer
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	if w == nil {
		w = os.Stdout
	}
	return &JSONFormatter{writer: w}
}

func (f *JSONFormatter) PrintSuccess(message string) error {
	return f.PrintJSON(map[string]string{
		"status":  "success",
		"message": message,
	})
}

// PrintTable prints the rows as a list of objects keyed by header.
func (f *JSONFormatter) PrintTable(headers []string, rows [][]string, _ string) error {
	data := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		obj := make(map[string]string, len(headers))
		for i, header := range headers {
			if i < len(row) {
				obj[header] = row[i]
			} else {
				obj[header] = ""
			}
		}
		data = append(data, obj)
	}
	return f.PrintJSON(data)
}

func (f *JSONFormatter) PrintJSON(v any) error {
	return writeJSON(f.writer, v)
}

// NewFormatter creates a new Formatter based on the output format
func NewFormatter(format OutputFormat, w io.Writer) Formatter {
	if format == FormatJSON {
		return NewJSONFormatter(w)
	}
	return NewTextFormatter(w)
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
