// Package output provides adapters for writing computed version variables
// to an output destination.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/caravel-ci/gitver/internal/domain"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Writer writes version variables to the configured destination, either as
// the full variable surface (text or JSON) or as a single named variable.
type Writer struct {
	out      io.Writer
	format   string
	variable string
}

// NewWriter creates a Writer that writes to stdout.
func NewWriter(format, variable string) *Writer {
	return &Writer{out: os.Stdout, format: format, variable: variable}
}

// NewWriterWithOutput creates a Writer with a custom output destination.
// This is useful for testing.
func NewWriterWithOutput(out io.Writer, format, variable string) *Writer {
	return &Writer{out: out, format: format, variable: variable}
}

// Write emits the variables in the configured format. When a single
// variable is selected, only its value is written, without any prefix,
// for consumption by scripts.
func (w *Writer) Write(vars *domain.VersionVariables) error {
	if w.variable != "" {
		value, ok := vars.Lookup(w.variable)
		if !ok {
			return fmt.Errorf("unknown version variable %q", w.variable)
		}
		_, err := fmt.Fprintln(w.out, value)
		return err
	}

	if w.format == FormatJSON {
		encoder := json.NewEncoder(w.out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(vars)
	}

	for _, field := range vars.Fields() {
		if _, err := fmt.Fprintf(w.out, "%s: %s\n", field.Name, field.Value); err != nil {
			return err
		}
	}
	return nil
}
