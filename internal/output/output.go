// Package output provides consistent CLI status messages. It is a thin,
// pluggable layer: commands write through a Writer rather than calling
// fmt directly, so tests can capture output and a future TUI can swap
// the sink.
package output

import (
	"fmt"
	"io"
)

// Writer formats status messages for the CLI.
type Writer struct {
	out io.Writer
}

// New creates a Writer over out.
func New(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Status prints a message with an icon prefix, or three spaces if icon is empty.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		fmt.Fprintf(w.out, "%s %s\n", icon, msg)
		return
	}
	fmt.Fprintf(w.out, "   %s\n", msg)
}

// Success prints a success message.
func (w *Writer) Success(msg string) {
	w.Status("✓", msg)
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status("!", msg)
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status("✗", msg)
}

// Newline prints a blank line.
func (w *Writer) Newline() {
	fmt.Fprintln(w.out)
}
