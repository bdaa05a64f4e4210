// Package diag is the line-oriented diagnostic output of the robot: executed
// commands and detection summaries, one per line. Nothing reads it back.
package diag

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Sink receives diagnostic lines.
type Sink interface {
	Line(s string)
	Close() error
}

// Printf formats a line and sends it to s. A nil sink drops it.
func Printf(s Sink, format string, args ...interface{}) {
	if s == nil {
		return
	}
	s.Line(fmt.Sprintf(format, args...))
}

// Nop discards everything.
type Nop struct{}

func (Nop) Line(string)  {}
func (Nop) Close() error { return nil }

// Writer writes lines to an io.Writer, terminated by the configured line
// ending. Write failures are logged and otherwise ignored.
type Writer struct {
	mu      sync.Mutex
	w       io.Writer
	newline string
	failed  bool
}

// NewWriter returns a Writer terminating lines with "\n".
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, newline: "\n"}
}

// Line writes s. Embedded line breaks are flattened so every call is exactly
// one line on the wire.
func (w *Writer) Line(s string) {
	s = strings.NewReplacer("\r", " ", "\n", " ").Replace(s)

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := io.WriteString(w.w, s+w.newline); err != nil {
		// Only report the first failure, the sink is usually gone for good.
		if !w.failed {
			logrus.WithError(err).Warn("diagnostic output failed")
		}
		w.failed = true
		return
	}
	w.failed = false
}

// Close closes the underlying writer if it is an io.Closer.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if c, ok := w.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
