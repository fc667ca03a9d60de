// Package cli implements the refboard command-line interface.
//
// The commands load a board JSON file, run one engine operation on it and
// print the result, or keep the board open in an interactive browser or an
// HTTP server. Changes are synced through the configured persistence
// backend. The CLI is built using cobra and logs via charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - layout: Compute column geometry and reading order
//   - order: Print or commit the reading order
//   - move, columns: Edit the column arrangement
//   - fit: Compute the fit-to-content camera of a canvas
//   - browse: Walk and edit a board in the terminal
//   - serve: Expose a board over HTTP
//   - cache: Manage the layout cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg at debug level along with the elapsed time, rounded to the
// nearest microsecond. Example output: "layout computed (1.234ms)"
func (p *progress) done(msg string) {
	p.logger.Debugf("%s (%s)", msg, time.Since(p.start).Round(time.Microsecond))
}
