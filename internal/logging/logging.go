// ABOUTME: Logger construction shared by the CLI, MCP server, and HTTP API
// ABOUTME: Wraps charmbracelet/log with a stash prefix and parsed level
package logging

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// New returns a logger writing to w. Unknown levels fall back to info.
func New(w io.Writer, level string) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Prefix:          "stash",
		ReportTimestamp: true,
		Level:           ParseLevel(level),
	})
}

// ParseLevel maps a level name to a log.Level, defaulting to info
func ParseLevel(level string) log.Level {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Discard returns a logger that drops everything, for tests
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}
