// ABOUTME: Per-command bootstrap: config loading, logger setup, and service wiring
// ABOUTME: Also holds the shared JSON/table output switch
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/harper/stash/internal/app"
	"github.com/harper/stash/internal/config"
	"github.com/harper/stash/internal/logging"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newLogger writes to stderr so stdout stays clean for results
func newLogger(cfg *config.Config) *log.Logger {
	level := cfg.Log.Level
	switch {
	case verbose:
		level = "debug"
	case quiet:
		level = "error"
	}
	return logging.New(os.Stderr, level)
}

// openApp loads config and wires storage, the AI provider, and services
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a, err := app.New(cmd.Context(), cfg, newLogger(cfg))
	if err != nil {
		return nil, fmt.Errorf("initializing stash: %w", err)
	}
	return a, nil
}

func wantJSON() bool {
	return outputFormat == "json"
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// notify prints a status line unless --quiet is set
func notify(cmd *cobra.Command, format string, args ...interface{}) {
	if quiet {
		return
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
}
