// ABOUTME: CLI command to export items
// ABOUTME: Writes JSON, CSV, or YAML to stdout or a file
package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harper/stash/internal/core"
)

var (
	exportFormat string
	exportOutput string
)

// NewExportCmd creates the export command
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all items",
		Long: `Export every item, oldest first, as JSON, CSV, or YAML.

Examples:
  stash export > backup.json
  stash export --as csv --output stash.csv
  stash export --as yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			exp, err := a.Items.Export(cmd.Context(), exportFormat)
			return writeExport(cmd, exp, err, exportOutput)
		},
	}

	cmd.Flags().StringVar(&exportFormat, "as", string(core.FormatJSON), "Export format: json, csv, or yaml")
	cmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to a file instead of stdout")

	return cmd
}

// writeExport sends an export to stdout or path
func writeExport(cmd *cobra.Command, exp *core.Export, err error, path string) error {
	if errors.Is(err, core.ErrNothingToExport) {
		notify(cmd, "Nothing to export")
		return nil
	}
	if err != nil {
		return err
	}

	if path == "" {
		_, err := cmd.OutOrStdout().Write(exp.Data)
		return err
	}
	if err := os.WriteFile(path, exp.Data, 0644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	notify(cmd, "%s", success(fmt.Sprintf("Exported %d record(s) to %s", exp.Count, path)))
	return nil
}
