// ABOUTME: Root command, global flags, and subcommand registration
// ABOUTME: --verbose and --quiet are mutually exclusive; --format picks table or JSON output
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
	configPath   string
)

const banner = `
 ███████╗████████╗ █████╗ ███████╗██╗  ██╗
 ██╔════╝╚══██╔══╝██╔══██╗██╔════╝██║  ██║
 ███████╗   ██║   ███████║███████╗███████║
 ╚════██║   ██║   ██╔══██║╚════██║██╔══██║
 ███████║   ██║   ██║  ██║███████║██║  ██║
 ╚══════╝   ╚═╝   ╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝
`

// NewRootCmd creates the root command with every subcommand attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stash",
		Short: "Capture, categorize, and find notes, links, and photos",
		Long: banner + `
Stash keeps the things you want to remember: notes, links, and photos.
Items are embedded for semantic search and auto-categorized when an
OpenAI key is configured; everything still works without one.

Photos of clutter become keep/consider/discard tasks you can work
through and track.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch outputFormat {
			case "auto", "json", "table":
				return nil
			default:
				return fmt.Errorf("invalid --format %q (want auto, json, or table)", outputFormat)
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only print results and errors")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, json, or table")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/stash/stash.yaml)")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(
		NewSaveCmd(),
		NewSaveURLCmd(),
		NewTagCmd(),
		NewListCmd(),
		NewDeleteCmd(),
		NewSearchCmd(),
		NewFindCmd(),
		NewCategoriesCmd(),
		NewTagsCmd(),
		NewStatsCmd(),
		NewExportCmd(),
		NewDeclutterCmd(),
		NewTasksCmd(),
		NewMCPCmd(),
		NewServeCmd(),
		NewMigrateCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
