// ABOUTME: CLI command showing item store statistics
// ABOUTME: Totals, items per content type, and the last seven days
package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// NewStatsCmd creates the stats command
func NewStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show item statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			stats, err := a.Items.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if wantJSON() {
				return printJSON(cmd.OutOrStdout(), stats)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render("Stash"))
			fmt.Fprintf(out, "  Items:       %d\n", stats.TotalItems)
			fmt.Fprintf(out, "  Categories:  %d\n", stats.TotalCategories)
			fmt.Fprintf(out, "  Tags:        %d\n", stats.TotalTags)
			fmt.Fprintf(out, "  Last 7 days: %d\n", stats.RecentItems)

			if len(stats.ItemsByType) > 0 {
				types := make([]string, 0, len(stats.ItemsByType))
				for t := range stats.ItemsByType {
					types = append(types, t)
				}
				sort.Strings(types)
				fmt.Fprintln(out, titleStyle.Render("By type"))
				for _, t := range types {
					fmt.Fprintf(out, "  %-12s %d\n", t+":", stats.ItemsByType[t])
				}
			}
			return nil
		},
	}
}
