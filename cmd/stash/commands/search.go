// ABOUTME: CLI commands for finding items and browsing labels
// ABOUTME: search is semantic, find is keyword; categories and tags list labels
package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/stash/internal/core"
)

var (
	searchLimit int
	findLimit   int
)

// NewSearchCmd creates the semantic search command
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find items by meaning",
		Long: `Rank saved items by semantic similarity to the query.

Needs an OpenAI key; without one nothing is returned.

Examples:
  stash search "that article about database indexes"
  stash search --limit 10 travel plans`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().IntVarP(&searchLimit, "limit", "n", core.DefaultSemanticLimit, "Maximum number of results")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := validatePositiveInt(searchLimit, "limit"); err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	results, err := a.Search.Semantic(cmd.Context(), strings.Join(args, " "), searchLimit)
	if err != nil {
		return err
	}

	if wantJSON() {
		return printJSON(cmd.OutOrStdout(), results)
	}
	if len(results) == 0 {
		notify(cmd, "No matches (semantic search needs OPENAI_API_KEY)")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SCORE\tID\tCONTENT\tCATEGORIES\n")
	fmt.Fprintf(w, "-----\t--\t-------\t----------\n")
	for _, r := range results {
		fmt.Fprintf(w, "%.2f\t%s\t%s\t%s\n",
			r.Similarity,
			r.Item.ShortID(),
			truncate(oneLine(r.Item.Content), 60),
			joinOrDash(r.Item.CategoryNames()))
	}
	return w.Flush()
}

// NewFindCmd creates the keyword search command
func NewFindCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find <keyword>",
		Short: "Find items containing a keyword",
		Long: `Find items whose content contains the keyword, ignoring case.

Examples:
  stash find postgres
  stash find --limit 3 "meeting notes"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validatePositiveInt(findLimit, "limit"); err != nil {
				return err
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			items, err := a.Search.Keyword(cmd.Context(), strings.Join(args, " "), findLimit)
			if err != nil {
				return err
			}
			if wantJSON() {
				return printJSON(cmd.OutOrStdout(), items)
			}
			if len(items) == 0 {
				notify(cmd, "No matches")
				return nil
			}
			printItems(cmd.OutOrStdout(), items)
			return nil
		},
	}

	cmd.Flags().IntVarP(&findLimit, "limit", "n", core.DefaultKeywordLimit, "Maximum number of results")

	return cmd
}

// NewCategoriesCmd creates the categories command
func NewCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			cats, err := a.Search.Categories(cmd.Context())
			if err != nil {
				return err
			}
			if wantJSON() {
				return printJSON(cmd.OutOrStdout(), cats)
			}
			if len(cats) == 0 {
				notify(cmd, "No categories yet")
				return nil
			}
			for _, c := range cats {
				fmt.Fprintln(cmd.OutOrStdout(), c.Name)
			}
			return nil
		},
	}
}

// NewTagsCmd creates the tags command
func NewTagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			tags, err := a.Search.Tags(cmd.Context())
			if err != nil {
				return err
			}
			if wantJSON() {
				return printJSON(cmd.OutOrStdout(), tags)
			}
			if len(tags) == 0 {
				notify(cmd, "No tags yet")
				return nil
			}
			for _, t := range tags {
				fmt.Fprintln(cmd.OutOrStdout(), t.Name)
			}
			return nil
		},
	}
}
