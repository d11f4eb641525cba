// ABOUTME: CLI commands that capture and manage items
// ABOUTME: save, save-url, tag, list, and delete
package commands

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/harper/stash/internal/app"
	"github.com/harper/stash/internal/core"
	"github.com/harper/stash/internal/models"
)

var (
	saveFile     string
	saveTags     []string
	saveType     string
	listCategory string
	listLimit    int
	listSince    time.Duration
)

// NewSaveCmd creates the save command
func NewSaveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save [text]",
		Short: "Save a note",
		Long: `Save a note from an argument, a file, or stdin.

The note is embedded for semantic search and filed under a category
when an OpenAI key is configured.

Examples:
  stash save "Renew passport before June"
  stash save --file notes.txt
  pbpaste | stash save --tags=ideas,later`,
		RunE: runSave,
	}

	cmd.Flags().StringVar(&saveFile, "file", "", "Read the note from a file")
	cmd.Flags().StringSliceVar(&saveTags, "tags", []string{}, "Tags to add (comma-separated)")
	cmd.Flags().StringVar(&saveType, "type", string(models.ContentText), "Content type")

	return cmd
}

func runSave(cmd *cobra.Command, args []string) error {
	text, err := readInput(args, saveFile, cmd.InOrStdin())
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	item, err := a.Items.CreateItem(cmd.Context(), core.NewItem{Content: text, ContentType: models.ContentType(saveType)})
	if err != nil {
		return err
	}
	return finishSave(cmd, a, item, saveTags)
}

// NewSaveURLCmd creates the save-url command
func NewSaveURLCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save-url <url>",
		Short: "Save a link with its page title and description",
		Long: `Save a link. The page is fetched for its title and description;
if the fetch fails the link is still saved.

Examples:
  stash save-url https://go.dev/blog/range-functions
  stash save-url --tags=go,reading https://research.swtch.com`,
		Args: cobra.ExactArgs(1),
		RunE: runSaveURL,
	}

	cmd.Flags().StringSliceVar(&saveTags, "tags", []string{}, "Tags to add (comma-separated)")

	return cmd
}

func runSaveURL(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	item, err := a.Items.CreateItemFromURL(cmd.Context(), args[0], core.Source{})
	if err != nil {
		return err
	}
	return finishSave(cmd, a, item, saveTags)
}

func finishSave(cmd *cobra.Command, a *app.App, item *models.Item, tags []string) error {
	if len(tags) > 0 {
		tagged, err := a.Items.AddTags(cmd.Context(), item.ID, tags)
		if err != nil {
			return err
		}
		item = tagged
	}

	if wantJSON() {
		return printJSON(cmd.OutOrStdout(), item)
	}
	label := "uncategorized"
	if names := item.CategoryNames(); len(names) > 0 {
		label = joinOrDash(names)
	}
	notify(cmd, "%s %s", success("Saved "+item.ShortID()), dimStyle.Render("("+label+")"))
	return nil
}

// NewTagCmd creates the tag command
func NewTagCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tag <id> <tag>...",
		Short: "Add tags to an item",
		Long: `Add one or more tags to an item. The id may be any unique prefix.

Examples:
  stash tag 3f2a9c1e reading go`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			item, err := a.Items.AddTags(cmd.Context(), args[0], args[1:])
			if err != nil {
				return err
			}
			if wantJSON() {
				return printJSON(cmd.OutOrStdout(), item)
			}
			notify(cmd, "%s tags: %s", success("Tagged "+item.ShortID()), joinOrDash(item.TagNames()))
			return nil
		},
	}
}

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent items",
		Long: `List the most recent items, newest first.

Examples:
  stash list
  stash list --category work --limit 20
  stash list --since 24h
  stash list --format json`,
		RunE: runList,
	}

	cmd.Flags().StringVar(&listCategory, "category", "", "Only items in this category")
	cmd.Flags().IntVar(&listLimit, "limit", core.DefaultListLimit, "Maximum number of items")
	cmd.Flags().DurationVar(&listSince, "since", 0, "Only items saved within this window (e.g. 48h)")

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	if err := validatePositiveInt(listLimit, "limit"); err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	var items []*models.Item
	if listSince > 0 {
		items, err = a.Items.ItemsSince(cmd.Context(), time.Now().Add(-listSince))
	} else {
		items, err = a.Items.ListItems(cmd.Context(), listCategory, listLimit)
	}
	if err != nil {
		return err
	}

	if wantJSON() {
		return printJSON(cmd.OutOrStdout(), items)
	}
	if len(items) == 0 {
		notify(cmd, "No items found")
		return nil
	}
	printItems(cmd.OutOrStdout(), items)
	notify(cmd, "\nTotal: %d item(s)", len(items))
	return nil
}

func printItems(out io.Writer, items []*models.Item) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tTYPE\tCONTENT\tCATEGORIES\tTAGS\tSAVED\n")
	fmt.Fprintf(w, "--\t----\t-------\t----------\t----\t-----\n")
	for _, item := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			item.ShortID(),
			item.ContentType,
			truncate(oneLine(item.Content), 50),
			joinOrDash(item.CategoryNames()),
			joinOrDash(item.TagNames()),
			formatTime(item.CreatedAt))
	}
	_ = w.Flush()
}

// NewDeleteCmd creates the delete command
func NewDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an item",
		Long: `Delete an item and its category and tag links. The categories and
tags themselves are kept.

Examples:
  stash delete 3f2a9c1e`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			deleted, err := a.Items.DeleteItem(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("no item matches %q", args[0])
			}
			notify(cmd, "%s", success("Deleted "+args[0]))
			return nil
		},
	}
}
