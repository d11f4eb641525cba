// ABOUTME: CLI commands for photo decluttering and task tracking
// ABOUTME: declutter analyzes a photo; tasks lists, moves, reports on, and exports tasks
package commands

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/stash/internal/core"
	"github.com/harper/stash/internal/models"
)

var (
	tasksStatus       string
	tasksLimit        int
	tasksNote         string
	tasksPeriod       string
	tasksExportFormat string
	tasksExportOutput string
)

// NewDeclutterCmd creates the declutter command
func NewDeclutterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "declutter <image-url>",
		Short: "Turn a photo into keep/consider/discard tasks",
		Long: `Analyze a photo and create one task per object found, each with a
keep, consider, or discard recommendation.

Needs an OpenAI key with access to a vision model.

Examples:
  stash declutter https://example.com/garage.jpg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			tasks, err := a.Declutter.Analyze(cmd.Context(), args[0], core.Source{})
			if errors.Is(err, core.ErrNoItemsIdentified) {
				notify(cmd, "No items identified in the photo")
				return nil
			}
			if err != nil {
				return err
			}
			if wantJSON() {
				return printJSON(cmd.OutOrStdout(), tasks)
			}
			printTasks(cmd.OutOrStdout(), tasks)
			notify(cmd, "\n%s", success(fmt.Sprintf("Created %d task(s)", len(tasks))))
			return nil
		},
	}
}

// NewTasksCmd creates the tasks command group
func NewTasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Work through declutter tasks",
		Long: `List, complete, dismiss, reopen, and report on declutter tasks.

Examples:
  stash tasks list --status pending
  stash tasks done 7c1e04aa --note "donated"
  stash tasks summary --period monthly`,
	}

	cmd.AddCommand(
		newTasksListCmd(),
		newTaskStatusCmd("done", "Mark a task done", models.TaskDone),
		newTaskStatusCmd("dismiss", "Dismiss a task", models.TaskDismissed),
		newTaskStatusCmd("reopen", "Move a task back to pending", models.TaskPending),
		newTasksDeleteCmd(),
		newTasksStatsCmd(),
		newTasksSummaryCmd(),
		newTasksExportCmd(),
	)

	return cmd
}

func newTasksListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validatePositiveInt(tasksLimit, "limit"); err != nil {
				return err
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			tasks, err := a.Declutter.List(cmd.Context(), tasksStatus, tasksLimit)
			if err != nil {
				return err
			}
			if wantJSON() {
				return printJSON(cmd.OutOrStdout(), tasks)
			}
			if len(tasks) == 0 {
				notify(cmd, "No tasks found")
				return nil
			}
			printTasks(cmd.OutOrStdout(), tasks)
			return nil
		},
	}

	cmd.Flags().StringVar(&tasksStatus, "status", "", "Only tasks with this status (pending, done, dismissed)")
	cmd.Flags().IntVar(&tasksLimit, "limit", core.DefaultTaskLimit, "Maximum number of tasks")

	return cmd
}

func newTaskStatusCmd(use, short string, status models.TaskStatus) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			note, _ := cmd.Flags().GetString("note")
			task, err := a.Declutter.UpdateStatus(cmd.Context(), args[0], string(status), note)
			if err != nil {
				return err
			}
			if wantJSON() {
				return printJSON(cmd.OutOrStdout(), task)
			}
			notify(cmd, "%s %s", success(fmt.Sprintf("%s is now %s", task.ShortID(), task.Status)), dimStyle.Render(task.ItemName))
			return nil
		},
	}

	cmd.Flags().StringVar(&tasksNote, "note", "", "What you did with the item")

	return cmd
}

func newTasksDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			deleted, err := a.Declutter.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("no task matches %q", args[0])
			}
			notify(cmd, "%s", success("Deleted task "+args[0]))
			return nil
		},
	}
}

func newTasksStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show task progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			stats, err := a.Declutter.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if wantJSON() {
				return printJSON(cmd.OutOrStdout(), stats)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render("Declutter progress"))
			fmt.Fprintf(out, "  Pending:    %d\n", stats.Pending)
			fmt.Fprintf(out, "  Done:       %d\n", stats.Done)
			fmt.Fprintf(out, "  Dismissed:  %d\n", stats.Dismissed)
			fmt.Fprintf(out, "  Total:      %d\n", stats.Total)
			fmt.Fprintf(out, "  Completion: %.1f%%\n", stats.CompletionRate)
			fmt.Fprintln(out, titleStyle.Render("Last 7 days"))
			fmt.Fprintf(out, "  Created:    %d\n", stats.RecentCreated)
			fmt.Fprintf(out, "  Completed:  %d\n", stats.RecentCompleted)
			return nil
		},
	}
}

func newTasksSummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show tasks completed in a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			sum, err := a.Declutter.Summary(cmd.Context(), tasksPeriod)
			if err != nil {
				return err
			}
			if wantJSON() {
				return printJSON(cmd.OutOrStdout(), sum)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Completed (%s): %d", sum.Period, len(sum.Completed))))
			decisions := make([]string, 0, len(sum.Decisions))
			for d := range sum.Decisions {
				decisions = append(decisions, string(d))
			}
			sort.Strings(decisions)
			for _, d := range decisions {
				fmt.Fprintf(out, "  %s: %d\n", decisionLabel(models.Decision(d)), sum.Decisions[models.Decision(d)])
			}
			if len(sum.Completed) > 0 {
				fmt.Fprintln(out)
				printTasks(out, sum.Completed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&tasksPeriod, "period", string(core.PeriodWeekly), "weekly, monthly, or all")

	return cmd
}

func newTasksExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export tasks as JSON or CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			exp, err := a.Declutter.Export(cmd.Context(), tasksExportFormat)
			return writeExport(cmd, exp, err, tasksExportOutput)
		},
	}

	cmd.Flags().StringVar(&tasksExportFormat, "as", string(core.FormatJSON), "Export format: json or csv")
	cmd.Flags().StringVarP(&tasksExportOutput, "output", "o", "", "Write to a file instead of stdout")

	return cmd
}

func printTasks(out io.Writer, tasks []*models.DeclutterTask) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tITEM\tDECISION\tSTATUS\tCREATED\n")
	fmt.Fprintf(w, "--\t----\t--------\t------\t-------\n")
	for _, t := range tasks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			t.ShortID(),
			truncate(t.ItemName, 40),
			decisionLabel(t.Decision),
			t.Status,
			formatTime(t.CreatedAt))
	}
	_ = w.Flush()
}
