// ABOUTME: Runner for the retrieval benchmarks
// ABOUTME: Seeds an in-memory stash per scenario, runs its queries, and scores them

package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harper/stash/internal/core"
	"github.com/harper/stash/internal/llm"
	"github.com/harper/stash/internal/models"
	"github.com/harper/stash/internal/storage/sqlite"
)

const defaultQueryLimit = 5

// Runner executes retrieval scenarios
type Runner struct {
	ai       llm.Provider
	semantic bool
	metrics  *MetricsCalculator
	logger   *log.Logger
	out      io.Writer
	verbose  bool
}

// NewRunner creates a runner. When semantic is false, semantic queries are
// skipped rather than scored against empty results.
func NewRunner(ai llm.Provider, semantic bool, logger *log.Logger, out io.Writer, verbose bool) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		ai:       ai,
		semantic: semantic,
		metrics:  NewMetricsCalculator(),
		logger:   logger,
		out:      out,
		verbose:  verbose,
	}
}

// RunScenario executes a single scenario against a fresh in-memory store
func (r *Runner) RunScenario(ctx context.Context, s Scenario) (Result, error) {
	if r.verbose {
		fmt.Fprintf(r.out, "\n========================================\n")
		fmt.Fprintf(r.out, "RUNNING: %s\n", s.Name)
		fmt.Fprintf(r.out, "========================================\n")
		fmt.Fprintf(r.out, "Description: %s\n\n", s.Description)
	}

	db, err := sqlite.OpenInMemory()
	if err != nil {
		return Result{}, fmt.Errorf("failed to create scenario storage: %w", err)
	}
	defer func() { _ = db.Close() }()

	items := core.NewItemService(db, r.ai, core.WithLogger(r.logger))
	search := core.NewSearchService(db, r.ai, core.WithLogger(r.logger))

	for _, content := range s.Items {
		if _, err := items.CreateItem(ctx, core.NewItem{Content: content}); err != nil {
			return Result{}, fmt.Errorf("seeding %q: %w", content, err)
		}
	}

	queries := make([]QueryResult, 0, len(s.Queries))
	for _, q := range s.Queries {
		if q.Mode == ModeSemantic && !r.semantic {
			queries = append(queries, QueryResult{Query: q.Text, Mode: q.Mode, Skipped: true, Detail: "no embedding provider"})
			continue
		}

		retrieved, err := r.retrieve(ctx, search, q)
		if err != nil {
			return Result{}, fmt.Errorf("query %q: %w", q.Text, err)
		}
		qr := r.metrics.EvaluateQuery(q, retrieved)
		queries = append(queries, qr)

		if r.verbose {
			fmt.Fprintf(r.out, "[%s] %q -> %d result(s), recall %.2f, rr %.2f\n",
				q.Mode, q.Text, len(retrieved), qr.Recall, qr.ReciprocalRank)
		}
	}

	result := r.metrics.Summarize(s, queries)
	if r.verbose {
		fmt.Fprintf(r.out, "\nRecall: %.2f  MRR: %.2f  Purity: %.2f  Status: %s\n",
			result.Recall, result.MRR, result.Purity, result.Status)
	}
	return result, nil
}

func (r *Runner) retrieve(ctx context.Context, search *core.SearchService, q Query) ([]string, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}

	var found []*models.Item
	switch q.Mode {
	case ModeKeyword:
		items, err := search.Keyword(ctx, q.Text, limit)
		if err != nil {
			return nil, err
		}
		found = items
	case ModeSemantic:
		scored, err := search.Semantic(ctx, q.Text, limit)
		if err != nil {
			return nil, err
		}
		for _, s := range scored {
			found = append(found, s.Item)
		}
	default:
		return nil, fmt.Errorf("unknown mode %q", q.Mode)
	}

	contents := make([]string, 0, len(found))
	for _, item := range found {
		contents = append(contents, item.Content)
	}
	return contents, nil
}

// RunAll executes every scenario
func (r *Runner) RunAll(ctx context.Context, scenarios []Scenario) ([]Result, error) {
	results := make([]Result, 0, len(scenarios))
	for _, s := range scenarios {
		result, err := r.RunScenario(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("scenario %s failed: %w", s.ID, err)
		}
		results = append(results, result)
	}
	return results, nil
}

// Report is the JSON document written by ExportResults
type Report struct {
	Timestamp string   `json:"timestamp"`
	Total     int      `json:"total"`
	Passed    int      `json:"passed"`
	Failed    int      `json:"failed"`
	Skipped   int      `json:"skipped"`
	Results   []Result `json:"results"`
}

// NewReport tallies results by status
func NewReport(results []Result) Report {
	report := Report{
		Timestamp: time.Now().Format(time.RFC3339),
		Total:     len(results),
		Results:   results,
	}
	for _, result := range results {
		switch result.Status {
		case "PASS":
			report.Passed++
		case "SKIP":
			report.Skipped++
		default:
			report.Failed++
		}
	}
	return report
}

// ExportResults writes the report as JSON to outputPath
func ExportResults(results []Result, outputPath string) error {
	data, err := json.MarshalIndent(NewReport(results), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}
	return nil
}
