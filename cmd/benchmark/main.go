// ABOUTME: Command-line runner for the retrieval benchmarks
// ABOUTME: Scores keyword and semantic search and writes JSON results

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/harper/stash/benchmarks/retrieval"
	"github.com/harper/stash/internal/app"
	"github.com/harper/stash/internal/config"
	"github.com/harper/stash/internal/llm"
	"github.com/harper/stash/internal/logging"
)

func main() {
	scenarioID := flag.String("scenario", "", "Run one scenario (kw, sem, mix). If empty, runs all.")
	outputPath := flag.String("output", "benchmark_results.json", "Output path for JSON results")
	configPath := flag.String("config", "", "Config file")
	verbose := flag.Bool("verbose", false, "Enable verbose output")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading config: %v\n", err)
		os.Exit(1)
	}
	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger := logging.New(os.Stderr, level)

	if !cfg.AIEnabled() {
		logger.Warn("OPENAI_API_KEY not set; semantic scenarios will be skipped")
	}

	scenarios := retrieval.AllScenarios()
	if *scenarioID != "" {
		s, ok := retrieval.ScenarioByID(*scenarioID)
		if !ok {
			logger.Fatal("unknown scenario", "id", *scenarioID, "valid", "kw, sem, mix")
		}
		scenarios = []retrieval.Scenario{s}
	}

	fmt.Println("========================================")
	fmt.Println("Stash Retrieval Benchmarks")
	fmt.Println("========================================")

	client := llm.NewClient(app.ClientConfig(cfg))
	runner := retrieval.NewRunner(client, client.Available(), logger, os.Stdout, *verbose)

	results, err := runner.RunAll(context.Background(), scenarios)
	if err != nil {
		logger.Fatal("benchmark failed", "err", err)
	}

	fmt.Println("\n========================================")
	fmt.Println("BENCHMARK SUMMARY")
	fmt.Println("========================================")

	report := retrieval.NewReport(results)
	for _, result := range results {
		fmt.Printf("\n%s: %s\n", result.ScenarioID, result.ScenarioName)
		fmt.Printf("  Recall: %.2f\n", result.Recall)
		fmt.Printf("  MRR:    %.2f\n", result.MRR)
		fmt.Printf("  Purity: %.2f\n", result.Purity)
		fmt.Printf("  Status: %s\n", result.Status)
	}

	fmt.Println("\n========================================")
	fmt.Printf("Total:   %d\n", report.Total)
	fmt.Printf("Passed:  %d\n", report.Passed)
	fmt.Printf("Failed:  %d\n", report.Failed)
	fmt.Printf("Skipped: %d\n", report.Skipped)
	fmt.Println("========================================")

	if err := retrieval.ExportResults(results, *outputPath); err != nil {
		logger.Fatal("failed to export results", "err", err)
	}
	fmt.Printf("Results exported to: %s\n", *outputPath)

	if report.Failed > 0 {
		os.Exit(1)
	}
}
