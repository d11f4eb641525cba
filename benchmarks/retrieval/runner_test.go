// ABOUTME: Tests for the retrieval benchmark runner
// ABOUTME: Uses a table-driven fake embedding provider and in-memory SQLite

package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/harper/stash/internal/llm"
	"github.com/harper/stash/internal/logging"
)

// topicProvider embeds text onto fixed axes so similarity is predictable
type topicProvider struct {
	vectors map[string][]float32
}

func (p *topicProvider) Embed(_ context.Context, text string) ([]float32, error) {
	if v, ok := p.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 0, 1}, nil
}

func (p *topicProvider) Classify(context.Context, string) (string, error) {
	return "", llm.ErrUnavailable
}

func (p *topicProvider) AnalyzeImage(context.Context, string) ([]llm.Advice, error) {
	return nil, llm.ErrUnavailable
}

func testScenario() Scenario {
	return Scenario{
		ID:    "t",
		Name:  "Test",
		Items: []string{"Renew passport", "Postgres index tuning", "Buy a bike chain"},
		Queries: []Query{
			{Text: "postgres", Mode: ModeKeyword, Expected: []string{"index tuning"}, Forbidden: []string{"bike"}},
			{Text: "travel documents", Mode: ModeSemantic, Limit: 2, Expected: []string{"passport"}},
		},
	}
}

func testProvider() *topicProvider {
	return &topicProvider{vectors: map[string][]float32{
		"Renew passport":        {1, 0, 0, 0},
		"Postgres index tuning": {0, 1, 0, 0},
		"Buy a bike chain":      {0, 0, 1, 0},
		"travel documents":      {0.9, 0.1, 0, 0},
	}}
}

func TestRunScenario(t *testing.T) {
	var out bytes.Buffer
	r := NewRunner(testProvider(), true, logging.Discard(), &out, true)

	result, err := r.RunScenario(context.Background(), testScenario())
	if err != nil {
		t.Fatalf("RunScenario() error = %v", err)
	}
	if result.Status != "PASS" {
		t.Fatalf("Status = %s, want PASS: %+v", result.Status, result.Queries)
	}
	if len(result.Queries) != 2 {
		t.Fatalf("got %d query results, want 2", len(result.Queries))
	}

	sem := result.Queries[1]
	if sem.ReciprocalRank != 1.0 || len(sem.Retrieved) != 2 {
		t.Errorf("semantic query = %+v, want passport first of 2", sem)
	}
	if out.Len() == 0 {
		t.Error("verbose runner should print progress")
	}
}

func TestRunScenario_SkipsSemanticWithoutProvider(t *testing.T) {
	r := NewRunner(testProvider(), false, logging.Discard(), &bytes.Buffer{}, false)

	result, err := r.RunScenario(context.Background(), testScenario())
	if err != nil {
		t.Fatalf("RunScenario() error = %v", err)
	}
	if !result.Queries[1].Skipped {
		t.Error("semantic query should be skipped")
	}
	if result.Status != "PASS" {
		t.Errorf("Status = %s, want PASS from the keyword query alone", result.Status)
	}
}

func TestBuiltInKeywordScenario(t *testing.T) {
	r := NewRunner(testProvider(), false, logging.Discard(), &bytes.Buffer{}, false)

	result, err := r.RunScenario(context.Background(), KeywordRecall())
	if err != nil {
		t.Fatalf("RunScenario() error = %v", err)
	}
	if result.Status != "PASS" {
		t.Errorf("keyword scenario = %+v", result)
	}
}

func TestScenarioByID(t *testing.T) {
	for _, s := range AllScenarios() {
		got, ok := ScenarioByID(s.ID)
		if !ok || got.Name != s.Name {
			t.Errorf("ScenarioByID(%q) = %v, %v", s.ID, got.Name, ok)
		}
	}
	if _, ok := ScenarioByID("nope"); ok {
		t.Error("unknown id should not resolve")
	}
}

func TestExportResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	results := []Result{{ScenarioID: "a", Status: "PASS"}, {ScenarioID: "b", Status: "FAIL"}, {ScenarioID: "c", Status: "SKIP"}}

	if err := ExportResults(results, path); err != nil {
		t.Fatalf("ExportResults() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if report.Total != 3 || report.Passed != 1 || report.Failed != 1 || report.Skipped != 1 {
		t.Errorf("report = %+v", report)
	}
}
