// ABOUTME: Retrieval metrics: recall, reciprocal rank, and purity
// ABOUTME: Deterministic scoring against substring ground truth

package retrieval

import (
	"fmt"
	"strings"
)

// PassThreshold is the minimum recall and purity for a passing scenario
const PassThreshold = 0.9

// MetricsCalculator scores retrieved notes against a query's ground truth
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// CalculateRecall is the share of expected notes present in the results
func (m *MetricsCalculator) CalculateRecall(retrieved, expected []string) (float64, string) {
	if len(expected) == 0 {
		return 1.0, "No retrieval required"
	}

	found := 0
	missing := []string{}
	for _, want := range expected {
		if indexOf(retrieved, want) >= 0 {
			found++
		} else {
			missing = append(missing, want)
		}
	}

	recall := float64(found) / float64(len(expected))
	if recall == 1.0 {
		return 1.0, "All expected notes retrieved"
	}
	return recall, fmt.Sprintf("Partial recall (%.2f) - missing: %v", recall, missing)
}

// CalculateReciprocalRank is 1/rank of the first expected note, 0 when none is found
func (m *MetricsCalculator) CalculateReciprocalRank(retrieved, expected []string) float64 {
	if len(expected) == 0 {
		return 1.0
	}
	for i, got := range retrieved {
		for _, want := range expected {
			if containsFold(got, want) {
				return 1.0 / float64(i+1)
			}
		}
	}
	return 0
}

// CalculatePurity penalizes forbidden notes: 1.0 when none were retrieved
func (m *MetricsCalculator) CalculatePurity(retrieved, forbidden []string) (float64, string) {
	if len(retrieved) == 0 || len(forbidden) == 0 {
		return 1.0, "No forbidden notes retrieved"
	}

	bad := 0
	found := []string{}
	for _, got := range retrieved {
		for _, f := range forbidden {
			if containsFold(got, f) {
				bad++
				found = append(found, f)
				break
			}
		}
	}
	if bad == 0 {
		return 1.0, "No forbidden notes retrieved"
	}
	purity := 1.0 - float64(bad)/float64(len(retrieved))
	return purity, fmt.Sprintf("Forbidden notes retrieved: %v", found)
}

// EvaluateQuery scores one query's results
func (m *MetricsCalculator) EvaluateQuery(q Query, retrieved []string) QueryResult {
	recall, recallDetail := m.CalculateRecall(retrieved, q.Expected)
	purity, purityDetail := m.CalculatePurity(retrieved, q.Forbidden)

	return QueryResult{
		Query:          q.Text,
		Mode:           q.Mode,
		Recall:         recall,
		ReciprocalRank: m.CalculateReciprocalRank(retrieved, q.Expected),
		Purity:         purity,
		Retrieved:      retrieved,
		Detail:         recallDetail + "; " + purityDetail,
	}
}

// Summarize averages the evaluated queries of a scenario. Skipped queries do
// not count; a scenario whose queries were all skipped is reported as SKIP.
func (m *MetricsCalculator) Summarize(s Scenario, queries []QueryResult) Result {
	result := Result{
		ScenarioID:   s.ID,
		ScenarioName: s.Name,
		Queries:      queries,
		Status:       "SKIP",
	}

	n := 0
	for _, q := range queries {
		if q.Skipped {
			continue
		}
		n++
		result.Recall += q.Recall
		result.MRR += q.ReciprocalRank
		result.Purity += q.Purity
	}
	if n == 0 {
		return result
	}

	result.Recall /= float64(n)
	result.MRR /= float64(n)
	result.Purity /= float64(n)
	result.OverallScore = (result.Recall + result.MRR + result.Purity) / 3.0

	result.Status = "FAIL"
	if result.Recall >= PassThreshold && result.Purity >= PassThreshold {
		result.Status = "PASS"
	}
	return result
}

func indexOf(retrieved []string, want string) int {
	for i, got := range retrieved {
		if containsFold(got, want) {
			return i
		}
	}
	return -1
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
