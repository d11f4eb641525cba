// ABOUTME: Tests for the Prometheus-instrumented provider
// ABOUTME: Checks call counters per operation and outcome
package llm

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// counterValue finds the stash_ai_calls_total sample for op and outcome
func counterValue(t *testing.T, reg *prometheus.Registry, op, outcome string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "stash_ai_calls_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["operation"] == op && labels["outcome"] == outcome {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestInstrumentedProvider_CountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	ok := &fakeProvider{vec: []float32{1}}
	off := &fakeProvider{err: ErrUnavailable}

	p, err := NewInstrumentedProvider(ok, reg)
	if err != nil {
		t.Fatalf("NewInstrumentedProvider() error = %v", err)
	}
	// a second wrapper on the same registry shares the collectors
	q, err := NewInstrumentedProvider(off, reg)
	if err != nil {
		t.Fatalf("NewInstrumentedProvider() second call error = %v", err)
	}

	ctx := context.Background()
	_, _ = p.Embed(ctx, "a")
	_, _ = p.Embed(ctx, "b")
	_, _ = p.Classify(ctx, "c")
	_, _ = q.Embed(ctx, "d")
	_, _ = q.AnalyzeImage(ctx, "https://example.com/x.jpg")

	tests := []struct {
		op, outcome string
		want        float64
	}{
		{"embed", "ok", 2},
		{"classify", "ok", 1},
		{"embed", "unavailable", 1},
		{"analyze_image", "unavailable", 1},
		{"classify", "error", 0},
	}
	for _, tt := range tests {
		if got := counterValue(t, reg, tt.op, tt.outcome); got != tt.want {
			t.Errorf("calls{%s,%s} = %v, want %v", tt.op, tt.outcome, got, tt.want)
		}
	}
}
