// ABOUTME: Provider decorator exporting call counts and latency to Prometheus
// ABOUTME: Outcomes are labelled ok, unavailable, or error per operation
package llm

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/harper/stash/internal/metrics"
)

// InstrumentedProvider records metrics around every Provider call
type InstrumentedProvider struct {
	inner   Provider
	calls   *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// NewInstrumentedProvider wraps inner and registers its collectors with reg.
// Collectors already registered by an earlier wrapper are reused.
func NewInstrumentedProvider(inner Provider, reg prometheus.Registerer) (*InstrumentedProvider, error) {
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stash",
		Subsystem: "ai",
		Name:      "calls_total",
		Help:      "AI provider calls by operation and outcome.",
	}, []string{"operation", "outcome"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "stash",
		Subsystem: "ai",
		Name:      "call_duration_seconds",
		Help:      "AI provider call latency by operation.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	var err error
	if calls, err = metrics.Register(reg, calls); err != nil {
		return nil, err
	}
	if latency, err = metrics.Register(reg, latency); err != nil {
		return nil, err
	}
	return &InstrumentedProvider{inner: inner, calls: calls, latency: latency}, nil
}

func (p *InstrumentedProvider) observe(op string, start time.Time, err error) {
	p.calls.WithLabelValues(op, Outcome(err)).Inc()
	p.latency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (p *InstrumentedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	vec, err := p.inner.Embed(ctx, text)
	p.observe("embed", start, err)
	return vec, err
}

func (p *InstrumentedProvider) Classify(ctx context.Context, text string) (string, error) {
	start := time.Now()
	label, err := p.inner.Classify(ctx, text)
	p.observe("classify", start, err)
	return label, err
}

func (p *InstrumentedProvider) AnalyzeImage(ctx context.Context, imageURL string) ([]Advice, error) {
	start := time.Now()
	advice, err := p.inner.AnalyzeImage(ctx, imageURL)
	p.observe("analyze_image", start, err)
	return advice, err
}
