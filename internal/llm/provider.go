// ABOUTME: AI provider contract: embeddings, single-label classification, image advice
// ABOUTME: ErrUnavailable marks a capability that is switched off rather than broken
package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/harper/stash/internal/models"
)

// ErrUnavailable is returned when no credential is configured
var ErrUnavailable = errors.New("ai provider unavailable")

// Categories is the closed label set Classify chooses from
var Categories = []string{
	"work", "personal", "learning", "reference", "ideas",
	"tasks", "finance", "health", "entertainment", "other",
}

// FallbackCategory is used when the model answers outside Categories
const FallbackCategory = "other"

// Provider is the AI capability set used by the services.
//
// Each call returns one of three outcomes: a value with a nil error,
// an error matching ErrUnavailable, or any other error describing a failure.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Classify(ctx context.Context, text string) (string, error)
	AnalyzeImage(ctx context.Context, imageURL string) ([]Advice, error)
}

// Advice is the model's keep/consider/discard verdict for one object in a photo
type Advice struct {
	Name     string          `json:"name"`
	Decision models.Decision `json:"decision"`
	Reason   string          `json:"reason"`
	Action   string          `json:"action"`
}

// Outcome names the result of a provider call for logs and metrics
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

// NormalizeCategory maps a free-form model reply onto Categories
func NormalizeCategory(reply string) string {
	label := strings.ToLower(strings.TrimSpace(reply))
	label = strings.Trim(label, " \t\r\n.,;:!\"'`*")
	for _, c := range Categories {
		if label == c {
			return c
		}
	}
	return FallbackCategory
}
