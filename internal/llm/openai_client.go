// ABOUTME: OpenAI-backed Provider for embeddings, classification, and photo analysis
// ABOUTME: Every call is bounded by a timeout and optionally retried with backoff
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/harper/stash/internal/models"
	"github.com/harper/stash/internal/util"
)

const (
	// DefaultEmbeddingModel produces 1536-dimensional vectors
	DefaultEmbeddingModel      = "text-embedding-3-small"
	DefaultClassificationModel = "gpt-4.1-nano"
	DefaultVisionModel         = "gpt-4.1-mini"

	visionMaxTokens   = 2000
	visionTemperature = 0.7

	fallbackReasonLen = 200
)

// ClientConfig holds configuration for the OpenAI client
type ClientConfig struct {
	APIKey              string
	BaseURL             string
	EmbeddingModel      string
	ClassificationModel string
	VisionModel         string
	// Dimension, when positive, is the expected embedding length
	Dimension  int
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	HTTPClient *http.Client
}

// DefaultConfig returns the default client configuration
func DefaultConfig(apiKey string) ClientConfig {
	return ClientConfig{
		APIKey:              apiKey,
		EmbeddingModel:      DefaultEmbeddingModel,
		ClassificationModel: DefaultClassificationModel,
		VisionModel:         DefaultVisionModel,
		Dimension:           1536,
		Timeout:             30 * time.Second,
		RetryDelay:          2 * time.Second,
	}
}

// Client implements Provider on the OpenAI API. A client without an
// API key answers every call with ErrUnavailable.
type Client struct {
	client *openai.Client
	cfg    ClientConfig
}

var _ Provider = (*Client)(nil)

// NewClient creates a client; it never fails, an empty key only disables it
func NewClient(cfg ClientConfig) *Client {
	def := DefaultConfig(cfg.APIKey)
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = def.EmbeddingModel
	}
	if cfg.ClassificationModel == "" {
		cfg.ClassificationModel = def.ClassificationModel
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = def.VisionModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}

	c := &Client{cfg: cfg}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return c
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	}
	c.client = openai.NewClientWithConfig(oc)
	return c
}

// Available reports whether a credential is configured
func (c *Client) Available() bool {
	return c.client != nil
}

// EmbeddingModel names the model used for Embed, part of the cache key
func (c *Client) EmbeddingModel() string {
	return c.cfg.EmbeddingModel
}

// call runs fn with the per-call timeout, retrying transient failures
func (c *Client) call(ctx context.Context, fn func(context.Context) error) error {
	return util.Retry(ctx, c.cfg.MaxRetries, c.cfg.RetryDelay, retryable, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
		return fn(ctx)
	})
}

// retryable is false for client errors other than rate limiting
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}
	return true
}

// Embed returns the embedding vector for text
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if !c.Available() {
		return nil, ErrUnavailable
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("embed: empty text")
	}

	var vec []float32
	err := c.call(ctx, func(ctx context.Context) error {
		resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
			Input: []string{text},
			Model: openai.EmbeddingModel(c.cfg.EmbeddingModel),
		})
		if err != nil {
			return err
		}
		if len(resp.Data) == 0 {
			return fmt.Errorf("no embeddings returned")
		}
		vec = resp.Data[0].Embedding
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if c.cfg.Dimension > 0 && len(vec) != c.cfg.Dimension {
		return nil, fmt.Errorf("embed: got %d dimensions, want %d", len(vec), c.cfg.Dimension)
	}
	return vec, nil
}

var classifyPrompt = `You sort saved notes, links, and photos into one category.

Categories: ` + strings.Join(Categories, ", ") + `

Reply with exactly one category name from the list and nothing else.`

// Classify picks one label from Categories for text
func (c *Client) Classify(ctx context.Context, text string) (string, error) {
	if !c.Available() {
		return "", ErrUnavailable
	}

	var reply string
	err := c.call(ctx, func(ctx context.Context) error {
		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.cfg.ClassificationModel,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: classifyPrompt},
				{Role: openai.ChatMessageRoleUser, Content: text},
			},
			MaxTokens:   10,
			Temperature: 0,
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("no completion choices returned")
		}
		reply = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("classify: %w", err)
	}
	return NormalizeCategory(reply), nil
}

const visionPrompt = `You are a decluttering consultant. Identify every distinct object in the
photo and give advice for each one. A pile of identical things counts as one object.

Judge each object by usefulness, how often it was used in the last year,
sentimental value, whether something else can replace it, and its condition.

Respond with JSON only, no other text:
{"items": [{"name": "short object name", "decision": "keep|consider|discard",
"reason": "one or two sentences", "action": "a concrete next step"}]}`

// AnalyzeImage asks the vision model for per-object advice on a photo
func (c *Client) AnalyzeImage(ctx context.Context, imageURL string) ([]Advice, error) {
	if !c.Available() {
		return nil, ErrUnavailable
	}

	var content string
	err := c.call(ctx, func(ctx context.Context) error {
		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.cfg.VisionModel,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: visionPrompt},
				{
					Role: openai.ChatMessageRoleUser,
					MultiContent: []openai.ChatMessagePart{
						{Type: openai.ChatMessagePartTypeText, Text: "Analyze each object in this photo. Respond in JSON."},
						{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: imageURL}},
					},
				},
			},
			MaxTokens:   visionMaxTokens,
			Temperature: visionTemperature,
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("no completion choices returned")
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("analyze image: %w", err)
	}
	return ParseAdvice(content), nil
}

var (
	fenceOpen  = regexp.MustCompile("^```(?:json)?\\s*")
	fenceClose = regexp.MustCompile("\\s*```$")
)

// ParseAdvice decodes the vision model's reply. Unparseable replies become a
// single "consider" entry carrying the start of the raw text. A well-formed
// reply with no items yields an empty slice.
func ParseAdvice(content string) []Advice {
	content = strings.TrimSpace(content)
	content = fenceOpen.ReplaceAllString(content, "")
	content = fenceClose.ReplaceAllString(content, "")

	var reply struct {
		Items []struct {
			Name     string `json:"name"`
			Decision string `json:"decision"`
			Reason   string `json:"reason"`
			Action   string `json:"action"`
		} `json:"items"`
	}
	if err := json.Unmarshal([]byte(content), &reply); err != nil {
		return []Advice{{
			Name:     "unknown item",
			Decision: models.DecisionConsider,
			Reason:   truncateRunes(content, fallbackReasonLen),
			Action:   "retake a clearer photo",
		}}
	}

	advice := make([]Advice, 0, len(reply.Items))
	for _, it := range reply.Items {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			name = "unknown item"
		}
		decision := models.Decision(strings.ToLower(strings.TrimSpace(it.Decision)))
		if !decision.Valid() {
			decision = models.DecisionConsider
		}
		advice = append(advice, Advice{
			Name:     name,
			Decision: decision,
			Reason:   strings.TrimSpace(it.Reason),
			Action:   strings.TrimSpace(it.Action),
		})
	}
	return advice
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
