// ABOUTME: Item represents a captured piece of knowledge (text, URL, or image)
// ABOUTME: Categories and tags hang off items through join records
package models

import (
	"fmt"
	"strings"
	"time"
)

// ContentType classifies what an item holds. Unknown values are allowed.
type ContentType string

const (
	ContentText  ContentType = "text"
	ContentURL   ContentType = "url"
	ContentImage ContentType = "image"
)

// ShortIDLen is the number of id characters shown to users.
const ShortIDLen = 8

// Item is a stored piece of captured content
type Item struct {
	ID              string      `json:"id" yaml:"id"`
	Content         string      `json:"content" yaml:"content"`
	ContentType     ContentType `json:"content_type" yaml:"content_type"`
	URL             string      `json:"url,omitempty" yaml:"url,omitempty"`
	URLTitle        string      `json:"url_title,omitempty" yaml:"url_title,omitempty"`
	URLDescription  string      `json:"url_description,omitempty" yaml:"url_description,omitempty"`
	SourceChannel   string      `json:"source_channel,omitempty" yaml:"source_channel,omitempty"`
	SourceMessageID string      `json:"source_message_id,omitempty" yaml:"source_message_id,omitempty"`
	Embedding       []float32   `json:"-" yaml:"-"`
	Categories      []Category  `json:"categories" yaml:"categories"`
	Tags            []Tag       `json:"tags" yaml:"tags"`
	CreatedAt       time.Time   `json:"created_at" yaml:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" yaml:"updated_at"`
}

// Validate checks the fields a caller must supply
func (i *Item) Validate() error {
	if strings.TrimSpace(i.Content) == "" {
		return fmt.Errorf("%w: content cannot be empty", ErrInvalid)
	}
	if len([]rune(i.ContentType)) > 50 {
		return fmt.Errorf("%w: content type exceeds 50 characters", ErrInvalid)
	}
	return nil
}

// ShortID returns the user-facing id prefix
func (i *Item) ShortID() string {
	return ShortID(i.ID)
}

// HasEmbedding reports whether the provider produced a vector for this item
func (i *Item) HasEmbedding() bool {
	return len(i.Embedding) > 0
}

// CategoryNames returns the names of linked categories in stored order
func (i *Item) CategoryNames() []string {
	names := make([]string, 0, len(i.Categories))
	for _, c := range i.Categories {
		names = append(names, c.Name)
	}
	return names
}

// TagNames returns the names of linked tags in stored order
func (i *Item) TagNames() []string {
	names := make([]string, 0, len(i.Tags))
	for _, t := range i.Tags {
		names = append(names, t.Name)
	}
	return names
}

// Category groups items under a unique name
type Category struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}

// Tag is a free-form unique label
type Tag struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// ItemCategory links an item to a category.
// Confidence is nil for manual links.
type ItemCategory struct {
	ItemID     string   `json:"item_id"`
	CategoryID string   `json:"category_id"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// ItemTag links an item to a tag
type ItemTag struct {
	ItemID string `json:"item_id"`
	TagID  string `json:"tag_id"`
}

// ScoredItem pairs an item with its similarity to a query (1 - cosine distance)
type ScoredItem struct {
	Item       *Item   `json:"item"`
	Similarity float64 `json:"similarity"`
}

// ShortID truncates an id for display
func ShortID(id string) string {
	if len(id) <= ShortIDLen {
		return id
	}
	return id[:ShortIDLen]
}
