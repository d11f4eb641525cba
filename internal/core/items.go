// ABOUTME: ItemService captures text, links, and photos and manages their labels
// ABOUTME: Embedding and auto-categorization degrade silently when the AI provider is off
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harper/stash/internal/llm"
	"github.com/harper/stash/internal/models"
	"github.com/harper/stash/internal/storage"
)

// NewItem is the caller-supplied part of an item
type NewItem struct {
	Content        string
	ContentType    models.ContentType
	URL            string
	URLTitle       string
	URLDescription string
	Source         Source
}

// ItemService creates, labels, lists, deletes, and exports items
type ItemService struct {
	store   storage.Store
	ai      llm.Provider
	fetcher URLFetcher
	logger  *log.Logger
	now     func() time.Time
}

// NewItemService creates an ItemService
func NewItemService(store storage.Store, ai llm.Provider, opts ...Option) *ItemService {
	d := newDeps(opts)
	return &ItemService{store: store, ai: ai, fetcher: d.fetcher, logger: d.logger, now: d.now}
}

// CreateItem stores an item with its embedding and, when the provider offers
// one, an auto-assigned category. Both AI steps run before the write so the
// transaction never waits on the network; the insert and the category link
// commit together.
func (s *ItemService) CreateItem(ctx context.Context, in NewItem) (*models.Item, error) {
	item := &models.Item{
		Content:         in.Content,
		ContentType:     in.ContentType,
		URL:             in.URL,
		URLTitle:        in.URLTitle,
		URLDescription:  in.URLDescription,
		SourceChannel:   in.Source.Channel,
		SourceMessageID: in.Source.MessageID,
	}
	if item.ContentType == "" {
		item.ContentType = models.ContentText
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}

	vec, err := s.ai.Embed(ctx, item.Content)
	if err != nil {
		logProvider(s.logger, "embed", err)
		vec = nil
	}
	item.Embedding = vec

	label, err := s.ai.Classify(ctx, item.Content)
	if err != nil {
		logProvider(s.logger, "classify", err)
		label = ""
	}

	var created *models.Item
	err = s.store.Atomic(ctx, func(repo storage.Repository) error {
		if err := repo.CreateItem(ctx, item); err != nil {
			return err
		}
		if label != "" {
			cat, err := repo.GetOrCreateCategory(ctx, label)
			if err != nil {
				return err
			}
			if err := repo.LinkCategory(ctx, models.ItemCategory{ItemID: item.ID, CategoryID: cat.ID}); err != nil {
				return err
			}
		}
		var err error
		created, err = repo.GetItem(ctx, item.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}

	s.logger.Debug("item created", "id", created.ShortID(), "type", created.ContentType,
		"embedded", created.HasEmbedding(), "categories", created.CategoryNames())
	return created, nil
}

// CreateItemFromURL saves a link, using the page title and description when
// they can be fetched. Fetch failures only cost metadata.
func (s *ItemService) CreateItemFromURL(ctx context.Context, url string, src Source) (*models.Item, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("%w: url cannot be empty", storage.ErrInvalidInput)
	}

	var title, description string
	if s.fetcher != nil {
		meta := s.fetcher.Fetch(ctx, url)
		title, description = meta.Title, meta.Description
	}

	heading := title
	if heading == "" {
		heading = url
	}

	return s.CreateItem(ctx, NewItem{
		Content:        heading + "\n" + description,
		ContentType:    models.ContentURL,
		URL:            url,
		URLTitle:       title,
		URLDescription: description,
		Source:         src,
	})
}

// AddTags links each named tag to the item, creating tags on first use.
// Tags already on the item are left alone.
func (s *ItemService) AddTags(ctx context.Context, prefix string, names []string) (*models.Item, error) {
	names = normalizeNames(names)
	if len(names) == 0 {
		return nil, ErrNoTags
	}

	var item *models.Item
	err := s.store.Atomic(ctx, func(repo storage.Repository) error {
		found, err := repo.ResolveItem(ctx, prefix)
		if err != nil {
			return err
		}
		for _, name := range names {
			tag, err := repo.GetOrCreateTag(ctx, name)
			if err != nil {
				return err
			}
			if err := repo.LinkTag(ctx, models.ItemTag{ItemID: found.ID, TagID: tag.ID}); err != nil {
				return err
			}
		}
		item, err = repo.GetItem(ctx, found.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("add tags: %w", err)
	}
	return item, nil
}

// ListItems returns the newest items, optionally only those in category
func (s *ItemService) ListItems(ctx context.Context, category string, limit int) ([]*models.Item, error) {
	var items []*models.Item
	err := s.store.Atomic(ctx, func(repo storage.Repository) error {
		var err error
		items, err = repo.ListItems(ctx, storage.ItemFilter{
			Category: strings.TrimSpace(category),
			Limit:    limitOr(limit, DefaultListLimit),
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// ItemsSince returns every item created at or after since, newest first
func (s *ItemService) ItemsSince(ctx context.Context, since time.Time) ([]*models.Item, error) {
	var items []*models.Item
	err := s.store.Atomic(ctx, func(repo storage.Repository) error {
		var err error
		items, err = repo.ListItems(ctx, storage.ItemFilter{Since: since})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("items since: %w", err)
	}
	return items, nil
}

// GetItem resolves one item by id prefix
func (s *ItemService) GetItem(ctx context.Context, prefix string) (*models.Item, error) {
	var item *models.Item
	err := s.store.Atomic(ctx, func(repo storage.Repository) error {
		var err error
		item, err = repo.ResolveItem(ctx, prefix)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// DeleteItem removes the item matching prefix. It reports false when nothing
// matched; ambiguous or malformed prefixes are errors.
func (s *ItemService) DeleteItem(ctx context.Context, prefix string) (bool, error) {
	var deleted bool
	err := s.store.Atomic(ctx, func(repo storage.Repository) error {
		item, err := repo.ResolveItem(ctx, prefix)
		if err != nil {
			return err
		}
		deleted, err = repo.DeleteItem(ctx, item.ID)
		return err
	})
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}
	return deleted, nil
}

// Stats summarizes the store; RecentItems covers the last seven days
func (s *ItemService) Stats(ctx context.Context) (*models.ItemStats, error) {
	var stats *models.ItemStats
	err := s.store.Atomic(ctx, func(repo storage.Repository) error {
		var err error
		stats, err = repo.ItemStats(ctx, s.now().Add(-recentWindow))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("item stats: %w", err)
	}
	return stats, nil
}

// Export serializes every item, oldest first
func (s *ItemService) Export(ctx context.Context, format string) (*Export, error) {
	f, err := ParseFormat(format, FormatJSON, FormatCSV, FormatYAML)
	if err != nil {
		return nil, err
	}

	var items []*models.Item
	err = s.store.Atomic(ctx, func(repo storage.Repository) error {
		var err error
		items, err = repo.ListItems(ctx, storage.ItemFilter{Oldest: true})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("export items: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrNothingToExport
	}
	return encodeItems(items, f)
}

// normalizeNames trims names, drops blanks, and removes duplicates keeping first-seen order
func normalizeNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
