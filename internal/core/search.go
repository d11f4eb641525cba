// ABOUTME: SearchService answers semantic and keyword queries and lists labels
// ABOUTME: Semantic search returns nothing, not an error, when embeddings are unavailable
package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/harper/stash/internal/llm"
	"github.com/harper/stash/internal/models"
	"github.com/harper/stash/internal/storage"
)

// SearchService reads items by meaning or by substring
type SearchService struct {
	store  storage.Store
	ai     llm.Provider
	logger *log.Logger
}

// NewSearchService creates a SearchService
func NewSearchService(store storage.Store, ai llm.Provider, opts ...Option) *SearchService {
	d := newDeps(opts)
	return &SearchService{store: store, ai: ai, logger: d.logger}
}

// Semantic ranks embedded items by similarity to query, best first
func (s *SearchService) Semantic(ctx context.Context, query string, limit int) ([]models.ScoredItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	vec, err := s.ai.Embed(ctx, query)
	if err != nil {
		logProvider(s.logger, "embed", err)
		return []models.ScoredItem{}, nil
	}

	var results []models.ScoredItem
	err = s.store.Atomic(ctx, func(repo storage.Repository) error {
		var err error
		results, err = repo.NearestItems(ctx, vec, limitOr(limit, DefaultSemanticLimit))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	if results == nil {
		results = []models.ScoredItem{}
	}
	return results, nil
}

// Keyword finds items whose content contains keyword, ignoring case, newest first
func (s *SearchService) Keyword(ctx context.Context, keyword string, limit int) ([]*models.Item, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, ErrEmptyQuery
	}

	var items []*models.Item
	err := s.store.Atomic(ctx, func(repo storage.Repository) error {
		var err error
		items, err = repo.SearchItems(ctx, keyword, limitOr(limit, DefaultKeywordLimit))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	return items, nil
}

// Categories lists every category alphabetically
func (s *SearchService) Categories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	err := s.store.Atomic(ctx, func(repo storage.Repository) error {
		var err error
		cats, err = repo.ListCategories(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// Tags lists every tag alphabetically
func (s *SearchService) Tags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	err := s.store.Atomic(ctx, func(repo storage.Repository) error {
		var err error
		tags, err = repo.ListTags(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}
