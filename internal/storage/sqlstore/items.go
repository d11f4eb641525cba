// ABOUTME: Item persistence: create, resolve, list, search, delete, stats
// ABOUTME: Category and tag links are batch-loaded after each item query
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harper/stash/internal/models"
	"github.com/harper/stash/internal/storage"
)

var itemFields = []string{
	"id", "content", "content_type", "url", "url_title", "url_description",
	"source_channel", "source_message_id", "embedding", "created_at", "updated_at",
}

// itemCols renders the item column list, optionally qualified by a table alias
func itemCols(alias string) string {
	if alias == "" {
		return strings.Join(itemFields, ", ")
	}
	cols := make([]string, len(itemFields))
	for i, f := range itemFields {
		cols[i] = alias + "." + f
	}
	return strings.Join(cols, ", ")
}

func (r *repo) scanItem(s scanner) (*models.Item, error) {
	var (
		item                          models.Item
		contentType                   string
		url, urlTitle, urlDescription sql.NullString
		sourceChannel, sourceMessage  sql.NullString
		created, updated              timeValue
	)
	vec := r.d().NewVectorScanner()

	err := s.Scan(&item.ID, &item.Content, &contentType, &url, &urlTitle, &urlDescription,
		&sourceChannel, &sourceMessage, vec, &created, &updated)
	if err != nil {
		return nil, err
	}

	item.ContentType = models.ContentType(contentType)
	item.URL = url.String
	item.URLTitle = urlTitle.String
	item.URLDescription = urlDescription.String
	item.SourceChannel = sourceChannel.String
	item.SourceMessageID = sourceMessage.String
	item.Embedding = vec.Vector()
	item.CreatedAt = created.t
	item.UpdatedAt = updated.t
	item.Categories = []models.Category{}
	item.Tags = []models.Tag{}
	return &item, nil
}

func (r *repo) scanItems(rows *sql.Rows) ([]*models.Item, error) {
	defer func() { _ = rows.Close() }()

	items := []*models.Item{}
	for rows.Next() {
		item, err := r.scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// CreateItem inserts a new item, assigning id and timestamps
func (r *repo) CreateItem(ctx context.Context, item *models.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}
	if item.ID == "" {
		item.ID = r.store.newID()
	}
	if item.ContentType == "" {
		item.ContentType = models.ContentText
	}
	now := r.now()
	item.CreatedAt, item.UpdatedAt = now, now

	vec, err := r.d().VectorValue(item.Embedding)
	if err != nil {
		return fmt.Errorf("encode embedding: %w", err)
	}

	_, err = r.exec(ctx, `
		INSERT INTO items (`+itemCols("")+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, item.Content, string(item.ContentType), nullString(item.URL), nullString(item.URLTitle),
		nullString(item.URLDescription), nullString(item.SourceChannel), nullString(item.SourceMessageID),
		vec, r.d().TimeValue(now), r.d().TimeValue(now))
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}

	if item.Categories == nil {
		item.Categories = []models.Category{}
	}
	if item.Tags == nil {
		item.Tags = []models.Tag{}
	}
	return nil
}

// GetItem loads one item with its categories and tags
func (r *repo) GetItem(ctx context.Context, id string) (*models.Item, error) {
	item, err := r.scanItem(r.queryRow(ctx, `SELECT `+itemCols("")+` FROM items WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if err := r.hydrate(ctx, []*models.Item{item}); err != nil {
		return nil, err
	}
	return item, nil
}

// ResolveItem finds the single item whose id starts with prefix
func (r *repo) ResolveItem(ctx context.Context, prefix string) (*models.Item, error) {
	p, err := storage.NormalizePrefix(prefix)
	if err != nil {
		return nil, err
	}

	rows, err := r.query(ctx, `
		SELECT `+itemCols("")+`
		FROM items
		WHERE `+r.d().IDText("id")+` LIKE ?
		ORDER BY created_at DESC
		LIMIT 2
	`, p+"%")
	if err != nil {
		return nil, fmt.Errorf("resolve item: %w", err)
	}
	items, err := r.scanItems(rows)
	if err != nil {
		return nil, err
	}

	switch len(items) {
	case 0:
		return nil, fmt.Errorf("item %s: %w", p, storage.ErrNotFound)
	case 1:
	default:
		return nil, fmt.Errorf("item %s: %w", p, storage.ErrAmbiguousPrefix)
	}

	if err := r.hydrate(ctx, items); err != nil {
		return nil, err
	}
	return items[0], nil
}

// ListItems returns items newest first (or oldest first), optionally filtered
func (r *repo) ListItems(ctx context.Context, filter storage.ItemFilter) ([]*models.Item, error) {
	var (
		b     strings.Builder
		where []string
		args  []any
	)

	b.WriteString("SELECT " + itemCols("i") + " FROM items i")
	if filter.Category != "" {
		b.WriteString(" JOIN item_categories ic ON ic.item_id = i.id JOIN categories c ON c.id = ic.category_id")
		where = append(where, "c.name = ?")
		args = append(args, filter.Category)
	}
	if !filter.Since.IsZero() {
		where = append(where, "i.created_at >= ?")
		args = append(args, r.d().TimeValue(filter.Since.UTC()))
	}
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	if filter.Oldest {
		b.WriteString(" ORDER BY i.created_at ASC")
	} else {
		b.WriteString(" ORDER BY i.created_at DESC")
	}
	if filter.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}

	rows, err := r.query(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	items, err := r.scanItems(rows)
	if err != nil {
		return nil, err
	}
	if err := r.hydrate(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// SearchItems does a case-insensitive substring match on content, newest first
func (r *repo) SearchItems(ctx context.Context, keyword string, limit int) ([]*models.Item, error) {
	pattern := "%" + escapeLike(strings.ToLower(keyword)) + "%"
	query := `
		SELECT ` + itemCols("") + `
		FROM items
		WHERE ` + r.d().Lower("content") + ` LIKE ? ESCAPE '\'
		ORDER BY created_at DESC`
	args := []any{pattern}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	items, err := r.scanItems(rows)
	if err != nil {
		return nil, err
	}
	if err := r.hydrate(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// NearestItems ranks embedded items by cosine distance to query
func (r *repo) NearestItems(ctx context.Context, query []float32, limit int) ([]models.ScoredItem, error) {
	if len(query) == 0 {
		return nil, nil
	}

	neighbors, err := r.d().Nearest(ctx, r.q, query, limit)
	if err != nil {
		return nil, fmt.Errorf("nearest items: %w", err)
	}
	if len(neighbors) == 0 {
		return []models.ScoredItem{}, nil
	}

	ids := make([]any, len(neighbors))
	for i, n := range neighbors {
		ids[i] = n.ID
	}
	rows, err := r.query(ctx, `SELECT `+itemCols("")+` FROM items WHERE id IN (`+inClause(len(ids))+`)`, ids...)
	if err != nil {
		return nil, fmt.Errorf("load nearest items: %w", err)
	}
	items, err := r.scanItems(rows)
	if err != nil {
		return nil, err
	}
	if err := r.hydrate(ctx, items); err != nil {
		return nil, err
	}

	byID := make(map[string]*models.Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	results := make([]models.ScoredItem, 0, len(neighbors))
	for _, n := range neighbors {
		item, ok := byID[n.ID]
		if !ok {
			continue
		}
		results = append(results, models.ScoredItem{Item: item, Similarity: 1 - n.Distance})
	}
	return results, nil
}

// DeleteItem removes an item; join rows go with it through ON DELETE CASCADE
func (r *repo) DeleteItem(ctx context.Context, id string) (bool, error) {
	res, err := r.exec(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ItemStats aggregates item, category, and tag counts
func (r *repo) ItemStats(ctx context.Context, recentSince time.Time) (*models.ItemStats, error) {
	stats := &models.ItemStats{ItemsByType: map[string]int{}}

	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM items`, &stats.TotalItems},
		{`SELECT COUNT(*) FROM categories`, &stats.TotalCategories},
		{`SELECT COUNT(*) FROM tags`, &stats.TotalTags},
	}
	for _, c := range counts {
		if err := r.queryRow(ctx, c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("count: %w", err)
		}
	}

	if err := r.queryRow(ctx, `SELECT COUNT(*) FROM items WHERE created_at >= ?`,
		r.d().TimeValue(recentSince.UTC())).Scan(&stats.RecentItems); err != nil {
		return nil, fmt.Errorf("count recent items: %w", err)
	}

	rows, err := r.query(ctx, `SELECT content_type, COUNT(*) FROM items GROUP BY content_type`)
	if err != nil {
		return nil, fmt.Errorf("count items by type: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var (
			contentType string
			n           int
		)
		if err := rows.Scan(&contentType, &n); err != nil {
			return nil, err
		}
		stats.ItemsByType[contentType] = n
	}
	return stats, rows.Err()
}

// hydrate attaches categories and tags to items in two batched queries
func (r *repo) hydrate(ctx context.Context, items []*models.Item) error {
	if len(items) == 0 {
		return nil
	}

	byID := make(map[string]*models.Item, len(items))
	ids := make([]any, 0, len(items))
	for _, item := range items {
		if _, seen := byID[item.ID]; seen {
			continue
		}
		byID[item.ID] = item
		ids = append(ids, item.ID)
	}

	rows, err := r.query(ctx, `
		SELECT ic.item_id, c.id, c.name, c.description, c.created_at, c.updated_at
		FROM item_categories ic
		JOIN categories c ON c.id = ic.category_id
		WHERE ic.item_id IN (`+inClause(len(ids))+`)
		ORDER BY c.name
	`, ids...)
	if err != nil {
		return fmt.Errorf("load item categories: %w", err)
	}
	err = eachRow(rows, func(s scanner) error {
		var itemID string
		cat, err := scanCategory(s, &itemID)
		if err != nil {
			return err
		}
		if item, ok := byID[itemID]; ok {
			item.Categories = append(item.Categories, *cat)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan item categories: %w", err)
	}

	rows, err = r.query(ctx, `
		SELECT it.item_id, t.id, t.name, t.created_at, t.updated_at
		FROM item_tags it
		JOIN tags t ON t.id = it.tag_id
		WHERE it.item_id IN (`+inClause(len(ids))+`)
		ORDER BY t.name
	`, ids...)
	if err != nil {
		return fmt.Errorf("load item tags: %w", err)
	}
	err = eachRow(rows, func(s scanner) error {
		var itemID string
		tag, err := scanTag(s, &itemID)
		if err != nil {
			return err
		}
		if item, ok := byID[itemID]; ok {
			item.Tags = append(item.Tags, *tag)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan item tags: %w", err)
	}
	return nil
}

// eachRow calls fn for every row and closes rows
func eachRow(rows *sql.Rows, fn func(scanner) error) error {
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
