// ABOUTME: Category and tag persistence with get-or-create upserts
// ABOUTME: Links are idempotent; re-linking an existing pair is a no-op
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/harper/stash/internal/models"
	"github.com/harper/stash/internal/storage"
)

const (
	maxCategoryName = 100
	maxTagName      = 50
)

// scanCategory reads id, name, description, created_at, updated_at,
// preceded by any extra destinations
func scanCategory(s scanner, extra ...any) (*models.Category, error) {
	var (
		cat              models.Category
		description      sql.NullString
		created, updated timeValue
	)
	dest := append(extra, &cat.ID, &cat.Name, &description, &created, &updated)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	cat.Description = description.String
	cat.CreatedAt = created.t
	cat.UpdatedAt = updated.t
	return &cat, nil
}

// scanTag reads id, name, created_at, updated_at, preceded by any extra destinations
func scanTag(s scanner, extra ...any) (*models.Tag, error) {
	var (
		tag              models.Tag
		created, updated timeValue
	)
	dest := append(extra, &tag.ID, &tag.Name, &created, &updated)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	tag.CreatedAt = created.t
	tag.UpdatedAt = updated.t
	return &tag, nil
}

func validateLabel(kind, name string, max int) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: %s name cannot be empty", storage.ErrInvalidInput, kind)
	}
	if len([]rune(name)) > max {
		return "", fmt.Errorf("%w: %s name %q exceeds %d characters", storage.ErrInvalidInput, kind, name, max)
	}
	return name, nil
}

// GetOrCreateCategory returns the category with this exact name, creating it on first use
func (r *repo) GetOrCreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name, err := validateLabel("category", name, maxCategoryName)
	if err != nil {
		return nil, err
	}

	now := r.d().TimeValue(r.now())
	_, err = r.exec(ctx, `
		INSERT INTO categories (id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (name) DO NOTHING
	`, r.store.newID(), name, now, now)
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}

	cat, err := scanCategory(r.queryRow(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM categories WHERE name = ?
	`, name))
	if err != nil {
		return nil, fmt.Errorf("get category %q: %w", name, err)
	}
	return cat, nil
}

// GetOrCreateTag returns the tag with this exact name, creating it on first use
func (r *repo) GetOrCreateTag(ctx context.Context, name string) (*models.Tag, error) {
	name, err := validateLabel("tag", name, maxTagName)
	if err != nil {
		return nil, err
	}

	now := r.d().TimeValue(r.now())
	_, err = r.exec(ctx, `
		INSERT INTO tags (id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (name) DO NOTHING
	`, r.store.newID(), name, now, now)
	if err != nil {
		return nil, fmt.Errorf("insert tag: %w", err)
	}

	tag, err := scanTag(r.queryRow(ctx, `
		SELECT id, name, created_at, updated_at
		FROM tags WHERE name = ?
	`, name))
	if err != nil {
		return nil, fmt.Errorf("get tag %q: %w", name, err)
	}
	return tag, nil
}

// LinkCategory attaches a category to an item
func (r *repo) LinkCategory(ctx context.Context, link models.ItemCategory) error {
	var confidence sql.NullFloat64
	if link.Confidence != nil {
		confidence = sql.NullFloat64{Float64: *link.Confidence, Valid: true}
	}
	_, err := r.exec(ctx, `
		INSERT INTO item_categories (item_id, category_id, confidence)
		VALUES (?, ?, ?)
		ON CONFLICT (item_id, category_id) DO NOTHING
	`, link.ItemID, link.CategoryID, confidence)
	if err != nil {
		return fmt.Errorf("link category: %w", err)
	}
	return nil
}

// LinkTag attaches a tag to an item
func (r *repo) LinkTag(ctx context.Context, link models.ItemTag) error {
	_, err := r.exec(ctx, `
		INSERT INTO item_tags (item_id, tag_id)
		VALUES (?, ?)
		ON CONFLICT (item_id, tag_id) DO NOTHING
	`, link.ItemID, link.TagID)
	if err != nil {
		return fmt.Errorf("link tag: %w", err)
	}
	return nil
}

// ListCategories returns all categories ordered by name
func (r *repo) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := r.query(ctx, `SELECT id, name, description, created_at, updated_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	cats := []models.Category{}
	err = eachRow(rows, func(s scanner) error {
		cat, err := scanCategory(s)
		if err != nil {
			return err
		}
		cats = append(cats, *cat)
		return nil
	})
	return cats, err
}

// ListTags returns all tags ordered by name
func (r *repo) ListTags(ctx context.Context) ([]models.Tag, error) {
	rows, err := r.query(ctx, `SELECT id, name, created_at, updated_at FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	tags := []models.Tag{}
	err = eachRow(rows, func(s scanner) error {
		tag, err := scanTag(s)
		if err != nil {
			return err
		}
		tags = append(tags, *tag)
		return nil
	})
	return tags, err
}

// DeleteCategory removes a category and its item links, never the items
func (r *repo) DeleteCategory(ctx context.Context, name string) (bool, error) {
	return r.deleteByName(ctx, "categories", name)
}

// DeleteTag removes a tag and its item links, never the items
func (r *repo) DeleteTag(ctx context.Context, name string) (bool, error) {
	return r.deleteByName(ctx, "tags", name)
}

func (r *repo) deleteByName(ctx context.Context, table, name string) (bool, error) {
	res, err := r.exec(ctx, `DELETE FROM `+table+` WHERE name = ?`, strings.TrimSpace(name))
	if err != nil {
		return false, fmt.Errorf("delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// isNotFound reports whether err is a missing-row error from either layer
func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, storage.ErrNotFound)
}
