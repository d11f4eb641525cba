// ABOUTME: Storage contracts for items, labels, and declutter tasks
// ABOUTME: Every store interaction runs inside a single Atomic unit of work
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/harper/stash/internal/models"
)

var (
	// ErrNotFound is returned when an id or prefix matches no row
	ErrNotFound = errors.New("not found")
	// ErrAmbiguousPrefix is returned when a prefix matches more than one row
	ErrAmbiguousPrefix = errors.New("id prefix matches more than one record")
	// ErrInvalidPrefix is returned for prefixes that cannot be part of an id
	ErrInvalidPrefix = errors.New("invalid id prefix")
	// ErrInvalidInput is returned when a field fails validation
	ErrInvalidInput = models.ErrInvalid
)

// Store hands out transactional repositories
type Store interface {
	// Atomic runs fn inside one transaction. The transaction commits when fn
	// returns nil and rolls back on error or panic.
	Atomic(ctx context.Context, fn func(Repository) error) error
	Close() error
}

// Repository is the full set of entity operations available inside a unit of work
type Repository interface {
	ItemRepository
	LabelRepository
	TaskRepository
}

// ItemFilter narrows ListItems
type ItemFilter struct {
	Category string    // exact category name; empty means any
	Since    time.Time // inclusive lower bound on created_at; zero means none
	Limit    int       // <= 0 means unbounded
	Oldest   bool      // order oldest first instead of newest first
}

// ItemRepository persists items
type ItemRepository interface {
	CreateItem(ctx context.Context, item *models.Item) error
	GetItem(ctx context.Context, id string) (*models.Item, error)
	ResolveItem(ctx context.Context, prefix string) (*models.Item, error)
	ListItems(ctx context.Context, filter ItemFilter) ([]*models.Item, error)
	SearchItems(ctx context.Context, keyword string, limit int) ([]*models.Item, error)
	NearestItems(ctx context.Context, query []float32, limit int) ([]models.ScoredItem, error)
	DeleteItem(ctx context.Context, id string) (bool, error)
	ItemStats(ctx context.Context, recentSince time.Time) (*models.ItemStats, error)
}

// LabelRepository persists categories, tags, and their links to items
type LabelRepository interface {
	GetOrCreateCategory(ctx context.Context, name string) (*models.Category, error)
	GetOrCreateTag(ctx context.Context, name string) (*models.Tag, error)
	LinkCategory(ctx context.Context, link models.ItemCategory) error
	LinkTag(ctx context.Context, link models.ItemTag) error
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListTags(ctx context.Context) ([]models.Tag, error)
	DeleteCategory(ctx context.Context, name string) (bool, error)
	DeleteTag(ctx context.Context, name string) (bool, error)
}

// TaskFilter narrows ListTasks
type TaskFilter struct {
	Status       models.TaskStatus // empty means any
	UpdatedSince time.Time         // inclusive; zero means none
	ByUpdate     bool              // order by updated_at instead of created_at
	Limit        int
}

// TaskCountFilter narrows CountTasks. Zero values are ignored.
type TaskCountFilter struct {
	Status       models.TaskStatus
	CreatedSince time.Time
	UpdatedSince time.Time
}

// TaskRepository persists declutter tasks
type TaskRepository interface {
	CreateTask(ctx context.Context, task *models.DeclutterTask) error
	GetTask(ctx context.Context, id string) (*models.DeclutterTask, error)
	ResolveTask(ctx context.Context, prefix string) (*models.DeclutterTask, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]*models.DeclutterTask, error)
	// UpdateTaskStatus sets the status and, when actionTaken is non-nil, the action note
	UpdateTaskStatus(ctx context.Context, id string, status models.TaskStatus, actionTaken *string) (*models.DeclutterTask, error)
	DeleteTask(ctx context.Context, id string) (bool, error)
	CountTasks(ctx context.Context, filter TaskCountFilter) (int, error)
	TaskCounts(ctx context.Context) (*models.TaskCounts, error)
	DecisionCounts(ctx context.Context, doneSince time.Time) (map[models.Decision]int, error)
}
