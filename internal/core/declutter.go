// ABOUTME: DeclutterService turns photo analysis into tasks and tracks their progress
// ABOUTME: Status moves freely among pending, done, and dismissed
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

const (
	ReactionDone    = "✅"
	ReactionDismiss = "❌"

	summaryLimit = 100
	exportLimit  = 1000
)

// Period selects the window for Summary
type Period string

const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodAll     Period = "all"
)

// ParsePeriod accepts weekly, monthly, or all; empty means weekly
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PeriodWeekly, nil
	case PeriodWeekly, PeriodMonthly, PeriodAll:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q (want weekly, monthly, or all)", ErrInvalidPeriod, s)
	}
}

// Summary is the completed work within a period
type Summary struct {
	Period    Period                  `json:"period"`
	Since     *time.Time              `json:"since,omitempty"`
	Completed []*models.DeclutterTask `json:"completed"`
	Decisions map[models.Decision]int `json:"decisions"`
}

// DeclutterService manages declutter tasks
type DeclutterService struct {
	store  storage.Store
	ai     llm.Provider
	logger *log.Logger
	now    func() time.Time
}

// NewDeclutterService creates a DeclutterService
func NewDeclutterService(store storage.Store, ai llm.Provider, opts ...Option) *DeclutterService {
	d := newDeps(opts)
	return &DeclutterService{store: store, ai: ai, logger: d.logger, now: d.now}
}

// Analyze asks the provider about every object in the photo and records one
// pending task per object. Provider failures, including a missing credential,
// are returned to the caller.
func (s *DeclutterService) Analyze(ctx context.Context, imageURL string, src Source) ([]*models.DeclutterTask, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return nil, fmt.Errorf("%w: image url cannot be empty", storage.ErrInvalidInput)
	}

	advice, err := s.ai.AnalyzeImage(ctx, imageURL)
	if err != nil {
		return nil, fmt.Errorf("analyze image: %w", err)
	}
	if len(advice) == 0 {
		return nil, ErrNoItemsIdentified
	}
	for _, a := range advice {
		if !a.Decision.Valid() {
			return nil, fmt.Errorf("%w: %q for %s", ErrInvalidDecision, a.Decision, a.Name)
		}
	}

	tasks := make([]*models.DeclutterTask, 0, len(advice))
	err = s.store.Atomic(ctx, func(repo storage.Repository) error {
		for _, a := range advice {
			task := &models.DeclutterTask{
				ItemName:        truncate(a.Name, 200),
				ImageURL:        imageURL,
				Analysis:        analysisText(a),
				Decision:        a.Decision,
				Status:          models.TaskPending,
				SourceChannel:   src.Channel,
				SourceMessageID: src.MessageID,
			}
			if err := repo.CreateTask(ctx, task); err != nil {
				return err
			}
			tasks = append(tasks, task)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("save tasks: %w", err)
	}

	s.logger.Debug("declutter tasks created", "count", len(tasks), "image", imageURL)
	return tasks, nil
}

func analysisText(a llm.Advice) string {
	if a.Action == "" {
		return a.Reason
	}
	return a.Reason + "\nSuggested action: " + a.Action
}

// List returns tasks newest first, optionally filtered by status
func (s *DeclutterService) List(ctx context.Context, status string, limit int) ([]*models.DeclutterTask, error) {
	filter := storage.TaskFilter{Limit: limitOr(limit, DefaultTaskLimit)}
	if strings.TrimSpace(status) != "" {
		st, err := models.ParseTaskStatus(status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidStatus, err)
		}
		filter.Status = st
	}

	var tasks []*models.DeclutterTask
	err := s.store.Atomic(ctx, func(repo storage.Repository) error {
		var err error
		tasks, err = repo.ListTasks(ctx, filter)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// Get resolves one task by id prefix
func (s *DeclutterService) Get(ctx context.Context, prefix string) (*models.DeclutterTask, error) {
	var task *models.DeclutterTask
	err := s.store.Atomic(ctx, func(repo storage.Repository) error {
		var err error
		task, err = repo.ResolveTask(ctx, prefix)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// UpdateStatus moves the task to status. A non-empty actionTaken is recorded
// alongside; an empty one leaves the previous note in place.
func (s *DeclutterService) UpdateStatus(ctx context.Context, prefix, status, actionTaken string) (*models.DeclutterTask, error) {
	st, err := models.ParseTaskStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStatus, err)
	}
	return s.setStatus(ctx, prefix, st, strings.TrimSpace(actionTaken))
}

func (s *DeclutterService) setStatus(ctx context.Context, prefix string, status models.TaskStatus, actionTaken string) (*models.DeclutterTask, error) {
	var note *string
	if actionTaken != "" {
		note = &actionTaken
	}

	var task *models.DeclutterTask
	err := s.store.Atomic(ctx, func(repo storage.Repository) error {
		found, err := repo.ResolveTask(ctx, prefix)
		if err != nil {
			return err
		}
		task, err = repo.UpdateTaskStatus(ctx, found.ID, status, note)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return task, nil
}

// ReactionStatus maps a reaction toggle to a status: ✅ marks done, ❌ dismisses,
// and removing either reopens the task. ok is false for any other emoji.
func ReactionStatus(emoji string, added bool) (status models.TaskStatus, ok bool) {
	if emoji != ReactionDone && emoji != ReactionDismiss {
		return "", false
	}
	switch {
	case !added:
		return models.TaskPending, true
	case emoji == ReactionDone:
		return models.TaskDone, true
	default:
		return models.TaskDismissed, true
	}
}

// ApplyReaction updates the task for a reaction added to or removed from its
// message. Unrecognized emoji leave the task untouched and return nil.
func (s *DeclutterService) ApplyReaction(ctx context.Context, prefix, emoji string, added bool) (*models.DeclutterTask, error) {
	status, ok := ReactionStatus(emoji, added)
	if !ok {
		return nil, nil
	}
	return s.setStatus(ctx, prefix, status, "")
}

// Delete removes the task matching prefix, reporting false when nothing matched
func (s *DeclutterService) Delete(ctx context.Context, prefix string) (bool, error) {
	var deleted bool
	err := s.store.Atomic(ctx, func(repo storage.Repository) error {
		task, err := repo.ResolveTask(ctx, prefix)
		if err != nil {
			return err
		}
		deleted, err = repo.DeleteTask(ctx, task.ID)
		return err
	})
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	return deleted, nil
}

// Stats reports status totals, completion percentage, and last-seven-day activity
func (s *DeclutterService) Stats(ctx context.Context) (*models.TaskStats, error) {
	since := s.now().Add(-recentWindow)

	stats := &models.TaskStats{}
	err := s.store.Atomic(ctx, func(repo storage.Repository) error {
		counts, err := repo.TaskCounts(ctx)
		if err != nil {
			return err
		}
		stats.TaskCounts = *counts

		stats.RecentCompleted, err = repo.CountTasks(ctx, storage.TaskCountFilter{
			Status:       models.TaskDone,
			UpdatedSince: since,
		})
		if err != nil {
			return err
		}
		stats.RecentCreated, err = repo.CountTasks(ctx, storage.TaskCountFilter{CreatedSince: since})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("task stats: %w", err)
	}

	if stats.Total > 0 {
		stats.CompletionRate = float64(stats.Done) / float64(stats.Total) * 100
	}
	return stats, nil
}

// Summary lists tasks completed within period, most recently finished first,
// with a count per decision
func (s *DeclutterService) Summary(ctx context.Context, period string) (*Summary, error) {
	p, err := ParsePeriod(period)
	if err != nil {
		return nil, err
	}

	sum := &Summary{Period: p}
	var since time.Time
	switch p {
	case PeriodWeekly:
		since = s.now().Add(-7 * 24 * time.Hour)
	case PeriodMonthly:
		since = s.now().Add(-30 * 24 * time.Hour)
	}
	if !since.IsZero() {
		since = since.UTC()
		sum.Since = &since
	}

	err = s.store.Atomic(ctx, func(repo storage.Repository) error {
		var err error
		sum.Completed, err = repo.ListTasks(ctx, storage.TaskFilter{
			Status:       models.TaskDone,
			UpdatedSince: since,
			ByUpdate:     true,
			Limit:        summaryLimit,
		})
		if err != nil {
			return err
		}
		sum.Decisions, err = repo.DecisionCounts(ctx, since)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("task summary: %w", err)
	}
	if sum.Completed == nil {
		sum.Completed = []*models.DeclutterTask{}
	}
	return sum, nil
}

// Export serializes up to 1000 tasks, newest first, with shortened ids
func (s *DeclutterService) Export(ctx context.Context, format string) (*Export, error) {
	f, err := ParseFormat(format, FormatJSON, FormatCSV)
	if err != nil {
		return nil, err
	}

	var tasks []*models.DeclutterTask
	err = s.store.Atomic(ctx, func(repo storage.Repository) error {
		var err error
		tasks, err = repo.ListTasks(ctx, storage.TaskFilter{Limit: exportLimit})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("export tasks: %w", err)
	}
	if len(tasks) == 0 {
		return nil, ErrNothingToExport
	}
	return encodeTasks(tasks, f)
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n])
}
