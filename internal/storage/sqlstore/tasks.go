// ABOUTME: Declutter task persistence and aggregate queries
// ABOUTME: Status is a free transition among pending, done, and dismissed
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/harper/stash/internal/models"
	"github.com/harper/stash/internal/storage"
)

const taskCols = "id, item_name, image_url, analysis, decision, status, action_taken, source_channel, source_message_id, created_at, updated_at"

func scanTask(s scanner) (*models.DeclutterTask, error) {
	var (
		task                            models.DeclutterTask
		decision, status                string
		imageURL, analysis, actionTaken sql.NullString
		sourceChannel, sourceMessage    sql.NullString
		created, updated                timeValue
	)
	err := s.Scan(&task.ID, &task.ItemName, &imageURL, &analysis, &decision, &status,
		&actionTaken, &sourceChannel, &sourceMessage, &created, &updated)
	if err != nil {
		return nil, err
	}
	task.ImageURL = imageURL.String
	task.Analysis = analysis.String
	task.Decision = models.Decision(decision)
	task.Status = models.TaskStatus(status)
	task.ActionTaken = actionTaken.String
	task.SourceChannel = sourceChannel.String
	task.SourceMessageID = sourceMessage.String
	task.CreatedAt = created.t
	task.UpdatedAt = updated.t
	return &task, nil
}

func scanTasks(rows *sql.Rows) ([]*models.DeclutterTask, error) {
	tasks := []*models.DeclutterTask{}
	err := eachRow(rows, func(s scanner) error {
		task, err := scanTask(s)
		if err != nil {
			return err
		}
		tasks = append(tasks, task)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan tasks: %w", err)
	}
	return tasks, nil
}

// CreateTask inserts a task; status defaults to pending
func (r *repo) CreateTask(ctx context.Context, task *models.DeclutterTask) error {
	if task.Status == "" {
		task.Status = models.TaskPending
	}
	if err := task.Validate(); err != nil {
		return err
	}
	if task.ID == "" {
		task.ID = r.store.newID()
	}
	now := r.now()
	task.CreatedAt, task.UpdatedAt = now, now

	_, err := r.exec(ctx, `
		INSERT INTO declutter_tasks (`+taskCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, task.ID, task.ItemName, nullString(task.ImageURL), nullString(task.Analysis),
		string(task.Decision), string(task.Status), nullString(task.ActionTaken),
		nullString(task.SourceChannel), nullString(task.SourceMessageID),
		r.d().TimeValue(now), r.d().TimeValue(now))
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// GetTask loads a task by full id
func (r *repo) GetTask(ctx context.Context, id string) (*models.DeclutterTask, error) {
	task, err := scanTask(r.queryRow(ctx, `SELECT `+taskCols+` FROM declutter_tasks WHERE id = ?`, id))
	if isNotFound(err) {
		return nil, fmt.Errorf("task %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// ResolveTask finds the single task whose id starts with prefix
func (r *repo) ResolveTask(ctx context.Context, prefix string) (*models.DeclutterTask, error) {
	p, err := storage.NormalizePrefix(prefix)
	if err != nil {
		return nil, err
	}

	rows, err := r.query(ctx, `
		SELECT `+taskCols+`
		FROM declutter_tasks
		WHERE `+r.d().IDText("id")+` LIKE ?
		ORDER BY created_at DESC
		LIMIT 2
	`, p+"%")
	if err != nil {
		return nil, fmt.Errorf("resolve task: %w", err)
	}
	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, err
	}

	switch len(tasks) {
	case 0:
		return nil, fmt.Errorf("task %s: %w", p, storage.ErrNotFound)
	case 1:
		return tasks[0], nil
	default:
		return nil, fmt.Errorf("task %s: %w", p, storage.ErrAmbiguousPrefix)
	}
}

// ListTasks returns tasks newest first by created_at, or by updated_at when ByUpdate is set
func (r *repo) ListTasks(ctx context.Context, filter storage.TaskFilter) ([]*models.DeclutterTask, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if !filter.UpdatedSince.IsZero() {
		where = append(where, "updated_at >= ?")
		args = append(args, r.d().TimeValue(filter.UpdatedSince.UTC()))
	}

	query := `SELECT ` + taskCols + ` FROM declutter_tasks`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if filter.ByUpdate {
		query += " ORDER BY updated_at DESC"
	} else {
		query += " ORDER BY created_at DESC"
	}
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return scanTasks(rows)
}

// UpdateTaskStatus changes status and optionally records the action taken
func (r *repo) UpdateTaskStatus(ctx context.Context, id string, status models.TaskStatus, actionTaken *string) (*models.DeclutterTask, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid status %q", status)
	}

	now := r.d().TimeValue(r.now())
	var (
		res sql.Result
		err error
	)
	if actionTaken != nil {
		res, err = r.exec(ctx, `
			UPDATE declutter_tasks SET status = ?, action_taken = ?, updated_at = ?
			WHERE id = ?
		`, string(status), nullString(*actionTaken), now, id)
	} else {
		res, err = r.exec(ctx, `
			UPDATE declutter_tasks SET status = ?, updated_at = ?
			WHERE id = ?
		`, string(status), now, id)
	}
	if err != nil {
		return nil, fmt.Errorf("update task status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("task %s: %w", id, storage.ErrNotFound)
	}
	return r.GetTask(ctx, id)
}

// DeleteTask removes a task by full id
func (r *repo) DeleteTask(ctx context.Context, id string) (bool, error) {
	res, err := r.exec(ctx, `DELETE FROM declutter_tasks WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountTasks counts tasks matching every non-zero field of filter
func (r *repo) CountTasks(ctx context.Context, filter storage.TaskCountFilter) (int, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if !filter.CreatedSince.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, r.d().TimeValue(filter.CreatedSince.UTC()))
	}
	if !filter.UpdatedSince.IsZero() {
		where = append(where, "updated_at >= ?")
		args = append(args, r.d().TimeValue(filter.UpdatedSince.UTC()))
	}

	query := `SELECT COUNT(*) FROM declutter_tasks`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	var n int
	if err := r.queryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

// TaskCounts returns per-status totals
func (r *repo) TaskCounts(ctx context.Context) (*models.TaskCounts, error) {
	rows, err := r.query(ctx, `SELECT status, COUNT(*) FROM declutter_tasks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count tasks by status: %w", err)
	}

	counts := &models.TaskCounts{}
	err = eachRow(rows, func(s scanner) error {
		var (
			status string
			n      int
		)
		if err := s.Scan(&status, &n); err != nil {
			return err
		}
		switch models.TaskStatus(status) {
		case models.TaskPending:
			counts.Pending = n
		case models.TaskDone:
			counts.Done = n
		case models.TaskDismissed:
			counts.Dismissed = n
		}
		counts.Total += n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// DecisionCounts groups done tasks by decision. A zero doneSince counts all of them.
func (r *repo) DecisionCounts(ctx context.Context, doneSince time.Time) (map[models.Decision]int, error) {
	query := `SELECT decision, COUNT(*) FROM declutter_tasks WHERE status = ?`
	args := []any{string(models.TaskDone)}
	if !doneSince.IsZero() {
		query += " AND updated_at >= ?"
		args = append(args, r.d().TimeValue(doneSince.UTC()))
	}
	query += " GROUP BY decision"

	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count decisions: %w", err)
	}

	counts := map[models.Decision]int{}
	err = eachRow(rows, func(s scanner) error {
		var (
			decision string
			n        int
		)
		if err := s.Scan(&decision, &n); err != nil {
			return err
		}
		counts[models.Decision(decision)] = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}
