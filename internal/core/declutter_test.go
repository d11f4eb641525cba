// ABOUTME: Tests for DeclutterService analysis, status transitions, reactions, and reports
// ABOUTME: Analysis uses scripted advice from the fake provider
package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/harper/stash/internal/llm"
	"github.com/harper/stash/internal/models"
	"github.com/harper/stash/internal/storage"
)

var photoAdvice = []llm.Advice{
	{Name: "old lamp", Decision: models.DecisionDiscard, Reason: "broken switch", Action: "recycle it"},
	{Name: "book", Decision: models.DecisionKeep, Reason: "still reading"},
	{Name: "cable", Decision: models.DecisionConsider, Reason: "unknown use", Action: "label it"},
}

func newDeclutter(t *testing.T) (*DeclutterService, []*models.DeclutterTask) {
	t.Helper()
	svc := NewDeclutterService(newTestStore(t), &fakeProvider{advice: photoAdvice}, quiet())
	tasks, err := svc.Analyze(context.Background(), "https://img.example/desk.jpg", Source{Channel: "home", MessageID: "42"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	return svc, tasks
}

func TestAnalyze_CreatesPendingTasks(t *testing.T) {
	_, tasks := newDeclutter(t)

	if len(tasks) != 3 {
		t.Fatalf("Analyze() = %d tasks, want 3", len(tasks))
	}
	for _, task := range tasks {
		if task.Status != models.TaskPending {
			t.Errorf("%s status = %q, want pending", task.ItemName, task.Status)
		}
		if task.ImageURL != "https://img.example/desk.jpg" || task.SourceChannel != "home" || task.SourceMessageID != "42" {
			t.Errorf("%s source fields = %q %q %q", task.ItemName, task.ImageURL, task.SourceChannel, task.SourceMessageID)
		}
	}
	if want := "broken switch\nSuggested action: recycle it"; tasks[0].Analysis != want {
		t.Errorf("Analysis = %q, want %q", tasks[0].Analysis, want)
	}
	if tasks[1].Analysis != "still reading" {
		t.Errorf("Analysis without action = %q", tasks[1].Analysis)
	}
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name    string
		ai      *fakeProvider
		wantErr error
	}{
		{"unavailable", &fakeProvider{err: llm.ErrUnavailable}, llm.ErrUnavailable},
		{"nothing found", &fakeProvider{advice: []llm.Advice{}}, ErrNoItemsIdentified},
		{"bad decision", &fakeProvider{advice: []llm.Advice{{Name: "x", Decision: "burn"}}}, ErrInvalidDecision},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestStore(t)
			svc := NewDeclutterService(db, tt.ai, quiet())

			_, err := svc.Analyze(context.Background(), "https://img.example/a.jpg", Source{})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Analyze() error = %v, want %v", err, tt.wantErr)
			}
			if n := countRows(t, db, "declutter_tasks"); n != 0 {
				t.Errorf("declutter_tasks = %d, want 0", n)
			}
		})
	}
}

func TestUpdateStatus_AnyTransition(t *testing.T) {
	svc, tasks := newDeclutter(t)
	ctx := context.Background()
	prefix := tasks[0].ShortID()

	steps := []struct {
		status string
		note   string
		want   models.TaskStatus
		action string
	}{
		{"done", "took it to recycling", models.TaskDone, "took it to recycling"},
		{"PENDING", "", models.TaskPending, "took it to recycling"},
		{"dismissed", "changed my mind", models.TaskDismissed, "changed my mind"},
		{"done", "", models.TaskDone, "changed my mind"},
	}

	for _, step := range steps {
		got, err := svc.UpdateStatus(ctx, prefix, step.status, step.note)
		if err != nil {
			t.Fatalf("UpdateStatus(%q) error = %v", step.status, err)
		}
		if got.Status != step.want || got.ActionTaken != step.action {
			t.Errorf("UpdateStatus(%q) = %q/%q, want %q/%q", step.status, got.Status, got.ActionTaken, step.want, step.action)
		}
	}

	if _, err := svc.UpdateStatus(ctx, prefix, "archived", ""); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("UpdateStatus(archived) error = %v, want ErrInvalidStatus", err)
	}
	if _, err := svc.UpdateStatus(ctx, "ffffffff", "done", ""); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("UpdateStatus(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestReactionStatus(t *testing.T) {
	tests := []struct {
		emoji  string
		added  bool
		want   models.TaskStatus
		wantOK bool
	}{
		{ReactionDone, true, models.TaskDone, true},
		{ReactionDismiss, true, models.TaskDismissed, true},
		{ReactionDone, false, models.TaskPending, true},
		{ReactionDismiss, false, models.TaskPending, true},
		{"👍", true, "", false},
	}

	for _, tt := range tests {
		got, ok := ReactionStatus(tt.emoji, tt.added)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ReactionStatus(%q, %v) = %q, %v; want %q, %v", tt.emoji, tt.added, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestApplyReaction(t *testing.T) {
	svc, tasks := newDeclutter(t)
	ctx := context.Background()
	prefix := tasks[1].ShortID()

	got, err := svc.ApplyReaction(ctx, prefix, ReactionDone, true)
	if err != nil {
		t.Fatalf("ApplyReaction() error = %v", err)
	}
	if got.Status != models.TaskDone {
		t.Errorf("status = %q, want done", got.Status)
	}

	got, err = svc.ApplyReaction(ctx, prefix, ReactionDone, false)
	if err != nil {
		t.Fatalf("ApplyReaction(remove) error = %v", err)
	}
	if got.Status != models.TaskPending {
		t.Errorf("status after removal = %q, want pending", got.Status)
	}

	got, err = svc.ApplyReaction(ctx, prefix, "🎉", true)
	if err != nil || got != nil {
		t.Errorf("ApplyReaction(other emoji) = %v, %v; want nil, nil", got, err)
	}
}

func TestListAndDelete(t *testing.T) {
	svc, tasks := newDeclutter(t)
	ctx := context.Background()

	if _, err := svc.UpdateStatus(ctx, tasks[0].ID, "done", ""); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	pending, err := svc.List(ctx, "pending", 0)
	if err != nil {
		t.Fatalf("List(pending) error = %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("List(pending) = %d tasks, want 2", len(pending))
	}
	all, err := svc.List(ctx, "", 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 || all[0].ItemName != "cable" {
		t.Errorf("List() = %d tasks, want 3 newest first", len(all))
	}
	if _, err := svc.List(ctx, "bogus", 0); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("List(bogus) error = %v, want ErrInvalidStatus", err)
	}

	deleted, err := svc.Delete(ctx, tasks[2].ShortID())
	if err != nil || !deleted {
		t.Fatalf("Delete() = %v, %v; want true, nil", deleted, err)
	}
	deleted, err = svc.Delete(ctx, tasks[2].ShortID())
	if err != nil || deleted {
		t.Errorf("Delete() again = %v, %v; want false, nil", deleted, err)
	}
	if _, err := svc.Get(ctx, tasks[2].ShortID()); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get() deleted task error = %v, want ErrNotFound", err)
	}
}

func TestDeclutterStats(t *testing.T) {
	svc, tasks := newDeclutter(t)
	ctx := context.Background()

	if _, err := svc.UpdateStatus(ctx, tasks[0].ID, "done", ""); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, tasks[1].ID, "dismissed", ""); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Total != 3 || stats.Done != 1 || stats.Dismissed != 1 || stats.Pending != 1 {
		t.Errorf("counts = %+v", stats.TaskCounts)
	}
	if stats.CompletionRate < 33.3 || stats.CompletionRate > 33.4 {
		t.Errorf("CompletionRate = %.2f, want 33.33", stats.CompletionRate)
	}
	if stats.RecentCreated != 3 || stats.RecentCompleted != 1 {
		t.Errorf("recent = %d created, %d completed", stats.RecentCreated, stats.RecentCompleted)
	}
}

func TestDeclutterStats_Empty(t *testing.T) {
	svc := NewDeclutterService(newTestStore(t), &fakeProvider{}, quiet())

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Total != 0 || stats.CompletionRate != 0 {
		t.Errorf("Stats() = %+v, want zeros", stats)
	}
}

func TestSummary(t *testing.T) {
	svc, tasks := newDeclutter(t)
	ctx := context.Background()

	for _, task := range tasks[:2] {
		if _, err := svc.UpdateStatus(ctx, task.ID, "done", ""); err != nil {
			t.Fatalf("UpdateStatus() error = %v", err)
		}
	}

	for _, period := range []string{"", "weekly", "monthly", "all"} {
		sum, err := svc.Summary(ctx, period)
		if err != nil {
			t.Fatalf("Summary(%q) error = %v", period, err)
		}
		if len(sum.Completed) != 2 {
			t.Errorf("Summary(%q) completed = %d, want 2", period, len(sum.Completed))
		}
		if sum.Completed[0].ItemName != "book" {
			t.Errorf("Summary(%q) first = %q, want most recently finished", period, sum.Completed[0].ItemName)
		}
		if sum.Decisions[models.DecisionDiscard] != 1 || sum.Decisions[models.DecisionKeep] != 1 {
			t.Errorf("Summary(%q) decisions = %v", period, sum.Decisions)
		}
		if (sum.Period == PeriodAll) != (sum.Since == nil) {
			t.Errorf("Summary(%q) since = %v", period, sum.Since)
		}
	}

	if _, err := svc.Summary(ctx, "yearly"); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("Summary(yearly) error = %v, want ErrInvalidPeriod", err)
	}
}

func TestDeclutterExport(t *testing.T) {
	svc, _ := newDeclutter(t)
	ctx := context.Background()

	exp, err := svc.Export(ctx, "json")
	if err != nil {
		t.Fatalf("Export(json) error = %v", err)
	}
	var records []taskRecord
	if err := json.Unmarshal(exp.Data, &records); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if len(records) != 3 || len(records[0].ID) != models.ShortIDLen {
		t.Errorf("records = %+v, want 3 with short ids", records)
	}
	if exp.Filename != "declutter_export.json" {
		t.Errorf("Filename = %q", exp.Filename)
	}

	exp, err = svc.Export(ctx, "csv")
	if err != nil {
		t.Fatalf("Export(csv) error = %v", err)
	}
	rows, err := csv.NewReader(bytes.NewReader(exp.Data)).ReadAll()
	if err != nil {
		t.Fatalf("csv ReadAll() error = %v", err)
	}
	if len(rows) != 4 || strings.Join(rows[0], ",") != "id,item_name,decision,status,action_taken,created_at" {
		t.Errorf("csv rows = %v", rows)
	}

	if _, err := svc.Export(ctx, "yaml"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Export(yaml) error = %v, want ErrUnsupportedFormat", err)
	}

	empty := NewDeclutterService(newTestStore(t), &fakeProvider{}, quiet())
	if _, err := empty.Export(ctx, "csv"); !errors.Is(err, ErrNothingToExport) {
		t.Errorf("Export() empty error = %v, want ErrNothingToExport", err)
	}
}
