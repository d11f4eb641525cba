// ABOUTME: End-to-end tests running stash commands against a temp SQLite database
// ABOUTME: No OpenAI key is set, so items are saved uncategorized and without embeddings

package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harper/stash/internal/models"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("STASH_DATABASE_PATH", filepath.Join(dir, "stash.db"))
	t.Setenv("STASH_DATABASE_DRIVER", "sqlite")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("STASH_OPENAI_API_KEY", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("STASH_REDIS_URL", "")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append([]string{"--quiet"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("stash %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func TestSaveTagListDelete(t *testing.T) {
	setupEnv(t)

	var saved models.Item
	out := mustRun(t, "--format", "json", "save", "--tags", "passport", "Renew", "passport", "before", "June")
	if err := json.Unmarshal([]byte(out), &saved); err != nil {
		t.Fatalf("decoding save output %q: %v", out, err)
	}
	if saved.Content != "Renew passport before June" {
		t.Errorf("Content = %q", saved.Content)
	}
	if len(saved.Categories) != 0 {
		t.Errorf("Categories = %v, want none without a provider", saved.Categories)
	}

	var tagged models.Item
	out = mustRun(t, "--format", "json", "tag", saved.ShortID(), "travel", "passport")
	if err := json.Unmarshal([]byte(out), &tagged); err != nil {
		t.Fatalf("decoding tag output: %v", err)
	}
	if got := tagged.TagNames(); len(got) != 2 {
		t.Errorf("tags = %v, want passport and travel", got)
	}

	var listed []models.Item
	out = mustRun(t, "--format", "json", "list")
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("decoding list output: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != saved.ID {
		t.Fatalf("list = %+v, want the saved item", listed)
	}

	mustRun(t, "delete", saved.ShortID())

	out = mustRun(t, "--format", "json", "list")
	listed = nil
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("decoding list output: %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("list after delete = %d items, want 0", len(listed))
	}

	if _, err := run(t, "delete", saved.ShortID()); err == nil {
		t.Error("deleting a missing item should fail")
	}
}

func TestSave_EmptyInput(t *testing.T) {
	setupEnv(t)

	if _, err := run(t, "save"); err == nil {
		t.Error("save with no text should fail")
	}
}

func TestListTable(t *testing.T) {
	setupEnv(t)

	mustRun(t, "save", "first note")
	out := mustRun(t, "list")

	if !strings.Contains(out, "first note") || !strings.Contains(out, "ID") {
		t.Errorf("table output missing item or header:\n%s", out)
	}
}

func TestExportCmd(t *testing.T) {
	dir := setupEnv(t)

	out := mustRun(t, "export")
	if strings.TrimSpace(out) != "" {
		t.Errorf("export with no items wrote %q in quiet mode", out)
	}

	mustRun(t, "save", "exported note")

	path := filepath.Join(dir, "items.csv")
	mustRun(t, "export", "--as", "csv", "-o", path)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "exported note") {
		t.Errorf("csv export missing content:\n%s", data)
	}

	if _, err := run(t, "export", "--as", "xml"); err == nil {
		t.Error("unsupported export format should fail")
	}
}

func TestStatsCmd(t *testing.T) {
	setupEnv(t)

	mustRun(t, "save", "one")
	mustRun(t, "save", "two")

	var stats models.ItemStats
	out := mustRun(t, "--format", "json", "stats")
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("decoding stats: %v", err)
	}
	if stats.TotalItems != 2 || stats.RecentItems != 2 {
		t.Errorf("stats = %+v, want 2 total and 2 recent", stats)
	}
}

func TestSearchWithoutProvider(t *testing.T) {
	setupEnv(t)

	mustRun(t, "save", "database indexes explained")

	out := mustRun(t, "find", "indexes")
	if !strings.Contains(out, "database indexes") {
		t.Errorf("keyword search should find the item:\n%s", out)
	}

	if _, err := run(t, "search", "indexes"); err != nil {
		t.Errorf("semantic search without a key should degrade, got %v", err)
	}

	if _, err := run(t, "search", "--limit", "0", "indexes"); err == nil {
		t.Error("zero limit should fail")
	}
}

func TestTasksWithoutTasks(t *testing.T) {
	setupEnv(t)

	var stats models.TaskStats
	out := mustRun(t, "--format", "json", "tasks", "stats")
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("decoding task stats: %v", err)
	}
	if stats.Total != 0 {
		t.Errorf("Total = %d, want 0", stats.Total)
	}

	if _, err := run(t, "tasks", "summary", "--period", "yearly"); err == nil {
		t.Error("invalid period should fail")
	}

	if _, err := run(t, "declutter", "https://example.com/garage.jpg"); err == nil {
		t.Error("declutter without a vision provider should fail")
	}
}
