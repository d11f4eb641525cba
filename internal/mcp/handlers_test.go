// ABOUTME: Tests for MCP tool registration and handlers
// ABOUTME: Calls handlers directly with CallToolRequest values against an in-memory store
package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/stash/internal/core"
	"github.com/harper/stash/internal/llm"
	"github.com/harper/stash/internal/logging"
	"github.com/harper/stash/internal/models"
	"github.com/harper/stash/internal/storage/sqlite"
)

type stubProvider struct {
	advice []llm.Advice
}

func (stubProvider) Embed(context.Context, string) ([]float32, error) { return nil, llm.ErrUnavailable }

func (stubProvider) Classify(context.Context, string) (string, error) { return "work", nil }

func (p stubProvider) AnalyzeImage(context.Context, string) ([]llm.Advice, error) {
	if p.advice == nil {
		return nil, llm.ErrUnavailable
	}
	return p.advice, nil
}

func newTestHandlers(t *testing.T, ai llm.Provider) *Handlers {
	t.Helper()
	db, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	opt := core.WithLogger(logging.Discard())
	return NewHandlers(
		core.NewItemService(db, ai, opt),
		core.NewSearchService(db, ai, opt),
		core.NewDeclutterService(db, ai, opt),
		logging.Discard(),
	)
}

type toolFunc func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func call(t *testing.T, fn toolFunc, args map[string]interface{}) (*mcp.CallToolResult, string) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := fn(context.Background(), req)
	if err != nil {
		t.Fatalf("handler returned protocol error: %v", err)
	}
	if len(res.Content) == 0 {
		t.Fatal("handler returned no content")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", res.Content[0])
	}
	return res, text.Text
}

func decode(t *testing.T, text string, v interface{}) {
	t.Helper()
	if err := json.Unmarshal([]byte(text), v); err != nil {
		t.Fatalf("json.Unmarshal(%q) error = %v", text, err)
	}
}

func TestTools_Registered(t *testing.T) {
	h := newTestHandlers(t, stubProvider{})

	want := []string{
		"save_item", "save_url", "tag_item", "list_items", "delete_item",
		"semantic_search", "keyword_search", "list_categories", "list_tags",
		"item_stats", "export_items", "analyze_image", "list_tasks",
		"update_task", "react_task", "task_stats", "task_summary",
	}

	tools := h.Tools()
	if len(tools) != len(want) {
		t.Fatalf("Tools() = %d tools, want %d", len(tools), len(want))
	}
	names := make(map[string]bool, len(tools))
	for _, tool := range tools {
		if tool.Handler == nil {
			t.Errorf("tool %s has no handler", tool.Tool.Name)
		}
		if tool.Tool.Description == "" {
			t.Errorf("tool %s has no description", tool.Tool.Name)
		}
		names[tool.Tool.Name] = true
	}
	for _, name := range want {
		if !names[name] {
			t.Errorf("tool %q not registered", name)
		}
	}

	server := mcpserver.NewMCPServer("stash", "test")
	if got := RegisterTools(server, h.items, h.search, h.declutter, logging.Discard()); got == nil {
		t.Error("RegisterTools() returned nil")
	}
}

func TestSaveItem(t *testing.T) {
	h := newTestHandlers(t, stubProvider{})

	res, text := call(t, h.SaveItem, map[string]interface{}{"content": "ship the release", "source_channel": "eng"})
	if res.IsError {
		t.Fatalf("save_item error: %s", text)
	}
	var item models.Item
	decode(t, text, &item)
	if item.Content != "ship the release" || item.SourceChannel != "eng" {
		t.Errorf("item = %+v", item)
	}
	if len(item.Categories) != 1 || item.Categories[0].Name != "work" {
		t.Errorf("categories = %+v, want [work]", item.Categories)
	}

	res, _ = call(t, h.SaveItem, map[string]interface{}{"content": "  "})
	if !res.IsError {
		t.Error("save_item with blank content should be an error result")
	}
}

func TestTagItem(t *testing.T) {
	h := newTestHandlers(t, stubProvider{})

	_, text := call(t, h.SaveItem, map[string]interface{}{"content": "note"})
	var item models.Item
	decode(t, text, &item)

	tests := []struct {
		name string
		tags interface{}
	}{
		{"array", []interface{}{"alpha", "beta"}},
		{"comma string", "beta, gamma"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, text := call(t, h.TagItem, map[string]interface{}{"id": item.ShortID(), "tags": tt.tags})
			if res.IsError {
				t.Fatalf("tag_item error: %s", text)
			}
		})
	}

	_, text = call(t, h.TagItem, map[string]interface{}{"id": item.ID, "tags": []interface{}{"alpha"}})
	var tagged models.Item
	decode(t, text, &tagged)
	if got := strings.Join(tagged.TagNames(), ","); got != "alpha,beta,gamma" {
		t.Errorf("tags = %s, want alpha,beta,gamma", got)
	}

	res, text := call(t, h.TagItem, map[string]interface{}{"id": "ffffffff", "tags": []interface{}{"x"}})
	if !res.IsError || !strings.Contains(text, "no record") {
		t.Errorf("tag_item unknown id = %v %q", res.IsError, text)
	}

	res, _ = call(t, h.TagItem, map[string]interface{}{"id": item.ID})
	if !res.IsError {
		t.Error("tag_item without tags should be an error result")
	}

	res, text = call(t, h.TagItem, map[string]interface{}{"id": item.ID, "tags": []interface{}{strings.Repeat("x", 60)}})
	if !res.IsError || !strings.Contains(text, "exceeds 50 characters") || strings.Contains(text, "tag_item failed") {
		t.Errorf("tag_item long tag = %v %q, want a validation message", res.IsError, text)
	}
}

func TestDeleteItem(t *testing.T) {
	h := newTestHandlers(t, stubProvider{})

	_, text := call(t, h.SaveItem, map[string]interface{}{"content": "temporary"})
	var item models.Item
	decode(t, text, &item)

	for _, want := range []bool{true, false} {
		res, text := call(t, h.DeleteItem, map[string]interface{}{"id": item.ShortID()})
		if res.IsError {
			t.Fatalf("delete_item error: %s", text)
		}
		var out struct {
			Deleted bool `json:"deleted"`
		}
		decode(t, text, &out)
		if out.Deleted != want {
			t.Errorf("deleted = %v, want %v", out.Deleted, want)
		}
	}
}

func TestSearchTools(t *testing.T) {
	h := newTestHandlers(t, stubProvider{})
	call(t, h.SaveItem, map[string]interface{}{"content": "Kubernetes upgrade notes"})

	_, text := call(t, h.SemanticSearch, map[string]interface{}{"query": "cluster"})
	var sem struct {
		Count int `json:"count"`
	}
	decode(t, text, &sem)
	if sem.Count != 0 {
		t.Errorf("semantic_search count = %d, want 0 without embeddings", sem.Count)
	}

	_, text = call(t, h.KeywordSearch, map[string]interface{}{"keyword": "kubernetes", "limit": float64(5)})
	var kw struct {
		Count int `json:"count"`
	}
	decode(t, text, &kw)
	if kw.Count != 1 {
		t.Errorf("keyword_search count = %d, want 1", kw.Count)
	}

	_, text = call(t, h.ListCategories, nil)
	if !strings.Contains(text, `"work"`) {
		t.Errorf("list_categories = %s", text)
	}

	_, text = call(t, h.ItemStats, nil)
	var stats models.ItemStats
	decode(t, text, &stats)
	if stats.TotalItems != 1 {
		t.Errorf("item_stats total = %d, want 1", stats.TotalItems)
	}
}

func TestExportItems(t *testing.T) {
	h := newTestHandlers(t, stubProvider{})

	res, text := call(t, h.ExportItems, nil)
	if res.IsError || text != "nothing to export" {
		t.Errorf("export_items empty = %v %q", res.IsError, text)
	}

	call(t, h.SaveItem, map[string]interface{}{"content": "exported"})

	res, text = call(t, h.ExportItems, map[string]interface{}{"format": "csv"})
	if res.IsError || !strings.HasPrefix(text, "id,content,content_type") {
		t.Errorf("export_items csv = %q", text)
	}

	res, _ = call(t, h.ExportItems, map[string]interface{}{"format": "xml"})
	if !res.IsError {
		t.Error("export_items xml should be an error result")
	}
}

func TestDeclutterTools(t *testing.T) {
	h := newTestHandlers(t, stubProvider{advice: []llm.Advice{
		{Name: "chair", Decision: models.DecisionKeep, Reason: "used daily"},
		{Name: "box", Decision: models.DecisionDiscard, Reason: "empty", Action: "recycle"},
	}})

	res, text := call(t, h.AnalyzeImage, map[string]interface{}{"image_url": "https://img.example/room.jpg"})
	if res.IsError {
		t.Fatalf("analyze_image error: %s", text)
	}
	var analyzed struct {
		Tasks []models.DeclutterTask `json:"tasks"`
		Count int                    `json:"count"`
	}
	decode(t, text, &analyzed)
	if analyzed.Count != 2 {
		t.Fatalf("analyze_image count = %d, want 2", analyzed.Count)
	}
	box := analyzed.Tasks[1]

	res, text = call(t, h.UpdateTask, map[string]interface{}{"id": box.ShortID(), "status": "done", "action_taken": "recycled"})
	if res.IsError {
		t.Fatalf("update_task error: %s", text)
	}
	var updated models.DeclutterTask
	decode(t, text, &updated)
	if updated.Status != models.TaskDone || updated.ActionTaken != "recycled" {
		t.Errorf("update_task = %+v", updated)
	}

	res, _ = call(t, h.UpdateTask, map[string]interface{}{"id": box.ID, "status": "lost"})
	if !res.IsError {
		t.Error("update_task with bad status should be an error result")
	}

	_, text = call(t, h.ReactTask, map[string]interface{}{"id": box.ID, "emoji": "✅", "added": false})
	var reacted struct {
		Updated bool                 `json:"updated"`
		Task    models.DeclutterTask `json:"task"`
	}
	decode(t, text, &reacted)
	if !reacted.Updated || reacted.Task.Status != models.TaskPending {
		t.Errorf("react_task removal = %+v", reacted)
	}

	_, text = call(t, h.ReactTask, map[string]interface{}{"id": box.ID, "emoji": "👀"})
	if !strings.Contains(text, `"updated":false`) {
		t.Errorf("react_task other emoji = %s", text)
	}

	_, text = call(t, h.ListTasks, map[string]interface{}{"status": "pending"})
	var listed struct {
		Count int `json:"count"`
	}
	decode(t, text, &listed)
	if listed.Count != 2 {
		t.Errorf("list_tasks pending = %d, want 2", listed.Count)
	}

	res, _ = call(t, h.ListTasks, map[string]interface{}{"status": "everything"})
	if !res.IsError {
		t.Error("list_tasks with bad status should be an error result")
	}

	_, text = call(t, h.TaskStats, nil)
	var stats models.TaskStats
	decode(t, text, &stats)
	if stats.Total != 2 || stats.Pending != 2 {
		t.Errorf("task_stats = %+v", stats)
	}

	res, _ = call(t, h.TaskSummary, map[string]interface{}{"period": "decade"})
	if !res.IsError {
		t.Error("task_summary with bad period should be an error result")
	}
}

func TestAnalyzeImage_Unavailable(t *testing.T) {
	h := newTestHandlers(t, stubProvider{})

	res, text := call(t, h.AnalyzeImage, map[string]interface{}{"image_url": "https://img.example/a.jpg"})
	if !res.IsError || !strings.Contains(text, "OPENAI_API_KEY") {
		t.Errorf("analyze_image unavailable = %v %q", res.IsError, text)
	}
}
