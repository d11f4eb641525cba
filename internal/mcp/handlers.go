// ABOUTME: MCP tool handler implementations for the stash server
// ABOUTME: Handlers validate arguments, call the services, and answer with JSON text
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harper/stash/internal/core"
	"github.com/harper/stash/internal/llm"
	"github.com/harper/stash/internal/models"
	"github.com/harper/stash/internal/storage"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	items     *core.ItemService
	search    *core.SearchService
	declutter *core.DeclutterService
	logger    *log.Logger
}

// NewHandlers creates the tool handlers
func NewHandlers(items *core.ItemService, search *core.SearchService, declutter *core.DeclutterService, logger *log.Logger) *Handlers {
	if logger == nil {
		logger = log.Default()
	}
	return &Handlers{items: items, search: search, declutter: declutter, logger: logger}
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// failure turns a service error into a tool error the agent can act on
func (h *Handlers) failure(tool string, err error) (*mcp.CallToolResult, error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return mcp.NewToolResultError("no record matches that id"), nil
	case errors.Is(err, storage.ErrAmbiguousPrefix):
		return mcp.NewToolResultError("id prefix matches more than one record; use a longer prefix"), nil
	case errors.Is(err, llm.ErrUnavailable):
		return mcp.NewToolResultError("AI provider is not configured (set OPENAI_API_KEY)"), nil
	case badInput(err):
		return mcp.NewToolResultError(err.Error()), nil
	}
	h.logger.Warn("tool failed", "tool", tool, "err", err)
	return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", tool, err)), nil
}

// badInput reports errors caused by the arguments rather than the server
func badInput(err error) bool {
	for _, target := range []error{
		storage.ErrInvalidInput,
		storage.ErrInvalidPrefix,
		core.ErrInvalidStatus,
		core.ErrInvalidDecision,
		core.ErrInvalidPeriod,
		core.ErrUnsupportedFormat,
		core.ErrEmptyQuery,
		core.ErrNoTags,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func sourceFrom(request mcp.CallToolRequest) core.Source {
	return core.Source{
		Channel:   request.GetString("source_channel", ""),
		MessageID: request.GetString("source_message_id", ""),
	}
}

// SaveItem handles the save_item tool
func (h *Handlers) SaveItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := request.RequireString("content")
	if err != nil || strings.TrimSpace(content) == "" {
		return mcp.NewToolResultError("content argument is required and must be a non-empty string"), nil
	}

	item, err := h.items.CreateItem(ctx, core.NewItem{
		Content:     content,
		ContentType: models.ContentType(request.GetString("content_type", "")),
		Source:      sourceFrom(request),
	})
	if err != nil {
		return h.failure("save_item", err)
	}
	return jsonResult(item)
}

// SaveURL handles the save_url tool
func (h *Handlers) SaveURL(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil || strings.TrimSpace(url) == "" {
		return mcp.NewToolResultError("url argument is required and must be a non-empty string"), nil
	}

	item, err := h.items.CreateItemFromURL(ctx, url, sourceFrom(request))
	if err != nil {
		return h.failure("save_url", err)
	}
	return jsonResult(item)
}

// TagItem handles the tag_item tool
func (h *Handlers) TagItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id argument is required and must be a string"), nil
	}

	tags := stringList(request.GetArguments()["tags"])
	if len(tags) == 0 {
		return mcp.NewToolResultError("tags argument must list at least one tag"), nil
	}

	item, err := h.items.AddTags(ctx, id, tags)
	if err != nil {
		return h.failure("tag_item", err)
	}
	return jsonResult(item)
}

// stringList accepts a JSON array of strings or a comma-separated string
func stringList(v interface{}) []string {
	switch val := v.(type) {
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return val
	case string:
		return strings.Split(val, ",")
	}
	return nil
}

// ListItems handles the list_items tool
func (h *Handlers) ListItems(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := h.items.ListItems(ctx, request.GetString("category", ""), request.GetInt("limit", core.DefaultListLimit))
	if err != nil {
		return h.failure("list_items", err)
	}
	return jsonResult(map[string]interface{}{"items": items, "count": len(items)})
}

// DeleteItem handles the delete_item tool
func (h *Handlers) DeleteItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id argument is required and must be a string"), nil
	}

	deleted, err := h.items.DeleteItem(ctx, id)
	if err != nil {
		return h.failure("delete_item", err)
	}
	return jsonResult(map[string]interface{}{"id": id, "deleted": deleted})
}

// SemanticSearch handles the semantic_search tool
func (h *Handlers) SemanticSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}

	results, err := h.search.Semantic(ctx, query, request.GetInt("limit", core.DefaultSemanticLimit))
	if err != nil {
		return h.failure("semantic_search", err)
	}
	return jsonResult(map[string]interface{}{"results": results, "count": len(results)})
}

// KeywordSearch handles the keyword_search tool
func (h *Handlers) KeywordSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	keyword, err := request.RequireString("keyword")
	if err != nil {
		return mcp.NewToolResultError("keyword argument is required and must be a string"), nil
	}

	items, err := h.search.Keyword(ctx, keyword, request.GetInt("limit", core.DefaultKeywordLimit))
	if err != nil {
		return h.failure("keyword_search", err)
	}
	return jsonResult(map[string]interface{}{"items": items, "count": len(items)})
}

// ListCategories handles the list_categories tool
func (h *Handlers) ListCategories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cats, err := h.search.Categories(ctx)
	if err != nil {
		return h.failure("list_categories", err)
	}
	return jsonResult(map[string]interface{}{"categories": cats})
}

// ListTags handles the list_tags tool
func (h *Handlers) ListTags(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, err := h.search.Tags(ctx)
	if err != nil {
		return h.failure("list_tags", err)
	}
	return jsonResult(map[string]interface{}{"tags": tags})
}

// ItemStats handles the item_stats tool
func (h *Handlers) ItemStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.items.Stats(ctx)
	if err != nil {
		return h.failure("item_stats", err)
	}
	return jsonResult(stats)
}

// ExportItems handles the export_items tool. The export body is returned as text.
func (h *Handlers) ExportItems(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exp, err := h.items.Export(ctx, request.GetString("format", string(core.FormatJSON)))
	switch {
	case errors.Is(err, core.ErrNothingToExport):
		return mcp.NewToolResultText("nothing to export"), nil
	case errors.Is(err, core.ErrUnsupportedFormat):
		return mcp.NewToolResultError(err.Error()), nil
	case err != nil:
		return h.failure("export_items", err)
	}
	return mcp.NewToolResultText(string(exp.Data)), nil
}

// AnalyzeImage handles the analyze_image tool
func (h *Handlers) AnalyzeImage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	imageURL, err := request.RequireString("image_url")
	if err != nil {
		return mcp.NewToolResultError("image_url argument is required and must be a string"), nil
	}

	tasks, err := h.declutter.Analyze(ctx, imageURL, sourceFrom(request))
	if errors.Is(err, core.ErrNoItemsIdentified) {
		return jsonResult(map[string]interface{}{"tasks": []*models.DeclutterTask{}, "count": 0, "message": err.Error()})
	}
	if err != nil {
		return h.failure("analyze_image", err)
	}
	return jsonResult(map[string]interface{}{"tasks": tasks, "count": len(tasks)})
}

// ListTasks handles the list_tasks tool
func (h *Handlers) ListTasks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tasks, err := h.declutter.List(ctx, request.GetString("status", ""), request.GetInt("limit", core.DefaultTaskLimit))
	if errors.Is(err, core.ErrInvalidStatus) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err != nil {
		return h.failure("list_tasks", err)
	}
	return jsonResult(map[string]interface{}{"tasks": tasks, "count": len(tasks)})
}

// UpdateTask handles the update_task tool
func (h *Handlers) UpdateTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id argument is required and must be a string"), nil
	}
	status, err := request.RequireString("status")
	if err != nil {
		return mcp.NewToolResultError("status argument is required and must be a string"), nil
	}

	task, err := h.declutter.UpdateStatus(ctx, id, status, request.GetString("action_taken", ""))
	if errors.Is(err, core.ErrInvalidStatus) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err != nil {
		return h.failure("update_task", err)
	}
	return jsonResult(task)
}

// ReactTask handles the react_task tool
func (h *Handlers) ReactTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id argument is required and must be a string"), nil
	}
	emoji, err := request.RequireString("emoji")
	if err != nil {
		return mcp.NewToolResultError("emoji argument is required and must be a string"), nil
	}

	task, err := h.declutter.ApplyReaction(ctx, id, emoji, request.GetBool("added", true))
	if err != nil {
		return h.failure("react_task", err)
	}
	if task == nil {
		return jsonResult(map[string]interface{}{"id": id, "updated": false})
	}
	return jsonResult(map[string]interface{}{"updated": true, "task": task})
}

// TaskStats handles the task_stats tool
func (h *Handlers) TaskStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.declutter.Stats(ctx)
	if err != nil {
		return h.failure("task_stats", err)
	}
	return jsonResult(stats)
}

// TaskSummary handles the task_summary tool
func (h *Handlers) TaskSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sum, err := h.declutter.Summary(ctx, request.GetString("period", ""))
	if errors.Is(err, core.ErrInvalidPeriod) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err != nil {
		return h.failure("task_summary", err)
	}
	return jsonResult(sum)
}
