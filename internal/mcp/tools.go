// ABOUTME: MCP tool definitions and registration for the stash server
// ABOUTME: Exposes item capture, search, export, and declutter tasks as 17 tools
package mcp

import (
	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/stash/internal/core"
)

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description}
}

func numberProp(description string, def int) map[string]interface{} {
	return map[string]interface{}{"type": "number", "description": description, "default": def}
}

func enumProp(description string, values ...string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description, "enum": values}
}

func noArgs() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{Type: "object", Properties: map[string]interface{}{}}
}

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, items *core.ItemService, search *core.SearchService, declutter *core.DeclutterService, logger *log.Logger) *Handlers {
	h := NewHandlers(items, search, declutter, logger)
	for _, tool := range h.Tools() {
		server.AddTool(tool.Tool, tool.Handler)
	}
	return h
}

// Tools returns every tool paired with its handler
func (h *Handlers) Tools() []mcpserver.ServerTool {
	return []mcpserver.ServerTool{
		// Items
		{Tool: mcp.Tool{
			Name:        "save_item",
			Description: "Save a piece of text to the stash. It is embedded for semantic search and auto-categorized when an AI provider is configured.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"content":           stringProp("Text to save"),
					"content_type":      stringProp("Content type (default: text)"),
					"source_channel":    stringProp("Optional channel the item came from"),
					"source_message_id": stringProp("Optional message id the item came from"),
				},
				Required: []string{"content"},
			},
		}, Handler: h.SaveItem},
		{Tool: mcp.Tool{
			Name:        "save_url",
			Description: "Save a link. The page title and description are fetched when reachable.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"url":               stringProp("URL to save"),
					"source_channel":    stringProp("Optional channel the link came from"),
					"source_message_id": stringProp("Optional message id the link came from"),
				},
				Required: []string{"url"},
			},
		}, Handler: h.SaveURL},
		{Tool: mcp.Tool{
			Name:        "tag_item",
			Description: "Add tags to an item. Tags are created on first use; existing tags on the item are kept.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"id": stringProp("Item id or unique id prefix"),
					"tags": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Tag names to add",
					},
				},
				Required: []string{"id", "tags"},
			},
		}, Handler: h.TagItem},
		{Tool: mcp.Tool{
			Name:        "list_items",
			Description: "List the most recent items, optionally only those in one category.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"category": stringProp("Category name to filter by"),
					"limit":    numberProp("Maximum number of items (default: 10)", core.DefaultListLimit),
				},
			},
		}, Handler: h.ListItems},
		{Tool: mcp.Tool{
			Name:        "delete_item",
			Description: "Delete an item and its category and tag links.",
			InputSchema: mcp.ToolInputSchema{
				Type:       "object",
				Properties: map[string]interface{}{"id": stringProp("Item id or unique id prefix")},
				Required:   []string{"id"},
			},
		}, Handler: h.DeleteItem},

		// Search
		{Tool: mcp.Tool{
			Name:        "semantic_search",
			Description: "Find items by meaning. Returns nothing when embeddings are unavailable.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"query": stringProp("Natural language query"),
					"limit": numberProp("Maximum number of results (default: 5)", core.DefaultSemanticLimit),
				},
				Required: []string{"query"},
			},
		}, Handler: h.SemanticSearch},
		{Tool: mcp.Tool{
			Name:        "keyword_search",
			Description: "Find items whose content contains a keyword, ignoring case.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"keyword": stringProp("Substring to look for"),
					"limit":   numberProp("Maximum number of results (default: 10)", core.DefaultKeywordLimit),
				},
				Required: []string{"keyword"},
			},
		}, Handler: h.KeywordSearch},
		{Tool: mcp.Tool{Name: "list_categories", Description: "List all categories alphabetically.", InputSchema: noArgs()}, Handler: h.ListCategories},
		{Tool: mcp.Tool{Name: "list_tags", Description: "List all tags alphabetically.", InputSchema: noArgs()}, Handler: h.ListTags},
		{Tool: mcp.Tool{Name: "item_stats", Description: "Totals for items, categories, and tags plus items added in the last seven days.", InputSchema: noArgs()}, Handler: h.ItemStats},
		{Tool: mcp.Tool{
			Name:        "export_items",
			Description: "Export every item, oldest first.",
			InputSchema: mcp.ToolInputSchema{
				Type:       "object",
				Properties: map[string]interface{}{"format": enumProp("Export format (default: json)", "json", "csv", "yaml")},
			},
		}, Handler: h.ExportItems},

		// Declutter
		{Tool: mcp.Tool{
			Name:        "analyze_image",
			Description: "Analyze a photo and create one keep/consider/discard task per object found.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"image_url":         stringProp("Publicly reachable image URL"),
					"source_channel":    stringProp("Optional channel the photo came from"),
					"source_message_id": stringProp("Optional message id the photo came from"),
				},
				Required: []string{"image_url"},
			},
		}, Handler: h.AnalyzeImage},
		{Tool: mcp.Tool{
			Name:        "list_tasks",
			Description: "List declutter tasks, newest first.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"status": enumProp("Only tasks with this status", "pending", "done", "dismissed"),
					"limit":  numberProp("Maximum number of tasks (default: 20)", core.DefaultTaskLimit),
				},
			},
		}, Handler: h.ListTasks},
		{Tool: mcp.Tool{
			Name:        "update_task",
			Description: "Set a task's status. Any status can move to any other.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"id":           stringProp("Task id or unique id prefix"),
					"status":       enumProp("New status", "pending", "done", "dismissed"),
					"action_taken": stringProp("Optional note about what was done"),
				},
				Required: []string{"id", "status"},
			},
		}, Handler: h.UpdateTask},
		{Tool: mcp.Tool{
			Name:        "react_task",
			Description: "Apply a chat reaction to a task: ✅ marks it done, ❌ dismisses it, removing either reopens it.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"id":    stringProp("Task id or unique id prefix"),
					"emoji": stringProp("Reaction emoji"),
					"added": map[string]interface{}{
						"type":        "boolean",
						"description": "true when the reaction was added, false when removed (default: true)",
						"default":     true,
					},
				},
				Required: []string{"id", "emoji"},
			},
		}, Handler: h.ReactTask},
		{Tool: mcp.Tool{Name: "task_stats", Description: "Task totals by status, completion rate, and last-seven-day activity.", InputSchema: noArgs()}, Handler: h.TaskStats},
		{Tool: mcp.Tool{
			Name:        "task_summary",
			Description: "Tasks completed in a period with a count per decision.",
			InputSchema: mcp.ToolInputSchema{
				Type:       "object",
				Properties: map[string]interface{}{"period": enumProp("Summary window (default: weekly)", "weekly", "monthly", "all")},
			},
		}, Handler: h.TaskSummary},
	}
}
