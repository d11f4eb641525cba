// ABOUTME: Aggregate views over items and declutter tasks
// ABOUTME: Produced by pure read queries
package models

// ItemStats summarizes the item store
type ItemStats struct {
	TotalItems      int            `json:"total_items"`
	TotalCategories int            `json:"total_categories"`
	TotalTags       int            `json:"total_tags"`
	ItemsByType     map[string]int `json:"items_by_type"`
	RecentItems     int            `json:"recent_items"`
}

// TaskCounts holds per-status task totals
type TaskCounts struct {
	Pending   int `json:"pending"`
	Done      int `json:"done"`
	Dismissed int `json:"dismissed"`
	Total     int `json:"total"`
}

// TaskStats is the declutter progress overview
type TaskStats struct {
	TaskCounts
	CompletionRate  float64 `json:"completion_rate"`
	RecentCreated   int     `json:"recent_created"`
	RecentCompleted int     `json:"recent_completed"`
}
