// ABOUTME: DeclutterTask is one piece of advice produced from a photo analysis
// ABOUTME: Tasks move freely between pending, done, and dismissed
package models

import (
	"fmt"
	"strings"
	"time"
)

// Decision is the advice given for a single object
type Decision string

const (
	DecisionKeep     Decision = "keep"
	DecisionConsider Decision = "consider"
	DecisionDiscard  Decision = "discard"
)

// Valid reports whether d is one of the known decisions
func (d Decision) Valid() bool {
	switch d {
	case DecisionKeep, DecisionConsider, DecisionDiscard:
		return true
	}
	return false
}

// TaskStatus is the lifecycle state of a declutter task
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskDone      TaskStatus = "done"
	TaskDismissed TaskStatus = "dismissed"
)

// Valid reports whether s is one of the known statuses
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskDone, TaskDismissed:
		return true
	}
	return false
}

// ParseTaskStatus normalizes user input into a TaskStatus
func ParseTaskStatus(s string) (TaskStatus, error) {
	status := TaskStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("invalid status %q (want pending, done, or dismissed)", s)
	}
	return status, nil
}

// DeclutterTask is a single keep/consider/discard recommendation
type DeclutterTask struct {
	ID              string     `json:"id"`
	ItemName        string     `json:"item_name"`
	ImageURL        string     `json:"image_url,omitempty"`
	Analysis        string     `json:"analysis,omitempty"`
	Decision        Decision   `json:"decision"`
	Status          TaskStatus `json:"status"`
	ActionTaken     string     `json:"action_taken,omitempty"`
	SourceChannel   string     `json:"source_channel,omitempty"`
	SourceMessageID string     `json:"source_message_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Validate checks the task before it is persisted
func (t *DeclutterTask) Validate() error {
	if strings.TrimSpace(t.ItemName) == "" {
		return fmt.Errorf("%w: item name cannot be empty", ErrInvalid)
	}
	if len([]rune(t.ItemName)) > 200 {
		return fmt.Errorf("%w: item name exceeds 200 characters", ErrInvalid)
	}
	if !t.Decision.Valid() {
		return fmt.Errorf("%w: decision %q", ErrInvalid, t.Decision)
	}
	if t.Status != "" && !t.Status.Valid() {
		return fmt.Errorf("%w: status %q", ErrInvalid, t.Status)
	}
	return nil
}

// ShortID returns the user-facing id prefix
func (t *DeclutterTask) ShortID() string {
	return ShortID(t.ID)
}
