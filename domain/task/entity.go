// Package task defines the task entity and its persistence layer.
package task

import (
	"time"

	"gorm.io/gorm"
)

// Priority is the urgency level of a task.
type Priority string

// Priority levels, ordered low to high.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is a known priority level.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Status is the progress state of a task.
type Status string

// Task progress states.
const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Task is a to-do item owned by exactly one user.
//
// Completed is denormalized from Status for query convenience; every code
// path that mutates Status must keep Completed == (Status == completed).
// DeletedAt doubles as the soft-delete flag and timestamp: GORM's default
// scope hides soft-deleted rows from all normal queries, so trash listings
// and restores go through Unscoped queries.
type Task struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `gorm:"size:2000" json:"description"`
	Priority    Priority   `gorm:"size:10;not null;default:medium;index" json:"priority"`
	Status      Status     `gorm:"size:20;not null;default:pending;index" json:"status"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Completed   bool       `gorm:"not null;default:false" json:"completed"`
	UserID      string     `gorm:"size:36;not null;index" json:"user_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	DeletedByID *string        `gorm:"size:36" json:"deleted_by_id,omitempty"`
}

// TableName returns the table name for the Task entity.
func (Task) TableName() string {
	return "tasks"
}

// Overdue reports whether the task has a due date in the past and is not
// yet completed.
func (t *Task) Overdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && !t.Completed
}
