package task

import (
	"time"

	domain "github.com/example/taskboard/domain/task"
)

// TaskView is the task representation returned by every task service.
type TaskView struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Priority    domain.Priority `json:"priority"`
	Status      domain.Status   `json:"status"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
	Completed   bool            `json:"completed"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   *time.Time      `json:"deleted_at,omitempty"`
	DeletedByID *string         `json:"deleted_by_id,omitempty"`
}

// toView converts a task entity to its service representation.
func toView(t *domain.Task) TaskView {
	v := TaskView{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Status:      t.Status,
		DueDate:     t.DueDate,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		DeletedByID: t.DeletedByID,
	}
	if t.DeletedAt.Valid {
		deletedAt := t.DeletedAt.Time
		v.DeletedAt = &deletedAt
	}
	return v
}

// CreateRequest is the payload for the create service.
type CreateRequest struct {
	UserID      string          `json:"user_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Priority    domain.Priority `json:"priority,omitempty"`
	Status      domain.Status   `json:"status,omitempty"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
	Completed   *bool           `json:"completed,omitempty"`
}

// GetRequest is the payload for the get service.
type GetRequest struct {
	UserID string `json:"user_id"`
	ID     string `json:"id"`
}

// ListRequest is the payload for the list service.
type ListRequest struct {
	UserID    string     `json:"user_id"`
	Search    string     `json:"search,omitempty"`
	Status    string     `json:"status,omitempty"`
	Priority  string     `json:"priority,omitempty"`
	Completed *bool      `json:"completed,omitempty"`
	DueBefore *time.Time `json:"due_before,omitempty"`
	DueAfter  *time.Time `json:"due_after,omitempty"`
	SortBy    string     `json:"sort_by,omitempty"`
	Order     string     `json:"order,omitempty"`
	Offset    int        `json:"offset,omitempty"`
	Limit     int        `json:"limit,omitempty"`
}

// ListResponse is the reply for the list and trash services.
type ListResponse struct {
	Tasks []TaskView `json:"tasks"`
	Total int64      `json:"total"`
}

// UpdateRequest is the payload for the update service. Nil fields are left
// unchanged.
type UpdateRequest struct {
	UserID      string           `json:"user_id"`
	ID          string           `json:"id"`
	Title       *string          `json:"title,omitempty"`
	Description *string          `json:"description,omitempty"`
	Priority    *domain.Priority `json:"priority,omitempty"`
	Status      *domain.Status   `json:"status,omitempty"`
	DueDate     *time.Time       `json:"due_date,omitempty"`
	ClearDue    bool             `json:"clear_due,omitempty"`
	Completed   *bool            `json:"completed,omitempty"`
}

// DeleteRequest is the payload for the delete, restore, and purge services.
type DeleteRequest struct {
	UserID string `json:"user_id"`
	ID     string `json:"id"`
}

// DeleteResponse is the reply for the delete and purge services.
type DeleteResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// UserRequest is the payload for services scoped only by user: trash and
// stats.
type UserRequest struct {
	UserID string `json:"user_id"`
}
