package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a task does not exist within the caller's
// scope. Ownership mismatches surface as ErrNotFound on purpose so callers
// cannot distinguish another user's task from a missing one.
var ErrNotFound = errors.New("task not found")

// sortColumns whitelists the columns a listing may be ordered by.
var sortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"due_date":   "due_date",
	"title":      "title",
	"status":     "status",
	"priority":   "priority",
}

// Filter narrows and orders a task listing. Zero-valued fields are ignored.
type Filter struct {
	Search    string
	Status    Status
	Priority  Priority
	Completed *bool
	DueBefore *time.Time
	DueAfter  *time.Time
	SortBy    string
	Order     string
	Offset    int
	Limit     int
}

// Stats summarizes a user's tasks by progress state.
type Stats struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"in_progress"`
	Completed  int64 `json:"completed"`
	Overdue    int64 `json:"overdue"`
	Trashed    int64 `json:"trashed"`
}

// Repository provides database operations for tasks. Every query is scoped
// to an owning user.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new task repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate runs database migrations for the tasks table.
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(&Task{})
}

// Create saves a new task.
func (r *Repository) Create(ctx context.Context, t *Task) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// GetByID retrieves a live (not soft-deleted) task owned by userID.
func (r *Repository) GetByID(ctx context.Context, userID, id string) (*Task, error) {
	var t Task
	err := r.db.WithContext(ctx).First(&t, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &t, nil
}

// List retrieves the user's live tasks matching the filter, along with the
// total match count before pagination.
func (r *Repository) List(ctx context.Context, userID string, f Filter) ([]Task, int64, error) {
	scoped := func() *gorm.DB {
		return r.applyFilter(r.db.WithContext(ctx).Model(&Task{}).Where("user_id = ?", userID), f)
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	query := scoped().Order(orderClause(f))
	if f.Limit > 0 {
		query = query.Offset(f.Offset).Limit(f.Limit)
	}

	var tasks []Task
	if err := query.Find(&tasks).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

// applyFilter adds the filter's WHERE conditions to query.
func (r *Repository) applyFilter(query *gorm.DB, f Filter) *gorm.DB {
	if f.Search != "" {
		pattern := "%" + strings.ToLower(f.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.Priority != "" {
		query = query.Where("priority = ?", f.Priority)
	}
	if f.Completed != nil {
		query = query.Where("completed = ?", *f.Completed)
	}
	if f.DueBefore != nil {
		query = query.Where("due_date IS NOT NULL AND due_date <= ?", *f.DueBefore)
	}
	if f.DueAfter != nil {
		query = query.Where("due_date IS NOT NULL AND due_date >= ?", *f.DueAfter)
	}
	return query
}

// orderClause builds the ORDER BY clause from the whitelisted sort columns.
// Unknown columns fall back to created_at descending.
func orderClause(f Filter) string {
	column, ok := sortColumns[f.SortBy]
	if !ok {
		return "created_at DESC"
	}
	direction := "ASC"
	if strings.EqualFold(f.Order, "desc") {
		direction = "DESC"
	}
	return column + " " + direction
}

// Update persists all fields of an existing live task owned by the user.
func (r *Repository) Update(ctx context.Context, t *Task) error {
	result := r.db.WithContext(ctx).
		Model(&Task{}).
		Where("id = ? AND user_id = ?", t.ID, t.UserID).
		Select("Title", "Description", "Priority", "Status", "DueDate", "Completed").
		Updates(t)
	if result.Error != nil {
		return fmt.Errorf("failed to update task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete flags the task as deleted, recording who deleted it. The row
// stays in the table and becomes visible only through trash queries.
func (r *Repository) SoftDelete(ctx context.Context, userID, id, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Task{}).
			Where("id = ? AND user_id = ?", id, userID).
			Update("deleted_by_id", deletedBy)
		if result.Error != nil {
			return fmt.Errorf("failed to mark task deleted: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Delete(&Task{}, "id = ? AND user_id = ?", id, userID).Error; err != nil {
			return fmt.Errorf("failed to soft-delete task: %w", err)
		}
		return nil
	})
}

// ListTrash retrieves the user's soft-deleted tasks, most recently deleted
// first.
func (r *Repository) ListTrash(ctx context.Context, userID string) ([]Task, error) {
	var tasks []Task
	err := r.db.WithContext(ctx).Unscoped().
		Where("user_id = ? AND deleted_at IS NOT NULL", userID).
		Order("deleted_at DESC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list trash: %w", err)
	}
	return tasks, nil
}

// Restore clears the soft-delete bookkeeping, returning the task to the
// default listing.
func (r *Repository) Restore(ctx context.Context, userID, id string) error {
	result := r.db.WithContext(ctx).Unscoped().
		Model(&Task{}).
		Where("id = ? AND user_id = ? AND deleted_at IS NOT NULL", id, userID).
		Updates(map[string]any{"deleted_at": nil, "deleted_by_id": nil})
	if result.Error != nil {
		return fmt.Errorf("failed to restore task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Purge permanently removes a soft-deleted task. This is the only path that
// erases a row.
func (r *Repository) Purge(ctx context.Context, userID, id string) error {
	result := r.db.WithContext(ctx).Unscoped().
		Where("id = ? AND user_id = ? AND deleted_at IS NOT NULL", id, userID).
		Delete(&Task{})
	if result.Error != nil {
		return fmt.Errorf("failed to purge task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountStats computes the user's task counts by status.
func (r *Repository) CountStats(ctx context.Context, userID string, now time.Time) (*Stats, error) {
	stats := &Stats{}
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&Task{}).Where("user_id = ?", userID)
	}

	counts := []struct {
		dest  *int64
		scope func(*gorm.DB) *gorm.DB
	}{
		{&stats.Total, func(q *gorm.DB) *gorm.DB { return q }},
		{&stats.Pending, func(q *gorm.DB) *gorm.DB { return q.Where("status = ?", StatusPending) }},
		{&stats.InProgress, func(q *gorm.DB) *gorm.DB { return q.Where("status = ?", StatusInProgress) }},
		{&stats.Completed, func(q *gorm.DB) *gorm.DB { return q.Where("status = ?", StatusCompleted) }},
		{&stats.Overdue, func(q *gorm.DB) *gorm.DB {
			return q.Where("due_date IS NOT NULL AND due_date < ? AND completed = ?", now, false)
		}},
	}
	for _, c := range counts {
		if err := c.scope(base()).Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to count tasks: %w", err)
		}
	}

	err := r.db.WithContext(ctx).Unscoped().Model(&Task{}).
		Where("user_id = ? AND deleted_at IS NOT NULL", userID).
		Count(&stats.Trashed).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count trashed tasks: %w", err)
	}

	return stats, nil
}
