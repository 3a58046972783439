package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	domain "github.com/example/taskboard/domain/task"
	"github.com/example/taskboard/modules/cache"
	"github.com/google/uuid"
)

// ValidationError carries field-level validation messages.
type ValidationError struct {
	Fields map[string]string
}

// Error returns a flat summary of the failed fields.
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Service implements the task operations over the repository, with an
// optional cache-aside layer for detail and stats reads.
//
// Every operation is scoped to the acting user; a lookup outside that scope
// returns domain.ErrNotFound, indistinguishable from a missing task.
type Service struct {
	repo  *domain.Repository
	cache *cache.Cache
	now   func() time.Time
}

// NewService creates a task Service. cache may be nil, in which case all
// reads go straight to the repository.
func NewService(repo *domain.Repository, c *cache.Cache) *Service {
	return &Service{
		repo:  repo,
		cache: c,
		now:   time.Now,
	}
}

// Create validates and stores a new task owned by userID.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*domain.Task, error) {
	fields := map[string]string{}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		fields["title"] = "title is required"
	} else if len(title) > 200 {
		fields["title"] = "title must be at most 200 characters"
	}
	if len(req.Description) > 2000 {
		fields["description"] = "description must be at most 2000 characters"
	}

	priority := req.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	} else if !priority.Valid() {
		fields["priority"] = "priority must be one of: low, medium, high"
	}

	status := req.Status
	if status == "" {
		status = domain.StatusPending
	} else if !status.Valid() {
		fields["status"] = "status must be one of: pending, in_progress, completed"
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	t := &domain.Task{
		ID:          uuid.New().String(),
		Title:       title,
		Description: req.Description,
		Priority:    priority,
		Status:      status,
		DueDate:     req.DueDate,
		UserID:      req.UserID,
	}

	// Status wins when the request sets both; otherwise a bare
	// completed=true promotes the status.
	if req.Status == "" && req.Completed != nil && *req.Completed {
		t.Status = domain.StatusCompleted
	}
	t.Completed = t.Status == domain.StatusCompleted

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	s.invalidate(ctx, req.UserID)
	return t, nil
}

// Get retrieves a live task owned by userID, through the cache when
// available.
func (s *Service) Get(ctx context.Context, userID, id string) (*domain.Task, error) {
	if s.cache == nil {
		return s.repo.GetByID(ctx, userID, id)
	}

	data, err := s.cache.GetOrLoad(ctx, detailKey(userID, id), func(ctx context.Context) (any, error) {
		return s.repo.GetByID(ctx, userID, id)
	})
	if err != nil {
		return nil, err
	}

	var t domain.Task
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to decode cached task: %w", err)
	}
	return &t, nil
}

// List retrieves the user's live tasks matching the filter. Listings bypass
// the cache: the filter keyspace is unbounded.
func (s *Service) List(ctx context.Context, userID string, f domain.Filter) ([]domain.Task, int64, error) {
	fields := map[string]string{}
	if f.Status != "" && !f.Status.Valid() {
		fields["status"] = "status must be one of: pending, in_progress, completed"
	}
	if f.Priority != "" && !f.Priority.Valid() {
		fields["priority"] = "priority must be one of: low, medium, high"
	}
	if len(fields) > 0 {
		return nil, 0, &ValidationError{Fields: fields}
	}
	return s.repo.List(ctx, userID, f)
}

// Update applies a partial update to a live task owned by userID.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (*domain.Task, error) {
	t, err := s.repo.GetByID(ctx, req.UserID, req.ID)
	if err != nil {
		return nil, err
	}

	fields := map[string]string{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		switch {
		case title == "":
			fields["title"] = "title cannot be empty"
		case len(title) > 200:
			fields["title"] = "title must be at most 200 characters"
		default:
			t.Title = title
		}
	}
	if req.Description != nil {
		if len(*req.Description) > 2000 {
			fields["description"] = "description must be at most 2000 characters"
		} else {
			t.Description = *req.Description
		}
	}
	if req.Priority != nil {
		if !req.Priority.Valid() {
			fields["priority"] = "priority must be one of: low, medium, high"
		} else {
			t.Priority = *req.Priority
		}
	}
	if req.Status != nil && !req.Status.Valid() {
		fields["status"] = "status must be one of: pending, in_progress, completed"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	if req.DueDate != nil {
		t.DueDate = req.DueDate
	} else if req.ClearDue {
		t.DueDate = nil
	}

	// Keep the completed flag and status consistent; status wins when the
	// request sets both.
	switch {
	case req.Status != nil:
		t.Status = *req.Status
		t.Completed = t.Status == domain.StatusCompleted
	case req.Completed != nil:
		t.Completed = *req.Completed
		if t.Completed {
			t.Status = domain.StatusCompleted
		} else if t.Status == domain.StatusCompleted {
			t.Status = domain.StatusPending
		}
	}

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}

	s.invalidate(ctx, req.UserID)
	return t, nil
}

// Toggle flips the completed flag, moving the status between completed and
// pending accordingly.
func (s *Service) Toggle(ctx context.Context, userID, id string) (*domain.Task, error) {
	t, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	t.Completed = !t.Completed
	if t.Completed {
		t.Status = domain.StatusCompleted
	} else {
		t.Status = domain.StatusPending
	}

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}

	s.invalidate(ctx, userID)
	return t, nil
}

// Delete soft-deletes a live task owned by userID.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.SoftDelete(ctx, userID, id, userID); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

// Trash lists the user's soft-deleted tasks.
func (s *Service) Trash(ctx context.Context, userID string) ([]domain.Task, error) {
	return s.repo.ListTrash(ctx, userID)
}

// Restore returns a soft-deleted task to the default listing.
func (s *Service) Restore(ctx context.Context, userID, id string) (*domain.Task, error) {
	if err := s.repo.Restore(ctx, userID, id); err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)
	return s.repo.GetByID(ctx, userID, id)
}

// Purge permanently removes a soft-deleted task.
func (s *Service) Purge(ctx context.Context, userID, id string) error {
	if err := s.repo.Purge(ctx, userID, id); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

// Stats computes the user's task counts, through the cache when available.
func (s *Service) Stats(ctx context.Context, userID string) (*domain.Stats, error) {
	if s.cache == nil {
		return s.repo.CountStats(ctx, userID, s.now())
	}

	data, err := s.cache.GetOrLoad(ctx, statsKey(userID), func(ctx context.Context) (any, error) {
		return s.repo.CountStats(ctx, userID, s.now())
	})
	if err != nil {
		return nil, err
	}

	var stats domain.Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("failed to decode cached stats: %w", err)
	}
	return &stats, nil
}

// invalidate drops all cached entries for the user after a mutation. Cache
// failures are logged, not propagated: the database is the source of truth.
func (s *Service) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePattern(ctx, userKeyPrefix(userID)+"*"); err != nil {
		log.Printf("[task] cache invalidation failed for user %s: %v", userID, err)
	}
}

func userKeyPrefix(userID string) string {
	return "u:" + userID + ":"
}

func detailKey(userID, taskID string) string {
	return userKeyPrefix(userID) + "detail:" + taskID
}

func statsKey(userID string) string {
	return userKeyPrefix(userID) + "stats"
}
