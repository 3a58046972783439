// Package task exposes task management as mono request-reply services.
package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	domain "github.com/example/taskboard/domain/task"
	"github.com/example/taskboard/modules/cache"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Module owns the tasks database and provides the task services.
type Module struct {
	db      *gorm.DB
	repo    *domain.Repository
	service *Service
	cache   *cache.Cache
	dbPath  string
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.ServiceProviderModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a task Module storing tasks at dbPath.
func NewModule(dbPath string) *Module {
	return &Module{dbPath: dbPath}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "task"
}

// SetCache wires the optional cache layer, rebuilding the service when
// called after Start. A nil cache leaves the service uncached.
func (m *Module) SetCache(c *cache.Cache) {
	m.cache = c
	if m.service != nil {
		m.service = NewService(m.repo, c)
	}
}

// Start opens the tasks database, runs migrations, and builds the service.
func (m *Module) Start(_ context.Context) error {
	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db
	m.repo = domain.NewRepository(db)

	if err := m.repo.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	m.service = NewService(m.repo, m.cache)

	cached := "disabled"
	if m.cache != nil {
		cached = "enabled"
	}
	log.Printf("[task] Module started (database: %s, cache: %s)", m.dbPath, cached)
	return nil
}

// Stop closes the database connection.
func (m *Module) Stop(_ context.Context) error {
	if m.db != nil {
		if sqlDB, err := m.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	log.Println("[task] Module stopped")
	return nil
}

// Health reports the module health based on a database ping.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{Healthy: false, Message: "database not initialized"}
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("failed to get sql.DB: %v", err)}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("database ping failed: %v", err)}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"database": m.dbPath,
			"cached":   m.cache != nil,
		},
	}
}

// RegisterServices registers the task request-reply services.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	services := map[string]func() error{
		"create": func() error {
			return helper.RegisterTypedRequestReplyService(
				container, "create", json.Unmarshal, json.Marshal, m.handleCreate)
		},
		"get": func() error {
			return helper.RegisterTypedRequestReplyService(
				container, "get", json.Unmarshal, json.Marshal, m.handleGet)
		},
		"list": func() error {
			return helper.RegisterTypedRequestReplyService(
				container, "list", json.Unmarshal, json.Marshal, m.handleList)
		},
		"update": func() error {
			return helper.RegisterTypedRequestReplyService(
				container, "update", json.Unmarshal, json.Marshal, m.handleUpdate)
		},
		"toggle": func() error {
			return helper.RegisterTypedRequestReplyService(
				container, "toggle", json.Unmarshal, json.Marshal, m.handleToggle)
		},
		"delete": func() error {
			return helper.RegisterTypedRequestReplyService(
				container, "delete", json.Unmarshal, json.Marshal, m.handleDelete)
		},
		"trash": func() error {
			return helper.RegisterTypedRequestReplyService(
				container, "trash", json.Unmarshal, json.Marshal, m.handleTrash)
		},
		"restore": func() error {
			return helper.RegisterTypedRequestReplyService(
				container, "restore", json.Unmarshal, json.Marshal, m.handleRestore)
		},
		"purge": func() error {
			return helper.RegisterTypedRequestReplyService(
				container, "purge", json.Unmarshal, json.Marshal, m.handlePurge)
		},
		"stats": func() error {
			return helper.RegisterTypedRequestReplyService(
				container, "stats", json.Unmarshal, json.Marshal, m.handleStats)
		},
	}
	for name, register := range services {
		if err := register(); err != nil {
			return fmt.Errorf("failed to register %s service: %w", name, err)
		}
	}

	log.Printf("[task] Registered services: create, get, list, update, toggle, delete, trash, restore, purge, stats")
	return nil
}

func (m *Module) handleCreate(ctx context.Context, req CreateRequest, _ *mono.Msg) (TaskView, error) {
	t, err := m.service.Create(ctx, req)
	if err != nil {
		return TaskView{}, err
	}
	return toView(t), nil
}

func (m *Module) handleGet(ctx context.Context, req GetRequest, _ *mono.Msg) (TaskView, error) {
	t, err := m.service.Get(ctx, req.UserID, req.ID)
	if err != nil {
		return TaskView{}, err
	}
	return toView(t), nil
}

func (m *Module) handleList(ctx context.Context, req ListRequest, _ *mono.Msg) (ListResponse, error) {
	filter := domain.Filter{
		Search:    req.Search,
		Status:    domain.Status(req.Status),
		Priority:  domain.Priority(req.Priority),
		Completed: req.Completed,
		DueBefore: req.DueBefore,
		DueAfter:  req.DueAfter,
		SortBy:    req.SortBy,
		Order:     req.Order,
		Offset:    req.Offset,
		Limit:     req.Limit,
	}

	tasks, total, err := m.service.List(ctx, req.UserID, filter)
	if err != nil {
		return ListResponse{}, err
	}
	return toListResponse(tasks, total), nil
}

func (m *Module) handleUpdate(ctx context.Context, req UpdateRequest, _ *mono.Msg) (TaskView, error) {
	t, err := m.service.Update(ctx, req)
	if err != nil {
		return TaskView{}, err
	}
	return toView(t), nil
}

func (m *Module) handleToggle(ctx context.Context, req GetRequest, _ *mono.Msg) (TaskView, error) {
	t, err := m.service.Toggle(ctx, req.UserID, req.ID)
	if err != nil {
		return TaskView{}, err
	}
	return toView(t), nil
}

func (m *Module) handleDelete(ctx context.Context, req DeleteRequest, _ *mono.Msg) (DeleteResponse, error) {
	if err := m.service.Delete(ctx, req.UserID, req.ID); err != nil {
		return DeleteResponse{ID: req.ID}, err
	}
	return DeleteResponse{ID: req.ID, Deleted: true}, nil
}

func (m *Module) handleTrash(ctx context.Context, req UserRequest, _ *mono.Msg) (ListResponse, error) {
	tasks, err := m.service.Trash(ctx, req.UserID)
	if err != nil {
		return ListResponse{}, err
	}
	return toListResponse(tasks, int64(len(tasks))), nil
}

func (m *Module) handleRestore(ctx context.Context, req DeleteRequest, _ *mono.Msg) (TaskView, error) {
	t, err := m.service.Restore(ctx, req.UserID, req.ID)
	if err != nil {
		return TaskView{}, err
	}
	return toView(t), nil
}

func (m *Module) handlePurge(ctx context.Context, req DeleteRequest, _ *mono.Msg) (DeleteResponse, error) {
	if err := m.service.Purge(ctx, req.UserID, req.ID); err != nil {
		return DeleteResponse{ID: req.ID}, err
	}
	return DeleteResponse{ID: req.ID, Deleted: true}, nil
}

func (m *Module) handleStats(ctx context.Context, req UserRequest, _ *mono.Msg) (domain.Stats, error) {
	stats, err := m.service.Stats(ctx, req.UserID)
	if err != nil {
		return domain.Stats{}, err
	}
	return *stats, nil
}

func toListResponse(tasks []domain.Task, total int64) ListResponse {
	resp := ListResponse{
		Tasks: make([]TaskView, 0, len(tasks)),
		Total: total,
	}
	for i := range tasks {
		resp.Tasks = append(resp.Tasks, toView(&tasks[i]))
	}
	return resp
}
