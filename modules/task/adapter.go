package task

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/taskboard/domain/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// Port is the interface other modules use to reach task functionality.
type Port interface {
	Create(ctx context.Context, req CreateRequest) (TaskView, error)
	Get(ctx context.Context, userID, id string) (TaskView, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	Update(ctx context.Context, req UpdateRequest) (TaskView, error)
	Toggle(ctx context.Context, userID, id string) (TaskView, error)
	Delete(ctx context.Context, userID, id string) (DeleteResponse, error)
	Trash(ctx context.Context, userID string) (ListResponse, error)
	Restore(ctx context.Context, userID, id string) (TaskView, error)
	Purge(ctx context.Context, userID, id string) (DeleteResponse, error)
	Stats(ctx context.Context, userID string) (domain.Stats, error)
}

// Adapter implements Port over the task module's service container.
type Adapter struct {
	container mono.ServiceContainer
}

// NewAdapter creates an Adapter bound to the task service container.
func NewAdapter(container mono.ServiceContainer) *Adapter {
	return &Adapter{container: container}
}

var _ Port = (*Adapter)(nil)

// call performs a typed request-reply round trip to a task service. The
// response type parameter keeps the reply pointer concrete for the helper.
func call[T any](a *Adapter, ctx context.Context, service string, req any, resp *T) error {
	if err := helper.CallRequestReplyService(
		ctx, a.container, service,
		json.Marshal, json.Unmarshal, req, resp,
	); err != nil {
		return fmt.Errorf("%s request failed: %w", service, err)
	}
	return nil
}

// Create creates a task.
func (a *Adapter) Create(ctx context.Context, req CreateRequest) (TaskView, error) {
	var resp TaskView
	err := call(a, ctx, "create", &req, &resp)
	return resp, err
}

// Get retrieves a task within the user's scope.
func (a *Adapter) Get(ctx context.Context, userID, id string) (TaskView, error) {
	var resp TaskView
	err := call(a, ctx, "get", &GetRequest{UserID: userID, ID: id}, &resp)
	return resp, err
}

// List retrieves tasks matching the request's filter.
func (a *Adapter) List(ctx context.Context, req ListRequest) (ListResponse, error) {
	var resp ListResponse
	err := call(a, ctx, "list", &req, &resp)
	return resp, err
}

// Update applies a partial update to a task.
func (a *Adapter) Update(ctx context.Context, req UpdateRequest) (TaskView, error) {
	var resp TaskView
	err := call(a, ctx, "update", &req, &resp)
	return resp, err
}

// Toggle flips a task's completion.
func (a *Adapter) Toggle(ctx context.Context, userID, id string) (TaskView, error) {
	var resp TaskView
	err := call(a, ctx, "toggle", &GetRequest{UserID: userID, ID: id}, &resp)
	return resp, err
}

// Delete soft-deletes a task.
func (a *Adapter) Delete(ctx context.Context, userID, id string) (DeleteResponse, error) {
	var resp DeleteResponse
	err := call(a, ctx, "delete", &DeleteRequest{UserID: userID, ID: id}, &resp)
	return resp, err
}

// Trash lists the user's soft-deleted tasks.
func (a *Adapter) Trash(ctx context.Context, userID string) (ListResponse, error) {
	var resp ListResponse
	err := call(a, ctx, "trash", &UserRequest{UserID: userID}, &resp)
	return resp, err
}

// Restore returns a soft-deleted task to the default listing.
func (a *Adapter) Restore(ctx context.Context, userID, id string) (TaskView, error) {
	var resp TaskView
	err := call(a, ctx, "restore", &DeleteRequest{UserID: userID, ID: id}, &resp)
	return resp, err
}

// Purge permanently removes a soft-deleted task.
func (a *Adapter) Purge(ctx context.Context, userID, id string) (DeleteResponse, error) {
	var resp DeleteResponse
	err := call(a, ctx, "purge", &DeleteRequest{UserID: userID, ID: id}, &resp)
	return resp, err
}

// Stats retrieves the user's task counts.
func (a *Adapter) Stats(ctx context.Context, userID string) (domain.Stats, error) {
	var resp domain.Stats
	err := call(a, ctx, "stats", &UserRequest{UserID: userID}, &resp)
	return resp, err
}
