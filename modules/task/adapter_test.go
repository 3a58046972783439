package task

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	domain "github.com/example/taskboard/domain/task"
	"github.com/go-monolith/mono"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubReplyClient answers Call by running the provided handler over the raw
// request payload.
type stubReplyClient struct {
	handler func(ctx context.Context, data []byte) ([]byte, error)
}

func (s *stubReplyClient) Call(ctx context.Context, data []byte) (*mono.Msg, error) {
	out, err := s.handler(ctx, data)
	if err != nil {
		return nil, err
	}
	return &mono.Msg{Data: out}, nil
}

func (s *stubReplyClient) CallMsg(ctx context.Context, msg *mono.Msg) (*mono.Msg, error) {
	return s.Call(ctx, msg.Data)
}

// stubContainer implements mono.ServiceContainer for adapter tests. Only
// GetRequestReplyService is backed.
type stubContainer struct {
	mono.ServiceContainer
	services map[string]*stubReplyClient
}

func (s *stubContainer) GetRequestReplyService(name string) (mono.RequestReplyServiceClient, error) {
	client, found := s.services[name]
	if !found {
		return nil, fmt.Errorf("service '%s' not registered", name)
	}
	return client, nil
}

func TestAdapterRoundTrip(t *testing.T) {
	due := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	container := &stubContainer{services: map[string]*stubReplyClient{
		"get": {handler: func(_ context.Context, data []byte) ([]byte, error) {
			var req GetRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return nil, err
			}
			return json.Marshal(TaskView{
				ID:       req.ID,
				Title:    "write release notes",
				Priority: domain.PriorityHigh,
				Status:   domain.StatusPending,
				DueDate:  &due,
			})
		}},
		"stats": {handler: func(_ context.Context, data []byte) ([]byte, error) {
			var req UserRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return nil, err
			}
			if req.UserID == "" {
				return nil, fmt.Errorf("missing user")
			}
			return json.Marshal(domain.Stats{Total: 4, Pending: 3, Completed: 1})
		}},
	}}

	adapter := NewAdapter(container)
	ctx := context.Background()

	view, err := adapter.Get(ctx, "user-1", "task-1")
	require.NoError(t, err)
	assert.Equal(t, "task-1", view.ID)
	assert.Equal(t, "write release notes", view.Title)
	assert.Equal(t, domain.PriorityHigh, view.Priority)
	require.NotNil(t, view.DueDate)
	assert.True(t, due.Equal(*view.DueDate))

	stats, err := adapter.Stats(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(3), stats.Pending)
	assert.Equal(t, int64(1), stats.Completed)
}

func TestAdapterServiceError(t *testing.T) {
	adapter := NewAdapter(&stubContainer{services: map[string]*stubReplyClient{}})

	_, err := adapter.Toggle(context.Background(), "user-1", "task-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "toggle request failed")
}
