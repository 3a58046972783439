package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/taskboard/modules/cache"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// fakeHealthModule implements mono.HealthCheckableModule with a fixed status.
type fakeHealthModule struct {
	name   string
	status mono.HealthStatus
}

var _ mono.HealthCheckableModule = (*fakeHealthModule)(nil)

func (f *fakeHealthModule) Name() string                  { return f.name }
func (f *fakeHealthModule) Start(_ context.Context) error { return nil }
func (f *fakeHealthModule) Stop(_ context.Context) error  { return nil }

func (f *fakeHealthModule) Health(_ context.Context) mono.HealthStatus {
	return f.status
}

func TestHealthAggregatesModules(t *testing.T) {
	healthy := &fakeHealthModule{
		name:   "auth",
		status: mono.HealthStatus{Healthy: true, Message: "operational"},
	}
	unhealthy := &fakeHealthModule{
		name:   "cache",
		status: mono.HealthStatus{Healthy: false, Message: "redis ping failed"},
	}

	tests := []struct {
		name           string
		modules        []mono.HealthCheckableModule
		expectedStatus int
		expectedBody   []string
	}{
		{
			name:           "all modules healthy",
			modules:        []mono.HealthCheckableModule{healthy},
			expectedStatus: http.StatusOK,
			expectedBody:   []string{`"status":"healthy"`, `"auth"`, `"operational"`},
		},
		{
			name:           "one module unhealthy",
			modules:        []mono.HealthCheckableModule{healthy, unhealthy},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   []string{`"status":"unhealthy"`, `"redis ping failed"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModule(0)
			m.SetHealthChecks(tt.modules...)

			app := fiber.New()
			app.Get("/health", m.handleHealth)

			resp, err := app.Test(httptest.NewRequest("GET", "/health", nil), -1)
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.expectedStatus {
				t.Errorf("status = %v, want %v", resp.StatusCode, tt.expectedStatus)
			}

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				t.Fatalf("failed to read body: %v", err)
			}
			for _, want := range tt.expectedBody {
				if !strings.Contains(string(body), want) {
					t.Errorf("body = %s, want it to contain %q", body, want)
				}
			}
		})
	}
}

// The cache module is only wired after the application starts, so the stats
// handler must look the cache up on every request rather than capture it when
// the routes are built.
func TestCacheStatsResolvedPerRequest(t *testing.T) {
	var cc *cache.Cache
	h := NewHandlers(nil, nil, nil, func() *cache.Cache { return cc })

	app := fiber.New()
	app.Get("/cache/stats", h.CacheStats)

	get := func() string {
		t.Helper()
		resp, err := app.Test(httptest.NewRequest("GET", "/cache/stats", nil), -1)
		if err != nil {
			t.Fatalf("app.Test() error = %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %v, want %v", resp.StatusCode, http.StatusOK)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("failed to read body: %v", err)
		}
		return string(body)
	}

	if body := get(); !strings.Contains(body, "Caching disabled") {
		t.Errorf("body before wiring = %s, want it to contain %q", body, "Caching disabled")
	}

	cc = cache.New(redis.NewClient(&redis.Options{Addr: "localhost:6379"}), "test:", time.Minute)

	if body := get(); !strings.Contains(body, "Cache stats retrieved") {
		t.Errorf("body after wiring = %s, want it to contain %q", body, "Cache stats retrieved")
	}
}
