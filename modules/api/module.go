// Package api exposes the HTTP surface of the taskboard monolith.
package api

import (
	"context"
	"fmt"
	"log"

	"github.com/example/taskboard/modules/auth"
	"github.com/example/taskboard/modules/cache"
	"github.com/example/taskboard/modules/task"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Module is the HTTP API module.
type Module struct {
	app           *fiber.App
	port          int
	authContainer mono.ServiceContainer
	authPort      auth.Port
	taskPort      task.Port
	cacheModule   *cache.Module
	healthChecks  []mono.HealthCheckableModule
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.DependentModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates an API module listening on port.
func NewModule(port int) *Module {
	return &Module{port: port}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "api"
}

// Dependencies returns the modules this module needs containers from.
func (m *Module) Dependencies() []string {
	return []string{"auth", "task"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.authContainer = container
		m.authPort = auth.NewAdapter(container)
	case "task":
		m.taskPort = task.NewAdapter(container)
	}
}

// SetCacheModule wires the optional cache module so the API can expose its
// statistics.
func (m *Module) SetCacheModule(cm *cache.Module) {
	m.cacheModule = cm
}

// SetHealthChecks wires the modules whose health the /health endpoint
// aggregates.
func (m *Module) SetHealthChecks(modules ...mono.HealthCheckableModule) {
	m.healthChecks = modules
}

// Start configures and launches the Fiber HTTP server.
func (m *Module) Start(_ context.Context) error {
	if m.authContainer == nil || m.taskPort == nil {
		return fmt.Errorf("auth and task dependencies must be set before start")
	}

	m.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	m.app.Use(recover.New())
	m.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	m.app.Use(cors.New())

	m.setupRoutes()

	go func() {
		if err := m.app.Listen(fmt.Sprintf(":%d", m.port)); err != nil {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()

	log.Printf("[api] HTTP server started on :%d", m.port)
	return nil
}

// Stop shuts down the HTTP server.
func (m *Module) Stop(_ context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	return m.app.Shutdown()
}

// Health reports whether the server is running.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{"port": m.port},
	}
}

// resolveCache returns the current cache instance. The cache module is wired
// after Start, so this is looked up per request rather than captured when the
// routes are built.
func (m *Module) resolveCache() *cache.Cache {
	if m.cacheModule == nil {
		return nil
	}
	return m.cacheModule.GetCache()
}

// setupRoutes wires all API routes.
func (m *Module) setupRoutes() {
	handlers := NewHandlers(m.authContainer, m.authPort, m.taskPort, m.resolveCache)

	m.app.Get("/health", m.handleHealth)

	v1 := m.app.Group("/api/v1")

	authRoutes := v1.Group("/auth")
	authRoutes.Post("/register", handlers.Register)
	authRoutes.Post("/login", handlers.Login)
	authRoutes.Post("/refresh", handlers.Refresh)

	protected := v1.Group("")
	protected.Use(AuthMiddleware(m.authPort))
	protected.Get("/profile", handlers.Profile)

	tasks := protected.Group("/tasks")
	tasks.Get("/", handlers.ListTasks)
	tasks.Post("/", handlers.CreateTask)
	tasks.Get("/stats", handlers.TaskStats)
	tasks.Get("/trash", handlers.TrashTasks)
	tasks.Get("/:id", handlers.GetTask)
	tasks.Put("/:id", handlers.UpdateTask)
	tasks.Delete("/:id", handlers.DeleteTask)
	tasks.Post("/:id/toggle", handlers.ToggleTask)
	tasks.Post("/:id/restore", handlers.RestoreTask)
	tasks.Delete("/:id/purge", handlers.PurgeTask)

	protected.Get("/cache/stats", handlers.CacheStats)
}

// handleHealth aggregates the health of the wired modules. The endpoint
// reports unhealthy with 503 when any module does.
func (m *Module) handleHealth(c *fiber.Ctx) error {
	modules := fiber.Map{}
	healthy := true
	for _, hc := range m.healthChecks {
		status := hc.Health(c.UserContext())
		if !status.Healthy {
			healthy = false
		}
		entry := fiber.Map{
			"healthy": status.Healthy,
			"message": status.Message,
		}
		if len(status.Details) > 0 {
			entry["details"] = status.Details
		}
		modules[hc.Name()] = entry
	}

	overall := "healthy"
	code := fiber.StatusOK
	if !healthy {
		overall = "unhealthy"
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status":  overall,
		"modules": modules,
	})
}

// errorHandler renders unhandled Fiber errors in the response envelope.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, isFiberErr := err.(*fiber.Error); isFiberErr {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(Envelope{
		Status:  statusError,
		Message: message,
	})
}
