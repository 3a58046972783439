package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	apimod "github.com/example/taskboard/modules/api"
	authmod "github.com/example/taskboard/modules/auth"
	cachemod "github.com/example/taskboard/modules/cache"
	taskmod "github.com/example/taskboard/modules/task"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

const shutdownTimeout = 30 * time.Second

func main() {
	authDBPath := getEnv("AUTH_DB_PATH", "./taskboard_users.db")
	taskDBPath := getEnv("DB_PATH", "./taskboard_tasks.db")
	httpPort := getEnvInt("HTTP_PORT", 3000)
	redisAddr := os.Getenv("REDIS_ADDR")
	cacheTTL := getEnvDuration("CACHE_TTL", 5*time.Minute)
	cachePrefix := getEnv("CACHE_PREFIX", "taskboard:")

	log.Println("=== Taskboard ===")
	log.Printf("User database: %s", authDBPath)
	log.Printf("Task database: %s", taskDBPath)
	log.Printf("HTTP Port: %d", httpPort)
	if redisAddr != "" {
		log.Printf("Redis: %s (prefix: %s, TTL: %s)", redisAddr, cachePrefix, cacheTTL)
	} else {
		log.Println("Redis: disabled (set REDIS_ADDR to enable caching)")
	}

	authModule := authmod.NewModule(authDBPath)
	taskModule := taskmod.NewModule(taskDBPath)
	apiModule := apimod.NewModule(httpPort)

	var cacheModule *cachemod.Module
	if redisAddr != "" {
		cacheModule = cachemod.NewModule(redisAddr, cachePrefix, cacheTTL)
	}

	healthSources := []mono.HealthCheckableModule{authModule, taskModule}
	if cacheModule != nil {
		healthSources = append(healthSources, cacheModule)
	}
	apiModule.SetHealthChecks(healthSources...)

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Independent modules first, then dependents.
	if cacheModule != nil {
		app.Register(cacheModule)
	}
	app.Register(authModule)
	app.Register(taskModule)
	app.Register(apiModule)

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	// The cache is wired after start so the Redis connection exists.
	if cacheModule != nil {
		taskModule.SetCache(cacheModule.GetCache())
		apiModule.SetCacheModule(cacheModule)
	}

	printStartupInfo(httpPort)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(port int) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%d):", port)
	log.Println("")
	log.Println("  Public Endpoints:")
	log.Println("  POST   /api/v1/auth/register      - Register a new user")
	log.Println("  POST   /api/v1/auth/login         - Login and get tokens")
	log.Println("  POST   /api/v1/auth/refresh       - Refresh access token")
	log.Println("  GET    /health                    - Health check")
	log.Println("")
	log.Println("  Protected Endpoints (require Bearer token):")
	log.Println("  GET    /api/v1/profile            - Current user profile")
	log.Println("  GET    /api/v1/tasks              - List tasks (search/filter/sort)")
	log.Println("  POST   /api/v1/tasks              - Create a task")
	log.Println("  GET    /api/v1/tasks/stats        - Task counts by status")
	log.Println("  GET    /api/v1/tasks/trash        - List soft-deleted tasks")
	log.Println("  GET    /api/v1/tasks/:id          - Get a task")
	log.Println("  PUT    /api/v1/tasks/:id          - Update a task")
	log.Println("  DELETE /api/v1/tasks/:id          - Move a task to trash")
	log.Println("  POST   /api/v1/tasks/:id/toggle   - Toggle completion")
	log.Println("  POST   /api/v1/tasks/:id/restore  - Restore from trash")
	log.Println("  DELETE /api/v1/tasks/:id/purge    - Permanently delete")
	log.Println("  GET    /api/v1/cache/stats        - Cache statistics")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}

// getEnv returns an environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns an environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: invalid int value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDuration returns an environment variable as duration or a default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}
