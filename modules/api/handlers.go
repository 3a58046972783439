package api

import (
	"encoding/json"
	"log"
	"strings"
	"time"

	domaintask "github.com/example/taskboard/domain/task"
	domainuser "github.com/example/taskboard/domain/user"
	"github.com/example/taskboard/modules/auth"
	"github.com/example/taskboard/modules/cache"
	"github.com/example/taskboard/modules/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/gofiber/fiber/v2"
)

// Listing page size bounds.
const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	authContainer mono.ServiceContainer
	authPort      auth.Port
	tasks         task.Port
	getCache      func() *cache.Cache
}

// NewHandlers creates a Handlers instance. getCache is evaluated on every
// cache-stats request because the cache is wired after the server starts; it
// may be nil, or return nil, while caching is disabled.
func NewHandlers(authContainer mono.ServiceContainer, authPort auth.Port, tasks task.Port, getCache func() *cache.Cache) *Handlers {
	return &Handlers{
		authContainer: authContainer,
		authPort:      authPort,
		tasks:         tasks,
		getCache:      getCache,
	}
}

// claims returns the authenticated caller's claims set by AuthMiddleware.
func claims(c *fiber.Ctx) (*domainuser.Claims, bool) {
	cl, ok := c.Locals(UserContextKey).(*domainuser.Claims)
	return cl, ok
}

func ok(c *fiber.Ctx, code int, message string, data any) error {
	return c.Status(code).JSON(Envelope{
		Status:  statusSuccess,
		Message: message,
		Data:    data,
	})
}

func fail(c *fiber.Ctx, code int, message string) error {
	return c.Status(code).JSON(Envelope{
		Status:  statusError,
		Message: message,
	})
}

func failFields(c *fiber.Ctx, message string, fields map[string]string) error {
	return c.Status(fiber.StatusBadRequest).JSON(Envelope{
		Status:  statusError,
		Message: message,
		Errors:  fields,
	})
}

// Register handles user registration.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var body RegisterBody
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if body.Username == "" || body.Email == "" || body.Password == "" {
		return fail(c, fiber.StatusBadRequest, "Username, email and password are required")
	}

	req := auth.RegisterRequest{Username: body.Username, Email: body.Email, Password: body.Password}
	var resp auth.RegisterResponse
	if err := helper.CallRequestReplyService(
		c.UserContext(), h.authContainer, "register",
		json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return h.serviceError(c, err)
	}

	return ok(c, fiber.StatusCreated, "User registered", resp)
}

// Login handles user login.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var body LoginBody
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if body.Email == "" || body.Password == "" {
		return fail(c, fiber.StatusBadRequest, "Email and password are required")
	}

	req := auth.LoginRequest{Email: body.Email, Password: body.Password}
	var resp auth.TokenReply
	if err := helper.CallRequestReplyService(
		c.UserContext(), h.authContainer, "login",
		json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return h.serviceError(c, err)
	}

	return ok(c, fiber.StatusOK, "Login successful", resp)
}

// Refresh exchanges a refresh token for a fresh token pair.
func (h *Handlers) Refresh(c *fiber.Ctx) error {
	var body RefreshBody
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if body.RefreshToken == "" {
		return fail(c, fiber.StatusBadRequest, "Refresh token is required")
	}

	req := auth.RefreshRequest{RefreshToken: body.RefreshToken}
	var resp auth.TokenReply
	if err := helper.CallRequestReplyService(
		c.UserContext(), h.authContainer, "refresh-token",
		json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return fail(c, fiber.StatusUnauthorized, "Invalid or expired refresh token")
	}

	return ok(c, fiber.StatusOK, "Tokens refreshed", resp)
}

// Profile returns the authenticated user's account details.
func (h *Handlers) Profile(c *fiber.Ctx) error {
	cl, found := claims(c)
	if !found {
		return unauthorized(c, "User not authenticated")
	}

	u, err := h.authPort.GetUser(c.UserContext(), cl.UserID)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to retrieve user profile")
	}

	return ok(c, fiber.StatusOK, "Profile retrieved", fiber.Map{
		"id":         u.ID,
		"username":   u.Username,
		"email":      u.Email,
		"created_at": u.CreatedAt,
	})
}

// CreateTask creates a task owned by the caller.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	cl, found := claims(c)
	if !found {
		return unauthorized(c, "User not authenticated")
	}

	var body CreateTaskBody
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	req := task.CreateRequest{
		UserID:      cl.UserID,
		Title:       body.Title,
		Description: body.Description,
		Completed:   body.Completed,
	}
	req.Priority = domaintask.Priority(body.Priority)
	req.Status = domaintask.Status(body.Status)
	if body.DueDate != nil {
		due, err := parseDate(*body.DueDate)
		if err != nil {
			return failFields(c, "Validation failed", map[string]string{
				"due_date": "due_date must be RFC 3339 or YYYY-MM-DD",
			})
		}
		req.DueDate = &due
	}

	resp, err := h.tasks.Create(c.UserContext(), req)
	if err != nil {
		return h.serviceError(c, err)
	}
	return ok(c, fiber.StatusCreated, "Task created", resp)
}

// ListTasks lists the caller's live tasks, filtered by query parameters.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	cl, found := claims(c)
	if !found {
		return unauthorized(c, "User not authenticated")
	}

	limit := c.QueryInt("limit", defaultPageSize)
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	req := task.ListRequest{
		UserID:   cl.UserID,
		Search:   c.Query("search"),
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		SortBy:   c.Query("sort"),
		Order:    c.Query("order"),
		Offset:   (page - 1) * limit,
		Limit:    limit,
	}

	if v := c.Query("completed"); v != "" {
		completed := v == "true" || v == "1"
		req.Completed = &completed
	}
	for param, dest := range map[string]**time.Time{
		"due_before": &req.DueBefore,
		"due_after":  &req.DueAfter,
	} {
		if v := c.Query(param); v != "" {
			parsed, err := parseDate(v)
			if err != nil {
				return failFields(c, "Validation failed", map[string]string{
					param: param + " must be RFC 3339 or YYYY-MM-DD",
				})
			}
			*dest = &parsed
		}
	}

	resp, err := h.tasks.List(c.UserContext(), req)
	if err != nil {
		return h.serviceError(c, err)
	}
	return ok(c, fiber.StatusOK, "Tasks retrieved", fiber.Map{
		"tasks": resp.Tasks,
		"total": resp.Total,
		"page":  page,
		"limit": limit,
	})
}

// GetTask returns one of the caller's tasks.
func (h *Handlers) GetTask(c *fiber.Ctx) error {
	cl, found := claims(c)
	if !found {
		return unauthorized(c, "User not authenticated")
	}

	resp, err := h.tasks.Get(c.UserContext(), cl.UserID, c.Params("id"))
	if err != nil {
		return h.serviceError(c, err)
	}
	return ok(c, fiber.StatusOK, "Task retrieved", resp)
}

// UpdateTask applies a partial update to one of the caller's tasks.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	cl, found := claims(c)
	if !found {
		return unauthorized(c, "User not authenticated")
	}

	var body UpdateTaskBody
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	req := task.UpdateRequest{
		UserID:      cl.UserID,
		ID:          c.Params("id"),
		Title:       body.Title,
		Description: body.Description,
		ClearDue:    body.ClearDue,
		Completed:   body.Completed,
	}
	if body.Priority != nil {
		p := domaintask.Priority(*body.Priority)
		req.Priority = &p
	}
	if body.Status != nil {
		s := domaintask.Status(*body.Status)
		req.Status = &s
	}
	if body.DueDate != nil {
		due, err := parseDate(*body.DueDate)
		if err != nil {
			return failFields(c, "Validation failed", map[string]string{
				"due_date": "due_date must be RFC 3339 or YYYY-MM-DD",
			})
		}
		req.DueDate = &due
	}

	resp, err := h.tasks.Update(c.UserContext(), req)
	if err != nil {
		return h.serviceError(c, err)
	}
	return ok(c, fiber.StatusOK, "Task updated", resp)
}

// ToggleTask flips completion on one of the caller's tasks.
func (h *Handlers) ToggleTask(c *fiber.Ctx) error {
	cl, found := claims(c)
	if !found {
		return unauthorized(c, "User not authenticated")
	}

	resp, err := h.tasks.Toggle(c.UserContext(), cl.UserID, c.Params("id"))
	if err != nil {
		return h.serviceError(c, err)
	}
	return ok(c, fiber.StatusOK, "Task toggled", resp)
}

// DeleteTask moves one of the caller's tasks to the trash.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	cl, found := claims(c)
	if !found {
		return unauthorized(c, "User not authenticated")
	}

	resp, err := h.tasks.Delete(c.UserContext(), cl.UserID, c.Params("id"))
	if err != nil {
		return h.serviceError(c, err)
	}
	return ok(c, fiber.StatusOK, "Task moved to trash", resp)
}

// TrashTasks lists the caller's soft-deleted tasks.
func (h *Handlers) TrashTasks(c *fiber.Ctx) error {
	cl, found := claims(c)
	if !found {
		return unauthorized(c, "User not authenticated")
	}

	resp, err := h.tasks.Trash(c.UserContext(), cl.UserID)
	if err != nil {
		return h.serviceError(c, err)
	}
	return ok(c, fiber.StatusOK, "Trash retrieved", resp)
}

// RestoreTask returns a trashed task to the default listing.
func (h *Handlers) RestoreTask(c *fiber.Ctx) error {
	cl, found := claims(c)
	if !found {
		return unauthorized(c, "User not authenticated")
	}

	resp, err := h.tasks.Restore(c.UserContext(), cl.UserID, c.Params("id"))
	if err != nil {
		return h.serviceError(c, err)
	}
	return ok(c, fiber.StatusOK, "Task restored", resp)
}

// PurgeTask permanently deletes a trashed task.
func (h *Handlers) PurgeTask(c *fiber.Ctx) error {
	cl, found := claims(c)
	if !found {
		return unauthorized(c, "User not authenticated")
	}

	resp, err := h.tasks.Purge(c.UserContext(), cl.UserID, c.Params("id"))
	if err != nil {
		return h.serviceError(c, err)
	}
	return ok(c, fiber.StatusOK, "Task permanently deleted", resp)
}

// TaskStats returns the caller's task counts.
func (h *Handlers) TaskStats(c *fiber.Ctx) error {
	cl, found := claims(c)
	if !found {
		return unauthorized(c, "User not authenticated")
	}

	resp, err := h.tasks.Stats(c.UserContext(), cl.UserID)
	if err != nil {
		return h.serviceError(c, err)
	}
	return ok(c, fiber.StatusOK, "Stats retrieved", resp)
}

// CacheStats returns cache hit/miss counters, zeroed when caching is off.
func (h *Handlers) CacheStats(c *fiber.Ctx) error {
	var cc *cache.Cache
	if h.getCache != nil {
		cc = h.getCache()
	}
	if cc == nil {
		return ok(c, fiber.StatusOK, "Caching disabled", cache.StatsSnapshot{})
	}
	return ok(c, fiber.StatusOK, "Cache stats retrieved", cc.GetStats())
}

// serviceError maps service-layer failures to HTTP responses. Errors cross
// the service container as strings, so mapping is by message content.
func (h *Handlers) serviceError(c *fiber.Ctx, err error) error {
	msg := err.Error()

	if fields, isValidation := parseValidationError(msg); isValidation {
		return failFields(c, "Validation failed", fields)
	}

	switch {
	case strings.Contains(msg, "task not found"), strings.Contains(msg, "user not found"):
		return fail(c, fiber.StatusNotFound, "Not found")
	case strings.Contains(msg, "invalid email or password"):
		return fail(c, fiber.StatusUnauthorized, "Invalid email or password")
	case strings.Contains(msg, "already exists"):
		return fail(c, fiber.StatusConflict, "User with this email or username already exists")
	case strings.Contains(msg, "invalid email format"):
		return failFields(c, "Validation failed", map[string]string{"email": "invalid email format"})
	case strings.Contains(msg, "username must be"):
		return failFields(c, "Validation failed", map[string]string{"username": "username must be 3-50 characters (letters, digits, underscore)"})
	case strings.Contains(msg, "password must be at least"):
		return failFields(c, "Validation failed", map[string]string{"password": "password must be at least 8 characters"})
	case strings.Contains(msg, "password must be at most"):
		return failFields(c, "Validation failed", map[string]string{"password": "password must be at most 72 characters"})
	default:
		log.Printf("[api] Internal error: %v", err)
		return fail(c, fiber.StatusInternalServerError, "An internal error occurred")
	}
}

// parseValidationError recovers the field map from a task validation error
// that crossed the service boundary as "validation failed: field: msg; ...".
func parseValidationError(msg string) (map[string]string, bool) {
	idx := strings.Index(msg, "validation failed: ")
	if idx < 0 {
		return nil, false
	}

	fields := map[string]string{}
	for _, part := range strings.Split(msg[idx+len("validation failed: "):], "; ") {
		field, fieldMsg, found := strings.Cut(part, ": ")
		if !found {
			continue
		}
		fields[field] = fieldMsg
	}
	if len(fields) == 0 {
		return nil, false
	}
	return fields, true
}

// parseDate accepts an RFC 3339 timestamp or a bare date.
func parseDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}
