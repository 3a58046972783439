package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	domainuser "github.com/example/taskboard/domain/user"
	"github.com/gofiber/fiber/v2"
)

// mockAuthPort implements auth.Port for testing.
type mockAuthPort struct {
	validateTokenFunc func(ctx context.Context, token string) (*domainuser.Claims, error)
	getUserFunc       func(ctx context.Context, userID string) (*domainuser.User, error)
}

func (m *mockAuthPort) ValidateToken(ctx context.Context, token string) (*domainuser.Claims, error) {
	if m.validateTokenFunc != nil {
		return m.validateTokenFunc(ctx, token)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthPort) GetUser(ctx context.Context, userID string) (*domainuser.User, error) {
	if m.getUserFunc != nil {
		return m.getUserFunc(ctx, userID)
	}
	return nil, errors.New("not implemented")
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		authHeader     string
		mockAuth       *mockAuthPort
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "missing authorization header",
			authHeader:     "",
			mockAuth:       &mockAuthPort{},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `Authorization header is required`,
		},
		{
			name:           "not a bearer token",
			authHeader:     "Basic dXNlcjpwYXNz",
			mockAuth:       &mockAuthPort{},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `Invalid authorization header format`,
		},
		{
			name:       "invalid token",
			authHeader: "Bearer bad-token",
			mockAuth: &mockAuthPort{
				validateTokenFunc: func(_ context.Context, _ string) (*domainuser.Claims, error) {
					return nil, errors.New("invalid token")
				},
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `Invalid or expired token`,
		},
		{
			name:       "valid token passes claims through",
			authHeader: "Bearer good-token",
			mockAuth: &mockAuthPort{
				validateTokenFunc: func(_ context.Context, _ string) (*domainuser.Claims, error) {
					return &domainuser.Claims{
						UserID:   "user-123",
						Username: "alice",
						Email:    "alice@example.com",
					}, nil
				},
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"user-123"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(AuthMiddleware(tt.mockAuth))
			app.Get("/test", func(c *fiber.Ctx) error {
				cl, found := claims(c)
				if !found {
					return c.Status(fiber.StatusInternalServerError).SendString("no claims in context")
				}
				return c.JSON(fiber.Map{"user_id": cl.UserID})
			})

			req := httptest.NewRequest("GET", "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req, -1)
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
			if !strings.Contains(string(body), tt.expectedBody) {
				t.Errorf("body = %s, want it to contain %q", body, tt.expectedBody)
			}
		})
	}
}

func TestParseValidationError(t *testing.T) {
	tests := []struct {
		name       string
		msg        string
		wantFields map[string]string
		wantOK     bool
	}{
		{
			name: "single field",
			msg:  "validation failed: title: title is required",
			wantFields: map[string]string{
				"title": "title is required",
			},
			wantOK: true,
		},
		{
			name: "multiple fields",
			msg:  "validation failed: title: title is required; status: status must be one of: pending, in_progress, completed",
			wantFields: map[string]string{
				"title":  "title is required",
				"status": "status must be one of: pending, in_progress, completed",
			},
			wantOK: true,
		},
		{
			name:   "wrapped by the service container",
			msg:    "create request failed: validation failed: priority: priority must be one of: low, medium, high",
			wantOK: true,
			wantFields: map[string]string{
				"priority": "priority must be one of: low, medium, high",
			},
		},
		{
			name:   "not a validation error",
			msg:    "task not found",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, isValidation := parseValidationError(tt.msg)
			if isValidation != tt.wantOK {
				t.Fatalf("parseValidationError() ok = %v, want %v", isValidation, tt.wantOK)
			}
			if !tt.wantOK {
				return
			}
			if len(fields) != len(tt.wantFields) {
				t.Fatalf("got %d fields, want %d: %v", len(fields), len(tt.wantFields), fields)
			}
			for field, want := range tt.wantFields {
				if fields[field] != want {
					t.Errorf("fields[%q] = %q, want %q", field, fields[field], want)
				}
			}
		})
	}
}
