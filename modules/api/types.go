package api

// Response statuses used in the envelope.
const (
	statusSuccess = "success"
	statusError   = "error"
)

// Envelope is the JSON shape of every API response: status and message are
// always present, data carries the payload on success, errors carries
// field-level messages on validation failure.
type Envelope struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Data    any               `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// RegisterBody is the registration request body.
type RegisterBody struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginBody is the login request body.
type LoginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshBody is the token refresh request body.
type RefreshBody struct {
	RefreshToken string `json:"refresh_token"`
}

// CreateTaskBody is the task creation request body.
type CreateTaskBody struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Priority    string  `json:"priority"`
	Status      string  `json:"status"`
	DueDate     *string `json:"due_date"`
	Completed   *bool   `json:"completed"`
}

// UpdateTaskBody is the task update request body. Absent fields are left
// unchanged; clearing the due date requires clear_due because a null
// due_date is indistinguishable from an absent one after decoding.
type UpdateTaskBody struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
	DueDate     *string `json:"due_date"`
	ClearDue    bool    `json:"clear_due"`
	Completed   *bool   `json:"completed"`
}
