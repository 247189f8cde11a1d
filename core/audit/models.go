package audit

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Actor identifies who performed a request; nil for unauthenticated calls.
type Actor struct {
	ID        string      `json:"id"`
	Role      string      `json:"role"`
	Workspace null.String `json:"workspace"`
}

// ErrorDetail captures internal failure detail. It is persisted for
// observability and never part of a response body.
type ErrorDetail struct {
	Message string `json:"message"`
	Trace   string `json:"trace"`
}

// Entry is one durable record of what happened during a request.
// Entries are append-only and never mutated after creation.
type Entry struct {
	ID        uuid.UUID    `json:"id"`
	Timestamp time.Time    `json:"timestamp"` // UTC
	Resource  string       `json:"resource"`
	Action    Action       `json:"action"`
	Level     Level        `json:"level"`
	Status    int          `json:"status"` // 0 for free-text notes
	Actor     *Actor       `json:"actor"`
	Error     *ErrorDetail `json:"error,omitempty"`
	Message   string       `json:"message,omitempty"`
}
