package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
)

// Sink durably persists flushed entries.
type Sink interface {
	Write(ctx context.Context, entries []Entry) error
}

// Logger buffers the audit entries of a single request and persists them in
// one flush before the response is sent. It is request-scoped and not safe
// for use across requests.
//
// Delivery is best-effort: a failing sink is swallowed and reported to the
// app logger only, so observability never becomes a new source of request
// failure.
type Logger struct {
	sink     Sink
	std      core.Logger
	resource string
	action   Action

	actor   *Actor
	entries []Entry
	flushed bool
}

func NewLogger(sink Sink, std core.Logger, resource string, action Action) *Logger {
	return &Logger{sink: sink, std: std, resource: resource, action: action}
}

// SetActor attaches the resolved caller to all subsequent entries.
func (l *Logger) SetActor(actor *Actor) {
	l.actor = actor
}

func (l *Logger) append(level Level, status int, msg string, detail *ErrorDetail) {
	l.entries = append(l.entries, Entry{
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
		Resource:  l.resource,
		Action:    l.action,
		Level:     level,
		Status:    status,
		Actor:     l.actor,
		Error:     detail,
		Message:   msg,
	})
}

// Info appends a free-text informational note.
func (l *Logger) Info(msg string) { l.append(LevelInfo, 0, msg, nil) }

// Warn appends a free-text warning note.
func (l *Logger) Warn(msg string) { l.append(LevelWarn, 0, msg, nil) }

// Error appends a free-text error note.
func (l *Logger) Error(msg string) { l.append(LevelError, 0, msg, nil) }

// Record appends the terminal outcome entry for the request. err, when given,
// is captured with its full trace.
func (l *Logger) Record(level Level, status int, err error) {
	var detail *ErrorDetail
	if err != nil {
		detail = &ErrorDetail{
			Message: err.Error(),
			Trace:   fmt.Sprintf("%+v", err), // pkg/errors stack, if any
		}
	}
	l.append(level, status, "", detail)
}

// Flush persists all buffered entries exactly once; later calls are no-ops.
func (l *Logger) Flush(ctx context.Context) {
	if l.flushed {
		return
	}
	l.flushed = true

	if err := l.sink.Write(ctx, l.entries); err != nil {
		l.std.Error("audit: flushing "+l.resource+" entries", err)
	}
}
