package audit

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
)

type fakeSink struct {
	writes [][]Entry
	err    error
}

func (s *fakeSink) Write(_ context.Context, entries []Entry) error {
	s.writes = append(s.writes, entries)
	return s.err
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) Fatal(string, ...interface{}) {}

func Test_Logger_Flush_exactlyOnce(t *testing.T) {
	ctx := context.Background()
	sink := &fakeSink{}
	al := NewLogger(sink, noopLogger{}, "students", ActionCreate)

	actor := &Actor{ID: "usr-1", Role: "admin", Workspace: null.StringFrom("ws-1")}
	al.SetActor(actor)
	al.Info("student enrolled")
	al.Record(LevelInfo, 201, nil)

	al.Flush(ctx)
	al.Flush(ctx) // no-op

	require.Len(t, sink.writes, 1)
	entries := sink.writes[0]
	require.Len(t, entries, 2)

	note := entries[0]
	assert.Equal(t, "students", note.Resource)
	assert.Equal(t, ActionCreate, note.Action)
	assert.Equal(t, LevelInfo, note.Level)
	assert.Equal(t, 0, note.Status)
	assert.Equal(t, "student enrolled", note.Message)
	assert.Equal(t, actor, note.Actor)
	assert.Nil(t, note.Error)
	assert.NotEmpty(t, note.ID)
	assert.False(t, note.Timestamp.IsZero())

	terminal := entries[1]
	assert.Equal(t, 201, terminal.Status)
	assert.Equal(t, actor, terminal.Actor)
	assert.Nil(t, terminal.Error)
}

func Test_Logger_actorAttachesToSubsequentEntries(t *testing.T) {
	sink := &fakeSink{}
	al := NewLogger(sink, noopLogger{}, "session", ActionCreate)

	al.Warn("before sign-in")
	al.SetActor(&Actor{ID: "usr-1", Role: "student"})
	al.Info("after sign-in")
	al.Flush(context.Background())

	require.Len(t, sink.writes, 1)
	entries := sink.writes[0]
	require.Len(t, entries, 2)
	assert.Nil(t, entries[0].Actor)
	require.NotNil(t, entries[1].Actor)
	assert.Equal(t, "usr-1", entries[1].Actor.ID)
}

func Test_Logger_Record_capturesErrorDetail(t *testing.T) {
	sink := &fakeSink{}
	al := NewLogger(sink, noopLogger{}, "courses", ActionRead)

	al.Record(LevelError, 500, errors.New("connection reset"))
	al.Flush(context.Background())

	require.Len(t, sink.writes, 1)
	require.Len(t, sink.writes[0], 1)
	detail := sink.writes[0][0].Error
	require.NotNil(t, detail)
	assert.Equal(t, "connection reset", detail.Message)
	// trace carries the stack, not just the message
	assert.Contains(t, detail.Trace, "connection reset")
	assert.Greater(t, len(detail.Trace), len(detail.Message))
}

func Test_Logger_Flush_sinkFailureSwallowed(t *testing.T) {
	sink := &fakeSink{err: errors.New("db is down")}
	al := NewLogger(sink, noopLogger{}, "exams", ActionCreate)
	al.Record(LevelInfo, 201, nil)

	al.Flush(context.Background()) // must not panic nor propagate
	al.Flush(context.Background())

	assert.Len(t, sink.writes, 1) // still flushed exactly once
}
