package database

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/audit"
)

type auditSink struct {
	db *sqlx.DB
}

var _ audit.Sink = (*auditSink)(nil)

func NewAuditSink(db *sqlx.DB) *auditSink {
	return &auditSink{db: db}
}

type auditRow struct {
	ID             string      `db:"id"`
	Timestamp      time.Time   `db:"timestamp"`
	Resource       string      `db:"resource"`
	Action         string      `db:"action"`
	Level          string      `db:"level"`
	Status         int         `db:"status"`
	ActorID        null.String `db:"actor_id"`
	ActorRole      null.String `db:"actor_role"`
	ActorWorkspace null.String `db:"actor_workspace"`
	ErrMessage     null.String `db:"err_message"`
	ErrTrace       null.String `db:"err_trace"`
	Message        string      `db:"message"`
}

const insertEntrySQL = `
INSERT INTO audit_log (id, timestamp, resource, action, level, status,
                       actor_id, actor_role, actor_workspace, err_message, err_trace, message)
VALUES (:id, :timestamp, :resource, :action, :level, :status,
        :actor_id, :actor_role, :actor_workspace, :err_message, :err_trace, :message)`

func (s auditSink) Write(ctx context.Context, entries []audit.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning audit tx")
	}
	for _, e := range entries {
		if _, err = tx.NamedExecContext(ctx, insertEntrySQL, newAuditRow(e)); err != nil {
			_ = tx.Rollback()
			return errors.Wrap(err, "inserting audit entry")
		}
	}
	return errors.Wrap(tx.Commit(), "committing audit tx")
}

func newAuditRow(e audit.Entry) auditRow {
	row := auditRow{
		ID:        e.ID.String(),
		Timestamp: e.Timestamp,
		Resource:  e.Resource,
		Action:    string(e.Action),
		Level:     string(e.Level),
		Status:    e.Status,
		Message:   e.Message,
	}
	if e.Actor != nil {
		row.ActorID = null.StringFrom(e.Actor.ID)
		row.ActorRole = null.StringFrom(e.Actor.Role)
		row.ActorWorkspace = e.Actor.Workspace
	}
	if e.Error != nil {
		row.ErrMessage = null.StringFrom(e.Error.Message)
		row.ErrTrace = null.StringFrom(e.Error.Trace)
	}
	return row
}
