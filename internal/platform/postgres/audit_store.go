// Package postgres persists a durable audit trail of generation tasks. The
// audit trail is optional; the rest of the system runs entirely in memory.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/undergrid/stagehand/internal/domain"
	"github.com/undergrid/stagehand/internal/events"
)

// DBTX is the subset of sql.DB the audit store needs. Accepting the
// interface lets tests substitute a mock and callers pass a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// TaskAuditStore records task lifecycle transitions in PostgreSQL. It
// implements events.Handler so it can subscribe to the tracker's emitter.
type TaskAuditStore struct {
	db     DBTX
	logger *slog.Logger
}

var _ events.Handler = (*TaskAuditStore)(nil)

// NewTaskAuditStore creates a TaskAuditStore backed by the given database.
func NewTaskAuditStore(db DBTX, logger *slog.Logger) *TaskAuditStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskAuditStore{db: db, logger: logger}
}

// HandleEvent writes the transition to the audit table. Failures are logged
// and swallowed so a broken database never stalls generation.
func (s *TaskAuditStore) HandleEvent(ctx context.Context, event events.TaskEvent) {
	var err error
	switch event.Type {
	case events.TaskSubmitted:
		err = s.insert(ctx, event)
	case events.TaskStarted:
		err = s.updateStatus(ctx, event.TaskID, "running", "")
	case events.TaskCompleted:
		err = s.updateStatus(ctx, event.TaskID, "complete", "")
	case events.TaskFailed:
		err = s.updateStatus(ctx, event.TaskID, "failed", event.Err)
	case events.TaskInterim:
		// Previews are transient and not worth auditing.
		return
	default:
		return
	}

	if err != nil {
		s.logger.Error("failed to record task audit event",
			"task_id", event.TaskID,
			"event_type", event.Type,
			"error", err)
	}
}

func (s *TaskAuditStore) insert(ctx context.Context, event events.TaskEvent) error {
	query := `
		INSERT INTO tasks (id, kind, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, query,
		event.TaskID,
		string(event.Kind),
		string(domain.TaskStateQueued),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task audit row: %w", err)
	}
	return nil
}

func (s *TaskAuditStore) updateStatus(
	ctx context.Context,
	taskID uuid.UUID,
	status string,
	errorMsg string,
) error {
	query := `
		UPDATE tasks
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := s.db.ExecContext(ctx, query, status, errorMsg, time.Now().UTC(), taskID)
	if err != nil {
		return fmt.Errorf("failed to update task audit status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		s.logger.Warn("no audit row found for task status update",
			"task_id", taskID,
			"status", status)
	}
	return nil
}

// Status returns the audited status of a task, for operational queries
// against the durable trail after in-memory results have been purged.
func (s *TaskAuditStore) Status(ctx context.Context, taskID uuid.UUID) (string, error) {
	query := `SELECT status FROM tasks WHERE id = $1`

	var status string
	err := s.db.QueryRowContext(ctx, query, taskID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: %v", domain.ErrTaskNotFound, taskID)
		}
		return "", fmt.Errorf("failed to query task audit status: %w", err)
	}
	return status, nil
}
