package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tradewind-ai/tradewind/pkg/a2a/types"
	"github.com/tradewind-ai/tradewind/pkg/errors"

	_ "modernc.org/sqlite"
)

const taskTable = "a2a_tasks"

// SQLiteTaskStore persists A2A tasks in a SQLite database.
type SQLiteTaskStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) a SQLite database at path.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// NewSQLiteTaskStore creates a SQLite-backed task store and ensures schema.
func NewSQLiteTaskStore(db *sql.DB) (*SQLiteTaskStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	return &SQLiteTaskStore{db: db}, nil
}

func ensureSchema(db *sql.DB) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			context_id TEXT NOT NULL,
			status_state TEXT NOT NULL,
			updated_at INTEGER NOT NULL,
			task_json BLOB NOT NULL
		);`, taskTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_context ON %s(context_id);`, taskTable, taskTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_status ON %s(status_state);`, taskTable, taskTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_updated ON %s(updated_at);`, taskTable, taskTable),
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// CreateTask persists a new task seeded from the incoming message.
func (s *SQLiteTaskStore) CreateTask(ctx context.Context, message *types.Message) (*types.Task, error) {
	if message == nil {
		return nil, errors.New(errors.CodeInvalidInput, "message is nil", nil)
	}
	taskID := uuid.NewString()
	contextID := message.ContextID
	if contextID == "" {
		contextID = uuid.NewString()
	}

	msg := cloneMessage(message)
	msg.TaskID = taskID
	msg.ContextID = contextID
	task := &types.Task{
		ID:        taskID,
		ContextID: contextID,
		Status:    newStatus(types.TaskStateSubmitted, msg),
		History:   []*types.Message{msg},
	}

	payload, err := json.Marshal(task)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC().UnixMilli()
	_, err = s.db.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (id, context_id, status_state, updated_at, task_json) VALUES (?, ?, ?, ?, ?)", taskTable),
		taskID, contextID, string(task.Status.State), now, payload)
	if err != nil {
		return nil, err
	}
	return cloneTask(task), nil
}

// AppendHistory appends a message to the persisted task history.
func (s *SQLiteTaskStore) AppendHistory(ctx context.Context, taskID string, message *types.Message) error {
	if message == nil {
		return errors.New(errors.CodeInvalidInput, "message is nil", nil)
	}
	task, err := s.getTask(ctx, taskID)
	if err != nil {
		return err
	}
	task.History = append(task.History, cloneMessage(message))
	return s.updateTask(ctx, task)
}

// UpdateStatus updates the persisted task status.
func (s *SQLiteTaskStore) UpdateStatus(ctx context.Context, taskID string, status types.TaskStatus) error {
	task, err := s.getTask(ctx, taskID)
	if err != nil {
		return err
	}
	task.Status = status
	return s.updateTask(ctx, task)
}

// AddArtifacts appends artifacts to a persisted task.
func (s *SQLiteTaskStore) AddArtifacts(ctx context.Context, taskID string, artifacts []types.Artifact) error {
	if len(artifacts) == 0 {
		return nil
	}
	task, err := s.getTask(ctx, taskID)
	if err != nil {
		return err
	}
	task.Artifacts = append(task.Artifacts, artifacts...)
	return s.updateTask(ctx, task)
}

// GetTask returns a task with optional history/artifact filtering.
func (s *SQLiteTaskStore) GetTask(ctx context.Context, taskID string, historyLength int32, includeArtifacts bool) (*types.Task, error) {
	task, err := s.getTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return filterTask(task, historyLength, includeArtifacts), nil
}

// ListTasks lists tasks using the provided filter and page size.
func (s *SQLiteTaskStore) ListTasks(ctx context.Context, filter TaskFilter) ([]*types.Task, int, error) {
	pageSize := int(filter.PageSize)
	if pageSize <= 0 {
		pageSize = 50
	}

	where, args := buildTaskFilter(filter)
	var total int
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s%s", taskTable, where), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT task_json FROM %s%s ORDER BY updated_at DESC, id ASC LIMIT ?", taskTable, where)
	rows, err := s.db.QueryContext(ctx, query, append(args, pageSize)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*types.Task
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, 0, err
		}
		var task types.Task
		if err := json.Unmarshal(payload, &task); err != nil {
			return nil, 0, err
		}
		out = append(out, filterTask(&task, filter.HistoryLength, filter.IncludeArtifacts))
	}
	return out, total, rows.Err()
}

// CancelTask marks a persisted task as cancelled and returns it.
func (s *SQLiteTaskStore) CancelTask(ctx context.Context, taskID string) (*types.Task, error) {
	task, err := s.getTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	task.Status = newStatus(types.TaskStateCancelled, task.Status.Message)
	if err := s.updateTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *SQLiteTaskStore) getTask(ctx context.Context, taskID string) (*types.Task, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT task_json FROM %s WHERE id = ?", taskTable), taskID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, taskNotFound(taskID)
	}
	if err != nil {
		return nil, err
	}
	var task types.Task
	if err := json.Unmarshal(payload, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *SQLiteTaskStore) updateTask(ctx context.Context, task *types.Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}
	now := time.Now().UTC().UnixMilli()
	_, err = s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET context_id = ?, status_state = ?, updated_at = ?, task_json = ? WHERE id = ?", taskTable),
		task.ContextID, string(task.Status.State), now, payload, task.ID)
	return err
}

func buildTaskFilter(filter TaskFilter) (string, []any) {
	var clauses []string
	var args []any
	if filter.ContextID != "" {
		clauses = append(clauses, "context_id = ?")
		args = append(args, filter.ContextID)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status_state = ?")
		args = append(args, string(filter.Status))
	}
	if !filter.LastUpdatedAfter.IsZero() {
		clauses = append(clauses, "updated_at > ?")
		args = append(args, filter.LastUpdatedAfter.UnixMilli())
	}
	if len(clauses) == 0 {
		return "", nil
	}
	where := " WHERE " + clauses[0]
	for _, clause := range clauses[1:] {
		where += " AND " + clause
	}
	return where, args
}

var _ TaskStore = (*SQLiteTaskStore)(nil)
var _ TaskStore = (*MemoryTaskStore)(nil)
