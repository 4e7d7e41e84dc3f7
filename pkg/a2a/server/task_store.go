// Package server implements the A2A server side: task stores and the
// method handler that binds a workflow executor into the task lifecycle.
package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tradewind-ai/tradewind/pkg/a2a/types"
	"github.com/tradewind-ai/tradewind/pkg/errors"
)

// TaskFilter defines filtering options for listing tasks.
type TaskFilter struct {
	ContextID        string
	Status           types.TaskState
	PageSize         int32
	HistoryLength    int32
	IncludeArtifacts bool
	LastUpdatedAfter time.Time
}

// TaskStore provides access to A2A task records.
type TaskStore interface {
	CreateTask(ctx context.Context, message *types.Message) (*types.Task, error)
	AppendHistory(ctx context.Context, taskID string, message *types.Message) error
	UpdateStatus(ctx context.Context, taskID string, status types.TaskStatus) error
	AddArtifacts(ctx context.Context, taskID string, artifacts []types.Artifact) error
	GetTask(ctx context.Context, taskID string, historyLength int32, includeArtifacts bool) (*types.Task, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]*types.Task, int, error)
	CancelTask(ctx context.Context, taskID string) (*types.Task, error)
}

// MemoryTaskStore keeps tasks in process memory.
type MemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*taskRecord
}

type taskRecord struct {
	task      *types.Task
	updatedAt time.Time
}

// NewMemoryTaskStore creates a new in-memory task store.
func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{tasks: make(map[string]*taskRecord)}
}

// CreateTask stores a new task seeded from the incoming message.
func (s *MemoryTaskStore) CreateTask(ctx context.Context, message *types.Message) (*types.Task, error) {
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

	now := time.Now().UTC()
	s.mu.Lock()
	s.tasks[taskID] = &taskRecord{task: task, updatedAt: now}
	s.mu.Unlock()

	return cloneTask(task), nil
}

// AppendHistory adds a message to the task history.
func (s *MemoryTaskStore) AppendHistory(ctx context.Context, taskID string, message *types.Message) error {
	if message == nil {
		return errors.New(errors.CodeInvalidInput, "message is nil", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.tasks[taskID]
	if !ok {
		return taskNotFound(taskID)
	}
	record.task.History = append(record.task.History, cloneMessage(message))
	record.updatedAt = time.Now().UTC()
	return nil
}

// UpdateStatus updates the task status.
func (s *MemoryTaskStore) UpdateStatus(ctx context.Context, taskID string, status types.TaskStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.tasks[taskID]
	if !ok {
		return taskNotFound(taskID)
	}
	record.task.Status = status
	record.updatedAt = time.Now().UTC()
	return nil
}

// AddArtifacts appends artifacts to the task.
func (s *MemoryTaskStore) AddArtifacts(ctx context.Context, taskID string, artifacts []types.Artifact) error {
	if len(artifacts) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.tasks[taskID]
	if !ok {
		return taskNotFound(taskID)
	}
	record.task.Artifacts = append(record.task.Artifacts, artifacts...)
	record.updatedAt = time.Now().UTC()
	return nil
}

// GetTask returns a task with optional history/artifact filtering.
func (s *MemoryTaskStore) GetTask(ctx context.Context, taskID string, historyLength int32, includeArtifacts bool) (*types.Task, error) {
	s.mu.RLock()
	record, ok := s.tasks[taskID]
	s.mu.RUnlock()
	if !ok {
		return nil, taskNotFound(taskID)
	}
	return filterTask(record.task, historyLength, includeArtifacts), nil
}

// ListTasks lists tasks with filtering and simple pagination (page size only).
func (s *MemoryTaskStore) ListTasks(ctx context.Context, filter TaskFilter) ([]*types.Task, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*types.Task
	for _, record := range s.tasks {
		if filter.ContextID != "" && record.task.ContextID != filter.ContextID {
			continue
		}
		if filter.Status != "" && record.task.Status.State != filter.Status {
			continue
		}
		if !filter.LastUpdatedAfter.IsZero() && record.updatedAt.Before(filter.LastUpdatedAfter) {
			continue
		}
		out = append(out, filterTask(record.task, filter.HistoryLength, filter.IncludeArtifacts))
	}

	total := len(out)
	pageSize := int(filter.PageSize)
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize < total {
		out = out[:pageSize]
	}
	return out, total, nil
}

// CancelTask marks a task as cancelled and returns it.
func (s *MemoryTaskStore) CancelTask(ctx context.Context, taskID string) (*types.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.tasks[taskID]
	if !ok {
		return nil, taskNotFound(taskID)
	}
	record.task.Status = newStatus(types.TaskStateCancelled, record.task.Status.Message)
	record.updatedAt = time.Now().UTC()
	return cloneTask(record.task), nil
}

func taskNotFound(taskID string) *errors.Error {
	return errors.New(errors.CodeNotFound, "task not found", nil).WithContext("task_id", taskID)
}

func newStatus(state types.TaskState, message *types.Message) types.TaskStatus {
	return types.TaskStatus{
		State:     state,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

func filterTask(task *types.Task, historyLength int32, includeArtifacts bool) *types.Task {
	cloned := cloneTask(task)
	if !includeArtifacts {
		cloned.Artifacts = nil
	}
	if historyLength > 0 && int(historyLength) < len(cloned.History) {
		cloned.History = cloned.History[len(cloned.History)-int(historyLength):]
	}
	return cloned
}

// cloneTask deep-copies through JSON. Task payloads are small and already
// JSON-shaped, so this keeps readers isolated from writer mutation.
func cloneTask(task *types.Task) *types.Task {
	if task == nil {
		return nil
	}
	raw, err := json.Marshal(task)
	if err != nil {
		out := *task
		return &out
	}
	var out types.Task
	if err := json.Unmarshal(raw, &out); err != nil {
		copied := *task
		return &copied
	}
	return &out
}

func cloneMessage(message *types.Message) *types.Message {
	if message == nil {
		return nil
	}
	out := *message
	out.Parts = append([]types.Part(nil), message.Parts...)
	return &out
}
