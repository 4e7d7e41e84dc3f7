package server

import (
	"context"
	"time"

	"github.com/tradewind-ai/tradewind/pkg/a2a/types"
	"github.com/tradewind-ai/tradewind/pkg/errors"
)

// Executor runs a task and returns a response payload plus artifacts.
type Executor interface {
	Run(ctx context.Context, message *types.Message) (any, []types.Artifact, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, message *types.Message) (any, []types.Artifact, error)

func (f ExecutorFunc) Run(ctx context.Context, message *types.Message) (any, []types.Artifact, error) {
	return f(ctx, message)
}

// Stream receives responses from a streaming method call.
type Stream interface {
	Context() context.Context
	Send(*types.StreamResponse) error
}

// Handler is the full A2A method surface served over a transport binding.
type Handler interface {
	SendMessage(ctx context.Context, req *types.SendMessageRequest) (*types.SendMessageResponse, error)
	SendStreamingMessage(req *types.SendMessageRequest, stream Stream) error
	GetTask(ctx context.Context, req *types.GetTaskRequest) (*types.Task, error)
	ListTasks(ctx context.Context, req *types.ListTasksRequest) (*types.ListTasksResponse, error)
	CancelTask(ctx context.Context, req *types.CancelTaskRequest) (*types.Task, error)
	GetExtendedAgentCard(ctx context.Context) (*types.AgentCard, error)
}

// SimpleHandler implements core A2A operations using a TaskStore and Executor.
type SimpleHandler struct {
	Store     TaskStore
	Executor  Executor
	AgentCard *types.AgentCard
}

func (h *SimpleHandler) SendMessage(ctx context.Context, req *types.SendMessageRequest) (*types.SendMessageResponse, error) {
	if h.Store == nil || h.Executor == nil {
		return nil, errors.New(errors.CodeInternal, "handler not configured", nil)
	}
	message := req.Message
	if err := ValidateMessage(message); err != nil {
		return nil, errors.New(errors.CodeInvalidInput, err.Error(), err)
	}

	task, _, err := h.ensureTask(ctx, message)
	if err != nil {
		return nil, err
	}

	blocking := false
	if req.Configuration != nil {
		blocking = req.Configuration.Blocking
	}

	if blocking {
		respMsg, _, err := h.executeTask(ctx, task, message)
		if err != nil {
			return nil, err
		}
		return &types.SendMessageResponse{Message: respMsg}, nil
	}

	go h.runAsync(task.ID, message)

	return &types.SendMessageResponse{Task: task}, nil
}

func (h *SimpleHandler) SendStreamingMessage(req *types.SendMessageRequest, stream Stream) error {
	if h.Store == nil || h.Executor == nil {
		return errors.New(errors.CodeInternal, "handler not configured", nil)
	}
	message := req.Message
	if err := ValidateMessage(message); err != nil {
		return errors.New(errors.CodeInvalidInput, err.Error(), err)
	}

	task, _, err := h.ensureTask(stream.Context(), message)
	if err != nil {
		return err
	}

	if err := stream.Send(&types.StreamResponse{Task: task}); err != nil {
		return err
	}

	respMsg, artifacts, err := h.executeTask(stream.Context(), task, message)
	if err != nil {
		return err
	}

	if err := stream.Send(&types.StreamResponse{Message: respMsg}); err != nil {
		return err
	}

	for _, artifact := range artifacts {
		event := &types.TaskArtifactUpdateEvent{
			TaskID:    task.ID,
			ContextID: task.ContextID,
			Artifact:  artifact,
			Append:    true,
		}
		if err := stream.Send(&types.StreamResponse{ArtifactUpdate: event}); err != nil {
			return err
		}
	}

	statusEvent := &types.TaskStatusUpdateEvent{
		TaskID:    task.ID,
		ContextID: task.ContextID,
		Status:    task.Status,
		Final:     true,
	}
	return stream.Send(&types.StreamResponse{StatusUpdate: statusEvent})
}

func (h *SimpleHandler) GetTask(ctx context.Context, req *types.GetTaskRequest) (*types.Task, error) {
	if h.Store == nil {
		return nil, errors.New(errors.CodeInternal, "task store not configured", nil)
	}
	if req.ID == "" {
		return nil, errors.New(errors.CodeInvalidInput, "task id is required", nil)
	}
	return h.Store.GetTask(ctx, req.ID, req.HistoryLength, false)
}

func (h *SimpleHandler) ListTasks(ctx context.Context, req *types.ListTasksRequest) (*types.ListTasksResponse, error) {
	if h.Store == nil {
		return nil, errors.New(errors.CodeInternal, "task store not configured", nil)
	}

	filter := TaskFilter{
		ContextID:        req.ContextID,
		Status:           req.Status,
		PageSize:         req.PageSize,
		HistoryLength:    req.HistoryLength,
		IncludeArtifacts: req.IncludeArtifacts,
	}
	if req.LastUpdatedAfter > 0 {
		filter.LastUpdatedAfter = time.UnixMilli(req.LastUpdatedAfter).UTC()
	}

	tasks, total, err := h.Store.ListTasks(ctx, filter)
	if err != nil {
		return nil, errors.New(errors.CodeInternal, "list tasks failed", err)
	}

	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	return &types.ListTasksResponse{
		Tasks:     tasks,
		PageSize:  pageSize,
		TotalSize: int32(total),
	}, nil
}

func (h *SimpleHandler) CancelTask(ctx context.Context, req *types.CancelTaskRequest) (*types.Task, error) {
	if h.Store == nil {
		return nil, errors.New(errors.CodeInternal, "task store not configured", nil)
	}
	if req.ID == "" {
		return nil, errors.New(errors.CodeInvalidInput, "task id is required", nil)
	}
	return h.Store.CancelTask(ctx, req.ID)
}

func (h *SimpleHandler) GetExtendedAgentCard(ctx context.Context) (*types.AgentCard, error) {
	if h.AgentCard == nil || len(h.AgentCard.Skills) == 0 {
		return nil, errors.New(errors.CodeNotFound, "extended agent card not configured", nil)
	}
	return h.AgentCard, nil
}

func (h *SimpleHandler) ensureTask(ctx context.Context, message *types.Message) (*types.Task, bool, error) {
	if message.TaskID == "" {
		task, err := h.Store.CreateTask(ctx, message)
		if err != nil {
			return nil, false, errors.AsError(err)
		}
		return task, false, nil
	}

	task, err := h.Store.GetTask(ctx, message.TaskID, 0, true)
	if err != nil {
		return nil, false, err
	}
	if task.Status.State.Terminal() {
		return nil, false, errors.New(errors.CodeInvalidInput, "task is in terminal state", nil).
			WithContext("task_id", task.ID).
			WithContext("state", string(task.Status.State))
	}
	message.ContextID = task.ContextID
	if err := h.Store.AppendHistory(ctx, task.ID, message); err != nil {
		return nil, false, errors.AsError(err)
	}
	return task, true, nil
}

func (h *SimpleHandler) executeTask(ctx context.Context, task *types.Task, message *types.Message) (*types.Message, []types.Artifact, error) {
	_ = h.Store.UpdateStatus(ctx, task.ID, newStatus(types.TaskStateWorking, message))

	output, artifacts, err := h.Executor.Run(ctx, message)
	if err != nil {
		failMsg := ResponseMessage(err.Error(), task.ContextID, task.ID)
		_ = h.Store.UpdateStatus(ctx, task.ID, newStatus(types.TaskStateFailed, failMsg))
		return nil, nil, errors.AsError(err)
	}

	respMsg := ResponseMessage(output, task.ContextID, task.ID)
	_ = h.Store.AppendHistory(ctx, task.ID, respMsg)
	if len(artifacts) > 0 {
		_ = h.Store.AddArtifacts(ctx, task.ID, artifacts)
	}

	statusCompleted := newStatus(types.TaskStateCompleted, respMsg)
	_ = h.Store.UpdateStatus(ctx, task.ID, statusCompleted)

	task.Status = statusCompleted
	return respMsg, artifacts, nil
}

var _ Handler = (*SimpleHandler)(nil)

func (h *SimpleHandler) runAsync(taskID string, message *types.Message) {
	ctx := context.Background()
	task, err := h.Store.GetTask(ctx, taskID, 0, true)
	if err != nil {
		return
	}
	_, _, _ = h.executeTask(ctx, task, message)
}
