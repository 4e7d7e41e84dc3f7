package server

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/tradewind-ai/tradewind/pkg/a2a/types"
	"github.com/tradewind-ai/tradewind/pkg/errors"
)

var errStub = fmt.Errorf("executor error")

type streamRecorder struct {
	mu   sync.Mutex
	ctx  context.Context
	sent []*types.StreamResponse
}

func newStreamRecorder() *streamRecorder {
	return &streamRecorder{ctx: context.Background()}
}

func (s *streamRecorder) Context() context.Context { return s.ctx }

func (s *streamRecorder) Send(resp *types.StreamResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, resp)
	return nil
}

func (s *streamRecorder) snapshot() []*types.StreamResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*types.StreamResponse, len(s.sent))
	copy(out, s.sent)
	return out
}

type stubExecutor struct {
	Output    any
	Artifacts []types.Artifact
	Err       error
}

func (s *stubExecutor) Run(ctx context.Context, message *types.Message) (any, []types.Artifact, error) {
	return s.Output, s.Artifacts, s.Err
}

func userMsg(id, text string) *types.Message {
	return &types.Message{
		MessageID: id,
		Role:      "user",
		Parts:     []types.Part{types.TextPart(text)},
	}
}

func TestSendMessage_Blocking(t *testing.T) {
	handler := &SimpleHandler{
		Store:    NewMemoryTaskStore(),
		Executor: &stubExecutor{Output: "done"},
	}

	resp, err := handler.SendMessage(context.Background(), &types.SendMessageRequest{
		Message:       userMsg("msg-1", "hello"),
		Configuration: &types.SendMessageConfiguration{Blocking: true},
	})
	if err != nil {
		t.Fatalf("SendMessage error: %v", err)
	}
	if resp.Message == nil {
		t.Fatalf("expected message response, got %+v", resp)
	}
	if got := resp.Message.Text(); got != "done" {
		t.Fatalf("expected response text %q, got %q", "done", got)
	}
	if resp.Message.Role != "agent" {
		t.Fatalf("expected agent role, got %q", resp.Message.Role)
	}
}

func TestSendMessage_NonBlockingReturnsTask(t *testing.T) {
	handler := &SimpleHandler{
		Store:    NewMemoryTaskStore(),
		Executor: &stubExecutor{Output: "done"},
	}

	resp, err := handler.SendMessage(context.Background(), &types.SendMessageRequest{
		Message: userMsg("msg-1", "hello"),
	})
	if err != nil {
		t.Fatalf("SendMessage error: %v", err)
	}
	if resp.Task == nil {
		t.Fatalf("expected task response, got %+v", resp)
	}
	if resp.Task.Status.State != types.TaskStateSubmitted {
		t.Fatalf("expected submitted state, got %q", resp.Task.Status.State)
	}
}

func TestSendMessage_InvalidMessage(t *testing.T) {
	handler := &SimpleHandler{
		Store:    NewMemoryTaskStore(),
		Executor: &stubExecutor{Output: "done"},
	}

	_, err := handler.SendMessage(context.Background(), &types.SendMessageRequest{
		Message: &types.Message{MessageID: "msg-1"},
	})
	if err == nil {
		t.Fatalf("expected error for message without parts")
	}
	if errors.CodeOf(err) != errors.CodeInvalidInput {
		t.Fatalf("expected invalid input code, got %s", errors.CodeOf(err))
	}
}

func TestSendMessage_ExecutorFailureMarksTaskFailed(t *testing.T) {
	store := NewMemoryTaskStore()
	handler := &SimpleHandler{
		Store:    store,
		Executor: &stubExecutor{Err: errStub},
	}

	_, err := handler.SendMessage(context.Background(), &types.SendMessageRequest{
		Message:       userMsg("msg-1", "hello"),
		Configuration: &types.SendMessageConfiguration{Blocking: true},
	})
	if err == nil {
		t.Fatalf("expected executor error")
	}

	tasks, _, listErr := store.ListTasks(context.Background(), TaskFilter{Status: types.TaskStateFailed})
	if listErr != nil {
		t.Fatalf("ListTasks error: %v", listErr)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 failed task, got %d", len(tasks))
	}
}

func TestSendStreamingMessage_Order(t *testing.T) {
	handler := &SimpleHandler{
		Store: NewMemoryTaskStore(),
		Executor: &stubExecutor{
			Output: "ok",
			Artifacts: []types.Artifact{
				{ArtifactID: "art-1", Parts: []types.Part{types.TextPart("report")}},
			},
		},
	}

	stream := newStreamRecorder()
	err := handler.SendStreamingMessage(&types.SendMessageRequest{
		Message: userMsg("msg-1", "hello"),
	}, stream)
	if err != nil {
		t.Fatalf("SendStreamingMessage error: %v", err)
	}

	responses := stream.snapshot()
	if len(responses) != 4 {
		t.Fatalf("expected 4 stream responses, got %d", len(responses))
	}
	if responses[0].Task == nil {
		t.Fatalf("expected task as first stream response")
	}
	if responses[1].Message == nil {
		t.Fatalf("expected message as second stream response")
	}
	if responses[2].ArtifactUpdate == nil || responses[2].ArtifactUpdate.Artifact.ArtifactID != "art-1" {
		t.Fatalf("expected artifact update as third stream response")
	}
	final := responses[3].StatusUpdate
	if final == nil || !final.Final {
		t.Fatalf("expected final status update as last response")
	}
	if final.Status.State != types.TaskStateCompleted {
		t.Fatalf("expected completed state, got %q", final.Status.State)
	}
}

func TestSendMessage_TerminalTaskRejected(t *testing.T) {
	store := NewMemoryTaskStore()
	handler := &SimpleHandler{
		Store:    store,
		Executor: &stubExecutor{Output: "ok"},
	}

	task, err := store.CreateTask(context.Background(), userMsg("msg-1", "hello"))
	if err != nil {
		t.Fatalf("CreateTask error: %v", err)
	}
	if _, err := store.CancelTask(context.Background(), task.ID); err != nil {
		t.Fatalf("CancelTask error: %v", err)
	}

	followUp := userMsg("msg-2", "continue")
	followUp.TaskID = task.ID
	_, err = handler.SendMessage(context.Background(), &types.SendMessageRequest{
		Message:       followUp,
		Configuration: &types.SendMessageConfiguration{Blocking: true},
	})
	if err == nil {
		t.Fatalf("expected error for terminal task")
	}
}

func TestGetTask_NotFound(t *testing.T) {
	handler := &SimpleHandler{Store: NewMemoryTaskStore(), Executor: &stubExecutor{}}

	_, err := handler.GetTask(context.Background(), &types.GetTaskRequest{ID: "missing"})
	if errors.CodeOf(err) != errors.CodeNotFound {
		t.Fatalf("expected not found code, got %v", err)
	}
}

func TestCancelTask(t *testing.T) {
	handler := &SimpleHandler{Store: NewMemoryTaskStore(), Executor: &stubExecutor{Output: "ok"}}

	task, err := handler.Store.CreateTask(context.Background(), userMsg("msg-1", "hello"))
	if err != nil {
		t.Fatalf("CreateTask error: %v", err)
	}

	cancelled, err := handler.CancelTask(context.Background(), &types.CancelTaskRequest{ID: task.ID})
	if err != nil {
		t.Fatalf("CancelTask error: %v", err)
	}
	if cancelled.Status.State != types.TaskStateCancelled {
		t.Fatalf("expected cancelled state, got %q", cancelled.Status.State)
	}
}

func TestGetExtendedAgentCard(t *testing.T) {
	handler := &SimpleHandler{Store: NewMemoryTaskStore(), Executor: &stubExecutor{}}

	if _, err := handler.GetExtendedAgentCard(context.Background()); err == nil {
		t.Fatalf("expected error without card")
	}

	handler.AgentCard = &types.AgentCard{
		Name:   "SupervisorAgent",
		Skills: []types.AgentSkill{{ID: "automation_orchestrator", Name: "Workflow orchestration"}},
	}
	card, err := handler.GetExtendedAgentCard(context.Background())
	if err != nil {
		t.Fatalf("GetExtendedAgentCard error: %v", err)
	}
	if card.Name != "SupervisorAgent" {
		t.Fatalf("unexpected card name %q", card.Name)
	}
}

func TestResponseMessage_DataOutput(t *testing.T) {
	msg := ResponseMessage(map[string]any{"workflow_id": "wf-1"}, "ctx-1", "task-1")
	if msg.Data() == nil {
		t.Fatalf("expected data part")
	}
	if msg.ContextID != "ctx-1" || msg.TaskID != "task-1" {
		t.Fatalf("expected ids propagated, got %+v", msg)
	}
}
