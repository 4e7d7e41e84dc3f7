package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tradewind-ai/tradewind/pkg/a2a/server"
	"github.com/tradewind-ai/tradewind/pkg/a2a/types"
	"github.com/tradewind-ai/tradewind/pkg/errors"
)

type testHandler struct {
	sendMessage   func(context.Context, *types.SendMessageRequest) (*types.SendMessageResponse, error)
	sendStreaming func(*types.SendMessageRequest, server.Stream) error
	getTask       func(context.Context, *types.GetTaskRequest) (*types.Task, error)
	listTasks     func(context.Context, *types.ListTasksRequest) (*types.ListTasksResponse, error)
	cancelTask    func(context.Context, *types.CancelTaskRequest) (*types.Task, error)
	card          func(context.Context) (*types.AgentCard, error)
}

func (h *testHandler) SendMessage(ctx context.Context, req *types.SendMessageRequest) (*types.SendMessageResponse, error) {
	if h.sendMessage != nil {
		return h.sendMessage(ctx, req)
	}
	return nil, errors.New(errors.CodeInternal, "SendMessage not configured", nil)
}

func (h *testHandler) SendStreamingMessage(req *types.SendMessageRequest, stream server.Stream) error {
	if h.sendStreaming != nil {
		return h.sendStreaming(req, stream)
	}
	return errors.New(errors.CodeInternal, "SendStreamingMessage not configured", nil)
}

func (h *testHandler) GetTask(ctx context.Context, req *types.GetTaskRequest) (*types.Task, error) {
	if h.getTask != nil {
		return h.getTask(ctx, req)
	}
	return nil, errors.New(errors.CodeInternal, "GetTask not configured", nil)
}

func (h *testHandler) ListTasks(ctx context.Context, req *types.ListTasksRequest) (*types.ListTasksResponse, error) {
	if h.listTasks != nil {
		return h.listTasks(ctx, req)
	}
	return nil, errors.New(errors.CodeInternal, "ListTasks not configured", nil)
}

func (h *testHandler) CancelTask(ctx context.Context, req *types.CancelTaskRequest) (*types.Task, error) {
	if h.cancelTask != nil {
		return h.cancelTask(ctx, req)
	}
	return nil, errors.New(errors.CodeInternal, "CancelTask not configured", nil)
}

func (h *testHandler) GetExtendedAgentCard(ctx context.Context) (*types.AgentCard, error) {
	if h.card != nil {
		return h.card(ctx)
	}
	return nil, errors.New(errors.CodeInternal, "GetExtendedAgentCard not configured", nil)
}

func postRPC(t *testing.T, srv *Server, method string, params any) rpcResponse {
	t.Helper()
	raw, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: raw})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body)))

	var resp rpcResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestServeHTTP_SendMessage(t *testing.T) {
	handler := &testHandler{
		sendMessage: func(ctx context.Context, req *types.SendMessageRequest) (*types.SendMessageResponse, error) {
			return &types.SendMessageResponse{
				Task: &types.Task{ID: "task-1", ContextID: "ctx-1"},
			}, nil
		},
	}
	srv := New(handler)

	resp := postRPC(t, srv, "message/send", &types.SendMessageRequest{
		Message: &types.Message{
			MessageID: "msg-1",
			Role:      "user",
			Parts:     []types.Part{types.TextPart("collect BTC data")},
		},
	})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}

	raw, _ := json.Marshal(resp.Result)
	var result types.SendMessageResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Task == nil || result.Task.ID != "task-1" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestServeHTTP_MethodNotFound(t *testing.T) {
	srv := New(&testHandler{})
	resp := postRPC(t, srv, "unknown/method", map[string]any{})
	if resp.Error == nil || resp.Error.Code != -32601 {
		t.Fatalf("expected method not found, got %+v", resp.Error)
	}
}

func TestServeHTTP_InvalidJSON(t *testing.T) {
	srv := New(&testHandler{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json")))

	var resp rpcResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != -32700 {
		t.Fatalf("expected parse error, got %+v", resp.Error)
	}
}

func TestServeHTTP_ErrorCodeMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"not_found", errors.New(errors.CodeNotFound, "task not found", nil), -32004},
		{"invalid_input", errors.New(errors.CodeInvalidInput, "bad request", nil), -32602},
		{"unknown_workflow", errors.New(errors.CodeUnknownWorkflow, "no such workflow", nil), -32004},
		{"internal", errors.New(errors.CodeInternal, "boom", nil), -32000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := New(&testHandler{
				getTask: func(ctx context.Context, req *types.GetTaskRequest) (*types.Task, error) {
					return nil, tc.err
				},
			})
			resp := postRPC(t, srv, "tasks/get", &types.GetTaskRequest{ID: "task-1"})
			if resp.Error == nil || resp.Error.Code != tc.code {
				t.Fatalf("expected code %d, got %+v", tc.code, resp.Error)
			}
		})
	}
}

func TestServeHTTP_Streaming(t *testing.T) {
	handler := &testHandler{
		sendStreaming: func(req *types.SendMessageRequest, stream server.Stream) error {
			if err := stream.Send(&types.StreamResponse{
				Task: &types.Task{ID: "task-1", ContextID: "ctx-1"},
			}); err != nil {
				return err
			}
			return stream.Send(&types.StreamResponse{
				StatusUpdate: &types.TaskStatusUpdateEvent{
					TaskID:    "task-1",
					ContextID: "ctx-1",
					Status:    types.TaskStatus{State: types.TaskStateCompleted},
					Final:     true,
				},
			})
		},
	}
	srv := New(handler)

	raw, _ := json.Marshal(&types.SendMessageRequest{
		Message: &types.Message{
			MessageID: "msg-1",
			Role:      "user",
			Parts:     []types.Part{types.TextPart("hello")},
		},
	})
	body, _ := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: "message/stream", Params: raw})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body)))

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected SSE content type, got %q", ct)
	}
	events := strings.Split(strings.TrimSpace(rec.Body.String()), "\n\n")
	if len(events) != 2 {
		t.Fatalf("expected 2 SSE events, got %d: %q", len(events), rec.Body.String())
	}
	for _, event := range events {
		if !strings.HasPrefix(event, "data: ") {
			t.Fatalf("malformed SSE event: %q", event)
		}
	}

	var last rpcResponse
	if err := json.Unmarshal([]byte(strings.TrimPrefix(events[1], "data: ")), &last); err != nil {
		t.Fatalf("decode final event: %v", err)
	}
	rawResult, _ := json.Marshal(last.Result)
	var streamResp types.StreamResponse
	if err := json.Unmarshal(rawResult, &streamResp); err != nil {
		t.Fatalf("decode stream response: %v", err)
	}
	if streamResp.StatusUpdate == nil || !streamResp.StatusUpdate.Final {
		t.Fatalf("expected final status update, got %+v", streamResp)
	}
}

func TestServeHTTP_RejectsGET(t *testing.T) {
	srv := New(&testHandler{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
