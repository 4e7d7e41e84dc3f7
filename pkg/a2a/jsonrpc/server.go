// Package jsonrpc exposes the JSON-RPC 2.0 binding of the A2A method surface,
// including the SSE encoding of streaming methods.
package jsonrpc

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/tradewind-ai/tradewind/pkg/a2a/server"
	"github.com/tradewind-ai/tradewind/pkg/a2a/types"
	"github.com/tradewind-ai/tradewind/pkg/errors"
)

// Server exposes the JSON-RPC binding for A2A handlers.
type Server struct {
	Handler server.Handler
}

// New creates a new JSON-RPC server wrapper.
func New(handler server.Handler) *Server {
	return &Server{Handler: handler}
}

// ServeHTTP handles JSON-RPC 2.0 requests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.Handler == nil {
		writeError(w, rpcError{Code: -32001, Message: "handler not configured"})
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, rpcError{Code: -32700, Message: "invalid json"})
		return
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		writeError(w, rpcError{Code: -32600, Message: "invalid request"})
		return
	}
	switch req.Method {
	case "message/send", "SendMessage":
		s.handleSendMessage(w, r, req)
	case "message/stream", "SendStreamingMessage":
		s.handleSendStreamingMessage(w, r, req)
	case "tasks/get", "GetTask":
		s.handleGetTask(w, r, req)
	case "tasks/list", "ListTasks":
		s.handleListTasks(w, r, req)
	case "tasks/cancel", "CancelTask":
		s.handleCancelTask(w, r, req)
	case "agent/getAuthenticatedExtendedCard", "GetExtendedAgentCard":
		s.handleExtendedAgentCard(w, r, req)
	default:
		writeError(w, rpcError{Code: -32601, Message: "method not found"})
	}
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request, req rpcRequest) {
	payload := &types.SendMessageRequest{}
	if err := decodeParams(req.Params, payload); err != nil {
		writeError(w, rpcError{Code: -32602, Message: err.Error()})
		return
	}
	resp, err := s.Handler.SendMessage(r.Context(), payload)
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeResult(w, req.ID, resp)
}

func (s *Server) handleSendStreamingMessage(w http.ResponseWriter, r *http.Request, req rpcRequest) {
	payload := &types.SendMessageRequest{}
	if err := decodeParams(req.Params, payload); err != nil {
		writeError(w, rpcError{Code: -32602, Message: err.Error()})
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeRPCError(w, errors.New(errors.CodeInternal, "streaming not supported", nil))
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	stream := &rpcStream{ctx: r.Context(), w: w, f: flusher, id: req.ID}
	if err := s.Handler.SendStreamingMessage(payload, stream); err != nil {
		// Headers are already sent; report the failure in-band on the stream.
		_ = stream.sendError(err)
	}
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request, req rpcRequest) {
	payload := &types.GetTaskRequest{}
	if err := decodeParams(req.Params, payload); err != nil {
		writeError(w, rpcError{Code: -32602, Message: err.Error()})
		return
	}
	resp, err := s.Handler.GetTask(r.Context(), payload)
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeResult(w, req.ID, resp)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request, req rpcRequest) {
	payload := &types.ListTasksRequest{}
	if len(req.Params) > 0 {
		if err := decodeParams(req.Params, payload); err != nil {
			writeError(w, rpcError{Code: -32602, Message: err.Error()})
			return
		}
	}
	resp, err := s.Handler.ListTasks(r.Context(), payload)
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeResult(w, req.ID, resp)
}

func (s *Server) handleCancelTask(w http.ResponseWriter, r *http.Request, req rpcRequest) {
	payload := &types.CancelTaskRequest{}
	if err := decodeParams(req.Params, payload); err != nil {
		writeError(w, rpcError{Code: -32602, Message: err.Error()})
		return
	}
	resp, err := s.Handler.CancelTask(r.Context(), payload)
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeResult(w, req.ID, resp)
}

func (s *Server) handleExtendedAgentCard(w http.ResponseWriter, r *http.Request, req rpcRequest) {
	resp, err := s.Handler.GetExtendedAgentCard(r.Context())
	if err != nil {
		writeRPCError(w, err)
		return
	}
	writeResult(w, req.ID, resp)
}

func decodeParams(params json.RawMessage, target any) error {
	if len(params) == 0 {
		return errors.New(errors.CodeInvalidInput, "missing params", nil)
	}
	return json.Unmarshal(params, target)
}

func writeResult(w http.ResponseWriter, id any, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		writeRPCError(w, errors.New(errors.CodeInternal, err.Error(), err))
		return
	}
	writeJSON(w, rpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  json.RawMessage(raw),
	})
}

func writeRPCError(w http.ResponseWriter, err error) {
	writeError(w, toRPCError(err))
}

func toRPCError(err error) rpcError {
	code := -32000
	switch errors.CodeOf(err) {
	case errors.CodeInvalidInput:
		code = -32602
	case errors.CodeNotFound, errors.CodeUnknownWorkflow:
		code = -32004
	case errors.CodeUnauthorized:
		code = -32001
	case errors.CodeDuplicateWorkflow:
		code = -32002
	}
	return rpcError{Code: code, Message: err.Error()}
}

func writeError(w http.ResponseWriter, err rpcError) {
	writeJSON(w, rpcResponse{JSONRPC: "2.0", Error: &err})
}

func writeJSON(w http.ResponseWriter, payload rpcResponse) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id,omitempty"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcStream struct {
	ctx context.Context
	w   http.ResponseWriter
	f   http.Flusher
	id  any
}

func (s *rpcStream) Context() context.Context {
	return s.ctx
}

func (s *rpcStream) Send(resp *types.StreamResponse) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return s.writeEvent(rpcResponse{
		JSONRPC: "2.0",
		ID:      s.id,
		Result:  json.RawMessage(payload),
	})
}

func (s *rpcStream) sendError(err error) error {
	rpcErr := toRPCError(err)
	return s.writeEvent(rpcResponse{
		JSONRPC: "2.0",
		ID:      s.id,
		Error:   &rpcErr,
	})
}

func (s *rpcStream) writeEvent(resp rpcResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	if _, err := s.w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := s.w.Write(data); err != nil {
		return err
	}
	if _, err := s.w.Write([]byte("\n\n")); err != nil {
		return err
	}
	s.f.Flush()
	return nil
}
