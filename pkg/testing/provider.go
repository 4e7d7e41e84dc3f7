// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package testing

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/tradewind-ai/tradewind/pkg/llm"
)

// ScenarioProvider is a scripted llm.Provider: queued responses are returned
// in order and every request is captured for assertions.
type ScenarioProvider struct {
	mu        sync.Mutex
	responses []ScriptedResponse
	next      int
	requests  []llm.ChatRequest
}

// ScriptedResponse is one queued provider turn.
type ScriptedResponse struct {
	Content   string
	ToolCalls []llm.ToolCall
	Err       error
}

func NewScenarioProvider() *ScenarioProvider {
	return &ScenarioProvider{}
}

// Reply queues a plain text response.
func (p *ScenarioProvider) Reply(content string) *ScenarioProvider {
	return p.queue(ScriptedResponse{Content: content})
}

// ReplyToolCalls queues a response that requests tool calls.
func (p *ScenarioProvider) ReplyToolCalls(calls ...llm.ToolCall) *ScenarioProvider {
	return p.queue(ScriptedResponse{ToolCalls: calls})
}

// ReplyError queues a provider failure.
func (p *ScenarioProvider) ReplyError(err error) *ScenarioProvider {
	return p.queue(ScriptedResponse{Err: err})
}

func (p *ScenarioProvider) queue(resp ScriptedResponse) *ScenarioProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responses = append(p.responses, resp)
	return p
}

// Chat implements llm.Provider.
func (p *ScenarioProvider) Chat(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.requests = append(p.requests, req)
	if p.next >= len(p.responses) {
		return nil, fmt.Errorf("no scripted response for call %d", p.next+1)
	}
	resp := p.responses[p.next]
	p.next++

	if resp.Err != nil {
		return nil, resp.Err
	}
	return &llm.ChatResponse{Content: resp.Content, ToolCalls: resp.ToolCalls}, nil
}

// Requests returns every captured request.
func (p *ScenarioProvider) Requests() []llm.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]llm.ChatRequest, len(p.requests))
	copy(out, p.requests)
	return out
}

// LastRequest returns the most recent request, or nil.
func (p *ScenarioProvider) LastRequest() *llm.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.requests) == 0 {
		return nil
	}
	req := p.requests[len(p.requests)-1]
	return &req
}

// CallCount returns how many Chat calls were made.
func (p *ScenarioProvider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

// ToolCall builds an llm.ToolCall with JSON-encoded arguments.
func ToolCall(id, name string, args map[string]any) llm.ToolCall {
	encoded, _ := json.Marshal(args)
	return llm.ToolCall{
		ID:   id,
		Type: llm.ToolTypeFunction,
		Function: llm.FunctionCall{
			Name:      name,
			Arguments: string(encoded),
		},
	}
}
