// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"sync"
)

// MockProvider is a configurable in-memory Provider for tests. Zero value
// returns an empty response; set Response, ToolCalls, or Err to shape the
// reply, or ChatFunc to take over entirely. Requests records every call for
// assertions.
type MockProvider struct {
	Response  string
	ToolCalls []ToolCall
	Err       error
	ChatFunc  func(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	mu       sync.Mutex
	Requests []ChatRequest
}

func (m *MockProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()

	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, req)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}

	prompt := 0
	for _, msg := range req.Messages {
		prompt += approxTokens(msg.Content)
	}
	completion := approxTokens(m.Response)
	return &ChatResponse{
		Content:   m.Response,
		ToolCalls: m.ToolCalls,
		Usage: Usage{
			PromptTokens:     prompt,
			CompletionTokens: completion,
			TotalTokens:      prompt + completion,
		},
	}, nil
}

// CallCount returns how many times Chat has been invoked.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// Rough 4-chars-per-token rule, good enough for usage assertions.
func approxTokens(text string) int {
	if text == "" {
		return 0
	}
	return len(text)/4 + 1
}
