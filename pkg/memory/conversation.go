// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

// Package memory provides memory backends for agents: ordered conversation
// history keyed by workflow context, and semantic (vector) recall.
package memory

import (
	"context"
	"strconv"
	"time"
)

// ConversationMessage is a single entry in a workflow conversation history.
type ConversationMessage struct {
	ID         string            `json:"id"`
	ContextID  string            `json:"context_id"`
	Role       string            `json:"role"` // system, user, assistant, tool
	Content    string            `json:"content"`
	ToolCallID string            `json:"tool_call_id,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// ConversationMemory stores ordered message history per workflow context.
// Unlike the semantic Memory interface (vector retrieval), conversation
// memory preserves exact sequence for multi-turn interactions.
type ConversationMemory interface {
	// AppendMessage adds a message to the context's history.
	AppendMessage(ctx context.Context, contextID string, msg ConversationMessage) error

	// GetMessages returns all messages for a context, ordered by creation time.
	GetMessages(ctx context.Context, contextID string) ([]ConversationMessage, error)

	// GetRecentMessages returns the last N messages for a context.
	GetRecentMessages(ctx context.Context, contextID string, limit int) ([]ConversationMessage, error)

	// Clear removes all messages for a context.
	Clear(ctx context.Context, contextID string) error

	// DeleteOldMessages removes messages older than the given duration.
	DeleteOldMessages(ctx context.Context, contextID string, olderThan time.Duration) error
}

// TruncationStrategy bounds conversation length when history is loaded.
type TruncationStrategy interface {
	// Truncate reduces messages while preserving as much context as possible.
	Truncate(ctx context.Context, messages []ConversationMessage) ([]ConversationMessage, error)
}

// splitSystem partitions messages into system messages and the rest,
// preserving order within each group.
func splitSystem(messages []ConversationMessage) (system, other []ConversationMessage) {
	for _, msg := range messages {
		if msg.Role == "system" {
			system = append(system, msg)
		} else {
			other = append(other, msg)
		}
	}
	return system, other
}

// WindowStrategy keeps only the last N messages.
type WindowStrategy struct {
	MaxMessages int
	// KeepSystemMessages preserves system messages regardless of window.
	KeepSystemMessages bool
}

// NewWindowStrategy creates a window-based truncation strategy.
func NewWindowStrategy(maxMessages int, keepSystem bool) *WindowStrategy {
	return &WindowStrategy{MaxMessages: maxMessages, KeepSystemMessages: keepSystem}
}

// Truncate implements TruncationStrategy.
func (w *WindowStrategy) Truncate(_ context.Context, messages []ConversationMessage) ([]ConversationMessage, error) {
	if len(messages) <= w.MaxMessages {
		return messages, nil
	}

	if !w.KeepSystemMessages {
		return messages[len(messages)-w.MaxMessages:], nil
	}

	system, other := splitSystem(messages)

	available := w.MaxMessages - len(system)
	if available < 0 {
		available = 0
	}
	if len(other) > available {
		other = other[len(other)-available:]
	}

	result := make([]ConversationMessage, 0, len(system)+len(other))
	result = append(result, system...)
	result = append(result, other...)
	return result, nil
}

// TokenStrategy keeps the most recent messages that fit a token budget.
type TokenStrategy struct {
	MaxTokens int
	// TokenCounter estimates tokens for a message. If nil, len(content)/4 is used.
	TokenCounter func(msg ConversationMessage) int
	// KeepSystemMessages charges system messages against the budget first
	// and never drops them.
	KeepSystemMessages bool
}

// NewTokenStrategy creates a token-budget truncation strategy.
func NewTokenStrategy(maxTokens int, keepSystem bool) *TokenStrategy {
	return &TokenStrategy{MaxTokens: maxTokens, KeepSystemMessages: keepSystem}
}

// Truncate implements TruncationStrategy.
func (t *TokenStrategy) Truncate(_ context.Context, messages []ConversationMessage) ([]ConversationMessage, error) {
	counter := t.TokenCounter
	if counter == nil {
		counter = func(msg ConversationMessage) int {
			return len(msg.Content) / 4
		}
	}

	total := 0
	for _, msg := range messages {
		total += counter(msg)
	}
	if total <= t.MaxTokens {
		return messages, nil
	}

	var system, other []ConversationMessage
	systemTokens := 0
	if t.KeepSystemMessages {
		system, other = splitSystem(messages)
		for _, msg := range system {
			systemTokens += counter(msg)
		}
	} else {
		other = messages
	}

	budget := t.MaxTokens - systemTokens
	if budget < 0 {
		budget = 0
	}

	// Walk backwards from the most recent message until the budget is spent.
	var kept []ConversationMessage
	used := 0
	for i := len(other) - 1; i >= 0; i-- {
		msgTokens := counter(other[i])
		if used+msgTokens > budget {
			break
		}
		kept = append([]ConversationMessage{other[i]}, kept...)
		used += msgTokens
	}

	result := make([]ConversationMessage, 0, len(system)+len(kept))
	result = append(result, system...)
	result = append(result, kept...)
	return result, nil
}

// SummarizationStrategy collapses the oldest messages into a summary message
// once the history exceeds MaxMessages.
type SummarizationStrategy struct {
	// MaxMessages triggers summarization when exceeded.
	MaxMessages int
	// SummarizeCount is how many old messages to fold into one summary.
	SummarizeCount int
	// Summarizer generates a summary from messages. Required.
	Summarizer func(ctx context.Context, messages []ConversationMessage) (string, error)
	// KeepSystemMessages excludes system messages from summarization.
	KeepSystemMessages bool
}

// NewSummarizationStrategy creates a summarization-based truncation strategy.
func NewSummarizationStrategy(maxMessages, summarizeCount int, summarizer func(ctx context.Context, messages []ConversationMessage) (string, error)) *SummarizationStrategy {
	return &SummarizationStrategy{
		MaxMessages:        maxMessages,
		SummarizeCount:     summarizeCount,
		Summarizer:         summarizer,
		KeepSystemMessages: true,
	}
}

// Truncate implements TruncationStrategy.
func (s *SummarizationStrategy) Truncate(ctx context.Context, messages []ConversationMessage) ([]ConversationMessage, error) {
	if len(messages) <= s.MaxMessages || s.Summarizer == nil {
		return messages, nil
	}

	var system, other []ConversationMessage
	if s.KeepSystemMessages {
		system, other = splitSystem(messages)
	} else {
		other = messages
	}

	if len(other) <= s.MaxMessages {
		result := make([]ConversationMessage, 0, len(system)+len(other))
		result = append(result, system...)
		result = append(result, other...)
		return result, nil
	}

	toSummarize := s.SummarizeCount
	if toSummarize > len(other)-s.MaxMessages {
		toSummarize = len(other) - s.MaxMessages + 1 // +1 leaves room for the summary itself
	}
	if toSummarize < 2 {
		toSummarize = 2
	}

	oldest := other[:toSummarize]
	rest := other[toSummarize:]

	summary, err := s.Summarizer(ctx, oldest)
	if err != nil {
		// Keep the full history rather than lose messages.
		return messages, err
	}

	summaryMsg := ConversationMessage{
		Role:      "system",
		Content:   "[Previous conversation summary]\n" + summary,
		CreatedAt: oldest[0].CreatedAt,
		Metadata:  map[string]string{"type": "summary", "summarized_count": strconv.Itoa(toSummarize)},
	}

	result := make([]ConversationMessage, 0, len(system)+1+len(rest))
	result = append(result, system...)
	result = append(result, summaryMsg)
	result = append(result, rest...)
	return result, nil
}

// ConversationConfig configures conversation memory behavior.
type ConversationConfig struct {
	// TruncationStrategy to apply when loading messages. Optional.
	TruncationStrategy TruncationStrategy
	// DefaultContextTTL is how long to keep inactive contexts. Zero means forever.
	DefaultContextTTL time.Duration
}
