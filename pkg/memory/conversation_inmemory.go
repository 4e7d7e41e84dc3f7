// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryConversation implements ConversationMemory with in-process storage.
// Suitable for development, tests, and single-instance supervisors. Data is
// lost on restart.
type InMemoryConversation struct {
	mu       sync.RWMutex
	contexts map[string][]ConversationMessage
	config   ConversationConfig
}

// NewInMemoryConversation creates an in-memory conversation store.
func NewInMemoryConversation(config ConversationConfig) *InMemoryConversation {
	return &InMemoryConversation{
		contexts: make(map[string][]ConversationMessage),
		config:   config,
	}
}

// AppendMessage adds a message to the context's history.
func (m *InMemoryConversation) AppendMessage(_ context.Context, contextID string, msg ConversationMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	fillMessageDefaults(&msg, contextID)
	m.contexts[contextID] = append(m.contexts[contextID], msg)
	return nil
}

// GetMessages returns all messages for a context, applying the configured
// truncation strategy.
func (m *InMemoryConversation) GetMessages(ctx context.Context, contextID string) ([]ConversationMessage, error) {
	m.mu.RLock()
	messages := make([]ConversationMessage, len(m.contexts[contextID]))
	copy(messages, m.contexts[contextID])
	m.mu.RUnlock()

	if m.config.TruncationStrategy != nil && len(messages) > 0 {
		return m.config.TruncationStrategy.Truncate(ctx, messages)
	}
	return messages, nil
}

// GetRecentMessages returns the last N messages for a context.
func (m *InMemoryConversation) GetRecentMessages(_ context.Context, contextID string, limit int) ([]ConversationMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.contexts[contextID]
	if len(all) <= limit {
		result := make([]ConversationMessage, len(all))
		copy(result, all)
		return result, nil
	}

	result := make([]ConversationMessage, limit)
	copy(result, all[len(all)-limit:])
	return result, nil
}

// Clear removes all messages for a context.
func (m *InMemoryConversation) Clear(_ context.Context, contextID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.contexts, contextID)
	return nil
}

// DeleteOldMessages removes messages older than the given duration.
func (m *InMemoryConversation) DeleteOldMessages(_ context.Context, contextID string, olderThan time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	messages, ok := m.contexts[contextID]
	if !ok {
		return nil
	}

	cutoff := time.Now().Add(-olderThan)
	var kept []ConversationMessage
	for _, msg := range messages {
		if msg.CreatedAt.After(cutoff) {
			kept = append(kept, msg)
		}
	}

	m.contexts[contextID] = kept
	return nil
}

// ListContexts returns all context IDs with stored history.
func (m *InMemoryConversation) ListContexts() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.contexts))
	for id := range m.contexts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// MessageCount returns the number of messages stored for a context.
func (m *InMemoryConversation) MessageCount(contextID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.contexts[contextID])
}

func fillMessageDefaults(msg *ConversationMessage, contextID string) {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.ContextID == "" {
		msg.ContextID = contextID
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
}

var _ ConversationMemory = (*InMemoryConversation)(nil)
