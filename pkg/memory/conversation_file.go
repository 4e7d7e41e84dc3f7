// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// FileConversation implements ConversationMemory with file-based storage.
// Each context is stored as a separate JSON file under baseDir. Suitable for
// simple persistence without an external database.
type FileConversation struct {
	mu      sync.RWMutex
	baseDir string
	config  ConversationConfig
}

// NewFileConversation creates a file-based conversation store.
func NewFileConversation(baseDir string, config ConversationConfig) (*FileConversation, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create conversation directory: %w", err)
	}

	return &FileConversation{baseDir: baseDir, config: config}, nil
}

func (f *FileConversation) contextFile(contextID string) string {
	// filepath.Base guards against path traversal in context IDs.
	return filepath.Join(f.baseDir, filepath.Base(contextID)+".json")
}

// AppendMessage adds a message to the context's history.
func (f *FileConversation) AppendMessage(_ context.Context, contextID string, msg ConversationMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fillMessageDefaults(&msg, contextID)

	messages, err := f.loadMessages(contextID)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load messages: %w", err)
	}

	messages = append(messages, msg)
	return f.saveMessages(contextID, messages)
}

// GetMessages returns all messages for a context, applying the configured
// truncation strategy.
func (f *FileConversation) GetMessages(ctx context.Context, contextID string) ([]ConversationMessage, error) {
	f.mu.RLock()
	messages, err := f.loadMessages(contextID)
	f.mu.RUnlock()

	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	if f.config.TruncationStrategy != nil && len(messages) > 0 {
		return f.config.TruncationStrategy.Truncate(ctx, messages)
	}
	return messages, nil
}

// GetRecentMessages returns the last N messages for a context.
func (f *FileConversation) GetRecentMessages(_ context.Context, contextID string, limit int) ([]ConversationMessage, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	messages, err := f.loadMessages(contextID)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	if len(messages) <= limit {
		return messages, nil
	}
	return messages[len(messages)-limit:], nil
}

// Clear removes all messages for a context.
func (f *FileConversation) Clear(_ context.Context, contextID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := os.Remove(f.contextFile(contextID))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// DeleteOldMessages removes messages older than the given duration.
func (f *FileConversation) DeleteOldMessages(_ context.Context, contextID string, olderThan time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	messages, err := f.loadMessages(contextID)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	cutoff := time.Now().Add(-olderThan)
	var kept []ConversationMessage
	for _, msg := range messages {
		if msg.CreatedAt.After(cutoff) {
			kept = append(kept, msg)
		}
	}

	if len(kept) == 0 {
		return os.Remove(f.contextFile(contextID))
	}
	return f.saveMessages(contextID, kept)
}

// ListContexts returns all context IDs with stored history.
func (f *FileConversation) ListContexts() ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	entries, err := os.ReadDir(f.baseDir)
	if err != nil {
		return nil, err
	}

	var contexts []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if filepath.Ext(name) == ".json" {
			contexts = append(contexts, name[:len(name)-5])
		}
	}

	sort.Strings(contexts)
	return contexts, nil
}

func (f *FileConversation) loadMessages(contextID string) ([]ConversationMessage, error) {
	data, err := os.ReadFile(f.contextFile(contextID))
	if err != nil {
		return nil, err
	}

	var messages []ConversationMessage
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("failed to parse conversation file: %w", err)
	}
	return messages, nil
}

func (f *FileConversation) saveMessages(contextID string, messages []ConversationMessage) error {
	data, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}
	return os.WriteFile(f.contextFile(contextID), data, 0o644)
}

var _ ConversationMemory = (*FileConversation)(nil)
