// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

var conversationBackends = []string{"inmemory", "file", "sqlite"}

func conversationUnderTest(t *testing.T, backend string, config ConversationConfig) ConversationMemory {
	t.Helper()

	switch backend {
	case "inmemory":
		return NewInMemoryConversation(config)
	case "file":
		store, err := NewFileConversation(t.TempDir(), config)
		if err != nil {
			t.Fatalf("NewFileConversation failed: %v", err)
		}
		return store
	case "sqlite":
		db, err := OpenConversationDB(filepath.Join(t.TempDir(), "conversations.db"))
		if err != nil {
			t.Fatalf("OpenConversationDB failed: %v", err)
		}
		t.Cleanup(func() { db.Close() })

		store, err := NewSQLiteConversation(SQLiteConversationConfig{DB: db, ConversationConfig: config})
		if err != nil {
			t.Fatalf("NewSQLiteConversation failed: %v", err)
		}
		if err := store.Initialize(context.Background()); err != nil {
			t.Fatalf("Initialize failed: %v", err)
		}
		return store
	default:
		t.Fatalf("unknown backend %q", backend)
		return nil
	}
}

func TestConversation_AppendAndGet(t *testing.T) {
	for _, backend := range conversationBackends {
		t.Run(backend, func(t *testing.T) {
			mem := conversationUnderTest(t, backend, ConversationConfig{})
			ctx := context.Background()
			contextID := "workflow-ctx-1"

			if err := mem.AppendMessage(ctx, contextID, ConversationMessage{Role: "user", Content: "Fetch AAPL data"}); err != nil {
				t.Fatalf("AppendMessage failed: %v", err)
			}
			if err := mem.AppendMessage(ctx, contextID, ConversationMessage{Role: "assistant", Content: "Retrieved 30 days of prices"}); err != nil {
				t.Fatalf("AppendMessage failed: %v", err)
			}

			messages, err := mem.GetMessages(ctx, contextID)
			if err != nil {
				t.Fatalf("GetMessages failed: %v", err)
			}
			if len(messages) != 2 {
				t.Fatalf("expected 2 messages, got %d", len(messages))
			}
			if messages[0].Role != "user" || messages[0].Content != "Fetch AAPL data" {
				t.Errorf("unexpected first message: %+v", messages[0])
			}
			if messages[1].Role != "assistant" || messages[1].Content != "Retrieved 30 days of prices" {
				t.Errorf("unexpected second message: %+v", messages[1])
			}
			if messages[0].ID == "" || messages[0].ContextID != contextID {
				t.Errorf("message defaults not applied: %+v", messages[0])
			}
		})
	}
}

func TestConversation_GetRecentMessages(t *testing.T) {
	for _, backend := range conversationBackends {
		t.Run(backend, func(t *testing.T) {
			mem := conversationUnderTest(t, backend, ConversationConfig{})
			ctx := context.Background()
			contextID := "workflow-ctx-1"

			base := time.Now().Add(-time.Minute)
			for i := 0; i < 5; i++ {
				err := mem.AppendMessage(ctx, contextID, ConversationMessage{
					Role:      "user",
					Content:   string(rune('A' + i)),
					CreatedAt: base.Add(time.Duration(i) * time.Second),
				})
				if err != nil {
					t.Fatalf("AppendMessage failed: %v", err)
				}
			}

			messages, err := mem.GetRecentMessages(ctx, contextID, 3)
			if err != nil {
				t.Fatalf("GetRecentMessages failed: %v", err)
			}
			if len(messages) != 3 {
				t.Fatalf("expected 3 messages, got %d", len(messages))
			}
			if messages[0].Content != "C" || messages[1].Content != "D" || messages[2].Content != "E" {
				t.Errorf("unexpected messages: %+v", messages)
			}
		})
	}
}

func TestConversation_Clear(t *testing.T) {
	for _, backend := range conversationBackends {
		t.Run(backend, func(t *testing.T) {
			mem := conversationUnderTest(t, backend, ConversationConfig{})
			ctx := context.Background()
			contextID := "workflow-ctx-1"

			if err := mem.AppendMessage(ctx, contextID, ConversationMessage{Role: "user", Content: "test"}); err != nil {
				t.Fatalf("AppendMessage failed: %v", err)
			}
			if err := mem.Clear(ctx, contextID); err != nil {
				t.Fatalf("Clear failed: %v", err)
			}

			messages, err := mem.GetMessages(ctx, contextID)
			if err != nil {
				t.Fatalf("GetMessages failed: %v", err)
			}
			if len(messages) != 0 {
				t.Fatalf("expected 0 messages after clear, got %d", len(messages))
			}
		})
	}
}

func TestConversation_DeleteOldMessages(t *testing.T) {
	for _, backend := range conversationBackends {
		t.Run(backend, func(t *testing.T) {
			mem := conversationUnderTest(t, backend, ConversationConfig{})
			ctx := context.Background()
			contextID := "workflow-ctx-1"

			old := ConversationMessage{
				Role:      "user",
				Content:   "old",
				CreatedAt: time.Now().Add(-2 * time.Hour),
			}
			if err := mem.AppendMessage(ctx, contextID, old); err != nil {
				t.Fatalf("AppendMessage failed: %v", err)
			}
			if err := mem.AppendMessage(ctx, contextID, ConversationMessage{Role: "user", Content: "new"}); err != nil {
				t.Fatalf("AppendMessage failed: %v", err)
			}

			if err := mem.DeleteOldMessages(ctx, contextID, time.Hour); err != nil {
				t.Fatalf("DeleteOldMessages failed: %v", err)
			}

			messages, err := mem.GetMessages(ctx, contextID)
			if err != nil {
				t.Fatalf("GetMessages failed: %v", err)
			}
			if len(messages) != 1 {
				t.Fatalf("expected 1 message, got %d", len(messages))
			}
			if messages[0].Content != "new" {
				t.Errorf("wrong message kept: %+v", messages[0])
			}
		})
	}
}

func TestConversation_MultipleContexts(t *testing.T) {
	for _, backend := range conversationBackends {
		t.Run(backend, func(t *testing.T) {
			mem := conversationUnderTest(t, backend, ConversationConfig{})
			ctx := context.Background()

			_ = mem.AppendMessage(ctx, "ctx-1", ConversationMessage{Role: "user", Content: "c1-msg"})
			_ = mem.AppendMessage(ctx, "ctx-2", ConversationMessage{Role: "user", Content: "c2-msg"})

			c1, _ := mem.GetMessages(ctx, "ctx-1")
			c2, _ := mem.GetMessages(ctx, "ctx-2")

			if len(c1) != 1 || c1[0].Content != "c1-msg" {
				t.Errorf("unexpected ctx-1 messages: %+v", c1)
			}
			if len(c2) != 1 || c2[0].Content != "c2-msg" {
				t.Errorf("unexpected ctx-2 messages: %+v", c2)
			}
		})
	}
}

func TestConversation_WithTruncation(t *testing.T) {
	for _, backend := range conversationBackends {
		t.Run(backend, func(t *testing.T) {
			mem := conversationUnderTest(t, backend, ConversationConfig{
				TruncationStrategy: NewWindowStrategy(2, false),
			})
			ctx := context.Background()
			contextID := "workflow-ctx-1"

			base := time.Now().Add(-time.Minute)
			for i := 0; i < 4; i++ {
				_ = mem.AppendMessage(ctx, contextID, ConversationMessage{
					Role:      "user",
					Content:   string(rune('A' + i)),
					CreatedAt: base.Add(time.Duration(i) * time.Second),
				})
			}

			messages, err := mem.GetMessages(ctx, contextID)
			if err != nil {
				t.Fatalf("GetMessages failed: %v", err)
			}
			if len(messages) != 2 {
				t.Fatalf("expected 2 messages after truncation, got %d", len(messages))
			}
			if messages[0].Content != "C" || messages[1].Content != "D" {
				t.Errorf("unexpected truncated messages: %+v", messages)
			}
		})
	}
}

func TestSQLiteConversation_Metadata(t *testing.T) {
	mem := conversationUnderTest(t, "sqlite", ConversationConfig{}).(*SQLiteConversation)
	ctx := context.Background()

	err := mem.AppendMessage(ctx, "ctx-1", ConversationMessage{
		Role:     "tool",
		Content:  `{"rows": 30}`,
		Metadata: map[string]string{"tool": "fetch_market_data"},
	})
	if err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}

	messages, err := mem.GetMessages(ctx, "ctx-1")
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	if len(messages) != 1 || messages[0].Metadata["tool"] != "fetch_market_data" {
		t.Fatalf("metadata not round-tripped: %+v", messages)
	}
}

func TestSQLiteConversation_DeleteOldContexts(t *testing.T) {
	mem := conversationUnderTest(t, "sqlite", ConversationConfig{}).(*SQLiteConversation)
	ctx := context.Background()

	_ = mem.AppendMessage(ctx, "stale", ConversationMessage{
		Role:      "user",
		Content:   "old workflow",
		CreatedAt: time.Now().Add(-48 * time.Hour),
	})
	_ = mem.AppendMessage(ctx, "active", ConversationMessage{Role: "user", Content: "current workflow"})

	removed, err := mem.DeleteOldContexts(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("DeleteOldContexts failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed message, got %d", removed)
	}

	contexts, err := mem.ListContexts(ctx)
	if err != nil {
		t.Fatalf("ListContexts failed: %v", err)
	}
	if len(contexts) != 1 || contexts[0] != "active" {
		t.Fatalf("unexpected contexts: %v", contexts)
	}

	stats, err := mem.Stats(ctx, "active")
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.MessageCount != 1 {
		t.Errorf("expected 1 message in stats, got %d", stats.MessageCount)
	}
}

func TestWindowStrategy(t *testing.T) {
	strategy := NewWindowStrategy(3, false)

	messages := []ConversationMessage{
		{Role: "user", Content: "1"},
		{Role: "assistant", Content: "2"},
		{Role: "user", Content: "3"},
		{Role: "assistant", Content: "4"},
		{Role: "user", Content: "5"},
	}

	result, err := strategy.Truncate(context.Background(), messages)
	if err != nil {
		t.Fatalf("Truncate failed: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(result))
	}
	if result[0].Content != "3" || result[1].Content != "4" || result[2].Content != "5" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestWindowStrategy_KeepSystem(t *testing.T) {
	strategy := NewWindowStrategy(3, true)

	messages := []ConversationMessage{
		{Role: "system", Content: "You are a planner"},
		{Role: "user", Content: "1"},
		{Role: "assistant", Content: "2"},
		{Role: "user", Content: "3"},
		{Role: "assistant", Content: "4"},
	}

	result, err := strategy.Truncate(context.Background(), messages)
	if err != nil {
		t.Fatalf("Truncate failed: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(result))
	}
	if result[0].Role != "system" {
		t.Error("first message should be system")
	}
	if result[1].Content != "3" || result[2].Content != "4" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestTokenStrategy(t *testing.T) {
	strategy := NewTokenStrategy(20, false)
	strategy.TokenCounter = func(msg ConversationMessage) int {
		return len(msg.Content)
	}

	messages := []ConversationMessage{
		{Role: "user", Content: "This is a long message"},
		{Role: "assistant", Content: "Short"},
		{Role: "user", Content: "Also short"},
	}

	result, err := strategy.Truncate(context.Background(), messages)
	if err != nil {
		t.Fatalf("Truncate failed: %v", err)
	}

	// Budget 20: the last two messages (5+10) fit, the first (22) does not.
	if len(result) != 2 {
		t.Fatalf("expected 2 messages, got %d: %+v", len(result), result)
	}
	if result[0].Content != "Short" || result[1].Content != "Also short" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestSummarizationStrategy(t *testing.T) {
	strategy := NewSummarizationStrategy(3, 2, func(_ context.Context, messages []ConversationMessage) (string, error) {
		return "summarized " + string(rune('0'+len(messages))) + " messages", nil
	})

	messages := []ConversationMessage{
		{Role: "user", Content: "1", CreatedAt: time.Unix(1, 0)},
		{Role: "assistant", Content: "2", CreatedAt: time.Unix(2, 0)},
		{Role: "user", Content: "3", CreatedAt: time.Unix(3, 0)},
		{Role: "assistant", Content: "4", CreatedAt: time.Unix(4, 0)},
		{Role: "user", Content: "5", CreatedAt: time.Unix(5, 0)},
	}

	result, err := strategy.Truncate(context.Background(), messages)
	if err != nil {
		t.Fatalf("Truncate failed: %v", err)
	}

	if result[0].Role != "system" || result[0].Metadata["type"] != "summary" {
		t.Fatalf("expected leading summary message, got %+v", result[0])
	}
	last := result[len(result)-1]
	if last.Content != "5" {
		t.Errorf("expected most recent message preserved, got %+v", last)
	}
}
