// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	_ "modernc.org/sqlite"
)

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func sanitizeTableName(table string) (string, error) {
	if table == "" {
		return "", fmt.Errorf("table name is required")
	}
	if !tableNamePattern.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// SQLiteConversation implements ConversationMemory on SQLite, giving
// conversation history that survives supervisor restarts without an
// external database server.
type SQLiteConversation struct {
	db     *sql.DB
	table  string
	config ConversationConfig
}

// SQLiteConversationConfig configures the SQLite conversation store.
type SQLiteConversationConfig struct {
	// DB is the database handle. Required.
	DB *sql.DB
	// TableName is the table to use. Default: "conversation_messages".
	TableName string
	// ConversationConfig for truncation and TTL.
	ConversationConfig ConversationConfig
}

// OpenConversationDB opens (or creates) a SQLite database file for
// conversation storage.
func OpenConversationDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open conversation database: %w", err)
	}
	// modernc.org/sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent appends.
	db.SetMaxOpenConns(1)
	return db, nil
}

// NewSQLiteConversation creates a SQLite conversation store.
// Call Initialize to create the table if it doesn't exist.
func NewSQLiteConversation(cfg SQLiteConversationConfig) (*SQLiteConversation, error) {
	if cfg.DB == nil {
		return nil, fmt.Errorf("database handle is required")
	}

	table := cfg.TableName
	if table == "" {
		table = "conversation_messages"
	}
	table, err := sanitizeTableName(table)
	if err != nil {
		return nil, err
	}

	return &SQLiteConversation{
		db:     cfg.DB,
		table:  table,
		config: cfg.ConversationConfig,
	}, nil
}

// Initialize creates the conversation table and indexes if they don't exist.
func (s *SQLiteConversation) Initialize(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			id TEXT PRIMARY KEY,
			context_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			tool_call_id TEXT,
			metadata TEXT,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%[1]s_context ON %[1]s (context_id);
		CREATE INDEX IF NOT EXISTS idx_%[1]s_context_created ON %[1]s (context_id, created_at, id);
	`, s.table)

	_, err := s.db.ExecContext(ctx, query)
	return err
}

// AppendMessage adds a message to the context's history.
func (s *SQLiteConversation) AppendMessage(ctx context.Context, contextID string, msg ConversationMessage) error {
	fillMessageDefaults(&msg, contextID)

	var metadataJSON []byte
	if msg.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(msg.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, context_id, role, content, tool_call_id, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, s.table)

	_, err := s.db.ExecContext(ctx, query,
		msg.ID,
		contextID,
		msg.Role,
		msg.Content,
		sql.NullString{String: msg.ToolCallID, Valid: msg.ToolCallID != ""},
		metadataJSON,
		msg.CreatedAt.UnixMilli(),
	)
	return err
}

// GetMessages returns all messages for a context, applying the configured
// truncation strategy.
func (s *SQLiteConversation) GetMessages(ctx context.Context, contextID string) ([]ConversationMessage, error) {
	query := fmt.Sprintf(`
		SELECT id, context_id, role, content, tool_call_id, metadata, created_at
		FROM %s
		WHERE context_id = ?
		ORDER BY created_at ASC, rowid ASC
	`, s.table)

	messages, err := s.queryMessages(ctx, query, contextID)
	if err != nil {
		return nil, err
	}

	if s.config.TruncationStrategy != nil && len(messages) > 0 {
		return s.config.TruncationStrategy.Truncate(ctx, messages)
	}
	return messages, nil
}

// GetRecentMessages returns the last N messages for a context, in
// chronological order.
func (s *SQLiteConversation) GetRecentMessages(ctx context.Context, contextID string, limit int) ([]ConversationMessage, error) {
	query := fmt.Sprintf(`
		SELECT id, context_id, role, content, tool_call_id, metadata, created_at
		FROM (
			SELECT rowid AS rid, id, context_id, role, content, tool_call_id, metadata, created_at
			FROM %s
			WHERE context_id = ?
			ORDER BY created_at DESC, rid DESC
			LIMIT ?
		)
		ORDER BY created_at ASC, rid ASC
	`, s.table)

	return s.queryMessages(ctx, query, contextID, limit)
}

// Clear removes all messages for a context.
func (s *SQLiteConversation) Clear(ctx context.Context, contextID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE context_id = ?`, s.table)
	_, err := s.db.ExecContext(ctx, query, contextID)
	return err
}

// DeleteOldMessages removes messages older than the given duration.
func (s *SQLiteConversation) DeleteOldMessages(ctx context.Context, contextID string, olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan).UnixMilli()
	query := fmt.Sprintf(`DELETE FROM %s WHERE context_id = ? AND created_at < ?`, s.table)
	_, err := s.db.ExecContext(ctx, query, contextID, cutoff)
	return err
}

// DeleteOldContexts removes all messages from contexts inactive for the given
// duration. Returns the number of messages removed.
func (s *SQLiteConversation) DeleteOldContexts(ctx context.Context, inactive time.Duration) (int64, error) {
	cutoff := time.Now().Add(-inactive).UnixMilli()
	query := fmt.Sprintf(`
		DELETE FROM %[1]s
		WHERE context_id IN (
			SELECT context_id FROM %[1]s
			GROUP BY context_id
			HAVING MAX(created_at) < ?
		)
	`, s.table)

	result, err := s.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ListContexts returns all context IDs with stored history.
func (s *SQLiteConversation) ListContexts(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT DISTINCT context_id FROM %s ORDER BY context_id`, s.table)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contexts []string
	for rows.Next() {
		var contextID string
		if err := rows.Scan(&contextID); err != nil {
			return nil, err
		}
		contexts = append(contexts, contextID)
	}
	return contexts, rows.Err()
}

// ContextStats summarizes stored history for a context.
type ContextStats struct {
	ContextID    string
	MessageCount int
	FirstMessage time.Time
	LastMessage  time.Time
}

// Stats returns message statistics for a context.
func (s *SQLiteConversation) Stats(ctx context.Context, contextID string) (*ContextStats, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(*), MIN(created_at), MAX(created_at)
		FROM %s
		WHERE context_id = ?
	`, s.table)

	stats := &ContextStats{ContextID: contextID}

	var first, last sql.NullInt64
	if err := s.db.QueryRowContext(ctx, query, contextID).Scan(&stats.MessageCount, &first, &last); err != nil {
		return nil, err
	}

	if first.Valid {
		stats.FirstMessage = time.UnixMilli(first.Int64)
	}
	if last.Valid {
		stats.LastMessage = time.UnixMilli(last.Int64)
	}
	return stats, nil
}

// Close closes the underlying database handle.
func (s *SQLiteConversation) Close() error {
	return s.db.Close()
}

func (s *SQLiteConversation) queryMessages(ctx context.Context, query string, args ...any) ([]ConversationMessage, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []ConversationMessage
	for rows.Next() {
		var (
			msg          ConversationMessage
			toolCallID   sql.NullString
			metadataJSON []byte
			createdAt    int64
		)

		if err := rows.Scan(&msg.ID, &msg.ContextID, &msg.Role, &msg.Content, &toolCallID, &metadataJSON, &createdAt); err != nil {
			return nil, err
		}

		if toolCallID.Valid {
			msg.ToolCallID = toolCallID.String
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &msg.Metadata); err != nil {
				msg.Metadata = nil
			}
		}
		msg.CreatedAt = time.UnixMilli(createdAt)

		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

var _ ConversationMemory = (*SQLiteConversation)(nil)
