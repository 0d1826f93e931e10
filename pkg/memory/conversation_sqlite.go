// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

const messageTable = "conversation_messages"

// SQLiteConversation implements ConversationMemory on SQLite, so session
// history survives restarts.
type SQLiteConversation struct {
	db *sql.DB
}

// NewSQLiteConversation creates a SQLite-backed conversation store and ensures schema.
func NewSQLiteConversation(db *sql.DB) (*SQLiteConversation, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`, messageTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_session ON %s(session_id, created_at);`, messageTable, messageTable),
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return nil, err
		}
	}
	return &SQLiteConversation{db: db}, nil
}

// OpenConversation opens (or creates) the SQLite database at path.
func OpenConversation(path string) (*SQLiteConversation, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	return NewSQLiteConversation(db)
}

// Close closes the underlying database handle.
func (s *SQLiteConversation) Close() error {
	return s.db.Close()
}

// AppendMessage adds a message to the conversation.
func (s *SQLiteConversation) AppendMessage(ctx context.Context, sessionID string, msg ConversationMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.SessionID == "" {
		msg.SessionID = sessionID
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (id, session_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)", messageTable),
		msg.ID, msg.SessionID, msg.Role, msg.Content, msg.CreatedAt.UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// GetMessages retrieves all messages for a session, oldest first.
func (s *SQLiteConversation) GetMessages(ctx context.Context, sessionID string) ([]ConversationMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT id, session_id, role, content, created_at FROM %s WHERE session_id = ? ORDER BY created_at", messageTable),
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("select messages: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

// GetRecentMessages retrieves the last N messages for a session, oldest first.
func (s *SQLiteConversation) GetRecentMessages(ctx context.Context, sessionID string, limit int) ([]ConversationMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, session_id, role, content, created_at FROM (
			SELECT id, session_id, role, content, created_at FROM %s
			WHERE session_id = ? ORDER BY created_at DESC LIMIT ?
		) ORDER BY created_at`, messageTable),
		sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("select recent messages: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

// Clear removes all messages for a session.
func (s *SQLiteConversation) Clear(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE session_id = ?", messageTable), sessionID)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func scanMessages(rows *sql.Rows) ([]ConversationMessage, error) {
	var out []ConversationMessage
	for rows.Next() {
		var msg ConversationMessage
		var createdAt int64
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.CreatedAt = time.Unix(0, createdAt)
		out = append(out, msg)
	}
	return out, rows.Err()
}

var _ ConversationMemory = (*SQLiteConversation)(nil)
