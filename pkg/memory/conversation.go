// SPDX-License-Identifier: Apache-2.0

// Package memory provides conversation history and vector memory backends.
package memory

import (
	"context"
	"time"
)

// ConversationMessage represents a single message in a session history.
type ConversationMessage struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"` // system, user, assistant
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationMemory stores and retrieves ordered session history.
type ConversationMemory interface {
	// AppendMessage adds a message to the conversation.
	AppendMessage(ctx context.Context, sessionID string, msg ConversationMessage) error

	// GetMessages retrieves all messages for a session, ordered by creation time.
	GetMessages(ctx context.Context, sessionID string) ([]ConversationMessage, error)

	// GetRecentMessages retrieves the last N messages for a session.
	GetRecentMessages(ctx context.Context, sessionID string, limit int) ([]ConversationMessage, error)

	// Clear removes all messages for a session.
	Clear(ctx context.Context, sessionID string) error
}

// WindowStrategy keeps only the last N messages, optionally preserving
// system messages regardless of the window. The assistant trims chat
// context to a short window before each turn.
type WindowStrategy struct {
	MaxMessages        int
	KeepSystemMessages bool
}

// NewWindowStrategy creates a window-based truncation strategy.
func NewWindowStrategy(maxMessages int, keepSystem bool) *WindowStrategy {
	return &WindowStrategy{MaxMessages: maxMessages, KeepSystemMessages: keepSystem}
}

// Truncate reduces messages to the configured window.
func (w *WindowStrategy) Truncate(messages []ConversationMessage) []ConversationMessage {
	if len(messages) <= w.MaxMessages {
		return messages
	}

	if !w.KeepSystemMessages {
		return messages[len(messages)-w.MaxMessages:]
	}

	var systemMsgs []ConversationMessage
	var otherMsgs []ConversationMessage
	for _, msg := range messages {
		if msg.Role == "system" {
			systemMsgs = append(systemMsgs, msg)
		} else {
			otherMsgs = append(otherMsgs, msg)
		}
	}

	available := w.MaxMessages - len(systemMsgs)
	if available < 0 {
		available = 0
	}
	if len(otherMsgs) > available {
		otherMsgs = otherMsgs[len(otherMsgs)-available:]
	}

	result := make([]ConversationMessage, 0, len(systemMsgs)+len(otherMsgs))
	result = append(result, systemMsgs...)
	result = append(result, otherMsgs...)
	return result
}
