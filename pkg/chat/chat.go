// SPDX-License-Identifier: Apache-2.0

// Package chat orchestrates one conversational turn: history loading,
// optional knowledge-base context, the reasoning loop, and persistence.
package chat

import (
	"context"
	"log/slog"

	"github.com/ogyreck/ai-assistent-students/pkg/agent"
	apperrors "github.com/ogyreck/ai-assistent-students/pkg/errors"
	"github.com/ogyreck/ai-assistent-students/pkg/memory"
	"github.com/ogyreck/ai-assistent-students/pkg/prompts"
	"github.com/ogyreck/ai-assistent-students/pkg/rag"
)

// failureResponse is returned when the generation collaborator fails; the
// turn itself never errors out to the transport.
const failureResponse = "⚠️ Не удалось обработать сообщение. Попробуйте ещё раз чуть позже."

// DefaultHistoryWindow bounds how many prior messages feed each turn.
const DefaultHistoryWindow = 7

// Retriever is the slice of rag.Retriever the chat service needs.
type Retriever interface {
	Retrieve(ctx context.Context, question string) ([]string, error)
}

// Turn is the outcome of one processed user message.
type Turn struct {
	SessionID string                 `json:"session_id"`
	Response  string                 `json:"response"`
	Trace     []agent.ToolInvocation `json:"tool_calls,omitempty"`
	Degraded  bool                   `json:"degraded,omitempty"`
}

// Service wires the loop to per-session history and the knowledge base.
type Service struct {
	loop      *agent.Loop
	history   memory.ConversationMemory
	window    *memory.WindowStrategy
	retriever Retriever
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithRetriever enables knowledge-base context injection.
func WithRetriever(r Retriever) Option {
	return func(s *Service) { s.retriever = r }
}

// WithHistoryWindow overrides the history window size.
func WithHistoryWindow(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.window = memory.NewWindowStrategy(n, true)
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService creates the chat service.
func NewService(loop *agent.Loop, history memory.ConversationMemory, opts ...Option) *Service {
	s := &Service{
		loop:    loop,
		history: history,
		window:  memory.NewWindowStrategy(DefaultHistoryWindow, true),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProcessMessage runs one turn for a session. The caller always gets a
// response: generation failures are absorbed into a generic failure turn.
func (s *Service) ProcessMessage(ctx context.Context, sessionID, message string) (Turn, error) {
	if message == "" {
		return Turn{}, apperrors.New(apperrors.CodeInvalidInput, "message is empty", nil)
	}

	prior, err := s.loadHistory(ctx, sessionID)
	if err != nil {
		return Turn{}, err
	}

	loopMessage := s.withKnowledgeContext(ctx, message)

	response, trace, err := s.loop.ProcessTurn(ctx, loopMessage, prior)
	if err != nil {
		s.logger.ErrorContext(ctx, "turn failed",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()))
		response = failureResponse
	}

	s.persist(ctx, sessionID, message, response)

	return Turn{
		SessionID: sessionID,
		Response:  response,
		Trace:     trace,
		Degraded:  agent.IsDegraded(response),
	}, nil
}

// ClearSession drops the stored history for a session.
func (s *Service) ClearSession(ctx context.Context, sessionID string) error {
	if err := s.history.Clear(ctx, sessionID); err != nil {
		return apperrors.New(apperrors.CodeMemoryError, "failed to clear session", err)
	}
	return nil
}

func (s *Service) loadHistory(ctx context.Context, sessionID string) ([]agent.Turn, error) {
	messages, err := s.history.GetMessages(ctx, sessionID)
	if err != nil {
		return nil, apperrors.New(apperrors.CodeMemoryError, "failed to load history", err).
			WithContext("session_id", sessionID)
	}
	messages = s.window.Truncate(messages)

	turns := make([]agent.Turn, 0, len(messages))
	for _, msg := range messages {
		role := agent.RoleUser
		if msg.Role == "assistant" {
			role = agent.RoleAssistant
		}
		turns = append(turns, agent.Turn{Role: role, Content: msg.Content})
	}
	return turns, nil
}

// withKnowledgeContext prepends retrieved knowledge-base snippets to the
// user message. Retrieval failures are logged and skipped, never fatal.
func (s *Service) withKnowledgeContext(ctx context.Context, message string) string {
	if s.retriever == nil {
		return message
	}

	texts, err := s.retriever.Retrieve(ctx, message)
	if err != nil {
		s.logger.WarnContext(ctx, "knowledge retrieval failed", slog.String("error", err.Error()))
		return message
	}
	block := rag.FormatContext(texts)
	if block == "" {
		return message
	}

	header, err := prompts.Render("rag_context", map[string]string{"Context": block})
	if err != nil {
		s.logger.WarnContext(ctx, "context prompt render failed", slog.String("error", err.Error()))
		return message
	}
	return header + "\n\n" + message
}

// persist appends the user and assistant messages. Failures are logged;
// the response was already produced and still goes out.
func (s *Service) persist(ctx context.Context, sessionID, userMessage, response string) {
	for _, msg := range []memory.ConversationMessage{
		{Role: "user", Content: userMessage},
		{Role: "assistant", Content: response},
	} {
		if err := s.history.AppendMessage(ctx, sessionID, msg); err != nil {
			s.logger.ErrorContext(ctx, "failed to persist message",
				slog.String("session_id", sessionID),
				slog.String("role", msg.Role),
				slog.String("error", err.Error()))
		}
	}
}
