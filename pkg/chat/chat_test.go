// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ogyreck/ai-assistent-students/pkg/agent"
	"github.com/ogyreck/ai-assistent-students/pkg/calendar"
	"github.com/ogyreck/ai-assistent-students/pkg/llm"
	"github.com/ogyreck/ai-assistent-students/pkg/memory"
)

func newTestLoop(provider llm.Provider) *agent.Loop {
	now := func() time.Time { return time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC) }
	caps := agent.NewCapabilities(
		agent.NewCalendarTool(calendar.NewInMemoryStore(), "user-1", nil, now),
		nil, nil,
	)
	return agent.NewLoop(provider, caps)
}

type stubRetriever struct {
	texts []string
	err   error
	last  string
}

func (s *stubRetriever) Retrieve(_ context.Context, question string) ([]string, error) {
	s.last = question
	return s.texts, s.err
}

func TestProcessMessagePersistsTurn(t *testing.T) {
	provider := llm.NewScriptedMockProvider("ОТВЕТ:\nПривет!")
	history := memory.NewInMemoryConversation()
	svc := NewService(newTestLoop(provider), history)

	turn, err := svc.ProcessMessage(context.Background(), "s1", "привет")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !strings.Contains(turn.Response, "Привет!") {
		t.Errorf("response = %q", turn.Response)
	}
	if turn.Degraded {
		t.Error("normal turn flagged degraded")
	}

	msgs, _ := history.GetMessages(context.Background(), "s1")
	if len(msgs) != 2 || msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Errorf("persisted = %+v", msgs)
	}
}

func TestProcessMessageTrimsHistory(t *testing.T) {
	provider := llm.NewScriptedMockProvider("ОТВЕТ:\nok")
	history := memory.NewInMemoryConversation()
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 12; i++ {
		history.AppendMessage(ctx, "s1", memory.ConversationMessage{
			Role:      "user",
			Content:   fmt.Sprintf("msg-%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
	}

	svc := NewService(newTestLoop(provider), history, WithHistoryWindow(3))
	if _, err := svc.ProcessMessage(ctx, "s1", "вопрос"); err != nil {
		t.Fatalf("process: %v", err)
	}

	// history window of 3 plus the new user message.
	msgs := provider.Requests[0].Messages
	if len(msgs) != 4 {
		t.Fatalf("messages = %d, want 4", len(msgs))
	}
	if msgs[0].Content != "msg-9" {
		t.Errorf("oldest kept = %q, want msg-9", msgs[0].Content)
	}
}

func TestProcessMessageInjectsKnowledgeContext(t *testing.T) {
	provider := llm.NewScriptedMockProvider("ОТВЕТ:\nok")
	retriever := &stubRetriever{texts: []string{"дедлайн курсовой 2025-12-20"}}
	svc := NewService(newTestLoop(provider), memory.NewInMemoryConversation(), WithRetriever(retriever))

	if _, err := svc.ProcessMessage(context.Background(), "s1", "когда дедлайн?"); err != nil {
		t.Fatalf("process: %v", err)
	}

	if retriever.last != "когда дедлайн?" {
		t.Errorf("retriever question = %q", retriever.last)
	}
	msgs := provider.Requests[0].Messages
	sent := msgs[len(msgs)-1].Content
	if !strings.Contains(sent, "дедлайн курсовой 2025-12-20") || !strings.Contains(sent, "когда дедлайн?") {
		t.Errorf("context not injected: %q", sent)
	}
}

func TestProcessMessageRetrievalFailureIgnored(t *testing.T) {
	provider := llm.NewScriptedMockProvider("ОТВЕТ:\nok")
	retriever := &stubRetriever{err: errors.New("qdrant down")}
	svc := NewService(newTestLoop(provider), memory.NewInMemoryConversation(), WithRetriever(retriever))

	turn, err := svc.ProcessMessage(context.Background(), "s1", "вопрос")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if strings.Contains(turn.Response, "⚠️") {
		t.Errorf("retrieval failure must not degrade the turn: %q", turn.Response)
	}
	sent := provider.Requests[0].Messages[0].Content
	if sent != "вопрос" {
		t.Errorf("message altered on retrieval failure: %q", sent)
	}
}

func TestProcessMessageGenerationFailure(t *testing.T) {
	provider := &llm.FailingMockProvider{}
	history := memory.NewInMemoryConversation()
	svc := NewService(newTestLoop(provider), history)

	turn, err := svc.ProcessMessage(context.Background(), "s1", "привет")
	if err != nil {
		t.Fatalf("generation failure must not error the turn: %v", err)
	}
	if turn.Response != failureResponse {
		t.Errorf("response = %q", turn.Response)
	}

	// The failure turn is still persisted so the session stays coherent.
	msgs, _ := history.GetMessages(context.Background(), "s1")
	if len(msgs) != 2 {
		t.Errorf("persisted = %d messages, want 2", len(msgs))
	}
}

func TestProcessMessageEmpty(t *testing.T) {
	svc := NewService(newTestLoop(llm.NewScriptedMockProvider()), memory.NewInMemoryConversation())
	if _, err := svc.ProcessMessage(context.Background(), "s1", ""); err == nil {
		t.Fatal("expected error for empty message")
	}
}

func TestClearSession(t *testing.T) {
	history := memory.NewInMemoryConversation()
	ctx := context.Background()
	history.AppendMessage(ctx, "s1", memory.ConversationMessage{Role: "user", Content: "x"})

	svc := NewService(newTestLoop(llm.NewScriptedMockProvider()), history)
	if err := svc.ClearSession(ctx, "s1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	msgs, _ := history.GetMessages(ctx, "s1")
	if len(msgs) != 0 {
		t.Errorf("history = %d, want 0", len(msgs))
	}
}
