// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"fmt"
	"sync"
)

// MockProvider returns one fixed response (or error) for every call and
// records the requests it saw, so tests can assert on the assembled
// message stack. ChatFunc, when set, takes over entirely.
type MockProvider struct {
	mu       sync.Mutex
	Response string
	Err      error
	ChatFunc func(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	// Requests records every request for later inspection.
	Requests []ChatRequest
}

func (m *MockProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()

	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, req)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return &ChatResponse{
		Content: m.Response,
		Usage:   estimateUsage(req, m.Response),
	}, nil
}

// FailingMockProvider always fails.
type FailingMockProvider struct {
	Err error
}

func (f *FailingMockProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if f.Err == nil {
		return nil, fmt.Errorf("mock provider failure")
	}
	return nil, f.Err
}

// estimateUsage fabricates token counts from text lengths, roughly four
// runes per token, so mocked responses report non-constant usage.
func estimateUsage(req ChatRequest, content string) Usage {
	prompt := 0
	for _, msg := range req.Messages {
		prompt += len([]rune(msg.Content)) / 4
	}
	completion := len([]rune(content)) / 4
	return Usage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
	}
}
