// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"log/slog"
	"time"

	apperrors "github.com/ogyreck/ai-assistent-students/pkg/errors"
	"github.com/ogyreck/ai-assistent-students/pkg/llm"
	"github.com/ogyreck/ai-assistent-students/pkg/telemetry"
)

const (
	// DefaultMaxIterations caps the decide/dispatch cycle per turn.
	DefaultMaxIterations = 10

	// DefaultTimeout is the wall-clock budget per turn. It is checked
	// once per iteration, so an in-flight generation or tool call may
	// overrun it by one call's latency.
	DefaultTimeout = 40 * time.Second
)

// Loop drives the decide → dispatch → observe cycle for one user turn.
// A Loop is safe for concurrent use: per-turn state lives on the stack of
// ProcessTurn, the Loop itself is read-only after construction.
type Loop struct {
	provider      llm.Provider
	caps          *Capabilities
	systemPrompt  string
	promptFunc    func() string
	model         string
	temperature   float64
	maxIterations int
	timeout       time.Duration
	logger        *slog.Logger
	metrics       *telemetry.AgentMetrics
	now           func() time.Time
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithSystemPrompt sets the instruction prompt sent on every decision.
func WithSystemPrompt(prompt string) LoopOption {
	return func(l *Loop) { l.systemPrompt = prompt }
}

// WithSystemPromptFunc sets a prompt source evaluated once per turn.
// It takes precedence over WithSystemPrompt, letting the prompt carry
// per-turn values such as the current date.
func WithSystemPromptFunc(fn func() string) LoopOption {
	return func(l *Loop) { l.promptFunc = fn }
}

// WithModel sets the model name passed to the provider.
func WithModel(model string) LoopOption {
	return func(l *Loop) { l.model = model }
}

// WithTemperature sets the sampling temperature passed to the provider.
func WithTemperature(t float64) LoopOption {
	return func(l *Loop) { l.temperature = t }
}

// WithMaxIterations overrides the iteration cap.
func WithMaxIterations(n int) LoopOption {
	return func(l *Loop) {
		if n > 0 {
			l.maxIterations = n
		}
	}
}

// WithTimeout overrides the wall-clock budget.
func WithTimeout(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) { l.logger = logger }
}

// WithMetrics attaches loop metrics. A nil metrics handle disables recording.
func WithMetrics(m *telemetry.AgentMetrics) LoopOption {
	return func(l *Loop) { l.metrics = m }
}

// WithClock overrides the time source. Tests use this to force the timeout
// path without sleeping.
func WithClock(now func() time.Time) LoopOption {
	return func(l *Loop) { l.now = now }
}

// NewLoop creates a reasoning loop over the generation provider and the
// tool registry.
func NewLoop(provider llm.Provider, caps *Capabilities, opts ...LoopOption) *Loop {
	l := &Loop{
		provider:      provider,
		caps:          caps,
		maxIterations: DefaultMaxIterations,
		timeout:       DefaultTimeout,
		logger:        slog.Default(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ProcessTurn runs the loop for one user message over the prior turns and
// returns the final answer plus the ordered tool-call trace.
//
// Tool and validation failures are absorbed as observations; only a
// generation failure is returned as an error, and the caller must surface
// its own failure turn for it.
func (l *Loop) ProcessTurn(ctx context.Context, userMessage string, priorTurns []Turn) (string, []ToolInvocation, error) {
	start := l.now()
	messages := l.buildMessages(userMessage, priorTurns)

	var (
		trace   []ToolInvocation
		lastRaw string
	)

	defer func() {
		l.metrics.RecordTurnDuration(ctx, l.now().Sub(start).Seconds())
	}()

	for iteration := 1; iteration <= l.maxIterations; iteration++ {
		if elapsed := l.now().Sub(start); elapsed > l.timeout {
			l.logger.WarnContext(ctx, "turn exceeded time budget",
				slog.Duration("elapsed", elapsed),
				slog.Int("iteration", iteration))
			l.metrics.RecordDegradedTermination(ctx, "timeout")
			return FormatTimeout(lastRaw), trace, nil
		}

		l.metrics.RecordIteration(ctx)

		resp, err := l.provider.Chat(ctx, llm.ChatRequest{
			Model:       l.model,
			Messages:    messages,
			Temperature: l.temperature,
		})
		if err != nil {
			return "", trace, apperrors.New(apperrors.CodeLLMError, "generation failed", err).
				WithContext("iteration", iteration)
		}
		lastRaw = resp.Content

		decision := ParseDecision(lastRaw)
		switch decision.Kind {
		case KindToolCall:
			inv := l.caps.Dispatch(ctx, decision.Tool, decision.RawArgs)
			trace = append(trace, inv)
			l.metrics.RecordToolInvocation(ctx, inv.Tool, inv.Succeeded)

			messages = append(messages, llm.Message{
				Role:    llm.RoleAssistant,
				Content: "[Tool Call: " + inv.Tool + "]\n" + inv.Observation,
			})

		default:
			// Final answers and unclassified text both terminate.
			l.logger.InfoContext(ctx, "turn finalized",
				slog.Int("iterations", iteration),
				slog.Int("tool_calls", len(trace)))
			return FormatFinal(decision.Text, trace), trace, nil
		}
	}

	l.logger.WarnContext(ctx, "iteration cap reached without final answer",
		slog.Int("max_iterations", l.maxIterations))
	l.metrics.RecordDegradedTermination(ctx, "max_iterations")
	return FormatMaxIterations(lastRaw), trace, nil
}

// buildMessages assembles the provider request: system prompt, prior turns,
// then the current user message. Observation turns replay as assistant
// messages, the same shape they had when first appended.
func (l *Loop) buildMessages(userMessage string, priorTurns []Turn) []llm.Message {
	messages := make([]llm.Message, 0, len(priorTurns)+2)
	prompt := l.systemPrompt
	if l.promptFunc != nil {
		prompt = l.promptFunc()
	}
	if prompt != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: prompt})
	}
	for _, turn := range priorTurns {
		role := llm.RoleUser
		if turn.Role == RoleAssistant || turn.Role == RoleObservation {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: turn.Content})
	}
	return append(messages, llm.Message{Role: llm.RoleUser, Content: userMessage})
}
