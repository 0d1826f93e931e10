// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AgentMetrics tracks the reasoning loop for production monitoring:
// iterations per turn, tool invocations, and degraded terminations.
type AgentMetrics struct {
	// iterationCounter counts loop iterations across all turns.
	iterationCounter metric.Int64Counter

	// toolCounter counts tool invocations by tool name and outcome.
	toolCounter metric.Int64Counter

	// degradedCounter counts forced loop exits by reason (timeout, max_iterations).
	degradedCounter metric.Int64Counter

	// turnDuration records the wall-clock time of one processed turn.
	turnDuration metric.Float64Histogram
}

// NewAgentMetrics creates the loop metrics on the global meter provider.
func NewAgentMetrics() (*AgentMetrics, error) {
	meter := otel.Meter("assistant/agent")

	iterationCounter, err := meter.Int64Counter(
		"assistant.agent.iterations",
		metric.WithDescription("Reasoning loop iterations"),
	)
	if err != nil {
		return nil, err
	}

	toolCounter, err := meter.Int64Counter(
		"assistant.agent.tool_invocations",
		metric.WithDescription("Tool invocations by tool and outcome"),
	)
	if err != nil {
		return nil, err
	}

	degradedCounter, err := meter.Int64Counter(
		"assistant.agent.degraded_terminations",
		metric.WithDescription("Loop exits forced by timeout or iteration cap"),
	)
	if err != nil {
		return nil, err
	}

	turnDuration, err := meter.Float64Histogram(
		"assistant.agent.turn_duration_seconds",
		metric.WithDescription("Wall-clock duration of one processed turn"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &AgentMetrics{
		iterationCounter: iterationCounter,
		toolCounter:      toolCounter,
		degradedCounter:  degradedCounter,
		turnDuration:     turnDuration,
	}, nil
}

// RecordIteration counts one pass through the deciding state.
func (m *AgentMetrics) RecordIteration(ctx context.Context) {
	if m == nil {
		return
	}
	m.iterationCounter.Add(ctx, 1)
}

// RecordToolInvocation counts one dispatched tool call.
func (m *AgentMetrics) RecordToolInvocation(ctx context.Context, tool string, succeeded bool) {
	if m == nil {
		return
	}
	m.toolCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.Bool("succeeded", succeeded),
		),
	)
}

// RecordDegradedTermination counts a forced loop exit.
// Reason is "timeout" or "max_iterations".
func (m *AgentMetrics) RecordDegradedTermination(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.degradedCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String("reason", reason)),
	)
}

// RecordTurnDuration records how long one turn took end to end.
func (m *AgentMetrics) RecordTurnDuration(ctx context.Context, seconds float64) {
	if m == nil {
		return
	}
	m.turnDuration.Record(ctx, seconds)
}
