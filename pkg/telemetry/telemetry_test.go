// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/ogyreck/ai-assistent-students/pkg/config"
)

func TestInitStdoutAndShutdown(t *testing.T) {
	shutdown, err := Init("assistant-test", "0.0.1", config.TelemetryConfig{Exporter: "stdout"})
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
}

func TestInitUnknownExporter(t *testing.T) {
	if _, err := Init("assistant-test", "0.0.1", config.TelemetryConfig{Exporter: "bogus"}); err == nil {
		t.Error("expected error for unknown exporter")
	}
}

func TestInitOTLPRequiresEndpoint(t *testing.T) {
	if _, err := Init("assistant-test", "0.0.1", config.TelemetryConfig{Exporter: "otlp"}); err == nil {
		t.Error("expected error when otlp endpoint missing")
	}
}

func TestConfigureSlogLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := ConfigureSlog(&buf, config.LogConfig{Level: "warn", Format: "json"})

	logger.Info("should be filtered")
	logger.Warn("should appear", "key", "value")

	out := buf.String()
	if strings.Contains(out, "should be filtered") {
		t.Error("info record leaked through warn level")
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("warn record missing, got %q", out)
	}
}

func TestConfigureSlogTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := ConfigureSlog(&buf, config.LogConfig{Level: "debug", Format: "text"})
	logger.Debug("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("debug record missing, got %q", buf.String())
	}
}

func TestAgentMetrics(t *testing.T) {
	m, err := NewAgentMetrics()
	if err != nil {
		t.Fatalf("metrics creation failed: %v", err)
	}

	ctx := context.Background()
	m.RecordIteration(ctx)
	m.RecordToolInvocation(ctx, "CALENDAR", true)
	m.RecordToolInvocation(ctx, "WEBSEARCH", false)
	m.RecordDegradedTermination(ctx, "timeout")
	m.RecordTurnDuration(ctx, 1.25)

	// Nil receiver is a no-op everywhere.
	var nilMetrics *AgentMetrics
	nilMetrics.RecordIteration(ctx)
	nilMetrics.RecordToolInvocation(ctx, "CALENDAR", true)
	nilMetrics.RecordDegradedTermination(ctx, "max_iterations")
	nilMetrics.RecordTurnDuration(ctx, 0)
}
