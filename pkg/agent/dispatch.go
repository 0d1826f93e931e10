// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"fmt"
	"log/slog"
)

// CalendarExecutor executes one classified calendar operation and returns a
// human-readable observation.
type CalendarExecutor interface {
	Execute(ctx context.Context, args CalendarArgs) (string, error)
}

// SearchExecutor executes one web search and returns a human-readable
// observation.
type SearchExecutor interface {
	Execute(ctx context.Context, args SearchArgs) (string, error)
}

// Capabilities is the fixed two-entry tool registry. It is read-only after
// construction and safe to share across concurrent loop runs.
type Capabilities struct {
	Calendar CalendarExecutor
	Search   SearchExecutor

	logger *slog.Logger
}

// NewCapabilities builds the registry. logger may be nil.
func NewCapabilities(calendar CalendarExecutor, search SearchExecutor, logger *slog.Logger) *Capabilities {
	if logger == nil {
		logger = slog.Default()
	}
	return &Capabilities{Calendar: calendar, Search: search, logger: logger}
}

// Dispatch routes a tool call to its capability. Every failure mode, from
// validation to transport, becomes a failed invocation with a readable
// observation; dispatch never returns an error to the loop.
func (c *Capabilities) Dispatch(ctx context.Context, tool, rawArgs string) ToolInvocation {
	inv := ToolInvocation{Tool: tool, RawInput: rawArgs}

	observation, err := c.execute(ctx, tool, rawArgs)
	if err != nil {
		c.logger.WarnContext(ctx, "tool execution failed",
			slog.String("tool", tool),
			slog.String("error", err.Error()))
		inv.Observation = observationForError(err)
		return inv
	}

	c.logger.InfoContext(ctx, "tool executed", slog.String("tool", tool))
	inv.Observation = observation
	inv.Succeeded = true
	return inv
}

func (c *Capabilities) execute(ctx context.Context, tool, rawArgs string) (string, error) {
	switch tool {
	case ToolCalendar:
		if c.Calendar == nil {
			return "", fmt.Errorf("calendar capability is not configured")
		}
		args, err := ExtractCalendarArgs(rawArgs)
		if err != nil {
			return "", err
		}
		return c.Calendar.Execute(ctx, args)

	case ToolWebSearch:
		if c.Search == nil {
			return "", fmt.Errorf("search capability is not configured")
		}
		args, err := ExtractWebSearchArgs(rawArgs)
		if err != nil {
			return "", err
		}
		return c.Search.Execute(ctx, args)

	default:
		return "", fmt.Errorf("unknown tool: %s", tool)
	}
}

// observationForError keeps validation messages verbatim so the model can
// correct itself, and wraps everything else as a tool error.
func observationForError(err error) string {
	if ve, ok := err.(*ValidationError); ok {
		return ve.Error()
	}
	return fmt.Sprintf("Ошибка инструмента: %v", err)
}
