// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type erroringCalendar struct{ err error }

func (e *erroringCalendar) Execute(context.Context, CalendarArgs) (string, error) {
	return "", e.err
}

func TestDispatchAbsorbsExecutorFailure(t *testing.T) {
	caps := NewCapabilities(&erroringCalendar{err: errors.New("db gone")}, nil, nil)

	inv := caps.Dispatch(context.Background(), ToolCalendar, "CALENDAR[текущая_дата]")
	if inv.Succeeded {
		t.Error("invocation must be marked failed")
	}
	if !strings.Contains(inv.Observation, "Ошибка инструмента") || !strings.Contains(inv.Observation, "db gone") {
		t.Errorf("observation = %q", inv.Observation)
	}
}

func TestDispatchValidationMessageKeptVerbatim(t *testing.T) {
	caps, _ := testCapabilities(t)

	inv := caps.Dispatch(context.Background(), ToolCalendar, "CALENDAR[создать_задачу | название: X]")
	if inv.Succeeded {
		t.Error("invocation must be marked failed")
	}
	if !strings.Contains(inv.Observation, "недостаточно информации для создания задачи") {
		t.Errorf("observation = %q", inv.Observation)
	}
	if strings.Contains(inv.Observation, "Ошибка инструмента") {
		t.Errorf("validation message should not be wrapped: %q", inv.Observation)
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	caps, _ := testCapabilities(t)

	inv := caps.Dispatch(context.Background(), "DATABASE", "DATABASE[x]")
	if inv.Succeeded {
		t.Error("unknown tool must fail")
	}
	if !strings.Contains(inv.Observation, "DATABASE") {
		t.Errorf("observation = %q", inv.Observation)
	}
}

func TestDispatchMissingCapability(t *testing.T) {
	caps := NewCapabilities(nil, nil, nil)

	inv := caps.Dispatch(context.Background(), ToolWebSearch, "WEBSEARCH[запрос: x]")
	if inv.Succeeded {
		t.Error("missing capability must fail")
	}
}
