// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ogyreck/ai-assistent-students/pkg/calendar"
)

func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC) }
}

func TestCalendarToolCurrentDate(t *testing.T) {
	tool := NewCalendarTool(calendar.NewInMemoryStore(), "user-1", nil, fixedClock())

	got, err := tool.Execute(context.Background(), CalendarArgs{Op: OpCurrentDate})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got != "Текущая дата и время: 01.12.2025 10:00:00" {
		t.Errorf("got %q", got)
	}
}

func TestCalendarToolAddDays(t *testing.T) {
	tool := NewCalendarTool(calendar.NewInMemoryStore(), "user-1", nil, fixedClock())

	tests := []struct {
		days int
		want string
	}{
		{7, "7 дней от сегодня (01.12.2025) это: 08.12.2025"},
		{1, "1 день от сегодня (01.12.2025) это: 02.12.2025"},
		{-3, "3 дней до сегодня (01.12.2025) это: 28.11.2025"},
	}
	for _, tt := range tests {
		got, err := tool.Execute(context.Background(), CalendarArgs{Op: OpAddDays, Days: tt.days})
		if err != nil {
			t.Fatalf("execute(%d): %v", tt.days, err)
		}
		if got != tt.want {
			t.Errorf("days=%d: got %q, want %q", tt.days, got, tt.want)
		}
	}
}

func TestCalendarToolTimeline(t *testing.T) {
	tool := NewCalendarTool(calendar.NewInMemoryStore(), "user-1", nil, fixedClock())

	got, err := tool.Execute(context.Background(), CalendarArgs{Op: OpTimeline, TaskQuery: "курсовая"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	for _, part := range []string{"'курсовая'", "01.12.2025", "06.12.2025", "13.12.2025", "📋", "✍️"} {
		if !strings.Contains(got, part) {
			t.Errorf("timeline missing %q: %q", part, got)
		}
	}
}

func TestCalendarToolCreateTask(t *testing.T) {
	store := calendar.NewInMemoryStore()
	tool := NewCalendarTool(store, "user-1", nil, fixedClock())

	got, err := tool.Execute(context.Background(), CalendarArgs{
		Op: OpCreateTask, Title: "Защита проекта", Date: "2025-12-15", Time: "14:30",
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got != "✅ Задача 'Защита проекта' создана на 2025-12-15 в 14:30" {
		t.Errorf("got %q", got)
	}

	tasks, _ := store.TasksInMonth(context.Background(), "user-1", 2025, 12)
	if len(tasks) != 1 {
		t.Fatalf("stored = %d tasks, want 1", len(tasks))
	}
}

func TestCalendarToolCreateTaskNotIdempotent(t *testing.T) {
	store := calendar.NewInMemoryStore()
	tool := NewCalendarTool(store, "user-1", nil, fixedClock())
	args := CalendarArgs{Op: OpCreateTask, Title: "X", Date: "2025-12-15", Time: "10:00"}

	for i := 0; i < 2; i++ {
		if _, err := tool.Execute(context.Background(), args); err != nil {
			t.Fatalf("execute %d: %v", i, err)
		}
	}

	tasks, _ := store.TasksInMonth(context.Background(), "user-1", 2025, 12)
	if len(tasks) != 2 {
		t.Errorf("stored = %d tasks, want 2 duplicates", len(tasks))
	}
}

func TestCalendarToolListTasksAcrossMonths(t *testing.T) {
	store := calendar.NewInMemoryStore()
	ctx := context.Background()
	seed := []calendar.Task{
		{Title: "в диапазоне, декабрь", Date: "2025-12-20", Time: "10:00"},
		{Title: "в диапазоне, январь", Date: "2026-01-05", Time: "09:00", Description: "аудитория 301"},
		{Title: "до диапазона", Date: "2025-12-01", Time: "08:00"},
		{Title: "после диапазона", Date: "2026-01-20", Time: "12:00"},
	}
	for _, task := range seed {
		if _, err := store.Create(ctx, "user-1", task); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	tool := NewCalendarTool(store, "user-1", nil, fixedClock())
	got, err := tool.Execute(ctx, CalendarArgs{Op: OpListTasks, Start: "2025-12-10", End: "2026-01-10"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if !strings.Contains(got, "📋 Найдено 2 задач(и) в периоде с 2025-12-10 по 2026-01-10") {
		t.Errorf("header wrong: %q", got)
	}
	if !strings.Contains(got, "• 2025-12-20 10:00 - в диапазоне, декабрь") {
		t.Errorf("december entry missing: %q", got)
	}
	if !strings.Contains(got, "• 2026-01-05 09:00 - в диапазоне, январь (аудитория 301)") {
		t.Errorf("january entry with description missing: %q", got)
	}
	if strings.Contains(got, "до диапазона") || strings.Contains(got, "после диапазона") {
		t.Errorf("out-of-range tasks leaked: %q", got)
	}
}

func TestCalendarToolListTasksEmpty(t *testing.T) {
	tool := NewCalendarTool(calendar.NewInMemoryStore(), "user-1", nil, fixedClock())

	got, err := tool.Execute(context.Background(), CalendarArgs{Op: OpListTasks, Start: "2025-12-01", End: "2025-12-31"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got != "❌ Задач не найдено в периоде с 2025-12-01 по 2025-12-31" {
		t.Errorf("got %q", got)
	}
}
