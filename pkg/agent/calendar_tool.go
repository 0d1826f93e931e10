// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ogyreck/ai-assistent-students/pkg/calendar"
	apperrors "github.com/ogyreck/ai-assistent-students/pkg/errors"
)

const dateDisplayFormat = "02.01.2006"

// CalendarTool executes calendar operations against a task store on behalf
// of one default user.
type CalendarTool struct {
	store  calendar.Store
	userID string
	logger *slog.Logger
	now    func() time.Time
}

// NewCalendarTool creates the calendar capability. now may be nil for the
// wall clock.
func NewCalendarTool(store calendar.Store, userID string, logger *slog.Logger, now func() time.Time) *CalendarTool {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &CalendarTool{store: store, userID: userID, logger: logger, now: now}
}

// Execute runs one classified calendar operation and returns the
// observation shown to the model.
func (t *CalendarTool) Execute(ctx context.Context, args CalendarArgs) (string, error) {
	switch args.Op {
	case OpCreateTask:
		return t.createTask(ctx, args)
	case OpListTasks:
		return t.listTasksInRange(ctx, args)
	case OpCurrentDate:
		return fmt.Sprintf("Текущая дата и время: %s", t.now().Format("02.01.2006 15:04:05")), nil
	case OpAddDays:
		return t.addDays(args.Days), nil
	case OpTimeline:
		return t.timelineSuggestion(args.TaskQuery), nil
	default:
		return "", fmt.Errorf("неизвестное действие: %s", args.Op)
	}
}

func (t *CalendarTool) createTask(ctx context.Context, args CalendarArgs) (string, error) {
	task := calendar.Task{
		Title:       args.Title,
		Description: args.Description,
		Date:        args.Date,
		Time:        args.Time,
	}

	created, err := t.store.Create(ctx, t.userID, task)
	if err != nil {
		return "", apperrors.New(apperrors.CodeCalendarError, "failed to create task", err).
			WithContext("title", args.Title)
	}

	t.logger.InfoContext(ctx, "calendar task created",
		slog.String("task_id", created.ID),
		slog.String("date", created.Date))
	return fmt.Sprintf("✅ Задача '%s' создана на %s в %s", created.Title, created.Date, created.Time), nil
}

// listTasksInRange queries once per calendar month intersecting the range,
// then filters to the exact dates.
func (t *CalendarTool) listTasksInRange(ctx context.Context, args CalendarArgs) (string, error) {
	start, err := time.Parse("2006-01-02", args.Start)
	if err != nil {
		return "", apperrors.New(apperrors.CodeInvalidInput, "invalid range start", err)
	}
	end, err := time.Parse("2006-01-02", args.End)
	if err != nil {
		return "", apperrors.New(apperrors.CodeInvalidInput, "invalid range end", err)
	}

	var all []calendar.Task
	for cursor := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC); !cursor.After(end); cursor = cursor.AddDate(0, 1, 0) {
		tasks, err := t.store.TasksInMonth(ctx, t.userID, cursor.Year(), int(cursor.Month()))
		if err != nil {
			return "", apperrors.New(apperrors.CodeCalendarError, "failed to list tasks", err).
				WithContext("year", cursor.Year()).
				WithContext("month", int(cursor.Month()))
		}
		for _, task := range tasks {
			d, err := time.Parse("2006-01-02", task.Date)
			if err != nil {
				continue
			}
			if !d.Before(start) && !d.After(end) {
				all = append(all, task)
			}
		}
	}

	if len(all) == 0 {
		return fmt.Sprintf("❌ Задач не найдено в периоде с %s по %s", args.Start, args.End), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 Найдено %d задач(и) в периоде с %s по %s:\n\n", len(all), args.Start, args.End)
	for _, task := range all {
		fmt.Fprintf(&sb, "• %s %s - %s", task.Date, task.Time, task.Title)
		if task.Description != "" {
			fmt.Fprintf(&sb, " (%s)", task.Description)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func (t *CalendarTool) addDays(days int) string {
	now := t.now()
	target := now.AddDate(0, 0, days)

	abs := days
	if abs < 0 {
		abs = -abs
	}
	daysText := fmt.Sprintf("%d дней", abs)
	if abs == 1 {
		daysText = "1 день"
	}
	direction := "от сегодня"
	if days < 0 {
		direction = "до сегодня"
	}
	return fmt.Sprintf("%s %s (%s) это: %s",
		daysText, direction, now.Format(dateDisplayFormat), target.Format(dateDisplayFormat))
}

func (t *CalendarTool) timelineSuggestion(taskQuery string) string {
	now := t.now()
	start := now.Format(dateDisplayFormat)
	mid := now.AddDate(0, 0, 5).Format(dateDisplayFormat)
	end := now.AddDate(0, 0, 12).Format(dateDisplayFormat)

	return fmt.Sprintf("Рекомендуемый график для: '%s'\n"+
		"📋 Планирование и исследование: %s – %s\n"+
		"✍️ Выполнение и черновик: %s – %s\n"+
		"✓ Проверка и финализация: до %s",
		taskQuery, start, mid, mid, end, end)
}

var _ CalendarExecutor = (*CalendarTool)(nil)
