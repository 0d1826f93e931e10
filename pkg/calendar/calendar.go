// SPDX-License-Identifier: Apache-2.0

// Package calendar manages per-user calendar tasks keyed by month.
package calendar

import (
	"context"
	"fmt"
	"regexp"
	"time"
)

// Task is a single calendar entry. Date is YYYY-MM-DD, Time is HH:MM.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date"`
	Time        string `json:"time"`
}

var (
	dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRe = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// Validate checks the task's date and time formats.
func (t Task) Validate() error {
	if t.Title == "" {
		return fmt.Errorf("task title is required")
	}
	if !dateRe.MatchString(t.Date) {
		return fmt.Errorf("invalid date %q, want YYYY-MM-DD", t.Date)
	}
	if _, err := time.Parse("2006-01-02", t.Date); err != nil {
		return fmt.Errorf("invalid date %q: %w", t.Date, err)
	}
	if !timeRe.MatchString(t.Time) {
		return fmt.Errorf("invalid time %q, want HH:MM", t.Time)
	}
	return nil
}

// Month extracts the (year, month) key from the task date.
// Validate must have passed first.
func (t Task) Month() (int, int) {
	d, err := time.Parse("2006-01-02", t.Date)
	if err != nil {
		return 0, 0
	}
	return d.Year(), int(d.Month())
}

// Store persists calendar tasks keyed by (userID, year, month, taskID).
type Store interface {
	// Create stores a new task. Creation is not idempotent: resubmitting
	// the same payload creates a second entry with a new ID.
	Create(ctx context.Context, userID string, task Task) (Task, error)

	// Get returns the task with the given ID, or ErrTaskNotFound.
	Get(ctx context.Context, userID string, year, month int, taskID string) (Task, error)

	// Update replaces an existing task, or returns ErrTaskNotFound.
	Update(ctx context.Context, userID string, year, month int, task Task) (Task, error)

	// Delete removes a task. Returns ErrTaskNotFound if absent.
	Delete(ctx context.Context, userID string, year, month int, taskID string) error

	// TasksInMonth returns all tasks for one calendar month, ordered by date and time.
	TasksInMonth(ctx context.Context, userID string, year, month int) ([]Task, error)

	// TasksForUser returns all tasks for a user across all months.
	TasksForUser(ctx context.Context, userID string) ([]Task, error)
}

// ErrTaskNotFound is returned when a task lookup misses.
var ErrTaskNotFound = fmt.Errorf("calendar task not found")
