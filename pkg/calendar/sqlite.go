// SPDX-License-Identifier: Apache-2.0

package calendar

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

const taskTable = "calendar_tasks"

// SQLiteStore persists calendar tasks in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a SQLite-backed task store and ensures schema.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Open opens (or creates) the SQLite database at path and returns a store.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	return NewSQLiteStore(db)
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func ensureSchema(db *sql.DB) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			year INTEGER NOT NULL,
			month INTEGER NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			date TEXT NOT NULL,
			time TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			PRIMARY KEY(user_id, year, month, id)
		);`, taskTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_user_month ON %s(user_id, year, month);`, taskTable, taskTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_date ON %s(date);`, taskTable, taskTable),
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Create stores a new task. No idempotency key: resubmission of the same
// payload creates a duplicate entry, which matches the agent's observed
// behavior on retried tool calls.
func (s *SQLiteStore) Create(ctx context.Context, userID string, task Task) (Task, error) {
	if err := task.Validate(); err != nil {
		return Task{}, err
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	year, month := task.Month()
	now := time.Now().UTC().UnixMilli()

	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (id, user_id, year, month, title, description, date, time, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)", taskTable),
		task.ID, userID, year, month, task.Title, task.Description, task.Date, task.Time, now)
	if err != nil {
		return Task{}, fmt.Errorf("insert task: %w", err)
	}
	return task, nil
}

// Get returns the task with the given ID.
func (s *SQLiteStore) Get(ctx context.Context, userID string, year, month int, taskID string) (Task, error) {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT id, title, description, date, time FROM %s WHERE user_id = ? AND year = ? AND month = ? AND id = ?", taskTable),
		userID, year, month, taskID)

	var t Task
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Date, &t.Time); err != nil {
		if err == sql.ErrNoRows {
			return Task{}, ErrTaskNotFound
		}
		return Task{}, fmt.Errorf("select task: %w", err)
	}
	return t, nil
}

// Update replaces an existing task in place.
func (s *SQLiteStore) Update(ctx context.Context, userID string, year, month int, task Task) (Task, error) {
	if err := task.Validate(); err != nil {
		return Task{}, err
	}
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET title = ?, description = ?, date = ?, time = ? WHERE user_id = ? AND year = ? AND month = ? AND id = ?", taskTable),
		task.Title, task.Description, task.Date, task.Time, userID, year, month, task.ID)
	if err != nil {
		return Task{}, fmt.Errorf("update task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Task{}, err
	}
	if n == 0 {
		return Task{}, ErrTaskNotFound
	}
	return task, nil
}

// Delete removes a task.
func (s *SQLiteStore) Delete(ctx context.Context, userID string, year, month int, taskID string) error {
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE user_id = ? AND year = ? AND month = ? AND id = ?", taskTable),
		userID, year, month, taskID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// TasksInMonth returns all tasks for one calendar month.
func (s *SQLiteStore) TasksInMonth(ctx context.Context, userID string, year, month int) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT id, title, description, date, time FROM %s WHERE user_id = ? AND year = ? AND month = ? ORDER BY date, time", taskTable),
		userID, year, month)
	if err != nil {
		return nil, fmt.Errorf("select month tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

// TasksForUser returns all tasks for a user across all months.
func (s *SQLiteStore) TasksForUser(ctx context.Context, userID string) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT id, title, description, date, time FROM %s WHERE user_id = ? ORDER BY date, time", taskTable),
		userID)
	if err != nil {
		return nil, fmt.Errorf("select user tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func scanTasks(rows *sql.Rows) ([]Task, error) {
	var tasks []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Date, &t.Time); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

var _ Store = (*SQLiteStore)(nil)
