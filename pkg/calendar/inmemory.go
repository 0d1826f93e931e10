// SPDX-License-Identifier: Apache-2.0

package calendar

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// InMemoryStore is a Store for development and tests. Data is lost on restart.
type InMemoryStore struct {
	mu sync.RWMutex
	// tasks by userID, then (year, month).
	tasks map[string]map[[2]int][]Task
}

// NewInMemoryStore creates an empty in-memory task store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{tasks: make(map[string]map[[2]int][]Task)}
}

func (s *InMemoryStore) Create(_ context.Context, userID string, task Task) (Task, error) {
	if err := task.Validate(); err != nil {
		return Task{}, err
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	year, month := task.Month()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tasks[userID] == nil {
		s.tasks[userID] = make(map[[2]int][]Task)
	}
	key := [2]int{year, month}
	s.tasks[userID][key] = append(s.tasks[userID][key], task)
	return task, nil
}

func (s *InMemoryStore) Get(_ context.Context, userID string, year, month int, taskID string) (Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tasks[userID][[2]int{year, month}] {
		if t.ID == taskID {
			return t, nil
		}
	}
	return Task{}, ErrTaskNotFound
}

func (s *InMemoryStore) Update(_ context.Context, userID string, year, month int, task Task) (Task, error) {
	if err := task.Validate(); err != nil {
		return Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := [2]int{year, month}
	list := s.tasks[userID][key]
	for i, t := range list {
		if t.ID == task.ID {
			list[i] = task
			return task, nil
		}
	}
	return Task{}, ErrTaskNotFound
}

func (s *InMemoryStore) Delete(_ context.Context, userID string, year, month int, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := [2]int{year, month}
	list := s.tasks[userID][key]
	for i, t := range list {
		if t.ID == taskID {
			s.tasks[userID][key] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return ErrTaskNotFound
}

func (s *InMemoryStore) TasksInMonth(_ context.Context, userID string, year, month int) ([]Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.tasks[userID][[2]int{year, month}]
	out := make([]Task, len(list))
	copy(out, list)
	sortTasks(out)
	return out, nil
}

func (s *InMemoryStore) TasksForUser(_ context.Context, userID string) ([]Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Task
	for _, list := range s.tasks[userID] {
		out = append(out, list...)
	}
	sortTasks(out)
	return out, nil
}

func sortTasks(tasks []Task) {
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].Date != tasks[j].Date {
			return tasks[i].Date < tasks[j].Date
		}
		return tasks[i].Time < tasks[j].Time
	})
}

var _ Store = (*InMemoryStore)(nil)
