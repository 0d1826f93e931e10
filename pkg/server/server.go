// SPDX-License-Identifier: Apache-2.0

// Package server exposes the assistant over HTTP: the chat endpoint plus
// the calendar CRUD the tools build on.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ogyreck/ai-assistent-students/pkg/calendar"
	"github.com/ogyreck/ai-assistent-students/pkg/chat"
	apperrors "github.com/ogyreck/ai-assistent-students/pkg/errors"
)

// Server hosts the JSON API.
type Server struct {
	httpServer *http.Server
	chat       *chat.Service
	tasks      calendar.Store
	logger     *slog.Logger
}

// New creates the server on addr.
func New(addr string, chatSvc *chat.Service, tasks calendar.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{chat: chatSvc, tasks: tasks, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("DELETE /api/chat/{session}", s.handleClearSession)
	mux.HandleFunc("POST /api/calendar/task/{user}/{year}/{month}", s.handleCreateTask)
	mux.HandleFunc("GET /api/calendar/tasks/{user}/{year}/{month}", s.handleListTasks)
	mux.HandleFunc("GET /api/calendar/task/{user}/{year}/{month}/{id}", s.handleGetTask)
	mux.HandleFunc("PUT /api/calendar/task/{user}/{year}/{month}/{id}", s.handleUpdateTask)
	mux.HandleFunc("DELETE /api/calendar/task/{user}/{year}/{month}/{id}", s.handleDeleteTask)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the route table, used directly by tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, apperrors.New(apperrors.CodeInvalidInput, "invalid request body", err))
		return
	}
	if req.SessionID == "" {
		req.SessionID = "default"
	}

	turn, err := s.chat.ProcessMessage(r.Context(), req.SessionID, req.Message)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	if err := s.chat.ClearSession(r.Context(), r.PathValue("session")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	user, _, _, ok := s.taskKey(w, r, false)
	if !ok {
		return
	}

	var task calendar.Task
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		s.writeError(w, r, apperrors.New(apperrors.CodeInvalidInput, "invalid task body", err))
		return
	}
	if err := task.Validate(); err != nil {
		s.writeError(w, r, apperrors.New(apperrors.CodeInvalidInput, "invalid task", err))
		return
	}

	created, err := s.tasks.Create(r.Context(), user, task)
	if err != nil {
		s.writeError(w, r, apperrors.New(apperrors.CodeCalendarError, "failed to create task", err))
		return
	}
	writeJSON(w, http.StatusOK, created)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	user, year, month, ok := s.taskKey(w, r, false)
	if !ok {
		return
	}

	tasks, err := s.tasks.TasksInMonth(r.Context(), user, year, month)
	if err != nil {
		s.writeError(w, r, apperrors.New(apperrors.CodeCalendarError, "failed to list tasks", err))
		return
	}
	if tasks == nil {
		tasks = []calendar.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	user, year, month, ok := s.taskKey(w, r, true)
	if !ok {
		return
	}

	task, err := s.tasks.Get(r.Context(), user, year, month, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, taskError(err))
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	user, year, month, ok := s.taskKey(w, r, true)
	if !ok {
		return
	}

	var task calendar.Task
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		s.writeError(w, r, apperrors.New(apperrors.CodeInvalidInput, "invalid task body", err))
		return
	}
	task.ID = r.PathValue("id")
	if err := task.Validate(); err != nil {
		s.writeError(w, r, apperrors.New(apperrors.CodeInvalidInput, "invalid task", err))
		return
	}

	updated, err := s.tasks.Update(r.Context(), user, year, month, task)
	if err != nil {
		s.writeError(w, r, taskError(err))
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	user, year, month, ok := s.taskKey(w, r, true)
	if !ok {
		return
	}

	if err := s.tasks.Delete(r.Context(), user, year, month, r.PathValue("id")); err != nil {
		s.writeError(w, r, taskError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// taskKey parses the shared {user}/{year}/{month} path segments.
func (s *Server) taskKey(w http.ResponseWriter, r *http.Request, needID bool) (string, int, int, bool) {
	user := r.PathValue("user")
	year, yearErr := strconv.Atoi(r.PathValue("year"))
	month, monthErr := strconv.Atoi(r.PathValue("month"))
	if user == "" || yearErr != nil || monthErr != nil || month < 1 || month > 12 {
		s.writeError(w, r, apperrors.New(apperrors.CodeInvalidInput, "invalid calendar path", nil))
		return "", 0, 0, false
	}
	if needID && r.PathValue("id") == "" {
		s.writeError(w, r, apperrors.New(apperrors.CodeInvalidInput, "task id is required", nil))
		return "", 0, 0, false
	}
	return user, year, month, true
}

func taskError(err error) error {
	if errors.Is(err, calendar.ErrTaskNotFound) {
		return apperrors.New(apperrors.CodeNotFound, "task not found", err)
	}
	return apperrors.New(apperrors.CodeCalendarError, "calendar operation failed", err)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ae := apperrors.AsAssistantError(err)
	s.logger.WarnContext(r.Context(), "request failed",
		slog.String("path", r.URL.Path),
		slog.String("code", string(ae.Code)),
		slog.String("error", ae.Error()))
	writeJSON(w, ae.StatusCode, map[string]string{
		"error": ae.Message,
		"code":  string(ae.Code),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
