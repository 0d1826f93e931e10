// SPDX-License-Identifier: Apache-2.0

// Package errors provides typed error handling with rich context for the assistant.
package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode classifies assistant errors for monitoring and recovery.
type ErrorCode string

const (
	// CodeInternal indicates an internal system error.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeInvalidInput indicates the input was invalid.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeToolFailure indicates a tool execution failed.
	CodeToolFailure ErrorCode = "TOOL_FAILURE"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeNotFound indicates a resource was not found.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeLLMError indicates a generation provider error.
	CodeLLMError ErrorCode = "LLM_ERROR"

	// CodeMemoryError indicates a conversation or vector memory error.
	CodeMemoryError ErrorCode = "MEMORY_ERROR"

	// CodeSearchError indicates the web search collaborator failed.
	CodeSearchError ErrorCode = "SEARCH_ERROR"

	// CodeCalendarError indicates the calendar collaborator failed.
	CodeCalendarError ErrorCode = "CALENDAR_ERROR"
)

// AssistantError is a typed error with context for observability.
// It implements the error interface and can be unwrapped with errors.As().
type AssistantError struct {
	Code        ErrorCode
	Message     string
	Err         error
	Context     map[string]interface{}
	Recoverable bool
	StatusCode  int
}

// Error implements the error interface.
func (e *AssistantError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *AssistantError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements json.Marshaler for structured logging.
func (e *AssistantError) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{
		"message":     e.Error(),
		"code":        string(e.Code),
		"recoverable": e.Recoverable,
	}
	if e.Err != nil {
		out["error"] = e.Err.Error()
	}
	if len(e.Context) > 0 {
		out["context"] = e.Context
	}
	return json.Marshal(out)
}

// New creates a new AssistantError with the given code, message, and cause.
func New(code ErrorCode, msg string, cause error) *AssistantError {
	return &AssistantError{
		Code:       code,
		Message:    msg,
		Err:        cause,
		Context:    make(map[string]interface{}),
		StatusCode: codeToStatusCode(code),
	}
}

// WithContext adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *AssistantError) WithContext(key string, value interface{}) *AssistantError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithRecoverable sets whether the error can be recovered from.
// Returns the error for method chaining.
func (e *AssistantError) WithRecoverable(recoverable bool) *AssistantError {
	e.Recoverable = recoverable
	return e
}

// AsAssistantError converts err to an AssistantError, wrapping unknown
// errors as CodeInternal.
func AsAssistantError(err error) *AssistantError {
	if err == nil {
		return nil
	}
	if ae, ok := err.(*AssistantError); ok {
		return ae
	}
	return New(CodeInternal, "wrapped error", err)
}

// codeToStatusCode maps error codes to HTTP status codes.
func codeToStatusCode(code ErrorCode) int {
	switch code {
	case CodeNotFound:
		return 404
	case CodeInvalidInput:
		return 400
	case CodeTimeout:
		return 408
	default:
		return 500
	}
}
