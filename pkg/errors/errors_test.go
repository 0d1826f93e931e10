// SPDX-License-Identifier: Apache-2.0

package errors

import (
	stderrors "errors"
	"encoding/json"
	"strings"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := New(CodeSearchError, "search request failed", cause)

	msg := err.Error()
	if !strings.Contains(msg, "SEARCH_ERROR") {
		t.Errorf("expected code in message, got %q", msg)
	}
	if !strings.Contains(msg, "connection refused") {
		t.Errorf("expected cause in message, got %q", msg)
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := New(CodeToolFailure, "tool failed", cause)

	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}

	var ae *AssistantError
	if !stderrors.As(err, &ae) {
		t.Fatal("expected errors.As to match *AssistantError")
	}
	if ae.Code != CodeToolFailure {
		t.Errorf("code = %s, want %s", ae.Code, CodeToolFailure)
	}
}

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{CodeNotFound, 404},
		{CodeInvalidInput, 400},
		{CodeTimeout, 408},
		{CodeLLMError, 500},
		{CodeInternal, 500},
	}
	for _, tt := range tests {
		if got := New(tt.code, "x", nil).StatusCode; got != tt.want {
			t.Errorf("status for %s = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestMarshalJSON(t *testing.T) {
	err := New(CodeTimeout, "budget exceeded", nil).
		WithContext("elapsed", "41s").
		WithRecoverable(true)

	data, jerr := json.Marshal(err)
	if jerr != nil {
		t.Fatalf("marshal failed: %v", jerr)
	}

	var decoded map[string]interface{}
	if jerr := json.Unmarshal(data, &decoded); jerr != nil {
		t.Fatalf("unmarshal failed: %v", jerr)
	}
	if decoded["code"] != "TIMEOUT" {
		t.Errorf("code = %v, want TIMEOUT", decoded["code"])
	}
	if decoded["recoverable"] != true {
		t.Error("expected recoverable=true")
	}
}

func TestAsAssistantError(t *testing.T) {
	plain := stderrors.New("plain")
	wrapped := AsAssistantError(plain)
	if wrapped.Code != CodeInternal {
		t.Errorf("code = %s, want %s", wrapped.Code, CodeInternal)
	}

	typed := New(CodeMemoryError, "m", nil)
	if AsAssistantError(typed) != typed {
		t.Error("expected identity for already-typed errors")
	}
	if AsAssistantError(nil) != nil {
		t.Error("expected nil for nil error")
	}
}
