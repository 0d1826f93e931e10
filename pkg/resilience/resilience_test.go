// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/ogyreck/ai-assistent-students/pkg/errors"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	cfg := DefaultRetryConfig().WithInitialDelay(time.Millisecond)

	attempts := 0
	err := cfg.Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return stderrors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	cfg := DefaultRetryConfig().WithMaxAttempts(2).WithInitialDelay(time.Millisecond)

	attempts := 0
	last := stderrors.New("still broken")
	err := cfg.Do(context.Background(), func() error {
		attempts++
		return last
	})
	if err != last {
		t.Errorf("expected last error, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestRetryStopsOnUnrecoverable(t *testing.T) {
	cfg := DefaultRetryConfig().WithInitialDelay(time.Millisecond)

	attempts := 0
	fatal := errors.New(errors.CodeInvalidInput, "bad request", nil) // Recoverable=false
	err := cfg.Do(context.Background(), func() error {
		attempts++
		return fatal
	})
	if err != fatal {
		t.Errorf("expected fatal error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	cfg := DefaultRetryConfig().WithInitialDelay(time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := cfg.Do(ctx, func() error {
		return stderrors.New("transient")
	})
	ae := errors.AsAssistantError(err)
	if ae == nil || ae.Code != errors.CodeTimeout {
		t.Errorf("expected TIMEOUT error, got %v", err)
	}
}

func TestWithTimeout(t *testing.T) {
	err := WithTimeout(context.Background(), TimeoutConfig{Duration: 10 * time.Millisecond}, func() error {
		time.Sleep(200 * time.Millisecond)
		return nil
	})
	ae := errors.AsAssistantError(err)
	if ae == nil || ae.Code != errors.CodeTimeout {
		t.Errorf("expected TIMEOUT error, got %v", err)
	}
}

func TestWithTimeoutPassthrough(t *testing.T) {
	want := stderrors.New("inner")
	err := WithTimeout(context.Background(), TimeoutConfig{Duration: time.Second}, func() error {
		return want
	})
	if err != want {
		t.Errorf("expected inner error, got %v", err)
	}

	// Zero duration means no boundary.
	if err := WithTimeout(context.Background(), TimeoutConfig{}, func() error { return nil }); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}
