package genai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/interview-lab/interviewd/internal/reliability"
)

func testPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseBackoff: time.Millisecond, BackoffCap: 4 * time.Millisecond}
}

func newTestGateway(client Client) *Gateway {
	g := New(client, testPolicy(), nil)
	g.sleep = func(context.Context, time.Duration) error { return nil }
	return g
}

func TestRequestUnconfiguredShortCircuits(t *testing.T) {
	g := New(nil, testPolicy(), nil)
	_, err := g.Request(context.Background(), "hello")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("error = %v, want ErrNotConfigured", err)
	}
	if g.Configured() {
		t.Fatalf("Configured() = true, want false")
	}
}

func TestRequestRetriesTransientThenSucceeds(t *testing.T) {
	client := NewScriptedClient(
		ScriptStep{Err: &reliability.StatusError{Code: 503, Detail: "overloaded"}},
		ScriptStep{Err: &reliability.StatusError{Code: 503, Detail: "overloaded"}},
		ScriptStep{Text: "all good"},
	)
	g := newTestGateway(client)

	text, err := g.Request(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	if text != "all good" {
		t.Fatalf("text = %q, want %q", text, "all good")
	}
	if client.Calls() != 3 {
		t.Fatalf("calls = %d, want 3", client.Calls())
	}
}

func TestRequestExhaustsRetries(t *testing.T) {
	client := NewScriptedClient(
		ScriptStep{Err: &reliability.StatusError{Code: 503, Detail: "overloaded"}},
	)
	g := newTestGateway(client)

	_, err := g.Request(context.Background(), "prompt")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
	if client.Calls() != 3 {
		t.Fatalf("calls = %d, want 3", client.Calls())
	}
	if !g.Configured() {
		t.Fatalf("transient exhaustion must not latch degraded mode")
	}
}

func TestRequestQuotaLatchesDegradedMode(t *testing.T) {
	client := NewScriptedClient(
		ScriptStep{Err: &reliability.StatusError{Code: 429, Detail: "quota"}},
		ScriptStep{Text: "should never be reached"},
	)
	g := newTestGateway(client)

	_, err := g.Request(context.Background(), "prompt")
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("error = %v, want ErrQuotaExceeded", err)
	}

	_, err = g.Request(context.Background(), "prompt")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("second call error = %v, want ErrNotConfigured", err)
	}
	if client.Calls() != 1 {
		t.Fatalf("calls = %d, want 1 (no I/O after latch)", client.Calls())
	}
}

func TestRequestAuthFailsImmediately(t *testing.T) {
	client := NewScriptedClient(
		ScriptStep{Err: &reliability.StatusError{Code: 401, Detail: "bad key"}},
	)
	g := newTestGateway(client)

	_, err := g.Request(context.Background(), "prompt")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("error = %v, want ErrUnauthorized", err)
	}
	if client.Calls() != 1 {
		t.Fatalf("calls = %d, want 1 (no retry on auth)", client.Calls())
	}
}

func TestRequestHonorsContextDuringBackoff(t *testing.T) {
	client := NewScriptedClient(
		ScriptStep{Err: &reliability.StatusError{Code: 503, Detail: "overloaded"}},
	)
	g := New(client, RetryPolicy{MaxAttempts: 3, BaseBackoff: time.Minute, BackoffCap: time.Minute}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := g.Request(ctx, "prompt")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want DeadlineExceeded", err)
	}
}
