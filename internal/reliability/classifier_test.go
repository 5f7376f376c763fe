package reliability

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestClassifyHTTPStatus(t *testing.T) {
	cases := []struct {
		code int
		want Class
	}{
		{200, ClassFatal},
		{400, ClassFatal},
		{401, ClassAuth},
		{403, ClassAuth},
		{429, ClassQuota},
		{500, ClassTransient},
		{503, ClassTransient},
	}
	for _, tc := range cases {
		got := ClassifyHTTPStatus(tc.code)
		if got != tc.want {
			t.Fatalf("ClassifyHTTPStatus(%d) = %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestClassifyErrorUnwrapsStatusError(t *testing.T) {
	err := fmt.Errorf("generate: %w", &StatusError{Code: 503, Detail: "overloaded"})
	if got := ClassifyError(err); got != ClassTransient {
		t.Fatalf("ClassifyError() = %v, want %v", got, ClassTransient)
	}
}

func TestClassifyErrorMessageSniffing(t *testing.T) {
	cases := []struct {
		msg  string
		want Class
	}{
		{"the service is currently unavailable", ClassTransient},
		{"API quota exceeded for project", ClassQuota},
		{"invalid API key provided", ClassAuth},
		{"no such host", ClassFatal},
	}
	for _, tc := range cases {
		if got := ClassifyError(errors.New(tc.msg)); got != tc.want {
			t.Fatalf("ClassifyError(%q) = %v, want %v", tc.msg, got, tc.want)
		}
	}
}

func TestExponentialBackoffCap(t *testing.T) {
	base := 100 * time.Millisecond
	capDur := 700 * time.Millisecond
	if got := ExponentialBackoff(0, base, capDur); got != base {
		t.Fatalf("attempt 0 = %v, want %v", got, base)
	}
	if got := ExponentialBackoff(1, base, capDur); got != 200*time.Millisecond {
		t.Fatalf("attempt 1 = %v, want 200ms", got)
	}
	if got := ExponentialBackoff(10, base, capDur); got != capDur {
		t.Fatalf("attempt 10 = %v, want %v", got, capDur)
	}
}
