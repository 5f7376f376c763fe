package reliability

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
)

// Class buckets a provider failure into the action the caller must take.
type Class int

const (
	// ClassFatal covers programming errors and anything unclassified; it is
	// neither retried nor routed to fallback data.
	ClassFatal Class = iota
	// ClassTransient failures are retried with backoff and fall back after
	// exhausting the policy.
	ClassTransient
	// ClassQuota failures are never retried and disable the AI path for the
	// rest of the process.
	ClassQuota
	// ClassAuth failures behave like quota: fail fast, latch degraded mode.
	ClassAuth
)

func (c Class) String() string {
	switch c {
	case ClassTransient:
		return "transient"
	case ClassQuota:
		return "quota"
	case ClassAuth:
		return "auth"
	default:
		return "fatal"
	}
}

// StatusError carries an upstream HTTP status through an error chain so
// classification does not depend on message text.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	return "upstream status " + strconv.Itoa(e.Code) + ": " + e.Detail
}

// ClassifyHTTPStatus maps an upstream HTTP status to a failure class.
func ClassifyHTTPStatus(code int) Class {
	switch code {
	case 429:
		return ClassQuota
	case 401, 403:
		return ClassAuth
	case 408, 500, 502, 503, 504:
		return ClassTransient
	default:
		return ClassFatal
	}
}

// ClassifyError inspects an error chain for a StatusError and otherwise falls
// back to message sniffing, mirroring how upstream SDKs surface quota and
// availability failures as free text.
func ClassifyError(err error) Class {
	if err == nil {
		return ClassFatal
	}
	var se *StatusError
	if errors.As(err, &se) {
		return ClassifyHTTPStatus(se.Code)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ClassFatal
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "quota"), strings.Contains(msg, "429"):
		return ClassQuota
	case strings.Contains(msg, "api key"), strings.Contains(msg, "unauthorized"), strings.Contains(msg, "401"):
		return ClassAuth
	case strings.Contains(msg, "unavailable"), strings.Contains(msg, "503"),
		strings.Contains(msg, "overloaded"), strings.Contains(msg, "timeout"):
		return ClassTransient
	default:
		return ClassFatal
	}
}

// ExponentialBackoff computes a deterministic capped backoff duration for the
// given zero-based attempt.
func ExponentialBackoff(attempt int, base, cap time.Duration) time.Duration {
	if attempt <= 0 {
		return base
	}
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= cap {
			return cap
		}
	}
	return d
}
