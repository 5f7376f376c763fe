package genai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/interview-lab/interviewd/internal/observability"
	"github.com/interview-lab/interviewd/internal/reliability"
)

var (
	// ErrNotConfigured means no service credential was present at startup.
	// Callers use their fallback path; nothing was sent on the wire.
	ErrNotConfigured = errors.New("genai: service not configured")
	// ErrUnavailable means every retry attempt failed with a transient error.
	ErrUnavailable = errors.New("genai: service unavailable")
	// ErrQuotaExceeded means the upstream rejected the call for quota reasons.
	// The gateway is latched into degraded mode afterwards.
	ErrQuotaExceeded = errors.New("genai: quota exceeded")
	// ErrUnauthorized means the credential was rejected. Also latches.
	ErrUnauthorized = errors.New("genai: unauthorized")
)

// RetryPolicy bounds the gateway's retry loop for transient failures.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	BackoffCap  time.Duration
}

// DefaultRetryPolicy mirrors the tuning the service ships with. The constants
// are config knobs, not contracts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseBackoff: time.Second,
		BackoffCap:  8 * time.Second,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.BaseBackoff <= 0 {
		p.BaseBackoff = time.Second
	}
	if p.BackoffCap < p.BaseBackoff {
		p.BackoffCap = p.BaseBackoff
	}
	return p
}

// Gateway is the single entry point to the generative AI service. It owns no
// session state: just the client, the retry policy, and the degraded latch.
type Gateway struct {
	client     Client
	policy     RetryPolicy
	metrics    *observability.Metrics
	configured bool
	down       atomic.Bool
	sleep      func(ctx context.Context, d time.Duration) error
}

// New builds a gateway. A nil client marks the gateway unconfigured for the
// process lifetime; Request then short-circuits without network I/O.
func New(client Client, policy RetryPolicy, metrics *observability.Metrics) *Gateway {
	return &Gateway{
		client:     client,
		policy:     policy.normalized(),
		metrics:    metrics,
		configured: client != nil,
		sleep:      sleepCtx,
	}
}

// Configured reports whether the gateway had a credential at startup and has
// not been latched into degraded mode since.
func (g *Gateway) Configured() bool {
	return g.configured && !g.down.Load()
}

// Request sends the prompt and returns the raw response text. Transient
// failures are retried with exponential backoff up to the policy limit;
// quota and authorization failures return immediately and disable the AI
// path for the remainder of the process.
func (g *Gateway) Request(ctx context.Context, prompt string) (string, error) {
	if !g.configured {
		return "", ErrNotConfigured
	}
	if g.down.Load() {
		return "", ErrNotConfigured
	}

	var lastErr error
	for attempt := 0; attempt < g.policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			backoff := reliability.ExponentialBackoff(attempt-1, g.policy.BaseBackoff, g.policy.BackoffCap)
			if err := g.sleep(ctx, backoff); err != nil {
				return "", err
			}
		}

		text, err := g.client.Generate(ctx, prompt)
		if err == nil {
			g.count("ok")
			return text, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}

		class := reliability.ClassifyError(err)
		g.count(class.String())
		switch class {
		case reliability.ClassQuota:
			g.latch("quota", err)
			return "", fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		case reliability.ClassAuth:
			g.latch("auth", err)
			return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
		case reliability.ClassTransient:
			lastErr = err
			continue
		default:
			return "", err
		}
	}
	return "", fmt.Errorf("%w after %d attempts: %v", ErrUnavailable, g.policy.MaxAttempts, lastErr)
}

// latch permanently disables the AI path and logs the one-time notice.
func (g *Gateway) latch(reason string, err error) {
	if g.down.CompareAndSwap(false, true) {
		log.Printf("genai: disabling AI path (%s): %v", reason, err)
		if g.metrics != nil {
			g.metrics.AIDegraded.Set(1)
		}
	}
}

func (g *Gateway) count(outcome string) {
	if g.metrics != nil {
		g.metrics.AIRequests.WithLabelValues(outcome).Inc()
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
