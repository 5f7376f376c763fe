package store

import (
	"context"
	"errors"
	"strings"

	"github.com/interview-lab/interviewd/internal/interview"
)

// ErrNotFound is returned by lookups for unknown interview IDs.
var ErrNotFound = errors.New("store: not found")

// Store persists interviews and their per-question feedback records.
type Store interface {
	SaveInterview(ctx context.Context, rec interview.Record) error
	GetInterview(ctx context.Context, id string) (interview.Record, error)
	SaveFeedback(ctx context.Context, records []interview.FeedbackRecord) error
	FeedbackBySession(ctx context.Context, sessionRef string) ([]interview.FeedbackRecord, error)
	Close() error
}

// New creates a postgres-backed store when configured, otherwise in-memory.
func New(ctx context.Context, databaseURL string) (Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewInMemory(), nil
	}
	return NewPostgres(ctx, databaseURL)
}
