package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/interview-lab/interviewd/internal/interview"
)

// InMemory is a simple in-process store for local/dev use and tests.
type InMemory struct {
	mu         sync.RWMutex
	interviews map[string]interview.Record
	feedback   map[string][]interview.FeedbackRecord
}

func NewInMemory() *InMemory {
	return &InMemory{
		interviews: make(map[string]interview.Record),
		feedback:   make(map[string][]interview.FeedbackRecord),
	}
}

func (s *InMemory) SaveInterview(_ context.Context, rec interview.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.interviews[rec.ID] = rec
	return nil
}

func (s *InMemory) GetInterview(_ context.Context, id string) (interview.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.interviews[id]
	if !ok {
		return interview.Record{}, ErrNotFound
	}
	return rec, nil
}

func (s *InMemory) SaveFeedback(_ context.Context, records []interview.FeedbackRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = time.Now().UTC()
		}
		s.feedback[r.SessionRef] = append(s.feedback[r.SessionRef], r)
	}
	return nil
}

func (s *InMemory) FeedbackBySession(_ context.Context, sessionRef string) ([]interview.FeedbackRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	arr := s.feedback[sessionRef]
	out := make([]interview.FeedbackRecord, len(arr))
	copy(out, arr)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) Close() error { return nil }
