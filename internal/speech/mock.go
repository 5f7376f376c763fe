package speech

import (
	"context"
	"sync"
)

// MockSynthesizer records utterances and lets the caller decide when each one
// finishes. Used by tests and by text-only deployments that still want
// speaking_start/speaking_end pacing events.
type MockSynthesizer struct {
	mu         sync.Mutex
	voices     []Voice
	utterances []*MockUtterance
}

func NewMockSynthesizer() *MockSynthesizer { return &MockSynthesizer{} }

// SetVoices fixes the voice catalog the synthesizer advertises.
func (s *MockSynthesizer) SetVoices(voices ...Voice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voices = voices
}

func (s *MockSynthesizer) Voices() []Voice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Voice, len(s.voices))
	copy(out, s.voices)
	return out
}

func (s *MockSynthesizer) Speak(_ context.Context, text string, opts Options) (Utterance, error) {
	u := &MockUtterance{Text: text, Opts: opts, done: make(chan error, 1)}
	s.mu.Lock()
	s.utterances = append(s.utterances, u)
	s.mu.Unlock()
	return u, nil
}

// Utterances returns all utterances started so far, oldest first.
func (s *MockSynthesizer) Utterances() []*MockUtterance {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*MockUtterance, len(s.utterances))
	copy(out, s.utterances)
	return out
}

// MockUtterance is a synthesis whose completion the test controls.
type MockUtterance struct {
	Text string
	Opts Options

	mu       sync.Mutex
	done     chan error
	resolved bool
	canceled bool
}

func (u *MockUtterance) Done() <-chan error { return u.done }

func (u *MockUtterance) Cancel() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.canceled = true
	if !u.resolved {
		u.resolved = true
		u.done <- context.Canceled
	}
}

// Finish marks the utterance as played to completion.
func (u *MockUtterance) Finish() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.resolved {
		u.resolved = true
		u.done <- nil
	}
}

// Canceled reports whether Cancel was called.
func (u *MockUtterance) Canceled() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.canceled
}

// MockRecognizer hands out recognitions fed manually by the test.
type MockRecognizer struct {
	mu       sync.Mutex
	sessions []*MockRecognition
	startErr error
}

func NewMockRecognizer() *MockRecognizer { return &MockRecognizer{} }

// FailStart makes subsequent Start calls return err.
func (r *MockRecognizer) FailStart(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.startErr = err
}

func (r *MockRecognizer) Start(_ context.Context) (Recognition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.startErr != nil {
		return nil, r.startErr
	}
	rec := &MockRecognition{results: make(chan RecognitionResult, 16)}
	r.sessions = append(r.sessions, rec)
	return rec, nil
}

// Sessions returns every recognition started so far.
func (r *MockRecognizer) Sessions() []*MockRecognition {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*MockRecognition, len(r.sessions))
	copy(out, r.sessions)
	return out
}

// MockRecognition is a recognition stream the test feeds results into.
type MockRecognition struct {
	mu      sync.Mutex
	results chan RecognitionResult
	closed  bool
}

// Emit pushes one result into the stream. No-op after Close.
func (m *MockRecognition) Emit(result RecognitionResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.results <- result
}

func (m *MockRecognition) Results() <-chan RecognitionResult { return m.results }

func (m *MockRecognition) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	close(m.results)
	return nil
}

// Closed reports whether Close was called.
func (m *MockRecognition) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
