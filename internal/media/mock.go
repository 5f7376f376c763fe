package media

import (
	"context"
	"sync"
	"time"
)

// MockDevice is an in-process device capability for tests and headless runs.
type MockDevice struct {
	mu      sync.Mutex
	denied  bool
	streams []*MockStream
}

func NewMockDevice() *MockDevice { return &MockDevice{} }

// Deny makes subsequent Open calls fail with ErrAccessDenied.
func (d *MockDevice) Deny() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.denied = true
}

func (d *MockDevice) Open(_ context.Context, c Constraints) (Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.denied {
		return nil, ErrAccessDenied
	}
	s := &MockStream{Constraints: c}
	d.streams = append(d.streams, s)
	return s, nil
}

func (d *MockDevice) NewRecorder(s Stream) (Recorder, error) {
	return &mockRecorder{stream: s.(*MockStream)}, nil
}

// Streams returns every stream opened so far.
func (d *MockDevice) Streams() []*MockStream {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*MockStream, len(d.streams))
	copy(out, d.streams)
	return out
}

// MockStream tracks its stopped state.
type MockStream struct {
	Constraints Constraints

	mu      sync.Mutex
	stopped bool
}

func (s *MockStream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
}

// Stopped reports whether Stop was called.
func (s *MockStream) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

type mockRecorder struct {
	stream  *MockStream
	started time.Time
}

func (r *mockRecorder) Start(_ time.Duration) error {
	r.started = time.Now()
	return nil
}

func (r *mockRecorder) Stop() ([]Chunk, error) {
	return []Chunk{{
		Data:       []byte("webm-bytes"),
		MimeType:   "video/webm",
		RecordedAt: r.started,
	}}, nil
}
