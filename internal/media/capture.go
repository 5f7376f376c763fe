package media

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrAccessDenied means the device layer refused to grant the stream.
	// Recording-required sessions cannot start while this holds.
	ErrAccessDenied = errors.New("media: device access denied")
	// ErrNotRecording is returned by StopRecording without a matching start.
	ErrNotRecording = errors.New("media: no recording in progress")
	// ErrNoStream is returned when recording is requested before Acquire.
	ErrNoStream = errors.New("media: no acquired stream")
)

// Constraints selects which tracks Acquire requests from the device.
type Constraints struct {
	Audio bool
	Video bool
}

// Stream is an acquired set of device tracks. Stop ends every track; a
// stopped stream cannot be recorded from.
type Stream interface {
	Stop()
}

// Recorder consumes one stream and buffers timed chunks until stopped.
type Recorder interface {
	Start(every time.Duration) error
	Stop() ([]Chunk, error)
}

// Device is the platform capture capability. A nil Device means the
// environment has no capture backend at all; sessions then run without
// recording. Only an explicit denial from a present device blocks setup.
type Device interface {
	Open(ctx context.Context, c Constraints) (Stream, error)
	NewRecorder(s Stream) (Recorder, error)
}

// Chunk is one buffered slice of recorded media.
type Chunk struct {
	Data       []byte
	MimeType   string
	RecordedAt time.Time
}

// Capture owns at most one device stream and one recorder per session. The
// stream is acquired once and reused across recordings; Release is the single
// teardown path and is idempotent.
type Capture struct {
	device Device

	mu       sync.Mutex
	stream   Stream
	recorder Recorder
	chunks   []Chunk
}

// NewCapture builds a capture around the device capability, which may be nil.
func NewCapture(device Device) *Capture {
	return &Capture{device: device}
}

// Available reports whether a device capability is present at all.
func (c *Capture) Available() bool { return c.device != nil }

// Acquire opens the device stream, or reuses the already-open one. Denied
// access surfaces as ErrAccessDenied for callers to gate on. Without a device
// capability Acquire succeeds with no stream and recording stays inert.
func (c *Capture) Acquire(ctx context.Context, constraints Constraints) error {
	if c.device == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream != nil {
		return nil
	}
	stream, err := c.device.Open(ctx, constraints)
	if err != nil {
		return err
	}
	c.stream = stream
	return nil
}

// Acquired reports whether a live stream is held.
func (c *Capture) Acquired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stream != nil
}

// StartRecording begins buffering chunks from the acquired stream. Starting
// while already recording is a no-op.
func (c *Capture) StartRecording(every time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream == nil {
		return ErrNoStream
	}
	if c.recorder != nil {
		return nil
	}
	rec, err := c.device.NewRecorder(c.stream)
	if err != nil {
		return err
	}
	if err := rec.Start(every); err != nil {
		return err
	}
	c.recorder = rec
	return nil
}

// StopRecording finalizes the current recording and returns all of its
// chunks. The chunks are also retained until Release for later retrieval.
func (c *Capture) StopRecording() ([]Chunk, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.recorder == nil {
		return nil, ErrNotRecording
	}
	chunks, err := c.recorder.Stop()
	c.recorder = nil
	if err != nil {
		return nil, err
	}
	c.chunks = append(c.chunks, chunks...)
	return chunks, nil
}

// Chunks returns every chunk recorded since Acquire.
func (c *Capture) Chunks() []Chunk {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Chunk, len(c.chunks))
	copy(out, c.chunks)
	return out
}

// Release stops any in-flight recording, stops all tracks, and drops the
// buffered chunks. Safe to call repeatedly and from any session phase.
func (c *Capture) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.recorder != nil {
		_, _ = c.recorder.Stop()
		c.recorder = nil
	}
	if c.stream != nil {
		c.stream.Stop()
		c.stream = nil
	}
	c.chunks = nil
}
