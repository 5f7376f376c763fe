package media

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAcquireReusesStream(t *testing.T) {
	device := NewMockDevice()
	capture := NewCapture(device)

	if err := capture.Acquire(context.Background(), Constraints{Audio: true, Video: true}); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := capture.Acquire(context.Background(), Constraints{Audio: true, Video: true}); err != nil {
		t.Fatalf("second Acquire: %v", err)
	}
	if got := len(device.Streams()); got != 1 {
		t.Fatalf("got %d streams, want 1", got)
	}
}

func TestAcquireDenied(t *testing.T) {
	device := NewMockDevice()
	device.Deny()
	capture := NewCapture(device)

	err := capture.Acquire(context.Background(), Constraints{Audio: true})
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("err = %v, want ErrAccessDenied", err)
	}
	if capture.Acquired() {
		t.Fatal("denied capture reports acquired stream")
	}
}

func TestNilDeviceIsInert(t *testing.T) {
	capture := NewCapture(nil)
	if capture.Available() {
		t.Fatal("nil device reports available")
	}
	if err := capture.Acquire(context.Background(), Constraints{}); err != nil {
		t.Fatalf("Acquire without device: %v", err)
	}
	if capture.Acquired() {
		t.Fatal("nil device produced a stream")
	}
	if err := capture.StartRecording(time.Second); !errors.Is(err, ErrNoStream) {
		t.Fatalf("StartRecording: %v, want ErrNoStream", err)
	}
}

func TestRecordingLifecycle(t *testing.T) {
	capture := NewCapture(NewMockDevice())

	if err := capture.StartRecording(time.Second); !errors.Is(err, ErrNoStream) {
		t.Fatalf("StartRecording before Acquire: %v, want ErrNoStream", err)
	}

	if err := capture.Acquire(context.Background(), Constraints{Video: true}); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := capture.StartRecording(time.Second); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	if err := capture.StartRecording(time.Second); err != nil {
		t.Fatalf("repeated StartRecording: %v", err)
	}

	chunks, err := capture.StopRecording()
	if err != nil {
		t.Fatalf("StopRecording: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("StopRecording returned no chunks")
	}

	if _, err := capture.StopRecording(); !errors.Is(err, ErrNotRecording) {
		t.Fatalf("second StopRecording: %v, want ErrNotRecording", err)
	}
	if got := len(capture.Chunks()); got != len(chunks) {
		t.Fatalf("retained %d chunks, want %d", got, len(chunks))
	}
}

func TestReleaseStopsEverything(t *testing.T) {
	device := NewMockDevice()
	capture := NewCapture(device)

	_ = capture.Acquire(context.Background(), Constraints{Audio: true, Video: true})
	_ = capture.StartRecording(time.Second)

	capture.Release()
	capture.Release() // idempotent

	if !device.Streams()[0].Stopped() {
		t.Fatal("stream tracks were not stopped")
	}
	if capture.Acquired() {
		t.Fatal("capture still reports an acquired stream")
	}
	if len(capture.Chunks()) != 0 {
		t.Fatal("chunks survived Release")
	}
}
