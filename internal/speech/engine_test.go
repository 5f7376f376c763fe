package speech

import (
	"context"
	"testing"
	"time"
)

func collectEvent(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-events:
		if !ok {
			t.Fatal("event channel closed")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestSpeakEmitsStartAndEnd(t *testing.T) {
	synth := NewMockSynthesizer()
	engine := NewEngine(synth, nil)
	defer engine.Close()

	id := engine.Speak(context.Background(), "hello there", Options{})
	if id == "" {
		t.Fatal("expected utterance id")
	}

	start := collectEvent(t, engine.Events())
	if start.Type != EventSpeakingStart || start.UtteranceID != id {
		t.Fatalf("first event = %+v", start)
	}

	synth.Utterances()[0].Finish()

	end := collectEvent(t, engine.Events())
	if end.Type != EventSpeakingEnd || end.UtteranceID != id {
		t.Fatalf("second event = %+v", end)
	}
}

func TestSpeakPreemptsPriorUtterance(t *testing.T) {
	synth := NewMockSynthesizer()
	engine := NewEngine(synth, nil)
	defer engine.Close()

	first := engine.Speak(context.Background(), "first", Options{})
	_ = collectEvent(t, engine.Events()) // first speaking_start

	second := engine.Speak(context.Background(), "second", Options{})
	if second == first {
		t.Fatal("expected distinct utterance ids")
	}

	utts := synth.Utterances()
	if len(utts) != 2 {
		t.Fatalf("got %d utterances, want 2", len(utts))
	}
	if !utts[0].Canceled() {
		t.Fatal("first utterance was not canceled")
	}

	// The preempted utterance must not emit speaking_end. The next events
	// are the second start and, after it finishes, the second end.
	startB := collectEvent(t, engine.Events())
	if startB.Type != EventSpeakingStart || startB.UtteranceID != second {
		t.Fatalf("event after preemption = %+v", startB)
	}

	utts[1].Finish()
	endB := collectEvent(t, engine.Events())
	if endB.Type != EventSpeakingEnd || endB.UtteranceID != second {
		t.Fatalf("final event = %+v", endB)
	}
}

func TestNilCapabilitiesAreInert(t *testing.T) {
	engine := NewEngine(nil, nil)
	defer engine.Close()

	if id := engine.Speak(context.Background(), "ignored", Options{}); id != "" {
		t.Fatalf("nil synthesizer produced utterance %q", id)
	}
	if err := engine.StartListening(context.Background()); err != nil {
		t.Fatalf("nil recognizer returned error: %v", err)
	}
	engine.StopListening()

	select {
	case ev := <-engine.Events():
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestListeningForwardsOnlyFinalResults(t *testing.T) {
	rec := NewMockRecognizer()
	engine := NewEngine(nil, rec)
	defer engine.Close()

	if err := engine.StartListening(context.Background()); err != nil {
		t.Fatalf("StartListening: %v", err)
	}
	if ev := collectEvent(t, engine.Events()); ev.Type != EventListeningStart {
		t.Fatalf("event after start = %+v", ev)
	}

	session := rec.Sessions()[0]
	session.Emit(RecognitionResult{Text: "part", Final: false, Confidence: 0.4})
	session.Emit(RecognitionResult{Text: "partial answer", Final: false, Confidence: 0.5})
	session.Emit(RecognitionResult{Text: "my full answer", Final: true, Confidence: 0.9})

	ev := collectEvent(t, engine.Events())
	if ev.Type != EventTranscript || ev.Text != "my full answer" {
		t.Fatalf("event = %+v", ev)
	}
}

func TestStartListeningIsIdempotent(t *testing.T) {
	rec := NewMockRecognizer()
	engine := NewEngine(nil, rec)
	defer engine.Close()

	for i := 0; i < 3; i++ {
		if err := engine.StartListening(context.Background()); err != nil {
			t.Fatalf("StartListening #%d: %v", i, err)
		}
	}
	if got := len(rec.Sessions()); got != 1 {
		t.Fatalf("got %d recognition sessions, want 1", got)
	}

	engine.StopListening()
	engine.StopListening() // second stop is a no-op

	if !rec.Sessions()[0].Closed() {
		t.Fatal("recognition was not closed")
	}
}

func TestStopListeningAllowsRestart(t *testing.T) {
	rec := NewMockRecognizer()
	engine := NewEngine(nil, rec)
	defer engine.Close()

	_ = engine.StartListening(context.Background())
	engine.StopListening()
	_ = engine.StartListening(context.Background())

	if got := len(rec.Sessions()); got != 2 {
		t.Fatalf("got %d recognition sessions, want 2", got)
	}
}

func TestSpeakResolvesPreferredVoice(t *testing.T) {
	synth := NewMockSynthesizer()
	synth.SetVoices(
		Voice{Name: "aria", Locale: "en-US"},
		Voice{Name: "femi", Locale: "en-GB"},
	)
	engine := NewEngine(synth, nil)
	defer engine.Close()

	_ = engine.Speak(context.Background(), "hello", Options{Voice: "femi"})
	if got := synth.Utterances()[0].Opts.Voice; got != "femi" {
		t.Fatalf("voice = %q, want femi", got)
	}
}

func TestSpeakFallsBackToLocaleVoice(t *testing.T) {
	synth := NewMockSynthesizer()
	synth.SetVoices(
		Voice{Name: "claire", Locale: "fr-FR"},
		Voice{Name: "aria", Locale: "en-US"},
	)
	engine := NewEngine(synth, nil)
	defer engine.Close()

	// The preferred voice does not exist; the first en-US voice wins.
	_ = engine.Speak(context.Background(), "hello", Options{Voice: "nonexistent"})
	if got := synth.Utterances()[0].Opts.Voice; got != "aria" {
		t.Fatalf("voice = %q, want aria", got)
	}
}

func TestSpeakNormalizesZeroOptions(t *testing.T) {
	synth := NewMockSynthesizer()
	engine := NewEngine(synth, nil)
	defer engine.Close()

	_ = engine.Speak(context.Background(), "hello", Options{})
	opts := synth.Utterances()[0].Opts
	if opts.Rate != 1 || opts.Pitch != 1 || opts.Volume != 1 {
		t.Fatalf("opts = %+v, want rate/pitch/volume 1", opts)
	}
}

func TestListeningLifecycleEvents(t *testing.T) {
	rec := NewMockRecognizer()
	engine := NewEngine(nil, rec)
	defer engine.Close()

	if err := engine.StartListening(context.Background()); err != nil {
		t.Fatalf("StartListening: %v", err)
	}
	if ev := collectEvent(t, engine.Events()); ev.Type != EventListeningStart {
		t.Fatalf("first event = %+v", ev)
	}

	engine.StopListening()
	if ev := collectEvent(t, engine.Events()); ev.Type != EventListeningStop {
		t.Fatalf("event after stop = %+v", ev)
	}
}

func TestListeningStopsWhenStreamEnds(t *testing.T) {
	rec := NewMockRecognizer()
	engine := NewEngine(nil, rec)
	defer engine.Close()

	_ = engine.StartListening(context.Background())
	if ev := collectEvent(t, engine.Events()); ev.Type != EventListeningStart {
		t.Fatalf("first event = %+v", ev)
	}

	// The recognizer closing its own stream ends the listening window too.
	_ = rec.Sessions()[0].Close()
	if ev := collectEvent(t, engine.Events()); ev.Type != EventListeningStop {
		t.Fatalf("event after stream end = %+v", ev)
	}
}
