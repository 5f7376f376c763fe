package speech

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Engine serializes one Synthesizer and one Recognizer behind a single event
// stream. At most one utterance is active: a new Speak cancels the previous
// one, and a preempted utterance never emits its speaking_end event.
//
// Either capability may be nil. A nil synthesizer makes Speak a silent no-op
// and a nil recognizer makes listening a silent no-op; sessions proceed
// text-only without errors.
type Engine struct {
	synth  Synthesizer
	rec    Recognizer
	locale string

	mu           sync.Mutex
	currentID    string
	current      Utterance
	listening    bool
	listenRec    Recognition
	listenCancel context.CancelFunc
	closed       bool

	events chan Event
}

// NewEngine builds an engine around the available capabilities.
func NewEngine(synth Synthesizer, rec Recognizer) *Engine {
	return &Engine{
		synth:  synth,
		rec:    rec,
		locale: "en-US",
		events: make(chan Event, 64),
	}
}

// SetLocale fixes the locale used when falling back from a missing preferred
// voice. Call before the first Speak.
func (e *Engine) SetLocale(locale string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if locale != "" {
		e.locale = locale
	}
}

// Events returns the engine's event stream. The channel is closed by Close.
func (e *Engine) Events() <-chan Event { return e.events }

// Speaking reports whether an utterance is currently active.
func (e *Engine) Speaking() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current != nil
}

// Speak starts synthesizing text, preempting any active utterance. It returns
// the utterance ID, or "" when no synthesizer is available or text is empty.
// A preferred voice the synthesizer does not offer is replaced by the first
// available voice for the engine's locale.
func (e *Engine) Speak(ctx context.Context, text string, opts Options) string {
	if e.synth == nil || text == "" {
		return ""
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ""
	}
	if e.current != nil {
		e.current.Cancel()
		e.current = nil
		e.currentID = ""
	}
	locale := e.locale
	e.mu.Unlock()

	if opts.Rate == 0 {
		opts.Rate = 1
	}
	if opts.Pitch == 0 {
		opts.Pitch = 1
	}
	if opts.Volume == 0 {
		opts.Volume = 1
	}
	opts.Voice = resolveVoice(e.synth.Voices(), opts.Voice, locale)

	utt, err := e.synth.Speak(ctx, text, opts)
	if err != nil {
		e.emit(Event{Type: EventError, Detail: "synthesis failed: " + err.Error(), Timestamp: time.Now().UnixMilli()})
		return ""
	}

	id := uuid.NewString()
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		utt.Cancel()
		return ""
	}
	e.currentID = id
	e.current = utt
	e.mu.Unlock()

	e.emit(Event{Type: EventSpeakingStart, UtteranceID: id, Text: text, Timestamp: time.Now().UnixMilli()})
	go e.watch(id, utt)
	return id
}

// resolveVoice keeps preferred when the synthesizer offers it, then falls
// back to the first voice for the locale, then to the first voice at all.
func resolveVoice(voices []Voice, preferred, locale string) string {
	if preferred != "" {
		for _, v := range voices {
			if v.Name == preferred {
				return preferred
			}
		}
	}
	for _, v := range voices {
		if v.Locale == locale {
			return v.Name
		}
	}
	if len(voices) > 0 {
		return voices[0].Name
	}
	return ""
}

// watch waits for the utterance to finish and emits speaking_end only if the
// utterance is still the current one. Preempted utterances finish silently.
func (e *Engine) watch(id string, utt Utterance) {
	err := <-utt.Done()

	e.mu.Lock()
	stillCurrent := e.currentID == id
	if stillCurrent {
		e.currentID = ""
		e.current = nil
	}
	e.mu.Unlock()

	if !stillCurrent {
		return
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		e.emit(Event{Type: EventError, UtteranceID: id, Detail: err.Error(), Timestamp: time.Now().UnixMilli()})
		return
	}
	e.emit(Event{Type: EventSpeakingEnd, UtteranceID: id, Timestamp: time.Now().UnixMilli()})
}

// StopSpeaking cancels the active utterance, if any.
func (e *Engine) StopSpeaking() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current != nil {
		e.current.Cancel()
		e.current = nil
		e.currentID = ""
	}
}

// StartListening opens a continuous recognition stream. A second call while
// already listening is a no-op, as is any call without a recognizer.
func (e *Engine) StartListening(ctx context.Context) error {
	if e.rec == nil {
		return nil
	}

	e.mu.Lock()
	if e.listening || e.closed {
		e.mu.Unlock()
		return nil
	}
	e.listening = true
	e.mu.Unlock()

	recCtx, cancel := context.WithCancel(ctx)
	recognition, err := e.rec.Start(recCtx)
	if err != nil {
		cancel()
		e.mu.Lock()
		e.listening = false
		e.mu.Unlock()
		e.emit(Event{Type: EventError, Detail: "recognition failed to start: " + err.Error(), Timestamp: time.Now().UnixMilli()})
		return err
	}

	e.mu.Lock()
	e.listenRec = recognition
	e.listenCancel = cancel
	e.mu.Unlock()

	e.emit(Event{Type: EventListeningStart, Timestamp: time.Now().UnixMilli()})
	go e.forward(recognition)
	return nil
}

// forward relays committed recognition results as transcript events.
func (e *Engine) forward(recognition Recognition) {
	for result := range recognition.Results() {
		if !result.Final {
			continue
		}
		e.emit(Event{
			Type:       EventTranscript,
			Text:       result.Text,
			Confidence: result.Confidence,
			Timestamp:  time.Now().UnixMilli(),
		})
	}
	e.mu.Lock()
	wasCurrent := e.listenRec == recognition
	if wasCurrent {
		e.listening = false
		e.listenRec = nil
		e.listenCancel = nil
	}
	e.mu.Unlock()

	// A stream that ran dry on its own still ends the listening window.
	// When StopListening already detached it, the stop event was emitted
	// there.
	if wasCurrent {
		e.emit(Event{Type: EventListeningStop, Timestamp: time.Now().UnixMilli()})
	}
}

// StopListening closes the recognition stream. Idempotent.
func (e *Engine) StopListening() {
	e.mu.Lock()
	recognition := e.listenRec
	cancel := e.listenCancel
	e.listening = false
	e.listenRec = nil
	e.listenCancel = nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if recognition != nil {
		if err := recognition.Close(); err != nil {
			log.Printf("speech: recognition close: %v", err)
		}
		e.emit(Event{Type: EventListeningStop, Timestamp: time.Now().UnixMilli()})
	}
}

// Close stops all activity and closes the event stream. Callers must not use
// the engine afterwards.
func (e *Engine) Close() {
	e.StopListening()
	e.StopSpeaking()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	close(e.events)
}

// emit drops the event instead of blocking when the consumer lags.
func (e *Engine) emit(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	select {
	case e.events <- ev:
	default:
	}
}
