package speech

import "context"

// EventType classifies engine events delivered to session controllers.
type EventType string

const (
	EventSpeakingStart  EventType = "speaking_start"
	EventSpeakingEnd    EventType = "speaking_end"
	EventListeningStart EventType = "listening_started"
	EventListeningStop  EventType = "listening_stopped"
	EventTranscript     EventType = "transcript"
	EventError          EventType = "error"
)

// Event is one observable speech-layer occurrence. Transcript events carry
// only committed (final) recognition results; interim hypotheses never leave
// the engine.
type Event struct {
	Type        EventType
	UtteranceID string
	Text        string
	Confidence  float64
	Detail      string
	Timestamp   int64
}

// Utterance is one in-flight synthesis. Done resolves exactly once: nil when
// playback ran to completion, an error otherwise. Cancel is idempotent and
// resolves Done with context.Canceled if playback had not finished.
type Utterance interface {
	Done() <-chan error
	Cancel()
}

// Voice identifies one synthesizer voice.
type Voice struct {
	Name   string
	Locale string
}

// Options shape one utterance's delivery. Zero Rate, Pitch, and Volume mean
// the synthesizer defaults (1.0). Voice names a preferred voice; when the
// synthesizer does not offer it, the engine substitutes the first available
// voice for its locale.
type Options struct {
	Rate   float64
	Pitch  float64
	Volume float64
	Voice  string
}

// Synthesizer is the text-to-speech capability. Implementations are expected
// to support overlapping Speak calls; serialization and preemption are the
// engine's job. The Voice in opts is already resolved against Voices.
type Synthesizer interface {
	Speak(ctx context.Context, text string, opts Options) (Utterance, error)
	Voices() []Voice
}

// RecognitionResult is one hypothesis from a recognizer. Final marks a
// committed segment; non-final results are interim and may be revised.
type RecognitionResult struct {
	Text       string
	Confidence float64
	Final      bool
}

// Recognition is one continuous listening stream.
type Recognition interface {
	Results() <-chan RecognitionResult
	Close() error
}

// Recognizer is the speech-to-text capability.
type Recognizer interface {
	Start(ctx context.Context) (Recognition, error)
}
