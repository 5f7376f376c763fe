package controller

import "time"

// EventType classifies session events streamed to observers.
type EventType string

const (
	// EventPhase announces a phase transition. Text carries the new phase.
	EventPhase EventType = "phase"
	// EventQuestion announces the active question changing.
	EventQuestion EventType = "question"
	// EventTick carries the per-question elapsed seconds, once per second.
	EventTick EventType = "tick"
	// EventTranscript mirrors committed speech transcripts into the stream.
	EventTranscript EventType = "transcript"
	// EventSpeaking mirrors speaking_start/speaking_end from the speech layer.
	EventSpeaking EventType = "speaking"
	// EventListening mirrors listening_started/listening_stopped.
	EventListening EventType = "listening"
	// EventFeedback announces that analysis completed and records exist.
	EventFeedback EventType = "feedback"
	// EventError carries recoverable errors observers may want to surface.
	EventError EventType = "error"
)

// Event is one observable session occurrence.
type Event struct {
	Type          EventType `json:"type"`
	Phase         Phase     `json:"phase,omitempty"`
	QuestionIndex int       `json:"question_index,omitempty"`
	Text          string    `json:"text,omitempty"`
	Seconds       int       `json:"seconds,omitempty"`
	At            time.Time `json:"at"`
}
