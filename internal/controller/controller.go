package controller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/interview-lab/interviewd/internal/genai"
	"github.com/interview-lab/interviewd/internal/interview"
	"github.com/interview-lab/interviewd/internal/media"
	"github.com/interview-lab/interviewd/internal/observability"
	"github.com/interview-lab/interviewd/internal/question"
	"github.com/interview-lab/interviewd/internal/score"
	"github.com/interview-lab/interviewd/internal/speech"
	"github.com/interview-lab/interviewd/internal/store"
)

// Phase is the session's position in the interview lifecycle. Transitions
// are strictly forward except End, which is legal from every phase.
type Phase string

const (
	PhaseSetup      Phase = "setup"
	PhaseGreeting   Phase = "greeting"
	PhaseQuestions  Phase = "questions"
	PhaseSubmission Phase = "submission"
	PhaseAnalysis   Phase = "analysis"
	PhaseFeedback   Phase = "feedback"
	PhaseEnded      Phase = "ended"
)

var (
	// ErrWrongPhase rejects an operation invoked outside its legal phase.
	ErrWrongPhase = errors.New("controller: operation not valid in current phase")
	// ErrBusy rejects a re-entrant call while the same operation runs.
	ErrBusy = errors.New("controller: operation already in progress")
	// ErrNoFollowUps means the current question's follow-up list is exhausted.
	ErrNoFollowUps = errors.New("controller: no follow-up questions remain")
	// ErrEnded rejects any mutation after End.
	ErrEnded = errors.New("controller: session has ended")
)

// Deps carries the collaborators a session controller drives. Store and
// Metrics may be nil in tests; Speech and Media engines are always non-nil
// (they degrade internally when their capabilities are absent).
type Deps struct {
	Source  *question.Source
	Gateway *genai.Gateway
	Speech  *speech.Engine
	Media   *media.Capture
	Store   store.Store
	Metrics *observability.Metrics
}

// Controller is one interview session's state machine. All state mutations
// are serialized by the mutex; slow work (AI calls, storage) runs outside it
// guarded by per-operation re-entrancy flags.
type Controller struct {
	id         string
	mode       interview.Mode
	job        interview.JobContext
	ownerEmail string
	deps       Deps

	mu              sync.Mutex
	phase           Phase
	questions       []interview.Question
	provenance      question.Provenance
	answers         []interview.Answer
	current         int
	draft           strings.Builder
	followUpsAsked  int
	questionStarted time.Time
	starting        bool
	submitting      bool
	analyzing       bool
	analysis        *interview.AnalysisResult
	records         []interview.FeedbackRecord
	startedAt       time.Time
	lastActivity    time.Time

	evMu       sync.Mutex
	evClosed   bool
	events     chan Event
	tickCancel context.CancelFunc
}

// New builds a controller in the setup phase.
func New(id string, mode interview.Mode, job interview.JobContext, ownerEmail string, deps Deps) *Controller {
	now := time.Now().UTC()
	return &Controller{
		id:           id,
		mode:         mode,
		job:          job,
		ownerEmail:   ownerEmail,
		deps:         deps,
		phase:        PhaseSetup,
		startedAt:    now,
		lastActivity: now,
		events:       make(chan Event, 128),
	}
}

// ID returns the session identifier.
func (c *Controller) ID() string { return c.id }

// Events returns the session event stream. Closed by End.
func (c *Controller) Events() <-chan Event { return c.events }

// Setup acquires recording devices when the mode requires them and moves the
// session into the greeting phase. Device denial keeps the session in setup.
func (c *Controller) Setup(ctx context.Context) error {
	c.mu.Lock()
	if c.phase == PhaseEnded {
		c.mu.Unlock()
		return ErrEnded
	}
	if c.phase != PhaseSetup {
		c.mu.Unlock()
		return ErrWrongPhase
	}
	c.lastActivity = time.Now().UTC()
	c.mu.Unlock()

	if c.mode.RequiresRecording() {
		if err := c.deps.Media.Acquire(ctx, media.Constraints{Audio: true, Video: true}); err != nil {
			return fmt.Errorf("acquire devices: %w", err)
		}
	}

	c.setPhase(PhaseGreeting)
	c.deps.Speech.Speak(ctx, c.greetingText(), speech.Options{})
	return nil
}

// Start fixes the question set, begins recording and listening, and asks the
// first question. The question set never changes after this point. A second
// Start while question generation is still in flight returns ErrBusy.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.phase == PhaseEnded {
		c.mu.Unlock()
		return ErrEnded
	}
	if c.phase != PhaseGreeting {
		c.mu.Unlock()
		return ErrWrongPhase
	}
	if c.starting {
		c.mu.Unlock()
		return ErrBusy
	}
	c.starting = true
	c.lastActivity = time.Now().UTC()
	c.mu.Unlock()

	questions, prov := c.deps.Source.Generate(ctx, c.mode, c.job)

	if c.deps.Store != nil {
		rec := interview.Record{
			ID:         c.id,
			Mode:       c.mode,
			Job:        c.job,
			Questions:  questions,
			OwnerEmail: c.ownerEmail,
		}
		if err := c.deps.Store.SaveInterview(ctx, rec); err != nil {
			log.Printf("controller %s: save interview: %v", c.id, err)
		}
	}

	c.mu.Lock()
	c.questions = questions
	c.provenance = prov
	c.current = 0
	c.followUpsAsked = 0
	c.draft.Reset()
	c.questionStarted = time.Now().UTC()
	c.mu.Unlock()

	c.setPhase(PhaseQuestions)
	c.emit(Event{Type: EventQuestion, QuestionIndex: 0, Text: questions[0].Prompt, At: time.Now().UTC()})

	if c.mode.RequiresRecording() && c.deps.Media.Acquired() {
		if err := c.deps.Media.StartRecording(5 * time.Second); err != nil {
			c.emit(Event{Type: EventError, Text: "recording unavailable: " + err.Error(), At: time.Now().UTC()})
		}
	}
	if err := c.deps.Speech.StartListening(ctx); err != nil {
		c.emit(Event{Type: EventError, Text: "listening unavailable: " + err.Error(), At: time.Now().UTC()})
	}
	go c.consumeSpeech()

	c.deps.Speech.Speak(ctx, questions[0].Prompt, speech.Options{})

	tickCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	if c.phase == PhaseEnded {
		// End raced the startup work; nothing may outlive it.
		c.starting = false
		c.mu.Unlock()
		cancel()
		return ErrEnded
	}
	c.tickCancel = cancel
	c.starting = false
	c.mu.Unlock()
	go c.tickLoop(tickCtx)

	return nil
}

// AskFollowUp speaks the next scripted follow-up for the active question and
// returns its text. Exhausting the list yields ErrNoFollowUps; follow-ups are
// never invented beyond the script.
func (c *Controller) AskFollowUp(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.phase != PhaseQuestions {
		c.mu.Unlock()
		if c.phase == PhaseEnded {
			return "", ErrEnded
		}
		return "", ErrWrongPhase
	}
	q := c.questions[c.current]
	if c.followUpsAsked >= len(q.FollowUps) {
		c.mu.Unlock()
		return "", ErrNoFollowUps
	}
	followUp := q.FollowUps[c.followUpsAsked]
	c.followUpsAsked++
	c.lastActivity = time.Now().UTC()
	c.mu.Unlock()

	c.deps.Speech.Speak(ctx, followUp, speech.Options{})
	return followUp, nil
}

// SubmitAnswer commits the current answer, combining typed text with any
// accumulated speech transcript, and advances to the next question or the
// submission phase. A concurrent submit for the same question returns ErrBusy
// and commits nothing.
func (c *Controller) SubmitAnswer(ctx context.Context, typed string) error {
	c.mu.Lock()
	if c.phase != PhaseQuestions {
		c.mu.Unlock()
		if c.phase == PhaseEnded {
			return ErrEnded
		}
		return ErrWrongPhase
	}
	if c.submitting {
		c.mu.Unlock()
		return ErrBusy
	}
	c.submitting = true

	q := c.questions[c.current]
	text := strings.TrimSpace(strings.Join(nonEmpty(c.draft.String(), typed), " "))
	answer := interview.Answer{
		QuestionID:     q.ID,
		Text:           text,
		SubmittedAt:    time.Now().UTC(),
		Elapsed:        time.Since(c.questionStarted),
		FollowUpsAsked: c.followUpsAsked,
	}
	c.answers = append(c.answers, answer)

	last := c.current == len(c.questions)-1
	if !last {
		c.current++
		c.followUpsAsked = 0
		c.draft.Reset()
		c.questionStarted = time.Now().UTC()
	}
	next := c.current
	var nextPrompt string
	if !last {
		nextPrompt = c.questions[next].Prompt
	}
	c.lastActivity = time.Now().UTC()
	c.submitting = false
	c.mu.Unlock()

	if last {
		c.deps.Speech.StopListening()
		if c.deps.Media.Acquired() {
			if _, err := c.deps.Media.StopRecording(); err != nil && !errors.Is(err, media.ErrNotRecording) {
				log.Printf("controller %s: stop recording: %v", c.id, err)
			}
		}
		c.stopTicker()
		c.setPhase(PhaseSubmission)
		return nil
	}

	c.emit(Event{Type: EventQuestion, QuestionIndex: next, Text: nextPrompt, At: time.Now().UTC()})
	c.deps.Speech.Speak(ctx, nextPrompt, speech.Options{})
	return nil
}

// GenerateFeedback runs the analysis exactly once, persists one feedback
// record per question, and moves the session to the feedback phase. When the
// AI path fails the deterministic fallback analysis is used and the result is
// flagged degraded.
func (c *Controller) GenerateFeedback(ctx context.Context) (interview.AnalysisResult, []interview.FeedbackRecord, error) {
	c.mu.Lock()
	switch {
	case c.phase == PhaseEnded:
		c.mu.Unlock()
		return interview.AnalysisResult{}, nil, ErrEnded
	case c.phase == PhaseFeedback && c.analysis != nil:
		// Feedback already generated; return the cached result.
		analysis := *c.analysis
		records := append([]interview.FeedbackRecord(nil), c.records...)
		c.mu.Unlock()
		return analysis, records, nil
	case c.phase != PhaseSubmission:
		c.mu.Unlock()
		return interview.AnalysisResult{}, nil, ErrWrongPhase
	case c.analyzing:
		c.mu.Unlock()
		return interview.AnalysisResult{}, nil, ErrBusy
	}
	c.analyzing = true
	questions := append([]interview.Question(nil), c.questions...)
	answers := append([]interview.Answer(nil), c.answers...)
	c.lastActivity = time.Now().UTC()
	c.mu.Unlock()

	c.setPhase(PhaseAnalysis)

	started := time.Now()
	analysis := c.analyze(ctx, questions, answers)
	if c.deps.Metrics != nil {
		c.deps.Metrics.ObserveAnalysisLatency(time.Since(started))
	}

	records := score.Aggregate(c.id, c.ownerEmail, questions, answers, analysis, time.Now())
	if c.deps.Store != nil {
		if err := c.deps.Store.SaveFeedback(ctx, records); err != nil {
			log.Printf("controller %s: save feedback: %v", c.id, err)
		}
	}

	c.mu.Lock()
	c.analysis = &analysis
	c.records = records
	c.analyzing = false
	c.mu.Unlock()

	c.setPhase(PhaseFeedback)
	c.emit(Event{Type: EventFeedback, At: time.Now().UTC()})
	return analysis, records, nil
}

// analyze runs the AI transcript analysis with the fallback as safety net.
func (c *Controller) analyze(ctx context.Context, questions []interview.Question, answers []interview.Answer) interview.AnalysisResult {
	if c.deps.Gateway != nil && c.deps.Gateway.Configured() {
		raw, err := c.deps.Gateway.Request(ctx, question.AnalysisPrompt(c.mode, questions, answers))
		if err == nil {
			var result interview.AnalysisResult
			if err := genai.DecodeObject(raw, &result); err == nil {
				return result
			}
			log.Printf("controller %s: malformed analysis, using fallback: %v", c.id, err)
		} else {
			log.Printf("controller %s: analysis request failed, using fallback: %v", c.id, err)
		}
	}
	return score.FallbackAnalysis(questions, answers)
}

// End tears the session down from any phase: speech stops, listening stops,
// devices release, timers stop, and the event stream closes. Idempotent.
func (c *Controller) End(ctx context.Context) {
	c.mu.Lock()
	if c.phase == PhaseEnded {
		c.mu.Unlock()
		return
	}
	c.phase = PhaseEnded
	c.lastActivity = time.Now().UTC()
	cancel := c.tickCancel
	c.tickCancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.deps.Speech.StopSpeaking()
	c.deps.Speech.StopListening()
	c.deps.Media.Release()

	c.emit(Event{Type: EventPhase, Phase: PhaseEnded, Text: string(PhaseEnded), At: time.Now().UTC()})
	c.countPhase(PhaseEnded)
	c.closeEvents()
	c.deps.Speech.Close()
}

// AppendTranscript adds committed speech text to the active answer draft.
// Outside the questions phase the text is dropped.
func (c *Controller) AppendTranscript(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseQuestions {
		return
	}
	if c.draft.Len() > 0 {
		c.draft.WriteByte(' ')
	}
	c.draft.WriteString(text)
	c.lastActivity = time.Now().UTC()
}

// Snapshot is an immutable view of the session for API responses.
type Snapshot struct {
	ID              string                     `json:"id"`
	Mode            interview.Mode             `json:"mode"`
	Phase           Phase                      `json:"phase"`
	Job             interview.JobContext       `json:"job"`
	Questions       []interview.Question       `json:"questions,omitempty"`
	Provenance      question.Provenance        `json:"provenance,omitempty"`
	CurrentQuestion int                        `json:"current_question"`
	FollowUpsAsked  int                        `json:"follow_ups_asked"`
	Answers         []interview.Answer         `json:"answers,omitempty"`
	Analysis        *interview.AnalysisResult  `json:"analysis,omitempty"`
	Records         []interview.FeedbackRecord `json:"records,omitempty"`
	StartedAt       time.Time                  `json:"started_at"`
	LastActivityAt  time.Time                  `json:"last_activity_at"`
}

// Snapshot returns a copy of the current session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := Snapshot{
		ID:              c.id,
		Mode:            c.mode,
		Phase:           c.phase,
		Job:             c.job,
		Questions:       append([]interview.Question(nil), c.questions...),
		Provenance:      c.provenance,
		CurrentQuestion: c.current,
		FollowUpsAsked:  c.followUpsAsked,
		Answers:         append([]interview.Answer(nil), c.answers...),
		Records:         append([]interview.FeedbackRecord(nil), c.records...),
		StartedAt:       c.startedAt,
		LastActivityAt:  c.lastActivity,
	}
	if c.analysis != nil {
		a := *c.analysis
		snap.Analysis = &a
	}
	return snap
}

// LastActivity returns the session's most recent activity timestamp.
func (c *Controller) LastActivity() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActivity
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *Controller) greetingText() string {
	role := c.job.Role
	if role == "" {
		role = "this position"
	}
	switch c.mode {
	case interview.ModeHR:
		return fmt.Sprintf("Hello, and welcome to your HR interview for %s. We will go through a few behavioral questions. Take your time with each answer.", role)
	case interview.ModeCoding:
		return fmt.Sprintf("Welcome to your coding interview for %s. Talk through your approach before writing code.", role)
	default:
		return fmt.Sprintf("Hello, and welcome to your interview for %s. When you are ready, start the session and I will ask the first question.", role)
	}
}

// consumeSpeech forwards speech events into the session stream and commits
// transcripts into the answer draft. Exits when the engine closes.
func (c *Controller) consumeSpeech() {
	for ev := range c.deps.Speech.Events() {
		switch ev.Type {
		case speech.EventTranscript:
			c.AppendTranscript(ev.Text)
			c.emit(Event{Type: EventTranscript, Text: ev.Text, At: time.Now().UTC()})
		case speech.EventSpeakingStart:
			c.emit(Event{Type: EventSpeaking, Text: "start", At: time.Now().UTC()})
		case speech.EventSpeakingEnd:
			c.emit(Event{Type: EventSpeaking, Text: "end", At: time.Now().UTC()})
		case speech.EventListeningStart:
			c.emit(Event{Type: EventListening, Text: "start", At: time.Now().UTC()})
		case speech.EventListeningStop:
			c.emit(Event{Type: EventListening, Text: "stop", At: time.Now().UTC()})
		case speech.EventError:
			c.emit(Event{Type: EventError, Text: ev.Detail, At: time.Now().UTC()})
		}
	}
}

// tickLoop publishes per-question elapsed seconds once per second while the
// session is in the questions phase.
func (c *Controller) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.phase != PhaseQuestions {
				// Phases only move forward; once past questions the
				// loop has nothing left to publish.
				c.mu.Unlock()
				return
			}
			seconds := int(time.Since(c.questionStarted).Seconds())
			index := c.current
			c.mu.Unlock()
			c.emit(Event{Type: EventTick, QuestionIndex: index, Seconds: seconds, At: time.Now().UTC()})
		}
	}
}

func (c *Controller) stopTicker() {
	c.mu.Lock()
	cancel := c.tickCancel
	c.tickCancel = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// setPhase commits a transition and publishes it.
func (c *Controller) setPhase(p Phase) {
	c.mu.Lock()
	if c.phase == PhaseEnded {
		c.mu.Unlock()
		return
	}
	c.phase = p
	c.lastActivity = time.Now().UTC()
	c.mu.Unlock()

	c.emit(Event{Type: EventPhase, Phase: p, Text: string(p), At: time.Now().UTC()})
	c.countPhase(p)
}

func (c *Controller) countPhase(p Phase) {
	if c.deps.Metrics != nil {
		c.deps.Metrics.PhaseTransitions.WithLabelValues(string(p)).Inc()
	}
}

// emit drops events instead of blocking a slow observer.
func (c *Controller) emit(ev Event) {
	c.evMu.Lock()
	defer c.evMu.Unlock()
	if c.evClosed {
		return
	}
	select {
	case c.events <- ev:
	default:
	}
}

func (c *Controller) closeEvents() {
	c.evMu.Lock()
	defer c.evMu.Unlock()
	if c.evClosed {
		return
	}
	c.evClosed = true
	close(c.events)
}

func nonEmpty(parts ...string) []string {
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
