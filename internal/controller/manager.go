package controller

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/interview-lab/interviewd/internal/interview"
	"github.com/interview-lab/interviewd/internal/media"
	"github.com/interview-lab/interviewd/internal/speech"
)

// ErrNotFound is returned for unknown session IDs.
var ErrNotFound = errors.New("controller: session not found")

// Capabilities builds the per-session speech and media engines. Nil factory
// fields produce inert engines; text-only sessions work throughout. Locale
// selects the fallback synthesizer voice.
type Capabilities struct {
	Synthesizer func() speech.Synthesizer
	Recognizer  func() speech.Recognizer
	Device      func() media.Device
	Locale      string
}

// Manager owns the live session registry. Sessions expire after the
// inactivity timeout, going through the same End path as a client-requested
// teardown.
type Manager struct {
	mu                sync.RWMutex
	sessions          map[string]*Controller
	inactivityTimeout time.Duration
	shared            Deps
	caps              Capabilities
	onExpire          func(*Controller)
}

// NewManager builds a registry around shared dependencies. Speech and Media
// in shared are ignored; they are created per session from caps.
func NewManager(inactivityTimeout time.Duration, shared Deps, caps Capabilities) *Manager {
	if inactivityTimeout <= 0 {
		inactivityTimeout = 10 * time.Minute
	}
	return &Manager{
		sessions:          make(map[string]*Controller),
		inactivityTimeout: inactivityTimeout,
		shared:            shared,
		caps:              caps,
	}
}

// SetExpireHook registers a callback invoked after a session is expired by
// the janitor.
func (m *Manager) SetExpireHook(hook func(*Controller)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpire = hook
}

// Create registers a new session in the setup phase.
func (m *Manager) Create(mode interview.Mode, job interview.JobContext, ownerEmail string) *Controller {
	deps := m.shared
	deps.Speech = speech.NewEngine(m.synth(), m.rec())
	deps.Speech.SetLocale(m.caps.Locale)
	deps.Media = media.NewCapture(m.device())

	c := New(uuid.NewString(), mode, job, ownerEmail, deps)

	m.mu.Lock()
	m.sessions[c.ID()] = c
	m.mu.Unlock()

	if m.shared.Metrics != nil {
		m.shared.Metrics.ActiveSessions.Inc()
		m.shared.Metrics.SessionEvents.WithLabelValues("created").Inc()
	}
	return c
}

// Get returns a live session.
func (m *Manager) Get(id string) (*Controller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

// End tears a session down and removes it from the registry.
func (m *Manager) End(ctx context.Context, id string) error {
	m.mu.Lock()
	c, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}

	c.End(ctx)
	if m.shared.Metrics != nil {
		m.shared.Metrics.ActiveSessions.Dec()
		m.shared.Metrics.SessionEvents.WithLabelValues("ended").Inc()
	}
	return nil
}

// ActiveCount reports the number of live sessions.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// StartJanitor expires inactive sessions until ctx is canceled.
func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.expireInactive(ctx)
			}
		}
	}()
}

func (m *Manager) expireInactive(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-m.inactivityTimeout)

	m.mu.Lock()
	var expired []*Controller
	for id, c := range m.sessions {
		if c.LastActivity().Before(cutoff) {
			expired = append(expired, c)
			delete(m.sessions, id)
		}
	}
	hook := m.onExpire
	m.mu.Unlock()

	for _, c := range expired {
		log.Printf("controller: expiring inactive session %s", c.ID())
		c.End(ctx)
		if m.shared.Metrics != nil {
			m.shared.Metrics.ActiveSessions.Dec()
			m.shared.Metrics.SessionEvents.WithLabelValues("expired").Inc()
		}
		if hook != nil {
			hook(c)
		}
	}
}

func (m *Manager) synth() speech.Synthesizer {
	if m.caps.Synthesizer == nil {
		return nil
	}
	return m.caps.Synthesizer()
}

func (m *Manager) rec() speech.Recognizer {
	if m.caps.Recognizer == nil {
		return nil
	}
	return m.caps.Recognizer()
}

func (m *Manager) device() media.Device {
	if m.caps.Device == nil {
		return nil
	}
	return m.caps.Device()
}
