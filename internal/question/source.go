package question

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/interview-lab/interviewd/internal/genai"
	"github.com/interview-lab/interviewd/internal/interview"
	"github.com/interview-lab/interviewd/internal/observability"
)

// Provenance records where a question set came from.
type Provenance string

const (
	ProvenanceAI       Provenance = "ai"
	ProvenanceFallback Provenance = "fallback"
)

// Counts holds per-mode question set sizes. Zero values fall back to the
// defaults below.
type Counts struct {
	Technical int
	HR        int
	Resume    int
	Coding    int
}

// DefaultCounts matches the interface defaults the service ships with.
func DefaultCounts() Counts {
	return Counts{Technical: 5, HR: 5, Resume: 5, Coding: 2}
}

func (c Counts) forMode(mode interview.Mode) int {
	d := DefaultCounts()
	switch mode {
	case interview.ModeHR:
		if c.HR > 0 {
			return c.HR
		}
		return d.HR
	case interview.ModeResume:
		if c.Resume > 0 {
			return c.Resume
		}
		return d.Resume
	case interview.ModeCoding:
		if c.Coding > 0 {
			return c.Coding
		}
		return d.Coding
	default:
		if c.Technical > 0 {
			return c.Technical
		}
		return d.Technical
	}
}

// Source produces the question set for a new session. The AI path is tried
// first when the gateway is configured; any failure, including a malformed
// response, swaps in the whole fallback catalog for the mode. AI and fallback
// questions are never mixed within one set.
type Source struct {
	gateway *genai.Gateway
	counts  Counts
	metrics *observability.Metrics
}

// NewSource builds a source. A nil gateway pins the source to fallback.
func NewSource(gateway *genai.Gateway, counts Counts, metrics *observability.Metrics) *Source {
	return &Source{gateway: gateway, counts: counts, metrics: metrics}
}

// Generate returns a non-empty question set and its provenance. It never
// fails: when the AI path is unusable the deterministic fallback catalog for
// the mode is returned instead.
func (s *Source) Generate(ctx context.Context, mode interview.Mode, job interview.JobContext) ([]interview.Question, Provenance) {
	count := s.counts.forMode(mode)

	if s.gateway != nil && s.gateway.Configured() {
		started := time.Now()
		questions, err := s.generateAI(ctx, mode, job, count)
		if s.metrics != nil {
			s.metrics.Window.Observe(observability.StageGenerateQuestions, time.Since(started))
		}
		if err == nil {
			s.count(ProvenanceAI)
			return questions, ProvenanceAI
		}
		log.Printf("question: AI generation failed, using fallback catalog: %v", err)
	}

	s.count(ProvenanceFallback)
	return fallbackSet(mode, job, count), ProvenanceFallback
}

func (s *Source) generateAI(ctx context.Context, mode interview.Mode, job interview.JobContext, count int) ([]interview.Question, error) {
	raw, err := s.gateway.Request(ctx, GenerationPrompt(job, count))
	if err != nil {
		return nil, err
	}
	generated, err := genai.DecodeQuestions(raw)
	if err != nil {
		return nil, err
	}

	questions := make([]interview.Question, 0, len(generated))
	for _, g := range generated {
		questions = append(questions, interview.Question{
			ID:              uuid.NewString(),
			Category:        categoryFor(mode),
			Prompt:          g.Question,
			ReferenceAnswer: g.Answer,
		})
	}
	if count > 0 && len(questions) > count {
		questions = questions[:count]
	}
	return questions, nil
}

func categoryFor(mode interview.Mode) string {
	switch mode {
	case interview.ModeHR:
		return "Behavioral"
	case interview.ModeCoding:
		return "Coding"
	case interview.ModeResume:
		return "Resume"
	default:
		return "Technical"
	}
}

func (s *Source) count(p Provenance) {
	if s.metrics != nil {
		s.metrics.QuestionSource.WithLabelValues(string(p)).Inc()
	}
}
