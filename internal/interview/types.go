package interview

import "time"

// Mode selects which phase-machine flavor a session runs. All modes share the
// same controller; the mode only changes the question source, the prompts,
// and whether camera recording is required.
type Mode string

const (
	ModeTechnical Mode = "technical"
	ModeHR        Mode = "hr"
	ModeResume    Mode = "resume"
	ModeCoding    Mode = "coding"
)

// Valid reports whether m is one of the known interview modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeTechnical, ModeHR, ModeResume, ModeCoding:
		return true
	default:
		return false
	}
}

// RequiresRecording reports whether sessions in this mode cannot start
// without an acquired camera/microphone stream.
func (m Mode) RequiresRecording() bool {
	switch m {
	case ModeTechnical, ModeHR:
		return true
	default:
		return false
	}
}

// JobContext describes the role the candidate is interviewing for. It is the
// outbound payload for question generation.
type JobContext struct {
	Role       string `json:"role"`
	Desc       string `json:"description"`
	Experience string `json:"experience"`
	Resume     string `json:"resume,omitempty"`
}

// Question is one prompt in a session's question set. The set is fixed when
// the session leaves the greeting phase and never mutated afterwards.
type Question struct {
	ID              string   `json:"id"`
	Category        string   `json:"category"`
	Prompt          string   `json:"prompt"`
	FollowUps       []string `json:"follow_ups,omitempty"`
	KeyPoints       []string `json:"key_points,omitempty"`
	ReferenceAnswer string   `json:"reference_answer,omitempty"`
}

// Answer is the candidate's response to one question. Text accumulates from
// typed input and committed speech transcripts until submission; after
// SubmittedAt is set the answer is immutable.
type Answer struct {
	QuestionID     string        `json:"question_id"`
	Text           string        `json:"text"`
	SubmittedAt    time.Time     `json:"submitted_at"`
	Elapsed        time.Duration `json:"elapsed"`
	FollowUpsAsked int           `json:"follow_ups_asked"`
}

// QuestionAnalysis is the per-question slice of an AnalysisResult.
type QuestionAnalysis struct {
	QuestionIndex int      `json:"questionIndex"`
	Score         float64  `json:"score"`
	Feedback      string   `json:"feedback"`
	Strengths     []string `json:"strengths,omitempty"`
	Improvements  []string `json:"improvements,omitempty"`
}

// AnalysisResult is produced exactly once per session, when the submission
// phase completes. QuestionAnalysis may be shorter than the question set; the
// aggregator pads the difference.
type AnalysisResult struct {
	OverallScore     float64            `json:"overallScore"`
	CategoryScores   map[string]float64 `json:"categoryScores,omitempty"`
	Strengths        []string           `json:"strengths,omitempty"`
	Improvements     []string           `json:"improvements,omitempty"`
	QuestionAnalysis []QuestionAnalysis `json:"questionAnalysis,omitempty"`
	Recommendations  []string           `json:"recommendations,omitempty"`
	Verdict          string             `json:"verdict,omitempty"`
	Degraded         bool               `json:"degraded,omitempty"`
}

// FeedbackRecord is the only durable artifact the core emits: one per
// question per session, in question order.
type FeedbackRecord struct {
	ID             string    `json:"id"`
	SessionRef     string    `json:"session_ref"`
	Question       string    `json:"question"`
	ExpectedAnswer string    `json:"expected_answer"`
	UserAnswer     string    `json:"user_answer"`
	Feedback       string    `json:"feedback"`
	Rating         float64   `json:"rating"`
	OwnerEmail     string    `json:"owner_email"`
	CreatedAt      time.Time `json:"created_at"`
}

// Record is the stored interview itself: job context plus the fixed question
// set, keyed by the session reference.
type Record struct {
	ID         string     `json:"id"`
	Mode       Mode       `json:"mode"`
	Job        JobContext `json:"job"`
	Questions  []Question `json:"questions"`
	OwnerEmail string     `json:"owner_email"`
	CreatedAt  time.Time  `json:"created_at"`
}
