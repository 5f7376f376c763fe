package score

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/interview-lab/interviewd/internal/interview"
)

// Aggregate flattens one analysis into durable per-question feedback records.
// The output always has exactly one record per question, in question order,
// regardless of how many per-question entries the analysis carried. Questions
// the analysis skipped get a rating derived from the overall score and a
// placeholder feedback line.
func Aggregate(sessionRef, ownerEmail string, questions []interview.Question, answers []interview.Answer, analysis interview.AnalysisResult, now time.Time) []interview.FeedbackRecord {
	overall := clamp(analysis.OverallScore, 0, 100)

	byIndex := make(map[int]interview.QuestionAnalysis, len(analysis.QuestionAnalysis))
	for _, qa := range analysis.QuestionAnalysis {
		if _, ok := byIndex[qa.QuestionIndex]; !ok {
			byIndex[qa.QuestionIndex] = qa
		}
	}

	answerFor := make(map[string]interview.Answer, len(answers))
	for _, a := range answers {
		answerFor[a.QuestionID] = a
	}

	records := make([]interview.FeedbackRecord, 0, len(questions))
	for i, q := range questions {
		rating := math.Round(overall / 10)
		feedback := fmt.Sprintf("Overall interview performance: %.0f%%. Individual question analysis not available.", overall)
		if qa, ok := byIndex[i]; ok {
			rating = qa.Score
			if qa.Feedback != "" {
				feedback = qa.Feedback
			}
		}

		userAnswer := "No answer provided"
		if a, ok := answerFor[q.ID]; ok && a.Text != "" {
			userAnswer = a.Text
		}

		records = append(records, interview.FeedbackRecord{
			ID:             uuid.NewString(),
			SessionRef:     sessionRef,
			Question:       q.Prompt,
			ExpectedAnswer: q.ReferenceAnswer,
			UserAnswer:     userAnswer,
			Feedback:       feedback,
			Rating:         clamp(rating, 0, 10),
			OwnerEmail:     ownerEmail,
			CreatedAt:      now.UTC(),
		})
	}
	return records
}

// FallbackAnalysis is the deterministic analysis used when the AI path was
// unavailable at feedback time. It is honest about its provenance: Degraded
// is set and the verdict says the scores are generic.
func FallbackAnalysis(questions []interview.Question, answers []interview.Answer) interview.AnalysisResult {
	answered := 0
	for _, a := range answers {
		if a.Text != "" {
			answered++
		}
	}

	perQuestion := make([]interview.QuestionAnalysis, 0, len(questions))
	for i, q := range questions {
		score := 7.5
		feedback := "Answer recorded. Detailed AI analysis was unavailable for this session."
		if a, ok := answerByID(answers, q.ID); !ok || a.Text == "" {
			score = 0
			feedback = "No answer was provided for this question."
		}
		perQuestion = append(perQuestion, interview.QuestionAnalysis{
			QuestionIndex: i,
			Score:         score,
			Feedback:      feedback,
		})
	}

	return interview.AnalysisResult{
		OverallScore:     75,
		Strengths:        []string{"Completed the interview session"},
		Improvements:     []string{"Request a re-run when AI analysis is available for detailed feedback"},
		QuestionAnalysis: perQuestion,
		Verdict:          fmt.Sprintf("Generic assessment: %d of %d questions answered. AI analysis was unavailable.", answered, len(questions)),
		Degraded:         true,
	}
}

func answerByID(answers []interview.Answer, questionID string) (interview.Answer, bool) {
	for _, a := range answers {
		if a.QuestionID == questionID {
			return a, true
		}
	}
	return interview.Answer{}, false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
