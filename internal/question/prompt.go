package question

import (
	"fmt"
	"strings"

	"github.com/interview-lab/interviewd/internal/interview"
)

// GenerationPrompt builds the outbound free-text prompt for a question set.
// The response contract is a JSON array of {"Question","Answer"} objects,
// optionally fenced; the gateway's extractor tolerates surrounding prose.
func GenerationPrompt(job interview.JobContext, count int) string {
	var b strings.Builder

	if strings.TrimSpace(job.Resume) != "" {
		fmt.Fprintf(&b, "You are an expert interviewer. Analyze the provided information and generate %d interview questions with detailed sample answers.\n\n", count)
		fmt.Fprintf(&b, "Position: %s\nJob description / tech stack: %s\nRequired experience: %s years\n\n", job.Role, job.Desc, job.Experience)
		fmt.Fprintf(&b, "Candidate resume:\n%s\n\n", job.Resume)
		b.WriteString("Tailor the questions to the job requirements and to the skills, projects, and gaps visible in the resume.\n\n")
	} else {
		fmt.Fprintf(&b, "You are an expert interviewer. Generate %d interview questions with detailed sample answers for the following role.\n\n", count)
		fmt.Fprintf(&b, "Position: %s\nJob description / tech stack: %s\nYears of experience required: %s\n\n", job.Role, job.Desc, job.Experience)
	}

	b.WriteString("Respond in JSON format with exactly this structure:\n")
	b.WriteString(`[{"Question": "question text", "Answer": "sample answer structure"}]` + "\n\n")
	fmt.Fprintf(&b, "Questions must be challenging but appropriate for %s years of experience, and realistic for actual interviews for this role.\n", job.Experience)

	return b.String()
}

// AnalysisPrompt builds the transcript-analysis prompt. The response contract
// is a single JSON object matching interview.AnalysisResult.
func AnalysisPrompt(mode interview.Mode, questions []interview.Question, answers []interview.Answer) string {
	var b strings.Builder

	switch mode {
	case interview.ModeHR:
		b.WriteString("Analyze this HR/behavioral interview performance using the STAR method (Situation, Task, Action, Result):\n\n")
	default:
		b.WriteString("Analyze this technical interview performance:\n\n")
	}
	fmt.Fprintf(&b, "Total questions: %d\n\n", len(answers))

	for i, a := range answers {
		q := questions[i]
		fmt.Fprintf(&b, "Question %d (%s):\nQ: %s\nA: %s\nTime spent: %d seconds\nFollow-ups asked: %d\n\n",
			i+1, q.Category, q.Prompt, a.Text, int(a.Elapsed.Seconds()), a.FollowUpsAsked)
	}

	b.WriteString("Provide comprehensive feedback as a single JSON object with this structure:\n")
	b.WriteString(`{
  "overallScore": 85,
  "categoryScores": {"communication": 90, "problemSolving": 85},
  "strengths": ["..."],
  "improvements": ["..."],
  "questionAnalysis": [{"questionIndex": 0, "score": 8, "feedback": "...", "strengths": ["..."], "improvements": ["..."]}],
  "recommendations": ["..."],
  "verdict": "..."
}` + "\n")

	return b.String()
}
