package resume

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/interview-lab/interviewd/internal/genai"
)

func newTestAnalyzer(client genai.Client) *Analyzer {
	return NewAnalyzer(genai.New(client, genai.RetryPolicy{MaxAttempts: 1, BaseBackoff: 1, BackoffCap: 1}, nil))
}

func TestAnalyzeDecodesStructuredResponse(t *testing.T) {
	client := genai.NewScriptedClient(genai.ScriptStep{Text: "```json\n" + `{
		"summary": {"name": "Jordan Doe", "title": "Backend Engineer", "experience": "6"},
		"skills": {"technical": ["Go", "PostgreSQL"], "tools": ["Docker"]},
		"strengths": ["distributed systems"],
		"score": 82
	}` + "\n```"})
	a := newTestAnalyzer(client)

	analysis, err := a.Analyze(context.Background(), "Jordan Doe. Backend engineer, six years...")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if analysis.Summary.Name != "Jordan Doe" || analysis.Score != 82 {
		t.Fatalf("analysis = %+v", analysis)
	}
	if len(analysis.Skills.Technical) != 2 {
		t.Fatalf("skills = %+v", analysis.Skills)
	}
}

func TestAnalyzeRejectsEmptyInput(t *testing.T) {
	a := newTestAnalyzer(genai.NewScriptedClient())
	if _, err := a.Analyze(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty resume")
	}
}

func TestAnalyzeSurfacesMalformedResponse(t *testing.T) {
	client := genai.NewScriptedClient(genai.ScriptStep{Text: "Sorry, I can't help with that."})
	a := newTestAnalyzer(client)

	_, err := a.Analyze(context.Background(), "some resume text")
	var parseErr *genai.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("err = %v, want ParseError", err)
	}
}

func TestRecommendEmbedsAnalysis(t *testing.T) {
	client := genai.NewScriptedClient(genai.ScriptStep{Text: `{
		"recommendations": [{"title": "Platform Engineer", "match": 91}],
		"career_insights": {"current_level": "Senior"},
		"skill_gaps": ["Kubernetes"]
	}`})
	a := newTestAnalyzer(client)

	recs, err := a.Recommend(context.Background(), Analysis{Summary: Summary{Title: "Backend Engineer"}})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(recs.Recommendations) != 1 || recs.Recommendations[0].Title != "Platform Engineer" {
		t.Fatalf("recs = %+v", recs)
	}
	if recs.CareerInsights.CurrentLevel != "Senior" {
		t.Fatalf("insights = %+v", recs.CareerInsights)
	}
	if !strings.Contains(client.LastPrompt(), "Backend Engineer") {
		t.Fatal("prompt does not embed the analysis")
	}
}
