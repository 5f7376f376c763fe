package resume

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/interview-lab/interviewd/internal/genai"
)

// Summary is the headline block of an analysis.
type Summary struct {
	Name       string `json:"name,omitempty"`
	Title      string `json:"title,omitempty"`
	Experience string `json:"experience,omitempty"`
	Location   string `json:"location,omitempty"`
}

// Skills groups extracted skills by kind.
type Skills struct {
	Technical []string `json:"technical,omitempty"`
	Soft      []string `json:"soft,omitempty"`
	Tools     []string `json:"tools,omitempty"`
}

// Position is one role in the work history.
type Position struct {
	Role       string   `json:"role"`
	Company    string   `json:"company,omitempty"`
	Duration   string   `json:"duration,omitempty"`
	Highlights []string `json:"highlights,omitempty"`
}

// Education is one degree or certification entry.
type Education struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution,omitempty"`
	Year        string `json:"year,omitempty"`
}

// Analysis is the structured read of one resume.
type Analysis struct {
	Summary     Summary     `json:"summary"`
	Skills      Skills      `json:"skills"`
	Experience  []Position  `json:"experience,omitempty"`
	Education   []Education `json:"education,omitempty"`
	Strengths   []string    `json:"strengths,omitempty"`
	Suggestions []string    `json:"suggestions,omitempty"`
	Score       float64     `json:"score"`
}

// JobRecommendation is one suggested role with fit reasoning.
type JobRecommendation struct {
	Title        string   `json:"title"`
	Match        float64  `json:"match"`
	Reasoning    string   `json:"reasoning,omitempty"`
	Requirements []string `json:"requirements,omitempty"`
	NextSteps    []string `json:"next_steps,omitempty"`
}

// CareerInsights summarizes the candidate's market position.
type CareerInsights struct {
	CurrentLevel string   `json:"current_level,omitempty"`
	GrowthPath   []string `json:"growth_path,omitempty"`
	MarketDemand string   `json:"market_demand,omitempty"`
	SalaryRange  string   `json:"salary_range,omitempty"`
}

// Recommendations is the career-guidance report derived from an Analysis.
type Recommendations struct {
	Recommendations []JobRecommendation `json:"recommendations,omitempty"`
	CareerInsights  CareerInsights      `json:"career_insights"`
	SkillGaps       []string            `json:"skill_gaps,omitempty"`
}

// Analyzer extracts structured insight from raw resume text. It has no
// fallback dataset: without a working AI path the endpoints report the
// gateway error to the caller.
type Analyzer struct {
	gateway *genai.Gateway
}

func NewAnalyzer(gateway *genai.Gateway) *Analyzer {
	return &Analyzer{gateway: gateway}
}

// Available reports whether the AI path can serve requests right now.
func (a *Analyzer) Available() bool {
	return a.gateway != nil && a.gateway.Configured()
}

// Analyze parses the resume into a structured analysis.
func (a *Analyzer) Analyze(ctx context.Context, resumeText string) (Analysis, error) {
	var out Analysis
	if strings.TrimSpace(resumeText) == "" {
		return out, fmt.Errorf("resume: empty resume text")
	}
	if a.gateway == nil {
		return out, genai.ErrNotConfigured
	}

	raw, err := a.gateway.Request(ctx, analysisPrompt(resumeText))
	if err != nil {
		return out, err
	}
	if err := genai.DecodeObject(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}

// Recommend derives job recommendations from a completed analysis.
func (a *Analyzer) Recommend(ctx context.Context, analysis Analysis) (Recommendations, error) {
	var out Recommendations
	if a.gateway == nil {
		return out, genai.ErrNotConfigured
	}

	encoded, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return out, fmt.Errorf("resume: encode analysis: %w", err)
	}

	raw, err := a.gateway.Request(ctx, recommendationPrompt(string(encoded)))
	if err != nil {
		return out, err
	}
	if err := genai.DecodeObject(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}

func analysisPrompt(resumeText string) string {
	var b strings.Builder
	b.WriteString("Analyze the following resume content and provide a comprehensive analysis. Extract key information and provide insights.\n\n")
	b.WriteString("Resume content:\n")
	b.WriteString(resumeText)
	b.WriteString("\n\nReturn a JSON response with this structure:\n")
	b.WriteString(`{
  "summary": {"name": "candidate name if found", "title": "current job title", "experience": "total years", "location": "location if mentioned"},
  "skills": {"technical": [], "soft": [], "tools": []},
  "experience": [{"role": "", "company": "", "duration": "", "highlights": []}],
  "education": [{"degree": "", "institution": "", "year": ""}],
  "strengths": [],
  "suggestions": [],
  "score": 85
}`)
	b.WriteString("\n\nFocus on extracting accurate information and providing helpful insights for interview preparation. Return only valid JSON without markdown formatting.\n")
	return b.String()
}

func recommendationPrompt(analysisJSON string) string {
	var b strings.Builder
	b.WriteString("Based on the following resume analysis, recommend suitable job roles and provide career insights.\n\n")
	b.WriteString("Resume analysis:\n")
	b.WriteString(analysisJSON)
	b.WriteString("\n\nReturn a JSON response with this structure:\n")
	b.WriteString(`{
  "recommendations": [{"title": "", "match": 95, "reasoning": "", "requirements": [], "next_steps": []}],
  "career_insights": {"current_level": "Junior/Mid/Senior", "growth_path": [], "market_demand": "High/Medium/Low", "salary_range": ""},
  "skill_gaps": []
}`)
	b.WriteString("\n\nProvide 3 to 5 relevant job recommendations based on the candidate's experience and skills. Return only valid JSON without markdown formatting.\n")
	return b.String()
}
