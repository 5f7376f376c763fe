package question

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/interview-lab/interviewd/internal/genai"
	"github.com/interview-lab/interviewd/internal/interview"
	"github.com/interview-lab/interviewd/internal/reliability"
)

func newTestSource(client genai.Client) *Source {
	policy := genai.RetryPolicy{MaxAttempts: 1, BaseBackoff: 1, BackoffCap: 1}
	return NewSource(genai.New(client, policy, nil), DefaultCounts(), nil)
}

func TestGenerateUsesAIResponse(t *testing.T) {
	client := genai.NewScriptedClient(genai.ScriptStep{
		Text: "```json\n[{\"Question\": \"Explain goroutines.\", \"Answer\": \"Lightweight threads scheduled by the runtime.\"}]\n```",
	})
	src := newTestSource(client)

	job := interview.JobContext{Role: "Backend Engineer", Desc: "Go, Postgres", Experience: "4"}
	questions, prov := src.Generate(context.Background(), interview.ModeTechnical, job)

	if prov != ProvenanceAI {
		t.Fatalf("provenance = %q, want %q", prov, ProvenanceAI)
	}
	if len(questions) != 1 {
		t.Fatalf("got %d questions, want 1", len(questions))
	}
	q := questions[0]
	if q.Prompt != "Explain goroutines." {
		t.Errorf("prompt = %q", q.Prompt)
	}
	if q.ReferenceAnswer == "" || q.ID == "" {
		t.Errorf("question missing reference answer or id: %+v", q)
	}
}

func TestGenerateFallsBackOnGatewayError(t *testing.T) {
	client := genai.NewScriptedClient(genai.ScriptStep{
		Err: &reliability.StatusError{Code: 503, Detail: "model overloaded"},
	})
	src := newTestSource(client)

	job := interview.JobContext{Role: "Backend Engineer"}
	questions, prov := src.Generate(context.Background(), interview.ModeTechnical, job)

	if prov != ProvenanceFallback {
		t.Fatalf("provenance = %q, want %q", prov, ProvenanceFallback)
	}
	if len(questions) != DefaultCounts().Technical {
		t.Fatalf("got %d questions, want %d", len(questions), DefaultCounts().Technical)
	}
}

func TestGenerateFallsBackOnMalformedResponse(t *testing.T) {
	client := genai.NewScriptedClient(genai.ScriptStep{Text: "I cannot answer that."})
	src := newTestSource(client)

	_, prov := src.Generate(context.Background(), interview.ModeHR, interview.JobContext{Role: "PM"})
	if prov != ProvenanceFallback {
		t.Fatalf("provenance = %q, want %q", prov, ProvenanceFallback)
	}
}

func TestGenerateRejectsMixedSets(t *testing.T) {
	// One valid question plus one missing its answer: the whole AI set is
	// discarded, never merged with fallback entries.
	client := genai.NewScriptedClient(genai.ScriptStep{
		Text: `[{"Question": "Q1", "Answer": "A1"}, {"Question": "Q2", "Answer": ""}]`,
	})
	src := newTestSource(client)

	questions, prov := src.Generate(context.Background(), interview.ModeTechnical, interview.JobContext{Role: "Dev"})
	if prov != ProvenanceFallback {
		t.Fatalf("provenance = %q, want %q", prov, ProvenanceFallback)
	}
	for _, q := range questions {
		if q.Prompt == "Q1" {
			t.Fatal("AI question leaked into fallback set")
		}
	}
}

func TestFallbackDeterministicPerJob(t *testing.T) {
	src := NewSource(nil, DefaultCounts(), nil)
	job := interview.JobContext{Role: "SRE", Experience: "6"}

	first, _ := src.Generate(context.Background(), interview.ModeTechnical, job)
	second, _ := src.Generate(context.Background(), interview.ModeTechnical, job)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("same job context produced different fallback sets")
	}

	other, _ := src.Generate(context.Background(), interview.ModeTechnical, interview.JobContext{Role: "Data Engineer", Experience: "2"})
	if reflect.DeepEqual(first, other) {
		t.Log("distinct job contexts produced the same ordering; allowed but unexpected")
	}
}

func TestFallbackCountsPerMode(t *testing.T) {
	src := NewSource(nil, DefaultCounts(), nil)
	cases := []struct {
		mode interview.Mode
		want int
	}{
		{interview.ModeTechnical, 5},
		{interview.ModeHR, 5},
		{interview.ModeResume, 5},
		{interview.ModeCoding, 2},
	}
	for _, tc := range cases {
		questions, prov := src.Generate(context.Background(), tc.mode, interview.JobContext{Role: "Engineer"})
		if prov != ProvenanceFallback {
			t.Fatalf("%s: provenance = %q", tc.mode, prov)
		}
		if len(questions) != tc.want {
			t.Errorf("%s: got %d questions, want %d", tc.mode, len(questions), tc.want)
		}
		for _, q := range questions {
			if q.ID == "" || q.Prompt == "" {
				t.Errorf("%s: incomplete fallback question %+v", tc.mode, q)
			}
		}
	}
}

func TestResumeFallbackUsesRole(t *testing.T) {
	src := NewSource(nil, Counts{Resume: 5}, nil)
	questions, _ := src.Generate(context.Background(), interview.ModeResume, interview.JobContext{Role: "Platform Engineer"})

	found := false
	for _, q := range questions {
		if strings.Contains(q.Prompt, "Platform Engineer") {
			found = true
		}
	}
	if !found {
		t.Fatal("no resume fallback question mentions the role")
	}
}
