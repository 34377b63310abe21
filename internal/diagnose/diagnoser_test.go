package diagnose

import (
	"context"
	"math"
	"strings"
	"testing"

	"triage/internal/github"
	"triage/internal/llm"
)

func diagnoseWith(t *testing.T, response string, s State) Update {
	t.Helper()
	gen := llm.Func(func(ctx context.Context, system, prompt string) (string, error) {
		return response, nil
	})
	p := testPipeline(t, gen, &stubIssues{}, &stubKB{})
	u, err := p.diagnose(context.Background(), s)
	if err != nil {
		t.Fatalf("diagnose: %v", err)
	}
	return u
}

func TestDiagnoseSortsAndSelects(t *testing.T) {
	response := `{"hypotheses": [
		{"description": "b", "likelihood": "low"},
		{"description": "a", "likelihood": "high"},
		{"description": "c", "likelihood": "medium"}
	]}`
	u := diagnoseWith(t, response, State{BugReport: &BugReport{RawDescription: "x"}})

	hyps := *u.Hypotheses
	if len(hyps) != 3 {
		t.Fatalf("hypotheses = %d", len(hyps))
	}
	order := []string{"a", "c", "b"}
	for i, want := range order {
		if hyps[i].Description != want {
			t.Errorf("hypotheses[%d] = %q, want %q", i, hyps[i].Description, want)
		}
	}
	if u.SelectedHypothesis.Description != "a" {
		t.Errorf("selected = %q", u.SelectedHypothesis.Description)
	}
	if u.Phase != PhaseResolution {
		t.Errorf("phase = %q, want resolution for a high hypothesis", u.Phase)
	}
}

func TestDiagnoseMediumEndsComplete(t *testing.T) {
	u := diagnoseWith(t, diagnosisMediumJSON, State{BugReport: &BugReport{RawDescription: "x"}})
	if u.Phase != PhaseComplete {
		t.Errorf("phase = %q, want complete", u.Phase)
	}
}

func TestDiagnoseFallbackOnGarbage(t *testing.T) {
	u := diagnoseWith(t, "no JSON here", State{BugReport: &BugReport{RawDescription: "x"}})
	hyps := *u.Hypotheses
	if len(hyps) != 1 || hyps[0].Likelihood != LikelihoodLow {
		t.Fatalf("fallback hypotheses = %+v", hyps)
	}
	if !strings.Contains(hyps[0].Description, "review the error details manually") {
		t.Errorf("description = %q", hyps[0].Description)
	}
	if u.Phase != PhaseComplete {
		t.Errorf("phase = %q", u.Phase)
	}
}

func TestDiagnoseDefaultsLikelihoodToMedium(t *testing.T) {
	u := diagnoseWith(t, `{"hypotheses": [{"description": "d"}]}`, State{BugReport: &BugReport{RawDescription: "x"}})
	if (*u.Hypotheses)[0].Likelihood != LikelihoodMedium {
		t.Errorf("likelihood = %q", (*u.Hypotheses)[0].Likelihood)
	}
}

func TestComputeConfidenceBreakdown(t *testing.T) {
	s := State{
		Classification:   &Classification{Confidence: 0.8},
		GitHubConfidence: 0.6,
		KnowledgeResults: []KnowledgeResult{
			{Similarity: 0.9}, {Similarity: 0.7},
		},
		LibraryDetection: &LibraryDetection{Confidence: 0.5},
	}

	b := computeConfidenceBreakdown(s)

	if b.Classification != 0.8 || b.GitHub != 0.6 || b.LibraryDetection != 0.5 {
		t.Errorf("per-source scores wrong: %+v", b)
	}
	if math.Abs(b.Knowledge-0.8) > 1e-9 {
		t.Errorf("knowledge = %v, want mean 0.8", b.Knowledge)
	}
	// 0.8*0.30 + 0.6*0.35 + 0.8*0.20 + 0.5*0.15 = 0.685
	if math.Abs(b.Overall-0.685) > 1e-9 {
		t.Errorf("overall = %v, want 0.685", b.Overall)
	}
	// Library detection sits exactly at 0.5 and is excluded; the top two
	// weighted contributors are named.
	want := "Main contributors: LLM classification: 80%, GitHub issue matches: 60%"
	if b.Explanation != want {
		t.Errorf("explanation = %q, want %q", b.Explanation, want)
	}
}

func TestComputeConfidenceBreakdownKnowledgeTopThree(t *testing.T) {
	s := State{
		KnowledgeResults: []KnowledgeResult{
			{Similarity: 1.0}, {Similarity: 0.8}, {Similarity: 0.6}, {Similarity: 0.0},
		},
	}
	b := computeConfidenceBreakdown(s)
	if math.Abs(b.Knowledge-0.8) > 1e-9 {
		t.Errorf("knowledge = %v, want mean of top three", b.Knowledge)
	}
}

func TestComputeConfidenceBreakdownLowEverywhere(t *testing.T) {
	b := computeConfidenceBreakdown(State{Classification: &Classification{Confidence: 0.2}})
	if b.Explanation != "Low confidence across all sources" {
		t.Errorf("explanation = %q", b.Explanation)
	}
}

func TestComputeConfidenceBreakdownMissingClassification(t *testing.T) {
	b := computeConfidenceBreakdown(State{})
	if b.Classification != 0.5 {
		t.Errorf("classification default = %v, want 0.5", b.Classification)
	}
}

func TestDiagnosisContextIncludesEvidence(t *testing.T) {
	p := testPipeline(t, &scriptedGen{}, &stubIssues{}, &stubKB{})
	s := State{
		BugReport:      &BugReport{RawDescription: "it broke", ErrorMessage: "KeyError"},
		Classification: &Classification{FailureType: FailureRuntime, Confidence: 0.75, Reasoning: "a KeyError"},
		RelatedIssues: []github.Issue{
			{Number: 42, Title: "KeyError on resume", State: "closed", Summary: "same stack"},
		},
		KnowledgeResults: []KnowledgeResult{
			{ErrorPattern: "KeyError: 'missing'", Solution: "guard the lookup", Similarity: 0.9},
		},
	}
	doc, err := p.diagnosisContext(s)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"## Bug Report",
		"## Classification",
		"Type: runtime",
		"Confidence: 75%",
		"#42: KeyError on resume (closed)",
		"## Similar Known Errors",
		"guard the lookup",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("context missing %q", want)
		}
	}
}

func TestFormatKnowledgeContextEmpty(t *testing.T) {
	got := formatKnowledgeContext(nil)
	if got != "No similar errors found in the knowledge base." {
		t.Errorf("got %q", got)
	}
}
