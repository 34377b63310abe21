package diagnose

import (
	"context"
	"testing"

	"triage/internal/llm"
)

func classifyWith(t *testing.T, response string) Update {
	t.Helper()
	gen := llm.Func(func(ctx context.Context, system, prompt string) (string, error) {
		return response, nil
	})
	p := testPipeline(t, gen, &stubIssues{}, &stubKB{})
	u, err := p.classify(context.Background(), State{BugReport: &BugReport{RawDescription: "it broke"}})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	return u
}

func TestClassifyRoutesToSearching(t *testing.T) {
	u := classifyWith(t, classifyHighJSON)
	if u.Classification.FailureType != FailureAPI {
		t.Errorf("failure type = %q", u.Classification.FailureType)
	}
	if u.Phase != PhaseSearching {
		t.Errorf("phase = %q, want searching", u.Phase)
	}
}

func TestClassifyRoutesToGathering(t *testing.T) {
	u := classifyWith(t, classifyLowJSON)
	if u.Phase != PhaseGathering {
		t.Errorf("phase = %q, want gathering", u.Phase)
	}
	if len(*u.MissingInfo) != 1 {
		t.Errorf("missing info = %v", *u.MissingInfo)
	}
}

func TestClassifyThresholdEdge(t *testing.T) {
	// 0.69 with missing info gathers; 0.70 does not.
	below := classifyWith(t, `{"failure_type": "api", "confidence": 0.69, "missing_info": ["x"]}`)
	if below.Phase != PhaseGathering {
		t.Errorf("phase at 0.69 = %q, want gathering", below.Phase)
	}
	at := classifyWith(t, `{"failure_type": "api", "confidence": 0.70, "missing_info": ["x"]}`)
	if at.Phase != PhaseSearching {
		t.Errorf("phase at 0.70 = %q, want searching", at.Phase)
	}
}

func TestClassifyMissingInfoAloneDoesNotGather(t *testing.T) {
	u := classifyWith(t, `{"failure_type": "api", "confidence": 0.4, "missing_info": []}`)
	if u.Phase != PhaseSearching {
		t.Errorf("phase = %q, want searching with no missing info", u.Phase)
	}
}

func TestClassifyDefaults(t *testing.T) {
	// Absent confidence defaults to 0.5, absent type to unknown.
	u := classifyWith(t, `{"reasoning": "shrug"}`)
	if u.Classification.FailureType != FailureUnknown {
		t.Errorf("failure type = %q", u.Classification.FailureType)
	}
	if u.Classification.Confidence != 0.5 {
		t.Errorf("confidence = %v, want 0.5", u.Classification.Confidence)
	}
}

func TestClassifyFallbackOnGarbage(t *testing.T) {
	u := classifyWith(t, "the model rambled with no JSON at all")
	if u.Classification.FailureType != FailureUnknown {
		t.Errorf("failure type = %q", u.Classification.FailureType)
	}
	if u.Classification.Confidence != classifierFallbackConfidence {
		t.Errorf("confidence = %v, want %v", u.Classification.Confidence, classifierFallbackConfidence)
	}
	// Fallback missing info plus fallback confidence sends the walk to
	// the clarification path.
	if u.Phase != PhaseGathering {
		t.Errorf("phase = %q, want gathering", u.Phase)
	}
	if len(*u.MissingInfo) != 2 {
		t.Errorf("missing info = %v", *u.MissingInfo)
	}
}
