package diagnose

import (
	"context"
	"encoding/json"

	"triage/internal/llm"
)

type classifyResult struct {
	FailureType string   `json:"failure_type"`
	Confidence  *float64 `json:"confidence"`
	Reasoning   string   `json:"reasoning"`
	MissingInfo []string `json:"missing_info"`
}

// classifierFallbackConfidence is assigned when the classification response
// cannot be decoded. Below the gathering threshold, so an undecodable
// classification asks the user rather than guessing.
const classifierFallbackConfidence = 0.3

// gatheringThreshold is the confidence below which missing information
// triggers the clarification path instead of going straight to searching.
const gatheringThreshold = 0.7

// classify assigns a failure category and lists the critical details the
// report is missing. The phase it sets decides whether the walk heads for
// evidence gathering or needs the user first.
func (p *Pipeline) classify(ctx context.Context, s State) (Update, error) {
	reportJSON, err := json.MarshalIndent(s.BugReport, "", "  ")
	if err != nil {
		return Update{}, err
	}

	classification := &Classification{
		FailureType: FailureUnknown,
		Confidence:  classifierFallbackConfidence,
		Reasoning:   "Failed to parse classification response",
	}
	missing := []string{"error message", "steps to reproduce"}

	response, err := p.gen.Generate(ctx, llm.ClassifyPrompt, "Bug Report:\n"+string(reportJSON))
	if err != nil {
		p.log.Warn("classification generation failed, using fallback", "error", err)
	} else if result, err := llm.Decode[classifyResult](response); err != nil {
		p.log.Warn("classification response not decodable, using fallback", "error", err)
	} else {
		classification = &Classification{
			FailureType: result.FailureType,
			Confidence:  0.5,
			Reasoning:   result.Reasoning,
		}
		if classification.FailureType == "" {
			classification.FailureType = FailureUnknown
		}
		if result.Confidence != nil {
			classification.Confidence = *result.Confidence
		}
		missing = result.MissingInfo
		if missing == nil {
			missing = []string{}
		}
	}

	next := PhaseSearching
	if len(missing) > 0 && classification.Confidence < gatheringThreshold {
		next = PhaseGathering
	}

	return Update{
		Classification: classification,
		MissingInfo:    &missing,
		Phase:          next,
	}, nil
}
