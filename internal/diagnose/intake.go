package diagnose

import (
	"context"

	"triage/internal/github"
	"triage/internal/llm"
)

type intakeResult struct {
	Title            string            `json:"title"`
	StepsToReproduce []string          `json:"steps_to_reproduce"`
	ExpectedBehavior string            `json:"expected_behavior"`
	ActualBehavior   string            `json:"actual_behavior"`
	Environment      map[string]string `json:"environment"`
	ErrorMessage     string            `json:"error_message"`
	StackTrace       string            `json:"stack_trace"`
}

// intake extracts a structured BugReport from the user's raw description
// and resets the accumulator fields for a fresh walk. Extraction failures
// degrade to a report holding only the raw text; the pipeline still runs.
func (p *Pipeline) intake(ctx context.Context, s State) (Update, error) {
	raw := s.lastUserMessage()

	report := &BugReport{RawDescription: raw}
	if raw != "" {
		response, err := p.gen.Generate(ctx, llm.IntakePrompt, raw)
		if err != nil {
			p.log.Warn("intake generation failed, keeping raw description only", "error", err)
		} else if extracted, err := llm.Decode[intakeResult](response); err != nil {
			p.log.Warn("intake response not decodable, keeping raw description only", "error", err)
		} else {
			report.Title = extracted.Title
			report.StepsToReproduce = extracted.StepsToReproduce
			report.ExpectedBehavior = extracted.ExpectedBehavior
			report.ActualBehavior = extracted.ActualBehavior
			report.Environment = extracted.Environment
			report.ErrorMessage = extracted.ErrorMessage
			report.StackTrace = extracted.StackTrace
		}
	}

	return Update{
		BugReport:        report,
		Phase:            PhaseClassification,
		MissingInfo:      ptr([]string{}),
		InfoAttempts:     ptr(0),
		RelatedIssues:    ptr([]github.Issue{}),
		KnowledgeResults: ptr([]KnowledgeResult{}),
		Hypotheses:       ptr([]Hypothesis{}),
		ResolutionPlan:   ptr([]ResolutionStep{}),
		NeedsUserInput:   ptr(false),
	}, nil
}
