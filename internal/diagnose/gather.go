package diagnose

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"triage/internal/engine"
	"triage/internal/llm"
)

// gatherInfo asks the user for the most valuable missing detail and
// suspends the walk until the answer arrives. Once the attempt cap is
// reached it clears missing_info and lets the walk continue with what it
// has instead of asking again.
func (p *Pipeline) gatherInfo(ctx context.Context, s State) (Update, error) {
	if s.InfoAttempts >= p.maxAttempts {
		p.log.Info("clarification attempts exhausted, proceeding with available information",
			"attempts", s.InfoAttempts)
		return Update{
			Phase:          PhaseSearching,
			NeedsUserInput: ptr(false),
			MissingInfo:    ptr([]string{}),
		}, nil
	}

	question := p.generateQuestion(ctx, s)

	return Update{
		Messages:       []Message{{Role: "assistant", Content: question}},
		NeedsUserInput: ptr(true),
		UserQuestion:   &question,
		InfoAttempts:   ptr(s.InfoAttempts + 1),
		Phase:          PhaseGathering,
	}, &engine.Interrupt{Question: question}
}

// generateQuestion asks the model for one targeted question. Generation
// failures degrade to a canned question naming the missing details.
func (p *Pipeline) generateQuestion(ctx context.Context, s State) string {
	reportJSON, err := json.MarshalIndent(s.BugReport, "", "  ")
	if err != nil {
		reportJSON = []byte("{}")
	}
	missingJSON, err := json.Marshal(s.MissingInfo)
	if err != nil {
		missingJSON = []byte("[]")
	}

	prompt := fmt.Sprintf(
		"Current bug report:\n%s\n\nMissing information:\n%s\n\nNumber of questions already asked: %d",
		reportJSON, missingJSON, s.InfoAttempts,
	)

	question, err := p.gen.Generate(ctx, llm.QuestionPrompt, prompt)
	if err != nil || strings.TrimSpace(question) == "" {
		p.log.Warn("question generation failed, using canned question", "error", err)
		if len(s.MissingInfo) > 0 {
			return fmt.Sprintf("Could you provide more details about: %s?", strings.Join(s.MissingInfo, ", "))
		}
		return "Could you provide more details?"
	}
	return strings.TrimSpace(question)
}
