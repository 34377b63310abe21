package diagnose

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"triage/internal/llm"
)

type resolutionResult struct {
	Steps []struct {
		Order           int    `json:"order"`
		Action          string `json:"action"`
		Rationale       string `json:"rationale"`
		ExpectedOutcome string `json:"expected_outcome"`
	} `json:"steps"`
}

// resolve turns the selected hypothesis into an ordered fix plan and posts
// the final markdown report to the conversation. An undecodable plan
// degrades to two generic triage steps.
func (p *Pipeline) resolve(ctx context.Context, s State) (Update, error) {
	if s.SelectedHypothesis == nil {
		return Update{
			ResolutionPlan: ptr([]ResolutionStep{}),
			Phase:          PhaseComplete,
			Messages: []Message{{
				Role:    "assistant",
				Content: "Unable to generate a resolution plan. Please review the hypotheses manually.",
			}},
		}, nil
	}

	doc, err := p.resolutionContext(s)
	if err != nil {
		return Update{}, err
	}

	plan := fallbackPlan()
	response, err := p.gen.Generate(ctx, llm.ResolutionPrompt, doc)
	if err != nil {
		p.log.Warn("resolution generation failed, using fallback plan", "error", err)
	} else if result, err := llm.Decode[resolutionResult](response); err != nil {
		p.log.Warn("resolution response not decodable, using fallback plan", "error", err)
	} else if len(result.Steps) > 0 {
		plan = make([]ResolutionStep, 0, len(result.Steps))
		for _, step := range result.Steps {
			order := step.Order
			if order == 0 {
				order = len(plan) + 1
			}
			plan = append(plan, ResolutionStep{
				Order:           order,
				Action:          step.Action,
				Rationale:       step.Rationale,
				ExpectedOutcome: step.ExpectedOutcome,
			})
		}
	}

	summary := Summary(*s.SelectedHypothesis, plan, s.RelatedIssues, s.LibraryDetection, s.ConfidenceBreakdown)

	return Update{
		ResolutionPlan: &plan,
		Phase:          PhaseComplete,
		Messages:       []Message{{Role: "assistant", Content: summary}},
	}, nil
}

func fallbackPlan() []ResolutionStep {
	return []ResolutionStep{
		{
			Order:           1,
			Action:          "Review the error message and stack trace carefully",
			Rationale:       "Understanding the exact error is the first step",
			ExpectedOutcome: "Identify the specific line or function causing the issue",
		},
		{
			Order:           2,
			Action:          "Search for the error message online",
			Rationale:       "Others may have encountered and solved this issue",
			ExpectedOutcome: "Find relevant Stack Overflow posts or documentation",
		},
	}
}

// resolutionContext assembles the fix-planning document: the selected
// diagnosis, the report, known solutions from the knowledge base, and
// closed related issues.
func (p *Pipeline) resolutionContext(s State) (string, error) {
	hypothesis := s.SelectedHypothesis
	evidenceJSON, err := json.Marshal(hypothesis.Evidence)
	if err != nil {
		return "", err
	}
	reportJSON, err := json.MarshalIndent(s.BugReport, "", "  ")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("## Selected Diagnosis\n")
	fmt.Fprintf(&b, "Root Cause: %s\n", hypothesis.Description)
	fmt.Fprintf(&b, "Confidence: %s\n", hypothesis.Likelihood)
	fmt.Fprintf(&b, "Evidence: %s\n", evidenceJSON)

	b.WriteString("\n## Original Bug Report\n")
	b.Write(reportJSON)

	if len(s.KnowledgeResults) > 0 {
		b.WriteString("\n\n## Known Solutions for Similar Errors\n")
		for _, r := range topKnowledge(s.KnowledgeResults, 2) {
			fmt.Fprintf(&b, "- %s\n", r.Solution)
		}
	}

	var closed []string
	for _, issue := range s.RelatedIssues {
		if issue.State == "closed" {
			closed = append(closed, fmt.Sprintf("- Issue #%d: See %s", issue.Number, issue.URL))
			if len(closed) == 2 {
				break
			}
		}
	}
	if len(closed) > 0 {
		b.WriteString("\n## Solutions from Related GitHub Issues\n")
		b.WriteString(strings.Join(closed, "\n"))
		b.WriteString("\n")
	}

	return b.String(), nil
}

func topKnowledge(results []KnowledgeResult, n int) []KnowledgeResult {
	if len(results) < n {
		return results
	}
	return results[:n]
}
