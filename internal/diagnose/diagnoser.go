package diagnose

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"triage/internal/llm"
)

type diagnosisResult struct {
	Hypotheses []struct {
		Description         string   `json:"description"`
		Likelihood          string   `json:"likelihood"`
		Evidence            []string `json:"evidence"`
		RequiredValidations []string `json:"required_validations"`
	} `json:"hypotheses"`
}

// Confidence weights per evidence source. They sum to 1.0.
const (
	weightClassification = 0.30
	weightGitHub         = 0.35
	weightKnowledge      = 0.20
	weightLibrary        = 0.15
)

var likelihoodRank = map[string]int{
	LikelihoodHigh:   0,
	LikelihoodMedium: 1,
	LikelihoodLow:    2,
}

// diagnose combines everything gathered so far into ranked root-cause
// hypotheses and a per-source confidence breakdown. An undecodable
// response degrades to a single low-likelihood hypothesis asking for
// manual review.
func (p *Pipeline) diagnose(ctx context.Context, s State) (Update, error) {
	doc, err := p.diagnosisContext(s)
	if err != nil {
		return Update{}, err
	}

	hypotheses := fallbackHypotheses()
	response, err := p.gen.Generate(ctx, llm.DiagnosePrompt, doc)
	if err != nil {
		p.log.Warn("diagnosis generation failed, using fallback hypothesis", "error", err)
	} else if result, err := llm.Decode[diagnosisResult](response); err != nil {
		p.log.Warn("diagnosis response not decodable, using fallback hypothesis", "error", err)
	} else if len(result.Hypotheses) > 0 {
		hypotheses = make([]Hypothesis, 0, len(result.Hypotheses))
		for _, h := range result.Hypotheses {
			likelihood := h.Likelihood
			if likelihood == "" {
				likelihood = LikelihoodMedium
			}
			evidence := h.Evidence
			if evidence == nil {
				evidence = []string{}
			}
			validations := h.RequiredValidations
			if validations == nil {
				validations = []string{}
			}
			hypotheses = append(hypotheses, Hypothesis{
				Description:         h.Description,
				Likelihood:          likelihood,
				Evidence:            evidence,
				RequiredValidations: validations,
			})
		}
	}

	sort.SliceStable(hypotheses, func(i, j int) bool {
		return rankOf(hypotheses[i].Likelihood) < rankOf(hypotheses[j].Likelihood)
	})
	selected := hypotheses[0]

	breakdown := computeConfidenceBreakdown(s)

	next := PhaseComplete
	if selected.Likelihood == LikelihoodHigh {
		next = PhaseResolution
	}

	return Update{
		Hypotheses:          &hypotheses,
		SelectedHypothesis:  &selected,
		ConfidenceBreakdown: &breakdown,
		Phase:               next,
	}, nil
}

func rankOf(likelihood string) int {
	if r, ok := likelihoodRank[likelihood]; ok {
		return r
	}
	return 3
}

func fallbackHypotheses() []Hypothesis {
	return []Hypothesis{{
		Description:         "Unable to generate specific hypothesis - please review the error details manually",
		Likelihood:          LikelihoodLow,
		Evidence:            []string{"Parsing of diagnostic response failed"},
		RequiredValidations: []string{"Manual review of error message and stack trace"},
	}}
}

// diagnosisContext assembles the evidence document handed to the model:
// the report, the classification, the top related issues, and the nearest
// known error patterns.
func (p *Pipeline) diagnosisContext(s State) (string, error) {
	reportJSON, err := json.MarshalIndent(s.BugReport, "", "  ")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("## Bug Report\n")
	b.Write(reportJSON)

	b.WriteString("\n\n## Classification\n")
	if c := s.Classification; c != nil {
		fmt.Fprintf(&b, "Type: %s\n", c.FailureType)
		fmt.Fprintf(&b, "Confidence: %.0f%%\n", c.Confidence*100)
		fmt.Fprintf(&b, "Reasoning: %s\n", c.Reasoning)
	} else {
		b.WriteString("Type: unknown\n")
	}

	if len(s.RelatedIssues) > 0 {
		b.WriteString("\n## Related GitHub Issues\n")
		for _, issue := range top(s.RelatedIssues, 3) {
			fmt.Fprintf(&b, "- #%d: %s (%s)\n", issue.Number, issue.Title, issue.State)
			if issue.Summary != "" {
				summary := issue.Summary
				if len(summary) > 150 {
					summary = summary[:150]
				}
				fmt.Fprintf(&b, "  Summary: %s...\n", summary)
			}
		}
	}

	if len(s.KnowledgeResults) > 0 {
		b.WriteString("\n## Similar Known Errors\n")
		b.WriteString(formatKnowledgeContext(s.KnowledgeResults))
	}

	return b.String(), nil
}

// formatKnowledgeContext renders knowledge-base hits for model context.
func formatKnowledgeContext(results []KnowledgeResult) string {
	if len(results) == 0 {
		return "No similar errors found in the knowledge base."
	}
	var b strings.Builder
	b.WriteString("Similar errors from the knowledge base:")
	for i, r := range results {
		pattern := r.ErrorPattern
		if len(pattern) > 200 {
			pattern = pattern[:200]
		}
		solution := r.Solution
		if len(solution) > 200 {
			solution = solution[:200]
		}
		fmt.Fprintf(&b, "\n\n%d. Error Pattern (similarity: %.0f%%)\n", i+1, r.Similarity*100)
		fmt.Fprintf(&b, "   %s\n", pattern)
		fmt.Fprintf(&b, "   Solution: %s", solution)
	}
	return b.String()
}

// computeConfidenceBreakdown scores each evidence source and combines them
// with fixed weights: classification 30%, GitHub 35%, knowledge base 20%,
// library detection 15%. The explanation names the top two contributors
// whose raw score exceeds 0.5.
func computeConfidenceBreakdown(s State) ConfidenceBreakdown {
	classificationConf := 0.5
	if s.Classification != nil {
		classificationConf = s.Classification.Confidence
	}

	knowledgeConf := 0.0
	if len(s.KnowledgeResults) > 0 {
		topHits := s.KnowledgeResults
		if len(topHits) > 3 {
			topHits = topHits[:3]
		}
		sum := 0.0
		for _, r := range topHits {
			sum += r.Similarity
		}
		knowledgeConf = sum / float64(len(topHits))
	}

	libConf := 0.0
	if s.LibraryDetection != nil {
		libConf = s.LibraryDetection.Confidence
	}

	overall := classificationConf*weightClassification +
		s.GitHubConfidence*weightGitHub +
		knowledgeConf*weightKnowledge +
		libConf*weightLibrary

	type contributor struct {
		name   string
		score  float64
		weight float64
	}
	contributors := []contributor{
		{"LLM classification", classificationConf, weightClassification},
		{"GitHub issue matches", s.GitHubConfidence, weightGitHub},
		{"Knowledge base", knowledgeConf, weightKnowledge},
		{"Library detection", libConf, weightLibrary},
	}
	sort.SliceStable(contributors, func(i, j int) bool {
		return contributors[i].score*contributors[i].weight > contributors[j].score*contributors[j].weight
	})

	var parts []string
	for _, c := range contributors {
		if c.score > 0.5 {
			parts = append(parts, fmt.Sprintf("%s: %.0f%%", c.name, c.score*100))
		}
	}
	explanation := "Low confidence across all sources"
	if len(parts) > 0 {
		if len(parts) > 2 {
			parts = parts[:2]
		}
		explanation = "Main contributors: " + strings.Join(parts, ", ")
	}

	return ConfidenceBreakdown{
		Classification:   classificationConf,
		GitHub:           s.GitHubConfidence,
		Knowledge:        knowledgeConf,
		LibraryDetection: libConf,
		Overall:          overall,
		Explanation:      explanation,
	}
}
