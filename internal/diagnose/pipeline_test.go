package diagnose

import (
	"context"
	"fmt"
	"testing"

	"triage/internal/config"
	"triage/internal/github"
	"triage/internal/knowledge"
	"triage/internal/llm"
)

// scriptedGen answers each system prompt with a canned response. Responses
// for the diagnosis prompt are consumed in order so scenarios can change
// the verdict between clarification rounds.
type scriptedGen struct {
	intake     string
	classify   string
	diagnosis  []string
	diagnosisN int
	question   string
	resolution string
}

func (g *scriptedGen) Generate(ctx context.Context, system, prompt string) (string, error) {
	switch system {
	case llm.IntakePrompt:
		return g.intake, nil
	case llm.ClassifyPrompt:
		return g.classify, nil
	case llm.DiagnosePrompt:
		if g.diagnosisN >= len(g.diagnosis) {
			return "", fmt.Errorf("unexpected diagnosis call %d", g.diagnosisN)
		}
		r := g.diagnosis[g.diagnosisN]
		g.diagnosisN++
		return r, nil
	case llm.QuestionPrompt:
		return g.question, nil
	case llm.ResolutionPrompt:
		return g.resolution, nil
	}
	return "", fmt.Errorf("unexpected system prompt")
}

// stubIssues returns the same canned issues for every query and records
// the (repo, query) pairs it was asked for.
type stubIssues struct {
	results []github.Issue
	calls   []string
}

func (s *stubIssues) SearchIssues(ctx context.Context, query, repo, stateFilter string, maxResults int) []github.Issue {
	s.calls = append(s.calls, repo+"|"+query)
	if len(s.results) > maxResults {
		return s.results[:maxResults]
	}
	return s.results
}

// stubKB returns canned hits for every query.
type stubKB struct {
	hits []knowledge.Hit
	err  error
}

func (s *stubKB) Search(ctx context.Context, query string, k int) ([]knowledge.Hit, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.hits) > k {
		return s.hits[:k], nil
	}
	return s.hits, nil
}

func testConfig() config.Config {
	return config.Config{
		APIKey:          "test",
		FallbackRepos:   []string{"owner/alpha", "owner/beta"},
		MaxInfoAttempts: 3,
	}
}

func testPipeline(t *testing.T, gen llm.Generator, issues IssueSearcher, kb knowledge.Searcher) *Pipeline {
	t.Helper()
	return NewPipeline(gen, issues, kb, testConfig())
}

const intakeJSON = `{
  "title": "api timeout error",
  "error_message": "TimeoutError: request to api.example.com timed out",
  "environment": {"python": "3.11"}
}`

const classifyHighJSON = `{
  "failure_type": "api",
  "confidence": 0.9,
  "reasoning": "timeout against an external API",
  "missing_info": []
}`

const classifyLowJSON = `{
  "failure_type": "api",
  "confidence": 0.5,
  "reasoning": "not enough detail",
  "missing_info": ["library version"]
}`

const diagnosisHighJSON = `{
  "hypotheses": [
    {
      "description": "client timeout set too low for slow endpoint",
      "likelihood": "high",
      "evidence": ["timeout fires at exactly 10s"],
      "required_validations": ["raise the timeout and retry"]
    },
    {
      "description": "network partition",
      "likelihood": "low",
      "evidence": [],
      "required_validations": []
    }
  ]
}`

const diagnosisMediumJSON = `{
  "hypotheses": [
    {
      "description": "possibly a rate limit",
      "likelihood": "medium",
      "evidence": [],
      "required_validations": []
    }
  ]
}`

const resolutionJSON = `{
  "steps": [
    {"order": 1, "action": "Raise the client timeout to 30s", "rationale": "endpoint is slow", "expected_outcome": "requests complete"},
    {"order": 2, "action": "Add retry with backoff", "rationale": "transient failures", "expected_outcome": "resilience to blips"}
  ]
}`
