package diagnose

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"triage/internal/config"
	"triage/internal/engine"
	"triage/internal/github"
	"triage/internal/knowledge"
	"triage/internal/llm"
	"triage/internal/logging"
)

//go:embed pipeline.yaml
var pipelineYAML []byte

// IssueSearcher finds related issues for a query. Satisfied by
// *github.Client; stubbed in tests.
type IssueSearcher interface {
	SearchIssues(ctx context.Context, query, repo, stateFilter string, maxResults int) []github.Issue
}

// Pipeline holds the stage implementations and their dependencies.
type Pipeline struct {
	gen         llm.Generator
	issues      IssueSearcher
	kb          knowledge.Searcher
	repos       []string
	maxAttempts int
	log         *slog.Logger
}

// NewPipeline wires the diagnostic stages. repos is the fallback search
// list used when library detection finds nothing.
func NewPipeline(gen llm.Generator, issues IssueSearcher, kb knowledge.Searcher, cfg config.Config) *Pipeline {
	repos := cfg.FallbackRepos
	if len(repos) == 0 {
		repos = config.DefaultRepos()
	}
	maxAttempts := cfg.MaxInfoAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Pipeline{
		gen:         gen,
		issues:      issues,
		kb:          kb,
		repos:       repos,
		maxAttempts: maxAttempts,
		log:         logging.New("diagnose"),
	}
}

// BuildEngine compiles the embedded topology and binds the stages.
func (p *Pipeline) BuildEngine(cp engine.Checkpointer[State]) (*engine.Engine[State, Update], error) {
	def, err := engine.LoadPipeline(pipelineYAML)
	if err != nil {
		return nil, fmt.Errorf("load pipeline: %w", err)
	}
	g, err := engine.BuildGraph(def)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	eng := engine.New(g, Apply, cp)
	nodes := map[string]engine.NodeFunc[State, Update]{
		"intake":           p.intake,
		"classifier":       p.classify,
		"github_search":    p.githubSearch,
		"knowledge_search": p.knowledgeSearch,
		"diagnoser":        p.diagnose,
		"info_gatherer":    p.gatherInfo,
		"resolution":       p.resolve,
	}
	for name, fn := range nodes {
		if err := eng.RegisterNode(name, fn); err != nil {
			return nil, err
		}
	}
	eng.RegisterRouter("after_diagnosis", p.afterDiagnosis)
	return eng, nil
}
