// Package config builds the explicit runtime configuration from the
// environment. It is constructed once at startup and passed into every
// component that needs it; there is no package-level singleton.
package config

import (
	"fmt"
	"os"
	"strings"
)

// DefaultDBPath is the default relative path for the SQLite session DB.
// Open() creates the parent dir (.triage) if it does not exist.
const DefaultDBPath = ".triage/triage.db"

// Config holds the credentials and tunables for the diagnostic pipeline.
type Config struct {
	// OpenAI-compatible generation endpoint.
	APIKey  string // required
	Model   string // chat model name
	BaseURL string // optional override for self-hosted gateways

	// GitHub issue search. Token is optional; unauthenticated search
	// works with a lower rate limit.
	GitHubToken string

	// FallbackRepos are searched when library detection finds nothing.
	FallbackRepos []string

	// DBPath is the SQLite file holding sessions and the knowledge base.
	DBPath string

	// MaxInfoAttempts caps the clarification loop.
	MaxInfoAttempts int
}

// FromEnv reads configuration from the environment.
func FromEnv() Config {
	cfg := Config{
		APIKey:          os.Getenv("OPENAI_API_KEY"),
		Model:           os.Getenv("OPENAI_MODEL"),
		BaseURL:         os.Getenv("OPENAI_BASE_URL"),
		GitHubToken:     os.Getenv("GITHUB_TOKEN"),
		DBPath:          os.Getenv("TRIAGE_DB"),
		MaxInfoAttempts: 3,
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath
	}
	if repos := os.Getenv("TRIAGE_REPOS"); repos != "" {
		for _, r := range strings.Split(repos, ",") {
			if r = strings.TrimSpace(r); r != "" {
				cfg.FallbackRepos = append(cfg.FallbackRepos, r)
			}
		}
	}
	if len(cfg.FallbackRepos) == 0 {
		cfg.FallbackRepos = DefaultRepos()
	}
	return cfg
}

// DefaultRepos returns the repositories searched when no library is detected.
func DefaultRepos() []string {
	return []string{
		"langchain-ai/langchain",
		"langchain-ai/langgraph",
		"langchain-ai/langsmith-sdk",
	}
}

// Validate checks that required credentials are present. It is the only
// error surfaced to the user before the workflow starts; everything past
// this point degrades instead of failing.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set\n\n" +
			"The diagnostic pipeline needs an OpenAI-compatible API key for\n" +
			"classification and hypothesis generation. Set it with:\n" +
			"  export OPENAI_API_KEY=sk-...")
	}
	return nil
}
