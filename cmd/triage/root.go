package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"triage/internal/config"
	"triage/internal/diagnose"
	"triage/internal/github"
	"triage/internal/knowledge"
	"triage/internal/llm"
	"triage/internal/logging"
	"triage/internal/session"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	logLevel  string
	logFormat string
}

var rootCmd = &cobra.Command{
	Use:   "triage",
	Short: "Evidence-based diagnosis of software bug reports",
	Long: "Triage runs a bug report through classification, GitHub issue and\n" +
		"knowledge-base search, and hypothesis generation, asking clarifying\n" +
		"questions when the report is too thin to diagnose.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		level, err := logging.ParseLevel(rootFlags.logLevel)
		if err != nil {
			return err
		}
		logging.Init(level, rootFlags.logFormat)
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	pf.StringVar(&rootFlags.logFormat, "log-format", "text", "Log format: text or json")

	rootCmd.AddCommand(diagnoseCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(issueCmd)
	rootCmd.AddCommand(kbCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.Version = version
}

// buildAgent constructs the full pipeline from the environment. The
// returned cleanup closes both SQLite handles; callers defer it.
func buildAgent() (*diagnose.Agent, func(), error) {
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	store, err := session.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open session store: %w", err)
	}
	kb, err := knowledge.Open(cfg.DBPath)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("open knowledge base: %w", err)
	}
	cleanup := func() {
		kb.Close()
		store.Close()
	}

	agent, err := diagnose.NewAgent(llm.NewClient(cfg), github.NewClient(cfg.GitHubToken), kb, store, cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return agent, cleanup, nil
}
