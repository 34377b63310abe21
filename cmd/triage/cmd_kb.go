package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"triage/internal/config"
	"triage/internal/knowledge"
)

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Manage the error-pattern knowledge base",
}

var kbAddFlags struct {
	pattern  string
	solution string
	source   string
}

var kbAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add one error pattern with its solution",
	RunE:  runKBAdd,
}

var kbLoadCmd = &cobra.Command{
	Use:   "load <file.json>",
	Short: "Load error patterns from a JSON file",
	Long: `Loads knowledge-base entries from a JSON array:

  [{"pattern": "...", "solution": "...", "source": "..."}, ...]`,
	Args: cobra.ExactArgs(1),
	RunE: runKBLoad,
}

var kbCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Show how many patterns the knowledge base holds",
	RunE:  runKBCount,
}

func init() {
	f := kbAddCmd.Flags()
	f.StringVar(&kbAddFlags.pattern, "pattern", "", "Error pattern text (required)")
	f.StringVar(&kbAddFlags.solution, "solution", "", "Recorded solution (required)")
	f.StringVar(&kbAddFlags.source, "source", "manual", "Where the pattern came from")
	_ = kbAddCmd.MarkFlagRequired("pattern")
	_ = kbAddCmd.MarkFlagRequired("solution")

	kbCmd.AddCommand(kbAddCmd)
	kbCmd.AddCommand(kbLoadCmd)
	kbCmd.AddCommand(kbCountCmd)
}

func openKB() (*knowledge.SqliteKB, error) {
	cfg := config.FromEnv()
	kb, err := knowledge.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open knowledge base: %w", err)
	}
	return kb, nil
}

func runKBAdd(cmd *cobra.Command, _ []string) error {
	kb, err := openKB()
	if err != nil {
		return err
	}
	defer kb.Close()

	entry := knowledge.Entry{
		Pattern:  kbAddFlags.pattern,
		Solution: kbAddFlags.solution,
		Source:   kbAddFlags.source,
	}
	if err := kb.Add(cmd.Context(), entry); err != nil {
		return fmt.Errorf("add entry: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Added 1 pattern.")
	return nil
}

func runKBLoad(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read load file: %w", err)
	}
	var entries []struct {
		Pattern  string `json:"pattern"`
		Solution string `json:"solution"`
		Source   string `json:"source"`
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse load file: %w", err)
	}

	kb, err := openKB()
	if err != nil {
		return err
	}
	defer kb.Close()

	added := 0
	for _, e := range entries {
		if e.Pattern == "" || e.Solution == "" {
			continue
		}
		src := e.Source
		if src == "" {
			src = args[0]
		}
		if err := kb.Add(cmd.Context(), knowledge.Entry{Pattern: e.Pattern, Solution: e.Solution, Source: src}); err != nil {
			return fmt.Errorf("add entry: %w", err)
		}
		added++
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d patterns from %s\n", added, args[0])
	return nil
}

func runKBCount(cmd *cobra.Command, _ []string) error {
	kb, err := openKB()
	if err != nil {
		return err
	}
	defer kb.Close()

	n, err := kb.Count(cmd.Context())
	if err != nil {
		return fmt.Errorf("count: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d patterns\n", n)
	return nil
}
