package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"triage/internal/config"
	"triage/internal/format"
	"triage/internal/github"
)

var issueCmd = &cobra.Command{
	Use:   "issue <owner/repo> <number>",
	Short: "Show a GitHub issue referenced by a diagnostic report",
	Args:  cobra.ExactArgs(2),
	RunE:  runIssue,
}

func runIssue(cmd *cobra.Command, args []string) error {
	repo := args[0]
	if !strings.Contains(repo, "/") {
		return fmt.Errorf("repository must be owner/repo, got %q", repo)
	}
	number, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("issue number must be numeric, got %q", args[1])
	}

	cfg := config.FromEnv()
	client := github.NewClient(cfg.GitHubToken)

	detail := client.Issue(cmd.Context(), repo, number)
	if detail == nil {
		return fmt.Errorf("could not fetch %s#%d", repo, number)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "#%d: %s\n", detail.Number, detail.Title)
	fmt.Fprintf(out, "State:  %s\n", detail.State)
	fmt.Fprintf(out, "URL:    %s\n", detail.URL)
	if len(detail.Labels) > 0 {
		fmt.Fprintf(out, "Labels: %s\n", strings.Join(detail.Labels, ", "))
	}
	if detail.Body != "" {
		fmt.Fprintf(out, "\n%s\n", format.Truncate(detail.Body, 2000))
	}
	for _, c := range detail.Comments {
		fmt.Fprintf(out, "\n--- %s ---\n%s\n", c.Author, format.Truncate(c.Body, 500))
	}
	return nil
}
