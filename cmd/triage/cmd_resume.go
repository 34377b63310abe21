package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"triage/internal/session"
)

var resumeCmd = &cobra.Command{
	Use:   "resume <session-id> <answer>",
	Short: "Answer a pending clarification and continue the diagnosis",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runResume,
}

func runResume(cmd *cobra.Command, args []string) error {
	sessionID := args[0]
	answer := strings.Join(args[1:], " ")

	agent, cleanup, err := buildAgent()
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := agent.Resume(cmd.Context(), sessionID, answer)
	switch {
	case errors.Is(err, session.ErrNotFound):
		return fmt.Errorf("no session %s: run 'triage sessions' to list known sessions", sessionID)
	case errors.Is(err, session.ErrCompleted):
		return fmt.Errorf("session %s is already complete: run 'triage status %s' to see its report", sessionID, sessionID)
	case err != nil:
		return fmt.Errorf("resume: %w", err)
	}

	out := cmd.OutOrStdout()
	if res.Completed {
		fmt.Fprintln(out, res.Report)
		return nil
	}
	fmt.Fprintf(out, "Still missing detail:\n\n")
	fmt.Fprintf(out, "  %s\n\n", res.Question)
	fmt.Fprintf(out, "Answer with:\n")
	fmt.Fprintf(out, "  triage resume %s \"<your answer>\"\n", res.SessionID)
	return nil
}
