package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"triage/internal/diagnose"
	"triage/internal/format"
	"triage/internal/session"
)

var statusCmd = &cobra.Command{
	Use:   "status <session-id>",
	Short: "Show the state of a diagnostic session",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	sessionID := args[0]

	agent, cleanup, err := buildAgent()
	if err != nil {
		return err
	}
	defer cleanup()

	st, err := agent.Status(cmd.Context(), sessionID)
	if errors.Is(err, session.ErrNotFound) {
		return fmt.Errorf("no session %s: run 'triage sessions' to list known sessions", sessionID)
	}
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session: %s\n", st.SessionID)
	fmt.Fprintf(out, "Status:  %s\n", st.Status)
	fmt.Fprintf(out, "Phase:   %s\n", st.Phase)
	if st.State.InfoAttempts > 0 {
		fmt.Fprintf(out, "Clarifications asked: %d\n", st.State.InfoAttempts)
	}
	if len(st.State.Messages) > 0 {
		fmt.Fprintf(out, "Conversation:\n")
		for _, m := range st.State.Messages {
			fmt.Fprintf(out, "  [%s] %s\n", m.Role, format.Truncate(strings.ReplaceAll(m.Content, "\n", " "), 96))
		}
	}

	switch {
	case st.Status == session.StatusPaused:
		fmt.Fprintf(out, "\nPending question:\n  %s\n\n", st.Question)
		fmt.Fprintf(out, "Answer with:\n  triage resume %s \"<your answer>\"\n", sessionID)
	case st.Phase == diagnose.PhaseComplete:
		if report := st.State.FinalReport(); report != "" {
			fmt.Fprintf(out, "\n%s\n", report)
		}
	}
	return nil
}
