package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"triage/internal/config"
	"triage/internal/format"
	"triage/internal/session"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List stored diagnostic sessions",
	RunE:  runSessions,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a stored session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDelete,
}

func init() {
	sessionsCmd.AddCommand(sessionsDeleteCmd)
}

func openStore() (*session.SqlStore, error) {
	cfg := config.FromEnv()
	store, err := session.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	return store, nil
}

func runSessions(cmd *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	recs, err := store.List()
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	out := cmd.OutOrStdout()
	if len(recs) == 0 {
		fmt.Fprintln(out, "No stored sessions.")
		return nil
	}

	tbl := format.NewTable(format.ASCII)
	tbl.Header("Session", "Status", "Updated", "Pending Question")
	for _, rec := range recs {
		tbl.Row(rec.SessionID, rec.Status, recAge(rec.UpdatedAt), format.Truncate(rec.Question, 48))
	}
	fmt.Fprintln(out, tbl.String())
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(args[0]); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", args[0])
	return nil
}

// recAge renders a stored RFC3339 timestamp as a relative age. Timestamps
// that fail to parse render as-is.
func recAge(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return format.Age(t) + " ago"
}
