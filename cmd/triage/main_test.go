package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"triage/internal/session"
)

func execCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSessionsListEmpty(t *testing.T) {
	t.Setenv("TRIAGE_DB", filepath.Join(t.TempDir(), "triage.db"))

	out, err := execCommand(t, "sessions")
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if !strings.Contains(out, "No stored sessions.") {
		t.Errorf("output = %q", out)
	}
}

func TestSessionsListAndDelete(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "triage.db")
	t.Setenv("TRIAGE_DB", dbPath)

	store, err := session.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	rec := &session.Record{
		SessionID: "abc-123",
		Status:    session.StatusPaused,
		Question:  "Which version are you running?",
		State:     json.RawMessage(`{}`),
	}
	if err := store.Save(rec); err != nil {
		t.Fatal(err)
	}
	store.Close()

	out, err := execCommand(t, "sessions")
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if !strings.Contains(out, "abc-123") || !strings.Contains(out, session.StatusPaused) {
		t.Errorf("listing missing session row:\n%s", out)
	}
	if !strings.Contains(out, "Which version") {
		t.Errorf("listing missing pending question:\n%s", out)
	}

	out, err = execCommand(t, "sessions", "delete", "abc-123")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !strings.Contains(out, "Deleted session abc-123") {
		t.Errorf("delete output = %q", out)
	}

	out, err = execCommand(t, "sessions")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No stored sessions.") {
		t.Errorf("session should be gone:\n%s", out)
	}
}

func TestKBAddImportCount(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRIAGE_DB", filepath.Join(dir, "triage.db"))

	out, err := execCommand(t, "kb", "add",
		"--pattern", "TimeoutError: request timed out",
		"--solution", "Raise the client timeout")
	if err != nil {
		t.Fatalf("kb add: %v", err)
	}
	if !strings.Contains(out, "Added 1 pattern.") {
		t.Errorf("add output = %q", out)
	}

	importPath := filepath.Join(dir, "patterns.json")
	entries := `[
		{"pattern": "KeyError: missing state key", "solution": "Declare the key in the state schema", "source": "docs"},
		{"pattern": "", "solution": "skipped, no pattern"}
	]`
	if err := os.WriteFile(importPath, []byte(entries), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err = execCommand(t, "kb", "load", importPath)
	if err != nil {
		t.Fatalf("kb import: %v", err)
	}
	if !strings.Contains(out, "Loaded 1 patterns") {
		t.Errorf("import output = %q", out)
	}

	out, err = execCommand(t, "kb", "count")
	if err != nil {
		t.Fatalf("kb count: %v", err)
	}
	if !strings.Contains(out, "2 patterns") {
		t.Errorf("count output = %q", out)
	}
}

func TestDiagnoseRejectsEmptyReport(t *testing.T) {
	t.Setenv("TRIAGE_DB", filepath.Join(t.TempDir(), "triage.db"))
	t.Setenv("OPENAI_API_KEY", "test")

	diagnoseFlags.file = ""
	_, err := execCommand(t, "diagnose", "   ")
	if err == nil || !strings.Contains(err.Error(), "empty bug report") {
		t.Errorf("err = %v", err)
	}
}

func TestRecAge(t *testing.T) {
	ts := time.Now().UTC().Add(-90 * time.Minute).Format(time.RFC3339)
	got := recAge(ts)
	if !strings.HasSuffix(got, " ago") {
		t.Errorf("recAge(%s) = %q", ts, got)
	}
	if got := recAge("not-a-timestamp"); got != "not-a-timestamp" {
		t.Errorf("unparseable timestamp should pass through, got %q", got)
	}
}
