// triage diagnoses software bug reports: it classifies the failure,
// gathers corroborating evidence from GitHub issues and a local knowledge
// base, and produces ranked root-cause hypotheses with a resolution plan.
//
// Usage:
//
//	triage diagnose "my LangGraph workflow hangs after the first node"
//	triage resume <session-id> "the answer to the pending question"
//	triage status <session-id>
//	triage sessions [delete <session-id>]
//	triage kb <add|load|count>
//	triage issue <owner/repo> <number>
//	triage serve
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
