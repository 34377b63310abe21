package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var diagnoseFlags struct {
	file string
}

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose [report text]",
	Short: "Diagnose a bug report",
	Long: `Runs a bug report through the full diagnostic pipeline and prints the
report, or the clarifying question if the pipeline needs more detail.

Usage:
  triage diagnose "workflow hangs after the first node"
  triage diagnose -f report.txt
  cat report.txt | triage diagnose -f -`,
	RunE: runDiagnose,
}

func init() {
	diagnoseCmd.Flags().StringVarP(&diagnoseFlags.file, "file", "f", "", "Read the report from a file ('-' for stdin)")
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	description, err := reportText(args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("empty bug report: pass the report text as an argument or via --file")
	}

	agent, cleanup, err := buildAgent()
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := agent.Start(cmd.Context(), description)
	if err != nil {
		return fmt.Errorf("diagnose: %w", err)
	}

	out := cmd.OutOrStdout()
	if res.Completed {
		fmt.Fprintln(out, res.Report)
		return nil
	}
	fmt.Fprintf(out, "The pipeline needs more detail before it can diagnose:\n\n")
	fmt.Fprintf(out, "  %s\n\n", res.Question)
	fmt.Fprintf(out, "Answer with:\n")
	fmt.Fprintf(out, "  triage resume %s \"<your answer>\"\n", res.SessionID)
	return nil
}

func reportText(args []string) (string, error) {
	if diagnoseFlags.file == "" {
		return strings.Join(args, " "), nil
	}
	if diagnoseFlags.file == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(diagnoseFlags.file)
	if err != nil {
		return "", fmt.Errorf("read report: %w", err)
	}
	return string(data), nil
}
