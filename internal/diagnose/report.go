package diagnose

import (
	"fmt"
	"strings"

	"triage/internal/format"
	"triage/internal/github"
)

// Summary renders the final diagnostic report as markdown: detected
// libraries, similar issues, the diagnosis with its confidence breakdown,
// and the step-by-step fix plan.
func Summary(
	hypothesis Hypothesis,
	steps []ResolutionStep,
	relatedIssues []github.Issue,
	libDetection *LibraryDetection,
	breakdown *ConfidenceBreakdown,
) string {
	var lines []string

	lines = append(lines, "# Diagnostic Report", "")

	if libDetection != nil && libDetection.Primary != "unknown" {
		lines = append(lines, "## Detected Libraries")
		lines = append(lines, fmt.Sprintf("**Primary:** %s", libDetection.Primary))
		var others []string
		for _, lib := range libDetection.AllLibraries {
			if lib != libDetection.Primary {
				others = append(others, lib)
			}
		}
		if len(others) > 0 {
			lines = append(lines, fmt.Sprintf("**Also involved:** %s", strings.Join(others, ", ")))
		}
		if len(libDetection.Components) > 0 {
			components := libDetection.Components
			if len(components) > 5 {
				components = components[:5]
			}
			lines = append(lines, fmt.Sprintf("**Components:** %s", strings.Join(components, ", ")))
		}
		lines = append(lines, "")
	}

	if len(relatedIssues) > 0 {
		lines = append(lines, "## Similar GitHub Issues Found")
		issues := relatedIssues
		if len(issues) > 5 {
			issues = issues[:5]
		}
		for _, issue := range issues {
			status := "open"
			if issue.State == "closed" {
				status = "closed"
			}
			repoLabel := ""
			if issue.Repo != "" {
				name := issue.Repo
				if idx := strings.LastIndex(name, "/"); idx >= 0 {
					name = name[idx+1:]
				}
				repoLabel = fmt.Sprintf(" [%s]", name)
			}
			lines = append(lines, fmt.Sprintf("- **[#%d: %s](%s)**%s (%s)",
				issue.Number, issue.Title, issue.URL, repoLabel, status))
			if issue.Summary != "" {
				summary := issue.Summary
				if len(summary) > 150 {
					summary = summary[:150]
				}
				summary = strings.ReplaceAll(summary, "\n", " ")
				lines = append(lines, fmt.Sprintf("  > %s...", summary))
			}
		}
		lines = append(lines, "")
	}

	lines = append(lines, "## Diagnosis")
	lines = append(lines, fmt.Sprintf("**Root Cause:** %s", hypothesis.Description))
	lines = append(lines, fmt.Sprintf("**Confidence:** %s", capitalize(hypothesis.Likelihood)))
	lines = append(lines, "")

	if breakdown != nil {
		lines = append(lines, "### Confidence Sources")
		tb := format.NewTable(format.Markdown)
		tb.Header("Source", "Score")
		tb.Row("LLM Classification", format.Percent(breakdown.Classification))
		tb.Row("GitHub Issues", format.Percent(breakdown.GitHub))
		tb.Row("Knowledge Base", format.Percent(breakdown.Knowledge))
		tb.Row("Library Detection", format.Percent(breakdown.LibraryDetection))
		tb.Row("**Overall**", "**"+format.Percent(breakdown.Overall)+"**")
		lines = append(lines, tb.String(), "")
		if breakdown.Explanation != "" {
			lines = append(lines, fmt.Sprintf("*%s*", breakdown.Explanation), "")
		}
	}

	if len(hypothesis.Evidence) > 0 {
		lines = append(lines, "**Supporting Evidence:**")
		for _, e := range hypothesis.Evidence {
			lines = append(lines, fmt.Sprintf("- %s", e))
		}
		lines = append(lines, "")
	}

	lines = append(lines, "## Resolution Plan", "")
	for _, step := range steps {
		lines = append(lines, fmt.Sprintf("### Step %d: %s", step.Order, step.Action))
		lines = append(lines, fmt.Sprintf("*Why:* %s", step.Rationale))
		lines = append(lines, fmt.Sprintf("*Expected result:* %s", step.ExpectedOutcome))
		lines = append(lines, "")
	}

	lines = append(lines, "---")
	lines = append(lines, "*If the issue persists after following these steps, please provide additional details.*")

	return strings.Join(lines, "\n")
}

func capitalize(s string) string {
	if s == "" {
		return "Unknown"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
