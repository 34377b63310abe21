package format

import (
	"fmt"
	"time"
)

// Score renders a confidence or similarity score with two decimals.
func Score(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

// Percent renders a 0..1 score as a whole percentage.
func Percent(f float64) string {
	return fmt.Sprintf("%.0f%%", f*100)
}

// Truncate shortens s to maxLen characters, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// Age formats the time since t as "Xm Ys", "Ys", or "Xh Ym" for session
// listings.
func Age(t time.Time) string {
	d := time.Since(t)
	s := int(d.Seconds())
	if s >= 3600 {
		return fmt.Sprintf("%dh %dm", s/3600, (s%3600)/60)
	}
	if s >= 60 {
		return fmt.Sprintf("%dm %ds", s/60, s%60)
	}
	return fmt.Sprintf("%ds", s)
}

// SeverityMark returns a short marker for a confidence tier.
func SeverityMark(level string) string {
	switch level {
	case "high":
		return "●●●"
	case "medium":
		return "●●○"
	case "low":
		return "●○○"
	default:
		return "○○○"
	}
}
