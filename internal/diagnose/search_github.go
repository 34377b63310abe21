package diagnose

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"triage/internal/github"
)

// maxRelatedIssues caps the merged, ranked issue list carried in the state.
const maxRelatedIssues = 8

type searchQuery struct {
	kind  string // "title", "error", "component", "fallback"
	query string
}

// githubSearch runs the issue-search fan-out branch: detect implicated
// libraries, derive targeted queries from the report, search each candidate
// repository, and rank the merged results. Search failures inside the
// client degrade to empty slices, so this stage never fails the walk.
func (p *Pipeline) githubSearch(ctx context.Context, s State) (Update, error) {
	report := s.BugReport
	if report == nil {
		report = &BugReport{}
	}

	fullText := strings.Join([]string{
		report.RawDescription,
		report.Title,
		report.ErrorMessage,
		report.StackTrace,
	}, "\n")
	detection := DetectLibraries(fullText)

	repos := p.reposToSearch(detection)
	queries := buildQueries(report, detection)

	var all []github.Issue
	seen := make(map[string]bool)
	for _, repo := range repos {
		for _, q := range queries {
			perQuery := 2
			if q.kind == "title" || q.kind == "error" {
				perQuery = 3
			}
			for _, issue := range p.issues.SearchIssues(ctx, q.query, repo, "", perQuery) {
				key := fmt.Sprintf("%s#%d", repo, issue.Number)
				if seen[key] {
					continue
				}
				seen[key] = true
				issue.Repo = repo
				all = append(all, issue)
			}
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].RelevanceScore > all[j].RelevanceScore
	})
	if len(all) > maxRelatedIssues {
		all = all[:maxRelatedIssues]
	}
	if all == nil {
		all = []github.Issue{}
	}

	confidence := computeGitHubConfidence(all, report.Title)
	p.log.Debug("issue search done",
		"repos", len(repos), "queries", len(queries),
		"issues", len(all), "confidence", confidence)

	return Update{
		RelatedIssues:    &all,
		LibraryDetection: &detection,
		GitHubConfidence: &confidence,
		Phase:            PhaseSearching,
	}, nil
}

// reposToSearch picks the primary library's tracker first, then the other
// detected libraries' trackers. With no detection, every configured repo
// is searched.
func (p *Pipeline) reposToSearch(detection LibraryDetection) []string {
	if detection.Primary == "unknown" {
		return p.repos
	}
	repos := []string{RepoForLibrary(detection.Primary)}
	for _, lib := range detection.AllLibraries {
		repo := RepoForLibrary(lib)
		if repo == "" {
			continue
		}
		dup := false
		for _, r := range repos {
			if r == repo {
				dup = true
				break
			}
		}
		if !dup {
			repos = append(repos, repo)
		}
	}
	return repos
}

// buildQueries derives search queries in priority order: the extracted
// title, keywords from the first error line, the longest detected
// component. The raw description is a last resort only when nothing else
// is available.
func buildQueries(report *BugReport, detection LibraryDetection) []searchQuery {
	var queries []searchQuery

	if report.Title != "" {
		queries = append(queries, searchQuery{"title", report.Title})
	}

	if report.ErrorMessage != "" {
		line, _, _ := strings.Cut(report.ErrorMessage, "\n")
		var keywords []string
		for _, word := range strings.Fields(line) {
			if len(word) > 3 && isErrorKeyword(word) {
				keywords = append(keywords, strings.Trim(word, ":'\"(),"))
			}
		}
		if len(keywords) > 5 {
			keywords = keywords[:5]
		}
		if len(keywords) > 0 {
			queries = append(queries, searchQuery{"error", strings.Join(keywords, " ")})
		}
	}

	if len(detection.Components) > 0 {
		best := detection.Components[0]
		for _, c := range detection.Components[1:] {
			if len(c) > len(best) {
				best = c
			}
		}
		queries = append(queries, searchQuery{"component", best})
	}

	if len(queries) == 0 && report.RawDescription != "" {
		raw := report.RawDescription
		if len(raw) > 100 {
			raw = raw[:100]
		}
		queries = append(queries, searchQuery{"fallback", raw})
	}

	return queries
}

// isErrorKeyword keeps words that look like exception names: containing
// Error or Exception, or capitalized without being all caps.
func isErrorKeyword(word string) bool {
	if strings.Contains(word, "Error") || strings.Contains(word, "Exception") {
		return true
	}
	first := []rune(word)[0]
	return unicode.IsUpper(first) && word != strings.ToUpper(word)
}

// computeGitHubConfidence scores the search outcome from four factors:
// best title overlap among the top three issues (up to 0.4), closed issues
// that may carry solutions (0.1 each, up to 0.3), result count (0.2 for
// three or more, 0.1 for at least one), and the mean relevance of the top
// three (up to 0.1).
func computeGitHubConfidence(issues []github.Issue, ticketTitle string) float64 {
	if len(issues) == 0 {
		return 0.0
	}

	confidence := 0.0
	title := strings.ToLower(strings.TrimSpace(ticketTitle))

	if title != "" {
		best := 0.0
		for _, issue := range top(issues, 3) {
			issueTitle := strings.ToLower(strings.TrimSpace(issue.Title))
			if title == issueTitle {
				best = 1.0
				break
			}
			overlap := wordOverlap(title, issueTitle)
			if overlap > best {
				best = overlap
			}
		}
		confidence += best * 0.4
	}

	closed := 0
	for _, issue := range issues {
		if issue.State == "closed" {
			closed++
		}
	}
	if closed > 0 {
		bonus := float64(closed) * 0.1
		if bonus > 0.3 {
			bonus = 0.3
		}
		confidence += bonus
	}

	if len(issues) >= 3 {
		confidence += 0.2
	} else {
		confidence += 0.1
	}

	sum := 0.0
	ranked := top(issues, 3)
	for _, issue := range ranked {
		sum += issue.RelevanceScore
	}
	confidence += sum / float64(len(ranked)) * 0.1

	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}

// wordOverlap is the shared word count divided by the larger title's word
// count.
func wordOverlap(a, b string) float64 {
	aw := wordSet(a)
	bw := wordSet(b)
	if len(aw) == 0 || len(bw) == 0 {
		return 0.0
	}
	shared := 0
	for w := range aw {
		if bw[w] {
			shared++
		}
	}
	denom := len(aw)
	if len(bw) > denom {
		denom = len(bw)
	}
	return float64(shared) / float64(denom)
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		set[w] = true
	}
	return set
}

func top(issues []github.Issue, n int) []github.Issue {
	if len(issues) < n {
		return issues
	}
	return issues[:n]
}
