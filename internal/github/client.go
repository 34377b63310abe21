// Package github is a read-only client for the GitHub issue-search API.
// Failures degrade to empty results: a dead network must never abort a
// diagnostic session.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"triage/internal/logging"
)

const defaultBaseURL = "https://api.github.com"

// Issue is one search hit, scored by rank position.
type Issue struct {
	Number         int     `json:"number"`
	Title          string  `json:"title"`
	URL            string  `json:"url"`
	State          string  `json:"state"` // "open" or "closed"
	RelevanceScore float64 `json:"relevance_score"`
	Summary        string  `json:"summary"`
	Repo           string  `json:"repo"`
}

// Client searches GitHub issues. The zero value is not usable; use NewClient.
type Client struct {
	httpc   *http.Client
	baseURL string
	token   string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API host (tests, GHE).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// NewClient builds a search client. token may be empty; unauthenticated
// requests work with a lower rate limit.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		httpc:   &http.Client{Timeout: 10 * time.Second},
		baseURL: defaultBaseURL,
		token:   token,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchResponse struct {
	Items []struct {
		Number  int    `json:"number"`
		Title   string `json:"title"`
		HTMLURL string `json:"html_url"`
		State   string `json:"state"`
		Body    string `json:"body"`
	} `json:"items"`
}

// SearchIssues runs an issue search scoped to one repository. Results keep
// GitHub's relevance order and are scored 1.0, 0.9, 0.8, ... by rank.
// stateFilter is "open", "closed", or "all". Any HTTP or decode failure
// returns an empty slice; it is logged, not surfaced.
func (c *Client) SearchIssues(ctx context.Context, query, repo, stateFilter string, maxResults int) []Issue {
	logger := logging.New("github")

	q := fmt.Sprintf("%s repo:%s is:issue", query, repo)
	if stateFilter != "" && stateFilter != "all" {
		q += " state:" + stateFilter
	}

	params := url.Values{}
	params.Set("q", q)
	params.Set("per_page", strconv.Itoa(maxResults))
	params.Set("sort", "relevance")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/search/issues?"+params.Encode(), nil)
	if err != nil {
		logger.Warn("build search request", "err", err)
		return nil
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		logger.Warn("issue search failed", "repo", repo, "err", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warn("issue search non-200", "repo", repo, "status", resp.StatusCode)
		return nil
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		logger.Warn("decode search response", "repo", repo, "err", err)
		return nil
	}

	issues := make([]Issue, 0, len(sr.Items))
	for i, item := range sr.Items {
		summary := item.Body
		if len(summary) > 300 {
			summary = summary[:300]
		}
		issues = append(issues, Issue{
			Number:         item.Number,
			Title:          item.Title,
			URL:            item.HTMLURL,
			State:          item.State,
			RelevanceScore: 1.0 - float64(i)*0.1,
			Summary:        summary,
			Repo:           repo,
		})
	}
	return issues
}

// IssueDetail is the full body of a single issue plus its top comments.
type IssueDetail struct {
	Number   int      `json:"number"`
	Title    string   `json:"title"`
	State    string   `json:"state"`
	Body     string   `json:"body"`
	URL      string   `json:"url"`
	Labels   []string `json:"labels"`
	Comments []struct {
		Author string `json:"author"`
		Body   string `json:"body"`
	} `json:"comments"`
}

// Issue fetches one issue with up to five comments. Returns nil on any
// failure.
func (c *Client) Issue(ctx context.Context, repo string, number int) *IssueDetail {
	logger := logging.New("github")

	var raw struct {
		Number  int    `json:"number"`
		Title   string `json:"title"`
		State   string `json:"state"`
		Body    string `json:"body"`
		HTMLURL string `json:"html_url"`
		Labels  []struct {
			Name string `json:"name"`
		} `json:"labels"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("/repos/%s/issues/%d", repo, number), &raw); err != nil {
		logger.Warn("fetch issue", "repo", repo, "number", number, "err", err)
		return nil
	}

	detail := &IssueDetail{
		Number: raw.Number,
		Title:  raw.Title,
		State:  raw.State,
		Body:   raw.Body,
		URL:    raw.HTMLURL,
	}
	for _, l := range raw.Labels {
		detail.Labels = append(detail.Labels, l.Name)
	}

	var comments []struct {
		User struct {
			Login string `json:"login"`
		} `json:"user"`
		Body string `json:"body"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("/repos/%s/issues/%d/comments?per_page=5", repo, number), &comments); err == nil {
		for _, cm := range comments {
			detail.Comments = append(detail.Comments, struct {
				Author string `json:"author"`
				Body   string `json:"body"`
			}{Author: cm.User.Login, Body: cm.Body})
		}
	}
	return detail
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
