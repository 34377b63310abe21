package diagnose

import (
	"context"
	"math"
)

// knowledgeDistanceThreshold drops hits more dissimilar than this; the
// store's distance range is [0, 2].
const knowledgeDistanceThreshold = 1.0

// knowledgeSearchK is how many nearest patterns are retrieved per query.
const knowledgeSearchK = 5

// knowledgeSearch runs the knowledge-base fan-out branch, matching the
// report's error text against known error patterns. The query prefers the
// extracted error message, then the title, then the first 500 characters
// of the raw description. Store failures degrade to no results.
func (p *Pipeline) knowledgeSearch(ctx context.Context, s State) (Update, error) {
	report := s.BugReport
	if report == nil {
		report = &BugReport{}
	}

	query := ""
	switch {
	case report.ErrorMessage != "":
		query = report.ErrorMessage
	case report.Title != "":
		query = report.Title
	case report.RawDescription != "":
		query = report.RawDescription
		if len(query) > 500 {
			query = query[:500]
		}
	}

	results := []KnowledgeResult{}
	if query != "" {
		hits, err := p.kb.Search(ctx, query, knowledgeSearchK)
		if err != nil {
			p.log.Warn("knowledge search failed, continuing without known patterns", "error", err)
		} else {
			for _, hit := range hits {
				if hit.Distance > knowledgeDistanceThreshold {
					continue
				}
				similarity := 1 - hit.Distance/2
				if similarity < 0 {
					similarity = 0
				}
				results = append(results, KnowledgeResult{
					ErrorPattern: hit.Content,
					Solution:     hit.Solution,
					Source:       hit.Source,
					Similarity:   math.Round(similarity*1000) / 1000,
				})
			}
		}
	}

	p.log.Debug("knowledge search done", "hits", len(results))
	return Update{
		KnowledgeResults: &results,
		Phase:            PhaseDiagnosis,
	}, nil
}
