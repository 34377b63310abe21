// Package knowledge is the error-pattern knowledge base: a similarity
// search over known error messages and their recorded solutions.
package knowledge

import "context"

// Hit is one similarity-search result. Distance is a dissimilarity score in
// [0, 2] with 0 meaning identical, the same range an L2-normalized embedding
// store produces, so callers convert with sim = 1 - d/2 regardless of
// backend.
type Hit struct {
	Content  string  `json:"content"`
	Solution string  `json:"solution"`
	Source   string  `json:"source"`
	Distance float64 `json:"distance"`
}

// Searcher retrieves the k nearest known error patterns for a query.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]Hit, error)
}

// Entry is one knowledge-base record for ingestion.
type Entry struct {
	Pattern  string
	Solution string
	Source   string
}
