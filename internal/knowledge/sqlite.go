package knowledge

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

// SqliteKB is a Searcher backed by a local SQLite table. Similarity is
// token-set overlap rather than embeddings, which keeps the pipeline
// runnable with no external vector service; swap in a remote Searcher for
// production-quality recall.
type SqliteKB struct {
	db *sql.DB
}

// Open opens or creates the knowledge base at path, creating the parent
// directory if needed.
func Open(path string) (*SqliteKB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create kb dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	kb := &SqliteKB{db: db}
	if err := kb.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return kb, nil
}

// OpenMemory opens an in-memory knowledge base for tests.
func OpenMemory() (*SqliteKB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open memory sqlite: %w", err)
	}
	kb := &SqliteKB{db: db}
	if err := kb.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return kb, nil
}

func (kb *SqliteKB) init() error {
	_, err := kb.db.Exec(`CREATE TABLE IF NOT EXISTS error_patterns (
		id       INTEGER PRIMARY KEY AUTOINCREMENT,
		pattern  TEXT NOT NULL,
		solution TEXT NOT NULL DEFAULT '',
		source   TEXT NOT NULL DEFAULT ''
	)`)
	if err != nil {
		return fmt.Errorf("create error_patterns: %w", err)
	}
	return nil
}

func (kb *SqliteKB) Close() error { return kb.db.Close() }

// Add inserts one entry.
func (kb *SqliteKB) Add(ctx context.Context, e Entry) error {
	_, err := kb.db.ExecContext(ctx,
		"INSERT INTO error_patterns (pattern, solution, source) VALUES (?, ?, ?)",
		e.Pattern, e.Solution, e.Source)
	if err != nil {
		return fmt.Errorf("insert pattern: %w", err)
	}
	return nil
}

// Count returns the number of stored patterns.
func (kb *SqliteKB) Count(ctx context.Context) (int, error) {
	var n int
	err := kb.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM error_patterns").Scan(&n)
	return n, err
}

// Search scans all patterns and returns the k nearest by token-set
// distance. The table is expected to stay small (thousands of rows); a full
// scan is fine at that scale.
func (kb *SqliteKB) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	rows, err := kb.db.QueryContext(ctx,
		"SELECT pattern, solution, source FROM error_patterns")
	if err != nil {
		return nil, fmt.Errorf("query patterns: %w", err)
	}
	defer rows.Close()

	qTokens := tokenize(query)

	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.Content, &h.Solution, &h.Source); err != nil {
			return nil, fmt.Errorf("scan pattern: %w", err)
		}
		h.Distance = distance(qTokens, tokenize(h.Content))
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

var tokenRe = regexp.MustCompile(`[A-Za-z0-9_.]+`)

func tokenize(s string) map[string]bool {
	tokens := make(map[string]bool)
	for _, t := range tokenRe.FindAllString(strings.ToLower(s), -1) {
		if len(t) > 2 {
			tokens[t] = true
		}
	}
	return tokens
}

// distance converts Jaccard token overlap to the [0, 2] range: identical
// token sets yield 0, disjoint sets yield 2.
func distance(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 2
	}
	inter := 0
	for t := range a {
		if b[t] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 2
	}
	jaccard := float64(inter) / float64(union)
	return math.Round((2-2*jaccard)*1000) / 1000
}
