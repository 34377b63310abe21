package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// Models wrap JSON in prose, markdown fences, or both. Decode runs an
// ordered strategy pipeline over the raw response and unmarshals the first
// candidate that parses:
//
//  1. the raw response as-is
//  2. the body of the first ``` / ```json fenced block
//  3. the greedy first-'{' to last-'}' slice
//
// The brace scan is deliberately greedy: a response containing two JSON
// objects in surrounding prose yields the slice spanning both, which fails
// to parse. That matches the long-standing behavior of the extraction this
// replaces and is pinned by TestDecode_GreedyBraceScanLimitation.
func Decode[T any](response string) (*T, error) {
	trimmed := strings.TrimSpace(response)
	if trimmed == "" {
		return nil, fmt.Errorf("empty response")
	}

	for _, candidate := range candidates(trimmed) {
		if !gjson.Valid(candidate) {
			continue
		}
		var out T
		if err := json.Unmarshal([]byte(candidate), &out); err == nil {
			return &out, nil
		}
	}

	return nil, fmt.Errorf("no decodable JSON in response: %.200s", trimmed)
}

var fenceRe = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

func candidates(s string) []string {
	cands := []string{s}

	if m := fenceRe.FindStringSubmatch(s); m != nil {
		cands = append(cands, m[1])
	}

	open := strings.IndexByte(s, '{')
	close := strings.LastIndexByte(s, '}')
	if open >= 0 && close > open {
		cands = append(cands, s[open:close+1])
	}

	return cands
}
