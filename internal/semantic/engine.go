package semantic

import (
	"regexp"
	"sort"
	"strings"
)

// Document is a named piece of text to rank.
type Document struct {
	Path    string
	Content string
}

// Result captures a ranked document.
type Result struct {
	Path    string
	Score   float64
	Snippet string
	Index   int // position in the input slice
}

// Engine ranks documents by token overlap with a query. The path counts as
// part of the document so "the navbar in header.html" favours header.html.
type Engine struct {
	maxDocBytes int
}

// NewEngine constructs an engine that reads at most maxDocBytes of each
// document (default 64 KiB).
func NewEngine(maxDocBytes int) *Engine {
	if maxDocBytes <= 0 {
		maxDocBytes = 64 * 1024
	}
	return &Engine{maxDocBytes: maxDocBytes}
}

// Rank scores every document and returns them best first. Ties keep input
// order, so an empty or unmatched query yields the input order.
func (e *Engine) Rank(query string, docs []Document) []Result {
	qTokens := tokenize(query)
	results := make([]Result, 0, len(docs))
	for i, d := range docs {
		content := d.Content
		if len(content) > e.maxDocBytes {
			content = content[:e.maxDocBytes]
		}
		results = append(results, Result{
			Path:    d.Path,
			Score:   overlapScore(qTokens, tokenize(d.Path+" "+content)),
			Snippet: summarize(content),
			Index:   i,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// Search returns at most limit documents with a positive score.
func (e *Engine) Search(query string, docs []Document, limit int) []Result {
	if limit <= 0 {
		limit = 5
	}
	var out []Result
	for _, r := range e.Rank(query, docs) {
		if r.Score <= 0 || len(out) == limit {
			break
		}
		out = append(out, r)
	}
	return out
}

func overlapScore(query, doc []string) float64 {
	if len(query) == 0 || len(doc) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(doc))
	for _, t := range doc {
		seen[t] = struct{}{}
	}
	var overlap int
	for _, q := range query {
		if _, ok := seen[q]; ok {
			overlap++
		}
	}
	return float64(overlap) / float64(len(query))
}

var tokenRe = regexp.MustCompile(`[A-Za-z0-9_]+`)

func tokenize(s string) []string {
	matches := tokenRe.FindAllString(strings.ToLower(s), -1)
	if len(matches) == 0 {
		return nil
	}
	return matches
}

func summarize(content string) string {
	for _, line := range strings.Split(content, "\n") {
		trim := strings.TrimSpace(line)
		if trim == "" {
			continue
		}
		if len(trim) > 200 {
			return trim[:200] + "..."
		}
		return trim
	}
	return ""
}
