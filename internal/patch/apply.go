package patch

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const previewLimit = 100

// Failure reasons reported on MatchError.
const (
	ReasonNotFound    = "search text not found"
	ReasonEmptySearch = "empty search text"
	ReasonMissingFile = "file does not exist"
)

// MatchError describes one block that could not be applied.
type MatchError struct {
	File    string `json:"file"`
	Index   int    `json:"index"`
	Reason  string `json:"reason"`
	Preview string `json:"preview"`
}

func (e *MatchError) Error() string {
	return fmt.Sprintf("%s: edit %d: %s: %q", e.File, e.Index+1, e.Reason, e.Preview)
}

// ApplyResult is the outcome of applying a sequence of blocks to one file.
type ApplyResult struct {
	Success bool          `json:"success"`
	Content string        `json:"content"`
	Applied int           `json:"applied"`
	Errors  []*MatchError `json:"errors,omitempty"`
}

// ApplySearchReplace applies blocks in order, each against the content left
// by the previous one. A block that cannot be located is recorded and
// skipped; the remaining blocks still apply.
func ApplySearchReplace(content string, blocks []SearchReplaceBlock) ApplyResult {
	res := ApplyResult{Content: content}
	for i, b := range blocks {
		if strings.TrimSpace(b.Search) == "" {
			res.Errors = append(res.Errors, newMatchError(b, i, ReasonEmptySearch))
			continue
		}
		start, end, ok := locate(res.Content, b.Search)
		if !ok {
			res.Errors = append(res.Errors, newMatchError(b, i, ReasonNotFound))
			continue
		}
		res.Content = res.Content[:start] + b.Replace + res.Content[end:]
		res.Applied++
	}
	res.Success = len(res.Errors) == 0
	return res
}

// MissingFile reports every block of an edit whose target is absent.
func MissingFile(edit ParsedEdit) []*MatchError {
	out := make([]*MatchError, 0, len(edit.Blocks))
	for i, b := range edit.Blocks {
		out = append(out, newMatchError(b, i, ReasonMissingFile))
	}
	return out
}

func locate(content, search string) (int, int, bool) {
	if idx := strings.Index(content, search); idx >= 0 {
		return idx, idx + len(search), true
	}
	return fuzzyLocate(content, search)
}

func newMatchError(b SearchReplaceBlock, index int, reason string) *MatchError {
	return &MatchError{
		File:    b.File,
		Index:   index,
		Reason:  reason,
		Preview: preview(b.Search),
	}
}

func preview(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= previewLimit {
		return s
	}
	runes := []rune(s)
	return string(runes[:previewLimit-3]) + "..."
}
