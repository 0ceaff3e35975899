package patch

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const maxDiffLines = 200

// FileChange summarizes how one file changed during a turn.
type FileChange struct {
	Path    string `json:"path"`
	Created bool   `json:"created,omitempty"`
	Added   int    `json:"added"`
	Removed int    `json:"removed"`
	Diff    string `json:"diff,omitempty"`
}

// Summarize computes a line-level change summary between two versions.
func Summarize(path, before, after string, existed bool) FileChange {
	change := FileChange{Path: path, Created: !existed}
	if before == after {
		return change
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out []string
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			change.Added += countLines(d.Text)
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			change.Removed += countLines(d.Text)
			prefix = "- "
		default:
			continue
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			out = append(out, prefix+line)
		}
	}
	if len(out) > maxDiffLines {
		out = append(out[:maxDiffLines], "... diff truncated")
	}
	change.Diff = strings.Join(out, "\n")
	return change
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
