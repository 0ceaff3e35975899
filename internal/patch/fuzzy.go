package patch

import (
	"strings"
)

// normalized is whitespace-normalized text plus, for every kept byte, its
// offset in the source.
type normalized struct {
	text    []byte
	offsets []int
}

// normalize collapses whitespace runs to one space, trims the ends and drops
// whitespace next to '<' or '>'.
func normalize(s string) string {
	return string(normalizeMapped(s).text)
}

func normalizeMapped(s string) normalized {
	n := normalized{
		text:    make([]byte, 0, len(s)),
		offsets: make([]int, 0, len(s)),
	}
	pending := -1
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isSpace(c) {
			if pending < 0 {
				pending = i
			}
			continue
		}
		if pending >= 0 && len(n.text) > 0 {
			last := n.text[len(n.text)-1]
			if last != '<' && last != '>' && c != '<' && c != '>' {
				n.text = append(n.text, ' ')
				n.offsets = append(n.offsets, pending)
			}
		}
		pending = -1
		n.text = append(n.text, c)
		n.offsets = append(n.offsets, i)
	}
	return n
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

type lineSpan struct {
	start int
	end   int // excludes the newline
}

func lineSpans(content string) []lineSpan {
	var spans []lineSpan
	start := 0
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			spans = append(spans, lineSpan{start: start, end: i})
			start = i + 1
		}
	}
	return append(spans, lineSpan{start: start, end: len(content)})
}

// fuzzyLocate finds search in content ignoring incidental whitespace. Whole
// line windows are tried first, ordered by start line and then by span
// length; the first window whose normalized form equals the normalized
// search wins. When no window matches, the normalized search is looked up
// inside the normalized content and mapped back to source offsets.
func fuzzyLocate(content, search string) (int, int, bool) {
	target := normalize(search)
	if target == "" {
		return 0, 0, false
	}
	if start, end, ok := findLineWindow(content, target); ok {
		return start, end, true
	}
	return findMapped(content, target)
}

func findLineWindow(content, target string) (int, int, bool) {
	spans := lineSpans(content)
	for i := range spans {
		if strings.TrimSpace(content[spans[i].start:spans[i].end]) == "" {
			continue
		}
		for j := i; j < len(spans); j++ {
			window := normalize(content[spans[i].start:spans[j].end])
			if window == target {
				return spans[i].start, spans[j].end, true
			}
			// Normalized windows only grow as lines are added.
			if len(window) > len(target) {
				break
			}
		}
	}
	return 0, 0, false
}

func findMapped(content, target string) (int, int, bool) {
	n := normalizeMapped(content)
	idx := strings.Index(string(n.text), target)
	if idx < 0 {
		return 0, 0, false
	}
	last := idx + len(target) - 1
	return n.offsets[idx], n.offsets[last] + 1, true
}
