package codeblock

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	fileLineRe  = regexp.MustCompile("(?i)^\\s*(?:#{1,6}\\s*)?[*_`]*\\s*file:\\s*(.+)$")
	fenceOpenRe = regexp.MustCompile("^\\s*(`{3,})\\s*([^\\s`]*)")
)

// ParseCodeBlocks extracts file blocks from model output. The input may be a
// partial stream; an unterminated fence yields a block with IsComplete false.
// Blocks declared with a FILE: line take precedence; bare fences are only
// considered when no declared block exists.
func ParseCodeBlocks(text string) []ParsedCodeBlock {
	lines := splitLines(text)
	if blocks := parseDeclared(lines); len(blocks) > 0 {
		return blocks
	}
	return parseBareFences(lines)
}

// ParseDeclaredBlocks returns only blocks introduced by a FILE: line, without
// the bare-fence fallback.
func ParseDeclaredBlocks(text string) []ParsedCodeBlock {
	return parseDeclared(splitLines(text))
}

func parseDeclared(lines []string) []ParsedCodeBlock {
	var blocks []ParsedCodeBlock
	for i := 0; i < len(lines); i++ {
		declared, ok := fileDeclaration(lines[i])
		if !ok {
			continue
		}
		j := i + 1
		for j < len(lines) && strings.TrimSpace(lines[j]) == "" {
			j++
		}
		if j >= len(lines) {
			continue
		}
		ticks, tag, ok := fenceOpen(lines[j])
		if !ok {
			continue
		}
		content, complete, end := readFence(lines, j+1, ticks)
		i = end

		p, ok := NormalizePath(declared)
		if !ok {
			continue
		}
		lang, _ := splitTag(tag)
		if lang == "" {
			lang = LanguageFromPath(p)
		}
		blocks = append(blocks, ParsedCodeBlock{
			Path:       p,
			Content:    content,
			Language:   lang,
			IsComplete: complete,
		})
	}
	return blocks
}

func parseBareFences(lines []string) []ParsedCodeBlock {
	var blocks []ParsedCodeBlock
	seen := make(map[string]int)
	ordinal := 0
	for i := 0; i < len(lines); i++ {
		ticks, tag, ok := fenceOpen(lines[i])
		if !ok {
			continue
		}
		ordinal++
		content, complete, end := readFence(lines, i+1, ticks)
		i = end

		lang, rawPath := splitTag(tag)
		p, ok := NormalizePath(rawPath)
		if !ok {
			p = synthesizePath(lang, seen, ordinal)
		}
		if lang == "" {
			lang = LanguageFromPath(p)
		}
		blocks = append(blocks, ParsedCodeBlock{
			Path:       p,
			Content:    content,
			Language:   lang,
			IsComplete: complete,
		})
	}
	return blocks
}

// readFence collects fence interior lines starting at start. It returns the
// trimmed content, whether a closing fence was found and the index of the last
// consumed line.
func readFence(lines []string, start, ticks int) (string, bool, int) {
	var body []string
	for k := start; k < len(lines); k++ {
		if isFenceClose(lines[k], ticks) {
			return strings.TrimSpace(strings.Join(body, "\n")), true, k
		}
		body = append(body, lines[k])
	}
	return strings.TrimSpace(strings.Join(body, "\n")), false, len(lines) - 1
}

func fileDeclaration(line string) (string, bool) {
	m := fileLineRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	rest := strings.TrimSpace(strings.Trim(strings.TrimSpace(m[1]), "*_`"))
	if rest == "" {
		return "", false
	}
	return rest, true
}

// DeclaredPath reports whether line is a FILE: declaration and returns its
// normalized path. The path is empty when the declared path is unusable.
func DeclaredPath(line string) (string, bool) {
	raw, ok := fileDeclaration(line)
	if !ok {
		return "", false
	}
	p, _ := NormalizePath(raw)
	return p, true
}

func fenceOpen(line string) (int, string, bool) {
	m := fenceOpenRe.FindStringSubmatch(line)
	if m == nil {
		return 0, "", false
	}
	return len(m[1]), m[2], true
}

func isFenceClose(line string, ticks int) bool {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < ticks {
		return false
	}
	return strings.Trim(trimmed, "`") == ""
}

// splitTag splits a fence tag of the form lang or lang:path.
func splitTag(tag string) (string, string) {
	lang, p, found := strings.Cut(tag, ":")
	if !found {
		return strings.ToLower(tag), ""
	}
	return strings.ToLower(lang), p
}

type synthName struct {
	base string
	ext  string
}

var synthNames = map[string]synthName{
	"css":        {"styles", ".css"},
	"scss":       {"styles", ".scss"},
	"javascript": {"script", ".js"},
	"js":         {"script", ".js"},
	"typescript": {"script", ".ts"},
	"ts":         {"script", ".ts"},
	"jsx":        {"component", ".jsx"},
	"tsx":        {"component", ".tsx"},
	"json":       {"data", ".json"},
	"python":     {"main", ".py"},
	"py":         {"main", ".py"},
	"go":         {"main", ".go"},
	"svg":        {"image", ".svg"},
	"markdown":   {"notes", ".md"},
	"md":         {"notes", ".md"},
}

func synthesizePath(lang string, seen map[string]int, ordinal int) string {
	switch lang {
	case "html", "htm":
		seen["html"]++
		if n := seen["html"]; n > 1 {
			return fmt.Sprintf("page%d.html", n)
		}
		return "index.html"
	}
	name, ok := synthNames[lang]
	if !ok {
		return fmt.Sprintf("file%d.txt", ordinal)
	}
	key := name.base + name.ext
	seen[key]++
	if n := seen[key]; n > 1 {
		return fmt.Sprintf("%s%d%s", name.base, n, name.ext)
	}
	return key
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}
