package codeblock

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Explanation returns the prose portion of a model response: everything except
// file declarations, fenced code and SEARCH/REPLACE sections.
func Explanation(output string) string {
	src := []byte(stripEditSections(output))
	root := goldmark.DefaultParser().Parse(text.NewReader(src))

	var parts []string
	// The walker never returns an error.
	_ = ast.Walk(root, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node.Kind() {
		case ast.KindFencedCodeBlock, ast.KindCodeBlock, ast.KindHTMLBlock:
			return ast.WalkSkipChildren, nil
		case ast.KindParagraph, ast.KindHeading, ast.KindTextBlock:
			if s := blockText(node, src); s != "" {
				if _, isItem := node.Parent().(*ast.ListItem); isItem {
					s = "- " + s
				}
				parts = append(parts, s)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.Join(parts, "\n\n")
}

func blockText(node ast.Node, src []byte) string {
	lines := node.Lines()
	out := make([]string, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		out = append(out, strings.TrimRight(string(seg.Value(src)), "\r\n"))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// stripEditSections drops FILE: lines and marker-delimited patch sections
// before markdown parsing; a bare "=======" would otherwise read as a heading
// underline.
func stripEditSections(output string) string {
	lines := splitLines(output)
	kept := make([]string, 0, len(lines))
	inPatch := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "<<<<<<< SEARCH"):
			inPatch = true
			continue
		case inPatch && strings.HasPrefix(trimmed, ">>>>>>> REPLACE"):
			inPatch = false
			continue
		case inPatch:
			continue
		}
		if _, ok := fileDeclaration(line); ok {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
