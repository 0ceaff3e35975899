package codeblock

import (
	"strings"
)

// RenderFiles serializes files in the FILE: + fenced block wire format. The
// fence is widened when the content itself contains backtick runs.
func RenderFiles(files []GeneratedFile) string {
	var b strings.Builder
	for i, f := range files {
		if i > 0 {
			b.WriteString("\n")
		}
		RenderFile(&b, f)
	}
	return b.String()
}

// RenderFile writes a single file block to b.
func RenderFile(b *strings.Builder, f GeneratedFile) {
	fence := strings.Repeat("`", fenceWidth(f.Content))
	lang := f.Language
	if lang == "plaintext" {
		lang = ""
	}
	b.WriteString("FILE: ")
	b.WriteString(f.Path)
	b.WriteString("\n")
	b.WriteString(fence)
	b.WriteString(lang)
	b.WriteString("\n")
	b.WriteString(f.Content)
	if !strings.HasSuffix(f.Content, "\n") {
		b.WriteString("\n")
	}
	b.WriteString(fence)
	b.WriteString("\n")
}

func fenceWidth(content string) int {
	longest, run := 0, 0
	for _, r := range content {
		if r == '`' {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}
	if longest < 3 {
		return 3
	}
	return longest + 1
}
