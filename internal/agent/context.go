package agent

import (
	"sort"

	"github.com/ThinkArcHQ/profilebase/internal/codeblock"
	"github.com/ThinkArcHQ/profilebase/internal/llm"
	"github.com/ThinkArcHQ/profilebase/internal/semantic"
)

// admitFiles selects the files rendered into a refine prompt. With no budget,
// or when everything fits, all files are admitted. Otherwise files are taken
// in relevance order while they fit, and the most relevant file is always
// admitted. The result keeps the input order.
func admitFiles(engine *semantic.Engine, message string, files []codeblock.GeneratedFile, budget int) []codeblock.GeneratedFile {
	if budget <= 0 || len(files) == 0 {
		return files
	}
	costs := make([]int, len(files))
	total := 0
	for i, f := range files {
		costs[i] = llm.CountTokens(codeblock.RenderFiles([]codeblock.GeneratedFile{f}))
		total += costs[i]
	}
	if total <= budget {
		return files
	}

	docs := make([]semantic.Document, len(files))
	for i, f := range files {
		docs[i] = semantic.Document{Path: f.Path, Content: f.Content}
	}
	var picked []int
	used := 0
	for _, r := range engine.Rank(message, docs) {
		if len(picked) > 0 && used+costs[r.Index] > budget {
			continue
		}
		picked = append(picked, r.Index)
		used += costs[r.Index]
	}
	sort.Ints(picked)

	out := make([]codeblock.GeneratedFile, 0, len(picked))
	for _, i := range picked {
		out = append(out, files[i])
	}
	return out
}

// trimHistory drops the oldest messages until the history fits budget tokens.
func trimHistory(history []llm.ChatMessage, budget int) []llm.ChatMessage {
	if budget <= 0 {
		return history
	}
	for len(history) > 0 && llm.CountMessageTokens(history) > budget {
		history = history[1:]
	}
	return history
}
