package agent

import (
	"strings"

	"github.com/ThinkArcHQ/profilebase/internal/codeblock"
	"github.com/ThinkArcHQ/profilebase/internal/patch"
)

// resolution is the file set produced from a turn's output.
type resolution struct {
	files   []codeblock.GeneratedFile
	applied int
	failed  int
	errors  []*patch.MatchError
}

// resolveOutput reconciles a turn's output segments into files. Segments are
// the text of each step and the contribution of each file tool call; they
// resolve in order against the running file set, each parsed on its own.
func resolveOutput(files []codeblock.GeneratedFile, segments ...string) resolution {
	r := &resolver{
		res:     resolution{files: codeblock.MergeCodeBlocks(files, nil)},
		indexes: make(map[string]int),
	}
	for _, seg := range segments {
		r.segment(seg)
	}
	return r.res
}

type resolver struct {
	res resolution
	// indexes counts edit blocks seen per file so error indexes stay
	// turn-wide.
	indexes map[string]int
}

// segment applies one segment. Without SEARCH/REPLACE markers the segment is
// parsed and merged whole. Otherwise its FILE sections apply in source order:
// complete FILE blocks replace files and edit sections patch them.
func (r *resolver) segment(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	if !patch.HasMarkers(text) {
		r.res.files = codeblock.MergeCodeBlocks(r.res.files, codeblock.ParseCodeBlocks(text))
		return
	}
	for _, section := range splitSections(text) {
		if patch.HasMarkers(section) {
			for _, edit := range patch.ParseEdits(section) {
				r.apply(edit)
			}
			continue
		}
		var whole []codeblock.ParsedCodeBlock
		for _, b := range codeblock.ParseDeclaredBlocks(section) {
			if b.IsComplete {
				whole = append(whole, b)
			}
		}
		r.res.files = codeblock.MergeCodeBlocks(r.res.files, whole)
	}
}

func (r *resolver) apply(edit patch.ParsedEdit) {
	base := r.indexes[edit.File]
	r.indexes[edit.File] += len(edit.Blocks)

	current, ok := codeblock.Lookup(r.res.files, edit.File)
	var (
		applied int
		content string
		errs    []*patch.MatchError
	)
	if ok {
		out := patch.ApplySearchReplace(current.Content, edit.Blocks)
		applied, content, errs = out.Applied, out.Content, out.Errors
	} else {
		errs = patch.MissingFile(edit)
	}
	for _, e := range errs {
		e.Index += base
	}
	r.res.applied += applied
	r.res.failed += len(errs)
	r.res.errors = append(r.res.errors, errs...)
	if applied > 0 {
		r.res.files = codeblock.MergeCodeBlocks(r.res.files, []codeblock.ParsedCodeBlock{{
			Path:       edit.File,
			Content:    content,
			Language:   current.Language,
			IsComplete: true,
		}})
	}
}

// splitSections cuts text at FILE declarations outside code fences. Each
// section after the first starts with its declaration.
func splitSections(text string) []string {
	var (
		sections []string
		current  []string
		inFence  bool
	)
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !inFence && len(current) > 0 {
			if _, ok := codeblock.DeclaredPath(line); ok {
				sections = append(sections, strings.Join(current, "\n"))
				current = nil
			}
		}
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		sections = append(sections, strings.Join(current, "\n"))
	}
	return sections
}

// summarizeChanges lists files whose content differs between before and after.
func summarizeChanges(before, after []codeblock.GeneratedFile) []patch.FileChange {
	var out []patch.FileChange
	for _, f := range after {
		prev, existed := codeblock.Lookup(before, f.Path)
		if existed && prev.Content == f.Content {
			continue
		}
		out = append(out, patch.Summarize(f.Path, prev.Content, f.Content, existed))
	}
	return out
}
