package tools

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ThinkArcHQ/profilebase/internal/codeblock"
	"github.com/ThinkArcHQ/profilebase/internal/patch"
)

// Workspace is the file set a generation turn works on. File tools change it
// immediately so later reads see the edit, and record the equivalent FILE or
// SEARCH/REPLACE text so the turn can be resolved from text alone.
type Workspace struct {
	mu    sync.Mutex
	files []codeblock.GeneratedFile
	out   strings.Builder
}

// NewWorkspace copies files into a new workspace.
func NewWorkspace(files []codeblock.GeneratedFile) *Workspace {
	return &Workspace{files: append([]codeblock.GeneratedFile(nil), files...)}
}

// Files returns a copy of the current file set.
func (w *Workspace) Files() []codeblock.GeneratedFile {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]codeblock.GeneratedFile(nil), w.files...)
}

// Output returns the text contributed by file tools so far.
func (w *Workspace) Output() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.out.String()
}

// Read returns a file by path.
func (w *Workspace) Read(path string) (codeblock.GeneratedFile, bool) {
	p, ok := codeblock.NormalizePath(path)
	if !ok {
		return codeblock.GeneratedFile{}, false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return codeblock.Lookup(w.files, p)
}

// Write creates or replaces a file and returns its normalized path.
func (w *Workspace) Write(path, content string) (string, error) {
	p, ok := codeblock.NormalizePath(path)
	if !ok {
		return "", fmt.Errorf("invalid path %q", path)
	}
	f := codeblock.GeneratedFile{Path: p, Content: content, Language: codeblock.LanguageFromPath(p)}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.files = codeblock.MergeCodeBlocks(w.files, []codeblock.ParsedCodeBlock{{
		Path:       f.Path,
		Content:    f.Content,
		Language:   f.Language,
		IsComplete: true,
	}})
	w.separate()
	codeblock.RenderFile(&w.out, f)
	return p, nil
}

// Edit applies one search/replace pair to an existing file. The edit is only
// recorded when it applies.
func (w *Workspace) Edit(path, search, replace string) (patch.ApplyResult, error) {
	p, ok := codeblock.NormalizePath(path)
	if !ok {
		return patch.ApplyResult{}, fmt.Errorf("invalid path %q", path)
	}
	block := patch.SearchReplaceBlock{File: p, Search: search, Replace: replace}

	w.mu.Lock()
	defer w.mu.Unlock()
	current, exists := codeblock.Lookup(w.files, p)
	if !exists {
		errs := patch.MissingFile(patch.ParsedEdit{File: p, Blocks: []patch.SearchReplaceBlock{block}})
		return patch.ApplyResult{Content: "", Errors: errs}, nil
	}
	res := patch.ApplySearchReplace(current.Content, []patch.SearchReplaceBlock{block})
	if !res.Success {
		return res, nil
	}
	w.files = codeblock.MergeCodeBlocks(w.files, []codeblock.ParsedCodeBlock{{
		Path:       p,
		Content:    res.Content,
		Language:   current.Language,
		IsComplete: true,
	}})
	w.separate()
	fmt.Fprintf(&w.out, "FILE: %s\n%s\n%s\n%s\n%s\n%s\n", p,
		patch.SearchMarker, search, patch.DividerMarker, replace, patch.ReplaceMarker)
	return res, nil
}

func (w *Workspace) separate() {
	if w.out.Len() > 0 {
		w.out.WriteString("\n")
	}
}
