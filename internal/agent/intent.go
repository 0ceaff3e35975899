package agent

import (
	"strings"

	"github.com/ThinkArcHQ/profilebase/internal/codeblock"
)

var modificationTerms = []string{
	"change", "update", "modify", "edit", "fix", "adjust", "improve",
	"refactor", "add", "remove", "delete", "replace", "switch", "convert",
	"make it", "instead", "different", "better", "more", "less", "can you",
}

// IsModificationRequest reports whether message asks to change existing
// files. Terms match as substrings, so "address" counts as "add".
func IsModificationRequest(message string, hasExistingFiles bool) bool {
	if !hasExistingFiles {
		return false
	}
	lower := strings.ToLower(message)
	for _, term := range modificationTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// Mode is how a generate turn treats the session's files.
type Mode interface {
	mode() string
}

// CreateMode asks the model for complete files.
type CreateMode struct{}

// RefineMode asks the model for SEARCH/REPLACE edits against Files.
type RefineMode struct {
	Files []codeblock.GeneratedFile
}

func (CreateMode) mode() string { return "create" }
func (RefineMode) mode() string { return "refine" }

// ModeName returns "create" or "refine".
func ModeName(m Mode) string {
	if m == nil {
		return CreateMode{}.mode()
	}
	return m.mode()
}

// ClassifyTurn picks the mode for the latest user message.
func ClassifyTurn(message string, files []codeblock.GeneratedFile) Mode {
	if strings.TrimSpace(message) == "" {
		return CreateMode{}
	}
	if IsModificationRequest(message, len(files) > 0) {
		return RefineMode{Files: files}
	}
	return CreateMode{}
}
