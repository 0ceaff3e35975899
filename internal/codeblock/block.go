package codeblock

import (
	"path"
	"strings"
)

// GeneratedFile is a path-addressed artifact in a session's file set.
type GeneratedFile struct {
	Path     string `json:"path"`
	Content  string `json:"content"`
	Language string `json:"language,omitempty"`
}

// ParsedCodeBlock is one block extracted from a single parse pass.
type ParsedCodeBlock struct {
	Path       string `json:"path"`
	Content    string `json:"content"`
	Language   string `json:"language,omitempty"`
	IsComplete bool   `json:"is_complete"`
}

var extLanguages = map[string]string{
	".html": "html",
	".htm":  "html",
	".css":  "css",
	".scss": "scss",
	".js":   "javascript",
	".mjs":  "javascript",
	".jsx":  "jsx",
	".ts":   "typescript",
	".tsx":  "tsx",
	".json": "json",
	".md":   "markdown",
	".py":   "python",
	".go":   "go",
	".svg":  "svg",
	".xml":  "xml",
	".yaml": "yaml",
	".yml":  "yaml",
	".sh":   "bash",
	".sql":  "sql",
	".txt":  "plaintext",
}

// LanguageFromPath derives an editor language hint from the file extension.
func LanguageFromPath(p string) string {
	ext := strings.ToLower(path.Ext(p))
	if lang, ok := extLanguages[ext]; ok {
		return lang
	}
	return "plaintext"
}

// NormalizePath cleans a model-supplied path into a relative slash path.
// It returns false for empty, absolute or escaping paths.
func NormalizePath(p string) (string, bool) {
	p = strings.TrimSpace(p)
	p = strings.Trim(p, "`'\"*")
	p = strings.TrimSpace(p)
	if p == "" {
		return "", false
	}
	p = strings.ReplaceAll(p, "\\", "/")
	if strings.HasPrefix(p, "/") || (len(p) > 1 && p[1] == ':') {
		return "", false
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", false
	}
	return clean, true
}
