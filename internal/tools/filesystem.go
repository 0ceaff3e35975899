package tools

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ThinkArcHQ/profilebase/internal/codeblock"
)

// Filesystem syncs a generated file set with a directory on disk.
type Filesystem struct {
	guard      *PathGuard
	allowWrite bool
}

// NewFilesystem builds a filesystem tool with write permissions controlled by allowWrite.
func NewFilesystem(baseDir string, allowWrite bool) (*Filesystem, error) {
	guard, err := NewPathGuard(baseDir)
	if err != nil {
		return nil, err
	}
	return &Filesystem{guard: guard, allowWrite: allowWrite}, nil
}

// BaseDir returns the absolute root directory.
func (f *Filesystem) BaseDir() string {
	return f.guard.BaseDir
}

// ReadFile returns file contents as string.
func (f *Filesystem) ReadFile(path string) (string, error) {
	resolved, err := f.guard.Resolve(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteFile writes content to a file if allowed.
func (f *Filesystem) WriteFile(path string, content string) error {
	if !f.allowWrite {
		return errors.New("write is disabled by configuration")
	}
	resolved, err := f.guard.Resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return err
	}
	return os.WriteFile(resolved, []byte(content), 0o644)
}

// WalkFiles walks files under root and invokes fn with the slash-separated
// relative path. Tooling directories are skipped.
func (f *Filesystem) WalkFiles(root string, maxFiles int, fn func(rel string, info fs.DirEntry) error) error {
	if fn == nil {
		return fmt.Errorf("fn is required")
	}
	resolved, err := f.guard.Resolve(root)
	if err != nil {
		return err
	}
	count := 0
	err = filepath.WalkDir(resolved, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != resolved && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if maxFiles > 0 && count >= maxFiles {
			return fs.SkipAll
		}
		rel, _ := filepath.Rel(f.guard.BaseDir, path)
		count++
		return fn(filepath.ToSlash(rel), d)
	})
	if errors.Is(err, fs.SkipAll) {
		return nil
	}
	return err
}

// LoadFiles reads every regular file under the base directory into a file
// set, sorted by walk order. Files larger than maxBytes are skipped.
func (f *Filesystem) LoadFiles(maxFiles, maxBytes int) ([]codeblock.GeneratedFile, error) {
	var out []codeblock.GeneratedFile
	err := f.WalkFiles(".", maxFiles, func(rel string, d fs.DirEntry) error {
		if !d.Type().IsRegular() {
			return nil
		}
		if maxBytes > 0 {
			if info, err := d.Info(); err == nil && info.Size() > int64(maxBytes) {
				return nil
			}
		}
		content, err := f.ReadFile(rel)
		if err != nil {
			return fmt.Errorf("load %s: %w", rel, err)
		}
		out = append(out, codeblock.GeneratedFile{
			Path:     rel,
			Content:  content,
			Language: codeblock.LanguageFromPath(rel),
		})
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return out, err
}

// WriteFiles writes each file under the base directory, ensuring a trailing
// newline.
func (f *Filesystem) WriteFiles(files []codeblock.GeneratedFile) error {
	for _, file := range files {
		content := file.Content
		if content != "" && !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		if err := f.WriteFile(file.Path, content); err != nil {
			return fmt.Errorf("write %s: %w", file.Path, err)
		}
	}
	return nil
}

func skipDir(name string) bool {
	switch strings.ToLower(name) {
	case ".git", "node_modules", ".idea", ".vscode", "vendor", ".cache", ".github":
		return true
	default:
		return false
	}
}
