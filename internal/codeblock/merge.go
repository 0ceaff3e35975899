package codeblock

// MergeCodeBlocks reconciles parsed blocks into the file set. Partial blocks
// replace content the same way complete ones do, so calling it on successive
// stream snapshots converges to the final text. Untouched files keep their
// position; new paths are appended in order of first appearance.
func MergeCodeBlocks(files []GeneratedFile, blocks []ParsedCodeBlock) []GeneratedFile {
	out := make([]GeneratedFile, 0, len(files)+len(blocks))
	index := make(map[string]int, len(files)+len(blocks))
	for _, f := range files {
		if i, ok := index[f.Path]; ok {
			out[i] = f
			continue
		}
		index[f.Path] = len(out)
		out = append(out, f)
	}

	for _, b := range blocks {
		lang := b.Language
		if lang == "" {
			lang = LanguageFromPath(b.Path)
		}
		next := GeneratedFile{Path: b.Path, Content: b.Content, Language: lang}
		if i, ok := index[b.Path]; ok {
			out[i] = next
			continue
		}
		index[b.Path] = len(out)
		out = append(out, next)
	}
	return out
}

// Lookup returns the file stored at path.
func Lookup(files []GeneratedFile, path string) (GeneratedFile, bool) {
	for _, f := range files {
		if f.Path == path {
			return f, true
		}
	}
	return GeneratedFile{}, false
}

// Paths lists file paths in set order.
func Paths(files []GeneratedFile) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}

// Equal reports whether two file sets hold the same paths, order and content.
func Equal(a, b []GeneratedFile) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
