package codeblock

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestMergeReplacesOnlyTouchedPath(t *testing.T) {
	existing := []GeneratedFile{
		{Path: "index.html", Content: "<p>old</p>", Language: "html"},
		{Path: "styles.css", Content: "p{}", Language: "css"},
	}
	merged := MergeCodeBlocks(existing, []ParsedCodeBlock{
		{Path: "index.html", Content: "<p>new</p>", Language: "html", IsComplete: true},
	})

	want := []GeneratedFile{
		{Path: "index.html", Content: "<p>new</p>", Language: "html"},
		{Path: "styles.css", Content: "p{}", Language: "css"},
	}
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Fatalf("merge mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, "<p>old</p>", existing[0].Content, "input must not be mutated")
}

func TestMergeAppendsNewPathsInOrder(t *testing.T) {
	merged := MergeCodeBlocks(nil, []ParsedCodeBlock{
		{Path: "b.js", Content: "b"},
		{Path: "a.js", Content: "a"},
		{Path: "b.js", Content: "b2"},
	})
	require.Equal(t, []string{"b.js", "a.js"}, Paths(merged))
	require.Equal(t, "b2", merged[0].Content)
	require.Equal(t, "javascript", merged[0].Language)
}

func TestMergeConvergesAcrossSnapshots(t *testing.T) {
	full := "FILE: index.html\n```html\n<main>\n  <h1>Hi</h1>\n</main>\n```\nFILE: app.js\n```js\nrun()\n```"

	var files []GeneratedFile
	for i := 1; i <= len(full); i += 7 {
		files = MergeCodeBlocks(files, ParseCodeBlocks(full[:i]))
	}
	files = MergeCodeBlocks(files, ParseCodeBlocks(full))

	oneShot := MergeCodeBlocks(nil, ParseCodeBlocks(full))
	require.Equal(t, oneShot, files)
	require.Equal(t, []string{"index.html", "app.js"}, Paths(files))
}

func TestMergeDeduplicatesExistingSet(t *testing.T) {
	merged := MergeCodeBlocks([]GeneratedFile{
		{Path: "a.txt", Content: "1"},
		{Path: "a.txt", Content: "2"},
	}, nil)
	require.Len(t, merged, 1)
	require.Equal(t, "2", merged[0].Content)
}

func TestLookupAndEqual(t *testing.T) {
	files := []GeneratedFile{{Path: "a", Content: "x"}}
	f, ok := Lookup(files, "a")
	require.True(t, ok)
	require.Equal(t, "x", f.Content)
	_, ok = Lookup(files, "b")
	require.False(t, ok)

	require.True(t, Equal(files, []GeneratedFile{{Path: "a", Content: "x"}}))
	require.False(t, Equal(files, []GeneratedFile{{Path: "a", Content: "y"}}))
}
