package codeblock

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderRoundTrips(t *testing.T) {
	files := []GeneratedFile{
		{Path: "index.html", Content: "<h1>Hi</h1>", Language: "html"},
		{Path: "README.md", Content: "Run:\n```sh\nmake\n```", Language: "markdown"},
		{Path: "notes.txt", Content: "plain", Language: "plaintext"},
	}

	rendered := RenderFiles(files)
	require.Contains(t, rendered, "FILE: index.html\n```html\n<h1>Hi</h1>\n```\n")
	require.Contains(t, rendered, "````markdown")

	back := MergeCodeBlocks(nil, ParseCodeBlocks(rendered))
	require.Equal(t, files, back)
}

func TestExplanationDropsCodeAndPatches(t *testing.T) {
	out := "I updated the header.\n\n" +
		"FILE: index.html\n" +
		"<<<<<<< SEARCH\n<h1>Old</h1>\n=======\n<h1>New</h1>\n>>>>>>> REPLACE\n\n" +
		"FILE: app.js\n```js\nrun()\n```\n\n" +
		"- bigger font\n- green button\n"

	got := Explanation(out)
	require.Contains(t, got, "I updated the header.")
	require.Contains(t, got, "- bigger font")
	require.Contains(t, got, "- green button")
	require.NotContains(t, got, "run()")
	require.NotContains(t, got, "FILE:")
	require.NotContains(t, got, "New")
}

func TestExplanationEmptyForCodeOnly(t *testing.T) {
	require.Equal(t, "", Explanation("FILE: a.js\n```js\nx\n```"))
}
