package codeblock

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const twoFiles = "Here is your page.\n\n" +
	"FILE: index.html\n" +
	"```html\n" +
	"<h1>Hello</h1>\n" +
	"```\n\n" +
	"FILE: styles.css\n" +
	"```CSS\n" +
	"h1 { color: red; }\n" +
	"```\n"

func TestParseDeclaredBlocks(t *testing.T) {
	got := ParseCodeBlocks(twoFiles)
	want := []ParsedCodeBlock{
		{Path: "index.html", Content: "<h1>Hello</h1>", Language: "html", IsComplete: true},
		{Path: "styles.css", Content: "h1 { color: red; }", Language: "css", IsComplete: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("blocks mismatch (-want +got):\n%s", diff)
	}
}

func TestParseIsIdempotent(t *testing.T) {
	require.Equal(t, ParseCodeBlocks(twoFiles), ParseCodeBlocks(twoFiles))
}

func TestParsePartialThenComplete(t *testing.T) {
	cut := strings.Index(twoFiles, "h1 { color")
	prefix := twoFiles[:cut+len("h1 { col")]

	partial := ParseCodeBlocks(prefix)
	require.Len(t, partial, 2)
	require.True(t, partial[0].IsComplete)
	require.False(t, partial[1].IsComplete)
	require.Equal(t, "h1 { col", partial[1].Content)

	full := ParseCodeBlocks(twoFiles)
	require.True(t, full[1].IsComplete)
	require.Equal(t, "h1 { color: red; }", full[1].Content)
}

func TestParseOpenFenceWithoutBody(t *testing.T) {
	blocks := ParseCodeBlocks("FILE: app.js\n```js")
	require.Len(t, blocks, 1)
	require.Equal(t, "app.js", blocks[0].Path)
	require.Equal(t, "", blocks[0].Content)
	require.False(t, blocks[0].IsComplete)
}

func TestParseDeclarationWithoutFence(t *testing.T) {
	text := "FILE: orphan.html\nno fence here\n\nFILE: ok.html\n```html\n<p>ok</p>\n```"
	blocks := ParseCodeBlocks(text)
	require.Len(t, blocks, 1)
	require.Equal(t, "ok.html", blocks[0].Path)
}

func TestParseDecoratedDeclaration(t *testing.T) {
	text := "**FILE: `src/app.js`**\n\n```javascript\nconsole.log(1)\n```"
	blocks := ParseCodeBlocks(text)
	require.Len(t, blocks, 1)
	require.Equal(t, "src/app.js", blocks[0].Path)
	require.Equal(t, "javascript", blocks[0].Language)
}

func TestParseRejectsEscapingPath(t *testing.T) {
	text := "FILE: ../secret.txt\n```\nnope\n```\nFILE: ./pages/about.html\n```html\n<p>a</p>\n```"
	blocks := ParseCodeBlocks(text)
	require.Len(t, blocks, 1)
	require.Equal(t, "pages/about.html", blocks[0].Path)
}

func TestParseLanguageFromPathWhenTagMissing(t *testing.T) {
	blocks := ParseCodeBlocks("FILE: main.py\n```\nprint('hi')\n```")
	require.Len(t, blocks, 1)
	require.Equal(t, "python", blocks[0].Language)
}

func TestParseNestedFenceNeedsWiderClose(t *testing.T) {
	text := "FILE: README.md\n````markdown\n# Title\n```sh\nmake\n```\n````"
	blocks := ParseCodeBlocks(text)
	require.Len(t, blocks, 1)
	require.True(t, blocks[0].IsComplete)
	require.Contains(t, blocks[0].Content, "```sh")
}

func TestParseFallbackTaggedPath(t *testing.T) {
	blocks := ParseCodeBlocks("```html:about.html\n<p>about</p>\n```")
	require.Equal(t, []ParsedCodeBlock{
		{Path: "about.html", Content: "<p>about</p>", Language: "html", IsComplete: true},
	}, blocks)
}

func TestParseFallbackSynthesizedNames(t *testing.T) {
	text := "```html\n<p>1</p>\n```\n" +
		"```html\n<p>2</p>\n```\n" +
		"```css\nbody{}\n```\n" +
		"```brainfuck\n+++\n```\n" +
		"```\nplain\n```\n" +
		"```html\n<p>3</p>"

	blocks := ParseCodeBlocks(text)
	require.Len(t, blocks, 6)

	var paths []string
	for _, b := range blocks {
		paths = append(paths, b.Path)
	}
	require.Equal(t, []string{"index.html", "page2.html", "styles.css", "file4.txt", "file5.txt", "page3.html"}, paths)
	require.False(t, blocks[5].IsComplete)
	require.Equal(t, "plaintext", blocks[4].Language)
}

func TestParseEmptyAndProseOnly(t *testing.T) {
	require.Empty(t, ParseCodeBlocks(""))
	require.Empty(t, ParseCodeBlocks("Just an explanation with no code."))
}

func TestParseHandlesCRLF(t *testing.T) {
	blocks := ParseCodeBlocks("FILE: a.txt\r\n```\r\nline\r\n```\r\n")
	require.Len(t, blocks, 1)
	require.Equal(t, "line", blocks[0].Content)
	require.True(t, blocks[0].IsComplete)
}

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"index.html":          "index.html",
		"./a/b.css":           "a/b.css",
		"a\\b.js":             "a/b.js",
		" `styles.css` ":      "styles.css",
		"a/../b.html":         "b.html",
		"components//nav.jsx": "components/nav.jsx",
	}
	for in, want := range cases {
		got, ok := NormalizePath(in)
		require.True(t, ok, in)
		require.Equal(t, want, got, in)
	}
	for _, bad := range []string{"", "/etc/passwd", "../x", "..", "C:/x", "."} {
		_, ok := NormalizePath(bad)
		require.False(t, ok, bad)
	}
}

func TestDeclaredOnlySkipsBareFences(t *testing.T) {
	require.Empty(t, ParseDeclaredBlocks("Example:\n```html\n<p>hi</p>\n```\n"))
	blocks := ParseDeclaredBlocks(twoFiles)
	require.Len(t, blocks, 2)
}

func TestParseDeclarationKeepsSpacesInPath(t *testing.T) {
	blocks := ParseCodeBlocks("FILE: my page.html\n```html\n<p>hi</p>\n```")
	require.Len(t, blocks, 1)
	require.Equal(t, "my page.html", blocks[0].Path)
}
