package patch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyExactMatch(t *testing.T) {
	content := "<h1>Old Title</h1>\n<p>Some text</p>"
	res := ApplySearchReplace(content, []SearchReplaceBlock{
		{File: "index.html", Search: "<h1>Old Title</h1>", Replace: "<h1>New Title</h1>"},
	})
	require.True(t, res.Success)
	require.Equal(t, "<h1>New Title</h1>\n<p>Some text</p>", res.Content)
	require.Equal(t, 1, res.Applied)
	require.Empty(t, res.Errors)
}

func TestApplyFailureIsIsolated(t *testing.T) {
	content := "<h1>Title</h1>\n<p>Body</p>"
	res := ApplySearchReplace(content, []SearchReplaceBlock{
		{File: "index.html", Search: "<h2>Missing</h2>", Replace: "<h2>x</h2>"},
		{File: "index.html", Search: "<p>Body</p>", Replace: "<p>Changed</p>"},
	})
	require.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	require.Equal(t, "index.html", res.Errors[0].File)
	require.Equal(t, ReasonNotFound, res.Errors[0].Reason)
	require.Contains(t, res.Errors[0].Error(), "index.html")
	require.Contains(t, res.Errors[0].Error(), "<h2>Missing</h2>")
	require.Equal(t, "<h1>Title</h1>\n<p>Changed</p>", res.Content)
	require.Equal(t, 1, res.Applied)
}

func TestApplyUnchangedWhenNothingMatches(t *testing.T) {
	content := "<p>keep</p>"
	res := ApplySearchReplace(content, []SearchReplaceBlock{
		{File: "a.html", Search: "<p>gone</p>", Replace: ""},
	})
	require.False(t, res.Success)
	require.Equal(t, content, res.Content)
}

func TestApplyFuzzyWhitespace(t *testing.T) {
	content := "<div>\n<h1>  Title  </h1>\n</div>"
	res := ApplySearchReplace(content, []SearchReplaceBlock{
		{File: "index.html", Search: "<h1>Title</h1>", Replace: "<h1>Renamed</h1>"},
	})
	require.True(t, res.Success)
	require.Equal(t, "<div>\n<h1>Renamed</h1>\n</div>", res.Content)
}

func TestApplyFuzzyAcrossIndentedLines(t *testing.T) {
	content := "<ul>\n    <li>one</li>\n    <li>two</li>\n</ul>\n"
	res := ApplySearchReplace(content, []SearchReplaceBlock{
		{File: "list.html", Search: "<li>one</li>\n<li>two</li>", Replace: "  <li>uno</li>\n  <li>dos</li>"},
	})
	require.True(t, res.Success)
	require.Equal(t, "<ul>\n  <li>uno</li>\n  <li>dos</li>\n</ul>\n", res.Content)
}

func TestApplyFuzzyPrefersEarliestThenShortest(t *testing.T) {
	content := "a\n\n  <b>x</b>\n<b> x </b>\n"
	res := ApplySearchReplace(content, []SearchReplaceBlock{
		{File: "f.html", Search: "<b>x</b>   ", Replace: "<b>y</b>"},
	})
	require.True(t, res.Success)
	require.Equal(t, "a\n\n<b>y</b>\n<b> x </b>\n", res.Content)
}

func TestApplyFuzzyWithinLine(t *testing.T) {
	content := "<div><h1>  Title  </h1></div>"
	res := ApplySearchReplace(content, []SearchReplaceBlock{
		{File: "index.html", Search: "<h1>Title</h1>", Replace: "<h1>T</h1>"},
	})
	require.True(t, res.Success)
	require.Equal(t, "<div><h1>T</h1></div>", res.Content)
}

func TestApplySequentialAgainstUpdatedContent(t *testing.T) {
	res := ApplySearchReplace("color: red;", []SearchReplaceBlock{
		{File: "s.css", Search: "red", Replace: "blue"},
		{File: "s.css", Search: "blue", Replace: "green"},
	})
	require.True(t, res.Success)
	require.Equal(t, "color: green;", res.Content)
}

func TestApplyRejectsEmptySearch(t *testing.T) {
	res := ApplySearchReplace("body", []SearchReplaceBlock{
		{File: "a.txt", Search: "  \n ", Replace: "prefix"},
	})
	require.False(t, res.Success)
	require.Equal(t, ReasonEmptySearch, res.Errors[0].Reason)
	require.Equal(t, "body", res.Content)
}

func TestPreviewIsTruncated(t *testing.T) {
	long := strings.Repeat("x", 500)
	res := ApplySearchReplace("", []SearchReplaceBlock{{File: "a", Search: long}})
	require.Len(t, res.Errors, 1)
	require.LessOrEqual(t, len([]rune(res.Errors[0].Preview)), 100)
	require.True(t, strings.HasSuffix(res.Errors[0].Preview, "..."))
}

func TestMissingFileReportsEveryBlock(t *testing.T) {
	errs := MissingFile(ParsedEdit{File: "nope.html", Blocks: []SearchReplaceBlock{
		{File: "nope.html", Search: "a"},
		{File: "nope.html", Search: "b"},
	}})
	require.Len(t, errs, 2)
	require.Equal(t, 1, errs[1].Index)
	require.Equal(t, ReasonMissingFile, errs[0].Reason)
}

func TestNormalize(t *testing.T) {
	require.Equal(t, "<h1>Title</h1>", normalize("  <h1>  Title  </h1>\n"))
	require.Equal(t, "a b c", normalize("a\t\tb\n  c"))
	require.Equal(t, "", normalize(" \n\t "))
}

func TestSummarize(t *testing.T) {
	change := Summarize("index.html", "a\nb\nc\n", "a\nB\nc\nd\n", true)
	require.Equal(t, 2, change.Added)
	require.Equal(t, 1, change.Removed)
	require.False(t, change.Created)
	require.Contains(t, change.Diff, "+ B")
	require.Contains(t, change.Diff, "- b")

	created := Summarize("new.css", "", "x\n", false)
	require.True(t, created.Created)
	require.Equal(t, 1, created.Added)

	same := Summarize("same.txt", "x", "x", true)
	require.Zero(t, same.Added)
	require.Empty(t, same.Diff)
}
