package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ThinkArcHQ/profilebase/internal/codeblock"
	"github.com/ThinkArcHQ/profilebase/internal/patch"
	"github.com/ThinkArcHQ/profilebase/internal/rpc"
)

func fakeDaemon(t *testing.T, events []rpc.GenerateEvent, seen *rpc.GenerateRequest, auth *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		w.Header().Set("Content-Type", "application/x-ndjson")
		enc := json.NewEncoder(w)
		for _, ev := range events {
			require.NoError(t, enc.Encode(ev))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerateWritesFinishedFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>Old</h1>\n"), 0o644))

	files := []codeblock.GeneratedFile{
		{Path: "index.html", Content: "<h1>New</h1>", Language: "html"},
		{Path: "styles.css", Content: "h1 { color: red; }", Language: "css"},
	}
	events := []rpc.GenerateEvent{
		{Type: "session", SessionID: "s1"},
		{Type: "token", Token: "Updated."},
		{Type: "finish", SessionID: "s1", Files: files, Finish: &rpc.Finish{
			FinishReason: "stop",
			Steps:        1,
			Changes: []patch.FileChange{
				{Path: "index.html", Added: 1, Removed: 1},
				{Path: "styles.css", Created: true, Added: 1},
			},
		}},
	}
	var seen rpc.GenerateRequest
	var authHeader string
	srv := fakeDaemon(t, events, &seen, &authHeader)

	cmd := NewRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"generate", "make it red", "--out", dir, "--addr", srv.URL, "--transport", "ndjson", "--token", "tok"})
	require.NoError(t, cmd.Execute())

	require.Equal(t, "make it red", seen.Prompt)
	require.Len(t, seen.Files, 1)
	require.Equal(t, "index.html", seen.Files[0].Path)
	require.Equal(t, "Bearer tok", authHeader)

	got, err := os.ReadFile(filepath.Join(dir, "styles.css"))
	require.NoError(t, err)
	require.Equal(t, "h1 { color: red; }\n", string(got))
	got, err = os.ReadFile(filepath.Join(dir, "index.html"))
	require.NoError(t, err)
	require.Equal(t, "<h1>New</h1>\n", string(got))

	out := buf.String()
	require.Contains(t, out, "Updated.")
	require.Contains(t, out, "created styles.css (+1 -0)")
	require.Contains(t, out, "modified index.html (+1 -1)")
}

func TestChatReportsDaemonError(t *testing.T) {
	var seen rpc.GenerateRequest
	var authHeader string
	srv := fakeDaemon(t, []rpc.GenerateEvent{
		{Type: "session", SessionID: "c1"},
		{Type: "error", Error: "model unavailable"},
	}, &seen, &authHeader)

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"chat", "find a designer", "--addr", srv.URL, "--transport", "ndjson", "--token", ""})
	err := cmd.Execute()
	require.ErrorContains(t, err, "model unavailable")
	require.Empty(t, seen.Files)
	require.Empty(t, authHeader)
}

func TestDaemonURL(t *testing.T) {
	require.Equal(t, "http://localhost:8080", daemonURL(":8080"))
	require.Equal(t, "http://host:1", daemonURL("host:1"))
	require.Equal(t, "https://x.dev", daemonURL("https://x.dev/"))
}
