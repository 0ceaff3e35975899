package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"github.com/ThinkArcHQ/profilebase/internal/codeblock"
	"github.com/ThinkArcHQ/profilebase/internal/profiles"
	"github.com/ThinkArcHQ/profilebase/internal/tools"
)

func newTestServer(t *testing.T) (*Server, *profiles.MemoryStore) {
	t.Helper()
	store := profiles.NewMemoryStore()
	_, err := store.Create(context.Background(), profiles.Profile{ID: "p1", Name: "Ada", Email: "ada@example.com", Skills: []string{"go"}})
	require.NoError(t, err)
	reg := tools.NewRegistry(store, tools.Options{AllowProfiles: true})
	return New("profilebase-test", reg, nil), store
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestProfileToolsBridgeRegistry(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()

	res, err := s.profileHandler("get_profile")(ctx, call(map[string]any{"id": "p1"}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	var p profiles.Profile
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &p))
	require.Equal(t, "Ada", p.Name)

	res, err = s.profileHandler("get_profile")(ctx, call(map[string]any{"id": "missing"}))
	require.NoError(t, err)
	require.True(t, res.IsError)

	res, err = s.profileHandler("request_meeting")(ctx, call(map[string]any{
		"profile_id":      "p1",
		"request_type":    "meeting",
		"message":         "Coffee?",
		"requester_name":  "Eve",
		"requester_email": "eve@example.com",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))
	list, err := store.ListRequests(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestToMCPToolCarriesSchema(t *testing.T) {
	reg := tools.NewRegistry(profiles.NewMemoryStore(), tools.Options{AllowProfiles: true})
	schema, ok := reg.Schema("get_profile")
	require.True(t, ok)

	tool := toMCPTool(schema)
	require.Equal(t, "get_profile", tool.Name)
	require.Equal(t, "object", tool.InputSchema.Type)
	require.Contains(t, tool.InputSchema.Properties, "id")
	require.Equal(t, []string{"id"}, tool.InputSchema.Required)
}

func TestParseCodeBlocksTool(t *testing.T) {
	s, _ := newTestServer(t)
	res, err := s.handleParseCodeBlocks(context.Background(), call(map[string]any{
		"text": "FILE: index.html\n```html\n<h1>Hi</h1>\n```\n",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var blocks []codeblock.ParsedCodeBlock
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &blocks))
	require.Len(t, blocks, 1)
	require.Equal(t, "index.html", blocks[0].Path)
	require.True(t, blocks[0].IsComplete)

	res, err = s.handleParseCodeBlocks(context.Background(), call(map[string]any{}))
	require.NoError(t, err)
	require.True(t, res.IsError)
}

func TestApplySearchReplaceTool(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleApplySearchReplace(ctx, call(map[string]any{
		"path":    "styles.css",
		"content": "h1 {\n  color: blue;\n}\n",
		"search":  "color:   blue;",
		"replace": "color: red;",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Equal(t, "h1 {\ncolor: red;\n}\n", text(t, res))

	res, err = s.handleApplySearchReplace(ctx, call(map[string]any{
		"path":    "styles.css",
		"content": "h1 {}\n",
		"search":  "body {}",
	}))
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Contains(t, text(t, res), "search text not found")
}
