// Package mcpserver exposes the profile tools and the code-block utilities
// over the Model Context Protocol.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ThinkArcHQ/profilebase/internal/codeblock"
	"github.com/ThinkArcHQ/profilebase/internal/patch"
	"github.com/ThinkArcHQ/profilebase/internal/tools"
	"github.com/ThinkArcHQ/profilebase/internal/version"
)

const (
	toolParseCodeBlocks    = "parse_code_blocks"
	toolApplySearchReplace = "apply_search_replace"
)

// Server wraps an MCP server bound to a tools registry.
type Server struct {
	mcp      *server.MCPServer
	registry *tools.Registry
	logger   *zap.Logger
}

// New registers every profile tool of reg plus the code utilities.
func New(name string, reg *tools.Registry, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		mcp: server.NewMCPServer(name, version.Version,
			server.WithToolCapabilities(true),
			server.WithRecovery(),
		),
		registry: reg,
		logger:   logger,
	}

	for _, schema := range reg.Schemas() {
		if schema.Group != tools.GroupProfiles {
			continue
		}
		s.mcp.AddTool(toMCPTool(schema), s.profileHandler(schema.Name))
	}

	s.mcp.AddTool(mcp.NewTool(toolParseCodeBlocks,
		mcp.WithDescription("Extract files from a model response written as FILE: declarations followed by fenced code blocks"),
		mcp.WithString("text", mcp.Required(), mcp.Description("Model output to parse")),
	), s.handleParseCodeBlocks)

	s.mcp.AddTool(mcp.NewTool(toolApplySearchReplace,
		mcp.WithDescription("Apply one SEARCH/REPLACE edit to a file's content, falling back to whitespace-insensitive matching"),
		mcp.WithString("path", mcp.Description("File path, used in error reports")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Current file content")),
		mcp.WithString("search", mcp.Required(), mcp.Description("Text to find")),
		mcp.WithString("replace", mcp.Description("Replacement text; empty deletes the match")),
	), s.handleApplySearchReplace)

	return s
}

// MCP returns the underlying server for transports.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// ServeStdio blocks serving the protocol on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func toMCPTool(schema tools.Schema) mcp.Tool {
	js := schema.JSONSchema()
	props, _ := js["properties"].(map[string]interface{})
	required, _ := js["required"].([]string)
	return mcp.Tool{
		Name:        schema.Name,
		Description: schema.Description,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: props,
			Required:   required,
		},
	}
}

func (s *Server) profileHandler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out, err := s.registry.Execute(ctx, nil, name, request.GetArguments())
		if err != nil {
			s.logger.Debug("mcp tool failed", zap.String("tool", name), zap.Error(err))
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(out), nil
	}
}

func (s *Server) handleParseCodeBlocks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	blocks := codeblock.ParseCodeBlocks(text)
	if blocks == nil {
		blocks = []codeblock.ParsedCodeBlock{}
	}
	data, err := json.Marshal(blocks)
	if err != nil {
		return nil, fmt.Errorf("encode blocks: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleApplySearchReplace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	search, err := request.RequireString("search")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	block := patch.SearchReplaceBlock{
		File:    request.GetString("path", ""),
		Search:  search,
		Replace: request.GetString("replace", ""),
	}

	res := patch.ApplySearchReplace(content, []patch.SearchReplaceBlock{block})
	if !res.Success {
		msgs := make([]string, 0, len(res.Errors))
		for _, e := range res.Errors {
			msgs = append(msgs, e.Error())
		}
		return mcp.NewToolResultError(strings.Join(msgs, "\n")), nil
	}
	return mcp.NewToolResultText(res.Content), nil
}
