package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ThinkArcHQ/profilebase/internal/auth"
	"github.com/ThinkArcHQ/profilebase/internal/codeblock"
	"github.com/ThinkArcHQ/profilebase/internal/llm"
	"github.com/ThinkArcHQ/profilebase/internal/profiles"
)

// ErrUnknownTool is returned for calls to tools that are not offered.
var ErrUnknownTool = errors.New("unknown tool")

// Options controls which tools a Registry offers.
type Options struct {
	AllowFileWrite bool
	AllowProfiles  bool
	MaxReadBytes   int
}

// Registry exposes the model-callable tools.
type Registry struct {
	Profiles profiles.Store
	opts     Options
}

// NewRegistry builds a registry. Profile tools are offered only when store is
// non-nil and enabled.
func NewRegistry(store profiles.Store, opts Options) *Registry {
	return &Registry{Profiles: store, opts: opts}
}

// Schemas returns descriptors for the enabled tools.
func (r *Registry) Schemas() []Schema {
	var out []Schema
	for _, s := range fileSchemas {
		if !r.opts.AllowFileWrite && (s.Name == "write_file" || s.Name == "edit_file") {
			continue
		}
		out = append(out, s)
	}
	if r.Profiles != nil && r.opts.AllowProfiles {
		out = append(out, profileSchemas...)
	}
	return out
}

// Schema returns schema for a given tool name if present.
func (r *Registry) Schema(name string) (Schema, bool) {
	for _, s := range r.Schemas() {
		if s.Name == name {
			return s, true
		}
	}
	return Schema{}, false
}

// Specs converts the enabled tools in the given groups to model tool specs.
func (r *Registry) Specs(groups ...string) []llm.ToolSpec {
	var out []llm.ToolSpec
	for _, s := range r.Schemas() {
		if !inGroups(s.Group, groups) {
			continue
		}
		out = append(out, llm.ToolSpec{
			Name:        s.Name,
			Description: s.Description,
			Parameters:  s.JSONSchema(),
		})
	}
	return out
}

// ExecuteCall decodes a model tool call and runs it.
func (r *Registry) ExecuteCall(ctx context.Context, ws *Workspace, call llm.ToolCall) (string, error) {
	args := map[string]interface{}{}
	if raw := strings.TrimSpace(string(call.Function.Arguments)); raw != "" && raw != "null" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return "", fmt.Errorf("decode %s arguments: %w", call.Function.Name, err)
		}
	}
	return r.Execute(ctx, ws, call.Function.Name, args)
}

// Execute validates and runs a tool. ws may be nil for profile tools.
func (r *Registry) Execute(ctx context.Context, ws *Workspace, name string, args map[string]interface{}) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := ValidateCall(r, name, args); err != nil {
		return "", err
	}

	str := func(key string) string {
		s, _ := args[key].(string)
		return s
	}

	switch name {
	case "write_file", "edit_file", "read_file", "list_files":
		if ws == nil {
			return "", errors.New("no workspace for file tools")
		}
	}

	switch name {
	case "write_file":
		p, err := ws.Write(str("path"), str("content"))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("wrote %s (%d bytes)", p, len(str("content"))), nil
	case "edit_file":
		res, err := ws.Edit(str("path"), str("search"), str("replace"))
		if err != nil {
			return "", err
		}
		if !res.Success {
			return "", res.Errors[0]
		}
		return fmt.Sprintf("edited %s", str("path")), nil
	case "read_file":
		f, ok := ws.Read(str("path"))
		if !ok {
			return "", fmt.Errorf("file %q does not exist", str("path"))
		}
		content := f.Content
		if limit := r.opts.MaxReadBytes; limit > 0 && len(content) > limit {
			content = content[:limit] + "\n[truncated]"
		}
		return content, nil
	case "list_files":
		return strings.Join(codeblock.Paths(ws.Files()), "\n"), nil
	case "search_profiles":
		found, err := r.Profiles.Search(ctx, profiles.Query{Q: str("query"), Skills: profiles.ParseSkills(str("skills"))})
		if err != nil {
			return "", err
		}
		return encode(found)
	case "get_profile":
		p, err := r.Profiles.Get(ctx, str("id"))
		if err != nil {
			return "", err
		}
		return encode(p)
	case "request_meeting":
		req := profiles.MeetingRequest{
			ProfileID:      str("profile_id"),
			RequestType:    str("request_type"),
			Message:        str("message"),
			RequesterName:  str("requester_name"),
			RequesterEmail: str("requester_email"),
			PreferredTime:  str("preferred_time"),
		}
		if id, ok := auth.FromContext(ctx); ok {
			req.SenderUserID = id.UserID
		}
		created, err := r.Profiles.CreateRequest(ctx, req)
		if err != nil {
			return "", err
		}
		return encode(map[string]string{
			"message":    "Request submitted successfully",
			"request_id": created.ID,
			"status":     created.Status,
		})
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownTool, name)
	}
}

func encode(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	return string(b), nil
}

func inGroups(group string, groups []string) bool {
	if len(groups) == 0 {
		return true
	}
	for _, g := range groups {
		if g == group {
			return true
		}
	}
	return false
}
