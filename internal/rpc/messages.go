package rpc

import (
	"github.com/ThinkArcHQ/profilebase/internal/codeblock"
	"github.com/ThinkArcHQ/profilebase/internal/patch"
)

// Error codes carried by error events.
const (
	CodeTurnInFlight    = "turn_in_flight"
	CodeInvalidArgument = "invalid_argument"
	CodeTimeout         = "timeout"
	CodeCanceled        = "canceled"
	CodeInternal        = "internal"
)

// Message is one conversation entry.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateRequest starts a generate or chat turn. Prompt is shorthand for a
// trailing user message.
type GenerateRequest struct {
	SessionID string                    `json:"session_id,omitempty"`
	Model     string                    `json:"model,omitempty"`
	Prompt    string                    `json:"prompt,omitempty"`
	Messages  []Message                 `json:"messages,omitempty"`
	Files     []codeblock.GeneratedFile `json:"files,omitempty"`
}

// GenerateEvent streams back progress from the daemon.
type GenerateEvent struct {
	Type       string                    `json:"type"` // session|token|tool-call|tool-result|files|patch-error|finish|error
	SessionID  string                    `json:"session_id,omitempty"`
	Step       int                       `json:"step,omitempty"`
	Token      string                    `json:"token,omitempty"`
	Tool       *ToolEvent                `json:"tool,omitempty"`
	Files      []codeblock.GeneratedFile `json:"files,omitempty"`
	PatchError *patch.MatchError         `json:"patch_error,omitempty"`
	Finish     *Finish                   `json:"finish,omitempty"`
	Error      string                    `json:"error,omitempty"`
	Code       string                    `json:"code,omitempty"`
}

// ToolEvent describes a tool invocation or its result.
type ToolEvent struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Args   string `json:"args,omitempty"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Finish summarizes a completed turn.
type Finish struct {
	FinishReason string             `json:"finish_reason"`
	Mode         string             `json:"mode,omitempty"`
	Model        string             `json:"model,omitempty"`
	Explanation  string             `json:"explanation,omitempty"`
	Steps        int                `json:"steps"`
	Applied      int                `json:"applied"`
	Failed       int                `json:"failed"`
	Changes      []patch.FileChange `json:"changes,omitempty"`
	Usage        Usage              `json:"usage"`
}

// Usage captures token accounting for a turn.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// GenerateStreamRequest is the bidirectional stream payload for Connect RPC.
// The first message must carry Generate; later messages may cancel.
type GenerateStreamRequest struct {
	Generate *GenerateRequest `json:"generate,omitempty"`
	Kind     string           `json:"kind,omitempty"` // generate (default) or chat
	Cancel   bool             `json:"cancel,omitempty"`
}
