package agent

import (
	"errors"

	"github.com/ThinkArcHQ/profilebase/internal/codeblock"
	"github.com/ThinkArcHQ/profilebase/internal/llm"
	"github.com/ThinkArcHQ/profilebase/internal/patch"
)

var (
	// ErrTurnInFlight rejects a turn for a session that is already generating.
	ErrTurnInFlight = errors.New("a turn is already in flight for this session")
	// ErrNoMessages rejects a turn without a user message.
	ErrNoMessages = errors.New("at least one user message is required")
)

// TurnKind selects the prompt family and whether output is resolved into files.
type TurnKind string

const (
	KindGenerate TurnKind = "generate"
	KindChat     TurnKind = "chat"
)

// Turn is one user request against a session.
type Turn struct {
	SessionID string
	Kind      TurnKind
	Model     string
	// Messages is the conversation as the caller sees it. When it holds more
	// than one message it replaces the session history for this turn.
	Messages []llm.ChatMessage
	// Files replaces the session file set when non-empty.
	Files []codeblock.GeneratedFile
}

// EventType names a streamed turn event.
type EventType string

const (
	EventSession    EventType = "session"
	EventToken      EventType = "token"
	EventToolCall   EventType = "tool-call"
	EventToolResult EventType = "tool-result"
	EventFiles      EventType = "files"
	EventPatchError EventType = "patch-error"
	EventFinish     EventType = "finish"
	EventError      EventType = "error"
)

// ToolEvent describes a tool invocation or its outcome.
type ToolEvent struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Args   string `json:"args,omitempty"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Event is emitted while a turn runs.
type Event struct {
	Type       EventType
	SessionID  string
	Step       int
	Text       string
	Tool       *ToolEvent
	Files      []codeblock.GeneratedFile
	PatchError *patch.MatchError
	Result     *TurnResult
	Err        error
}

// EventFunc receives turn events in order. It must not block for long.
type EventFunc func(Event)

// TurnResult is the outcome of a finished turn.
type TurnResult struct {
	SessionID    string
	Kind         TurnKind
	Mode         string
	Model        string
	Files        []codeblock.GeneratedFile
	Changes      []patch.FileChange
	Explanation  string
	Output       string
	FinishReason string
	Steps        int
	Applied      int
	Failed       int
	PatchErrors  []*patch.MatchError
	Usage        llm.Usage
}
