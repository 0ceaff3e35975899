package agent

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/ThinkArcHQ/profilebase/internal/agent"
	"github.com/ThinkArcHQ/profilebase/internal/llm"
	"github.com/ThinkArcHQ/profilebase/internal/rpc"
)

// Runner executes a turn and yields wire events. The channel closes when the
// turn ends. A turn rejected before it starts yields a single error event.
type Runner interface {
	Run(ctx context.Context, kind agent.TurnKind, req rpc.GenerateRequest) <-chan rpc.GenerateEvent
}

// AgentRunner bridges the agent core to RPC events.
type AgentRunner struct {
	Agent  *agent.Agent
	Logger *zap.Logger
}

// Run starts the turn in a goroutine. Sends give up once ctx is done.
func (r *AgentRunner) Run(ctx context.Context, kind agent.TurnKind, req rpc.GenerateRequest) <-chan rpc.GenerateEvent {
	out := make(chan rpc.GenerateEvent, 64)
	go func() {
		defer close(out)
		send := func(ev rpc.GenerateEvent) {
			select {
			case out <- ev:
			case <-ctx.Done():
			}
		}

		turn := agent.Turn{
			SessionID: req.SessionID,
			Kind:      kind,
			Model:     req.Model,
			Messages:  toMessages(req),
			Files:     req.Files,
		}
		errorSent := false
		_, err := r.Agent.Generate(ctx, turn, func(ev agent.Event) {
			if ev.Type == agent.EventError {
				errorSent = true
			}
			send(toWire(ev))
		})
		if err != nil && !errorSent {
			if r.Logger != nil {
				r.Logger.Info("turn rejected", zap.String("session", req.SessionID), zap.Error(err))
			}
			send(rpc.GenerateEvent{Type: string(agent.EventError), SessionID: req.SessionID, Error: err.Error(), Code: errorCode(err)})
		}
	}()
	return out
}

func toMessages(req rpc.GenerateRequest) []llm.ChatMessage {
	msgs := make([]llm.ChatMessage, 0, len(req.Messages)+1)
	for _, m := range req.Messages {
		msgs = append(msgs, llm.ChatMessage{Role: llm.Role(m.Role), Content: m.Content})
	}
	if req.Prompt != "" {
		msgs = append(msgs, llm.ChatMessage{Role: llm.RoleUser, Content: req.Prompt})
	}
	return msgs
}

func toWire(ev agent.Event) rpc.GenerateEvent {
	out := rpc.GenerateEvent{
		Type:       string(ev.Type),
		SessionID:  ev.SessionID,
		Step:       ev.Step,
		Token:      ev.Text,
		Files:      ev.Files,
		PatchError: ev.PatchError,
	}
	if ev.Tool != nil {
		out.Tool = &rpc.ToolEvent{
			ID:     ev.Tool.ID,
			Name:   ev.Tool.Name,
			Args:   ev.Tool.Args,
			Output: ev.Tool.Output,
			Error:  ev.Tool.Error,
		}
	}
	if ev.Err != nil {
		out.Error = ev.Err.Error()
		out.Code = errorCode(ev.Err)
	}
	if res := ev.Result; res != nil {
		out.Files = res.Files
		out.Finish = &rpc.Finish{
			FinishReason: res.FinishReason,
			Mode:         res.Mode,
			Model:        res.Model,
			Explanation:  res.Explanation,
			Steps:        res.Steps,
			Applied:      res.Applied,
			Failed:       res.Failed,
			Changes:      res.Changes,
			Usage: rpc.Usage{
				PromptTokens:     res.Usage.PromptTokens,
				CompletionTokens: res.Usage.CompletionTokens,
				TotalTokens:      res.Usage.TotalTokens,
			},
		}
	}
	return out
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, agent.ErrTurnInFlight):
		return rpc.CodeTurnInFlight
	case errors.Is(err, agent.ErrNoMessages):
		return rpc.CodeInvalidArgument
	case errors.Is(err, context.DeadlineExceeded):
		return rpc.CodeTimeout
	case errors.Is(err, context.Canceled):
		return rpc.CodeCanceled
	default:
		return rpc.CodeInternal
	}
}

// rejected reports whether ev is an error emitted before the turn started.
func rejected(ev rpc.GenerateEvent) bool {
	return ev.Type == string(agent.EventError) &&
		(ev.Code == rpc.CodeTurnInFlight || ev.Code == rpc.CodeInvalidArgument)
}
