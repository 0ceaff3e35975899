package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ThinkArcHQ/profilebase/internal/codeblock"
	"github.com/ThinkArcHQ/profilebase/internal/config"
	"github.com/ThinkArcHQ/profilebase/internal/llm"
	"github.com/ThinkArcHQ/profilebase/internal/semantic"
	"github.com/ThinkArcHQ/profilebase/internal/tools"
)

// Metrics receives turn telemetry. *observability.Metrics satisfies it.
type Metrics interface {
	RecordTurn(kind, finishReason string, duration time.Duration, promptTokens, completionTokens int)
	RecordPatchBlocks(applied, failed int)
	RecordToolCall(tool string, ok bool)
	RecordModelUsage(role, model string)
	RecordModelFailure(role, model string)
}

// Options configures an Agent.
type Options struct {
	Registry *llm.Registry
	Strategy config.StrategyConfig
	Config   config.AgentConfig
	Tools    *tools.Registry
	Ranker   *semantic.Engine
	Logger   *zap.Logger
	Metrics  Metrics
}

// Agent runs generation and chat turns against per-session state.
type Agent struct {
	strategy *StrategyEngine
	cfg      config.AgentConfig
	tools    *tools.Registry
	ranker   *semantic.Engine
	logger   *zap.Logger
	metrics  Metrics
	sessions *sessionStore
}

// New creates a new Agent.
func New(opts Options) *Agent {
	a := &Agent{
		strategy: NewStrategyEngine(opts.Registry, opts.Strategy),
		cfg:      opts.Config,
		tools:    opts.Tools,
		ranker:   opts.Ranker,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		sessions: newSessionStore(),
	}
	if a.ranker == nil {
		a.ranker = semantic.NewEngine(0)
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	if a.metrics == nil {
		a.metrics = nopMetrics{}
	}
	return a
}

// Session returns a copy of the session state.
func (a *Agent) Session(id string) (Session, bool) {
	return a.sessions.get(id)
}

// ActiveTurns counts sessions with a turn in flight.
func (a *Agent) ActiveTurns() int {
	return a.sessions.active()
}

// MaxSteps returns configured maximum steps (>0).
func (a *Agent) MaxSteps() int {
	if a.cfg.MaxSteps > 0 {
		return a.cfg.MaxSteps
	}
	return 1
}

// Generate runs one turn. Events are delivered to emit in order; the returned
// result equals the one carried by the finish event.
func (a *Agent) Generate(ctx context.Context, turn Turn, emit EventFunc) (TurnResult, error) {
	if emit == nil {
		emit = func(Event) {}
	}
	idx := lastUserIndex(turn.Messages)
	if idx < 0 || strings.TrimSpace(turn.Messages[idx].Content) == "" {
		return TurnResult{}, ErrNoMessages
	}
	message := turn.Messages[idx].Content
	kind := turn.Kind
	if kind == "" {
		kind = KindGenerate
	}

	sess, err := a.sessions.acquire(turn.SessionID)
	if err != nil {
		return TurnResult{}, err
	}
	defer a.sessions.release(sess)
	started := time.Now()
	emit(Event{Type: EventSession, SessionID: sess.ID})

	history, files := a.sessions.snapshot(sess)
	if len(turn.Files) > 0 {
		files = codeblock.MergeCodeBlocks(turn.Files, nil)
	}
	if len(turn.Messages) > 1 {
		history = priorMessages(turn.Messages[:idx])
	}

	var mode Mode = CreateMode{}
	if kind == KindGenerate {
		mode = ClassifyTurn(message, files)
	}
	userContent := message
	if rm, ok := mode.(RefineMode); ok {
		admitted := admitFiles(a.ranker, message, rm.Files, a.cfg.MaxContextTokens)
		userContent = withCurrentCode(message, admitted)
		if len(admitted) < len(rm.Files) {
			a.logger.Debug("context budget trimmed files",
				zap.String("session", sess.ID),
				zap.Int("admitted", len(admitted)),
				zap.Int("total", len(rm.Files)))
		}
	}
	msgs := []llm.ChatMessage{{Role: llm.RoleSystem, Content: systemPrompt(kind, mode)}}
	msgs = append(msgs, trimHistory(history, a.cfg.MaxHistoryTokens)...)
	msgs = append(msgs, llm.ChatMessage{Role: llm.RoleUser, Content: userContent})

	role := roleFor(kind, mode)
	fail := func(err error, route llm.ModelRoute) (TurnResult, error) {
		a.metrics.RecordModelFailure(role, route.Name)
		a.metrics.RecordTurn(string(kind), "error", time.Since(started), 0, 0)
		a.logger.Warn("turn failed",
			zap.String("session", sess.ID),
			zap.String("model", route.Name),
			zap.Error(err))
		emit(Event{Type: EventError, SessionID: sess.ID, Err: err})
		return TurnResult{}, err
	}

	provider, route, err := a.strategy.ResolveModel(role, turn.Model)
	if err != nil {
		return fail(fmt.Errorf("resolve model: %w", err), route)
	}
	a.metrics.RecordModelUsage(role, route.Name)
	a.logger.Info("turn started",
		zap.String("session", sess.ID),
		zap.String("kind", string(kind)),
		zap.String("mode", ModeName(mode)),
		zap.String("model", route.Name),
		zap.Int("files", len(files)))

	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if a.cfg.TurnTimeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, a.cfg.TurnTimeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	var specs []llm.ToolSpec
	if a.tools != nil {
		if kind == KindChat {
			specs = a.tools.Specs(tools.GroupProfiles)
		} else {
			specs = a.tools.Specs()
		}
	}
	offered := make(map[string]bool, len(specs))
	for _, s := range specs {
		offered[s.Name] = true
	}

	var (
		ws          = tools.NewWorkspace(files)
		output      strings.Builder
		segments    []string
		assistant   strings.Builder
		usage       llm.Usage
		finish      string
		steps       int
		live        = files
		progressive = kind == KindGenerate && a.cfg.ProgressiveFiles && ModeName(mode) == "create"
	)

	for steps < a.MaxSteps() {
		steps++
		req := llm.ChatRequest{
			Model:       route.Model,
			Messages:    msgs,
			Tools:       specs,
			MaxTokens:   pickMaxTokens(a.cfg.MaxTokens, route.MaxTokens),
			Temperature: pickTemperature(a.cfg.Temperature, route.Temperature),
			Stream:      true,
		}

		var pending strings.Builder
		step, err := streamStep(runCtx, provider, req, func(delta string) {
			emit(Event{Type: EventToken, SessionID: sess.ID, Step: steps, Text: delta})
			if !progressive {
				return
			}
			pending.WriteString(delta)
			if !strings.Contains(delta, "\n") {
				return
			}
			snap := resolveOutput(files, append(segments[:len(segments):len(segments)], pending.String())...).files
			if !codeblock.Equal(snap, live) {
				live = snap
				emit(Event{Type: EventFiles, SessionID: sess.ID, Step: steps, Files: snap})
			}
		})
		if err != nil {
			if ctx.Err() != nil {
				return a.cancelled(ctx, sess, files, live, emit)
			}
			if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
				err = fmt.Errorf("turn timed out after %s: %w", a.cfg.TurnTimeout, context.DeadlineExceeded)
			}
			return fail(fmt.Errorf("%s: %w", provider.Name(), err), route)
		}

		if step.usage != nil {
			usage = addUsage(usage, *step.usage)
		} else {
			usage = addUsage(usage, llm.EstimateUsage(msgs, step.text))
		}
		writeOutput(&output, step.text)
		writeOutput(&assistant, step.text)
		segments = append(segments, step.text)
		msgs = append(msgs, llm.ChatMessage{Role: llm.RoleAssistant, Content: step.text, ToolCalls: step.calls})

		if len(step.calls) == 0 {
			finish = step.finish
			if finish == "" || finish == "tool_calls" {
				finish = "stop"
			}
			break
		}
		for _, call := range step.calls {
			before := len(ws.Output())
			msgs = append(msgs, a.runTool(runCtx, ws, offered, sess.ID, steps, call, emit))
			if delta := ws.Output()[before:]; delta != "" {
				writeOutput(&output, delta)
				segments = append(segments, delta)
			}
		}
		if steps == a.MaxSteps() {
			finish = "max_steps"
		}
	}

	result := TurnResult{
		SessionID:    sess.ID,
		Kind:         kind,
		Model:        route.Name,
		Files:        files,
		Output:       output.String(),
		Explanation:  codeblock.Explanation(assistant.String()),
		FinishReason: finish,
		Steps:        steps,
		Usage:        usage,
	}
	if kind == KindGenerate {
		res := resolveOutput(files, segments...)
		for _, pe := range res.errors {
			a.logger.Warn("patch block failed",
				zap.String("session", sess.ID),
				zap.String("file", pe.File),
				zap.Int("index", pe.Index),
				zap.String("reason", pe.Reason))
			emit(Event{Type: EventPatchError, SessionID: sess.ID, PatchError: pe})
		}
		result.Mode = ModeName(mode)
		result.Files = res.files
		result.Changes = summarizeChanges(files, res.files)
		result.Applied = res.applied
		result.Failed = res.failed
		result.PatchErrors = res.errors
		emit(Event{Type: EventFiles, SessionID: sess.ID, Files: res.files})
		a.metrics.RecordPatchBlocks(res.applied, res.failed)
	}

	a.sessions.commit(sess, result.Files,
		llm.ChatMessage{Role: llm.RoleUser, Content: message},
		llm.ChatMessage{Role: llm.RoleAssistant, Content: assistant.String()})

	a.metrics.RecordTurn(string(kind), finish, time.Since(started), usage.PromptTokens, usage.CompletionTokens)
	a.logger.Info("turn finished",
		zap.String("session", sess.ID),
		zap.String("finish_reason", finish),
		zap.Int("steps", steps),
		zap.Int("files", len(result.Files)),
		zap.Int("applied", result.Applied),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", time.Since(started)))
	emit(Event{Type: EventFinish, SessionID: sess.ID, Result: &result})
	return result, nil
}

// cancelled keeps whatever progressive reconciliation produced before the
// caller went away. History is not extended.
func (a *Agent) cancelled(ctx context.Context, sess *Session, files, live []codeblock.GeneratedFile, emit EventFunc) (TurnResult, error) {
	if !codeblock.Equal(files, live) {
		a.sessions.commit(sess, live)
	}
	a.logger.Info("turn cancelled", zap.String("session", sess.ID), zap.Int("files", len(live)))
	emit(Event{Type: EventError, SessionID: sess.ID, Err: ctx.Err()})
	return TurnResult{}, ctx.Err()
}

// runTool executes one call and returns the tool message for the next step.
func (a *Agent) runTool(ctx context.Context, ws *tools.Workspace, offered map[string]bool, sessionID string, step int, call llm.ToolCall, emit EventFunc) llm.ChatMessage {
	name := call.Function.Name
	emit(Event{Type: EventToolCall, SessionID: sessionID, Step: step, Tool: &ToolEvent{
		ID:   call.ID,
		Name: name,
		Args: string(call.Function.Arguments),
	}})

	var (
		out string
		err error
	)
	if !offered[name] {
		err = fmt.Errorf("%w %q", tools.ErrUnknownTool, name)
	} else {
		out, err = a.tools.ExecuteCall(ctx, ws, call)
	}
	ev := &ToolEvent{ID: call.ID, Name: name, Output: out}
	content := out
	if err != nil {
		ev.Error = err.Error()
		content = "error: " + err.Error()
		a.logger.Warn("tool call failed", zap.String("session", sessionID), zap.String("tool", name), zap.Error(err))
	} else {
		a.logger.Debug("tool call", zap.String("session", sessionID), zap.String("tool", name))
	}
	a.metrics.RecordToolCall(name, err == nil)
	emit(Event{Type: EventToolResult, SessionID: sessionID, Step: step, Tool: ev})

	return llm.ChatMessage{Role: llm.RoleTool, Name: name, ToolCallID: call.ID, Content: content}
}

type stepResult struct {
	text   string
	calls  []llm.ToolCall
	finish string
	usage  *llm.Usage
}

// streamStep drains one provider stream. On error the text received so far is
// still returned.
func streamStep(ctx context.Context, p llm.Provider, req llm.ChatRequest, onText func(string)) (stepResult, error) {
	var (
		res  stepResult
		text strings.Builder
	)
	done := func(err error) (stepResult, error) {
		res.text = text.String()
		return res, err
	}

	chunks, errs := p.Stream(ctx, req)
	for chunks != nil || errs != nil {
		select {
		case c, ok := <-chunks:
			if !ok {
				chunks = nil
				continue
			}
			if c.Err != nil {
				return done(c.Err)
			}
			if c.Content != "" {
				text.WriteString(c.Content)
				onText(c.Content)
			}
			res.calls = append(res.calls, c.ToolCalls...)
			if c.FinishReason != "" {
				res.finish = c.FinishReason
			}
			if c.Usage != nil {
				u := *c.Usage
				res.usage = &u
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				return done(err)
			}
		case <-ctx.Done():
			return done(ctx.Err())
		}
	}
	return done(nil)
}

func lastUserIndex(msgs []llm.ChatMessage) int {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == llm.RoleUser {
			return i
		}
	}
	return -1
}

// priorMessages keeps caller-supplied user and assistant text only.
func priorMessages(msgs []llm.ChatMessage) []llm.ChatMessage {
	out := make([]llm.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.Role != llm.RoleUser && m.Role != llm.RoleAssistant {
			continue
		}
		out = append(out, llm.ChatMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

func writeOutput(b *strings.Builder, s string) {
	if s == "" {
		return
	}
	if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
		b.WriteString("\n")
	}
	b.WriteString(s)
}

func addUsage(a, b llm.Usage) llm.Usage {
	a.PromptTokens += b.PromptTokens
	a.CompletionTokens += b.CompletionTokens
	a.TotalTokens += b.TotalTokens
	return a
}

func pickTemperature(agentTemp float64, routeTemp float64) float64 {
	if agentTemp > 0 {
		return agentTemp
	}
	if routeTemp > 0 {
		return routeTemp
	}
	return 0.2
}

func pickMaxTokens(agentMax int, routeMax int) int {
	if agentMax > 0 {
		return agentMax
	}
	if routeMax > 0 {
		return routeMax
	}
	return 0
}

type nopMetrics struct{}

func (nopMetrics) RecordTurn(string, string, time.Duration, int, int) {}
func (nopMetrics) RecordPatchBlocks(int, int)                         {}
func (nopMetrics) RecordToolCall(string, bool)                        {}
func (nopMetrics) RecordModelUsage(string, string)                    {}
func (nopMetrics) RecordModelFailure(string, string)                  {}
