package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ThinkArcHQ/profilebase/internal/llm"
	"github.com/ThinkArcHQ/profilebase/internal/version"
)

// Provider implements an Ollama chat client.
type Provider struct {
	name    string
	client  *http.Client
	baseURL string
}

// NewProvider constructs an Ollama provider.
func NewProvider(name, baseURL string, timeout time.Duration) *Provider {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:11434"
	}
	if timeout == 0 {
		timeout = 20 * time.Second
	}

	return &Provider{
		name:    name,
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Name returns provider identifier.
func (p *Provider) Name() string {
	return p.name
}

// Chat executes a non-streaming chat completion.
func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	res, err := p.send(ctx, req, false)
	if err != nil {
		return llm.ChatResponse{}, err
	}
	defer res.Body.Close()

	var resp ollamaChatResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return llm.ChatResponse{}, fmt.Errorf("decode response: %w", err)
	}

	return llm.ChatResponse{
		Message: llm.ChatMessage{
			Role:      llm.Role(resp.Message.Role),
			Content:   resp.Message.Content,
			ToolCalls: fromOllamaToolCalls(resp.Message.ToolCalls),
		},
		FinishReason: finishReason(resp),
		Usage:        resp.usage(),
		RawResponse:  resp,
		ProviderName: p.name,
		Model:        req.Model,
	}, nil
}

// Stream reads Ollama's newline-delimited JSON stream. Each line carries a
// message delta; the line with done=true carries token counts.
func (p *Provider) Stream(ctx context.Context, req llm.ChatRequest) (<-chan llm.StreamChunk, <-chan error) {
	ch := make(chan llm.StreamChunk, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(ch)
		defer close(errCh)

		res, err := p.send(ctx, req, true)
		if err != nil {
			errCh <- err
			return
		}
		defer res.Body.Close()

		scanner := bufio.NewScanner(res.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		var calls []llm.ToolCall
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			var resp ollamaChatResponse
			if err := json.Unmarshal([]byte(line), &resp); err != nil {
				errCh <- fmt.Errorf("decode stream line: %w", err)
				return
			}
			if resp.Error != "" {
				errCh <- fmt.Errorf("ollama: %s", resp.Error)
				return
			}
			calls = append(calls, fromOllamaToolCalls(resp.Message.ToolCalls)...)

			chunk := llm.StreamChunk{Content: resp.Message.Content}
			if resp.Done {
				u := resp.usage()
				chunk.Usage = &u
				chunk.ToolCalls = calls
				chunk.FinishReason = "stop"
				if len(calls) > 0 {
					chunk.FinishReason = "tool_calls"
				}
			}
			select {
			case ch <- chunk:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
			if resp.Done {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			if ctx.Err() != nil {
				errCh <- ctx.Err()
				return
			}
			errCh <- fmt.Errorf("read stream: %w", err)
		}
	}()

	return ch, errCh
}

func (p *Provider) send(ctx context.Context, req llm.ChatRequest, stream bool) (*http.Response, error) {
	if req.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	options := map[string]interface{}{"temperature": req.Temperature}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}
	body := ollamaChatRequest{
		Model:    req.Model,
		Messages: toOllamaMessages(req.Messages),
		Tools:    toOllamaTools(req.Tools),
		Stream:   stream,
		Options:  options,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", version.UserAgent())

	res, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	if res.StatusCode >= 300 {
		defer res.Body.Close()
		b, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("ollama: status %d: %s", res.StatusCode, string(b))
	}
	return res, nil
}

type ollamaChatRequest struct {
	Model    string                 `json:"model"`
	Messages []ollamaMessage        `json:"messages"`
	Tools    []ollamaTool           `json:"tools,omitempty"`
	Stream   bool                   `json:"stream"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
}

type ollamaTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string                 `json:"name"`
		Description string                 `json:"description,omitempty"`
		Parameters  map[string]interface{} `json:"parameters,omitempty"`
	} `json:"function"`
}

type ollamaToolCall struct {
	Function struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	} `json:"function"`
}

type ollamaChatResponse struct {
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	DoneReason      string        `json:"done_reason"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
	Error           string        `json:"error"`
}

func (r ollamaChatResponse) usage() llm.Usage {
	return llm.Usage{
		PromptTokens:     r.PromptEvalCount,
		CompletionTokens: r.EvalCount,
		TotalTokens:      r.PromptEvalCount + r.EvalCount,
	}
}

func finishReason(r ollamaChatResponse) string {
	if len(r.Message.ToolCalls) > 0 {
		return "tool_calls"
	}
	if r.DoneReason != "" {
		return r.DoneReason
	}
	return "stop"
}

func toOllamaMessages(msgs []llm.ChatMessage) []ollamaMessage {
	out := make([]ollamaMessage, 0, len(msgs))
	for _, m := range msgs {
		om := ollamaMessage{
			Role:    string(m.Role),
			Content: m.Content,
		}
		for _, tc := range m.ToolCalls {
			var call ollamaToolCall
			call.Function.Name = tc.Function.Name
			call.Function.Arguments = tc.Function.Arguments
			om.ToolCalls = append(om.ToolCalls, call)
		}
		out = append(out, om)
	}
	return out
}

func toOllamaTools(specs []llm.ToolSpec) []ollamaTool {
	if len(specs) == 0 {
		return nil
	}
	out := make([]ollamaTool, 0, len(specs))
	for _, s := range specs {
		var t ollamaTool
		t.Type = "function"
		t.Function.Name = s.Name
		t.Function.Description = s.Description
		t.Function.Parameters = s.Parameters
		out = append(out, t)
	}
	return out
}

// Ollama does not assign call IDs; synthesize stable ones so tool results can
// be correlated.
func fromOllamaToolCalls(calls []ollamaToolCall) []llm.ToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]llm.ToolCall, 0, len(calls))
	for i, c := range calls {
		args := c.Function.Arguments
		if len(args) == 0 {
			args = json.RawMessage("{}")
		}
		out = append(out, llm.ToolCall{
			ID:   fmt.Sprintf("call_%d_%s", i, c.Function.Name),
			Type: "function",
			Function: llm.ToolFunctionCall{
				Name:      c.Function.Name,
				Arguments: args,
			},
		})
	}
	return out
}
