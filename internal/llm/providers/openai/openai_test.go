package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ThinkArcHQ/profilebase/internal/llm"
)

func TestChatSendsRequestAndParsesResponse(t *testing.T) {
	t.Parallel()

	p := NewProvider("openai", "http://mock", "key", 5*time.Second)
	p.client = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			require.Equal(t, "/v1/chat/completions", r.URL.Path)
			require.Equal(t, "Bearer key", r.Header.Get("Authorization"))

			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)

			var reqBody map[string]interface{}
			require.NoError(t, json.Unmarshal(body, &reqBody))
			require.Equal(t, "gpt-4o-mini", reqBody["model"])

			return &http.Response{
				StatusCode: http.StatusOK,
				Header:     make(http.Header),
				Body: io.NopCloser(strings.NewReader(`{
					"choices": [{
						"index": 0,
						"finish_reason": "stop",
						"message": {"role": "assistant", "content": "hello"}
					}],
					"usage": {"prompt_tokens": 1, "completion_tokens": 2, "total_tokens": 3}
				}`)),
			}, nil
		}),
	}

	resp, err := p.Chat(context.Background(), llm.ChatRequest{
		Model: "gpt-4o-mini",
		Messages: []llm.ChatMessage{
			{Role: llm.RoleUser, Content: "hi"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "hello", resp.Message.Content)
	require.Equal(t, "stop", resp.FinishReason)
	require.Equal(t, 3, resp.Usage.TotalTokens)
}

func TestChatSendsToolsAndParsesToolCalls(t *testing.T) {
	t.Parallel()

	p := NewProvider("openai", "http://mock", "", 0)
	p.client = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			var reqBody struct {
				Tools []struct {
					Type     string `json:"type"`
					Function struct {
						Name string `json:"name"`
					} `json:"function"`
				} `json:"tools"`
				Messages []struct {
					Role       string `json:"role"`
					ToolCallID string `json:"tool_call_id"`
				} `json:"messages"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
			require.Len(t, reqBody.Tools, 1)
			require.Equal(t, "function", reqBody.Tools[0].Type)
			require.Equal(t, "search_profiles", reqBody.Tools[0].Function.Name)
			require.Equal(t, "call_0", reqBody.Messages[1].ToolCallID)

			return &http.Response{
				StatusCode: http.StatusOK,
				Header:     make(http.Header),
				Body: io.NopCloser(strings.NewReader(`{
					"choices": [{
						"finish_reason": "tool_calls",
						"message": {"role": "assistant", "tool_calls": [
							{"id": "call_1", "type": "function", "function": {"name": "get_profile", "arguments": "{\"id\":\"p1\"}"}}
						]}
					}]
				}`)),
			}, nil
		}),
	}

	resp, err := p.Chat(context.Background(), llm.ChatRequest{
		Model: "gpt-4o-mini",
		Messages: []llm.ChatMessage{
			{Role: llm.RoleUser, Content: "find a designer"},
			{Role: llm.RoleTool, Content: "[]", ToolCallID: "call_0"},
		},
		Tools: []llm.ToolSpec{{Name: "search_profiles", Parameters: map[string]interface{}{"type": "object"}}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Message.ToolCalls, 1)
	require.Equal(t, "get_profile", resp.Message.ToolCalls[0].Function.Name)
	require.JSONEq(t, `{"id":"p1"}`, string(resp.Message.ToolCalls[0].Function.Arguments))
}

func TestStreamParsesServerSentEvents(t *testing.T) {
	t.Parallel()

	sse := strings.Join([]string{
		`data: {"choices":[{"delta":{"content":"FILE: "}}]}`,
		``,
		`data: {"choices":[{"delta":{"content":"index.html"}}]}`,
		``,
		`: keep-alive`,
		`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"search_profiles","arguments":"{\"que"}}]}}]}`,
		`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"ry\":\"go\"}"}}]}}]}`,
		`data: {"choices":[{"delta":{},"finish_reason":"tool_calls"}],"usage":{"prompt_tokens":4,"completion_tokens":6,"total_tokens":10}}`,
		`data: [DONE]`,
		``,
	}, "\n")

	p := NewProvider("openai", "http://mock", "", 0)
	p.client = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			require.Equal(t, "text/event-stream", r.Header.Get("Accept"))
			var reqBody map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
			require.Equal(t, true, reqBody["stream"])
			return &http.Response{
				StatusCode: http.StatusOK,
				Header:     make(http.Header),
				Body:       io.NopCloser(strings.NewReader(sse)),
			}, nil
		}),
	}

	ch, errCh := p.Stream(context.Background(), llm.ChatRequest{
		Model:    "gpt-4o-mini",
		Messages: []llm.ChatMessage{{Role: llm.RoleUser, Content: "hi"}},
	})

	var (
		text  strings.Builder
		final llm.StreamChunk
	)
	for chunk := range ch {
		text.WriteString(chunk.Content)
		if chunk.FinishReason != "" {
			final = chunk
		}
	}
	require.NoError(t, <-errCh)
	require.Equal(t, "FILE: index.html", text.String())
	require.Equal(t, "tool_calls", final.FinishReason)
	require.Len(t, final.ToolCalls, 1)
	require.Equal(t, "call_1", final.ToolCalls[0].ID)
	require.JSONEq(t, `{"query":"go"}`, string(final.ToolCalls[0].Function.Arguments))
	require.NotNil(t, final.Usage)
	require.Equal(t, 10, final.Usage.TotalTokens)
}

func TestStreamReportsHTTPError(t *testing.T) {
	t.Parallel()

	p := NewProvider("openai", "http://mock", "", 0)
	p.client = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusTooManyRequests,
				Header:     make(http.Header),
				Body:       io.NopCloser(strings.NewReader("rate limited")),
			}, nil
		}),
	}

	ch, errCh := p.Stream(context.Background(), llm.ChatRequest{Model: "m"})
	for range ch {
	}
	err := <-errCh
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
}

type roundTripFunc func(r *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
