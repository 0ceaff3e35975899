package mock

import (
	"context"
	"sync"

	"github.com/ThinkArcHQ/profilebase/internal/llm"
)

// Provider is a test double implementing llm.Provider.
//
// Streams scripts successive Stream calls: call N replays Streams[N], and the
// last script repeats once the list is exhausted. StreamFn takes precedence
// when set.
type Provider struct {
	NameValue    string
	ChatFn       func(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error)
	StreamFn     func(ctx context.Context, req llm.ChatRequest) ([]llm.StreamChunk, error)
	StreamChunks []llm.StreamChunk
	Streams      [][]llm.StreamChunk
	StreamErr    error

	mu       sync.Mutex
	calls    int
	requests []llm.ChatRequest
}

func (p *Provider) Name() string {
	if p.NameValue != "" {
		return p.NameValue
	}
	return "mock"
}

func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	p.record(req)
	if p.ChatFn != nil {
		return p.ChatFn(ctx, req)
	}
	return llm.ChatResponse{
		Message: llm.ChatMessage{
			Role:    llm.RoleAssistant,
			Content: "mock",
		},
	}, nil
}

func (p *Provider) Stream(ctx context.Context, req llm.ChatRequest) (<-chan llm.StreamChunk, <-chan error) {
	n := p.record(req)

	chunks, streamErr := p.StreamChunks, p.StreamErr
	switch {
	case p.StreamFn != nil:
		chunks, streamErr = p.StreamFn(ctx, req)
	case len(p.Streams) > 0:
		if n >= len(p.Streams) {
			n = len(p.Streams) - 1
		}
		chunks = p.Streams[n]
	}

	ch := make(chan llm.StreamChunk)
	errCh := make(chan error, 1)
	go func() {
		defer close(ch)
		defer close(errCh)
		for _, c := range chunks {
			select {
			case ch <- c:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
		if streamErr != nil {
			errCh <- streamErr
		}
	}()
	return ch, errCh
}

// Requests returns a copy of every request received so far.
func (p *Provider) Requests() []llm.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]llm.ChatRequest(nil), p.requests...)
}

func (p *Provider) record(req llm.ChatRequest) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := p.calls
	p.calls++
	p.requests = append(p.requests, req)
	return n
}
