package llm

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

var (
	codec     tokenizer.Codec
	codecOnce sync.Once
	codecErr  error
)

func getCodec() (tokenizer.Codec, error) {
	codecOnce.Do(func() {
		codec, codecErr = tokenizer.Get(tokenizer.Cl100kBase)
	})
	return codec, codecErr
}

// CountTokens returns the cl100k_base token count of text. Falls back to a
// four-bytes-per-token estimate when the codec is unavailable.
func CountTokens(text string) int {
	if text == "" {
		return 0
	}
	c, err := getCodec()
	if err != nil {
		return roughTokens(text)
	}
	ids, _, err := c.Encode(text)
	if err != nil {
		return roughTokens(text)
	}
	return len(ids)
}

// CountMessageTokens approximates the prompt size of a message list,
// including a small per-message framing overhead.
func CountMessageTokens(msgs []ChatMessage) int {
	total := 0
	for _, m := range msgs {
		total += 4 + CountTokens(m.Content)
		for _, tc := range m.ToolCalls {
			total += CountTokens(tc.Function.Name) + CountTokens(string(tc.Function.Arguments))
		}
	}
	return total
}

// EstimateUsage fills in usage when the provider did not report it.
func EstimateUsage(msgs []ChatMessage, completion string) Usage {
	prompt := CountMessageTokens(msgs)
	out := CountTokens(completion)
	return Usage{PromptTokens: prompt, CompletionTokens: out, TotalTokens: prompt + out}
}

func roughTokens(text string) int {
	return (len(text) + 3) / 4
}
