package llm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCountTokens(t *testing.T) {
	require.Zero(t, CountTokens(""))
	short := CountTokens("hello world")
	require.Positive(t, short)
	require.Greater(t, CountTokens("hello world, this is a considerably longer sentence"), short)
}

func TestEstimateUsage(t *testing.T) {
	msgs := []ChatMessage{
		{Role: RoleSystem, Content: "You build websites."},
		{Role: RoleUser, Content: "Make a landing page"},
	}
	u := EstimateUsage(msgs, "FILE: index.html")
	require.Greater(t, u.PromptTokens, 8)
	require.Positive(t, u.CompletionTokens)
	require.Equal(t, u.PromptTokens+u.CompletionTokens, u.TotalTokens)
}
