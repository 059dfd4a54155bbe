//go:build integration
// +build integration

package llm

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func liveProvider(t *testing.T, id ProviderID) (Provider, context.Context) {
	t.Helper()

	key := KeyFromEnv(id)
	if key == "" {
		t.Skipf("%s not set; skipping live %s tests", EnvVarForProvider(id), id)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	t.Cleanup(cancel)

	p, err := NewProvider(ctx, id, key, os.Getenv("LIVE_MODEL"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(p) })
	return WithRetry(p, DefaultRetryPolicy()), ctx
}

func TestLive_GeminiReplies(t *testing.T) {
	p, ctx := liveProvider(t, ProviderGemini)

	resp, err := p.Chat(ctx, &ChatRequest{
		Messages:    []Message{{Role: "user", Content: "Reply with the single word: pong"}},
		MaxTokens:   2048,
		Temperature: Float32(0.4),
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Content)
}

func TestLive_OpenRouterHistory(t *testing.T) {
	p, ctx := liveProvider(t, ProviderOpenRouter)

	resp, err := p.Chat(ctx, &ChatRequest{
		Messages: []Message{
			{Role: "user", Content: "Remember the word: lantern"},
			{Role: "assistant", Content: "Noted."},
			{Role: "user", Content: "Which word did I ask you to remember?"},
		},
		MaxTokens: 256,
	})
	require.NoError(t, err)
	require.Contains(t, resp.Content, "lantern")
}
