package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayName(t *testing.T) {
	tests := map[ProviderID]string{
		ProviderGemini:     "Gemini",
		ProviderOpenAI:     "OpenAI",
		ProviderAnthropic:  "Anthropic",
		ProviderOpenRouter: "OpenRouter",
		"custom":           "custom",
	}
	for id, want := range tests {
		assert.Equal(t, want, DisplayName(id), id)
	}
}

func TestEnvVarsForProvider(t *testing.T) {
	assert.Equal(t, []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}, EnvVarsForProvider(ProviderGemini))
	assert.Equal(t, "OPENAI_API_KEY", EnvVarForProvider(ProviderOpenAI))
	assert.Equal(t, "ANTHROPIC_API_KEY", EnvVarForProvider(ProviderAnthropic))
	assert.Equal(t, "OPENROUTER_API_KEY", EnvVarForProvider(ProviderOpenRouter))
	assert.Empty(t, EnvVarForProvider("nope"))
}

func TestKeyFromEnv(t *testing.T) {
	t.Run("prefers the first variable", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "gemini-key")
		t.Setenv("GOOGLE_API_KEY", "google-key")
		assert.Equal(t, "gemini-key", KeyFromEnv(ProviderGemini))
	})

	t.Run("falls back to the alias", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "")
		t.Setenv("GOOGLE_API_KEY", "google-key")
		assert.Equal(t, "google-key", KeyFromEnv(ProviderGemini))
	})

	t.Run("empty when unset", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "")
		assert.Empty(t, KeyFromEnv(ProviderOpenAI))
	})
}

func TestParseProviderID(t *testing.T) {
	for _, id := range AllProviderIDs() {
		got, err := ParseProviderID(string(id))
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}

	_, err := ParseProviderID("venice")
	assert.Error(t, err)
}

func TestValidateModelID(t *testing.T) {
	assert.NoError(t, ValidateModelID("gemini-2.5-pro", GeminiModels))
	assert.Error(t, ValidateModelID("gpt-4o", GeminiModels))
}

func TestNewProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("requires an API key", func(t *testing.T) {
		for _, id := range AllProviderIDs() {
			_, err := NewProvider(ctx, id, "", "")
			assert.Error(t, err, id)
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := NewProvider(ctx, "nope", "key", "")
		assert.Error(t, err)
	})

	t.Run("openai defaults", func(t *testing.T) {
		p, err := NewProvider(ctx, ProviderOpenAI, "key", "")
		require.NoError(t, err)
		assert.Equal(t, ProviderOpenAI, p.ID())
		assert.Equal(t, "gpt-4o", p.DefaultModel())
	})

	t.Run("openrouter keeps its identity", func(t *testing.T) {
		p, err := NewProvider(ctx, ProviderOpenRouter, "key", "")
		require.NoError(t, err)
		assert.Equal(t, ProviderOpenRouter, p.ID())
		assert.Equal(t, "OpenRouter", p.Name())
		assert.Equal(t, "google/gemini-2.5-pro", p.DefaultModel())

		require.NoError(t, p.SetModel("openai/gpt-4o"))
		assert.Equal(t, "openai/gpt-4o", p.DefaultModel())
		assert.Error(t, p.SetModel("gpt-4o"))
		assert.Equal(t, OpenRouterModels, p.Models())
	})

	t.Run("anthropic rejects unknown model", func(t *testing.T) {
		p, err := NewProvider(ctx, ProviderAnthropic, "key", "")
		require.NoError(t, err)
		assert.Error(t, p.SetModel("gemini-2.5-pro"))
	})
}

func TestChatRejectsEmptyRequest(t *testing.T) {
	p, err := NewOpenAIProvider("key", "", "")
	require.NoError(t, err)

	_, err = p.Chat(context.Background(), &ChatRequest{})
	assert.Error(t, err)
}
