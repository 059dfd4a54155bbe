package llm

import (
	"context"
	"fmt"
	"io"
	"os"
)

// ProviderID represents a unique provider identifier
type ProviderID string

const (
	ProviderGemini     ProviderID = "gemini"
	ProviderOpenAI     ProviderID = "openai"
	ProviderAnthropic  ProviderID = "anthropic"
	ProviderOpenRouter ProviderID = "openrouter"
)

// Provider is the interface all LLM providers must implement
type Provider interface {
	// ID returns the unique provider identifier
	ID() ProviderID

	// Name returns the human-readable provider name
	Name() string

	// Chat sends the conversation and returns the model's reply
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Models returns available models for this provider
	Models() []Model

	// DefaultModel returns the model used when a request names none
	DefaultModel() string

	// SetModel switches the active model. Returns error if model ID is not
	// in the provider's supported model list.
	SetModel(modelID string) error
}

// Model represents an available model
type Model struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ContextWindow int    `json:"context_window"`
}

// Message represents a conversation message
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatRequest is a provider-agnostic chat request. The last message is the
// one being answered; earlier messages are history.
type ChatRequest struct {
	SystemPrompt string    `json:"system_prompt,omitempty"`
	Messages     []Message `json:"messages"`
	Model        string    `json:"model,omitempty"` // Uses default if empty
	MaxTokens    int       `json:"max_tokens,omitempty"`
	Temperature  *float32  `json:"temperature,omitempty"`
}

// ChatResponse is a provider-agnostic chat response
type ChatResponse struct {
	Content    string `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      Usage  `json:"usage"`
}

// Usage tracks token usage
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Float32 returns a pointer to v, for ChatRequest.Temperature.
func Float32(v float32) *float32 {
	return &v
}

// EnvVarsForProvider returns the environment variables that may hold a
// provider's API key, in lookup order.
func EnvVarsForProvider(id ProviderID) []string {
	switch id {
	case ProviderGemini:
		return []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	case ProviderOpenAI:
		return []string{"OPENAI_API_KEY"}
	case ProviderAnthropic:
		return []string{"ANTHROPIC_API_KEY"}
	case ProviderOpenRouter:
		return []string{"OPENROUTER_API_KEY"}
	default:
		return nil
	}
}

// DisplayName returns the human-readable name of a provider ID, falling back
// to the ID itself.
func DisplayName(id ProviderID) string {
	switch id {
	case ProviderGemini:
		return "Gemini"
	case ProviderOpenAI:
		return "OpenAI"
	case ProviderAnthropic:
		return "Anthropic"
	case ProviderOpenRouter:
		return "OpenRouter"
	default:
		return string(id)
	}
}

// EnvVarForProvider returns the primary environment variable name for a
// provider's API key
func EnvVarForProvider(id ProviderID) string {
	vars := EnvVarsForProvider(id)
	if len(vars) == 0 {
		return ""
	}
	return vars[0]
}

// KeyFromEnv returns the first non-empty API key found in the provider's
// environment variables.
func KeyFromEnv(id ProviderID) string {
	for _, name := range EnvVarsForProvider(id) {
		if key := os.Getenv(name); key != "" {
			return key
		}
	}
	return ""
}

// AllProviderIDs returns all known provider IDs in priority order
func AllProviderIDs() []ProviderID {
	return []ProviderID{
		ProviderGemini,
		ProviderOpenAI,
		ProviderAnthropic,
		ProviderOpenRouter,
	}
}

// ParseProviderID validates a provider name.
func ParseProviderID(s string) (ProviderID, error) {
	for _, id := range AllProviderIDs() {
		if string(id) == s {
			return id, nil
		}
	}
	return "", fmt.Errorf("unknown provider: %s", s)
}

// ValidateModelID checks whether modelID exists in the given model list.
func ValidateModelID(modelID string, models []Model) error {
	for _, m := range models {
		if m.ID == modelID {
			return nil
		}
	}
	return fmt.Errorf("unknown model %q for this provider", modelID)
}

// NewProvider builds the provider for id. An empty model selects the
// provider's default.
func NewProvider(ctx context.Context, id ProviderID, apiKey, model string) (Provider, error) {
	switch id {
	case ProviderGemini:
		return NewGeminiProvider(ctx, apiKey, model)
	case ProviderOpenAI:
		return NewOpenAIProvider(apiKey, model, "")
	case ProviderAnthropic:
		return NewAnthropicProvider(apiKey, model)
	case ProviderOpenRouter:
		return NewOpenRouterProvider(apiKey, model)
	default:
		return nil, fmt.Errorf("unknown provider: %s", id)
	}
}

func validateRequest(req *ChatRequest) error {
	if req == nil || len(req.Messages) == 0 {
		return fmt.Errorf("no messages in request")
	}
	return nil
}

// Close releases resources held by p, looking through wrappers such as the
// one returned by WithRetry.
func Close(p Provider) error {
	for {
		u, ok := p.(interface{ Unwrap() Provider })
		if !ok {
			break
		}
		p = u.Unwrap()
	}
	if c, ok := p.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
