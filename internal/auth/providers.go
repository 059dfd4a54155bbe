package auth

import "github.com/yolodolo42/mockchat/internal/llm"

// ProviderInfo is the help shown when connecting a provider
type ProviderInfo struct {
	Label  string // Display name
	KeyURL string // Where to obtain an API key
}

var providerInfos = map[llm.ProviderID]ProviderInfo{
	llm.ProviderGemini:     {Label: "Google Gemini", KeyURL: "aistudio.google.com/apikey"},
	llm.ProviderOpenAI:     {Label: "OpenAI", KeyURL: "platform.openai.com/api-keys"},
	llm.ProviderAnthropic:  {Label: "Anthropic", KeyURL: "console.anthropic.com"},
	llm.ProviderOpenRouter: {Label: "OpenRouter", KeyURL: "openrouter.ai/settings/keys"},
}

// GetProviderInfo returns the connection help for a provider. Unknown
// providers get their ID as label.
func GetProviderInfo(providerID llm.ProviderID) ProviderInfo {
	if info, ok := providerInfos[providerID]; ok {
		return info
	}
	return ProviderInfo{Label: string(providerID)}
}

// GetEnvVarHint returns the environment variable name for a provider's API key
func GetEnvVarHint(providerID llm.ProviderID) string {
	return llm.EnvVarForProvider(providerID)
}
