package llm

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterModels lists popular OpenRouter models
var OpenRouterModels = []Model{
	{ID: "google/gemini-2.5-pro", Name: "Gemini 2.5 Pro", ContextWindow: 1000000},
	{ID: "google/gemini-2.5-flash", Name: "Gemini 2.5 Flash", ContextWindow: 1000000},
	{ID: "anthropic/claude-3.5-sonnet", Name: "Claude 3.5 Sonnet", ContextWindow: 200000},
	{ID: "openai/gpt-4o", Name: "GPT-4o", ContextWindow: 128000},
	{ID: "meta-llama/llama-4-maverick", Name: "Llama 4 Maverick", ContextWindow: 1000000},
}

const openRouterDefaultModel = "google/gemini-2.5-pro"

// OpenRouterProvider relays questions through OpenRouter's OpenAI-compatible
// API. Chat and the client come from the embedded OpenAIProvider; identity
// and the model list are OpenRouter's.
type OpenRouterProvider struct {
	*OpenAIProvider
}

// NewOpenRouterProvider creates an OpenRouter provider. An empty model
// selects google/gemini-2.5-pro.
func NewOpenRouterProvider(apiKey string, model string) (*OpenRouterProvider, error) {
	if model == "" {
		model = openRouterDefaultModel
	}
	base, err := NewOpenAIProvider(apiKey, model, openRouterBaseURL)
	if err != nil {
		return nil, err
	}
	return &OpenRouterProvider{OpenAIProvider: base}, nil
}

func (p *OpenRouterProvider) ID() ProviderID  { return ProviderOpenRouter }
func (p *OpenRouterProvider) Name() string    { return DisplayName(ProviderOpenRouter) }
func (p *OpenRouterProvider) Models() []Model { return OpenRouterModels }

// SetModel switches to one of OpenRouterModels.
func (p *OpenRouterProvider) SetModel(modelID string) error {
	if err := ValidateModelID(modelID, OpenRouterModels); err != nil {
		return err
	}
	p.model = modelID
	return nil
}
