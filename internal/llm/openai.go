package llm

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements the Provider interface for OpenAI
type OpenAIProvider struct {
	client  *openai.Client
	model   string
	baseURL string
	stream  bool
}

// OpenAIModels lists available OpenAI models
var OpenAIModels = []Model{
	{ID: "gpt-4o", Name: "GPT-4o", ContextWindow: 128000},
	{ID: "gpt-4o-mini", Name: "GPT-4o Mini", ContextWindow: 128000},
	{ID: "gpt-4.1", Name: "GPT-4.1", ContextWindow: 1000000},
	{ID: "gpt-4.1-mini", Name: "GPT-4.1 Mini", ContextWindow: 1000000},
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string, model string, baseURL string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	if model == "" {
		model = "gpt-4o"
	}

	return &OpenAIProvider{
		client:  openai.NewClientWithConfig(config),
		model:   model,
		baseURL: baseURL,
		stream:  true,
	}, nil
}

// ID returns the provider identifier
func (p *OpenAIProvider) ID() ProviderID {
	return ProviderOpenAI
}

// Name returns the human-readable provider name
func (p *OpenAIProvider) Name() string {
	return DisplayName(ProviderOpenAI)
}

// Models returns available models
func (p *OpenAIProvider) Models() []Model {
	return OpenAIModels
}

// DefaultModel returns the default model
func (p *OpenAIProvider) DefaultModel() string {
	return p.model
}

// SetModel switches the active model after validating the ID
func (p *OpenAIProvider) SetModel(modelID string) error {
	if err := ValidateModelID(modelID, p.Models()); err != nil {
		return err
	}
	p.model = modelID
	return nil
}

// Chat sends the conversation and returns the response
func (p *OpenAIProvider) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = p.model
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	for _, msg := range req.Messages {
		role := openai.ChatMessageRoleUser
		if msg.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		})
	}

	openaiReq := openai.ChatCompletionRequest{
		Model:     model,
		MaxTokens: maxTokens,
		Messages:  messages,
	}
	if req.Temperature != nil {
		openaiReq.Temperature = *req.Temperature
	}

	resp, err := p.streamChat(ctx, openaiReq)
	if err != nil {
		nonStream, err2 := p.client.CreateChatCompletion(ctx, openaiReq)
		if err2 != nil {
			return nil, fmt.Errorf("failed to create chat completion: %w", err2)
		}
		resp = &nonStream
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	choice := resp.Choices[0]
	return &ChatResponse{
		Content:    choice.Message.Content,
		StopReason: string(choice.FinishReason),
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

// streamChat collects a streamed completion into a single response. Deltas
// are concatenated per choice index.
func (p *OpenAIProvider) streamChat(ctx context.Context, req openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error) {
	if !p.stream {
		return nil, fmt.Errorf("streaming disabled")
	}
	stream, err := p.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = stream.Close()
	}()

	var final openai.ChatCompletionResponse
	var content []string
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		final.Model = chunk.Model
		final.ID = chunk.ID
		for _, ch := range chunk.Choices {
			for len(final.Choices) <= ch.Index {
				final.Choices = append(final.Choices, openai.ChatCompletionChoice{Index: len(final.Choices)})
				content = append(content, "")
			}
			content[ch.Index] += ch.Delta.Content
			if ch.FinishReason != "" {
				final.Choices[ch.Index].FinishReason = ch.FinishReason
			}
		}
		if chunk.Usage != nil {
			final.Usage = *chunk.Usage
		}
	}
	for i := range final.Choices {
		final.Choices[i].Message = openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleAssistant,
			Content: content[i],
		}
	}
	return &final, nil
}
