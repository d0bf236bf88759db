// DeepSeek Provider implementation using go-openai library.
//
// Information Hiding:
// - Uses OpenAI-compatible API with different base URL
// - Supports deepseek-chat and deepseek-reasoner models

package llm

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

const deepseekBaseURL = "https://api.deepseek.com/v1"

// DeepSeekProvider implements the Provider interface for DeepSeek.
type DeepSeekProvider struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewDeepSeekProvider creates a new DeepSeek provider.
func NewDeepSeekProvider(apiKey, model string, maxTokens uint32, temperature float32) *DeepSeekProvider {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = deepseekBaseURL

	return &DeepSeekProvider{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		maxTokens:   int(maxTokens),
		temperature: temperature,
	}
}

// Name returns the provider name.
func (p *DeepSeekProvider) Name() string {
	return "deepseek"
}

// Model returns the current model.
func (p *DeepSeekProvider) Model() string {
	return p.model
}

// Chat sends a chat completion request.
func (p *DeepSeekProvider) Chat(ctx context.Context, messages []ChatMessage) (LLMResponse, error) {
	req := openai.ChatCompletionRequest{
		Model:               p.model,
		Messages:            convertToOpenAIMessages(messages),
		MaxCompletionTokens: p.maxTokens,
		Temperature:         p.temperature,
	}
	return createChatCompletion(ctx, p.client, req)
}

// Verify DeepSeekProvider implements Provider
var _ Provider = (*DeepSeekProvider)(nil)
