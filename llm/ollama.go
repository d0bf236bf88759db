// Ollama Provider implementation using go-openai library.
//
// Information Hiding:
// - Talks to a local Ollama daemon through its OpenAI-compatible endpoint
// - No API key; the host comes from OLLAMA_HOST

package llm

import (
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultOllamaHost is where a stock Ollama install listens.
const DefaultOllamaHost = "http://localhost:11434"

// OllamaProvider implements the Provider interface for a local Ollama server.
type OllamaProvider struct {
	client      *openai.Client
	host        string
	model       string
	maxTokens   int
	temperature float32
}

// NewOllamaProvider creates a new Ollama provider. An empty host selects
// DefaultOllamaHost.
func NewOllamaProvider(host, model string, maxTokens uint32, temperature float32) *OllamaProvider {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" {
		host = DefaultOllamaHost
	}

	// Ollama ignores the key but go-openai always sends one.
	config := openai.DefaultConfig("ollama")
	config.BaseURL = host + "/v1"

	return &OllamaProvider{
		client:      openai.NewClientWithConfig(config),
		host:        host,
		model:       model,
		maxTokens:   int(maxTokens),
		temperature: temperature,
	}
}

// Name returns the provider name.
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// Model returns the current model.
func (p *OllamaProvider) Model() string {
	return p.model
}

// Host returns the daemon base URL.
func (p *OllamaProvider) Host() string {
	return p.host
}

// Chat sends a chat completion request.
func (p *OllamaProvider) Chat(ctx context.Context, messages []ChatMessage) (LLMResponse, error) {
	req := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    convertToOpenAIMessages(messages),
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
	}
	return createChatCompletion(ctx, p.client, req)
}

// Verify OllamaProvider implements Provider
var _ Provider = (*OllamaProvider)(nil)
