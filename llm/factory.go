// LLM Provider Factory - Ergonomic builder-first API for creating LLM providers.
//
// Quick Start:
//
//	// Simplest: use defaults, read API key from environment
//	openai, err := llm.ProviderOpenAI.FromEnv()  // Uses gpt-5.2
//	claude, err := llm.ProviderAnthropic.FromEnv()  // Uses claude-opus-4-5
//
//	// With custom model
//	coder, err := llm.ProviderOllama.Model("qwen2.5-coder").FromEnv()
//
//	// Full configuration
//	custom, err := llm.ProviderAnthropic.
//	    Model("claude-sonnet-4-20250514").
//	    MaxTokens(8192).
//	    Temperature(0.3).
//	    FromEnv()
//
//	// With explicit API key
//	provider, err := llm.ProviderOpenAI.Model(llm.ModelOpenAIGPT52).APIKey("sk-...")
//
//	// Local Ollama daemon: no key, OLLAMA_HOST picks the server
//	local, err := llm.ProviderOllama.FromEnv()

package llm

import (
	"fmt"
	"os"
	"strings"
)

// ProviderType represents supported LLM providers.
type ProviderType int

const (
	// ProviderOpenAI is the OpenAI provider (GPT models).
	ProviderOpenAI ProviderType = iota
	// ProviderAnthropic is the Anthropic provider (Claude models).
	ProviderAnthropic
	// ProviderDeepSeek is the DeepSeek provider.
	ProviderDeepSeek
	// ProviderGemini is the Google Gemini provider.
	ProviderGemini
	// ProviderOllama is a local Ollama daemon.
	ProviderOllama
)

// OllamaHostEnv names the variable holding the Ollama base URL.
const OllamaHostEnv = "OLLAMA_HOST"

// AllProviders lists every provider in display order.
var AllProviders = []ProviderType{
	ProviderOllama,
	ProviderOpenAI,
	ProviderAnthropic,
	ProviderDeepSeek,
	ProviderGemini,
}

// String returns the string representation of the provider type.
func (p ProviderType) String() string {
	switch p {
	case ProviderOpenAI:
		return "openai"
	case ProviderAnthropic:
		return "anthropic"
	case ProviderDeepSeek:
		return "deepseek"
	case ProviderGemini:
		return "gemini"
	case ProviderOllama:
		return "ollama"
	default:
		return "unknown"
	}
}

// EnvVar returns the environment variable name for this provider's API key.
func (p ProviderType) EnvVar() string {
	switch p {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderDeepSeek:
		return "DEEPSEEK_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// RequiresAPIKey reports whether the provider needs a credential.
func (p ProviderType) RequiresAPIKey() bool {
	return p.EnvVar() != ""
}

// DefaultModel returns the default model for this provider.
func (p ProviderType) DefaultModel() string {
	switch p {
	case ProviderOpenAI:
		return ModelOpenAIGPT52
	case ProviderAnthropic:
		return ModelAnthropicClaudeOpus45
	case ProviderDeepSeek:
		return ModelDeepSeekV32
	case ProviderGemini:
		return ModelGeminiFlash3
	case ProviderOllama:
		return ModelOllamaLlama2
	default:
		return ""
	}
}

// ParseProviderType parses a provider from string (case-insensitive).
func ParseProviderType(s string) (ProviderType, error) {
	switch strings.ToLower(s) {
	case "openai", "gpt":
		return ProviderOpenAI, nil
	case "anthropic", "claude":
		return ProviderAnthropic, nil
	case "deepseek":
		return ProviderDeepSeek, nil
	case "gemini", "google":
		return ProviderGemini, nil
	case "ollama", "local":
		return ProviderOllama, nil
	default:
		return 0, fmt.Errorf("unknown provider: %s", s)
	}
}

// FromEnv creates a provider with defaults, reading API key from environment.
func (p ProviderType) FromEnv() (Provider, error) {
	return NewProviderBuilder(p).FromEnv()
}

// Model starts configuring this provider with a specific model.
func (p ProviderType) Model(model string) *ProviderBuilder {
	return NewProviderBuilder(p).Model(model)
}

// APIKey creates a provider with an explicit API key (uses defaults for everything else).
func (p ProviderType) APIKey(key string) (Provider, error) {
	return NewProviderBuilder(p).APIKey(key)
}

// ProviderBuilder is a builder for configuring LLM providers.
type ProviderBuilder struct {
	providerType ProviderType
	model        string
	maxTokens    uint32
	temperature  *float32
}

// NewProviderBuilder creates a new builder for the given provider.
func NewProviderBuilder(providerType ProviderType) *ProviderBuilder {
	return &ProviderBuilder{
		providerType: providerType,
	}
}

// Model sets the model to use.
func (b *ProviderBuilder) Model(model string) *ProviderBuilder {
	b.model = model
	return b
}

// MaxTokens sets maximum tokens for responses.
func (b *ProviderBuilder) MaxTokens(tokens uint32) *ProviderBuilder {
	b.maxTokens = tokens
	return b
}

// Temperature sets temperature (0.0 = deterministic, 1.0 = creative).
func (b *ProviderBuilder) Temperature(temp float32) *ProviderBuilder {
	b.temperature = &temp
	return b
}

// FromEnv builds the provider, reading API key from environment.
// Ollama reads its host from OLLAMA_HOST instead.
func (b *ProviderBuilder) FromEnv() (Provider, error) {
	if !b.providerType.RequiresAPIKey() {
		return b.build(os.Getenv(OllamaHostEnv))
	}
	envVar := b.providerType.EnvVar()
	apiKey := os.Getenv(envVar)
	if apiKey == "" {
		return nil, fmt.Errorf("%s: %s environment variable not set", b.providerType, envVar)
	}
	return b.build(apiKey)
}

// APIKey builds the provider with an explicit API key.
// For Ollama the value is the daemon host.
func (b *ProviderBuilder) APIKey(key string) (Provider, error) {
	return b.build(key)
}

func (b *ProviderBuilder) build(apiKey string) (Provider, error) {
	model := b.model
	if model == "" {
		model = b.providerType.DefaultModel()
	}

	maxTokens := b.maxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	temperature := float32(0.2) // default
	if b.temperature != nil {
		temperature = *b.temperature
	}

	switch b.providerType {
	case ProviderOpenAI:
		return NewOpenAIProvider(apiKey, model, maxTokens, temperature), nil
	case ProviderAnthropic:
		return NewAnthropicProvider(apiKey, model, maxTokens, temperature), nil
	case ProviderDeepSeek:
		return NewDeepSeekProvider(apiKey, model, maxTokens, temperature), nil
	case ProviderGemini:
		return NewGeminiProvider(apiKey, model, maxTokens, temperature), nil
	case ProviderOllama:
		return NewOllamaProvider(apiKey, model, maxTokens, temperature), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %v", b.providerType)
	}
}

// Default model identifiers, one per provider.
const (
	// ModelOpenAIGPT52 is GPT-5.2.
	ModelOpenAIGPT52 = "gpt-5.2"
	// ModelAnthropicClaudeOpus45 is Claude Opus 4.5.
	ModelAnthropicClaudeOpus45 = "claude-opus-4-5-20251101"
	// ModelDeepSeekV32 is DeepSeek V3.2.
	ModelDeepSeekV32 = "deepseek-v3.2"
	// ModelGeminiFlash3 is Gemini 3 Flash.
	ModelGeminiFlash3 = "gemini-3-flash"
	// ModelOllamaLlama2 is Llama 2, the model a fresh Ollama install usually has.
	ModelOllamaLlama2 = "llama2"
)
