// Package config provides application settings loaded from environment variables.
//
// Settings are created via New() which handles:
// - Environment variable parsing with validation
// - Default value application
// - Provider-specific configuration lookup

package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// DefaultProvider is used when neither --provider nor RESOLVE_PROVIDER is set.
const DefaultProvider = "ollama"

// Settings holds all application configuration.
type Settings struct {
	LLM      LLMConfig
	Resolver ResolverConfig
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	Provider    string
	Model       string
	MaxTokens   uint32
	Temperature float64
	Timeout     time.Duration
}

// ResolverConfig holds resolution loop configuration.
type ResolverConfig struct {
	MaxAttempts    int           `env:"RESOLVE_MAX_ATTEMPTS" envDefault:"15" validate:"min=1,max=15"`
	CommandTimeout time.Duration `env:"RESOLVE_COMMAND_TIMEOUT" envDefault:"0s"`
	StderrExcerpt  int           `env:"RESOLVE_STDERR_EXCERPT" envDefault:"2000" validate:"min=200"`
	DBPath         string        `env:"RESOLVE_DB_PATH" envDefault:".resolve-ai/journal.db" validate:"required"`
	Provider       string        `env:"RESOLVE_PROVIDER" envDefault:"ollama" validate:"oneof=ollama openai anthropic deepseek gemini claude google gpt local"`
}

// providerInfo holds configuration for a specific LLM provider.
type providerInfo struct {
	modelEnv     string
	defaultModel string
	apiKeyEnv    string
}

// Supported providers and their configuration. An empty apiKeyEnv means
// the provider runs without credentials.
var providers = map[string]providerInfo{
	"ollama":    {"OLLAMA_MODEL", "llama2", ""},
	"openai":    {"OPENAI_MODEL", "gpt-4o", "OPENAI_API_KEY"},
	"anthropic": {"ANTHROPIC_MODEL", "claude-sonnet-4-20250514", "ANTHROPIC_API_KEY"},
	"deepseek":  {"DEEPSEEK_MODEL", "deepseek-chat", "DEEPSEEK_API_KEY"},
	"gemini":    {"GEMINI_MODEL", "gemini-2.5-flash", "GEMINI_API_KEY"},
}

// Provider aliases map to canonical names.
var providerAliases = map[string]string{
	"claude": "anthropic",
	"google": "gemini",
	"gpt":    "openai",
	"local":  "ollama",
}

var validate = validator.New()

// New creates settings for the specified provider, loading values from environment variables.
// An empty provider falls back to RESOLVE_PROVIDER.
// Returns an error if the provider is unknown or environment variables contain invalid values.
func New(provider string) (Settings, error) {
	resolver, err := LoadResolver()
	if err != nil {
		return Settings{}, err
	}

	if strings.TrimSpace(provider) == "" {
		provider = resolver.Provider
	}
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return Settings{}, err
	}

	maxTokens, err := getEnvUint32("LLM_MAX_TOKENS", 4096)
	if err != nil {
		return Settings{}, err
	}

	temperature, err := getEnvFloat64("LLM_TEMPERATURE", 0.2)
	if err != nil {
		return Settings{}, err
	}

	timeoutSeconds, err := getEnvInt("LLM_TIMEOUT_SECONDS", 30)
	if err != nil {
		return Settings{}, err
	}
	if timeoutSeconds < 0 {
		return Settings{}, fmt.Errorf("invalid value for LLM_TIMEOUT_SECONDS: %d must not be negative", timeoutSeconds)
	}

	// Get model from environment or use default
	model := os.Getenv(info.modelEnv)
	if model == "" {
		model = info.defaultModel
	}

	resolver.Provider = provider

	return Settings{
		LLM: LLMConfig{
			Provider:    provider,
			Model:       model,
			MaxTokens:   maxTokens,
			Temperature: temperature,
			Timeout:     time.Duration(timeoutSeconds) * time.Second,
		},
		Resolver: resolver,
	}, nil
}

// LoadResolver parses and validates the RESOLVE_* variables.
func LoadResolver() (ResolverConfig, error) {
	cfg, err := env.ParseAs[ResolverConfig]()
	if err != nil {
		return ResolverConfig{}, fmt.Errorf("resolver config: %w", err)
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if err := validate.Struct(cfg); err != nil {
		return ResolverConfig{}, fmt.Errorf("resolver config: %w", err)
	}
	if cfg.CommandTimeout < 0 {
		return ResolverConfig{}, fmt.Errorf("resolver config: RESOLVE_COMMAND_TIMEOUT must not be negative")
	}
	return cfg, nil
}

// normalizeProvider converts provider aliases to canonical names.
func normalizeProvider(provider string) string {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if canonical, ok := providerAliases[provider]; ok {
		return canonical
	}
	return provider
}

// getProviderInfo returns configuration for a provider.
func getProviderInfo(provider string) (providerInfo, error) {
	info, ok := providers[provider]
	if !ok {
		return providerInfo{}, fmt.Errorf("unknown provider: %q", provider)
	}
	return info, nil
}

// APIKeyFor returns the API key for a provider from environment variables.
// Providers without credentials return an empty key and no error.
func APIKeyFor(provider string) (string, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return "", err
	}
	if info.apiKeyEnv == "" {
		return "", nil
	}

	key := os.Getenv(info.apiKeyEnv)
	if key == "" {
		return "", fmt.Errorf("%s environment variable not set", info.apiKeyEnv)
	}
	return key, nil
}

// APIKeyEnvFor returns the variable holding the provider's key, or "" when
// none is needed.
func APIKeyEnvFor(provider string) (string, error) {
	info, err := getProviderInfo(normalizeProvider(provider))
	if err != nil {
		return "", err
	}
	return info.apiKeyEnv, nil
}

// ModelFor returns the model for a provider, checking environment first.
func ModelFor(provider string) (string, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return "", err
	}

	if val := os.Getenv(info.modelEnv); val != "" {
		return val, nil
	}
	return info.defaultModel, nil
}

// SupportedProviders returns the sorted list of supported provider names.
func SupportedProviders() []string {
	result := make([]string, 0, len(providers))
	for name := range providers {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// Environment variable helpers with proper error handling

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}

func getEnvUint32(key string, defaultVal uint32) (uint32, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return uint32(i), nil
}

func getEnvFloat64(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return f, nil
}
