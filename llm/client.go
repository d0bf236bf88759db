// LLMClient - Oracle adapter around providers.

package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrEmptyResponse is returned when a provider answers with no text.
var ErrEmptyResponse = errors.New("empty response from provider")

// Client wraps a Provider and exposes it as an Oracle.
type Client struct {
	provider Provider
	timeout  time.Duration
	logger   *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout bounds every oracle query. Zero disables the bound.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a new LLM client from a provider.
func NewClient(provider Provider, opts ...ClientOption) *Client {
	c := &Client{provider: provider, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chat sends a chat completion request and returns just the content.
func (c *Client) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	response, err := c.provider.Chat(ctx, messages)
	if err != nil {
		c.logger.Debug("oracle query failed",
			zap.String("provider", c.provider.Name()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", fmt.Errorf("%s: %w", c.provider.Name(), err)
	}

	fields := []zap.Field{
		zap.String("provider", c.provider.Name()),
		zap.String("model", c.provider.Model()),
		zap.Duration("elapsed", time.Since(start)),
	}
	if response.Usage != nil {
		fields = append(fields, zap.Uint32("total_tokens", response.Usage.TotalTokens))
	}
	c.logger.Debug("oracle query answered", fields...)

	if strings.TrimSpace(response.Content) == "" {
		return "", fmt.Errorf("%s: %w", c.provider.Name(), ErrEmptyResponse)
	}
	return response.Content, nil
}

// Query implements Oracle.
func (c *Client) Query(ctx context.Context, system, user string) (string, error) {
	return c.Chat(ctx, BuildMessages(system, user))
}

var _ Oracle = (*Client)(nil)
