// Package llm provides shared data models for LLM providers.
package llm

// ChatMessage represents a chat message with role and content.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SystemMessage creates a system message.
func SystemMessage(content string) ChatMessage {
	return ChatMessage{
		Role:    "system",
		Content: content,
	}
}

// UserMessage creates a user message.
func UserMessage(content string) ChatMessage {
	return ChatMessage{
		Role:    "user",
		Content: content,
	}
}

// LLMResponse represents a response from an LLM provider.
type LLMResponse struct {
	Content string
	Usage   *TokenUsage
}

// TokenUsage contains token usage statistics.
type TokenUsage struct {
	PromptTokens     uint32
	CompletionTokens uint32
	TotalTokens      uint32
}

// BuildMessages turns a system/user prompt pair into a message list,
// omitting the system message when it is blank.
func BuildMessages(system, user string) []ChatMessage {
	messages := make([]ChatMessage, 0, 2)
	if system != "" {
		messages = append(messages, SystemMessage(system))
	}
	return append(messages, UserMessage(user))
}
