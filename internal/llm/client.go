// Package llm generates EVA's conversational replies through pluggable
// chat providers.
package llm

import "context"

// Message is one chat turn sent to a provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client is a chat completion provider.
type Client interface {
	Name() string
	Chat(ctx context.Context, system string, messages []Message, maxTokens int) (string, error)
	Health(ctx context.Context) error
}
