package domain

import "context"

// Role values for conversation history messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of conversation history supplied by the caller.
type Message struct {
	Role    string
	Content string
}

// ChatResult carries the completion text and token usage.
type ChatResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// StreamHandler receives incremental completion deltas.
type StreamHandler func(delta string) error

// ChatModel is the hosted chat-completion contract. The assembled
// prompt is sent as the sole system instruction alongside the user's
// current message.
type ChatModel interface {
	Complete(ctx context.Context, instruction, userMessage string) (ChatResult, error)
	Stream(ctx context.Context, instruction, userMessage string, onDelta StreamHandler) (ChatResult, error)
}
