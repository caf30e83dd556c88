package provider

import "time"

// Role identifies the message sender.
type Role string

// Standard message roles supported across all providers.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid returns true for the three standard roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Message is one conversation turn. Messages are immutable once sent; an
// ordered sequence of them forms the context passed to a provider.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// ModelID records which model produced an assistant turn. Empty for
	// user and system messages.
	ModelID string `json:"model_id,omitempty"`

	// CreatedAt is when the message was sent.
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// NewTextMessage creates a simple text message.
func NewTextMessage(role Role, content string) Message {
	return Message{Role: role, Content: content, CreatedAt: time.Now().UTC()}
}

// Request configures one streaming completion call.
// This is the provider-agnostic request format used by the router.
type Request struct {
	// Messages is the conversation to send to the model.
	Messages []Message `json:"messages"`

	// Model specifies which model to use (provider-specific name).
	Model string `json:"model"`

	// MaxTokens limits the response length. 0 uses the provider default.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls response randomness (0.0 = deterministic).
	Temperature float64 `json:"temperature,omitempty"`
}

// Usage tracks token consumption for one provider invocation.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add combines token usage from another Usage record.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// StreamChunk is a piece of a streaming response.
type StreamChunk struct {
	// Content is the text fragment in this chunk.
	Content string `json:"content,omitempty"`

	// Usage is the token usage for the whole call (only set on the
	// final chunk).
	Usage *Usage `json:"usage,omitempty"`

	// Done indicates this is the final chunk.
	Done bool `json:"done"`

	// Error is non-nil if streaming failed.
	Error error `json:"-"`
}
