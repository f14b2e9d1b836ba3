package models

import "time"

// ToolCall describes one tool_use block of a message.
type ToolCall struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// TokenCount is the input/output token pair reported on assistant messages.
type TokenCount struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ConversationMessage is a decoded user, assistant or summary record with
// its polymorphic content flattened to text.
type ConversationMessage struct {
	UUID       string      `json:"uuid"`
	ParentUUID *string     `json:"parent_uuid"`
	Type       string      `json:"type"` // "user", "assistant", "summary"
	Timestamp  time.Time   `json:"timestamp"`
	Content    string      `json:"content"`
	ToolCalls  []ToolCall  `json:"tool_calls"`
	Thinking   *string     `json:"thinking"`
	Model      string      `json:"model,omitempty"`
	TokenUsage *TokenCount `json:"token_usage"`
}

// IsConversational reports whether the message is a user or assistant turn.
func (m *ConversationMessage) IsConversational() bool {
	return m.Type == TypeUser || m.Type == TypeAssistant
}
