package models

// ContentBlock represents a content block in a Claude message.
// Messages can contain different types of blocks:
// - "text": Text content
// - "thinking": Extended thinking from the assistant
// - "tool_use": A tool invocation (e.g., Bash, Read, Edit)
// - "tool_result": The result of a tool execution
type ContentBlock struct {
	Type     string                 `json:"type"`               // "text", "thinking", "tool_use", "tool_result"
	Text     string                 `json:"text,omitempty"`     // For text blocks
	Thinking string                 `json:"thinking,omitempty"` // For thinking blocks
	ID       string                 `json:"id,omitempty"`       // For tool_use blocks
	Name     string                 `json:"name,omitempty"`     // For tool_use blocks
	Input    map[string]interface{} `json:"input,omitempty"`    // For tool_use blocks
}

// InputString returns a string field of a tool_use input, or "".
func (b ContentBlock) InputString(key string) string {
	if b.Input == nil {
		return ""
	}
	s, _ := b.Input[key].(string)
	return s
}
