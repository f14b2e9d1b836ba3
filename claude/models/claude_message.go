package models

import "encoding/json"

// ClaudeMessage represents a message in the Claude API format.
// Content is either a plain string or an array of ContentBlock; it is kept
// raw here and resolved once by the record decoder.
type ClaudeMessage struct {
	Role       string          `json:"role"`                  // "user" or "assistant"
	Content    json.RawMessage `json:"content,omitempty"`     // string or []ContentBlock
	Model      string          `json:"model,omitempty"`       // Model used (e.g., "claude-opus-4-5-20251101")
	ID         string          `json:"id,omitempty"`          // Message ID from Claude API
	StopReason *string         `json:"stop_reason,omitempty"` // Why generation stopped (e.g., "end_turn", "tool_use")
	Usage      *TokenUsage     `json:"usage,omitempty"`       // Token usage for this message
}

// TokenUsage represents token usage statistics
type TokenUsage struct {
	InputTokens              int    `json:"input_tokens,omitempty"`
	OutputTokens             int    `json:"output_tokens,omitempty"`
	CacheCreationInputTokens int    `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     int    `json:"cache_read_input_tokens,omitempty"`
	ServiceTier              string `json:"service_tier,omitempty"` // e.g., "standard"
}

// UnmarshalJSON accepts counts written as floats ("12.0") or numeric
// strings. Values that are not numbers count as zero; it never fails.
func (u *TokenUsage) UnmarshalJSON(data []byte) error {
	var raw struct {
		InputTokens              json.RawMessage `json:"input_tokens"`
		OutputTokens             json.RawMessage `json:"output_tokens"`
		CacheCreationInputTokens json.RawMessage `json:"cache_creation_input_tokens"`
		CacheReadInputTokens     json.RawMessage `json:"cache_read_input_tokens"`
		ServiceTier              json.RawMessage `json:"service_tier"`
	}
	*u = TokenUsage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	u.InputTokens = tokenCount(raw.InputTokens)
	u.OutputTokens = tokenCount(raw.OutputTokens)
	u.CacheCreationInputTokens = tokenCount(raw.CacheCreationInputTokens)
	u.CacheReadInputTokens = tokenCount(raw.CacheReadInputTokens)
	_ = json.Unmarshal(raw.ServiceTier, &u.ServiceTier)
	return nil
}

func tokenCount(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0
	}
	f, err := n.Float64()
	if err != nil {
		return 0
	}
	return int(f)
}
