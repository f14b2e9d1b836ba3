package models

import "encoding/json"

// Record types that carry conversation content. Everything else in a
// session log (progress, system, file-history-snapshot, ...) is skipped.
const (
	TypeUser      = "user"
	TypeAssistant = "assistant"
	TypeSummary   = "summary"
)

// BaseMessage contains fields common to all message types.
type BaseMessage struct {
	Type       string  `json:"type"`
	UUID       string  `json:"uuid"`
	ParentUUID *string `json:"parentUuid"`
	Timestamp  string  `json:"timestamp"`
}

// RawRecord is one line of a session JSONL file, decoded only as far as
// the session readers need.
type RawRecord struct {
	BaseMessage
	Message       *ClaudeMessage  `json:"message,omitempty"`
	Summary       string          `json:"summary,omitempty"`
	ToolUseResult json.RawMessage `json:"toolUseResult,omitempty"` // object for file tools, plain string for errors
}
