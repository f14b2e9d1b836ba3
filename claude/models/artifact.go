package models

import (
	"encoding/json"
	"time"
)

// Artifact operations inferred from Write and Edit tool calls. Tool results
// may report other operation strings, which are kept verbatim.
const (
	OperationCreate = "create"
	OperationEdit   = "edit"
)

// Artifact is a file created or edited during a session.
type Artifact struct {
	FilePath  string    `json:"file_path"`
	FileName  string    `json:"file_name"`
	FileType  string    `json:"file_type"` // code, web, config, document, shell, data, image, other
	Operation string    `json:"operation"`
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int       `json:"size_bytes"`
	MimeType  string    `json:"mime_type"`
	Exists    bool      `json:"exists"` // checked at extraction time, may be stale
}

// ToolUseResult is the object form of a record's toolUseResult field.
type ToolUseResult struct {
	Type     string          `json:"type"`
	FilePath string          `json:"filePath"`
	Content  json.RawMessage `json:"content"` // file text for create/update, other shapes elsewhere
}

// ContentSize returns the byte length of Content when it is a string.
func (r ToolUseResult) ContentSize() int {
	var s string
	if len(r.Content) == 0 || json.Unmarshal(r.Content, &s) != nil {
		return 0
	}
	return len(s)
}

// ArtifactStats summarizes the most recent artifacts.
type ArtifactStats struct {
	TotalArtifacts        int            `json:"total_artifacts"`
	ByType                map[string]int `json:"by_type"`
	BySession             map[string]int `json:"by_session"`
	SessionsWithArtifacts int            `json:"sessions_with_artifacts"`
	TotalSizeBytes        int            `json:"total_size_bytes"`
}
