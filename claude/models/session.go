package models

import (
	"encoding/json"
	"time"
)

// SessionMetadata is derived from a session log; it is never stored.
type SessionMetadata struct {
	SessionID             string    `json:"session_id"`
	ProjectPath           string    `json:"project_path"`
	StartTime             time.Time `json:"start_time"`
	LastActivity          time.Time `json:"last_activity"`
	MessageCount          int       `json:"message_count"` // every valid record, summaries included
	UserMessageCount      int       `json:"user_message_count"`
	AssistantMessageCount int       `json:"assistant_message_count"`
	ModelUsed             string    `json:"model_used,omitempty"`
	TotalInputTokens      int       `json:"total_input_tokens"`
	TotalOutputTokens     int       `json:"total_output_tokens"`
	Summaries             []string  `json:"summaries"`
	IsActive              bool      `json:"is_active"` // set by callers, never by the aggregator
	FilePath              string    `json:"file_path"`
}

// DurationMinutes returns the whole minutes between start and last activity.
func (m *SessionMetadata) DurationMinutes() int {
	return int(m.LastActivity.Sub(m.StartTime) / time.Minute)
}

// StatsCache mirrors stats-cache.json as written by Claude Code.
type StatsCache struct {
	TotalSessions    int             `json:"totalSessions"`
	TotalMessages    int             `json:"totalMessages"`
	DailyActivity    json.RawMessage `json:"dailyActivity"`
	ModelUsage       json.RawMessage `json:"modelUsage"`
	LongestSession   json.RawMessage `json:"longestSession"`
	FirstSessionDate *string         `json:"firstSessionDate"`
}

// SessionStats aggregates all sessions. Daily activity, model usage and the
// longest session descriptor are passed through from the cache untouched.
type SessionStats struct {
	TotalSessions    int             `json:"total_sessions"`
	TotalMessages    int             `json:"total_messages"`
	ActiveSessions   int             `json:"active_sessions"`
	DailyActivity    json.RawMessage `json:"daily_activity"`
	ModelUsage       json.RawMessage `json:"model_usage"`
	LongestSession   json.RawMessage `json:"longest_session"`
	FirstSessionDate *string         `json:"first_session_date"`
	FromCache        bool            `json:"from_cache"`
}
