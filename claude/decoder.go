package claude

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/abhitsian/claude-session-manager/claude/models"
)

// timestampLayouts are tried in order. RFC3339Nano also accepts a trailing
// "Z" and timestamps without fractional seconds.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// parseTimestamp parses an ISO-8601 timestamp. Values without an offset are
// taken as UTC and a bare date is midnight UTC.
func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// decodeLenient unmarshals data into v, ignoring fields whose JSON type does
// not match the Go type. Those fields keep their zero value while the rest
// of the object is still decoded. Syntax errors are returned.
func decodeLenient(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return nil
	}
	return err
}

// DecodeRecord decodes one JSONL line into a ConversationMessage.
// It returns false for blank lines, invalid JSON and record types other
// than user, assistant and summary. A missing, mistyped or unparseable
// timestamp is replaced by now(); other mistyped fields are left empty.
func DecodeRecord(line []byte, now func() time.Time) (*models.ConversationMessage, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, false
	}

	var rec models.RawRecord
	if err := decodeLenient(line, &rec); err != nil {
		return nil, false
	}

	switch rec.Type {
	case models.TypeUser, models.TypeAssistant, models.TypeSummary:
	default:
		return nil, false
	}

	msg := &models.ConversationMessage{
		UUID:       rec.UUID,
		ParentUUID: rec.ParentUUID,
		Type:       rec.Type,
		ToolCalls:  []models.ToolCall{},
	}

	if ts, ok := parseTimestamp(rec.Timestamp); ok {
		msg.Timestamp = ts
	} else {
		msg.Timestamp = now().UTC()
	}

	if rec.Type == models.TypeSummary {
		msg.Content = rec.Summary
		return msg, true
	}

	if rec.Message == nil {
		return msg, true
	}

	content := decodeContent(rec.Message.Content)
	msg.Content = content.Text
	msg.ToolCalls = content.ToolCalls
	msg.Thinking = content.Thinking

	if rec.Type == models.TypeAssistant {
		msg.Model = rec.Message.Model
		if u := rec.Message.Usage; u != nil {
			msg.TokenUsage = &models.TokenCount{
				InputTokens:  u.InputTokens,
				OutputTokens: u.OutputTokens,
			}
		}
	}

	return msg, true
}

// messageContent is message.content with its string/blocks shape resolved.
type messageContent struct {
	Text      string
	ToolCalls []models.ToolCall
	Thinking  *string
	Blocks    []models.ContentBlock // nil when content was a plain string
}

// decodeContent resolves the polymorphic message.content field. A plain
// string is used verbatim. A block list contributes its text blocks joined
// by newlines, its tool_use blocks and its last thinking block; entries
// that are not objects are skipped without dropping their neighbours.
func decodeContent(raw json.RawMessage) messageContent {
	out := messageContent{ToolCalls: []models.ToolCall{}}
	if len(raw) == 0 {
		return out
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		out.Text = text
		return out
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return out
	}
	blocks := make([]models.ContentBlock, 0, len(items))
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			continue
		}
		var block models.ContentBlock
		if err := decodeLenient(item, &block); err != nil {
			continue
		}
		blocks = append(blocks, block)
	}
	out.Blocks = blocks

	var texts []string
	for _, block := range blocks {
		switch block.Type {
		case "text":
			texts = append(texts, block.Text)
		case "tool_use":
			out.ToolCalls = append(out.ToolCalls, models.ToolCall{Name: block.Name, ID: block.ID})
		case "thinking":
			thinking := block.Thinking
			out.Thinking = &thinking
		}
	}
	out.Text = strings.Join(texts, "\n")
	return out
}
