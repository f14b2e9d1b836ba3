package continuation

import (
	"fmt"
	"strings"

	"github.com/abhitsian/claude-session-manager/claude/models"
)

const (
	maxRenderedFiles    = 10
	maxRenderedMessages = 5
	maxMessageChars     = 500
	ellipsis            = "..."

	dateTimeLayout = "2006-01-02 15:04"
	clockLayout    = "15:04"
)

// render produces the continuation document. The output depends only on
// its inputs; section headers and truncation markers are stable so other
// tools can parse them.
func render(ctx *SessionContext, meta *models.SessionMetadata) string {
	lines := []string{
		"# Session Context Continuation",
		"",
		"## Original Session",
		fmt.Sprintf("- **Session ID**: `%s`", ctx.SessionID),
		fmt.Sprintf("- **Project**: `%s`", ctx.ProjectPath),
		fmt.Sprintf("- **Started**: %s", ctx.StartTime.Format(dateTimeLayout)),
		fmt.Sprintf("- **Last Activity**: %s", ctx.LastActivity.Format(dateTimeLayout)),
		fmt.Sprintf("- **Messages**: %d (%d user, %d assistant)",
			meta.MessageCount, meta.UserMessageCount, meta.AssistantMessageCount),
		"",
	}

	if meta.ModelUsed != "" {
		lines = append(lines, fmt.Sprintf("- **Model**: %s", meta.ModelUsed), "")
	}

	lines = append(lines, "## Session Summary", ctx.Summary, "")

	if len(ctx.KeyFiles) > 0 {
		lines = append(lines, "## Key Files")
		for _, f := range ctx.KeyFiles[:min(len(ctx.KeyFiles), maxRenderedFiles)] {
			lines = append(lines, fmt.Sprintf("- `%s`", f))
		}
		lines = append(lines, "")
	}

	if len(ctx.PendingTodos) > 0 {
		lines = append(lines, "## Pending Tasks")
		for _, todo := range ctx.PendingTodos {
			box := "[~]"
			if todo.Status == models.TodoPending {
				box = "[ ]"
			}
			lines = append(lines, fmt.Sprintf("- %s %s", box, todo.Content))
		}
		lines = append(lines, "")
	}

	if len(ctx.RecentMessages) > 0 {
		lines = append(lines, "## Recent Conversation")
		msgs := ctx.RecentMessages[max(len(ctx.RecentMessages)-maxRenderedMessages, 0):]
		for _, msg := range msgs {
			role := "Assistant"
			if msg.Type == models.TypeUser {
				role = "User"
			}
			body := truncate(msg.Content, maxMessageChars)
			if len(body) < len(msg.Content) {
				body += ellipsis
			}
			lines = append(lines,
				"",
				fmt.Sprintf("**%s** (%s):", role, msg.Timestamp.Format(clockLayout)),
				body,
			)
		}
		lines = append(lines, "")
	}

	lines = append(lines,
		"## Continue From Here",
		"Please continue working on this session. Review the context above and pick up where we left off.",
		"",
	)

	return strings.Join(lines, "\n")
}
