package models

// Todo statuses written by the TodoWrite tool
const (
	TodoPending    = "pending"
	TodoInProgress = "in_progress"
	TodoCompleted  = "completed"
)

// TodoItem represents a task in a Claude Code session
type TodoItem struct {
	Content    string `json:"content"`
	Status     string `json:"status"`               // "pending", "in_progress", "completed"
	ActiveForm string `json:"activeForm,omitempty"` // Present continuous form (e.g., "Running tests")
}
