package claude

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/abhitsian/claude-session-manager/claude/models"
	"github.com/abhitsian/claude-session-manager/log"
)

// Todos returns the todo list of a session. Claude Code writes it either as
// <id>-agent-<id>.json or <id>.json; the first readable one is used. No file
// means no todos.
func (s *Store) Todos(id string) []models.TodoItem {
	todos := []models.TodoItem{}
	if !validSessionID(id) {
		return todos
	}

	candidates := []string{
		filepath.Join(s.layout.TodosDir(), id+"-agent-"+id+".json"),
		filepath.Join(s.layout.TodosDir(), id+".json"),
	}
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var items []models.TodoItem
		if err := json.Unmarshal(data, &items); err != nil {
			log.Debug().Err(err).Str("path", path).Msg("ignoring unreadable todo file")
			continue
		}
		for _, item := range items {
			if item.Status == "" {
				item.Status = models.TodoPending
			}
			todos = append(todos, item)
		}
		return todos
	}
	return todos
}
