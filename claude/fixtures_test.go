package claude

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// writeSession writes a session log under projects/<project>/<id>.jsonl and
// returns its path.
func writeSession(t *testing.T, root, project, id string, lines ...string) string {
	t.Helper()
	dir := filepath.Join(root, "projects", project)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, id+".jsonl")
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func userLine(t *testing.T, ts, text string) string {
	return mustJSON(t, map[string]any{
		"type":      "user",
		"uuid":      "u-" + ts,
		"timestamp": ts,
		"message":   map[string]any{"role": "user", "content": text},
	})
}

func assistantLine(t *testing.T, ts, text, model string, in, out int) string {
	return mustJSON(t, map[string]any{
		"type":      "assistant",
		"uuid":      "a-" + ts,
		"timestamp": ts,
		"message": map[string]any{
			"role":    "assistant",
			"model":   model,
			"content": []any{map[string]any{"type": "text", "text": text}},
			"usage":   map[string]any{"input_tokens": in, "output_tokens": out},
		},
	})
}

func summaryLine(t *testing.T, ts, summary string) string {
	return mustJSON(t, map[string]any{"type": "summary", "timestamp": ts, "summary": summary})
}

func toolUseLine(t *testing.T, ts, tool string, input map[string]any) string {
	return mustJSON(t, map[string]any{
		"type":      "assistant",
		"timestamp": ts,
		"message": map[string]any{
			"role": "assistant",
			"content": []any{map[string]any{
				"type": "tool_use", "id": "toolu_" + ts, "name": tool, "input": input,
			}},
		},
	})
}

func newTestStore(root string) *Store {
	return NewStore(root, WithClock(fixedClock), WithScanWorkers(2))
}
