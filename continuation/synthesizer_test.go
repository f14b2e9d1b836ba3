package continuation

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhitsian/claude-session-manager/claude"
	"github.com/abhitsian/claude-session-manager/claude/models"
)

type lenCounter struct{}

func (lenCounter) Count(text string) int { return len(text) }

type fakeActivity map[string]bool

func (f fakeActivity) IsSessionActive(id string) bool { return f[id] }

func record(t *testing.T, v map[string]any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func user(t *testing.T, ts, text string) string {
	return record(t, map[string]any{
		"type": "user", "timestamp": ts,
		"message": map[string]any{"role": "user", "content": text},
	})
}

func assistant(t *testing.T, ts, text, model string) string {
	return record(t, map[string]any{
		"type": "assistant", "timestamp": ts,
		"message": map[string]any{
			"role": "assistant", "model": model,
			"content": []any{map[string]any{"type": "text", "text": text}},
			"usage":   map[string]any{"input_tokens": 1, "output_tokens": 2},
		},
	})
}

func write(t *testing.T, ts, path string) string {
	return record(t, map[string]any{
		"type": "assistant", "timestamp": ts,
		"message": map[string]any{"role": "assistant", "content": []any{map[string]any{
			"type": "tool_use", "id": "t-" + ts, "name": "Write",
			"input": map[string]any{"file_path": path, "content": "x"},
		}}},
	})
}

func summary(t *testing.T, text string) string {
	return record(t, map[string]any{"type": "summary", "summary": text, "timestamp": "2025-01-01T09:00:00Z"})
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func writeLog(t *testing.T, root, project, id string, lines ...string) {
	t.Helper()
	writeFile(t, filepath.Join(root, "projects", project, id+".jsonl"), strings.Join(lines, "\n")+"\n")
}

func newSynth(root string, opts ...Option) *Synthesizer {
	store := claude.NewStore(root)
	base := []Option{
		WithArtifacts(claude.NewArtifactExtractor(store)),
		WithTokenCounter(lenCounter{}),
	}
	return New(store, append(base, opts...)...)
}

func TestGenerate_Document(t *testing.T) {
	root := t.TempDir()
	writeLog(t, root, "-home-me-app", "s1",
		user(t, "2025-01-01T10:00:00Z", "hello"),
		assistant(t, "2025-01-01T10:30:00Z", "hi", "m1"),
		write(t, "2025-01-01T10:45:00Z", "/w/a.go"),
	)
	writeFile(t, filepath.Join(root, "todos", "s1.json"), `[
		{"content":"task a","status":"pending"},
		{"content":"task b","status":"in_progress","activeForm":"Doing b"},
		{"content":"done","status":"completed"}
	]`)

	ctx, err := newSynth(root, WithActivity(fakeActivity{"s1": true})).Generate("s1", DefaultOptions())
	require.NoError(t, err)

	want := "# Session Context Continuation\n" +
		"\n" +
		"## Original Session\n" +
		"- **Session ID**: `s1`\n" +
		"- **Project**: `/home/me/app`\n" +
		"- **Started**: 2025-01-01 10:00\n" +
		"- **Last Activity**: 2025-01-01 10:45\n" +
		"- **Messages**: 3 (1 user, 2 assistant)\n" +
		"\n" +
		"- **Model**: m1\n" +
		"\n" +
		"## Session Summary\n" +
		"Recent topics discussed:\n" +
		"- hello\n" +
		"\n" +
		"## Key Files\n" +
		"- `/w/a.go`\n" +
		"\n" +
		"## Pending Tasks\n" +
		"- [ ] task a\n" +
		"- [~] task b\n" +
		"\n" +
		"## Recent Conversation\n" +
		"\n" +
		"**User** (10:00):\n" +
		"hello\n" +
		"\n" +
		"**Assistant** (10:30):\n" +
		"hi\n" +
		"\n" +
		"**Assistant** (10:45):\n" +
		"\n" +
		"\n" +
		"## Continue From Here\n" +
		"Please continue working on this session. Review the context above and pick up where we left off.\n"

	assert.Equal(t, want, ctx.ContinuationPrompt)
	assert.Equal(t, 45, ctx.DurationMinutes)
	assert.True(t, ctx.IsActive)
	assert.Equal(t, []string{"/w/a.go"}, ctx.KeyFiles)
	assert.Len(t, ctx.PendingTodos, 2)
	assert.Len(t, ctx.RecentMessages, 3)
	assert.Equal(t, "claude --resume s1", ctx.ResumeCommand)
	assert.Equal(t, len(want), ctx.EstimatedTokens)
}

func TestGenerate_Deterministic(t *testing.T) {
	root := t.TempDir()
	writeLog(t, root, "-p", "s1",
		summary(t, "first"),
		user(t, "2025-01-01T10:00:00Z", "a"),
		assistant(t, "2025-01-01T10:01:00Z", "b", "m1"),
		write(t, "2025-01-01T10:02:00Z", "/w/x.py"),
		write(t, "2025-01-01T10:02:00Z", "/w/a.py"),
	)
	synth := newSynth(root)

	first, err := synth.Generate("s1", DefaultOptions())
	require.NoError(t, err)
	second, err := synth.Generate("s1", DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, first.ContinuationPrompt, second.ContinuationPrompt)
	assert.Equal(t, []string{"/w/a.py", "/w/x.py"}, first.KeyFiles)
	assert.Equal(t, "first", first.Summary)
}

func TestGenerate_LongMessageTruncated(t *testing.T) {
	root := t.TempDir()
	long := strings.Repeat("x", 10000)
	writeLog(t, root, "-p", "s1", user(t, "2025-01-01T10:00:00Z", long))

	ctx, err := newSynth(root).Generate("s1", DefaultOptions())
	require.NoError(t, err)

	assert.Contains(t, ctx.ContinuationPrompt, "\n"+strings.Repeat("x", 500)+"...\n")
	assert.NotContains(t, ctx.ContinuationPrompt, strings.Repeat("x", 501))
	// The summary fallback keeps its own 200 character limit without a marker
	assert.Equal(t, "Recent topics discussed:\n- "+strings.Repeat("x", 200), ctx.Summary)
}

func TestGenerate_TruncationCountsCharacters(t *testing.T) {
	root := t.TempDir()
	writeLog(t, root, "-p", "s1", user(t, "2025-01-01T10:00:00Z", strings.Repeat("日", 600)))

	ctx, err := newSynth(root).Generate("s1", DefaultOptions())
	require.NoError(t, err)
	assert.Contains(t, ctx.ContinuationPrompt, "\n"+strings.Repeat("日", 500)+"...\n")
}

func TestGenerate_SummaryFallbackUsesLastFive(t *testing.T) {
	root := t.TempDir()
	var lines []string
	for i := 1; i <= 6; i++ {
		lines = append(lines, user(t, fmt.Sprintf("2025-01-01T10:0%d:00Z", i), fmt.Sprintf("topic %d", i)))
	}
	writeLog(t, root, "-p", "s1", lines...)

	ctx, err := newSynth(root).Generate("s1", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "Recent topics discussed:\n- topic 2\n- topic 3\n- topic 4\n- topic 5\n- topic 6", ctx.Summary)
	assert.Len(t, ctx.RecentMessages, 6)
	assert.NotContains(t, ctx.ContinuationPrompt, "topic 1")
}

func TestGenerate_NoSummaryAvailable(t *testing.T) {
	root := t.TempDir()
	writeLog(t, root, "-p", "s1", assistant(t, "2025-01-01T10:00:00Z", "only me", ""))

	ctx, err := newSynth(root).Generate("s1", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "No summary available", ctx.Summary)
	assert.NotContains(t, ctx.ContinuationPrompt, "**Model**")
}

func TestGenerate_StoredSummariesPreferred(t *testing.T) {
	root := t.TempDir()
	writeLog(t, root, "-p", "s1",
		summary(t, "one"), summary(t, "two"), summary(t, "three"), summary(t, "four"),
		user(t, "2025-01-01T10:00:00Z", "question"),
	)

	ctx, err := newSynth(root).Generate("s1", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\nthree", ctx.Summary)
}

func TestGenerate_Toggles(t *testing.T) {
	root := t.TempDir()
	writeLog(t, root, "-p", "s1",
		user(t, "2025-01-01T10:00:00Z", "a"),
		write(t, "2025-01-01T10:01:00Z", "/w/a.go"),
	)
	writeFile(t, filepath.Join(root, "todos", "s1.json"), `[{"content":"t","status":"pending"}]`)

	ctx, err := newSynth(root).Generate("s1", Options{MaxRecentMessages: 0})
	require.NoError(t, err)
	assert.Empty(t, ctx.KeyFiles)
	assert.Empty(t, ctx.PendingTodos)
	assert.Empty(t, ctx.RecentMessages)
	assert.Equal(t, "No summary available", ctx.Summary)
	assert.NotContains(t, ctx.ContinuationPrompt, "## Key Files")
	assert.NotContains(t, ctx.ContinuationPrompt, "## Pending Tasks")
	assert.NotContains(t, ctx.ContinuationPrompt, "## Recent Conversation")

	ctx, err = newSynth(root).Generate("s1", Options{MaxRecentMessages: 1})
	require.NoError(t, err)
	require.Len(t, ctx.RecentMessages, 1)
	assert.Equal(t, models.TypeAssistant, ctx.RecentMessages[0].Type)
}

func TestGenerate_KeyFilesCapped(t *testing.T) {
	root := t.TempDir()
	var lines []string
	for i := range 25 {
		lines = append(lines, write(t, fmt.Sprintf("2025-01-01T10:%02d:00Z", i), fmt.Sprintf("/w/f%02d.go", i)))
	}
	writeLog(t, root, "-p", "s1", lines...)

	ctx, err := newSynth(root).Generate("s1", DefaultOptions())
	require.NoError(t, err)
	require.Len(t, ctx.KeyFiles, 20)
	assert.Equal(t, "/w/f24.go", ctx.KeyFiles[0])
	assert.Equal(t, "/w/f05.go", ctx.KeyFiles[19])
	assert.Equal(t, 10, strings.Count(ctx.ContinuationPrompt, "- `/w/f"))
}

func TestGenerate_NotFound(t *testing.T) {
	_, err := newSynth(t.TempDir()).Generate("missing", DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, claude.ErrSessionNotFound))
}

func TestGenerate_WithoutArtifactSource(t *testing.T) {
	root := t.TempDir()
	writeLog(t, root, "-p", "s1", write(t, "2025-01-01T10:01:00Z", "/w/a.go"))

	ctx, err := New(claude.NewStore(root), WithTokenCounter(lenCounter{})).Generate("s1", DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, ctx.KeyFiles)
	assert.False(t, ctx.IsActive)
}

func TestApproxCounter(t *testing.T) {
	assert.Equal(t, 0, ApproxCounter{}.Count(""))
	assert.Equal(t, 1, ApproxCounter{}.Count("abc"))
	assert.Equal(t, 2, ApproxCounter{}.Count("abcde"))
}

func TestTiktokenCounter_EmbeddedEncoding(t *testing.T) {
	c := NewTiktokenCounter()
	assert.Equal(t, 2, c.Count("hello world"))
	assert.NotEqual(t, ApproxCounter{}.Count("hello world"), c.Count("hello world"))
	require.NotNil(t, c.enc, "encoding loads from embedded ranks")
	assert.Equal(t, 0, c.Count(""))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "ab", truncate("abc", 2))
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "", truncate("abc", 0))
}
