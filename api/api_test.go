package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhitsian/claude-session-manager/config"
	"github.com/abhitsian/claude-session-manager/log"
	"github.com/abhitsian/claude-session-manager/server"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type lenCounter struct{}

func (lenCounter) Count(text string) int { return len(text) }

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	log.SetOutput(io.Discard, "disabled")
	os.Exit(m.Run())
}

func line(t *testing.T, v map[string]any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

// fixture lays out two sessions: s1 is active and wrote two files, s2 is
// older and idle.
type fixture struct {
	root     string
	codePath string
	pngPath  string
	router   *gin.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{
		root:     root,
		codePath: filepath.Join(root, "work", "main.go"),
		pngPath:  filepath.Join(root, "work", "logo.png"),
	}

	require.NoError(t, os.MkdirAll(filepath.Join(root, "work"), 0o755))
	require.NoError(t, os.WriteFile(f.codePath, []byte("package main\n"), 0o644))

	project := filepath.Join(root, "projects", "-Users-me-app")
	require.NoError(t, os.MkdirAll(project, 0o755))

	s1 := []string{
		line(t, map[string]any{"type": "summary", "summary": "Build the CLI", "timestamp": "2025-06-01T11:40:00Z"}),
		line(t, map[string]any{
			"type": "user", "uuid": "u1", "timestamp": "2025-06-01T11:40:00Z",
			"message": map[string]any{"role": "user", "content": "write a main package"},
		}),
		line(t, map[string]any{
			"type": "assistant", "uuid": "a1", "timestamp": "2025-06-01T11:41:00Z",
			"message": map[string]any{
				"role": "assistant", "model": "claude-sonnet-4",
				"content": []any{
					map[string]any{"type": "text", "text": "Writing it now"},
					map[string]any{"type": "tool_use", "id": "t1", "name": "Write", "input": map[string]any{
						"file_path": f.codePath, "content": "package main\n",
					}},
					map[string]any{"type": "tool_use", "id": "t2", "name": "Write", "input": map[string]any{
						"file_path": f.pngPath, "content": "png",
					}},
				},
				"usage": map[string]any{"input_tokens": 10, "output_tokens": 20},
			},
		}),
		line(t, map[string]any{
			"type": "user", "uuid": "u2", "timestamp": "2025-06-01T11:50:00Z",
			"message": map[string]any{"role": "user", "content": "thanks"},
		}),
	}
	s2 := []string{
		line(t, map[string]any{
			"type": "user", "uuid": "u3", "timestamp": "2025-05-30T09:00:00Z",
			"message": map[string]any{"role": "user", "content": "fix the flaky test"},
		}),
	}
	require.NoError(t, os.WriteFile(filepath.Join(project, "s1.jsonl"), []byte(strings.Join(s1, "\n")+"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(project, "s2.jsonl"), []byte(strings.Join(s2, "\n")+"\n"), 0o644))

	debug := filepath.Join(root, "debug")
	require.NoError(t, os.MkdirAll(debug, 0o755))
	for id, age := range map[string]time.Duration{"s1": time.Minute, "s2": 48 * time.Hour} {
		path := filepath.Join(debug, id+".txt")
		require.NoError(t, os.WriteFile(path, nil, 0o644))
		mtime := fixedNow.Add(-age)
		require.NoError(t, os.Chtimes(path, mtime, mtime))
	}

	todos := filepath.Join(root, "todos")
	require.NoError(t, os.MkdirAll(todos, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(todos, "s1.json"),
		[]byte(`[{"content":"add tests","status":"in_progress"}]`), 0o644))

	cfg := config.Default()
	cfg.ClaudeDir = root
	srv := server.New(cfg,
		server.WithTokenCounter(lenCounter{}),
		server.WithClock(func() time.Time { return fixedNow }),
	)
	SetupRoutes(srv.Router(), NewHandlers(srv))
	f.router = srv.Router()
	return f
}

func (f *fixture) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestListSessions(t *testing.T) {
	f := newFixture(t)

	w := f.get(t, "/api/sessions")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[SessionListResponse](t, w)

	require.Len(t, resp.Sessions, 2)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 1, resp.ActiveCount)
	assert.Equal(t, "s1", resp.Sessions[0].SessionID)
	assert.True(t, resp.Sessions[0].IsActive)
	assert.False(t, resp.Sessions[1].IsActive)
	assert.Equal(t, "/Users/me/app", resp.Sessions[0].ProjectPath)
}

func TestListSessions_Paging(t *testing.T) {
	f := newFixture(t)

	resp := decode[SessionListResponse](t, f.get(t, "/api/sessions?limit=1&offset=1"))
	require.Len(t, resp.Sessions, 1)
	assert.Equal(t, "s2", resp.Sessions[0].SessionID)
	assert.Equal(t, 2, resp.Total)

	resp = decode[SessionListResponse](t, f.get(t, "/api/sessions?offset=10"))
	assert.Empty(t, resp.Sessions)
	assert.NotNil(t, resp.Sessions)
}

func TestListSessions_ActiveOnly(t *testing.T) {
	f := newFixture(t)

	resp := decode[SessionListResponse](t, f.get(t, "/api/sessions?active_only=true"))
	require.Len(t, resp.Sessions, 1)
	assert.Equal(t, "s1", resp.Sessions[0].SessionID)
	assert.Equal(t, 1, resp.Total)
}

func TestListSessions_InvalidParams(t *testing.T) {
	f := newFixture(t)

	for _, target := range []string{
		"/api/sessions?limit=0",
		"/api/sessions?limit=abc",
		"/api/sessions?limit=201",
		"/api/sessions?offset=-1",
		"/api/sessions?active_only=maybe",
	} {
		w := f.get(t, target)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
		resp := decode[ErrorResponse](t, w)
		assert.Equal(t, ErrCodeValidation, resp.Error.Code, target)
	}
}

func TestGetActiveSessions(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.Symlink(filepath.Join(f.root, "debug", "s2.txt"), filepath.Join(f.root, "debug", "latest")))

	resp := decode[ActiveSessionsResponse](t, f.get(t, "/api/sessions/active"))
	require.Equal(t, 2, resp.Count)
	require.NotNil(t, resp.LatestSessionID)
	assert.Equal(t, "s2", *resp.LatestSessionID)
	assert.Equal(t, "s1", resp.Sessions[0].SessionID)
	assert.Equal(t, "s2", resp.Sessions[1].SessionID)
	for _, s := range resp.Sessions {
		assert.True(t, s.IsActive)
	}
}

func TestGetActiveSessions_SkipsUnknownIDs(t *testing.T) {
	f := newFixture(t)
	ghost := filepath.Join(f.root, "debug", "ghost.txt")
	require.NoError(t, os.WriteFile(ghost, nil, 0o644))
	require.NoError(t, os.Chtimes(ghost, fixedNow, fixedNow))

	resp := decode[ActiveSessionsResponse](t, f.get(t, "/api/sessions/active"))
	assert.Equal(t, 1, resp.Count)
	assert.Nil(t, resp.LatestSessionID)
}

func TestGetSession(t *testing.T) {
	f := newFixture(t)

	w := f.get(t, "/api/sessions/s1")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[SessionDetailResponse](t, w)

	assert.Equal(t, "s1", resp.Session.SessionID)
	assert.True(t, resp.Session.IsActive)
	assert.Equal(t, []string{"Build the CLI"}, resp.Session.Summaries)
	assert.Equal(t, "claude-sonnet-4", resp.Session.ModelUsed)
	require.Len(t, resp.Todos, 1)
	assert.Equal(t, "add tests", resp.Todos[0].Content)
}

func TestGetSession_NotFound(t *testing.T) {
	f := newFixture(t)

	for _, target := range []string{"/api/sessions/missing", "/api/sessions/..", "/api/sessions/missing/messages"} {
		w := f.get(t, target)
		assert.Equal(t, http.StatusNotFound, w.Code, target)
	}
}

func TestGetSessionMessages(t *testing.T) {
	f := newFixture(t)

	resp := decode[MessagesResponse](t, f.get(t, "/api/sessions/s1/messages?limit=2"))
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, 3, resp.Total)
	assert.True(t, resp.HasMore)
	assert.Equal(t, "write a main package", resp.Messages[0].Content)
	require.Len(t, resp.Messages[1].ToolCalls, 2)
	assert.Equal(t, "Write", resp.Messages[1].ToolCalls[0].Name)

	resp = decode[MessagesResponse](t, f.get(t, "/api/sessions/s1/messages?offset=2"))
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "thanks", resp.Messages[0].Content)
	assert.False(t, resp.HasMore)

	w := f.get(t, "/api/sessions/s1/messages?limit=501")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSessionArtifacts(t *testing.T) {
	f := newFixture(t)

	resp := decode[ArtifactListResponse](t, f.get(t, "/api/sessions/s1/artifacts"))
	require.Equal(t, 2, resp.Total)
	assert.Equal(t, f.codePath, resp.Artifacts[0].FilePath)
	assert.Equal(t, "code", resp.Artifacts[0].FileType)
	assert.True(t, resp.Artifacts[0].Exists)
	assert.False(t, resp.Artifacts[1].Exists)

	resp = decode[ArtifactListResponse](t, f.get(t, "/api/sessions/s2/artifacts"))
	assert.Equal(t, 0, resp.Total)
	assert.NotNil(t, resp.Artifacts)
}

func TestGenerateContext(t *testing.T) {
	f := newFixture(t)

	w := f.get(t, "/api/sessions/s1/context?max_messages=2")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	prompt, _ := resp["continuation_prompt"].(string)
	assert.Equal(t, "claude --resume s1", resp["resume_command"])
	assert.Equal(t, true, resp["is_active"])
	assert.Contains(t, prompt, "Build the CLI")
	assert.Contains(t, prompt, "add tests")
	assert.Equal(t, float64(len(prompt)), resp["estimated_tokens"])
}

func TestGenerateContext_Post(t *testing.T) {
	f := newFixture(t)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/sessions/s1/context?include_todos=false", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "add tests")
}

func TestGenerateContext_Markdown(t *testing.T) {
	f := newFixture(t)

	w := f.get(t, "/api/sessions/s1/context?format=markdown")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/markdown"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "# "))
}

func TestGenerateContext_Errors(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusNotFound, f.get(t, "/api/sessions/missing/context").Code)
	assert.Equal(t, http.StatusBadRequest, f.get(t, "/api/sessions/s1/context?max_messages=101").Code)
	assert.Equal(t, http.StatusBadRequest, f.get(t, "/api/sessions/s1/context?include_files=nope").Code)
}

func TestGetStats_Recomputed(t *testing.T) {
	f := newFixture(t)

	w := f.get(t, "/api/stats")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(2), resp["total_sessions"])
	assert.Equal(t, float64(1), resp["active_sessions"])
	assert.Equal(t, false, resp["from_cache"])
	assert.Equal(t, []any{}, resp["daily_activity"])
	assert.Equal(t, map[string]any{}, resp["model_usage"])
}

func TestGetStats_FromCache(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(f.root, "stats-cache.json"),
		[]byte(`{"totalSessions":40,"totalMessages":900,"firstSessionDate":"2025-01-01T00:00:00Z"}`), 0o644))

	var resp map[string]any
	require.NoError(t, json.Unmarshal(f.get(t, "/api/stats").Body.Bytes(), &resp))
	assert.Equal(t, float64(40), resp["total_sessions"])
	assert.Equal(t, float64(900), resp["total_messages"])
	assert.Equal(t, true, resp["from_cache"])
}

func TestSearchSessions(t *testing.T) {
	f := newFixture(t)

	resp := decode[SearchResponse](t, f.get(t, "/api/search?q=cli"))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "s1", resp.Results[0].SessionID)
	assert.Equal(t, "cli", resp.Query)

	resp = decode[SearchResponse](t, f.get(t, "/api/search?q=flaky"))
	assert.Equal(t, 0, resp.Total)

	resp = decode[SearchResponse](t, f.get(t, "/api/search?q=flaky&search_content=true"))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "s2", resp.Results[0].SessionID)
}

func TestSearchSessions_ShortQuery(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusBadRequest, f.get(t, "/api/search?q=a").Code)
	assert.Equal(t, http.StatusBadRequest, f.get(t, "/api/search").Code)
}

func TestListArtifacts(t *testing.T) {
	f := newFixture(t)

	resp := decode[ArtifactListResponse](t, f.get(t, "/api/artifacts"))
	assert.Equal(t, 2, resp.Total)

	resp = decode[ArtifactListResponse](t, f.get(t, "/api/artifacts?limit=1"))
	assert.Len(t, resp.Artifacts, 1)

	assert.Equal(t, http.StatusBadRequest, f.get(t, "/api/artifacts?limit=1001").Code)
}

func TestGetArtifactStats(t *testing.T) {
	f := newFixture(t)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(f.get(t, "/api/artifacts/stats").Body.Bytes(), &resp))
	assert.Equal(t, float64(2), resp["total_artifacts"])
	assert.Equal(t, float64(1), resp["sessions_with_artifacts"])
}

func TestGetArtifactContent(t *testing.T) {
	f := newFixture(t)

	w := f.get(t, "/api/artifacts/content?path="+f.codePath)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[ArtifactContentResponse](t, w)
	assert.Equal(t, "package main\n", resp.Content)
	assert.Equal(t, "code", resp.FileType)
	assert.Equal(t, "text/x-go", resp.MimeType)
}

func TestGetArtifactContent_Errors(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusBadRequest, f.get(t, "/api/artifacts/content").Code)
	assert.Equal(t, http.StatusNotFound, f.get(t, "/api/artifacts/content?path=/etc/passwd").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, f.get(t, "/api/artifacts/content?path="+f.pngPath).Code)

	require.NoError(t, os.Remove(f.codePath))
	assert.Equal(t, http.StatusNotFound, f.get(t, "/api/artifacts/content?path="+f.codePath).Code)
}
