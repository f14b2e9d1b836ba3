package claude

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sessionIDs(t *testing.T, store *Store, query string, content bool) []string {
	t.Helper()
	ids := []string{}
	for _, s := range store.Search(query, content) {
		ids = append(ids, s.SessionID)
	}
	return ids
}

func TestSearch(t *testing.T) {
	root := t.TempDir()
	writeSession(t, root, "-Users-me-webapp", "by-path",
		userLine(t, "2025-01-03T10:00:00Z", "nothing"))
	writeSession(t, root, "-other", "by-summary",
		userLine(t, "2025-01-02T10:00:00Z", "nothing"),
		summaryLine(t, "2025-01-02T10:00:00Z", "Refactor the WebApp router"))
	writeSession(t, root, "-other", "by-content",
		userLine(t, "2025-01-01T10:00:00Z", "please fix the Flaky webapp test"))
	store := newTestStore(root)

	assert.Equal(t, []string{"by-path", "by-summary"}, sessionIDs(t, store, "WEBAPP", false))
	assert.Equal(t, []string{"by-path", "by-summary", "by-content"}, sessionIDs(t, store, "webapp", true))
}

func TestSearch_ContentOnlyToggle(t *testing.T) {
	root := t.TempDir()
	writeSession(t, root, "-proj", "s1",
		userLine(t, "2025-01-01T10:00:00Z", "the secret word is Pineapple"),
		summaryLine(t, "2025-01-01T10:00:00Z", "fruit talk"))
	store := newTestStore(root)

	assert.Empty(t, sessionIDs(t, store, "pineapple", false))
	assert.Equal(t, []string{"s1"}, sessionIDs(t, store, "pineapple", true))
}

func TestSearch_MatchesOnce(t *testing.T) {
	root := t.TempDir()
	writeSession(t, root, "-dup", "s1",
		userLine(t, "2025-01-01T10:00:00Z", "dup"),
		summaryLine(t, "2025-01-01T10:00:00Z", "dup"),
		summaryLine(t, "2025-01-01T10:00:00Z", "dup again"))

	assert.Equal(t, []string{"s1"}, sessionIDs(t, newTestStore(root), "dup", true))
}
