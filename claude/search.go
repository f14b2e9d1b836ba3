package claude

import (
	"bytes"
	"os"
	"strings"

	"github.com/abhitsian/claude-session-manager/claude/models"
	"github.com/abhitsian/claude-session-manager/log"
)

// Search returns the sessions matching query, case-insensitively, in List
// order. A session matches on its summaries, then its project path, and
// only when searchContent is set, on the raw contents of its log file.
func (s *Store) Search(query string, searchContent bool) []*models.SessionMetadata {
	q := strings.ToLower(query)
	results := []*models.SessionMetadata{}

	for _, session := range s.List() {
		if matchesSummary(session, q) || strings.Contains(strings.ToLower(session.ProjectPath), q) {
			results = append(results, session)
			continue
		}
		if searchContent && s.contentContains(session.FilePath, q) {
			results = append(results, session)
		}
	}
	return results
}

func matchesSummary(session *models.SessionMetadata, q string) bool {
	for _, summary := range session.Summaries {
		if strings.Contains(strings.ToLower(summary), q) {
			return true
		}
	}
	return false
}

// contentContains reads the whole log; unreadable files never match.
func (s *Store) contentContains(path, q string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("skipping unreadable session in content search")
		return false
	}
	return bytes.Contains(bytes.ToLower(data), []byte(q))
}
