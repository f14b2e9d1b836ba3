package claude

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/abhitsian/claude-session-manager/claude/models"
	"github.com/abhitsian/claude-session-manager/log"
)

// Stats returns usage statistics. They come from stats-cache.json when it
// can be read; otherwise totals are recomputed from the session logs and
// the cache-only fields stay empty. Daily activity and model usage are
// always a JSON array and object. ActiveSessions is left for the caller.
func (s *Store) Stats() *models.SessionStats {
	if stats, ok := s.cachedStats(); ok {
		return stats
	}

	sessions := s.List()
	stats := &models.SessionStats{
		TotalSessions: len(sessions),
		DailyActivity: emptyDailyActivity(),
		ModelUsage:    emptyModelUsage(),
	}
	for _, session := range sessions {
		stats.TotalMessages += session.MessageCount
	}
	return stats
}

func (s *Store) cachedStats() (*models.SessionStats, bool) {
	path := s.layout.StatsCachePath()
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("path", path).Msg("failed to read stats cache, recomputing")
		}
		return nil, false
	}

	var cache models.StatsCache
	if err := json.Unmarshal(data, &cache); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("invalid stats cache, recomputing")
		return nil, false
	}

	stats := &models.SessionStats{
		TotalSessions:    cache.TotalSessions,
		TotalMessages:    cache.TotalMessages,
		DailyActivity:    cache.DailyActivity,
		ModelUsage:       cache.ModelUsage,
		LongestSession:   cache.LongestSession,
		FirstSessionDate: cache.FirstSessionDate,
		FromCache:        true,
	}
	if len(stats.DailyActivity) == 0 {
		stats.DailyActivity = emptyDailyActivity()
	}
	if len(stats.ModelUsage) == 0 {
		stats.ModelUsage = emptyModelUsage()
	}
	return stats, true
}

func emptyDailyActivity() json.RawMessage { return json.RawMessage("[]") }

func emptyModelUsage() json.RawMessage { return json.RawMessage("{}") }
