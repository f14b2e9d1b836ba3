package api

import (
	"errors"
	"math"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/abhitsian/claude-session-manager/claude"
	"github.com/abhitsian/claude-session-manager/claude/models"
	"github.com/abhitsian/claude-session-manager/continuation"
	"github.com/abhitsian/claude-session-manager/log"
)

const (
	maxMessagesPageSize = 500
	defaultMessagesPage = 100
	maxContextMessages  = 100
	minSearchQuery      = 2
)

// SessionListResponse is returned by GET /api/sessions
type SessionListResponse struct {
	Sessions    []*models.SessionMetadata `json:"sessions"`
	Total       int                       `json:"total"`
	ActiveCount int                       `json:"active_count"`
}

// ActiveSessionsResponse is returned by GET /api/sessions/active
type ActiveSessionsResponse struct {
	Sessions        []*models.SessionMetadata `json:"sessions"`
	LatestSessionID *string                   `json:"latest_session_id"`
	Count           int                       `json:"count"`
}

// SessionDetailResponse is returned by GET /api/sessions/:id
type SessionDetailResponse struct {
	Session *models.SessionMetadata `json:"session"`
	Todos   []models.TodoItem       `json:"todos"`
}

// MessagesResponse is returned by GET /api/sessions/:id/messages
type MessagesResponse struct {
	Messages []*models.ConversationMessage `json:"messages"`
	Total    int                           `json:"total"` // user + assistant messages in the session
	HasMore  bool                          `json:"has_more"`
}

// SearchResponse is returned by GET /api/search
type SearchResponse struct {
	Results []*models.SessionMetadata `json:"results"`
	Total   int                       `json:"total"`
	Query   string                    `json:"query"`
}

// ListSessions handles GET /api/sessions
func (h *Handlers) ListSessions(c *gin.Context) {
	cfg := h.server.Config()
	limit, ok := queryInt(c, "limit", cfg.DefaultPageSize, 1, cfg.MaxPageSize)
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset", 0, 0, math.MaxInt)
	if !ok {
		return
	}
	activeOnly, ok := queryBool(c, "active_only", false)
	if !ok {
		return
	}

	sessions := h.server.Store().List()
	snapshot := h.server.Activity().Snapshot()
	for _, s := range sessions {
		s.IsActive = snapshot.IsActive(s.SessionID)
	}
	if activeOnly {
		sessions = slices.DeleteFunc(sessions, func(s *models.SessionMetadata) bool { return !s.IsActive })
	}

	c.JSON(http.StatusOK, SessionListResponse{
		Sessions:    page(sessions, offset, limit),
		Total:       len(sessions),
		ActiveCount: len(snapshot.Active),
	})
}

// GetActiveSessions handles GET /api/sessions/active
func (h *Handlers) GetActiveSessions(c *gin.Context) {
	snapshot := h.server.Activity().Snapshot()

	sessions := []*models.SessionMetadata{}
	for _, id := range snapshot.Active {
		meta, err := h.server.Store().Get(id)
		if err != nil {
			// Liveness files can outlive or predate their session log
			continue
		}
		meta.IsActive = true
		sessions = append(sessions, meta)
	}
	slices.SortStableFunc(sessions, func(a, b *models.SessionMetadata) int {
		return b.LastActivity.Compare(a.LastActivity)
	})

	resp := ActiveSessionsResponse{Sessions: sessions, Count: len(sessions)}
	if snapshot.Latest != "" {
		resp.LatestSessionID = &snapshot.Latest
	}
	c.JSON(http.StatusOK, resp)
}

// GetSession handles GET /api/sessions/:id
func (h *Handlers) GetSession(c *gin.Context) {
	id := c.Param("id")
	meta, ok := h.lookupSession(c, id)
	if !ok {
		return
	}
	meta.IsActive = h.server.Activity().IsSessionActive(id)

	c.JSON(http.StatusOK, SessionDetailResponse{
		Session: meta,
		Todos:   h.server.Store().Todos(id),
	})
}

// GetSessionMessages handles GET /api/sessions/:id/messages
func (h *Handlers) GetSessionMessages(c *gin.Context) {
	id := c.Param("id")
	limit, ok := queryInt(c, "limit", defaultMessagesPage, 1, maxMessagesPageSize)
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset", 0, 0, math.MaxInt)
	if !ok {
		return
	}

	meta, ok := h.lookupSession(c, id)
	if !ok {
		return
	}
	messages, err := h.server.Store().Messages(id, limit, offset)
	if err != nil {
		h.respondSessionError(c, id, err)
		return
	}

	total := meta.UserMessageCount + meta.AssistantMessageCount
	c.JSON(http.StatusOK, MessagesResponse{
		Messages: messages,
		Total:    total,
		HasMore:  offset+len(messages) < total,
	})
}

// GetSessionArtifacts handles GET /api/sessions/:id/artifacts
func (h *Handlers) GetSessionArtifacts(c *gin.Context) {
	id := c.Param("id")
	artifacts, err := h.server.Artifacts().SessionArtifacts(id)
	if err != nil {
		h.respondSessionError(c, id, err)
		return
	}
	c.JSON(http.StatusOK, ArtifactListResponse{Artifacts: artifacts, Total: len(artifacts)})
}

// GenerateContext handles GET and POST /api/sessions/:id/context.
// With format=markdown the continuation document is returned as text.
func (h *Handlers) GenerateContext(c *gin.Context) {
	id := c.Param("id")
	defaults := continuation.DefaultOptions()

	includeFiles, ok := queryBool(c, "include_files", defaults.IncludeFiles)
	if !ok {
		return
	}
	includeTodos, ok := queryBool(c, "include_todos", defaults.IncludeTodos)
	if !ok {
		return
	}
	maxMessages, ok := queryInt(c, "max_messages", defaults.MaxRecentMessages, 0, maxContextMessages)
	if !ok {
		return
	}

	ctx, err := h.server.Synthesizer().Generate(id, continuation.Options{
		IncludeFiles:      includeFiles,
		IncludeTodos:      includeTodos,
		MaxRecentMessages: maxMessages,
	})
	if err != nil {
		h.respondSessionError(c, id, err)
		return
	}

	if c.Query("format") == "markdown" {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(ctx.ContinuationPrompt))
		return
	}
	c.JSON(http.StatusOK, ctx)
}

// GetStats handles GET /api/stats
func (h *Handlers) GetStats(c *gin.Context) {
	stats := h.server.Store().Stats()
	stats.ActiveSessions = len(h.server.Activity().ActiveSessions())
	c.JSON(http.StatusOK, stats)
}

// SearchSessions handles GET /api/search
func (h *Handlers) SearchSessions(c *gin.Context) {
	query := c.Query("q")
	if len([]rune(strings.TrimSpace(query))) < minSearchQuery {
		RespondValidationError(c, "invalid query parameter", []ErrorDetail{
			{Field: "q", Message: "must be at least 2 characters"},
		})
		return
	}
	searchContent, ok := queryBool(c, "search_content", false)
	if !ok {
		return
	}

	results := h.server.Store().Search(query, searchContent)
	snapshot := h.server.Activity().Snapshot()
	for _, s := range results {
		s.IsActive = snapshot.IsActive(s.SessionID)
	}

	c.JSON(http.StatusOK, SearchResponse{Results: results, Total: len(results), Query: query})
}

// lookupSession resolves a session or writes the error response.
func (h *Handlers) lookupSession(c *gin.Context, id string) (*models.SessionMetadata, bool) {
	meta, err := h.server.Store().Get(id)
	if err != nil {
		h.respondSessionError(c, id, err)
		return nil, false
	}
	return meta, true
}

func (h *Handlers) respondSessionError(c *gin.Context, id string, err error) {
	if errors.Is(err, claude.ErrSessionNotFound) {
		RespondNotFound(c, "Session not found")
		return
	}
	log.Error().Err(err).Str("sessionId", id).Msg("session request failed")
	RespondInternalError(c, "Failed to read session")
}

// page applies offset and limit to items.
func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := min(offset+limit, len(items))
	return items[offset:end]
}
