package api

import (
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/abhitsian/claude-session-manager/claude"
	"github.com/abhitsian/claude-session-manager/claude/models"
	"github.com/abhitsian/claude-session-manager/log"
)

// ArtifactListResponse is returned by the artifact list endpoints
type ArtifactListResponse struct {
	Artifacts []*models.Artifact `json:"artifacts"`
	Total     int                `json:"total"`
}

// ArtifactContentResponse is returned by GET /api/artifacts/content
type ArtifactContentResponse struct {
	FilePath string `json:"file_path"`
	FileType string `json:"file_type"`
	MimeType string `json:"mime_type"`
	Content  string `json:"content"`
}

// ListArtifacts handles GET /api/artifacts
func (h *Handlers) ListArtifacts(c *gin.Context) {
	limit, ok := queryInt(c, "limit", h.server.Config().MaxArtifacts, 1, claude.StatsArtifactLimit)
	if !ok {
		return
	}
	artifacts := h.server.Artifacts().All(limit)
	c.JSON(http.StatusOK, ArtifactListResponse{Artifacts: artifacts, Total: len(artifacts)})
}

// GetArtifactStats handles GET /api/artifacts/stats
func (h *Handlers) GetArtifactStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.server.Artifacts().Stats())
}

// GetArtifactContent handles GET /api/artifacts/content?path=...
// Only files that some session created or edited are served.
func (h *Handlers) GetArtifactContent(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		RespondBadRequest(c, "path is required")
		return
	}

	artifact, ok := h.server.Artifacts().Lookup(path)
	if !ok {
		RespondNotFound(c, "Artifact not found")
		return
	}

	content, err := h.server.Artifacts().Content(path)
	switch {
	case errors.Is(err, claude.ErrBinaryArtifact):
		RespondUnprocessable(c, "Content not available for binary files")
		return
	case errors.Is(err, os.ErrNotExist):
		RespondNotFound(c, "Artifact no longer exists")
		return
	case err != nil:
		log.Error().Err(err).Str("path", path).Msg("failed to read artifact")
		RespondInternalError(c, "Failed to read artifact")
		return
	}

	c.JSON(http.StatusOK, ArtifactContentResponse{
		FilePath: artifact.FilePath,
		FileType: artifact.FileType,
		MimeType: artifact.MimeType,
		Content:  content,
	})
}
