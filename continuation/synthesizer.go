package continuation

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/abhitsian/claude-session-manager/claude/models"
)

const (
	// MaxTailMessages caps how many messages are read from a session.
	MaxTailMessages = 1000

	maxKeyFiles         = 20
	maxSummaryTopics    = 5
	maxTopicChars       = 200
	noSummary           = "No summary available"
	recentTopicsHeading = "Recent topics discussed:"
)

// SessionSource is the part of claude.Store the synthesizer reads from.
type SessionSource interface {
	Get(id string) (*models.SessionMetadata, error)
	Tail(id string, n int) ([]*models.ConversationMessage, error)
	Todos(id string) []models.TodoItem
}

// ArtifactSource supplies the files a session touched.
type ArtifactSource interface {
	SessionArtifacts(id string) ([]*models.Artifact, error)
}

// ActivitySource reports whether a session is still running.
type ActivitySource interface {
	IsSessionActive(id string) bool
}

// Options selects what goes into a continuation context.
type Options struct {
	IncludeFiles      bool
	IncludeTodos      bool
	MaxRecentMessages int
}

// DefaultOptions includes files and todos and the last 10 messages.
func DefaultOptions() Options {
	return Options{IncludeFiles: true, IncludeTodos: true, MaxRecentMessages: 10}
}

// SessionContext is everything needed to resume a session elsewhere.
type SessionContext struct {
	SessionID          string                        `json:"session_id"`
	ProjectPath        string                        `json:"project_path"`
	StartTime          time.Time                     `json:"start_time"`
	LastActivity       time.Time                     `json:"last_activity"`
	DurationMinutes    int                           `json:"duration_minutes"`
	IsActive           bool                          `json:"is_active"`
	Summary            string                        `json:"summary"`
	KeyFiles           []string                      `json:"key_files"`
	PendingTodos       []models.TodoItem             `json:"pending_todos"`
	RecentMessages     []*models.ConversationMessage `json:"recent_messages"`
	ContinuationPrompt string                        `json:"continuation_prompt"`
	ResumeCommand      string                        `json:"resume_command"`
	EstimatedTokens    int                           `json:"estimated_tokens"`
}

// Synthesizer builds continuation contexts.
type Synthesizer struct {
	sessions  SessionSource
	artifacts ArtifactSource
	activity  ActivitySource
	tokens    TokenCounter
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithArtifacts enables key files. Without it the key file list is empty.
func WithArtifacts(a ArtifactSource) Option {
	return func(s *Synthesizer) { s.artifacts = a }
}

// WithActivity fills in SessionContext.IsActive.
func WithActivity(a ActivitySource) Option {
	return func(s *Synthesizer) { s.activity = a }
}

// WithTokenCounter replaces the default tiktoken counter.
func WithTokenCounter(c TokenCounter) Option {
	return func(s *Synthesizer) { s.tokens = c }
}

// New creates a Synthesizer reading sessions from sessions.
func New(sessions SessionSource, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		sessions: sessions,
		tokens:   NewTiktokenCounter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate builds the continuation context of a session. A session that
// cannot be found is an error.
func (s *Synthesizer) Generate(id string, opts Options) (*SessionContext, error) {
	meta, err := s.sessions.Get(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}

	recent := []*models.ConversationMessage{}
	if opts.MaxRecentMessages > 0 {
		recent, err = s.sessions.Tail(id, min(opts.MaxRecentMessages, MaxTailMessages))
		if err != nil {
			return nil, fmt.Errorf("failed to read messages of session %s: %w", id, err)
		}
	}

	todos := []models.TodoItem{}
	if opts.IncludeTodos {
		for _, todo := range s.sessions.Todos(id) {
			if todo.Status != models.TodoCompleted {
				todos = append(todos, todo)
			}
		}
	}

	keyFiles := []string{}
	if opts.IncludeFiles && s.artifacts != nil {
		keyFiles, err = s.keyFiles(id)
		if err != nil {
			return nil, err
		}
	}

	ctx := &SessionContext{
		SessionID:       meta.SessionID,
		ProjectPath:     meta.ProjectPath,
		StartTime:       meta.StartTime,
		LastActivity:    meta.LastActivity,
		DurationMinutes: meta.DurationMinutes(),
		Summary:         summarize(meta, recent),
		KeyFiles:        keyFiles,
		PendingTodos:    todos,
		RecentMessages:  recent,
		ResumeCommand:   ResumeCommand(meta.SessionID),
	}
	if s.activity != nil {
		ctx.IsActive = s.activity.IsSessionActive(id)
	}
	ctx.ContinuationPrompt = render(ctx, meta)
	ctx.EstimatedTokens = s.tokens.Count(ctx.ContinuationPrompt)
	return ctx, nil
}

// ResumeCommand is the shell command that reopens a session in Claude Code.
func ResumeCommand(id string) string {
	return "claude --resume " + id
}

// keyFiles returns the session's artifact paths, most recently touched
// first.
func (s *Synthesizer) keyFiles(id string) ([]string, error) {
	arts, err := s.artifacts.SessionArtifacts(id)
	if err != nil {
		return nil, fmt.Errorf("failed to extract artifacts of session %s: %w", id, err)
	}
	arts = slices.Clone(arts)
	slices.SortStableFunc(arts, func(a, b *models.Artifact) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return strings.Compare(a.FilePath, b.FilePath)
	})

	files := []string{}
	seen := make(map[string]bool)
	for _, a := range arts {
		if seen[a.FilePath] {
			continue
		}
		seen[a.FilePath] = true
		files = append(files, a.FilePath)
		if len(files) == maxKeyFiles {
			break
		}
	}
	return files, nil
}

// summarize prefers the stored summaries. Without any it lists the last
// user prompts of the recent window.
func summarize(meta *models.SessionMetadata, recent []*models.ConversationMessage) string {
	if len(meta.Summaries) > 0 {
		return strings.Join(meta.Summaries[:min(len(meta.Summaries), 3)], "\n")
	}

	var topics []string
	for _, msg := range recent {
		if msg.Type == models.TypeUser && strings.TrimSpace(msg.Content) != "" {
			topics = append(topics, truncate(msg.Content, maxTopicChars))
		}
	}
	if len(topics) == 0 {
		return noSummary
	}
	topics = topics[max(len(topics)-maxSummaryTopics, 0):]
	return recentTopicsHeading + "\n- " + strings.Join(topics, "\n- ")
}

// truncate cuts s to at most n characters.
func truncate(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
