package claude

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abhitsian/claude-session-manager/claude/models"
	"github.com/abhitsian/claude-session-manager/log"
)

// ErrSessionNotFound is returned when no log file with at least one valid
// record exists for a session id.
var ErrSessionNotFound = errors.New("session not found")

// maxSummaries is how many summary records are kept per session.
const maxSummaries = 3

// ScanObserver receives instrumentation events from full scans.
// *metrics.Metrics implements it.
type ScanObserver interface {
	SessionParsed()
	SessionParseFailed()
	ObserveScan(op string, d time.Duration)
}

type nopObserver struct{}

func (nopObserver) SessionParsed()                    {}
func (nopObserver) SessionParseFailed()               {}
func (nopObserver) ObserveScan(string, time.Duration) {}

// Store reconstructs sessions from the log files under a Claude data
// directory. It keeps no state between calls; every operation reads the
// files it needs.
type Store struct {
	layout   Layout
	workers  int
	now      func() time.Time
	observer ScanObserver
}

// Option configures a Store.
type Option func(*Store)

// WithScanWorkers bounds how many session files are parsed concurrently.
func WithScanWorkers(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithClock overrides the clock used for records without a usable timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithObserver attaches scan instrumentation.
func WithObserver(o ScanObserver) Option {
	return func(s *Store) {
		if o != nil {
			s.observer = o
		}
	}
}

// NewStore creates a Store rooted at claudeDir.
func NewStore(claudeDir string, opts ...Option) *Store {
	s := &Store{
		layout:   Layout{Root: claudeDir},
		workers:  8,
		now:      time.Now,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Layout returns the directory layout the store reads from.
func (s *Store) Layout() Layout { return s.layout }

// sessionFile is one candidate log discovered during a scan.
type sessionFile struct {
	ID         string
	ProjectDir string
	Path       string
}

// sessionFiles lists every session log, skipping sub-agent logs. Project
// directories are visited in lexical order and the first file seen for an
// id wins.
func (s *Store) sessionFiles() []sessionFile {
	projects, err := os.ReadDir(s.layout.ProjectsDir())
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("dir", s.layout.ProjectsDir()).Msg("failed to read projects directory")
		}
		return nil
	}

	seen := make(map[string]bool)
	var files []sessionFile
	for _, project := range projects {
		if !project.IsDir() {
			continue
		}
		projectDir := filepath.Join(s.layout.ProjectsDir(), project.Name())
		entries, err := os.ReadDir(projectDir)
		if err != nil {
			log.Warn().Err(err).Str("dir", projectDir).Msg("failed to read project directory")
			continue
		}
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || !strings.HasSuffix(name, sessionExt) {
				continue
			}
			id := strings.TrimSuffix(name, sessionExt)
			if strings.HasPrefix(id, agentPrefix) || seen[id] {
				continue
			}
			seen[id] = true
			files = append(files, sessionFile{
				ID:         id,
				ProjectDir: project.Name(),
				Path:       filepath.Join(projectDir, name),
			})
		}
	}
	return files
}

// findSessionFile locates the log for id in the first project directory
// that has one.
func (s *Store) findSessionFile(id string) (sessionFile, error) {
	if !validSessionID(id) {
		return sessionFile{}, ErrSessionNotFound
	}
	projects, err := os.ReadDir(s.layout.ProjectsDir())
	if err != nil {
		return sessionFile{}, ErrSessionNotFound
	}
	for _, project := range projects {
		if !project.IsDir() {
			continue
		}
		path := filepath.Join(s.layout.ProjectsDir(), project.Name(), id+sessionExt)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return sessionFile{ID: id, ProjectDir: project.Name(), Path: path}, nil
		}
	}
	return sessionFile{}, ErrSessionNotFound
}

// parseSession folds a session log into its metadata. It returns nil
// metadata and no error when the file holds no valid record.
func (s *Store) parseSession(f sessionFile) (*models.SessionMetadata, error) {
	meta := &models.SessionMetadata{
		SessionID:   f.ID,
		ProjectPath: decodeProjectPath(f.ProjectDir),
		FilePath:    f.Path,
		Summaries:   []string{},
	}

	for msg, err := range Messages(f.Path, s.now) {
		if err != nil {
			return nil, err
		}

		if meta.MessageCount == 0 || msg.Timestamp.Before(meta.StartTime) {
			meta.StartTime = msg.Timestamp
		}
		if meta.MessageCount == 0 || msg.Timestamp.After(meta.LastActivity) {
			meta.LastActivity = msg.Timestamp
		}
		meta.MessageCount++

		switch msg.Type {
		case models.TypeUser:
			meta.UserMessageCount++
		case models.TypeAssistant:
			meta.AssistantMessageCount++
			if msg.Model != "" {
				meta.ModelUsed = msg.Model
			}
			if msg.TokenUsage != nil {
				meta.TotalInputTokens += msg.TokenUsage.InputTokens
				meta.TotalOutputTokens += msg.TokenUsage.OutputTokens
			}
		case models.TypeSummary:
			if len(meta.Summaries) < maxSummaries {
				meta.Summaries = append(meta.Summaries, msg.Content)
			}
		}
	}

	if meta.MessageCount == 0 {
		return nil, nil
	}
	return meta, nil
}

// List returns metadata for every session, most recently active first.
// Files that cannot be read are logged and left out.
func (s *Store) List() []*models.SessionMetadata {
	start := time.Now()
	defer func() { s.observer.ObserveScan("list", time.Since(start)) }()

	files := s.sessionFiles()
	results := make([]*models.SessionMetadata, len(files))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, f := range files {
		g.Go(func() error {
			meta, err := s.parseSession(f)
			if err != nil {
				s.observer.SessionParseFailed()
				log.Warn().Err(err).Str("sessionId", f.ID).Str("path", f.Path).Msg("failed to parse session file")
				return nil
			}
			s.observer.SessionParsed()
			results[i] = meta
			return nil
		})
	}
	_ = g.Wait()

	sessions := slices.DeleteFunc(results, func(m *models.SessionMetadata) bool { return m == nil })
	sortByActivity(sessions)
	return sessions
}

// sortByActivity orders sessions by last activity descending, then id.
func sortByActivity(sessions []*models.SessionMetadata) {
	slices.SortStableFunc(sessions, func(a, b *models.SessionMetadata) int {
		if c := b.LastActivity.Compare(a.LastActivity); c != 0 {
			return c
		}
		return strings.Compare(a.SessionID, b.SessionID)
	})
}

// Get returns the metadata of one session.
func (s *Store) Get(id string) (*models.SessionMetadata, error) {
	f, err := s.findSessionFile(id)
	if err != nil {
		return nil, err
	}
	meta, err := s.parseSession(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse session %s: %w", id, err)
	}
	if meta == nil {
		return nil, ErrSessionNotFound
	}
	return meta, nil
}

// Messages returns the user and assistant messages of a session, skipping
// offset of them and returning at most limit.
func (s *Store) Messages(id string, limit, offset int) ([]*models.ConversationMessage, error) {
	f, err := s.findSessionFile(id)
	if err != nil {
		return nil, err
	}

	offset = max(offset, 0)
	messages := []*models.ConversationMessage{}
	if limit <= 0 {
		return messages, nil
	}

	index := 0
	for msg, err := range Conversation(f.Path, s.now) {
		if err != nil {
			return nil, fmt.Errorf("failed to read session %s: %w", id, err)
		}
		if index >= offset {
			messages = append(messages, msg)
			if len(messages) == limit {
				break
			}
		}
		index++
	}
	return messages, nil
}

// Tail returns up to the last n user and assistant messages of a session in
// chronological order. Only n messages are held in memory at a time.
func (s *Store) Tail(id string, n int) ([]*models.ConversationMessage, error) {
	f, err := s.findSessionFile(id)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return []*models.ConversationMessage{}, nil
	}

	ring := make([]*models.ConversationMessage, 0, min(n, 64))
	next := 0
	for msg, err := range Conversation(f.Path, s.now) {
		if err != nil {
			return nil, fmt.Errorf("failed to read session %s: %w", id, err)
		}
		if len(ring) < n {
			ring = append(ring, msg)
			continue
		}
		ring[next] = msg
		next = (next + 1) % n
	}

	if len(ring) < n {
		return ring, nil
	}
	return append(ring[next:len(ring):len(ring)], ring[:next]...), nil
}
