package claude

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/abhitsian/claude-session-manager/claude/models"
	"github.com/abhitsian/claude-session-manager/log"
)

const (
	// StatsArtifactLimit caps how many recent artifacts Stats summarizes.
	StatsArtifactLimit = 1000

	// MaxArtifactContent is the number of characters Content returns.
	MaxArtifactContent = 10000
)

// ErrBinaryArtifact is returned by Content for image and data files.
var ErrBinaryArtifact = errors.New("artifact content is not text")

// ArtifactExtractor finds files created or edited by Write and Edit tool
// calls in session logs.
type ArtifactExtractor struct {
	store *Store
}

// NewArtifactExtractor creates an extractor over the sessions of store.
func NewArtifactExtractor(store *Store) *ArtifactExtractor {
	return &ArtifactExtractor{store: store}
}

// SessionArtifacts returns the files touched in one session, in the order
// they were first seen. A path touched several times is reported once,
// with the attributes of its latest operation.
func (e *ArtifactExtractor) SessionArtifacts(id string) ([]*models.Artifact, error) {
	f, err := e.store.findSessionFile(id)
	if err != nil {
		return nil, err
	}
	return e.extract(f)
}

// All returns the latest artifact per path across every session, most
// recent first. limit <= 0 returns everything.
func (e *ArtifactExtractor) All(limit int) []*models.Artifact {
	start := time.Now()
	defer func() { e.store.observer.ObserveScan("artifacts", time.Since(start)) }()

	files := e.store.sessionFiles()
	perSession := make([][]*models.Artifact, len(files))

	var g errgroup.Group
	g.SetLimit(e.store.workers)
	for i, f := range files {
		g.Go(func() error {
			arts, err := e.extract(f)
			if err != nil {
				log.Warn().Err(err).Str("sessionId", f.ID).Msg("failed to extract artifacts")
				return nil
			}
			perSession[i] = arts
			return nil
		})
	}
	_ = g.Wait()

	// Merge in scan order so equal timestamps resolve the same way every time
	latest := newArtifactSet()
	for _, arts := range perSession {
		for _, a := range arts {
			latest.offer(a)
		}
	}

	all := latest.list()
	slices.SortStableFunc(all, func(a, b *models.Artifact) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return strings.Compare(a.FilePath, b.FilePath)
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}

// Lookup returns the latest artifact recorded for path in any session.
func (e *ArtifactExtractor) Lookup(path string) (*models.Artifact, bool) {
	for _, a := range e.All(0) {
		if a.FilePath == path {
			return a, true
		}
	}
	return nil, false
}

// Stats summarizes the StatsArtifactLimit most recent artifacts.
func (e *ArtifactExtractor) Stats() *models.ArtifactStats {
	stats := &models.ArtifactStats{
		ByType:    map[string]int{},
		BySession: map[string]int{},
	}
	for _, a := range e.All(StatsArtifactLimit) {
		stats.TotalArtifacts++
		stats.ByType[a.FileType]++
		stats.BySession[a.SessionID]++
		stats.TotalSizeBytes += a.SizeBytes
	}
	stats.SessionsWithArtifacts = len(stats.BySession)
	return stats
}

// Content returns up to MaxArtifactContent characters of a text file's
// current contents.
func (e *ArtifactExtractor) Content(path string) (string, error) {
	if IsBinaryType(ClassifyFile(path)) {
		return "", ErrBinaryArtifact
	}
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open artifact: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxArtifactContent*utf8.UTFMax))
	if err != nil {
		return "", fmt.Errorf("failed to read artifact: %w", err)
	}
	return truncateRunes(string(data), MaxArtifactContent), nil
}

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// extract scans one session log for artifacts.
func (e *ArtifactExtractor) extract(f sessionFile) ([]*models.Artifact, error) {
	set := newArtifactSet()
	err := eachLine(f.Path, func(line []byte) bool {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			return true
		}
		var rec models.RawRecord
		if err := decodeLenient(line, &rec); err != nil {
			return true
		}
		ts, ok := parseTimestamp(rec.Timestamp)
		if !ok {
			ts = e.store.now().UTC()
		}
		for _, a := range artifactsInRecord(&rec) {
			a.SessionID = f.ID
			a.Timestamp = ts
			set.offer(a)
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	arts := set.list()
	for _, a := range arts {
		describeArtifact(a)
	}
	return arts, nil
}

// artifactsInRecord recognizes file operations in a record: a tool result
// naming a file and an operation, and Write or Edit tool_use blocks.
func artifactsInRecord(rec *models.RawRecord) []*models.Artifact {
	var found []*models.Artifact

	if len(rec.ToolUseResult) > 0 && rec.ToolUseResult[0] == '{' {
		var result models.ToolUseResult
		if err := decodeLenient(rec.ToolUseResult, &result); err == nil && result.FilePath != "" && result.Type != "" {
			found = append(found, &models.Artifact{
				FilePath:  result.FilePath,
				Operation: result.Type,
				SizeBytes: result.ContentSize(),
			})
		}
	}

	if rec.Message != nil {
		for _, block := range decodeContent(rec.Message.Content).Blocks {
			if block.Type != "tool_use" {
				continue
			}
			path := block.InputString("file_path")
			if path == "" {
				continue
			}
			switch block.Name {
			case "Write":
				found = append(found, &models.Artifact{
					FilePath:  path,
					Operation: models.OperationCreate,
					SizeBytes: len(block.InputString("content")),
				})
			case "Edit":
				found = append(found, &models.Artifact{
					FilePath:  path,
					Operation: models.OperationEdit,
					SizeBytes: len(block.InputString("new_string")),
				})
			}
		}
	}

	return found
}

// describeArtifact fills in the fields derived from the path and the
// filesystem.
func describeArtifact(a *models.Artifact) {
	a.FileName = filepath.Base(a.FilePath)
	a.FileType = ClassifyFile(a.FilePath)
	_, err := os.Stat(a.FilePath)
	a.Exists = err == nil
	a.MimeType = DetectMimeType(a.FilePath, a.Exists)
}

// artifactSet keeps one artifact per path, replacing it only when a
// strictly later one arrives. Paths keep the position they were first
// seen at.
type artifactSet struct {
	byPath map[string]int
	items  []*models.Artifact
}

func newArtifactSet() *artifactSet {
	return &artifactSet{byPath: make(map[string]int)}
}

func (s *artifactSet) offer(a *models.Artifact) {
	i, ok := s.byPath[a.FilePath]
	if !ok {
		s.byPath[a.FilePath] = len(s.items)
		s.items = append(s.items, a)
		return
	}
	if a.Timestamp.After(s.items[i].Timestamp) {
		s.items[i] = a
	}
}

func (s *artifactSet) list() []*models.Artifact {
	if s.items == nil {
		return []*models.Artifact{}
	}
	return s.items
}
