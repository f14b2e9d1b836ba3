package claude

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// DefaultActiveThreshold is how recently a liveness file must have been
// modified for its session to count as active.
const DefaultActiveThreshold = 5 * time.Minute

const (
	livenessExt   = ".txt"
	latestPointer = "latest"
)

// ActivityDetector classifies sessions as active from two signals in the
// debug directory: the "latest" symlink and per-session liveness files.
// Results are advisory; the files belong to another process and change
// without notice. Filesystem errors read as "not active".
type ActivityDetector struct {
	debugDir  string
	threshold time.Duration
	now       func() time.Time
}

// NewActivityDetector creates a detector for the debug directory of
// claudeDir. A non-positive threshold selects DefaultActiveThreshold.
func NewActivityDetector(claudeDir string, threshold time.Duration) *ActivityDetector {
	if threshold <= 0 {
		threshold = DefaultActiveThreshold
	}
	return &ActivityDetector{
		debugDir:  Layout{Root: claudeDir}.DebugDir(),
		threshold: threshold,
		now:       time.Now,
	}
}

// SetClock overrides the detector's clock. Not safe to call concurrently
// with detection.
func (d *ActivityDetector) SetClock(now func() time.Time) {
	d.now = now
}

// Threshold returns the configured staleness threshold.
func (d *ActivityDetector) Threshold() time.Duration { return d.threshold }

// LatestSessionID returns the session named by the debug/latest symlink,
// or "" when the link is missing, not a symlink or broken.
func (d *ActivityDetector) LatestSessionID() string {
	link := filepath.Join(d.debugDir, latestPointer)
	info, err := os.Lstat(link)
	if err != nil || info.Mode()&fs.ModeSymlink == 0 {
		return ""
	}
	target, err := filepath.EvalSymlinks(link)
	if err != nil {
		return ""
	}
	return fileStem(target)
}

func (d *ActivityDetector) recent(info fs.FileInfo) bool {
	return info.ModTime().After(d.now().Add(-d.threshold))
}

// ActiveSessions returns the sorted ids of sessions with a recent liveness
// file, plus the latest session.
func (d *ActivityDetector) ActiveSessions() []string {
	return d.activeSessions(d.LatestSessionID())
}

func (d *ActivityDetector) activeSessions(latest string) []string {
	active := make(map[string]bool)

	entries, err := os.ReadDir(d.debugDir)
	if err == nil {
		for _, entry := range entries {
			name := entry.Name()
			// The latest pointer is counted on its own below
			if entry.Type()&fs.ModeSymlink != 0 || entry.IsDir() || !strings.HasSuffix(name, livenessExt) {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if d.recent(info) {
				active[strings.TrimSuffix(name, livenessExt)] = true
			}
		}
	}

	if latest != "" {
		active[latest] = true
	}

	ids := make([]string, 0, len(active))
	for id := range active {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// IsSessionActive reports whether id is the latest session or has a recent
// liveness file.
func (d *ActivityDetector) IsSessionActive(id string) bool {
	if !validSessionID(id) {
		return false
	}
	if latest := d.LatestSessionID(); latest != "" && latest == id {
		return true
	}
	info, err := os.Stat(filepath.Join(d.debugDir, id+livenessExt))
	if err != nil {
		return false
	}
	return d.recent(info)
}

// Snapshot evaluates activity once for many lookups. The latest pointer
// and the liveness files are read a single time.
func (d *ActivityDetector) Snapshot() *ActivitySnapshot {
	latest := d.LatestSessionID()
	ids := d.activeSessions(latest)
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return &ActivitySnapshot{Latest: latest, Active: ids, set: set}
}

// ActivitySnapshot is the result of one activity scan.
type ActivitySnapshot struct {
	Latest string
	Active []string
	set    map[string]bool
}

// IsActive reports whether id was active when the snapshot was taken.
func (s *ActivitySnapshot) IsActive(id string) bool {
	return s.set[id]
}
