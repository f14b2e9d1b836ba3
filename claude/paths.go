package claude

import (
	"path/filepath"
	"strings"
)

// Layout resolves the well-known locations inside a Claude data directory.
type Layout struct {
	Root string // usually ~/.claude
}

func (l Layout) ProjectsDir() string    { return filepath.Join(l.Root, "projects") }
func (l Layout) DebugDir() string       { return filepath.Join(l.Root, "debug") }
func (l Layout) TodosDir() string       { return filepath.Join(l.Root, "todos") }
func (l Layout) StatsCachePath() string { return filepath.Join(l.Root, "stats-cache.json") }

// agentPrefix marks sub-agent logs, which are not listed as sessions.
const agentPrefix = "agent-"

const sessionExt = ".jsonl"

// decodeProjectPath turns an encoded project directory name back into the
// project path: every dash becomes a slash and a leading slash is ensured.
// The encoding is lossy; dashes that were part of the real path come back
// as slashes too.
func decodeProjectPath(dirName string) string {
	path := strings.ReplaceAll(dirName, "-", "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

// validSessionID rejects ids that could escape the directory they are
// joined to.
func validSessionID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`)
}

// fileStem returns the base name without its last extension.
func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
