package claude

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// File type categories used to classify artifacts.
const (
	FileTypeCode     = "code"
	FileTypeWeb      = "web"
	FileTypeConfig   = "config"
	FileTypeDocument = "document"
	FileTypeShell    = "shell"
	FileTypeData     = "data"
	FileTypeImage    = "image"
	FileTypeOther    = "other"
)

var fileTypes = map[string]string{
	".py": FileTypeCode, ".js": FileTypeCode, ".ts": FileTypeCode, ".tsx": FileTypeCode,
	".jsx": FileTypeCode, ".java": FileTypeCode, ".go": FileTypeCode, ".rs": FileTypeCode,
	".c": FileTypeCode, ".cpp": FileTypeCode, ".h": FileTypeCode, ".rb": FileTypeCode,
	".php": FileTypeCode, ".swift": FileTypeCode, ".kt": FileTypeCode, ".scala": FileTypeCode,
	".r": FileTypeCode,

	".html": FileTypeWeb, ".css": FileTypeWeb, ".scss": FileTypeWeb, ".less": FileTypeWeb,
	".vue": FileTypeWeb, ".svelte": FileTypeWeb,

	".json": FileTypeConfig, ".yaml": FileTypeConfig, ".yml": FileTypeConfig, ".toml": FileTypeConfig,
	".ini": FileTypeConfig, ".env": FileTypeConfig, ".xml": FileTypeConfig, ".plist": FileTypeConfig,

	".md": FileTypeDocument, ".txt": FileTypeDocument, ".rst": FileTypeDocument, ".org": FileTypeDocument,

	".sh": FileTypeShell, ".bash": FileTypeShell, ".zsh": FileTypeShell, ".fish": FileTypeShell,

	".csv": FileTypeData, ".sql": FileTypeData, ".db": FileTypeData,

	".png": FileTypeImage, ".jpg": FileTypeImage, ".jpeg": FileTypeImage, ".gif": FileTypeImage,
	".svg": FileTypeImage, ".webp": FileTypeImage,
}

// ClassifyFile returns the artifact category for a path based on its
// extension.
func ClassifyFile(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := fileTypes[ext]; ok {
		return t
	}
	return FileTypeOther
}

// IsBinaryType reports whether artifacts of this category are not served
// as text.
func IsBinaryType(fileType string) bool {
	return fileType == FileTypeImage || fileType == FileTypeData
}

const defaultMimeType = "application/octet-stream"

var mimeTypes = map[string]string{
	".py":    "text/x-python",
	".js":    "text/javascript",
	".ts":    "text/x-typescript",
	".tsx":   "text/x-typescript",
	".jsx":   "text/javascript",
	".java":  "text/x-java",
	".go":    "text/x-go",
	".rs":    "text/x-rust",
	".c":     "text/x-c",
	".h":     "text/x-c",
	".cpp":   "text/x-c++",
	".rb":    "text/x-ruby",
	".php":   "application/x-httpd-php",
	".swift": "text/x-swift",
	".kt":    "text/x-kotlin",
	".html":  "text/html",
	".htm":   "text/html",
	".css":   "text/css",
	".scss":  "text/x-scss",
	".json":  "application/json",
	".yaml":  "application/yaml",
	".yml":   "application/yaml",
	".toml":  "application/toml",
	".xml":   "application/xml",
	".md":    "text/markdown",
	".txt":   "text/plain",
	".rst":   "text/x-rst",
	".sh":    "application/x-sh",
	".bash":  "application/x-sh",
	".csv":   "text/csv",
	".sql":   "application/sql",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".svg":   "image/svg+xml",
	".webp":  "image/webp",
	".pdf":   "application/pdf",
}

// DetectMimeType guesses a MIME type from the extension, falling back to
// sniffing the file content when it exists on disk.
func DetectMimeType(path string, exists bool) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mime, ok := mimeTypes[ext]; ok {
		return mime
	}
	if exists {
		if mt, err := mimetype.DetectFile(path); err == nil {
			return mt.String()
		}
	}
	return defaultMimeType
}
