package guard

import (
	"path/filepath"
	"strings"
)

// Layer classifies a repository file by its role. Paths are classified
// once into the enum; everything downstream switches on the value instead
// of re-testing path strings.
type Layer int

const (
	LayerOther Layer = iota
	LayerSource
	LayerTest
	LayerDocs
	LayerConfig
	LayerBuild
)

func (l Layer) String() string {
	switch l {
	case LayerSource:
		return "source"
	case LayerTest:
		return "test"
	case LayerDocs:
		return "docs"
	case LayerConfig:
		return "config"
	case LayerBuild:
		return "build"
	default:
		return "other"
	}
}

var sourceExts = map[string]bool{
	".go": true, ".py": true, ".js": true, ".ts": true, ".jsx": true,
	".tsx": true, ".rb": true, ".rs": true, ".java": true, ".c": true,
	".h": true, ".cpp": true, ".cc": true, ".cs": true, ".swift": true,
	".kt": true, ".sh": true,
}

var configExts = map[string]bool{
	".json": true, ".yaml": true, ".yml": true, ".toml": true,
	".ini": true, ".env": true, ".conf": true,
}

var docExts = map[string]bool{
	".md": true, ".rst": true, ".txt": true, ".adoc": true,
}

// ClassifyPath maps a repository-relative path to its Layer.
func ClassifyPath(path string) Layer {
	base := strings.ToLower(filepath.Base(path))
	ext := filepath.Ext(base)
	dir := strings.ToLower(filepath.ToSlash(filepath.Dir(path)))

	switch {
	case strings.HasSuffix(base, "_test.go"),
		strings.Contains(base, ".test."),
		strings.Contains(base, ".spec."),
		hasPathSegment(dir, "test"),
		hasPathSegment(dir, "tests"),
		hasPathSegment(dir, "__tests__"):
		return LayerTest

	case base == "makefile" || base == "dockerfile" || base == "justfile",
		base == "go.mod" || base == "go.sum",
		base == "package.json" || base == "package-lock.json",
		base == "cargo.toml" || base == "cargo.lock",
		strings.HasPrefix(dir, ".github"):
		return LayerBuild

	case docExts[ext], hasPathSegment(dir, "docs"), hasPathSegment(dir, "doc"):
		return LayerDocs

	case sourceExts[ext]:
		return LayerSource

	case configExts[ext], strings.HasPrefix(base, ".env"):
		return LayerConfig

	default:
		return LayerOther
	}
}

func hasPathSegment(dir, segment string) bool {
	for _, part := range strings.Split(dir, "/") {
		if part == segment {
			return true
		}
	}
	return false
}

// topLevelDir returns the first path component, or "." for bare filenames.
func topLevelDir(path string) string {
	path = filepath.ToSlash(path)
	if idx := strings.Index(path, "/"); idx > 0 {
		return path[:idx]
	}
	return "."
}
