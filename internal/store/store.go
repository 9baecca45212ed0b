// Package store provides file-based state persistence for the hook suite.
//
// Two kinds of files live under the state directory: mutable JSON documents
// (learned patterns, rate limits, robots cache) that are overwritten in
// place, and append-only JSONL logs (decisions, queues, metrics, audit).
// The mutable documents are deliberately written without any cross-process
// lock; they are advisory caches and the worst case of a lost write is an
// under-counted rate limit or an extra robots.txt fetch. Only the archive
// operation takes a lock, to serialize concurrent renames.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	// ErrNotFound is returned when a requested file does not exist.
	ErrNotFound = errors.New("not found")
)

// Well-known file names under the state directory.
const (
	LearnedPatternsFile = "learned-patterns.json"
	RateLimitsFile      = "rate-limits.json"
	RobotsCacheFile     = "robots-cache.json"
	DecisionsFile       = "decisions.jsonl"
	GraphQueueFile      = "graph-queue.jsonl"
	Mem0QueueFile       = "mem0-queue.jsonl"
	MetricsFile         = "memory-metrics.jsonl"
	AuditFile           = "audit.jsonl"

	// ArchiveDirName is the subdirectory archived queue files move into.
	ArchiveDirName = "archive"
)

// Store reads and writes state files under a single directory.
type Store struct {
	dir string
}

// New creates a Store rooted at dir. The directory is created lazily on
// first write, so read paths see an absent directory as absent files.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the state directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the absolute path of a named state file.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// ArchiveDir returns the archive subdirectory path.
func (s *Store) ArchiveDir() string {
	return filepath.Join(s.dir, ArchiveDirName)
}

// DirExists reports whether the state directory itself exists.
func (s *Store) DirExists() bool {
	info, err := os.Stat(s.dir)
	return err == nil && info.IsDir()
}

// Exists reports whether a named state file exists.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// Stat returns file info for a named state file.
func (s *Store) Stat(name string) (os.FileInfo, error) {
	info, err := os.Stat(s.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to stat %s: %w", name, err)
	}
	return info, nil
}

// ReadDoc reads a JSON document into v. Returns ErrNotFound when the file
// does not exist; unmarshal failures are returned wrapped so callers can
// apply their own fail-open policy.
func (s *Store) ReadDoc(name string, v any) error {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to read %s: %w", name, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", name, err)
	}

	return nil
}

// WriteDoc overwrites a JSON document. The write goes through a temp file
// and rename so a reader never sees a half-written document, but there is
// no cross-process lock: concurrent writers race and the last rename wins.
func (s *Store) WriteDoc(name string, v any) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	filePath := s.Path(name)
	tmpPath := filePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, filePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}

// Remove deletes a named state file. Removing a missing file is not an error.
func (s *Store) Remove(name string) error {
	if err := os.Remove(s.Path(name)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	return nil
}
