package store

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
)

// maxLineBytes bounds a single JSONL record. Records are small; a line
// larger than this is treated as corrupt by scanners.
const maxLineBytes = 1 << 20

// AppendLine appends one JSON-encoded record plus a newline to a JSONL
// file, creating the state directory and the file as needed. The write is
// a single O_APPEND syscall followed by a sync, so concurrent appenders
// interleave whole lines rather than bytes.
func (s *Store) AppendLine(name string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	f, err := os.OpenFile(s.Path(name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append to %s: %w", name, err)
	}

	return f.Sync()
}

// ScanLines calls fn for every non-empty line of a JSONL file. A missing
// file returns ErrNotFound so callers can distinguish "absent" from
// "empty". fn receives the raw line; unmarshal-and-skip is the caller's
// job, because what counts as corrupt differs per store.
func (s *Store) ScanLines(name string, fn func(line []byte) error) error {
	f, err := os.Open(s.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		// The scanner reuses its buffer; hand callers a copy.
		cp := make([]byte, len(line))
		copy(cp, line)
		if err := fn(cp); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to scan %s: %w", name, err)
	}

	return nil
}

// Archive moves a JSONL file into the archive subdirectory under a unique
// name and returns the destination path. Archiving a missing file is a
// no-op that returns an empty path. The rename is serialized with a file
// lock so two concurrent archives cannot both claim the same source.
func (s *Store) Archive(name string) (string, error) {
	srcPath := s.Path(name)
	if _, err := os.Stat(srcPath); os.IsNotExist(err) {
		return "", nil
	}

	unlock, err := lockFile(srcPath)
	if err != nil {
		return "", fmt.Errorf("failed to lock %s for archive: %w", name, err)
	}
	defer unlock()

	// Re-check under the lock; a concurrent archive may have won.
	if _, err := os.Stat(srcPath); os.IsNotExist(err) {
		return "", nil
	}

	archiveDir := s.ArchiveDir()
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	base := name[:len(name)-len(filepath.Ext(name))]
	dst := filepath.Join(archiveDir, fmt.Sprintf("%s-%s-%s%s",
		base, time.Now().Format("20060102-150405"), ulid.Make().String(), filepath.Ext(name)))

	if err := os.Rename(srcPath, dst); err != nil {
		return "", fmt.Errorf("failed to archive %s: %w", name, err)
	}

	return dst, nil
}
