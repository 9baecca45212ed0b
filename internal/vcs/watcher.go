package vcs

import (
	"errors"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/ork-ai/orkhooks/internal/event"
	"github.com/ork-ai/orkhooks/internal/logging"
)

// ErrNotRepository reports that a watcher was requested for a directory
// no git repository contains.
var ErrNotRepository = errors.New("not a git repository")

// Watcher tracks the checked-out branch of one repository and publishes
// branch.updated whenever it moves. Git rewrites .git/HEAD on every
// checkout, so watching the git directory catches branch switches the
// moment they land on disk.
type Watcher struct {
	fs      *fsnotify.Watcher
	workDir string

	mu     sync.RWMutex
	branch string
	done   chan struct{}
}

// NewWatcher resolves workDir's repository and snapshots its branch,
// returning ErrNotRepository when there is none. The watcher reports the
// snapshot until Start wires it to filesystem events.
func NewWatcher(workDir string) (*Watcher, error) {
	gitDir := findGitDir(workDir)
	if gitDir == "" {
		return nil, ErrNotRepository
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory, not HEAD itself: git swaps HEAD in by rename,
	// which silently detaches a watch on the file.
	if err := fs.Add(gitDir); err != nil {
		fs.Close()
		return nil, err
	}

	w := &Watcher{fs: fs, workDir: workDir, branch: CurrentBranch(workDir)}
	logging.Debug().Str("branch", w.branch).Str("gitDir", gitDir).Msg("Branch watcher ready")
	return w, nil
}

// Start launches the watch loop. Further calls are no-ops.
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done == nil {
		w.done = make(chan struct{})
		go w.watch(w.done)
	}
}

// watch runs until Stop closes the fsnotify channels.
func (w *Watcher) watch(done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if isHeadUpdate(ev) {
				w.refresh()
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			logging.Error().Err(err).Msg("Branch watcher error")
		}
	}
}

// isHeadUpdate reports whether ev is git writing HEAD. Checkout replaces
// HEAD by renaming a lockfile over it, which inotify surfaces as a
// create.
func isHeadUpdate(ev fsnotify.Event) bool {
	return filepath.Base(ev.Name) == "HEAD" && ev.Op&(fsnotify.Write|fsnotify.Create) != 0
}

// refresh re-reads the branch and publishes branch.updated if it moved.
func (w *Watcher) refresh() {
	current := CurrentBranch(w.workDir)

	w.mu.Lock()
	previous := w.branch
	w.branch = current
	w.mu.Unlock()

	if current == previous {
		return
	}

	logging.Info().Str("from", previous).Str("to", current).Msg("Branch changed")
	event.PublishSync(event.Event{
		Type: event.BranchUpdated,
		Data: event.BranchUpdatedData{Branch: current},
	})
}

// Branch returns the last branch the watcher observed.
func (w *Watcher) Branch() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.branch
}

// Stop closes the filesystem watcher and waits for the watch loop to
// drain. Safe to call twice, and safe without Start.
func (w *Watcher) Stop() error {
	err := w.fs.Close()

	w.mu.RLock()
	done := w.done
	w.mu.RUnlock()
	if done != nil {
		<-done
	}
	return err
}
