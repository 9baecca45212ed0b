package health

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ork-ai/orkhooks/internal/event"
	"github.com/ork-ai/orkhooks/internal/logging"
	"github.com/ork-ai/orkhooks/internal/store"
)

const (
	// debounceDelay coalesces bursts of store appends into one re-check.
	debounceDelay = 250 * time.Millisecond
	// recheckInterval is the safety-net poll. It also picks up a state
	// directory created after the watcher started.
	recheckInterval = 15 * time.Second
)

// Watcher re-evaluates health whenever the state directory changes and
// publishes health.changed on status transitions.
type Watcher struct {
	st       *store.Store
	watcher  *fsnotify.Watcher
	onChange func(Report)

	mu       sync.Mutex
	status   string
	watching bool
	timer    *time.Timer
	started  bool

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewWatcher creates a health watcher. The initial status is evaluated
// immediately and does not count as a transition; onChange may be nil
// when only the event bus matters.
func NewWatcher(st *store.Store, onChange func(Report)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		st:       st,
		watcher:  fw,
		onChange: onChange,
		status:   Check(st).Status,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	w.attach()
	return w, nil
}

// Status returns the most recently evaluated status.
func (w *Watcher) Status() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Start begins watching for store changes.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()
	go w.run()
}

// Stop stops the watcher and waits for the loop to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	started := w.started
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	select {
	case <-w.stopCh:
	default:
		close(w.stopCh)
	}

	if started {
		<-w.doneCh
	}
	return w.watcher.Close()
}

func (w *Watcher) run() {
	defer close(w.doneCh)

	ticker := time.NewTicker(recheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.scheduleCheck()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Error().Err(err).Msg("Health watcher error")
		case <-ticker.C:
			w.checkNow()
		}
	}
}

// attach adds the state directory to the fsnotify watch once it exists.
func (w *Watcher) attach() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watching || !w.st.DirExists() {
		return
	}
	if err := w.watcher.Add(w.st.Dir()); err != nil {
		logging.Debug().Err(err).Str("dir", w.st.Dir()).Msg("Cannot watch state directory")
		return
	}
	w.watching = true
}

func (w *Watcher) scheduleCheck() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer == nil {
		w.timer = time.AfterFunc(debounceDelay, w.checkNow)
		return
	}
	w.timer.Reset(debounceDelay)
}

func (w *Watcher) checkNow() {
	select {
	case <-w.stopCh:
		return
	default:
	}

	w.attach()
	rep := Check(w.st)

	w.mu.Lock()
	old := w.status
	changed := rep.Status != old
	if changed {
		w.status = rep.Status
	}
	if rep.Status == StatusUnavailable {
		// A deleted directory takes its fsnotify watch with it; re-attach
		// on the next check that finds the directory back.
		w.watching = false
	}
	onChange := w.onChange
	w.mu.Unlock()

	if !changed {
		return
	}

	logging.Info().Str("from", old).Str("to", rep.Status).Msg("Memory health changed")
	event.PublishSync(event.Event{
		Type: event.HealthChanged,
		Data: event.HealthChangedData{Status: rep.Status},
	})
	if onChange != nil {
		onChange(rep)
	}
}
