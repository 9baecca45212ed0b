package health

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/ork-ai/orkhooks/internal/logging"
	"github.com/ork-ai/orkhooks/internal/queue"
	"github.com/ork-ai/orkhooks/internal/store"
)

// Snapshot is one appended metrics line: decision histograms, queue
// depths, distinct session count, and the corrupt lines seen while
// deriving all of that.
type Snapshot struct {
	TS        time.Time       `json:"ts"`
	Decisions DecisionMetrics `json:"decisions"`
	Queues    QueueDepths     `json:"queues"`
	Sessions  int             `json:"sessions"`
	Corrupt   int             `json:"corrupt"`
}

type DecisionMetrics struct {
	Total      int            `json:"total"`
	ByCategory map[string]int `json:"byCategory"`
	ByType     map[string]int `json:"byType"`
}

type QueueDepths struct {
	Graph int `json:"graph"`
	Mem0  int `json:"mem0"`
}

// Collect derives aggregate metrics from the decision store and the two
// queues. An empty or missing state directory yields all-zero metrics.
func Collect(st *store.Store) Snapshot {
	snap := Snapshot{
		TS: time.Now(),
		Decisions: DecisionMetrics{
			ByCategory: map[string]int{},
			ByType:     map[string]int{},
		},
	}

	sessions := map[string]bool{}
	err := st.ScanLines(store.DecisionsFile, func(line []byte) error {
		var rec struct {
			Type     string `json:"type"`
			Metadata struct {
				SessionID string `json:"session_id"`
				Category  string `json:"category"`
			} `json:"metadata"`
		}
		if err := json.Unmarshal(line, &rec); err != nil {
			snap.Corrupt++
			return nil
		}
		snap.Decisions.Total++
		if rec.Metadata.Category != "" {
			snap.Decisions.ByCategory[rec.Metadata.Category]++
		}
		if rec.Type != "" {
			snap.Decisions.ByType[rec.Type]++
		}
		if rec.Metadata.SessionID != "" {
			sessions[rec.Metadata.SessionID] = true
		}
		return nil
	})
	if err != nil && err != store.ErrNotFound {
		logging.Warn().Err(err).Msg("Failed to scan decision store for metrics")
	}
	snap.Sessions = len(sessions)

	graph, skipped := queue.ReadGraphQueue(st)
	snap.Queues.Graph = len(graph)
	snap.Corrupt += skipped

	mem0, skipped := queue.ReadMem0Queue(st)
	snap.Queues.Mem0 = len(mem0)
	snap.Corrupt += skipped

	return snap
}

var (
	clampMu sync.Mutex
	clampTS time.Time
)

// AppendSnapshot appends one metrics line, creating the state directory
// on first use. Timestamps are clamped so successive appends from one
// process never go backwards, even when the wall clock does.
func AppendSnapshot(st *store.Store, snap Snapshot) error {
	clampMu.Lock()
	if snap.TS.IsZero() {
		snap.TS = time.Now()
	}
	if snap.TS.Before(clampTS) {
		snap.TS = clampTS
	} else {
		clampTS = snap.TS
	}
	clampMu.Unlock()

	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return st.AppendLine(store.MetricsFile, data)
}

// ReadSnapshots returns every parseable metrics line in append order,
// plus the count of lines skipped as corrupt.
func ReadSnapshots(st *store.Store) (snaps []Snapshot, skipped int) {
	err := st.ScanLines(store.MetricsFile, func(line []byte) error {
		var s Snapshot
		if err := json.Unmarshal(line, &s); err != nil {
			skipped++
			return nil
		}
		snaps = append(snaps, s)
		return nil
	})
	if err != nil && err != store.ErrNotFound {
		logging.Warn().Err(err).Msg("Failed to read metrics store")
	}
	return snaps, skipped
}
