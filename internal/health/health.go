// Package health derives verdicts and metrics from the JSONL stores:
// per-file analysis, a tiered health report, aggregate metric snapshots,
// and a state-directory watcher that publishes status transitions.
package health

import (
	"fmt"
	"time"

	"github.com/ork-ai/orkhooks/internal/store"
)

// Health statuses, ordered from best to worst.
const (
	StatusHealthy     = "healthy"
	StatusDegraded    = "degraded"
	StatusUnavailable = "unavailable"
)

// Degradation thresholds. A queue is backlogged past backlogThreshold
// entries; corruption counts once a store holds at least corruptMinLines
// lines and more than corruptMaxRatio of them fail to parse.
const (
	backlogThreshold = 500
	corruptMinLines  = 20
	corruptMaxRatio  = 0.05
)

// StoreHealth is the verdict for one store file.
type StoreHealth struct {
	Status string     `json:"status"`
	Reason string     `json:"reason,omitempty"`
	File   FileReport `json:"file"`
}

// Report is the aggregate verdict across the memory stores.
type Report struct {
	Status    string        `json:"status"`
	Stores    []StoreHealth `json:"stores,omitempty"`
	CheckedAt time.Time     `json:"checkedAt"`
}

// Check aggregates per-store analysis into a tiered report. A missing
// state directory is unavailable, which is distinct from degraded: there
// is nothing to analyze, not something analyzably wrong.
func Check(st *store.Store) Report {
	rep := Report{Status: StatusHealthy, CheckedAt: time.Now()}
	if !st.DirExists() {
		rep.Status = StatusUnavailable
		return rep
	}

	stores := []struct {
		name    string
		isQueue bool
	}{
		{store.DecisionsFile, false},
		{store.GraphQueueFile, true},
		{store.Mem0QueueFile, true},
	}
	for _, s := range stores {
		sh := checkStore(st, s.name, s.isQueue)
		rep.Stores = append(rep.Stores, sh)
		if sh.Status == StatusDegraded {
			rep.Status = StatusDegraded
		}
	}
	return rep
}

func checkStore(st *store.Store, name string, isQueue bool) StoreHealth {
	file := AnalyzeFile(st, name)
	sh := StoreHealth{Status: StatusHealthy, File: file}

	if isQueue && file.Lines > backlogThreshold {
		sh.Status = StatusDegraded
		sh.Reason = fmt.Sprintf("backlog of %d entries exceeds %d", file.Lines, backlogThreshold)
		return sh
	}
	if file.Lines >= corruptMinLines {
		if ratio := float64(file.CorruptLines) / float64(file.Lines); ratio > corruptMaxRatio {
			sh.Status = StatusDegraded
			sh.Reason = fmt.Sprintf("%d of %d lines corrupt", file.CorruptLines, file.Lines)
		}
	}
	return sh
}
