package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ork-ai/orkhooks/internal/extract"
	"github.com/ork-ai/orkhooks/internal/guard"
	"github.com/ork-ai/orkhooks/internal/health"
	"github.com/ork-ai/orkhooks/internal/hook"
	"github.com/ork-ai/orkhooks/internal/queue"
)

// Default tail sizes for list endpoints.
const (
	defaultMetricsLimit   = 20
	defaultDecisionsLimit = 100
	defaultAuditLimit     = 100
)

// queryLimit parses the optional limit query parameter.
func queryLimit(r *http.Request, def int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.New("limit must be a positive integer")
	}
	return n, nil
}

// getHealth reports store health. An absent state directory is the one
// condition that turns into a non-200, so liveness probes can tell "nothing
// recorded yet" apart from "nothing there at all".
func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	rep := health.Check(s.st)

	status := http.StatusOK
	if rep.Status == health.StatusUnavailable {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, rep)
}

type metricsResponse struct {
	Current health.Snapshot   `json:"current"`
	History []health.Snapshot `json:"history"`
	Skipped int               `json:"skipped,omitempty"`
}

// getMetrics returns a freshly collected snapshot plus the tail of the
// appended snapshot history. Collection is read-only; nothing is appended.
func (s *Server) getMetrics(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, defaultMetricsLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		return
	}

	snaps, skipped := health.ReadSnapshots(s.st)
	if len(snaps) > limit {
		snaps = snaps[len(snaps)-limit:]
	}

	writeJSON(w, http.StatusOK, metricsResponse{
		Current: health.Collect(s.st),
		History: snaps,
		Skipped: skipped,
	})
}

type decisionsResponse struct {
	Decisions []extract.Decision `json:"decisions"`
	Total     int                `json:"total"`
	Skipped   int                `json:"skipped,omitempty"`
}

// listDecisions returns stored decisions, newest last, filtered by the
// optional category, type, and session query parameters. Total counts the
// matches before the limit tail is applied.
func (s *Server) listDecisions(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, defaultDecisionsLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		return
	}

	q := r.URL.Query()
	category := q.Get("category")
	recordType := q.Get("type")
	session := q.Get("session")

	all, skipped := extract.ReadDecisions(s.st)
	matched := make([]extract.Decision, 0, len(all))
	for _, d := range all {
		if category != "" && d.Metadata.Category != category {
			continue
		}
		if recordType != "" && string(d.Type) != recordType {
			continue
		}
		if session != "" && d.Metadata.SessionID != session {
			continue
		}
		matched = append(matched, d)
	}

	total := len(matched)
	if len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}

	writeJSON(w, http.StatusOK, decisionsResponse{
		Decisions: matched,
		Total:     total,
		Skipped:   skipped,
	})
}

type graphQueueSummary struct {
	Depth        int `json:"depth"`
	Corrupt      int `json:"corrupt"`
	Entities     int `json:"entities"`
	Relations    int `json:"relations"`
	Observations int `json:"observations"`
}

type mem0QueueSummary struct {
	Depth   int `json:"depth"`
	Corrupt int `json:"corrupt"`
	Deduped int `json:"deduped"`
}

type queuesResponse struct {
	Graph graphQueueSummary `json:"graph"`
	Mem0  mem0QueueSummary  `json:"mem0"`
}

// getQueues summarizes both sync queues: raw depth, corrupt line count, and
// what each queue collapses to after aggregation or deduplication.
func (s *Server) getQueues(w http.ResponseWriter, r *http.Request) {
	ops, graphSkipped := queue.ReadGraphQueue(s.st)
	agg := queue.Aggregate(ops)

	entries, memSkipped := queue.ReadMem0Queue(s.st)
	deduped := queue.Deduplicate(entries)

	writeJSON(w, http.StatusOK, queuesResponse{
		Graph: graphQueueSummary{
			Depth:        len(ops),
			Corrupt:      graphSkipped,
			Entities:     len(agg.Entities),
			Relations:    len(agg.Relations),
			Observations: len(agg.Observations),
		},
		Mem0: mem0QueueSummary{
			Depth:   len(entries),
			Corrupt: memSkipped,
			Deduped: len(deduped),
		},
	})
}

type auditResponse struct {
	Records []guard.AuditRecord `json:"records"`
	Total   int                 `json:"total"`
	Skipped int                 `json:"skipped,omitempty"`
}

// getAudit returns the tail of the audit trail, optionally filtered by
// event type.
func (s *Server) getAudit(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, defaultAuditLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		return
	}

	records, skipped := guard.ReadAudit(s.st)
	if typ := r.URL.Query().Get("type"); typ != "" {
		matched := make([]guard.AuditRecord, 0, len(records))
		for _, rec := range records {
			if string(rec.Type) == typ {
				matched = append(matched, rec)
			}
		}
		records = matched
	}

	total := len(records)
	if len(records) > limit {
		records = records[len(records)-limit:]
	}

	writeJSON(w, http.StatusOK, auditResponse{
		Records: records,
		Total:   total,
		Skipped: skipped,
	})
}

type checkResponse struct {
	Blocked bool         `json:"blocked"`
	Result  *hook.Result `json:"result"`
}

// checkCall evaluates a tool-use event against the command pipeline without
// recording anything: no denial history, no events, no audit line. The body
// is the same JSON the gate reads on stdin.
func (s *Server) checkCall(w http.ResponseWriter, r *http.Request) {
	var in hook.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "request body must be a tool-use event")
		return
	}

	res := s.gate.Check(&in)

	writeJSON(w, http.StatusOK, checkResponse{
		Blocked: res.Blocked(),
		Result:  res,
	})
}
