package queue

import (
	"encoding/json"
	"time"

	"github.com/ork-ai/orkhooks/internal/logging"
	"github.com/ork-ai/orkhooks/internal/store"
)

// Mem0Entry is one queued memory for the external memory service.
type Mem0Entry struct {
	Text     string         `json:"text"`
	UserID   string         `json:"user_id"`
	Metadata map[string]any `json:"metadata,omitempty"`
	QueuedAt time.Time      `json:"queued_at"`
}

// EnqueueMem0 appends one entry to the mem0 queue.
func EnqueueMem0(st *store.Store, entry Mem0Entry) error {
	if entry.QueuedAt.IsZero() {
		entry.QueuedAt = time.Now()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return st.AppendLine(store.Mem0QueueFile, data)
}

// ReadMem0Queue parses the mem0 queue. Lines that fail to parse or carry
// no text are counted as skipped; a missing file reads as empty.
func ReadMem0Queue(st *store.Store) (entries []Mem0Entry, skipped int) {
	err := st.ScanLines(store.Mem0QueueFile, func(line []byte) error {
		var entry Mem0Entry
		if err := json.Unmarshal(line, &entry); err != nil || entry.Text == "" {
			skipped++
			return nil
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil && err != store.ErrNotFound {
		logging.Warn().Err(err).Msg("Failed to read mem0 queue")
	}
	return entries, skipped
}

// Deduplicate drops entries whose text exactly matches an earlier
// entry's. The first occurrence is the one kept, metadata included; the
// tie-break is arbitrary semantically but fixed so results are stable.
func Deduplicate(entries []Mem0Entry) []Mem0Entry {
	seen := make(map[string]bool, len(entries))
	out := entries[:0:0]
	for _, entry := range entries {
		if seen[entry.Text] {
			continue
		}
		seen[entry.Text] = true
		out = append(out, entry)
	}
	return out
}
