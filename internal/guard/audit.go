package guard

import (
	"encoding/json"
	"time"

	"github.com/ork-ai/orkhooks/internal/event"
	"github.com/ork-ai/orkhooks/internal/logging"
	"github.com/ork-ai/orkhooks/internal/store"
)

type auditEntry struct {
	Timestamp time.Time       `json:"ts"`
	Type      event.EventType `json:"type"`
	Data      any             `json:"data"`
}

// RegisterAudit subscribes an audit trail to the event bus, appending one
// JSON line per event to the audit log. Returns the unsubscribe function.
// Append failures are logged and dropped; auditing never blocks a verdict.
func RegisterAudit(st *store.Store) func() {
	return event.SubscribeAll(func(e event.Event) {
		entry := auditEntry{
			Timestamp: time.Now().UTC(),
			Type:      e.Type,
			Data:      e.Data,
		}
		line, err := json.Marshal(entry)
		if err != nil {
			logging.Warn().Err(err).Str("type", string(e.Type)).Msg("Failed to encode audit entry")
			return
		}
		if err := st.AppendLine(store.AuditFile, line); err != nil {
			logging.Warn().Err(err).Msg("Failed to append audit entry")
		}
	})
}

// AuditRecord is one audit trail line read back out. Data stays raw: the
// payload shape depends on the event type and readers mostly pass it through.
type AuditRecord struct {
	Timestamp time.Time       `json:"ts"`
	Type      event.EventType `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// ReadAudit returns every parseable audit record in append order, plus the
// count of lines skipped as corrupt. A missing trail reads as empty.
func ReadAudit(st *store.Store) (records []AuditRecord, skipped int) {
	err := st.ScanLines(store.AuditFile, func(line []byte) error {
		var rec AuditRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			skipped++
			return nil
		}
		records = append(records, rec)
		return nil
	})
	if err != nil && err != store.ErrNotFound {
		logging.Warn().Err(err).Msg("Failed to read audit trail")
	}
	return records, skipped
}
