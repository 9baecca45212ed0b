package event

// GateAllowedData is the data for gate.allowed events.
type GateAllowedData struct {
	SessionID string `json:"sessionID,omitempty"`
	Tool      string `json:"tool"`
	Category  string `json:"category"`

	// Source is "learned" when a learned pattern produced the allow,
	// otherwise "default".
	Source string `json:"source,omitempty"`
}

// GateDeniedData is the data for gate.denied events.
type GateDeniedData struct {
	SessionID string `json:"sessionID,omitempty"`
	Tool      string `json:"tool"`
	Category  string `json:"category"`
	Rule      string `json:"rule,omitempty"`
	Reason    string `json:"reason"`
}

// GateAdvisoryData is the data for gate.advisory events. Advisories ride
// along with an allow and never block the tool call.
type GateAdvisoryData struct {
	SessionID string `json:"sessionID,omitempty"`
	Tool      string `json:"tool"`
	Category  string `json:"category"`
	Message   string `json:"message"`
}

// PatternLearnedData is the data for pattern.learned events.
type PatternLearnedData struct {
	Pattern string `json:"pattern"`
}

// DecisionExtractedData is the data for decision.extracted events.
type DecisionExtractedData struct {
	SessionID  string  `json:"sessionID,omitempty"`
	What       string  `json:"what"`
	Confidence float64 `json:"confidence"`
	Importance string  `json:"importance"`
	Entities   int     `json:"entities"`
}

// QueueProcessedData is the data for queue.processed events.
type QueueProcessedData struct {
	Queue   string `json:"queue"` // "graph" | "mem0"
	Read    int    `json:"read"`
	Kept    int    `json:"kept"`
	Corrupt int    `json:"corrupt"`
}

// QueueSyncedData is the data for queue.synced events.
type QueueSyncedData struct {
	Queue   string `json:"queue"`
	Synced  int    `json:"synced"`
	Archive string `json:"archive,omitempty"`
}

// HealthChangedData is the data for health.changed events.
type HealthChangedData struct {
	Status string `json:"status"` // "healthy" | "degraded" | "unavailable"
}

// BranchUpdatedData is the data for branch.updated events.
type BranchUpdatedData struct {
	Branch string `json:"branch"`
}
