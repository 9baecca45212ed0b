package guard

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/ork-ai/orkhooks/internal/logging"
	"github.com/ork-ai/orkhooks/internal/store"
)

const (
	// repeatThreshold is how many identical denials trigger the guidance.
	repeatThreshold = 3
	// repeatHistory bounds the per-session denial history.
	repeatHistory = 10
)

type denialHistoryDoc struct {
	Sessions map[string][]string `json:"sessions"`
}

const denialHistoryFile = "denial-history.json"

// RecordDenial notes a denied tool call and reports whether this exact
// call has now hit the repeat threshold for the session. The history is an
// advisory store: a read or write failure just means no repeat guidance
// this time.
func RecordDenial(st *store.Store, sessionID, toolName string, input json.RawMessage) bool {
	if sessionID == "" {
		return false
	}

	hash := hashCall(toolName, input)

	var doc denialHistoryDoc
	if err := st.ReadDoc(denialHistoryFile, &doc); err != nil && err != store.ErrNotFound {
		logging.Warn().Err(err).Msg("Failed to read denial history")
		doc = denialHistoryDoc{}
	}
	if doc.Sessions == nil {
		doc.Sessions = map[string][]string{}
	}

	history := doc.Sessions[sessionID]

	repeated := false
	if len(history) >= repeatThreshold-1 {
		repeated = true
		for _, prev := range history[len(history)-(repeatThreshold-1):] {
			if prev != hash {
				repeated = false
				break
			}
		}
	}

	history = append(history, hash)
	if len(history) > repeatHistory {
		history = history[len(history)-repeatHistory:]
	}
	doc.Sessions[sessionID] = history

	if err := st.WriteDoc(denialHistoryFile, doc); err != nil {
		logging.Warn().Err(err).Msg("Failed to write denial history")
	}

	return repeated
}

// RepeatGuidance is the text attached to a denial once the same call has
// been denied repeatThreshold times in a session.
const RepeatGuidance = "This exact call has been denied repeatedly in this session. Re-running it will not change the outcome; change the command or ask the operator to intervene."

func hashCall(toolName string, input json.RawMessage) string {
	payload := struct {
		Tool  string          `json:"tool"`
		Input json.RawMessage `json:"input"`
	}{Tool: toolName, Input: input}

	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte(toolName)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
