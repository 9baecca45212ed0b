package guard

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/ork-ai/orkhooks/internal/event"
	"github.com/ork-ai/orkhooks/internal/store"
)

// maxPatternLength bounds stored patterns. Anything longer is ignored on
// match and rejected on add.
const maxPatternLength = 200

// PatternList unmarshals tolerantly: entries that are not JSON strings are
// dropped instead of failing the document, so one bad edit cannot disable
// every learned pattern.
type PatternList []string

func (p *PatternList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make([]string, 0, len(raw))
	for _, entry := range raw {
		var s string
		if err := json.Unmarshal(entry, &s); err != nil {
			continue
		}
		out = append(out, s)
	}
	*p = out
	return nil
}

type patternDoc struct {
	AutoApprovePatterns PatternList `json:"autoApprovePatterns"`
}

// MatchLearned checks a command against the learned auto-approve patterns.
// Patterns are literal prefixes, never regular expressions: a stored `.*`
// matches only commands that start with the two characters `.` and `*`.
// A missing or unreadable store defers (no match), it never denies.
//
// Callers must run the danger catalog first; a learned pattern cannot
// clear a command the catalog denies.
func MatchLearned(st *store.Store, command string) (string, bool) {
	var doc patternDoc
	if err := st.ReadDoc(store.LearnedPatternsFile, &doc); err != nil {
		return "", false
	}

	trimmed := strings.TrimSpace(command)
	for _, pattern := range doc.AutoApprovePatterns {
		if pattern == "" || len(pattern) > maxPatternLength {
			continue
		}
		if strings.HasPrefix(trimmed, pattern) {
			return pattern, true
		}
	}
	return "", false
}

// AddPattern stores a new auto-approve prefix. Patterns that the danger
// catalog or the shell-feature validator would deny are refused: learning
// must never become a bypass.
func AddPattern(st *store.Store, pattern string) error {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return fmt.Errorf("pattern is empty")
	}
	if len(pattern) > maxPatternLength {
		return fmt.Errorf("pattern exceeds %d characters", maxPatternLength)
	}
	if det := DetectDangerous(pattern); det.Matches {
		return fmt.Errorf("pattern matches the deny list (%s)", det.Pattern)
	}
	if feature, ok := CheckShellFeatures(pattern); ok {
		return fmt.Errorf("pattern uses a blocked shell feature (%s)", feature)
	}

	var doc patternDoc
	if err := st.ReadDoc(store.LearnedPatternsFile, &doc); err != nil && err != store.ErrNotFound {
		return fmt.Errorf("failed to read learned patterns: %w", err)
	}

	for _, existing := range doc.AutoApprovePatterns {
		if existing == pattern {
			return fmt.Errorf("pattern already stored")
		}
	}

	doc.AutoApprovePatterns = append(doc.AutoApprovePatterns, pattern)
	if err := st.WriteDoc(store.LearnedPatternsFile, doc); err != nil {
		return fmt.Errorf("failed to write learned patterns: %w", err)
	}

	event.Publish(event.Event{
		Type: event.PatternLearned,
		Data: event.PatternLearnedData{Pattern: pattern},
	})
	return nil
}

// RemovePattern deletes a stored pattern by exact text. Reports whether
// anything was removed.
func RemovePattern(st *store.Store, pattern string) (bool, error) {
	var doc patternDoc
	if err := st.ReadDoc(store.LearnedPatternsFile, &doc); err != nil {
		if err == store.ErrNotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to read learned patterns: %w", err)
	}

	kept := doc.AutoApprovePatterns[:0]
	removed := false
	for _, existing := range doc.AutoApprovePatterns {
		if existing == pattern {
			removed = true
			continue
		}
		kept = append(kept, existing)
	}
	if !removed {
		return false, nil
	}

	doc.AutoApprovePatterns = kept
	if err := st.WriteDoc(store.LearnedPatternsFile, doc); err != nil {
		return false, fmt.Errorf("failed to write learned patterns: %w", err)
	}
	return true, nil
}

// ListPatterns returns the stored patterns. A missing store is an empty
// list.
func ListPatterns(st *store.Store) ([]string, error) {
	var doc patternDoc
	if err := st.ReadDoc(store.LearnedPatternsFile, &doc); err != nil {
		if err == store.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read learned patterns: %w", err)
	}
	return doc.AutoApprovePatterns, nil
}

// NearestPattern finds the stored pattern closest to the candidate by edit
// distance. Used to flag near-duplicates before adding a new pattern.
func NearestPattern(st *store.Store, candidate string) (string, int, bool) {
	patterns, err := ListPatterns(st)
	if err != nil || len(patterns) == 0 {
		return "", 0, false
	}

	best := ""
	bestDist := -1
	for _, p := range patterns {
		d := levenshtein.ComputeDistance(candidate, p)
		if bestDist < 0 || d < bestDist {
			best, bestDist = p, d
		}
	}
	return best, bestDist, bestDist >= 0
}
