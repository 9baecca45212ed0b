// Package extract pulls durable decisions out of tool output: what was
// chosen, why, what it was chosen over, and which known entities were
// involved. Extraction is pure; persisting the results belongs to the
// observer layer.
package extract

import (
	"regexp"
	"strings"
	"time"
)

const (
	// minOutputLength gates extraction: shorter output cannot carry a
	// decision worth recording.
	minOutputLength = 80

	// maxCandidateLength bounds one candidate line so a single enormous
	// line cannot dominate the passes.
	maxCandidateLength = 300

	maxConfidence = 0.99
)

// RecordType classifies a decision record.
type RecordType string

const (
	TypeDecision   RecordType = "decision"
	TypePreference RecordType = "preference"
	TypePattern    RecordType = "pattern"
)

// Decision is one extracted record, shaped for decisions.jsonl. The
// observer stamps ID, SessionID, and Timestamp before persisting.
type Decision struct {
	ID       string     `json:"id"`
	Type     RecordType `json:"type"`
	Content  Content    `json:"content"`
	Entities []string   `json:"entities,omitempty"`
	Metadata Metadata   `json:"metadata"`
}

// Content carries the extracted substance of a decision.
type Content struct {
	What         string   `json:"what"`
	Why          string   `json:"why,omitempty"`
	Alternatives []string `json:"alternatives,omitempty"`
	Constraints  []string `json:"constraints,omitempty"`
	Tradeoffs    []string `json:"tradeoffs,omitempty"`
}

// Metadata carries provenance and scoring.
type Metadata struct {
	SessionID  string    `json:"session_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Confidence float64   `json:"confidence"`
	Category   string    `json:"category"`
	Importance string    `json:"importance"`
}

// Relation is a chose-over edge derived from a decision's alternatives.
type Relation struct {
	From         string `json:"from"`
	To           string `json:"to"`
	RelationType string `json:"relationType"`
}

// indicators gate extraction and anchor candidate lines. Lowercase;
// matched by substring against lowercased output.
var indicators = []string{
	"decided", "decision", "chose", "chosen", "choosing", "selected",
	"going with", "opted", "settled on", "recommend",
	"architecture:", "approach:", "strategy:", "pattern:",
	"instead of", "rather than", "prefer",
}

var (
	whatPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:chose|selected|picked|opted for|settled on|going with|decided on|decided to use)\s+(.+)`),
		regexp.MustCompile(`(?i)\b(?:recommendation|recommend(?:ed)?|architecture|approach|strategy|pattern)\s*:\s*(.+)`),
		regexp.MustCompile(`(?i)\bdecided\s+(?:to|that)\s+(.+)`),
		regexp.MustCompile(`(?i)\bprefer(?:red)?\s+(?:to\s+use\s+|using\s+)?(.+)`),
	}

	rationalePattern    = regexp.MustCompile(`(?i)\b(?:because|since|due to|in order to|so that)\s+(.+)`)
	alternativePattern  = regexp.MustCompile(`(?i)\b(?:over|instead of|rather than|versus|vs\.?)\s+([a-zA-Z0-9][a-zA-Z0-9._/ -]*)`)
	constraintPattern   = regexp.MustCompile(`(?i)\b(?:must|needs? to|required to|have to|cannot|can't|should not)\s+([^.;]+)`)
	tradeoffPattern     = regexp.MustCompile(`(?i)\b(?:but|however|trade-?off\s*:?|at the cost of|downside\s*:?)\s+([^.;]+)`)
	highImportanceWords = regexp.MustCompile(`(?i)\b(?:architecture|security|breaking|migration|auth(?:entication)?|vulnerability|critical)\b`)
)

// categoryWords maps keyword sets to the category recorded in metadata.
// First match wins, so more specific categories come first.
var categoryWords = []struct {
	category string
	re       *regexp.Regexp
}{
	{"security", regexp.MustCompile(`(?i)\b(?:security|auth|authentication|vulnerability|encryption|secret)\b`)},
	{"architecture", regexp.MustCompile(`(?i)\b(?:architecture|design|structure|module|boundary|layering)\b`)},
	{"performance", regexp.MustCompile(`(?i)\b(?:performance|latency|throughput|cache|caching|optimization)\b`)},
	{"testing", regexp.MustCompile(`(?i)\b(?:tests?|testing|coverage|ci)\b`)},
	{"data", regexp.MustCompile(`(?i)\b(?:database|schema|storage|queue|persistence)\b`)},
	{"tooling", regexp.MustCompile(`(?i)\b(?:build|tooling|linting|deploy|deployment|packaging)\b`)},
}

// Extractor runs the decision passes with a fixed vocabulary.
type Extractor struct {
	vocab Vocabulary
}

func New(vocab Vocabulary) *Extractor {
	return &Extractor{vocab: vocab}
}

// Extract returns the decisions found in text, one per candidate line
// that yields a what-was-chosen capture. Output below the length gate or
// without an indicator phrase yields nothing.
func (e *Extractor) Extract(text string) []Decision {
	if len(text) < minOutputLength {
		return nil
	}
	lower := strings.ToLower(text)
	if !containsIndicator(lower) {
		return nil
	}

	var decisions []Decision
	for _, line := range candidateLines(text) {
		d, ok := e.extractOne(line)
		if !ok {
			continue
		}
		decisions = append(decisions, d)
	}
	return decisions
}

func containsIndicator(lower string) bool {
	for _, ind := range indicators {
		if strings.Contains(lower, ind) {
			return true
		}
	}
	return false
}

// candidateLines returns each line carrying an indicator, bounded to
// maxCandidateLength, in input order without duplicates.
func candidateLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !containsIndicator(strings.ToLower(line)) {
			continue
		}
		if len(line) > maxCandidateLength {
			line = line[:maxCandidateLength]
		}
		lines = append(lines, line)
	}
	return lines
}

// extractOne runs the independent passes over one candidate line.
func (e *Extractor) extractOne(line string) (Decision, bool) {
	what := ""
	for _, re := range whatPatterns {
		if m := re.FindStringSubmatch(line); m != nil {
			what = trimClause(m[1])
			break
		}
	}
	if what == "" {
		return Decision{}, false
	}

	d := Decision{
		Type:    classifyType(line),
		Content: Content{What: what},
	}

	if m := rationalePattern.FindStringSubmatch(line); m != nil {
		d.Content.Why = trimClause(m[1])
	}
	for _, m := range alternativePattern.FindAllStringSubmatch(line, -1) {
		if alt := trimAlternative(m[1]); alt != "" {
			d.Content.Alternatives = append(d.Content.Alternatives, alt)
		}
	}
	for _, m := range constraintPattern.FindAllStringSubmatch(line, -1) {
		if c := trimClause(m[1]); c != "" {
			d.Content.Constraints = append(d.Content.Constraints, c)
		}
	}
	for _, m := range tradeoffPattern.FindAllStringSubmatch(line, -1) {
		if tr := trimClause(m[1]); tr != "" {
			d.Content.Tradeoffs = append(d.Content.Tradeoffs, tr)
		}
	}

	d.Entities = e.vocab.MatchEntities(line)
	d.Metadata.Importance = importanceOf(line)
	d.Metadata.Category = categoryOf(line)
	d.Metadata.Confidence = confidence(d)
	return d, true
}

func classifyType(line string) RecordType {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "prefer"):
		return TypePreference
	case strings.Contains(lower, "pattern:") || strings.Contains(lower, "pattern "):
		return TypePattern
	}
	return TypeDecision
}

func importanceOf(line string) string {
	if highImportanceWords.MatchString(line) {
		return "high"
	}
	return "normal"
}

func categoryOf(line string) string {
	for _, cw := range categoryWords {
		if cw.re.MatchString(line) {
			return cw.category
		}
	}
	return "general"
}

// confidence applies the additive rubric: base 0.5, +0.2 rationale,
// +0.1 alternatives, +0.05 constraints, +0.05 tradeoffs, +0.05 for one
// entity or +0.10 for two or more, +0.1 for high importance, capped.
func confidence(d Decision) float64 {
	score := 0.5
	if d.Content.Why != "" {
		score += 0.2
	}
	if len(d.Content.Alternatives) > 0 {
		score += 0.1
	}
	if len(d.Content.Constraints) > 0 {
		score += 0.05
	}
	if len(d.Content.Tradeoffs) > 0 {
		score += 0.05
	}
	switch {
	case len(d.Entities) >= 2:
		score += 0.10
	case len(d.Entities) == 1:
		score += 0.05
	}
	if d.Metadata.Importance == "high" {
		score += 0.1
	}
	if score > maxConfidence {
		score = maxConfidence
	}
	return score
}

// Relations derives chose-over edges from a decision's alternatives.
func Relations(d Decision) []Relation {
	if len(d.Content.Alternatives) == 0 {
		return nil
	}
	subject := chosenSubject(d.Content.What)
	if subject == "" {
		return nil
	}

	var rels []Relation
	for _, alt := range d.Content.Alternatives {
		rels = append(rels, Relation{From: subject, To: alt, RelationType: "chose_over"})
	}
	return rels
}

// chosenSubject trims a what-clause down to the thing chosen: the text
// before the first rationale or alternative marker, capped for use as a
// graph node name.
func chosenSubject(what string) string {
	lower := strings.ToLower(what)
	cut := len(what)
	for _, marker := range []string{" because", " since", " due to", " over ", " instead of", " rather than", " versus ", " vs ", " vs.", ",", ";"} {
		if i := strings.Index(lower, marker); i >= 0 && i < cut {
			cut = i
		}
	}
	subject := strings.TrimSpace(what[:cut])
	if len(subject) > 80 {
		subject = strings.TrimSpace(subject[:80])
	}
	return subject
}

// trimClause tidies a regex capture: the clause ends at the first
// sentence break, and outer space and trailing punctuation go. Dots
// inside names (v1.2, Node.js) survive because only dot-space breaks.
func trimClause(s string) string {
	if i := strings.Index(s, ". "); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, ".,;: ")
	return s
}

// alternativeStopwords end an alternative's name. Captures run greedily
// to allow multi-word names ("github actions"), so the trailing clause
// has to be cut off here.
var alternativeStopwords = map[string]bool{
	"because": true, "since": true, "due": true, "so": true,
	"and": true, "or": true, "but": true, "which": true, "that": true,
	"for": true, "to": true, "as": true, "in": true, "with": true,
	"when": true, "where": true, "however": true, "it": true,
}

func trimAlternative(s string) string {
	words := strings.Fields(trimClause(s))
	var kept []string
	for _, w := range words {
		if alternativeStopwords[strings.ToLower(strings.Trim(w, ".,;:"))] {
			break
		}
		kept = append(kept, w)
		if len(kept) == 4 {
			break
		}
	}
	return strings.TrimRight(strings.Join(kept, " "), ".,;:")
}
