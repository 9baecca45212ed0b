package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testExtractor() *Extractor {
	vocab := builtinVocabulary
	vocab.compile()
	return New(vocab)
}

func TestExtract_LengthGate(t *testing.T) {
	assert.Nil(t, testExtractor().Extract("chose PostgreSQL"))
}

func TestExtract_IndicatorGate(t *testing.T) {
	text := strings.Repeat("reading through the build output with nothing of note here. ", 3)
	assert.Nil(t, testExtractor().Extract(text))
}

func TestExtract_ChoseWithRationaleAndAlternative(t *testing.T) {
	text := "For the storage layer we chose PostgreSQL over SQLite because it supports concurrent writers."

	decisions := testExtractor().Extract(text)
	require.Len(t, decisions, 1)
	d := decisions[0]

	assert.Equal(t, TypeDecision, d.Type)
	assert.Contains(t, d.Content.What, "PostgreSQL")
	assert.Equal(t, "it supports concurrent writers", d.Content.Why)
	assert.Equal(t, []string{"SQLite"}, d.Content.Alternatives)
	assert.Equal(t, []string{"postgresql", "sqlite"}, d.Entities)
	assert.Equal(t, "data", d.Metadata.Category)
	assert.Equal(t, "normal", d.Metadata.Importance)

	// base 0.5 + rationale 0.2 + alternatives 0.1 + two entities 0.10
	assert.InDelta(t, 0.90, d.Metadata.Confidence, 0.001)
}

func TestExtract_ConfidenceCap(t *testing.T) {
	text := "After running the storage benchmarks we chose PostgreSQL over SQLite because it " +
		"supports concurrent writers. We must keep the migration path simple. However it adds operational overhead."

	decisions := testExtractor().Extract(text)
	require.Len(t, decisions, 1)
	d := decisions[0]

	assert.Equal(t, []string{"keep the migration path simple"}, d.Content.Constraints)
	assert.Equal(t, "high", d.Metadata.Importance)
	assert.NotEmpty(t, d.Content.Tradeoffs)
	assert.InDelta(t, 0.99, d.Metadata.Confidence, 0.001)
}

func TestExtract_MultipleLines(t *testing.T) {
	text := "Investigated both options thoroughly before making the calls below.\n" +
		"Architecture: event sourcing for the audit trail because replay gives us free debugging.\n" +
		"We prefer vitest instead of jest for unit tests since it shares the vite config.\n"

	decisions := testExtractor().Extract(text)
	require.Len(t, decisions, 2)

	arch := decisions[0]
	assert.Equal(t, TypeDecision, arch.Type)
	assert.Contains(t, arch.Content.What, "event sourcing")
	assert.Equal(t, "replay gives us free debugging", arch.Content.Why)
	assert.Equal(t, "architecture", arch.Metadata.Category)
	assert.Equal(t, "high", arch.Metadata.Importance)
	assert.Equal(t, []string{"event sourcing"}, arch.Entities)

	pref := decisions[1]
	assert.Equal(t, TypePreference, pref.Type)
	assert.Equal(t, []string{"jest"}, pref.Content.Alternatives)
	assert.Equal(t, "testing", pref.Metadata.Category)
	assert.Contains(t, pref.Entities, "vitest")
	assert.Contains(t, pref.Entities, "jest")
}

func TestExtract_IndicatorWithoutCapture(t *testing.T) {
	// The indicator gate passes but no what-pass yields a capture.
	text := "The decision record format is documented in the contributing guide for everyone to read."
	assert.Empty(t, testExtractor().Extract(text))
}

func TestRelations_ChoseOver(t *testing.T) {
	d := Decision{Content: Content{
		What:         "PostgreSQL over SQLite because it scales",
		Alternatives: []string{"SQLite", "MySQL"},
	}}

	rels := Relations(d)
	require.Len(t, rels, 2)
	assert.Equal(t, Relation{From: "PostgreSQL", To: "SQLite", RelationType: "chose_over"}, rels[0])
	assert.Equal(t, Relation{From: "PostgreSQL", To: "MySQL", RelationType: "chose_over"}, rels[1])
}

func TestRelations_NoAlternatives(t *testing.T) {
	d := Decision{Content: Content{What: "PostgreSQL"}}
	assert.Nil(t, Relations(d))
}

func TestChosenSubject(t *testing.T) {
	cases := []struct {
		what, want string
	}{
		{"PostgreSQL over SQLite because it scales", "PostgreSQL"},
		{"event sourcing for the audit trail", "event sourcing for the audit trail"},
		{"tabs instead of spaces", "tabs"},
		{"chi, not gorilla", "chi"},
		{"zerolog rather than logrus", "zerolog"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, chosenSubject(tc.what), tc.what)
	}
}

func TestTrimAlternative(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"SQLite because it supports concurrent writers", "SQLite"},
		{"jest for unit tests", "jest"},
		{"github actions", "github actions"},
		{"MySQL.", "MySQL"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, trimAlternative(tc.in), tc.in)
	}
}

func TestConfidence_Rubric(t *testing.T) {
	base := Decision{Content: Content{What: "x"}, Metadata: Metadata{Importance: "normal"}}
	assert.InDelta(t, 0.50, confidence(base), 0.001)

	withWhy := base
	withWhy.Content.Why = "y"
	assert.InDelta(t, 0.70, confidence(withWhy), 0.001)

	oneEntity := base
	oneEntity.Entities = []string{"go"}
	assert.InDelta(t, 0.55, confidence(oneEntity), 0.001)

	twoEntities := base
	twoEntities.Entities = []string{"go", "redis"}
	assert.InDelta(t, 0.60, confidence(twoEntities), 0.001)

	high := base
	high.Metadata.Importance = "high"
	assert.InDelta(t, 0.60, confidence(high), 0.001)

	everything := Decision{
		Content: Content{
			What:         "x",
			Why:          "y",
			Alternatives: []string{"a"},
			Constraints:  []string{"c"},
			Tradeoffs:    []string{"t"},
		},
		Entities: []string{"go", "redis", "kafka"},
		Metadata: Metadata{Importance: "high"},
	}
	assert.InDelta(t, 0.99, confidence(everything), 0.001)
}

func TestCategoryOf(t *testing.T) {
	cases := []struct {
		line, category string
	}{
		{"decided on token rotation for the auth flow", "security"},
		{"chose a module boundary around billing", "architecture"},
		{"selected an LRU cache to cut latency", "performance"},
		{"going with vitest for the test suite", "testing"},
		{"decided on a new schema for the queue", "data"},
		{"opted for faster deploy tooling", "tooling"},
		{"chose shorter names", "general"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.category, categoryOf(tc.line), tc.line)
	}
}
