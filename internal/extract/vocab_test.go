package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchEntities_WholeWord(t *testing.T) {
	vocab := builtinVocabulary
	vocab.compile()

	assert.Equal(t, []string{"postgres"}, vocab.MatchEntities("going with postgres here"))
	assert.Equal(t, []string{"go"}, vocab.MatchEntities("rewrote the worker in Go last week"))

	// "go" inside "going" is not a word match.
	assert.NotContains(t, vocab.MatchEntities("going forward we keep the queue"), "go")
}

func TestMatchEntities_MultiWordAndRepeat(t *testing.T) {
	vocab := builtinVocabulary
	vocab.compile()

	found := vocab.MatchEntities("GitHub Actions builds run the event sourcing projector, and GitHub Actions deploys it")
	assert.Equal(t, []string{"github actions", "event sourcing"}, found)
}

func TestLoadVocabulary_Overlay(t *testing.T) {
	project := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(project, ".ork"), 0o755))
	overlay := "technologies:\n  - nats\nagents:\n  - triager\n"
	require.NoError(t, os.WriteFile(filepath.Join(project, ".ork", VocabularyFile), []byte(overlay), 0o644))

	vocab := LoadVocabulary(project)

	assert.Contains(t, vocab.MatchEntities("decided on nats for transport"), "nats")
	assert.Equal(t, "agent", vocab.KindOf("triager"))
	// Built-ins survive the overlay.
	assert.Contains(t, vocab.MatchEntities("redis stays"), "redis")
}

func TestLoadVocabulary_MalformedOverlayIgnored(t *testing.T) {
	project := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(project, ".ork"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(project, ".ork", VocabularyFile), []byte("{{not yaml"), 0o644))

	vocab := LoadVocabulary(project)
	assert.Contains(t, vocab.MatchEntities("redis stays"), "redis")
}

func TestLoadVocabulary_MissingProject(t *testing.T) {
	vocab := LoadVocabulary("")
	assert.NotEmpty(t, vocab.MatchEntities("kafka all the way down"))
}

func TestKindOf(t *testing.T) {
	vocab := builtinVocabulary

	assert.Equal(t, "agent", vocab.KindOf("planner"))
	assert.Equal(t, "technology", vocab.KindOf("PostgreSQL"))
	assert.Equal(t, "pattern", vocab.KindOf("event sourcing"))
	assert.Equal(t, "concept", vocab.KindOf("something else"))
}
