package health

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ork-ai/orkhooks/internal/store"
)

func newHealthStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(t.TempDir())
}

// seedLines appends the given lines in one write.
func seedLines(t *testing.T, st *store.Store, name string, lines ...string) {
	t.Helper()
	require.NoError(t, st.AppendLine(name, []byte(strings.Join(lines, "\n"))))
}

// seedBulk appends n copies of line in one write.
func seedBulk(t *testing.T, st *store.Store, name, line string, n int) {
	t.Helper()
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	require.NoError(t, st.AppendLine(name, []byte(b.String())))
}

func TestAnalyzeFile_Missing(t *testing.T) {
	st := newHealthStore(t)

	rep := AnalyzeFile(st, store.DecisionsFile)
	assert.Equal(t, store.DecisionsFile, rep.Name)
	assert.False(t, rep.Exists)
	assert.Zero(t, rep.Lines)
	assert.Zero(t, rep.CorruptLines)
	assert.Zero(t, rep.SizeBytes)
	assert.True(t, rep.ModTime.IsZero())
}

func TestAnalyzeFile_CountsCorruptLines(t *testing.T) {
	st := newHealthStore(t)
	seedLines(t, st, store.DecisionsFile,
		`{"id":"1"}`,
		`{"id":"2"}`,
		`{broken`,
		`{"id":"3"}`,
		`also not json`,
	)

	rep := AnalyzeFile(st, store.DecisionsFile)
	assert.True(t, rep.Exists)
	assert.Equal(t, 5, rep.Lines)
	assert.Equal(t, 2, rep.CorruptLines)
	assert.Greater(t, rep.SizeBytes, int64(0))
	assert.False(t, rep.ModTime.IsZero())
}

func TestCheck_MissingDirIsUnavailable(t *testing.T) {
	st := store.New(filepath.Join(t.TempDir(), "never-created"))

	rep := Check(st)
	assert.Equal(t, StatusUnavailable, rep.Status)
	assert.Empty(t, rep.Stores)
}

func TestCheck_EmptyDirIsHealthy(t *testing.T) {
	st := newHealthStore(t)

	rep := Check(st)
	assert.Equal(t, StatusHealthy, rep.Status)
	require.Len(t, rep.Stores, 3)
	for _, sh := range rep.Stores {
		assert.Equal(t, StatusHealthy, sh.Status)
		assert.False(t, sh.File.Exists)
	}
}

func TestCheck_QueueBacklogDegrades(t *testing.T) {
	st := newHealthStore(t)
	line := `{"type":"create_entities"}`

	seedBulk(t, st, store.GraphQueueFile, line, backlogThreshold)
	assert.Equal(t, StatusHealthy, Check(st).Status)

	seedBulk(t, st, store.GraphQueueFile, line, 1)
	rep := Check(st)
	assert.Equal(t, StatusDegraded, rep.Status)
	assert.Contains(t, rep.Stores[1].Reason, "backlog of 501")
}

func TestCheck_BacklogAppliesToQueuesOnly(t *testing.T) {
	st := newHealthStore(t)
	seedBulk(t, st, store.DecisionsFile, `{"id":"x"}`, backlogThreshold+100)

	assert.Equal(t, StatusHealthy, Check(st).Status)
}

func TestCheck_CorruptRatioDegrades(t *testing.T) {
	st := newHealthStore(t)
	lines := make([]string, 0, 25)
	for i := 0; i < 23; i++ {
		lines = append(lines, `{"id":"ok"}`)
	}
	lines = append(lines, "{bad", "{worse")
	seedLines(t, st, store.DecisionsFile, lines...)

	rep := Check(st)
	assert.Equal(t, StatusDegraded, rep.Status)
	assert.Equal(t, "2 of 25 lines corrupt", rep.Stores[0].Reason)
}

func TestCheck_SmallOrBorderlineCorruptionTolerated(t *testing.T) {
	st := newHealthStore(t)

	// Below the sample floor: half the lines corrupt, still healthy.
	seedLines(t, st, store.Mem0QueueFile, `{"text":"a"}`, "{bad")
	// At the floor with exactly the threshold ratio: 1 of 20 is 5%, not over it.
	lines := make([]string, 0, 20)
	for i := 0; i < 19; i++ {
		lines = append(lines, `{"id":"ok"}`)
	}
	lines = append(lines, "{bad")
	seedLines(t, st, store.DecisionsFile, lines...)

	assert.Equal(t, StatusHealthy, Check(st).Status)
}
