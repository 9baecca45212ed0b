package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ork-ai/orkhooks/internal/store"
)

func TestMem0Queue_RoundTrip(t *testing.T) {
	st := newQueueStore(t)

	require.NoError(t, EnqueueMem0(st, Mem0Entry{
		Text:   "Decision: PostgreSQL. Why: concurrent writers",
		UserID: "project-decisions",
		Metadata: map[string]any{
			"category":   "data",
			"confidence": 0.9,
		},
	}))

	entries, skipped := ReadMem0Queue(st)
	assert.Zero(t, skipped)
	require.Len(t, entries, 1)
	assert.Equal(t, "Decision: PostgreSQL. Why: concurrent writers", entries[0].Text)
	assert.Equal(t, "project-decisions", entries[0].UserID)
	assert.Equal(t, "data", entries[0].Metadata["category"])
	assert.Equal(t, 0.9, entries[0].Metadata["confidence"])
	assert.False(t, entries[0].QueuedAt.IsZero())
}

func TestReadMem0Queue_SkipsCorruptAndBlank(t *testing.T) {
	st := newQueueStore(t)

	require.NoError(t, st.AppendLine(store.Mem0QueueFile, []byte("not json at all")))
	require.NoError(t, st.AppendLine(store.Mem0QueueFile, []byte(`{"user_id":"x"}`)))
	require.NoError(t, EnqueueMem0(st, Mem0Entry{Text: "kept", UserID: "x"}))

	entries, skipped := ReadMem0Queue(st)
	assert.Equal(t, 2, skipped)
	require.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0].Text)
}

func TestReadMem0Queue_MissingFileIsEmpty(t *testing.T) {
	st := newQueueStore(t)

	entries, skipped := ReadMem0Queue(st)
	assert.Empty(t, entries)
	assert.Zero(t, skipped)
}

func TestDeduplicate_KeepsFirstOccurrence(t *testing.T) {
	entries := []Mem0Entry{
		{Text: "use chi", Metadata: map[string]any{"session_id": "first"}},
		{Text: "use redis"},
		{Text: "use chi", Metadata: map[string]any{"session_id": "second"}},
		{Text: "use redis"},
	}

	out := Deduplicate(entries)
	require.Len(t, out, 2)
	assert.Equal(t, "use chi", out[0].Text)
	assert.Equal(t, "first", out[0].Metadata["session_id"])
	assert.Equal(t, "use redis", out[1].Text)
}

func TestDeduplicate_LeavesInputIntact(t *testing.T) {
	entries := []Mem0Entry{
		{Text: "a"}, {Text: "a"}, {Text: "b"},
	}

	out := Deduplicate(entries)
	assert.Len(t, out, 2)
	assert.Len(t, entries, 3)
	assert.Equal(t, "a", entries[1].Text)
}

func TestDeduplicate_Empty(t *testing.T) {
	assert.Empty(t, Deduplicate(nil))
}
