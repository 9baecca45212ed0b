package queue

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ork-ai/orkhooks/internal/store"
)

func newQueueStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(filepath.Join(t.TempDir(), "state"))
}

func TestGraphQueue_RoundTrip(t *testing.T) {
	st := newQueueStore(t)

	require.NoError(t, EnqueueGraphOp(st, GraphOperation{
		Type:     OpCreateEntities,
		Entities: []Entity{{Name: "redis", EntityType: "technology"}},
	}))
	require.NoError(t, EnqueueGraphOp(st, GraphOperation{
		Type:      OpCreateRelations,
		Relations: []Relation{{From: "api", To: "redis", RelationType: "involves"}},
	}))

	ops, skipped := ReadGraphQueue(st)
	assert.Zero(t, skipped)
	require.Len(t, ops, 2)
	assert.Equal(t, OpCreateEntities, ops[0].Type)
	assert.Equal(t, "redis", ops[0].Entities[0].Name)
	assert.False(t, ops[0].QueuedAt.IsZero())
	assert.Equal(t, OpCreateRelations, ops[1].Type)
}

func TestReadGraphQueue_SkipsCorruptLines(t *testing.T) {
	st := newQueueStore(t)

	require.NoError(t, st.AppendLine(store.GraphQueueFile, []byte("{not json")))
	require.NoError(t, EnqueueGraphOp(st, GraphOperation{
		Type:     OpCreateEntities,
		Entities: []Entity{{Name: "kafka"}},
	}))
	require.NoError(t, st.AppendLine(store.GraphQueueFile, []byte(`{"entities":[]}`)))

	ops, skipped := ReadGraphQueue(st)
	assert.Equal(t, 2, skipped)
	require.Len(t, ops, 1)
	assert.Equal(t, "kafka", ops[0].Entities[0].Name)
}

func TestReadGraphQueue_MissingFileIsEmpty(t *testing.T) {
	st := newQueueStore(t)

	ops, skipped := ReadGraphQueue(st)
	assert.Empty(t, ops)
	assert.Zero(t, skipped)
}

func TestAggregate_CollapsesRepeatedEntities(t *testing.T) {
	var ops []GraphOperation
	for i := 0; i < 1000; i++ {
		ops = append(ops, GraphOperation{
			Type: OpCreateEntities,
			Entities: []Entity{{
				Name:         "postgresql",
				EntityType:   "technology",
				Observations: []string{fmt.Sprintf("mention %d", i%3)},
			}},
		})
	}

	agg := Aggregate(ops)
	require.Len(t, agg.Entities, 1)
	assert.Equal(t, "postgresql", agg.Entities[0].Name)
	assert.Equal(t, "technology", agg.Entities[0].EntityType)
	assert.Equal(t, []string{"mention 0", "mention 1", "mention 2"}, agg.Entities[0].Observations)
}

func TestAggregate_OrderIndependent(t *testing.T) {
	ops := []GraphOperation{
		{Type: OpCreateEntities, Entities: []Entity{
			{Name: "redis", EntityType: "technology", Observations: []string{"cache layer"}},
			{Name: "api", EntityType: "decision"},
		}},
		{Type: OpCreateRelations, Relations: []Relation{
			{From: "api", To: "redis", RelationType: "involves"},
		}},
		{Type: OpAddObservations, Observations: []Observation{
			{EntityName: "redis", Contents: []string{"ttl of one hour"}},
		}},
		{Type: OpCreateEntities, Entities: []Entity{
			{Name: "redis", Observations: []string{"cache layer", "shared instance"}},
		}},
	}

	forward := Aggregate(ops)

	reversed := make([]GraphOperation, 0, len(ops))
	for i := len(ops) - 1; i >= 0; i-- {
		reversed = append(reversed, ops[i])
	}
	assert.Equal(t, forward, Aggregate(reversed))

	rotated := append(append([]GraphOperation{}, ops[2:]...), ops[:2]...)
	assert.Equal(t, forward, Aggregate(rotated))
}

func TestAggregate_FirstNonEmptyTypeWins(t *testing.T) {
	agg := Aggregate([]GraphOperation{
		{Type: OpCreateEntities, Entities: []Entity{{Name: "vitest"}}},
		{Type: OpCreateEntities, Entities: []Entity{{Name: "vitest", EntityType: "technology"}}},
		{Type: OpCreateEntities, Entities: []Entity{{Name: "vitest", EntityType: "preference"}}},
	})

	require.Len(t, agg.Entities, 1)
	assert.Equal(t, "technology", agg.Entities[0].EntityType)
}

func TestAggregate_RelationsDedupeByTriple(t *testing.T) {
	agg := Aggregate([]GraphOperation{
		{Type: OpCreateRelations, Relations: []Relation{
			{From: "chi", To: "gorilla", RelationType: "chose_over"},
			{From: "chi", To: "gorilla", RelationType: "chose_over"},
			{From: "chi", To: "gorilla", RelationType: "replaces"},
			{From: "", To: "gorilla", RelationType: "chose_over"},
		}},
	})

	assert.Equal(t, []Relation{
		{From: "chi", To: "gorilla", RelationType: "chose_over"},
		{From: "chi", To: "gorilla", RelationType: "replaces"},
	}, agg.Relations)
}

func TestAggregate_ObservationsMergeByEntity(t *testing.T) {
	agg := Aggregate([]GraphOperation{
		{Type: OpAddObservations, Observations: []Observation{
			{EntityName: "postgresql", Contents: []string{"needs connection pooling", ""}},
			{EntityName: "", Contents: []string{"dropped"}},
		}},
		{Type: OpAddObservations, Observations: []Observation{
			{EntityName: "postgresql", Contents: []string{"needs connection pooling", "adds operational overhead"}},
		}},
	})

	require.Len(t, agg.Observations, 1)
	assert.Equal(t, Observation{
		EntityName: "postgresql",
		Contents:   []string{"adds operational overhead", "needs connection pooling"},
	}, agg.Observations[0])
}

func TestAggregate_SkipsEmptyEntityNames(t *testing.T) {
	agg := Aggregate([]GraphOperation{
		{Type: OpCreateEntities, Entities: []Entity{{Name: ""}, {Name: "kept"}}},
	})

	require.Len(t, agg.Entities, 1)
	assert.Equal(t, "kept", agg.Entities[0].Name)
}

func TestClear(t *testing.T) {
	st := newQueueStore(t)
	require.NoError(t, EnqueueGraphOp(st, GraphOperation{
		Type:     OpCreateEntities,
		Entities: []Entity{{Name: "redis"}},
	}))

	require.NoError(t, Clear(st, store.GraphQueueFile))
	assert.False(t, st.Exists(store.GraphQueueFile))

	// Clearing again is a no-op.
	require.NoError(t, Clear(st, store.GraphQueueFile))
}

func TestArchive_MovesQueueAside(t *testing.T) {
	st := newQueueStore(t)
	require.NoError(t, EnqueueGraphOp(st, GraphOperation{
		Type:     OpCreateEntities,
		Entities: []Entity{{Name: "redis"}},
	}))

	dst, err := Archive(st, store.GraphQueueFile)
	require.NoError(t, err)
	assert.Equal(t, st.ArchiveDir(), filepath.Dir(dst))
	assert.Contains(t, filepath.Base(dst), "graph-queue")
	assert.False(t, st.Exists(store.GraphQueueFile))

	ops, _ := ReadGraphQueue(st)
	assert.Empty(t, ops)
}

func TestArchive_MissingFileIsNoOp(t *testing.T) {
	st := newQueueStore(t)

	dst, err := Archive(st, store.GraphQueueFile)
	require.NoError(t, err)
	assert.Empty(t, dst)
}
