// Package queue manages the two outbound JSONL queues: graph operations
// destined for a knowledge-graph store and mem0 entries destined for an
// external memory service. Readers skip corrupt lines, aggregation is
// order-independent, and clear/archive tolerate a missing file.
package queue

import (
	"github.com/ork-ai/orkhooks/internal/store"
)

// Clear removes a queue file. Clearing a missing file is a no-op.
func Clear(st *store.Store, name string) error {
	return st.Remove(name)
}

// Archive moves a queue file into the store's archive directory and
// returns the destination path, empty when there was nothing to archive.
func Archive(st *store.Store, name string) (string, error) {
	return st.Archive(name)
}
