package queue

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/ork-ai/orkhooks/internal/logging"
	"github.com/ork-ai/orkhooks/internal/store"
)

// Graph operation types, matching the local knowledge-graph MCP
// convention.
const (
	OpCreateEntities  = "create_entities"
	OpCreateRelations = "create_relations"
	OpAddObservations = "add_observations"
)

// GraphOperation is one queued mutation. Type selects which payload
// field is meaningful.
type GraphOperation struct {
	Type     string    `json:"type"`
	QueuedAt time.Time `json:"queued_at"`

	Entities     []Entity      `json:"entities,omitempty"`
	Relations    []Relation    `json:"relations,omitempty"`
	Observations []Observation `json:"observations,omitempty"`
}

type Entity struct {
	Name         string   `json:"name"`
	EntityType   string   `json:"entityType"`
	Observations []string `json:"observations,omitempty"`
}

type Relation struct {
	From         string `json:"from"`
	To           string `json:"to"`
	RelationType string `json:"relationType"`
}

type Observation struct {
	EntityName string   `json:"entityName"`
	Contents   []string `json:"contents,omitempty"`
}

// EnqueueGraphOp appends one operation to the graph queue.
func EnqueueGraphOp(st *store.Store, op GraphOperation) error {
	if op.QueuedAt.IsZero() {
		op.QueuedAt = time.Now()
	}
	data, err := json.Marshal(op)
	if err != nil {
		return err
	}
	return st.AppendLine(store.GraphQueueFile, data)
}

// ReadGraphQueue parses the graph queue into typed operations. Lines
// that fail to parse or carry no operation type are counted as skipped;
// a missing file reads as empty.
func ReadGraphQueue(st *store.Store) (ops []GraphOperation, skipped int) {
	err := st.ScanLines(store.GraphQueueFile, func(line []byte) error {
		var op GraphOperation
		if err := json.Unmarshal(line, &op); err != nil || op.Type == "" {
			skipped++
			return nil
		}
		ops = append(ops, op)
		return nil
	})
	if err != nil && err != store.ErrNotFound {
		logging.Warn().Err(err).Msg("Failed to read graph queue")
	}
	return ops, skipped
}

// Aggregated is the folded form of a queue: entities deduplicated by
// name, relations by (from, to, type), observations by entity with
// contents deduplicated. All collections are sorted, so aggregating the
// same operations in any order yields the same value.
type Aggregated struct {
	Entities     []Entity
	Relations    []Relation
	Observations []Observation
}

// Aggregate folds operations into deduplicated collections. A thousand
// mentions of one entity collapse to a single record. When duplicate
// entities disagree on type, the first non-empty type wins.
func Aggregate(ops []GraphOperation) Aggregated {
	entities := make(map[string]*Entity)
	entitySeen := make(map[string]map[string]bool)
	relations := make(map[[3]string]Relation)
	contents := make(map[string]map[string]bool)

	for _, op := range ops {
		switch op.Type {
		case OpCreateEntities:
			for _, e := range op.Entities {
				if e.Name == "" {
					continue
				}
				cur, ok := entities[e.Name]
				if !ok {
					cur = &Entity{Name: e.Name, EntityType: e.EntityType}
					entities[e.Name] = cur
					entitySeen[e.Name] = make(map[string]bool)
				}
				if cur.EntityType == "" {
					cur.EntityType = e.EntityType
				}
				for _, obs := range e.Observations {
					if obs == "" || entitySeen[e.Name][obs] {
						continue
					}
					entitySeen[e.Name][obs] = true
					cur.Observations = append(cur.Observations, obs)
				}
			}
		case OpCreateRelations:
			for _, r := range op.Relations {
				if r.From == "" || r.To == "" {
					continue
				}
				relations[[3]string{r.From, r.To, r.RelationType}] = r
			}
		case OpAddObservations:
			for _, o := range op.Observations {
				if o.EntityName == "" {
					continue
				}
				set, ok := contents[o.EntityName]
				if !ok {
					set = make(map[string]bool)
					contents[o.EntityName] = set
				}
				for _, c := range o.Contents {
					if c != "" {
						set[c] = true
					}
				}
			}
		}
	}

	var agg Aggregated
	for _, e := range entities {
		sort.Strings(e.Observations)
		agg.Entities = append(agg.Entities, *e)
	}
	sort.Slice(agg.Entities, func(i, j int) bool {
		return agg.Entities[i].Name < agg.Entities[j].Name
	})

	for _, r := range relations {
		agg.Relations = append(agg.Relations, r)
	}
	sort.Slice(agg.Relations, func(i, j int) bool {
		a, b := agg.Relations[i], agg.Relations[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.RelationType < b.RelationType
	})

	for name, set := range contents {
		obs := Observation{EntityName: name}
		for c := range set {
			obs.Contents = append(obs.Contents, c)
		}
		sort.Strings(obs.Contents)
		agg.Observations = append(agg.Observations, obs)
	}
	sort.Slice(agg.Observations, func(i, j int) bool {
		return agg.Observations[i].EntityName < agg.Observations[j].EntityName
	})

	return agg
}
