package extract

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ork-ai/orkhooks/internal/event"
	"github.com/ork-ai/orkhooks/internal/hook"
	"github.com/ork-ai/orkhooks/internal/logging"
	"github.com/ork-ai/orkhooks/internal/queue"
	"github.com/ork-ai/orkhooks/internal/store"
)

// mem0UserID scopes queued memories to the project decision log.
const mem0UserID = "project-decisions"

// Observer turns tool output into persisted decision records, queued
// graph operations, and queued memories. Extraction runs on completion
// events only; it can never block a tool call.
type Observer struct {
	st    *store.Store
	ex    *Extractor
	vocab Vocabulary
}

func NewObserver(st *store.Store, vocab Vocabulary) *Observer {
	return &Observer{st: st, ex: New(vocab), vocab: vocab}
}

// Observe processes one tool-completion event. Decisions found in the
// output are appended to the decision store and queued for the graph and
// memory services; a summary goes back to the caller as added context.
// Store failures degrade to a quiet allow.
func (o *Observer) Observe(in *hook.Input) *hook.Result {
	decisions := o.ex.Extract(in.ResponseText())
	if len(decisions) == 0 {
		return hook.Allow()
	}

	now := time.Now()
	for i := range decisions {
		decisions[i].ID = ulid.Make().String()
		decisions[i].Metadata.SessionID = in.SessionID
		decisions[i].Metadata.Timestamp = now
	}

	for _, d := range decisions {
		o.persist(d)
		event.PublishSync(event.Event{
			Type: event.DecisionExtracted,
			Data: event.DecisionExtractedData{
				SessionID:  in.SessionID,
				What:       d.Content.What,
				Confidence: d.Metadata.Confidence,
				Importance: d.Metadata.Importance,
				Entities:   len(d.Entities),
			},
		})
	}

	return hook.AllowWithContext(hook.EventPostToolUse, buildGuidance(decisions))
}

// persist appends the decision record and enqueues the derived graph
// operations and memory entry. Each write is independent; one failing
// store never stops the others.
func (o *Observer) persist(d Decision) {
	if data, err := json.Marshal(d); err == nil {
		if err := o.st.AppendLine(store.DecisionsFile, data); err != nil {
			logging.Warn().Err(err).Msg("Failed to append decision record")
		}
	}

	subject := chosenSubject(d.Content.What)
	if subject == "" {
		subject = d.Content.What
	}

	entities := []queue.Entity{{
		Name:         subject,
		EntityType:   string(d.Type),
		Observations: decisionObservations(d),
	}}
	for _, name := range d.Entities {
		entities = append(entities, queue.Entity{Name: name, EntityType: o.vocab.KindOf(name)})
	}
	o.enqueueGraph(queue.GraphOperation{Type: queue.OpCreateEntities, Entities: entities})

	var relations []queue.Relation
	for _, rel := range Relations(d) {
		relations = append(relations, queue.Relation{
			From: rel.From, To: rel.To, RelationType: rel.RelationType,
		})
	}
	for _, name := range d.Entities {
		relations = append(relations, queue.Relation{
			From: subject, To: name, RelationType: "involves",
		})
	}
	if len(relations) > 0 {
		o.enqueueGraph(queue.GraphOperation{Type: queue.OpCreateRelations, Relations: relations})
	}

	extras := make([]string, 0, len(d.Content.Constraints)+len(d.Content.Tradeoffs))
	extras = append(extras, d.Content.Constraints...)
	extras = append(extras, d.Content.Tradeoffs...)
	if len(extras) > 0 {
		o.enqueueGraph(queue.GraphOperation{
			Type: queue.OpAddObservations,
			Observations: []queue.Observation{
				{EntityName: subject, Contents: extras},
			},
		})
	}

	entry := queue.Mem0Entry{
		Text:   mem0Text(d),
		UserID: mem0UserID,
		Metadata: map[string]any{
			"type":       string(d.Type),
			"category":   d.Metadata.Category,
			"importance": d.Metadata.Importance,
			"confidence": d.Metadata.Confidence,
			"session_id": d.Metadata.SessionID,
		},
	}
	if err := queue.EnqueueMem0(o.st, entry); err != nil {
		logging.Warn().Err(err).Msg("Failed to enqueue memory entry")
	}
}

func (o *Observer) enqueueGraph(op queue.GraphOperation) {
	if err := queue.EnqueueGraphOp(o.st, op); err != nil {
		logging.Warn().Err(err).Msg("Failed to enqueue graph operation")
	}
}

// decisionObservations renders a decision's substance as entity
// observations for the graph store.
func decisionObservations(d Decision) []string {
	obs := []string{"chose: " + d.Content.What}
	if d.Content.Why != "" {
		obs = append(obs, "why: "+d.Content.Why)
	}
	return obs
}

// mem0Text renders a decision as one plain sentence for the memory
// service.
func mem0Text(d Decision) string {
	var b strings.Builder
	b.WriteString("Decision: ")
	b.WriteString(d.Content.What)
	if d.Content.Why != "" {
		b.WriteString(". Why: ")
		b.WriteString(d.Content.Why)
	}
	if len(d.Content.Alternatives) > 0 {
		b.WriteString(". Alternatives: ")
		b.WriteString(strings.Join(d.Content.Alternatives, ", "))
	}
	return b.String()
}

// ReadDecisions returns every parseable decision record in append order,
// plus the count of lines skipped as corrupt. A missing store reads as
// empty.
func ReadDecisions(st *store.Store) (decisions []Decision, skipped int) {
	err := st.ScanLines(store.DecisionsFile, func(line []byte) error {
		var d Decision
		if err := json.Unmarshal(line, &d); err != nil {
			skipped++
			return nil
		}
		decisions = append(decisions, d)
		return nil
	})
	if err != nil && err != store.ErrNotFound {
		logging.Warn().Err(err).Msg("Failed to read decision store")
	}
	return decisions, skipped
}

// buildGuidance summarizes extracted decisions for the invoking agent,
// including the relations worth persisting to durable memory.
func buildGuidance(decisions []Decision) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Captured %d decision(s) from this output:\n", len(decisions))
	for _, d := range decisions {
		fmt.Fprintf(&b, "- [%s/%s, confidence %.2f] %s",
			d.Metadata.Category, d.Metadata.Importance, d.Metadata.Confidence, d.Content.What)
		if d.Content.Why != "" {
			fmt.Fprintf(&b, " (why: %s)", d.Content.Why)
		}
		b.WriteString("\n")
		for _, rel := range Relations(d) {
			fmt.Fprintf(&b, "  relation: %s %s %s\n", rel.From, rel.RelationType, rel.To)
		}
	}
	b.WriteString("Queued for the knowledge graph and project memory; persist anything durable with your memory tools.")
	return b.String()
}
