/*
Package event provides a type-safe, pub/sub event system for the hook gate.

The event system enables decoupled communication between the gate pipeline and
its observers (the audit trail and the serve-mode SSE stream) by allowing
publishers to emit events and subscribers to react to them without direct
dependencies.

# Architecture

A single process-wide bus serves the whole process; hook commands are one-shot,
so nothing ever needs a second one. Synchronous publishes dispatch inline in
the caller's goroutine. Asynchronous publishes ride a watermill gochannel and
are fanned out by a background dispatcher.

# Event Types

Gate events:
  - gate.allowed: A tool call passed every check
  - gate.denied: A security rule blocked a tool call
  - gate.advisory: Guidance attached to an allowed call
  - pattern.learned: A learned allow pattern was recorded

Observation events:
  - decision.extracted: A decision record was extracted from tool output
  - queue.processed: A memory queue was read and aggregated
  - queue.synced: A memory queue was drained to the external server
  - health.changed: Memory store health status changed tier
  - branch.updated: The git branch watcher saw HEAD move

# Publishing

Synchronous publishing blocks until every subscriber has run. Gate and observe
processes exit immediately after emitting a verdict, so anything that must
reach the audit trail goes through PublishSync:

	event.PublishSync(event.Event{
		Type: event.GateDenied,
		Data: event.GateDeniedData{
			Tool:   "Bash",
			Reason: "dangerous command",
		},
	})

Asynchronous publishing returns without waiting. The event crosses the
watermill channel as JSON, so subscribers see Data as decoded maps rather than
the published struct:

	event.Publish(event.Event{
		Type: event.PatternLearned,
		Data: event.PatternLearnedData{Pattern: "git push origin"},
	})

# Subscribing

Subscribing to specific events:

	unsubscribe := event.Subscribe(event.GateDenied, func(e event.Event) {
		data := e.Data.(event.GateDeniedData)
		log.Info("Denied", "rule", data.Rule)
	})
	defer unsubscribe()

The type assertion above holds for synchronously published events only; an
event that crossed the wire carries map[string]any.

Subscribing to all events:

	unsubscribe := event.SubscribeAll(func(e event.Event) {
		log.Debug("Event received", "type", e.Type)
	})
	defer unsubscribe()

# Subscriber Safety

Callbacks run outside the bus lock, so a subscriber may publish or unsubscribe
from within its own callback. Subscribers on the synchronous path run in the
publisher's goroutine and should:

  - Complete quickly (avoid long-running operations)
  - Use non-blocking channel sends (select with default case)

# Testing

Reset replaces the bus with a fresh one, shedding every subscriber:

	event.Reset()

# Thread Safety

The bus is safe for concurrent use. Publishing and subscribing from multiple
goroutines need no external synchronization.
*/
package event
