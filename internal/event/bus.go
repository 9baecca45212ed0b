// Package event is the in-process pub/sub bus for the hook pipeline.
package event

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// EventType identifies what happened.
type EventType string

const (
	GateAllowed       EventType = "gate.allowed"
	GateDenied        EventType = "gate.denied"
	GateAdvisory      EventType = "gate.advisory"
	PatternLearned    EventType = "pattern.learned"
	DecisionExtracted EventType = "decision.extracted"
	QueueProcessed    EventType = "queue.processed"
	QueueSynced       EventType = "queue.synced"
	HealthChanged     EventType = "health.changed"
	BranchUpdated     EventType = "branch.updated"
)

// Event pairs an EventType with its payload.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

// Subscriber receives events.
type Subscriber func(event Event)

// registration is one subscriber together with its removal handle.
type registration struct {
	id uint64
	fn Subscriber
}

// wireTopic is the watermill topic behind Publish.
const wireTopic = "events"

// bus fans events out to registered subscribers. Synchronous publishes
// dispatch inline in the caller's goroutine; asynchronous ones cross a
// watermill gochannel and are handed out by the deliver goroutine.
type bus struct {
	mu       sync.RWMutex
	byType   map[EventType][]registration
	catchAll []registration
	lastID   uint64
	closed   bool

	wire *gochannel.GoChannel
	stop context.CancelFunc
}

// active is the process-wide bus. Hook commands are one-shot processes,
// so one bus per process is all there is.
var active atomic.Pointer[bus]

func init() {
	active.Store(start())
}

func start() *bus {
	ctx, cancel := context.WithCancel(context.Background())
	b := &bus{
		byType: make(map[EventType][]registration),
		wire: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 64},
			watermill.NopLogger{},
		),
		stop: cancel,
	}
	msgs, err := b.wire.Subscribe(ctx, wireTopic)
	if err != nil {
		// Subscribe only fails on a closed channel.
		cancel()
		return b
	}
	go b.deliver(msgs)
	return b
}

// Subscribe registers fn for one event type and returns a function that
// removes the registration.
func Subscribe(eventType EventType, fn Subscriber) func() {
	return active.Load().subscribe(eventType, fn)
}

// SubscribeAll registers fn for every event type. The audit trail and the
// serve-mode SSE stream hang off this.
func SubscribeAll(fn Subscriber) func() {
	return active.Load().subscribeAll(fn)
}

func (b *bus) subscribe(eventType EventType, fn Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return func() {}
	}
	b.lastID++
	id := b.lastID
	b.byType[eventType] = append(b.byType[eventType], registration{id: id, fn: fn})
	return func() { b.remove(eventType, id) }
}

func (b *bus) subscribeAll(fn Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return func() {}
	}
	b.lastID++
	id := b.lastID
	b.catchAll = append(b.catchAll, registration{id: id, fn: fn})
	return func() { b.removeCatchAll(id) }
}

func (b *bus) remove(eventType EventType, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	regs := b.byType[eventType]
	for i, r := range regs {
		if r.id == id {
			b.byType[eventType] = append(regs[:i], regs[i+1:]...)
			return
		}
	}
}

func (b *bus) removeCatchAll(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, r := range b.catchAll {
		if r.id == id {
			b.catchAll = append(b.catchAll[:i], b.catchAll[i+1:]...)
			return
		}
	}
}

// PublishSync hands ev to every subscriber before returning. Gate and
// observe processes exit right after emitting a verdict, so anything
// that must reach the audit trail goes through here.
func PublishSync(ev Event) {
	active.Load().dispatch(ev)
}

// Publish hands ev to subscribers without waiting for them. The event
// crosses the watermill channel as JSON, so subscribers see Data as
// decoded maps rather than the published type. Meant for notifications
// nothing waits on, such as pattern.learned.
func Publish(ev Event) {
	active.Load().enqueue(ev)
}

func (b *bus) enqueue(ev Event) {
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_ = b.wire.Publish(wireTopic, message.NewMessage(watermill.NewUUID(), payload))
}

// deliver drains the wire and fans each decoded event out to
// subscribers. Runs until Reset closes the channel.
func (b *bus) deliver(msgs <-chan *message.Message) {
	for msg := range msgs {
		var ev Event
		if err := json.Unmarshal(msg.Payload, &ev); err == nil {
			b.dispatch(ev)
		}
		msg.Ack()
	}
}

func (b *bus) dispatch(ev Event) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	targets := make([]Subscriber, 0, len(b.byType[ev.Type])+len(b.catchAll))
	for _, r := range b.byType[ev.Type] {
		targets = append(targets, r.fn)
	}
	for _, r := range b.catchAll {
		targets = append(targets, r.fn)
	}
	b.mu.RUnlock()

	// Callbacks run outside the lock, so a subscriber may publish or
	// unsubscribe without deadlocking.
	for _, fn := range targets {
		fn(ev)
	}
}

// Reset replaces the bus with a fresh one, shedding every subscriber.
// Publishes still in flight land on the old bus and go nowhere. Tests
// use this to isolate themselves from subscribers left behind earlier.
func Reset() {
	active.Swap(start()).shutdown()
}

func (b *bus) shutdown() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.byType = make(map[EventType][]registration)
	b.catchAll = nil
	b.mu.Unlock()

	b.stop()
	_ = b.wire.Close()
}
