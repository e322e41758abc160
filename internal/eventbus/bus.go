// Package eventbus is the Event Bus: a process-wide publisher with
// one logical topic. Publish never blocks the caller — each subscriber owns
// a buffered channel, and a subscriber that falls behind has its oldest
// queued event dropped to make room for the new one.
//
// Shaped as a plain subscribe/publish registry over typed topics, rather
// than raw []byte topics, since the ledger and WS gateway both need the
// typed WebSocketEvent union.
package eventbus

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"kromer/internal/store"
)

// EventKind is the closed set of event variants carried by WebSocketEvent.
type EventKind string

const (
	KindBlock       EventKind = "block"
	KindTransaction EventKind = "transaction"
	KindName        EventKind = "name"
)

// WebSocketEvent is the typed union published through the bus and fanned
// out to subscribed WS clients. Exactly one of Block/Transaction/Name
// is set, selected by Kind.
type WebSocketEvent struct {
	Kind EventKind

	Block       *BlockPayload
	Transaction *store.Transaction
	Name        *store.Name
}

// BlockPayload is the (currently unreachable, since mining is disabled)
// block-event payload, kept so the union shape matches exactly.
type BlockPayload struct {
	Block   any
	NewWork int64
}

// NewTransactionEvent wraps t as a WebSocketEvent.
func NewTransactionEvent(t *store.Transaction) WebSocketEvent {
	return WebSocketEvent{Kind: KindTransaction, Transaction: t}
}

// NewNameEvent wraps n as a WebSocketEvent (e.g. after TransferOwnership).
func NewNameEvent(n *store.Name) WebSocketEvent {
	return WebSocketEvent{Kind: KindName, Name: n}
}

// subscriberQueueSize bounds how many undelivered events a slow subscriber
// may accumulate before the oldest is dropped.
const subscriberQueueSize = 64

// Bus is the in-process broadcast channel. The zero value is not usable;
// construct with New.
type Bus struct {
	mu   sync.Mutex
	subs map[int64]chan WebSocketEvent
	next int64
}

// New returns a ready-to-use Bus.
func New() *Bus {
	return &Bus{subs: make(map[int64]chan WebSocketEvent)}
}

// Subscription is a live subscriber handle. Call Close when the subscriber
// (e.g. a WS session) goes away.
type Subscription struct {
	id     int64
	events chan WebSocketEvent
	bus    *Bus
}

// Events returns the channel of events for this subscriber.
func (s *Subscription) Events() <-chan WebSocketEvent { return s.events }

// Close removes the subscription from the bus. Idempotent.
func (s *Subscription) Close() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	if ch, ok := s.bus.subs[s.id]; ok {
		delete(s.bus.subs, s.id)
		close(ch)
	}
}

// Subscribe registers a new subscriber and returns its handle.
func (b *Bus) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan WebSocketEvent, subscriberQueueSize)
	b.subs[id] = ch
	return &Subscription{id: id, events: ch, bus: b}
}

// Publish fans ev out to every current subscriber without blocking the
// caller. A subscriber whose queue is full has its oldest event dropped to
// make room, and the drop is logged.
func (b *Bus) Publish(ev WebSocketEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
				log.WithFields(log.Fields{"subscriber": id, "kind": ev.Kind}).Warn("event bus: slow subscriber, dropped oldest event")
			default:
			}
			select {
			case ch <- ev:
			default:
				// not reached in practice: every send happens under b.mu, so
				// the slot freed above is still free; kept so Publish never blocks.
			}
		}
	}
}

// SubscriberCount reports the current number of live subscriptions, mostly
// useful for diagnostics/tests.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
