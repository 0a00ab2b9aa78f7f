package bus

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Capacity is the fixed buffer size of every subscriber channel. A
// publish that finds a subscriber's channel full drops the event for
// that subscriber rather than blocking every other component in the
// system on one slow reader.
const Capacity = 100

// Bus is a non-blocking broadcast event bus: every subscriber sees
// every event published after it subscribed, unless it falls behind,
// in which case it silently skips events and learns how many it missed
// on its next successful Recv.
type Bus struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
	log  *zap.Logger
}

// New creates an empty bus ready for use.
func New(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{
		subs: make(map[*Subscription]struct{}),
		log:  log,
	}
}

// Subscription is a single subscriber's view of the bus.
type Subscription struct {
	ch      chan Event
	dropped atomic.Uint64
	bus     *Bus
}

// Publish broadcasts e to every current subscriber. Safe to call on a
// nil receiver (no-op), matching components that may be wired up
// without ever having a bus attached during tests.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs {
		select {
		case sub.ch <- e:
		default:
			sub.dropped.Add(1)
		}
	}
}

// Subscribe registers a new subscriber with a Capacity-sized buffer.
// The caller must call Unsubscribe when done to avoid leaking the
// subscription from the bus's internal set.
func (b *Bus) Subscribe() *Subscription {
	sub := &Subscription{
		ch:  make(chan Event, Capacity),
		bus: b,
	}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Unsubscribe removes the subscription. Safe to call more than once.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if b == nil || sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub]; ok {
		delete(b.subs, sub)
		close(sub.ch)
	}
}

// Recv blocks until an event arrives or ctx is done. skipped reports how
// many events were dropped for this subscriber strictly before the
// returned event, mirroring tokio::sync::broadcast's Lagged(n) except
// folded into the next successful receive instead of surfaced as an
// error of its own.
func (s *Subscription) Recv(ctx context.Context) (ev Event, skipped uint64, err error) {
	select {
	case ev, ok := <-s.ch:
		if !ok {
			return nil, 0, context.Canceled
		}
		skipped = s.dropped.Swap(0)
		if skipped > 0 && s.bus != nil {
			s.bus.log.Warn("subscriber lagged, events dropped", zap.Uint64("skipped", skipped))
		}
		return ev, skipped, nil
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	}
}

// TryRecv is the non-blocking variant of Recv.
func (s *Subscription) TryRecv() (ev Event, skipped uint64, ok bool) {
	select {
	case ev, open := <-s.ch:
		if !open {
			return nil, 0, false
		}
		skipped = s.dropped.Swap(0)
		if skipped > 0 && s.bus != nil {
			s.bus.log.Warn("subscriber lagged, events dropped", zap.Uint64("skipped", skipped))
		}
		return ev, skipped, true
	default:
		return nil, 0, false
	}
}

// SubscriberCount returns the number of active subscriptions.
func (b *Bus) SubscriberCount() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
