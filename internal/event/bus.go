// Package event provides the ordered, non-durable publish/subscribe
// broadcaster for committed domain events. Late subscribers miss past
// events; there is no replay.
package event

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/swalker2m/gem-odb-api/internal/logging"
	"github.com/swalker2m/gem-odb-api/pkg/odb"
)

// DefaultBuffer is the per-subscriber channel capacity. A subscriber that
// falls further behind than this starts losing deliveries; publication never
// stalls on it.
const DefaultBuffer = 64

// Bus assigns logical sequence numbers to published events and fans them out
// to every live subscriber in one total order.
type Bus struct {
	mu     sync.Mutex
	seq    int64
	subs   map[uuid.UUID]*Subscription
	buffer int
	logger logging.Logger
}

// Option configures a Bus.
type Option func(*Bus)

// WithBuffer sets the per-subscriber channel capacity.
func WithBuffer(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.buffer = n
		}
	}
}

// WithLogger sets the logger used to report dropped deliveries.
func WithLogger(l logging.Logger) Option {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBus constructs an event bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		subs:   make(map[uuid.UUID]*Subscription),
		buffer: DefaultBuffer,
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish assigns the next sequence number, hands it to build, and delivers
// the finished event to every current subscriber. Publication cannot fail; a
// subscriber with a full buffer loses the delivery rather than blocking the
// publisher or the other subscribers.
func (b *Bus) Publish(build func(odb.EventID) odb.Event) odb.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	ev := build(odb.EventID(b.seq))
	for _, sub := range b.subs {
		select {
		case sub.ch <- ev:
		default:
			sub.dropped.Add(1)
			b.logger.Warn("event delivery dropped for slow subscriber",
				"subscriber", sub.id.String(), "event", int64(ev.ID), "entity", string(ev.Entity))
		}
	}
	return ev
}

// LastID returns the most recently assigned sequence number.
func (b *Bus) LastID() odb.EventID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return odb.EventID(b.seq)
}

// Subscribe registers a live feed of subsequently published events. Events
// published before the call are not replayed.
func (b *Bus) Subscribe() *Subscription {
	sub := &Subscription{
		id:  uuid.New(),
		ch:  make(chan odb.Event, b.buffer),
		bus: b,
	}
	b.mu.Lock()
	b.subs[sub.id] = sub
	b.mu.Unlock()
	return sub
}

// Subscription is one subscriber's feed. Cancel detaches it without
// affecting the publisher or other subscribers.
type Subscription struct {
	id      uuid.UUID
	ch      chan odb.Event
	bus     *Bus
	once    sync.Once
	dropped atomic.Int64
}

// ID returns the subscriber identifier.
func (s *Subscription) ID() uuid.UUID { return s.id }

// Events returns the receive side of the feed. The channel closes when the
// subscription is cancelled.
func (s *Subscription) Events() <-chan odb.Event { return s.ch }

// Dropped returns how many deliveries this subscriber has lost to a full
// buffer.
func (s *Subscription) Dropped() int64 { return s.dropped.Load() }

// Cancel detaches the subscription and closes its channel. Safe to call more
// than once.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s.id)
		close(s.ch)
		s.bus.mu.Unlock()
	})
}
