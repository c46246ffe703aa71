package channel

import (
	"context"
	"sync"
)

// Bus is an in-process room. Every endpoint joined to it sees the others' messages with
// the same routing as the relay hub.
type Bus struct {
	mu        sync.Mutex
	room      string
	endpoints map[string]*loopback
}

// NewBus creates an empty in-process room.
func NewBus(room string) *Bus {
	return &Bus{room: room, endpoints: make(map[string]*loopback)}
}

// Join connects participant id. Joining an id twice replaces the earlier endpoint.
func (b *Bus) Join(id string) Channel {
	b.mu.Lock()
	defer b.mu.Unlock()
	if old, ok := b.endpoints[id]; ok {
		old.subs.close()
	}
	l := &loopback{bus: b, id: id, subs: newSubscribers()}
	b.endpoints[id] = l
	return l
}

// Participants returns the number of joined endpoints.
func (b *Bus) Participants() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.endpoints)
}

func (b *Bus) route(m Message) {
	b.mu.Lock()
	targets := make([]*loopback, 0, len(b.endpoints))
	for id, l := range b.endpoints {
		if id == m.From || (m.To != "" && id != m.To) {
			continue
		}
		targets = append(targets, l)
	}
	b.mu.Unlock()

	for _, l := range targets {
		l.subs.deliver(m)
	}
}

func (b *Bus) leave(l *loopback) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.endpoints[l.id] == l {
		delete(b.endpoints, l.id)
	}
}

type loopback struct {
	bus  *Bus
	id   string
	subs *subscribers

	mu     sync.Mutex
	closed bool
}

var _ Channel = &loopback{}

func (l *loopback) ID() string { return l.id }

func (l *loopback) Publish(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return ErrChannelClosed
	}
	m.From = l.id
	m.Room = l.bus.room
	l.bus.route(m)
	return nil
}

func (l *loopback) Subscribe(topic string) (<-chan Message, func()) {
	return l.subs.add(topic)
}

func (l *loopback) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	l.bus.leave(l)
	l.subs.close()
	return nil
}
