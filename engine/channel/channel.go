package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// Topics carried by the realtime channel.
const (
	TopicSignal      = "signal"
	TopicModeration  = "moderation"
	TopicMultiplayer = "multiplayer"
)

// ErrChannelClosed is returned by Publish after Close.
var ErrChannelClosed = errors.New("channel closed")

// Message is one realtime event. Messages with To set reach only that participant.
type Message struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"`
	Room    string          `json:"room,omitempty"`
	From    string          `json:"from,omitempty"`
	To      string          `json:"to,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage marshals payload into a message.
func NewMessage(topic, typ, to string, payload any) (Message, error) {
	m := Message{Topic: topic, Type: typ, To: to}
	if payload == nil {
		return m, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return m, fmt.Errorf("marshal %s payload: %w", typ, err)
	}
	m.Payload = b
	return m, nil
}

// Decode unmarshals the payload into v.
func (m Message) Decode(v any) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("%s message has no payload", m.Type)
	}
	return json.Unmarshal(m.Payload, v)
}

// Channel is a participant's connection to the realtime messaging service.
type Channel interface {
	// ID returns the local participant id. Published messages carry it as From.
	ID() string

	// Publish sends m to the room.
	Publish(ctx context.Context, m Message) error

	// Subscribe delivers every message on topic addressed to this participant. The
	// returned func unsubscribes and closes the delivery channel.
	Subscribe(topic string) (<-chan Message, func())

	// Close disconnects and closes every subscription. Calling it twice is a no-op.
	Close() error
}

const subscriberBuffer = 256

// subscribers fans incoming messages out per topic.
type subscribers struct {
	mu     sync.Mutex
	next   int
	subs   map[string]map[int]chan Message
	closed bool
}

func newSubscribers() *subscribers {
	return &subscribers{subs: make(map[string]map[int]chan Message)}
}

func (s *subscribers) add(topic string) (<-chan Message, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Message, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.next
	s.next++
	if s.subs[topic] == nil {
		s.subs[topic] = make(map[int]chan Message)
	}
	s.subs[topic][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[topic][id]; ok {
				delete(s.subs[topic], id)
				close(c)
			}
		})
	}
}

// deliver returns false when a subscriber buffer was full and the message was dropped.
func (s *subscribers) deliver(m Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := true
	for _, ch := range s.subs[m.Topic] {
		select {
		case ch <- m:
		default:
			ok = false
		}
	}
	return ok
}

func (s *subscribers) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for _, topic := range s.subs {
		for id, ch := range topic {
			close(ch)
			delete(topic, id)
		}
	}
}
