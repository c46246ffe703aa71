package multiplayer

import (
	"context"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-presence/engine/channel"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultInterval is the minimum time between outgoing pose updates.
const DefaultInterval = 50 * time.Millisecond

// Sync publishes the local pose and collects remote participants' updates.
type Sync interface {
	// Start subscribes to the multiplayer topic and starts the sender.
	Start(ctx context.Context) error

	// Join announces the local participant.
	Join(name string, position, rotation mgl32.Vec3)

	// Leave announces departure. Later Tick calls send nothing.
	Leave()

	// Tick advances the throttle clock and queues a pose update when one is due and
	// the pose changed.
	Tick(delta time.Duration, position, rotation mgl32.Vec3) bool

	// Apply delivers every update received since the last call to sinks, in order.
	Apply(sinks ...Sink)

	// Participants returns the ids of known remote participants.
	Participants() []string

	// Sent returns how many updates have been published.
	Sent() int

	// Close stops the sender and the subscription.
	Close() error
}

type syncImpl struct {
	mu       *sync.Mutex
	logger   *log.Logger
	channel  channel.Channel
	interval time.Duration

	name     string
	joined   bool
	elapsed  time.Duration
	lastSent time.Duration
	hasSent  bool
	lastPos  mgl32.Vec3
	lastRot  mgl32.Vec3

	incoming []Update
	known    map[string]string
	sent     int

	outbox chan Update
	cancel context.CancelFunc
	done   chan struct{}
}

var _ Sync = &syncImpl{}

// NewSync creates a multiplayer sync over ch.
func NewSync(ch channel.Channel, options ...SyncBuilderOption) Sync {
	s := &syncImpl{
		mu:       &sync.Mutex{},
		logger:   log.New(os.Stdout, "[multiplayer] ", log.LstdFlags|log.Lmicroseconds),
		channel:  ch,
		interval: DefaultInterval,
		known:    make(map[string]string),
		outbox:   make(chan Update, 16),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *syncImpl) Start(ctx context.Context) error {
	msgs, unsubscribe := s.channel.Subscribe(channel.TopicMultiplayer)
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go func() {
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				s.receive(ctx, m)
			}
		}
	}()

	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				s.flush()
				return
			case u := <-s.outbox:
				s.publish(ctx, u, "")
			}
		}
	}()
	return nil
}

// flush sends whatever is still queued, such as a final player-left.
func (s *syncImpl) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for {
		select {
		case u := <-s.outbox:
			s.publish(ctx, u, "")
		default:
			return
		}
	}
}

func (s *syncImpl) publish(ctx context.Context, u Update, to string) {
	m, err := channel.NewMessage(channel.TopicMultiplayer, u.Type, to, u)
	if err != nil {
		s.logger.Printf("encode %s: %v", u.Type, err)
		return
	}
	if err := s.channel.Publish(ctx, m); err != nil {
		s.logger.Printf("publish %s: %v", u.Type, err)
		return
	}
	s.mu.Lock()
	s.sent++
	s.mu.Unlock()
}

func (s *syncImpl) receive(ctx context.Context, m channel.Message) {
	if m.From == s.channel.ID() {
		return
	}
	var u Update
	if err := m.Decode(&u); err != nil {
		s.logger.Printf("drop %s from %s: %v", m.Type, m.From, err)
		return
	}
	// the sender is authoritative for its own id
	u.ID = m.From
	if u.Type == "" {
		u.Type = m.Type
	}

	s.mu.Lock()
	s.incoming = append(s.incoming, u)
	reply := u.Type == TypeJoined && m.To == "" && s.joined
	hello := Update{Type: TypeJoined, ID: s.channel.ID(), Name: s.name, Position: toWire(s.lastPos), Rotation: toWire(s.lastRot)}
	s.mu.Unlock()

	if reply {
		// tell the newcomer about us directly
		s.publish(ctx, hello, u.ID)
	}
}

func (s *syncImpl) enqueue(u Update) {
	select {
	case s.outbox <- u:
	default:
		s.logger.Printf("outbox full, dropped %s", u.Type)
	}
}

func (s *syncImpl) Join(name string, position, rotation mgl32.Vec3) {
	s.mu.Lock()
	s.name = name
	s.joined = true
	s.lastPos, s.lastRot = position, rotation
	s.lastSent, s.hasSent = s.elapsed, true
	u := Update{Type: TypeJoined, ID: s.channel.ID(), Name: name, Position: toWire(position), Rotation: toWire(rotation)}
	s.mu.Unlock()
	s.enqueue(u)
}

func (s *syncImpl) Leave() {
	s.mu.Lock()
	if !s.joined {
		s.mu.Unlock()
		return
	}
	s.joined = false
	u := Update{Type: TypeLeft, ID: s.channel.ID()}
	s.mu.Unlock()
	s.enqueue(u)
}

func (s *syncImpl) Tick(delta time.Duration, position, rotation mgl32.Vec3) bool {
	s.mu.Lock()
	s.elapsed += delta
	if !s.joined {
		s.mu.Unlock()
		return false
	}
	if s.hasSent && s.elapsed-s.lastSent < s.interval {
		s.mu.Unlock()
		return false
	}
	if s.hasSent && position == s.lastPos && rotation == s.lastRot {
		s.mu.Unlock()
		return false
	}
	s.lastSent, s.hasSent = s.elapsed, true
	s.lastPos, s.lastRot = position, rotation
	u := Update{Type: TypeMoved, ID: s.channel.ID(), Position: toWire(position), Rotation: toWire(rotation)}
	s.mu.Unlock()

	s.enqueue(u)
	return true
}

func (s *syncImpl) Apply(sinks ...Sink) {
	s.mu.Lock()
	updates := s.incoming
	s.incoming = nil
	for _, u := range updates {
		switch u.Type {
		case TypeJoined:
			s.known[u.ID] = u.Name
		case TypeMoved:
			if _, ok := s.known[u.ID]; !ok {
				s.known[u.ID] = ""
			}
		case TypeLeft:
			delete(s.known, u.ID)
		}
	}
	s.mu.Unlock()

	for _, u := range updates {
		for _, sink := range sinks {
			switch u.Type {
			case TypeJoined:
				sink.Joined(u.ID, u.Name)
				sink.Moved(u.ID, u.Position.Vec(), u.Rotation.Vec())
			case TypeMoved:
				sink.Moved(u.ID, u.Position.Vec(), u.Rotation.Vec())
			case TypeLeft:
				sink.Left(u.ID)
			}
		}
	}
}

func (s *syncImpl) Participants() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.known))
	for id := range s.known {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *syncImpl) Sent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent
}

func (s *syncImpl) Close() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}
