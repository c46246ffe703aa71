package multiplayer

import (
	"bytes"
	"context"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-presence/engine/avatar"
	"github.com/Carmen-Shannon/oxy-presence/engine/channel"
	"github.com/Carmen-Shannon/oxy-presence/engine/voice"
	"github.com/go-gl/mathgl/mgl32"
)

type countingFactory struct {
	mu     sync.Mutex
	offers int
}

func (f *countingFactory) New(string, voice.ConnectionEvents) (voice.Connection, error) {
	return &countingConn{f: f}, nil
}

func (f *countingFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.offers
}

type countingConn struct{ f *countingFactory }

func (c *countingConn) Offer() (voice.SessionDescription, error) {
	c.f.mu.Lock()
	c.f.offers++
	c.f.mu.Unlock()
	return voice.SessionDescription{Type: "offer", SDP: "v=0"}, nil
}

func (c *countingConn) Answer(voice.SessionDescription) (voice.SessionDescription, error) {
	return voice.SessionDescription{Type: "answer", SDP: "v=0"}, nil
}

func (c *countingConn) SetAnswer(voice.SessionDescription) error { return nil }
func (c *countingConn) AddCandidate(voice.Candidate) error       { return nil }
func (c *countingConn) WriteSample([]byte, time.Duration) error  { return nil }
func (c *countingConn) SetSending(bool) error                    { return nil }
func (c *countingConn) SetReceiving(bool)                        {}
func (c *countingConn) Close() error                             { return nil }

type participant struct {
	sync    Sync
	voice   voice.Manager
	factory *countingFactory
}

// join connects sync and voice for id over one shared channel, the way the engine wires them.
func join(t *testing.T, ctx context.Context, bus *channel.Bus, id string) participant {
	t.Helper()
	ch := bus.Join(id)
	p := participant{factory: &countingFactory{}}
	p.sync = NewSync(ch, WithLogger(quiet()))
	if err := p.sync.Start(ctx); err != nil {
		t.Fatalf("start %s: %v", id, err)
	}
	p.voice = voice.NewManager(ch, p.factory, nil, voice.WithLogger(quiet()))
	if err := p.voice.Start(ctx); err != nil {
		t.Fatalf("start voice %s: %v", id, err)
	}
	t.Cleanup(func() {
		p.voice.Close()
		p.sync.Close()
		ch.Close()
	})
	return p
}

func (p participant) apply(ctx context.Context) {
	p.sync.Apply(VoiceSink(ctx, p.voice, quiet()))
}

func TestVoiceSinkConnectsBothParticipants(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus := channel.NewBus("room")

	alice := join(t, ctx, bus, "alice")
	bob := join(t, ctx, bus, "bob")
	alice.sync.Join("Alice", mgl32.Vec3{1, 0, 0}, mgl32.Vec3{})
	bob.sync.Join("Bob", mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{})

	eventually(t, "a voice peer on each side", func() bool {
		alice.apply(ctx)
		bob.apply(ctx)
		_, a := alice.voice.Peer("bob")
		_, b := bob.voice.Peer("alice")
		return a && b
	})
	if got := alice.factory.count(); got != 1 {
		t.Fatalf("alice offered %d times", got)
	}
	if got := bob.factory.count(); got != 0 {
		t.Fatalf("bob offered %d times, only the lower id calls", got)
	}
	if p, _ := alice.voice.Peer("bob"); p.Position != (mgl32.Vec3{-1, 0, 0}) {
		t.Fatalf("bob's voice at %v", p.Position)
	}

	bob.sync.Leave()
	eventually(t, "alice hangs up on bob", func() bool {
		alice.apply(ctx)
		_, ok := alice.voice.Peer("bob")
		return !ok
	})
}

func TestAvatarSinkLogsFailedCreate(t *testing.T) {
	var buf bytes.Buffer
	avatars := avatar.NewManager(avatar.WithLogger(quiet()))

	AvatarSink(avatars, log.New(&buf, "", 0)).Joined("ghost", "Ghost")

	if !strings.Contains(buf.String(), "create avatar for ghost") {
		t.Fatalf("log = %q", buf.String())
	}
}
