package multiplayer

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-presence/engine/avatar"
	"github.com/Carmen-Shannon/oxy-presence/engine/channel"
	"github.com/Carmen-Shannon/oxy-presence/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

func quiet() *log.Logger { return log.New(io.Discard, "", 0) }

type recordingSink struct {
	mu     sync.Mutex
	events []string
	pos    map[string]mgl32.Vec3
}

func newRecordingSink() *recordingSink {
	return &recordingSink{pos: make(map[string]mgl32.Vec3)}
}

func (r *recordingSink) Joined(id, name string) {
	r.mu.Lock()
	r.events = append(r.events, "joined:"+id+":"+name)
	r.mu.Unlock()
}

func (r *recordingSink) Moved(id string, p, _ mgl32.Vec3) {
	r.mu.Lock()
	r.pos[id] = p
	r.mu.Unlock()
}

func (r *recordingSink) Left(id string) {
	r.mu.Lock()
	r.events = append(r.events, "left:"+id)
	delete(r.pos, id)
	r.mu.Unlock()
}

func start(t *testing.T, ctx context.Context, bus *channel.Bus, id string) Sync {
	t.Helper()
	s := NewSync(bus.Join(id), WithLogger(quiet()))
	if err := s.Start(ctx); err != nil {
		t.Fatalf("start %s: %v", id, err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestTickThrottle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus := channel.NewBus("room")
	observer := bus.Join("observer")
	moves, _ := observer.Subscribe(channel.TopicMultiplayer)
	s := start(t, ctx, bus, "me")

	s.Join("Me", mgl32.Vec3{}, mgl32.Vec3{})
	sent := 0
	for i := 1; i <= 100; i++ {
		if s.Tick(10*time.Millisecond, mgl32.Vec3{float32(i), 0, 0}, mgl32.Vec3{}) {
			sent++
		}
	}
	if sent != 20 {
		t.Fatalf("sent %d updates over 1s at 10ms frames, want 20", sent)
	}

	eventually(t, "all updates published", func() bool { return s.Sent() == 21 })
	got := 0
	for len(moves) > 0 {
		m := <-moves
		if m.Type == TypeMoved {
			got++
		}
	}
	if got != 20 {
		t.Fatalf("observer received %d moves", got)
	}

	for i := 0; i < 10; i++ {
		if s.Tick(100*time.Millisecond, mgl32.Vec3{100, 0, 0}, mgl32.Vec3{}) {
			t.Fatal("unchanged pose was sent again")
		}
	}
}

func TestTickBeforeJoinSendsNothing(t *testing.T) {
	bus := channel.NewBus("room")
	s := NewSync(bus.Join("me"), WithLogger(quiet()))
	if s.Tick(time.Second, mgl32.Vec3{1, 2, 3}, mgl32.Vec3{}) {
		t.Fatal("tick sent before join")
	}
}

func TestParticipantLeavingRemovesOnlyTheirAvatar(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus := channel.NewBus("room")

	local := start(t, ctx, bus, "local")
	local.Join("Local", mgl32.Vec3{}, mgl32.Vec3{})

	avatars := avatar.NewManager(avatar.WithLogger(quiet()))
	avatars.Bind(scene.NewScene("world"))
	voiceSide := newRecordingSink()
	sinks := []Sink{AvatarSink(avatars, quiet()), voiceSide}

	a := start(t, ctx, bus, "a")
	b := start(t, ctx, bus, "b")
	a.Join("Alice", mgl32.Vec3{1, 0, 0}, mgl32.Vec3{})
	b.Join("Bob", mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{})

	eventually(t, "both participants", func() bool {
		local.Apply(sinks...)
		return len(avatars.NetworkIDs()) == 2
	})
	alice, _ := avatars.Network("a")
	if alice.Name != "Alice" {
		t.Fatalf("name = %q", alice.Name)
	}

	a.Tick(time.Second, mgl32.Vec3{5, 0, 5}, mgl32.Vec3{})
	eventually(t, "alice moved", func() bool {
		local.Apply(sinks...)
		voiceSide.mu.Lock()
		defer voiceSide.mu.Unlock()
		return voiceSide.pos["a"] == mgl32.Vec3{5, 0, 5}
	})
	if got := alice.Target(); got != (mgl32.Vec3{5, 0, 5}) {
		t.Fatalf("avatar target = %v", got)
	}

	a.Leave()
	eventually(t, "alice left", func() bool {
		local.Apply(sinks...)
		return len(avatars.NetworkIDs()) == 1
	})
	if _, ok := avatars.Network("b"); !ok {
		t.Fatal("bob's avatar removed when alice left")
	}
	if alice.Root.Attached() {
		t.Fatal("alice's avatar still in the scene")
	}
	voiceSide.mu.Lock()
	_, bobVoice := voiceSide.pos["b"]
	_, aliceVoice := voiceSide.pos["a"]
	voiceSide.mu.Unlock()
	if !bobVoice || aliceVoice {
		t.Fatalf("voice side: bob=%v alice=%v", bobVoice, aliceVoice)
	}
	if got := local.Participants(); len(got) != 1 || got[0] != "b" {
		t.Fatalf("participants = %v", got)
	}
}

func TestLateJoinerLearnsAboutExistingParticipants(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus := channel.NewBus("room")

	early := start(t, ctx, bus, "early")
	early.Join("Early", mgl32.Vec3{2, 0, 2}, mgl32.Vec3{})
	eventually(t, "early join sent", func() bool { return early.Sent() == 1 })

	late := start(t, ctx, bus, "late")
	late.Join("Late", mgl32.Vec3{}, mgl32.Vec3{})

	rec := newRecordingSink()
	eventually(t, "late learns about early", func() bool {
		late.Apply(rec)
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return rec.pos["early"] == mgl32.Vec3{2, 0, 2}
	})
}
