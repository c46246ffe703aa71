package voice

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-presence/engine/audio"
	"github.com/Carmen-Shannon/oxy-presence/engine/channel"
	"github.com/go-gl/mathgl/mgl32"
)

func quiet() *log.Logger { return log.New(io.Discard, "", 0) }

type fakeConn struct {
	mu         sync.Mutex
	peer       string
	events     ConnectionEvents
	remote     []SessionDescription
	candidates []Candidate
	samples    int
	sending    bool
	receiving  bool
	closed     int
	gather     []Candidate
}

// trickle raises the gathered candidates the way a transport does once the local
// description is set.
func (c *fakeConn) trickle() {
	for _, cand := range c.gather {
		go c.events.OnCandidate(cand)
	}
}

func (c *fakeConn) Offer() (SessionDescription, error) {
	c.trickle()
	return SessionDescription{Type: "offer", SDP: "offer-to-" + c.peer}, nil
}

func (c *fakeConn) Answer(remote SessionDescription) (SessionDescription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remote = append(c.remote, remote)
	c.trickle()
	return SessionDescription{Type: "answer", SDP: "answer-to-" + c.peer}, nil
}

func (c *fakeConn) SetAnswer(remote SessionDescription) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remote = append(c.remote, remote)
	return nil
}

func (c *fakeConn) AddCandidate(cand Candidate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.remote) == 0 {
		return errors.New("no remote description")
	}
	c.candidates = append(c.candidates, cand)
	return nil
}

func (c *fakeConn) WriteSample([]byte, time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sending {
		c.samples++
	}
	return nil
}

func (c *fakeConn) SetSending(on bool) error {
	c.mu.Lock()
	c.sending = on
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) SetReceiving(on bool) {
	c.mu.Lock()
	c.receiving = on
	c.mu.Unlock()
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed++
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) snapshot() fakeConn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fakeConn{
		peer: c.peer, remote: append([]SessionDescription(nil), c.remote...),
		candidates: append([]Candidate(nil), c.candidates...),
		samples:    c.samples, sending: c.sending, receiving: c.receiving, closed: c.closed,
	}
}

type fakeFactory struct {
	mu     sync.Mutex
	conns  map[string]*fakeConn
	gather []Candidate
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{conns: make(map[string]*fakeConn)}
}

func (f *fakeFactory) New(peerID string, ev ConnectionEvents) (Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &fakeConn{peer: peerID, events: ev, sending: true, receiving: true, gather: f.gather}
	f.conns[peerID] = c
	return c, nil
}

func (f *fakeFactory) conn(peerID string) *fakeConn {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.conns[peerID]
}

type fakeTrack struct {
	level   float32
	stopped int
}

func (t *fakeTrack) Level() float32       { return t.level }
func (t *fakeTrack) Source() audio.Source { return nil }
func (t *fakeTrack) Stop()                { t.stopped++ }

type rig struct {
	bus     *channel.Bus
	local   Manager
	factory *fakeFactory
	graph   audio.Graph
	remote  map[string]channel.Channel
	states  *[]string
}

func newRig(t *testing.T, remotes ...string) *rig {
	t.Helper()
	bus := channel.NewBus("room")
	r := &rig{bus: bus, factory: newFakeFactory(), remote: make(map[string]channel.Channel), states: &[]string{}}
	r.graph = audio.NewGraph(audio.WithLogger(quiet()), audio.WithListener(audio.NewListener()))
	for _, id := range remotes {
		r.remote[id] = bus.Join(id)
	}
	states := r.states
	r.local = NewManager(bus.Join("me"), r.factory, r.graph,
		WithLogger(quiet()),
		WithPeerHandler(func(id string, s State) { *states = append(*states, id+":"+s.String()) }),
	)
	return r
}

func (r *rig) from(t *testing.T, sender, topic, typ string, payload any) {
	t.Helper()
	m, err := channel.NewMessage(topic, typ, "me", payload)
	if err != nil {
		t.Fatal(err)
	}
	m.From = sender
	r.local.Handle(context.Background(), m)
}

// connect drives a peer from an incoming offer to connected.
func (r *rig) connect(t *testing.T, id string) (*fakeConn, *fakeTrack) {
	t.Helper()
	r.from(t, id, channel.TopicSignal, SignalOffer, SessionDescription{Type: "offer", SDP: "v=0"})
	c := r.factory.conn(id)
	if c == nil {
		t.Fatalf("no connection opened for %s", id)
	}
	tr := &fakeTrack{level: 0.3}
	c.events.OnTrack(tr)
	c.events.OnState("connected")
	return c, tr
}

func recv(t *testing.T, ch <-chan channel.Message) channel.Message {
	t.Helper()
	select {
	case m := <-ch:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a message")
	}
	return channel.Message{}
}

func TestTransition(t *testing.T) {
	cases := []struct {
		from State
		ev   Event
		want State
		ok   bool
	}{
		{StateIdle, Event{Kind: EventOfferSent}, StateConnecting, true},
		{StateIdle, Event{Kind: EventOfferReceived}, StateConnecting, true},
		{StateIdle, Event{Kind: EventAnswerReceived}, StateIdle, false},
		{StateIdle, Event{Kind: EventTrackAttached}, StateIdle, false},
		{StateConnecting, Event{Kind: EventAnswerReceived}, StateConnecting, true},
		{StateConnecting, Event{Kind: EventConnectionState, Connection: "checking"}, StateConnecting, true},
		{StateConnecting, Event{Kind: EventTrackAttached}, StateConnected, true},
		{StateConnecting, Event{Kind: EventConnectionState, Connection: "failed"}, StateDisconnected, true},
		{StateConnected, Event{Kind: EventConnectionState, Connection: "disconnected"}, StateDisconnected, true},
		{StateConnected, Event{Kind: EventConnectionState, Connection: "closed"}, StateDisconnected, true},
		{StateConnected, Event{Kind: EventOfferReceived}, StateConnected, true},
		{StateConnected, Event{Kind: EventClose}, StateDisconnected, true},
		{StateDisconnected, Event{Kind: EventClose}, StateDisconnected, true},
		{StateDisconnected, Event{Kind: EventTrackAttached}, StateDisconnected, false},
		{StateIdle, Event{Kind: EventClose}, StateDisconnected, true},
	}
	for _, c := range cases {
		got, err := Transition(c.from, c.ev)
		if got != c.want || (err == nil) != c.ok {
			t.Fatalf("%s + %s(%s) = %s, %v; want %s ok=%v", c.from, c.ev.Kind, c.ev.Connection, got, err, c.want, c.ok)
		}
		if err != nil && !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("error %v does not wrap ErrInvalidTransition", err)
		}
	}
}

func TestOfferFromUnknownPeerAnswers(t *testing.T) {
	r := newRig(t, "alice")
	answers, _ := r.remote["alice"].Subscribe(channel.TopicSignal)

	r.from(t, "alice", channel.TopicSignal, SignalOffer, SessionDescription{Type: "offer", SDP: "v=0"})

	p, ok := r.local.Peer("alice")
	if !ok || p.State != StateConnecting {
		t.Fatalf("peer = %+v, %v; want connecting", p, ok)
	}
	m := recv(t, answers)
	var answer SessionDescription
	if m.Type != SignalAnswer || m.To != "alice" || m.Decode(&answer) != nil || answer.SDP != "answer-to-alice" {
		t.Fatalf("got %+v", m)
	}
}

func TestCandidatesQueuedUntilRemoteDescription(t *testing.T) {
	r := newRig(t, "bob")
	offers, _ := r.remote["bob"].Subscribe(channel.TopicSignal)
	if err := r.local.Call(context.Background(), "bob"); err != nil {
		t.Fatalf("call: %v", err)
	}
	if m := recv(t, offers); m.Type != SignalOffer {
		t.Fatalf("got %+v", m)
	}

	r.from(t, "bob", channel.TopicSignal, SignalCandidate, Candidate{Candidate: "c1"})
	r.from(t, "bob", channel.TopicSignal, SignalCandidate, Candidate{Candidate: "c2"})
	if got := r.factory.conn("bob").snapshot().candidates; len(got) != 0 {
		t.Fatalf("candidates applied before the answer: %v", got)
	}

	r.from(t, "bob", channel.TopicSignal, SignalAnswer, SessionDescription{Type: "answer", SDP: "v=0"})
	r.from(t, "bob", channel.TopicSignal, SignalCandidate, Candidate{Candidate: "c3"})
	got := r.factory.conn("bob").snapshot().candidates
	if len(got) != 3 || got[0].Candidate != "c1" || got[2].Candidate != "c3" {
		t.Fatalf("candidates = %v", got)
	}
	if p, _ := r.local.Peer("bob"); p.State != StateConnecting {
		t.Fatalf("state = %s", p.State)
	}
}

func TestLocalCandidatesFollowTheDescription(t *testing.T) {
	r := newRig(t, "bob", "carol")
	r.factory.gather = []Candidate{{Candidate: "host-1"}, {Candidate: "host-2"}}
	expect := func(ch <-chan channel.Message, first string) {
		t.Helper()
		if m := recv(t, ch); m.Type != first {
			t.Fatalf("first message = %s, want %s", m.Type, first)
		}
		for i := 0; i < 2; i++ {
			if m := recv(t, ch); m.Type != SignalCandidate {
				t.Fatalf("message %d = %s, want a candidate", i+2, m.Type)
			}
		}
	}

	bob, _ := r.remote["bob"].Subscribe(channel.TopicSignal)
	if err := r.local.Call(context.Background(), "bob"); err != nil {
		t.Fatalf("call: %v", err)
	}
	expect(bob, SignalOffer)

	carol, _ := r.remote["carol"].Subscribe(channel.TopicSignal)
	r.from(t, "carol", channel.TopicSignal, SignalOffer, SessionDescription{Type: "offer", SDP: "v=0"})
	expect(carol, SignalAnswer)
}

func TestCrossingOffersKeepTheLowerIDsCall(t *testing.T) {
	r := newRig(t, "alpha", "zed")
	ctx := context.Background()

	// "me" is lower than "zed": our offer stands and theirs is ignored
	if err := r.local.Call(ctx, "zed"); err != nil {
		t.Fatalf("call zed: %v", err)
	}
	ours := r.factory.conn("zed")
	r.from(t, "zed", channel.TopicSignal, SignalOffer, SessionDescription{Type: "offer", SDP: "v=0"})
	if c := r.factory.conn("zed"); c != ours || len(c.snapshot().remote) != 0 {
		t.Fatal("crossing offer from a higher id was answered")
	}
	if p, ok := r.local.Peer("zed"); !ok || p.State != StateConnecting {
		t.Fatalf("zed = %+v, %v", p, ok)
	}

	// "me" is higher than "alpha": our offer is dropped and theirs answered
	alpha, _ := r.remote["alpha"].Subscribe(channel.TopicSignal)
	if err := r.local.Call(ctx, "alpha"); err != nil {
		t.Fatalf("call alpha: %v", err)
	}
	if m := recv(t, alpha); m.Type != SignalOffer {
		t.Fatalf("got %+v", m)
	}
	dropped := r.factory.conn("alpha")
	r.from(t, "alpha", channel.TopicSignal, SignalOffer, SessionDescription{Type: "offer", SDP: "v=0"})
	if m := recv(t, alpha); m.Type != SignalAnswer {
		t.Fatalf("got %+v, want an answer", m)
	}
	replaced := r.factory.conn("alpha")
	if replaced == dropped || dropped.snapshot().closed != 1 {
		t.Fatal("local offer to alpha was not replaced")
	}
	if got := replaced.snapshot().remote; len(got) != 1 {
		t.Fatalf("alpha remote descriptions = %v", got)
	}
	if p, ok := r.local.Peer("alpha"); !ok || p.State != StateConnecting {
		t.Fatalf("alpha = %+v, %v", p, ok)
	}
	for _, s := range *r.states {
		if s == "alpha:disconnected" {
			t.Fatalf("replacing the offer reported alpha disconnected: %v", *r.states)
		}
	}

	// the remote answer to the surviving offer completes it
	r.from(t, "zed", channel.TopicSignal, SignalAnswer, SessionDescription{Type: "answer", SDP: "v=0"})
	if got := ours.snapshot().remote; len(got) != 1 {
		t.Fatalf("zed remote descriptions = %v", got)
	}
}

func TestOffers(t *testing.T) {
	if !Offers("alice", "bob") || Offers("bob", "alice") {
		t.Fatal("the lower id offers")
	}
}

func TestTerminalStateTearsDownOnlyThatPeer(t *testing.T) {
	r := newRig(t, "a", "b")
	ca, ta := r.connect(t, "a")
	_, tb := r.connect(t, "b")

	r.local.SetPeerPosition("a", mgl32.Vec3{1, 0, 2})
	pan, ok := r.graph.Panner(emitterID("a"))
	if !ok || pan.Position() != (mgl32.Vec3{1, 0, 2}) {
		t.Fatalf("panner for a missing or not moved")
	}

	ca.events.OnState("failed")

	if _, ok := r.local.Peer("a"); ok {
		t.Fatal("failed peer still present")
	}
	if _, ok := r.graph.Panner(emitterID("a")); ok {
		t.Fatal("panner for a still attached")
	}
	if ca.snapshot().closed != 1 || ta.stopped != 1 {
		t.Fatalf("closed=%d stopped=%d", ca.snapshot().closed, ta.stopped)
	}

	p, ok := r.local.Peer("b")
	if !ok || p.State != StateConnected || !p.Attached || tb.stopped != 0 {
		t.Fatalf("peer b affected: %+v", p)
	}
	if got := r.graph.Emitters(); len(got) != 1 || got[0] != emitterID("b") {
		t.Fatalf("emitters = %v", got)
	}

	// late events for the dead peer are ignored
	ca.events.OnState("connected")
	if _, ok := r.local.Peer("a"); ok {
		t.Fatal("late event resurrected the peer")
	}
}

func TestHangupIsIdempotent(t *testing.T) {
	r := newRig(t, "a")
	c, _ := r.connect(t, "a")
	r.local.Hangup("a")
	r.local.Hangup("a")
	r.local.Hangup("nobody")
	if c.snapshot().closed != 1 {
		t.Fatalf("closed %d times", c.snapshot().closed)
	}
	want := []string{"a:connecting", "a:connected", "a:disconnected"}
	if len(*r.states) != len(want) {
		t.Fatalf("states = %v", *r.states)
	}
	for i := range want {
		if (*r.states)[i] != want[i] {
			t.Fatalf("states = %v, want %v", *r.states, want)
		}
	}
}

func TestMuteAndDeafenAreIndependent(t *testing.T) {
	r := newRig(t, "a")
	c, _ := r.connect(t, "a")
	pan, _ := r.graph.Panner(emitterID("a"))

	r.local.Mute(true)
	if s := c.snapshot(); s.sending || !s.receiving || !pan.Enabled() {
		t.Fatalf("mute touched receiving: %+v", &s)
	}
	r.local.Deafen(true)
	if s := c.snapshot(); s.sending || s.receiving || pan.Enabled() {
		t.Fatalf("deafen: %+v enabled=%v", &s, pan.Enabled())
	}
	if len(r.local.Levels()) != 0 {
		t.Fatal("levels reported while deafened")
	}
	r.local.Mute(false)
	if s := c.snapshot(); !s.sending || s.receiving {
		t.Fatalf("unmute changed deafen: %+v", &s)
	}
	r.local.Deafen(false)
	if s := c.snapshot(); !s.receiving || !pan.Enabled() || s.closed != 0 {
		t.Fatalf("undeafen: %+v", &s)
	}
	if p, _ := r.local.Peer("a"); p.State != StateConnected {
		t.Fatal("deafen closed the connection")
	}
}

func TestRoomLockRejectsOffers(t *testing.T) {
	r := newRig(t, "mod", "late")
	r.from(t, "mod", channel.TopicModeration, ModerationRoomLock, Moderation{Locked: true})
	if !r.local.Locked() {
		t.Fatal("room not locked")
	}
	r.from(t, "late", channel.TopicSignal, SignalOffer, SessionDescription{Type: "offer", SDP: "v=0"})
	if _, ok := r.local.Peer("late"); ok {
		t.Fatal("offer accepted in a locked room")
	}
	r.from(t, "mod", channel.TopicModeration, ModerationRoomLock, Moderation{Locked: false})
	r.from(t, "late", channel.TopicSignal, SignalOffer, SessionDescription{Type: "offer", SDP: "v=0"})
	if _, ok := r.local.Peer("late"); !ok {
		t.Fatal("offer rejected after unlock")
	}
}

func TestModeration(t *testing.T) {
	kicked := 0
	bus := channel.NewBus("room")
	bus.Join("mod")
	factory := newFakeFactory()
	m := NewManager(bus.Join("me"), factory, audio.NewGraph(audio.WithLogger(quiet()), audio.WithListener(audio.NewListener())),
		WithLogger(quiet()), WithKickHandler(func() { kicked++ }))
	r := &rig{local: m, factory: factory}

	r.connect(t, "a")
	r.connect(t, "b")

	r.from(t, "mod", channel.TopicModeration, ModerationMute, Moderation{Target: "a"})
	if p, _ := m.Peer("a"); !p.Muted {
		t.Fatal("target not marked muted")
	}

	r.from(t, "mod", channel.TopicModeration, ModerationKick, Moderation{Target: "b"})
	if _, ok := m.Peer("b"); ok {
		t.Fatal("kicked peer still connected")
	}

	r.from(t, "mod", channel.TopicModeration, ModerationMute, Moderation{Target: "me"})
	m.Mute(false)
	if !m.Muted() {
		t.Fatal("force-muted participant unmuted themselves")
	}

	r.from(t, "mod", channel.TopicModeration, ModerationKick, Moderation{Target: "me"})
	if kicked != 1 || len(m.Peers()) != 0 {
		t.Fatalf("kicked=%d peers=%v", kicked, m.Peers())
	}
}

type fakeMic struct{ frames chan Sample }

func (f *fakeMic) Open(context.Context) (Capture, error) { return f, nil }

func (f *fakeMic) ReadSample(ctx context.Context) (Sample, error) {
	select {
	case s, ok := <-f.frames:
		if !ok {
			return Sample{}, io.EOF
		}
		return s, nil
	case <-ctx.Done():
		return Sample{}, ctx.Err()
	}
}

func (f *fakeMic) Close() error { return nil }

func TestCapture(t *testing.T) {
	r := newRig(t, "a")
	if err := r.local.StartCapture(context.Background()); !errors.Is(err, ErrMicrophoneDenied) {
		t.Fatalf("default microphone err = %v", err)
	}

	mic := &fakeMic{frames: make(chan Sample)}
	factory := newFakeFactory()
	bus := channel.NewBus("room")
	m := NewManager(bus.Join("me"), factory, audio.NewGraph(audio.WithLogger(quiet()), audio.WithListener(audio.NewListener())),
		WithLogger(quiet()), WithMicrophone(mic))
	rr := &rig{local: m, factory: factory}
	c, _ := rr.connect(t, "a")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := m.StartCapture(ctx); err != nil {
		t.Fatalf("start capture: %v", err)
	}
	frame := Sample{Data: []byte{1}, Duration: 20 * time.Millisecond, Level: 0.4}
	for i := 0; i < 3; i++ {
		mic.frames <- frame
	}
	deadline := time.Now().Add(2 * time.Second)
	for c.snapshot().samples < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := c.snapshot().samples; got != 3 {
		t.Fatalf("samples sent = %d, want 3", got)
	}

	m.Mute(true)
	// the second send cannot complete until the first frame was handled
	mic.frames <- frame
	mic.frames <- frame
	if got := c.snapshot().samples; got != 3 {
		t.Fatalf("samples sent while muted = %d", got-3)
	}
	if m.LocalLevel() != 0 {
		t.Fatalf("local level while muted = %v", m.LocalLevel())
	}
	if err := m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestSignalingOverChannel(t *testing.T) {
	bus := channel.NewBus("room")
	graph := func() audio.Graph {
		return audio.NewGraph(audio.WithLogger(quiet()), audio.WithListener(audio.NewListener()))
	}
	fa, fb := newFakeFactory(), newFakeFactory()
	a := NewManager(bus.Join("a"), fa, graph(), WithLogger(quiet()))
	b := NewManager(bus.Join("b"), fb, graph(), WithLogger(quiet()))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.Start(ctx)
	b.Start(ctx)
	defer a.Close()
	defer b.Close()

	if err := a.Call(ctx, "b"); err != nil {
		t.Fatalf("call: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c := fa.conn("b"); c != nil && len(c.snapshot().remote) == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := fa.conn("b").snapshot().remote; len(got) != 1 || got[0].SDP != "answer-to-a" {
		t.Fatalf("caller remote descriptions = %v", got)
	}
	if got := fb.conn("a").snapshot().remote; len(got) != 1 || got[0].SDP != "offer-to-b" {
		t.Fatalf("callee remote descriptions = %v", got)
	}
	if p, ok := b.Peer("a"); !ok || p.State != StateConnecting {
		t.Fatalf("callee peer = %+v", p)
	}
}

func TestLevelFromDBov(t *testing.T) {
	if levelFromDBov(0) != 1 || levelFromDBov(127) != 0 {
		t.Fatal("level endpoints wrong")
	}
	if v := levelFromDBov(20); v < 0.099 || v > 0.101 {
		t.Fatalf("-20 dBov = %v", v)
	}
}
