package voice

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-presence/engine/audio"
	"github.com/Carmen-Shannon/oxy-presence/engine/channel"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrUnknownPeer is returned for operations on a peer that does not exist.
var ErrUnknownPeer = errors.New("unknown voice peer")

// Manager owns every voice peer of the local participant.
type Manager interface {
	// Start subscribes to signaling and moderation and handles messages until ctx ends.
	Start(ctx context.Context) error

	// StartCapture opens the microphone and streams it to every peer. A denied
	// microphone returns an error wrapping ErrMicrophoneDenied; receiving still works.
	StartCapture(ctx context.Context) error

	// ID is the local participant id.
	ID() string

	// Call offers a connection to peerID. Calling a peer that already exists does nothing.
	Call(ctx context.Context, peerID string) error

	// Handle applies one signaling or moderation message.
	Handle(ctx context.Context, m channel.Message)

	// Hangup tears down one peer. Unknown or already torn down peers are ignored.
	Hangup(peerID string)

	// SetPeerPosition moves the peer's spatial audio source. A position set before the peer
	// connects is kept for it.
	SetPeerPosition(peerID string, position mgl32.Vec3)

	// Mute disables every outgoing track.
	Mute(muted bool)

	// Muted reports the local mute flag.
	Muted() bool

	// Deafen disables every incoming track without closing connections.
	Deafen(deafened bool)

	// Deafened reports the local deafen flag.
	Deafened() bool

	// Moderate publishes a moderation action.
	Moderate(ctx context.Context, action, target string, locked bool) error

	// Locked reports whether new offers are rejected.
	Locked() bool

	// Peer returns a snapshot of one peer.
	Peer(peerID string) (PeerInfo, bool)

	// Peers returns snapshots of every peer in id order.
	Peers() []PeerInfo

	// Levels returns the incoming RMS level per connected peer.
	Levels() map[string]float32

	// LocalLevel returns the microphone RMS level.
	LocalLevel() float32

	// Close tears down every peer and stops capture.
	Close() error
}

type managerImpl struct {
	mu      *sync.Mutex
	logger  *log.Logger
	id      string
	channel channel.Channel
	factory Factory
	graph   audio.Graph
	mic     Microphone

	peers map[string]*Peer
	// positions holds the last position set for each participant, peer or not.
	positions map[string]mgl32.Vec3

	muted    bool
	forced   bool
	deafened bool
	locked   bool

	capture    Capture
	localLevel float32
	cancel     context.CancelFunc

	onPeer func(id string, s State)
	onKick func()
}

var _ Manager = &managerImpl{}

// NewManager creates a voice manager for the participant the channel belongs to.
//
// Parameters:
//   - ch: signaling channel
//   - factory: opens media connections
//   - graph: spatial audio graph peers are attached to
//   - options: functional options
//
// Returns:
//   - Manager: the voice manager
func NewManager(ch channel.Channel, factory Factory, graph audio.Graph, options ...ManagerBuilderOption) Manager {
	m := &managerImpl{
		mu:        &sync.Mutex{},
		logger:    log.New(os.Stdout, "[voice] ", log.LstdFlags|log.Lmicroseconds),
		id:        ch.ID(),
		channel:   ch,
		factory:   factory,
		graph:     graph,
		mic:       NoMicrophone{},
		peers:     make(map[string]*Peer),
		positions: make(map[string]mgl32.Vec3),
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *managerImpl) Start(ctx context.Context) error {
	signals, unsubSignals := m.channel.Subscribe(channel.TopicSignal)
	moderation, unsubModeration := m.channel.Subscribe(channel.TopicModeration)
	ctx, cancel := context.WithCancel(ctx)

	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()

	go func() {
		defer unsubSignals()
		defer unsubModeration()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-signals:
				if !ok {
					return
				}
				m.Handle(ctx, msg)
			case msg, ok := <-moderation:
				if !ok {
					return
				}
				m.Handle(ctx, msg)
			}
		}
	}()
	return nil
}

func (m *managerImpl) StartCapture(ctx context.Context) error {
	c, err := m.mic.Open(ctx)
	if err != nil {
		if !errors.Is(err, ErrMicrophoneDenied) {
			err = fmt.Errorf("%w: %w", ErrMicrophoneDenied, err)
		}
		m.logger.Printf("voice capture unavailable, continuing receive-only: %v", err)
		return err
	}
	m.mu.Lock()
	m.capture = c
	m.mu.Unlock()
	go m.pump(ctx, c)
	return nil
}

// pump forwards captured frames to every peer until capture ends.
func (m *managerImpl) pump(ctx context.Context, c Capture) {
	for {
		s, err := c.ReadSample(ctx)
		if err != nil {
			return
		}
		m.mu.Lock()
		m.localLevel = s.Level
		if m.muted {
			m.localLevel = 0
		}
		conns := make([]Connection, 0, len(m.peers))
		for _, p := range m.peers {
			if p.conn != nil && p.state != StateDisconnected {
				conns = append(conns, p.conn)
			}
		}
		muted := m.muted
		m.mu.Unlock()
		if muted {
			continue
		}
		for _, conn := range conns {
			_ = conn.WriteSample(s.Data, s.Duration)
		}
	}
}

func (m *managerImpl) Call(ctx context.Context, peerID string) error {
	m.mu.Lock()
	if _, ok := m.peers[peerID]; ok {
		m.mu.Unlock()
		return nil
	}
	p, err := m.newPeerLocked(peerID)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	offer, err := p.conn.Offer()
	if err != nil {
		m.teardownLocked(p)
		m.mu.Unlock()
		return fmt.Errorf("offer %s: %w", peerID, err)
	}
	p.offered = true
	m.applyLocked(p, Event{Kind: EventOfferSent})
	m.mu.Unlock()

	if err := m.send(ctx, channel.TopicSignal, SignalOffer, peerID, offer); err != nil {
		return err
	}
	m.releaseCandidates(ctx, p)
	return nil
}

func (m *managerImpl) ID() string {
	return m.id
}

func (m *managerImpl) Handle(ctx context.Context, msg channel.Message) {
	if msg.From == m.id || (msg.To != "" && msg.To != m.id) {
		return
	}
	var err error
	switch msg.Topic {
	case channel.TopicSignal:
		err = m.handleSignal(ctx, msg)
	case channel.TopicModeration:
		err = m.handleModeration(msg)
	}
	if err != nil {
		m.logger.Printf("%s %s from %s: %v", msg.Topic, msg.Type, msg.From, err)
	}
}

func (m *managerImpl) handleSignal(ctx context.Context, msg channel.Message) error {
	switch msg.Type {
	case SignalOffer:
		var offer SessionDescription
		if err := msg.Decode(&offer); err != nil {
			return err
		}
		m.mu.Lock()
		p, ok := m.peers[msg.From]
		switch {
		case ok && p.offered && Offers(m.id, msg.From):
			// both sides called; the remote answers ours
			m.mu.Unlock()
			return nil
		case ok && p.offered:
			m.discardLocked(p)
			var err error
			if p, err = m.newPeerLocked(msg.From); err != nil {
				m.mu.Unlock()
				return err
			}
		case !ok:
			if m.locked {
				m.mu.Unlock()
				return errors.New("room locked, offer rejected")
			}
			var err error
			if p, err = m.newPeerLocked(msg.From); err != nil {
				m.mu.Unlock()
				return err
			}
		}
		answer, err := p.conn.Answer(offer)
		if err != nil {
			m.teardownLocked(p)
			m.mu.Unlock()
			return fmt.Errorf("answer: %w", err)
		}
		p.remoteSet = true
		m.applyLocked(p, Event{Kind: EventOfferReceived})
		m.flushCandidatesLocked(p)
		m.mu.Unlock()
		if err := m.send(ctx, channel.TopicSignal, SignalAnswer, msg.From, answer); err != nil {
			return err
		}
		m.releaseCandidates(ctx, p)
		return nil

	case SignalAnswer:
		var answer SessionDescription
		if err := msg.Decode(&answer); err != nil {
			return err
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		p, ok := m.peers[msg.From]
		if !ok {
			return ErrUnknownPeer
		}
		if err := p.conn.SetAnswer(answer); err != nil {
			return fmt.Errorf("set answer: %w", err)
		}
		p.offered = false
		p.remoteSet = true
		m.applyLocked(p, Event{Kind: EventAnswerReceived})
		m.flushCandidatesLocked(p)
		return nil

	case SignalCandidate:
		var c Candidate
		if err := msg.Decode(&c); err != nil {
			return err
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		p, ok := m.peers[msg.From]
		if !ok {
			return ErrUnknownPeer
		}
		if !p.remoteSet {
			p.pending = append(p.pending, c)
			return nil
		}
		return p.conn.AddCandidate(c)
	}
	return nil
}

func (m *managerImpl) handleModeration(msg channel.Message) error {
	var mod Moderation
	if len(msg.Payload) > 0 {
		if err := msg.Decode(&mod); err != nil {
			return err
		}
	}

	switch msg.Type {
	case ModerationMute:
		if mod.Target == m.id {
			m.mu.Lock()
			m.forced = true
			m.mu.Unlock()
			m.Mute(true)
			return nil
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		if p, ok := m.peers[mod.Target]; ok {
			p.muted = true
			if p.panner != nil {
				p.panner.SetEnabled(false)
			}
		}
		return nil

	case ModerationKick:
		if mod.Target == m.id {
			m.mu.Lock()
			onKick := m.onKick
			for _, p := range m.peers {
				m.teardownLocked(p)
			}
			m.mu.Unlock()
			if onKick != nil {
				onKick()
			}
			return nil
		}
		m.Hangup(mod.Target)
		return nil

	case ModerationRoomLock:
		m.mu.Lock()
		m.locked = mod.Locked
		m.mu.Unlock()
		return nil
	}
	return nil
}

func (m *managerImpl) send(ctx context.Context, topic, typ, to string, payload any) error {
	msg, err := channel.NewMessage(topic, typ, to, payload)
	if err != nil {
		return err
	}
	return m.channel.Publish(ctx, msg)
}

// newPeerLocked opens a connection whose callbacks route back through applyLocked.
func (m *managerImpl) newPeerLocked(peerID string) (*Peer, error) {
	p := &Peer{ID: peerID, state: StateIdle, position: m.positions[peerID]}
	conn, err := m.factory.New(peerID, ConnectionEvents{
		OnCandidate: func(c Candidate) {
			m.mu.Lock()
			if m.peers[peerID] != p {
				m.mu.Unlock()
				return
			}
			if !p.signaled {
				p.outbox = append(p.outbox, c)
				m.mu.Unlock()
				return
			}
			m.mu.Unlock()
			if err := m.send(context.Background(), channel.TopicSignal, SignalCandidate, peerID, c); err != nil {
				m.logger.Printf("send candidate to %s: %v", peerID, err)
			}
		},
		OnTrack: func(t RemoteTrack) {
			m.mu.Lock()
			defer m.mu.Unlock()
			if m.peers[peerID] != p {
				t.Stop()
				return
			}
			p.track = t
			m.applyLocked(p, Event{Kind: EventTrackAttached})
		},
		OnState: func(s string) {
			m.mu.Lock()
			defer m.mu.Unlock()
			if m.peers[peerID] != p {
				return
			}
			m.applyLocked(p, Event{Kind: EventConnectionState, Connection: s})
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open connection to %s: %w", peerID, err)
	}
	p.conn = conn
	m.peers[peerID] = p
	if m.muted {
		_ = conn.SetSending(false)
	}
	if m.deafened {
		conn.SetReceiving(false)
	}
	return p, nil
}

// applyLocked runs the transition and the side effects of entering the new state.
func (m *managerImpl) applyLocked(p *Peer, e Event) {
	next, err := Transition(p.state, e)
	if err != nil {
		m.logger.Printf("peer %s: %v", p.ID, err)
		return
	}
	prev := p.state
	p.state = next

	switch {
	case next == StateConnected && p.panner == nil:
		m.attachLocked(p)
	case next == StateDisconnected:
		m.teardownLocked(p)
	}
	if prev != next && m.onPeer != nil {
		m.onPeer(p.ID, next)
	}
}

func (m *managerImpl) attachLocked(p *Peer) {
	if m.graph == nil {
		return
	}
	var src audio.Source
	if p.track != nil {
		src = p.track.Source()
	}
	pan, err := m.graph.Attach(emitterID(p.ID), src)
	if err != nil {
		m.logger.Printf("attach panner for %s: %v", p.ID, err)
		return
	}
	pan.SetPosition(p.position)
	pan.SetEnabled(!m.deafened && !p.muted)
	p.panner = pan
}

// teardownLocked stops tracks, detaches the panner and forgets the peer. It is safe to
// call more than once.
func (m *managerImpl) teardownLocked(p *Peer) {
	if m.peers[p.ID] == p {
		delete(m.peers, p.ID)
	}
	if p.track != nil {
		p.track.Stop()
		p.track = nil
	}
	if p.panner != nil {
		m.graph.Detach(emitterID(p.ID))
		p.panner = nil
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			m.logger.Printf("close connection to %s: %v", p.ID, err)
		}
		p.conn = nil
	}
	p.pending = nil
	p.outbox = nil
	if p.state != StateDisconnected {
		p.state = StateDisconnected
		if m.onPeer != nil {
			m.onPeer(p.ID, StateDisconnected)
		}
	}
}

// releaseCandidates marks the local description of p as published and sends the candidates
// gathered before it. Later candidates are sent as they arrive.
func (m *managerImpl) releaseCandidates(ctx context.Context, p *Peer) {
	m.mu.Lock()
	if m.peers[p.ID] != p {
		m.mu.Unlock()
		return
	}
	p.signaled = true
	held := p.outbox
	p.outbox = nil
	m.mu.Unlock()

	for _, c := range held {
		if err := m.send(ctx, channel.TopicSignal, SignalCandidate, p.ID, c); err != nil {
			m.logger.Printf("send candidate to %s: %v", p.ID, err)
		}
	}
}

// discardLocked drops a peer that is about to be replaced without reporting it disconnected.
func (m *managerImpl) discardLocked(p *Peer) {
	p.state = StateDisconnected
	m.teardownLocked(p)
}

func (m *managerImpl) flushCandidatesLocked(p *Peer) {
	for _, c := range p.pending {
		if err := p.conn.AddCandidate(c); err != nil {
			m.logger.Printf("queued candidate for %s: %v", p.ID, err)
		}
	}
	p.pending = nil
}

func (m *managerImpl) Hangup(peerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.positions, peerID)
	if p, ok := m.peers[peerID]; ok {
		m.applyLocked(p, Event{Kind: EventClose})
	}
}

func (m *managerImpl) SetPeerPosition(peerID string, position mgl32.Vec3) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[peerID] = position
	p, ok := m.peers[peerID]
	if !ok {
		return
	}
	p.position = position
	if p.panner != nil {
		p.panner.SetPosition(position)
	}
}

func (m *managerImpl) Mute(muted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !muted && m.forced {
		m.logger.Printf("unmute refused: muted by a moderator")
		return
	}
	m.muted = muted
	for _, p := range m.peers {
		if p.conn == nil {
			continue
		}
		if err := p.conn.SetSending(!muted); err != nil {
			m.logger.Printf("set sending for %s: %v", p.ID, err)
		}
	}
}

func (m *managerImpl) Muted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muted
}

func (m *managerImpl) Deafen(deafened bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deafened = deafened
	for _, p := range m.peers {
		if p.conn != nil {
			p.conn.SetReceiving(!deafened)
		}
		if p.panner != nil {
			p.panner.SetEnabled(!deafened && !p.muted)
		}
	}
}

func (m *managerImpl) Deafened() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deafened
}

func (m *managerImpl) Moderate(ctx context.Context, action, target string, locked bool) error {
	switch action {
	case ModerationMute, ModerationKick, ModerationRoomLock:
	default:
		return fmt.Errorf("unknown moderation action %q", action)
	}
	if err := m.send(ctx, channel.TopicModeration, action, "", Moderation{Target: target, Locked: locked}); err != nil {
		return err
	}
	// the relay does not echo to the sender
	switch action {
	case ModerationRoomLock:
		m.mu.Lock()
		m.locked = locked
		m.mu.Unlock()
	case ModerationKick:
		m.Hangup(target)
	case ModerationMute:
		m.mu.Lock()
		if p, ok := m.peers[target]; ok {
			p.muted = true
			if p.panner != nil {
				p.panner.SetEnabled(false)
			}
		}
		m.mu.Unlock()
	}
	return nil
}

func (m *managerImpl) Locked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locked
}

func (m *managerImpl) Peer(peerID string) (PeerInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.peers[peerID]
	if !ok {
		return PeerInfo{}, false
	}
	return p.info(), true
}

func (m *managerImpl) Peers() []PeerInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PeerInfo, 0, len(m.peers))
	for _, p := range m.peers {
		out = append(out, p.info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *managerImpl) Levels() map[string]float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]float32, len(m.peers))
	for id, p := range m.peers {
		if p.track == nil || m.deafened || p.muted {
			continue
		}
		out[id] = p.track.Level()
	}
	return out
}

func (m *managerImpl) LocalLevel() float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.localLevel
}

func (m *managerImpl) Close() error {
	m.mu.Lock()
	cancel, c := m.cancel, m.capture
	m.cancel, m.capture = nil, nil
	for _, p := range m.peers {
		m.teardownLocked(p)
	}
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if c != nil {
		return c.Close()
	}
	return nil
}
