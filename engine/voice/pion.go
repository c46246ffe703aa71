package voice

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-presence/engine/audio"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
)

// AudioLevelURI is the RTP header extension carrying the sender's audio level.
const AudioLevelURI = "urn:ietf:params:rtp-hdrext:ssrc-audio-level"

// Decoder turns one encoded audio payload into mono PCM samples.
type Decoder interface {
	Decode(payload []byte, pcm []float32) (int, error)
}

// PionFactory opens WebRTC peer connections with one Opus send track each.
type PionFactory struct {
	api        *webrtc.API
	iceServers []string
	streamID   string
	decoder    func() Decoder
}

var _ Factory = &PionFactory{}

// NewPionFactory creates a factory using the given STUN/TURN urls.
//
// Parameters:
//   - localID: participant id used as the outgoing stream id
//   - iceServers: ICE server urls
//   - decoder: optional constructor for a per-track decoder; nil disables playback PCM
//
// Returns:
//   - *PionFactory: the factory
//   - error: if the media engine cannot be configured
func NewPionFactory(localID string, iceServers []string, decoder func() Decoder) (*PionFactory, error) {
	me := &webrtc.MediaEngine{}
	if err := me.RegisterDefaultCodecs(); err != nil {
		return nil, err
	}
	if err := me.RegisterHeaderExtension(webrtc.RTPHeaderExtensionCapability{URI: AudioLevelURI}, webrtc.RTPCodecTypeAudio); err != nil {
		return nil, err
	}
	return &PionFactory{
		api:        webrtc.NewAPI(webrtc.WithMediaEngine(me)),
		iceServers: iceServers,
		streamID:   "presence-" + localID,
		decoder:    decoder,
	}, nil
}

func (f *PionFactory) New(peerID string, ev ConnectionEvents) (Connection, error) {
	cfg := webrtc.Configuration{}
	if len(f.iceServers) > 0 {
		cfg.ICEServers = []webrtc.ICEServer{{URLs: f.iceServers}}
	}
	pc, err := f.api.NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}
	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 2},
		"audio", f.streamID,
	)
	if err != nil {
		_ = pc.Close()
		return nil, err
	}
	sender, err := pc.AddTrack(track)
	if err != nil {
		_ = pc.Close()
		return nil, err
	}
	go func() {
		buf := make([]byte, 1500)
		for {
			if _, _, err := sender.Read(buf); err != nil {
				return
			}
		}
	}()

	c := &pionConnection{pc: pc, track: track, sender: sender, sending: true}
	c.receiving.Store(true)

	pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand == nil || ev.OnCandidate == nil {
			return
		}
		init := cand.ToJSON()
		go ev.OnCandidate(Candidate{Candidate: init.Candidate, SDPMid: init.SDPMid, SDPMLineIndex: init.SDPMLineIndex})
	})
	pc.OnTrack(func(remote *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		if remote.Kind() != webrtc.RTPCodecTypeAudio || ev.OnTrack == nil {
			return
		}
		var dec Decoder
		if f.decoder != nil {
			dec = f.decoder()
		}
		t := newPionTrack(remote, receiver, dec, c)
		go t.read()
		go ev.OnTrack(t)
	})
	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		if ev.OnState != nil {
			go ev.OnState(s.String())
		}
	})
	return c, nil
}

type pionConnection struct {
	pc     *webrtc.PeerConnection
	track  *webrtc.TrackLocalStaticSample
	sender *webrtc.RTPSender

	mu        sync.Mutex
	sending   bool
	receiving atomic.Bool
}

var _ Connection = &pionConnection{}

func (c *pionConnection) Offer() (SessionDescription, error) {
	offer, err := c.pc.CreateOffer(nil)
	if err != nil {
		return SessionDescription{}, err
	}
	if err := c.pc.SetLocalDescription(offer); err != nil {
		return SessionDescription{}, err
	}
	return SessionDescription{Type: offer.Type.String(), SDP: offer.SDP}, nil
}

func (c *pionConnection) Answer(remote SessionDescription) (SessionDescription, error) {
	if err := c.pc.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: remote.SDP}); err != nil {
		return SessionDescription{}, err
	}
	answer, err := c.pc.CreateAnswer(nil)
	if err != nil {
		return SessionDescription{}, err
	}
	if err := c.pc.SetLocalDescription(answer); err != nil {
		return SessionDescription{}, err
	}
	return SessionDescription{Type: answer.Type.String(), SDP: answer.SDP}, nil
}

func (c *pionConnection) SetAnswer(remote SessionDescription) error {
	return c.pc.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: remote.SDP})
}

func (c *pionConnection) AddCandidate(cand Candidate) error {
	return c.pc.AddICECandidate(webrtc.ICECandidateInit{
		Candidate:     cand.Candidate,
		SDPMid:        cand.SDPMid,
		SDPMLineIndex: cand.SDPMLineIndex,
	})
}

func (c *pionConnection) WriteSample(data []byte, duration time.Duration) error {
	c.mu.Lock()
	on := c.sending
	c.mu.Unlock()
	if !on {
		return nil
	}
	return c.track.WriteSample(media.Sample{Data: data, Duration: duration})
}

func (c *pionConnection) SetSending(on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sending == on {
		return nil
	}
	c.sending = on
	if on {
		return c.sender.ReplaceTrack(c.track)
	}
	return c.sender.ReplaceTrack(nil)
}

func (c *pionConnection) SetReceiving(on bool) {
	c.receiving.Store(on)
}

func (c *pionConnection) Close() error {
	err := c.pc.Close()
	if errors.Is(err, webrtc.ErrConnectionClosed) {
		return nil
	}
	return err
}

// pionTrack reads RTP from a remote track, meters it and optionally decodes it.
type pionTrack struct {
	remote   *webrtc.TrackRemote
	conn     *pionConnection
	extID    uint8
	decoder  Decoder
	stream   *audio.StreamSource
	pcm      []float32
	mu       sync.Mutex
	level    float32
	stopOnce sync.Once
	stop     chan struct{}
}

func newPionTrack(remote *webrtc.TrackRemote, receiver *webrtc.RTPReceiver, dec Decoder, conn *pionConnection) *pionTrack {
	t := &pionTrack{remote: remote, conn: conn, decoder: dec, stop: make(chan struct{})}
	for _, ext := range receiver.GetParameters().HeaderExtensions {
		if ext.URI == AudioLevelURI {
			t.extID = uint8(ext.ID)
		}
	}
	if dec != nil {
		t.stream = audio.NewStreamSource(audio.DefaultSampleRate / 2)
		t.pcm = make([]float32, 5760)
	}
	return t
}

func (t *pionTrack) read() {
	for {
		select {
		case <-t.stop:
			return
		default:
		}
		pkt, _, err := t.remote.ReadRTP()
		if err != nil {
			return
		}
		if !t.conn.receiving.Load() {
			t.setLevel(0)
			continue
		}
		if t.decoder != nil {
			n, err := t.decoder.Decode(pkt.Payload, t.pcm)
			if err == nil && n > 0 {
				t.stream.Write(t.pcm[:n])
				t.setLevel(t.stream.Level())
				continue
			}
		}
		if t.extID != 0 {
			if ext := pkt.GetExtension(t.extID); len(ext) > 0 {
				t.setLevel(levelFromDBov(ext[0] & 0x7f))
			}
		}
	}
}

// levelFromDBov converts an RFC 6464 level (0 loudest, 127 silent) to amplitude.
func levelFromDBov(v byte) float32 {
	if v >= 127 {
		return 0
	}
	return float32(math.Pow(10, -float64(v)/20))
}

func (t *pionTrack) setLevel(v float32) {
	t.mu.Lock()
	t.level = v
	t.mu.Unlock()
}

func (t *pionTrack) Level() float32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.level
}

func (t *pionTrack) Source() audio.Source {
	if t.stream == nil {
		return nil
	}
	return t.stream
}

func (t *pionTrack) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
}
