//go:build cgo

package audio

import (
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

// ebitenSink plays the graph through Ebiten's audio context.
type ebitenSink struct {
	mu     sync.Mutex
	ctx    *audio.Context
	player *audio.Player
	reader *pcmReader
}

func openDevice(g Graph) (Sink, error) {
	return &ebitenSink{ctx: audio.NewContext(g.SampleRate()), reader: newPCMReader(g)}, nil
}

func (s *ebitenSink) Kind() string { return "ebiten" }

func (s *ebitenSink) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player != nil {
		return nil
	}
	p, err := s.ctx.NewPlayer(s.reader)
	if err != nil {
		return err
	}
	p.SetBufferSize(60 * time.Millisecond)
	p.Play()
	s.player = p
	return nil
}

func (s *ebitenSink) Close() error {
	s.mu.Lock()
	p := s.player
	s.player = nil
	s.mu.Unlock()

	s.reader.close()
	if p != nil {
		return p.Close()
	}
	return nil
}
