package audio

import (
	"errors"
	"log"
	"os"
	"sort"
	"sync"
)

// DefaultSampleRate is the output rate used unless configured otherwise.
const DefaultSampleRate = 48000

// ErrDuplicateEmitter is returned when an emitter id is attached twice.
var ErrDuplicateEmitter = errors.New("emitter already attached")

// Graph routes every attached source through its panner into one stereo mix.
type Graph interface {
	// Attach adds a source under id and returns its panner.
	Attach(id string, src Source) (*Panner, error)

	// Detach removes the panner for id. Unknown ids are ignored.
	Detach(id string)

	// Panner returns the panner for id.
	Panner(id string) (*Panner, bool)

	// Emitters returns the attached ids in sorted order.
	Emitters() []string

	// Listener returns the listener the graph mixes for.
	Listener() *Listener

	// SetAcoustics replaces the distance model and reverb amount.
	SetAcoustics(a Acoustics)

	// Acoustics returns the current distance model.
	Acoustics() Acoustics

	// SetMasterVolume scales the final mix.
	SetMasterVolume(v float32)

	// SampleRate returns the mix rate in Hz.
	SampleRate() int

	// Mix renders len(dst)/2 interleaved stereo frames.
	Mix(dst []float32)
}

type graphImpl struct {
	mu         *sync.Mutex
	logger     *log.Logger
	listener   *Listener
	sampleRate int
	acoustics  Acoustics
	master     float32
	panners    map[string]*Panner
	scratch    []float32
	reverb     *reverb
}

var _ Graph = &graphImpl{}

// NewGraph creates a mixing graph bound to the process-wide listener.
func NewGraph(options ...GraphBuilderOption) Graph {
	g := &graphImpl{
		mu:         &sync.Mutex{},
		logger:     log.New(os.Stdout, "[audio] ", log.LstdFlags|log.Lmicroseconds),
		sampleRate: DefaultSampleRate,
		acoustics:  DefaultAcoustics,
		master:     1,
		panners:    make(map[string]*Panner),
	}
	for _, opt := range options {
		opt(g)
	}
	if g.listener == nil {
		g.listener = DefaultListener()
	}
	g.reverb = newReverb(g.sampleRate)
	g.reverb.setAmount(g.acoustics.Reverb)
	return g
}

func (g *graphImpl) Attach(id string, src Source) (*Panner, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.panners[id]; ok {
		return nil, ErrDuplicateEmitter
	}
	p := newPanner(id, src)
	g.panners[id] = p
	return p, nil
}

func (g *graphImpl) Detach(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.panners, id)
}

func (g *graphImpl) Panner(id string) (*Panner, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.panners[id]
	return p, ok
}

func (g *graphImpl) Emitters() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ids := make([]string, 0, len(g.panners))
	for id := range g.panners {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (g *graphImpl) Listener() *Listener {
	return g.listener
}

func (g *graphImpl) SetAcoustics(a Acoustics) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.acoustics = a
	g.reverb.setAmount(a.Reverb)
}

func (g *graphImpl) Acoustics() Acoustics {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.acoustics
}

func (g *graphImpl) SetMasterVolume(v float32) {
	g.mu.Lock()
	g.master = v
	g.mu.Unlock()
}

func (g *graphImpl) SampleRate() int {
	return g.sampleRate
}

func (g *graphImpl) Mix(dst []float32) {
	for i := range dst {
		dst[i] = 0
	}
	frames := len(dst) / 2

	g.mu.Lock()
	defer g.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			g.logger.Printf("recovered from panic in mixer: %v", r)
		}
	}()

	if cap(g.scratch) < frames {
		g.scratch = make([]float32, frames)
	}
	mono := g.scratch[:frames]
	pose := g.listener.Pose()

	for _, p := range g.panners {
		if p.source == nil {
			continue
		}
		n := p.source.ReadSamples(mono)
		left, right := p.Gains(pose, g.acoustics)
		if left == 0 && right == 0 {
			continue
		}
		for i := 0; i < n; i++ {
			dst[2*i] += mono[i] * left
			dst[2*i+1] += mono[i] * right
		}
	}

	g.reverb.process(dst)
	for i := range dst {
		v := dst[i] * g.master
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		dst[i] = v
	}
}
