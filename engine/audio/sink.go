package audio

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"sync"
)

// ErrSinkClosed is returned by reads after Close.
var ErrSinkClosed = errors.New("audio sink closed")

// Sink drives a Graph to an output device.
type Sink interface {
	// Kind names the output backend.
	Kind() string
	// Start begins pulling from the graph.
	Start() error
	// Close stops output. Calling it twice is a no-op.
	Close() error
}

var (
	outputMu   sync.Mutex
	outputSink Sink
)

// Output returns the process-wide output sink, opening it for g on first use. Later
// calls return the same sink regardless of g, since the output context outlives module
// switches.
func Output(g Graph) (Sink, error) {
	outputMu.Lock()
	defer outputMu.Unlock()
	if outputSink != nil {
		return outputSink, nil
	}
	s, err := openDevice(g)
	if err != nil {
		return nil, err
	}
	outputSink = s
	return s, nil
}

// pcmReader renders a graph as 16-bit little-endian interleaved stereo.
type pcmReader struct {
	mu     sync.Mutex
	graph  Graph
	block  []float32
	closed bool
}

func newPCMReader(g Graph) *pcmReader {
	return &pcmReader{graph: g}
}

func (r *pcmReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, io.EOF
	}
	frames := len(p) / 4
	if frames == 0 {
		return 0, nil
	}
	if cap(r.block) < frames*2 {
		r.block = make([]float32, frames*2)
	}
	block := r.block[:frames*2]
	r.graph.Mix(block)
	for i, v := range block {
		binary.LittleEndian.PutUint16(p[2*i:], uint16(int16(math.Round(float64(v)*math.MaxInt16))))
	}
	return frames * 4, nil
}

func (r *pcmReader) close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

// NullSink consumes the graph without a device. Pump renders blocks on demand.
type NullSink struct {
	reader *pcmReader
	buf    []byte
}

// NewNullSink creates a sink that discards output.
func NewNullSink(g Graph) *NullSink {
	return &NullSink{reader: newPCMReader(g), buf: make([]byte, 4*512)}
}

func (n *NullSink) Kind() string { return "null" }

func (n *NullSink) Start() error { return nil }

func (n *NullSink) Close() error {
	n.reader.close()
	return nil
}

// Pump renders one block of PCM and returns it.
func (n *NullSink) Pump() ([]byte, error) {
	c, err := n.reader.Read(n.buf)
	if err != nil {
		return nil, ErrSinkClosed
	}
	return n.buf[:c], nil
}
