package audio

import (
	"math"
	"sync"
)

// Source produces mono float samples in [-1, 1] at the graph sample rate.
type Source interface {
	// ReadSamples fills dst and returns how many samples were written. A short read
	// is treated as silence for the remainder of the block.
	ReadSamples(dst []float32) int
}

// ToneSource is a looping sine emitter.
type ToneSource struct {
	mu    *sync.Mutex
	step  float64
	phase float64
	amp   float32
}

// NewToneSource creates a sine source of the given frequency and amplitude.
func NewToneSource(freq, amplitude float32, sampleRate int) *ToneSource {
	return &ToneSource{
		mu:   &sync.Mutex{},
		step: 2 * math.Pi * float64(freq) / float64(sampleRate),
		amp:  amplitude,
	}
}

func (t *ToneSource) ReadSamples(dst []float32) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range dst {
		dst[i] = t.amp * float32(math.Sin(t.phase))
		t.phase += t.step
		if t.phase > 2*math.Pi {
			t.phase -= 2 * math.Pi
		}
	}
	return len(dst)
}

// BufferSource plays a fixed sample buffer, optionally looping.
type BufferSource struct {
	mu      *sync.Mutex
	samples []float32
	pos     int
	loop    bool
}

// NewBufferSource wraps samples.
func NewBufferSource(samples []float32, loop bool) *BufferSource {
	return &BufferSource{mu: &sync.Mutex{}, samples: samples, loop: loop}
}

func (b *BufferSource) ReadSamples(dst []float32) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for n < len(dst) && len(b.samples) > 0 {
		if b.pos >= len(b.samples) {
			if !b.loop {
				break
			}
			b.pos = 0
		}
		c := copy(dst[n:], b.samples[b.pos:])
		n += c
		b.pos += c
	}
	return n
}

// StreamSource is fed by a producer goroutine, such as a voice decoder, and drained by
// the mixer.
type StreamSource struct {
	mu  *sync.Mutex
	buf []float32
	max int
	rms float32
}

// NewStreamSource creates a stream holding at most capacity samples. Older samples are
// dropped when the producer runs ahead.
func NewStreamSource(capacity int) *StreamSource {
	return &StreamSource{mu: &sync.Mutex{}, max: capacity}
}

// Write appends samples and updates the level meter.
func (s *StreamSource) Write(samples []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = append(s.buf, samples...)
	if over := len(s.buf) - s.max; over > 0 {
		s.buf = s.buf[over:]
	}
	s.rms = RMS(samples)
}

// Level returns the RMS of the most recent write.
func (s *StreamSource) Level() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rms
}

func (s *StreamSource) ReadSamples(dst []float32) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := copy(dst, s.buf)
	s.buf = s.buf[n:]
	return n
}

// RMS returns the root mean square of samples.
func RMS(samples []float32) float32 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, v := range samples {
		sum += float64(v) * float64(v)
	}
	return float32(math.Sqrt(sum / float64(len(samples))))
}
