package audio

// reverb is a stereo feedback delay standing in for a room impulse response.
type reverb struct {
	left, right []float32
	pos         int
	feedback    float32
	wet         float32
}

func newReverb(sampleRate int) *reverb {
	n := sampleRate * 60 / 1000
	if n < 1 {
		n = 1
	}
	return &reverb{left: make([]float32, n), right: make([]float32, n+n/7)}
}

func (r *reverb) setAmount(amount float32) {
	if amount < 0 {
		amount = 0
	}
	if amount > 1 {
		amount = 1
	}
	r.feedback = amount * 0.6
	r.wet = amount * 0.4
}

// process adds the delayed tail to an interleaved stereo block in place.
func (r *reverb) process(block []float32) {
	if r.wet == 0 {
		return
	}
	for i := 0; i+1 < len(block); i += 2 {
		li := r.pos % len(r.left)
		ri := r.pos % len(r.right)
		dl, dr := r.left[li], r.right[ri]
		r.left[li] = block[i] + dl*r.feedback
		r.right[ri] = block[i+1] + dr*r.feedback
		block[i] += dl * r.wet
		block[i+1] += dr * r.wet
		r.pos++
	}
}
