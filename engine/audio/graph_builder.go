package audio

import "log"

// GraphBuilderOption configures a Graph.
type GraphBuilderOption func(*graphImpl)

// WithLogger sets the graph logger.
func WithLogger(l *log.Logger) GraphBuilderOption {
	return func(g *graphImpl) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithListener mixes for l instead of the process-wide listener.
func WithListener(l *Listener) GraphBuilderOption {
	return func(g *graphImpl) {
		g.listener = l
	}
}

// WithSampleRate sets the mix rate in Hz.
func WithSampleRate(rate int) GraphBuilderOption {
	return func(g *graphImpl) {
		if rate > 0 {
			g.sampleRate = rate
		}
	}
}

// WithAcoustics sets the initial distance model.
func WithAcoustics(a Acoustics) GraphBuilderOption {
	return func(g *graphImpl) {
		g.acoustics = a
	}
}
