//go:build !cgo

package audio

func openDevice(g Graph) (Sink, error) {
	return NewNullSink(g), nil
}
