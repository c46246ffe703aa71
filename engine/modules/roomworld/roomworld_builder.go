package roomworld

import "log"

// RoomWorldBuilderOption configures the room module.
type RoomWorldBuilderOption func(*roomWorld)

// WithLogger sets the module logger.
func WithLogger(l *log.Logger) RoomWorldBuilderOption {
	return func(w *roomWorld) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithInitialRoom sets the room loaded by Init.
func WithInitialRoom(name string) RoomWorldBuilderOption {
	return func(w *roomWorld) {
		if name != "" {
			w.initial = name
		}
	}
}

// WithRooms replaces the rooms offered to the shell.
func WithRooms(names ...string) RoomWorldBuilderOption {
	return func(w *roomWorld) {
		w.rooms = append([]string(nil), names...)
	}
}

// WithLocalAvatar controls whether Init builds the local avatar rig.
func WithLocalAvatar(enabled bool) RoomWorldBuilderOption {
	return func(w *roomWorld) {
		w.localAvatar = enabled
	}
}

// WithSeatHeight sets the eye height used when sitting.
func WithSeatHeight(h float32) RoomWorldBuilderOption {
	return func(w *roomWorld) {
		if h > 0 {
			w.seatHeight = h
		}
	}
}
