package creator

import (
	"log"
	"time"
)

// CreatorBuilderOption configures a Creator.
type CreatorBuilderOption func(*creatorImpl)

// WithLogger sets the creator logger.
func WithLogger(l *log.Logger) CreatorBuilderOption {
	return func(c *creatorImpl) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithGrid sets the snapping step in meters. Zero disables snapping.
func WithGrid(step float32) CreatorBuilderOption {
	return func(c *creatorImpl) {
		c.grid = step
		c.snap = step > 0
	}
}

// WithClock sets the time source for export timestamps.
func WithClock(now func() time.Time) CreatorBuilderOption {
	return func(c *creatorImpl) {
		if now != nil {
			c.now = now
		}
	}
}
