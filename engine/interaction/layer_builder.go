package interaction

import (
	"log"

	"github.com/Carmen-Shannon/oxy-presence/common"
)

// LayerBuilderOption configures a Layer.
type LayerBuilderOption func(*layerImpl)

// WithLogger sets the logger used for recovered failures.
func WithLogger(logger *log.Logger) LayerBuilderOption {
	return func(l *layerImpl) {
		l.logger = logger
	}
}

// WithHoverColor sets the emissive color added to hovered meshes.
func WithHoverColor(c common.Color) LayerBuilderOption {
	return func(l *layerImpl) {
		l.hoverColor = c
	}
}
