package movement

import (
	"log"
	"time"
)

// ControllerBuilderOption configures a movement Controller.
type ControllerBuilderOption func(*controllerImpl)

// WithMoveSpeed sets the horizontal speed in meters per second.
func WithMoveSpeed(speed float32) ControllerBuilderOption {
	return func(c *controllerImpl) {
		if speed > 0 {
			c.moveSpeed = speed
		}
	}
}

// WithVerticalSpeed sets the free-fly climb speed in meters per second.
func WithVerticalSpeed(speed float32) ControllerBuilderOption {
	return func(c *controllerImpl) {
		if speed > 0 {
			c.verticalSpeed = speed
		}
	}
}

// WithTeleportCooldown sets the minimum time between two teleports.
func WithTeleportCooldown(d time.Duration) ControllerBuilderOption {
	return func(c *controllerImpl) {
		c.teleportCooldown = d
	}
}

// WithSnapTurn sets the snap-turn step in radians and its cooldown.
func WithSnapTurn(angle float32, cooldown time.Duration) ControllerBuilderOption {
	return func(c *controllerImpl) {
		if angle > 0 {
			c.snapAngle = angle
		}
		c.snapCooldown = cooldown
	}
}

// WithArc sets the teleport arc launch speed and the floor height it lands on.
func WithArc(launchSpeed, floorY float32) ControllerBuilderOption {
	return func(c *controllerImpl) {
		if launchSpeed > 0 {
			c.arcSpeed = launchSpeed
		}
		c.floorY = floorY
	}
}

// WithEyeHeight sets the height above the landing point the eye is placed at after a teleport.
func WithEyeHeight(h float32) ControllerBuilderOption {
	return func(c *controllerImpl) {
		c.eyeHeight = h
	}
}

// WithLogger sets the logger used for recovered failures.
func WithLogger(logger *log.Logger) ControllerBuilderOption {
	return func(c *controllerImpl) {
		c.logger = logger
	}
}
