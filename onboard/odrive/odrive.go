// Package odrive drives the two axes of an ODrive motor controller, either
// over its ASCII serial protocol or over CAN using CANSimple.
package odrive

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

type Axis uint8

const (
	AxisLeft  Axis = 0
	AxisRight Axis = 1

	NumAxes = 2
)

func (a Axis) String() string {
	switch a {
	case AxisLeft:
		return "left"
	case AxisRight:
		return "right"
	default:
		return fmt.Sprintf("axis%d", uint8(a))
	}
}

var (
	ErrBadAxis    = errors.New("bad axis number")
	ErrOutOfRange = errors.New("velocity exceeds configured limit")
)

// Controller is a two axis velocity controller.
type Controller interface {
	SetVelocity(ctx context.Context, axis Axis, velocity float64) error
	Version(ctx context.Context) (string, error)
	Close() error
}

// checkCommand validates a velocity command before it goes on the wire. A
// limit of 0 disables the range check.
func checkCommand(axis Axis, velocity, limit float64) error {
	if axis >= NumAxes {
		return ErrBadAxis
	}
	if limit > 0 && mgl64.Abs(velocity) > limit {
		return fmt.Errorf("%w: %.3f > %.3f", ErrOutOfRange, mgl64.Abs(velocity), limit)
	}
	return nil
}
