package onboard

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/CodedInternet/beebot/onboard/odrive"
)

const (
	DefaultMaxVelocity      = 60
	DefaultSteeringVelocity = 40
)

// SteeringPair is the per side contribution of a steering deflection.
type SteeringPair struct {
	Left, Right float64
}

// SteeringMix splits a deflection in [-1, 1] into opposing left and right
// contributions. Positive deflection speeds up the left side.
func SteeringMix(deflection float64) SteeringPair {
	d := mgl64.Clamp(deflection, -1, 1)
	if d == 0 {
		// avoid handing out -0 for the right side
		return SteeringPair{}
	}
	return SteeringPair{Left: d, Right: -d}
}

// Gains scale throttle and steering into motor velocities.
type Gains struct {
	MaxVelocity      float64 `yaml:"max_velocity"`
	SteeringVelocity float64 `yaml:"steering_velocity"`
}

func DefaultGains() Gains {
	return Gains{
		MaxVelocity:      DefaultMaxVelocity,
		SteeringVelocity: DefaultSteeringVelocity,
	}
}

// Bound is the largest velocity magnitude Mix can produce for inputs within
// their normalized ranges.
func (g Gains) Bound() float64 {
	return g.MaxVelocity + g.SteeringVelocity
}

// MixedCommand holds the left and right velocity targets before the motor
// mounting convention is applied.
type MixedCommand struct {
	Left, Right float64
}

// Mix combines throttle with the steering split. No clamping is applied.
func Mix(throttle float64, steering SteeringPair, g Gains) MixedCommand {
	v := mgl64.Vec2{1, 1}.Mul(g.MaxVelocity * throttle).
		Add(mgl64.Vec2{steering.Left, steering.Right}.Mul(g.SteeringVelocity))

	return MixedCommand{Left: v.X(), Right: v.Y()}
}

// Outputs applies the mounting convention: the right motor is mirrored, so
// going forward it receives the negated target. In reverse only the left
// output is negated and the right one is passed through unchanged.
func (c MixedCommand) Outputs(reverse bool) [odrive.NumAxes]float64 {
	if reverse {
		return [odrive.NumAxes]float64{-c.Left, c.Right}
	}
	return [odrive.NumAxes]float64{c.Left, -c.Right}
}
