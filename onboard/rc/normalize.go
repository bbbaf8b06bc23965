package rc

import (
	"github.com/go-gl/mathgl/mgl64"

	deverrors "github.com/CodedInternet/beebot/onboard/errors"
)

// SBUS channel range as reported by FrSky/FlySky style receivers (988us-2012us).
const (
	SBUSMin    = 172
	SBUSCenter = 992
	SBUSMax    = 1811

	DigitalLow  = SBUSMin
	DigitalHigh = SBUSMax

	DefaultBoolThreshold = 1400
	DefaultDeadband      = 0.02
	DefaultMargin        = 150
)

// Normalizer converts raw channel values into booleans, linear floats and
// signed deflections. Raw values further than Margin outside [Min, Max] are
// rejected as implausible.
type Normalizer struct {
	Min, Center, Max uint16
	BoolThreshold    uint16
	Deadband         float64 // deflections with a smaller magnitude read as 0
	Margin           uint16
}

func DefaultNormalizer() *Normalizer {
	return &Normalizer{
		Min:           SBUSMin,
		Center:        SBUSCenter,
		Max:           SBUSMax,
		BoolThreshold: DefaultBoolThreshold,
		Deadband:      DefaultDeadband,
		Margin:        DefaultMargin,
	}
}

func (n *Normalizer) check(raw uint16) error {
	low := int(n.Min) - int(n.Margin)
	high := int(n.Max) + int(n.Margin)
	if int(raw) < low || int(raw) > high {
		return deverrors.InvalidChannelValue{Channel: -1, Raw: raw}
	}
	return nil
}

// ToBool reports whether a switch channel is above the threshold.
func (n *Normalizer) ToBool(raw uint16) (bool, error) {
	if err := n.check(raw); err != nil {
		return false, err
	}
	return raw > n.BoolThreshold, nil
}

// ToLinear maps [Min, Max] onto [0, 1].
func (n *Normalizer) ToLinear(raw uint16) (float64, error) {
	if err := n.check(raw); err != nil {
		return 0, err
	}

	v := (float64(raw) - float64(n.Min)) / (float64(n.Max) - float64(n.Min))
	return mgl64.Clamp(v, 0, 1), nil
}

// ToDeflection maps the channel onto [-1, 1] centered on Center. Each half of
// the stick travel is scaled separately so an off-center trim still reaches
// full deflection at both ends.
func (n *Normalizer) ToDeflection(raw uint16) (float64, error) {
	if err := n.check(raw); err != nil {
		return 0, err
	}

	var v float64
	if raw >= n.Center {
		v = (float64(raw) - float64(n.Center)) / (float64(n.Max) - float64(n.Center))
	} else {
		v = (float64(raw) - float64(n.Center)) / (float64(n.Center) - float64(n.Min))
	}

	if mgl64.Abs(v) < n.Deadband {
		return 0, nil
	}
	return mgl64.Clamp(v, -1, 1), nil
}
