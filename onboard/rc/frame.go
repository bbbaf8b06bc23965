package rc

import (
	"time"

	deverrors "github.com/CodedInternet/beebot/onboard/errors"
)

const (
	NumChannels        = 16 // proportional channels carried by a frame
	NumDigitalChannels = 2  // channels 17 and 18, reported at index 16 and 17
)

// Frame is one snapshot of every receiver channel for a single update tick.
type Frame struct {
	Channels  [NumChannels]uint16
	Digital   [NumDigitalChannels]bool
	FrameLost bool // receiver reports this frame as lost
	Failsafe  bool // receiver has lost the transmitter and entered failsafe
	Time      time.Time
}

// Channel returns the raw value for a 0-based channel index. The two digital
// channels are reported as DigitalHigh/DigitalLow raw values.
func (f Frame) Channel(index int) (uint16, error) {
	switch {
	case index >= 0 && index < NumChannels:
		return f.Channels[index], nil

	case index >= NumChannels && index < NumChannels+NumDigitalChannels:
		if f.Digital[index-NumChannels] {
			return DigitalHigh, nil
		}
		return DigitalLow, nil

	default:
		return 0, deverrors.InvalidChannelValue{
			Channel: index,
			Reason:  "no such channel",
		}
	}
}
