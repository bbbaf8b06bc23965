package comms

import (
	"time"

	"github.com/CodedInternet/beebot/onboard"
	"github.com/CodedInternet/beebot/onboard/odrive"
	"github.com/CodedInternet/beebot/onboard/rc"
)

// StatePayload is the JSON view of a single loop tick sent to clients.
type StatePayload struct {
	Time      time.Time               `json:"time"`
	Armed     bool                    `json:"armed"`
	Reverse   bool                    `json:"reverse"`
	Failsafe  bool                    `json:"failsafe"`
	Command   onboard.MixedCommand    `json:"command"`
	Outputs   [odrive.NumAxes]float64 `json:"outputs"`
	Channels  [rc.NumChannels]uint16  `json:"channels"`
	FrameLost bool                    `json:"frame_lost"`
}

func NewStatePayload(t onboard.Tick) StatePayload {
	return StatePayload{
		Time:      t.Time,
		Armed:     t.State.Armed,
		Reverse:   t.State.Reverse,
		Failsafe:  t.State.Failsafe,
		Command:   t.Command,
		Outputs:   t.Outputs,
		Channels:  t.Frame.Channels,
		FrameLost: t.Frame.FrameLost,
	}
}

// Cmd is sent by clients to drive a simulated receiver.
type Cmd struct {
	Cmd   string  `json:"cmd"`
	Value float64 `json:"value"`
}
