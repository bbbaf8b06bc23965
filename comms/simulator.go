package comms

import (
	"fmt"
	"sync"

	"github.com/CodedInternet/beebot/onboard"
)

// SimulatorCommander drives a simulated receiver from client commands.
type SimulatorCommander struct {
	lock               sync.Mutex
	receiver           *onboard.SimulatedReceiver
	throttle, steering float64
}

func NewSimulatorCommander(receiver *onboard.SimulatedReceiver) *SimulatorCommander {
	return &SimulatorCommander{receiver: receiver}
}

func (s *SimulatorCommander) ProcessCommand(cmd Cmd) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	on := cmd.Value != 0
	switch cmd.Cmd {
	case "arm":
		s.receiver.SetArm(on)
	case "reverse":
		s.receiver.SetReverse(on)
	case "failsafe":
		s.receiver.SetFailsafe(on)
	case "silent":
		s.receiver.SetSilent(on)
	case "throttle":
		s.throttle = cmd.Value
		s.receiver.SetSticks(s.throttle, s.steering)
	case "steering":
		s.steering = cmd.Value
		s.receiver.SetSticks(s.throttle, s.steering)
	default:
		return fmt.Errorf("unknown command %q", cmd.Cmd)
	}
	return nil
}
