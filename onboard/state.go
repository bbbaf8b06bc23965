package onboard

// ControlState is the only state carried between frames. It is owned by the
// control loop and replaced wholesale by Step on every tick.
type ControlState struct {
	Armed   bool
	Reverse bool

	// Failsafe latches when the receiver reports failsafe or goes silent. It
	// holds the robot disarmed until the arm switch has been seen off.
	Failsafe bool
}

// Inputs are the switch positions decoded from a single frame.
type Inputs struct {
	Arm      bool
	Reverse  bool
	Failsafe bool
}

// Event is an edge reported by Step or a fault raised by the loop.
type Event int

const (
	EventArmed Event = iota
	EventDisarmed
	EventForward
	EventReverse
	EventFailsafe
	EventRecovered

	// EventFault is raised by the loop, never by Step.
	EventFault
)

func (e Event) String() string {
	switch e {
	case EventArmed:
		return "armed"
	case EventDisarmed:
		return "disarmed"
	case EventForward:
		return "forward"
	case EventReverse:
		return "reverse"
	case EventFailsafe:
		return "failsafe"
	case EventRecovered:
		return "recovered"
	case EventFault:
		return "fault"
	default:
		return "unknown"
	}
}

// Step advances the arm/reverse state machine by one frame. Events are only
// produced on edges, so holding a switch steady never repeats them.
func Step(s ControlState, in Inputs) (next ControlState, events []Event) {
	next = s

	if in.Failsafe {
		if !s.Failsafe {
			events = append(events, EventFailsafe)
		}
		next.Failsafe = true
		if s.Armed {
			next.Armed = false
			events = append(events, EventDisarmed)
		}
		return
	}

	if s.Failsafe {
		if in.Arm {
			// the pilot has to cycle the arm switch before we drive again
			return
		}
		next.Failsafe = false
		events = append(events, EventRecovered)
	}

	if !in.Arm {
		if s.Armed {
			next.Armed = false
			events = append(events, EventDisarmed)
		}
		return
	}

	if !s.Armed {
		next.Armed = true
		events = append(events, EventArmed)
	}

	if in.Reverse && !s.Reverse {
		events = append(events, EventReverse)
	} else if !in.Reverse && s.Reverse {
		events = append(events, EventForward)
	}
	next.Reverse = in.Reverse

	return
}
