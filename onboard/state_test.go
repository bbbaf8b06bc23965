package onboard

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

// run steps through every input and collects the events produced.
func run(s ControlState, inputs ...Inputs) (ControlState, []Event) {
	var all []Event
	for _, in := range inputs {
		var events []Event
		s, events = Step(s, in)
		all = append(all, events...)
	}
	return s, all
}

func TestStep(t *testing.T) {
	armed := Inputs{Arm: true}
	disarmed := Inputs{}
	reversed := Inputs{Arm: true, Reverse: true}
	failsafe := Inputs{Failsafe: true}

	Convey("Starting disarmed", t, func() {
		var s ControlState

		Convey("arming emits armed once per edge", func() {
			s, events := run(s, armed, armed, armed)
			So(s.Armed, ShouldBeTrue)
			So(events, ShouldResemble, []Event{EventArmed})

			s, events = run(s, disarmed, disarmed, armed)
			So(events, ShouldResemble, []Event{EventDisarmed, EventArmed})
		})

		Convey("holding the arm switch off is silent", func() {
			s, events := run(s, disarmed, disarmed)
			So(s.Armed, ShouldBeFalse)
			So(events, ShouldBeEmpty)
		})

		Convey("reverse is ignored while disarmed", func() {
			s, events := run(s, Inputs{Reverse: true})
			So(s.Reverse, ShouldBeFalse)
			So(events, ShouldBeEmpty)
		})

		Convey("arming with reverse selected goes straight to reverse", func() {
			s, events := run(s, reversed)
			So(s, ShouldResemble, ControlState{Armed: true, Reverse: true})
			So(events, ShouldResemble, []Event{EventArmed, EventReverse})
		})
	})

	Convey("While armed", t, func() {
		s := ControlState{Armed: true}

		Convey("each reverse edge is reported once", func() {
			s, events := run(s, reversed, reversed, armed, armed, reversed)
			So(s.Reverse, ShouldBeTrue)
			So(events, ShouldResemble, []Event{EventReverse, EventForward, EventReverse})
		})

		Convey("disarming keeps the last direction", func() {
			s, events := run(s, reversed, disarmed)
			So(s, ShouldResemble, ControlState{Reverse: true})
			So(events, ShouldResemble, []Event{EventReverse, EventDisarmed})

			Convey("and re-arming forward reports the edge", func() {
				_, events = run(s, armed)
				So(events, ShouldResemble, []Event{EventArmed, EventForward})
			})
		})
	})

	Convey("Failsafe", t, func() {
		s := ControlState{Armed: true}

		Convey("disarms and latches", func() {
			s, events := run(s, failsafe, failsafe)
			So(s, ShouldResemble, ControlState{Failsafe: true})
			So(events, ShouldResemble, []Event{EventFailsafe, EventDisarmed})

			Convey("refuses to arm until the switch has been off", func() {
				s, events = run(s, armed, armed)
				So(s.Armed, ShouldBeFalse)
				So(events, ShouldBeEmpty)

				s, events = run(s, disarmed, armed)
				So(s.Armed, ShouldBeTrue)
				So(s.Failsafe, ShouldBeFalse)
				So(events, ShouldResemble, []Event{EventRecovered, EventArmed})
			})
		})

		Convey("while disarmed only reports the failsafe", func() {
			_, events := run(ControlState{}, failsafe)
			So(events, ShouldResemble, []Event{EventFailsafe})
		})
	})

	Convey("Events have readable names", t, func() {
		So(EventArmed.String(), ShouldEqual, "armed")
		So(EventReverse.String(), ShouldEqual, "reverse")
		So(EventFault.String(), ShouldEqual, "fault")
		So(Event(42).String(), ShouldEqual, "unknown")
	})
}
