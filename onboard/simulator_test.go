package onboard

import (
	"context"
	"io/ioutil"
	"log"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/CodedInternet/beebot/onboard/odrive"
	"github.com/CodedInternet/beebot/onboard/rc"
)

func TestSimulatedReceiver(t *testing.T) {
	Convey("Given a simulated receiver", t, func() {
		r := NewSimulatedReceiver(DefaultChannels())
		r.Interval = time.Millisecond
		n := rc.DefaultNormalizer()
		ctx := context.Background()

		Convey("it starts disarmed at idle", func() {
			f, err := r.NextFrame(ctx)
			So(err, ShouldBeNil)
			So(f.Time.IsZero(), ShouldBeFalse)

			arm, _ := n.ToBool(f.Channels[ArmChannel])
			So(arm, ShouldBeFalse)
			throttle, _ := n.ToLinear(f.Channels[ThrottleChannel])
			So(throttle, ShouldEqual, 0)
		})

		Convey("stick positions survive normalization", func() {
			r.SetArm(true)
			r.SetSticks(0.5, -1)
			f, _ := r.NextFrame(ctx)

			arm, _ := n.ToBool(f.Channels[ArmChannel])
			So(arm, ShouldBeTrue)
			throttle, _ := n.ToLinear(f.Channels[ThrottleChannel])
			So(throttle, ShouldAlmostEqual, 0.5, 0.001)
			steering, _ := n.ToDeflection(f.Channels[SteeringChannel])
			So(steering, ShouldEqual, -1)
		})

		Convey("a silent receiver only returns on cancel", func() {
			r.SetSilent(true)
			cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()

			_, err := r.NextFrame(cctx)
			So(err, ShouldEqual, context.DeadlineExceeded)
		})
	})
}

func TestSimulatedMotors(t *testing.T) {
	Convey("Simulated motors record commands", t, func() {
		m := &SimulatedMotors{}
		ctx := context.Background()

		So(m.SetVelocity(ctx, odrive.AxisRight, 12), ShouldBeNil)
		So(m.Velocities(), ShouldResemble, [odrive.NumAxes]float64{0, 12})
		So(m.Commands(), ShouldEqual, 1)
		So(m.SetVelocity(ctx, odrive.Axis(3), 12), ShouldEqual, odrive.ErrBadAxis)

		v, err := m.Version(ctx)
		So(err, ShouldBeNil)
		So(odrive.CheckVersion("sim", v, odrive.DefaultFirmware), ShouldBeNil)
	})
}

func TestSimulatedLoop(t *testing.T) {
	Convey("The loop drives the simulated robot", t, func() {
		r := NewSimulatedReceiver(DefaultChannels())
		r.Interval = time.Millisecond
		m := &SimulatedMotors{}

		l := NewLoop(r, rc.DefaultNormalizer(), m)
		l.Logger = log.New(ioutil.Discard, "", 0)

		r.SetArm(true)
		r.SetSticks(1, 0)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error)
		go func() { done <- l.Run(ctx) }()

		deadline := time.Now().Add(time.Second)
		for m.Velocities()[odrive.AxisLeft] == 0 && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
		So(m.Velocities(), ShouldResemble, [odrive.NumAxes]float64{DefaultMaxVelocity, -DefaultMaxVelocity})

		cancel()
		So(<-done, ShouldEqual, context.Canceled)
		So(m.Velocities(), ShouldResemble, [odrive.NumAxes]float64{0, 0})
	})
}
