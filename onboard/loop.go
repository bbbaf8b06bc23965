package onboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	deverrors "github.com/CodedInternet/beebot/onboard/errors"
	"github.com/CodedInternet/beebot/onboard/odrive"
	"github.com/CodedInternet/beebot/onboard/rc"
)

// Default channel assignment, 0-based in AETR order.
const (
	ThrottleChannel = 2
	SteeringChannel = 3
	ReverseChannel  = 4
	ArmChannel      = 5
)

const (
	DefaultFailsafeTimeout = 500 * time.Millisecond
	DefaultStopTimeout     = 250 * time.Millisecond
)

var errReceiverSilent = errors.New("no frame from receiver within the failsafe timeout")

// Receiver yields decoded frames from the radio link.
type Receiver interface {
	NextFrame(ctx context.Context) (rc.Frame, error)
}

// Normalizer maps raw channel values to switch, throttle and steering inputs.
type Normalizer interface {
	ToBool(raw uint16) (bool, error)
	ToLinear(raw uint16) (float64, error)
	ToDeflection(raw uint16) (float64, error)
}

// MotorController sets the velocity of a single drive axis.
type MotorController interface {
	SetVelocity(ctx context.Context, axis odrive.Axis, velocity float64) error
}

// Notification is handed to a Notifier for every state machine event, and
// once with EventFault when the loop stops on a fatal error.
type Notification struct {
	Time  time.Time
	Event Event
	State ControlState
	Err   error
}

// Notifier is told about state changes and faults.
type Notifier interface {
	Notify(n Notification)
}

// Notifiers fans a notification out to each member in order.
type Notifiers []Notifier

func (ns Notifiers) Notify(n Notification) {
	for _, notifier := range ns {
		notifier.Notify(n)
	}
}

// Tick describes one completed pass of the loop.
type Tick struct {
	Time    time.Time
	State   ControlState
	Command MixedCommand
	Outputs [odrive.NumAxes]float64
	Frame   rc.Frame
}

// Observer is handed every successfully dispatched tick.
type Observer interface {
	Observe(t Tick)
}

type ChannelMap struct {
	Arm      int `yaml:"arm"`
	Reverse  int `yaml:"reverse"`
	Throttle int `yaml:"throttle"`
	Steering int `yaml:"steering"`
}

func DefaultChannels() ChannelMap {
	return ChannelMap{
		Arm:      ArmChannel,
		Reverse:  ReverseChannel,
		Throttle: ThrottleChannel,
		Steering: SteeringChannel,
	}
}

// Loop reads frames from Receiver and drives Motors until the context is
// cancelled or a transport fails. It owns the ControlState and must only be
// run from a single goroutine.
type Loop struct {
	Receiver   Receiver
	Normalizer Normalizer
	Motors     MotorController
	Channels   ChannelMap
	Gains      Gains

	// FailsafeTimeout is how long the receiver may stay silent before the
	// loop treats it as a failsafe. Zero disables the watchdog.
	FailsafeTimeout time.Duration
	StopTimeout     time.Duration

	Notifier Notifier
	Observer Observer
	Logger   *log.Logger

	state ControlState
}

func NewLoop(receiver Receiver, normalizer Normalizer, motors MotorController) *Loop {
	return &Loop{
		Receiver:        receiver,
		Normalizer:      normalizer,
		Motors:          motors,
		Channels:        DefaultChannels(),
		Gains:           DefaultGains(),
		FailsafeTimeout: DefaultFailsafeTimeout,
		StopTimeout:     DefaultStopTimeout,
	}
}

func (l *Loop) logger() *log.Logger {
	if l.Logger == nil {
		return log.Default()
	}
	return l.Logger
}

// Run blocks until ctx is done or a transport error occurs. Either way a zero
// velocity is dispatched to both axes before it returns.
func (l *Loop) Run(ctx context.Context) error {
	for {
		frame, err := l.next(ctx)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			l.stop()
			return ctx.Err()
		case errors.Is(err, errReceiverSilent):
			frame = rc.Frame{Failsafe: true, Time: time.Now()}
		default:
			l.fault(err)
			return err
		}

		if err = l.tick(ctx, frame); err != nil {
			if ctx.Err() != nil {
				l.stop()
				return ctx.Err()
			}
			l.fault(err)
			return err
		}
	}
}

func (l *Loop) next(ctx context.Context) (rc.Frame, error) {
	if l.FailsafeTimeout <= 0 {
		return l.Receiver.NextFrame(ctx)
	}

	wctx, cancel := context.WithTimeout(ctx, l.FailsafeTimeout)
	defer cancel()

	frame, err := l.Receiver.NextFrame(wctx)
	if err != nil && ctx.Err() == nil && errors.Is(wctx.Err(), context.DeadlineExceeded) {
		return frame, errReceiverSilent
	}
	return frame, err
}

func (l *Loop) tick(ctx context.Context, frame rc.Frame) (err error) {
	var outputs [odrive.NumAxes]float64
	var cmd MixedCommand

	in, err := l.inputs(frame)
	if err != nil {
		if !isInvalid(err) {
			return err
		}
		l.logger().Printf("dropping frame: %v", err)
		return l.dispatch(ctx, outputs)
	}

	next, events := Step(l.state, in)
	l.state = next
	// events reach the notifiers only after this tick's dispatch
	defer func() {
		for _, e := range events {
			l.logger().Println(e)
			l.notify(Notification{Time: frame.Time, Event: e, State: next})
		}
	}()

	if l.state.Armed {
		cmd, err = l.command(frame)
		switch {
		case err == nil:
			outputs = cmd.Outputs(l.state.Reverse)
		case isInvalid(err):
			l.logger().Printf("holding motors: %v", err)
			cmd = MixedCommand{}
		default:
			return err
		}
	}

	if err = l.dispatch(ctx, outputs); err != nil {
		return
	}

	if l.Observer != nil {
		l.Observer.Observe(Tick{
			Time:    frame.Time,
			State:   l.state,
			Command: cmd,
			Outputs: outputs,
			Frame:   frame,
		})
	}
	return nil
}

func (l *Loop) inputs(frame rc.Frame) (in Inputs, err error) {
	if frame.Failsafe {
		in.Failsafe = true
		return
	}

	if in.Arm, err = l.switchOn(frame, l.Channels.Arm); err != nil {
		return
	}
	in.Reverse, err = l.switchOn(frame, l.Channels.Reverse)
	return
}

func (l *Loop) command(frame rc.Frame) (MixedCommand, error) {
	raw, err := frame.Channel(l.Channels.Throttle)
	if err != nil {
		return MixedCommand{}, err
	}
	throttle, err := l.Normalizer.ToLinear(raw)
	if err != nil {
		return MixedCommand{}, onChannel(err, l.Channels.Throttle)
	}

	raw, err = frame.Channel(l.Channels.Steering)
	if err != nil {
		return MixedCommand{}, err
	}
	deflection, err := l.Normalizer.ToDeflection(raw)
	if err != nil {
		return MixedCommand{}, onChannel(err, l.Channels.Steering)
	}

	return Mix(throttle, SteeringMix(deflection), l.Gains), nil
}

func (l *Loop) switchOn(frame rc.Frame, index int) (bool, error) {
	raw, err := frame.Channel(index)
	if err != nil {
		return false, err
	}
	on, err := l.Normalizer.ToBool(raw)
	return on, onChannel(err, index)
}

// dispatch sends the left axis then the right axis. Both calls complete
// before the next frame is read.
func (l *Loop) dispatch(ctx context.Context, outputs [odrive.NumAxes]float64) error {
	for axis := odrive.AxisLeft; axis < odrive.NumAxes; axis++ {
		if err := l.Motors.SetVelocity(ctx, axis, outputs[axis]); err != nil {
			return err
		}
	}
	return nil
}

// stop is a best-effort zero dispatch on a context of its own, as the loop's
// context may already be cancelled.
func (l *Loop) stop() {
	timeout := l.StopTimeout
	if timeout <= 0 {
		timeout = DefaultStopTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := l.dispatch(ctx, [odrive.NumAxes]float64{}); err != nil {
		l.logger().Printf("unable to stop motors: %v", err)
	}
}

func (l *Loop) fault(err error) {
	l.logger().Printf("control loop failed: %v", err)
	l.stop()
	l.state.Armed = false
	l.notify(Notification{Time: time.Now(), Event: EventFault, State: l.state, Err: err})
}

func (l *Loop) notify(n Notification) {
	if l.Notifier != nil {
		l.Notifier.Notify(n)
	}
}

func isInvalid(err error) bool {
	var invalid deverrors.InvalidChannelValue
	return errors.As(err, &invalid)
}

func onChannel(err error, index int) error {
	var invalid deverrors.InvalidChannelValue
	if errors.As(err, &invalid) {
		invalid.Channel = index
		return fmt.Errorf("decoding channel %d: %w", index, invalid)
	}
	return err
}
