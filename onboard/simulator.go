package onboard

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/CodedInternet/beebot/onboard/odrive"
	"github.com/CodedInternet/beebot/onboard/rc"
)

// SBUS frames arrive every 14ms in high speed mode.
const SIM_FRAME_INTERVAL = 14 * time.Millisecond

// SimulatedReceiver produces frames at a fixed interval from stick and switch
// positions set through its methods.
type SimulatedReceiver struct {
	lock     sync.Mutex
	frame    rc.Frame
	channels ChannelMap
	silent   bool

	Interval time.Duration
}

func NewSimulatedReceiver(channels ChannelMap) *SimulatedReceiver {
	r := &SimulatedReceiver{
		channels: channels,
		Interval: SIM_FRAME_INTERVAL,
	}
	for i := range r.frame.Channels {
		r.frame.Channels[i] = rc.SBUSCenter
	}
	r.frame.Channels[channels.Throttle] = rc.SBUSMin
	r.setSwitch(channels.Arm, false)
	r.setSwitch(channels.Reverse, false)
	return r
}

func (r *SimulatedReceiver) setSwitch(index int, on bool) {
	if index >= rc.NumChannels {
		r.frame.Digital[index-rc.NumChannels] = on
		return
	}
	if on {
		r.frame.Channels[index] = rc.DigitalHigh
	} else {
		r.frame.Channels[index] = rc.DigitalLow
	}
}

func (r *SimulatedReceiver) SetArm(on bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.setSwitch(r.channels.Arm, on)
}

func (r *SimulatedReceiver) SetReverse(on bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.setSwitch(r.channels.Reverse, on)
}

// SetSticks positions throttle in [0, 1] and steering in [-1, 1].
func (r *SimulatedReceiver) SetSticks(throttle, steering float64) {
	throttle = mgl64.Clamp(throttle, 0, 1)
	steering = mgl64.Clamp(steering, -1, 1)

	r.lock.Lock()
	defer r.lock.Unlock()

	r.frame.Channels[r.channels.Throttle] = uint16(math.Round(rc.SBUSMin + throttle*(rc.SBUSMax-rc.SBUSMin)))
	if steering >= 0 {
		r.frame.Channels[r.channels.Steering] = uint16(math.Round(rc.SBUSCenter + steering*(rc.SBUSMax-rc.SBUSCenter)))
	} else {
		r.frame.Channels[r.channels.Steering] = uint16(math.Round(rc.SBUSCenter + steering*(rc.SBUSCenter-rc.SBUSMin)))
	}
}

// SetFailsafe sets the failsafe flag carried by every following frame.
func (r *SimulatedReceiver) SetFailsafe(on bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.frame.Failsafe = on
}

// SetSilent stops frames from being produced, as if the receiver was
// unplugged.
func (r *SimulatedReceiver) SetSilent(silent bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.silent = silent
}

func (r *SimulatedReceiver) NextFrame(ctx context.Context) (rc.Frame, error) {
	for {
		timer := time.NewTimer(r.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return rc.Frame{}, ctx.Err()
		case now := <-timer.C:
			r.lock.Lock()
			frame, silent := r.frame, r.silent
			r.lock.Unlock()

			if silent {
				continue
			}
			frame.Time = now
			return frame, nil
		}
	}
}

// SimulatedMotors records the last velocity commanded on each axis.
type SimulatedMotors struct {
	lock       sync.Mutex
	velocities [odrive.NumAxes]float64
	commands   int
}

func (m *SimulatedMotors) SetVelocity(ctx context.Context, axis odrive.Axis, velocity float64) error {
	if axis >= odrive.NumAxes {
		return odrive.ErrBadAxis
	}

	m.lock.Lock()
	defer m.lock.Unlock()
	m.velocities[axis] = velocity
	m.commands++
	return nil
}

func (m *SimulatedMotors) Velocities() [odrive.NumAxes]float64 {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.velocities
}

// Commands is the number of velocity commands received so far.
func (m *SimulatedMotors) Commands() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.commands
}

func (m *SimulatedMotors) Version(ctx context.Context) (string, error) {
	return "DEV", nil
}

func (m *SimulatedMotors) Close() error {
	return nil
}
