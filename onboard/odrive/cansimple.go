package odrive

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/CodedInternet/beebot/onboard/canbus"
	deverrors "github.com/CodedInternet/beebot/onboard/errors"
)

// CANSimple command ids
const (
	CMD_GET_VERSION   = 0x00
	CMD_SET_INPUT_VEL = 0x0D

	CMD_MAX_RETRIES = 5
	CMD_TIMEOUT     = 50 * time.Millisecond
)

var (
	ERR_MAX_RETRIES = errors.New("CMD_MAX_RETRIES reached while waiting for a response")
	ERR_SHORT_REPLY = errors.New("response payload too short")
)

func arbitrationID(node uint32, cmd uint32) uint32 {
	return node<<5 | cmd
}

// CANController drives one ODrive node per axis over CANSimple.
type CANController struct {
	name  string
	bus   canbus.Bus
	nodes [NumAxes]uint32

	VelocityLimit float64
}

func NewCANController(name string, bus canbus.Bus, nodes [NumAxes]uint32) *CANController {
	return &CANController{
		name:  name,
		bus:   bus,
		nodes: nodes,
	}
}

// SetVelocity sends Set_Input_Vel with a zero torque feed forward.
func (c *CANController) SetVelocity(ctx context.Context, axis Axis, velocity float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkCommand(axis, velocity, c.VelocityLimit); err != nil {
		return deverrors.Transport(c.name, "set_velocity", err)
	}

	data := make([]byte, 8)
	binary.LittleEndian.PutUint32(data[0:4], math.Float32bits(float32(velocity)))
	binary.LittleEndian.PutUint32(data[4:8], math.Float32bits(0))

	err := c.bus.SendMsg(canbus.Frame{
		ID:   arbitrationID(c.nodes[axis], CMD_SET_INPUT_VEL),
		Data: data,
	})
	return deverrors.Transport(c.name, "set_velocity", err)
}

// request sends a remote frame and waits for the node to answer it. The
// request is repeated every CMD_TIMEOUT up to CMD_MAX_RETRIES times.
func (c *CANController) request(ctx context.Context, node uint32, cmd uint32) (resp canbus.Frame, err error) {
	id := arbitrationID(node, cmd)

	rx := make(chan canbus.Frame, 1)
	c.bus.AddListener(id, rx)
	defer c.bus.RemoveListener(id)

	req := canbus.Frame{ID: id, RTR: true}
	for i := 0; i < CMD_MAX_RETRIES; i++ {
		if err = c.bus.SendMsg(req); err != nil {
			return
		}

		timeout := time.NewTimer(CMD_TIMEOUT)
		select {
		case resp = <-rx:
			timeout.Stop()
			if !resp.RTR {
				return resp, nil
			}

		case <-ctx.Done():
			timeout.Stop()
			return resp, ctx.Err()

		case <-timeout.C:
		}
	}

	// we have exhausted MAX_RETRIES
	return resp, ERR_MAX_RETRIES
}

// Version asks the left node for Get_Version and formats the firmware
// major.minor.revision.
func (c *CANController) Version(ctx context.Context) (string, error) {
	resp, err := c.request(ctx, c.nodes[AxisLeft], CMD_GET_VERSION)
	if err != nil {
		return "", deverrors.Transport(c.name, "get_version", err)
	}
	if len(resp.Data) < 7 {
		return "", deverrors.Transport(c.name, "get_version", ERR_SHORT_REPLY)
	}

	return fmt.Sprintf("%d.%d.%d", resp.Data[4], resp.Data[5], resp.Data[6]), nil
}

func (c *CANController) Close() error {
	return c.bus.Close()
}
