package odrive

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/goburrow/serial"

	deverrors "github.com/CodedInternet/beebot/onboard/errors"
)

const (
	DefaultBaudRate = 115200
	serialTimeout   = 500 * time.Millisecond
)

// ASCIIController talks to an ODrive over its line based ASCII protocol.
type ASCIIController struct {
	name string
	port io.ReadWriteCloser
	rd   *bufio.Reader
	lock sync.Mutex

	VelocityLimit float64
}

func OpenASCII(path string, baud int) (*ASCIIController, error) {
	if baud == 0 {
		baud = DefaultBaudRate
	}

	port, err := serial.Open(&serial.Config{
		Address:  path,
		BaudRate: baud,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  serialTimeout,
	})
	if err != nil {
		return nil, deverrors.Transport(path, "open", err)
	}

	return NewASCIIController(path, port), nil
}

func NewASCIIController(name string, port io.ReadWriteCloser) *ASCIIController {
	return &ASCIIController{
		name: name,
		port: port,
		rd:   bufio.NewReader(port),
	}
}

// SetVelocity issues `v <axis> <velocity>`. The ODrive does not acknowledge
// velocity commands, so a successful write is a successful dispatch.
func (c *ASCIIController) SetVelocity(ctx context.Context, axis Axis, velocity float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkCommand(axis, velocity, c.VelocityLimit); err != nil {
		return deverrors.Transport(c.name, "set_velocity", err)
	}

	// Keep as little processing outside the critical section as possible
	buf := fmt.Sprintf("v %d %.4f\n", axis, velocity)

	c.lock.Lock()
	_, err := io.WriteString(c.port, buf)
	c.lock.Unlock()

	return deverrors.Transport(c.name, "set_velocity", err)
}

func (c *ASCIIController) read(property string) (string, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if _, err := fmt.Fprintf(c.port, "r %s\n", property); err != nil {
		return "", err
	}

	line, err := c.rd.ReadString('\n')
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(line), nil
}

// Version reads fw_version_{major,minor,revision}.
func (c *ASCIIController) Version(ctx context.Context) (string, error) {
	parts := make([]string, 0, 3)
	for _, property := range []string{"fw_version_major", "fw_version_minor", "fw_version_revision"} {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		value, err := c.read(property)
		if err != nil {
			return "", deverrors.Transport(c.name, "read "+property, err)
		}
		if strings.HasPrefix(value, "invalid") || len(value) == 0 {
			return "", deverrors.Transport(c.name, "read "+property, fmt.Errorf("unexpected response %q", value))
		}
		parts = append(parts, value)
	}

	return strings.Join(parts, "."), nil
}

func (c *ASCIIController) Close() error {
	return c.port.Close()
}
