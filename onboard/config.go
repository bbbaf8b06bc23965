package onboard

import (
	"fmt"
	"io/ioutil"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/CodedInternet/beebot/onboard/odrive"
	"github.com/CodedInternet/beebot/onboard/rc"
)

const CONFIG_VERSION = 1

const (
	TRANSPORT_ASCII = "ascii"
	TRANSPORT_CAN   = "can"

	PROTOCOL_SBUS = "sbus"
)

type ReceiverConfig struct {
	Device   string `yaml:"device"`
	Protocol string `yaml:"protocol"`
}

type ControllerConfig struct {
	Transport     string   `yaml:"transport"`
	Device        string   `yaml:"device"`
	Baud          int      `yaml:"baud"`
	Nodes         []uint32 `yaml:"nodes,flow"`
	Firmware      string   `yaml:"firmware"`
	VelocityLimit float64  `yaml:"velocity_limit"`
}

type FailsafeConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

type TelemetryConfig struct {
	Listen string `yaml:"listen"`
}

type BeebotConfig struct {
	Version    int              `yaml:"version"`
	Receiver   ReceiverConfig   `yaml:"receiver"`
	Controller ControllerConfig `yaml:"controller"`
	Channels   ChannelMap       `yaml:"channels"`
	Mixer      Gains            `yaml:"mixer"`
	Failsafe   FailsafeConfig   `yaml:"failsafe"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
}

func DefaultConfig() *BeebotConfig {
	return &BeebotConfig{
		Version: CONFIG_VERSION,
		Receiver: ReceiverConfig{
			Device:   "/dev/ttyAMA0",
			Protocol: PROTOCOL_SBUS,
		},
		Controller: ControllerConfig{
			Transport: TRANSPORT_ASCII,
			Device:    "/dev/ttyACM0",
			Baud:      odrive.DefaultBaudRate,
			Nodes:     []uint32{0, 1},
			Firmware:  odrive.DefaultFirmware,
		},
		Channels:  DefaultChannels(),
		Mixer:     DefaultGains(),
		Failsafe:  FailsafeConfig{Timeout: DefaultFailsafeTimeout},
		Telemetry: TelemetryConfig{Listen: ":8080"},
	}
}

// ParseConfig overlays the YAML document on DefaultConfig and validates the
// result.
func ParseConfig(raw []byte) (*BeebotConfig, error) {
	config := DefaultConfig()
	if err := yaml.UnmarshalStrict(raw, config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func LoadConfig(path string) (*BeebotConfig, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(raw)
}

func (c *BeebotConfig) Validate() error {
	if c.Version != CONFIG_VERSION {
		return fmt.Errorf("unknown config version %d", c.Version)
	}

	if c.Receiver.Protocol != PROTOCOL_SBUS {
		return fmt.Errorf("unsupported receiver protocol %q", c.Receiver.Protocol)
	}

	switch c.Controller.Transport {
	case TRANSPORT_ASCII, TRANSPORT_CAN:
	default:
		return fmt.Errorf("unsupported controller transport %q", c.Controller.Transport)
	}
	if c.Controller.Transport == TRANSPORT_CAN {
		if len(c.Controller.Nodes) != odrive.NumAxes {
			return fmt.Errorf("controller needs %d can nodes, got %d", odrive.NumAxes, len(c.Controller.Nodes))
		}
		if c.Controller.Nodes[0] == c.Controller.Nodes[1] {
			return fmt.Errorf("both axes share can node %d", c.Controller.Nodes[0])
		}
	}

	seen := make(map[int]string, 4)
	for name, index := range map[string]int{
		"arm":      c.Channels.Arm,
		"reverse":  c.Channels.Reverse,
		"throttle": c.Channels.Throttle,
		"steering": c.Channels.Steering,
	} {
		if index < 0 || index >= rc.NumChannels+rc.NumDigitalChannels {
			return fmt.Errorf("%s channel %d out of range", name, index)
		}
		if (name == "throttle" || name == "steering") && index >= rc.NumChannels {
			return fmt.Errorf("%s channel %d is a digital channel", name, index)
		}
		if other, ok := seen[index]; ok {
			return fmt.Errorf("%s and %s share channel %d", name, other, index)
		}
		seen[index] = name
	}

	if c.Mixer.MaxVelocity <= 0 || c.Mixer.SteeringVelocity <= 0 {
		return fmt.Errorf("mixer velocities must be positive")
	}
	if limit := c.Controller.VelocityLimit; limit > 0 && limit < c.Mixer.Bound() {
		return fmt.Errorf("velocity limit %v is below the mixer bound %v", limit, c.Mixer.Bound())
	}

	if c.Failsafe.Timeout < 0 {
		return fmt.Errorf("negative failsafe timeout")
	}

	return nil
}

// CANNodes returns the node id of each axis.
func (c *BeebotConfig) CANNodes() (nodes [odrive.NumAxes]uint32) {
	copy(nodes[:], c.Controller.Nodes)
	return
}
