package onboard

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

const testYaml = `
version: 1
receiver:
  device: /dev/ttyS1
controller:
  transport: can
  device: can0
  nodes: [3, 4]
  velocity_limit: 120
channels:
  arm: 16
mixer:
  max_velocity: 80
failsafe:
  timeout: 250ms
`

func TestParseConfig(t *testing.T) {
	Convey("A partial config is laid over the defaults", t, func() {
		config, err := ParseConfig([]byte(testYaml))
		So(err, ShouldBeNil)

		So(config.Receiver.Device, ShouldEqual, "/dev/ttyS1")
		So(config.Receiver.Protocol, ShouldEqual, PROTOCOL_SBUS)
		So(config.Controller.Transport, ShouldEqual, TRANSPORT_CAN)
		So(config.CANNodes(), ShouldResemble, [2]uint32{3, 4})
		So(config.Channels, ShouldResemble, ChannelMap{Arm: 16, Reverse: ReverseChannel, Throttle: ThrottleChannel, Steering: SteeringChannel})
		So(config.Mixer, ShouldResemble, Gains{MaxVelocity: 80, SteeringVelocity: DefaultSteeringVelocity})
		So(config.Failsafe.Timeout, ShouldEqual, 250*time.Millisecond)
		So(config.Telemetry.Listen, ShouldEqual, ":8080")
	})

	Convey("An empty document gives the defaults", t, func() {
		config, err := ParseConfig([]byte("version: 1\n"))
		So(err, ShouldBeNil)
		So(config, ShouldResemble, DefaultConfig())
	})

	Convey("Invalid configs are rejected", t, func() {
		for name, doc := range map[string]string{
			"version":          "version: 2",
			"unknown key":      "version: 1\nmotors: {}",
			"protocol":         "version: 1\nreceiver: {protocol: ppm}",
			"transport":        "version: 1\ncontroller: {transport: pwm}",
			"node count":       "version: 1\ncontroller: {transport: can, nodes: [1]}",
			"shared node":      "version: 1\ncontroller: {transport: can, nodes: [1, 1]}",
			"channel range":    "version: 1\nchannels: {arm: 18}",
			"shared channel":   "version: 1\nchannels: {arm: 2}",
			"digital throttle": "version: 1\nchannels: {throttle: 16}",
			"digital steering": "version: 1\nchannels: {steering: 17}",
			"gains":            "version: 1\nmixer: {max_velocity: 0}",
			"limit":            "version: 1\ncontroller: {velocity_limit: 60}",
			"timeout":          "version: 1\nfailsafe: {timeout: -1s}",
		} {
			_, err := ParseConfig([]byte(doc))
			So(err, ShouldNotBeNil)
			if err == nil {
				t.Logf("%s was accepted", name)
			}
		}
	})

	Convey("A zero timeout disables the watchdog", t, func() {
		config, err := ParseConfig([]byte("version: 1\nfailsafe: {timeout: 0s}"))
		So(err, ShouldBeNil)
		So(config.Failsafe.Timeout, ShouldEqual, 0)
	})
}

func TestLoadConfig(t *testing.T) {
	Convey("Configs are loaded from disk", t, func() {
		dir, err := ioutil.TempDir("", "beebot")
		So(err, ShouldBeNil)
		defer os.RemoveAll(dir)

		path := filepath.Join(dir, "beebot.yaml")
		So(ioutil.WriteFile(path, []byte(testYaml), 0644), ShouldBeNil)

		config, err := LoadConfig(path)
		So(err, ShouldBeNil)
		So(config.Controller.Device, ShouldEqual, "can0")

		Convey("and a missing file is an error", func() {
			_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
			So(err, ShouldNotBeNil)
		})
	})
}
