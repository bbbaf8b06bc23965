package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/CodedInternet/beebot/onboard/canbus"
	"github.com/CodedInternet/beebot/onboard/odrive"
)

func main() {
	transport := flag.String("transport", "ascii", "ascii or can")
	device := flag.String("device", "/dev/ttyACM0", "serial port or can interface")
	axis := flag.Uint("axis", 0, "axis to spin")
	velocity := flag.Float64("velocity", 2, "velocity to spin at, in turns/s")
	duration := flag.Duration("for", time.Second, "how long to spin for")
	flag.Parse()

	var c odrive.Controller
	var err error
	switch *transport {
	case "can":
		var bus *canbus.CANBus
		bus, err = canbus.NewCANBus(*device)
		if err == nil {
			c = odrive.NewCANController(*device, bus, [odrive.NumAxes]uint32{0, 1})
		}
	default:
		c, err = odrive.OpenASCII(*device, 0)
	}
	if err != nil {
		panic(err)
	}
	defer c.Close()

	ctx := context.Background()
	version, err := c.Version(ctx)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Success! Working with firmware version %s\n", version)

	a := odrive.Axis(*axis)
	if err = c.SetVelocity(ctx, a, *velocity); err != nil {
		panic(err)
	}
	time.Sleep(*duration)
	if err = c.SetVelocity(ctx, a, 0); err != nil {
		panic(err)
	}
	fmt.Printf("Spun %s axis at %.2f for %v\n", a, *velocity, *duration)
}
