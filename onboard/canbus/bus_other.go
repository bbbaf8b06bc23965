//go:build !linux

package canbus

import "errors"

var ErrUnsupported = errors.New("socketcan is only available on linux")

type CANBus struct{}

func NewCANBus(ifname string) (*CANBus, error) {
	return nil, ErrUnsupported
}

func (c *CANBus) AddListener(id uint32, rx chan Frame) {}

func (c *CANBus) RemoveListener(id uint32) {}

func (c *CANBus) SendMsg(f Frame) error {
	return ErrUnsupported
}

func (c *CANBus) Close() error {
	return nil
}
