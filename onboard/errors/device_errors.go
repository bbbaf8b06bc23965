package errors

import "fmt"

// TransportError is raised when the link to the receiver or the motor
// controller fails. It is always fatal to the control loop.
type TransportError struct {
	Device string
	Op     string
	Err    error
}

func (err *TransportError) Error() string {
	device := err.Device
	if len(device) == 0 {
		device = "UNKNOWN"
	}

	return fmt.Sprintf("transport error on %s during %s: %v", device, err.Op, err.Err)
}

func (err *TransportError) Unwrap() error {
	return err.Err
}

// Transport wraps err as a TransportError unless it already is one.
func Transport(device, op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*TransportError); ok {
		return err
	}

	return &TransportError{Device: device, Op: op, Err: err}
}

// InvalidChannelValue is returned by the normalizer when a raw channel reading
// cannot be interpreted. It aborts the current tick only.
type InvalidChannelValue struct {
	Channel int
	Raw     uint16
	Reason  string
}

func (err InvalidChannelValue) Error() string {
	if len(err.Reason) == 0 {
		err.Reason = "out of range"
	}

	return fmt.Sprintf("invalid value %d on channel %d: %s", err.Raw, err.Channel, err.Reason)
}

type UnsupportedVersionError struct {
	Device   string
	Found    string
	Required string
}

func (err UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unable to use %s: received version %s - require %s", err.Device, err.Found, err.Required)
}
