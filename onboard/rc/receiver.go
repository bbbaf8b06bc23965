package rc

import (
	"context"
	"io"
	"sync"

	"go.bug.st/serial"

	deverrors "github.com/CodedInternet/beebot/onboard/errors"
)

const (
	SBUSBaudRate = 100000
	readBuffer   = 64
)

// SBUSReceiver reads SBUS frames from a byte stream. A background goroutine
// reads the port and hands complete frames to NextFrame over a channel so
// that waiting for a frame can be cancelled.
type SBUSReceiver struct {
	name   string
	port   io.ReadCloser
	frames chan Frame
	errs   chan error
	done   chan struct{}
	once   sync.Once
}

// OpenSBUS opens a UART at 100000 baud, 8E2, as required by SBUS. The line
// must already be inverted in hardware.
func OpenSBUS(path string) (*SBUSReceiver, error) {
	port, err := serial.Open(path, &serial.Mode{
		BaudRate: SBUSBaudRate,
		DataBits: 8,
		Parity:   serial.EvenParity,
		StopBits: serial.TwoStopBits,
	})
	if err != nil {
		return nil, deverrors.Transport(path, "open", err)
	}

	return NewSBUSReceiver(path, port), nil
}

func NewSBUSReceiver(name string, port io.ReadCloser) *SBUSReceiver {
	r := &SBUSReceiver{
		name:   name,
		port:   port,
		frames: make(chan Frame),
		errs:   make(chan error, 1),
		done:   make(chan struct{}),
	}

	go r.reader()

	return r
}

func (r *SBUSReceiver) reader() {
	scanner := NewScanner()
	buf := make([]byte, readBuffer)

	for {
		n, err := r.port.Read(buf)
		for i := 0; i < n; i++ {
			frame, ok := scanner.Feed(buf[i])
			if !ok {
				continue
			}

			select {
			case r.frames <- frame:
			case <-r.done:
				return
			}
		}

		if err != nil {
			r.errs <- deverrors.Transport(r.name, "read", err)
			return
		}
	}
}

// NextFrame blocks until the next complete frame arrives, the link fails or
// ctx is cancelled.
func (r *SBUSReceiver) NextFrame(ctx context.Context) (Frame, error) {
	select {
	case frame := <-r.frames:
		return frame, nil

	case err := <-r.errs:
		// keep the error for any later caller
		r.errs <- err
		return Frame{}, err

	case <-r.done:
		return Frame{}, deverrors.Transport(r.name, "read", io.ErrClosedPipe)

	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}

func (r *SBUSReceiver) Close() error {
	var err error
	r.once.Do(func() {
		close(r.done)
		err = r.port.Close()
	})
	return err
}
