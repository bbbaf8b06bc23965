//go:build linux

package canbus

import (
	"net"
	"sync"

	"golang.org/x/sys/unix"
)

type CANBus struct {
	fd        int
	lock      sync.Mutex
	listeners listeners
	closed    chan struct{}
	once      sync.Once
}

// NewCANBus binds a raw CAN socket on the named interface, e.g. "can0".
func NewCANBus(ifname string) (bus *CANBus, err error) {
	iface, err := net.InterfaceByName(ifname)
	if err != nil {
		return
	}

	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW, unix.CAN_RAW)
	if err != nil {
		return
	}

	// we don't want our own frames echoed back
	if err = unix.SetsockoptInt(fd, unix.SOL_CAN_RAW, unix.CAN_RAW_RECV_OWN_MSGS, 0); err != nil {
		unix.Close(fd)
		return nil, err
	}

	if err = unix.Bind(fd, &unix.SockaddrCAN{Ifindex: iface.Index}); err != nil {
		unix.Close(fd)
		return nil, err
	}

	bus = &CANBus{
		fd:     fd,
		closed: make(chan struct{}),
	}

	go bus.reader()

	return
}

func (c *CANBus) AddListener(id uint32, rx chan Frame) {
	c.listeners.add(id, rx)
}

func (c *CANBus) RemoveListener(id uint32) {
	c.listeners.remove(id)
}

func (c *CANBus) SendMsg(f Frame) error {
	raw, err := f.toByteArray()
	if err != nil {
		return err
	}

	select {
	case <-c.closed:
		return ErrClosed
	default:
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	_, err = unix.Write(c.fd, raw)
	return err
}

func (c *CANBus) Close() (err error) {
	c.once.Do(func() {
		close(c.closed)
		err = unix.Close(c.fd)
	})
	return
}

func (c *CANBus) reader() {
	raw := make([]byte, rawFrameSize)
	for {
		n, err := unix.Read(c.fd, raw)
		if err != nil {
			select {
			case <-c.closed:
				return
			default:
			}
			if err == unix.EINTR || err == unix.EAGAIN {
				continue
			}
			return
		}

		f, err := frameFromByteArray(raw[:n])
		if err != nil || f == nil {
			continue
		}

		c.listeners.route(*f)
	}
}
