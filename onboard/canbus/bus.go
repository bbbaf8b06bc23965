package canbus

import (
	"errors"
	"sync"
)

var ErrClosed = errors.New("can bus is closed")

// Bus is implemented by the SocketCAN bus and by test doubles.
type Bus interface {
	SendMsg(f Frame) error
	AddListener(id uint32, rx chan Frame)
	RemoveListener(id uint32)
	Close() error
}

// listeners routes received frames to the channel registered for their id.
type listeners struct {
	lock sync.Mutex
	rx   map[uint32]chan Frame
}

func (l *listeners) add(id uint32, rx chan Frame) {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.rx == nil {
		l.rx = make(map[uint32]chan Frame)
	}
	l.rx[id] = rx
}

func (l *listeners) remove(id uint32) {
	l.lock.Lock()
	defer l.lock.Unlock()

	delete(l.rx, id)
}

// route never blocks; a listener that is not ready misses the frame.
func (l *listeners) route(f Frame) bool {
	l.lock.Lock()
	rx, ok := l.rx[f.ID]
	l.lock.Unlock()

	if !ok {
		return false
	}

	select {
	case rx <- f:
		return true
	default:
		return false
	}
}
