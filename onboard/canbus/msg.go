package canbus

import (
	"encoding/binary"
	"errors"
)

const (
	// flags and masks of the linux can_id field
	EFFFlag = 0x80000000
	RTRFlag = 0x40000000
	ErrFlag = 0x20000000
	SFFMask = 0x000007FF
	EFFMask = 0x1FFFFFFF

	MaxDataLength = 8
	rawFrameSize  = 16 // sizeof(struct can_frame)
)

// errors
var (
	ERR_DATA_TOO_LONG = errors.New("data length exceeds 8 bytes")
	ERR_SHORT_FRAME   = errors.New("raw frame shorter than 16 bytes")
)

// Frame is a single classic CAN frame.
type Frame struct {
	ID   uint32 // arbitration id, 11 bit unless Extended
	RTR  bool   // remote transmission request
	Data []byte // up to eight bytes. DLC is taken from len(Data).

	Extended bool
}

func (f *Frame) toByteArray() (raw []byte, err error) {
	if len(f.Data) > MaxDataLength {
		return nil, ERR_DATA_TOO_LONG
	}

	raw = make([]byte, rawFrameSize)

	id := f.ID & SFFMask
	if f.Extended || f.ID != id {
		id = f.ID&EFFMask | EFFFlag
	}
	if f.RTR {
		id |= RTRFlag
	}

	binary.LittleEndian.PutUint32(raw[0:4], id)
	raw[4] = byte(len(f.Data))
	copy(raw[8:], f.Data)

	return
}

// frameFromByteArray decodes a struct can_frame. Error frames are dropped.
func frameFromByteArray(raw []byte) (*Frame, error) {
	if len(raw) < rawFrameSize {
		return nil, ERR_SHORT_FRAME
	}

	id := binary.LittleEndian.Uint32(raw[0:4])
	if id&ErrFlag != 0 {
		return nil, nil
	}

	f := new(Frame)
	if id&EFFFlag != 0 {
		f.ID = id & EFFMask
		f.Extended = true
	} else {
		f.ID = id & SFFMask
	}
	f.RTR = id&RTRFlag != 0

	dlc := int(raw[4])
	if dlc > MaxDataLength {
		return nil, ERR_DATA_TOO_LONG
	}
	f.Data = make([]byte, dlc)
	copy(f.Data, raw[8:8+dlc])

	return f, nil
}
