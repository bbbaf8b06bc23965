package rc

import (
	"errors"
	"time"
)

const (
	SBUSHeader    = 0x0F
	SBUSFooter    = 0x00
	SBUSFrameSize = 25

	sbusFlagCh17      = 1 << 0
	sbusFlagCh18      = 1 << 1
	sbusFlagFrameLost = 1 << 2
	sbusFlagFailsafe  = 1 << 3

	channelBits = 11
	channelMask = 1<<channelBits - 1
)

var (
	ErrShortFrame = errors.New("sbus frame is shorter than 25 bytes")
	ErrBadHeader  = errors.New("sbus frame does not start with 0x0F")
	ErrBadFooter  = errors.New("sbus frame has an unknown footer")
)

// validFooter accepts plain SBUS and the rotating SBUS2 footers (0x04, 0x14, 0x24, 0x34).
func validFooter(b byte) bool {
	return b == SBUSFooter || b&0x0F == 0x04
}

// DecodeSBUS unpacks a single 25 byte SBUS frame.
func DecodeSBUS(buf []byte) (frame Frame, err error) {
	if len(buf) < SBUSFrameSize {
		return frame, ErrShortFrame
	}
	if buf[0] != SBUSHeader {
		return frame, ErrBadHeader
	}
	if !validFooter(buf[SBUSFrameSize-1]) {
		return frame, ErrBadFooter
	}

	// 16 channels of 11 bits, least significant bit first
	payload := buf[1:23]
	var acc uint32
	var bits uint
	var idx int
	for n := 0; n < NumChannels; n++ {
		for bits < channelBits {
			acc |= uint32(payload[idx]) << bits
			idx++
			bits += 8
		}
		frame.Channels[n] = uint16(acc & channelMask)
		acc >>= channelBits
		bits -= channelBits
	}

	flags := buf[23]
	frame.Digital[0] = flags&sbusFlagCh17 != 0
	frame.Digital[1] = flags&sbusFlagCh18 != 0
	frame.FrameLost = flags&sbusFlagFrameLost != 0
	frame.Failsafe = flags&sbusFlagFailsafe != 0

	return frame, nil
}

// EncodeSBUS packs a frame back into its wire format. Channel values are
// truncated to 11 bits.
func EncodeSBUS(frame Frame) []byte {
	buf := make([]byte, SBUSFrameSize)
	buf[0] = SBUSHeader

	var acc uint32
	var bits uint
	idx := 1
	for n := 0; n < NumChannels; n++ {
		acc |= uint32(frame.Channels[n]&channelMask) << bits
		bits += channelBits
		for bits >= 8 {
			buf[idx] = byte(acc)
			idx++
			acc >>= 8
			bits -= 8
		}
	}

	var flags byte
	if frame.Digital[0] {
		flags |= sbusFlagCh17
	}
	if frame.Digital[1] {
		flags |= sbusFlagCh18
	}
	if frame.FrameLost {
		flags |= sbusFlagFrameLost
	}
	if frame.Failsafe {
		flags |= sbusFlagFailsafe
	}
	buf[23] = flags
	buf[24] = SBUSFooter

	return buf
}

type scanState int

const (
	waitingForHeader scanState = iota
	readingFrame
)

// Scanner frames a raw SBUS byte stream. It resynchronises on the header byte
// whenever a candidate frame fails to decode.
type Scanner struct {
	state scanState
	buf   [SBUSFrameSize]byte
	n     int
	now   func() time.Time
}

func NewScanner() *Scanner {
	return &Scanner{now: time.Now}
}

// Feed consumes a single byte and reports a frame once one is complete.
func (s *Scanner) Feed(b byte) (Frame, bool) {
	switch s.state {
	case waitingForHeader:
		if b == SBUSHeader {
			s.buf[0] = b
			s.n = 1
			s.state = readingFrame
		}

	case readingFrame:
		s.buf[s.n] = b
		s.n++
		if s.n < SBUSFrameSize {
			break
		}

		frame, err := DecodeSBUS(s.buf[:])
		if err == nil {
			s.reset()
			frame.Time = s.now()
			return frame, true
		}

		s.resync()
	}

	return Frame{}, false
}

func (s *Scanner) reset() {
	s.state = waitingForHeader
	s.n = 0
}

// resync drops the rejected header and restarts from the next header byte
// already buffered, if any.
func (s *Scanner) resync() {
	for i := 1; i < SBUSFrameSize; i++ {
		if s.buf[i] == SBUSHeader {
			s.n = copy(s.buf[:], s.buf[i:SBUSFrameSize])
			return
		}
	}
	s.reset()
}
