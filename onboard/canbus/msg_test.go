package canbus

import (
	"encoding/binary"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestFrame_toByteArray(t *testing.T) {
	Convey("Standard frame format encodes correctly", t, func() {
		f := &Frame{
			ID: 0x123,
		}
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint32(buf, 0x1234)
		f.Data = buf[:2]
		raw, err := f.toByteArray()
		So(err, ShouldBeNil)

		Convey("ID gets set correctly", func() {
			So(raw[0:4], ShouldResemble, []byte{0x23, 0x01, 0x00, 0x00})
		})

		Convey("Data length is correctly set", func() {
			So(raw[4], ShouldEqual, 2)
		})

		Convey("Data is copied over", func() {
			So(raw[8:], ShouldResemble, []byte{0x34, 0x12, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00})
		})

		Convey("data length error is handled correctly", func() {
			f.Data = make([]byte, 8)
			_, err = f.toByteArray()
			So(err, ShouldBeNil)

			f.Data = make([]byte, 9)
			_, err = f.toByteArray()
			So(err, ShouldEqual, ERR_DATA_TOO_LONG)
		})
	})

	Convey("remote requests and extended ids set their flags", t, func() {
		raw, _ := (&Frame{ID: 0x20, RTR: true}).toByteArray()
		So(binary.LittleEndian.Uint32(raw[0:4]), ShouldEqual, 0x20|RTRFlag)

		raw, _ = (&Frame{ID: 0x12345}).toByteArray()
		So(binary.LittleEndian.Uint32(raw[0:4]), ShouldEqual, 0x12345|EFFFlag)
	})
}

func TestFrameFromByteArray(t *testing.T) {
	Convey("an encoded frame decodes back", t, func() {
		in := &Frame{ID: 0x02D, Data: []byte{1, 2, 3, 4, 5, 6, 7, 8}}
		raw, _ := in.toByteArray()

		out, err := frameFromByteArray(raw)
		So(err, ShouldBeNil)
		So(out.ID, ShouldEqual, 0x02D)
		So(out.RTR, ShouldBeFalse)
		So(out.Data, ShouldResemble, in.Data)
	})

	Convey("error frames are dropped", t, func() {
		raw := make([]byte, rawFrameSize)
		binary.LittleEndian.PutUint32(raw[0:4], ErrFlag|0x01)

		out, err := frameFromByteArray(raw)
		So(err, ShouldBeNil)
		So(out, ShouldBeNil)
	})

	Convey("short reads are rejected", t, func() {
		_, err := frameFromByteArray(make([]byte, 8))
		So(err, ShouldEqual, ERR_SHORT_FRAME)
	})
}

func TestListeners(t *testing.T) {
	Convey("frames are routed by id without blocking", t, func() {
		var l listeners
		rx := make(chan Frame, 1)
		l.add(0x21, rx)

		So(l.route(Frame{ID: 0x21}), ShouldBeTrue)
		So(l.route(Frame{ID: 0x21}), ShouldBeFalse) // buffer full
		So(l.route(Frame{ID: 0x22}), ShouldBeFalse)
		So((<-rx).ID, ShouldEqual, 0x21)

		l.remove(0x21)
		So(l.route(Frame{ID: 0x21}), ShouldBeFalse)
	})
}
