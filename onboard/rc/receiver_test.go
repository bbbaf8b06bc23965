package rc

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	deverrors "github.com/CodedInternet/beebot/onboard/errors"
)

func TestSBUSReceiver(t *testing.T) {
	Convey("Given a receiver on a pipe", t, func() {
		pr, pw := io.Pipe()
		r := NewSBUSReceiver("pipe", pr)
		defer r.Close()

		Convey("frames written to the port are delivered in order", func() {
			first := testFrame()
			second := testFrame()
			second.Channels[0] = SBUSMax

			go func() {
				pw.Write(EncodeSBUS(first))
				pw.Write(EncodeSBUS(second))
			}()

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			f, err := r.NextFrame(ctx)
			So(err, ShouldBeNil)
			So(f.Channels, ShouldResemble, first.Channels)

			f, err = r.NextFrame(ctx)
			So(err, ShouldBeNil)
			So(f.Channels[0], ShouldEqual, SBUSMax)
		})

		Convey("waiting is cancellable", func() {
			ctx, cancel := context.WithCancel(context.Background())
			go func() {
				time.Sleep(10 * time.Millisecond)
				cancel()
			}()

			_, err := r.NextFrame(ctx)
			So(err, ShouldEqual, context.Canceled)
		})

		Convey("a link failure is a transport error", func() {
			pw.CloseWithError(errors.New("cable pulled"))

			_, err := r.NextFrame(context.Background())
			var terr *deverrors.TransportError
			So(errors.As(err, &terr), ShouldBeTrue)
			So(terr.Op, ShouldEqual, "read")

			Convey("and keeps being reported", func() {
				_, err = r.NextFrame(context.Background())
				So(errors.As(err, &terr), ShouldBeTrue)
			})
		})
	})
}
