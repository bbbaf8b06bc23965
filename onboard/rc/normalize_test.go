package rc

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	deverrors "github.com/CodedInternet/beebot/onboard/errors"
)

func TestNormalizer(t *testing.T) {
	n := DefaultNormalizer()

	Convey("switch channels threshold correctly", t, func() {
		on, err := n.ToBool(SBUSMax)
		So(err, ShouldBeNil)
		So(on, ShouldBeTrue)

		on, _ = n.ToBool(SBUSMin)
		So(on, ShouldBeFalse)

		// middle position of a three way switch is off
		on, _ = n.ToBool(SBUSCenter)
		So(on, ShouldBeFalse)
	})

	Convey("throttle maps onto [0, 1]", t, func() {
		v, err := n.ToLinear(SBUSMin)
		So(err, ShouldBeNil)
		So(v, ShouldEqual, 0)

		v, _ = n.ToLinear(SBUSMax)
		So(v, ShouldEqual, 1)

		v, _ = n.ToLinear((SBUSMin + SBUSMax) / 2)
		So(v, ShouldAlmostEqual, 0.5, 0.001)

		Convey("and clamps readings inside the margin", func() {
			v, _ = n.ToLinear(SBUSMax + 50)
			So(v, ShouldEqual, 1)
		})
	})

	Convey("steering maps onto [-1, 1] around center", t, func() {
		v, err := n.ToDeflection(SBUSCenter)
		So(err, ShouldBeNil)
		So(v, ShouldEqual, 0)

		v, _ = n.ToDeflection(SBUSMax)
		So(v, ShouldEqual, 1)

		v, _ = n.ToDeflection(SBUSMin)
		So(v, ShouldEqual, -1)

		Convey("with a deadband around center", func() {
			v, _ = n.ToDeflection(SBUSCenter + 10)
			So(v, ShouldEqual, 0)

			v, _ = n.ToDeflection(SBUSCenter - 100)
			So(v, ShouldBeLessThan, 0)
		})
	})

	Convey("implausible readings are rejected", t, func() {
		_, err := n.ToBool(2047)
		So(err, ShouldHaveSameTypeAs, deverrors.InvalidChannelValue{})

		_, err = n.ToLinear(0)
		So(err, ShouldNotBeNil)

		_, err = n.ToDeflection(SBUSMin - DefaultMargin - 1)
		So(err, ShouldNotBeNil)
	})
}
