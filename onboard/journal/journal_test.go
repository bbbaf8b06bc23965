package journal

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/asdine/storm/v3"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/CodedInternet/beebot/onboard"
)

func openTestDb(t *testing.T) (*storm.DB, func()) {
	dir, err := ioutil.TempDir("", "journal")
	if err != nil {
		t.Fatal(err)
	}
	db, err := storm.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	return db, func() {
		db.Close()
		os.RemoveAll(dir)
	}
}

func TestJournal(t *testing.T) {
	db, cleanup := openTestDb(t)
	defer cleanup()

	Convey("Given an empty journal", t, func() {
		db.Drop(BUCKET)
		j, err := New(db)
		So(err, ShouldBeNil)

		Convey("recent is empty", func() {
			entries, err := j.Recent(10)
			So(err, ShouldBeNil)
			So(entries, ShouldBeEmpty)
		})

		Convey("notifications are recorded newest first", func() {
			start := time.Now()
			j.Notify(onboard.Notification{Time: start, Event: onboard.EventArmed, State: onboard.ControlState{Armed: true}})
			j.Notify(onboard.Notification{Time: start.Add(time.Second), Event: onboard.EventReverse, State: onboard.ControlState{Armed: true, Reverse: true}})
			j.Notify(onboard.Notification{Event: onboard.EventFault, Err: errors.New("link down")})

			entries, err := j.Recent(10)
			So(err, ShouldBeNil)
			So(entries, ShouldHaveLength, 3)
			So(entries[0].Kind, ShouldEqual, "fault")
			So(entries[0].Detail, ShouldEqual, "link down")
			So(entries[0].Time.IsZero(), ShouldBeFalse)
			So(entries[1].Kind, ShouldEqual, "reverse")
			So(entries[1].Reverse, ShouldBeTrue)
			So(entries[2].Kind, ShouldEqual, "armed")

			Convey("and the limit is honoured", func() {
				entries, err = j.Recent(1)
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 1)
				So(entries[0].Kind, ShouldEqual, "fault")
			})

			Convey("and can be filtered by kind", func() {
				entries, err = j.Kind("armed", 10)
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 1)
				So(entries[0].Armed, ShouldBeTrue)

				entries, err = j.Kind("recovered", 10)
				So(err, ShouldBeNil)
				So(entries, ShouldBeEmpty)
			})
		})
	})
}
