// Package journal keeps a persistent record of arming, direction and fault
// events in a storm database.
package journal

import (
	"log"
	"time"

	"github.com/asdine/storm/v3"

	"github.com/CodedInternet/beebot/onboard"
)

const BUCKET = "journal"

// Entry is a single recorded event.
type Entry struct {
	ID       int       `storm:"id,increment" json:"id"`
	Time     time.Time `storm:"index" json:"time"`
	Kind     string    `storm:"index" json:"kind"`
	Armed    bool      `json:"armed"`
	Reverse  bool      `json:"reverse"`
	Failsafe bool      `json:"failsafe"`
	Detail   string    `json:"detail,omitempty"`
}

type Journal struct {
	node storm.Node
}

func New(db *storm.DB) (*Journal, error) {
	node := db.From(BUCKET)
	if err := node.Init(&Entry{}); err != nil {
		return nil, err
	}
	return &Journal{node: node}, nil
}

func (j *Journal) Record(e *Entry) error {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	return j.node.Save(e)
}

// Notify records a loop notification. Failures are logged rather than
// returned so a full disk never stalls the control loop.
func (j *Journal) Notify(n onboard.Notification) {
	e := &Entry{
		Time:     n.Time,
		Kind:     n.Event.String(),
		Armed:    n.State.Armed,
		Reverse:  n.State.Reverse,
		Failsafe: n.State.Failsafe,
	}
	if n.Err != nil {
		e.Detail = n.Err.Error()
	}

	if err := j.Record(e); err != nil {
		log.Printf("journal: unable to record %s: %v", e.Kind, err)
	}
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(limit int) (entries []Entry, err error) {
	err = j.node.All(&entries, storm.Limit(limit), storm.Reverse())
	if err == storm.ErrNotFound {
		return []Entry{}, nil
	}
	if entries == nil {
		entries = []Entry{}
	}
	return
}

// Kind returns up to limit entries of one kind, newest first.
func (j *Journal) Kind(kind string, limit int) (entries []Entry, err error) {
	err = j.node.Find("Kind", kind, &entries, storm.Limit(limit), storm.Reverse())
	if err == storm.ErrNotFound {
		return []Entry{}, nil
	}
	return
}
