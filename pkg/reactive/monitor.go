package reactive

import "time"

// Monitor observes drains. Implementations must not mutate observed values.
type Monitor interface {
	// ChangeSetFlushed is called after a change set drain that flushed at
	// least one tracker.
	ChangeSetFlushed(start time.Time, trackers int, err error)

	// PhaseDrained is called after a lifecycle phase invoked at least one
	// item.
	PhaseDrained(phase Phase, start time.Time, items int)
}

// Monitors fans out to every monitor in order.
type Monitors []Monitor

// ChangeSetFlushed implements Monitor.
func (ms Monitors) ChangeSetFlushed(start time.Time, trackers int, err error) {
	for _, m := range ms {
		m.ChangeSetFlushed(start, trackers, err)
	}
}

// PhaseDrained implements Monitor.
func (ms Monitors) PhaseDrained(phase Phase, start time.Time, items int) {
	for _, m := range ms {
		m.PhaseDrained(phase, start, items)
	}
}

type nopMonitor struct{}

func (nopMonitor) ChangeSetFlushed(time.Time, int, error) {}
func (nopMonitor) PhaseDrained(Phase, time.Time, int)     {}
