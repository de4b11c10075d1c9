package reactive

import "strings"

// Flags describe where a change or lifecycle call originated. They travel
// through evaluation, observer notification and the scheduler unchanged
// unless a stage adds its own origin bit.
type Flags uint32

// None is the empty flag set.
const None Flags = 0

const (
	// MustEvaluate makes calls on null or undefined targets fail instead of
	// yielding undefined.
	MustEvaluate Flags = 1 << iota
	FromBind
	FromUnbind
	FromFlushChanges
	FromStartTask
	FromStopTask
	FromSignal
	FromEvent
	UpdateTargetInstance
	UpdateSourceExpression
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{MustEvaluate, "mustEvaluate"},
	{FromBind, "fromBind"},
	{FromUnbind, "fromUnbind"},
	{FromFlushChanges, "fromFlushChanges"},
	{FromStartTask, "fromStartTask"},
	{FromStopTask, "fromStopTask"},
	{FromSignal, "fromSignal"},
	{FromEvent, "fromEvent"},
	{UpdateTargetInstance, "updateTargetInstance"},
	{UpdateSourceExpression, "updateSourceExpression"},
}

// Has reports whether every bit of o is set in f.
func (f Flags) Has(o Flags) bool {
	return f&o == o
}

// String returns the set flag names joined by "|".
func (f Flags) String() string {
	if f == None {
		return "none"
	}
	var parts []string
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, "|")
}
