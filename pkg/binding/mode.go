package binding

import "fmt"

// Mode selects the direction values flow between source and target.
type Mode uint8

const (
	// OneTime copies the source to the target once, at bind.
	OneTime Mode = 1
	// ToView keeps the target in sync with the source.
	ToView Mode = 2
	// FromView writes target changes back to the source.
	FromView Mode = 4
	// TwoWay combines ToView and FromView.
	TwoWay = ToView | FromView
)

// Valid reports whether m is one of the four defined modes.
func (m Mode) Valid() bool {
	switch m {
	case OneTime, ToView, FromView, TwoWay:
		return true
	}
	return false
}

func (m Mode) String() string {
	switch m {
	case OneTime:
		return "oneTime"
	case ToView:
		return "toView"
	case FromView:
		return "fromView"
	case TwoWay:
		return "twoWay"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// ParseMode parses a mode name as printed by String.
func ParseMode(s string) (Mode, error) {
	for _, m := range []Mode{OneTime, ToView, FromView, TwoWay} {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidBindingMode, s)
}

func (m Mode) updatesTarget() bool  { return m == OneTime || m&ToView != 0 }
func (m Mode) observesSource() bool { return m&ToView != 0 }
func (m Mode) observesTarget() bool { return m&FromView != 0 }
