package binding

import (
	"errors"
	"fmt"
)

// ErrUnresolvedConverter is returned when an expression applies a value
// converter the locator does not know.
var ErrUnresolvedConverter = errors.New("vbind: unresolved value converter")

// ErrUnresolvedBehavior is returned when an expression applies a binding
// behavior the locator does not know.
var ErrUnresolvedBehavior = errors.New("vbind: unresolved binding behavior")

// ErrDuplicateBehaviorApplication is returned when the same behavior is
// applied twice to one binding.
var ErrDuplicateBehaviorApplication = errors.New("vbind: binding behavior already applied")

// ErrNotAFunction is returned when a call target is not callable. Calls on
// null or undefined only fail when the MustEvaluate flag is set.
var ErrNotAFunction = errors.New("vbind: not a function")

// ErrInvalidBindingMode is returned when a binding is bound with a mode it
// does not support.
var ErrInvalidBindingMode = errors.New("vbind: invalid binding mode")

// ErrUnresolvedSignaler is returned when a converter declares signals but
// the locator has no signaler.
var ErrUnresolvedSignaler = errors.New("vbind: no signaler registered")

// ErrNotBound is returned by operations that need a bound binding.
var ErrNotBound = errors.New("vbind: binding is not bound")

// ErrUnsupportedOperation is returned for operations a binding kind does not
// allow, such as updating the source of a let binding, or for an unknown
// operator.
var ErrUnsupportedOperation = errors.New("vbind: unsupported operation")

// ErrMissingScope is returned when a binding that declares a property is
// bound to a nil scope or one without an override context.
var ErrMissingScope = errors.New("vbind: scope has no override context")

func unresolvedConverter(name string) error {
	return fmt.Errorf("%w: %q", ErrUnresolvedConverter, name)
}

func unresolvedBehavior(name string) error {
	return fmt.Errorf("%w: %q", ErrUnresolvedBehavior, name)
}

func notAFunction(what string) error {
	return fmt.Errorf("%w: %s", ErrNotAFunction, what)
}
