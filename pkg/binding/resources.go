package binding

import (
	"sort"
	"strings"
	"sync"

	"github.com/vango-dev/vbind/pkg/reactive"
)

// Locator resolves resources by key.
type Locator interface {
	Get(key string) (any, bool)
}

const (
	converterPrefix = "value-converter:"
	behaviorPrefix  = "binding-behavior:"

	// SignalerKey is the key a *Signaler is registered under.
	SignalerKey = "signaler"
)

// ConverterKey returns the locator key of the value converter name.
func ConverterKey(name string) string { return converterPrefix + name }

// BehaviorKey returns the locator key of the binding behavior name.
func BehaviorKey(name string) string { return behaviorPrefix + name }

// ToViewConverter is implemented by converters that transform source values
// on their way to the target. A converter without it passes values through.
type ToViewConverter interface {
	ToView(value any, args ...any) (any, error)
}

// FromViewConverter is implemented by converters that transform target
// values on their way back to the source.
type FromViewConverter interface {
	FromView(value any, args ...any) (any, error)
}

// Signals is implemented by converters whose output depends on something
// other than their inputs. A binding using the converter re-evaluates when
// any of the named signals is dispatched.
type Signals interface {
	Signals() []string
}

// Behavior augments the binding it is applied to. Bind receives the
// evaluated behavior arguments. Unbind must undo whatever Bind changed.
type Behavior interface {
	Bind(flags reactive.Flags, scope *Scope, host Host, args ...any) error
	Unbind(flags reactive.Flags, scope *Scope, host Host) error
}

// Host is the binding a connect, bind or unbind pass runs for.
type Host interface {
	reactive.PropertySubscriber

	// Locator resolves converters, behaviors and the signaler.
	Locator() Locator

	// ObserveProperty subscribes the host to obj[key].
	ObserveProperty(obj any, key any)

	// ObserveCollection subscribes the host to mutations of an array.
	ObserveCollection(obj any)

	// AppliedBehavior returns the behavior applied under key.
	AppliedBehavior(key string) (Behavior, bool)

	// SetAppliedBehavior records b under key. A nil b clears the slot.
	SetAppliedBehavior(key string, b Behavior)
}

// Registry is a map-backed Locator. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	resources map[string]any
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{resources: make(map[string]any)}
}

// Get implements Locator.
func (r *Registry) Get(key string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.resources[key]
	return v, ok
}

// Register stores v under key, replacing any previous entry.
func (r *Registry) Register(key string, v any) {
	r.mu.Lock()
	r.resources[key] = v
	r.mu.Unlock()
}

// RegisterConverter registers a value converter under name.
func (r *Registry) RegisterConverter(name string, c any) {
	r.Register(ConverterKey(name), c)
}

// RegisterBehavior registers a binding behavior under name.
func (r *Registry) RegisterBehavior(name string, b Behavior) {
	r.Register(BehaviorKey(name), b)
}

// RegisterSignaler makes s available to converters that declare signals.
func (r *Registry) RegisterSignaler(s *Signaler) {
	r.Register(SignalerKey, s)
}

// Converters returns the registered converter names, sorted.
func (r *Registry) Converters() []string { return r.names(converterPrefix) }

// Behaviors returns the registered behavior names, sorted.
func (r *Registry) Behaviors() []string { return r.names(behaviorPrefix) }

func (r *Registry) names(prefix string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for k := range r.resources {
		if name, ok := strings.CutPrefix(k, prefix); ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Converter adapts plain functions to the converter interfaces. A nil To or
// From passes values through unchanged.
type Converter struct {
	To          func(value any, args ...any) (any, error)
	From        func(value any, args ...any) (any, error)
	SignalNames []string
}

// ToView implements ToViewConverter.
func (c *Converter) ToView(value any, args ...any) (any, error) {
	if c.To == nil {
		return value, nil
	}
	return c.To(value, args...)
}

// FromView implements FromViewConverter.
func (c *Converter) FromView(value any, args ...any) (any, error) {
	if c.From == nil {
		return value, nil
	}
	return c.From(value, args...)
}

// Signals implements Signals.
func (c *Converter) Signals() []string { return c.SignalNames }

func lookupConverter(locator Locator, name string) (any, error) {
	if locator != nil {
		if c, ok := locator.Get(ConverterKey(name)); ok && c != nil {
			return c, nil
		}
	}
	return nil, unresolvedConverter(name)
}

func lookupBehavior(locator Locator, name string) (Behavior, error) {
	if locator != nil {
		if v, ok := locator.Get(BehaviorKey(name)); ok {
			if b, ok := v.(Behavior); ok {
				return b, nil
			}
		}
	}
	return nil, unresolvedBehavior(name)
}

func lookupSignaler(locator Locator) (*Signaler, error) {
	if locator != nil {
		if v, ok := locator.Get(SignalerKey); ok {
			if s, ok := v.(*Signaler); ok {
				return s, nil
			}
		}
	}
	return nil, ErrUnresolvedSignaler
}
