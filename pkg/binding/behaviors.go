package binding

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vango-dev/vbind/pkg/reactive"
)

// Moder is implemented by hosts whose mode a behavior can override.
type Moder interface {
	Mode() Mode
	SetMode(Mode)
}

// TargetInterceptor is implemented by hosts whose target writes a behavior
// can wrap.
type TargetInterceptor interface {
	InterceptTarget(wrap func(next UpdateFunc) UpdateFunc) (restore func())
}

// SourceInterceptor is implemented by hosts whose source writes, or event
// handling, a behavior can wrap.
type SourceInterceptor interface {
	InterceptSource(wrap func(next UpdateFunc) UpdateFunc) (restore func())
}

// ModeBehavior forces the mode of the binding it is applied to, restoring
// the previous mode on unbind.
type ModeBehavior struct {
	Mode Mode

	mu       sync.Mutex
	previous map[uint64]Mode
}

// NewModeBehavior returns a behavior forcing m.
func NewModeBehavior(m Mode) *ModeBehavior {
	return &ModeBehavior{Mode: m, previous: make(map[uint64]Mode)}
}

func (b *ModeBehavior) Bind(_ reactive.Flags, _ *Scope, host Host, _ ...any) error {
	m, ok := host.(Moder)
	if !ok {
		return fmt.Errorf("%w: %s behavior on a binding without a mode", ErrUnsupportedOperation, b.Mode)
	}
	b.mu.Lock()
	b.previous[host.ID()] = m.Mode()
	b.mu.Unlock()
	m.SetMode(b.Mode)
	return nil
}

func (b *ModeBehavior) Unbind(_ reactive.Flags, _ *Scope, host Host) error {
	b.mu.Lock()
	prev, ok := b.previous[host.ID()]
	delete(b.previous, host.ID())
	b.mu.Unlock()
	if m, isModer := host.(Moder); ok && isModer {
		m.SetMode(prev)
	}
	return nil
}

// SignalBehavior re-evaluates the binding whenever one of the signals named
// by its arguments is dispatched.
type SignalBehavior struct {
	mu    sync.Mutex
	names map[uint64][]string
}

// NewSignalBehavior creates a signal behavior.
func NewSignalBehavior() *SignalBehavior {
	return &SignalBehavior{names: make(map[uint64][]string)}
}

func (b *SignalBehavior) Bind(_ reactive.Flags, _ *Scope, host Host, args ...any) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: signal behavior needs at least one signal name", ErrUnsupportedOperation)
	}
	signaler, err := lookupSignaler(host.Locator())
	if err != nil {
		return err
	}
	names := make([]string, len(args))
	for i, a := range args {
		names[i] = reactive.ToString(a)
		signaler.AddSignalListener(names[i], host)
	}
	b.mu.Lock()
	b.names[host.ID()] = names
	b.mu.Unlock()
	return nil
}

func (b *SignalBehavior) Unbind(_ reactive.Flags, _ *Scope, host Host) error {
	b.mu.Lock()
	names := b.names[host.ID()]
	delete(b.names, host.ID())
	b.mu.Unlock()
	signaler, err := lookupSignaler(host.Locator())
	if err != nil {
		return nil
	}
	for _, name := range names {
		signaler.RemoveSignalListener(name, host)
	}
	return nil
}

// DebounceConfig configures a DebounceBehavior.
type DebounceConfig struct {
	// Delay is used when the behavior is applied without arguments.
	Delay time.Duration

	// AfterFunc schedules f after d and returns a function cancelling it.
	AfterFunc func(d time.Duration, f func()) (stop func() bool)

	// Dispatch runs a fired update on the goroutine that owns the
	// bindings. Nil runs it on the timer goroutine.
	Dispatch func(task func()) bool

	Logger *slog.Logger
}

// DebounceOption configures a DebounceBehavior.
type DebounceOption func(*DebounceConfig)

// WithDebounceDelay sets the default delay.
func WithDebounceDelay(d time.Duration) DebounceOption {
	return func(c *DebounceConfig) { c.Delay = d }
}

// WithDebounceTimer replaces time.AfterFunc.
func WithDebounceTimer(after func(d time.Duration, f func()) (stop func() bool)) DebounceOption {
	return func(c *DebounceConfig) { c.AfterFunc = after }
}

// WithDebounceDispatch sets where fired updates run.
func WithDebounceDispatch(dispatch func(task func()) bool) DebounceOption {
	return func(c *DebounceConfig) { c.Dispatch = dispatch }
}

// WithDebounceLogger sets the logger for errors of delayed updates.
func WithDebounceLogger(logger *slog.Logger) DebounceOption {
	return func(c *DebounceConfig) { c.Logger = logger }
}

func defaultDebounceConfig() DebounceConfig {
	return DebounceConfig{
		Delay: 200 * time.Millisecond,
		AfterFunc: func(d time.Duration, f func()) func() bool {
			return time.AfterFunc(d, f).Stop
		},
		Logger: slog.Default(),
	}
}

// DebounceBehavior delays updates until none has arrived for the delay
// given as its argument in milliseconds. It wraps source updates of
// from-view bindings and listeners, and target updates otherwise. Updates
// made while binding pass straight through.
type DebounceBehavior struct {
	config DebounceConfig

	mu      sync.Mutex
	applied map[uint64]*debounced
}

type debounced struct {
	restore func()
	stop    func() bool
}

// NewDebounceBehavior creates a debounce behavior.
func NewDebounceBehavior(opts ...DebounceOption) *DebounceBehavior {
	cfg := defaultDebounceConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &DebounceBehavior{config: cfg, applied: make(map[uint64]*debounced)}
}

func (b *DebounceBehavior) Bind(_ reactive.Flags, _ *Scope, host Host, args ...any) error {
	delay := b.config.Delay
	if len(args) > 0 && !reactive.IsNullish(args[0]) {
		delay = time.Duration(reactive.ToNumber(args[0]) * float64(time.Millisecond))
	}
	d := &debounced{}
	wrap := func(next UpdateFunc) UpdateFunc {
		return func(value any, flags reactive.Flags) error {
			if flags.Has(reactive.FromBind) {
				return next(value, flags)
			}
			b.mu.Lock()
			if d.stop != nil {
				d.stop()
			}
			d.stop = b.config.AfterFunc(delay, func() { b.fire(next, value, flags) })
			b.mu.Unlock()
			return nil
		}
	}

	m, hasMode := host.(Moder)
	switch h := host.(type) {
	case *Listener:
		d.restore = h.InterceptSource(wrap)
	case SourceInterceptor:
		if hasMode && m.Mode().observesTarget() {
			d.restore = h.InterceptSource(wrap)
			break
		}
		t, ok := host.(TargetInterceptor)
		if !ok {
			return fmt.Errorf("%w: debounce on a binding without a target", ErrUnsupportedOperation)
		}
		d.restore = t.InterceptTarget(wrap)
	default:
		return fmt.Errorf("%w: debounce on %T", ErrUnsupportedOperation, host)
	}

	b.mu.Lock()
	b.applied[host.ID()] = d
	b.mu.Unlock()
	return nil
}

func (b *DebounceBehavior) fire(next UpdateFunc, value any, flags reactive.Flags) {
	run := func() {
		if err := next(value, flags); err != nil {
			b.config.Logger.Error("debounced update failed", "error", err)
		}
	}
	if b.config.Dispatch == nil {
		run()
		return
	}
	if !b.config.Dispatch(run) {
		b.config.Logger.Error("debounced update dropped: dispatch queue full")
	}
}

func (b *DebounceBehavior) Unbind(_ reactive.Flags, _ *Scope, host Host) error {
	b.mu.Lock()
	d := b.applied[host.ID()]
	delete(b.applied, host.ID())
	if d != nil && d.stop != nil {
		d.stop()
	}
	b.mu.Unlock()
	if d != nil && d.restore != nil {
		d.restore()
	}
	return nil
}

// RegisterStandardBehaviors registers the mode behaviors under their mode
// names, "signal" and "debounce" in r.
func RegisterStandardBehaviors(r *Registry, debounce ...DebounceOption) {
	for _, m := range []Mode{OneTime, ToView, FromView, TwoWay} {
		r.RegisterBehavior(m.String(), NewModeBehavior(m))
	}
	r.RegisterBehavior("signal", NewSignalBehavior())
	r.RegisterBehavior("debounce", NewDebounceBehavior(debounce...))
}
