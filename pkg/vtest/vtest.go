package vtest

import (
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/vango-dev/vbind"
	"github.com/vango-dev/vbind/pkg/ast"
	"github.com/vango-dev/vbind/pkg/binding"
	"github.com/vango-dev/vbind/pkg/reactive"
)

// QuietLogger returns a logger that discards everything.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// =============================================================================
// Scope Builder
// =============================================================================

// ScopeBuilder allows fluent construction of test scopes.
type ScopeBuilder struct {
	context  *reactive.Object
	override map[string]any
	keys     []string
	parent   *binding.Scope
}

// NewScope creates a scope builder over an empty binding context.
//
// Example:
//
//	scope := vtest.NewScope().With("first", "Ada").Build()
func NewScope() *ScopeBuilder {
	return &ScopeBuilder{
		context:  reactive.NewObject(),
		override: make(map[string]any),
	}
}

// With sets a property of the binding context.
func (b *ScopeBuilder) With(key string, val any) *ScopeBuilder {
	b.context.Set(key, val)
	return b
}

// WithOverride sets a property of the override context, such as `$event`.
func (b *ScopeBuilder) WithOverride(key string, val any) *ScopeBuilder {
	if _, ok := b.override[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.override[key] = val
	return b
}

// WithParent makes the built scope a child of parent.
func (b *ScopeBuilder) WithParent(parent *binding.Scope) *ScopeBuilder {
	b.parent = parent
	return b
}

// Context returns the binding context being built.
func (b *ScopeBuilder) Context() *reactive.Object {
	return b.context
}

// Build returns the final scope for use in tests.
func (b *ScopeBuilder) Build() *binding.Scope {
	s := binding.ChildScope(b.parent, b.context)
	for _, key := range b.keys {
		s.OverrideContext.Values.Set(key, b.override[key])
	}
	return s
}

// ScopeWith is a shorthand for a root scope over the key/value pairs of m.
//
// Example:
//
//	scope := vtest.ScopeWith(map[string]any{"n": 2})
func ScopeWith(m map[string]any) *binding.Scope {
	return binding.NewScope(reactive.ObjectFrom(m))
}

// =============================================================================
// Recorder
// =============================================================================

// Recorder is a reactive.Monitor that records drains. It is safe for use
// from the loop goroutine and the test goroutine at once.
type Recorder struct {
	mu       sync.Mutex
	flushes  int
	trackers int
	errs     []error
	phases   []reactive.Phase
}

var _ reactive.Monitor = (*Recorder)(nil)

// ChangeSetFlushed implements reactive.Monitor.
func (r *Recorder) ChangeSetFlushed(_ time.Time, trackers int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushes++
	r.trackers += trackers
	if err != nil {
		r.errs = append(r.errs, err)
	}
}

// PhaseDrained implements reactive.Monitor.
func (r *Recorder) PhaseDrained(phase reactive.Phase, _ time.Time, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phases = append(r.phases, phase)
}

// Flushes returns how many change-set drains flushed at least one tracker.
func (r *Recorder) Flushes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushes
}

// Trackers returns the total number of trackers flushed.
func (r *Recorder) Trackers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.trackers
}

// Errors returns the drain errors seen so far.
func (r *Recorder) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

// Phases returns the drained phases in order.
func (r *Recorder) Phases() []reactive.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]reactive.Phase(nil), r.phases...)
}

// Reset forgets everything recorded.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushes, r.trackers, r.errs, r.phases = 0, 0, nil, nil
}

// =============================================================================
// App Harness
// =============================================================================

// Harness is an App wired for tests: a quiet logger, a Recorder among its
// monitors, and Stop registered as a test cleanup once started.
type Harness struct {
	t        testing.TB
	App      *vbind.App
	Recorder *Recorder
	Context  *reactive.Object
}

// Option configures a Harness.
type Option func(*vbind.Config)

// WithContext sets a property of the root binding context.
func WithContext(key string, val any) Option {
	return func(c *vbind.Config) {
		c.BindingContext.(*reactive.Object).Set(key, val)
	}
}

// WithMonitor adds a monitor next to the Recorder.
func WithMonitor(m reactive.Monitor) Option {
	return func(c *vbind.Config) {
		c.Monitors = append(c.Monitors, m)
	}
}

// WithConfig edits the App configuration directly.
func WithConfig(fn func(*vbind.Config)) Option {
	return func(c *vbind.Config) { fn(c) }
}

// NewApp creates a test harness.
func NewApp(t testing.TB, opts ...Option) *Harness {
	t.Helper()
	rec := &Recorder{}
	root := reactive.NewObject()
	cfg := vbind.Config{
		BindingContext: root,
		Monitors:       []reactive.Monitor{rec},
		Logger:         QuietLogger(),
		OnError: func(err error) {
			t.Errorf("vbind: unexpected async error: %v", err)
		},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Harness{
		t:        t,
		App:      vbind.New(cfg),
		Recorder: rec,
		Context:  root,
	}
}

// Start mounts views on the root scope and starts the App. Stop runs when
// the test finishes.
func (h *Harness) Start(views ...*binding.View) {
	h.t.Helper()
	for _, v := range views {
		if err := h.App.Mount(v, nil); err != nil {
			h.t.Fatalf("mount %q: %v", v.Name, err)
		}
	}
	if err := h.App.Start(); err != nil {
		h.t.Fatalf("start: %v", err)
	}
	h.t.Cleanup(func() {
		if err := h.App.Stop(); err != nil {
			h.t.Errorf("stop: %v", err)
		}
	})
}

// Set assigns obj[key] and flushes the resulting changes.
func (h *Harness) Set(obj *reactive.Object, key string, val any) {
	h.t.Helper()
	obj.Set(key, val)
	if err := h.App.Flush(); err != nil {
		h.t.Fatalf("flush after setting %q: %v", key, err)
	}
}

// =============================================================================
// Assertions
// =============================================================================

// ExpectValue asserts that obj[key] equals want. Integer wants match the
// float64 the runtime stores.
//
// Example:
//
//	vtest.ExpectValue(t, label, "text", "Hello Ada")
func ExpectValue(t testing.TB, obj *reactive.Object, key string, want any) {
	t.Helper()
	if got := obj.Get(key); !equal(got, want) {
		t.Errorf("%s = %#v, want %#v", key, got, want)
	}
}

// ExpectEval asserts that expr evaluates to want on the App's root scope.
//
// Example:
//
//	vtest.ExpectEval(t, h.App, ast.Scope("n"), float64(2))
func ExpectEval(t testing.TB, app *vbind.App, expr ast.Expr, want any) {
	t.Helper()
	got, err := app.Eval(expr, nil)
	if err != nil {
		t.Errorf("eval %s: %v", expr, err)
		return
	}
	if !equal(got, want) {
		t.Errorf("eval %s = %#v, want %#v", expr, got, want)
	}
}

// ExpectError asserts that err matches target with errors.Is.
func ExpectError(t testing.TB, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Errorf("error = %v, want %v", err, target)
	}
}

func equal(got, want any) bool {
	if reactive.IsUndefined(want) {
		return reactive.IsUndefined(got)
	}
	return reflect.DeepEqual(got, reactive.Normalize(want))
}
