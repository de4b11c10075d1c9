package binding

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/vango-dev/vbind/pkg/ast"
	"github.com/vango-dev/vbind/pkg/reactive"
)

type testEnv struct {
	loop      *reactive.Loop
	changes   *reactive.ChangeSet
	observers *reactive.ObserverLocator
	registry  *Registry
	signaler  *Signaler
	errs      []error
}

func newTestEnv() *testEnv {
	env := &testEnv{
		loop:     reactive.NewLoop(reactive.WithLoopLogger(quietLogger())),
		registry: NewRegistry(),
		signaler: NewSignaler(),
	}
	env.changes = reactive.NewChangeSet(env.loop,
		reactive.WithErrorHandler(func(err error) { env.errs = append(env.errs, err) }),
		reactive.WithChangeSetLogger(quietLogger()))
	env.observers = reactive.NewObserverLocator(env.changes)
	env.registry.RegisterSignaler(env.signaler)
	RegisterStandardBehaviors(env.registry)
	return env
}

func (env *testEnv) binding(expr ast.Expr, target any, property string, mode Mode) *Binding {
	return NewBinding(expr, target, property, mode, env.observers, env.registry, WithLogger(quietLogger()))
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBinding_ToViewBatchesUpdates(t *testing.T) {
	env := newTestEnv()
	a := reactive.ObjectFrom(map[string]any{"b": 1})
	source := reactive.ObjectFrom(map[string]any{"a": a})
	target := reactive.NewObject()

	b := env.binding(ast.Member(ast.Scope("a"), "b"), target, "value", ToView)
	if err := b.Bind(reactive.None, NewScope(source)); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if target.Get("value") != float64(1) {
		t.Fatalf("value = %v after bind, want 1", target.Get("value"))
	}

	a.Set("b", 5)
	a.Set("b", 6)
	if target.Get("value") != float64(1) {
		t.Errorf("value = %v before flush, want 1", target.Get("value"))
	}
	if env.changes.Size() != 1 {
		t.Errorf("change set size = %d, want 1", env.changes.Size())
	}
	env.loop.Drain()
	if target.Get("value") != float64(6) {
		t.Errorf("value = %v after flush, want 6", target.Get("value"))
	}
}

func TestBinding_ReconnectsAfterReplacement(t *testing.T) {
	env := newTestEnv()
	old := reactive.ObjectFrom(map[string]any{"b": 1})
	source := reactive.ObjectFrom(map[string]any{"a": old})
	target := reactive.NewObject()

	b := env.binding(ast.Member(ast.Scope("a"), "b"), target, "value", ToView)
	if err := b.Bind(reactive.None, NewScope(source)); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	fresh := reactive.ObjectFrom(map[string]any{"b": 2})
	source.Set("a", fresh)
	env.loop.Drain()
	if target.Get("value") != float64(2) {
		t.Fatalf("value = %v, want 2", target.Get("value"))
	}

	old.Set("b", 100)
	env.loop.Drain()
	if target.Get("value") != float64(2) {
		t.Errorf("value = %v after changing the replaced object, want 2", target.Get("value"))
	}
	if n := old.PropertyObserver("b").SubscriberCount(); n != 0 {
		t.Errorf("replaced object still has %d subscribers", n)
	}

	fresh.Set("b", 3)
	env.loop.Drain()
	if target.Get("value") != float64(3) {
		t.Errorf("value = %v, want 3", target.Get("value"))
	}
}

func TestBinding_OneTimeDoesNotObserve(t *testing.T) {
	env := newTestEnv()
	source := reactive.ObjectFrom(map[string]any{"v": "first"})
	target := reactive.NewObject()

	b := env.binding(ast.Scope("v"), target, "value", OneTime)
	if err := b.Bind(reactive.None, NewScope(source)); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if b.ObservedCount() != 0 {
		t.Errorf("observed %d properties, want 0", b.ObservedCount())
	}
	source.Set("v", "second")
	env.loop.Drain()
	if target.Get("value") != "first" {
		t.Errorf("value = %v, want first", target.Get("value"))
	}
}

func TestBinding_ConnectObservesOnlyReachedOperands(t *testing.T) {
	tests := []struct {
		name string
		expr ast.Expr
		want int
	}{
		{"and short-circuits", bin("&&", ast.Scope("no"), ast.Scope("x")), 1},
		{"and continues", bin("&&", ast.Scope("yes"), ast.Scope("x")), 2},
		{"or short-circuits", bin("||", ast.Scope("yes"), ast.Scope("x")), 1},
		{"conditional yes branch", &ast.Conditional{Condition: ast.Scope("yes"), Yes: ast.Scope("x"), No: ast.Scope("y")}, 2},
		{"member of missing object", ast.Member(ast.Scope("missing"), "deep"), 1},
		{"literal", ast.Literal(1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			source := reactive.ObjectFrom(map[string]any{"yes": true, "no": false, "x": 1, "y": 2})
			b := env.binding(tt.expr, reactive.NewObject(), "value", ToView)
			if err := b.Bind(reactive.None, NewScope(source)); err != nil {
				t.Fatalf("Bind: %v", err)
			}
			if got := b.ObservedCount(); got != tt.want {
				t.Errorf("%s observes %d, want %d", tt.expr, got, tt.want)
			}
		})
	}
}

func TestBinding_ObservesArrayMutations(t *testing.T) {
	env := newTestEnv()
	items := reactive.NewArray("a")
	source := reactive.ObjectFrom(map[string]any{"items": items})
	target := reactive.NewObject()

	length := env.binding(ast.Member(ast.Scope("items"), "length"), target, "length", ToView)
	first := env.binding(&ast.AccessKeyed{Object: ast.Scope("items"), Key: ast.Literal(0)}, target, "first", ToView)
	scope := NewScope(source)
	for _, b := range []*Binding{length, first} {
		if err := b.Bind(reactive.None, scope); err != nil {
			t.Fatalf("Bind: %v", err)
		}
	}

	items.Unshift("z")
	env.loop.Drain()
	if target.Get("length") != float64(2) {
		t.Errorf("length = %v, want 2", target.Get("length"))
	}
	if target.Get("first") != "z" {
		t.Errorf("first = %v, want z", target.Get("first"))
	}
}

func TestBinding_FromViewWritesSource(t *testing.T) {
	env := newTestEnv()
	source := reactive.ObjectFrom(map[string]any{"name": "a"})
	target := reactive.NewObject()

	b := env.binding(ast.Scope("name"), target, "value", FromView)
	if err := b.Bind(reactive.None, NewScope(source)); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if target.Has("value") {
		t.Errorf("from-view binding wrote the target at bind")
	}

	target.Set("value", "typed")
	if source.Get("name") != "typed" {
		t.Errorf("name = %v, want typed", source.Get("name"))
	}

	source.Set("name", "ignored")
	env.loop.Drain()
	if target.Get("value") != "typed" {
		t.Errorf("value = %v, want typed", target.Get("value"))
	}
}

func TestBinding_TwoWay(t *testing.T) {
	env := newTestEnv()
	source := reactive.ObjectFrom(map[string]any{"name": "a"})
	target := reactive.NewObject()

	b := env.binding(ast.Scope("name"), target, "value", TwoWay)
	if err := b.Bind(reactive.None, NewScope(source)); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if target.Get("value") != "a" {
		t.Fatalf("value = %v, want a", target.Get("value"))
	}

	target.Set("value", "b")
	if source.Get("name") != "b" {
		t.Errorf("name = %v, want b", source.Get("name"))
	}
	env.loop.Drain()

	source.Set("name", "c")
	env.loop.Drain()
	if target.Get("value") != "c" {
		t.Errorf("value = %v, want c", target.Get("value"))
	}
	if source.Get("name") != "c" {
		t.Errorf("name = %v, want c", source.Get("name"))
	}
}

func TestBinding_SynchronousWithoutChangeSet(t *testing.T) {
	source := reactive.ObjectFrom(map[string]any{"v": 1})
	target := reactive.NewObject()
	b := NewBinding(ast.Scope("v"), target, "value", ToView, reactive.NewObserverLocator(nil), nil, WithLogger(quietLogger()))
	if err := b.Bind(reactive.None, NewScope(source)); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	source.Set("v", 2)
	if target.Get("value") != float64(2) {
		t.Errorf("value = %v, want 2", target.Get("value"))
	}
}

type recordingAccessor struct {
	values []any
	flags  []reactive.Flags
}

func (a *recordingAccessor) GetValue() any {
	if len(a.values) == 0 {
		return reactive.Undefined
	}
	return a.values[len(a.values)-1]
}

func (a *recordingAccessor) SetValue(v any, flags reactive.Flags) {
	a.values = append(a.values, v)
	a.flags = append(a.flags, flags)
}

func TestBinding_AccessorTarget(t *testing.T) {
	env := newTestEnv()
	source := reactive.ObjectFrom(map[string]any{"v": 1})
	acc := &recordingAccessor{}

	b := env.binding(ast.Scope("v"), acc, "", ToView)
	if err := b.Bind(reactive.None, NewScope(source)); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	source.Set("v", 2)
	env.loop.Drain()

	if len(acc.values) != 2 || acc.values[1] != float64(2) {
		t.Fatalf("accessor got %v", acc.values)
	}
	if !acc.flags[0].Has(reactive.FromBind | reactive.UpdateTargetInstance) {
		t.Errorf("bind write flags = %s", acc.flags[0])
	}
	if !acc.flags[1].Has(reactive.FromFlushChanges) {
		t.Errorf("flush write flags = %s", acc.flags[1])
	}
}

func TestBinding_UnbindReleasesEverything(t *testing.T) {
	env := newTestEnv()
	env.registry.RegisterConverter("clock", &Converter{SignalNames: []string{"tick"}})
	source := reactive.ObjectFrom(map[string]any{"v": 1})
	target := reactive.NewObject()

	expr := &ast.ValueConverter{Expression: ast.Scope("v"), Name: "clock"}
	b := env.binding(expr, target, "value", TwoWay)
	if err := b.Bind(reactive.None, NewScope(source)); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if env.signaler.ListenerCount("tick") != 1 {
		t.Fatalf("tick listeners = %d, want 1", env.signaler.ListenerCount("tick"))
	}

	if err := b.Unbind(reactive.None); err != nil {
		t.Fatalf("Unbind: %v", err)
	}
	if b.IsBound() || b.Scope() != nil {
		t.Errorf("binding still bound after Unbind")
	}
	if b.ObservedCount() != 0 {
		t.Errorf("observed %d after unbind", b.ObservedCount())
	}
	if n := source.PropertyObserver("v").SubscriberCount(); n != 0 {
		t.Errorf("source has %d subscribers", n)
	}
	if n := target.PropertyObserver("value").SubscriberCount(); n != 0 {
		t.Errorf("target has %d subscribers", n)
	}
	if env.signaler.ListenerCount("tick") != 0 {
		t.Errorf("tick listeners = %d, want 0", env.signaler.ListenerCount("tick"))
	}
	if err := b.Unbind(reactive.None); err != nil {
		t.Errorf("second Unbind: %v", err)
	}
}

func TestBinding_RebindSameScopeIsNoop(t *testing.T) {
	env := newTestEnv()
	writes := 0
	env.registry.RegisterConverter("count", &Converter{To: func(v any, _ ...any) (any, error) {
		writes++
		return v, nil
	}})
	scope := NewScope(reactive.ObjectFrom(map[string]any{"v": 1}))
	b := env.binding(&ast.ValueConverter{Expression: ast.Scope("v"), Name: "count"}, reactive.NewObject(), "value", ToView)

	for i := 0; i < 3; i++ {
		if err := b.Bind(reactive.None, scope); err != nil {
			t.Fatalf("Bind: %v", err)
		}
	}
	if writes != 1 {
		t.Errorf("converter ran %d times, want 1", writes)
	}

	other := NewScope(reactive.ObjectFrom(map[string]any{"v": 2}))
	if err := b.Bind(reactive.None, other); err != nil {
		t.Fatalf("Bind other: %v", err)
	}
	if writes != 2 || b.Scope() != other {
		t.Errorf("rebinding to another scope: writes = %d", writes)
	}
}

func TestBinding_SignalForcesReevaluation(t *testing.T) {
	env := newTestEnv()
	now := 1
	env.registry.RegisterConverter("clock", &Converter{
		To:          func(any, ...any) (any, error) { return now, nil },
		SignalNames: []string{"tick"},
	})
	target := reactive.NewObject()
	b := env.binding(&ast.ValueConverter{Expression: ast.Literal(0), Name: "clock"}, target, "value", ToView)
	if err := b.Bind(reactive.None, NewScope(reactive.NewObject())); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	now = 2
	if n := env.signaler.DispatchSignal("tick", reactive.None); n != 1 {
		t.Fatalf("signal reached %d listeners, want 1", n)
	}
	env.loop.Drain()
	if target.Get("value") != float64(2) {
		t.Errorf("value = %v, want 2", target.Get("value"))
	}
}

func TestBinding_SignalWithoutSignaler(t *testing.T) {
	env := newTestEnv()
	registry := NewRegistry()
	registry.RegisterConverter("clock", &Converter{SignalNames: []string{"tick"}})
	b := NewBinding(&ast.ValueConverter{Expression: ast.Literal(0), Name: "clock"}, reactive.NewObject(), "value", ToView, env.observers, registry, WithLogger(quietLogger()))

	if err := b.Bind(reactive.None, NewScope(reactive.NewObject())); !errors.Is(err, ErrUnresolvedSignaler) {
		t.Errorf("err = %v, want ErrUnresolvedSignaler", err)
	}
}

func TestBinding_DuplicateBehavior(t *testing.T) {
	env := newTestEnv()
	inner := &ast.BindingBehavior{Expression: ast.Scope("v"), Name: "debounce"}
	outer := &ast.BindingBehavior{Expression: inner, Name: "debounce"}
	b := env.binding(outer, reactive.NewObject(), "value", ToView)

	err := b.Bind(reactive.None, NewScope(reactive.NewObject()))
	if !errors.Is(err, ErrDuplicateBehaviorApplication) {
		t.Fatalf("err = %v, want ErrDuplicateBehaviorApplication", err)
	}
	if !strings.Contains(err.Error(), "debounce") {
		t.Errorf("error %q does not name the behavior", err)
	}
	if !b.IsBound() {
		t.Errorf("binding not bound after duplicate behavior")
	}
	if err := b.Unbind(reactive.None); err != nil {
		t.Errorf("Unbind: %v", err)
	}
	if _, ok := b.AppliedBehavior(BehaviorKey("debounce")); ok {
		t.Errorf("debounce still applied after unbind")
	}
}

func TestBinding_UnresolvedBehavior(t *testing.T) {
	env := newTestEnv()
	b := env.binding(&ast.BindingBehavior{Expression: ast.Scope("v"), Name: "nope"}, reactive.NewObject(), "value", ToView)

	err := b.Bind(reactive.None, NewScope(reactive.NewObject()))
	if !errors.Is(err, ErrUnresolvedBehavior) || !strings.Contains(err.Error(), "nope") {
		t.Errorf("err = %v, want ErrUnresolvedBehavior naming nope", err)
	}
}

func TestBinding_InvalidMode(t *testing.T) {
	env := newTestEnv()
	b := env.binding(ast.Scope("v"), reactive.NewObject(), "value", Mode(3))

	if err := b.Bind(reactive.None, NewScope(reactive.NewObject())); !errors.Is(err, ErrInvalidBindingMode) {
		t.Errorf("err = %v, want ErrInvalidBindingMode", err)
	}
}

func TestBinding_ModeBehavior(t *testing.T) {
	env := newTestEnv()
	source := reactive.ObjectFrom(map[string]any{"v": 1})
	target := reactive.NewObject()
	b := env.binding(&ast.BindingBehavior{Expression: ast.Scope("v"), Name: "oneTime"}, target, "value", ToView)

	if err := b.Bind(reactive.None, NewScope(source)); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if b.Mode() != OneTime || b.ObservedCount() != 0 {
		t.Errorf("mode = %s, observed = %d; want oneTime, 0", b.Mode(), b.ObservedCount())
	}
	if err := b.Unbind(reactive.None); err != nil {
		t.Fatalf("Unbind: %v", err)
	}
	if b.Mode() != ToView {
		t.Errorf("mode after unbind = %s, want toView", b.Mode())
	}
}

func TestBinding_SignalBehavior(t *testing.T) {
	env := newTestEnv()
	b := env.binding(&ast.BindingBehavior{
		Expression: ast.Scope("v"),
		Name:       "signal",
		Args:       []ast.Expr{ast.Literal("refresh"), ast.Literal("reset")},
	}, reactive.NewObject(), "value", ToView)

	if err := b.Bind(reactive.None, NewScope(reactive.NewObject())); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if env.signaler.ListenerCount("refresh") != 1 || env.signaler.ListenerCount("reset") != 1 {
		t.Errorf("signal listeners not registered")
	}
	if err := b.Unbind(reactive.None); err != nil {
		t.Fatalf("Unbind: %v", err)
	}
	if env.signaler.ListenerCount("refresh") != 0 || env.signaler.ListenerCount("reset") != 0 {
		t.Errorf("signal listeners not removed")
	}
}

func TestBinding_FlushErrorReachesChangeSet(t *testing.T) {
	env := newTestEnv()
	fail := false
	env.registry.RegisterConverter("flaky", &Converter{To: func(v any, _ ...any) (any, error) {
		if fail {
			return nil, errors.New("flaky")
		}
		return v, nil
	}})
	source := reactive.ObjectFrom(map[string]any{"v": 1})
	b := env.binding(&ast.ValueConverter{Expression: ast.Scope("v"), Name: "flaky"}, reactive.NewObject(), "value", ToView)
	if err := b.Bind(reactive.None, NewScope(source)); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	fail = true
	source.Set("v", 2)
	env.loop.Drain()
	if len(env.errs) != 1 || !strings.Contains(env.errs[0].Error(), "flaky") {
		t.Errorf("errors = %v", env.errs)
	}
}

func TestBinding_UpdateSourceRequiresBound(t *testing.T) {
	env := newTestEnv()
	b := env.binding(ast.Scope("v"), reactive.NewObject(), "value", TwoWay)
	if err := b.UpdateSource(1, reactive.None); !errors.Is(err, ErrNotBound) {
		t.Errorf("err = %v, want ErrNotBound", err)
	}
}
