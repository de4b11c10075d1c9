package binding

import (
	"errors"
	"testing"

	"github.com/vango-dev/vbind/pkg/ast"
	"github.com/vango-dev/vbind/pkg/reactive"
)

func fullName() ast.Expr {
	return bin("+", bin("+", ast.Scope("first"), ast.Literal(" ")), ast.Scope("last"))
}

func TestLetBinding_WritesOverrideContext(t *testing.T) {
	env := newTestEnv()
	bc := reactive.ObjectFrom(map[string]any{"first": "Ada", "last": "Lovelace"})
	scope := NewScope(bc)

	l := NewLetBinding(fullName(), "full", false, env.observers, env.registry, WithLogger(quietLogger()))
	if err := l.Bind(reactive.None, scope); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if got := scope.OverrideContext.Values.Get("full"); got != "Ada Lovelace" {
		t.Fatalf("full = %v, want Ada Lovelace", got)
	}
	if bc.Has("full") {
		t.Errorf("let binding wrote the binding context")
	}

	bc.Set("first", "Grace")
	env.loop.Drain()
	if got := scope.OverrideContext.Values.Get("full"); got != "Grace Lovelace" {
		t.Errorf("full = %v, want Grace Lovelace", got)
	}

	// the declared name is visible to other expressions
	got, err := Evaluate(reactive.None, scope, nil, ast.Scope("full"))
	if err != nil || got != "Grace Lovelace" {
		t.Errorf("full via scope = %v, %v", got, err)
	}
}

func TestLetBinding_ToViewModel(t *testing.T) {
	env := newTestEnv()
	bc := reactive.ObjectFrom(map[string]any{"first": "Ada", "last": "Byron"})

	l := NewLetBinding(fullName(), "full", true, env.observers, env.registry, WithLogger(quietLogger()))
	if err := l.Bind(reactive.None, NewScope(bc)); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if bc.Get("full") != "Ada Byron" {
		t.Errorf("full = %v, want Ada Byron", bc.Get("full"))
	}
	if l.Target() != bc {
		t.Errorf("target is not the binding context")
	}
}

func TestLetBinding_UnbindStopsTracking(t *testing.T) {
	env := newTestEnv()
	bc := reactive.ObjectFrom(map[string]any{"first": "a", "last": "b"})
	scope := NewScope(bc)

	l := NewLetBinding(fullName(), "full", false, env.observers, env.registry, WithLogger(quietLogger()))
	if err := l.Bind(reactive.None, scope); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if err := l.Unbind(reactive.None); err != nil {
		t.Fatalf("Unbind: %v", err)
	}
	bc.Set("first", "z")
	env.loop.Drain()
	if got := scope.OverrideContext.Values.Get("full"); got != "a b" {
		t.Errorf("full = %v after unbind, want a b", got)
	}
	if l.ObservedCount() != 0 {
		t.Errorf("observed %d after unbind", l.ObservedCount())
	}
}

func TestLetBinding_OnlyToView(t *testing.T) {
	env := newTestEnv()
	expr := &ast.BindingBehavior{Expression: ast.Scope("v"), Name: "twoWay"}
	l := NewLetBinding(expr, "x", false, env.observers, env.registry, WithLogger(quietLogger()))

	err := l.Bind(reactive.None, NewScope(reactive.NewObject()))
	if !errors.Is(err, ErrInvalidBindingMode) {
		t.Fatalf("err = %v, want ErrInvalidBindingMode", err)
	}
	if err := l.Unbind(reactive.None); err != nil {
		t.Fatalf("Unbind: %v", err)
	}
	if l.Mode() != ToView {
		t.Errorf("mode after unbind = %s, want toView", l.Mode())
	}
}

func TestLetBinding_UnsupportedUpdates(t *testing.T) {
	env := newTestEnv()
	l := NewLetBinding(ast.Literal(1), "x", false, env.observers, env.registry)

	if err := l.UpdateTarget(1, reactive.None); !errors.Is(err, ErrUnsupportedOperation) {
		t.Errorf("UpdateTarget err = %v", err)
	}
	if err := l.UpdateSource(1, reactive.None); !errors.Is(err, ErrUnsupportedOperation) {
		t.Errorf("UpdateSource err = %v", err)
	}
}

func TestLetBinding_MissingOverrideContext(t *testing.T) {
	env := newTestEnv()
	l := NewLetBinding(ast.Literal(1), "x", false, env.observers, env.registry, WithLogger(quietLogger()))

	if err := l.Bind(reactive.None, nil); !errors.Is(err, ErrMissingScope) {
		t.Errorf("nil scope err = %v, want ErrMissingScope", err)
	}
	bare := &Scope{BindingContext: reactive.NewObject()}
	if err := l.Bind(reactive.None, bare); !errors.Is(err, ErrMissingScope) {
		t.Errorf("bare scope err = %v, want ErrMissingScope", err)
	}
	if l.IsBound() {
		t.Errorf("binding is bound after a failed bind")
	}

	// a to-view-model let only needs the binding context
	vm := NewLetBinding(ast.Literal(1), "x", true, env.observers, env.registry, WithLogger(quietLogger()))
	if err := vm.Bind(reactive.None, bare); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if got := bare.BindingContext.(*reactive.Object).Get("x"); got != float64(1) {
		t.Errorf("x = %v, want 1", got)
	}
}
