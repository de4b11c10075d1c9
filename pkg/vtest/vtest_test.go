package vtest

import (
	"reflect"
	"testing"

	"github.com/vango-dev/vbind"
	"github.com/vango-dev/vbind/pkg/ast"
	"github.com/vango-dev/vbind/pkg/binding"
	"github.com/vango-dev/vbind/pkg/reactive"
)

func TestNewScope(t *testing.T) {
	parent := ScopeWith(map[string]any{"title": "outer"})
	scope := NewScope().
		With("n", 2).
		WithOverride("$index", 1).
		WithOverride("$index", 3).
		WithParent(parent).
		Build()

	if scope.OverrideContext.Parent != parent.OverrideContext {
		t.Errorf("parent override context not linked")
	}
	if got := scope.OverrideContext.Values.Keys(); !reflect.DeepEqual(got, []string{"$index"}) {
		t.Errorf("override keys = %v", got)
	}

	cases := []struct {
		expr ast.Expr
		want any
	}{
		{ast.Scope("n"), float64(2)},
		{ast.Scope("$index"), float64(3)},
		{&ast.AccessScope{Name: "title", Ancestor: 1}, "outer"},
	}
	for _, tc := range cases {
		got, err := binding.Evaluate(reactive.None, scope, binding.NewRegistry(), tc.expr)
		if err != nil {
			t.Errorf("%s: %v", tc.expr, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%s = %#v, want %#v", tc.expr, got, tc.want)
		}
	}
}

func TestHarness_StartAndSet(t *testing.T) {
	h := NewApp(t, WithContext("first", "Ada"))
	label := vbind.NewObject()
	view := h.App.NewView("greeting")
	view.Add(h.App.NewBinding(ast.Scope("first"), label, "text", vbind.ToView))
	h.Start(view)

	ExpectValue(t, label, "text", "Ada")
	if !view.IsBound() {
		t.Fatalf("view not bound after Start")
	}

	h.Recorder.Reset()
	h.Set(h.Context, "first", "Grace")
	ExpectValue(t, label, "text", "Grace")
	if h.Recorder.Flushes() == 0 || h.Recorder.Trackers() == 0 {
		t.Errorf("flushes = %d, trackers = %d", h.Recorder.Flushes(), h.Recorder.Trackers())
	}
	if len(h.Recorder.Errors()) != 0 {
		t.Errorf("errors = %v", h.Recorder.Errors())
	}
}

func TestHarness_RecordsPhases(t *testing.T) {
	h := NewApp(t)
	h.Start(h.App.NewView("empty"))

	phases := h.Recorder.Phases()
	want := []reactive.Phase{reactive.PhaseBound, reactive.PhaseMount, reactive.PhaseAttached}
	for _, p := range want {
		found := false
		for _, got := range phases {
			found = found || got == p
		}
		if !found {
			t.Errorf("phase %s not recorded in %v", p, phases)
		}
	}
}

func TestExpectEval(t *testing.T) {
	h := NewApp(t, WithContext("n", 21))
	ExpectEval(t, h.App, &ast.Binary{Operation: "*", Left: ast.Scope("n"), Right: ast.Literal(2)}, 42)
	ExpectEval(t, h.App, ast.Scope("missing"), reactive.Undefined)

	_, err := h.App.Eval(&ast.ValueConverter{Expression: ast.Scope("n"), Name: "nope"}, nil)
	ExpectError(t, err, binding.ErrUnresolvedConverter)
}

func TestWithMonitorAndConfig(t *testing.T) {
	extra := &Recorder{}
	var reported error
	h := NewApp(t,
		WithMonitor(extra),
		WithConfig(func(c *vbind.Config) {
			c.OnError = func(err error) { reported = err }
		}),
	)
	h.Start(h.App.NewView("v"))
	if len(extra.Phases()) == 0 {
		t.Errorf("extra monitor saw no phases")
	}
	if reported != nil {
		t.Errorf("reported = %v", reported)
	}
}

func TestEqual(t *testing.T) {
	obj := reactive.ObjectFrom(map[string]any{"n": 3})
	if !equal(obj.Get("n"), 3) {
		t.Errorf("int want did not match stored float64")
	}
	if equal(reactive.Undefined, nil) || !equal(reactive.Undefined, reactive.Undefined) {
		t.Errorf("undefined comparison wrong")
	}
}
