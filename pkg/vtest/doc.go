// Package vtest provides testing helpers for vbind views and bindings.
//
// It reduces the boilerplate of building scopes, starting an App with a
// quiet logger and asserting on bound values.
//
// # Quick Start
//
//	func TestGreeting(t *testing.T) {
//	    h := vtest.NewApp(t, vtest.WithContext("first", "Ada"))
//	    label := vbind.NewObject()
//	    view := h.App.NewView("greeting")
//	    view.Add(h.App.NewBinding(ast.Scope("first"), label, "text", vbind.ToView))
//	    h.Start(view)
//	    vtest.ExpectValue(t, label, "text", "Ada")
//	}
//
// # Fluent Scope Builder
//
// The scope builder chains binding context properties, override values
// and a parent scope:
//
//	scope := vtest.NewScope().
//	    With("items", vbind.NewArray(1, 2)).
//	    WithOverride("$index", 0).
//	    WithParent(parent).
//	    Build()
//
// # Recording Monitor
//
// Recorder is a reactive.Monitor that keeps every change-set and phase
// drain, so tests can assert on what the runtime did:
//
//	h.Set(model, "first", "Grace")
//	if h.Recorder.Flushes() != 1 { ... }
package vtest
