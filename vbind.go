// Package vbind is the composition root of the vbind binding runtime.
//
// An App owns one event loop, one change set, one lifecycle scheduler, the
// resource registry and the signaler. Everything a binding needs is created
// through it:
//
//	app := vbind.New(vbind.Config{})
//	model := reactive.ObjectFrom(map[string]any{"first": "Ada", "last": "King"})
//	view := app.NewView("greeting")
//	view.Add(app.NewBinding(expr, label, "text", vbind.ToView))
//	app.Mount(view, vbind.NewScope(model))
//	if err := app.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	go app.Run(ctx)
//
// Expressions are ast.Expr trees produced by an external parser; ast.Decode
// reads them from JSON.
package vbind

import (
	"github.com/vango-dev/vbind/pkg/binding"
	"github.com/vango-dev/vbind/pkg/reactive"
)

// =============================================================================
// Binding types (pkg/binding exposed as vbind.*)
// =============================================================================

// Scope is the binding context and override context an expression is
// evaluated against.
type Scope = binding.Scope

// Mode selects the direction values flow.
type Mode = binding.Mode

// Binding modes.
const (
	OneTime  = binding.OneTime
	ToView   = binding.ToView
	FromView = binding.FromView
	TwoWay   = binding.TwoWay
)

// Converter adapts functions to a value converter.
type Converter = binding.Converter

// View groups bindings under one lifecycle.
type View = binding.View

// ViewHooks are the lifecycle callbacks of a View.
type ViewHooks = binding.ViewHooks

// NewScope creates a root scope for bindingContext.
func NewScope(bindingContext any) *Scope { return binding.NewScope(bindingContext) }

// ChildScope creates a scope whose `$parent` is parent.
func ChildScope(parent *Scope, bindingContext any) *Scope {
	return binding.ChildScope(parent, bindingContext)
}

// =============================================================================
// Values (pkg/reactive exposed as vbind.*)
// =============================================================================

// Object is an observable property bag.
type Object = reactive.Object

// Array is an observable array.
type Array = reactive.Array

// Flags describe where a change originated.
type Flags = reactive.Flags

// Undefined is the undefined value.
var Undefined = reactive.Undefined

// NewObject creates an empty observable object.
func NewObject() *Object { return reactive.NewObject() }

// ObjectFrom creates an observable object from a map.
func ObjectFrom(m map[string]any) *Object { return reactive.ObjectFrom(m) }

// NewArray creates an observable array.
func NewArray(items ...any) *Array { return reactive.NewArray(items...) }
