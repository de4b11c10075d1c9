package binding

import "github.com/vango-dev/vbind/pkg/reactive"

// OverrideContext holds the properties layered over a binding context, such
// as `$event` or let-binding values, and links to the enclosing scope's
// override context.
type OverrideContext struct {
	Values         *reactive.Object
	BindingContext any
	Parent         *OverrideContext
}

// Scope is the pair an expression is evaluated against.
type Scope struct {
	BindingContext  any
	OverrideContext *OverrideContext
}

// NewScope creates a root scope for bindingContext.
func NewScope(bindingContext any) *Scope {
	return &Scope{
		BindingContext: bindingContext,
		OverrideContext: &OverrideContext{
			Values:         reactive.NewObject(),
			BindingContext: bindingContext,
		},
	}
}

// ChildScope creates a scope for bindingContext whose `$parent` is parent.
func ChildScope(parent *Scope, bindingContext any) *Scope {
	s := NewScope(bindingContext)
	if parent != nil {
		s.OverrideContext.Parent = parent.OverrideContext
	}
	return s
}

// ContextFor returns the object name resolves on. With ancestor > 0 it
// walks that many override contexts up and returns their values if they
// hold name, the binding context otherwise, and Undefined if the chain is
// too short. With ancestor 0 it returns the nearest context in the chain
// that has name, falling back to the scope's own binding context.
func ContextFor(scope *Scope, name string, ancestor int) any {
	if scope == nil {
		return reactive.Undefined
	}
	oc := scope.OverrideContext
	if ancestor > 0 {
		for ancestor > 0 && oc != nil {
			ancestor--
			oc = oc.Parent
		}
		if ancestor > 0 || oc == nil {
			return reactive.Undefined
		}
		if oc.has(name) {
			return oc.Values
		}
		return oc.BindingContext
	}

	for oc != nil && !oc.has(name) && !reactive.HasProperty(oc.BindingContext, name) {
		oc = oc.Parent
	}
	if oc != nil {
		if oc.has(name) {
			return oc.Values
		}
		return oc.BindingContext
	}
	if scope.BindingContext != nil {
		return scope.BindingContext
	}
	if scope.OverrideContext != nil {
		return scope.OverrideContext.Values
	}
	return reactive.Undefined
}

func (oc *OverrideContext) has(name string) bool {
	return oc.Values != nil && oc.Values.Has(name)
}
