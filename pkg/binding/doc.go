// Package binding evaluates expression trees against a scope and keeps
// targets in sync with the values they observe.
//
// Four passes run over an [ast.Expr]:
//
//   - [Evaluate] computes a value. It has no side effects beyond calls the
//     expression itself makes.
//   - Connect subscribes a binding to every property the evaluation actually
//     read, following short-circuits and the branch a conditional took.
//   - Bind resolves the binding behaviors in the tree through the locator
//     and applies each at most once per binding.
//   - Unbind mirrors Bind and detaches value-converter signals.
//
// A [Binding] owns the subscriptions of its last connect pass. When any of
// them fires it joins the change set; the flush re-evaluates, updates the
// target, and rebuilds the subscriptions from scratch.
//
//	locator := binding.NewRegistry()
//	observers := reactive.NewObserverLocator(changes)
//	b := binding.NewBinding(expr, target, "text", binding.ToView, observers, locator)
//	if err := b.Bind(reactive.FromBind, binding.NewScope(vm)); err != nil {
//		return err
//	}
//
// # Errors
//
// Resolution and call failures are returned synchronously from the pass that
// hit them and match the sentinel errors of this package with errors.Is.
// Assigning to an expression that is not an [ast.AssignTarget] is a no-op.
package binding
