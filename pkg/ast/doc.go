// Package ast defines the expression tree consumed by the binding engine.
//
// Trees are produced by an external parser (or decoded from JSON with
// [Decode]) and are never mutated afterwards. Every node implements [Expr]:
// it reports its [Kind] and double-dispatches to the matching method of a
// [Visitor], so the evaluate, connect, bind and unbind passes in package
// binding never switch on node types themselves.
//
// # Categories
//
// A node's syntactic category is derived from its kind:
//
//	ast.IsAssignable(e)   // AccessScope, AccessMember, AccessKeyed
//	ast.IsLeftHandSide(e) // primaries, calls, member access, tagged templates
//	ast.IsResource(e)     // ValueConverter, BindingBehavior
//
// Nodes a value can be written through additionally implement
// [AssignTarget]. Writing to any other node is a silent no-op.
package ast
