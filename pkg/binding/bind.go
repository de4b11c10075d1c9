package binding

import (
	"fmt"

	"github.com/vango-dev/vbind/pkg/ast"
	"github.com/vango-dev/vbind/pkg/reactive"
)

// BindBehaviors resolves and applies every binding behavior in expr to
// host, innermost first. Applying a behavior host already carries fails
// with ErrDuplicateBehaviorApplication; behaviors applied before the
// failure stay applied.
func BindBehaviors(flags reactive.Flags, scope *Scope, host Host, expr ast.Expr) error {
	b := &binder{flags: flags, scope: scope, host: host}
	b.walker = walker{self: b}
	return walkResources(expr, b)
}

// UnbindBehaviors mirrors BindBehaviors, outermost first, and removes host
// from the signals of every value converter in expr.
func UnbindBehaviors(flags reactive.Flags, scope *Scope, host Host, expr ast.Expr) error {
	u := &unbinder{flags: flags, scope: scope, host: host}
	u.walker = walker{self: u}
	return walkResources(expr, u)
}

func walkResources(expr ast.Expr, v ast.Visitor) error {
	if expr == nil {
		return nil
	}
	_, err := expr.Accept(v)
	return err
}

// walker visits the children of every node through self, so an embedding
// visitor only implements the resource nodes.
type walker struct {
	self ast.Visitor
}

func (w walker) visit(e ast.Expr) error {
	if e == nil {
		return nil
	}
	_, err := e.Accept(w.self)
	return err
}

func (w walker) children(e ast.Expr) (any, error) {
	for _, c := range ast.Children(e) {
		if err := w.visit(c); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (w walker) VisitAccessThis(*ast.AccessThis) (any, error)   { return nil, nil }
func (w walker) VisitAccessScope(*ast.AccessScope) (any, error) { return nil, nil }
func (w walker) VisitAccessMember(e *ast.AccessMember) (any, error) {
	return w.children(e)
}
func (w walker) VisitAccessKeyed(e *ast.AccessKeyed) (any, error)     { return w.children(e) }
func (w walker) VisitCallScope(e *ast.CallScope) (any, error)         { return w.children(e) }
func (w walker) VisitCallMember(e *ast.CallMember) (any, error)       { return w.children(e) }
func (w walker) VisitCallFunction(e *ast.CallFunction) (any, error)   { return w.children(e) }
func (w walker) VisitBinary(e *ast.Binary) (any, error)               { return w.children(e) }
func (w walker) VisitUnary(e *ast.Unary) (any, error)                 { return w.children(e) }
func (w walker) VisitConditional(e *ast.Conditional) (any, error)     { return w.children(e) }
func (w walker) VisitAssign(*ast.Assign) (any, error)                 { return nil, nil }
func (w walker) VisitArrayLiteral(e *ast.ArrayLiteral) (any, error)   { return w.children(e) }
func (w walker) VisitObjectLiteral(e *ast.ObjectLiteral) (any, error) { return w.children(e) }
func (w walker) VisitTemplate(e *ast.Template) (any, error)           { return w.children(e) }
func (w walker) VisitHtmlLiteral(e *ast.HtmlLiteral) (any, error)     { return w.children(e) }
func (w walker) VisitInterpolation(e *ast.Interpolation) (any, error) { return w.children(e) }
func (w walker) VisitForOfStatement(e *ast.ForOfStatement) (any, error) {
	return w.children(e)
}
func (w walker) VisitPrimitiveLiteral(*ast.PrimitiveLiteral) (any, error) { return nil, nil }
func (w walker) VisitBindingIdentifier(*ast.BindingIdentifier) (any, error) {
	return nil, nil
}
func (w walker) VisitArrayBindingPattern(*ast.ArrayBindingPattern) (any, error) {
	return nil, nil
}
func (w walker) VisitObjectBindingPattern(*ast.ObjectBindingPattern) (any, error) {
	return nil, nil
}

func (w walker) VisitTaggedTemplate(e *ast.TaggedTemplate) (any, error) {
	for _, x := range e.Expressions {
		if err := w.visit(x); err != nil {
			return nil, err
		}
	}
	return nil, w.visit(e.Func)
}

type binder struct {
	walker
	flags reactive.Flags
	scope *Scope
	host  Host
}

func (b *binder) VisitBindingBehavior(e *ast.BindingBehavior) (any, error) {
	if err := b.walker.visit(e.Expression); err != nil {
		return nil, err
	}
	locator := b.host.Locator()
	behavior, err := lookupBehavior(locator, e.Name)
	if err != nil {
		return nil, err
	}
	key := BehaviorKey(e.Name)
	if _, applied := b.host.AppliedBehavior(key); applied {
		return nil, fmt.Errorf("%w: %q on %s", ErrDuplicateBehaviorApplication, e.Name, e.Expression)
	}
	b.host.SetAppliedBehavior(key, behavior)
	args, err := (&evaluator{flags: b.flags, scope: b.scope, locator: locator}).evalList(e.Args)
	if err != nil {
		return nil, err
	}
	if err := behavior.Bind(b.flags, b.scope, b.host, args...); err != nil {
		return nil, fmt.Errorf("binding behavior %q: %w", e.Name, err)
	}
	return nil, nil
}

func (b *binder) VisitValueConverter(e *ast.ValueConverter) (any, error) {
	return b.walker.children(e)
}

type unbinder struct {
	walker
	flags reactive.Flags
	scope *Scope
	host  Host
}

func (u *unbinder) VisitBindingBehavior(e *ast.BindingBehavior) (any, error) {
	key := BehaviorKey(e.Name)
	var err error
	if behavior, ok := u.host.AppliedBehavior(key); ok {
		u.host.SetAppliedBehavior(key, nil)
		if uerr := behavior.Unbind(u.flags, u.scope, u.host); uerr != nil {
			err = fmt.Errorf("binding behavior %q: %w", e.Name, uerr)
		}
	}
	if werr := u.walker.visit(e.Expression); werr != nil && err == nil {
		err = werr
	}
	return nil, err
}

func (u *unbinder) VisitValueConverter(e *ast.ValueConverter) (any, error) {
	locator := u.host.Locator()
	if converter, err := lookupConverter(locator, e.Name); err == nil {
		if s, ok := converter.(Signals); ok && len(s.Signals()) > 0 {
			if signaler, err := lookupSignaler(locator); err == nil {
				for _, name := range s.Signals() {
					signaler.RemoveSignalListener(name, u.host)
				}
			}
		}
	}
	return u.walker.children(e)
}
