package binding

import (
	"github.com/vango-dev/vbind/pkg/ast"
	"github.com/vango-dev/vbind/pkg/reactive"
)

// Connect subscribes host to every property evaluating expr in scope reads.
// Only the operands evaluation actually reaches are observed.
func Connect(flags reactive.Flags, scope *Scope, host Host, expr ast.Expr) error {
	if expr == nil {
		return nil
	}
	c := &connector{
		flags: flags,
		scope: scope,
		host:  host,
		eval:  &evaluator{flags: flags, scope: scope, locator: host.Locator()},
	}
	_, err := expr.Accept(c)
	return err
}

type connector struct {
	flags reactive.Flags
	scope *Scope
	host  Host
	eval  *evaluator
}

func (c *connector) visit(e ast.Expr) error {
	if e == nil {
		return nil
	}
	_, err := e.Accept(c)
	return err
}

func (c *connector) visitList(list []ast.Expr) (any, error) {
	for _, e := range list {
		if err := c.visit(e); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (c *connector) VisitAccessThis(*ast.AccessThis) (any, error) { return nil, nil }

func (c *connector) VisitAccessScope(e *ast.AccessScope) (any, error) {
	c.host.ObserveProperty(ContextFor(c.scope, e.Name, e.Ancestor), e.Name)
	return nil, nil
}

func (c *connector) VisitAccessMember(e *ast.AccessMember) (any, error) {
	obj, err := c.eval.eval(e.Object)
	if err != nil {
		return nil, err
	}
	if err := c.visit(e.Object); err != nil {
		return nil, err
	}
	if !reactive.Truthy(obj) {
		return nil, nil
	}
	if _, isArray := obj.(*reactive.Array); isArray && e.Name == "length" {
		c.host.ObserveCollection(obj)
		return nil, nil
	}
	c.host.ObserveProperty(obj, e.Name)
	return nil, nil
}

func (c *connector) VisitAccessKeyed(e *ast.AccessKeyed) (any, error) {
	obj, err := c.eval.eval(e.Object)
	if err != nil {
		return nil, err
	}
	if err := c.visit(e.Object); err != nil {
		return nil, err
	}
	if !reactive.IsObject(obj) {
		return nil, nil
	}
	if err := c.visit(e.Key); err != nil {
		return nil, err
	}
	key, err := c.eval.eval(e.Key)
	if err != nil {
		return nil, err
	}
	// array slots are covered by the collection observer
	if _, isArray := obj.(*reactive.Array); isArray && reactive.IsNumericKey(key) {
		c.host.ObserveCollection(obj)
		return nil, nil
	}
	c.host.ObserveProperty(obj, key)
	return nil, nil
}

func (c *connector) VisitCallScope(e *ast.CallScope) (any, error) {
	return c.visitList(e.Args)
}

func (c *connector) VisitCallMember(e *ast.CallMember) (any, error) {
	obj, err := c.eval.eval(e.Object)
	if err != nil {
		return nil, err
	}
	if err := c.visit(e.Object); err != nil {
		return nil, err
	}
	fn, err := getFunction(c.flags&^reactive.MustEvaluate, obj, e.Name)
	if err != nil || fn == nil {
		return nil, err
	}
	return c.visitList(e.Args)
}

func (c *connector) VisitCallFunction(e *ast.CallFunction) (any, error) {
	fn, err := c.eval.eval(e.Func)
	if err != nil {
		return nil, err
	}
	if err := c.visit(e.Func); err != nil {
		return nil, err
	}
	if _, ok := reactive.Normalize(fn).(reactive.Func); ok {
		return c.visitList(e.Args)
	}
	return nil, nil
}

func (c *connector) VisitBinary(e *ast.Binary) (any, error) {
	left, err := c.eval.eval(e.Left)
	if err != nil {
		return nil, err
	}
	if err := c.visit(e.Left); err != nil {
		return nil, err
	}
	if (e.Operation == "&&" && !reactive.Truthy(left)) || (e.Operation == "||" && reactive.Truthy(left)) {
		return nil, nil
	}
	return nil, c.visit(e.Right)
}

func (c *connector) VisitUnary(e *ast.Unary) (any, error) {
	return nil, c.visit(e.Expression)
}

func (c *connector) VisitConditional(e *ast.Conditional) (any, error) {
	cond, err := c.eval.eval(e.Condition)
	if err != nil {
		return nil, err
	}
	branch := e.No
	if reactive.Truthy(cond) {
		branch = e.Yes
	}
	if err := c.visit(branch); err != nil {
		return nil, err
	}
	return nil, c.visit(e.Condition)
}

func (c *connector) VisitAssign(*ast.Assign) (any, error)                     { return nil, nil }
func (c *connector) VisitPrimitiveLiteral(*ast.PrimitiveLiteral) (any, error) { return nil, nil }

func (c *connector) VisitArrayLiteral(e *ast.ArrayLiteral) (any, error) {
	return c.visitList(e.Elements)
}

func (c *connector) VisitObjectLiteral(e *ast.ObjectLiteral) (any, error) {
	return c.visitList(e.Values)
}

func (c *connector) VisitTemplate(e *ast.Template) (any, error) {
	return c.visitList(e.Expressions)
}

func (c *connector) VisitTaggedTemplate(e *ast.TaggedTemplate) (any, error) {
	if _, err := c.visitList(e.Expressions); err != nil {
		return nil, err
	}
	return nil, c.visit(e.Func)
}

func (c *connector) VisitValueConverter(e *ast.ValueConverter) (any, error) {
	locator := c.host.Locator()
	converter, err := lookupConverter(locator, e.Name)
	if err != nil {
		return nil, err
	}
	if _, err := c.visitList(e.Args); err != nil {
		return nil, err
	}
	if err := c.visit(e.Expression); err != nil {
		return nil, err
	}
	s, ok := converter.(Signals)
	if !ok || len(s.Signals()) == 0 {
		return nil, nil
	}
	signaler, err := lookupSignaler(locator)
	if err != nil {
		return nil, err
	}
	for _, name := range s.Signals() {
		signaler.AddSignalListener(name, c.host)
	}
	return nil, nil
}

func (c *connector) VisitBindingBehavior(e *ast.BindingBehavior) (any, error) {
	return nil, c.visit(e.Expression)
}

func (c *connector) VisitHtmlLiteral(e *ast.HtmlLiteral) (any, error) {
	return c.visitList(e.Parts)
}

func (c *connector) VisitArrayBindingPattern(*ast.ArrayBindingPattern) (any, error) {
	return nil, nil
}

func (c *connector) VisitObjectBindingPattern(*ast.ObjectBindingPattern) (any, error) {
	return nil, nil
}

func (c *connector) VisitBindingIdentifier(*ast.BindingIdentifier) (any, error) { return nil, nil }

func (c *connector) VisitForOfStatement(e *ast.ForOfStatement) (any, error) {
	if err := c.visit(e.Declaration); err != nil {
		return nil, err
	}
	if err := c.visit(e.Iterable); err != nil {
		return nil, err
	}
	iterable, err := c.eval.eval(e.Iterable)
	if err != nil {
		return nil, err
	}
	if _, ok := iterable.(*reactive.Array); ok {
		c.host.ObserveCollection(iterable)
	}
	return nil, nil
}

func (c *connector) VisitInterpolation(e *ast.Interpolation) (any, error) {
	return c.visitList(e.Expressions)
}
