package ast

// Visitor has one method per node variant. Accept on a node calls the
// method matching its variant and returns its result unchanged.
type Visitor interface {
	VisitAccessThis(e *AccessThis) (any, error)
	VisitAccessScope(e *AccessScope) (any, error)
	VisitAccessMember(e *AccessMember) (any, error)
	VisitAccessKeyed(e *AccessKeyed) (any, error)
	VisitCallScope(e *CallScope) (any, error)
	VisitCallMember(e *CallMember) (any, error)
	VisitCallFunction(e *CallFunction) (any, error)
	VisitBinary(e *Binary) (any, error)
	VisitUnary(e *Unary) (any, error)
	VisitConditional(e *Conditional) (any, error)
	VisitAssign(e *Assign) (any, error)
	VisitPrimitiveLiteral(e *PrimitiveLiteral) (any, error)
	VisitArrayLiteral(e *ArrayLiteral) (any, error)
	VisitObjectLiteral(e *ObjectLiteral) (any, error)
	VisitTemplate(e *Template) (any, error)
	VisitTaggedTemplate(e *TaggedTemplate) (any, error)
	VisitValueConverter(e *ValueConverter) (any, error)
	VisitBindingBehavior(e *BindingBehavior) (any, error)
	VisitHtmlLiteral(e *HtmlLiteral) (any, error)
	VisitArrayBindingPattern(e *ArrayBindingPattern) (any, error)
	VisitObjectBindingPattern(e *ObjectBindingPattern) (any, error)
	VisitBindingIdentifier(e *BindingIdentifier) (any, error)
	VisitForOfStatement(e *ForOfStatement) (any, error)
	VisitInterpolation(e *Interpolation) (any, error)
}

func (e *AccessThis) Accept(v Visitor) (any, error)       { return v.VisitAccessThis(e) }
func (e *AccessScope) Accept(v Visitor) (any, error)      { return v.VisitAccessScope(e) }
func (e *AccessMember) Accept(v Visitor) (any, error)     { return v.VisitAccessMember(e) }
func (e *AccessKeyed) Accept(v Visitor) (any, error)      { return v.VisitAccessKeyed(e) }
func (e *CallScope) Accept(v Visitor) (any, error)        { return v.VisitCallScope(e) }
func (e *CallMember) Accept(v Visitor) (any, error)       { return v.VisitCallMember(e) }
func (e *CallFunction) Accept(v Visitor) (any, error)     { return v.VisitCallFunction(e) }
func (e *Binary) Accept(v Visitor) (any, error)           { return v.VisitBinary(e) }
func (e *Unary) Accept(v Visitor) (any, error)            { return v.VisitUnary(e) }
func (e *Conditional) Accept(v Visitor) (any, error)      { return v.VisitConditional(e) }
func (e *Assign) Accept(v Visitor) (any, error)           { return v.VisitAssign(e) }
func (e *PrimitiveLiteral) Accept(v Visitor) (any, error) { return v.VisitPrimitiveLiteral(e) }
func (e *ArrayLiteral) Accept(v Visitor) (any, error)     { return v.VisitArrayLiteral(e) }
func (e *ObjectLiteral) Accept(v Visitor) (any, error)    { return v.VisitObjectLiteral(e) }
func (e *Template) Accept(v Visitor) (any, error)         { return v.VisitTemplate(e) }
func (e *TaggedTemplate) Accept(v Visitor) (any, error)   { return v.VisitTaggedTemplate(e) }
func (e *ValueConverter) Accept(v Visitor) (any, error)   { return v.VisitValueConverter(e) }
func (e *BindingBehavior) Accept(v Visitor) (any, error)  { return v.VisitBindingBehavior(e) }
func (e *HtmlLiteral) Accept(v Visitor) (any, error)      { return v.VisitHtmlLiteral(e) }
func (e *ArrayBindingPattern) Accept(v Visitor) (any, error) {
	return v.VisitArrayBindingPattern(e)
}
func (e *ObjectBindingPattern) Accept(v Visitor) (any, error) {
	return v.VisitObjectBindingPattern(e)
}
func (e *BindingIdentifier) Accept(v Visitor) (any, error) { return v.VisitBindingIdentifier(e) }
func (e *ForOfStatement) Accept(v Visitor) (any, error)    { return v.VisitForOfStatement(e) }
func (e *Interpolation) Accept(v Visitor) (any, error)     { return v.VisitInterpolation(e) }

// Children returns the direct sub-expressions of e in source order.
func Children(e Expr) []Expr {
	switch n := e.(type) {
	case *AccessMember:
		return []Expr{n.Object}
	case *AccessKeyed:
		return []Expr{n.Object, n.Key}
	case *CallScope:
		return n.Args
	case *CallMember:
		return append([]Expr{n.Object}, n.Args...)
	case *CallFunction:
		return append([]Expr{n.Func}, n.Args...)
	case *Binary:
		return []Expr{n.Left, n.Right}
	case *Unary:
		return []Expr{n.Expression}
	case *Conditional:
		return []Expr{n.Condition, n.Yes, n.No}
	case *Assign:
		return []Expr{n.Target, n.Value}
	case *ArrayLiteral:
		return n.Elements
	case *ObjectLiteral:
		return n.Values
	case *Template:
		return n.Expressions
	case *TaggedTemplate:
		return append([]Expr{n.Func}, n.Expressions...)
	case *ValueConverter:
		return append([]Expr{n.Expression}, n.Args...)
	case *BindingBehavior:
		return append([]Expr{n.Expression}, n.Args...)
	case *HtmlLiteral:
		return n.Parts
	case *ArrayBindingPattern:
		return n.Elements
	case *ObjectBindingPattern:
		return n.Values
	case *ForOfStatement:
		return []Expr{n.Declaration, n.Iterable}
	case *Interpolation:
		return n.Expressions
	}
	return nil
}

// Inspect traverses e depth-first, calling fn for each node before its
// children. If fn returns false the children of that node are skipped.
func Inspect(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	for _, c := range Children(e) {
		Inspect(c, fn)
	}
}
