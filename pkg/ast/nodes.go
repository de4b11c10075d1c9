package ast

// Expr is an immutable expression node.
type Expr interface {
	Kind() Kind
	Accept(v Visitor) (any, error)
	String() string
}

// AssignTarget is implemented by nodes a value can be written through.
// Every other node leaves assignment statically absent, which the binding
// engine treats as a no-op.
type AssignTarget interface {
	Expr
	assignTarget()
}

// AccessThis is the binding context Ancestor levels up the scope chain.
// Ancestor 0 is `$this`, 1 is `$parent`.
type AccessThis struct {
	Ancestor int
}

// AccessScope reads Name from the nearest binding context that has it,
// starting Ancestor levels up.
type AccessScope struct {
	Name     string
	Ancestor int
}

// AccessMember is Object.Name.
type AccessMember struct {
	Object Expr
	Name   string
}

// AccessKeyed is Object[Key].
type AccessKeyed struct {
	Object Expr
	Key    Expr
}

// CallScope calls the scope function Name.
type CallScope struct {
	Name     string
	Args     []Expr
	Ancestor int
}

// CallMember calls Object.Name with Object as receiver.
type CallMember struct {
	Object Expr
	Name   string
	Args   []Expr
}

// CallFunction calls the value of Func with no receiver.
type CallFunction struct {
	Func Expr
	Args []Expr
}

// Binary applies Operation to Left and Right.
type Binary struct {
	Operation string
	Left      Expr
	Right     Expr
}

// Unary applies Operation (void, typeof, !, - or +) to Expression.
type Unary struct {
	Operation  string
	Expression Expr
}

// Conditional is Condition ? Yes : No.
type Conditional struct {
	Condition Expr
	Yes       Expr
	No        Expr
}

// Assign writes the value of Value into Target.
type Assign struct {
	Target AssignTarget
	Value  Expr
}

// PrimitiveLiteral holds undefined, null, a bool, a float64 or a string.
type PrimitiveLiteral struct {
	Value any
}

// ArrayLiteral builds a new array.
type ArrayLiteral struct {
	Elements []Expr
}

// ObjectLiteral builds a new object. Keys and Values are parallel.
type ObjectLiteral struct {
	Keys   []string
	Values []Expr
}

// Template is an untagged template literal. Cooked has one more entry than
// Expressions.
type Template struct {
	Cooked      []string
	Expressions []Expr
}

// TaggedTemplate calls Func with the cooked strings followed by the
// evaluated expressions.
type TaggedTemplate struct {
	Cooked      []string
	Raw         []string
	Func        Expr
	Expressions []Expr
}

// ValueConverter is `Expression | Name:Args...`.
type ValueConverter struct {
	Expression Expr
	Name       string
	Args       []Expr
}

// BindingBehavior is `Expression & Name:Args...`.
type BindingBehavior struct {
	Expression Expr
	Name       string
	Args       []Expr
}

// HtmlLiteral concatenates its parts, skipping null and undefined.
type HtmlLiteral struct {
	Parts []Expr
}

// ArrayBindingPattern is an array destructuring declaration.
type ArrayBindingPattern struct {
	Elements []Expr
}

// ObjectBindingPattern is an object destructuring declaration.
type ObjectBindingPattern struct {
	Keys   []string
	Values []Expr
}

// BindingIdentifier is a declared name.
type BindingIdentifier struct {
	Name string
}

// ForOfStatement is `Declaration of Iterable`.
type ForOfStatement struct {
	Declaration Expr
	Iterable    Expr
}

// Interpolation is a text with embedded expressions. Parts has one more
// entry than Expressions.
type Interpolation struct {
	Parts       []string
	Expressions []Expr
}

func (*AccessThis) Kind() Kind           { return KindAccessThis }
func (*AccessScope) Kind() Kind          { return KindAccessScope }
func (*AccessMember) Kind() Kind         { return KindAccessMember }
func (*AccessKeyed) Kind() Kind          { return KindAccessKeyed }
func (*CallScope) Kind() Kind            { return KindCallScope }
func (*CallMember) Kind() Kind           { return KindCallMember }
func (*CallFunction) Kind() Kind         { return KindCallFunction }
func (*Binary) Kind() Kind               { return KindBinary }
func (*Unary) Kind() Kind                { return KindUnary }
func (*Conditional) Kind() Kind          { return KindConditional }
func (*Assign) Kind() Kind               { return KindAssign }
func (*PrimitiveLiteral) Kind() Kind     { return KindPrimitiveLiteral }
func (*ArrayLiteral) Kind() Kind         { return KindArrayLiteral }
func (*ObjectLiteral) Kind() Kind        { return KindObjectLiteral }
func (*Template) Kind() Kind             { return KindTemplate }
func (*TaggedTemplate) Kind() Kind       { return KindTaggedTemplate }
func (*ValueConverter) Kind() Kind       { return KindValueConverter }
func (*BindingBehavior) Kind() Kind      { return KindBindingBehavior }
func (*HtmlLiteral) Kind() Kind          { return KindHtmlLiteral }
func (*ArrayBindingPattern) Kind() Kind  { return KindArrayBindingPattern }
func (*ObjectBindingPattern) Kind() Kind { return KindObjectBindingPattern }
func (*BindingIdentifier) Kind() Kind    { return KindBindingIdentifier }
func (*ForOfStatement) Kind() Kind       { return KindForOfStatement }
func (*Interpolation) Kind() Kind        { return KindInterpolation }

func (*AccessScope) assignTarget()     {}
func (*AccessMember) assignTarget()    {}
func (*AccessKeyed) assignTarget()     {}
func (*Assign) assignTarget()          {}
func (*ValueConverter) assignTarget()  {}
func (*BindingBehavior) assignTarget() {}

// Literal returns a primitive literal node for v.
func Literal(v any) *PrimitiveLiteral {
	return &PrimitiveLiteral{Value: v}
}

// Scope returns an AccessScope for name in the current binding context.
func Scope(name string) *AccessScope {
	return &AccessScope{Name: name}
}

// Member returns obj.name.
func Member(obj Expr, name string) *AccessMember {
	return &AccessMember{Object: obj, Name: name}
}
