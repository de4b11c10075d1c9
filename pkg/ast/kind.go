package ast

// Kind identifies the variant of an expression node.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindAccessThis
	KindAccessScope
	KindArrayLiteral
	KindObjectLiteral
	KindPrimitiveLiteral
	KindTemplate
	KindUnary
	KindCallScope
	KindCallMember
	KindCallFunction
	KindAccessMember
	KindAccessKeyed
	KindTaggedTemplate
	KindBinary
	KindConditional
	KindAssign
	KindValueConverter
	KindBindingBehavior
	KindHtmlLiteral
	KindArrayBindingPattern
	KindObjectBindingPattern
	KindBindingIdentifier
	KindForOfStatement
	KindInterpolation
	kindCount
)

var kindNames = [kindCount]string{
	KindInvalid:              "Invalid",
	KindAccessThis:           "AccessThis",
	KindAccessScope:          "AccessScope",
	KindArrayLiteral:         "ArrayLiteral",
	KindObjectLiteral:        "ObjectLiteral",
	KindPrimitiveLiteral:     "PrimitiveLiteral",
	KindTemplate:             "Template",
	KindUnary:                "Unary",
	KindCallScope:            "CallScope",
	KindCallMember:           "CallMember",
	KindCallFunction:         "CallFunction",
	KindAccessMember:         "AccessMember",
	KindAccessKeyed:          "AccessKeyed",
	KindTaggedTemplate:       "TaggedTemplate",
	KindBinary:               "Binary",
	KindConditional:          "Conditional",
	KindAssign:               "Assign",
	KindValueConverter:       "ValueConverter",
	KindBindingBehavior:      "BindingBehavior",
	KindHtmlLiteral:          "HtmlLiteral",
	KindArrayBindingPattern:  "ArrayBindingPattern",
	KindObjectBindingPattern: "ObjectBindingPattern",
	KindBindingIdentifier:    "BindingIdentifier",
	KindForOfStatement:       "ForOfStatement",
	KindInterpolation:        "Interpolation",
}

// String returns the node type name used in JSON trees.
func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return "Invalid"
}

// KindOf parses a node type name. It returns KindInvalid for unknown names.
func KindOf(name string) Kind {
	for k := KindAccessThis; k < kindCount; k++ {
		if kindNames[k] == name {
			return k
		}
	}
	return KindInvalid
}

// IsPrimary reports whether k is a primary expression: this, a scope name,
// a literal or an untagged template.
func (k Kind) IsPrimary() bool {
	switch k {
	case KindAccessThis, KindAccessScope, KindArrayLiteral, KindObjectLiteral,
		KindPrimitiveLiteral, KindTemplate:
		return true
	}
	return false
}

// IsLeftHandSide reports whether k may appear on the left of a member access
// or call.
func (k Kind) IsLeftHandSide() bool {
	switch k {
	case KindCallScope, KindCallMember, KindCallFunction, KindAccessMember,
		KindAccessKeyed, KindTaggedTemplate:
		return true
	}
	return k.IsPrimary()
}

// IsAssignable reports whether k names a storage location.
func (k Kind) IsAssignable() bool {
	switch k {
	case KindAccessScope, KindAccessMember, KindAccessKeyed:
		return true
	}
	return false
}

// IsExpression reports whether k produces a value when evaluated.
func (k Kind) IsExpression() bool {
	switch k {
	case KindUnary, KindBinary, KindConditional, KindAssign, KindInterpolation:
		return true
	}
	return k.IsLeftHandSide()
}

// IsResource reports whether k applies a locator-resolved resource.
func (k Kind) IsResource() bool {
	return k == KindValueConverter || k == KindBindingBehavior
}

// IsStatement reports whether k is a statement.
func (k Kind) IsStatement() bool {
	return k == KindForOfStatement
}

// IsDestructuring reports whether k is a binding pattern.
func (k Kind) IsDestructuring() bool {
	return k == KindArrayBindingPattern || k == KindObjectBindingPattern
}

// IsForDeclaration reports whether k may be the declaration of a for-of.
func (k Kind) IsForDeclaration() bool {
	return k.IsDestructuring() || k == KindBindingIdentifier
}

// IsPrimary reports whether e is a primary expression.
func IsPrimary(e Expr) bool { return e != nil && e.Kind().IsPrimary() }

// IsLeftHandSide reports whether e is a left-hand-side expression.
func IsLeftHandSide(e Expr) bool { return e != nil && e.Kind().IsLeftHandSide() }

// IsAssignable reports whether e names a storage location.
func IsAssignable(e Expr) bool { return e != nil && e.Kind().IsAssignable() }

// IsResource reports whether e is a value converter or binding behavior.
func IsResource(e Expr) bool { return e != nil && e.Kind().IsResource() }

// IsStatement reports whether e is a statement.
func IsStatement(e Expr) bool { return e != nil && e.Kind().IsStatement() }

// IsDestructuring reports whether e is a binding pattern.
func IsDestructuring(e Expr) bool { return e != nil && e.Kind().IsDestructuring() }
