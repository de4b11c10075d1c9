package ast

import (
	"strconv"
	"strings"

	"github.com/vango-dev/vbind/pkg/reactive"
)

func (e *AccessThis) String() string {
	switch e.Ancestor {
	case 0:
		return "$this"
	case 1:
		return "$parent"
	}
	return strings.TrimSuffix(strings.Repeat("$parent.", e.Ancestor), ".")
}

func (e *AccessScope) String() string {
	return ancestorPrefix(e.Ancestor) + e.Name
}

func (e *AccessMember) String() string {
	return str(e.Object) + "." + e.Name
}

func (e *AccessKeyed) String() string {
	return str(e.Object) + "[" + str(e.Key) + "]"
}

func (e *CallScope) String() string {
	return ancestorPrefix(e.Ancestor) + e.Name + "(" + list(e.Args) + ")"
}

func (e *CallMember) String() string {
	return str(e.Object) + "." + e.Name + "(" + list(e.Args) + ")"
}

func (e *CallFunction) String() string {
	return str(e.Func) + "(" + list(e.Args) + ")"
}

func (e *Binary) String() string {
	return "(" + str(e.Left) + " " + e.Operation + " " + str(e.Right) + ")"
}

func (e *Unary) String() string {
	switch e.Operation {
	case "void", "typeof":
		return e.Operation + " " + str(e.Expression)
	}
	return e.Operation + str(e.Expression)
}

func (e *Conditional) String() string {
	return "(" + str(e.Condition) + " ? " + str(e.Yes) + " : " + str(e.No) + ")"
}

func (e *Assign) String() string {
	var target Expr
	if e.Target != nil {
		target = e.Target
	}
	return str(target) + " = " + str(e.Value)
}

func (e *PrimitiveLiteral) String() string {
	if s, ok := e.Value.(string); ok {
		return strconv.Quote(s)
	}
	return reactive.ToString(e.Value)
}

func (e *ArrayLiteral) String() string {
	return "[" + list(e.Elements) + "]"
}

func (e *ObjectLiteral) String() string {
	return "{" + pairs(e.Keys, e.Values) + "}"
}

func (e *Template) String() string {
	return "`" + template(e.Cooked, e.Expressions) + "`"
}

func (e *TaggedTemplate) String() string {
	return str(e.Func) + "`" + template(e.Cooked, e.Expressions) + "`"
}

func (e *ValueConverter) String() string {
	return str(e.Expression) + " | " + e.Name + resourceArgs(e.Args)
}

func (e *BindingBehavior) String() string {
	return str(e.Expression) + " & " + e.Name + resourceArgs(e.Args)
}

func (e *HtmlLiteral) String() string {
	var b strings.Builder
	for _, p := range e.Parts {
		b.WriteString(str(p))
	}
	return b.String()
}

func (e *ArrayBindingPattern) String() string {
	return "[" + list(e.Elements) + "]"
}

func (e *ObjectBindingPattern) String() string {
	return "{" + pairs(e.Keys, e.Values) + "}"
}

func (e *BindingIdentifier) String() string {
	return e.Name
}

func (e *ForOfStatement) String() string {
	return str(e.Declaration) + " of " + str(e.Iterable)
}

func (e *Interpolation) String() string {
	var b strings.Builder
	for i, part := range e.Parts {
		b.WriteString(part)
		if i < len(e.Expressions) {
			b.WriteString("${" + str(e.Expressions[i]) + "}")
		}
	}
	return b.String()
}

func str(e Expr) string {
	if e == nil {
		return "<nil>"
	}
	return e.String()
}

func list(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = str(e)
	}
	return strings.Join(parts, ", ")
}

func pairs(keys []string, values []Expr) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		if i < len(values) {
			parts[i] = k + ": " + str(values[i])
		} else {
			parts[i] = k
		}
	}
	return strings.Join(parts, ", ")
}

func template(cooked []string, exprs []Expr) string {
	var b strings.Builder
	for i, c := range cooked {
		b.WriteString(c)
		if i < len(exprs) {
			b.WriteString("${" + str(exprs[i]) + "}")
		}
	}
	return b.String()
}

func resourceArgs(args []Expr) string {
	var b strings.Builder
	for _, a := range args {
		b.WriteString(":" + str(a))
	}
	return b.String()
}

func ancestorPrefix(n int) string {
	return strings.Repeat("$parent.", n)
}
