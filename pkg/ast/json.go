package ast

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vango-dev/vbind/pkg/reactive"
)

// ErrInvalidTree is returned by Decode for malformed JSON trees.
var ErrInvalidTree = errors.New("vbind: invalid expression tree")

// jsonNode is the wire shape of one node. Fields a variant does not use are
// ignored.
type jsonNode struct {
	Type        string            `json:"type"`
	Name        string            `json:"name"`
	Ancestor    int               `json:"ancestor"`
	Operation   string            `json:"operation"`
	Object      json.RawMessage   `json:"object"`
	Key         json.RawMessage   `json:"key"`
	Func        json.RawMessage   `json:"func"`
	Expression  json.RawMessage   `json:"expression"`
	Left        json.RawMessage   `json:"left"`
	Right       json.RawMessage   `json:"right"`
	Condition   json.RawMessage   `json:"condition"`
	Yes         json.RawMessage   `json:"yes"`
	No          json.RawMessage   `json:"no"`
	Target      json.RawMessage   `json:"target"`
	Value       json.RawMessage   `json:"value"`
	Declaration json.RawMessage   `json:"declaration"`
	Iterable    json.RawMessage   `json:"iterable"`
	Args        []json.RawMessage `json:"args"`
	Elements    []json.RawMessage `json:"elements"`
	Values      []json.RawMessage `json:"values"`
	Expressions []json.RawMessage `json:"expressions"`
	Parts       json.RawMessage   `json:"parts"`
	Keys        []string          `json:"keys"`
	Cooked      []string          `json:"cooked"`
	Raw         []string          `json:"raw"`
}

// Decode parses a JSON expression tree such as
//
//	{"type":"Binary","operation":"+",
//	 "left":{"type":"AccessMember","object":{"type":"AccessScope","name":"a"},"name":"b"},
//	 "right":{"type":"PrimitiveLiteral","value":1}}
//
// A PrimitiveLiteral without a "value" member is undefined.
func Decode(data []byte) (Expr, error) {
	e, err := decode(data, "$")
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("%w: empty tree", ErrInvalidTree)
	}
	return e, nil
}

func decode(data []byte, path string) (Expr, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var n jsonNode
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("%w at %s: %v", ErrInvalidTree, path, err)
	}
	d := decoder{path: path}
	e := d.node(&n)
	if d.err != nil {
		return nil, d.err
	}
	return e, nil
}

// decoder accumulates the first error so node construction reads straight
// through.
type decoder struct {
	path string
	err  error
}

func (d *decoder) child(data json.RawMessage, field string) Expr {
	if d.err != nil {
		return nil
	}
	e, err := decode(data, d.path+"."+field)
	if err != nil {
		d.err = err
		return nil
	}
	return e
}

func (d *decoder) required(data json.RawMessage, field string) Expr {
	e := d.child(data, field)
	if e == nil && d.err == nil {
		d.err = fmt.Errorf("%w at %s: missing %q", ErrInvalidTree, d.path, field)
	}
	return e
}

func (d *decoder) list(items []json.RawMessage, field string) []Expr {
	out := make([]Expr, 0, len(items))
	for i, raw := range items {
		e := d.child(raw, fmt.Sprintf("%s[%d]", field, i))
		if e == nil && d.err == nil {
			d.err = fmt.Errorf("%w at %s.%s[%d]: null element", ErrInvalidTree, d.path, field, i)
		}
		out = append(out, e)
	}
	return out
}

func (d *decoder) node(n *jsonNode) Expr {
	switch KindOf(n.Type) {
	case KindAccessThis:
		return &AccessThis{Ancestor: n.Ancestor}
	case KindAccessScope:
		return &AccessScope{Name: n.Name, Ancestor: n.Ancestor}
	case KindAccessMember:
		return &AccessMember{Object: d.required(n.Object, "object"), Name: n.Name}
	case KindAccessKeyed:
		return &AccessKeyed{Object: d.required(n.Object, "object"), Key: d.required(n.Key, "key")}
	case KindCallScope:
		return &CallScope{Name: n.Name, Args: d.list(n.Args, "args"), Ancestor: n.Ancestor}
	case KindCallMember:
		return &CallMember{Object: d.required(n.Object, "object"), Name: n.Name, Args: d.list(n.Args, "args")}
	case KindCallFunction:
		return &CallFunction{Func: d.required(n.Func, "func"), Args: d.list(n.Args, "args")}
	case KindBinary:
		return &Binary{Operation: n.Operation, Left: d.required(n.Left, "left"), Right: d.required(n.Right, "right")}
	case KindUnary:
		return &Unary{Operation: n.Operation, Expression: d.required(n.Expression, "expression")}
	case KindConditional:
		return &Conditional{
			Condition: d.required(n.Condition, "condition"),
			Yes:       d.required(n.Yes, "yes"),
			No:        d.required(n.No, "no"),
		}
	case KindAssign:
		target := d.required(n.Target, "target")
		value := d.required(n.Value, "value")
		if d.err != nil {
			return nil
		}
		t, ok := target.(AssignTarget)
		if !ok {
			d.err = fmt.Errorf("%w at %s: %s is not assignable", ErrInvalidTree, d.path, target.Kind())
			return nil
		}
		return &Assign{Target: t, Value: value}
	case KindPrimitiveLiteral:
		return &PrimitiveLiteral{Value: d.literal(n.Value)}
	case KindArrayLiteral:
		return &ArrayLiteral{Elements: d.list(n.Elements, "elements")}
	case KindObjectLiteral:
		return &ObjectLiteral{Keys: n.Keys, Values: d.pairs(n.Keys, n.Values)}
	case KindTemplate:
		return &Template{Cooked: d.cooked(n.Cooked, len(n.Expressions)), Expressions: d.list(n.Expressions, "expressions")}
	case KindTaggedTemplate:
		return &TaggedTemplate{
			Cooked:      d.cooked(n.Cooked, len(n.Expressions)),
			Raw:         n.Raw,
			Func:        d.required(n.Func, "func"),
			Expressions: d.list(n.Expressions, "expressions"),
		}
	case KindValueConverter:
		return &ValueConverter{Expression: d.required(n.Expression, "expression"), Name: n.Name, Args: d.list(n.Args, "args")}
	case KindBindingBehavior:
		return &BindingBehavior{Expression: d.required(n.Expression, "expression"), Name: n.Name, Args: d.list(n.Args, "args")}
	case KindHtmlLiteral:
		var parts []json.RawMessage
		d.unmarshal(n.Parts, &parts, "parts")
		return &HtmlLiteral{Parts: d.list(parts, "parts")}
	case KindArrayBindingPattern:
		return &ArrayBindingPattern{Elements: d.list(n.Elements, "elements")}
	case KindObjectBindingPattern:
		return &ObjectBindingPattern{Keys: n.Keys, Values: d.pairs(n.Keys, n.Values)}
	case KindBindingIdentifier:
		return &BindingIdentifier{Name: n.Name}
	case KindForOfStatement:
		decl := d.required(n.Declaration, "declaration")
		if decl != nil && !decl.Kind().IsForDeclaration() {
			d.err = fmt.Errorf("%w at %s: %s cannot declare a for-of", ErrInvalidTree, d.path, decl.Kind())
			return nil
		}
		return &ForOfStatement{Declaration: decl, Iterable: d.required(n.Iterable, "iterable")}
	case KindInterpolation:
		var parts []string
		d.unmarshal(n.Parts, &parts, "parts")
		exprs := d.list(n.Expressions, "expressions")
		if d.err == nil && len(parts) != len(exprs)+1 {
			d.err = fmt.Errorf("%w at %s: %d parts for %d expressions", ErrInvalidTree, d.path, len(parts), len(exprs))
		}
		return &Interpolation{Parts: parts, Expressions: exprs}
	}
	d.err = fmt.Errorf("%w at %s: unknown node type %q", ErrInvalidTree, d.path, n.Type)
	return nil
}

func (d *decoder) literal(raw json.RawMessage) any {
	if len(raw) == 0 {
		return reactive.Undefined
	}
	var v any
	d.unmarshal(raw, &v, "value")
	switch v.(type) {
	case nil, bool, float64, string:
		return v
	}
	if d.err == nil {
		d.err = fmt.Errorf("%w at %s: literal must be a primitive", ErrInvalidTree, d.path)
	}
	return nil
}

func (d *decoder) pairs(keys []string, values []json.RawMessage) []Expr {
	if d.err == nil && len(keys) != len(values) {
		d.err = fmt.Errorf("%w at %s: %d keys for %d values", ErrInvalidTree, d.path, len(keys), len(values))
	}
	return d.list(values, "values")
}

func (d *decoder) cooked(cooked []string, exprs int) []string {
	if d.err == nil && len(cooked) != exprs+1 {
		d.err = fmt.Errorf("%w at %s: %d strings for %d expressions", ErrInvalidTree, d.path, len(cooked), exprs)
	}
	return cooked
}

func (d *decoder) unmarshal(raw json.RawMessage, v any, field string) {
	if d.err != nil || len(raw) == 0 {
		return
	}
	if err := json.Unmarshal(raw, v); err != nil {
		d.err = fmt.Errorf("%w at %s.%s: %v", ErrInvalidTree, d.path, field, err)
	}
}
