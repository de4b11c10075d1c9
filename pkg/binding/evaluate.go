package binding

import (
	"fmt"
	"math"
	"strings"

	"github.com/vango-dev/vbind/pkg/ast"
	"github.com/vango-dev/vbind/pkg/reactive"
)

// Evaluate computes the value of expr in scope. Converters are resolved
// through locator.
func Evaluate(flags reactive.Flags, scope *Scope, locator Locator, expr ast.Expr) (any, error) {
	if expr == nil {
		return reactive.Undefined, nil
	}
	return expr.Accept(&evaluator{flags: flags, scope: scope, locator: locator})
}

// evaluator is the value-producing visitor. It holds no state beyond the
// traversal inputs, so nested evaluations share it.
type evaluator struct {
	flags   reactive.Flags
	scope   *Scope
	locator Locator
}

func (v *evaluator) eval(e ast.Expr) (any, error) {
	if e == nil {
		return reactive.Undefined, nil
	}
	return e.Accept(v)
}

func (v *evaluator) evalList(list []ast.Expr) ([]any, error) {
	out := make([]any, len(list))
	for i, e := range list {
		val, err := v.eval(e)
		if err != nil {
			return nil, err
		}
		out[i] = val
	}
	return out, nil
}

func (v *evaluator) VisitAccessThis(e *ast.AccessThis) (any, error) {
	if v.scope == nil {
		return reactive.Undefined, nil
	}
	oc := v.scope.OverrideContext
	for i := e.Ancestor; i > 0 && oc != nil; i-- {
		oc = oc.Parent
	}
	if oc == nil {
		return reactive.Undefined, nil
	}
	return oc.BindingContext, nil
}

func (v *evaluator) VisitAccessScope(e *ast.AccessScope) (any, error) {
	return reactive.GetProperty(ContextFor(v.scope, e.Name, e.Ancestor), e.Name), nil
}

func (v *evaluator) VisitAccessMember(e *ast.AccessMember) (any, error) {
	instance, err := v.eval(e.Object)
	if err != nil || reactive.IsNullish(instance) {
		return instance, err
	}
	return reactive.GetProperty(instance, e.Name), nil
}

func (v *evaluator) VisitAccessKeyed(e *ast.AccessKeyed) (any, error) {
	instance, err := v.eval(e.Object)
	if err != nil {
		return nil, err
	}
	if reactive.IsNullish(instance) {
		return reactive.Undefined, nil
	}
	key, err := v.eval(e.Key)
	if err != nil {
		return nil, err
	}
	return reactive.GetProperty(instance, key), nil
}

func (v *evaluator) VisitCallScope(e *ast.CallScope) (any, error) {
	args, err := v.evalList(e.Args)
	if err != nil {
		return nil, err
	}
	context := ContextFor(v.scope, e.Name, e.Ancestor)
	fn, err := getFunction(v.flags, context, e.Name)
	if err != nil || fn == nil {
		return reactive.Undefined, err
	}
	return fn(context, args...)
}

func (v *evaluator) VisitCallMember(e *ast.CallMember) (any, error) {
	instance, err := v.eval(e.Object)
	if err != nil {
		return nil, err
	}
	args, err := v.evalList(e.Args)
	if err != nil {
		return nil, err
	}
	fn, err := getFunction(v.flags, instance, e.Name)
	if err != nil || fn == nil {
		return reactive.Undefined, err
	}
	return fn(instance, args...)
}

func (v *evaluator) VisitCallFunction(e *ast.CallFunction) (any, error) {
	callee, err := v.eval(e.Func)
	if err != nil {
		return nil, err
	}
	if fn, ok := reactive.Normalize(callee).(reactive.Func); ok {
		args, err := v.evalList(e.Args)
		if err != nil {
			return nil, err
		}
		return fn(nil, args...)
	}
	if !v.flags.Has(reactive.MustEvaluate) && reactive.IsNullish(callee) {
		return reactive.Undefined, nil
	}
	return nil, notAFunction(e.Func.String())
}

func (v *evaluator) VisitBinary(e *ast.Binary) (any, error) {
	op, ok := binaryOps[e.Operation]
	if !ok {
		return nil, fmt.Errorf("%w: binary operator %q", ErrUnsupportedOperation, e.Operation)
	}
	return op(e.Left, e.Right, v)
}

func (v *evaluator) VisitUnary(e *ast.Unary) (any, error) {
	op, ok := unaryOps[e.Operation]
	if !ok {
		return nil, fmt.Errorf("%w: unary operator %q", ErrUnsupportedOperation, e.Operation)
	}
	val, err := v.eval(e.Expression)
	if err != nil {
		return nil, err
	}
	return op(val), nil
}

func (v *evaluator) VisitConditional(e *ast.Conditional) (any, error) {
	cond, err := v.eval(e.Condition)
	if err != nil {
		return nil, err
	}
	if reactive.Truthy(cond) {
		return v.eval(e.Yes)
	}
	return v.eval(e.No)
}

func (v *evaluator) VisitAssign(e *ast.Assign) (any, error) {
	val, err := v.eval(e.Value)
	if err != nil {
		return nil, err
	}
	return Assign(v.flags, v.scope, v.locator, e.Target, val)
}

func (v *evaluator) VisitPrimitiveLiteral(e *ast.PrimitiveLiteral) (any, error) {
	return reactive.Normalize(e.Value), nil
}

func (v *evaluator) VisitArrayLiteral(e *ast.ArrayLiteral) (any, error) {
	items, err := v.evalList(e.Elements)
	if err != nil {
		return nil, err
	}
	return reactive.NewArray(items...), nil
}

func (v *evaluator) VisitObjectLiteral(e *ast.ObjectLiteral) (any, error) {
	obj := reactive.NewObject()
	for i, key := range e.Keys {
		if i >= len(e.Values) {
			break
		}
		val, err := v.eval(e.Values[i])
		if err != nil {
			return nil, err
		}
		obj.Set(key, val)
	}
	return obj, nil
}

func (v *evaluator) VisitTemplate(e *ast.Template) (any, error) {
	return v.concat(e.Cooked, e.Expressions)
}

func (v *evaluator) VisitTaggedTemplate(e *ast.TaggedTemplate) (any, error) {
	results, err := v.evalList(e.Expressions)
	if err != nil {
		return nil, err
	}
	callee, err := v.eval(e.Func)
	if err != nil {
		return nil, err
	}
	fn, ok := reactive.Normalize(callee).(reactive.Func)
	if !ok {
		return nil, notAFunction(e.Func.String())
	}
	cooked := make([]any, len(e.Cooked))
	for i, s := range e.Cooked {
		cooked[i] = s
	}
	return fn(nil, append([]any{reactive.NewArray(cooked...)}, results...)...)
}

func (v *evaluator) VisitValueConverter(e *ast.ValueConverter) (any, error) {
	converter, err := lookupConverter(v.locator, e.Name)
	if err != nil {
		return nil, err
	}
	value, err := v.eval(e.Expression)
	if err != nil {
		return nil, err
	}
	tv, ok := converter.(ToViewConverter)
	if !ok {
		return value, nil
	}
	args, err := v.evalList(e.Args)
	if err != nil {
		return nil, err
	}
	out, err := tv.ToView(value, args...)
	if err != nil {
		return nil, fmt.Errorf("value converter %q: %w", e.Name, err)
	}
	return reactive.Normalize(out), nil
}

func (v *evaluator) VisitBindingBehavior(e *ast.BindingBehavior) (any, error) {
	return v.eval(e.Expression)
}

func (v *evaluator) VisitHtmlLiteral(e *ast.HtmlLiteral) (any, error) {
	var b strings.Builder
	for _, part := range e.Parts {
		val, err := v.eval(part)
		if err != nil {
			return nil, err
		}
		if reactive.IsNullish(val) {
			continue
		}
		b.WriteString(reactive.ToString(val))
	}
	return b.String(), nil
}

func (v *evaluator) VisitArrayBindingPattern(*ast.ArrayBindingPattern) (any, error) {
	return reactive.Undefined, nil
}

func (v *evaluator) VisitObjectBindingPattern(*ast.ObjectBindingPattern) (any, error) {
	return reactive.Undefined, nil
}

func (v *evaluator) VisitBindingIdentifier(e *ast.BindingIdentifier) (any, error) {
	return e.Name, nil
}

func (v *evaluator) VisitForOfStatement(e *ast.ForOfStatement) (any, error) {
	return v.eval(e.Iterable)
}

func (v *evaluator) VisitInterpolation(e *ast.Interpolation) (any, error) {
	return v.concat(e.Parts, e.Expressions)
}

func (v *evaluator) concat(parts []string, exprs []ast.Expr) (any, error) {
	var b strings.Builder
	for i, part := range parts {
		b.WriteString(part)
		if i < len(exprs) {
			val, err := v.eval(exprs[i])
			if err != nil {
				return nil, err
			}
			b.WriteString(reactive.ToString(val))
		}
	}
	return b.String(), nil
}

// getFunction resolves obj[name] as a callable. A missing function yields
// nil unless MustEvaluate is set. A present value that is not callable is
// always an error.
func getFunction(flags reactive.Flags, obj any, name string) (reactive.Func, error) {
	var fn any = reactive.Undefined
	if !reactive.IsNullish(obj) {
		fn = reactive.Normalize(reactive.GetProperty(obj, name))
	}
	if f, ok := fn.(reactive.Func); ok {
		return f, nil
	}
	if !flags.Has(reactive.MustEvaluate) && reactive.IsNullish(fn) {
		return nil, nil
	}
	return nil, notAFunction(name)
}

var unaryOps = map[string]func(v any) any{
	"void":   func(any) any { return reactive.Undefined },
	"typeof": func(v any) any { return reactive.TypeOf(v) },
	"!":      func(v any) any { return !reactive.Truthy(v) },
	"-":      func(v any) any { return -reactive.ToNumber(v) },
	"+":      func(v any) any { return reactive.ToNumber(v) },
}

type binaryOp func(left, right ast.Expr, v *evaluator) (any, error)

// operands evaluates both sides left to right.
func (v *evaluator) operands(left, right ast.Expr) (any, any, error) {
	l, err := v.eval(left)
	if err != nil {
		return nil, nil, err
	}
	r, err := v.eval(right)
	if err != nil {
		return nil, nil, err
	}
	return l, r, nil
}

func strict(fn func(l, r any) any) binaryOp {
	return func(left, right ast.Expr, v *evaluator) (any, error) {
		l, r, err := v.operands(left, right)
		if err != nil {
			return nil, err
		}
		return fn(l, r), nil
	}
}

func arithmetic(fn func(l, r float64) float64) binaryOp {
	return strict(func(l, r any) any {
		return fn(reactive.ToNumber(l), reactive.ToNumber(r))
	})
}

func comparison(op string) binaryOp {
	return strict(func(l, r any) any { return reactive.Compare(op, l, r) })
}

var binaryOps map[string]binaryOp

func init() {
	binaryOps = map[string]binaryOp{
		"&&": func(left, right ast.Expr, v *evaluator) (any, error) {
			l, err := v.eval(left)
			if err != nil || !reactive.Truthy(l) {
				return l, err
			}
			return v.eval(right)
		},
		"||": func(left, right ast.Expr, v *evaluator) (any, error) {
			l, err := v.eval(left)
			if err != nil || reactive.Truthy(l) {
				return l, err
			}
			return v.eval(right)
		},
		"==":  strict(func(l, r any) any { return reactive.LooseEquals(l, r) }),
		"===": strict(func(l, r any) any { return reactive.StrictEquals(l, r) }),
		"!=":  strict(func(l, r any) any { return !reactive.LooseEquals(l, r) }),
		"!==": strict(func(l, r any) any { return !reactive.StrictEquals(l, r) }),
		"instanceof": func(left, right ast.Expr, v *evaluator) (any, error) {
			r, err := v.eval(right)
			if err != nil {
				return nil, err
			}
			c, ok := r.(reactive.Constructor)
			if !ok {
				return false, nil
			}
			l, err := v.eval(left)
			if err != nil {
				return nil, err
			}
			return c.HasInstance(l), nil
		},
		"in": func(left, right ast.Expr, v *evaluator) (any, error) {
			r, err := v.eval(right)
			if err != nil {
				return nil, err
			}
			if !reactive.IsObject(r) {
				return false, nil
			}
			l, err := v.eval(left)
			if err != nil {
				return nil, err
			}
			return reactive.HasProperty(r, l), nil
		},
		"+":  strict(reactive.Add),
		"-":  arithmetic(func(l, r float64) float64 { return l - r }),
		"*":  arithmetic(func(l, r float64) float64 { return l * r }),
		"/":  arithmetic(func(l, r float64) float64 { return l / r }),
		"%":  arithmetic(math.Mod),
		"<":  comparison("<"),
		">":  comparison(">"),
		"<=": comparison("<="),
		">=": comparison(">="),
	}
}
