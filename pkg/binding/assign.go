package binding

import (
	"fmt"

	"github.com/vango-dev/vbind/pkg/ast"
	"github.com/vango-dev/vbind/pkg/reactive"
)

// Assign writes value through expr and returns the value written. Writing
// through a member or key of a null or primitive object first stores a new
// object at that path. Expressions that are not an ast.AssignTarget ignore
// the write and yield Undefined.
func Assign(flags reactive.Flags, scope *Scope, locator Locator, expr ast.Expr, value any) (any, error) {
	target, ok := expr.(ast.AssignTarget)
	if !ok {
		return reactive.Undefined, nil
	}
	value = reactive.Normalize(value)

	switch e := target.(type) {
	case *ast.AccessScope:
		context := ContextFor(scope, e.Name, e.Ancestor)
		if !setProperty(context, e.Name, value, flags) {
			return reactive.Undefined, nil
		}
		return value, nil

	case *ast.AccessMember:
		instance, err := vivify(flags, scope, locator, e.Object)
		if err != nil {
			return nil, err
		}
		setProperty(instance, e.Name, value, flags)
		return value, nil

	case *ast.AccessKeyed:
		instance, err := vivify(flags, scope, locator, e.Object)
		if err != nil {
			return nil, err
		}
		key, err := Evaluate(flags, scope, locator, e.Key)
		if err != nil {
			return nil, err
		}
		setProperty(instance, key, value, flags)
		return value, nil

	case *ast.Assign:
		if _, err := Assign(flags, scope, locator, e.Value, value); err != nil {
			return nil, err
		}
		return Assign(flags, scope, locator, e.Target, value)

	case *ast.ValueConverter:
		converter, err := lookupConverter(locator, e.Name)
		if err != nil {
			return nil, err
		}
		if fv, ok := converter.(FromViewConverter); ok {
			args, err := (&evaluator{flags: flags, scope: scope, locator: locator}).evalList(e.Args)
			if err != nil {
				return nil, err
			}
			if value, err = fv.FromView(value, args...); err != nil {
				return nil, fmt.Errorf("value converter %q: %w", e.Name, err)
			}
		}
		return Assign(flags, scope, locator, e.Expression, value)

	case *ast.BindingBehavior:
		return Assign(flags, scope, locator, e.Expression, value)
	}
	return reactive.Undefined, nil
}

// vivify evaluates obj and, when the result cannot hold properties, stores a
// new object through obj and returns that instead.
func vivify(flags reactive.Flags, scope *Scope, locator Locator, obj ast.Expr) (any, error) {
	instance, err := Evaluate(flags, scope, locator, obj)
	if err != nil {
		return nil, err
	}
	if reactive.IsObject(instance) {
		return instance, nil
	}
	fresh := reactive.NewObject()
	if _, err := Assign(flags, scope, locator, obj, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

// setProperty writes obj[key], passing flags to property observers.
func setProperty(obj any, key any, value any, flags reactive.Flags) bool {
	if o, ok := obj.(*reactive.Object); ok {
		o.SetWithFlags(reactive.ToPropertyKey(key), value, flags)
		return true
	}
	return reactive.SetProperty(obj, key, value)
}
