package binding

import (
	"fmt"

	"github.com/vango-dev/vbind/pkg/ast"
	"github.com/vango-dev/vbind/pkg/reactive"
)

// LetBinding declares a property in the bound scope whose value tracks
// Expression. The property lives on the override context unless
// ToViewModel is set, in which case it is written to the binding context.
type LetBinding struct {
	reactive.ChangeLink
	connectable

	Expression     ast.Expr
	TargetProperty string
	ToViewModel    bool

	mode    Mode
	state   State
	scope   *Scope
	target  any
	changes *reactive.ChangeSet
}

var _ Host = (*LetBinding)(nil)

// NewLetBinding creates an unbound let binding in to-view mode.
func NewLetBinding(expr ast.Expr, property string, toViewModel bool, observers *reactive.ObserverLocator, locator Locator, opts ...Option) *LetBinding {
	l := &LetBinding{
		Expression:     expr,
		TargetProperty: property,
		ToViewModel:    toViewModel,
		mode:           ToView,
	}
	l.init(l, observers, locator, buildConfig(opts))
	if observers != nil {
		l.changes = observers.ChangeSet()
	}
	return l
}

func (l *LetBinding) Mode() Mode     { return l.mode }
func (l *LetBinding) SetMode(m Mode) { l.mode = m }
func (l *LetBinding) State() State   { return l.state }
func (l *LetBinding) IsBound() bool  { return l.state == StateBound }
func (l *LetBinding) Scope() *Scope  { return l.scope }
func (l *LetBinding) Target() any    { return l.target }

// Bind writes the initial value into the scope and subscribes to the
// expression. Declaring on the override context needs a scope that has one;
// otherwise Bind fails with ErrMissingScope. A let binding only supports
// ToView; any other mode left by a behavior fails with ErrInvalidBindingMode.
func (l *LetBinding) Bind(flags reactive.Flags, scope *Scope) error {
	if l.state == StateBound {
		if l.scope == scope {
			return nil
		}
		if err := l.Unbind(flags); err != nil {
			return err
		}
	}
	if scope == nil || (scope.OverrideContext == nil && !l.ToViewModel) {
		return fmt.Errorf("%w: let %s", ErrMissingScope, l.TargetProperty)
	}
	flags |= reactive.FromBind
	l.state = StateBinding
	l.scope = scope
	if l.ToViewModel {
		l.target = scope.BindingContext
	} else {
		l.target = scope.OverrideContext.Values
	}

	err := l.bind(flags, scope)
	l.state = StateBound
	return err
}

func (l *LetBinding) bind(flags reactive.Flags, scope *Scope) error {
	if err := BindBehaviors(flags, scope, l, l.Expression); err != nil {
		return err
	}
	if l.mode != ToView {
		return fmt.Errorf("%w: let binding requires %s, got %s", ErrInvalidBindingMode, ToView, l.mode)
	}
	value, err := Evaluate(flags, scope, l.locator, l.Expression)
	if err != nil {
		return err
	}
	setProperty(l.target, l.TargetProperty, value, flags)
	return Connect(flags, scope, l, l.Expression)
}

// Unbind releases the subscriptions. The declared property keeps its last
// value.
func (l *LetBinding) Unbind(flags reactive.Flags) error {
	if l.state != StateBound {
		return nil
	}
	l.state = StateUnbinding
	err := UnbindBehaviors(flags|reactive.FromUnbind, l.scope, l, l.Expression)
	l.unobserve()
	l.scope = nil
	l.target = nil
	l.state = StateUnbound
	return err
}

func (l *LetBinding) HandleChange(_, _ any, flags reactive.Flags) { l.changed() }

func (l *LetBinding) HandleCollectionChange(string, []any, reactive.Flags) { l.changed() }

func (l *LetBinding) changed() {
	if l.state != StateBound {
		return
	}
	if l.changes == nil {
		if err := l.FlushChanges(); err != nil {
			l.logger.Error("let binding flush failed", "property", l.TargetProperty, "error", err)
		}
		return
	}
	l.changes.Add(l)
}

// FlushChanges re-evaluates the expression and writes the declared property
// if the value changed.
func (l *LetBinding) FlushChanges() error {
	if l.state != StateBound {
		return nil
	}
	flags := reactive.FromFlushChanges
	value, err := Evaluate(flags, l.scope, l.locator, l.Expression)
	if err != nil {
		return err
	}
	if !reactive.StrictEquals(reactive.GetProperty(l.target, l.TargetProperty), value) {
		setProperty(l.target, l.TargetProperty, value, flags|reactive.UpdateTargetInstance)
	}
	l.unobserve()
	return Connect(flags, l.scope, l, l.Expression)
}

// UpdateTarget is not supported: the target is the declared property.
func (l *LetBinding) UpdateTarget(any, reactive.Flags) error {
	return fmt.Errorf("%w: let binding updateTarget", ErrUnsupportedOperation)
}

// UpdateSource is not supported: a let binding never writes back.
func (l *LetBinding) UpdateSource(any, reactive.Flags) error {
	return fmt.Errorf("%w: let binding updateSource", ErrUnsupportedOperation)
}
