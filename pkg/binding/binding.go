package binding

import (
	"fmt"

	"github.com/vango-dev/vbind/pkg/ast"
	"github.com/vango-dev/vbind/pkg/reactive"
)

// State is the lifecycle position of a binding.
type State uint8

const (
	StateUnbound State = iota
	StateBinding
	StateBound
	StateUnbinding
)

func (s State) String() string {
	switch s {
	case StateUnbound:
		return "unbound"
	case StateBinding:
		return "binding"
	case StateBound:
		return "bound"
	case StateUnbinding:
		return "unbinding"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// UpdateFunc writes a value to one side of a binding.
type UpdateFunc func(value any, flags reactive.Flags) error

// Accessor is a target that is not a property of an object, such as a
// terminal line or a DOM attribute.
type Accessor interface {
	GetValue() any
	SetValue(value any, flags reactive.Flags)
}

// Binding keeps Target[TargetProperty] in sync with Expression evaluated in
// the bound scope. Its subscriptions are rebuilt on every flush.
type Binding struct {
	reactive.ChangeLink
	connectable

	Expression     ast.Expr
	Target         any
	TargetProperty string

	mode    Mode
	state   State
	scope   *Scope
	changes *reactive.ChangeSet

	targetObserver *reactive.PropertyObserver
	targetSub      *targetSubscriber
	updateTarget   UpdateFunc
	updateSource   UpdateFunc
}

var (
	_ Host                   = (*Binding)(nil)
	_ reactive.ChangeTracker = (*Binding)(nil)
)

// NewBinding creates an unbound binding. Changes it observes are batched
// through the change set of observers; with no change set they flush
// synchronously.
func NewBinding(expr ast.Expr, target any, property string, mode Mode, observers *reactive.ObserverLocator, locator Locator, opts ...Option) *Binding {
	b := &Binding{
		Expression:     expr,
		Target:         target,
		TargetProperty: property,
		mode:           mode,
	}
	b.init(b, observers, locator, buildConfig(opts))
	if observers != nil {
		b.changes = observers.ChangeSet()
	}
	b.updateTarget = b.writeTarget
	b.updateSource = b.writeSource
	b.targetSub = &targetSubscriber{id: reactive.NextID(), binding: b}
	return b
}

// Mode returns the binding mode.
func (b *Binding) Mode() Mode { return b.mode }

// SetMode changes the mode. It takes effect at the next Bind; binding
// behaviors use it during bind.
func (b *Binding) SetMode(m Mode) { b.mode = m }

// State returns the lifecycle state.
func (b *Binding) State() State { return b.state }

// IsBound reports whether the binding is bound.
func (b *Binding) IsBound() bool { return b.state == StateBound }

// Scope returns the bound scope, or nil.
func (b *Binding) Scope() *Scope { return b.scope }

// Bind binds to scope: it applies behaviors, writes the initial value to the
// target and subscribes according to the mode. Binding again to the same
// scope is a no-op; to another scope it unbinds first. When Bind fails after
// acquiring resources the binding stays bound so Unbind can release them.
func (b *Binding) Bind(flags reactive.Flags, scope *Scope) error {
	if b.state == StateBound {
		if b.scope == scope {
			return nil
		}
		if err := b.Unbind(flags); err != nil {
			return err
		}
	}
	flags |= reactive.FromBind
	b.state = StateBinding
	b.scope = scope

	err := b.bind(flags, scope)
	b.state = StateBound
	if err == nil {
		b.logger.Debug("binding bound",
			"expr", b.Expression.String(),
			"mode", b.mode.String(),
			"observers", b.ObservedCount())
	}
	return err
}

func (b *Binding) bind(flags reactive.Flags, scope *Scope) error {
	if err := BindBehaviors(flags, scope, b, b.Expression); err != nil {
		return err
	}
	if !b.mode.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidBindingMode, b.mode)
	}
	if b.mode.updatesTarget() {
		value, err := Evaluate(flags, scope, b.locator, b.Expression)
		if err != nil {
			return err
		}
		if err := b.UpdateTarget(value, flags); err != nil {
			return err
		}
	}
	if b.mode.observesSource() {
		if err := Connect(flags, scope, b, b.Expression); err != nil {
			return err
		}
	}
	if b.mode.observesTarget() {
		b.observeTarget()
	}
	return nil
}

// Unbind releases every subscription and unapplies behaviors. Unbinding an
// unbound binding is a no-op.
func (b *Binding) Unbind(flags reactive.Flags) error {
	if b.state != StateBound {
		return nil
	}
	b.state = StateUnbinding
	err := UnbindBehaviors(flags|reactive.FromUnbind, b.scope, b, b.Expression)
	b.unobserve()
	if b.targetObserver != nil {
		b.targetObserver.Unsubscribe(b.targetSub)
		b.targetObserver = nil
	}
	b.scope = nil
	b.state = StateUnbound
	return err
}

// HandleChange is called by the property observers the binding subscribed
// to. The binding joins the change set and re-evaluates on the next flush.
func (b *Binding) HandleChange(_, _ any, flags reactive.Flags) {
	b.changed(flags)
}

// HandleCollectionChange is called by the array observers the binding
// subscribed to.
func (b *Binding) HandleCollectionChange(_ string, _ []any, flags reactive.Flags) {
	b.changed(flags)
}

func (b *Binding) changed(flags reactive.Flags) {
	if b.state != StateBound {
		return
	}
	if !b.mode.observesSource() && !flags.Has(reactive.FromSignal) {
		return
	}
	if b.changes == nil {
		if err := b.FlushChanges(); err != nil {
			b.logger.Error("binding flush failed", "expr", b.Expression.String(), "error", err)
		}
		return
	}
	b.changes.Add(b)
}

// FlushChanges re-evaluates the expression, updates the target and rebuilds
// the subscriptions.
func (b *Binding) FlushChanges() error {
	if b.state != StateBound {
		return nil
	}
	flags := reactive.FromFlushChanges
	value, err := Evaluate(flags, b.scope, b.locator, b.Expression)
	if err != nil {
		return err
	}
	if err := b.UpdateTarget(value, flags); err != nil {
		return err
	}
	if !b.mode.observesSource() {
		return nil
	}
	b.unobserve()
	return Connect(flags, b.scope, b, b.Expression)
}

// UpdateTarget writes value to the target through any interceptors.
func (b *Binding) UpdateTarget(value any, flags reactive.Flags) error {
	return b.updateTarget(value, flags|reactive.UpdateTargetInstance)
}

// UpdateSource assigns value through the expression, as a from-view binding
// does when the target changes.
func (b *Binding) UpdateSource(value any, flags reactive.Flags) error {
	if b.state != StateBound {
		return ErrNotBound
	}
	return b.updateSource(value, flags|reactive.UpdateSourceExpression)
}

// InterceptTarget wraps the function that writes the target. The returned
// function restores the previous writer.
func (b *Binding) InterceptTarget(wrap func(next UpdateFunc) UpdateFunc) (restore func()) {
	prev := b.updateTarget
	b.updateTarget = wrap(prev)
	return func() { b.updateTarget = prev }
}

// InterceptSource wraps the function that writes the source.
func (b *Binding) InterceptSource(wrap func(next UpdateFunc) UpdateFunc) (restore func()) {
	prev := b.updateSource
	b.updateSource = wrap(prev)
	return func() { b.updateSource = prev }
}

func (b *Binding) writeTarget(value any, flags reactive.Flags) error {
	if acc, ok := b.Target.(Accessor); ok {
		acc.SetValue(value, flags)
		return nil
	}
	setProperty(b.Target, b.TargetProperty, value, flags)
	return nil
}

func (b *Binding) writeSource(value any, flags reactive.Flags) error {
	_, err := Assign(flags, b.scope, b.locator, b.Expression, value)
	return err
}

func (b *Binding) observeTarget() {
	if b.observers == nil || b.targetObserver != nil {
		return
	}
	po, ok := b.observers.PropertyObserver(b.Target, b.TargetProperty)
	if !ok {
		return
	}
	b.targetObserver = po
	po.Subscribe(b.targetSub)
}

// targetSubscriber carries target changes back to the source of a
// from-view binding.
type targetSubscriber struct {
	id      uint64
	binding *Binding
}

func (t *targetSubscriber) ID() uint64 { return t.id }

func (t *targetSubscriber) HandleChange(newValue, _ any, flags reactive.Flags) {
	b := t.binding
	if b.state != StateBound || flags.Has(reactive.UpdateTargetInstance) {
		return
	}
	current, err := Evaluate(flags, b.scope, b.locator, b.Expression)
	if err == nil && reactive.StrictEquals(current, newValue) {
		return
	}
	if err := b.UpdateSource(newValue, flags); err != nil {
		b.logger.Error("binding source update failed", "expr", b.Expression.String(), "error", err)
	}
}
