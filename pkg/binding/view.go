package binding

import (
	"log/slog"

	"github.com/hashicorp/go-multierror"

	"github.com/vango-dev/vbind/pkg/reactive"
)

// Bindable is anything a View binds to its scope.
type Bindable interface {
	Bind(flags reactive.Flags, scope *Scope) error
	Unbind(flags reactive.Flags) error
}

// ViewHooks are called from the scheduler phases a view goes through. Any
// hook may be nil.
type ViewHooks struct {
	Bound    func(v *View, flags reactive.Flags)
	Mount    func(v *View, flags reactive.Flags)
	Attached func(v *View, flags reactive.Flags)
	Unmount  func(v *View, flags reactive.Flags)
	Detached func(v *View, flags reactive.Flags)
	Unbound  func(v *View, flags reactive.Flags)
}

// ViewOption configures a View.
type ViewOption func(*View)

// WithViewHooks sets the lifecycle hooks of a view.
func WithViewHooks(h ViewHooks) ViewOption {
	return func(v *View) { v.hooks = h }
}

// WithViewLogger sets the logger of a view.
func WithViewLogger(logger *slog.Logger) ViewOption {
	return func(v *View) { v.logger = logger }
}

// View is a group of bindings and child views bound to one scope. Binding,
// attaching, detaching and unbinding a view tree each hold the matching
// scheduler phases open until the whole tree is done, so hooks run once per
// view after every binding in the tree has been processed. Hooks of one
// phase run in the order views entered it, parents before children.
type View struct {
	reactive.LifecycleNode

	Name string

	scheduler *reactive.Scheduler
	hooks     ViewHooks
	logger    *slog.Logger

	bindings []Bindable
	children []*View
	scope    *Scope
	bound    bool
	attached bool
}

// NewView creates an empty, unbound view.
func NewView(name string, scheduler *reactive.Scheduler, opts ...ViewOption) *View {
	v := &View{Name: name, scheduler: scheduler, logger: slog.Default()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Add appends bindings to the view.
func (v *View) Add(b ...Bindable) { v.bindings = append(v.bindings, b...) }

// AddChild appends a child view. Children share the parent's scope unless
// bound separately.
func (v *View) AddChild(c *View) { v.children = append(v.children, c) }

func (v *View) Bindings() []Bindable { return v.bindings }
func (v *View) Children() []*View    { return v.children }
func (v *View) Scope() *Scope        { return v.scope }
func (v *View) IsBound() bool        { return v.bound }
func (v *View) IsAttached() bool     { return v.attached }

// hold queues v into p unless it is already there and returns the release
// to call when v and its children are done with the phase.
func (v *View) hold(p reactive.Phase, flags reactive.Flags) (release func()) {
	if v.scheduler == nil || v.scheduler.IsQueued(v, p) {
		return func() {}
	}
	switch p {
	case reactive.PhaseFlushChanges:
		v.scheduler.QueueFlushChanges(v, flags)
		return v.scheduler.UnqueueFlushChanges
	case reactive.PhaseBound:
		v.scheduler.QueueBound(v, flags)
		return v.scheduler.UnqueueBound
	case reactive.PhaseMount:
		v.scheduler.QueueMount(v, flags)
		return v.scheduler.UnqueueMount
	case reactive.PhaseAttached:
		v.scheduler.QueueAttached(v, flags)
		return v.scheduler.UnqueueAttached
	case reactive.PhaseUnmount:
		v.scheduler.QueueUnmount(v, flags)
		return v.scheduler.UnqueueUnmount
	case reactive.PhaseDetached:
		v.scheduler.QueueDetached(v, flags)
		return v.scheduler.UnqueueDetached
	case reactive.PhaseUnbound:
		v.scheduler.QueueUnbound(v, flags)
		return v.scheduler.UnqueueUnbound
	}
	return func() {}
}

// Bind binds every binding, then every child, to scope. The first error
// stops the pass and is returned; what was bound before it stays bound.
func (v *View) Bind(flags reactive.Flags, scope *Scope) error {
	if v.bound {
		if v.scope == scope {
			return nil
		}
		if err := v.Unbind(flags); err != nil {
			return err
		}
	}
	flags |= reactive.FromBind
	// Released in reverse: changes made while binding drain before any
	// bound hook runs.
	releaseBound := v.hold(reactive.PhaseBound, flags)
	defer releaseBound()
	releaseFlush := v.hold(reactive.PhaseFlushChanges, flags)
	defer releaseFlush()

	v.scope = scope
	v.bound = true
	for _, b := range v.bindings {
		if err := b.Bind(flags, scope); err != nil {
			return err
		}
	}
	for _, c := range v.children {
		if err := c.Bind(flags, scope); err != nil {
			return err
		}
	}
	return nil
}

// Attach runs the mount and attached phases for the tree.
func (v *View) Attach(flags reactive.Flags) {
	if v.attached {
		return
	}
	releaseFlush := v.hold(reactive.PhaseFlushChanges, flags)
	releaseMount := v.hold(reactive.PhaseMount, flags)
	releaseAttached := v.hold(reactive.PhaseAttached, flags)
	v.attached = true
	for _, c := range v.children {
		c.Attach(flags)
	}
	releaseFlush()
	releaseMount()
	releaseAttached()
}

// Detach runs the unmount and detached phases for the tree.
func (v *View) Detach(flags reactive.Flags) {
	if !v.attached {
		return
	}
	releaseUnmount := v.hold(reactive.PhaseUnmount, flags)
	releaseDetached := v.hold(reactive.PhaseDetached, flags)
	v.attached = false
	for i := len(v.children) - 1; i >= 0; i-- {
		v.children[i].Detach(flags)
	}
	releaseUnmount()
	releaseDetached()
}

// Unbind unbinds children then bindings, last first. It continues past
// failures and returns them aggregated.
func (v *View) Unbind(flags reactive.Flags) error {
	if !v.bound {
		return nil
	}
	flags |= reactive.FromUnbind
	release := v.hold(reactive.PhaseUnbound, flags)
	defer release()

	var result *multierror.Error
	for i := len(v.children) - 1; i >= 0; i-- {
		if err := v.children[i].Unbind(flags); err != nil {
			result = multierror.Append(result, err)
		}
	}
	for i := len(v.bindings) - 1; i >= 0; i-- {
		if err := v.bindings[i].Unbind(flags); err != nil {
			result = multierror.Append(result, err)
		}
	}
	v.scope = nil
	v.bound = false
	return result.ErrorOrNil()
}

// Flush runs in the flushChanges phase, after the scheduler has drained the
// change set.
func (v *View) Flush(flags reactive.Flags) {
	v.logger.Debug("view lifecycle", "view", v.Name, "phase", "flushChanges", "flags", flags.String())
}

func (v *View) Bound(flags reactive.Flags)    { v.call(v.hooks.Bound, "bound", flags) }
func (v *View) Mount(flags reactive.Flags)    { v.call(v.hooks.Mount, "mount", flags) }
func (v *View) Attached(flags reactive.Flags) { v.call(v.hooks.Attached, "attached", flags) }
func (v *View) Unmount(flags reactive.Flags)  { v.call(v.hooks.Unmount, "unmount", flags) }
func (v *View) Detached(flags reactive.Flags) { v.call(v.hooks.Detached, "detached", flags) }
func (v *View) Unbound(flags reactive.Flags)  { v.call(v.hooks.Unbound, "unbound", flags) }

func (v *View) call(hook func(*View, reactive.Flags), phase string, flags reactive.Flags) {
	v.logger.Debug("view lifecycle", "view", v.Name, "phase", phase, "flags", flags.String())
	if hook != nil {
		hook(v, flags)
	}
}
