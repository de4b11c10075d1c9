package binding

import (
	"sync"

	"github.com/vango-dev/vbind/pkg/ast"
	"github.com/vango-dev/vbind/pkg/reactive"
)

// EventTarget delivers named events to handlers.
type EventTarget interface {
	AddEventListener(event string, handler func(event any)) (remove func())
}

// DefaultPreventer is implemented by events whose default action can be
// cancelled.
type DefaultPreventer interface {
	PreventDefault()
}

// Event is a plain event value for targets that have no richer type.
type Event struct {
	Type   string
	Detail any

	prevented bool
}

func (e *Event) PreventDefault()        { e.prevented = true }
func (e *Event) DefaultPrevented() bool { return e.prevented }

// Emitter is an in-process EventTarget.
type Emitter struct {
	mu       sync.Mutex
	nextID   uint64
	handlers map[string][]emitterHandler
}

type emitterHandler struct {
	id uint64
	fn func(any)
}

// NewEmitter creates an emitter with no listeners.
func NewEmitter() *Emitter {
	return &Emitter{handlers: make(map[string][]emitterHandler)}
}

// AddEventListener registers handler for event. The returned function
// removes it.
func (e *Emitter) AddEventListener(event string, handler func(any)) func() {
	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.handlers[event] = append(e.handlers[event], emitterHandler{id: id, fn: handler})
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		hs := e.handlers[event]
		for i, h := range hs {
			if h.id == id {
				e.handlers[event] = append(hs[:i], hs[i+1:]...)
				break
			}
		}
		if len(e.handlers[event]) == 0 {
			delete(e.handlers, event)
		}
	}
}

// Emit calls every handler of event with payload and returns how many ran.
func (e *Emitter) Emit(event string, payload any) int {
	e.mu.Lock()
	hs := make([]emitterHandler, len(e.handlers[event]))
	copy(hs, e.handlers[event])
	e.mu.Unlock()

	for _, h := range hs {
		h.fn(payload)
	}
	return len(hs)
}

// ListenerCount returns how many handlers event has.
func (e *Emitter) ListenerCount(event string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.handlers[event])
}

// Listener evaluates Expression each time Target emits TargetEvent. The
// event is visible to the expression as `$event`.
type Listener struct {
	connectable

	Expression     ast.Expr
	Target         EventTarget
	TargetEvent    string
	PreventDefault bool

	state  State
	scope  *Scope
	remove func()
	handle UpdateFunc
}

var _ Host = (*Listener)(nil)

// NewListener creates an unbound listener. With preventDefault set, an
// event whose handler does not return true has its default prevented.
func NewListener(expr ast.Expr, target EventTarget, event string, preventDefault bool, locator Locator, opts ...Option) *Listener {
	l := &Listener{
		Expression:     expr,
		Target:         target,
		TargetEvent:    event,
		PreventDefault: preventDefault,
	}
	l.init(l, nil, locator, buildConfig(opts))
	l.handle = func(event any, flags reactive.Flags) error {
		_, err := l.callSource(event, flags)
		return err
	}
	return l
}

func (l *Listener) State() State  { return l.state }
func (l *Listener) IsBound() bool { return l.state == StateBound }

// CallSource evaluates the expression for event and returns its result.
func (l *Listener) CallSource(event any) (any, error) {
	if l.state != StateBound {
		return nil, ErrNotBound
	}
	return l.callSource(event, reactive.None)
}

func (l *Listener) callSource(event any, flags reactive.Flags) (any, error) {
	values := l.scope.OverrideContext.Values
	values.Set("$event", event)
	result, err := Evaluate(flags|reactive.MustEvaluate|reactive.FromEvent, l.scope, l.locator, l.Expression)
	values.Delete("$event")
	if err != nil {
		return nil, err
	}
	if result != true && l.PreventDefault {
		if p, ok := event.(DefaultPreventer); ok {
			p.PreventDefault()
		}
	}
	return result, nil
}

func (l *Listener) handleEvent(event any) {
	if l.state != StateBound {
		return
	}
	if err := l.handle(event, reactive.FromEvent); err != nil {
		l.logger.Error("listener failed", "event", l.TargetEvent, "expr", l.Expression.String(), "error", err)
	}
}

// Bind applies behaviors and starts listening.
func (l *Listener) Bind(flags reactive.Flags, scope *Scope) error {
	if l.state == StateBound {
		if l.scope == scope {
			return nil
		}
		if err := l.Unbind(flags); err != nil {
			return err
		}
	}
	l.state = StateBinding
	l.scope = scope
	err := BindBehaviors(flags|reactive.FromBind, scope, l, l.Expression)
	if l.Target != nil {
		l.remove = l.Target.AddEventListener(l.TargetEvent, l.handleEvent)
	}
	l.state = StateBound
	return err
}

// Unbind stops listening and unapplies behaviors.
func (l *Listener) Unbind(flags reactive.Flags) error {
	if l.state != StateBound {
		return nil
	}
	l.state = StateUnbinding
	err := UnbindBehaviors(flags|reactive.FromUnbind, l.scope, l, l.Expression)
	if l.remove != nil {
		l.remove()
		l.remove = nil
	}
	l.scope = nil
	l.state = StateUnbound
	return err
}

// InterceptSource wraps the event handler, letting behaviors such as
// debounce delay or drop events.
func (l *Listener) InterceptSource(wrap func(next UpdateFunc) UpdateFunc) (restore func()) {
	prev := l.handle
	l.handle = wrap(prev)
	return func() { l.handle = prev }
}

// A listener observes nothing; these satisfy Host.
func (l *Listener) HandleChange(any, any, reactive.Flags)                {}
func (l *Listener) HandleCollectionChange(string, []any, reactive.Flags) {}
