package vbind

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gofrs/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/vango-dev/vbind/pkg/ast"
	"github.com/vango-dev/vbind/pkg/binding"
	"github.com/vango-dev/vbind/pkg/reactive"
)

// ErrStarted is returned by Mount after Start and by a second Start.
var ErrStarted = errors.New("vbind: app already started")

// =============================================================================
// App Type
// =============================================================================

// App wires the binding runtime together. All reactive work of an App runs
// on the goroutine that calls Run, or on the caller's goroutine before Run
// is started.
type App struct {
	id     uuid.UUID
	config Config
	logger *slog.Logger

	loop      *reactive.Loop
	changes   *reactive.ChangeSet
	observers *reactive.ObserverLocator
	scheduler *reactive.Scheduler
	registry  *binding.Registry
	signaler  *binding.Signaler
	root      *binding.Scope

	mu      sync.Mutex
	mounts  []mount
	started bool
	running atomic.Bool
	// inline serializes Do calls made while the loop is not running.
	inline sync.Mutex
}

type mount struct {
	view  *binding.View
	scope *binding.Scope
}

// New creates an App with the standard behaviors registered: the four mode
// behaviors, "signal" and "debounce".
func New(cfg Config) *App {
	cfg = cfg.withDefaults()

	id, err := uuid.NewV4()
	if err != nil {
		id = uuid.Nil
	}
	logger := cfg.Logger.With("app", id.String())

	a := &App{
		id:     id,
		config: cfg,
		logger: logger,
	}
	a.loop = reactive.NewLoop(
		reactive.WithLoopLogger(logger),
		reactive.WithDispatchBuffer(cfg.Loop.DispatchBuffer),
	)
	a.changes = reactive.NewChangeSet(a.loop,
		reactive.WithChangeSetLogger(logger),
		reactive.WithChangeSetMonitor(cfg.monitor()),
		reactive.WithErrorHandler(a.reportError),
	)
	a.observers = reactive.NewObserverLocator(a.changes)
	a.scheduler = reactive.NewScheduler(
		reactive.WithChangeSet(a.changes),
		reactive.WithSchedulerMonitor(cfg.monitor()),
		reactive.WithSchedulerLogger(logger),
		reactive.WithSchedulerErrorHandler(a.reportError),
	)

	a.signaler = binding.NewSignaler()
	a.registry = binding.NewRegistry()
	a.registry.RegisterSignaler(a.signaler)
	binding.RegisterStandardBehaviors(a.registry,
		binding.WithDebounceDelay(cfg.Debounce.Delay),
		binding.WithDebounceDispatch(a.loop.Dispatch),
		binding.WithDebounceLogger(logger),
	)
	a.root = binding.NewScope(cfg.BindingContext)
	return a
}

func (a *App) reportError(err error) {
	if a.config.OnError != nil {
		a.config.OnError(err)
		return
	}
	a.logger.Error("binding update failed", "error", err)
}

// =============================================================================
// Accessors
// =============================================================================

// ID returns the unique id of this App instance.
func (a *App) ID() uuid.UUID { return a.id }

func (a *App) Logger() *slog.Logger                 { return a.logger }
func (a *App) Loop() *reactive.Loop                 { return a.loop }
func (a *App) ChangeSet() *reactive.ChangeSet       { return a.changes }
func (a *App) Observers() *reactive.ObserverLocator { return a.observers }
func (a *App) Scheduler() *reactive.Scheduler       { return a.scheduler }
func (a *App) Registry() *binding.Registry          { return a.registry }
func (a *App) Signaler() *binding.Signaler          { return a.signaler }

// Scope returns the root scope built from Config.BindingContext.
func (a *App) Scope() *binding.Scope { return a.root }

// =============================================================================
// Resources
// =============================================================================

// RegisterConverter registers a value converter. c should implement
// binding.ToViewConverter, binding.FromViewConverter or both; *Converter does.
func (a *App) RegisterConverter(name string, c any) {
	a.registry.RegisterConverter(name, c)
}

// RegisterBehavior registers a binding behavior.
func (a *App) RegisterBehavior(name string, b binding.Behavior) {
	a.registry.RegisterBehavior(name, b)
}

// Signal re-evaluates every binding listening to name and returns how many
// there were.
func (a *App) Signal(name string) int {
	return a.signaler.DispatchSignal(name, reactive.None)
}

// =============================================================================
// Factories
// =============================================================================

// NewBinding creates a binding that uses the App's observers and registry.
func (a *App) NewBinding(expr ast.Expr, target any, property string, mode Mode) *binding.Binding {
	return binding.NewBinding(expr, target, property, mode, a.observers, a.registry, binding.WithLogger(a.logger))
}

// NewLetBinding creates a let binding.
func (a *App) NewLetBinding(expr ast.Expr, property string, toViewModel bool) *binding.LetBinding {
	return binding.NewLetBinding(expr, property, toViewModel, a.observers, a.registry, binding.WithLogger(a.logger))
}

// NewListener creates an event listener.
func (a *App) NewListener(expr ast.Expr, target binding.EventTarget, event string, preventDefault bool) *binding.Listener {
	return binding.NewListener(expr, target, event, preventDefault, a.registry, binding.WithLogger(a.logger))
}

// NewView creates a view driven by the App's scheduler.
func (a *App) NewView(name string, hooks ...ViewHooks) *binding.View {
	opts := []binding.ViewOption{binding.WithViewLogger(a.logger)}
	if len(hooks) > 0 {
		opts = append(opts, binding.WithViewHooks(hooks[0]))
	}
	return binding.NewView(name, a.scheduler, opts...)
}

// =============================================================================
// Start and Stop Tasks
// =============================================================================

// Mount registers view to be bound to scope and attached by Start. A nil
// scope means the root scope.
func (a *App) Mount(view *binding.View, scope *binding.Scope) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return ErrStarted
	}
	if scope == nil {
		scope = a.root
	}
	a.mounts = append(a.mounts, mount{view: view, scope: scope})
	return nil
}

// Start binds and attaches every mounted view, in mount order, then flushes
// pending changes. The first bind error stops the start task; views bound
// before it stay bound until Stop.
func (a *App) Start() error {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return ErrStarted
	}
	a.started = true
	mounts := append([]mount(nil), a.mounts...)
	a.mu.Unlock()

	flags := reactive.FromStartTask
	for _, m := range mounts {
		if err := m.view.Bind(flags, m.scope); err != nil {
			return fmt.Errorf("start view %q: %w", m.view.Name, err)
		}
		m.view.Attach(flags)
	}
	a.logger.Debug("app started", "views", len(mounts))
	return a.Flush()
}

// Stop detaches and unbinds every mounted view, last mounted first. It
// continues past failures and returns them aggregated.
func (a *App) Stop() error {
	a.mu.Lock()
	if !a.started {
		a.mu.Unlock()
		return nil
	}
	a.started = false
	mounts := append([]mount(nil), a.mounts...)
	a.mu.Unlock()

	flags := reactive.FromStopTask
	var result *multierror.Error
	for i := len(mounts) - 1; i >= 0; i-- {
		v := mounts[i].view
		v.Detach(flags)
		if err := v.Unbind(flags); err != nil {
			result = multierror.Append(result, fmt.Errorf("stop view %q: %w", v.Name, err))
		}
	}
	a.logger.Debug("app stopped", "views", len(mounts))
	return result.ErrorOrNil()
}

// IsStarted reports whether Start has run without a matching Stop.
func (a *App) IsStarted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.started
}

// =============================================================================
// Loop
// =============================================================================

// Run processes dispatched tasks and scheduled flushes until ctx is done.
func (a *App) Run(ctx context.Context) error {
	a.inline.Lock()
	started := a.running.CompareAndSwap(false, true)
	a.inline.Unlock()
	if !started {
		return errors.New("vbind: app loop already running")
	}
	defer a.running.Store(false)
	return a.loop.Run(ctx)
}

// Flush runs pending microtasks, including scheduled change-set drains,
// then drains the change set. Use it when the loop is not running.
func (a *App) Flush() error {
	a.loop.Drain()
	return a.changes.FlushChanges()
}

// Do runs fn on the loop goroutine and waits for it, or runs it directly
// and flushes when the loop is not running. Inline calls run one at a time.
// It must not be called from a task running on the loop.
func (a *App) Do(ctx context.Context, fn func()) error {
	a.inline.Lock()
	if !a.running.Load() {
		defer a.inline.Unlock()
		fn()
		return a.Flush()
	}
	a.inline.Unlock()
	done := make(chan struct{})
	if !a.loop.Dispatch(func() {
		defer close(done)
		fn()
	}) {
		return errors.New("vbind: dispatch queue full")
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Eval evaluates expr against scope, or the root scope when scope is nil,
// with the App's converters.
func (a *App) Eval(expr ast.Expr, scope *binding.Scope) (any, error) {
	if scope == nil {
		scope = a.root
	}
	return binding.Evaluate(reactive.None, scope, a.registry, expr)
}
