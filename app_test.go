package vbind

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/vango-dev/vbind/pkg/ast"
	"github.com/vango-dev/vbind/pkg/binding"
	"github.com/vango-dev/vbind/pkg/reactive"
)

func testConfig() Config {
	return Config{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

type countingMonitor struct {
	flushes int
	phases  []reactive.Phase
}

func (m *countingMonitor) ChangeSetFlushed(time.Time, int, error) { m.flushes++ }
func (m *countingMonitor) PhaseDrained(p reactive.Phase, _ time.Time, _ int) {
	m.phases = append(m.phases, p)
}

func TestNew_Defaults(t *testing.T) {
	app := New(testConfig())

	if app.ID().IsNil() {
		t.Errorf("app id is nil")
	}
	if _, ok := app.Scope().BindingContext.(*reactive.Object); !ok {
		t.Errorf("root binding context = %T, want *reactive.Object", app.Scope().BindingContext)
	}
	want := []string{"debounce", "fromView", "oneTime", "signal", "toView", "twoWay"}
	if got := app.Registry().Behaviors(); !reflect.DeepEqual(got, want) {
		t.Errorf("behaviors = %v, want %v", got, want)
	}
	if _, ok := app.Registry().Get(binding.SignalerKey); !ok {
		t.Errorf("signaler not registered")
	}
}

func TestApp_StartBindsMountedViews(t *testing.T) {
	monitor := &countingMonitor{}
	cfg := testConfig()
	cfg.Monitors = []reactive.Monitor{monitor}
	cfg.BindingContext = ObjectFrom(map[string]any{"first": "Ada", "last": "King"})
	app := New(cfg)

	label := NewObject()
	var log []string
	view := app.NewView("greeting", ViewHooks{
		Attached: func(v *View, flags Flags) {
			if flags.Has(reactive.FromStartTask) {
				log = append(log, "attached:"+v.Name)
			}
		},
		Detached: func(v *View, flags Flags) {
			if flags.Has(reactive.FromStopTask) {
				log = append(log, "detached:"+v.Name)
			}
		},
	})
	expr := &ast.Interpolation{Parts: []string{"Hello ", " ", ""}, Expressions: []ast.Expr{ast.Scope("first"), ast.Scope("last")}}
	view.Add(app.NewBinding(expr, label, "text", ToView))

	if err := app.Mount(view, nil); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if err := app.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if label.Get("text") != "Hello Ada King" {
		t.Errorf("text = %v", label.Get("text"))
	}
	if err := app.Mount(app.NewView("late"), nil); !errors.Is(err, ErrStarted) {
		t.Errorf("Mount after Start: err = %v, want ErrStarted", err)
	}

	app.Scope().BindingContext.(*reactive.Object).Set("first", "Grace")
	if err := app.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if label.Get("text") != "Hello Grace King" {
		t.Errorf("text = %v after flush", label.Get("text"))
	}
	if monitor.flushes == 0 {
		t.Errorf("monitor saw no change-set drains")
	}

	if err := app.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if view.IsBound() {
		t.Errorf("view still bound after Stop")
	}
	if !reflect.DeepEqual(log, []string{"attached:greeting", "detached:greeting"}) {
		t.Errorf("hooks = %v", log)
	}
	if len(monitor.phases) == 0 {
		t.Errorf("monitor saw no phase drains")
	}
}

func TestApp_StartReportsBindErrors(t *testing.T) {
	app := New(testConfig())
	view := app.NewView("broken")
	view.Add(app.NewBinding(&ast.ValueConverter{Expression: ast.Scope("v"), Name: "missing"}, NewObject(), "x", ToView))
	if err := app.Mount(view, nil); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	err := app.Start()
	if !errors.Is(err, binding.ErrUnresolvedConverter) {
		t.Fatalf("Start err = %v, want ErrUnresolvedConverter", err)
	}
	if err := app.Start(); !errors.Is(err, ErrStarted) {
		t.Errorf("second Start err = %v, want ErrStarted", err)
	}
	if err := app.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
}

func TestApp_FlushErrorsGoToOnError(t *testing.T) {
	var reported []error
	cfg := testConfig()
	cfg.OnError = func(err error) { reported = append(reported, err) }
	src := ObjectFrom(map[string]any{"v": 1})
	cfg.BindingContext = src
	app := New(cfg)

	fail := false
	app.RegisterConverter("flaky", &Converter{To: func(v any, _ ...any) (any, error) {
		if fail {
			return nil, errors.New("flaky")
		}
		return v, nil
	}})
	view := app.NewView("v")
	view.Add(app.NewBinding(&ast.ValueConverter{Expression: ast.Scope("v"), Name: "flaky"}, NewObject(), "x", ToView))
	if err := app.Mount(view, nil); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if err := app.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	fail = true
	src.Set("v", 2)
	app.Loop().Drain()
	if len(reported) != 1 {
		t.Errorf("reported %d errors, want 1", len(reported))
	}
}

func TestApp_SignalAndEval(t *testing.T) {
	cfg := testConfig()
	cfg.BindingContext = ObjectFrom(map[string]any{"n": 2})
	app := New(cfg)

	got, err := app.Eval(&ast.Binary{Operation: "*", Left: ast.Scope("n"), Right: ast.Literal(21)}, nil)
	if err != nil || got != float64(42) {
		t.Errorf("Eval = %v, %v; want 42", got, err)
	}

	stamp := 1
	app.RegisterConverter("stamp", &Converter{
		To:          func(any, ...any) (any, error) { return stamp, nil },
		SignalNames: []string{"refresh"},
	})
	target := NewObject()
	view := app.NewView("stamped")
	view.Add(app.NewBinding(&ast.ValueConverter{Expression: ast.Literal(nil), Name: "stamp"}, target, "value", ToView))
	if err := app.Mount(view, nil); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if err := app.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	stamp = 2
	if n := app.Signal("refresh"); n != 1 {
		t.Errorf("signal reached %d bindings, want 1", n)
	}
	if err := app.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if target.Get("value") != float64(2) {
		t.Errorf("value = %v, want 2", target.Get("value"))
	}
}

func TestApp_DoRunsOnLoop(t *testing.T) {
	cfg := testConfig()
	src := ObjectFrom(map[string]any{"v": 1})
	cfg.BindingContext = src
	app := New(cfg)
	target := NewObject()
	view := app.NewView("v")
	view.Add(app.NewBinding(ast.Scope("v"), target, "value", ToView))
	if err := app.Mount(view, nil); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if err := app.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// without a running loop Do runs inline and flushes
	if err := app.Do(context.Background(), func() { src.Set("v", 2) }); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if target.Get("value") != float64(2) {
		t.Fatalf("value = %v, want 2", target.Get("value"))
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	deadline := time.Now().Add(time.Second)
	for !app.running.Load() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	var seen any
	if err := app.Do(ctx, func() { src.Set("v", 3) }); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if err := app.Do(ctx, func() { seen = target.Get("value") }); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if seen != float64(3) {
		t.Errorf("value seen on loop = %v, want 3", seen)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run returned %v", err)
	}
}

func TestApp_DoSerializesWithoutLoop(t *testing.T) {
	cfg := testConfig()
	src := ObjectFrom(map[string]any{"n": 0})
	cfg.BindingContext = src
	app := New(cfg)
	target := NewObject()
	view := app.NewView("counter")
	view.Add(app.NewBinding(ast.Scope("n"), target, "value", ToView))
	if err := app.Mount(view, nil); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if err := app.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	const workers, rounds = 8, 50
	calls := 0
	var wg sync.WaitGroup
	errs := make(chan error, workers*rounds)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				errs <- app.Do(context.Background(), func() {
					calls++
					src.Set("n", reactive.ToNumber(src.Get("n"))+1)
				})
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Do: %v", err)
		}
	}

	if calls != workers*rounds {
		t.Errorf("calls = %d, want %d", calls, workers*rounds)
	}
	if got := target.Get("value"); got != float64(workers*rounds) {
		t.Errorf("value = %v, want %d", got, workers*rounds)
	}
}
