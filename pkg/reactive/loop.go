package reactive

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
)

// LoopConfig configures a Loop.
type LoopConfig struct {
	// Logger receives task panics.
	Logger *slog.Logger

	// DispatchBuffer is the capacity of the dispatch channel.
	DispatchBuffer int
}

// LoopOption configures a Loop.
type LoopOption func(*LoopConfig)

// WithLoopLogger sets the logger.
func WithLoopLogger(logger *slog.Logger) LoopOption {
	return func(c *LoopConfig) {
		c.Logger = logger
	}
}

// WithDispatchBuffer sets the dispatch channel capacity.
func WithDispatchBuffer(n int) LoopOption {
	return func(c *LoopConfig) {
		c.DispatchBuffer = n
	}
}

func defaultLoopConfig() LoopConfig {
	return LoopConfig{
		Logger:         slog.Default(),
		DispatchBuffer: 256,
	}
}

// Loop is a single-goroutine task runner with two queues. Dispatched tasks
// are macrotasks: Run executes them one at a time. Posted tasks are
// microtasks: they run after the current macrotask, before the next one, in
// FIFO order, including microtasks posted by microtasks.
type Loop struct {
	config LoopConfig

	mu    sync.Mutex
	micro []func()

	dispatchCh chan func()
	wake       chan struct{}
}

// NewLoop creates a Loop.
func NewLoop(opts ...LoopOption) *Loop {
	config := defaultLoopConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.DispatchBuffer < 0 {
		config.DispatchBuffer = 0
	}
	return &Loop{
		config:     config,
		dispatchCh: make(chan func(), config.DispatchBuffer),
		wake:       make(chan struct{}, 1),
	}
}

// Post queues a microtask.
func (l *Loop) Post(task func()) {
	l.mu.Lock()
	l.micro = append(l.micro, task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Dispatch queues a macrotask without blocking. It reports false when the
// dispatch buffer is full and the task was discarded.
func (l *Loop) Dispatch(task func()) bool {
	select {
	case l.dispatchCh <- task:
		return true
	default:
		l.config.Logger.Warn("dispatch queue full, discarding task")
		return false
	}
}

// Pending returns the number of queued microtasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.micro)
}

// Drain runs microtasks until none are left and returns how many ran.
func (l *Loop) Drain() int {
	ran := 0
	for {
		l.mu.Lock()
		if len(l.micro) == 0 {
			l.mu.Unlock()
			return ran
		}
		task := l.micro[0]
		l.micro[0] = nil
		l.micro = l.micro[1:]
		l.mu.Unlock()

		l.execute(task)
		ran++
	}
}

// Run executes dispatched tasks and microtasks on the calling goroutine until
// ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.Drain()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case task := <-l.dispatchCh:
			l.execute(task)
		case <-l.wake:
		}
	}
}

func (l *Loop) execute(task func()) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			l.config.Logger.Error("loop task panic",
				"panic", r,
				"stack", string(stack))
		}
	}()
	task()
}
