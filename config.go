package vbind

import (
	"log/slog"
	"time"

	"github.com/vango-dev/vbind/pkg/reactive"
)

// =============================================================================
// Configuration Types
// =============================================================================

// Config is the App configuration. The zero value is usable.
type Config struct {
	// BindingContext is the root binding context. Views mounted without a
	// scope bind to a scope built from it. Default: an empty *Object.
	BindingContext any

	// Loop configures the event loop.
	Loop LoopConfig

	// Debounce configures the "debounce" binding behavior.
	Debounce DebounceConfig

	// Monitors observe change-set and phase drains, for example a
	// metrics.Monitor or a tracing.Monitor.
	Monitors []reactive.Monitor

	// OnError receives errors that have no caller to return to: change-set
	// drains scheduled on the loop and failures during the flushChanges
	// phase. If nil, they are logged at Error.
	OnError func(error)

	// Logger is the structured logger for the App and everything it
	// creates. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// LoopConfig configures the event loop.
type LoopConfig struct {
	// DispatchBuffer is how many macrotasks can wait before Dispatch
	// starts discarding them.
	// Default: 256.
	DispatchBuffer int
}

// DebounceConfig configures the debounce behavior.
type DebounceConfig struct {
	// Delay applies when the behavior is used without an argument.
	// Default: 200ms.
	Delay time.Duration
}

// DefaultLoopConfig returns the default loop configuration.
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{DispatchBuffer: 256}
}

// DefaultDebounceConfig returns the default debounce configuration.
func DefaultDebounceConfig() DebounceConfig {
	return DebounceConfig{Delay: 200 * time.Millisecond}
}

func (c Config) withDefaults() Config {
	if c.BindingContext == nil {
		c.BindingContext = reactive.NewObject()
	}
	if c.Loop.DispatchBuffer <= 0 {
		c.Loop.DispatchBuffer = DefaultLoopConfig().DispatchBuffer
	}
	if c.Debounce.Delay <= 0 {
		c.Debounce.Delay = DefaultDebounceConfig().Delay
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

func (c Config) monitor() reactive.Monitor {
	return reactive.Monitors(c.Monitors)
}
