package binding

import "log/slog"

// config holds options shared by the binding kinds.
type config struct {
	Logger *slog.Logger
}

// Option configures a Binding, LetBinding or Listener.
type Option func(*config)

// WithLogger sets the logger used for debug tracing and for errors that
// have no caller to return to.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.Logger = logger
	}
}

func buildConfig(opts []Option) config {
	cfg := config{Logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return cfg
}
