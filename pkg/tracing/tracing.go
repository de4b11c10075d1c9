// Package tracing exports binding runtime activity as OpenTelemetry spans.
//
// A Monitor is a reactive.Monitor that emits one span per change-set drain
// and one per lifecycle phase drain, timed from the drain start:
//
//	app := vbind.New(vbind.Config{
//	    Monitors: []reactive.Monitor{tracing.New(tracing.WithTracerName("checkout"))},
//	})
//
// The tracer uses the global OpenTelemetry tracer provider unless
// WithTracerProvider is given. Configure it in main() before creating the
// App:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/vbind/pkg/reactive"
)

// Default tracer name.
const defaultTracerName = "vbind"

// Config configures the tracing monitor.
type Config struct {
	// TracerName is the name of the tracer (default: "vbind").
	TracerName string

	// TracerProvider supplies the tracer.
	// Default: otel.GetTracerProvider()
	TracerProvider trace.TracerProvider

	// Attributes are added to every span, e.g. the App id.
	Attributes []attribute.KeyValue

	// Context is the parent of every span (default: context.Background()).
	Context context.Context
}

// Option configures the tracing monitor.
type Option func(*Config)

// WithTracerName sets the tracer name.
func WithTracerName(name string) Option {
	return func(c *Config) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Config) {
		c.TracerProvider = tp
	}
}

// WithAttributes adds attributes to every span.
func WithAttributes(attrs ...attribute.KeyValue) Option {
	return func(c *Config) {
		c.Attributes = append(c.Attributes, attrs...)
	}
}

// WithContext sets the parent context of every span.
func WithContext(ctx context.Context) Option {
	return func(c *Config) {
		c.Context = ctx
	}
}

func defaultConfig() Config {
	return Config{
		TracerName: defaultTracerName,
		Context:    context.Background(),
	}
}

// Monitor records drains as spans.
type Monitor struct {
	config Config
	tracer trace.Tracer
}

var _ reactive.Monitor = (*Monitor)(nil)

// New creates a tracing monitor.
func New(opts ...Option) *Monitor {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.TracerProvider == nil {
		config.TracerProvider = otel.GetTracerProvider()
	}
	return &Monitor{
		config: config,
		tracer: config.TracerProvider.Tracer(config.TracerName),
	}
}

// ChangeSetFlushed implements reactive.Monitor. A failed drain records the
// error and sets the span status to Error.
func (m *Monitor) ChangeSetFlushed(start time.Time, trackers int, err error) {
	span := m.start("vbind.flushChanges", start, attribute.Int("vbind.trackers", trackers))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// PhaseDrained implements reactive.Monitor.
func (m *Monitor) PhaseDrained(phase reactive.Phase, start time.Time, items int) {
	span := m.start("vbind.phase."+phase.String(), start,
		attribute.String("vbind.phase", phase.String()),
		attribute.Int("vbind.items", items),
	)
	span.SetStatus(codes.Ok, "")
	span.End()
}

func (m *Monitor) start(name string, start time.Time, attrs ...attribute.KeyValue) trace.Span {
	attrs = append(attrs, m.config.Attributes...)
	_, span := m.tracer.Start(m.config.Context, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(start),
	)
	return span
}
