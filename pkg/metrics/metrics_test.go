package metrics

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/vango-dev/vbind"
	"github.com/vango-dev/vbind/pkg/ast"
	"github.com/vango-dev/vbind/pkg/reactive"
)

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func metricHistogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	if m.Histogram == nil {
		t.Fatal("expected histogram metric to have Histogram field")
	}
	return m.GetHistogram().GetSampleCount()
}

func TestMonitor_RecordsChangeSetDrains(t *testing.T) {
	m := New(WithRegistry(prometheus.NewRegistry()))
	start := time.Now()

	m.ChangeSetFlushed(start, 3, nil)
	m.ChangeSetFlushed(start, 2, errors.New("boom"))

	if got := metricCounterValue(t, m.flushesTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("flushes_total(success) = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.flushesTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("flushes_total(error) = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.trackersFlushed); got != 5 {
		t.Errorf("trackers_flushed_total = %v, want 5", got)
	}
	if got := metricHistogramCount(t, m.flushDuration); got != 2 {
		t.Errorf("flush_duration_seconds count = %d, want 2", got)
	}
	if got := metricHistogramCount(t, m.flushBatchSize); got != 2 {
		t.Errorf("flush_batch_size count = %d, want 2", got)
	}
}

func TestMonitor_RecordsPhases(t *testing.T) {
	m := New(WithRegistry(prometheus.NewRegistry()))
	m.PhaseDrained(reactive.PhaseBound, time.Now(), 4)
	m.PhaseDrained(reactive.PhaseBound, time.Now(), 1)

	if got := metricCounterValue(t, m.phaseDrains.WithLabelValues("bound")); got != 2 {
		t.Errorf("phase_drains_total(bound) = %v, want 2", got)
	}
	if got := metricCounterValue(t, m.phaseItems.WithLabelValues("bound")); got != 5 {
		t.Errorf("phase_items_total(bound) = %v, want 5", got)
	}
	if got := metricHistogramCount(t, m.phaseDuration.WithLabelValues("bound")); got != 2 {
		t.Errorf("phase_duration_seconds(bound) count = %d, want 2", got)
	}
}

func TestMonitor_Options(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(
		WithRegistry(reg),
		WithNamespace("ui"),
		WithSubsystem("bind"),
		WithConstLabels(prometheus.Labels{"app": "demo"}),
		WithBuckets([]float64{0.001, 0.01}),
	)
	m.ChangeSetFlushed(time.Now(), 1, nil)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() != "ui_bind_flushes_total" {
			continue
		}
		found = true
		labels := f.GetMetric()[0].GetLabel()
		if len(labels) != 2 || labels[0].GetName() != "app" || labels[0].GetValue() != "demo" {
			t.Errorf("labels = %v, want app=demo and status", labels)
		}
	}
	if !found {
		t.Errorf("ui_bind_flushes_total not registered")
	}
}

func TestMonitor_WithApp(t *testing.T) {
	m := New(WithRegistry(prometheus.NewRegistry()))
	source := vbind.ObjectFrom(map[string]any{"v": 1})
	app := vbind.New(vbind.Config{
		BindingContext: source,
		Monitors:       []reactive.Monitor{m},
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	view := app.NewView("v")
	view.Add(app.NewBinding(ast.Scope("v"), vbind.NewObject(), "value", vbind.ToView))
	if err := app.Mount(view, nil); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if err := app.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	source.Set("v", 2)
	if err := app.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if got := metricCounterValue(t, m.flushesTotal.WithLabelValues("success")); got < 1 {
		t.Errorf("flushes_total(success) = %v, want at least 1", got)
	}
	if got := metricCounterValue(t, m.phaseDrains.WithLabelValues("attached")); got != 1 {
		t.Errorf("phase_drains_total(attached) = %v, want 1", got)
	}
}
