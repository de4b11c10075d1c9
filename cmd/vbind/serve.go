package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/vbind"
	"github.com/vango-dev/vbind/internal/config"
	verrors "github.com/vango-dev/vbind/internal/errors"
	"github.com/vango-dev/vbind/pkg/inspect"
	"github.com/vango-dev/vbind/pkg/metrics"
	"github.com/vango-dev/vbind/pkg/reactive"
	"github.com/vango-dev/vbind/pkg/tracing"
)

func serveCmd(e *env) *cobra.Command {
	var (
		scopeFile  string
		snapshotID string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a binding runtime with the inspector API",
		Long: `Run a vbind App on its event loop and serve the inspector.

Routes:
  GET  /healthz          liveness
  GET  /events           WebSocket stream of flush, phase and signal events
  GET  /metrics          Prometheus metrics
  GET  /scope            root binding context as YAML
  POST /eval             evaluate a JSON expression tree
  POST /signals/{name}   dispatch a signal
  GET  /snapshots        list stored snapshots
  POST /snapshots        snapshot the root binding context

Examples:
  vbind serve
  vbind serve --addr=0.0.0.0:7331 --scope scope.yaml
  VBIND_STORE_KIND=s3 VBIND_STORE_BUCKET=scopes vbind serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, e, scopeFile, snapshotID)
		},
	}

	cmd.Flags().String("addr", config.DefaultAddr, "Address to listen on")
	cmd.Flags().String("store", "disk", "Snapshot store kind (disk or s3)")
	cmd.Flags().String("store-dir", config.DefaultStoreDir, "Disk snapshot directory")
	cmd.Flags().String("bucket", "", "S3 snapshot bucket")
	cmd.Flags().String("metrics-namespace", "vbind", "Prometheus metrics namespace")
	cmd.Flags().Duration("debounce", vbind.DefaultDebounceConfig().Delay, "Default debounce delay")
	cmd.Flags().StringVarP(&scopeFile, "scope", "s", "", "Initial scope document (YAML or JSON)")
	cmd.Flags().StringVar(&snapshotID, "snapshot", "", "Initial scope from a stored snapshot")
	cmd.MarkFlagsMutuallyExclusive("scope", "snapshot")

	return cmd
}

func runServe(cmd *cobra.Command, e *env, scopeFile, snapshotID string) error {
	out := cmd.OutOrStdout()
	cfg := e.config

	scope, err := loadScope(cmd, e, scopeFile, snapshotID)
	if err != nil {
		return err
	}
	store, err := e.openStore(cmd.Context())
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	hub := inspect.NewHub(e.logger)

	appConfig := cfg.AppConfig()
	appConfig.BindingContext = scope
	appConfig.Logger = e.logger
	appConfig.Monitors = []reactive.Monitor{
		metrics.New(metrics.WithNamespace(cfg.Metrics.Namespace), metrics.WithRegistry(registry)),
		tracing.New(),
		hub,
	}
	app := vbind.New(appConfig)
	if err := app.Start(); err != nil {
		return err
	}

	server := inspect.New(app, hub,
		inspect.WithLogger(e.logger),
		inspect.WithGatherer(registry),
		inspect.WithStore(store),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	success(out, "vbind %s serving on http://%s", version, cfg.Serve.Addr)
	info(out, "app      %s", app.ID())
	info(out, "store    %s", storeLabel(cfg.Store))
	info(out, "events   ws://%s/events", cfg.Serve.Addr)

	started := time.Now()
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return app.Run(groupCtx)
	})
	group.Go(func() error {
		if err := server.Serve(groupCtx, cfg.Serve.Addr); err != nil {
			return verrors.New("VB121").Wrap(err)
		}
		return nil
	})

	err = group.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if stopErr := app.Stop(); stopErr != nil {
		e.logger.Error("app stop failed", "error", stopErr)
	}
	if err == nil {
		success(out, "shut down after %s", time.Since(started).Round(time.Second))
	}
	return err
}

func storeLabel(sc config.StoreConfig) string {
	if sc.Kind == "s3" {
		return "s3://" + sc.Bucket + "/" + sc.Prefix
	}
	return sc.Dir
}
