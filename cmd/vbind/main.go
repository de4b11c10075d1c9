package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vango-dev/vbind/internal/config"
	verrors "github.com/vango-dev/vbind/internal/errors"
	"github.com/vango-dev/vbind/pkg/snapshot"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		verrors.PrintError(err)
		os.Exit(1)
	}
}

// skipConfig marks commands that run without loading vbind.yaml.
const skipConfig = "vbind.skip-config"

// env is the state shared by every command, filled in by the root's
// PersistentPreRunE.
type env struct {
	dir     string
	verbose bool
	noColor bool

	viper  *viper.Viper
	config *config.Config
	logger *slog.Logger
	closer io.Closer
}

func newRootCmd() *cobra.Command {
	e := &env{}

	cmd := &cobra.Command{
		Use:   "vbind",
		Short: "Evaluate, serve and snapshot vbind binding scopes",
		Long: `vbind is the command line for the vbind binding runtime.

It evaluates expression trees against a scope document, serves a live
runtime with an inspector API and an event stream, and manages scope
snapshots on disk or in S3.

Configuration is read from vbind.yaml in the --config directory and from
VBIND_* environment variables. Flags override both.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if e.noColor {
				color.NoColor = true
				verrors.DisableColors()
			}
			if cmd.Annotations[skipConfig] == "true" {
				return nil
			}
			return e.load(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if e.closer != nil {
				return e.closer.Close()
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&e.dir, "config", "c", ".", "Directory holding "+config.ConfigFileName)
	flags.BoolVarP(&e.verbose, "verbose", "v", false, "Log at debug level")
	flags.BoolVar(&e.noColor, "no-color", false, "Disable colored output")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("log-file", "", "Log file path, or - for stderr")

	cmd.AddCommand(
		evalCmd(e),
		serveCmd(e),
		snapshotCmd(e),
		codesCmd(),
		versionCmd(),
	)
	return cmd
}

// load reads the configuration and builds the logger.
func (e *env) load(cmd *cobra.Command) error {
	e.viper = config.NewViper(e.dir)
	bindings := map[string]string{
		config.KeyLogLevel: "log-level",
		config.KeyLogFile:  "log-file",
	}
	for key, name := range bindings {
		if err := config.BindFlag(e.viper, key, cmd.Flags().Lookup(name)); err != nil {
			return err
		}
	}
	// Command-local flags such as serve --addr.
	for key, name := range localBindings {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := config.BindFlag(e.viper, key, f); err != nil {
				return err
			}
		}
	}

	cfg, err := config.Load(e.viper)
	if err != nil {
		return err
	}
	logger, closer, err := config.NewLogger(cfg.Log, e.verbose)
	if err != nil {
		return err
	}
	e.config, e.logger, e.closer = cfg, logger, closer
	if path := cfg.Path(); path != "" {
		logger.Debug("config loaded", "path", path)
	}
	return nil
}

var localBindings = map[string]string{
	config.KeyServeAddr:   "addr",
	config.KeyStoreKind:   "store",
	config.KeyStoreDir:    "store-dir",
	config.KeyStoreBucket: "bucket",
	config.KeyMetricsNS:   "metrics-namespace",
	config.KeyDebounce:    "debounce",
}

// openStore builds the snapshot store selected by store.kind. A relative
// store.dir is resolved against the config directory.
func (e *env) openStore(ctx context.Context) (snapshot.Store, error) {
	sc := e.config.Store
	switch sc.Kind {
	case "s3":
		client, err := snapshot.NewS3Client(ctx, sc.Region, sc.Endpoint)
		if err != nil {
			return nil, err
		}
		return snapshot.NewS3Store(client, sc.Bucket, sc.Prefix), nil
	case "disk":
		dir := sc.Dir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(e.dir, dir)
		}
		return snapshot.NewDiskStore(dir)
	}
	return nil, verrors.New("VB082")
}

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
)

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", green("✓"), fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", yellow("⚠"), fmt.Sprintf(format, args...))
}
