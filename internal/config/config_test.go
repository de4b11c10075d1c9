package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/vbind/internal/errors"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(NewViper(t.TempDir()))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "-", cfg.Log.File)
	assert.Equal(t, 256, cfg.App.DispatchBuffer)
	assert.Equal(t, 200*time.Millisecond, cfg.App.Debounce)
	assert.Equal(t, DefaultAddr, cfg.Serve.Addr)
	assert.Equal(t, "disk", cfg.Store.Kind)
	assert.Equal(t, DefaultStoreDir, cfg.Store.Dir)
	assert.Equal(t, "vbind", cfg.Metrics.Namespace)
	assert.Empty(t, cfg.Path())
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
log:
  level: debug
app:
  debounce: 50ms
serve:
  addr: ":9000"
store:
  kind: s3
  bucket: scopes
  prefix: dev/
`)

	cfg, err := Load(NewViper(dir))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 50*time.Millisecond, cfg.App.Debounce)
	assert.Equal(t, ":9000", cfg.Serve.Addr)
	assert.Equal(t, "s3", cfg.Store.Kind)
	assert.Equal(t, "scopes", cfg.Store.Bucket)
	assert.Equal(t, "dev/", cfg.Store.Prefix)
	assert.Equal(t, "us-east-1", cfg.Store.Region)
	assert.Equal(t, filepath.Join(dir, ConfigFileName), cfg.Path())

	app := cfg.AppConfig()
	assert.Equal(t, 50*time.Millisecond, app.Debounce.Delay)
	assert.Equal(t, 256, app.Loop.DispatchBuffer)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "serve:\n  addr: \":9000\"\n")
	t.Setenv("VBIND_SERVE_ADDR", ":9100")
	t.Setenv("VBIND_STORE_DIR", "/tmp/snaps")

	cfg, err := Load(NewViper(dir))
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Serve.Addr)
	assert.Equal(t, "/tmp/snaps", cfg.Store.Dir)
}

func TestLoad_FlagOverridesEnv(t *testing.T) {
	t.Setenv("VBIND_SERVE_ADDR", ":9100")
	v := NewViper(t.TempDir())

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("addr", "", "")
	require.NoError(t, BindFlag(v, KeyServeAddr, flags.Lookup("addr")))
	require.NoError(t, flags.Parse([]string{"--addr", ":9200"}))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, ":9200", cfg.Serve.Addr)

	assert.Error(t, BindFlag(v, KeyServeAddr, flags.Lookup("missing")))
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    string
	}{
		{"broken yaml", "log: [", "VB100"},
		{"unknown store", "store:\n  kind: ftp\n", "VB082"},
		{"s3 without bucket", "store:\n  kind: s3\n", "VB082"},
		{"bad level", "log:\n  level: loud\n", "VB101"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, tt.content)

			_, err := Load(NewViper(dir))
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.Classify(err).Code)
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{" INFO ", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"-4", slog.LevelDebug},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("chatty")
	assert.Error(t, err)
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vbind.log")
	logger, closer, err := NewLogger(LogConfig{Level: "warn", File: path, MaxSize: 1}, false)
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept", "n", 1)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), "msg=kept n=1")
}

func TestNewLogger_VerboseForcesDebug(t *testing.T) {
	logger, closer, err := NewLogger(LogConfig{Level: "error"}, true)
	require.NoError(t, err)
	defer closer.Close()
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))

	_, _, err = NewLogger(LogConfig{Level: "nope"}, false)
	assert.Error(t, err)
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	got, err := FindProjectRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, root, got)
	assert.True(t, Exists(root))
	assert.False(t, Exists(nested))

	lonely := t.TempDir()
	got, err = FindProjectRoot(lonely)
	require.NoError(t, err)
	assert.Equal(t, lonely, got)
}
