package config

import (
	stderrors "errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/vango-dev/vbind"
	"github.com/vango-dev/vbind/internal/errors"
)

const (
	// ConfigBaseName is the name of the configuration file without extension.
	ConfigBaseName = "vbind"

	// ConfigFileName is the name of the configuration file.
	ConfigFileName = ConfigBaseName + ".yaml"

	// EnvPrefix prefixes every environment variable read by Load.
	EnvPrefix = "VBIND"

	// DefaultAddr is the default inspector listen address.
	DefaultAddr = "127.0.0.1:7331"

	// DefaultStoreDir is the default directory of the disk snapshot store.
	DefaultStoreDir = ".vbind/snapshots"
)

// Keys used with viper and BindFlag.
const (
	KeyLogLevel       = "log.level"
	KeyLogFile        = "log.file"
	KeyLogMaxSize     = "log.max_size"
	KeyLogMaxBackups  = "log.max_backups"
	KeyLogMaxAge      = "log.max_age"
	KeyLogCompress    = "log.compress"
	KeyDispatchBuffer = "app.dispatch_buffer"
	KeyDebounce       = "app.debounce"
	KeyServeAddr      = "serve.addr"
	KeyStoreKind      = "store.kind"
	KeyStoreDir       = "store.dir"
	KeyStoreBucket    = "store.bucket"
	KeyStorePrefix    = "store.prefix"
	KeyStoreRegion    = "store.region"
	KeyStoreEndpoint  = "store.endpoint"
	KeyMetricsNS      = "metrics.namespace"
)

// Config is the complete vbind configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	App     AppConfig     `mapstructure:"app"`
	Serve   ServeConfig   `mapstructure:"serve"`
	Store   StoreConfig   `mapstructure:"store"`
	Metrics MetricsConfig `mapstructure:"metrics"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// LogConfig configures the log file.
type LogConfig struct {
	// Level is debug, info, warn, error or a numeric slog level.
	Level string `mapstructure:"level"`

	// File is the log file path. "-" or "" logs to stderr.
	File string `mapstructure:"file"`

	// MaxSize is the size in megabytes at which the file is rotated.
	MaxSize int `mapstructure:"max_size"`

	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// AppConfig configures the binding runtime.
type AppConfig struct {
	DispatchBuffer int           `mapstructure:"dispatch_buffer"`
	Debounce       time.Duration `mapstructure:"debounce"`
}

// ServeConfig configures `vbind serve`.
type ServeConfig struct {
	Addr string `mapstructure:"addr"`
}

// StoreConfig selects and configures the snapshot store.
type StoreConfig struct {
	// Kind is "disk" or "s3".
	Kind string `mapstructure:"kind"`

	// Dir is the directory of the disk store.
	Dir string `mapstructure:"dir"`

	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
	Region string `mapstructure:"region"`

	// Endpoint overrides the S3 endpoint, e.g. for MinIO.
	Endpoint string `mapstructure:"endpoint"`
}

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

// NewViper returns a viper instance that reads vbind.yaml from dir and
// VBIND_* environment variables, with every key defaulted.
func NewViper(dir string) *viper.Viper {
	v := viper.New()
	v.SetConfigName(ConfigBaseName)
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetConfigFile(filepath.Join(dir, ConfigFileName))
	v.AutomaticEnv()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, "-")
	v.SetDefault(KeyLogMaxSize, 10)
	v.SetDefault(KeyLogMaxBackups, 3)
	v.SetDefault(KeyLogMaxAge, 28)
	v.SetDefault(KeyLogCompress, true)

	v.SetDefault(KeyDispatchBuffer, vbind.DefaultLoopConfig().DispatchBuffer)
	v.SetDefault(KeyDebounce, vbind.DefaultDebounceConfig().Delay)

	v.SetDefault(KeyServeAddr, DefaultAddr)

	v.SetDefault(KeyStoreKind, "disk")
	v.SetDefault(KeyStoreDir, DefaultStoreDir)
	v.SetDefault(KeyStoreBucket, "")
	v.SetDefault(KeyStorePrefix, "")
	v.SetDefault(KeyStoreRegion, "us-east-1")
	v.SetDefault(KeyStoreEndpoint, "")

	v.SetDefault(KeyMetricsNS, "vbind")
	return v
}

// Load reads the config file, if there is one, and decodes every key.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) && !stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.New("VB100").Wrap(err)
		}
	}

	cfg := &Config{configPath: v.ConfigFileUsed()}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.New("VB100").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BindFlag wires a flag to a config key so the flag, when set, overrides
// the file and the environment.
func BindFlag(v *viper.Viper, key string, flag *pflag.Flag) error {
	if flag == nil {
		return errors.Newf(errors.CategoryConfig, "flag for config key %q not found", key)
	}
	return v.BindPFlag(key, flag)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Store.Kind {
	case "disk":
		if c.Store.Dir == "" {
			return errors.New("VB082").WithDetail("The disk store needs store.dir.")
		}
	case "s3":
		if c.Store.Bucket == "" {
			return errors.New("VB082").
				WithDetail("The s3 store needs store.bucket.").
				WithSuggestion("Set store.bucket in vbind.yaml or VBIND_STORE_BUCKET.")
		}
	default:
		return errors.New("VB082").WithDetail("store.kind is " + strconv.Quote(c.Store.Kind) + "; it must be \"disk\" or \"s3\".")
	}
	if c.App.DispatchBuffer < 0 {
		return errors.Newf(errors.CategoryConfig, "app.dispatch_buffer must not be negative")
	}
	return nil
}

// Path returns the path of the config file that was read, or "" if there
// was none.
func (c *Config) Path() string {
	if _, err := os.Stat(c.configPath); err != nil {
		return ""
	}
	return c.configPath
}

// AppConfig returns the runtime configuration for vbind.New. The logger and
// monitors are left to the caller.
func (c *Config) AppConfig() vbind.Config {
	return vbind.Config{
		Loop:     vbind.LoopConfig{DispatchBuffer: c.App.DispatchBuffer},
		Debounce: vbind.DebounceConfig{Delay: c.App.Debounce},
	}
}

// ParseLevel parses debug, info, warn, warning, error or a numeric slog
// level. An empty value is info.
func ParseLevel(value string) (slog.Level, error) {
	level := strings.ToLower(strings.TrimSpace(value))
	switch level {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n), nil
	}
	return slog.LevelInfo, errors.New("VB101").WithDetail("log.level is " + strconv.Quote(value) + ".")
}

// NewLogger builds the process logger: a text handler writing to a rotating
// log file, or to stderr when File is "-" or empty. verbose forces debug.
// The returned closer closes the log file.
func NewLogger(cfg LogConfig, verbose bool) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	if verbose {
		level = slog.LevelDebug
	}

	var w io.WriteCloser = nopCloser{os.Stderr}
	if path := strings.TrimSpace(cfg.File); path != "" && path != "-" {
		w = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		AddSource: level <= slog.LevelDebug,
		Level:     level,
	})
	return slog.New(handler), w, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up from startDir to the first directory holding
// vbind.yaml. It returns startDir itself when there is none.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		if Exists(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return filepath.Abs(startDir)
		}
		dir = parent
	}
}
