// Package config loads the settings of the deferred binary from flags and
// DEFERRED_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hackebrot/go-deferred-scheduler/internal/telemetry"
)

// EnvPrefix is prepended to every environment variable, e.g. DEFERRED_POLL_INTERVAL.
const EnvPrefix = "DEFERRED"

const (
	keyPollInterval    = "poll-interval"
	keyTasks           = "tasks"
	keyMaxOffset       = "max-offset"
	keyMetricsAddr     = "metrics-addr"
	keyLogLevel        = "log-level"
	keyLogFormat       = "log-format"
	keyShutdownTimeout = "shutdown-timeout"
)

// Config holds the settings for a run.
type Config struct {
	PollInterval    time.Duration
	Tasks           int
	MaxOffset       time.Duration
	MetricsAddr     string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		PollInterval:    1 * time.Second,
		Tasks:           10,
		MaxOffset:       20 * time.Second,
		MetricsAddr:     ":8081",
		LogLevel:        "INFO",
		LogFormat:       "json",
		ShutdownTimeout: 5 * time.Second,
	}
}

// RegisterFlags defines the command line flags on fs, using the defaults as flag defaults.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.Duration(keyPollInterval, d.PollInterval, "time the worker waits between drains")
	fs.Int(keyTasks, d.Tasks, "number of Fibonacci tasks to schedule")
	fs.Duration(keyMaxOffset, d.MaxOffset, "upper bound of the random delay given to each task")
	fs.String(keyMetricsAddr, d.MetricsAddr, "address serving /metrics and /healthz; empty disables it")
	fs.String(keyLogLevel, d.LogLevel, "log level: DEBUG, INFO, WARN or ERROR")
	fs.String(keyLogFormat, d.LogFormat, "log format: json or text")
	fs.Duration(keyShutdownTimeout, d.ShutdownTimeout, "how long to wait for the worker to exit after stop")
}

// Load reads the configuration. Flags set on the command line win over
// environment variables, which win over defaults.
func Load(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault(keyPollInterval, d.PollInterval)
	v.SetDefault(keyTasks, d.Tasks)
	v.SetDefault(keyMaxOffset, d.MaxOffset)
	v.SetDefault(keyMetricsAddr, d.MetricsAddr)
	v.SetDefault(keyLogLevel, d.LogLevel)
	v.SetDefault(keyLogFormat, d.LogFormat)
	v.SetDefault(keyShutdownTimeout, d.ShutdownTimeout)

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	cfg := Config{
		PollInterval:    v.GetDuration(keyPollInterval),
		Tasks:           v.GetInt(keyTasks),
		MaxOffset:       v.GetDuration(keyMaxOffset),
		MetricsAddr:     v.GetString(keyMetricsAddr),
		LogLevel:        v.GetString(keyLogLevel),
		LogFormat:       v.GetString(keyLogFormat),
		ShutdownTimeout: v.GetDuration(keyShutdownTimeout),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %s", keyPollInterval, c.PollInterval))
	}
	if c.Tasks < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative, got %d", keyTasks, c.Tasks))
	}
	if c.MaxOffset < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative, got %s", keyMaxOffset, c.MaxOffset))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %s", keyShutdownTimeout, c.ShutdownTimeout))
	}
	if _, err := telemetry.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", keyLogLevel, err))
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		errs = append(errs, fmt.Errorf("%s must be json or text, got %q", keyLogFormat, c.LogFormat))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
