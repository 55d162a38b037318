package testgate

import (
	"fmt"
	"time"
)

// SuiteConfig is the feedable configuration for a suite and its optional
// watch, schedule, and status surfaces. Feed it from YAML, TOML, or the
// environment with the feeders package, then pass it to NewSuiteFromConfig.
type SuiteConfig struct {
	// Name identifies the suite in logs and event sources.
	Name string `yaml:"name" toml:"name" json:"name" env:"NAME"`

	// DefaultTimeout bounds each case's wait unless overridden per case.
	DefaultTimeout Duration `yaml:"default_timeout" toml:"default_timeout" json:"default_timeout" env:"DEFAULT_TIMEOUT"`

	// DoubleCompletionPolicy is "report" or "ignore".
	DoubleCompletionPolicy string `yaml:"double_completion_policy" toml:"double_completion_policy" json:"double_completion_policy" env:"DOUBLE_COMPLETION_POLICY"`

	Watch    WatchConfig    `yaml:"watch" toml:"watch" json:"watch"`
	Schedule ScheduleConfig `yaml:"schedule" toml:"schedule" json:"schedule"`
	Status   StatusConfig   `yaml:"status" toml:"status" json:"status"`
}

// WatchConfig configures watch mode: re-running the suite when watched
// paths change.
type WatchConfig struct {
	// Enabled turns watch mode on.
	Enabled bool `yaml:"enabled" toml:"enabled" json:"enabled" env:"WATCH_ENABLED"`

	// Paths are the files and directories to watch.
	Paths []string `yaml:"paths" toml:"paths" json:"paths" env:"WATCH_PATHS"`

	// Debounce coalesces bursts of filesystem events into one re-run.
	Debounce Duration `yaml:"debounce" toml:"debounce" json:"debounce" env:"WATCH_DEBOUNCE"`
}

// ScheduleConfig configures periodic suite runs.
type ScheduleConfig struct {
	// Enabled turns the scheduler on.
	Enabled bool `yaml:"enabled" toml:"enabled" json:"enabled" env:"SCHEDULE_ENABLED"`

	// Spec is a cron expression or an @every duration, e.g. "@every 5m".
	Spec string `yaml:"spec" toml:"spec" json:"spec" env:"SCHEDULE_SPEC"`
}

// StatusConfig configures the HTTP status surface.
type StatusConfig struct {
	// Enabled turns the status server on.
	Enabled bool `yaml:"enabled" toml:"enabled" json:"enabled" env:"STATUS_ENABLED"`

	// Addr is the listen address, e.g. ":8762".
	Addr string `yaml:"addr" toml:"addr" json:"addr" env:"STATUS_ADDR"`
}

// NewSuiteConfig returns a config populated with defaults.
func NewSuiteConfig() *SuiteConfig {
	return &SuiteConfig{
		Name:                   "testgate",
		DefaultTimeout:         Duration(DefaultTimeout),
		DoubleCompletionPolicy: ReportDoubleCompletion.String(),
		Watch: WatchConfig{
			Debounce: Duration(250 * time.Millisecond),
		},
		Status: StatusConfig{
			Addr: ":8762",
		},
	}
}

// Validate checks the config for values the suite cannot run with.
func (c *SuiteConfig) Validate() error {
	if c.DefaultTimeout <= 0 {
		return fmt.Errorf("%w: got %s", ErrInvalidTimeout, c.DefaultTimeout)
	}
	if _, err := ParseDoubleCompletionPolicy(c.DoubleCompletionPolicy); err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownDoubleCompletionPolicy, c.DoubleCompletionPolicy)
	}
	if c.Schedule.Enabled && c.Schedule.Spec == "" {
		return ErrEmptyScheduleSpec
	}
	if c.Watch.Enabled && len(c.Watch.Paths) == 0 {
		return ErrNoWatchPaths
	}
	return nil
}
