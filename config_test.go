package testgate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSuiteConfigDefaults(t *testing.T) {
	cfg := NewSuiteConfig()
	assert.Equal(t, "testgate", cfg.Name)
	assert.Equal(t, Duration(DefaultTimeout), cfg.DefaultTimeout)
	assert.Equal(t, "report", cfg.DoubleCompletionPolicy)
	assert.NoError(t, cfg.Validate())
}

func TestSuiteConfigValidate(t *testing.T) {
	t.Run("rejects_non_positive_timeout", func(t *testing.T) {
		cfg := NewSuiteConfig()
		cfg.DefaultTimeout = 0
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidTimeout)
	})

	t.Run("rejects_unknown_policy", func(t *testing.T) {
		cfg := NewSuiteConfig()
		cfg.DoubleCompletionPolicy = "shrug"
		assert.ErrorIs(t, cfg.Validate(), ErrUnknownDoubleCompletionPolicy)
	})

	t.Run("rejects_enabled_schedule_without_spec", func(t *testing.T) {
		cfg := NewSuiteConfig()
		cfg.Schedule.Enabled = true
		assert.ErrorIs(t, cfg.Validate(), ErrEmptyScheduleSpec)
	})

	t.Run("rejects_enabled_watch_without_paths", func(t *testing.T) {
		cfg := NewSuiteConfig()
		cfg.Watch.Enabled = true
		assert.ErrorIs(t, cfg.Validate(), ErrNoWatchPaths)
	})
}

func TestDurationUnmarshaling(t *testing.T) {
	t.Run("parses_duration_strings", func(t *testing.T) {
		var d Duration
		require.NoError(t, d.UnmarshalText([]byte("1500ms")))
		assert.Equal(t, 1500*time.Millisecond, d.Std())
	})

	t.Run("rejects_garbage", func(t *testing.T) {
		var d Duration
		assert.Error(t, d.UnmarshalText([]byte("soonish")))
	})

	t.Run("yaml_accepts_strings_and_integers", func(t *testing.T) {
		var out struct {
			A Duration `yaml:"a"`
			B Duration `yaml:"b"`
		}
		require.NoError(t, yaml.Unmarshal([]byte("a: 2s\nb: 1000000000\n"), &out))
		assert.Equal(t, 2*time.Second, out.A.Std())
		assert.Equal(t, time.Second, out.B.Std())
	})

	t.Run("round_trips_through_text", func(t *testing.T) {
		text, err := Duration(90 * time.Second).MarshalText()
		require.NoError(t, err)
		assert.Equal(t, "1m30s", string(text))
	})
}
