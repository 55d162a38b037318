package feeders

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testgate "github.com/GoCodeAlone/testgate"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestYamlFeeder(t *testing.T) {
	path := writeFile(t, "suite.yaml", `
name: yaml-suite
default_timeout: 2s
double_completion_policy: ignore
watch:
  enabled: true
  paths:
    - ./testdata
  debounce: 100ms
schedule:
  enabled: true
  spec: "@every 5m"
status:
  enabled: true
  addr: ":9001"
`)

	cfg := testgate.NewSuiteConfig()
	require.NoError(t, NewYamlFeeder(path).Feed(cfg))

	assert.Equal(t, "yaml-suite", cfg.Name)
	assert.Equal(t, 2*time.Second, cfg.DefaultTimeout.Std())
	assert.Equal(t, "ignore", cfg.DoubleCompletionPolicy)
	assert.True(t, cfg.Watch.Enabled)
	assert.Equal(t, []string{"./testdata"}, cfg.Watch.Paths)
	assert.Equal(t, 100*time.Millisecond, cfg.Watch.Debounce.Std())
	assert.Equal(t, "@every 5m", cfg.Schedule.Spec)
	assert.Equal(t, ":9001", cfg.Status.Addr)
	assert.NoError(t, cfg.Validate())
}

func TestYamlFeeder_FeedKey(t *testing.T) {
	path := writeFile(t, "nested.yaml", `
suite:
  name: nested-suite
  default_timeout: 3s
other: ignored
`)

	cfg := testgate.NewSuiteConfig()
	require.NoError(t, NewYamlFeeder(path).FeedKey("suite", cfg))
	assert.Equal(t, "nested-suite", cfg.Name)
	assert.Equal(t, 3*time.Second, cfg.DefaultTimeout.Std())

	// Missing keys leave the target untouched.
	before := cfg.Name
	require.NoError(t, NewYamlFeeder(path).FeedKey("absent", cfg))
	assert.Equal(t, before, cfg.Name)
}

func TestYamlFeeder_MissingFile(t *testing.T) {
	err := NewYamlFeeder("/does/not/exist.yaml").Feed(&struct{}{})
	assert.Error(t, err)
}

func TestTomlFeeder(t *testing.T) {
	path := writeFile(t, "suite.toml", `
name = "toml-suite"
default_timeout = "1500ms"
double_completion_policy = "report"

[watch]
enabled = false
debounce = "50ms"

[schedule]
enabled = false
spec = ""

[status]
enabled = false
addr = ":9002"
`)

	cfg := testgate.NewSuiteConfig()
	require.NoError(t, NewTomlFeeder(path).Feed(cfg))

	assert.Equal(t, "toml-suite", cfg.Name)
	assert.Equal(t, 1500*time.Millisecond, cfg.DefaultTimeout.Std())
	assert.Equal(t, 50*time.Millisecond, cfg.Watch.Debounce.Std())
	assert.Equal(t, ":9002", cfg.Status.Addr)
	assert.NoError(t, cfg.Validate())
}

func TestEnvFeeder(t *testing.T) {
	t.Setenv("TG_NAME", "env-suite")
	t.Setenv("TG_DEFAULT_TIMEOUT", "750ms")
	t.Setenv("TG_DOUBLE_COMPLETION_POLICY", "ignore")
	t.Setenv("TG_WATCH_ENABLED", "true")
	t.Setenv("TG_WATCH_PATHS", "./a, ./b")
	t.Setenv("TG_WATCH_DEBOUNCE", "10ms")
	t.Setenv("TG_SCHEDULE_SPEC", "@every 1m")
	t.Setenv("TG_STATUS_ADDR", ":9003")

	cfg := testgate.NewSuiteConfig()
	require.NoError(t, NewEnvFeeder("TG").Feed(cfg))

	assert.Equal(t, "env-suite", cfg.Name)
	assert.Equal(t, 750*time.Millisecond, cfg.DefaultTimeout.Std())
	assert.Equal(t, "ignore", cfg.DoubleCompletionPolicy)
	assert.True(t, cfg.Watch.Enabled)
	assert.Equal(t, []string{"./a", "./b"}, cfg.Watch.Paths)
	assert.Equal(t, 10*time.Millisecond, cfg.Watch.Debounce.Std())
	assert.Equal(t, "@every 1m", cfg.Schedule.Spec)
	assert.Equal(t, ":9003", cfg.Status.Addr)
}

func TestEnvFeeder_UnsetVariablesLeaveDefaults(t *testing.T) {
	cfg := testgate.NewSuiteConfig()
	require.NoError(t, NewEnvFeeder("TG_UNSET").Feed(cfg))
	assert.Equal(t, "testgate", cfg.Name)
	assert.Equal(t, 5*time.Second, cfg.DefaultTimeout.Std())
}

func TestEnvFeeder_RejectsNonPointerTarget(t *testing.T) {
	var cfg struct{}
	assert.ErrorIs(t, NewEnvFeeder("TG").Feed(cfg), ErrTargetNotPointer)
}

func TestFeed_LayersSources(t *testing.T) {
	yamlPath := writeFile(t, "base.yaml", "name: from-yaml\ndefault_timeout: 9s\n")
	t.Setenv("LAYER_NAME", "from-env")

	cfg := testgate.NewSuiteConfig()
	require.NoError(t, Feed(cfg, NewYamlFeeder(yamlPath), NewEnvFeeder("LAYER")))

	// The env feeder runs last and wins for the fields it sets.
	assert.Equal(t, "from-env", cfg.Name)
	assert.Equal(t, 9*time.Second, cfg.DefaultTimeout.Std())
}
