package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/mutker/tweakctl/internal/config"
	"codeberg.org/mutker/tweakctl/internal/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tweakctl.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
verbose = true
log_level = "info"
simulate = true

[msr]
backend = "memory"

[engine]
workers = 2
queue_size = 4
probe_limit = 8

[journal]
enabled = true
path = "/path/to/journal.db"
batch_size = 10
batch_timeout = 3
`)

	// Set environment variable to point to the test config file
	t.Setenv("TWEAKCTL_CONFIG", path)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.True(t, cfg.Verbose)
	assert.True(t, cfg.Simulate)
	assert.Equal(t, config.LogLevelInfo, cfg.LogLevel)
	assert.Equal(t, config.MSRBackendMemory, cfg.MSR.Backend)
	assert.Equal(t, 2, cfg.Engine.Workers)
	assert.Equal(t, 4, cfg.Engine.QueueSize)
	assert.Equal(t, 8, cfg.Engine.ProbeLimit)
	assert.True(t, cfg.Journal.Enabled)
	assert.Equal(t, "/path/to/journal.db", cfg.Journal.Path)
	assert.Equal(t, 10, cfg.Journal.BatchSize)
	assert.Equal(t, 3, cfg.Journal.BatchTimeout)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TWEAKCTL_CONFIG", "")
	chdir(t, t.TempDir())

	cfg, err := config.Load()
	require.NoError(t, err, "Failed to load config")

	assert.False(t, cfg.Debug)
	assert.False(t, cfg.Simulate)
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, config.MSRBackendAuto, cfg.MSR.Backend)
	assert.Equal(t, config.DefaultWorkers, cfg.Engine.Workers)
	assert.Equal(t, config.DefaultQueueSize, cfg.Engine.QueueSize)
	assert.True(t, cfg.Journal.Enabled)
	assert.Equal(t, filepath.Join(config.DataDir(), "journal.db"), cfg.Journal.Path)
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	path := writeConfig(t, `
This is not a valid TOML file
`)

	_, err := config.Load(config.WithConfigFile(path))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to read config file")
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
}

func TestInvalidLogLevel(t *testing.T) {
	path := writeConfig(t, `
log_level = "invalid"
`)

	_, err := config.Load(config.WithConfigFile(path))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidLogLevel))
}

func TestInvalidEngineSettings(t *testing.T) {
	path := writeConfig(t, `
[engine]
workers = 0
`)

	_, err := config.Load(config.WithConfigFile(path))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidConfig))
}

func TestEnvironmentOverride(t *testing.T) {
	path := writeConfig(t, `
[msr]
backend = "winring0"
`)
	t.Setenv("TWEAKCTL_MSR_BACKEND", "memory")

	cfg, err := config.Load(config.WithConfigFile(path))
	require.NoError(t, err)
	assert.Equal(t, config.MSRBackendMemory, cfg.MSR.Backend)
}

func TestFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, `
debug = false

[msr]
backend = "winring0"

[engine]
workers = 3
`)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Bool("debug", false, "")
	flags.String("msr-backend", "auto", "")
	flags.Int("engine-workers", 1, "")
	require.NoError(t, flags.Parse([]string{"--debug", "--msr-backend", "memory"}))

	cfg, err := config.Load(config.WithConfigFile(path), config.WithFlags(flags))
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, config.LogLevelDebug, cfg.LogLevel, "debug forces the debug log level")
	assert.Equal(t, config.MSRBackendMemory, cfg.MSR.Backend)
	assert.Equal(t, 3, cfg.Engine.Workers, "unset flags must not shadow file values")
}
