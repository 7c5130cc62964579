package main

import (
	"os"
	"strconv"
	"testing"

	"codeberg.org/mutker/tweakctl/internal/errors"
	"codeberg.org/mutker/tweakctl/internal/pid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) error {
	t.Helper()
	t.Setenv("TWEAKCTL_JOURNAL_ENABLED", "false")
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestValidateFormat(t *testing.T) {
	assert.NoError(t, validateFormat(formatText))
	assert.NoError(t, validateFormat(formatJSON))
	assert.NoError(t, validateFormat(formatYAML))
	assert.Error(t, validateFormat("xml"))
}

func TestSimulatedCommands(t *testing.T) {
	chdir(t, t.TempDir())

	require.NoError(t, run(t, "--simulate", "list"))
	require.NoError(t, run(t, "--simulate", "status", "--format", "yaml"))
	require.NoError(t, run(t, "--simulate", "apply", "power.ultimate_performance"))
	require.NoError(t, run(t, "--simulate", "apply", "display.low_resolution", "--option", "1024x768"))
	require.NoError(t, run(t, "--simulate", "revert", "service.disable_sysmain"))
}

func TestSimulatedApplyUnknownTweak(t *testing.T) {
	chdir(t, t.TempDir())

	assert.Error(t, run(t, "--simulate", "apply", "does.not_exist"))
}

func TestRejectsUnknownFormat(t *testing.T) {
	chdir(t, t.TempDir())

	assert.Error(t, run(t, "--simulate", "status", "--format", "xml"))
}

func TestHistoryRejectsZeroLimit(t *testing.T) {
	chdir(t, t.TempDir())

	err := run(t, "history", "--limit", "0")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidArgument))
}

func TestStatusRefusesWhileAnotherInstanceRuns(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("TMPDIR", dir)
	t.Setenv("TMP", dir)

	// The parent process stands in for a live tweakctl.
	require.NoError(t, os.WriteFile(pid.Path(""), []byte(strconv.Itoa(os.Getppid())), 0o600))

	err := run(t, "--simulate", "status")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrAlreadyRunning))

	require.NoError(t, os.Remove(pid.Path("")))
	require.NoError(t, run(t, "--simulate", "status"))
}
