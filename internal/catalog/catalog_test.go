package catalog_test

import (
	"context"
	"testing"

	"codeberg.org/mutker/tweakctl/internal/catalog"
	"codeberg.org/mutker/tweakctl/internal/display"
	"codeberg.org/mutker/tweakctl/internal/journal"
	"codeberg.org/mutker/tweakctl/internal/logger"
	"codeberg.org/mutker/tweakctl/internal/msr"
	"codeberg.org/mutker/tweakctl/internal/power"
	"codeberg.org/mutker/tweakctl/internal/process"
	"codeberg.org/mutker/tweakctl/internal/service"
	"codeberg.org/mutker/tweakctl/internal/tweak"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryDeps(t *testing.T, vendor string) catalog.Deps {
	t.Helper()

	topo, err := msr.NewTopology(4, 2)
	require.NoError(t, err)
	topo.Vendor = vendor

	access := msr.NewAccess(msr.NewMemoryChannel(topo.Logical))
	t.Cleanup(func() { _ = access.Close() })

	return catalog.Deps{
		MSR:      access,
		Topology: topo,
		Power:    power.NewDefaultMemoryAPI(),
		Services: service.NewMemoryController(map[string]service.Status{
			"SysMain": {StartType: service.StartAutomatic, Running: true},
			"WSearch": {StartType: service.StartAutomatic, Running: true},
			"Spooler": {StartType: service.StartAutomatic, Running: true},
		}),
		Display:   display.NewDefaultMemoryAPI(),
		Processes: process.NewMemoryTable("explorer.exe"),
	}
}

func ids(c *tweak.Catalog) []tweak.ID {
	var out []tweak.ID
	for _, t := range c.All() {
		out = append(out, t.ID())
	}
	return out
}

func TestBuildAllTweaks(t *testing.T) {
	c, err := catalog.Build(context.Background(), memoryDeps(t, ""))
	require.NoError(t, err)

	assert.Equal(t, []tweak.ID{
		catalog.UltimatePerformance,
		catalog.HighPerformance,
		catalog.DisableC1E,
		catalog.DisableTurbo,
		catalog.DisableCPB,
		catalog.DisableBDProchot,
		catalog.DisableSysMain,
		catalog.DisableSearch,
		catalog.DisableSpooler,
		catalog.LowResolution,
		catalog.TerminateExplorer,
	}, ids(c))
}

func TestBuildFiltersByVendor(t *testing.T) {
	c, err := catalog.Build(context.Background(), memoryDeps(t, msr.VendorAMD))
	require.NoError(t, err)

	got := ids(c)
	assert.Contains(t, got, catalog.DisableCPB)
	assert.NotContains(t, got, catalog.DisableC1E)
	assert.NotContains(t, got, catalog.DisableTurbo)
	assert.NotContains(t, got, catalog.DisableBDProchot)
}

func TestBuildSkipsMissingDependencies(t *testing.T) {
	deps := memoryDeps(t, "")
	deps.MSR = nil
	deps.Services = nil

	c, err := catalog.Build(context.Background(), deps)
	require.NoError(t, err)

	assert.Equal(t, []tweak.ID{
		catalog.UltimatePerformance,
		catalog.HighPerformance,
		catalog.LowResolution,
		catalog.TerminateExplorer,
	}, ids(c))
}

func TestBuildSkipsFailingConstructor(t *testing.T) {
	deps := memoryDeps(t, "")
	deps.Power = failingPower{power.NewDefaultMemoryAPI()}

	c, err := catalog.Build(context.Background(), deps)
	require.NoError(t, err)

	_, err = c.Get(catalog.UltimatePerformance)
	assert.Error(t, err)
	_, err = c.Get(catalog.DisableSysMain)
	assert.NoError(t, err)
}

func TestBuildFillsDisplayOptions(t *testing.T) {
	c, err := catalog.Build(context.Background(), memoryDeps(t, ""))
	require.NoError(t, err)

	rec, err := c.Get(catalog.LowResolution)
	require.NoError(t, err)
	assert.Equal(t, tweak.WidgetDropdown, rec.Info().Widget)
	assert.Equal(t, []string{"1600x900", "1280x720", "1024x768", "800x600"}, rec.Info().Options)
}

func TestBuiltTweaksAreUsable(t *testing.T) {
	ctx := context.Background()
	c, err := catalog.Build(ctx, memoryDeps(t, msr.VendorIntel))
	require.NoError(t, err)

	rec, err := c.Get(catalog.DisableTurbo)
	require.NoError(t, err)

	require.NoError(t, rec.Method().Apply(ctx, tweak.Enabled))
	state, err := rec.Method().InitialState(ctx)
	require.NoError(t, err)
	assert.True(t, state.Enabled)
}

// failingPower cannot report the active scheme, so baseline capture fails.
type failingPower struct {
	*power.MemoryAPI
}

func (failingPower) ActiveScheme(context.Context) (power.Scheme, error) {
	return power.Scheme{}, assert.AnError
}

// A later process reverts through a freshly built catalog. The saved
// baselines must bring back the state from before the first apply.
func TestRevertFromRebuiltCatalog(t *testing.T) {
	ctx := context.Background()

	deps := memoryDeps(t, msr.VendorIntel)
	powerAPI := power.NewDefaultMemoryAPI()
	services := service.NewMemoryController(map[string]service.Status{
		"SysMain": {StartType: service.StartAutomatic, Running: true},
	})
	displayAPI := display.NewDefaultMemoryAPI()
	deps.Power = powerAPI
	deps.Services = services
	deps.Display = displayAPI

	j, err := journal.New(journal.DefaultConfig(t.TempDir()), logger.Get())
	require.NoError(t, err)
	defer j.Close()
	deps.Baselines = j

	originalScheme, err := powerAPI.ActiveScheme(ctx)
	require.NoError(t, err)
	originalMode, err := displayAPI.CurrentMode(ctx)
	require.NoError(t, err)

	first, err := catalog.Build(ctx, deps)
	require.NoError(t, err)

	c1eBefore := stateOf(t, first, catalog.DisableC1E)
	turboBefore := stateOf(t, first, catalog.DisableTurbo)

	requests := map[tweak.ID]tweak.State{
		catalog.UltimatePerformance: tweak.Enabled,
		catalog.DisableSysMain:      tweak.Enabled,
		catalog.LowResolution:       {Enabled: true, Option: "1024x768"},
		catalog.DisableC1E:          tweak.Enabled,
		catalog.DisableTurbo:        tweak.Enabled,
	}
	for id, state := range requests {
		rec, err := first.Get(id)
		require.NoError(t, err)
		require.NoError(t, rec.Method().Apply(ctx, state), id)
	}

	second, err := catalog.Build(ctx, deps)
	require.NoError(t, err)

	lowRes, err := second.Get(catalog.LowResolution)
	require.NoError(t, err)
	assert.Contains(t, lowRes.Info().Options, "1600x900", "options are relative to the saved baseline")

	for id := range requests {
		rec, err := second.Get(id)
		require.NoError(t, err)
		require.NoError(t, rec.Method().Revert(ctx), id)

		_, found, err := j.LoadBaseline(ctx, string(id))
		require.NoError(t, err)
		assert.False(t, found, "%s baseline is cleared after revert", id)
	}

	active, err := powerAPI.ActiveScheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, originalScheme.GUID, active.GUID)

	status, err := services.Query(ctx, "SysMain")
	require.NoError(t, err)
	assert.Equal(t, service.Status{StartType: service.StartAutomatic, Running: true}, status)

	mode, err := displayAPI.CurrentMode(ctx)
	require.NoError(t, err)
	assert.Equal(t, originalMode, mode)

	assert.Equal(t, c1eBefore, stateOf(t, second, catalog.DisableC1E))
	assert.Equal(t, turboBefore, stateOf(t, second, catalog.DisableTurbo))
}

func stateOf(t *testing.T, c *tweak.Catalog, id tweak.ID) tweak.State {
	t.Helper()

	rec, err := c.Get(id)
	require.NoError(t, err)
	state, err := rec.Method().InitialState(context.Background())
	require.NoError(t, err)

	return state
}
