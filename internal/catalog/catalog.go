package catalog

import (
	"context"

	"codeberg.org/mutker/tweakctl/internal/display"
	"codeberg.org/mutker/tweakctl/internal/errors"
	"codeberg.org/mutker/tweakctl/internal/logger"
	"codeberg.org/mutker/tweakctl/internal/msr"
	"codeberg.org/mutker/tweakctl/internal/power"
	"codeberg.org/mutker/tweakctl/internal/process"
	"codeberg.org/mutker/tweakctl/internal/service"
	"codeberg.org/mutker/tweakctl/internal/tweak"
)

// Built-in tweak identifiers.
const (
	UltimatePerformance tweak.ID = "power.ultimate_performance"
	HighPerformance     tweak.ID = "power.high_performance"
	DisableC1E          tweak.ID = "msr.disable_c1e"
	DisableTurbo        tweak.ID = "msr.disable_turbo"
	DisableCPB          tweak.ID = "msr.disable_cpb"
	DisableBDProchot    tweak.ID = "msr.disable_bd_prochot"
	DisableSysMain      tweak.ID = "service.disable_sysmain"
	DisableSearch       tweak.ID = "service.disable_search"
	DisableSpooler      tweak.ID = "service.disable_spooler"
	LowResolution       tweak.ID = "display.low_resolution"
	TerminateExplorer   tweak.ID = "process.terminate_explorer"
)

// Register locations.
const (
	msrPowerCtl     uint32 = 0x1FC
	msrMiscEnable   uint32 = 0x1A0
	msrAMDHWCR      uint32 = 0xC0010015
	bitBDProchot    uint32 = 0
	bitC1E          uint32 = 1
	bitTurboDisable uint32 = 38
	bitCPBDisable   uint32 = 25
)

const defaultLowResolution = "1280x720"

// Deps are the system interfaces tweaks are built on. A nil dependency
// skips the tweaks that need it.
type Deps struct {
	MSR       *msr.Access
	Topology  *msr.Topology
	Power     power.API
	Services  service.Controller
	Display   display.API
	Processes process.Table
	// Baselines keeps revert baselines across processes. Without it a
	// revert restores the state seen when the catalog was built.
	Baselines tweak.BaselineStore
}

type builder func(ctx context.Context, deps Deps) (tweak.Method, error)

type definition struct {
	id    tweak.ID
	info  tweak.Info
	build builder
	// vendor restricts MSR tweaks to one processor vendor.
	vendor string
}

// Build constructs the built-in catalog. A tweak whose constructor fails is
// skipped with a warning; only registration failures are returned.
func Build(ctx context.Context, deps Deps) (*tweak.Catalog, error) {
	catalog := tweak.NewCatalog()

	for _, def := range definitions() {
		if def.vendor != "" && deps.Topology != nil && deps.Topology.Vendor != "" &&
			deps.Topology.Vendor != def.vendor {
			logger.Debug().
				Str("tweak", string(def.id)).
				Str("vendor", deps.Topology.Vendor).
				Msg("Skipping tweak for another processor vendor")
			continue
		}

		method, err := def.build(ctx, deps)
		if err != nil {
			logger.Warn().
				Err(err).
				Str("tweak", string(def.id)).
				Msg("Skipping tweak, construction failed")
			continue
		}

		// Options are listed after the saved baseline is restored.
		persisted, err := tweak.Persist(ctx, def.id, method, deps.Baselines)
		if err != nil {
			logger.Warn().
				Err(err).
				Str("tweak", string(def.id)).
				Msg("Skipping tweak, saved baseline unusable")
			continue
		}

		info := def.info
		if lister, ok := method.(interface {
			Options(ctx context.Context) ([]string, error)
		}); ok {
			if options, err := lister.Options(ctx); err == nil && len(options) > 0 {
				info.Options = options
			}
		}

		if err := catalog.Register(tweak.New(def.id, info, persisted)); err != nil {
			return nil, errors.New().Wrap(errors.ErrCatalogBuild, err).WithData(def.id)
		}
	}

	logger.Info().Int("tweaks", catalog.Len()).Msg("Tweak catalog built")

	return catalog, nil
}

func missing(dep string) error {
	return errors.New().WithData(errors.ErrMissingDependency, dep)
}

func powerTweak(target power.Target) builder {
	return func(ctx context.Context, deps Deps) (tweak.Method, error) {
		if deps.Power == nil {
			return nil, missing("power")
		}
		return power.NewMethod(ctx, deps.Power, target)
	}
}

func msrTweak(edits []msr.Edit, opts ...msr.MethodOption) builder {
	return func(_ context.Context, deps Deps) (tweak.Method, error) {
		if deps.MSR == nil || deps.Topology == nil {
			return nil, missing("msr")
		}
		return msr.NewMethod(deps.MSR, deps.Topology, edits, opts...)
	}
}

func serviceTweak(names ...string) builder {
	return func(ctx context.Context, deps Deps) (tweak.Method, error) {
		if deps.Services == nil {
			return nil, missing("services")
		}
		return service.NewMethod(ctx, deps.Services, names...)
	}
}

func definitions() []definition {
	return []definition{
		{
			id: UltimatePerformance,
			info: tweak.Info{
				Name:        "Ultimate Performance power plan",
				Description: "Activates the Ultimate Performance scheme, creating it from the hidden template if missing.",
				Category:    tweak.CategoryPower,
			},
			build: powerTweak(power.Target{
				GUID:     power.UltimatePerformance,
				Template: power.UltimatePerformance,
				Name:     "Ultimate Performance",
			}),
		},
		{
			id: HighPerformance,
			info: tweak.Info{
				Name:        "High performance power plan",
				Description: "Activates the High performance scheme.",
				Category:    tweak.CategoryPower,
			},
			build: powerTweak(power.Target{
				GUID:     power.HighPerformance,
				Template: power.HighPerformance,
				Name:     "High performance",
			}),
		},
		{
			id: DisableC1E,
			info: tweak.Info{
				Name:        "Disable C1E",
				Description: "Clears enhanced halt state promotion on every core.",
				Category:    tweak.CategoryCPU,
			},
			build:  msrTweak([]msr.Edit{{Register: msrPowerCtl, Bit: bitC1E, Desired: false}}),
			vendor: msr.VendorIntel,
		},
		{
			id: DisableTurbo,
			info: tweak.Info{
				Name:        "Disable Turbo Boost",
				Description: "Sets the turbo mode disable bit of IA32_MISC_ENABLE on every core.",
				Category:    tweak.CategoryCPU,
			},
			build:  msrTweak([]msr.Edit{{Register: msrMiscEnable, Bit: bitTurboDisable, Desired: true}}),
			vendor: msr.VendorIntel,
		},
		{
			id: DisableCPB,
			info: tweak.Info{
				Name:        "Disable Core Performance Boost",
				Description: "Sets the boost disable bit of HWCR on every core.",
				Category:    tweak.CategoryCPU,
			},
			build:  msrTweak([]msr.Edit{{Register: msrAMDHWCR, Bit: bitCPBDisable, Desired: true}}),
			vendor: msr.VendorAMD,
		},
		{
			id: DisableBDProchot,
			info: tweak.Info{
				Name:        "Disable BD PROCHOT",
				Description: "Ignores bidirectional processor hot signals from the platform.",
				Category:    tweak.CategoryCPU,
			},
			build: msrTweak(
				[]msr.Edit{{Register: msrPowerCtl, Bit: bitBDProchot, Desired: false}},
				msr.NotReadable(),
			),
			vendor: msr.VendorIntel,
		},
		{
			id: DisableSysMain,
			info: tweak.Info{
				Name:        "Disable SysMain",
				Description: "Stops and disables the SysMain (Superfetch) service.",
				Category:    tweak.CategoryService,
			},
			build: serviceTweak("SysMain"),
		},
		{
			id: DisableSearch,
			info: tweak.Info{
				Name:        "Disable Windows Search",
				Description: "Stops and disables the search indexer.",
				Category:    tweak.CategoryService,
			},
			build: serviceTweak("WSearch"),
		},
		{
			id: DisableSpooler,
			info: tweak.Info{
				Name:        "Disable Print Spooler",
				Description: "Stops and disables the print spooler.",
				Category:    tweak.CategoryService,
			},
			build: serviceTweak("Spooler"),
		},
		{
			id: LowResolution,
			info: tweak.Info{
				Name:        "Low resolution",
				Description: "Switches the primary display to a lower resolution.",
				Category:    tweak.CategoryDisplay,
				Widget:      tweak.WidgetDropdown,
				Options:     []string{defaultLowResolution},
			},
			build: func(ctx context.Context, deps Deps) (tweak.Method, error) {
				if deps.Display == nil {
					return nil, missing("display")
				}
				return display.NewMethod(ctx, deps.Display, defaultLowResolution)
			},
		},
		{
			id: TerminateExplorer,
			info: tweak.Info{
				Name:        "Terminate Explorer",
				Description: "Ends the shell process. Revert starts it again.",
				Category:    tweak.CategoryProcess,
				Widget:      tweak.WidgetButton,
			},
			build: func(_ context.Context, deps Deps) (tweak.Method, error) {
				if deps.Processes == nil {
					return nil, missing("processes")
				}
				return process.NewMethod(deps.Processes, []string{"explorer.exe"}, "explorer.exe")
			},
		},
	}
}
