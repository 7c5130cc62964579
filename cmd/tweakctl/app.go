package main

import (
	"context"

	"codeberg.org/mutker/tweakctl/internal/catalog"
	"codeberg.org/mutker/tweakctl/internal/config"
	"codeberg.org/mutker/tweakctl/internal/display"
	"codeberg.org/mutker/tweakctl/internal/journal"
	"codeberg.org/mutker/tweakctl/internal/logger"
	"codeberg.org/mutker/tweakctl/internal/msr"
	"codeberg.org/mutker/tweakctl/internal/power"
	"codeberg.org/mutker/tweakctl/internal/process"
	"codeberg.org/mutker/tweakctl/internal/service"
	"codeberg.org/mutker/tweakctl/internal/tweak"
)

// app holds the process-wide system interfaces for one command.
type app struct {
	catalog *tweak.Catalog
	journal journal.Journal
	access  *msr.Access
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	j, err := openJournal(cfg)
	if err != nil {
		return nil, err
	}

	deps, access := systemDeps(ctx, cfg)
	deps.Baselines = j

	c, err := catalog.Build(ctx, deps)
	if err != nil {
		if access != nil {
			_ = access.Close()
		}
		_ = j.Close()
		return nil, err
	}

	return &app{catalog: c, journal: j, access: access}, nil
}

func openJournal(cfg *config.Config) (journal.Journal, error) {
	return journal.New(journal.Config{
		DBPath:       cfg.Journal.Path,
		Enabled:      cfg.Journal.Enabled && !cfg.Simulate,
		BatchSize:    cfg.Journal.BatchSize,
		BatchTimeout: cfg.Journal.BatchTimeout,
	}, logger.Get())
}

// systemDeps opens every system interface it can. An interface that cannot
// be opened is left nil and its tweaks are skipped.
func systemDeps(ctx context.Context, cfg *config.Config) (catalog.Deps, *msr.Access) {
	var deps catalog.Deps

	topology, err := msr.DetectTopology(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to detect CPU topology")
	}
	deps.Topology = topology

	if cfg.Simulate {
		return simulatedDeps(deps)
	}

	backend := string(cfg.MSR.Backend)
	if topology != nil {
		if ch, err := msr.Open(backend, cfg.MSR.Driver, topology); err != nil {
			logger.Warn().Err(err).Str("backend", backend).Msg("Register access unavailable")
		} else {
			deps.MSR = msr.NewAccess(ch)
		}
	}

	if api, err := power.NewSystemAPI(); err != nil {
		logger.Warn().Err(err).Msg("Power scheme interface unavailable")
	} else {
		deps.Power = api
	}

	if ctrl, err := service.NewSystemController(); err != nil {
		logger.Warn().Err(err).Msg("Service manager unavailable")
	} else {
		deps.Services = ctrl
	}

	if api, err := display.NewSystemAPI(); err != nil {
		logger.Warn().Err(err).Msg("Display settings unavailable")
	} else {
		deps.Display = api
	}

	deps.Processes = process.NewSystemTable()

	return deps, deps.MSR
}

// simulatedDeps backs every tweak with in-memory state resembling a stock
// installation.
func simulatedDeps(deps catalog.Deps) (catalog.Deps, *msr.Access) {
	if deps.Topology == nil {
		deps.Topology, _ = msr.NewTopology(4, 4)
	}

	deps.MSR = msr.NewAccess(msr.NewMemoryChannel(deps.Topology.Logical))
	deps.Power = power.NewDefaultMemoryAPI()
	deps.Services = service.NewMemoryController(map[string]service.Status{
		"SysMain": {StartType: service.StartAutomatic, Running: true},
		"WSearch": {StartType: service.StartAutomatic, Running: true},
		"Spooler": {StartType: service.StartAutomatic, Running: true},
	})
	deps.Display = display.NewDefaultMemoryAPI()
	deps.Processes = process.NewMemoryTable("explorer.exe")

	logger.Info().Msg("Simulation mode, no system state will change")

	return deps, deps.MSR
}

func (a *app) Close() {
	if err := a.journal.Close(); err != nil {
		logger.Error().Err(err).Msg("Failed to close journal")
	}
	if a.access != nil {
		if err := a.access.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close register access")
		}
	}
}
