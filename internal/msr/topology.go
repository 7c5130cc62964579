package msr

import (
	"context"
	"runtime"

	"codeberg.org/mutker/tweakctl/internal/errors"
	"codeberg.org/mutker/tweakctl/internal/logger"
	"github.com/shirou/gopsutil/v4/cpu"
)

// Processor vendor identifiers as reported by CPUID.
const (
	VendorIntel = "GenuineIntel"
	VendorAMD   = "AuthenticAMD"
)

// Topology is the processor layout, detected once per process.
type Topology struct {
	Logical  int
	Physical int
	// Vendor is empty when unknown.
	Vendor string
}

func NewTopology(logical, physical int) (*Topology, error) {
	if logical < 1 {
		return nil, errors.New().WithData(ErrInvalidTopology, logical)
	}
	if physical < 1 || physical > logical {
		physical = logical
	}

	return &Topology{Logical: logical, Physical: physical}, nil
}

// DetectTopology probes the logical and physical core counts.
func DetectTopology(ctx context.Context) (*Topology, error) {
	logical, err := cpu.CountsWithContext(ctx, true)
	if err != nil || logical < 1 {
		logger.Warn().Err(err).Int("fallback", runtime.NumCPU()).
			Msg("Failed to count logical cores, using runtime value")
		logical = runtime.NumCPU()
	}

	physical, err := cpu.CountsWithContext(ctx, false)
	if err != nil {
		logger.Debug().Err(err).Msg("Failed to count physical cores")
		physical = logical
	}

	topo, err := NewTopology(logical, physical)
	if err != nil {
		return nil, err
	}

	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		topo.Vendor = infos[0].VendorID
	} else {
		logger.Debug().Err(err).Msg("Failed to read CPU vendor")
	}

	logger.Debug().
		Int("logical", topo.Logical).
		Int("physical", topo.Physical).
		Str("vendor", topo.Vendor).
		Msg("Detected CPU topology")

	return topo, nil
}
