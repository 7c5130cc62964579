package msr

import (
	"fmt"
	"math/bits"
	"runtime"

	"codeberg.org/mutker/tweakctl/internal/errors"
	"codeberg.org/mutker/tweakctl/internal/logger"
)

const (
	BackendAuto     = "auto"
	BackendWinRing0 = "winring0"
	BackendDevMSR   = "devmsr"
	BackendMemory   = "memory"
)

// Open creates the channel for the named backend. driver is the WinRing0
// library path and is ignored by the other backends.
func Open(backend, driver string, topology *Topology) (Channel, error) {
	errFactory := errors.New()

	if backend == BackendAuto {
		backend = defaultBackend()
	}

	var (
		ch  Channel
		err error
	)
	switch backend {
	case BackendMemory:
		ch = NewMemoryChannel(topology.Logical)
	case BackendWinRing0:
		// WinRing0 pins reads and writes with a single-group affinity mask.
		if topology.Logical > bits.UintSize {
			return nil, errFactory.WithData(ErrCoreOutOfRange, topology.Logical).
				WithMessage(fmt.Sprintf("WinRing0 reaches at most %d logical cores", bits.UintSize))
		}
		ch, err = openWinRing0(driver)
	case BackendDevMSR:
		ch, err = openDevMSR()
	default:
		return nil, errFactory.WithData(errors.ErrInvalidArgument, "unknown msr backend "+backend)
	}
	if err != nil {
		return nil, errFactory.Wrap(ErrChannelOpen, err).WithData(backend)
	}

	logger.Debug().Str("backend", backend).Msg("Hardware access channel opened")

	return ch, nil
}

func defaultBackend() string {
	switch runtime.GOOS {
	case "windows":
		return BackendWinRing0
	case "linux":
		return BackendDevMSR
	default:
		return BackendMemory
	}
}

// affinityMask returns the thread affinity mask selecting core.
func affinityMask(core int) (uintptr, error) {
	if core < 0 || core >= bits.UintSize {
		return 0, errors.New().WithData(ErrCoreOutOfRange, core)
	}

	return uintptr(1) << uint(core), nil
}
