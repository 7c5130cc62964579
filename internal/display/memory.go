package display

import (
	"context"
	"sync"

	"codeberg.org/mutker/tweakctl/internal/errors"
)

// MemoryAPI keeps a display's mode list in process memory.
type MemoryAPI struct {
	mu      sync.Mutex
	current Mode
	modes   []Mode
}

// NewMemoryAPI creates a display showing current. current is always
// supported.
func NewMemoryAPI(current Mode, supported ...Mode) *MemoryAPI {
	modes := append([]Mode(nil), supported...)
	if !containsExact(modes, current) {
		modes = append(modes, current)
	}
	return &MemoryAPI{current: current, modes: modes}
}

// NewDefaultMemoryAPI mirrors a common 1080p monitor.
func NewDefaultMemoryAPI() *MemoryAPI {
	return NewMemoryAPI(
		Mode{Width: 1920, Height: 1080, Frequency: 60},
		Mode{Width: 800, Height: 600, Frequency: 60},
		Mode{Width: 1024, Height: 768, Frequency: 60},
		Mode{Width: 1280, Height: 720, Frequency: 60},
		Mode{Width: 1280, Height: 720, Frequency: 75},
		Mode{Width: 1600, Height: 900, Frequency: 60},
	)
}

func (a *MemoryAPI) CurrentMode(_ context.Context) (Mode, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current, nil
}

func (a *MemoryAPI) Modes(_ context.Context) ([]Mode, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Mode(nil), a.modes...), nil
}

func (a *MemoryAPI) SetMode(_ context.Context, mode Mode) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !containsExact(a.modes, mode) {
		return errors.New().WithData(ErrUnsupportedMode, mode.String())
	}
	a.current = mode

	return nil
}

func containsExact(modes []Mode, mode Mode) bool {
	for _, m := range modes {
		if m == mode {
			return true
		}
	}
	return false
}
