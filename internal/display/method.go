package display

import (
	"cmp"
	"context"
	"encoding/json"
	"slices"
	"sync"

	"codeberg.org/mutker/tweakctl/internal/errors"
	"codeberg.org/mutker/tweakctl/internal/logger"
	"codeberg.org/mutker/tweakctl/internal/tweak"
)

// Method switches the primary display to a lower resolution. The option
// selects the mode; Revert restores the mode active at construction.
type Method struct {
	api      API
	baseline Mode

	mu     sync.Mutex
	target Mode
}

// NewMethod captures the current mode. defaultOption is the mode applied
// when a request carries no option.
func NewMethod(ctx context.Context, api API, defaultOption string) (*Method, error) {
	errFactory := errors.New()

	if api == nil {
		return nil, errFactory.WithData(errors.ErrInvalidArgument, "nil display api")
	}

	target, err := ParseMode(defaultOption)
	if err != nil {
		return nil, err
	}

	current, err := api.CurrentMode(ctx)
	if err != nil {
		return nil, errFactory.Wrap(ErrQuery, err)
	}

	logger.Debug().Str("baseline", current.String()).Msg("Captured display mode baseline")

	return &Method{
		api:      api,
		baseline: current,
		target:   target,
	}, nil
}

// Baseline returns the mode active at construction.
func (m *Method) Baseline() Mode {
	return m.baseline
}

// SnapshotBaseline encodes the baseline mode.
func (m *Method) SnapshotBaseline(context.Context) ([]byte, error) {
	return json.Marshal(m.baseline)
}

// RestoreBaseline replaces the baseline mode.
func (m *Method) RestoreBaseline(data []byte) error {
	var saved Mode
	if err := json.Unmarshal(data, &saved); err != nil {
		return errors.New().Wrap(errors.ErrInvalidArgument, err)
	}
	if saved.Width == 0 || saved.Height == 0 {
		return errors.New().WithData(errors.ErrInvalidArgument, "saved display mode is empty")
	}

	m.baseline = saved

	return nil
}

// Options lists the supported resolutions below the baseline, largest first.
func (m *Method) Options(ctx context.Context) ([]string, error) {
	modes, err := m.api.Modes(ctx)
	if err != nil {
		return nil, errors.New().Wrap(ErrQuery, err)
	}

	seen := make(map[Mode]bool)
	var below []Mode
	for _, mode := range modes {
		res := Mode{Width: mode.Width, Height: mode.Height}
		if seen[res] || area(res) >= area(m.baseline) {
			continue
		}
		seen[res] = true
		below = append(below, res)
	}

	slices.SortFunc(below, func(a, b Mode) int {
		return cmp.Compare(area(b), area(a))
	})

	options := make([]string, 0, len(below))
	for _, mode := range below {
		options = append(options, mode.String())
	}

	return options, nil
}

// InitialState is enabled iff the current mode matches the target. The
// option reports the current mode.
func (m *Method) InitialState(ctx context.Context) (tweak.State, error) {
	current, err := m.api.CurrentMode(ctx)
	if err != nil {
		return tweak.Disabled, errors.New().Wrap(ErrQuery, err)
	}

	m.mu.Lock()
	target := m.target
	m.mu.Unlock()

	return tweak.State{Enabled: target.Matches(current), Option: current.String()}, nil
}

func (m *Method) Apply(ctx context.Context, option tweak.State) error {
	if !option.Enabled {
		return m.Revert(ctx)
	}

	m.mu.Lock()
	target := m.target
	m.mu.Unlock()

	if option.Option != "" {
		parsed, err := ParseMode(option.Option)
		if err != nil {
			return err
		}
		target = parsed
	}

	mode, err := m.resolve(ctx, target)
	if err != nil {
		return err
	}

	if err := m.set(ctx, mode); err != nil {
		return err
	}

	m.mu.Lock()
	m.target = target
	m.mu.Unlock()

	return nil
}

func (m *Method) Revert(ctx context.Context) error {
	return m.set(ctx, m.baseline)
}

// resolve picks the supported mode for target, preferring the baseline
// refresh rate when target leaves it open.
func (m *Method) resolve(ctx context.Context, target Mode) (Mode, error) {
	modes, err := m.api.Modes(ctx)
	if err != nil {
		return Mode{}, errors.New().Wrap(ErrQuery, err)
	}

	var found *Mode
	for i := range modes {
		if !target.Matches(modes[i]) {
			continue
		}
		if modes[i].Frequency == m.baseline.Frequency {
			return modes[i], nil
		}
		if found == nil {
			found = &modes[i]
		}
	}
	if found == nil {
		return Mode{}, errors.New().WithData(ErrUnsupportedMode, target.String())
	}

	return *found, nil
}

func (m *Method) set(ctx context.Context, mode Mode) error {
	if err := m.api.SetMode(ctx, mode); err != nil {
		return errors.New().Wrap(ErrChange, err).WithData(mode.String())
	}

	logger.Info().Str("mode", mode.String()).Msg("Display mode changed")

	return nil
}

func area(m Mode) uint64 {
	return uint64(m.Width) * uint64(m.Height)
}
