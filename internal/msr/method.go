package msr

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"codeberg.org/mutker/tweakctl/internal/errors"
	"codeberg.org/mutker/tweakctl/internal/logger"
	"codeberg.org/mutker/tweakctl/internal/tweak"
)

const maxBit = 63

// Method applies an ordered list of register edits identically across every
// logical core, verifying each write.
type Method struct {
	access   *Access
	topology *Topology
	edits    []Edit
	readable bool

	mu sync.Mutex
	// baseline holds each edit's bit as found by the first apply; nil until
	// then and again after a revert.
	baseline []bool
}

type MethodOption func(*Method)

// NotReadable marks a tweak with no defined initial state; InitialState
// reports disabled without touching the hardware.
func NotReadable() MethodOption {
	return func(m *Method) {
		m.readable = false
	}
}

func NewMethod(access *Access, topology *Topology, edits []Edit, opts ...MethodOption) (*Method, error) {
	errFactory := errors.New()

	if access == nil {
		return nil, errFactory.WithData(errors.ErrInvalidArgument, "nil channel access")
	}
	if topology == nil || topology.Logical < 1 {
		return nil, errFactory.New(ErrInvalidTopology)
	}
	if len(edits) == 0 {
		return nil, errFactory.WithData(ErrInvalidEdit, "no edits")
	}
	for _, e := range edits {
		if e.Bit > maxBit {
			return nil, errFactory.WithData(ErrInvalidEdit, Fault{Register: e.Register, Bit: e.Bit})
		}
	}

	m := &Method{
		access:   access,
		topology: topology,
		edits:    append([]Edit(nil), edits...),
		readable: true,
	}
	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// Edits returns a copy of the edit list.
func (m *Method) Edits() []Edit {
	return append([]Edit(nil), m.edits...)
}

// InitialState is enabled only if every edit's desired bit is observed on
// every core. Cores that disagree fail the call.
func (m *Method) InitialState(ctx context.Context) (tweak.State, error) {
	if !m.readable {
		return tweak.Disabled, nil
	}

	enabled := true
	err := m.access.Do(ctx, func(ch Channel) error {
		for _, e := range m.edits {
			match, err := m.observe(ch, e)
			if err != nil {
				return err
			}
			if !match {
				enabled = false
			}
		}
		return nil
	})
	if err != nil {
		return tweak.Disabled, err
	}

	return tweak.State{Enabled: enabled}, nil
}

// Apply writes the desired bits when option is enabled and reverts
// otherwise. The first apply records each edit's bit as the revert baseline.
func (m *Method) Apply(ctx context.Context, option tweak.State) error {
	if !option.Enabled {
		return m.Revert(ctx)
	}

	return m.access.Do(ctx, func(ch Channel) error {
		if err := m.capture(ch); err != nil {
			return err
		}

		targets := make([]bool, len(m.edits))
		for i, e := range m.edits {
			targets[i] = e.Desired
		}

		return m.write(ch, targets)
	})
}

// Revert restores the bits recorded before the first apply. Without a
// recorded baseline, as for tweaks that are not readable, it writes the
// negation of every desired bit.
func (m *Method) Revert(ctx context.Context) error {
	return m.access.Do(ctx, func(ch Channel) error {
		m.mu.Lock()
		targets := append([]bool(nil), m.baseline...)
		m.mu.Unlock()

		if targets == nil {
			targets = make([]bool, len(m.edits))
			for i, e := range m.edits {
				targets[i] = !e.Desired
			}
		}

		if err := m.write(ch, targets); err != nil {
			return err
		}

		m.mu.Lock()
		m.baseline = nil
		m.mu.Unlock()

		return nil
	})
}

// SnapshotBaseline records the baseline if needed and encodes it. Tweaks
// that are not readable have none.
func (m *Method) SnapshotBaseline(ctx context.Context) ([]byte, error) {
	if !m.readable {
		return nil, nil
	}

	if err := m.access.Do(ctx, m.capture); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return json.Marshal(m.baseline)
}

// RestoreBaseline replaces the recorded bits with ones saved earlier.
func (m *Method) RestoreBaseline(data []byte) error {
	var saved []bool
	if err := json.Unmarshal(data, &saved); err != nil {
		return errors.New().Wrap(errors.ErrInvalidArgument, err)
	}
	if len(saved) != len(m.edits) {
		return errors.New().WithData(errors.ErrInvalidArgument,
			fmt.Sprintf("saved baseline has %d bits, want %d", len(saved), len(m.edits)))
	}

	m.mu.Lock()
	m.baseline = saved
	m.mu.Unlock()

	return nil
}

// capture records the current bit of every edit unless a baseline exists.
// An edit whose cores disagree is recorded as the negation of its desired
// bit. Callers hold the channel lock.
func (m *Method) capture(ch Channel) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.readable || m.baseline != nil {
		return nil
	}

	baseline := make([]bool, len(m.edits))
	for i, e := range m.edits {
		set, cleared, err := m.sample(ch, e)
		if err != nil {
			return err
		}

		switch {
		case len(set) > 0 && len(cleared) > 0:
			logger.Warn().
				Str("register", fmt.Sprintf("%#x", e.Register)).
				Uint32("bit", e.Bit).
				Ints("set", set).
				Ints("clear", cleared).
				Msg("Cores disagree before apply, revert will write the opposite of the desired bit")
			baseline[i] = !e.Desired
		default:
			baseline[i] = len(set) > 0
		}
	}
	m.baseline = baseline

	return nil
}

// observe reports whether all cores match the edit's desired bit.
func (m *Method) observe(ch Channel, e Edit) (bool, error) {
	set, cleared, err := m.sample(ch, e)
	if err != nil {
		return false, err
	}

	if len(set) > 0 && len(cleared) > 0 {
		return false, errors.New().WithData(ErrInconsistentCores, Disagreement{
			Register: e.Register,
			Bit:      e.Bit,
			Set:      set,
			Clear:    cleared,
		})
	}

	return (len(set) > 0) == e.Desired, nil
}

// sample reads the edit's bit on every core and partitions the cores by it.
func (m *Method) sample(ch Channel, e Edit) (set, cleared []int, err error) {
	for core := 0; core < m.topology.Logical; core++ {
		value, readErr := ch.ReadRegister(core, e.Register)
		if readErr != nil {
			return nil, nil, errors.New().Wrap(ErrReadFailed, readErr).
				WithData(Fault{Register: e.Register, Bit: e.Bit, Core: core})
		}

		if e.isSet(value) {
			set = append(set, core)
		} else {
			cleared = append(cleared, core)
		}
	}

	return set, cleared, nil
}

// write sets edit i's bit to targets[i] on every core, edit by edit.
func (m *Method) write(ch Channel, targets []bool) error {
	for i, e := range m.edits {
		for core := 0; core < m.topology.Logical; core++ {
			if err := m.writeCore(ch, e, core, targets[i]); err != nil {
				return err
			}
		}

		logger.Debug().
			Str("register", fmt.Sprintf("%#x", e.Register)).
			Uint32("bit", e.Bit).
			Bool("set", targets[i]).
			Int("cores", m.topology.Logical).
			Msg("Register edit verified on all cores")
	}

	return nil
}

// writeCore performs read, modify, write and read-back on one core.
func (m *Method) writeCore(ch Channel, e Edit, core int, set bool) error {
	errFactory := errors.New()
	fault := Fault{Register: e.Register, Bit: e.Bit, Core: core}

	value, err := ch.ReadRegister(core, e.Register)
	if err != nil {
		return errFactory.Wrap(ErrReadFailed, err).WithData(fault)
	}

	if err := ch.WriteRegister(core, e.Register, e.with(value, set)); err != nil {
		return errFactory.Wrap(ErrWriteFailed, err).WithData(fault)
	}

	readBack, err := ch.ReadRegister(core, e.Register)
	if err != nil {
		return errFactory.Wrap(ErrReadFailed, err).WithData(fault)
	}

	if e.isSet(readBack) != set {
		return errFactory.WithData(ErrVerifyFailed, fault).
			WithMessage(fmt.Sprintf("Register write did not take effect (expected bit %t)", set))
	}

	return nil
}
