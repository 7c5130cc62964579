package service

import (
	"context"
	"encoding/json"

	"codeberg.org/mutker/tweakctl/internal/errors"
	"codeberg.org/mutker/tweakctl/internal/logger"
	"codeberg.org/mutker/tweakctl/internal/tweak"
)

// Method disables and stops a set of services. Revert restores the start
// type each service had at construction and restarts the ones that were
// running.
type Method struct {
	ctrl     Controller
	names    []string
	baseline map[string]Status
}

// NewMethod captures the status of every named service.
func NewMethod(ctx context.Context, ctrl Controller, names ...string) (*Method, error) {
	errFactory := errors.New()

	if ctrl == nil {
		return nil, errFactory.WithData(errors.ErrInvalidArgument, "nil service controller")
	}
	if len(names) == 0 {
		return nil, errFactory.New(ErrNoServices)
	}

	baseline := make(map[string]Status, len(names))
	for _, name := range names {
		status, err := ctrl.Query(ctx, name)
		if err != nil {
			return nil, errFactory.Wrap(ErrQuery, err).WithData(name)
		}
		baseline[name] = status

		logger.Debug().
			Str("service", name).
			Str("start_type", status.StartType.String()).
			Bool("running", status.Running).
			Msg("Captured service baseline")
	}

	return &Method{
		ctrl:     ctrl,
		names:    append([]string(nil), names...),
		baseline: baseline,
	}, nil
}

// Names returns the managed services in order.
func (m *Method) Names() []string {
	return append([]string(nil), m.names...)
}

// SnapshotBaseline encodes the status captured for every service.
func (m *Method) SnapshotBaseline(context.Context) ([]byte, error) {
	return json.Marshal(m.baseline)
}

// RestoreBaseline replaces the captured statuses. Every managed service must
// be present in data.
func (m *Method) RestoreBaseline(data []byte) error {
	errFactory := errors.New()

	var saved map[string]Status
	if err := json.Unmarshal(data, &saved); err != nil {
		return errFactory.Wrap(errors.ErrInvalidArgument, err)
	}
	for _, name := range m.names {
		if _, ok := saved[name]; !ok {
			return errFactory.WithData(errors.ErrInvalidArgument, "saved baseline misses service "+name)
		}
	}

	m.baseline = saved

	return nil
}

// InitialState is enabled iff every service is disabled and stopped.
func (m *Method) InitialState(ctx context.Context) (tweak.State, error) {
	for _, name := range m.names {
		status, err := m.ctrl.Query(ctx, name)
		if err != nil {
			return tweak.Disabled, errors.New().Wrap(ErrQuery, err).WithData(name)
		}
		if status.StartType != StartDisabled || status.Running {
			return tweak.Disabled, nil
		}
	}

	return tweak.Enabled, nil
}

func (m *Method) Apply(ctx context.Context, option tweak.State) error {
	if !option.Enabled {
		return m.Revert(ctx)
	}

	errFactory := errors.New()

	for _, name := range m.names {
		if err := m.ctrl.SetStartType(ctx, name, StartDisabled); err != nil {
			return errFactory.Wrap(ErrConfigure, err).WithData(name)
		}

		status, err := m.ctrl.Query(ctx, name)
		if err != nil {
			return errFactory.Wrap(ErrQuery, err).WithData(name)
		}
		if status.Running {
			if err := m.ctrl.Stop(ctx, name); err != nil {
				return errFactory.Wrap(ErrStop, err).WithData(name)
			}
		}

		logger.Info().Str("service", name).Msg("Service disabled")
	}

	return nil
}

// Revert continues past failures so one stubborn service does not leave the
// rest disabled. The first failure is returned.
func (m *Method) Revert(ctx context.Context) error {
	errFactory := errors.New()

	var first error
	keep := func(err errors.Error) {
		if first == nil {
			first = err
		}
		logger.ErrorWithContext(err, "service", "revert").Msg("Failed to restore service")
	}

	for _, name := range m.names {
		base := m.baseline[name]

		if err := m.ctrl.SetStartType(ctx, name, base.StartType); err != nil {
			keep(errFactory.Wrap(ErrConfigure, err).WithData(name))
			continue
		}

		if !base.Running {
			continue
		}

		status, err := m.ctrl.Query(ctx, name)
		if err != nil {
			keep(errFactory.Wrap(ErrQuery, err).WithData(name))
			continue
		}
		if !status.Running {
			if err := m.ctrl.Start(ctx, name); err != nil {
				keep(errFactory.Wrap(ErrStart, err).WithData(name))
				continue
			}
		}

		logger.Info().Str("service", name).Msg("Service restored")
	}

	return first
}
