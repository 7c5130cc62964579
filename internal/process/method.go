package process

import (
	"context"

	"codeberg.org/mutker/tweakctl/internal/errors"
	"codeberg.org/mutker/tweakctl/internal/logger"
	"codeberg.org/mutker/tweakctl/internal/tweak"
)

// Method terminates every process with one of the given executable names.
// Revert runs the restart command, if any, when none of them is running.
type Method struct {
	table   Table
	names   []string
	restart []string
}

func NewMethod(table Table, names []string, restart ...string) (*Method, error) {
	errFactory := errors.New()

	if table == nil {
		return nil, errFactory.WithData(errors.ErrInvalidArgument, "nil process table")
	}
	if len(names) == 0 {
		return nil, errFactory.New(ErrNoTargets)
	}

	return &Method{
		table:   table,
		names:   append([]string(nil), names...),
		restart: append([]string(nil), restart...),
	}, nil
}

// InitialState is enabled iff none of the processes is running.
func (m *Method) InitialState(ctx context.Context) (tweak.State, error) {
	running, err := m.running(ctx)
	if err != nil {
		return tweak.Disabled, err
	}
	return tweak.State{Enabled: len(running) == 0}, nil
}

// Apply kills every match. Processes that exit on their own between listing
// and killing are not errors.
func (m *Method) Apply(ctx context.Context, option tweak.State) error {
	if !option.Enabled {
		return m.Revert(ctx)
	}

	pids, err := m.running(ctx)
	if err != nil {
		return err
	}

	for _, pid := range pids {
		if err := m.table.Kill(ctx, pid); err != nil {
			return errors.New().Wrap(ErrKill, err).WithData(pid)
		}
		logger.Info().Int32("pid", pid).Strs("names", m.names).Msg("Process terminated")
	}

	return nil
}

func (m *Method) Revert(ctx context.Context) error {
	if len(m.restart) == 0 {
		return nil
	}

	running, err := m.running(ctx)
	if err != nil {
		return err
	}
	if len(running) > 0 {
		return nil
	}

	if err := m.table.Start(ctx, m.restart); err != nil {
		return errors.New().Wrap(ErrStart, err).WithData(m.restart[0])
	}
	logger.Info().Strs("command", m.restart).Msg("Process restarted")

	return nil
}

func (m *Method) running(ctx context.Context) ([]int32, error) {
	var pids []int32
	for _, name := range m.names {
		found, err := m.table.Find(ctx, name)
		if err != nil {
			return nil, errors.New().Wrap(ErrList, err).WithData(name)
		}
		pids = append(pids, found...)
	}
	return pids, nil
}
