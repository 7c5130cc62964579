package process

import (
	"context"
	"os/exec"

	"codeberg.org/mutker/tweakctl/internal/errors"
	"github.com/shirou/gopsutil/v4/process"
)

type systemTable struct{}

// NewSystemTable returns a Table backed by the live process list.
func NewSystemTable() Table {
	return systemTable{}
}

func (systemTable) Find(ctx context.Context, name string) ([]int32, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	var pids []int32
	for _, p := range procs {
		if p == nil {
			continue
		}
		// Some system processes do not allow name lookup.
		pname, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		if MatchName(pname, name) {
			pids = append(pids, p.Pid)
		}
	}

	return pids, nil
}

func (systemTable) Kill(ctx context.Context, pid int32) error {
	p, err := process.NewProcessWithContext(ctx, pid)
	if errors.Is(err, process.ErrorProcessNotRunning) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := p.KillWithContext(ctx); err != nil {
		if running, rerr := p.IsRunningWithContext(ctx); rerr == nil && !running {
			return nil
		}
		return err
	}

	return nil
}

func (systemTable) Start(_ context.Context, command []string) error {
	if len(command) == 0 {
		return errors.New().WithData(errors.ErrInvalidArgument, "empty command")
	}

	// Not tied to ctx: the process outlives the request.
	cmd := exec.Command(command[0], command[1:]...)
	if err := cmd.Start(); err != nil {
		return err
	}

	return cmd.Process.Release()
}
