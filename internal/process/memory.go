package process

import (
	"context"
	"sync"

	"codeberg.org/mutker/tweakctl/internal/errors"
)

// MemoryTable is an in-memory process table. Start registers the command's
// first element as a new process.
type MemoryTable struct {
	mu      sync.Mutex
	next    int32
	procs   map[int32]string
	started [][]string
}

func NewMemoryTable(names ...string) *MemoryTable {
	t := &MemoryTable{next: 100, procs: make(map[int32]string)}
	for _, name := range names {
		t.spawn(name)
	}
	return t
}

func (t *MemoryTable) Find(_ context.Context, name string) ([]int32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var pids []int32
	for pid := int32(100); pid < t.next; pid++ {
		if pname, ok := t.procs[pid]; ok && MatchName(pname, name) {
			pids = append(pids, pid)
		}
	}
	return pids, nil
}

func (t *MemoryTable) Kill(_ context.Context, pid int32) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.procs, pid)
	return nil
}

func (t *MemoryTable) Start(_ context.Context, command []string) error {
	if len(command) == 0 {
		return errors.New().WithData(errors.ErrInvalidArgument, "empty command")
	}

	t.mu.Lock()
	t.started = append(t.started, append([]string(nil), command...))
	t.mu.Unlock()

	t.spawn(command[0])
	return nil
}

// Started returns the commands passed to Start.
func (t *MemoryTable) Started() [][]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([][]string(nil), t.started...)
}

func (t *MemoryTable) spawn(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.procs[t.next] = name
	t.next++
}
