package msr

import (
	"sync"

	"codeberg.org/mutker/tweakctl/internal/errors"
)

type registerKey struct {
	core     int
	register uint32
}

// MemoryChannel is an in-process register file. Unwritten registers read
// as zero.
type MemoryChannel struct {
	mu        sync.Mutex
	cores     int
	registers map[registerKey]uint64
}

func NewMemoryChannel(cores int) *MemoryChannel {
	return &MemoryChannel{
		cores:     cores,
		registers: make(map[registerKey]uint64),
	}
}

func (c *MemoryChannel) ReadRegister(core int, register uint32) (uint64, error) {
	if err := c.checkCore(core); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.registers[registerKey{core, register}], nil
}

func (c *MemoryChannel) WriteRegister(core int, register uint32, value uint64) error {
	if err := c.checkCore(core); err != nil {
		return err
	}

	c.Set(core, register, value)

	return nil
}

// Set stores a value without bounds checks.
func (c *MemoryChannel) Set(core int, register uint32, value uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registers[registerKey{core, register}] = value
}

// Get returns a stored value.
func (c *MemoryChannel) Get(core int, register uint32) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registers[registerKey{core, register}]
}

func (*MemoryChannel) Close() error {
	return nil
}

func (c *MemoryChannel) checkCore(core int) error {
	if core < 0 || core >= c.cores {
		return errors.New().WithData(ErrCoreOutOfRange, core)
	}
	return nil
}
