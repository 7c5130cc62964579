package msr

// Channel is the hardware access channel: a driver handle able to read and
// write a model-specific register on a given logical core. Implementations
// are not required to be safe for concurrent use; Access serializes callers.
type Channel interface {
	ReadRegister(core int, register uint32) (uint64, error)
	WriteRegister(core int, register uint32, value uint64) error
	Close() error
}

// Edit is one bit-level change to a register, replicated on every core.
type Edit struct {
	Register uint32
	Bit      uint32
	// Desired is the bit value that counts as "enabled".
	Desired bool
}

func (e Edit) mask() uint64 {
	return uint64(1) << e.Bit
}

// with returns value with the edit's bit set or cleared.
func (e Edit) with(value uint64, set bool) uint64 {
	if set {
		return value | e.mask()
	}
	return value &^ e.mask()
}

func (e Edit) isSet(value uint64) bool {
	return value&e.mask() != 0
}
