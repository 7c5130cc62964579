package msr

import (
	"fmt"

	"codeberg.org/mutker/tweakctl/internal/errors"
)

const (
	ErrChannelUnavailable = errors.ErrorCode("msr_channel_unavailable")
	ErrChannelOpen        = errors.ErrorCode("msr_channel_open_failed")
	ErrReadFailed         = errors.ErrorCode("msr_read_failed")
	ErrWriteFailed        = errors.ErrorCode("msr_write_failed")
	ErrInconsistentCores  = errors.ErrorCode("msr_inconsistent_cores")
	ErrVerifyFailed       = errors.ErrorCode("msr_verify_failed")
	ErrInvalidEdit        = errors.ErrorCode("msr_invalid_edit")
	ErrInvalidTopology    = errors.ErrorCode("msr_invalid_topology")
	ErrCoreOutOfRange     = errors.ErrorCode("msr_core_out_of_range")
)

// Fault locates a failed register operation.
type Fault struct {
	Register uint32
	Bit      uint32
	Core     int
}

func (f Fault) String() string {
	return fmt.Sprintf("register %#x bit %d core %d", f.Register, f.Bit, f.Core)
}

// Disagreement describes cores that observe different values for one edit.
type Disagreement struct {
	Register uint32
	Bit      uint32
	Set      []int
	Clear    []int
}

func (d Disagreement) String() string {
	return fmt.Sprintf("register %#x bit %d is set on cores %v and clear on cores %v",
		d.Register, d.Bit, d.Set, d.Clear)
}
