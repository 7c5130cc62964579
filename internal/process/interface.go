package process

import "context"

// Table is the operating system's process table.
type Table interface {
	// Find returns the PIDs of processes whose executable name matches.
	Find(ctx context.Context, name string) ([]int32, error)
	Kill(ctx context.Context, pid int32) error
	// Start launches command detached from this process.
	Start(ctx context.Context, command []string) error
}
