//go:build linux

package msr

import (
	"encoding/binary"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

const registerSize = 8

// devMSR uses the msr kernel module's per-core device files.
type devMSR struct {
	mu  sync.Mutex
	fds map[int]int
}

func openDevMSR() (Channel, error) {
	if err := unix.Access(devMSRPath(0), unix.R_OK|unix.W_OK); err != nil {
		return nil, fmt.Errorf("%s (is the msr module loaded?): %w", devMSRPath(0), err)
	}

	return &devMSR{fds: make(map[int]int)}, nil
}

func devMSRPath(core int) string {
	return fmt.Sprintf("/dev/cpu/%d/msr", core)
}

func (d *devMSR) fd(core int) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if fd, ok := d.fds[core]; ok {
		return fd, nil
	}

	fd, err := unix.Open(devMSRPath(core), unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return -1, fmt.Errorf("open %s: %w", devMSRPath(core), err)
	}
	d.fds[core] = fd

	return fd, nil
}

func (d *devMSR) ReadRegister(core int, register uint32) (uint64, error) {
	fd, err := d.fd(core)
	if err != nil {
		return 0, err
	}

	buf := make([]byte, registerSize)
	n, err := unix.Pread(fd, buf, int64(register))
	if err != nil {
		return 0, fmt.Errorf("pread %s at %#x: %w", devMSRPath(core), register, err)
	}
	if n != registerSize {
		return 0, fmt.Errorf("pread %s at %#x: short read of %d bytes", devMSRPath(core), register, n)
	}

	return binary.LittleEndian.Uint64(buf), nil
}

func (d *devMSR) WriteRegister(core int, register uint32, value uint64) error {
	fd, err := d.fd(core)
	if err != nil {
		return err
	}

	buf := make([]byte, registerSize)
	binary.LittleEndian.PutUint64(buf, value)

	n, err := unix.Pwrite(fd, buf, int64(register))
	if err != nil {
		return fmt.Errorf("pwrite %s at %#x: %w", devMSRPath(core), register, err)
	}
	if n != registerSize {
		return fmt.Errorf("pwrite %s at %#x: short write of %d bytes", devMSRPath(core), register, n)
	}

	return nil
}

func (d *devMSR) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var firstErr error
	for core, fd := range d.fds {
		if err := unix.Close(fd); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(d.fds, core)
	}

	return firstErr
}
