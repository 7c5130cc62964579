//go:build windows

package msr

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// winRing0 drives the WinRing0 kernel driver through its user-mode library.
type winRing0 struct {
	dll     *windows.LazyDLL
	rdmsrTx *windows.LazyProc
	wrmsrTx *windows.LazyProc
	deinit  *windows.LazyProc
}

func openWinRing0(path string) (Channel, error) {
	dll := windows.NewLazyDLL(path)
	if err := dll.Load(); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	w := &winRing0{
		dll:     dll,
		rdmsrTx: dll.NewProc("RdmsrTx"),
		wrmsrTx: dll.NewProc("WrmsrTx"),
		deinit:  dll.NewProc("DeinitializeOls"),
	}

	for _, proc := range []*windows.LazyProc{w.rdmsrTx, w.wrmsrTx, w.deinit} {
		if err := proc.Find(); err != nil {
			return nil, fmt.Errorf("resolve %s: %w", proc.Name, err)
		}
	}

	if ok, _, err := dll.NewProc("InitializeOls").Call(); ok == 0 {
		return nil, fmt.Errorf("InitializeOls: %w", err)
	}

	return w, nil
}

func (w *winRing0) ReadRegister(core int, register uint32) (uint64, error) {
	mask, err := affinityMask(core)
	if err != nil {
		return 0, err
	}

	var eax, edx uint32
	ok, _, callErr := w.rdmsrTx.Call(
		uintptr(register),
		uintptr(unsafe.Pointer(&eax)),
		uintptr(unsafe.Pointer(&edx)),
		mask,
	)
	if ok == 0 {
		return 0, fmt.Errorf("RdmsrTx: %w", callErr)
	}

	return uint64(edx)<<32 | uint64(eax), nil
}

func (w *winRing0) WriteRegister(core int, register uint32, value uint64) error {
	mask, err := affinityMask(core)
	if err != nil {
		return err
	}

	ok, _, callErr := w.wrmsrTx.Call(
		uintptr(register),
		uintptr(uint32(value)),
		uintptr(uint32(value>>32)),
		mask,
	)
	if ok == 0 {
		return fmt.Errorf("WrmsrTx: %w", callErr)
	}

	return nil
}

func (w *winRing0) Close() error {
	_, _, _ = w.deinit.Call()
	return nil
}
