//go:build windows

package power

import (
	"context"
	"fmt"
	"syscall"
	"unsafe"

	"codeberg.org/mutker/tweakctl/internal/errors"
	"github.com/google/uuid"
	"golang.org/x/sys/windows"
)

const accessScheme = 16 // ACCESS_SCHEME

var (
	modpowrprof = windows.NewLazySystemDLL("powrprof.dll")

	procPowerGetActiveScheme  = modpowrprof.NewProc("PowerGetActiveScheme")
	procPowerSetActiveScheme  = modpowrprof.NewProc("PowerSetActiveScheme")
	procPowerEnumerate        = modpowrprof.NewProc("PowerEnumerate")
	procPowerReadFriendlyName = modpowrprof.NewProc("PowerReadFriendlyName")
	procPowerDuplicateScheme  = modpowrprof.NewProc("PowerDuplicateScheme")
)

type systemAPI struct{}

// NewSystemAPI returns the powrprof.dll backed API.
func NewSystemAPI() (API, error) {
	if err := modpowrprof.Load(); err != nil {
		return nil, errors.New().Wrap(ErrAPIUnavailable, err)
	}

	return &systemAPI{}, nil
}

func (s *systemAPI) ActiveScheme(_ context.Context) (Scheme, error) {
	var active *windows.GUID
	if r, _, _ := procPowerGetActiveScheme.Call(0, uintptr(unsafe.Pointer(&active))); r != 0 {
		return Scheme{}, fmt.Errorf("PowerGetActiveScheme: %w", syscall.Errno(r))
	}
	defer localFree(active)

	return s.scheme(*active)
}

func (s *systemAPI) Schemes(_ context.Context) ([]Scheme, error) {
	var schemes []Scheme

	for index := uint32(0); ; index++ {
		var guid windows.GUID
		size := uint32(unsafe.Sizeof(guid))

		r, _, _ := procPowerEnumerate.Call(
			0, 0, 0,
			accessScheme,
			uintptr(index),
			uintptr(unsafe.Pointer(&guid)),
			uintptr(unsafe.Pointer(&size)),
		)
		if syscall.Errno(r) == windows.ERROR_NO_MORE_ITEMS {
			break
		}
		if r != 0 {
			return nil, fmt.Errorf("PowerEnumerate index %d: %w", index, syscall.Errno(r))
		}

		scheme, err := s.scheme(guid)
		if err != nil {
			return nil, err
		}
		schemes = append(schemes, scheme)
	}

	return schemes, nil
}

func (*systemAPI) SetActiveScheme(_ context.Context, guid uuid.UUID) error {
	wguid, err := toWindowsGUID(guid)
	if err != nil {
		return err
	}

	if r, _, _ := procPowerSetActiveScheme.Call(0, uintptr(unsafe.Pointer(&wguid))); r != 0 {
		return fmt.Errorf("PowerSetActiveScheme %s: %w", guid, syscall.Errno(r))
	}

	return nil
}

func (s *systemAPI) DuplicateScheme(_ context.Context, template uuid.UUID) (Scheme, error) {
	source, err := toWindowsGUID(template)
	if err != nil {
		return Scheme{}, err
	}

	var duplicate *windows.GUID
	r, _, _ := procPowerDuplicateScheme.Call(
		0,
		uintptr(unsafe.Pointer(&source)),
		uintptr(unsafe.Pointer(&duplicate)),
	)
	if r != 0 {
		return Scheme{}, fmt.Errorf("PowerDuplicateScheme %s: %w", template, syscall.Errno(r))
	}
	defer localFree(duplicate)

	return s.scheme(*duplicate)
}

func (*systemAPI) scheme(guid windows.GUID) (Scheme, error) {
	id, err := uuid.Parse(guid.String())
	if err != nil {
		return Scheme{}, err
	}

	var size uint32
	r, _, _ := procPowerReadFriendlyName.Call(
		0, uintptr(unsafe.Pointer(&guid)), 0, 0, 0,
		uintptr(unsafe.Pointer(&size)),
	)
	if r != 0 || size == 0 {
		// Freshly duplicated schemes may have no name yet.
		return Scheme{GUID: id}, nil
	}

	buf := make([]byte, size)
	r, _, _ = procPowerReadFriendlyName.Call(
		0, uintptr(unsafe.Pointer(&guid)), 0, 0,
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(unsafe.Pointer(&size)),
	)
	if r != 0 {
		return Scheme{}, fmt.Errorf("PowerReadFriendlyName %s: %w", id, syscall.Errno(r))
	}

	name, err := decodeFriendlyName(buf[:size])
	if err != nil {
		return Scheme{}, err
	}

	return Scheme{GUID: id, Name: name}, nil
}

func toWindowsGUID(id uuid.UUID) (windows.GUID, error) {
	return windows.GUIDFromString("{" + id.String() + "}")
}

func localFree(guid *windows.GUID) {
	if guid != nil {
		_, _ = windows.LocalFree(windows.Handle(unsafe.Pointer(guid)))
	}
}
