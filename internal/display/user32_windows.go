//go:build windows

package display

import (
	"context"
	"fmt"
	"unsafe"

	"codeberg.org/mutker/tweakctl/internal/errors"
	"golang.org/x/sys/windows"
)

var (
	user32                     = windows.NewLazySystemDLL("user32.dll")
	procEnumDisplaySettingsW   = user32.NewProc("EnumDisplaySettingsW")
	procChangeDisplaySettingsW = user32.NewProc("ChangeDisplaySettingsW")
)

const (
	enumCurrentSettings = 0xFFFFFFFF

	dmPelsWidth          = 0x00080000
	dmPelsHeight         = 0x00100000
	dmDisplayFrequency   = 0x00400000
	dispChangeSuccessful = 0
)

// devMode is the display variant of DEVMODEW.
type devMode struct {
	DeviceName         [32]uint16
	SpecVersion        uint16
	DriverVersion      uint16
	Size               uint16
	DriverExtra        uint16
	Fields             uint32
	PositionX          int32
	PositionY          int32
	DisplayOrientation uint32
	DisplayFixedOutput uint32
	Color              int16
	Duplex             int16
	YResolution        int16
	TTOption           int16
	Collate            int16
	FormName           [32]uint16
	LogPixels          uint16
	BitsPerPel         uint32
	PelsWidth          uint32
	PelsHeight         uint32
	DisplayFlags       uint32
	DisplayFrequency   uint32
	ICMMethod          uint32
	ICMIntent          uint32
	MediaType          uint32
	DitherType         uint32
	Reserved1          uint32
	Reserved2          uint32
	PanningWidth       uint32
	PanningHeight      uint32
}

type user32API struct{}

// NewSystemAPI returns an API for the primary display.
func NewSystemAPI() (API, error) {
	if err := user32.Load(); err != nil {
		return nil, errors.New().Wrap(ErrUnavailable, err)
	}
	return user32API{}, nil
}

func (user32API) CurrentMode(_ context.Context) (Mode, error) {
	dm, ok := enumSettings(enumCurrentSettings)
	if !ok {
		return Mode{}, errors.New().WithMessage(ErrQuery, "EnumDisplaySettingsW failed for current settings")
	}
	return toMode(dm), nil
}

func (user32API) Modes(_ context.Context) ([]Mode, error) {
	var modes []Mode
	for i := uint32(0); ; i++ {
		dm, ok := enumSettings(i)
		if !ok {
			break
		}
		mode := toMode(dm)
		if !containsExact(modes, mode) {
			modes = append(modes, mode)
		}
	}
	return modes, nil
}

func (user32API) SetMode(_ context.Context, mode Mode) error {
	dm, ok := enumSettings(enumCurrentSettings)
	if !ok {
		return errors.New().WithMessage(ErrQuery, "EnumDisplaySettingsW failed for current settings")
	}

	dm.PelsWidth = mode.Width
	dm.PelsHeight = mode.Height
	dm.Fields = dmPelsWidth | dmPelsHeight
	if mode.Frequency != 0 {
		dm.DisplayFrequency = mode.Frequency
		dm.Fields |= dmDisplayFrequency
	}

	r, _, _ := procChangeDisplaySettingsW.Call(uintptr(unsafe.Pointer(&dm)), 0)
	if int32(r) != dispChangeSuccessful {
		return errors.New().WithData(ErrChange, fmt.Sprintf("ChangeDisplaySettingsW returned %d", int32(r)))
	}

	return nil
}

func enumSettings(index uint32) (devMode, bool) {
	var dm devMode
	dm.Size = uint16(unsafe.Sizeof(dm))

	r, _, _ := procEnumDisplaySettingsW.Call(0, uintptr(index), uintptr(unsafe.Pointer(&dm)))
	return dm, r != 0
}

func toMode(dm devMode) Mode {
	return Mode{Width: dm.PelsWidth, Height: dm.PelsHeight, Frequency: dm.DisplayFrequency}
}
