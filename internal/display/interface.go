package display

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"codeberg.org/mutker/tweakctl/internal/errors"
)

// Mode is a display resolution. A zero Frequency matches any refresh rate.
type Mode struct {
	Width     uint32 `json:"width" yaml:"width"`
	Height    uint32 `json:"height" yaml:"height"`
	Frequency uint32 `json:"frequency,omitempty" yaml:"frequency,omitempty"`
}

func (m Mode) String() string {
	if m.Frequency == 0 {
		return fmt.Sprintf("%dx%d", m.Width, m.Height)
	}
	return fmt.Sprintf("%dx%d@%d", m.Width, m.Height, m.Frequency)
}

// Matches reports whether other satisfies m.
func (m Mode) Matches(other Mode) bool {
	if m.Width != other.Width || m.Height != other.Height {
		return false
	}
	return m.Frequency == 0 || m.Frequency == other.Frequency
}

// ParseMode parses "WxH" or "WxH@Hz".
func ParseMode(s string) (Mode, error) {
	errFactory := errors.New()

	res, hz, hasHz := strings.Cut(strings.TrimSpace(s), "@")
	w, h, ok := strings.Cut(strings.ToLower(res), "x")
	if !ok {
		return Mode{}, errFactory.WithData(ErrInvalidMode, s)
	}

	width, err := strconv.ParseUint(w, 10, 32)
	if err != nil || width == 0 {
		return Mode{}, errFactory.WithData(ErrInvalidMode, s)
	}
	height, err := strconv.ParseUint(h, 10, 32)
	if err != nil || height == 0 {
		return Mode{}, errFactory.WithData(ErrInvalidMode, s)
	}

	mode := Mode{Width: uint32(width), Height: uint32(height)}
	if hasHz {
		freq, err := strconv.ParseUint(hz, 10, 32)
		if err != nil || freq == 0 {
			return Mode{}, errFactory.WithData(ErrInvalidMode, s)
		}
		mode.Frequency = uint32(freq)
	}

	return mode, nil
}

// API is the operating system's display settings interface for the primary
// display.
type API interface {
	CurrentMode(ctx context.Context) (Mode, error)
	Modes(ctx context.Context) ([]Mode, error)
	SetMode(ctx context.Context, mode Mode) error
}
