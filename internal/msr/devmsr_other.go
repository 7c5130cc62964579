//go:build !linux

package msr

import "codeberg.org/mutker/tweakctl/internal/errors"

func openDevMSR() (Channel, error) {
	return nil, errors.New().New(errors.ErrUnsupported)
}
