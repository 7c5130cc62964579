//go:build !windows

package msr

import "codeberg.org/mutker/tweakctl/internal/errors"

func openWinRing0(string) (Channel, error) {
	return nil, errors.New().New(errors.ErrUnsupported)
}
