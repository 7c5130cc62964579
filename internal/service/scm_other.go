//go:build !windows

package service

import "codeberg.org/mutker/tweakctl/internal/errors"

// NewSystemController is only available on Windows.
func NewSystemController() (Controller, error) {
	return nil, errors.New().Wrap(ErrUnavailable, errors.New().New(errors.ErrUnsupported))
}
