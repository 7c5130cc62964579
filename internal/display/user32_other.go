//go:build !windows

package display

import "codeberg.org/mutker/tweakctl/internal/errors"

// NewSystemAPI is only available on Windows.
func NewSystemAPI() (API, error) {
	return nil, errors.New().Wrap(ErrUnavailable, errors.New().New(errors.ErrUnsupported))
}
