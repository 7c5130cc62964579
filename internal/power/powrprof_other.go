//go:build !windows

package power

import "codeberg.org/mutker/tweakctl/internal/errors"

// NewSystemAPI is only available on Windows.
func NewSystemAPI() (API, error) {
	return nil, errors.New().Wrap(ErrAPIUnavailable, errors.New().New(errors.ErrUnsupported))
}
