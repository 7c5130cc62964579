package power

import "codeberg.org/mutker/tweakctl/internal/errors"

const (
	ErrActiveScheme   = errors.ErrorCode("power_active_scheme_failed")
	ErrEnumerate      = errors.ErrorCode("power_enumerate_failed")
	ErrSchemeNotFound = errors.ErrorCode("power_scheme_not_found")
	ErrSetActive      = errors.ErrorCode("power_set_active_failed")
	ErrDuplicate      = errors.ErrorCode("power_duplicate_failed")
	ErrCreateAndApply = errors.ErrorCode("power_create_and_apply_failed")
	ErrInvalidName    = errors.ErrorCode("power_invalid_friendly_name")
	ErrAPIUnavailable = errors.ErrorCode("power_api_unavailable")
)
