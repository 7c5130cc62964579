package display

import "codeberg.org/mutker/tweakctl/internal/errors"

const (
	ErrInvalidMode     = errors.ErrorCode("display_invalid_mode")
	ErrUnsupportedMode = errors.ErrorCode("display_unsupported_mode")
	ErrQuery           = errors.ErrorCode("display_query_failed")
	ErrChange          = errors.ErrorCode("display_change_failed")
	ErrUnavailable     = errors.ErrorCode("display_api_unavailable")
)
