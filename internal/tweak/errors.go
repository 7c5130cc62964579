package tweak

import "codeberg.org/mutker/tweakctl/internal/errors"

const (
	ErrDuplicateID     = errors.ErrDuplicateResource
	ErrUnknownID       = errors.ErrResourceNotFound
	ErrInvalidRecord   = errors.ErrorCode("tweak_invalid_record")
	ErrInvalidBaseline = errors.ErrorCode("tweak_invalid_baseline")
	ErrBaselineStore   = errors.ErrorCode("tweak_baseline_store_failed")
)
