package service

import "codeberg.org/mutker/tweakctl/internal/errors"

const (
	ErrQuery        = errors.ErrorCode("service_query_failed")
	ErrConfigure    = errors.ErrorCode("service_configure_failed")
	ErrStop         = errors.ErrorCode("service_stop_failed")
	ErrStart        = errors.ErrorCode("service_start_failed")
	ErrNotFound     = errors.ErrorCode("service_not_found")
	ErrUnavailable  = errors.ErrorCode("service_manager_unavailable")
	ErrNoServices   = errors.ErrorCode("service_list_empty")
	ErrStopTimedOut = errors.ErrorCode("service_stop_timed_out")
)
