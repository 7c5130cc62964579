package process

import "codeberg.org/mutker/tweakctl/internal/errors"

const (
	ErrList      = errors.ErrorCode("process_list_failed")
	ErrKill      = errors.ErrorCode("process_kill_failed")
	ErrStart     = errors.ErrorCode("process_start_failed")
	ErrNoTargets = errors.ErrorCode("process_targets_empty")
)
