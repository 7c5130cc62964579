package engine

import (
	"context"
	"time"

	"codeberg.org/mutker/tweakctl/internal/journal"
	"codeberg.org/mutker/tweakctl/internal/tweak"
	"github.com/google/uuid"
)

// Action is what a request does to a tweak.
type Action string

const (
	ActionApply   Action = "apply"
	ActionRevert  Action = "revert"
	ActionRefresh Action = "refresh"
)

// Request asks the dispatcher to act on one tweak. State is only used by
// ActionApply.
type Request struct {
	ID     tweak.ID
	Action Action
	State  tweak.State
}

// Result is produced once per accepted request.
type Result struct {
	RequestID uuid.UUID
	Request   Request
	// State is the observed state after a successful request.
	State    tweak.State
	Err      error
	Started  time.Time
	Duration time.Duration
}

// Recorder persists completed requests.
type Recorder interface {
	Record(ctx context.Context, entry *journal.Entry) error
}
