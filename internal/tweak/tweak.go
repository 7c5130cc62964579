package tweak

import (
	"sync"
)

// Info is the presentation metadata of a tweak.
type Info struct {
	Name           string
	Description    string
	Category       Category
	Widget         Widget
	RequiresReboot bool
	// Options lists the selectable values for dropdown tweaks.
	Options []string
}

// Tweak is a catalog record: a Method plus its metadata and the transient
// state the presentation layer renders.
type Tweak struct {
	id     ID
	info   Info
	method Method

	mu       sync.RWMutex
	applying bool
	state    State
	known    bool
	lastErr  error
}

// New creates a catalog record.
func New(id ID, info Info, method Method) *Tweak {
	if info.Widget == "" {
		info.Widget = WidgetToggle
	}

	return &Tweak{
		id:     id,
		info:   info,
		method: method,
	}
}

func (t *Tweak) ID() ID         { return t.id }
func (t *Tweak) Info() Info     { return t.info }
func (t *Tweak) Method() Method { return t.method }

// Applying reports whether an apply or revert is in flight.
func (t *Tweak) Applying() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.applying
}

// BeginApplying marks the tweak as in flight. It returns false if it already was.
func (t *Tweak) BeginApplying() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.applying {
		return false
	}
	t.applying = true

	return true
}

// EndApplying clears the in-flight flag.
func (t *Tweak) EndApplying() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.applying = false
}

// State returns the last known state and whether one has been observed.
func (t *Tweak) State() (State, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state, t.known
}

// Enabled returns the last known enabled flag.
func (t *Tweak) Enabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.Enabled
}

// SetState records an observed state and clears the last error.
func (t *Tweak) SetState(state State) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state = state
	t.known = true
	t.lastErr = nil
}

// SetError records the last failure without touching the known state.
func (t *Tweak) SetError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastErr = err
}

// Err returns the last recorded failure.
func (t *Tweak) Err() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastErr
}
