package tweak

import "context"

// Method is implemented by every concrete tweak strategy.
//
// InitialState inspects the system without mutating it and must be safe to
// call concurrently with itself. Apply moves the system toward the requested
// state and is idempotent. Revert restores the baseline captured when the
// method was constructed.
type Method interface {
	InitialState(ctx context.Context) (State, error)
	Apply(ctx context.Context, option State) error
	Revert(ctx context.Context) error
}

// ID identifies a tweak. It is a map key, never a display string.
type ID string

// State is the observed or requested position of a tweak.
type State struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	// Option selects a value for multi-valued tweaks; empty for toggles.
	Option string `json:"option,omitempty" yaml:"option,omitempty"`
}

// Enabled and Disabled are the two toggle states.
var (
	Enabled  = State{Enabled: true}
	Disabled = State{}
)

// Category groups tweaks for presentation.
type Category string

const (
	CategoryPower   Category = "power"
	CategoryCPU     Category = "cpu"
	CategoryService Category = "service"
	CategoryDisplay Category = "display"
	CategoryProcess Category = "process"
)

// Widget is the control the presentation layer renders for a tweak.
type Widget string

const (
	WidgetToggle   Widget = "toggle"
	WidgetButton   Widget = "button"
	WidgetDropdown Widget = "dropdown"
)

// Baseliner is implemented by methods whose revert baseline can outlive the
// process that captured it.
type Baseliner interface {
	// SnapshotBaseline encodes the baseline Revert would restore. A nil
	// result means there is nothing to persist.
	SnapshotBaseline(ctx context.Context) ([]byte, error)
	// RestoreBaseline replaces the baseline with a previously saved one.
	RestoreBaseline(data []byte) error
}

// BaselineStore persists baselines by tweak ID.
type BaselineStore interface {
	LoadBaseline(ctx context.Context, id string) ([]byte, bool, error)
	SaveBaseline(ctx context.Context, id string, data []byte) error
	ClearBaseline(ctx context.Context, id string) error
}
