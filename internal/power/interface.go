package power

import (
	"context"

	"github.com/google/uuid"
)

// Scheme is an OS power scheme. Its identity is the GUID; names may collide.
type Scheme struct {
	GUID uuid.UUID `json:"guid" yaml:"guid"`
	Name string    `json:"name" yaml:"name"`
}

// API is the operating system's power scheme interface.
type API interface {
	ActiveScheme(ctx context.Context) (Scheme, error)
	Schemes(ctx context.Context) ([]Scheme, error)
	// SetActiveScheme fails if guid is unknown to the OS.
	SetActiveScheme(ctx context.Context, guid uuid.UUID) error
	// DuplicateScheme clones template into a new scheme.
	DuplicateScheme(ctx context.Context, template uuid.UUID) (Scheme, error)
}

// Built-in scheme identifiers.
var (
	Balanced            = uuid.MustParse("381b4222-f694-41f0-9685-ff5bb260df2e")
	HighPerformance     = uuid.MustParse("8c5e7fda-e8bf-4a96-9a85-a6e23a8c635c")
	PowerSaver          = uuid.MustParse("a1841308-3541-4fab-bc81-f71556f20b4a")
	UltimatePerformance = uuid.MustParse("e9a42b02-d5df-448d-aa00-03f14749eb61")
)
