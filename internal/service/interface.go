package service

import "context"

// StartType is a service's start configuration.
type StartType uint32

const (
	StartBoot StartType = iota
	StartSystem
	StartAutomatic
	StartManual
	StartDisabled
)

func (s StartType) String() string {
	switch s {
	case StartBoot:
		return "boot"
	case StartSystem:
		return "system"
	case StartAutomatic:
		return "automatic"
	case StartManual:
		return "manual"
	case StartDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// Status is the observed configuration of one service.
type Status struct {
	StartType StartType `json:"start_type" yaml:"start_type"`
	Running   bool      `json:"running" yaml:"running"`
}

// Controller manages operating system services by name.
type Controller interface {
	Query(ctx context.Context, name string) (Status, error)
	SetStartType(ctx context.Context, name string, startType StartType) error
	// Stop returns once the service has stopped or ctx is done.
	Stop(ctx context.Context, name string) error
	Start(ctx context.Context, name string) error
}
