package service

import (
	"context"
	"sync"

	"codeberg.org/mutker/tweakctl/internal/errors"
)

// MemoryController keeps service state in process memory.
type MemoryController struct {
	mu       sync.Mutex
	services map[string]Status
}

func NewMemoryController(services map[string]Status) *MemoryController {
	c := &MemoryController{services: make(map[string]Status, len(services))}
	for name, status := range services {
		c.services[name] = status
	}
	return c
}

func (c *MemoryController) Query(_ context.Context, name string) (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	status, ok := c.services[name]
	if !ok {
		return Status{}, errors.New().WithData(ErrNotFound, name)
	}
	return status, nil
}

func (c *MemoryController) SetStartType(_ context.Context, name string, startType StartType) error {
	return c.update(name, func(s *Status) error {
		s.StartType = startType
		return nil
	})
}

func (c *MemoryController) Stop(_ context.Context, name string) error {
	return c.update(name, func(s *Status) error {
		s.Running = false
		return nil
	})
}

// Start refuses to start a disabled service, as the SCM does.
func (c *MemoryController) Start(_ context.Context, name string) error {
	return c.update(name, func(s *Status) error {
		if s.StartType == StartDisabled {
			return errors.New().WithData(ErrStart, name).WithMessage("Service is disabled")
		}
		s.Running = true
		return nil
	})
}

func (c *MemoryController) update(name string, fn func(*Status) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	status, ok := c.services[name]
	if !ok {
		return errors.New().WithData(ErrNotFound, name)
	}
	if err := fn(&status); err != nil {
		return err
	}
	c.services[name] = status

	return nil
}
