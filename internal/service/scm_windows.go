//go:build windows

package service

import (
	"context"
	"time"

	"codeberg.org/mutker/tweakctl/internal/errors"
	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"
)

const stopPollInterval = 250 * time.Millisecond

// scmController talks to the Service Control Manager. A connection is opened
// per call; tweaks touch a handful of services at most.
type scmController struct{}

// NewSystemController returns a Controller backed by the Service Control Manager.
func NewSystemController() (Controller, error) {
	m, err := mgr.Connect()
	if err != nil {
		return nil, errors.New().Wrap(ErrUnavailable, err)
	}
	_ = m.Disconnect()

	return scmController{}, nil
}

func (scmController) Query(_ context.Context, name string) (Status, error) {
	var status Status

	err := withService(name, func(s *mgr.Service) error {
		cfg, err := s.Config()
		if err != nil {
			return err
		}
		st, err := s.Query()
		if err != nil {
			return err
		}

		// StartType values match the SCM's SERVICE_*_START constants.
		status = Status{
			StartType: StartType(cfg.StartType),
			Running:   st.State == svc.Running || st.State == svc.StartPending,
		}
		return nil
	})

	return status, err
}

func (scmController) SetStartType(_ context.Context, name string, startType StartType) error {
	return withService(name, func(s *mgr.Service) error {
		cfg, err := s.Config()
		if err != nil {
			return err
		}
		if cfg.StartType == uint32(startType) {
			return nil
		}
		cfg.StartType = uint32(startType)
		return s.UpdateConfig(cfg)
	})
}

func (scmController) Stop(ctx context.Context, name string) error {
	return withService(name, func(s *mgr.Service) error {
		st, err := s.Control(svc.Stop)
		if err == windows.ERROR_SERVICE_NOT_ACTIVE {
			return nil
		}
		if err != nil {
			return err
		}

		ticker := time.NewTicker(stopPollInterval)
		defer ticker.Stop()

		for st.State != svc.Stopped {
			select {
			case <-ctx.Done():
				return errors.New().Wrap(ErrStopTimedOut, ctx.Err()).WithData(name)
			case <-ticker.C:
			}

			if st, err = s.Query(); err != nil {
				return err
			}
		}

		return nil
	})
}

func (scmController) Start(_ context.Context, name string) error {
	return withService(name, func(s *mgr.Service) error {
		err := s.Start()
		if err == windows.ERROR_SERVICE_ALREADY_RUNNING {
			return nil
		}
		return err
	})
}

func withService(name string, fn func(*mgr.Service) error) error {
	m, err := mgr.Connect()
	if err != nil {
		return errors.New().Wrap(ErrUnavailable, err)
	}
	defer m.Disconnect()

	s, err := m.OpenService(name)
	if err == windows.ERROR_SERVICE_DOES_NOT_EXIST {
		return errors.New().Wrap(ErrNotFound, err).WithData(name)
	}
	if err != nil {
		return err
	}
	defer s.Close()

	return fn(s)
}
