package msr

import (
	"context"
	"sync/atomic"

	"codeberg.org/mutker/tweakctl/internal/errors"
	"golang.org/x/sync/semaphore"
)

// Access owns the process-wide Channel and grants exclusive use of it for
// the duration of one call.
type Access struct {
	ch     Channel
	sem    *semaphore.Weighted
	closed atomic.Bool
}

func NewAccess(ch Channel) *Access {
	return &Access{
		ch:  ch,
		sem: semaphore.NewWeighted(1),
	}
}

// Do runs fn with exclusive use of the channel. The context bounds only the
// wait for the lock; fn itself is never interrupted.
func (a *Access) Do(ctx context.Context, fn func(Channel) error) error {
	errFactory := errors.New()

	if a.closed.Load() {
		return errFactory.New(ErrChannelUnavailable)
	}

	if err := a.sem.Acquire(ctx, 1); err != nil {
		return errFactory.Wrap(ErrChannelUnavailable, err)
	}
	defer a.sem.Release(1)

	if a.closed.Load() {
		return errFactory.New(ErrChannelUnavailable)
	}

	return fn(a.ch)
}

// Close waits for the current holder and closes the channel.
func (a *Access) Close() error {
	if err := a.sem.Acquire(context.Background(), 1); err != nil {
		return err
	}
	defer a.sem.Release(1)

	if a.closed.Swap(true) {
		return nil
	}

	if err := a.ch.Close(); err != nil {
		return errors.New().Wrap(errors.ErrShutdownFailed, err)
	}

	return nil
}
