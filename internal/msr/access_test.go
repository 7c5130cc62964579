package msr_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"codeberg.org/mutker/tweakctl/internal/errors"
	"codeberg.org/mutker/tweakctl/internal/msr"
	"codeberg.org/mutker/tweakctl/internal/tweak"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// overlapChannel fails the test if two callers are inside it at once.
type overlapChannel struct {
	*msr.MemoryChannel
	inside  atomic.Int32
	overlap atomic.Bool
}

func (c *overlapChannel) enter() func() {
	if c.inside.Add(1) > 1 {
		c.overlap.Store(true)
	}
	time.Sleep(100 * time.Microsecond)
	return func() { c.inside.Add(-1) }
}

func (c *overlapChannel) ReadRegister(core int, register uint32) (uint64, error) {
	defer c.enter()()
	return c.MemoryChannel.ReadRegister(core, register)
}

func (c *overlapChannel) WriteRegister(core int, register uint32, value uint64) error {
	defer c.enter()()
	return c.MemoryChannel.WriteRegister(core, register, value)
}

func TestAccessSerializesMethods(t *testing.T) {
	const cores = 4
	ch := &overlapChannel{MemoryChannel: msr.NewMemoryChannel(cores)}
	access := msr.NewAccess(ch)
	topo, err := msr.NewTopology(cores, cores)
	require.NoError(t, err)

	first, err := msr.NewMethod(access, topo, []msr.Edit{{Register: 0x1FC, Bit: 1, Desired: true}})
	require.NoError(t, err)
	second, err := msr.NewMethod(access, topo, []msr.Edit{{Register: 0x1FC, Bit: 0, Desired: true}})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, first.Apply(context.Background(), tweak.Enabled))
		}()
		go func() {
			defer wg.Done()
			_, err := second.InitialState(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.False(t, ch.overlap.Load(), "channel was entered concurrently")
	for core := 0; core < cores; core++ {
		assert.Equal(t, uint64(0x2), ch.Get(core, 0x1FC))
	}
}

func TestAccessLockAcquisitionFailure(t *testing.T) {
	access := msr.NewAccess(msr.NewMemoryChannel(1))

	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = access.Do(context.Background(), func(msr.Channel) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	called := false
	err := access.Do(ctx, func(msr.Channel) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, msr.ErrChannelUnavailable))
	assert.False(t, called)
}

func TestAccessReleasesOnError(t *testing.T) {
	access := msr.NewAccess(msr.NewMemoryChannel(1))

	err := access.Do(context.Background(), func(msr.Channel) error {
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, access.Do(ctx, func(msr.Channel) error { return nil }))
}

func TestAccessReleasesOnPanic(t *testing.T) {
	access := msr.NewAccess(msr.NewMemoryChannel(1))

	assert.Panics(t, func() {
		_ = access.Do(context.Background(), func(msr.Channel) error {
			panic("driver crashed")
		})
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, access.Do(ctx, func(msr.Channel) error { return nil }))
}

func TestAccessClosed(t *testing.T) {
	access := msr.NewAccess(msr.NewMemoryChannel(1))
	require.NoError(t, access.Close())
	require.NoError(t, access.Close())

	err := access.Do(context.Background(), func(msr.Channel) error { return nil })
	assert.True(t, errors.HasCode(err, msr.ErrChannelUnavailable))
}
