package engine_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"codeberg.org/mutker/tweakctl/internal/engine"
	"codeberg.org/mutker/tweakctl/internal/errors"
	"codeberg.org/mutker/tweakctl/internal/tweak"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingMethod tracks concurrent InitialState calls.
type countingMethod struct {
	stubMethod
	inFlight *atomic.Int32
	peak     *atomic.Int32
}

func (m *countingMethod) InitialState(ctx context.Context) (tweak.State, error) {
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	return m.stubMethod.InitialState(ctx)
}

func TestProbeRecordsPerTweakErrors(t *testing.T) {
	c := tweak.NewCatalog()
	require.NoError(t, c.Register(tweak.New("a", tweak.Info{}, &stubMethod{state: tweak.Enabled})))
	require.NoError(t, c.Register(tweak.New("b", tweak.Info{}, &stubMethod{stateErr: errors.New().New(errors.ErrOperationFailed)})))
	require.NoError(t, c.Register(tweak.New("c", tweak.Info{}, &stubMethod{})))

	results := engine.Probe(context.Background(), c, 2)
	require.Len(t, results, 3)

	assert.Equal(t, tweak.ID("a"), results[0].ID)
	assert.True(t, results[0].State.Enabled)
	assert.NoError(t, results[0].Err)

	assert.True(t, errors.HasCode(results[1].Err, errors.ErrStateUnknown))

	assert.NoError(t, results[2].Err)
	assert.False(t, results[2].State.Enabled)

	a, _ := c.Get("a")
	state, known := a.State()
	assert.True(t, known)
	assert.True(t, state.Enabled)

	b, _ := c.Get("b")
	_, known = b.State()
	assert.False(t, known)
	assert.Error(t, b.Err())
}

func TestProbeBoundsParallelism(t *testing.T) {
	var inFlight, peak atomic.Int32

	c := tweak.NewCatalog()
	for _, id := range []tweak.ID{"a", "b", "c", "d", "e", "f"} {
		require.NoError(t, c.Register(tweak.New(id, tweak.Info{}, &countingMethod{inFlight: &inFlight, peak: &peak})))
	}

	results := engine.Probe(context.Background(), c, 2)
	assert.Len(t, results, 6)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}
