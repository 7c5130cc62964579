package engine_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"codeberg.org/mutker/tweakctl/internal/engine"
	"codeberg.org/mutker/tweakctl/internal/errors"
	"codeberg.org/mutker/tweakctl/internal/journal"
	"codeberg.org/mutker/tweakctl/internal/tweak"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubMethod records applied state and can block, fail, or panic.
type stubMethod struct {
	mu         sync.Mutex
	state      tweak.State
	gate       chan struct{}
	applyErr   error
	stateErr   error
	panicApply bool
}

func (m *stubMethod) InitialState(context.Context) (tweak.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stateErr != nil {
		return tweak.Disabled, m.stateErr
	}
	return m.state, nil
}

func (m *stubMethod) Apply(_ context.Context, option tweak.State) error {
	if m.gate != nil {
		<-m.gate
	}
	if m.panicApply {
		panic("driver exploded")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.applyErr != nil {
		return m.applyErr
	}
	m.state = option
	return nil
}

func (m *stubMethod) Revert(ctx context.Context) error {
	return m.Apply(ctx, tweak.Disabled)
}

type memoryRecorder struct {
	mu      sync.Mutex
	entries []journal.Entry
}

func (r *memoryRecorder) Record(_ context.Context, e *journal.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *e)
	return nil
}

func (r *memoryRecorder) all() []journal.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]journal.Entry(nil), r.entries...)
}

func newCatalog(t *testing.T, methods map[tweak.ID]tweak.Method) *tweak.Catalog {
	t.Helper()
	c := tweak.NewCatalog()
	for id, m := range methods {
		require.NoError(t, c.Register(tweak.New(id, tweak.Info{Name: string(id)}, m)))
	}
	return c
}

func startDispatcher(t *testing.T, c *tweak.Catalog, opts ...engine.Option) *engine.Dispatcher {
	t.Helper()
	d, err := engine.New(c, opts...)
	require.NoError(t, err)
	require.NoError(t, d.Start(context.Background()))
	return d
}

func waitResult(t *testing.T, d *engine.Dispatcher) engine.Result {
	t.Helper()
	select {
	case res, ok := <-d.Results():
		require.True(t, ok, "results closed")
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for result")
		return engine.Result{}
	}
}

func TestApplyUpdatesRecordAndJournal(t *testing.T) {
	method := &stubMethod{}
	c := newCatalog(t, map[tweak.ID]tweak.Method{"cpu.test": method})
	rec := &memoryRecorder{}
	d := startDispatcher(t, c, engine.WithRecorder(rec))

	id, err := d.Submit(engine.Request{ID: "cpu.test", Action: engine.ActionApply, State: tweak.Enabled})
	require.NoError(t, err)

	res := waitResult(t, d)
	require.NoError(t, res.Err)
	assert.Equal(t, id, res.RequestID)
	assert.True(t, res.State.Enabled)

	record, err := c.Get("cpu.test")
	require.NoError(t, err)
	assert.False(t, record.Applying())
	assert.True(t, record.Enabled())

	require.NoError(t, d.Close())

	entries := rec.all()
	require.Len(t, entries, 1)
	assert.Equal(t, id.String(), entries[0].RequestID)
	assert.Equal(t, "apply", entries[0].Action)
	assert.True(t, entries[0].Success)
	assert.True(t, entries[0].Enabled)
}

func TestFailureClearsApplyingAndKeepsState(t *testing.T) {
	method := &stubMethod{applyErr: errors.New().New(errors.ErrOperationFailed)}
	c := newCatalog(t, map[tweak.ID]tweak.Method{"cpu.test": method})
	rec := &memoryRecorder{}
	d := startDispatcher(t, c, engine.WithRecorder(rec))
	defer d.Close()

	_, err := d.Submit(engine.Request{ID: "cpu.test", Action: engine.ActionApply, State: tweak.Enabled})
	require.NoError(t, err)

	res := waitResult(t, d)
	require.Error(t, res.Err)
	assert.True(t, errors.HasCode(res.Err, errors.ErrApplyFailed))
	assert.True(t, errors.HasCode(res.Err, errors.ErrOperationFailed))

	record, err := c.Get("cpu.test")
	require.NoError(t, err)
	assert.False(t, record.Applying())
	assert.False(t, record.Enabled())
	assert.Error(t, record.Err())

	// A later submission is accepted again.
	method.mu.Lock()
	method.applyErr = nil
	method.mu.Unlock()
	_, err = d.Submit(engine.Request{ID: "cpu.test", Action: engine.ActionApply, State: tweak.Enabled})
	require.NoError(t, err)
	require.NoError(t, waitResult(t, d).Err)
	assert.NoError(t, record.Err())
}

func TestRejectsSubmissionWhileApplying(t *testing.T) {
	method := &stubMethod{gate: make(chan struct{})}
	c := newCatalog(t, map[tweak.ID]tweak.Method{"cpu.test": method})
	d := startDispatcher(t, c)
	defer d.Close()

	_, err := d.Submit(engine.Request{ID: "cpu.test", Action: engine.ActionApply, State: tweak.Enabled})
	require.NoError(t, err)

	_, err = d.Submit(engine.Request{ID: "cpu.test", Action: engine.ActionRevert})
	assert.True(t, errors.HasCode(err, errors.ErrResourceBusy))

	close(method.gate)
	require.NoError(t, waitResult(t, d).Err)

	_, err = d.Submit(engine.Request{ID: "cpu.test", Action: engine.ActionRevert})
	require.NoError(t, err)
	res := waitResult(t, d)
	require.NoError(t, res.Err)
	assert.False(t, res.State.Enabled)
}

func TestFullQueueIsBusy(t *testing.T) {
	gate := make(chan struct{})
	c := newCatalog(t, map[tweak.ID]tweak.Method{
		"a": &stubMethod{gate: gate},
		"b": &stubMethod{gate: gate},
		"c": &stubMethod{gate: gate},
	})
	d, err := engine.New(c, engine.WithQueueSize(1))
	require.NoError(t, err)

	_, err = d.Submit(engine.Request{ID: "a", Action: engine.ActionApply, State: tweak.Enabled})
	require.NoError(t, err)

	_, err = d.Submit(engine.Request{ID: "b", Action: engine.ActionApply, State: tweak.Enabled})
	assert.True(t, errors.HasCode(err, errors.ErrResourceBusy))

	record, err := c.Get("b")
	require.NoError(t, err)
	assert.False(t, record.Applying(), "rejected request must not leave the tweak applying")

	close(gate)
	require.NoError(t, d.Start(context.Background()))
	require.NoError(t, waitResult(t, d).Err)
	require.NoError(t, d.Close())
}

func TestRefreshFallbackAndPanics(t *testing.T) {
	unreadable := &stubMethod{stateErr: errors.New().New(errors.ErrOperationFailed)}
	panicking := &stubMethod{panicApply: true}
	c := newCatalog(t, map[tweak.ID]tweak.Method{"unreadable": unreadable, "panicking": panicking})
	d := startDispatcher(t, c, engine.WithWorkers(2))
	defer d.Close()

	_, err := d.Submit(engine.Request{ID: "unreadable", Action: engine.ActionApply, State: tweak.Enabled})
	require.NoError(t, err)
	res := waitResult(t, d)
	require.NoError(t, res.Err)
	assert.True(t, res.State.Enabled, "falls back to the requested state")

	_, err = d.Submit(engine.Request{ID: "panicking", Action: engine.ActionApply, State: tweak.Enabled})
	require.NoError(t, err)
	res = waitResult(t, d)
	assert.True(t, errors.HasCode(res.Err, errors.ErrInternal))

	record, err := c.Get("panicking")
	require.NoError(t, err)
	assert.False(t, record.Applying())

	_, err = d.Submit(engine.Request{ID: "unreadable", Action: engine.ActionRefresh})
	require.NoError(t, err)
	res = waitResult(t, d)
	assert.True(t, errors.HasCode(res.Err, errors.ErrStateUnknown))
}

func TestSubmitValidation(t *testing.T) {
	c := newCatalog(t, map[tweak.ID]tweak.Method{"cpu.test": &stubMethod{}})
	d := startDispatcher(t, c)

	_, err := d.Submit(engine.Request{ID: "missing", Action: engine.ActionApply})
	assert.True(t, errors.HasCode(err, errors.ErrResourceNotFound))

	_, err = d.Submit(engine.Request{ID: "cpu.test", Action: "explode"})
	assert.True(t, errors.HasCode(err, errors.ErrInvalidArgument))

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())

	_, err = d.Submit(engine.Request{ID: "cpu.test", Action: engine.ActionApply})
	assert.True(t, errors.HasCode(err, errors.ErrDispatchClose))

	_, ok := <-d.Results()
	assert.False(t, ok)
}

func TestCloseBeforeStartFailsQueuedRequests(t *testing.T) {
	c := newCatalog(t, map[tweak.ID]tweak.Method{"cpu.test": &stubMethod{}})
	d, err := engine.New(c)
	require.NoError(t, err)

	_, err = d.Submit(engine.Request{ID: "cpu.test", Action: engine.ActionApply, State: tweak.Enabled})
	require.NoError(t, err)
	require.NoError(t, d.Close())

	res := waitResult(t, d)
	assert.True(t, errors.HasCode(res.Err, errors.ErrDispatchClose))

	record, err := c.Get("cpu.test")
	require.NoError(t, err)
	assert.False(t, record.Applying())
}
