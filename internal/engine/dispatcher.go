package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"codeberg.org/mutker/tweakctl/internal/errors"
	"codeberg.org/mutker/tweakctl/internal/journal"
	"codeberg.org/mutker/tweakctl/internal/logger"
	"codeberg.org/mutker/tweakctl/internal/tweak"
	"github.com/google/uuid"
)

const (
	DefaultWorkers   = 1
	DefaultQueueSize = 16
)

type job struct {
	id     uuid.UUID
	req    Request
	record *tweak.Tweak
}

// Dispatcher runs tweak requests off the caller's goroutine. Requests are
// queued in a bounded channel and executed by a fixed set of workers; every
// accepted request yields exactly one Result.
type Dispatcher struct {
	catalog  *tweak.Catalog
	workers  int
	recorder Recorder

	queue   chan job
	results chan Result
	wg      sync.WaitGroup

	mu      sync.RWMutex
	started bool
	closed  bool
}

type Option func(*Dispatcher)

func WithWorkers(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queue = make(chan job, n)
		}
	}
}

// WithRecorder journals every completed request.
func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) {
		d.recorder = r
	}
}

func New(catalog *tweak.Catalog, opts ...Option) (*Dispatcher, error) {
	if catalog == nil {
		return nil, errors.New().WithData(errors.ErrInvalidArgument, "nil catalog")
	}

	d := &Dispatcher{
		catalog: catalog,
		workers: DefaultWorkers,
		queue:   make(chan job, DefaultQueueSize),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.results = make(chan Result, cap(d.queue)+d.workers)

	return d, nil
}

// Start launches the workers. ctx is passed to every tweak method.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return errors.New().New(errors.ErrDispatchClose)
	}
	if d.started {
		return errors.New().WithMessage(errors.ErrInvalidOperation, "Dispatcher already started")
	}
	d.started = true

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}

	logger.Debug().
		Int("workers", d.workers).
		Int("queue_size", cap(d.queue)).
		Msg("Dispatcher started")

	return nil
}

// Submit queues a request without blocking. Apply and revert requests mark
// the tweak as applying; a tweak that is already applying, or a full queue,
// rejects the request with resource_busy.
func (d *Dispatcher) Submit(req Request) (uuid.UUID, error) {
	errFactory := errors.New()

	switch req.Action {
	case ActionApply, ActionRevert, ActionRefresh:
	default:
		return uuid.Nil, errFactory.WithData(errors.ErrInvalidArgument, fmt.Sprintf("unknown action %q", req.Action))
	}

	record, err := d.catalog.Get(req.ID)
	if err != nil {
		return uuid.Nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return uuid.Nil, errFactory.New(errors.ErrDispatchClose)
	}

	mutates := req.Action != ActionRefresh
	if mutates && !record.BeginApplying() {
		return uuid.Nil, errFactory.WithData(errors.ErrResourceBusy, req.ID).
			WithMessage("Tweak is already applying")
	}

	j := job{id: uuid.New(), req: req, record: record}

	select {
	case d.queue <- j:
	default:
		if mutates {
			record.EndApplying()
		}
		return uuid.Nil, errFactory.WithData(errors.ErrResourceBusy, req.ID).
			WithMessage("Dispatch queue is full")
	}

	logger.Debug().
		Str("request", j.id.String()).
		Str("tweak", string(req.ID)).
		Str("action", string(req.Action)).
		Msg("Request queued")

	return j.id, nil
}

// Results yields one Result per accepted request. It is closed by Close.
// Callers must drain it or workers stall once it fills.
func (d *Dispatcher) Results() <-chan Result {
	return d.results
}

// Close stops accepting requests, waits for queued ones to finish, and
// closes the results channel.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	started := d.started
	close(d.queue)
	d.mu.Unlock()

	// Requests queued before Start was ever called still owe a result.
	if !started {
		for j := range d.queue {
			d.finish(context.Background(), j, time.Now(), errors.New().New(errors.ErrDispatchClose))
		}
	}

	d.wg.Wait()
	close(d.results)

	logger.Debug().Msg("Dispatcher closed")

	return nil
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()

	for j := range d.queue {
		started := time.Now()
		err := d.execute(ctx, j)
		d.finish(ctx, j, started, err)
	}
}

// execute runs the method. A panicking method fails its request only.
func (d *Dispatcher) execute(ctx context.Context, j job) (err error) {
	errFactory := errors.New()
	method := j.record.Method()

	defer func() {
		if r := recover(); r != nil {
			err = errFactory.WithData(errors.ErrInternal, fmt.Sprintf("panic: %v", r))
		}
	}()

	switch j.req.Action {
	case ActionApply:
		if err := method.Apply(ctx, j.req.State); err != nil {
			return errFactory.Wrap(errors.ErrApplyFailed, err).WithData(j.req.ID)
		}
	case ActionRevert:
		if err := method.Revert(ctx); err != nil {
			return errFactory.Wrap(errors.ErrRevertFailed, err).WithData(j.req.ID)
		}
	case ActionRefresh:
	}

	return nil
}

// finish refreshes the record, clears the applying flag, journals the
// request, and publishes its result.
func (d *Dispatcher) finish(ctx context.Context, j job, started time.Time, err error) {
	res := Result{
		RequestID: j.id,
		Request:   j.req,
		Err:       err,
		Started:   started,
	}

	if err == nil {
		res.State, res.Err = d.refresh(ctx, j)
	} else {
		j.record.SetError(err)
		if coded, ok := err.(errors.Error); ok {
			logger.ErrorWithContext(coded, "dispatcher", string(j.req.Action)).
				Str("tweak", string(j.req.ID)).
				Msg("Request failed")
		}
	}

	if j.req.Action != ActionRefresh {
		j.record.EndApplying()
	}
	res.Duration = time.Since(started)

	d.record(ctx, res)
	d.results <- res
}

// refresh reads the state back after a successful request. For apply and
// revert a failed read falls back to the requested state.
func (d *Dispatcher) refresh(ctx context.Context, j job) (tweak.State, error) {
	state, err := d.stateOf(ctx, j.record)
	if err == nil {
		j.record.SetState(state)
		return state, nil
	}

	if j.req.Action == ActionRefresh {
		coded := errors.New().Wrap(errors.ErrStateUnknown, err).WithData(j.req.ID)
		j.record.SetError(coded)
		return tweak.State{}, coded
	}

	logger.Warn().
		Err(err).
		Str("tweak", string(j.req.ID)).
		Msg("Failed to refresh state, assuming requested state")

	state = j.req.State
	if j.req.Action == ActionRevert {
		state = tweak.Disabled
	}
	j.record.SetState(state)

	return state, nil
}

func (d *Dispatcher) stateOf(ctx context.Context, record *tweak.Tweak) (state tweak.State, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New().WithData(errors.ErrInternal, fmt.Sprintf("panic: %v", r))
		}
	}()
	return record.Method().InitialState(ctx)
}

func (d *Dispatcher) record(ctx context.Context, res Result) {
	if d.recorder == nil {
		return
	}

	entry := &journal.Entry{
		RequestID: res.RequestID.String(),
		Timestamp: res.Started,
		TweakID:   string(res.Request.ID),
		Action:    string(res.Request.Action),
		Option:    res.Request.State.Option,
		Requested: res.Request.State.Enabled,
		Enabled:   res.State.Enabled,
		Success:   res.Err == nil,
		Duration:  res.Duration,
	}
	if res.Err != nil {
		entry.ErrorCode = string(errors.CodeOf(res.Err))
		entry.Error = res.Err.Error()
	}

	if err := d.recorder.Record(context.WithoutCancel(ctx), entry); err != nil {
		logger.Warn().Err(err).Str("request", entry.RequestID).Msg("Failed to journal request")
	}
}
