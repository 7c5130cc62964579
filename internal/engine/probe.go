package engine

import (
	"context"
	"fmt"

	"codeberg.org/mutker/tweakctl/internal/errors"
	"codeberg.org/mutker/tweakctl/internal/logger"
	"codeberg.org/mutker/tweakctl/internal/tweak"
	"golang.org/x/sync/errgroup"
)

const DefaultProbeLimit = 4

// ProbeResult is the observed state of one tweak.
type ProbeResult struct {
	ID    tweak.ID
	State tweak.State
	Err   error
}

// Probe reads the initial state of every tweak with at most limit probes in
// flight, updating each record. A failing tweak is reported in its result
// and does not stop the others. Results follow catalog order.
func Probe(ctx context.Context, catalog *tweak.Catalog, limit int) []ProbeResult {
	if limit <= 0 {
		limit = DefaultProbeLimit
	}

	records := catalog.All()
	results := make([]ProbeResult, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, record := range records {
		i, record := i, record
		g.Go(func() error {
			results[i] = probeOne(gctx, record)
			return nil
		})
	}

	// Probe goroutines never return errors.
	_ = g.Wait()

	return results
}

func probeOne(ctx context.Context, record *tweak.Tweak) (res ProbeResult) {
	res.ID = record.ID()

	defer func() {
		if r := recover(); r != nil {
			res.Err = errors.New().WithData(errors.ErrInternal, fmt.Sprintf("panic: %v", r))
		}
		if res.Err != nil {
			record.SetError(res.Err)
			logger.Warn().Err(res.Err).Str("tweak", string(res.ID)).Msg("Failed to probe tweak state")
			return
		}
		record.SetState(res.State)
	}()

	state, err := record.Method().InitialState(ctx)
	if err != nil {
		res.Err = errors.New().Wrap(errors.ErrStateUnknown, err).WithData(res.ID)
		return res
	}
	res.State = state

	return res
}
