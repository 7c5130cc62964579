package tweak

import (
	"context"
	"sync"

	"codeberg.org/mutker/tweakctl/internal/errors"
	"codeberg.org/mutker/tweakctl/internal/logger"
)

// persisted keeps a method's baseline in a store so that a revert issued by a
// later process restores the state from before the first apply.
type persisted struct {
	Method
	baseliner Baseliner
	id        ID
	store     BaselineStore

	mu    sync.Mutex
	saved bool
}

// Persist loads the stored baseline for id into m and saves a new one on the
// first apply. A successful revert clears it. Methods that do not implement
// Baseliner, or a nil store, return m unchanged.
func Persist(ctx context.Context, id ID, m Method, store BaselineStore) (Method, error) {
	b, ok := m.(Baseliner)
	if !ok || store == nil {
		return m, nil
	}

	errFactory := errors.New()

	data, found, err := store.LoadBaseline(ctx, string(id))
	if err != nil {
		return nil, errFactory.Wrap(ErrBaselineStore, err).WithData(id)
	}
	if found {
		if err := b.RestoreBaseline(data); err != nil {
			return nil, errFactory.Wrap(ErrInvalidBaseline, err).WithData(id)
		}
		logger.Debug().Str("tweak", string(id)).Msg("Restored saved baseline")
	}

	return &persisted{
		Method:    m,
		baseliner: b,
		id:        id,
		store:     store,
		saved:     found,
	}, nil
}

func (p *persisted) Apply(ctx context.Context, option State) error {
	if !option.Enabled {
		return p.Revert(ctx)
	}

	if err := p.remember(ctx); err != nil {
		return err
	}

	return p.Method.Apply(ctx, option)
}

func (p *persisted) Revert(ctx context.Context) error {
	if err := p.Method.Revert(ctx); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.saved {
		return nil
	}
	if err := p.store.ClearBaseline(ctx, string(p.id)); err != nil {
		return errors.New().Wrap(ErrBaselineStore, err).WithData(p.id)
	}
	p.saved = false

	return nil
}

// remember saves the baseline unless one is already stored.
func (p *persisted) remember(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.saved {
		return nil
	}

	errFactory := errors.New()

	data, err := p.baseliner.SnapshotBaseline(ctx)
	if err != nil {
		return errFactory.Wrap(ErrInvalidBaseline, err).WithData(p.id)
	}
	if data == nil {
		return nil
	}

	if err := p.store.SaveBaseline(ctx, string(p.id), data); err != nil {
		return errFactory.Wrap(ErrBaselineStore, err).WithData(p.id)
	}
	p.saved = true

	logger.Debug().Str("tweak", string(p.id)).Msg("Saved baseline before first apply")

	return nil
}
