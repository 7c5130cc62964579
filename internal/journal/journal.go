package journal

import (
	"context"
	"time"

	"codeberg.org/mutker/tweakctl/internal/errors"
	"codeberg.org/mutker/tweakctl/internal/logger"
	"github.com/google/uuid"
)

type service struct {
	repo Repository
	cfg  Config
}

// No-op implementation
type noopJournal struct{}

// New returns a journal backed by SQLite, or a no-op journal when disabled.
func New(cfg Config, log logger.Logger) (Journal, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	if !cfg.Enabled {
		log.Debug().Msg("Journal disabled, using no-op journal")
		return noopJournal{}, nil
	}

	repo, err := NewRepository(cfg, log)
	if err != nil {
		return nil, err
	}

	return &service{
		repo: repo,
		cfg:  cfg,
	}, nil
}

// Record fills in a missing request ID and timestamp.
func (s *service) Record(ctx context.Context, entry *Entry) error {
	errFactory := errors.New()

	if entry == nil || entry.TweakID == "" || entry.Action == "" {
		return errFactory.New(ErrInvalidEntry)
	}
	if entry.RequestID == "" {
		entry.RequestID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	select {
	case <-ctx.Done():
		return errFactory.Wrap(ErrOperationTimeout, ctx.Err())
	default:
		if err := s.repo.Record(entry); err != nil {
			return errFactory.Wrap(ErrRecordFailed, err)
		}
	}

	return nil
}

func (s *service) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, errors.New().WithData(errors.ErrInvalidArgument, limit)
	}
	return s.repo.Recent(ctx, limit)
}

func (s *service) LoadBaseline(ctx context.Context, tweakID string) ([]byte, bool, error) {
	if tweakID == "" {
		return nil, false, errors.New().WithData(errors.ErrInvalidArgument, "empty tweak id")
	}
	return s.repo.LoadBaseline(ctx, tweakID)
}

func (s *service) SaveBaseline(ctx context.Context, tweakID string, data []byte) error {
	if tweakID == "" || len(data) == 0 {
		return errors.New().WithData(errors.ErrInvalidArgument, tweakID)
	}
	return s.repo.SaveBaseline(ctx, tweakID, data)
}

func (s *service) ClearBaseline(ctx context.Context, tweakID string) error {
	return s.repo.ClearBaseline(ctx, tweakID)
}

func (s *service) Close() error {
	if err := s.repo.Close(); err != nil {
		return errors.New().Wrap(ErrStorageClose, err)
	}
	return nil
}

func (noopJournal) Record(context.Context, *Entry) error { return nil }

func (noopJournal) Recent(context.Context, int) ([]Entry, error) { return nil, nil }

func (noopJournal) LoadBaseline(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

func (noopJournal) SaveBaseline(context.Context, string, []byte) error { return nil }

func (noopJournal) ClearBaseline(context.Context, string) error { return nil }

func (noopJournal) Close() error { return nil }
