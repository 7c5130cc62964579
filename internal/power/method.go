package power

import (
	"context"
	"encoding/json"

	"codeberg.org/mutker/tweakctl/internal/errors"
	"codeberg.org/mutker/tweakctl/internal/logger"
	"codeberg.org/mutker/tweakctl/internal/tweak"
	"github.com/google/uuid"
)

// Target describes the scheme a Method activates.
type Target struct {
	// GUID is the well-known scheme identifier looked up first.
	GUID uuid.UUID
	// Template is duplicated when GUID is not installed.
	Template uuid.UUID
	// Name is the display name the duplicate is expected to carry.
	Name string
}

// Method activates a target power scheme, creating it from a template when
// missing, and reactivates the scheme that was active at construction on
// revert.
type Method struct {
	api      API
	target   Target
	baseline Scheme
}

// NewMethod captures the currently active scheme as the revert baseline.
func NewMethod(ctx context.Context, api API, target Target) (*Method, error) {
	errFactory := errors.New()

	if api == nil {
		return nil, errFactory.WithData(errors.ErrInvalidArgument, "nil power api")
	}
	if target.Name == "" {
		return nil, errFactory.WithData(errors.ErrInvalidArgument, "target scheme name is empty")
	}

	active, err := api.ActiveScheme(ctx)
	if err != nil {
		return nil, errFactory.Wrap(ErrActiveScheme, err)
	}

	logger.Debug().
		Str("baseline", active.GUID.String()).
		Str("baseline_name", active.Name).
		Str("target", target.Name).
		Msg("Captured power scheme baseline")

	return &Method{
		api:      api,
		target:   target,
		baseline: active,
	}, nil
}

// Baseline returns the scheme that was active at construction.
func (m *Method) Baseline() Scheme {
	return m.baseline
}

// SnapshotBaseline encodes the baseline scheme.
func (m *Method) SnapshotBaseline(context.Context) ([]byte, error) {
	return json.Marshal(m.baseline)
}

// RestoreBaseline replaces the baseline with one saved by an earlier
// process, which saw the scheme that was active before the first apply.
func (m *Method) RestoreBaseline(data []byte) error {
	var saved Scheme
	if err := json.Unmarshal(data, &saved); err != nil {
		return errors.New().Wrap(errors.ErrInvalidArgument, err)
	}
	if saved.GUID == uuid.Nil {
		return errors.New().WithData(errors.ErrInvalidArgument, "saved power scheme has no GUID")
	}

	m.baseline = saved

	return nil
}

// InitialState is enabled when the active scheme is the target, either by
// GUID or, for a scheme created from the template, by name.
func (m *Method) InitialState(ctx context.Context) (tweak.State, error) {
	active, err := m.api.ActiveScheme(ctx)
	if err != nil {
		return tweak.Disabled, errors.New().Wrap(ErrActiveScheme, err)
	}

	return tweak.State{Enabled: m.isTarget(active)}, nil
}

func (m *Method) Apply(ctx context.Context, option tweak.State) error {
	if !option.Enabled {
		return m.Revert(ctx)
	}

	errFactory := errors.New()

	active, err := m.api.ActiveScheme(ctx)
	if err != nil {
		return errFactory.Wrap(ErrActiveScheme, err)
	}
	if m.isTarget(active) {
		return nil
	}

	schemes, err := m.api.Schemes(ctx)
	if err != nil {
		return errFactory.Wrap(ErrEnumerate, err)
	}

	if _, ok := findByGUID(schemes, m.target.GUID); ok {
		return m.activate(ctx, m.target.GUID)
	}

	created, err := m.create(ctx)
	if err != nil {
		return err
	}

	return m.activate(ctx, created.GUID)
}

// Revert reactivates the baseline regardless of the active scheme.
func (m *Method) Revert(ctx context.Context) error {
	return m.activate(ctx, m.baseline.GUID)
}

// create duplicates the template and locates the copy by its display name.
// The name lookup is ambiguous if another scheme already carries the name.
func (m *Method) create(ctx context.Context) (Scheme, error) {
	errFactory := errors.New()

	duplicate, err := m.api.DuplicateScheme(ctx, m.target.Template)
	if err != nil {
		return Scheme{}, errFactory.Wrap(ErrDuplicate, err).WithData(m.target.Template)
	}

	logger.Info().
		Str("template", m.target.Template.String()).
		Str("duplicate", duplicate.GUID.String()).
		Msg("Duplicated power scheme template")

	schemes, err := m.api.Schemes(ctx)
	if err != nil {
		return Scheme{}, errFactory.Wrap(ErrEnumerate, err)
	}

	matches := findByName(schemes, m.target.Name)
	if len(matches) == 0 {
		return Scheme{}, errFactory.WithData(ErrCreateAndApply, m.target.Name).
			WithMessage("Could not create and apply power scheme")
	}
	if len(matches) > 1 {
		logger.Warn().
			Str("name", m.target.Name).
			Int("matches", len(matches)).
			Msg("Several power schemes share the target name, using the first")
	}

	return matches[0], nil
}

func (m *Method) activate(ctx context.Context, guid uuid.UUID) error {
	if err := m.api.SetActiveScheme(ctx, guid); err != nil {
		return errors.New().Wrap(ErrSetActive, err).WithData(guid)
	}

	logger.Debug().Str("guid", guid.String()).Msg("Power scheme activated")

	return nil
}

func (m *Method) isTarget(s Scheme) bool {
	return s.GUID == m.target.GUID || (s.Name != "" && s.Name == m.target.Name)
}

func findByGUID(schemes []Scheme, guid uuid.UUID) (Scheme, bool) {
	for _, s := range schemes {
		if s.GUID == guid {
			return s, true
		}
	}
	return Scheme{}, false
}

func findByName(schemes []Scheme, name string) []Scheme {
	var matches []Scheme
	for _, s := range schemes {
		if s.Name == name {
			matches = append(matches, s)
		}
	}
	return matches
}
