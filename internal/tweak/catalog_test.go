package tweak_test

import (
	"context"
	"testing"

	"codeberg.org/mutker/tweakctl/internal/errors"
	"codeberg.org/mutker/tweakctl/internal/tweak"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopMethod struct{}

func (nopMethod) InitialState(context.Context) (tweak.State, error) { return tweak.Disabled, nil }
func (nopMethod) Apply(context.Context, tweak.State) error          { return nil }
func (nopMethod) Revert(context.Context) error                      { return nil }

func TestCatalogRegister(t *testing.T) {
	c := tweak.NewCatalog()

	require.NoError(t, c.Register(tweak.New("b", tweak.Info{Name: "B", Category: tweak.CategoryPower}, nopMethod{})))
	require.NoError(t, c.Register(tweak.New("a", tweak.Info{Name: "A", Category: tweak.CategoryCPU}, nopMethod{})))

	err := c.Register(tweak.New("a", tweak.Info{Name: "A again"}, nopMethod{}))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, tweak.ErrDuplicateID))

	assert.Equal(t, 2, c.Len())

	all := c.All()
	require.Len(t, all, 2)
	assert.Equal(t, tweak.ID("b"), all[0].ID(), "registration order is preserved")
	assert.Equal(t, tweak.ID("a"), all[1].ID())

	assert.Equal(t, []tweak.Category{tweak.CategoryCPU, tweak.CategoryPower}, c.Categories())
	assert.Len(t, c.ByCategory()[tweak.CategoryCPU], 1)
}

func TestCatalogRejectsInvalidRecords(t *testing.T) {
	c := tweak.NewCatalog()

	assert.True(t, errors.HasCode(c.Register(nil), tweak.ErrInvalidRecord))
	assert.True(t, errors.HasCode(c.Register(tweak.New("", tweak.Info{}, nopMethod{})), tweak.ErrInvalidRecord))
	assert.True(t, errors.HasCode(c.Register(tweak.New("x", tweak.Info{}, nil)), tweak.ErrInvalidRecord))
}

func TestCatalogGet(t *testing.T) {
	c := tweak.NewCatalog()
	require.NoError(t, c.Register(tweak.New("x", tweak.Info{}, nopMethod{})))

	got, err := c.Get("x")
	require.NoError(t, err)
	assert.Equal(t, tweak.WidgetToggle, got.Info().Widget, "widget defaults to toggle")

	_, err = c.Get("missing")
	assert.True(t, errors.HasCode(err, tweak.ErrUnknownID))
}

func TestTweakFlags(t *testing.T) {
	tw := tweak.New("x", tweak.Info{}, nopMethod{})

	_, known := tw.State()
	assert.False(t, known)

	assert.True(t, tw.BeginApplying())
	assert.False(t, tw.BeginApplying(), "second begin must be refused")
	assert.True(t, tw.Applying())
	tw.EndApplying()
	assert.False(t, tw.Applying())

	tw.SetError(assert.AnError)
	assert.Equal(t, assert.AnError, tw.Err())

	tw.SetState(tweak.Enabled)
	state, known := tw.State()
	assert.True(t, known)
	assert.True(t, state.Enabled)
	assert.True(t, tw.Enabled())
	assert.NoError(t, tw.Err(), "a fresh observation clears the last error")
}
