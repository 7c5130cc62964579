package power

import (
	"context"
	"sync"

	"codeberg.org/mutker/tweakctl/internal/errors"
	"github.com/google/uuid"
)

// MemoryAPI keeps power schemes in process memory. Templates are hidden
// schemes that can be duplicated but are not enumerated, like the
// Ultimate Performance scheme on stock installations.
type MemoryAPI struct {
	mu        sync.Mutex
	schemes   []Scheme
	templates map[uuid.UUID]Scheme
	active    uuid.UUID
}

func NewMemoryAPI(active Scheme, others ...Scheme) *MemoryAPI {
	return &MemoryAPI{
		schemes:   append([]Scheme{active}, others...),
		templates: make(map[uuid.UUID]Scheme),
		active:    active.GUID,
	}
}

// NewDefaultMemoryAPI mirrors a stock Windows installation.
func NewDefaultMemoryAPI() *MemoryAPI {
	api := NewMemoryAPI(
		Scheme{GUID: Balanced, Name: "Balanced"},
		Scheme{GUID: HighPerformance, Name: "High performance"},
		Scheme{GUID: PowerSaver, Name: "Power saver"},
	)
	api.AddTemplate(Scheme{GUID: UltimatePerformance, Name: "Ultimate Performance"})

	return api
}

// AddTemplate registers a hidden, duplicable scheme.
func (m *MemoryAPI) AddTemplate(s Scheme) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[s.GUID] = s
}

func (m *MemoryAPI) ActiveScheme(_ context.Context) (Scheme, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := findByGUID(m.schemes, m.active); ok {
		return s, nil
	}

	return Scheme{}, errors.New().WithData(ErrSchemeNotFound, m.active)
}

func (m *MemoryAPI) Schemes(_ context.Context) ([]Scheme, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Scheme(nil), m.schemes...), nil
}

func (m *MemoryAPI) SetActiveScheme(_ context.Context, guid uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := findByGUID(m.schemes, guid); !ok {
		return errors.New().WithData(ErrSchemeNotFound, guid)
	}
	m.active = guid

	return nil
}

func (m *MemoryAPI) DuplicateScheme(_ context.Context, template uuid.UUID) (Scheme, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	source, ok := findByGUID(m.schemes, template)
	if !ok {
		source, ok = m.templates[template]
	}
	if !ok {
		return Scheme{}, errors.New().WithData(ErrSchemeNotFound, template)
	}

	duplicate := Scheme{GUID: uuid.New(), Name: source.Name}
	m.schemes = append(m.schemes, duplicate)

	return duplicate, nil
}
