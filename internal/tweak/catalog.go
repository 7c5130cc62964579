package tweak

import (
	"sort"
	"sync"

	"codeberg.org/mutker/tweakctl/internal/errors"
)

// Catalog maps IDs to tweak records. It is built once at startup.
type Catalog struct {
	mu    sync.RWMutex
	byID  map[ID]*Tweak
	order []ID
}

func NewCatalog() *Catalog {
	return &Catalog{
		byID: make(map[ID]*Tweak),
	}
}

// Register adds a record; IDs must be unique.
func (c *Catalog) Register(t *Tweak) error {
	errFactory := errors.New()

	if t == nil || t.id == "" || t.method == nil {
		return errFactory.New(ErrInvalidRecord)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byID[t.id]; exists {
		return errFactory.WithData(ErrDuplicateID, t.id)
	}

	c.byID[t.id] = t
	c.order = append(c.order, t.id)

	return nil
}

// Get returns the record for id.
func (c *Catalog) Get(id ID) (*Tweak, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.byID[id]
	if !ok {
		return nil, errors.New().WithData(ErrUnknownID, id)
	}

	return t, nil
}

// All returns records in registration order.
func (c *Catalog) All() []*Tweak {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Tweak, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}

	return out
}

// ByCategory returns records grouped by category.
func (c *Catalog) ByCategory() map[Category][]*Tweak {
	grouped := make(map[Category][]*Tweak)
	for _, t := range c.All() {
		grouped[t.info.Category] = append(grouped[t.info.Category], t)
	}

	return grouped
}

// Categories returns the categories present, sorted.
func (c *Catalog) Categories() []Category {
	seen := make(map[Category]bool)
	var out []Category
	for _, t := range c.All() {
		if !seen[t.info.Category] {
			seen[t.info.Category] = true
			out = append(out, t.info.Category)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}
