// Package sequencer implements the guided-flow step machine: ordered step
// catalogs, a cursor with forward-only transitions, and cancellable
// auto-advance timers.
package sequencer

import (
	"fmt"

	"github.com/godlykids/journey/internal/domain"
)

// Catalog is an ordered, immutable list of steps with tag lookup.
type Catalog struct {
	name  string
	steps []domain.Step
	index map[domain.StepTag]int
}

// NewCatalog builds a catalog from an ordered step list. Tags must be
// non-empty, unique, and distinct from the cursor sentinels.
func NewCatalog(name string, steps []domain.Step) (*Catalog, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("catalog %q: no steps", name)
	}
	index := make(map[domain.StepTag]int, len(steps))
	for i, s := range steps {
		if s.Tag == domain.CursorIdle || s.Tag == domain.CursorComplete {
			return nil, fmt.Errorf("catalog %q: step %d uses reserved tag %q", name, i, s.Tag)
		}
		if _, dup := index[s.Tag]; dup {
			return nil, fmt.Errorf("catalog %q: duplicate tag %q", name, s.Tag)
		}
		index[s.Tag] = i
	}
	copied := make([]domain.Step, len(steps))
	copy(copied, steps)
	return &Catalog{name: name, steps: copied, index: index}, nil
}

// Name returns the catalog name.
func (c *Catalog) Name() string { return c.name }

// Len returns the number of steps.
func (c *Catalog) Len() int { return len(c.steps) }

// Steps returns a copy of the ordered step list.
func (c *Catalog) Steps() []domain.Step {
	out := make([]domain.Step, len(c.steps))
	copy(out, c.steps)
	return out
}

// At returns the step at position i.
func (c *Catalog) At(i int) (domain.Step, bool) {
	if i < 0 || i >= len(c.steps) {
		return domain.Step{}, false
	}
	return c.steps[i], true
}

// Index returns the position of the step with the given tag.
func (c *Catalog) Index(tag domain.StepTag) (int, bool) {
	i, ok := c.index[tag]
	return i, ok
}

// Contains reports whether the tag names a step in this catalog.
func (c *Catalog) Contains(tag domain.StepTag) bool {
	_, ok := c.index[tag]
	return ok
}
