package interactions

import (
	"cmp"
	"context"
	"fmt"
	"runtime"
	"slices"

	"github.com/hupe1980/recgo/model"
	"golang.org/x/sync/errgroup"
)

type entry struct {
	entity model.EntityID
	item   model.ItemID
	weight float64
}

// Builder accumulates interactions for a Memory store.
type Builder struct {
	numEntities int
	numItems    int
	entries     []entry
}

// NewBuilder returns a Builder for the given entity and item universes.
func NewBuilder(numEntities, numItems int) *Builder {
	return &Builder{numEntities: numEntities, numItems: numItems}
}

// Add records one interaction. A later Add for the same pair overwrites the
// weight.
func (b *Builder) Add(e model.EntityID, i model.ItemID, weight float64) error {
	if int(e) >= b.numEntities {
		return fmt.Errorf("interactions: entity %d out of range [0,%d)", e, b.numEntities)
	}
	if int(i) >= b.numItems {
		return fmt.Errorf("interactions: item %d out of range [0,%d)", i, b.numItems)
	}
	b.entries = append(b.entries, entry{entity: e, item: i, weight: weight})
	return nil
}

// Len returns the number of recorded (not yet deduplicated) interactions.
func (b *Builder) Len() int { return len(b.entries) }

// Build produces the CSR store. Per-entity lists are sorted and deduplicated
// in parallel.
func (b *Builder) Build(ctx context.Context) (*Memory, error) {
	offsets := make([]int, b.numEntities+1)
	for _, en := range b.entries {
		offsets[en.entity+1]++
	}
	for e := 1; e <= b.numEntities; e++ {
		offsets[e] += offsets[e-1]
	}

	// Counting sort by entity keeps insertion order within an entity.
	data := make([]model.Interaction, len(b.entries))
	next := slices.Clone(offsets[:b.numEntities])
	for _, en := range b.entries {
		data[next[en.entity]] = model.Interaction{Item: en.item, Weight: en.weight}
		next[en.entity]++
	}

	lengths := make([]int, b.numEntities)
	g, ctx := errgroup.WithContext(ctx)
	workers := runtime.GOMAXPROCS(0)
	chunk := (b.numEntities + workers - 1) / max(workers, 1)
	for lo := 0; lo < b.numEntities; lo += chunk {
		hi := min(lo+chunk, b.numEntities)
		g.Go(func() error {
			for e := lo; e < hi; e++ {
				if e%1024 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				lengths[e] = sortDedupe(data[offsets[e]:offsets[e+1]])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Compact away dropped duplicates.
	m := &Memory{
		numItems: b.numItems,
		offsets:  make([]int, b.numEntities+1),
		data:     data[:0],
	}
	w := 0
	for e := 0; e < b.numEntities; e++ {
		w += copy(data[w:], data[offsets[e]:offsets[e]+lengths[e]])
		m.offsets[e+1] = w
	}
	m.data = data[:w]
	return m, nil
}

// sortDedupe sorts s by item, keeping the last-added weight for duplicates,
// and returns the deduplicated length.
func sortDedupe(s []model.Interaction) int {
	if len(s) < 2 {
		return len(s)
	}
	slices.SortStableFunc(s, func(a, b model.Interaction) int {
		return cmp.Compare(a.Item, b.Item)
	})
	w := 0
	for r := 0; r < len(s); r++ {
		if w > 0 && s[w-1].Item == s[r].Item {
			s[w-1] = s[r]
			continue
		}
		s[w] = s[r]
		w++
	}
	return w
}

// Memory is an in-memory compressed-sparse-row interaction store.
type Memory struct {
	numItems int
	offsets  []int
	data     []model.Interaction
}

// NewMemory builds a Memory store from per-entity lists. Lists must already
// be sorted by item without duplicates.
func NewMemory(numItems int, lists [][]model.Interaction) (*Memory, error) {
	m := &Memory{numItems: numItems, offsets: make([]int, len(lists)+1)}
	for e, l := range lists {
		for j, in := range l {
			if int(in.Item) >= numItems {
				return nil, fmt.Errorf("interactions: entity %d: item %d out of range [0,%d)", e, in.Item, numItems)
			}
			if j > 0 && l[j-1].Item >= in.Item {
				return nil, fmt.Errorf("interactions: entity %d: list not strictly sorted by item", e)
			}
		}
		m.data = append(m.data, l...)
		m.offsets[e+1] = len(m.data)
	}
	return m, nil
}

// NumEntities implements Store.
func (m *Memory) NumEntities() int { return len(m.offsets) - 1 }

// NumItems implements Store.
func (m *Memory) NumItems() int { return m.numItems }

// NumInteractions implements Store.
func (m *Memory) NumInteractions() int { return len(m.data) }

// Entity returns the interaction list of e without copying.
func (m *Memory) Entity(e model.EntityID) []model.Interaction {
	if int(e) >= m.NumEntities() {
		return nil
	}
	return m.data[m.offsets[e]:m.offsets[e+1]:m.offsets[e+1]]
}

// NewReader implements Store.
func (m *Memory) NewReader(context.Context) (Reader, error) {
	return memoryReader{m: m}, nil
}

type memoryReader struct {
	m *Memory
}

func (r memoryReader) Read(e model.EntityID, _ []model.Interaction) ([]model.Interaction, error) {
	return r.m.Entity(e), nil
}

func (memoryReader) Close() error { return nil }
