package lookup

import (
	"context"
	"runtime"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/recgo/frame"
	"github.com/hupe1980/recgo/indexer"
	"github.com/hupe1980/recgo/model"
	"golang.org/x/sync/errgroup"
)

// RestrictionKind is the form of an item restriction.
type RestrictionKind uint8

const (
	// Unrestricted means every trained item is eligible.
	Unrestricted RestrictionKind = iota
	// Global restricts every entity to one item set.
	Global
	// PerEntity restricts each entity to its own item set.
	PerEntity
)

// Restriction is either a global sorted item set or a per-entity map of
// sorted item sets, never both.
type Restriction struct {
	kind      RestrictionKind
	global    []model.ItemID
	perEntity map[model.EntityID][]model.ItemID
}

// Kind returns the restriction form.
func (r *Restriction) Kind() RestrictionKind { return r.kind }

// Items returns the eligible items of e in ascending order. restricted is
// false when every trained item is eligible. An entity missing from a
// per-entity restriction has no eligible items.
func (r *Restriction) Items(e model.EntityID) (items []model.ItemID, restricted bool) {
	switch r.kind {
	case Global:
		return r.global, true
	case PerEntity:
		return r.perEntity[e], true
	default:
		return nil, false
	}
}

// Stats counts what the builder kept and dropped.
type Stats struct {
	Exclusions   int
	Restrictions int
	Observations int
	// Dropped counts rows naming items (or entities) the call cannot query.
	Dropped int
}

// Index holds the read-only lookup maps of one call.
type Index struct {
	Excluded    map[model.EntityID][]model.ItemID
	Restriction Restriction
	Observed    map[model.EntityID][]model.Interaction
	// Side is the side-feature view for this call: new side data layered
	// over the model's own. Nil if neither exists.
	Side  model.SideFeatures
	Stats Stats
}

// Config is the context a Build runs in.
type Config struct {
	Schema   *model.Schema
	Entities *indexer.Overlay
	Items    indexer.Indexer
	// Base is the model's side-feature view. May be nil.
	Base    model.SideFeatures
	Workers int
}

// AssignEntities gives overlay ids to entity keys first seen in new
// observations or new entity data, in table order.
func AssignEntities(cfg Config, t Tables) {
	for _, f := range []*frame.Frame{t.NewObservations, t.NewEntityData} {
		if c, ok := f.Lookup(cfg.Schema.EntityColumn()); ok {
			for _, k := range c.Strings {
				cfg.Entities.Index(k)
			}
		}
	}
}

// Build constructs the lookup maps. Tables must have passed Validate and
// entity ids must have been assigned with AssignEntities.
func Build(ctx context.Context, cfg Config, t Tables) (*Index, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	idx := &Index{}

	var err error
	idx.Excluded, idx.Stats.Exclusions, err = buildPairs(ctx, cfg, t.Exclusion, &idx.Stats.Dropped)
	if err != nil {
		return nil, err
	}
	if err := buildRestriction(ctx, cfg, t.Restriction, idx); err != nil {
		return nil, err
	}
	if idx.Observed, err = buildObservations(ctx, cfg, t.NewObservations, &idx.Stats); err != nil {
		return nil, err
	}
	idx.Side = buildSide(cfg, t)
	return idx, nil
}

func (cfg Config) pairDecoder(f *frame.Frame) decodeFunc[struct{}] {
	ec, _ := f.Lookup(cfg.Schema.EntityColumn())
	ic, _ := f.Lookup(cfg.Schema.ItemColumn())
	return func(row int) (model.EntityID, model.ItemID, struct{}, bool) {
		e, ok := cfg.Entities.Lookup(ec.Strings[row])
		if !ok {
			return 0, 0, struct{}{}, false
		}
		i, ok := cfg.Items.Lookup(ic.Strings[row])
		if !ok {
			return 0, 0, struct{}{}, false
		}
		return model.EntityID(e), model.ItemID(i), struct{}{}, true
	}
}

func itemOf(en entry[struct{}]) model.ItemID { return en.item }

func buildPairs(ctx context.Context, cfg Config, f *frame.Frame, dropped *int) (map[model.EntityID][]model.ItemID, int, error) {
	if f.NumRows() == 0 {
		return nil, 0, nil
	}
	grouped, d, err := group(ctx, cfg.Workers, f.NumRows(), cfg.pairDecoder(f))
	if err != nil {
		return nil, 0, err
	}
	*dropped += d
	out, err := finalize(ctx, cfg.Workers, grouped, itemOf)
	if err != nil {
		return nil, 0, err
	}
	n := 0
	for _, items := range out {
		n += len(items)
	}
	return out, n, nil
}

func buildRestriction(ctx context.Context, cfg Config, f *frame.Frame, idx *Index) error {
	switch f.NumColumns() {
	case 0:
		return nil
	case 2:
		m, n, err := buildPairs(ctx, cfg, f, &idx.Stats.Dropped)
		if err != nil {
			return err
		}
		if m == nil {
			m = map[model.EntityID][]model.ItemID{}
		}
		idx.Restriction = Restriction{kind: PerEntity, perEntity: m}
		idx.Stats.Restrictions = n
		return nil
	}

	items, dropped, err := globalItems(ctx, cfg, f.Column(0).Strings)
	if err != nil {
		return err
	}
	idx.Restriction = Restriction{kind: Global, global: items}
	idx.Stats.Restrictions = len(items)
	idx.Stats.Dropped += dropped
	return nil
}

// globalItems maps keys to a sorted, deduplicated item set, unioning
// per-range bitmaps.
func globalItems(ctx context.Context, cfg Config, keys []string) ([]model.ItemID, int, error) {
	parts := max(1, min(cfg.Workers, (len(keys)+chunkRows-1)/chunkRows))
	bitmaps := make([]*roaring.Bitmap, parts)
	droppedBy := make([]int, parts)

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < parts; w++ {
		lo, hi := w*len(keys)/parts, (w+1)*len(keys)/parts
		g.Go(func() error {
			bm := roaring.New()
			for j, k := range keys[lo:hi] {
				if j%chunkRows == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				if i, ok := cfg.Items.Lookup(k); ok {
					bm.Add(i)
				} else {
					droppedBy[w]++
				}
			}
			bitmaps[w] = bm
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	union := roaring.FastOr(bitmaps...)
	out := make([]model.ItemID, 0, union.GetCardinality())
	it := union.Iterator()
	for it.HasNext() {
		out = append(out, model.ItemID(it.Next()))
	}
	dropped := 0
	for _, d := range droppedBy {
		dropped += d
	}
	return out, dropped, nil
}

func buildObservations(ctx context.Context, cfg Config, f *frame.Frame, st *Stats) (map[model.EntityID][]model.Interaction, error) {
	if f.NumRows() == 0 {
		return nil, nil
	}
	var weights []float64
	if target, ok := cfg.Schema.TargetColumn(); ok {
		if c, ok := f.Lookup(target); ok {
			weights = c.Floats
		}
	}

	pairs := cfg.pairDecoder(f)
	decode := func(row int) (model.EntityID, model.ItemID, float64, bool) {
		e, i, _, ok := pairs(row)
		w := 1.0
		if weights != nil {
			w = weights[row]
		}
		return e, i, w, ok
	}

	grouped, dropped, err := group(ctx, cfg.Workers, f.NumRows(), decode)
	if err != nil {
		return nil, err
	}
	st.Dropped += dropped

	out, err := finalize(ctx, cfg.Workers, grouped, func(en entry[float64]) model.Interaction {
		return model.Interaction{Item: en.item, Weight: en.val}
	})
	if err != nil {
		return nil, err
	}
	for _, l := range out {
		st.Observations += len(l)
	}
	return out, nil
}
