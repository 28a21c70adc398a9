package query

import (
	"encoding/binary"
	"math"
	"slices"

	"github.com/hupe1980/recgo/frame"
	"github.com/hupe1980/recgo/indexer"
	"github.com/hupe1980/recgo/internal/hash"
	"github.com/hupe1980/recgo/model"
)

// Resolver turns a Shape into a Plan for one call.
//
// Resolve assigns overlay ids to unseen entity keys and unseen categorical
// feature values. It runs single-threaded, so ids are deterministic in input
// order.
type Resolver struct {
	schema     *model.Schema
	entities   *indexer.Overlay
	categories map[int]*indexer.Overlay
}

// NewResolver creates a resolver over the model schema and the call's entity
// overlay.
func NewResolver(schema *model.Schema, entities *indexer.Overlay) *Resolver {
	return &Resolver{
		schema:     schema,
		entities:   entities,
		categories: make(map[int]*indexer.Overlay),
	}
}

// Categories returns the call overlay of a categorical feature column, or nil
// if no query value touched it.
func (r *Resolver) Categories(column int) *indexer.Overlay {
	return r.categories[column]
}

// Validate checks q against the schema without assigning ids.
func (r *Resolver) Validate(q Shape) error {
	switch s := q.(type) {
	case nil, All, List:
		return nil
	case listFrame:
		return r.validateList(s.f)
	case Rows:
		_, err := r.rowsLayout(s.Frame)
		return err
	default:
		return model.Configurationf("unsupported query type %T", q)
	}
}

// Resolve validates q and builds its plan. For All, the plan covers every
// entity the overlay knows when Resolve is called.
func (r *Resolver) Resolve(q Shape) (Plan, error) {
	switch s := q.(type) {
	case nil, All:
		return &AllPlan{N: r.entities.Len()}, nil
	case List:
		return r.resolveList(s.Entities), nil
	case listFrame:
		if err := r.validateList(s.f); err != nil {
			return nil, err
		}
		return r.resolveList(s.f.Column(0).Strings), nil
	case Rows:
		return r.resolveRows(s.Frame)
	default:
		return nil, model.Configurationf("unsupported query type %T", q)
	}
}

func (r *Resolver) validateList(f *frame.Frame) error {
	c := f.Column(0)
	if c.Name != r.schema.EntityColumn() {
		if c.Name == r.schema.ItemColumn() {
			return model.Configurationf("query column %q is the item column; a single query column must hold %q keys", c.Name, r.schema.EntityColumn())
		}
		return model.Configurationf("query column %q must be the entity column %q", c.Name, r.schema.EntityColumn())
	}
	if c.IsNumeric() {
		return &model.SchemaError{Column: c.Name, Reason: "must be categorical"}
	}
	return nil
}

func (r *Resolver) resolveList(keys []string) *ListPlan {
	p := &ListPlan{Entities: make([]model.EntityID, len(keys))}
	for i, k := range keys {
		p.Entities[i] = model.EntityID(r.entities.Index(k))
	}
	return p
}

// layout is the validated column mapping of a ROWS query.
type layout struct {
	entity int
	// perm[j] is the model column of caller column j.
	perm []int
	// order lists caller feature column positions sorted by model column.
	order []int
}

func (r *Resolver) rowsLayout(f *frame.Frame) (*layout, error) {
	l := &layout{entity: -1, perm: make([]int, f.NumColumns())}
	entityName := r.schema.EntityColumn()
	itemName := r.schema.ItemColumn()

	for j := 0; j < f.NumColumns(); j++ {
		c := f.Column(j)
		switch c.Name {
		case entityName:
			if c.IsNumeric() {
				return nil, &model.SchemaError{Column: c.Name, Reason: "must be categorical"}
			}
			l.entity = j
			l.perm[j] = model.EntityColumnIndex
			continue
		case itemName:
			return nil, model.Configurationf("query rows must not contain the item column %q", itemName)
		}

		idx, ok := r.schema.ColumnIndex(c.Name)
		if !ok {
			return nil, &model.SchemaError{Column: c.Name, Reason: "is not a column of the trained model"}
		}
		col := r.schema.Column(idx)
		switch col.Role {
		case model.RoleFeature:
		case model.RoleEntitySide, model.RoleItemSide:
			return nil, &model.SchemaError{Column: c.Name, Reason: "holds " + col.Role.String() + " data; pass it as new side data instead"}
		case model.RoleTarget:
			return nil, &model.SchemaError{Column: c.Name, Reason: "is the target column and cannot be a query feature"}
		default:
			return nil, &model.SchemaError{Column: c.Name, Reason: "cannot be a query feature"}
		}
		if (col.Kind == model.Numeric) != c.IsNumeric() {
			return nil, &model.SchemaError{Column: c.Name, Reason: "is " + col.Kind.String() + " in the trained model"}
		}
		l.perm[j] = idx
		l.order = append(l.order, j)
	}

	if l.entity < 0 {
		return nil, model.Configurationf("query rows must contain the entity column %q", entityName)
	}
	slices.SortFunc(l.order, func(a, b int) int { return l.perm[a] - l.perm[b] })
	return l, nil
}

func (r *Resolver) resolveRows(f *frame.Frame) (*RowsPlan, error) {
	l, err := r.rowsLayout(f)
	if err != nil {
		return nil, err
	}

	n := f.NumRows()
	stride := len(l.order)
	p := &RowsPlan{
		Entities:    make([]model.EntityID, n),
		RowKeys:     make([]uint64, n),
		Permutation: l.perm,
		stride:      stride,
		features:    make([]model.Feature, n*stride),
	}

	overlays := make([]*indexer.Overlay, stride)
	for k, j := range l.order {
		col := r.schema.Column(l.perm[j])
		if col.Kind != model.Categorical {
			continue
		}
		o, ok := r.categories[l.perm[j]]
		if !ok {
			o = indexer.NewOverlay(col.Categories)
			r.categories[l.perm[j]] = o
		}
		overlays[k] = o
	}

	entities := f.Column(l.entity).Strings
	var buf []byte
	for i := 0; i < n; i++ {
		p.Entities[i] = model.EntityID(r.entities.Index(entities[i]))

		buf = append(buf[:0], entities[i]...)
		buf = append(buf, 0)
		row := p.features[i*stride : (i+1)*stride]
		for k, j := range l.order {
			c := f.Column(j)
			row[k].Column = l.perm[j]
			if c.IsNumeric() {
				v := c.Floats[i]
				row[k].Value = v
				buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
				continue
			}
			row[k].Index = overlays[k].Index(c.Strings[i])
			row[k].Value = 1
			buf = append(buf, c.Strings[i]...)
			buf = append(buf, 0)
		}
		p.RowKeys[i] = hash.Bytes64(0, buf)
	}
	return p, nil
}
