package lookup

import (
	"github.com/hupe1980/recgo/frame"
	"github.com/hupe1980/recgo/indexer"
	"github.com/hupe1980/recgo/model"
)

// sideOverlay serves new side data and falls back to the model's own.
type sideOverlay struct {
	base     model.SideFeatures
	entities map[model.EntityID][]model.Feature
	items    map[model.ItemID][]model.Feature
}

func (s *sideOverlay) EntityFeatures(e model.EntityID) []model.Feature {
	if f, ok := s.entities[e]; ok {
		return f
	}
	if s.base != nil {
		return s.base.EntityFeatures(e)
	}
	return nil
}

func (s *sideOverlay) ItemFeatures(i model.ItemID) []model.Feature {
	if f, ok := s.items[i]; ok {
		return f
	}
	if s.base != nil {
		return s.base.ItemFeatures(i)
	}
	return nil
}

func buildSide(cfg Config, t Tables) model.SideFeatures {
	if t.NewEntityData.NumRows() == 0 && t.NewItemData.NumRows() == 0 {
		return cfg.Base
	}
	s := &sideOverlay{base: cfg.Base}
	s.entities = sideRows(cfg.Schema, t.NewEntityData, cfg.Schema.EntityColumn(), cfg.Entities, func(id uint32) model.EntityID { return model.EntityID(id) })
	s.items = sideRows(cfg.Schema, t.NewItemData, cfg.Schema.ItemColumn(), cfg.Items, func(id uint32) model.ItemID { return model.ItemID(id) })
	return s
}

// sideRows encodes side-data rows as features ordered by model column. Rows
// with unknown keys are skipped, as are unknown categorical values. A later
// row for the same key replaces an earlier one.
func sideRows[K comparable](schema *model.Schema, f *frame.Frame, key string, ids indexer.Indexer, conv func(uint32) K) map[K][]model.Feature {
	if f.NumRows() == 0 {
		return nil
	}
	keys, _ := f.Lookup(key)

	type col struct {
		model int
		data  *frame.Column
		cats  indexer.Indexer
	}
	var cols []col
	for i := 0; i < schema.NumColumns(); i++ {
		if c, ok := f.Lookup(schema.Column(i).Name); ok && c.Name != key {
			cols = append(cols, col{model: i, data: c, cats: schema.Column(i).Categories})
		}
	}

	out := make(map[K][]model.Feature, f.NumRows())
	for row, k := range keys.Strings {
		id, ok := ids.Lookup(k)
		if !ok {
			continue
		}
		feats := make([]model.Feature, 0, len(cols))
		for _, c := range cols {
			if c.data.IsNumeric() {
				feats = append(feats, model.Feature{Column: c.model, Value: c.data.Floats[row]})
				continue
			}
			if cat, ok := c.cats.Lookup(c.data.Strings[row]); ok {
				feats = append(feats, model.Feature{Column: c.model, Index: cat, Value: 1})
			}
		}
		out[conv(id)] = feats
	}
	return out
}
