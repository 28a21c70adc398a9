package bundle

import (
	"github.com/hupe1980/recgo/indexer"
	"github.com/hupe1980/recgo/model"
)

const (
	// ManifestFileName is the blob written last when saving.
	ManifestFileName     = "MANIFEST"
	InteractionsFileName = "interactions.seg"
	FactorsFileName      = "factors.bin"

	// CurrentVersion is the version of the manifest format.
	CurrentVersion = 1
)

// Manifest describes a stored bundle.
type Manifest struct {
	Version     int              `json:"version"`
	Columns     []ColumnManifest `json:"columns"`
	Entities    []string         `json:"entities"`
	Items       []string         `json:"items"`
	Dim         int              `json:"dim"`
	GlobalBias  float64          `json:"global_bias"`
	Weights     [][]float64      `json:"weights,omitempty"`
	Side        *Side            `json:"side,omitempty"`
	Compression string           `json:"compression"`
}

// ColumnManifest describes one schema column.
type ColumnManifest struct {
	Name       string           `json:"name"`
	Kind       model.ColumnKind `json:"kind"`
	Role       model.ColumnRole `json:"role"`
	Categories []string         `json:"categories,omitempty"`
}

func keys(ix indexer.Indexer) []string {
	if m, ok := ix.(*indexer.Map); ok {
		return m.Keys()
	}
	out := make([]string, ix.Len())
	for i := range out {
		out[i], _ = ix.Key(uint32(i))
	}
	return out
}

func columnsOf(s *model.Schema) []ColumnManifest {
	cols := s.Columns()
	out := make([]ColumnManifest, len(cols))
	for i, c := range cols {
		out[i] = ColumnManifest{Name: c.Name, Kind: c.Kind, Role: c.Role}
		if c.Categories != nil {
			out[i].Categories = keys(c.Categories)
		}
	}
	return out
}

func (m *Manifest) schema() (*model.Schema, error) {
	if len(m.Columns) < 2 {
		return nil, model.Configurationf("bundle manifest has %d columns, need at least entity and item", len(m.Columns))
	}
	extra := make([]model.Column, 0, len(m.Columns)-2)
	for _, c := range m.Columns[2:] {
		col := model.Column{Name: c.Name, Kind: c.Kind, Role: c.Role}
		if c.Categories != nil {
			ix, err := indexer.NewMap(c.Categories)
			if err != nil {
				return nil, err
			}
			col.Categories = ix
		}
		extra = append(extra, col)
	}
	return model.NewSchema(m.Columns[0].Name, m.Columns[1].Name, extra...)
}
