package model

import (
	"github.com/hupe1980/recgo/indexer"
)

// ColumnKind is the value type of a column.
type ColumnKind uint8

const (
	// Categorical columns hold string values mapped through an indexer.
	Categorical ColumnKind = iota
	// Numeric columns hold float64 values.
	Numeric
)

func (k ColumnKind) String() string {
	switch k {
	case Categorical:
		return "categorical"
	case Numeric:
		return "numeric"
	default:
		return "unknown"
	}
}

// ColumnRole is the part a column played at training time.
type ColumnRole uint8

const (
	// RoleEntity is the entity ("user") column.
	RoleEntity ColumnRole = iota
	// RoleItem is the item column.
	RoleItem
	// RoleTarget is the interaction value column.
	RoleTarget
	// RoleFeature is an observation-level context column.
	RoleFeature
	// RoleEntitySide is an entity side-data column.
	RoleEntitySide
	// RoleItemSide is an item side-data column.
	RoleItemSide
)

func (r ColumnRole) String() string {
	switch r {
	case RoleEntity:
		return "entity"
	case RoleItem:
		return "item"
	case RoleTarget:
		return "target"
	case RoleFeature:
		return "feature"
	case RoleEntitySide:
		return "entity side"
	case RoleItemSide:
		return "item side"
	default:
		return "unknown"
	}
}

// Column describes one trained column.
type Column struct {
	Name string
	Kind ColumnKind
	Role ColumnRole
	// Categories indexes categorical feature and side columns.
	// Unused for entity/item columns, whose indexers live on the model.
	Categories indexer.Indexer
}

// Schema is the ordered column layout of a trained model.
//
// Column 0 is always the entity column and column 1 the item column. The
// position of a column is its model-internal index, used in Feature.Column.
type Schema struct {
	columns []Column
	byName  map[string]int
}

// EntityColumnIndex and ItemColumnIndex are the fixed positions of the
// identity columns.
const (
	EntityColumnIndex = 0
	ItemColumnIndex   = 1
)

// NewSchema builds a schema from the entity and item column names and any
// further columns, in model order.
//
// Returns a ConfigurationError on an entity/item name collision or any other
// duplicate column name.
func NewSchema(entity, item string, extra ...Column) (*Schema, error) {
	if entity == "" || item == "" {
		return nil, Configurationf("entity and item column names must be non-empty")
	}
	if entity == item {
		return nil, Configurationf("entity and item columns must differ, both are %q", entity)
	}

	s := &Schema{
		columns: make([]Column, 0, 2+len(extra)),
		byName:  make(map[string]int, 2+len(extra)),
	}
	s.columns = append(s.columns,
		Column{Name: entity, Kind: Categorical, Role: RoleEntity},
		Column{Name: item, Kind: Categorical, Role: RoleItem},
	)
	for _, c := range extra {
		if c.Role == RoleEntity || c.Role == RoleItem {
			return nil, Configurationf("column %q: only one entity and one item column allowed", c.Name)
		}
		if c.Kind == Categorical && c.Role != RoleTarget && c.Categories == nil {
			return nil, Configurationf("categorical column %q needs an indexer", c.Name)
		}
		s.columns = append(s.columns, c)
	}
	for i, c := range s.columns {
		if _, dup := s.byName[c.Name]; dup {
			return nil, Configurationf("duplicate column %q", c.Name)
		}
		s.byName[c.Name] = i
	}
	return s, nil
}

// EntityColumn returns the entity column name.
func (s *Schema) EntityColumn() string { return s.columns[EntityColumnIndex].Name }

// ItemColumn returns the item column name.
func (s *Schema) ItemColumn() string { return s.columns[ItemColumnIndex].Name }

// NumColumns returns the number of columns.
func (s *Schema) NumColumns() int { return len(s.columns) }

// Column returns the column at model index i.
func (s *Schema) Column(i int) Column { return s.columns[i] }

// ColumnIndex returns the model index of the named column.
func (s *Schema) ColumnIndex(name string) (int, bool) {
	i, ok := s.byName[name]
	return i, ok
}

// TargetColumn returns the name of the target column, if any.
func (s *Schema) TargetColumn() (string, bool) {
	for _, c := range s.columns {
		if c.Role == RoleTarget {
			return c.Name, true
		}
	}
	return "", false
}

// Columns returns a copy of the column list in model order.
func (s *Schema) Columns() []Column {
	out := make([]Column, len(s.columns))
	copy(out, s.columns)
	return out
}
