package lookup

import (
	"github.com/hupe1980/recgo/frame"
	"github.com/hupe1980/recgo/model"
)

// Tables are the optional query-time inputs of one call. Nil means empty.
type Tables struct {
	Restriction     *frame.Frame
	Exclusion       *frame.Frame
	NewObservations *frame.Frame
	NewEntityData   *frame.Frame
	NewItemData     *frame.Frame
}

// Validate checks the shape of every table against the schema. It assigns no
// ids and is cheap enough to run before any other work.
func Validate(schema *model.Schema, t Tables) error {
	if err := validateRestriction(schema, t.Restriction); err != nil {
		return err
	}
	if err := validateExclusion(schema, t.Exclusion); err != nil {
		return err
	}
	if err := validateObservations(schema, t.NewObservations); err != nil {
		return err
	}
	if err := validateSide(schema, t.NewEntityData, schema.EntityColumn(), schema.ItemColumn(), model.RoleEntitySide); err != nil {
		return err
	}
	return validateSide(schema, t.NewItemData, schema.ItemColumn(), schema.EntityColumn(), model.RoleItemSide)
}

func requireCategorical(f *frame.Frame, name string) error {
	c, ok := f.Lookup(name)
	if ok && c.IsNumeric() {
		return &model.SchemaError{Column: name, Reason: "must be categorical"}
	}
	return nil
}

func validateRestriction(schema *model.Schema, f *frame.Frame) error {
	entity, item := schema.EntityColumn(), schema.ItemColumn()
	switch f.NumColumns() {
	case 0:
		return nil
	case 1:
		if !f.HasColumns(item) {
			return model.Configurationf("a one-column restriction must be the item column %q, got %q", item, f.ColumnNames()[0])
		}
	case 2:
		if !f.HasColumns(entity, item) {
			return model.Configurationf("a two-column restriction must have exactly the columns %q and %q, got %q", entity, item, f.ColumnNames())
		}
	default:
		return model.Configurationf("restriction must have one or two columns, got %d", f.NumColumns())
	}
	if err := requireCategorical(f, entity); err != nil {
		return err
	}
	return requireCategorical(f, item)
}

func validateExclusion(schema *model.Schema, f *frame.Frame) error {
	if f.NumColumns() == 0 {
		return nil
	}
	entity, item := schema.EntityColumn(), schema.ItemColumn()
	if !f.HasColumns(entity, item) {
		return model.Configurationf("exclusion must have exactly the columns %q and %q, got %q", entity, item, f.ColumnNames())
	}
	if err := requireCategorical(f, entity); err != nil {
		return err
	}
	return requireCategorical(f, item)
}

func validateObservations(schema *model.Schema, f *frame.Frame) error {
	if f.NumColumns() == 0 {
		return nil
	}
	entity, item := schema.EntityColumn(), schema.ItemColumn()
	for _, name := range []string{entity, item} {
		if _, ok := f.Lookup(name); !ok {
			return model.Configurationf("new observations must contain the column %q", name)
		}
		if err := requireCategorical(f, name); err != nil {
			return err
		}
	}
	for _, name := range f.ColumnNames() {
		if name == entity || name == item {
			continue
		}
		idx, ok := schema.ColumnIndex(name)
		if !ok {
			return &model.SchemaError{Column: name, Reason: "is not a column of the trained model"}
		}
		col := schema.Column(idx)
		if col.Role != model.RoleTarget && col.Role != model.RoleFeature {
			return &model.SchemaError{Column: name, Reason: "holds " + col.Role.String() + " data and cannot be part of new observations"}
		}
		c, _ := f.Lookup(name)
		if col.Role == model.RoleTarget && !c.IsNumeric() {
			return &model.SchemaError{Column: name, Reason: "is the target column and must be numeric"}
		}
	}
	return nil
}

func validateSide(schema *model.Schema, f *frame.Frame, key, other string, role model.ColumnRole) error {
	if f.NumColumns() == 0 {
		return nil
	}
	if _, ok := f.Lookup(key); !ok {
		return model.Configurationf("new %s must contain the column %q", role, key)
	}
	if err := requireCategorical(f, key); err != nil {
		return err
	}
	for _, name := range f.ColumnNames() {
		if name == key {
			continue
		}
		if name == other {
			return model.Configurationf("new %s must not contain the column %q", role, other)
		}
		idx, ok := schema.ColumnIndex(name)
		if !ok {
			return &model.SchemaError{Column: name, Reason: "is not a column of the trained model"}
		}
		col := schema.Column(idx)
		if col.Role != role {
			return &model.SchemaError{Column: name, Reason: "is not " + role.String() + " data"}
		}
		c, _ := f.Lookup(name)
		if (col.Kind == model.Numeric) != c.IsNumeric() {
			return &model.SchemaError{Column: name, Reason: "is " + col.Kind.String() + " in the trained model"}
		}
	}
	return nil
}
