package dataset

import (
	"fmt"
	"sort"

	"cortexstat/domain/core"
)

// Dataset is an ordered collection of records sharing one column schema
type Dataset struct {
	columns []*Column
	index   map[string]int
	ids     []RecordID
}

// New builds a dataset from columns of equal length. Records receive IDs
// 0..n-1 in row order.
func New(columns ...*Column) (*Dataset, error) {
	n := 0
	if len(columns) > 0 {
		n = columns[0].Len()
	}
	ids := make([]RecordID, n)
	for i := range ids {
		ids[i] = RecordID(i)
	}
	return build(columns, ids)
}

func build(columns []*Column, ids []RecordID) (*Dataset, error) {
	d := &Dataset{
		columns: columns,
		index:   make(map[string]int, len(columns)),
		ids:     ids,
	}
	for i, c := range columns {
		if _, dup := d.index[c.Name()]; dup {
			return nil, fmt.Errorf("%w: %q", core.ErrDuplicateColumn, c.Name())
		}
		if c.Len() != len(ids) {
			return nil, fmt.Errorf("%w: %q has %d rows, want %d", core.ErrShapeMismatch, c.Name(), c.Len(), len(ids))
		}
		d.index[c.Name()] = i
	}
	return d, nil
}

// Len returns the number of records
func (d *Dataset) Len() int { return len(d.ids) }

// Width returns the number of columns
func (d *Dataset) Width() int { return len(d.columns) }

// Names returns the column names in schema order
func (d *Dataset) Names() []string {
	names := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name()
	}
	return names
}

// Schema returns the column names and kinds in schema order
func (d *Dataset) Schema() []Field {
	fields := make([]Field, len(d.columns))
	for i, c := range d.columns {
		fields[i] = Field{Name: c.Name(), Kind: c.Kind()}
	}
	return fields
}

// Has reports whether the schema contains name
func (d *Dataset) Has(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Column returns the named column or a missing-column error
func (d *Dataset) Column(name string) (*Column, error) {
	i, ok := d.index[name]
	if !ok {
		return nil, core.NewMissingColumnError(name)
	}
	return d.columns[i], nil
}

// Numeric returns the named column, which must be numeric
func (d *Dataset) Numeric(name string) (*Column, error) {
	c, err := d.Column(name)
	if err != nil {
		return nil, err
	}
	if c.Kind() != Numeric {
		return nil, core.NewColumnTypeError(name, "numeric")
	}
	return c, nil
}

// Categorical returns the named column, which must be categorical
func (d *Dataset) Categorical(name string) (*Column, error) {
	c, err := d.Column(name)
	if err != nil {
		return nil, err
	}
	if c.Kind() != Categorical {
		return nil, core.NewColumnTypeError(name, "categorical")
	}
	return c, nil
}

// Require fails with a missing-column error for the first absent name
func (d *Dataset) Require(names ...string) error {
	for _, name := range names {
		if !d.Has(name) {
			return core.NewMissingColumnError(name)
		}
	}
	return nil
}

// RecordID returns the identity of the record at row
func (d *Dataset) RecordID(row int) RecordID { return d.ids[row] }

// RecordIDs returns a copy of the record identities in row order
func (d *Dataset) RecordIDs() []RecordID {
	return append([]RecordID(nil), d.ids...)
}

// Select projects the dataset onto the named columns, in the given order
func (d *Dataset) Select(names ...string) (*Dataset, error) {
	cols := make([]*Column, 0, len(names))
	for _, name := range names {
		c, err := d.Column(name)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return build(cols, d.RecordIDs())
}

// Drop removes the named columns. Unknown names are a missing-column error.
func (d *Dataset) Drop(names ...string) (*Dataset, error) {
	drop := make(map[string]bool, len(names))
	for _, name := range names {
		if !d.Has(name) {
			return nil, core.NewMissingColumnError(name)
		}
		drop[name] = true
	}
	cols := make([]*Column, 0, len(d.columns))
	for _, c := range d.columns {
		if !drop[c.Name()] {
			cols = append(cols, c)
		}
	}
	return build(cols, d.RecordIDs())
}

// WithColumn replaces the column of the same name, or appends it
func (d *Dataset) WithColumn(col *Column) (*Dataset, error) {
	cols := append([]*Column(nil), d.columns...)
	if i, ok := d.index[col.Name()]; ok {
		cols[i] = col
	} else {
		cols = append(cols, col)
	}
	return build(cols, d.RecordIDs())
}

// Take keeps the given rows, in the given order
func (d *Dataset) Take(rows []int) *Dataset {
	cols := make([]*Column, len(d.columns))
	for i, c := range d.columns {
		cols[i] = c.take(rows)
	}
	ids := make([]RecordID, len(rows))
	for i, r := range rows {
		ids[i] = d.ids[r]
	}
	out, _ := build(cols, ids)
	return out
}

// Filter keeps the rows for which keep returns true
func (d *Dataset) Filter(keep func(row int) bool) *Dataset {
	rows := make([]int, 0, d.Len())
	for r := 0; r < d.Len(); r++ {
		if keep(r) {
			rows = append(rows, r)
		}
	}
	return d.Take(rows)
}

// Without removes every record whose ID is in ids
func (d *Dataset) Without(ids map[RecordID]struct{}) *Dataset {
	return d.Filter(func(row int) bool {
		_, drop := ids[d.ids[row]]
		return !drop
	})
}

// DropMissing removes rows with a missing value in any of the named
// columns, or in any column when no name is given.
func (d *Dataset) DropMissing(names ...string) (*Dataset, error) {
	cols := d.columns
	if len(names) > 0 {
		cols = make([]*Column, 0, len(names))
		for _, name := range names {
			c, err := d.Column(name)
			if err != nil {
				return nil, err
			}
			cols = append(cols, c)
		}
	}
	return d.Filter(func(row int) bool {
		for _, c := range cols {
			if c.IsMissing(row) {
				return false
			}
		}
		return true
	}), nil
}

// MissingCounts returns the missing-cell count of every column
func (d *Dataset) MissingCounts() map[string]int {
	out := make(map[string]int, len(d.columns))
	for _, c := range d.columns {
		out[c.Name()] = c.MissingCount()
	}
	return out
}

// Levels returns the sorted distinct present labels of a categorical column
func (d *Dataset) Levels(name string) ([]string, error) {
	c, err := d.Categorical(name)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	for i := 0; i < c.Len(); i++ {
		if l, ok := c.Label(i); ok {
			seen[l] = true
		}
	}
	levels := make([]string, 0, len(seen))
	for l := range seen {
		levels = append(levels, l)
	}
	sort.Strings(levels)
	return levels, nil
}
