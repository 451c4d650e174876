package dataset

import (
	"math"
	"strconv"
)

// Column is one named, typed column. Both kinds carry an explicit validity
// mask: a missing measurement is never stored as zero and a missing label
// is never stored as the empty string level.
type Column struct {
	name   string
	kind   Kind
	nums   []float64
	labels []string
	valid  []bool
}

// NewNumericColumn copies values and mask into a numeric column. A nil mask
// marks every value present; NaN values are always treated as missing.
func NewNumericColumn(name string, values []float64, valid []bool) *Column {
	c := &Column{
		name:  name,
		kind:  Numeric,
		nums:  make([]float64, len(values)),
		valid: make([]bool, len(values)),
	}
	for i, v := range values {
		ok := valid == nil || (i < len(valid) && valid[i])
		if math.IsNaN(v) {
			ok = false
		}
		c.valid[i] = ok
		if ok {
			c.nums[i] = v
		}
	}
	return c
}

// Floats builds a numeric column where NaN marks a missing value
func Floats(name string, values ...float64) *Column {
	return NewNumericColumn(name, values, nil)
}

// NewCategoricalColumn copies labels and mask into a categorical column. A
// nil mask marks every non-empty label present.
func NewCategoricalColumn(name string, labels []string, valid []bool) *Column {
	c := &Column{
		name:   name,
		kind:   Categorical,
		labels: make([]string, len(labels)),
		valid:  make([]bool, len(labels)),
	}
	for i, l := range labels {
		ok := l != ""
		if valid != nil {
			ok = ok && i < len(valid) && valid[i]
		}
		c.valid[i] = ok
		if ok {
			c.labels[i] = l
		}
	}
	return c
}

// Labels builds a categorical column where "" marks a missing label
func Labels(name string, labels ...string) *Column {
	return NewCategoricalColumn(name, labels, nil)
}

// Name returns the column name
func (c *Column) Name() string { return c.name }

// Kind returns the column kind
func (c *Column) Kind() Kind { return c.kind }

// Len returns the number of cells
func (c *Column) Len() int { return len(c.valid) }

// IsMissing reports whether row i holds no value
func (c *Column) IsMissing(i int) bool { return !c.valid[i] }

// Float returns the numeric value at row i and whether it is present
func (c *Column) Float(i int) (float64, bool) {
	if c.kind != Numeric || !c.valid[i] {
		return 0, false
	}
	return c.nums[i], true
}

// Label returns the categorical value at row i and whether it is present
func (c *Column) Label(i int) (string, bool) {
	if c.kind != Categorical || !c.valid[i] {
		return "", false
	}
	return c.labels[i], true
}

// GroupLabel returns the label used when grouping by this column; missing
// values map to MissingLabel.
func (c *Column) GroupLabel(i int) string {
	if l, ok := c.Label(i); ok {
		return l
	}
	return MissingLabel
}

// MissingCount returns the number of missing cells
func (c *Column) MissingCount() int {
	n := 0
	for _, ok := range c.valid {
		if !ok {
			n++
		}
	}
	return n
}

// Present returns the non-missing numeric values in row order
func (c *Column) Present() []float64 {
	out := make([]float64, 0, len(c.valid))
	for i, ok := range c.valid {
		if ok && c.kind == Numeric {
			out = append(out, c.nums[i])
		}
	}
	return out
}

// PresentAt returns the non-missing numeric values of the given rows
func (c *Column) PresentAt(rows []int) []float64 {
	out := make([]float64, 0, len(rows))
	for _, r := range rows {
		if v, ok := c.Float(r); ok {
			out = append(out, v)
		}
	}
	return out
}

// Format renders row i for delimited output. Missing cells render empty.
func (c *Column) Format(i int) string {
	if !c.valid[i] {
		return ""
	}
	if c.kind == Numeric {
		return strconv.FormatFloat(c.nums[i], 'g', -1, 64)
	}
	return c.labels[i]
}

// WithFilled returns a copy of a numeric column where the rows in fills
// take the given values. The receiver is left untouched.
func (c *Column) WithFilled(fills map[int]float64) *Column {
	out := c.clone()
	for row, v := range fills {
		if math.IsNaN(v) {
			continue
		}
		out.nums[row] = v
		out.valid[row] = true
	}
	return out
}

func (c *Column) clone() *Column {
	out := &Column{name: c.name, kind: c.kind, valid: append([]bool(nil), c.valid...)}
	if c.kind == Numeric {
		out.nums = append([]float64(nil), c.nums...)
	} else {
		out.labels = append([]string(nil), c.labels...)
	}
	return out
}

func (c *Column) take(rows []int) *Column {
	out := &Column{name: c.name, kind: c.kind, valid: make([]bool, len(rows))}
	if c.kind == Numeric {
		out.nums = make([]float64, len(rows))
	} else {
		out.labels = make([]string, len(rows))
	}
	for i, r := range rows {
		out.valid[i] = c.valid[r]
		if c.kind == Numeric {
			out.nums[i] = c.nums[r]
		} else {
			out.labels[i] = c.labels[r]
		}
	}
	return out
}
