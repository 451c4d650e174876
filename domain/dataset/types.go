// Package dataset holds the in-memory table the cleaning and analysis
// stages pass between each other.
//
// A Dataset is never modified after construction. Every transforming
// operation returns a new Dataset; unchanged columns are shared between the
// old and the new value, changed columns are rebuilt.
package dataset

import "strings"

// Kind is the semantic type of a column
type Kind int

const (
	Categorical Kind = iota
	Numeric
)

// String returns the lower-case kind name
func (k Kind) String() string {
	switch k {
	case Categorical:
		return "categorical"
	case Numeric:
		return "numeric"
	default:
		return "unknown"
	}
}

// RecordID identifies a record across every dataset derived from the one it
// was created in. Filtering keeps IDs; positions shift.
type RecordID int

// Field describes one column of the schema
type Field struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// MissingLabel is the group level used for records whose categorical value
// is missing.
const MissingLabel = "NA"

// GroupKey is the ordered tuple of categorical values that identifies a group
type GroupKey []string

// String joins the key parts with "/"
func (k GroupKey) String() string {
	return strings.Join(k, "/")
}

// Labeled reports whether no part of the key is MissingLabel
func (k GroupKey) Labeled() bool {
	for _, part := range k {
		if part == MissingLabel {
			return false
		}
	}
	return true
}

// Equal reports whether both keys hold the same values in the same order
func (k GroupKey) Equal(other GroupKey) bool {
	if len(k) != len(other) {
		return false
	}
	for i := range k {
		if k[i] != other[i] {
			return false
		}
	}
	return true
}

// Less orders keys lexicographically, part by part
func (k GroupKey) Less(other GroupKey) bool {
	for i := 0; i < len(k) && i < len(other); i++ {
		if k[i] != other[i] {
			return k[i] < other[i]
		}
	}
	return len(k) < len(other)
}
