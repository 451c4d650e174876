package dataset

import (
	"sort"
)

// Group is one cell of a partition: its key and the rows that carry it
type Group struct {
	Key  GroupKey
	Rows []int
}

// Size returns the number of rows in the group
func (g Group) Size() int { return len(g.Rows) }

// Partition splits the rows of a dataset by the values of one or more
// categorical columns. Every row belongs to exactly one group; groups are
// ordered lexicographically by key.
type Partition struct {
	By     []string
	Groups []Group
}

// Partition groups rows by the named categorical columns. A missing label
// forms its own level, MissingLabel.
func (d *Dataset) Partition(by ...string) (*Partition, error) {
	cols := make([]*Column, len(by))
	for i, name := range by {
		c, err := d.Categorical(name)
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}

	byKey := make(map[string]*Group)
	for row := 0; row < d.Len(); row++ {
		key := make(GroupKey, len(cols))
		for i, c := range cols {
			key[i] = c.GroupLabel(row)
		}
		id := joinKey(key)
		g, ok := byKey[id]
		if !ok {
			g = &Group{Key: key}
			byKey[id] = g
		}
		g.Rows = append(g.Rows, row)
	}

	groups := make([]Group, 0, len(byKey))
	for _, g := range byKey {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key.Less(groups[j].Key) })

	return &Partition{By: append([]string(nil), by...), Groups: groups}, nil
}

// Lookup returns the group with the given key
func (p *Partition) Lookup(key ...string) (Group, bool) {
	for _, g := range p.Groups {
		if g.Key.Equal(key) {
			return g, true
		}
	}
	return Group{}, false
}

// joinKey NUL-separates the parts for use as a map key
func joinKey(key GroupKey) string {
	n := 0
	for _, part := range key {
		n += len(part) + 1
	}
	b := make([]byte, 0, n)
	for i, part := range key {
		if i > 0 {
			b = append(b, 0)
		}
		b = append(b, part...)
	}
	return string(b)
}
