package importmodel

import (
	"maps"
	"slices"
)

// NameSet is an unordered set of import names.
type NameSet map[string]struct{}

// NewNameSet returns a set holding names.
func NewNameSet(names ...string) NameSet {
	set := make(NameSet, len(names))
	set.Add(names...)

	return set
}

// Add inserts names into the set. Empty names are ignored.
func (s NameSet) Add(names ...string) {
	for _, name := range names {
		if name == "" {
			continue
		}

		s[name] = struct{}{}
	}
}

// Union adds every member of other to s.
func (s NameSet) Union(other NameSet) {
	for name := range other {
		s[name] = struct{}{}
	}
}

// Has reports whether name is a member of the set.
func (s NameSet) Has(name string) bool {
	_, ok := s[name]

	return ok
}

// Len returns the number of members.
func (s NameSet) Len() int {
	return len(s)
}

// Sorted returns the members in ascending order.
func (s NameSet) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}
