package regmap

import "sort"

// Set is a set of entity ids. A nil Set is empty and safe to read.
type Set map[string]struct{}

func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s Set) Add(id string) {
	s[id] = struct{}{}
}

func (s Set) Len() int { return len(s) }

func (s Set) Clone() Set {
	out := make(Set, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Toggle flips id between collapsed and expanded and returns the new set.
// expanded itself is left untouched.
func Toggle(expanded Set, id string) Set {
	next := expanded.Clone()
	if next.Has(id) {
		delete(next, id)
	} else {
		next.Add(id)
	}
	return next
}
