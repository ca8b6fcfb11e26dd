package regmap

// Index maps an entity id to its edges, in the order the edges were supplied.
type Index map[string][]Edge

// BuildIndex groups edges by source id. Insertion order is preserved and
// duplicates are kept.
func BuildIndex(edges []Edge) Index {
	idx := make(Index)
	for _, e := range edges {
		idx[e.From] = append(idx[e.From], e)
	}
	return idx
}

// BuildReverseIndex groups edges by target id.
func BuildReverseIndex(edges []Edge) Index {
	idx := make(Index)
	for _, e := range edges {
		idx[e.To] = append(idx[e.To], e)
	}
	return idx
}

// Outgoing returns the edges keyed under id. For a reverse index these are
// the incoming edges.
func (idx Index) Outgoing(id string) []Edge {
	return idx[id]
}

func (idx Index) HasChildren(id string) bool {
	return len(idx[id]) > 0
}

// EdgeCount is the total number of indexed edges.
func (idx Index) EdgeCount() int {
	n := 0
	for _, edges := range idx {
		n += len(edges)
	}
	return n
}
