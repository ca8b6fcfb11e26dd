package regmap

// Reveal is the outcome of one visibility pass.
type Reveal struct {
	Visible Set
	// Level is the hop count from the nearest root at which a node was first
	// revealed. Roots are level 0.
	Level map[string]int
}

// Visible computes the ids to render for the given roots and expanded set.
func Visible(roots []string, idx Index, expanded Set) Set {
	return Expand(roots, idx, expanded).Visible
}

// Expand runs the bounded breadth-first reveal. Every root is visible. A
// node's edge targets are revealed only when the node is expanded, and a
// revealed target is traversed further only when it is expanded too.
func Expand(roots []string, idx Index, expanded Set) Reveal {
	r := Reveal{
		Visible: make(Set, len(roots)),
		Level:   make(map[string]int, len(roots)),
	}
	queued := make(Set)
	queue := make([]string, 0)

	reveal := func(id string, level int) {
		if r.Visible.Has(id) {
			return
		}
		r.Visible.Add(id)
		r.Level[id] = level
	}
	enqueue := func(id string) {
		if !expanded.Has(id) || queued.Has(id) {
			return
		}
		queued.Add(id)
		queue = append(queue, id)
	}

	for _, id := range roots {
		reveal(id, 0)
		enqueue(id)
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		next := r.Level[id] + 1
		for _, e := range idx.Outgoing(id) {
			reveal(e.To, next)
			enqueue(e.To)
		}
	}
	return r
}
