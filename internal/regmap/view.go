package regmap

// Options narrows an Assemble call.
type Options struct {
	// RootID, when set, seeds the traversal from this single node instead of
	// every framework.
	RootID string
}

type ViewNode struct {
	Node
	Expanded    bool `json:"expanded"`
	HasChildren bool `json:"has_children"`
	Level       int  `json:"level"`
}

type Stats struct {
	TotalNodes    int          `json:"total_nodes"`
	TotalEdges    int          `json:"total_edges"`
	VisibleNodes  int          `json:"visible_nodes"`
	VisibleEdges  int          `json:"visible_edges"`
	VisibleByKind map[Kind]int `json:"visible_by_kind"`
}

// View is the render-ready slice of the graph for one expanded set.
type View struct {
	Nodes    []ViewNode `json:"nodes"`
	Edges    []Edge     `json:"edges"`
	Expanded []string   `json:"expanded"`
	Stats    Stats      `json:"stats"`
}

// Assemble filters nodes and edges down to what is visible under expanded.
// Ids that are revealed but have no entry in nodes are dropped, as are edges
// pointing at them. Node order follows the input slice.
func Assemble(nodes []Node, idx Index, expanded Set, opts Options) *View {
	present := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		present[n.ID] = struct{}{}
	}

	roots := Roots(nodes)
	if opts.RootID != "" {
		roots = nil
		if _, ok := present[opts.RootID]; ok {
			roots = []string{opts.RootID}
		}
	}
	rev := Expand(roots, idx, expanded)

	view := &View{
		Nodes:    make([]ViewNode, 0, rev.Visible.Len()),
		Edges:    make([]Edge, 0),
		Expanded: expanded.Sorted(),
		Stats: Stats{
			TotalNodes:    len(nodes),
			TotalEdges:    idx.EdgeCount(),
			VisibleByKind: map[Kind]int{},
		},
	}

	for _, n := range nodes {
		if !rev.Visible.Has(n.ID) {
			continue
		}
		isExpanded := expanded.Has(n.ID)
		view.Nodes = append(view.Nodes, ViewNode{
			Node:        n,
			Expanded:    isExpanded,
			HasChildren: idx.HasChildren(n.ID),
			Level:       rev.Level[n.ID],
		})
		view.Stats.VisibleByKind[n.Kind]++

		if !isExpanded {
			continue
		}
		for _, e := range idx.Outgoing(n.ID) {
			if _, ok := present[e.To]; !ok {
				continue
			}
			if rev.Visible.Has(e.To) {
				view.Edges = append(view.Edges, e)
			}
		}
	}

	view.Stats.VisibleNodes = len(view.Nodes)
	view.Stats.VisibleEdges = len(view.Edges)
	return view
}
