package regmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func edge(from, to string) Edge {
	return Edge{From: from, To: to, Relation: RelContains}
}

func TestVisibleScenarios(t *testing.T) {
	t.Run("collapsed framework shows only itself", func(t *testing.T) {
		idx := BuildIndex([]Edge{edge("F1", "C1")})
		got := Visible([]string{"F1"}, idx, NewSet())
		assert.Equal(t, []string{"F1"}, got.Sorted())
	})

	t.Run("expanded framework reveals its control", func(t *testing.T) {
		idx := BuildIndex([]Edge{edge("F1", "C1")})
		got := Visible([]string{"F1"}, idx, NewSet("F1"))
		assert.Equal(t, []string{"C1", "F1"}, got.Sorted())
	})

	t.Run("expanding two levels reveals grandchildren", func(t *testing.T) {
		idx := BuildIndex([]Edge{edge("F1", "C1"), edge("C1", "A1")})
		got := Visible([]string{"F1"}, idx, NewSet("F1", "C1"))
		assert.Equal(t, []string{"A1", "C1", "F1"}, got.Sorted())
	})

	t.Run("unexpanded child keeps grandchildren hidden", func(t *testing.T) {
		idx := BuildIndex([]Edge{edge("F1", "C1"), edge("C1", "A1")})
		got := Visible([]string{"F1"}, idx, NewSet("F1"))
		assert.Equal(t, []string{"C1", "F1"}, got.Sorted())
	})
}

func TestVisibleRootsAlwaysIncluded(t *testing.T) {
	idx := BuildIndex([]Edge{edge("F1", "C1"), edge("F2", "C2"), edge("C1", "F2")})
	roots := []string{"F1", "F2", "F3"}
	for _, expanded := range []Set{nil, NewSet(), NewSet("F1"), NewSet("C1", "C2"), NewSet("F1", "F2", "F3", "C1")} {
		got := Visible(roots, idx, expanded)
		for _, r := range roots {
			assert.True(t, got.Has(r), "root %s missing for expanded=%v", r, expanded.Sorted())
		}
	}
}

func TestVisibleNonExpandedNodeRevealsNothing(t *testing.T) {
	idx := BuildIndex([]Edge{edge("F1", "C1"), edge("C1", "P1"), edge("C1", "P2")})
	got := Visible([]string{"F1"}, idx, NewSet("F1", "P1"))
	assert.True(t, got.Has("C1"))
	assert.False(t, got.Has("P1"), "C1 is collapsed so P1 must stay hidden even though P1 is expanded")
	assert.False(t, got.Has("P2"))
}

func TestVisibleExpandedNodeRevealsAllTargets(t *testing.T) {
	edges := []Edge{edge("F1", "C1"), edge("F1", "C2"), edge("F1", "A1"), edge("A1", "P1"), edge("A1", "P2")}
	idx := BuildIndex(edges)
	expanded := NewSet("F1", "A1")
	got := Visible([]string{"F1"}, idx, expanded)
	for id := range expanded {
		if !got.Has(id) {
			continue
		}
		for _, e := range idx.Outgoing(id) {
			assert.True(t, got.Has(e.To), "%s is expanded but target %s is hidden", id, e.To)
		}
	}
	assert.Equal(t, 6, got.Len())
}

func TestVisibleIsIdempotent(t *testing.T) {
	idx := BuildIndex([]Edge{edge("F1", "C1"), edge("C1", "A1"), edge("A1", "P1"), edge("F2", "A1")})
	expanded := NewSet("F1", "C1", "F2")
	first := Visible([]string{"F1", "F2"}, idx, expanded)
	second := Visible([]string{"F1", "F2"}, idx, expanded)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"F1", "F2"}, NewSet("F2", "F1").Sorted())
}

func TestVisibleTerminatesOnCycles(t *testing.T) {
	idx := BuildIndex([]Edge{edge("F1", "A"), edge("A", "B"), edge("B", "A"), edge("B", "F1")})
	got := Visible([]string{"F1"}, idx, NewSet("F1", "A", "B"))
	assert.Equal(t, []string{"A", "B", "F1"}, got.Sorted())
}

func TestVisibleSelfLoop(t *testing.T) {
	idx := BuildIndex([]Edge{edge("F1", "F1"), edge("F1", "C1")})
	got := Visible([]string{"F1"}, idx, NewSet("F1"))
	assert.Equal(t, []string{"C1", "F1"}, got.Sorted())
}

func TestVisibleToleratesDanglingTargets(t *testing.T) {
	idx := BuildIndex([]Edge{edge("F1", "ghost"), edge("ghost", "C1")})
	got := Visible([]string{"F1"}, idx, NewSet("F1"))
	assert.True(t, got.Has("ghost"))
	assert.False(t, got.Has("C1"))
}

func TestExpandLevels(t *testing.T) {
	idx := BuildIndex([]Edge{
		edge("F1", "C1"),
		edge("F1", "A1"),
		edge("A1", "P1"),
		edge("F2", "P1"),
	})
	rev := Expand([]string{"F1", "F2"}, idx, NewSet("F1", "A1", "F2"))

	require.Equal(t, 5, rev.Visible.Len())
	assert.Equal(t, 0, rev.Level["F1"])
	assert.Equal(t, 0, rev.Level["F2"])
	assert.Equal(t, 1, rev.Level["C1"])
	assert.Equal(t, 1, rev.Level["A1"])
	assert.Equal(t, 1, rev.Level["P1"], "P1 is first reached from F2 at one hop")
}
