package regmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{
		"framework":  KindFramework,
		"Controls":   KindControl,
		" article ":  KindArticle,
		"PROVISIONS": KindProvision,
	}
	for raw, want := range cases {
		got, ok := ParseKind(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}
	_, ok := ParseKind("policy")
	assert.False(t, ok)
}

func TestRelationValid(t *testing.T) {
	for _, r := range Relations {
		assert.True(t, r.Valid(), r)
	}
	assert.False(t, Relation("supersedes").Valid())
}

func TestRoots(t *testing.T) {
	nodes := []Node{
		{ID: "C1", Kind: KindControl},
		{ID: "F2", Kind: KindFramework},
		{ID: "F1", Kind: KindFramework},
	}
	assert.Equal(t, []string{"F2", "F1"}, Roots(nodes))
	assert.Empty(t, Roots(nil))
}

func TestToggle(t *testing.T) {
	start := NewSet("F1")

	expanded := Toggle(start, "C1")
	assert.True(t, expanded.Has("C1"))
	assert.False(t, start.Has("C1"), "input set must not be mutated")

	collapsed := Toggle(expanded, "C1")
	assert.False(t, collapsed.Has("C1"))
	assert.True(t, collapsed.Has("F1"))

	fromNil := Toggle(nil, "F1")
	assert.Equal(t, []string{"F1"}, fromNil.Sorted())
}
