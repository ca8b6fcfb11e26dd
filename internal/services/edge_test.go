package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/mizanhq/mizan-backend/internal/pkg/errors"
	"github.com/mizanhq/mizan-backend/internal/regmap"
)

func TestEdgeCreateRecordsEndpointKinds(t *testing.T) {
	h := newHarness(t)
	f := createFramework(t, h, "ECC")
	c, err := h.controlSvc.Create(h.ctx, ControlInput{FrameworkID: f.ID.String(), Code: "1", Name: "c"})
	require.NoError(t, err)
	p := createFramework(t, h, "PDPL")
	a, err := h.articleSvc.Create(h.ctx, ArticleInput{FrameworkID: p.ID.String(), Code: "4", Title: "a"})
	require.NoError(t, err)

	e, err := h.edgeSvc.Create(h.ctx, EdgeInput{FromID: c.ID.String(), ToID: a.ID.String(), Relation: " Implements ", Note: "maps consent"})
	require.NoError(t, err)
	assert.Equal(t, regmap.KindControl, e.FromKind)
	assert.Equal(t, regmap.KindArticle, e.ToKind)
	assert.Equal(t, regmap.RelImplements, e.Relation)

	_, err = h.edgeSvc.Create(h.ctx, EdgeInput{FromID: c.ID.String(), ToID: a.ID.String(), Relation: "implements"})
	assert.ErrorIs(t, err, pkgerrors.ErrConflict)

	// Same pair, different relation, is a distinct edge.
	_, err = h.edgeSvc.Create(h.ctx, EdgeInput{FromID: c.ID.String(), ToID: a.ID.String(), Relation: "cites"})
	assert.NoError(t, err)
}

func TestEdgeCreateRejects(t *testing.T) {
	h := newHarness(t)
	f := createFramework(t, h, "ECC")
	c, err := h.controlSvc.Create(h.ctx, ControlInput{FrameworkID: f.ID.String(), Code: "1", Name: "c"})
	require.NoError(t, err)

	cases := []struct {
		name string
		in   EdgeInput
		want error
	}{
		{"contains", EdgeInput{FromID: f.ID.String(), ToID: c.ID.String(), Relation: "contains"}, pkgerrors.ErrInvalidArgument},
		{"unknown relation", EdgeInput{FromID: f.ID.String(), ToID: c.ID.String(), Relation: "depends"}, pkgerrors.ErrInvalidArgument},
		{"self loop", EdgeInput{FromID: c.ID.String(), ToID: c.ID.String(), Relation: "related"}, pkgerrors.ErrInvalidArgument},
		{"bad id", EdgeInput{FromID: "x", ToID: c.ID.String(), Relation: "related"}, pkgerrors.ErrInvalidArgument},
		{"missing endpoint", EdgeInput{FromID: c.ID.String(), ToID: uuid.NewString(), Relation: "related"}, pkgerrors.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.edgeSvc.Create(h.ctx, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestEdgeListFiltersAndDelete(t *testing.T) {
	h := newHarness(t)
	f := createFramework(t, h, "ECC")
	c1, err := h.controlSvc.Create(h.ctx, ControlInput{FrameworkID: f.ID.String(), Code: "1", Name: "c1"})
	require.NoError(t, err)
	c2, err := h.controlSvc.Create(h.ctx, ControlInput{FrameworkID: f.ID.String(), Code: "2", Name: "c2"})
	require.NoError(t, err)
	rel, err := h.edgeSvc.Create(h.ctx, EdgeInput{FromID: c1.ID.String(), ToID: c2.ID.String(), Relation: "related"})
	require.NoError(t, err)

	all, err := h.edgeSvc.List(h.ctx, EdgeListParams{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	fromF, err := h.edgeSvc.List(h.ctx, EdgeListParams{FromID: f.ID.String()})
	require.NoError(t, err)
	assert.Len(t, fromF, 2)

	related, err := h.edgeSvc.List(h.ctx, EdgeListParams{Relation: "RELATED"})
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, rel.ID, related[0].ID)

	limited, err := h.edgeSvc.List(h.ctx, EdgeListParams{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_, err = h.edgeSvc.List(h.ctx, EdgeListParams{Relation: "owns"})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidArgument)
	_, err = h.edgeSvc.List(h.ctx, EdgeListParams{ToID: "zzz"})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidArgument)

	assert.ErrorIs(t, h.edgeSvc.Delete(h.ctx, fromF[0].ID), pkgerrors.ErrInvalidArgument)
	require.NoError(t, h.edgeSvc.Delete(h.ctx, rel.ID))
	assert.ErrorIs(t, h.edgeSvc.Delete(h.ctx, rel.ID), pkgerrors.ErrNotFound)
}
