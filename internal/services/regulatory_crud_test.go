package services

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mizanhq/mizan-backend/internal/data/repos"
	types "github.com/mizanhq/mizan-backend/internal/domain"
	"github.com/mizanhq/mizan-backend/internal/pkg/dbctx"
	pkgerrors "github.com/mizanhq/mizan-backend/internal/pkg/errors"
	"github.com/mizanhq/mizan-backend/internal/regmap"
)

func createFramework(t *testing.T, h *harness, code string) *types.Framework {
	t.Helper()
	f, err := h.frameworkSvc.Create(h.ctx, FrameworkInput{Code: code, Name: code + " law", Category: "Privacy"})
	require.NoError(t, err)
	return f
}

func TestFrameworkCreateAndGet(t *testing.T) {
	h := newHarness(t)

	f, err := h.frameworkSvc.Create(h.ctx, FrameworkInput{
		Code:     "  PDPL ",
		Name:     "Personal Data Protection Law",
		Category: "Privacy",
		Metadata: json.RawMessage(`{"jurisdiction":"SA"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "PDPL", f.Code)
	assert.Equal(t, "privacy", f.Category)
	assert.JSONEq(t, `{"jurisdiction":"SA"}`, string(f.Metadata))
	assert.Equal(t, 1, h.graph.invalidations())

	got, err := h.frameworkSvc.Get(h.ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, f.ID, got.ID)

	_, err = h.frameworkSvc.Get(h.ctx, uuid.New())
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

func TestFrameworkCreateRejectsInvalidInput(t *testing.T) {
	h := newHarness(t)

	_, err := h.frameworkSvc.Create(h.ctx, FrameworkInput{Code: "X"})
	require.ErrorIs(t, err, pkgerrors.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "name is required")

	_, err = h.frameworkSvc.Create(h.ctx, FrameworkInput{Code: "X", Name: "x", Metadata: json.RawMessage(`{bad`)})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidArgument)
	assert.Equal(t, 0, h.graph.invalidations())
}

func TestFrameworkDuplicateCodeConflicts(t *testing.T) {
	h := newHarness(t)
	createFramework(t, h, "ECC")

	_, err := h.frameworkSvc.Create(h.ctx, FrameworkInput{Code: "ECC", Name: "again"})
	assert.ErrorIs(t, err, pkgerrors.ErrConflict)
}

func TestFrameworkUpdateReplacesFields(t *testing.T) {
	h := newHarness(t)
	f := createFramework(t, h, "SAMA")

	updated, err := h.frameworkSvc.Update(h.ctx, f.ID, FrameworkInput{Code: "SAMA-CSF", Name: "Cyber Security Framework", Version: "1.0"})
	require.NoError(t, err)
	assert.Equal(t, "SAMA-CSF", updated.Code)
	assert.Equal(t, "1.0", updated.Version)
	assert.Equal(t, "", updated.Category)

	_, err = h.frameworkSvc.Update(h.ctx, uuid.New(), FrameworkInput{Code: "Z", Name: "z"})
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

func TestFrameworkDeleteCascades(t *testing.T) {
	h := newHarness(t)
	keep := createFramework(t, h, "KEEP")
	f := createFramework(t, h, "GONE")

	c, err := h.controlSvc.Create(h.ctx, ControlInput{FrameworkID: f.ID.String(), Code: "1", Name: "c"})
	require.NoError(t, err)
	a, err := h.articleSvc.Create(h.ctx, ArticleInput{FrameworkID: f.ID.String(), Code: "4", Title: "a"})
	require.NoError(t, err)
	_, err = h.provisionSvc.Create(h.ctx, ProvisionInput{ArticleID: a.ID.String(), Code: "a", Name: "p"})
	require.NoError(t, err)
	kc, err := h.controlSvc.Create(h.ctx, ControlInput{FrameworkID: keep.ID.String(), Code: "1", Name: "kept"})
	require.NoError(t, err)
	_, err = h.edgeSvc.Create(h.ctx, EdgeInput{FromID: kc.ID.String(), ToID: c.ID.String(), Relation: "maps_to"})
	require.NoError(t, err)

	require.NoError(t, h.frameworkSvc.Delete(h.ctx, f.ID))

	snap := h.snapshot(t)
	assert.Len(t, snap.Nodes, 2)
	assert.Len(t, snap.Edges, 1)
	assert.Equal(t, regmap.RelContains, snap.Edges[0].Relation)
	_, ok := snap.Node(keep.ID.String())
	assert.True(t, ok)

	assert.ErrorIs(t, h.frameworkSvc.Delete(h.ctx, f.ID), pkgerrors.ErrNotFound)
}

func TestFrameworkListChildren(t *testing.T) {
	h := newHarness(t)
	f := createFramework(t, h, "PDPL")
	for _, code := range []string{"2", "1"} {
		_, err := h.controlSvc.Create(h.ctx, ControlInput{FrameworkID: f.ID.String(), Code: code, Name: "c" + code})
		require.NoError(t, err)
	}
	_, err := h.articleSvc.Create(h.ctx, ArticleInput{FrameworkID: f.ID.String(), Code: "1", Title: "t"})
	require.NoError(t, err)

	controls, err := h.frameworkSvc.ListControls(h.ctx, f.ID)
	require.NoError(t, err)
	require.Len(t, controls, 2)
	assert.Equal(t, "1", controls[0].Code)

	articles, err := h.frameworkSvc.ListArticles(h.ctx, f.ID)
	require.NoError(t, err)
	assert.Len(t, articles, 1)

	_, err = h.frameworkSvc.ListControls(h.ctx, uuid.New())
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

func TestControlCreateRequiresExistingFramework(t *testing.T) {
	h := newHarness(t)

	_, err := h.controlSvc.Create(h.ctx, ControlInput{FrameworkID: uuid.NewString(), Code: "1", Name: "c"})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidArgument)

	_, err = h.controlSvc.Create(h.ctx, ControlInput{FrameworkID: "nope", Code: "1", Name: "c"})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidArgument)
}

func TestControlCreateNormalisesPriorityAndLinksParent(t *testing.T) {
	h := newHarness(t)
	f := createFramework(t, h, "ECC")

	c, err := h.controlSvc.Create(h.ctx, ControlInput{FrameworkID: f.ID.String(), Code: "1-1", Name: "c", Priority: " HIGH "})
	require.NoError(t, err)
	assert.Equal(t, types.Priority("high"), c.Priority)

	d, err := h.controlSvc.Create(h.ctx, ControlInput{FrameworkID: f.ID.String(), Code: "1-2", Name: "d"})
	require.NoError(t, err)
	assert.Equal(t, types.Priority("medium"), d.Priority)

	_, err = h.controlSvc.Create(h.ctx, ControlInput{FrameworkID: f.ID.String(), Code: "1-3", Name: "e", Priority: "urgent"})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidArgument)

	ok, err := h.edges.Exists(dbctx.Context{Ctx: h.ctx}, f.ID, c.ID, regmap.RelContains)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = h.controlSvc.Create(h.ctx, ControlInput{FrameworkID: f.ID.String(), Code: "1-1", Name: "dup"})
	assert.ErrorIs(t, err, pkgerrors.ErrConflict)
}

func TestControlUpdateMovesStructuralEdge(t *testing.T) {
	h := newHarness(t)
	from := createFramework(t, h, "A")
	to := createFramework(t, h, "B")
	c, err := h.controlSvc.Create(h.ctx, ControlInput{FrameworkID: from.ID.String(), Code: "1", Name: "c"})
	require.NoError(t, err)

	moved, err := h.controlSvc.Update(h.ctx, c.ID, ControlInput{FrameworkID: to.ID.String(), Code: "1", Name: "moved", Priority: "critical"})
	require.NoError(t, err)
	assert.Equal(t, to.ID, moved.FrameworkID)

	dbc := dbctx.Context{Ctx: h.ctx}
	old, err := h.edges.Exists(dbc, from.ID, c.ID, regmap.RelContains)
	require.NoError(t, err)
	assert.False(t, old)
	now, err := h.edges.Exists(dbc, to.ID, c.ID, regmap.RelContains)
	require.NoError(t, err)
	assert.True(t, now)

	_, err = h.controlSvc.Update(h.ctx, c.ID, ControlInput{FrameworkID: uuid.NewString(), Code: "1", Name: "x"})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidArgument)
}

func TestControlDeleteRemovesTouchingEdges(t *testing.T) {
	h := newHarness(t)
	f := createFramework(t, h, "ECC")
	c, err := h.controlSvc.Create(h.ctx, ControlInput{FrameworkID: f.ID.String(), Code: "1", Name: "c"})
	require.NoError(t, err)

	require.NoError(t, h.controlSvc.Delete(h.ctx, c.ID))
	edges, err := h.edges.List(dbctx.Context{Ctx: h.ctx}, repos.EdgeFilter{})
	require.NoError(t, err)
	assert.Empty(t, edges)

	_, err = h.controlSvc.Get(h.ctx, c.ID)
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

func TestArticleDeleteCascadesProvisions(t *testing.T) {
	h := newHarness(t)
	f := createFramework(t, h, "PDPL")
	a, err := h.articleSvc.Create(h.ctx, ArticleInput{FrameworkID: f.ID.String(), Code: "4", Title: "Rights"})
	require.NoError(t, err)
	for _, code := range []string{"a", "b"} {
		_, err := h.provisionSvc.Create(h.ctx, ProvisionInput{ArticleID: a.ID.String(), Code: code, Name: code})
		require.NoError(t, err)
	}
	ps, err := h.articleSvc.ListProvisions(h.ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, ps, 2)

	require.NoError(t, h.articleSvc.Delete(h.ctx, a.ID))

	snap := h.snapshot(t)
	assert.Len(t, snap.Nodes, 1)
	assert.Empty(t, snap.Edges)
}

func TestProvisionCreateRequiresArticle(t *testing.T) {
	h := newHarness(t)
	f := createFramework(t, h, "PDPL")

	_, err := h.provisionSvc.Create(h.ctx, ProvisionInput{ArticleID: f.ID.String(), Code: "a", Name: "p"})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidArgument)
}

func TestProvisionUpdateMovesBetweenArticles(t *testing.T) {
	h := newHarness(t)
	f := createFramework(t, h, "PDPL")
	a1, err := h.articleSvc.Create(h.ctx, ArticleInput{FrameworkID: f.ID.String(), Code: "1", Title: "one"})
	require.NoError(t, err)
	a2, err := h.articleSvc.Create(h.ctx, ArticleInput{FrameworkID: f.ID.String(), Code: "2", Title: "two"})
	require.NoError(t, err)
	p, err := h.provisionSvc.Create(h.ctx, ProvisionInput{ArticleID: a1.ID.String(), Code: "a", Name: "p"})
	require.NoError(t, err)

	_, err = h.provisionSvc.Update(h.ctx, p.ID, ProvisionInput{ArticleID: a2.ID.String(), Code: "a", Name: "p", Text: "moved"})
	require.NoError(t, err)

	snap := h.snapshot(t)
	out := snap.Index().Outgoing(a2.ID.String())
	require.Len(t, out, 1)
	assert.Equal(t, p.ID.String(), out[0].To)
	assert.Empty(t, snap.Index().Outgoing(a1.ID.String()))

	require.NoError(t, h.provisionSvc.Delete(h.ctx, p.ID))
	_, err = h.provisionSvc.Get(h.ctx, p.ID)
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}
