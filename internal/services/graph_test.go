package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mizanhq/mizan-backend/internal/data/repos/testutil"
	pkgerrors "github.com/mizanhq/mizan-backend/internal/pkg/errors"
	"github.com/mizanhq/mizan-backend/internal/regmap"
)

// fakeSnapshotCache mimics the versioned Redis cache. The optional gates hold
// Get or Set until closed and the entered channels report that a call is
// waiting on its gate.
type fakeSnapshotCache struct {
	mu       sync.Mutex
	data     []byte
	version  int64
	gets     int
	sets     int
	rejected int
	deletes  int
	getErr   error

	getGate    chan struct{}
	getEntered chan struct{}
	setGate    chan struct{}
	setEntered chan struct{}
}

func signal(ch chan struct{}) {
	if ch == nil {
		return
	}
	select {
	case ch <- struct{}{}:
	default:
	}
}

func wait(gate chan struct{}) {
	if gate != nil {
		<-gate
	}
}

func (f *fakeSnapshotCache) Version(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.version, nil
}

func (f *fakeSnapshotCache) Get(ctx context.Context) ([]byte, bool, error) {
	f.mu.Lock()
	f.gets++
	f.mu.Unlock()
	signal(f.getEntered)
	wait(f.getGate)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	return f.data, f.data != nil, nil
}

func (f *fakeSnapshotCache) Set(ctx context.Context, version int64, data []byte, ttl time.Duration) (bool, error) {
	signal(f.setEntered)
	wait(f.setGate)

	f.mu.Lock()
	defer f.mu.Unlock()
	if version != f.version {
		f.rejected++
		return false, nil
	}
	f.data = data
	f.sets++
	return true, nil
}

func (f *fakeSnapshotCache) Delete(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = nil
	f.version++
	f.deletes++
	return nil
}

func (f *fakeSnapshotCache) counts() (gets, sets, rejected int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets, f.sets, f.rejected
}

type fakeProjector struct {
	mu    sync.Mutex
	runs  int
	nodes int
	err   error

	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeProjector) Project(ctx context.Context, nodes []regmap.Node, edges []regmap.Edge) error {
	signal(f.entered)
	wait(f.gate)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs++
	f.nodes = len(nodes)
	return f.err
}

func (f *fakeProjector) result() (runs, nodes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runs, f.nodes
}

// buildGraph creates F1 -> {C1, A1 -> P1} and a second framework F2 with a
// cross reference C1 -maps_to-> F2's control.
func buildGraph(t *testing.T, h *harness) map[string]string {
	t.Helper()
	f1 := createFramework(t, h, "F1")
	f2 := createFramework(t, h, "F2")
	c1, err := h.controlSvc.Create(h.ctx, ControlInput{FrameworkID: f1.ID.String(), Code: "C1", Name: "Access control", Priority: "critical"})
	require.NoError(t, err)
	a1, err := h.articleSvc.Create(h.ctx, ArticleInput{FrameworkID: f1.ID.String(), Code: "A1", Title: "Consent"})
	require.NoError(t, err)
	p1, err := h.provisionSvc.Create(h.ctx, ProvisionInput{ArticleID: a1.ID.String(), Code: "P1", Name: "Withdrawal"})
	require.NoError(t, err)
	c2, err := h.controlSvc.Create(h.ctx, ControlInput{FrameworkID: f2.ID.String(), Code: "C2", Name: "Access review", Priority: "low"})
	require.NoError(t, err)
	_, err = h.edgeSvc.Create(h.ctx, EdgeInput{FromID: c1.ID.String(), ToID: c2.ID.String(), Relation: "maps_to"})
	require.NoError(t, err)
	return map[string]string{
		"F1": f1.ID.String(), "F2": f2.ID.String(),
		"C1": c1.ID.String(), "A1": a1.ID.String(), "P1": p1.ID.String(), "C2": c2.ID.String(),
	}
}

func visibleIDs(v *regmap.View) map[string]bool {
	out := map[string]bool{}
	for _, n := range v.Nodes {
		out[n.ID] = true
	}
	return out
}

func TestGraphViewExpandsStepByStep(t *testing.T) {
	h := newHarness(t)
	ids := buildGraph(t, h)

	v, err := h.graph.View(h.ctx, ViewRequest{})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{ids["F1"]: true, ids["F2"]: true}, visibleIDs(v))
	assert.Empty(t, v.Edges)

	v, err = h.graph.View(h.ctx, ViewRequest{Toggle: ids["F1"]})
	require.NoError(t, err)
	assert.Equal(t, []string{ids["F1"]}, v.Expanded)
	got := visibleIDs(v)
	assert.True(t, got[ids["C1"]])
	assert.True(t, got[ids["A1"]])
	assert.False(t, got[ids["P1"]])

	v, err = h.graph.View(h.ctx, ViewRequest{Expanded: []string{ids["F1"], ids["C1"]}})
	require.NoError(t, err)
	assert.True(t, visibleIDs(v)[ids["C2"]], "cross reference target revealed")

	// Toggling an expanded node collapses it.
	v, err = h.graph.View(h.ctx, ViewRequest{Expanded: []string{ids["F1"]}, Toggle: ids["F1"]})
	require.NoError(t, err)
	assert.Len(t, v.Nodes, 2)
}

func TestGraphViewScopesToFramework(t *testing.T) {
	h := newHarness(t)
	ids := buildGraph(t, h)

	v, err := h.graph.View(h.ctx, ViewRequest{FrameworkID: ids["F2"], Expanded: []string{ids["F1"], ids["F2"]}})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{ids["F2"]: true, ids["C2"]: true}, visibleIDs(v))

	_, err = h.graph.View(h.ctx, ViewRequest{FrameworkID: ids["C1"]})
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

func TestGraphViewInputHandling(t *testing.T) {
	h := newHarness(t)
	ids := buildGraph(t, h)

	v, err := h.graph.View(h.ctx, ViewRequest{Expanded: []string{"gone", " " + ids["F1"] + " "}})
	require.NoError(t, err)
	assert.Equal(t, []string{ids["F1"]}, v.Expanded)

	_, err = h.graph.View(h.ctx, ViewRequest{Toggle: "missing"})
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)

	_, err = h.graph.View(h.ctx, ViewRequest{Expanded: make([]string, maxExpandedIDs+1)})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidArgument)
}

func TestGraphSnapshotCachedUntilInvalidated(t *testing.T) {
	h := newHarness(t)
	buildGraph(t, h)

	first := h.snapshot(t)
	assert.Same(t, first, h.snapshot(t))
	assert.Len(t, first.Nodes, 6)
	assert.Equal(t, 4, countRelation(first.Edges, regmap.RelContains))

	h.graph.Invalidate(h.ctx)
	assert.NotSame(t, first, h.snapshot(t))
}

func TestGraphSnapshotTTL(t *testing.T) {
	h := newHarness(t)
	gs := NewGraphService(h.log, GraphServiceDeps{
		Frameworks: h.frameworks,
		Controls:   h.controls,
		Articles:   h.articles,
		Provisions: h.provisions,
		Edges:      h.edges,
		TTL:        time.Minute,
	}).(*graphService)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	gs.now = func() time.Time { return now }

	first, err := gs.Snapshot(h.ctx)
	require.NoError(t, err)
	now = now.Add(30 * time.Second)
	second, err := gs.Snapshot(h.ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)

	now = now.Add(time.Minute)
	third, err := gs.Snapshot(h.ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}

func TestGraphSnapshotUsesSharedCache(t *testing.T) {
	cached := NewSnapshot([]regmap.Node{{ID: "F", Kind: regmap.KindFramework, Code: "F"}}, nil, time.Now().UTC())
	raw, err := json.Marshal(cached)
	require.NoError(t, err)
	cache := &fakeSnapshotCache{data: raw}

	// No repos: a cache hit must not touch the database.
	gs := NewGraphService(testutil.Logger(t), GraphServiceDeps{Cache: cache})
	snap, err := gs.Snapshot(context.Background())
	require.NoError(t, err)
	_, ok := snap.Node("F")
	assert.True(t, ok)
	assert.False(t, snap.Index().HasChildren("F"))

	gs.Invalidate(context.Background())
	assert.Equal(t, 1, cache.deletes)
}

func TestGraphSnapshotFillsSharedCacheOnMiss(t *testing.T) {
	h := newHarness(t)
	buildGraph(t, h)
	cache := &fakeSnapshotCache{getErr: errors.New("redis down")}
	gs := NewGraphService(h.log, GraphServiceDeps{
		Frameworks: h.frameworks,
		Controls:   h.controls,
		Articles:   h.articles,
		Provisions: h.provisions,
		Edges:      h.edges,
		Cache:      cache,
	})

	snap, err := gs.Snapshot(h.ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Nodes, 6)
	assert.Equal(t, 1, cache.sets)

	decoded, err := decodeSnapshot(cache.data)
	require.NoError(t, err)
	assert.Len(t, decoded.Edges, len(snap.Edges))
}

func TestGraphInvalidateProjects(t *testing.T) {
	h := newHarness(t)
	buildGraph(t, h)
	proj := &fakeProjector{}
	gs := NewGraphService(h.log, GraphServiceDeps{
		Frameworks: h.frameworks,
		Controls:   h.controls,
		Articles:   h.articles,
		Provisions: h.provisions,
		Edges:      h.edges,
		Projector:  proj,
	}).(*graphService)

	gs.Invalidate(h.ctx)
	require.NoError(t, gs.Drain(h.ctx))
	runs, nodes := proj.result()
	assert.Equal(t, 1, runs)
	assert.Equal(t, 6, nodes)

	proj.err = errors.New("neo4j unavailable")
	assert.Error(t, gs.Project(h.ctx))
}

func TestGraphNeighbors(t *testing.T) {
	h := newHarness(t)
	ids := buildGraph(t, h)

	nb, err := h.graph.Neighbors(h.ctx, ids["C1"])
	require.NoError(t, err)
	assert.Equal(t, "C1", nb.Node.Code)
	require.Len(t, nb.Outgoing, 1)
	assert.Equal(t, ids["C2"], nb.Outgoing[0].To)
	require.Len(t, nb.Incoming, 1)
	assert.Equal(t, ids["F1"], nb.Incoming[0].From)
	assert.Len(t, nb.Related, 2)

	_, err = h.graph.Neighbors(h.ctx, "missing")
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

func TestGraphSearchRanking(t *testing.T) {
	h := newHarness(t)
	buildGraph(t, h)

	hits, err := h.graph.Search(h.ctx, "c1", nil, 0)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "C1", hits[0].Code)

	hits, err = h.graph.Search(h.ctx, "access", nil, 0)
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	hits, err = h.graph.Search(h.ctx, "access", []regmap.Kind{regmap.KindArticle}, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = h.graph.Search(h.ctx, "a", nil, 1)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	_, err = h.graph.Search(h.ctx, "  ", nil, 0)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidArgument)
}
