package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/mizanhq/mizan-backend/internal/data/repos"
	types "github.com/mizanhq/mizan-backend/internal/domain"
	"github.com/mizanhq/mizan-backend/internal/observability"
	"github.com/mizanhq/mizan-backend/internal/pkg/dbctx"
	pkgerrors "github.com/mizanhq/mizan-backend/internal/pkg/errors"
	"github.com/mizanhq/mizan-backend/internal/platform/logger"
	"github.com/mizanhq/mizan-backend/internal/regmap"
)

const (
	maxExpandedIDs      = 10000
	defaultSearchLimit  = 20
	maxSearchLimit      = 200
	projectionTimeout   = 2 * time.Minute
	snapshotLoadTimeout = 30 * time.Second
)

// SnapshotCache is a shared, out-of-process store for encoded snapshots.
// Delete advances the version; Set only stores when version is still current
// and reports whether it did.
type SnapshotCache interface {
	Version(ctx context.Context) (int64, error)
	Get(ctx context.Context) ([]byte, bool, error)
	Set(ctx context.Context, version int64, data []byte, ttl time.Duration) (bool, error)
	Delete(ctx context.Context) error
}

// GraphProjector mirrors a snapshot into an external graph store.
type GraphProjector interface {
	Project(ctx context.Context, nodes []regmap.Node, edges []regmap.Edge) error
}

// GraphInvalidator is the slice of GraphService the write paths depend on.
type GraphInvalidator interface {
	Invalidate(ctx context.Context)
}

// Snapshot is an immutable, fully indexed copy of the regulatory graph.
type Snapshot struct {
	Nodes    []regmap.Node `json:"nodes"`
	Edges    []regmap.Edge `json:"edges"`
	LoadedAt time.Time     `json:"loaded_at"`

	index   regmap.Index
	reverse regmap.Index
	byID    map[string]int
}

func NewSnapshot(nodes []regmap.Node, edges []regmap.Edge, loadedAt time.Time) *Snapshot {
	s := &Snapshot{Nodes: nodes, Edges: edges, LoadedAt: loadedAt}
	s.build()
	return s
}

func (s *Snapshot) build() {
	if s.Nodes == nil {
		s.Nodes = []regmap.Node{}
	}
	if s.Edges == nil {
		s.Edges = []regmap.Edge{}
	}
	s.index = regmap.BuildIndex(s.Edges)
	s.reverse = regmap.BuildReverseIndex(s.Edges)
	s.byID = make(map[string]int, len(s.Nodes))
	for i, n := range s.Nodes {
		s.byID[n.ID] = i
	}
}

func (s *Snapshot) Index() regmap.Index { return s.index }

func (s *Snapshot) Node(id string) (regmap.Node, bool) {
	i, ok := s.byID[id]
	if !ok {
		return regmap.Node{}, false
	}
	return s.Nodes[i], true
}

func decodeSnapshot(raw []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	s.build()
	return &s, nil
}

type ViewRequest struct {
	Expanded    []string `json:"expanded"`
	Toggle      string   `json:"toggle"`
	FrameworkID string   `json:"framework_id"`
}

// Neighborhood is a node with every edge touching it.
type Neighborhood struct {
	Node     regmap.Node   `json:"node"`
	Outgoing []regmap.Edge `json:"outgoing"`
	Incoming []regmap.Edge `json:"incoming"`
	Related  []regmap.Node `json:"related"`
}

type GraphService interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
	View(ctx context.Context, req ViewRequest) (*regmap.View, error)
	Neighbors(ctx context.Context, id string) (*Neighborhood, error)
	Search(ctx context.Context, query string, kinds []regmap.Kind, limit int) ([]regmap.Node, error)
	Invalidate(ctx context.Context)
	Project(ctx context.Context) error
	// Drain waits for background projections and stops new ones from
	// starting. Call it before closing the projector's client.
	Drain(ctx context.Context) error
}

type graphService struct {
	log        *logger.Logger
	frameworks repos.FrameworkRepo
	controls   repos.ControlRepo
	articles   repos.ArticleRepo
	provisions repos.ProvisionRepo
	edges      repos.EdgeRepo
	cache      SnapshotCache
	projector  GraphProjector
	metrics    *observability.Metrics
	ttl        time.Duration
	now        func() time.Time

	mu         sync.RWMutex
	snap       *Snapshot
	expiresAt  time.Time
	generation uint64
	loads      singleflight.Group
	projectMu  sync.Mutex
	bgMu       sync.Mutex
	drained    bool
	projecting sync.WaitGroup
}

type GraphServiceDeps struct {
	Frameworks repos.FrameworkRepo
	Controls   repos.ControlRepo
	Articles   repos.ArticleRepo
	Provisions repos.ProvisionRepo
	Edges      repos.EdgeRepo
	// Cache and Projector are optional.
	Cache     SnapshotCache
	Projector GraphProjector
	Metrics   *observability.Metrics
	// TTL bounds how long a snapshot is served before reloading. Zero means
	// until the next Invalidate.
	TTL time.Duration
}

func NewGraphService(log *logger.Logger, deps GraphServiceDeps) GraphService {
	return &graphService{
		log:        log.With("service", "GraphService"),
		frameworks: deps.Frameworks,
		controls:   deps.Controls,
		articles:   deps.Articles,
		provisions: deps.Provisions,
		edges:      deps.Edges,
		cache:      deps.Cache,
		projector:  deps.Projector,
		metrics:    deps.Metrics,
		ttl:        deps.TTL,
		now:        time.Now,
	}
}

func (gs *graphService) Snapshot(ctx context.Context) (*Snapshot, error) {
	gs.mu.RLock()
	snap, gen := gs.snap, gs.generation
	fresh := snap != nil && (gs.ttl <= 0 || gs.now().Before(gs.expiresAt))
	gs.mu.RUnlock()
	if fresh {
		gs.metrics.IncCacheLookup("memory", true)
		return snap, nil
	}
	gs.metrics.IncCacheLookup("memory", false)

	// The load is shared by every caller waiting on this generation, so it
	// must not die with whichever request happened to start it.
	ch := gs.loads.DoChan(strconv.FormatUint(gen, 10), func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), snapshotLoadTimeout)
		defer cancel()
		return gs.loadShared(lctx, gen)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

func (gs *graphService) currentGeneration() uint64 {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.generation
}

// loadShared consults the shared cache before the database and keeps the
// result in memory unless an Invalidate happened meanwhile.
func (gs *graphService) loadShared(ctx context.Context, gen uint64) (*Snapshot, error) {
	var (
		snap      *Snapshot
		version   int64
		versioned bool
	)
	if gs.cache != nil {
		// The version is read before anything else so a Delete racing this
		// load makes the later Set a no-op.
		if v, err := gs.cache.Version(ctx); err != nil {
			gs.log.Warn("graph snapshot cache version read failed", "error", err)
		} else {
			version, versioned = v, true
		}
		raw, ok, err := gs.cache.Get(ctx)
		if err != nil {
			gs.log.Warn("graph snapshot cache read failed", "error", err)
		}
		gs.metrics.IncCacheLookup("redis", ok)
		if ok {
			if decoded, derr := decodeSnapshot(raw); derr != nil {
				gs.log.Warn("graph snapshot cache entry undecodable", "error", derr)
			} else {
				snap = decoded
			}
		}
	}

	if snap == nil {
		loaded, err := gs.load(ctx)
		if err != nil {
			return nil, err
		}
		snap = loaded
		if versioned && gs.currentGeneration() == gen {
			gs.storeShared(ctx, version, snap)
		}
	}

	gs.mu.Lock()
	if gs.generation == gen {
		gs.snap = snap
		gs.expiresAt = gs.now().Add(gs.ttl)
	}
	gs.mu.Unlock()
	return snap, nil
}

func (gs *graphService) storeShared(ctx context.Context, version int64, snap *Snapshot) {
	raw, err := json.Marshal(snap)
	if err != nil {
		gs.log.Warn("graph snapshot encode failed", "error", err)
		return
	}
	stored, err := gs.cache.Set(ctx, version, raw, gs.ttl)
	if err != nil {
		gs.log.Warn("graph snapshot cache write failed", "error", err)
		return
	}
	if !stored {
		gs.log.Debug("graph snapshot superseded before caching", "version", version)
	}
}

func (gs *graphService) load(ctx context.Context) (*Snapshot, error) {
	ctx, span := observability.Tracer().Start(ctx, "graph.snapshot.load")
	defer span.End()
	start := gs.now()

	var (
		frameworks []*types.Framework
		controls   []*types.Control
		articles   []*types.Article
		provisions []*types.Provision
		edges      []*types.Edge
	)
	g, gctx := errgroup.WithContext(ctx)
	dbc := dbctx.Context{Ctx: gctx}
	g.Go(func() (err error) {
		frameworks, err = gs.frameworks.List(dbc)
		return err
	})
	g.Go(func() (err error) {
		controls, err = gs.controls.List(dbc)
		return err
	})
	g.Go(func() (err error) {
		articles, err = gs.articles.List(dbc)
		return err
	})
	g.Go(func() (err error) {
		provisions, err = gs.provisions.List(dbc)
		return err
	})
	g.Go(func() (err error) {
		edges, err = gs.edges.List(dbc, repos.EdgeFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		gs.metrics.ObserveSnapshotLoad(0, 0, 0, err)
		return nil, fmt.Errorf("load regulatory graph: %w", err)
	}

	nodes := make([]regmap.Node, 0, len(frameworks)+len(controls)+len(articles)+len(provisions))
	for _, f := range frameworks {
		nodes = append(nodes, f.Node())
	}
	for _, c := range controls {
		nodes = append(nodes, c.Node())
	}
	for _, a := range articles {
		nodes = append(nodes, a.Node())
	}
	for _, p := range provisions {
		nodes = append(nodes, p.Node())
	}
	graphEdges := make([]regmap.Edge, 0, len(edges))
	for _, e := range edges {
		graphEdges = append(graphEdges, e.GraphEdge())
	}

	snap := NewSnapshot(nodes, graphEdges, gs.now().UTC())
	dur := gs.now().Sub(start)
	span.SetAttributes(
		attribute.Int("graph.nodes", len(nodes)),
		attribute.Int("graph.edges", len(graphEdges)),
	)
	gs.metrics.ObserveSnapshotLoad(len(nodes), len(graphEdges), dur, nil)
	gs.log.Debug("graph snapshot loaded", "nodes", len(nodes), "edges", len(graphEdges), "duration", dur.String())
	return snap, nil
}

func (gs *graphService) View(ctx context.Context, req ViewRequest) (*regmap.View, error) {
	if len(req.Expanded) > maxExpandedIDs {
		return nil, fmt.Errorf("%w: at most %d expanded ids", pkgerrors.ErrInvalidArgument, maxExpandedIDs)
	}
	snap, err := gs.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	// Unknown ids cannot reveal anything, so they are dropped rather than
	// rejected; clients may hold ids of entities deleted since.
	expanded := regmap.NewSet()
	for _, id := range req.Expanded {
		id = strings.TrimSpace(id)
		if _, ok := snap.Node(id); ok {
			expanded.Add(id)
		}
	}

	if toggle := strings.TrimSpace(req.Toggle); toggle != "" {
		if _, ok := snap.Node(toggle); !ok {
			return nil, fmt.Errorf("node %s: %w", toggle, pkgerrors.ErrNotFound)
		}
		expanded = regmap.Toggle(expanded, toggle)
	}

	opts := regmap.Options{}
	if root := strings.TrimSpace(req.FrameworkID); root != "" {
		n, ok := snap.Node(root)
		if !ok || n.Kind != regmap.KindFramework {
			return nil, fmt.Errorf("framework %s: %w", root, pkgerrors.ErrNotFound)
		}
		opts.RootID = root
	}

	view := regmap.Assemble(snap.Nodes, snap.Index(), expanded, opts)
	gs.metrics.ObserveVisibleNodes(view.Stats.VisibleNodes)
	return view, nil
}

func (gs *graphService) Neighbors(ctx context.Context, id string) (*Neighborhood, error) {
	snap, err := gs.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	node, ok := snap.Node(id)
	if !ok {
		return nil, fmt.Errorf("node %s: %w", id, pkgerrors.ErrNotFound)
	}

	out := &Neighborhood{
		Node:     node,
		Outgoing: append([]regmap.Edge{}, snap.index.Outgoing(id)...),
		Incoming: append([]regmap.Edge{}, snap.reverse.Outgoing(id)...),
		Related:  []regmap.Node{},
	}
	seen := map[string]struct{}{id: {}}
	addRelated := func(other string) {
		if _, dup := seen[other]; dup {
			return
		}
		seen[other] = struct{}{}
		if n, ok := snap.Node(other); ok {
			out.Related = append(out.Related, n)
		}
	}
	for _, e := range out.Outgoing {
		addRelated(e.To)
	}
	for _, e := range out.Incoming {
		addRelated(e.From)
	}
	return out, nil
}

// Search matches query case-insensitively against code and name. Exact code
// matches rank first, then prefix matches, then substring matches; ties keep
// snapshot order.
func (gs *graphService) Search(ctx context.Context, query string, kinds []regmap.Kind, limit int) ([]regmap.Node, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, fmt.Errorf("%w: query is required", pkgerrors.ErrInvalidArgument)
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	snap, err := gs.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	allowed := map[regmap.Kind]bool{}
	for _, k := range kinds {
		allowed[k] = true
	}

	type hit struct {
		node regmap.Node
		rank int
	}
	var hits []hit
	for _, n := range snap.Nodes {
		if len(allowed) > 0 && !allowed[n.Kind] {
			continue
		}
		code := strings.ToLower(n.Code)
		name := strings.ToLower(n.Name)
		switch {
		case code == q:
			hits = append(hits, hit{n, 0})
		case strings.HasPrefix(code, q) || strings.HasPrefix(name, q):
			hits = append(hits, hit{n, 1})
		case strings.Contains(code, q) || strings.Contains(name, q):
			hits = append(hits, hit{n, 2})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].rank < hits[j].rank })

	if len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]regmap.Node, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.node)
	}
	return out, nil
}

// Invalidate drops the in-memory and shared snapshots. When a projector is
// configured a fresh projection is started in the background.
func (gs *graphService) Invalidate(ctx context.Context) {
	gs.mu.Lock()
	gs.snap = nil
	gs.generation++
	gs.mu.Unlock()

	if gs.cache != nil {
		if err := gs.cache.Delete(ctx); err != nil {
			gs.log.Warn("graph snapshot cache delete failed", "error", err)
		}
	}

	if gs.projector != nil {
		gs.bgMu.Lock()
		if gs.drained {
			gs.bgMu.Unlock()
			gs.log.Debug("graph projection skipped, service drained")
			return
		}
		gs.projecting.Add(1)
		gs.bgMu.Unlock()
		go func() {
			defer gs.projecting.Done()
			pctx, cancel := context.WithTimeout(context.Background(), projectionTimeout)
			defer cancel()
			if err := gs.Project(pctx); err != nil {
				gs.log.Warn("graph projection failed", "error", err)
			}
		}()
	}
}

// Project pushes the current snapshot to the projector. Runs are serialised.
func (gs *graphService) Project(ctx context.Context) error {
	if gs.projector == nil {
		return nil
	}
	gs.projectMu.Lock()
	defer gs.projectMu.Unlock()

	snap, err := gs.Snapshot(ctx)
	if err != nil {
		gs.metrics.IncProjection(err)
		return err
	}
	err = gs.projector.Project(ctx, snap.Nodes, snap.Edges)
	gs.metrics.IncProjection(err)
	if err == nil {
		gs.log.Info("graph projected", "nodes", len(snap.Nodes), "edges", len(snap.Edges))
	}
	return err
}

func (gs *graphService) Drain(ctx context.Context) error {
	gs.bgMu.Lock()
	gs.drained = true
	gs.bgMu.Unlock()

	done := make(chan struct{})
	go func() {
		gs.projecting.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain graph projections: %w", ctx.Err())
	}
}
