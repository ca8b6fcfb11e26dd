package services

import (
	"context"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/mizanhq/mizan-backend/internal/data/repos"
	"github.com/mizanhq/mizan-backend/internal/data/repos/testutil"
	"github.com/mizanhq/mizan-backend/internal/platform/logger"
	"github.com/mizanhq/mizan-backend/internal/regmap"
)

// countingGraph records Invalidate calls before delegating.
type countingGraph struct {
	GraphService
	mu    sync.Mutex
	calls int
}

func (c *countingGraph) Invalidate(ctx context.Context) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	c.GraphService.Invalidate(ctx)
}

func (c *countingGraph) invalidations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type harness struct {
	ctx        context.Context
	db         *gorm.DB
	log        *logger.Logger
	frameworks repos.FrameworkRepo
	controls   repos.ControlRepo
	articles   repos.ArticleRepo
	provisions repos.ProvisionRepo
	edges      repos.EdgeRepo
	users      repos.UserRepo
	tokens     repos.UserTokenRepo
	graph      *countingGraph

	frameworkSvc FrameworkService
	controlSvc   ControlService
	articleSvc   ArticleService
	provisionSvc ProvisionService
	edgeSvc      EdgeService
	seedSvc      SeedService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.SQLite(t)
	log := testutil.Logger(t)
	h := &harness{
		ctx:        context.Background(),
		db:         db,
		log:        log,
		frameworks: repos.NewFrameworkRepo(db, log),
		controls:   repos.NewControlRepo(db, log),
		articles:   repos.NewArticleRepo(db, log),
		provisions: repos.NewProvisionRepo(db, log),
		edges:      repos.NewEdgeRepo(db, log),
		users:      repos.NewUserRepo(db, log),
		tokens:     repos.NewUserTokenRepo(db, log),
	}
	h.graph = &countingGraph{GraphService: NewGraphService(log, GraphServiceDeps{
		Frameworks: h.frameworks,
		Controls:   h.controls,
		Articles:   h.articles,
		Provisions: h.provisions,
		Edges:      h.edges,
	})}
	h.frameworkSvc = NewFrameworkService(db, log, h.frameworks, h.controls, h.articles, h.provisions, h.edges, h.graph)
	h.controlSvc = NewControlService(db, log, h.frameworks, h.controls, h.edges, h.graph)
	h.articleSvc = NewArticleService(db, log, h.frameworks, h.articles, h.provisions, h.edges, h.graph)
	h.provisionSvc = NewProvisionService(db, log, h.articles, h.provisions, h.edges, h.graph)
	h.edgeSvc = NewEdgeService(db, log, h.frameworks, h.controls, h.articles, h.provisions, h.edges, h.graph)
	h.seedSvc = NewSeedService(db, log, h.frameworks, h.controls, h.articles, h.provisions, h.edges, h.graph)
	return h
}

func (h *harness) snapshot(t *testing.T) *Snapshot {
	t.Helper()
	snap, err := h.graph.Snapshot(h.ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	return snap
}

func countRelation(edges []regmap.Edge, rel regmap.Relation) int {
	n := 0
	for _, e := range edges {
		if e.Relation == rel {
			n++
		}
	}
	return n
}
