package services

import (
	"context"
	"time"

	"github.com/mizanhq/mizan-backend/internal/domain/regulatory"
	"github.com/mizanhq/mizan-backend/internal/platform/logger"
	"github.com/mizanhq/mizan-backend/internal/regmap"
)

type FrameworkSummary struct {
	ID              string `json:"id"`
	Code            string `json:"code"`
	Name            string `json:"name"`
	Controls        int    `json:"controls"`
	Articles        int    `json:"articles"`
	Provisions      int    `json:"provisions"`
	CrossReferences int    `json:"cross_references"`
}

type DashboardSummary struct {
	Totals             map[regmap.Kind]int     `json:"totals"`
	TotalEdges         int                     `json:"total_edges"`
	EdgesByRelation    map[regmap.Relation]int `json:"edges_by_relation"`
	ControlsByPriority map[string]int          `json:"controls_by_priority"`
	Frameworks         []FrameworkSummary      `json:"frameworks"`
	GeneratedAt        time.Time               `json:"generated_at"`
	SnapshotLoadedAt   time.Time               `json:"snapshot_loaded_at"`
}

type DashboardService interface {
	Summary(ctx context.Context) (*DashboardSummary, error)
}

type dashboardService struct {
	log   *logger.Logger
	graph GraphService
	now   func() time.Time
}

func NewDashboardService(log *logger.Logger, graph GraphService) DashboardService {
	return &dashboardService{
		log:   log.With("service", "DashboardService"),
		graph: graph,
		now:   time.Now,
	}
}

// Summary counts the current snapshot. A cross reference is any non-contains
// edge with at least one end inside the framework.
func (ds *dashboardService) Summary(ctx context.Context) (*DashboardSummary, error) {
	snap, err := ds.graph.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	out := &DashboardSummary{
		Totals:             map[regmap.Kind]int{},
		TotalEdges:         len(snap.Edges),
		EdgesByRelation:    map[regmap.Relation]int{},
		ControlsByPriority: map[string]int{},
		Frameworks:         []FrameworkSummary{},
		GeneratedAt:        ds.now().UTC(),
		SnapshotLoadedAt:   snap.LoadedAt,
	}
	for _, k := range regmap.Kinds {
		out.Totals[k] = 0
	}
	for _, p := range regulatory.Priorities {
		out.ControlsByPriority[string(p)] = 0
	}

	byFramework := map[string]*FrameworkSummary{}
	order := make([]string, 0)
	for _, n := range snap.Nodes {
		out.Totals[n.Kind]++
		if n.Kind == regmap.KindFramework {
			byFramework[n.ID] = &FrameworkSummary{ID: n.ID, Code: n.Code, Name: n.Name}
			order = append(order, n.ID)
		}
		if n.Kind == regmap.KindControl {
			out.ControlsByPriority[n.Priority]++
		}
	}

	// owner resolves any entity id to its framework id.
	owner := func(id string) string {
		n, ok := snap.Node(id)
		if !ok {
			return ""
		}
		switch n.Kind {
		case regmap.KindFramework:
			return n.ID
		case regmap.KindControl, regmap.KindArticle:
			return n.ParentID
		case regmap.KindProvision:
			if a, ok := snap.Node(n.ParentID); ok {
				return a.ParentID
			}
		}
		return ""
	}

	for _, n := range snap.Nodes {
		fs, ok := byFramework[owner(n.ID)]
		if !ok {
			continue
		}
		switch n.Kind {
		case regmap.KindControl:
			fs.Controls++
		case regmap.KindArticle:
			fs.Articles++
		case regmap.KindProvision:
			fs.Provisions++
		}
	}

	for _, e := range snap.Edges {
		out.EdgesByRelation[e.Relation]++
		if e.Relation == regmap.RelContains {
			continue
		}
		from, to := owner(e.From), owner(e.To)
		if fs, ok := byFramework[from]; ok {
			fs.CrossReferences++
		}
		if to != from {
			if fs, ok := byFramework[to]; ok {
				fs.CrossReferences++
			}
		}
	}

	for _, id := range order {
		out.Frameworks = append(out.Frameworks, *byFramework[id])
	}
	return out, nil
}
