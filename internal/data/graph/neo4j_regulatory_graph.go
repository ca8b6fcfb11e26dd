package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/mizanhq/mizan-backend/internal/platform/logger"
	"github.com/mizanhq/mizan-backend/internal/platform/neo4jdb"
	"github.com/mizanhq/mizan-backend/internal/regmap"
)

var kindLabels = map[regmap.Kind]string{
	regmap.KindFramework: "Framework",
	regmap.KindControl:   "Control",
	regmap.KindArticle:   "Article",
	regmap.KindProvision: "Provision",
}

type regulatoryPayload struct {
	nodesByLabel map[string][]map[string]any
	edges        []map[string]any
}

// buildRegulatoryPayload converts a snapshot into UNWIND parameter rows.
// Nodes with an unknown kind are skipped, as are edges whose endpoints are
// not in nodes.
func buildRegulatoryPayload(nodes []regmap.Node, edges []regmap.Edge, syncedAt string) regulatoryPayload {
	out := regulatoryPayload{nodesByLabel: map[string][]map[string]any{}}
	present := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		label, ok := kindLabels[n.Kind]
		if !ok || n.ID == "" {
			continue
		}
		present[n.ID] = struct{}{}
		out.nodesByLabel[label] = append(out.nodesByLabel[label], map[string]any{
			"id":          n.ID,
			"kind":        string(n.Kind),
			"code":        n.Code,
			"name":        n.Name,
			"description": n.Description,
			"category":    n.Category,
			"priority":    n.Priority,
			"parent_id":   n.ParentID,
			"synced_at":   syncedAt,
		})
	}
	for _, e := range edges {
		if _, ok := present[e.From]; !ok {
			continue
		}
		if _, ok := present[e.To]; !ok {
			continue
		}
		out.edges = append(out.edges, map[string]any{
			"id":        e.ID,
			"from":      e.From,
			"to":        e.To,
			"relation":  string(e.Relation),
			"synced_at": syncedAt,
		})
	}
	return out
}

// SyncRegulatoryGraph mirrors the full regulatory graph into Neo4j. Every node
// carries the :Regulatory label plus one per kind; relations become
// :REG_EDGE relationships. Anything not touched by this run is removed.
func SyncRegulatoryGraph(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, nodes []regmap.Node, edges []regmap.Edge) error {
	if client == nil || client.Driver == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	payload := buildRegulatoryPayload(nodes, edges, now)

	session := client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: client.Database,
	})
	defer session.Close(ctx)

	// Best-effort schema init.
	{
		stmts := []string{
			`CREATE CONSTRAINT regulatory_id_unique IF NOT EXISTS FOR (n:Regulatory) REQUIRE n.id IS UNIQUE`,
		}
		for _, q := range stmts {
			if res, err := session.Run(ctx, q, nil); err != nil {
				if log != nil {
					log.Warn("neo4j schema init failed (continuing)", "error", err)
				}
			} else {
				_, _ = res.Consume(ctx)
			}
		}
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, kind := range regmap.Kinds {
			label := kindLabels[kind]
			rows := payload.nodesByLabel[label]
			if len(rows) == 0 {
				continue
			}
			res, err := tx.Run(ctx, fmt.Sprintf(`
UNWIND $nodes AS n
MERGE (r:Regulatory {id: n.id})
SET r += n, r:%s
`, label), map[string]any{"nodes": rows})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}

		if len(payload.edges) > 0 {
			res, err := tx.Run(ctx, `
UNWIND $edges AS e
MATCH (a:Regulatory {id: e.from})
MATCH (b:Regulatory {id: e.to})
MERGE (a)-[x:REG_EDGE {id: e.id}]->(b)
SET x.relation = e.relation,
    x.synced_at = e.synced_at
`, map[string]any{"edges": payload.edges})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}

		// Stale cleanup.
		if res, err := tx.Run(ctx, `
MATCH (:Regulatory)-[x:REG_EDGE]->(:Regulatory)
WHERE x.synced_at <> $synced_at
DELETE x
`, map[string]any{"synced_at": now}); err != nil {
			return nil, err
		} else if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}
		if res, err := tx.Run(ctx, `
MATCH (r:Regulatory)
WHERE r.synced_at <> $synced_at
DETACH DELETE r
`, map[string]any{"synced_at": now}); err != nil {
			return nil, err
		} else if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}

// Projector adapts SyncRegulatoryGraph to the graph service's projector hook.
type Projector struct {
	client *neo4jdb.Client
	log    *logger.Logger
}

// NewProjector returns nil when client is nil.
func NewProjector(client *neo4jdb.Client, log *logger.Logger) *Projector {
	if client == nil {
		return nil
	}
	return &Projector{client: client, log: log.With("projector", "Neo4jRegulatoryGraph")}
}

func (p *Projector) Project(ctx context.Context, nodes []regmap.Node, edges []regmap.Edge) error {
	if p == nil {
		return nil
	}
	return SyncRegulatoryGraph(ctx, p.client, p.log, nodes, edges)
}
