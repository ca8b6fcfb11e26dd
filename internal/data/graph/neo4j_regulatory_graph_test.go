package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mizanhq/mizan-backend/internal/platform/logger"
	"github.com/mizanhq/mizan-backend/internal/regmap"
)

func TestBuildRegulatoryPayload(t *testing.T) {
	nodes := []regmap.Node{
		{ID: "F1", Kind: regmap.KindFramework, Code: "PDPL"},
		{ID: "C1", Kind: regmap.KindControl, Code: "1-1", ParentID: "F1"},
		{ID: "A1", Kind: regmap.KindArticle, Code: "4", ParentID: "F1"},
		{ID: "X", Kind: regmap.Kind("bogus")},
	}
	edges := []regmap.Edge{
		{ID: "e1", From: "F1", To: "C1", Relation: regmap.RelContains},
		{ID: "e2", From: "C1", To: "A1", Relation: regmap.RelImplements},
		{ID: "e3", From: "C1", To: "missing", Relation: regmap.RelCites},
		{ID: "e4", From: "X", To: "A1", Relation: regmap.RelRelated},
	}

	p := buildRegulatoryPayload(nodes, edges, "now")
	require.Len(t, p.nodesByLabel["Framework"], 1)
	require.Len(t, p.nodesByLabel["Control"], 1)
	require.Len(t, p.nodesByLabel["Article"], 1)
	assert.Empty(t, p.nodesByLabel["Provision"])
	assert.Equal(t, "F1", p.nodesByLabel["Control"][0]["parent_id"])

	require.Len(t, p.edges, 2)
	assert.Equal(t, "e1", p.edges[0]["id"])
	assert.Equal(t, "implements", p.edges[1]["relation"])
	assert.Equal(t, "now", p.edges[1]["synced_at"])
}

func TestSyncWithoutClientIsNoop(t *testing.T) {
	assert.NoError(t, SyncRegulatoryGraph(context.Background(), nil, logger.NewNop(), nil, nil))
	assert.Nil(t, NewProjector(nil, logger.NewNop()))

	var p *Projector
	assert.NoError(t, p.Project(context.Background(), nil, nil))
}
